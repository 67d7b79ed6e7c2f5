package trade

import (
	"testing"
	"time"

	"github.com/gestor/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDocument(t *testing.T, kind DocumentKind, total string) *SourceDocument {
	t.Helper()

	amount, err := valueobject.NewMoneyBRLFromString(total)
	require.NoError(t, err)

	doc, err := NewSourceDocument(uuid.New(), "VD-000042", kind, uuid.New(), "Ana Costa", amount)
	require.NoError(t, err)
	return doc
}

func TestNewSourceDocument(t *testing.T) {
	t.Run("creates an open document", func(t *testing.T) {
		doc := newTestDocument(t, DocumentKindProductSale, "150.00")

		assert.Equal(t, DocumentStatusOpen, doc.Status)
		assert.True(t, doc.Total.Equal(decimal.NewFromInt(150)))
		assert.Empty(t, doc.Payments)
		assert.Nil(t, doc.CompletedAt)
		assert.False(t, doc.IssuedAt.IsZero())
	})

	t.Run("rejects empty document number", func(t *testing.T) {
		_, err := NewSourceDocument(uuid.New(), "", DocumentKindProductSale,
			uuid.New(), "Ana Costa", valueobject.NewMoneyBRLFromFloat(100))
		require.Error(t, err)
	})

	t.Run("rejects unknown kind", func(t *testing.T) {
		_, err := NewSourceDocument(uuid.New(), "XX-000001", DocumentKind("QUOTE"),
			uuid.New(), "Ana Costa", valueobject.NewMoneyBRLFromFloat(100))
		require.Error(t, err)
	})

	t.Run("rejects empty customer", func(t *testing.T) {
		_, err := NewSourceDocument(uuid.New(), "VD-000001", DocumentKindProductSale,
			uuid.Nil, "Ana Costa", valueobject.NewMoneyBRLFromFloat(100))
		require.Error(t, err)
	})

	t.Run("rejects non-positive total", func(t *testing.T) {
		_, err := NewSourceDocument(uuid.New(), "VD-000001", DocumentKindProductSale,
			uuid.New(), "Ana Costa", valueobject.ZeroBRL())
		require.Error(t, err)
	})
}

func TestDocumentKind_NumberPrefix(t *testing.T) {
	assert.Equal(t, "VD", DocumentKindProductSale.NumberPrefix())
	assert.Equal(t, "OS", DocumentKindServiceOrder.NumberPrefix())
	assert.Equal(t, "EV", DocumentKindWrapJob.NumberPrefix())
	assert.Equal(t, "DC", DocumentKind("OTHER").NumberPrefix())
}

func TestSourceDocument_AddPayment(t *testing.T) {
	t.Run("appends the line", func(t *testing.T) {
		doc := newTestDocument(t, DocumentKindServiceOrder, "200.00")

		line, err := doc.AddPayment("PIX", decimal.NewFromInt(80), time.Now())
		require.NoError(t, err)

		assert.Equal(t, "PIX", line.Method)
		assert.Len(t, doc.Payments, 1)
	})

	t.Run("defaults zero date to now", func(t *testing.T) {
		doc := newTestDocument(t, DocumentKindServiceOrder, "200.00")

		line, err := doc.AddPayment("CASH", decimal.NewFromInt(50), time.Time{})
		require.NoError(t, err)
		assert.False(t, line.Date.IsZero())
	})

	t.Run("rejects non-positive amount", func(t *testing.T) {
		doc := newTestDocument(t, DocumentKindServiceOrder, "200.00")

		_, err := doc.AddPayment("CASH", decimal.Zero, time.Now())
		require.Error(t, err)
	})

	t.Run("rejects cancelled document", func(t *testing.T) {
		doc := newTestDocument(t, DocumentKindServiceOrder, "200.00")
		doc.Status = DocumentStatusCancelled

		_, err := doc.AddPayment("CASH", decimal.NewFromInt(50), time.Now())
		require.Error(t, err)
	})
}

func TestSourceDocument_Complete(t *testing.T) {
	t.Run("marks completed", func(t *testing.T) {
		doc := newTestDocument(t, DocumentKindProductSale, "100.00")

		require.NoError(t, doc.Complete())
		assert.Equal(t, DocumentStatusCompleted, doc.Status)
		require.NotNil(t, doc.CompletedAt)
	})

	t.Run("rejects double completion", func(t *testing.T) {
		doc := newTestDocument(t, DocumentKindProductSale, "100.00")
		require.NoError(t, doc.Complete())

		require.Error(t, doc.Complete())
	})
}

func TestSourceDocument_UpdateTotal(t *testing.T) {
	t.Run("returns the previous total", func(t *testing.T) {
		doc := newTestDocument(t, DocumentKindProductSale, "200.00")

		previous, err := doc.UpdateTotal(valueobject.NewMoneyBRLFromFloat(300))
		require.NoError(t, err)

		assert.True(t, previous.Equal(decimal.NewFromInt(200)))
		assert.True(t, doc.Total.Equal(decimal.NewFromInt(300)))
	})

	t.Run("rejects non-positive total", func(t *testing.T) {
		doc := newTestDocument(t, DocumentKindProductSale, "200.00")

		_, err := doc.UpdateTotal(valueobject.ZeroBRL())
		require.Error(t, err)
	})

	t.Run("rejects cancelled document", func(t *testing.T) {
		doc := newTestDocument(t, DocumentKindProductSale, "200.00")
		doc.Status = DocumentStatusCancelled

		_, err := doc.UpdateTotal(valueobject.NewMoneyBRLFromFloat(300))
		require.Error(t, err)
	})
}

func TestSourceDocument_CreditConsumption(t *testing.T) {
	t.Run("sums only credit lines", func(t *testing.T) {
		doc := newTestDocument(t, DocumentKindProductSale, "100.00")
		_, err := doc.AddPayment("CASH", decimal.NewFromInt(40), time.Now())
		require.NoError(t, err)
		_, err = doc.AddPayment(PaymentMethodCredit, decimal.NewFromInt(60), time.Now())
		require.NoError(t, err)

		assert.True(t, doc.CreditConsumption().Equal(decimal.NewFromInt(60)))
	})

	t.Run("credit above 110 percent of the total yields zero", func(t *testing.T) {
		doc := newTestDocument(t, DocumentKindProductSale, "100.00")
		_, err := doc.AddPayment(PaymentMethodCredit, decimal.NewFromInt(120), time.Now())
		require.NoError(t, err)

		assert.True(t, doc.CreditConsumption().IsZero())
	})

	t.Run("credit exactly at the ceiling is kept", func(t *testing.T) {
		doc := newTestDocument(t, DocumentKindProductSale, "100.00")
		_, err := doc.AddPayment(PaymentMethodCredit, decimal.NewFromInt(110), time.Now())
		require.NoError(t, err)

		assert.True(t, doc.CreditConsumption().Equal(decimal.NewFromInt(110)))
	})
}

func TestSourceDocument_SoldBy(t *testing.T) {
	doc := newTestDocument(t, DocumentKindProductSale, "100.00")
	seller := uuid.New()

	assert.False(t, doc.SoldBy(seller))

	doc.SetSeller(seller)
	assert.True(t, doc.SoldBy(seller))
	assert.False(t, doc.SoldBy(uuid.New()))
}
