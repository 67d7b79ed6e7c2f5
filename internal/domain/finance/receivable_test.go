package finance

import (
	"fmt"
	"testing"
	"time"

	"github.com/gestor/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestReceivable(t *testing.T, amount string) *Receivable {
	t.Helper()
	money, err := valueobject.NewMoneyBRLFromString(amount)
	require.NoError(t, err)

	r, err := NewReceivable(
		uuid.New(),
		"REC-000001",
		uuid.New(),
		"Maria Silva",
		OriginKindManual,
		uuid.Nil,
		"",
		money,
		time.Now(),
		nil,
	)
	require.NoError(t, err)
	return r
}

func TestNewReceivable(t *testing.T) {
	tenantID := uuid.New()
	debtorID := uuid.New()
	amount := valueobject.NewMoneyBRLFromFloat(150.00)

	t.Run("creates receivable with valid inputs", func(t *testing.T) {
		due := time.Now().AddDate(0, 1, 0)
		r, err := NewReceivable(tenantID, "REC-000001", debtorID, "Maria Silva",
			OriginKindProductSale, uuid.New(), "DOC-001", amount, time.Now(), &due)
		require.NoError(t, err)
		require.NotNil(t, r)

		assert.Equal(t, tenantID, r.TenantID)
		assert.Equal(t, "REC-000001", r.ReceivableNumber)
		assert.Equal(t, ReceivableStatusPending, r.Status)
		assert.True(t, r.OriginalAmount.Equal(decimal.NewFromFloat(150.00)))
		assert.True(t, r.PendingAmount.Equal(r.OriginalAmount))
		assert.True(t, r.PaidAmount.IsZero())
		assert.True(t, r.AccruedInterest.IsZero())
		assert.Empty(t, r.Payments)
		assert.Nil(t, r.SettledAt)
	})

	t.Run("publishes ReceivableCreated event", func(t *testing.T) {
		r, err := NewReceivable(tenantID, "REC-000002", debtorID, "Maria Silva",
			OriginKindManual, uuid.Nil, "", amount, time.Now(), nil)
		require.NoError(t, err)

		events := r.GetDomainEvents()
		require.Len(t, events, 1)
		assert.Equal(t, "ReceivableCreated", events[0].EventType())
	})

	t.Run("fails with empty receivable number", func(t *testing.T) {
		_, err := NewReceivable(tenantID, "", debtorID, "Maria Silva",
			OriginKindManual, uuid.Nil, "", amount, time.Now(), nil)
		require.Error(t, err)
	})

	t.Run("fails with non-positive amount", func(t *testing.T) {
		_, err := NewReceivable(tenantID, "REC-000003", debtorID, "Maria Silva",
			OriginKindManual, uuid.Nil, "", valueobject.ZeroBRL(), time.Now(), nil)
		require.Error(t, err)
	})

	t.Run("requires origin ID for non-manual kinds", func(t *testing.T) {
		_, err := NewReceivable(tenantID, "REC-000004", debtorID, "Maria Silva",
			OriginKindProductSale, uuid.Nil, "", amount, time.Now(), nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Origin ID is required")
	})
}

func TestReceivable_RegisterPayment(t *testing.T) {
	t.Run("partial payment moves status to PARTIAL", func(t *testing.T) {
		r := newTestReceivable(t, "100.00")

		entry, err := r.RegisterPayment(valueobject.NewMoneyBRLFromFloat(40), PaymentMethodPix, time.Now(), "")
		require.NoError(t, err)
		require.NotNil(t, entry)

		assert.Equal(t, ReceivableStatusPartial, r.Status)
		assert.True(t, r.PaidAmount.Equal(decimal.NewFromInt(40)))
		assert.True(t, r.PendingAmount.Equal(decimal.NewFromInt(60)))
		assert.False(t, entry.Clamped)
		assert.Nil(t, r.SettledAt)
	})

	t.Run("full payment settles the receivable", func(t *testing.T) {
		r := newTestReceivable(t, "100.00")

		_, err := r.RegisterPayment(valueobject.NewMoneyBRLFromFloat(100), PaymentMethodCash, time.Now(), "")
		require.NoError(t, err)

		assert.Equal(t, ReceivableStatusSettled, r.Status)
		assert.True(t, r.PendingAmount.IsZero())
		require.NotNil(t, r.SettledAt)
	})

	t.Run("overpayment is clamped to the pending balance", func(t *testing.T) {
		r := newTestReceivable(t, "100.00")

		entry, err := r.RegisterPayment(valueobject.NewMoneyBRLFromFloat(150), PaymentMethodCash, time.Now(), "")
		require.NoError(t, err)

		assert.True(t, entry.Clamped)
		assert.True(t, entry.Amount.Equal(decimal.NewFromInt(100)))
		assert.Equal(t, ReceivableStatusSettled, r.Status)
		assert.True(t, r.PaidAmount.Equal(decimal.NewFromInt(100)))
		assert.True(t, r.PendingAmount.IsZero())
	})

	t.Run("rejects payment on settled receivable", func(t *testing.T) {
		r := newTestReceivable(t, "50.00")
		_, err := r.RegisterPayment(valueobject.NewMoneyBRLFromFloat(50), PaymentMethodCash, time.Now(), "")
		require.NoError(t, err)

		_, err = r.RegisterPayment(valueobject.NewMoneyBRLFromFloat(10), PaymentMethodCash, time.Now(), "")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "RECEIVABLE_SETTLED")
	})

	t.Run("rejects non-positive amount", func(t *testing.T) {
		r := newTestReceivable(t, "50.00")
		_, err := r.RegisterPayment(valueobject.ZeroBRL(), PaymentMethodCash, time.Now(), "")
		require.Error(t, err)
	})

	t.Run("rejects unknown method", func(t *testing.T) {
		r := newTestReceivable(t, "50.00")
		_, err := r.RegisterPayment(valueobject.NewMoneyBRLFromFloat(10), PaymentMethod("BARTER"), time.Now(), "")
		require.Error(t, err)
	})

	t.Run("sequence of partials accumulates and settles", func(t *testing.T) {
		r := newTestReceivable(t, "90.00")
		for i := 0; i < 3; i++ {
			_, err := r.RegisterPayment(valueobject.NewMoneyBRLFromFloat(30), PaymentMethodDebitCard, time.Now(), "")
			require.NoError(t, err)
		}
		assert.Equal(t, ReceivableStatusSettled, r.Status)
		assert.Equal(t, 3, r.PaymentCount())
		assert.True(t, r.Payments.Sum().Equal(decimal.NewFromInt(90)))
	})
}

func TestPaymentMethod_IsDeferred(t *testing.T) {
	assert.True(t, PaymentMethodStoreCredit.IsDeferred())
	assert.False(t, PaymentMethodCash.IsDeferred())
	assert.False(t, PaymentMethodPix.IsDeferred())
	assert.False(t, PaymentMethodCreditCard.IsDeferred())
}

func TestReceivable_ConfigureInterest(t *testing.T) {
	t.Run("sets the schedule and resets tracking fields", func(t *testing.T) {
		r := newTestReceivable(t, "100.00")
		applied := time.Now()
		err := r.ConfigureInterest(InterestConfig{
			Type:          InterestTypePercent,
			Rate:          decimal.NewFromInt(2),
			StartDate:     time.Now(),
			Frequency:     InterestFrequencyMonthly,
			LastAppliedAt: &applied,
			Applications:  5,
		})
		require.NoError(t, err)
		require.NotNil(t, r.Interest)
		assert.Nil(t, r.Interest.LastAppliedAt)
		assert.Zero(t, r.Interest.Applications)
	})

	t.Run("rejects settled receivable", func(t *testing.T) {
		r := newTestReceivable(t, "10.00")
		_, err := r.RegisterPayment(valueobject.NewMoneyBRLFromFloat(10), PaymentMethodCash, time.Now(), "")
		require.NoError(t, err)

		err = r.ConfigureInterest(InterestConfig{
			Type:      InterestTypeFixed,
			Rate:      decimal.NewFromInt(5),
			StartDate: time.Now(),
			Frequency: InterestFrequencyOnce,
		})
		require.Error(t, err)
	})

	t.Run("rejects non-positive rate", func(t *testing.T) {
		r := newTestReceivable(t, "100.00")
		err := r.ConfigureInterest(InterestConfig{
			Type:      InterestTypePercent,
			Rate:      decimal.Zero,
			StartDate: time.Now(),
			Frequency: InterestFrequencyDaily,
		})
		require.Error(t, err)
	})
}

func TestReceivable_ShouldApplyInterest(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

	config := func(freq InterestFrequency, start time.Time) InterestConfig {
		return InterestConfig{
			Type:      InterestTypePercent,
			Rate:      decimal.NewFromInt(1),
			StartDate: start,
			Frequency: freq,
		}
	}

	t.Run("false without configuration", func(t *testing.T) {
		r := newTestReceivable(t, "100.00")
		assert.False(t, r.ShouldApplyInterest(now))
	})

	t.Run("false before start date", func(t *testing.T) {
		r := newTestReceivable(t, "100.00")
		require.NoError(t, r.ConfigureInterest(config(InterestFrequencyDaily, now.AddDate(0, 0, 10))))
		assert.False(t, r.ShouldApplyInterest(now))
	})

	t.Run("true on first application after start", func(t *testing.T) {
		r := newTestReceivable(t, "100.00")
		require.NoError(t, r.ConfigureInterest(config(InterestFrequencyDaily, now.AddDate(0, 0, -1))))
		assert.True(t, r.ShouldApplyInterest(now))
	})

	t.Run("ONCE applies exactly one time", func(t *testing.T) {
		r := newTestReceivable(t, "100.00")
		require.NoError(t, r.ConfigureInterest(config(InterestFrequencyOnce, now.AddDate(0, 0, -1))))

		_, err := r.ApplyInterest(now)
		require.NoError(t, err)
		assert.False(t, r.ShouldApplyInterest(now.AddDate(0, 0, 30)))
	})

	t.Run("DAILY is not due twice the same day", func(t *testing.T) {
		r := newTestReceivable(t, "100.00")
		require.NoError(t, r.ConfigureInterest(config(InterestFrequencyDaily, now.AddDate(0, 0, -1))))

		_, err := r.ApplyInterest(now)
		require.NoError(t, err)
		assert.False(t, r.ShouldApplyInterest(now.Add(2*time.Hour)))
		assert.True(t, r.ShouldApplyInterest(now.AddDate(0, 0, 1)))
	})

	t.Run("WEEKLY waits seven days", func(t *testing.T) {
		r := newTestReceivable(t, "100.00")
		require.NoError(t, r.ConfigureInterest(config(InterestFrequencyWeekly, now.AddDate(0, 0, -1))))

		_, err := r.ApplyInterest(now)
		require.NoError(t, err)
		assert.False(t, r.ShouldApplyInterest(now.AddDate(0, 0, 6)))
		assert.True(t, r.ShouldApplyInterest(now.AddDate(0, 0, 7)))
	})

	t.Run("MONTHLY waits a calendar month", func(t *testing.T) {
		r := newTestReceivable(t, "100.00")
		require.NoError(t, r.ConfigureInterest(config(InterestFrequencyMonthly, now.AddDate(0, 0, -1))))

		_, err := r.ApplyInterest(now)
		require.NoError(t, err)
		assert.False(t, r.ShouldApplyInterest(now.AddDate(0, 0, 20)))
		assert.True(t, r.ShouldApplyInterest(now.AddDate(0, 1, 0)))
	})
}

func TestReceivable_ApplyInterest(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

	t.Run("percent interest adds rate of pending", func(t *testing.T) {
		r := newTestReceivable(t, "200.00")
		require.NoError(t, r.ConfigureInterest(InterestConfig{
			Type:      InterestTypePercent,
			Rate:      decimal.NewFromInt(10),
			StartDate: now.AddDate(0, 0, -1),
			Frequency: InterestFrequencyMonthly,
		}))

		delta, err := r.ApplyInterest(now)
		require.NoError(t, err)

		assert.True(t, delta.Equal(decimal.NewFromInt(20)), "delta = %s", delta)
		assert.True(t, r.PendingAmount.Equal(decimal.NewFromInt(220)))
		assert.True(t, r.AccruedInterest.Equal(decimal.NewFromInt(20)))
		assert.True(t, r.TotalDue().Equal(decimal.NewFromInt(220)))
		require.Len(t, r.InterestHistory, 1)
		assert.True(t, r.InterestHistory[0].PendingAfter.Equal(decimal.NewFromInt(220)))
	})

	t.Run("fixed interest adds the flat rate", func(t *testing.T) {
		r := newTestReceivable(t, "200.00")
		require.NoError(t, r.ConfigureInterest(InterestConfig{
			Type:      InterestTypeFixed,
			Rate:      decimal.NewFromFloat(7.50),
			StartDate: now.AddDate(0, 0, -1),
			Frequency: InterestFrequencyDaily,
		}))

		delta, err := r.ApplyInterest(now)
		require.NoError(t, err)
		assert.True(t, delta.Equal(decimal.NewFromFloat(7.50)))
		assert.True(t, r.PendingAmount.Equal(decimal.NewFromFloat(207.50)))
	})

	t.Run("compound accrual grows on the updated pending", func(t *testing.T) {
		r := newTestReceivable(t, "100.00")
		require.NoError(t, r.ConfigureInterest(InterestConfig{
			Type:      InterestTypePercent,
			Rate:      decimal.NewFromInt(10),
			StartDate: now.AddDate(0, 0, -1),
			Frequency: InterestFrequencyDaily,
		}))

		_, err := r.ApplyInterest(now)
		require.NoError(t, err)
		delta, err := r.ApplyInterest(now.AddDate(0, 0, 1))
		require.NoError(t, err)

		assert.True(t, delta.Equal(decimal.NewFromInt(11)), "delta = %s", delta)
		assert.True(t, r.PendingAmount.Equal(decimal.NewFromInt(121)))
	})

	t.Run("rejects when not due", func(t *testing.T) {
		r := newTestReceivable(t, "100.00")
		require.NoError(t, r.ConfigureInterest(InterestConfig{
			Type:      InterestTypePercent,
			Rate:      decimal.NewFromInt(1),
			StartDate: now.AddDate(0, 0, 5),
			Frequency: InterestFrequencyDaily,
		}))

		_, err := r.ApplyInterest(now)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "INTEREST_NOT_DUE")
	})

	t.Run("rejects without configuration", func(t *testing.T) {
		r := newTestReceivable(t, "100.00")
		_, err := r.ApplyInterest(now)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "NO_INTEREST_CONFIG")
	})
}

func TestReceivable_SplitIntoInstallments(t *testing.T) {
	numberFor := func(seq int) string { return fmt.Sprintf("REC-000001/%d", seq) }
	firstDue := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)

	t.Run("children conserve the pending balance exactly", func(t *testing.T) {
		r := newTestReceivable(t, "100.00")

		children, err := r.SplitIntoInstallments(3, 30, firstDue, numberFor)
		require.NoError(t, err)
		require.Len(t, children, 3)

		total := decimal.Zero
		for _, c := range children {
			total = total.Add(c.PendingAmount)
		}
		assert.True(t, total.Equal(decimal.NewFromInt(100)), "total = %s", total)

		// 100/3 leaves a remainder cent on the first child
		assert.True(t, children[0].OriginalAmount.Equal(decimal.NewFromFloat(33.34)))
		assert.True(t, children[1].OriginalAmount.Equal(decimal.NewFromFloat(33.33)))
		assert.True(t, children[2].OriginalAmount.Equal(decimal.NewFromFloat(33.33)))
	})

	t.Run("children carry sequence, parent link and spaced due dates", func(t *testing.T) {
		r := newTestReceivable(t, "90.00")

		children, err := r.SplitIntoInstallments(3, 15, firstDue, numberFor)
		require.NoError(t, err)

		for i, c := range children {
			require.NotNil(t, c.ParentID)
			assert.Equal(t, r.ID, *c.ParentID)
			assert.Equal(t, i+1, c.InstallmentSeq)
			assert.Equal(t, 3, c.InstallmentCount)
			require.NotNil(t, c.DueDate)
			assert.Equal(t, firstDue.AddDate(0, 0, i*15), *c.DueDate)
			assert.Equal(t, fmt.Sprintf("REC-000001/%d", i+1), c.ReceivableNumber)
		}
	})

	t.Run("parent is settled with zero pending", func(t *testing.T) {
		r := newTestReceivable(t, "90.00")

		_, err := r.SplitIntoInstallments(2, 30, firstDue, numberFor)
		require.NoError(t, err)

		assert.Equal(t, ReceivableStatusSettled, r.Status)
		assert.True(t, r.PendingAmount.IsZero())
		require.NotNil(t, r.SettledAt)
		assert.Equal(t, 2, r.InstallmentCount)
	})

	t.Run("rejects count below two", func(t *testing.T) {
		r := newTestReceivable(t, "90.00")
		_, err := r.SplitIntoInstallments(1, 30, firstDue, numberFor)
		require.Error(t, err)
	})

	t.Run("rejects splitting an installment child", func(t *testing.T) {
		r := newTestReceivable(t, "90.00")
		children, err := r.SplitIntoInstallments(2, 30, firstDue, numberFor)
		require.NoError(t, err)

		_, err = children[0].SplitIntoInstallments(2, 30, firstDue, numberFor)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "ALREADY_INSTALLMENT")
	})

	t.Run("rejects settled receivable", func(t *testing.T) {
		r := newTestReceivable(t, "50.00")
		_, err := r.RegisterPayment(valueobject.NewMoneyBRLFromFloat(50), PaymentMethodCash, time.Now(), "")
		require.NoError(t, err)

		_, err = r.SplitIntoInstallments(2, 30, firstDue, numberFor)
		require.Error(t, err)
	})
}

func TestReceivable_ApplyOriginTotalChange(t *testing.T) {
	t.Run("scales the original amount proportionally", func(t *testing.T) {
		r := newTestReceivable(t, "100.00")

		err := r.ApplyOriginTotalChange(decimal.NewFromInt(200), decimal.NewFromInt(300))
		require.NoError(t, err)

		assert.True(t, r.OriginalAmount.Equal(decimal.NewFromInt(150)), "original = %s", r.OriginalAmount)
		assert.True(t, r.PendingAmount.Equal(decimal.NewFromInt(150)))
		assert.Equal(t, ReceivableStatusPending, r.Status)
	})

	t.Run("keeps paid amount and recomputes pending", func(t *testing.T) {
		r := newTestReceivable(t, "100.00")
		_, err := r.RegisterPayment(valueobject.NewMoneyBRLFromFloat(40), PaymentMethodPix, time.Now(), "")
		require.NoError(t, err)

		err = r.ApplyOriginTotalChange(decimal.NewFromInt(100), decimal.NewFromInt(50))
		require.NoError(t, err)

		assert.True(t, r.OriginalAmount.Equal(decimal.NewFromInt(50)))
		assert.True(t, r.PaidAmount.Equal(decimal.NewFromInt(40)))
		assert.True(t, r.PendingAmount.Equal(decimal.NewFromInt(10)))
		assert.Equal(t, ReceivableStatusPartial, r.Status)
	})

	t.Run("pending floors at zero when paid exceeds new total", func(t *testing.T) {
		r := newTestReceivable(t, "100.00")
		_, err := r.RegisterPayment(valueobject.NewMoneyBRLFromFloat(80), PaymentMethodCash, time.Now(), "")
		require.NoError(t, err)

		err = r.ApplyOriginTotalChange(decimal.NewFromInt(100), decimal.NewFromInt(50))
		require.NoError(t, err)

		assert.True(t, r.PendingAmount.IsZero())
		assert.Equal(t, ReceivableStatusSettled, r.Status)
		require.NotNil(t, r.SettledAt)
	})

	t.Run("settled receivable reopens when total grows", func(t *testing.T) {
		r := newTestReceivable(t, "100.00")
		_, err := r.RegisterPayment(valueobject.NewMoneyBRLFromFloat(100), PaymentMethodCash, time.Now(), "")
		require.NoError(t, err)
		require.Equal(t, ReceivableStatusSettled, r.Status)

		err = r.ApplyOriginTotalChange(decimal.NewFromInt(100), decimal.NewFromInt(150))
		require.NoError(t, err)

		assert.True(t, r.PendingAmount.Equal(decimal.NewFromInt(50)))
		assert.Equal(t, ReceivableStatusPartial, r.Status)
		assert.Nil(t, r.SettledAt)
	})

	t.Run("rejects non-positive totals", func(t *testing.T) {
		r := newTestReceivable(t, "100.00")
		err := r.ApplyOriginTotalChange(decimal.Zero, decimal.NewFromInt(50))
		require.Error(t, err)
	})
}
