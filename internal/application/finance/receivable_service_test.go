package finance

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/gestor/backend/internal/domain/finance"
	"github.com/gestor/backend/internal/domain/shared"
	"github.com/gestor/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Mock Repositories
// =============================================================================

// MockReceivableRepository is a mock implementation of ReceivableRepository
type MockReceivableRepository struct {
	mock.Mock
}

func (m *MockReceivableRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*finance.Receivable, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*finance.Receivable), args.Error(1)
}

func (m *MockReceivableRepository) FindByNumber(ctx context.Context, tenantID uuid.UUID, number string) (*finance.Receivable, error) {
	args := m.Called(ctx, tenantID, number)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*finance.Receivable), args.Error(1)
}

func (m *MockReceivableRepository) FindDuplicate(ctx context.Context, tenantID, debtorID uuid.UUID, amount decimal.Decimal, issueDate time.Time, originKind finance.OriginKind, originID uuid.UUID) (*finance.Receivable, error) {
	args := m.Called(ctx, tenantID, debtorID, amount, issueDate, originKind, originID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*finance.Receivable), args.Error(1)
}

func (m *MockReceivableRepository) FindByOrigin(ctx context.Context, tenantID uuid.UUID, originKind finance.OriginKind, originID uuid.UUID) ([]finance.Receivable, error) {
	args := m.Called(ctx, tenantID, originKind, originID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]finance.Receivable), args.Error(1)
}

func (m *MockReceivableRepository) FindInstallments(ctx context.Context, tenantID, parentID uuid.UUID) ([]finance.Receivable, error) {
	args := m.Called(ctx, tenantID, parentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]finance.Receivable), args.Error(1)
}

func (m *MockReceivableRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter finance.ReceivableFilter) ([]finance.Receivable, error) {
	args := m.Called(ctx, tenantID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]finance.Receivable), args.Error(1)
}

func (m *MockReceivableRepository) FindInterestEligible(ctx context.Context, tenantID uuid.UUID, asOf time.Time) ([]finance.Receivable, error) {
	args := m.Called(ctx, tenantID, asOf)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]finance.Receivable), args.Error(1)
}

func (m *MockReceivableRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter finance.ReceivableFilter) (int64, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockReceivableRepository) SumPendingByDebtor(ctx context.Context, tenantID, debtorID uuid.UUID) (decimal.Decimal, error) {
	args := m.Called(ctx, tenantID, debtorID)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockReceivableRepository) Save(ctx context.Context, receivable *finance.Receivable) error {
	args := m.Called(ctx, receivable)
	return args.Error(0)
}

func (m *MockReceivableRepository) Remove(ctx context.Context, tenantID, id uuid.UUID) error {
	args := m.Called(ctx, tenantID, id)
	return args.Error(0)
}

func (m *MockReceivableRepository) GenerateNumber(ctx context.Context, tenantID uuid.UUID) (string, error) {
	args := m.Called(ctx, tenantID)
	return args.Get(0).(string), args.Error(1)
}

// MockCashLedgerRepository is a mock implementation of CashLedgerRepository
type MockCashLedgerRepository struct {
	mock.Mock
}

func (m *MockCashLedgerRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*finance.CashLedgerEntry, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*finance.CashLedgerEntry), args.Error(1)
}

func (m *MockCashLedgerRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter finance.CashLedgerFilter) ([]finance.CashLedgerEntry, error) {
	args := m.Called(ctx, tenantID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]finance.CashLedgerEntry), args.Error(1)
}

func (m *MockCashLedgerRepository) FindByReceivable(ctx context.Context, tenantID, receivableID uuid.UUID) ([]finance.CashLedgerEntry, error) {
	args := m.Called(ctx, tenantID, receivableID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]finance.CashLedgerEntry), args.Error(1)
}

func (m *MockCashLedgerRepository) SumByDirection(ctx context.Context, tenantID uuid.UUID, direction finance.LedgerDirection, from, to time.Time) (decimal.Decimal, error) {
	args := m.Called(ctx, tenantID, direction, from, to)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockCashLedgerRepository) Save(ctx context.Context, entry *finance.CashLedgerEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

// =============================================================================
// Test Helper Functions
// =============================================================================

func newServiceUnderTest(receivableRepo *MockReceivableRepository, ledgerRepo *MockCashLedgerRepository) *ReceivableService {
	scope := NewNoOpTransactionScope(receivableRepo, ledgerRepo)
	return NewReceivableService(scope, receivableRepo, nil, nil)
}

func createTestReceivable(t *testing.T, tenantID uuid.UUID, amount string) *finance.Receivable {
	t.Helper()
	money, err := valueobject.NewMoneyBRLFromString(amount)
	require.NoError(t, err)
	receivable, err := finance.NewReceivable(
		tenantID, "REC-000010", uuid.New(), "Maria Silva",
		finance.OriginKindManual, uuid.Nil, "", money, time.Now(), nil,
	)
	require.NoError(t, err)
	return receivable
}

// =============================================================================
// Test Cases for CreateReceivable
// =============================================================================

func TestReceivableService_CreateReceivable_New(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()

	receivableRepo := new(MockReceivableRepository)
	ledgerRepo := new(MockCashLedgerRepository)
	service := newServiceUnderTest(receivableRepo, ledgerRepo)

	receivableRepo.On("FindDuplicate", ctx, tenantID, mock.Anything, mock.Anything, mock.Anything, finance.OriginKindManual, mock.Anything).
		Return(nil, shared.ErrNotFound)
	receivableRepo.On("GenerateNumber", ctx, tenantID).Return("REC-000001", nil)
	receivableRepo.On("Save", ctx, mock.AnythingOfType("*finance.Receivable")).Return(nil)

	result, err := service.CreateReceivable(ctx, tenantID, CreateReceivableRequest{
		DebtorID:   uuid.New(),
		DebtorName: "Maria Silva",
		Amount:     decimal.NewFromFloat(150.00),
	})

	require.NoError(t, err)
	assert.True(t, result.Created)
	assert.Equal(t, "REC-000001", result.Receivable.ReceivableNumber)
	assert.Equal(t, "PENDING", result.Receivable.Status)
	assert.True(t, result.Receivable.PendingAmount.Equal(decimal.NewFromFloat(150.00)))

	receivableRepo.AssertExpectations(t)
	ledgerRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestReceivableService_CreateReceivable_DuplicateReturnsExisting(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()

	receivableRepo := new(MockReceivableRepository)
	ledgerRepo := new(MockCashLedgerRepository)
	service := newServiceUnderTest(receivableRepo, ledgerRepo)

	existing := createTestReceivable(t, tenantID, "150.00")
	receivableRepo.On("FindDuplicate", ctx, tenantID, mock.Anything, mock.Anything, mock.Anything, finance.OriginKindManual, mock.Anything).
		Return(existing, nil)

	result, err := service.CreateReceivable(ctx, tenantID, CreateReceivableRequest{
		DebtorID:   existing.DebtorID,
		DebtorName: existing.DebtorName,
		Amount:     decimal.NewFromFloat(150.00),
	})

	require.NoError(t, err)
	assert.False(t, result.Created)
	assert.Equal(t, existing.ID, result.Receivable.ID)

	// No payments came with the retry, so nothing is persisted again
	receivableRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	receivableRepo.AssertNotCalled(t, "GenerateNumber", mock.Anything, mock.Anything)
}

func TestReceivableService_CreateReceivable_DuplicateReconciledWithPayments(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()

	receivableRepo := new(MockReceivableRepository)
	ledgerRepo := new(MockCashLedgerRepository)
	service := newServiceUnderTest(receivableRepo, ledgerRepo)

	// A deferred (store-credit) record already exists for the same transaction
	existing := createTestReceivable(t, tenantID, "200.00")
	receivableRepo.On("FindDuplicate", ctx, tenantID, mock.Anything, mock.Anything, mock.Anything, finance.OriginKindManual, mock.Anything).
		Return(existing, nil)
	receivableRepo.On("Save", ctx, existing).Return(nil)
	ledgerRepo.On("Save", ctx, mock.AnythingOfType("*finance.CashLedgerEntry")).Return(nil)

	result, err := service.CreateReceivable(ctx, tenantID, CreateReceivableRequest{
		DebtorID:   existing.DebtorID,
		DebtorName: existing.DebtorName,
		Amount:     decimal.NewFromFloat(200.00),
		Payments: []PaymentInput{
			{Amount: decimal.NewFromFloat(200.00), Method: "CASH", Date: time.Now()},
		},
	})

	require.NoError(t, err)
	assert.False(t, result.Created)
	assert.Equal(t, "SETTLED", result.Receivable.Status)
	assert.True(t, result.Receivable.PendingAmount.IsZero())

	receivableRepo.AssertExpectations(t)
	ledgerRepo.AssertExpectations(t)
}

func TestReceivableService_CreateReceivable_DeferredPaymentSkipsLedger(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()

	receivableRepo := new(MockReceivableRepository)
	ledgerRepo := new(MockCashLedgerRepository)
	service := newServiceUnderTest(receivableRepo, ledgerRepo)

	receivableRepo.On("FindDuplicate", ctx, tenantID, mock.Anything, mock.Anything, mock.Anything, finance.OriginKindManual, mock.Anything).
		Return(nil, shared.ErrNotFound)
	receivableRepo.On("GenerateNumber", ctx, tenantID).Return("REC-000002", nil)
	receivableRepo.On("Save", ctx, mock.AnythingOfType("*finance.Receivable")).Return(nil)

	result, err := service.CreateReceivable(ctx, tenantID, CreateReceivableRequest{
		DebtorID:   uuid.New(),
		DebtorName: "Maria Silva",
		Amount:     decimal.NewFromFloat(100.00),
		Payments: []PaymentInput{
			{Amount: decimal.NewFromFloat(100.00), Method: "STORE_CREDIT", Date: time.Now()},
		},
	})

	require.NoError(t, err)
	assert.True(t, result.Created)
	assert.Equal(t, "SETTLED", result.Receivable.Status)

	// Store-credit settlement moves no cash, so no ledger entry is written
	ledgerRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestReceivableService_CreateReceivable_InvalidAmount(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()

	receivableRepo := new(MockReceivableRepository)
	ledgerRepo := new(MockCashLedgerRepository)
	service := newServiceUnderTest(receivableRepo, ledgerRepo)

	result, err := service.CreateReceivable(ctx, tenantID, CreateReceivableRequest{
		DebtorID:   uuid.New(),
		DebtorName: "Maria Silva",
		Amount:     decimal.Zero,
	})

	assert.Error(t, err)
	assert.Nil(t, result)
	assert.Contains(t, err.Error(), "must be positive")
}

// =============================================================================
// Test Cases for RegisterPayments
// =============================================================================

func TestReceivableService_RegisterPayments_EmitsLedgerEntry(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()

	receivableRepo := new(MockReceivableRepository)
	ledgerRepo := new(MockCashLedgerRepository)
	service := newServiceUnderTest(receivableRepo, ledgerRepo)

	receivable := createTestReceivable(t, tenantID, "300.00")
	receivableRepo.On("FindByIDForTenant", ctx, tenantID, receivable.ID).Return(receivable, nil)
	receivableRepo.On("Save", ctx, receivable).Return(nil)

	var captured *finance.CashLedgerEntry
	ledgerRepo.On("Save", ctx, mock.AnythingOfType("*finance.CashLedgerEntry")).
		Run(func(args mock.Arguments) {
			captured = args.Get(1).(*finance.CashLedgerEntry)
		}).
		Return(nil)

	result, err := service.RegisterPayments(ctx, tenantID, receivable.ID, RegisterPaymentsRequest{
		Payments: []PaymentInput{
			{Amount: decimal.NewFromFloat(120.00), Method: "PIX", Date: time.Now()},
		},
	})

	require.NoError(t, err)
	assert.Equal(t, "PARTIAL", result.Receivable.Status)
	assert.True(t, result.Receivable.PendingAmount.Equal(decimal.NewFromFloat(180.00)))
	assert.Empty(t, result.Warnings)

	require.NotNil(t, captured)
	assert.Equal(t, finance.LedgerDirectionIn, captured.Direction)
	assert.Equal(t, CategoryReceivablePayment, captured.Category)
	assert.True(t, captured.Amount.Equal(decimal.NewFromFloat(120.00)))
	require.NotNil(t, captured.ReceivableID)
	assert.Equal(t, receivable.ID, *captured.ReceivableID)
	assert.Equal(t, "PIX", captured.Metadata["payment_method"])
}

func TestReceivableService_RegisterPayments_ClampWarning(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()

	receivableRepo := new(MockReceivableRepository)
	ledgerRepo := new(MockCashLedgerRepository)
	service := newServiceUnderTest(receivableRepo, ledgerRepo)

	receivable := createTestReceivable(t, tenantID, "100.00")
	receivableRepo.On("FindByIDForTenant", ctx, tenantID, receivable.ID).Return(receivable, nil)
	receivableRepo.On("Save", ctx, receivable).Return(nil)

	var captured *finance.CashLedgerEntry
	ledgerRepo.On("Save", ctx, mock.AnythingOfType("*finance.CashLedgerEntry")).
		Run(func(args mock.Arguments) {
			captured = args.Get(1).(*finance.CashLedgerEntry)
		}).
		Return(nil)

	result, err := service.RegisterPayments(ctx, tenantID, receivable.ID, RegisterPaymentsRequest{
		Payments: []PaymentInput{
			{Amount: decimal.NewFromFloat(150.00), Method: "CASH", Date: time.Now()},
		},
	})

	require.NoError(t, err)
	assert.Equal(t, "SETTLED", result.Receivable.Status)
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "clamped")

	// Ledger records the clamped amount, not the requested one
	require.NotNil(t, captured)
	assert.True(t, captured.Amount.Equal(decimal.NewFromFloat(100.00)))
}

func TestReceivableService_RegisterPayments_RolledBackOnLedgerFailure(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()

	receivableRepo := new(MockReceivableRepository)
	ledgerRepo := new(MockCashLedgerRepository)
	service := newServiceUnderTest(receivableRepo, ledgerRepo)

	receivable := createTestReceivable(t, tenantID, "100.00")
	receivableRepo.On("FindByIDForTenant", ctx, tenantID, receivable.ID).Return(receivable, nil)
	ledgerRepo.On("Save", ctx, mock.AnythingOfType("*finance.CashLedgerEntry")).
		Return(errors.New("connection reset"))

	result, err := service.RegisterPayments(ctx, tenantID, receivable.ID, RegisterPaymentsRequest{
		Payments: []PaymentInput{
			{Amount: decimal.NewFromFloat(50.00), Method: "CASH", Date: time.Now()},
		},
	})

	assert.Error(t, err)
	assert.Nil(t, result)
	receivableRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

// =============================================================================
// Test Cases for Interest Accrual
// =============================================================================

func TestReceivableService_ApplyInterest_Single(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()

	receivableRepo := new(MockReceivableRepository)
	ledgerRepo := new(MockCashLedgerRepository)
	service := newServiceUnderTest(receivableRepo, ledgerRepo)

	receivable := createTestReceivable(t, tenantID, "200.00")
	require.NoError(t, receivable.ConfigureInterest(finance.InterestConfig{
		Type:      finance.InterestTypePercent,
		Rate:      decimal.NewFromInt(10),
		StartDate: time.Now().AddDate(0, 0, -1),
		Frequency: finance.InterestFrequencyOnce,
	}))

	receivableRepo.On("FindByIDForTenant", ctx, tenantID, receivable.ID).Return(receivable, nil)
	receivableRepo.On("Save", ctx, receivable).Return(nil)

	result, err := service.ApplyInterest(ctx, tenantID, receivable.ID)

	require.NoError(t, err)
	assert.True(t, result.Delta.Equal(decimal.NewFromFloat(20.00)), "delta = %s", result.Delta)
	assert.True(t, result.PendingAfter.Equal(decimal.NewFromFloat(220.00)))
	receivableRepo.AssertExpectations(t)
}

func TestReceivableService_ApplyInterestBatch_PartitionsOutcomes(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()

	receivableRepo := new(MockReceivableRepository)
	ledgerRepo := new(MockCashLedgerRepository)
	service := newServiceUnderTest(receivableRepo, ledgerRepo)

	dueCfg := finance.InterestConfig{
		Type:      finance.InterestTypeFixed,
		Rate:      decimal.NewFromInt(5),
		StartDate: time.Now().AddDate(0, 0, -2),
		Frequency: finance.InterestFrequencyOnce,
	}

	applied := createTestReceivable(t, tenantID, "100.00")
	require.NoError(t, applied.ConfigureInterest(dueCfg))

	failing := createTestReceivable(t, tenantID, "100.00")
	require.NoError(t, failing.ConfigureInterest(dueCfg))

	// Configured but its start date has not been reached yet
	notDue := createTestReceivable(t, tenantID, "100.00")
	require.NoError(t, notDue.ConfigureInterest(finance.InterestConfig{
		Type:      finance.InterestTypeFixed,
		Rate:      decimal.NewFromInt(5),
		StartDate: time.Now().AddDate(0, 0, 3),
		Frequency: finance.InterestFrequencyOnce,
	}))

	receivableRepo.On("FindInterestEligible", ctx, tenantID, mock.Anything).
		Return([]finance.Receivable{*applied, *failing, *notDue}, nil)
	receivableRepo.On("FindByIDForTenant", ctx, tenantID, applied.ID).Return(applied, nil)
	receivableRepo.On("FindByIDForTenant", ctx, tenantID, failing.ID).Return(nil, errors.New("row lock timeout"))
	receivableRepo.On("Save", ctx, applied).Return(nil)

	result, err := service.ApplyInterestBatch(ctx, tenantID)

	require.NoError(t, err)
	require.Len(t, result.Applied, 1)
	assert.Equal(t, applied.ID, result.Applied[0].ReceivableID)
	assert.True(t, result.Applied[0].Delta.Equal(decimal.NewFromFloat(5.00)))
	require.Len(t, result.Failed, 1)
	assert.Equal(t, failing.ID, result.Failed[0].ReceivableID)
	assert.Equal(t, 1, result.Skipped)
	receivableRepo.AssertExpectations(t)
}

// =============================================================================
// Test Cases for SplitInstallments
// =============================================================================

func TestReceivableService_SplitInstallments(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()

	receivableRepo := new(MockReceivableRepository)
	ledgerRepo := new(MockCashLedgerRepository)
	service := newServiceUnderTest(receivableRepo, ledgerRepo)

	receivable := createTestReceivable(t, tenantID, "100.00")
	receivableRepo.On("FindByIDForTenant", ctx, tenantID, receivable.ID).Return(receivable, nil)
	receivableRepo.On("Save", ctx, mock.AnythingOfType("*finance.Receivable")).Return(nil)

	result, err := service.SplitInstallments(ctx, tenantID, receivable.ID, SplitInstallmentsRequest{
		Count:        3,
		IntervalDays: 30,
		FirstDueDate: time.Now().AddDate(0, 0, 30),
	})

	require.NoError(t, err)
	assert.Equal(t, "SETTLED", result.Parent.Status)
	require.Len(t, result.Installments, 3)
	assert.Equal(t, "REC-000010/1-3", result.Installments[0].ReceivableNumber)
	assert.Equal(t, "REC-000010/3-3", result.Installments[2].ReceivableNumber)

	// Cent remainders land on the first installment
	assert.True(t, result.Installments[0].PendingAmount.Equal(decimal.NewFromFloat(33.34)))
	assert.True(t, result.Installments[1].PendingAmount.Equal(decimal.NewFromFloat(33.33)))

	// Parent plus three children persisted in one scope
	receivableRepo.AssertNumberOfCalls(t, "Save", 4)
}

// =============================================================================
// Test Cases for PropagateOriginChange
// =============================================================================

func TestReceivableService_PropagateOriginChange(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	originID := uuid.New()

	receivableRepo := new(MockReceivableRepository)
	ledgerRepo := new(MockCashLedgerRepository)
	service := newServiceUnderTest(receivableRepo, ledgerRepo)

	money, err := valueobject.NewMoneyBRLFromString("100.00")
	require.NoError(t, err)
	linked, err := finance.NewReceivable(
		tenantID, "REC-000020", uuid.New(), "Maria Silva",
		finance.OriginKindProductSale, originID, "VD-000042", money, time.Now(), nil,
	)
	require.NoError(t, err)

	receivableRepo.On("FindByOrigin", ctx, tenantID, finance.OriginKindProductSale, originID).
		Return([]finance.Receivable{*linked}, nil)
	receivableRepo.On("Save", ctx, mock.AnythingOfType("*finance.Receivable")).Return(nil)

	responses, err := service.PropagateOriginChange(ctx, tenantID,
		finance.OriginKindProductSale, originID,
		decimal.NewFromInt(200), decimal.NewFromInt(300))

	require.NoError(t, err)
	require.Len(t, responses, 1)
	assert.True(t, responses[0].PendingAmount.Equal(decimal.NewFromInt(150)), "pending = %s", responses[0].PendingAmount)
	receivableRepo.AssertExpectations(t)
}

func TestReceivableService_PropagateOriginChange_SkipsSplitParent(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	originID := uuid.New()

	receivableRepo := new(MockReceivableRepository)
	ledgerRepo := new(MockCashLedgerRepository)
	service := newServiceUnderTest(receivableRepo, ledgerRepo)

	money, err := valueobject.NewMoneyBRLFromString("1000.00")
	require.NoError(t, err)
	parent, err := finance.NewReceivable(
		tenantID, "REC-000030", uuid.New(), "Maria Silva",
		finance.OriginKindProductSale, originID, "VD-000042", money, time.Now(), nil,
	)
	require.NoError(t, err)

	children, err := parent.SplitIntoInstallments(2, 30, time.Now().AddDate(0, 0, 30), func(seq int) string {
		return fmt.Sprintf("REC-000030/%d-2", seq)
	})
	require.NoError(t, err)
	require.Len(t, children, 2)

	receivableRepo.On("FindByOrigin", ctx, tenantID, finance.OriginKindProductSale, originID).
		Return([]finance.Receivable{*parent, *children[0], *children[1]}, nil)
	receivableRepo.On("Save", ctx, mock.AnythingOfType("*finance.Receivable")).Return(nil)

	responses, err := service.PropagateOriginChange(ctx, tenantID,
		finance.OriginKindProductSale, originID,
		decimal.NewFromInt(1000), decimal.NewFromInt(1100))

	require.NoError(t, err)

	// Only the children scale; the delegated parent keeps its zero balance
	require.Len(t, responses, 2)
	total := decimal.Zero
	for _, resp := range responses {
		total = total.Add(resp.PendingAmount)
	}
	assert.True(t, total.Equal(decimal.NewFromInt(1100)), "children pending sum = %s", total)
	assert.True(t, parent.PendingAmount.IsZero())
	assert.Equal(t, finance.ReceivableStatusSettled, parent.Status)

	receivableRepo.AssertNumberOfCalls(t, "Save", 2)
	receivableRepo.AssertExpectations(t)
}
