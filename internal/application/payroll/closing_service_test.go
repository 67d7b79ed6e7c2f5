package payroll

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gestor/backend/internal/domain/partner"
	"github.com/gestor/backend/internal/domain/payroll"
	"github.com/gestor/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Mock Repositories (shared by the payroll application tests)
// =============================================================================

// MockPayslipRepository is a mock implementation of PayslipRepository
type MockPayslipRepository struct {
	mock.Mock
}

func (m *MockPayslipRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*payroll.Payslip, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payroll.Payslip), args.Error(1)
}

func (m *MockPayslipRepository) FindByEmployeePeriod(ctx context.Context, tenantID, employeeID uuid.UUID, period payroll.Period) (*payroll.Payslip, error) {
	args := m.Called(ctx, tenantID, employeeID, period)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payroll.Payslip), args.Error(1)
}

func (m *MockPayslipRepository) FindAllForPeriod(ctx context.Context, tenantID uuid.UUID, period payroll.Period) ([]payroll.Payslip, error) {
	args := m.Called(ctx, tenantID, period)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]payroll.Payslip), args.Error(1)
}

func (m *MockPayslipRepository) FindByEmployee(ctx context.Context, tenantID, employeeID uuid.UUID) ([]payroll.Payslip, error) {
	args := m.Called(ctx, tenantID, employeeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]payroll.Payslip), args.Error(1)
}

func (m *MockPayslipRepository) PeriodClosed(ctx context.Context, tenantID uuid.UUID, period payroll.Period) (bool, *time.Time, error) {
	args := m.Called(ctx, tenantID, period)
	var closedAt *time.Time
	if args.Get(1) != nil {
		closedAt = args.Get(1).(*time.Time)
	}
	return args.Get(0).(bool), closedAt, args.Error(2)
}

func (m *MockPayslipRepository) PeriodExists(ctx context.Context, tenantID uuid.UUID, period payroll.Period) (bool, error) {
	args := m.Called(ctx, tenantID, period)
	return args.Get(0).(bool), args.Error(1)
}

func (m *MockPayslipRepository) EarliestPeriod(ctx context.Context, tenantID uuid.UUID) (*payroll.Period, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payroll.Period), args.Error(1)
}

func (m *MockPayslipRepository) Save(ctx context.Context, payslip *payroll.Payslip) error {
	args := m.Called(ctx, payslip)
	return args.Error(0)
}

func (m *MockPayslipRepository) DeletePristine(ctx context.Context, tenantID, id uuid.UUID) error {
	args := m.Called(ctx, tenantID, id)
	return args.Error(0)
}

// MockSalaryHistoryRepository is a mock implementation of SalaryHistoryRepository
type MockSalaryHistoryRepository struct {
	mock.Mock
}

func (m *MockSalaryHistoryRepository) FindByEmployee(ctx context.Context, tenantID, employeeID uuid.UUID) ([]payroll.SalaryChange, error) {
	args := m.Called(ctx, tenantID, employeeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]payroll.SalaryChange), args.Error(1)
}

func (m *MockSalaryHistoryRepository) Append(ctx context.Context, change *payroll.SalaryChange) error {
	args := m.Called(ctx, change)
	return args.Error(0)
}

// MockEmployeeRepository is a mock implementation of partner.EmployeeRepository
type MockEmployeeRepository struct {
	mock.Mock
}

func (m *MockEmployeeRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*partner.Employee, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*partner.Employee), args.Error(1)
}

func (m *MockEmployeeRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]partner.Employee, error) {
	args := m.Called(ctx, tenantID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]partner.Employee), args.Error(1)
}

func (m *MockEmployeeRepository) FindActive(ctx context.Context, tenantID uuid.UUID) ([]partner.Employee, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]partner.Employee), args.Error(1)
}

func (m *MockEmployeeRepository) FindByCustomerID(ctx context.Context, tenantID, customerID uuid.UUID) (*partner.Employee, error) {
	args := m.Called(ctx, tenantID, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*partner.Employee), args.Error(1)
}

func (m *MockEmployeeRepository) Save(ctx context.Context, employee *partner.Employee) error {
	args := m.Called(ctx, employee)
	return args.Error(0)
}

func (m *MockEmployeeRepository) Remove(ctx context.Context, tenantID, id uuid.UUID) error {
	args := m.Called(ctx, tenantID, id)
	return args.Error(0)
}

// MockReportRepository is a mock implementation of ReportRepository
type MockReportRepository struct {
	mock.Mock
}

func (m *MockReportRepository) Upsert(ctx context.Context, row *payroll.MonthlyReportRow) error {
	args := m.Called(ctx, row)
	return args.Error(0)
}

func (m *MockReportRepository) FindForPeriod(ctx context.Context, tenantID uuid.UUID, period payroll.Period) ([]payroll.MonthlyReportRow, error) {
	args := m.Called(ctx, tenantID, period)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]payroll.MonthlyReportRow), args.Error(1)
}

// MockAuditRepository is a mock implementation of AuditRepository
type MockAuditRepository struct {
	mock.Mock
}

func (m *MockAuditRepository) Append(ctx context.Context, entry *payroll.ClosingAuditEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockAuditRepository) FindForTenant(ctx context.Context, tenantID uuid.UUID, limit int) ([]payroll.ClosingAuditEntry, error) {
	args := m.Called(ctx, tenantID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]payroll.ClosingAuditEntry), args.Error(1)
}

// MockConsumptionSource is a mock implementation of ConsumptionSource
type MockConsumptionSource struct {
	mock.Mock
}

func (m *MockConsumptionSource) SumCreditConsumption(ctx context.Context, tenantID, customerID, excludeSellerID uuid.UUID, window payroll.OpenWindow) (decimal.Decimal, error) {
	args := m.Called(ctx, tenantID, customerID, excludeSellerID, window)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

// MockReportCache is a mock implementation of ReportCache
type MockReportCache struct {
	mock.Mock
}

func (m *MockReportCache) GetReport(ctx context.Context, tenantID uuid.UUID, period payroll.Period) ([]payroll.MonthlyReportRow, bool, error) {
	args := m.Called(ctx, tenantID, period)
	if args.Get(0) == nil {
		return nil, args.Get(1).(bool), args.Error(2)
	}
	return args.Get(0).([]payroll.MonthlyReportRow), args.Get(1).(bool), args.Error(2)
}

func (m *MockReportCache) SetReport(ctx context.Context, tenantID uuid.UUID, period payroll.Period, rows []payroll.MonthlyReportRow) error {
	args := m.Called(ctx, tenantID, period, rows)
	return args.Error(0)
}

func (m *MockReportCache) Invalidate(ctx context.Context, tenantID uuid.UUID, period payroll.Period) error {
	args := m.Called(ctx, tenantID, period)
	return args.Error(0)
}

// =============================================================================
// Test Fixture
// =============================================================================

type closingFixture struct {
	payslipRepo  *MockPayslipRepository
	salaryRepo   *MockSalaryHistoryRepository
	employeeRepo *MockEmployeeRepository
	reportRepo   *MockReportRepository
	auditRepo    *MockAuditRepository
	consumption  *MockConsumptionSource
	cache        *MockReportCache
	service      *ClosingService
}

func newClosingFixture() *closingFixture {
	f := &closingFixture{
		payslipRepo:  new(MockPayslipRepository),
		salaryRepo:   new(MockSalaryHistoryRepository),
		employeeRepo: new(MockEmployeeRepository),
		reportRepo:   new(MockReportRepository),
		auditRepo:    new(MockAuditRepository),
		consumption:  new(MockConsumptionSource),
		cache:        new(MockReportCache),
	}
	scope := NewNoOpTransactionScope(f.payslipRepo, f.salaryRepo, f.employeeRepo, f.reportRepo, f.auditRepo, f.consumption)
	f.service = NewClosingService(scope, f.payslipRepo, f.cache, nil, nil)
	return f
}

func createTestEmployee(t *testing.T, tenantID uuid.UUID, salary int64) *partner.Employee {
	t.Helper()
	employee, err := partner.NewEmployee(tenantID, "João Santos", decimal.NewFromInt(salary))
	require.NoError(t, err)
	return employee
}

// =============================================================================
// Test Cases for CloseMonth
// =============================================================================

func TestClosingService_CloseMonth_Success(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	userID := uuid.New()
	period := payroll.Period{Month: 3, Year: 2026}

	f := newClosingFixture()

	customerID := uuid.New()
	employee := createTestEmployee(t, tenantID, 3000)
	employee.LinkCustomer(customerID)
	require.NoError(t, employee.AddCommission(decimal.NewFromInt(100)))

	payslip, err := payroll.NewOpenPayslip(tenantID, employee.ID, employee.Name, period, decimal.NewFromInt(3000))
	require.NoError(t, err)
	_, err = payslip.AddAdvance(time.Date(2026, 3, 10, 0, 0, 0, 0, time.Local), decimal.NewFromInt(200), "")
	require.NoError(t, err)
	// Dated in April: must move to the next period's placeholder
	_, err = payslip.AddAdvance(time.Date(2026, 4, 2, 0, 0, 0, 0, time.Local), decimal.NewFromInt(50), "")
	require.NoError(t, err)

	f.payslipRepo.On("PeriodClosed", ctx, tenantID, period).Return(false, nil, nil)
	f.payslipRepo.On("PeriodClosed", ctx, tenantID, period.Previous()).Return(false, nil, nil)
	f.payslipRepo.On("EarliestPeriod", ctx, tenantID).Return(nil, nil)
	f.employeeRepo.On("FindActive", ctx, tenantID).Return([]partner.Employee{*employee}, nil)
	f.salaryRepo.On("FindByEmployee", ctx, tenantID, employee.ID).Return([]payroll.SalaryChange{}, nil)
	f.payslipRepo.On("FindByEmployeePeriod", ctx, tenantID, employee.ID, period).Return(payslip, nil)
	f.payslipRepo.On("FindByEmployeePeriod", ctx, tenantID, employee.ID, period.Next()).Return(nil, shared.ErrNotFound)
	f.consumption.On("SumCreditConsumption", ctx, tenantID, customerID, employee.ID, mock.Anything).
		Return(decimal.NewFromInt(150), nil)

	var saved []*payroll.Payslip
	f.payslipRepo.On("Save", ctx, mock.AnythingOfType("*payroll.Payslip")).
		Run(func(args mock.Arguments) {
			saved = append(saved, args.Get(1).(*payroll.Payslip))
		}).
		Return(nil)

	var savedEmployee *partner.Employee
	f.employeeRepo.On("Save", ctx, mock.AnythingOfType("*partner.Employee")).
		Run(func(args mock.Arguments) {
			savedEmployee = args.Get(1).(*partner.Employee)
		}).
		Return(nil)
	f.auditRepo.On("Append", ctx, mock.AnythingOfType("*payroll.ClosingAuditEntry")).Return(nil)
	f.cache.On("Invalidate", ctx, tenantID, period).Return(nil)
	f.cache.On("Invalidate", ctx, tenantID, period.Next()).Return(nil)

	result, err := f.service.CloseMonth(ctx, tenantID, CloseMonthRequest{
		Month:       3,
		Year:        2026,
		ClosingDate: time.Date(2026, 3, 28, 10, 0, 0, 0, time.Local),
		UserID:      userID,
		UserName:    "Admin",
	})

	require.NoError(t, err)
	assert.Equal(t, 3, result.Month)
	assert.Equal(t, 2026, result.Year)
	assert.Equal(t, 28, result.ClosedAt.Day())
	assert.Equal(t, 23, result.ClosedAt.Hour())

	// Net = 3000 base + 100 commission - 200 advance - 150 consumption
	require.Len(t, result.Payslips, 1)
	assert.True(t, result.Payslips[0].GrossSalary.Equal(decimal.NewFromInt(3100)))
	assert.True(t, result.Payslips[0].NetSalary.Equal(decimal.NewFromInt(2750)), "net = %s", result.Payslips[0].NetSalary)

	// The closed payslip keeps the March advance only; the April one moved
	// into the auto-opened placeholder
	require.Len(t, saved, 2)
	assert.True(t, saved[0].Closed)
	require.Len(t, saved[0].Advances, 1)
	assert.False(t, saved[1].Closed)
	assert.Equal(t, period.Next(), saved[1].Period())
	require.Len(t, saved[1].Advances, 1)
	assert.True(t, saved[1].Advances[0].Amount.Equal(decimal.NewFromInt(50)))

	require.NotNil(t, savedEmployee)
	assert.True(t, savedEmployee.Commission.IsZero())

	f.payslipRepo.AssertExpectations(t)
	f.auditRepo.AssertExpectations(t)
	f.cache.AssertExpectations(t)
}

func TestClosingService_CloseMonth_AlreadyClosed(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	period := payroll.Period{Month: 3, Year: 2026}

	f := newClosingFixture()

	closedAt := time.Now()
	f.payslipRepo.On("PeriodClosed", ctx, tenantID, period).Return(true, &closedAt, nil)

	result, err := f.service.CloseMonth(ctx, tenantID, CloseMonthRequest{
		Month: 3, Year: 2026, UserID: uuid.New(),
	})

	assert.Error(t, err)
	assert.Nil(t, result)
	assert.Contains(t, err.Error(), "already closed")
	f.employeeRepo.AssertNotCalled(t, "FindActive", mock.Anything, mock.Anything)
}

func TestClosingService_CloseMonth_PreviousMonthStillOpen(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	period := payroll.Period{Month: 3, Year: 2026}

	f := newClosingFixture()

	earliest := payroll.Period{Month: 1, Year: 2026}
	f.payslipRepo.On("PeriodClosed", ctx, tenantID, period).Return(false, nil, nil)
	f.payslipRepo.On("PeriodClosed", ctx, tenantID, period.Previous()).Return(false, nil, nil)
	f.payslipRepo.On("EarliestPeriod", ctx, tenantID).Return(&earliest, nil)

	result, err := f.service.CloseMonth(ctx, tenantID, CloseMonthRequest{
		Month: 3, Year: 2026, UserID: uuid.New(),
	})

	assert.Error(t, err)
	assert.Nil(t, result)
	assert.ErrorIs(t, err, shared.ErrPeriodUnavailable)
}

func TestClosingService_CloseMonth_AbortsWhenAnyEmployeeFails(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	period := payroll.Period{Month: 3, Year: 2026}

	f := newClosingFixture()

	first := createTestEmployee(t, tenantID, 3000)
	second := createTestEmployee(t, tenantID, 2000)
	second.Name = "Ana Costa"

	f.payslipRepo.On("PeriodClosed", ctx, tenantID, period).Return(false, nil, nil)
	f.payslipRepo.On("PeriodClosed", ctx, tenantID, period.Previous()).Return(false, nil, nil)
	f.payslipRepo.On("EarliestPeriod", ctx, tenantID).Return(nil, nil)
	f.employeeRepo.On("FindActive", ctx, tenantID).Return([]partner.Employee{*first, *second}, nil)
	f.salaryRepo.On("FindByEmployee", ctx, tenantID, first.ID).Return([]payroll.SalaryChange{}, nil)
	f.payslipRepo.On("FindByEmployeePeriod", ctx, tenantID, first.ID, period).Return(nil, shared.ErrNotFound)
	f.payslipRepo.On("FindByEmployeePeriod", ctx, tenantID, first.ID, period.Next()).Return(nil, shared.ErrNotFound)
	f.payslipRepo.On("Save", ctx, mock.AnythingOfType("*payroll.Payslip")).Return(nil)
	f.employeeRepo.On("Save", ctx, mock.AnythingOfType("*partner.Employee")).Return(nil)
	f.salaryRepo.On("FindByEmployee", ctx, tenantID, second.ID).Return(nil, errors.New("connection reset"))

	result, err := f.service.CloseMonth(ctx, tenantID, CloseMonthRequest{
		Month: 3, Year: 2026, UserID: uuid.New(),
	})

	assert.Error(t, err)
	assert.Nil(t, result)
	assert.Contains(t, err.Error(), second.Name)
	f.auditRepo.AssertNotCalled(t, "Append", mock.Anything, mock.Anything)
}

func TestClosingService_CloseMonth_RequiresUser(t *testing.T) {
	ctx := context.Background()

	f := newClosingFixture()

	result, err := f.service.CloseMonth(ctx, uuid.New(), CloseMonthRequest{
		Month: 3, Year: 2026,
	})

	assert.Error(t, err)
	assert.Nil(t, result)
	f.payslipRepo.AssertNotCalled(t, "PeriodClosed", mock.Anything, mock.Anything, mock.Anything)
}

// =============================================================================
// Test Cases for ReopenMonth
// =============================================================================

func TestClosingService_ReopenMonth_Success(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	period := payroll.Period{Month: 3, Year: 2026}
	next := period.Next()

	f := newClosingFixture()

	employeeID := uuid.New()
	closed, err := payroll.NewOpenPayslip(tenantID, employeeID, "João Santos", period, decimal.NewFromInt(3000))
	require.NoError(t, err)
	totals := closed.ComputeTotals(decimal.NewFromInt(3000), decimal.Zero, decimal.Zero)
	_, _, err = closed.Close(totals, uuid.New(), time.Now())
	require.NoError(t, err)

	pristine, err := payroll.NewOpenPayslip(tenantID, employeeID, "João Santos", next, decimal.NewFromInt(3000))
	require.NoError(t, err)

	touched, err := payroll.NewOpenPayslip(tenantID, uuid.New(), "Ana Costa", next, decimal.NewFromInt(2000))
	require.NoError(t, err)
	_, err = touched.AddAdvance(time.Date(2026, 4, 5, 0, 0, 0, 0, time.Local), decimal.NewFromInt(100), "")
	require.NoError(t, err)

	closedAt := time.Now()
	f.payslipRepo.On("PeriodClosed", ctx, tenantID, period).Return(true, &closedAt, nil)
	f.payslipRepo.On("FindAllForPeriod", ctx, tenantID, period).Return([]payroll.Payslip{*closed}, nil)
	f.payslipRepo.On("FindAllForPeriod", ctx, tenantID, next).Return([]payroll.Payslip{*pristine, *touched}, nil)
	f.payslipRepo.On("DeletePristine", ctx, tenantID, pristine.ID).Return(nil)

	var reopened *payroll.Payslip
	f.payslipRepo.On("Save", ctx, mock.AnythingOfType("*payroll.Payslip")).
		Run(func(args mock.Arguments) {
			reopened = args.Get(1).(*payroll.Payslip)
		}).
		Return(nil)
	f.auditRepo.On("Append", ctx, mock.AnythingOfType("*payroll.ClosingAuditEntry")).Return(nil)
	f.cache.On("Invalidate", ctx, tenantID, period).Return(nil)
	f.cache.On("Invalidate", ctx, tenantID, next).Return(nil)

	result, err := f.service.ReopenMonth(ctx, tenantID, ReopenMonthRequest{
		Month: 3, Year: 2026, UserID: uuid.New(), UserName: "Admin",
	})

	require.NoError(t, err)
	assert.Equal(t, 1, result.ReopenedPayslips)
	assert.Equal(t, 1, result.DeletedPlaceholders)

	require.NotNil(t, reopened)
	assert.False(t, reopened.Closed)
	assert.Nil(t, reopened.ClosedAt)
	assert.Nil(t, reopened.ClosedBy)

	f.payslipRepo.AssertExpectations(t)
	f.cache.AssertExpectations(t)
}

func TestClosingService_ReopenMonth_RestoresCommission(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	period := payroll.Period{Month: 3, Year: 2026}
	next := period.Next()

	f := newClosingFixture()

	// The close folded 100 of commission into the payslip and zeroed the
	// employee's accumulator
	employee := createTestEmployee(t, tenantID, 3000)
	closed, err := payroll.NewOpenPayslip(tenantID, employee.ID, employee.Name, period, decimal.NewFromInt(3000))
	require.NoError(t, err)
	totals := closed.ComputeTotals(decimal.NewFromInt(3000), decimal.NewFromInt(100), decimal.Zero)
	_, _, err = closed.Close(totals, uuid.New(), time.Now())
	require.NoError(t, err)
	employee.ResetCommission()

	closedAt := time.Now()
	f.payslipRepo.On("PeriodClosed", ctx, tenantID, period).Return(true, &closedAt, nil)
	f.payslipRepo.On("FindAllForPeriod", ctx, tenantID, period).Return([]payroll.Payslip{*closed}, nil)
	f.payslipRepo.On("FindAllForPeriod", ctx, tenantID, next).Return([]payroll.Payslip{}, nil)
	f.payslipRepo.On("Save", ctx, mock.AnythingOfType("*payroll.Payslip")).Return(nil)
	f.employeeRepo.On("FindByIDForTenant", ctx, tenantID, employee.ID).Return(employee, nil)

	var restored *partner.Employee
	f.employeeRepo.On("Save", ctx, mock.AnythingOfType("*partner.Employee")).
		Run(func(args mock.Arguments) {
			restored = args.Get(1).(*partner.Employee)
		}).
		Return(nil)
	f.auditRepo.On("Append", ctx, mock.AnythingOfType("*payroll.ClosingAuditEntry")).Return(nil)
	f.cache.On("Invalidate", ctx, tenantID, period).Return(nil)
	f.cache.On("Invalidate", ctx, tenantID, next).Return(nil)

	result, err := f.service.ReopenMonth(ctx, tenantID, ReopenMonthRequest{
		Month: 3, Year: 2026, UserID: uuid.New(), UserName: "Admin",
	})

	require.NoError(t, err)
	assert.Equal(t, 1, result.ReopenedPayslips)

	// The accumulator carries the closed commission again, so re-closing the
	// month reproduces the original totals
	require.NotNil(t, restored)
	assert.True(t, restored.Commission.Equal(decimal.NewFromInt(100)))
	f.employeeRepo.AssertExpectations(t)
}

func TestClosingService_ReopenMonth_NotClosed(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	period := payroll.Period{Month: 3, Year: 2026}

	f := newClosingFixture()

	f.payslipRepo.On("PeriodClosed", ctx, tenantID, period).Return(false, nil, nil)

	result, err := f.service.ReopenMonth(ctx, tenantID, ReopenMonthRequest{
		Month: 3, Year: 2026, UserID: uuid.New(),
	})

	assert.Error(t, err)
	assert.Nil(t, result)
	assert.Contains(t, err.Error(), "not closed")
	f.payslipRepo.AssertNotCalled(t, "FindAllForPeriod", mock.Anything, mock.Anything, mock.Anything)
}

// =============================================================================
// Test Cases for GenerateMonthlyReport
// =============================================================================

func TestClosingService_GenerateMonthlyReport_CacheHit(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	period := payroll.Period{Month: 3, Year: 2026}

	f := newClosingFixture()

	row := payroll.NewMonthlyReportRow(tenantID, uuid.New(), "João Santos", period, payroll.PayslipTotals{
		BaseSalary:  decimal.NewFromInt(3000),
		GrossSalary: decimal.NewFromInt(3000),
		NetSalary:   decimal.NewFromInt(3000),
	})
	f.cache.On("GetReport", ctx, tenantID, period).Return([]payroll.MonthlyReportRow{*row}, true, nil)

	rows, err := f.service.GenerateMonthlyReport(ctx, tenantID, 3, 2026)

	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "João Santos", rows[0].EmployeeName)
	f.payslipRepo.AssertNotCalled(t, "PeriodClosed", mock.Anything, mock.Anything, mock.Anything)
}

func TestClosingService_GenerateMonthlyReport_ComputesAndCaches(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	period := payroll.Period{Month: 3, Year: 2026}

	f := newClosingFixture()

	employee := createTestEmployee(t, tenantID, 3000)

	f.cache.On("GetReport", ctx, tenantID, period).Return(nil, false, nil)
	f.payslipRepo.On("PeriodClosed", ctx, tenantID, period).Return(false, nil, nil)
	f.payslipRepo.On("PeriodClosed", ctx, tenantID, period.Previous()).Return(false, nil, nil)
	f.payslipRepo.On("EarliestPeriod", ctx, tenantID).Return(nil, nil)
	f.employeeRepo.On("FindActive", ctx, tenantID).Return([]partner.Employee{*employee}, nil)
	f.salaryRepo.On("FindByEmployee", ctx, tenantID, employee.ID).Return([]payroll.SalaryChange{}, nil)
	f.payslipRepo.On("FindByEmployeePeriod", ctx, tenantID, employee.ID, period).Return(nil, shared.ErrNotFound)
	f.reportRepo.On("Upsert", ctx, mock.AnythingOfType("*payroll.MonthlyReportRow")).Return(nil)
	f.cache.On("SetReport", ctx, tenantID, period, mock.Anything).Return(nil)

	rows, err := f.service.GenerateMonthlyReport(ctx, tenantID, 3, 2026)

	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.True(t, rows[0].BaseSalary.Equal(decimal.NewFromInt(3000)))
	assert.True(t, rows[0].NetSalary.Equal(decimal.NewFromInt(3000)))

	// Report previews never close anything
	f.payslipRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	f.reportRepo.AssertExpectations(t)
	f.cache.AssertExpectations(t)
}
