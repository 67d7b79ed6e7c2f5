package payroll

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gestor/backend/internal/domain/partner"
	"github.com/gestor/backend/internal/domain/payroll"
	"github.com/gestor/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ReportCache caches computed monthly report rows for fast preview retrieval.
// A close or reopen invalidates the affected periods.
type ReportCache interface {
	GetReport(ctx context.Context, tenantID uuid.UUID, period payroll.Period) ([]payroll.MonthlyReportRow, bool, error)
	SetReport(ctx context.Context, tenantID uuid.UUID, period payroll.Period, rows []payroll.MonthlyReportRow) error
	Invalidate(ctx context.Context, tenantID uuid.UUID, period payroll.Period) error
}

// ClosingService orchestrates the monthly payroll closing lifecycle:
// close, reopen and report generation.
type ClosingService struct {
	scope       TransactionScope
	payslipRepo payroll.PayslipRepository
	cache       ReportCache
	events      shared.EventPublisher
	logger      *zap.Logger
}

// NewClosingService creates a new ClosingService. cache and events may be
// nil: without a cache report previews are always recomputed, without a
// publisher lifecycle events are dropped.
func NewClosingService(scope TransactionScope, payslipRepo payroll.PayslipRepository, cache ReportCache, events shared.EventPublisher, logger *zap.Logger) *ClosingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClosingService{
		scope:       scope,
		payslipRepo: payslipRepo,
		cache:       cache,
		events:      events,
		logger:      logger,
	}
}

// publishEvents drains and publishes an aggregate's pending domain events.
// Event handling is best-effort and never fails the operation.
func (s *ClosingService) publishEvents(ctx context.Context, aggregate shared.AggregateRoot) {
	if s.events == nil {
		return
	}
	events := aggregate.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	if err := s.events.Publish(ctx, events...); err != nil {
		s.logger.Warn("event publish failed", zap.Error(err))
	}
	aggregate.ClearDomainEvents()
}

// CloseMonthRequest is the request to close a payroll month
type CloseMonthRequest struct {
	Month       int       `json:"month" binding:"required,min=1,max=12"`
	Year        int       `json:"year" binding:"required,min=2000,max=2200"`
	ClosingDate time.Time `json:"closing_date"`
	UserID      uuid.UUID `json:"-"`
	UserName    string    `json:"-"`
}

// ClosedPayslipSummary summarizes one employee's closed payslip
type ClosedPayslipSummary struct {
	EmployeeID   uuid.UUID       `json:"employee_id"`
	EmployeeName string          `json:"employee_name"`
	GrossSalary  decimal.Decimal `json:"gross_salary"`
	NetSalary    decimal.Decimal `json:"net_salary"`
}

// CloseMonthResult reports the outcome of a monthly close
type CloseMonthResult struct {
	Month    int                    `json:"month"`
	Year     int                    `json:"year"`
	ClosedAt time.Time              `json:"closed_at"`
	Payslips []ClosedPayslipSummary `json:"payslips"`
}

// CloseMonth finalizes the payroll month for every active employee and
// auto-opens the following month's placeholders. The whole close runs in one
// transaction: a failure on any employee aborts everything, because a
// half-closed month must never become visible.
func (s *ClosingService) CloseMonth(ctx context.Context, tenantID uuid.UUID, req CloseMonthRequest) (*CloseMonthResult, error) {
	period, err := payroll.NewPeriod(req.Month, req.Year)
	if err != nil {
		return nil, err
	}
	closingDate := req.ClosingDate
	if closingDate.IsZero() {
		closingDate = time.Now()
	}
	if req.UserID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_USER", "Closing user is required")
	}

	var result CloseMonthResult
	err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		alreadyClosed, _, err := repos.PayslipRepo().PeriodClosed(ctx, tenantID, period)
		if err != nil {
			return err
		}
		if alreadyClosed {
			return shared.NewDomainError("MONTH_CLOSED", fmt.Sprintf("Month %s is already closed", period))
		}

		window, err := s.resolveWindow(ctx, repos, tenantID, period, time.Now())
		if err != nil {
			return err
		}

		employees, err := repos.EmployeeRepo().FindActive(ctx, tenantID)
		if err != nil {
			return err
		}

		summaries := make([]ClosedPayslipSummary, 0, len(employees))
		for i := range employees {
			employee := &employees[i]
			summary, err := s.closeEmployee(ctx, repos, tenantID, employee, period, window, req.UserID, closingDate)
			if err != nil {
				return fmt.Errorf("closing payroll for %s: %w", employee.Name, err)
			}
			summaries = append(summaries, *summary)
		}

		audit := payroll.NewClosingAuditEntry(tenantID, payroll.AuditActionClose, period, req.UserID, req.UserName, "")
		if err := repos.AuditRepo().Append(ctx, audit); err != nil {
			return err
		}

		result = CloseMonthResult{
			Month:    period.Month,
			Year:     period.Year,
			ClosedAt: payroll.EndOfDay(closingDate),
			Payslips: summaries,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidateCache(ctx, tenantID, period)
	s.invalidateCache(ctx, tenantID, period.Next())

	return &result, nil
}

// closeEmployee finalizes one employee's payslip and opens the next period's
// placeholder, carrying over entries dated outside the closed month.
func (s *ClosingService) closeEmployee(
	ctx context.Context,
	repos TransactionalRepositories,
	tenantID uuid.UUID,
	employee *partner.Employee,
	period payroll.Period,
	window payroll.OpenWindow,
	userID uuid.UUID,
	closingDate time.Time,
) (*ClosedPayslipSummary, error) {
	history, err := repos.SalaryHistoryRepo().FindByEmployee(ctx, tenantID, employee.ID)
	if err != nil {
		return nil, err
	}
	baseSalary := payroll.ResolveBaseSalary(history, period, employee.CurrentSalary)

	payslip, err := repos.PayslipRepo().FindByEmployeePeriod(ctx, tenantID, employee.ID, period)
	if errors.Is(err, shared.ErrNotFound) {
		payslip, err = payroll.NewOpenPayslip(tenantID, employee.ID, employee.Name, period, baseSalary)
	}
	if err != nil {
		return nil, err
	}

	consumption, err := s.employeeConsumption(ctx, repos, tenantID, employee, window)
	if err != nil {
		return nil, err
	}

	totals := payslip.ComputeTotals(baseSalary, employee.Commission, consumption)
	carryAdvances, carryAbsences, err := payslip.Close(totals, userID, closingDate)
	if err != nil {
		return nil, err
	}
	if err := repos.PayslipRepo().Save(ctx, payslip); err != nil {
		return nil, err
	}
	s.publishEvents(ctx, payslip)

	if err := s.openNextPeriod(ctx, repos, tenantID, employee, history, period.Next(), carryAdvances, carryAbsences); err != nil {
		return nil, err
	}

	employee.ResetCommission()
	if err := repos.EmployeeRepo().Save(ctx, employee); err != nil {
		return nil, err
	}

	return &ClosedPayslipSummary{
		EmployeeID:   employee.ID,
		EmployeeName: employee.Name,
		GrossSalary:  totals.GrossSalary,
		NetSalary:    totals.NetSalary,
	}, nil
}

// employeeConsumption sums the employee's internal consumption within the open
// window. Employees without a linked customer identity consume nothing.
func (s *ClosingService) employeeConsumption(ctx context.Context, repos TransactionalRepositories, tenantID uuid.UUID, employee *partner.Employee, window payroll.OpenWindow) (decimal.Decimal, error) {
	if employee.CustomerID == nil {
		return decimal.Zero, nil
	}
	return repos.Consumption().SumCreditConsumption(ctx, tenantID, *employee.CustomerID, employee.ID, window)
}

// openNextPeriod ensures the following month has an open placeholder payslip,
// skipping creation when one already exists, and carries over out-of-month
// entries stripped by the close.
func (s *ClosingService) openNextPeriod(
	ctx context.Context,
	repos TransactionalRepositories,
	tenantID uuid.UUID,
	employee *partner.Employee,
	history []payroll.SalaryChange,
	next payroll.Period,
	carryAdvances payroll.Advances,
	carryAbsences payroll.Absences,
) error {
	nextPayslip, err := repos.PayslipRepo().FindByEmployeePeriod(ctx, tenantID, employee.ID, next)
	if errors.Is(err, shared.ErrNotFound) {
		nextBase := payroll.ResolveBaseSalary(history, next, employee.CurrentSalary)
		nextPayslip, err = payroll.NewOpenPayslip(tenantID, employee.ID, employee.Name, next, nextBase)
	}
	if err != nil {
		return err
	}

	if err := nextPayslip.CarryEntries(carryAdvances, carryAbsences); err != nil {
		return err
	}
	return repos.PayslipRepo().Save(ctx, nextPayslip)
}

// resolveWindow computes the open window for the period, enforcing strict
// calendar ordering of closings.
func (s *ClosingService) resolveWindow(ctx context.Context, repos TransactionalRepositories, tenantID uuid.UUID, period payroll.Period, now time.Time) (payroll.OpenWindow, error) {
	earliest, err := repos.PayslipRepo().EarliestPeriod(ctx, tenantID)
	if err != nil {
		return payroll.OpenWindow{}, err
	}
	firstPeriod := earliest == nil || !earliest.Before(period)

	_, prevClosedAt, err := repos.PayslipRepo().PeriodClosed(ctx, tenantID, period.Previous())
	if err != nil {
		return payroll.OpenWindow{}, err
	}

	return payroll.ResolveOpenWindow(period, prevClosedAt, firstPeriod, now)
}

// ReopenMonthRequest is the request to reopen a closed payroll month
type ReopenMonthRequest struct {
	Month    int       `json:"month" binding:"required,min=1,max=12"`
	Year     int       `json:"year" binding:"required,min=2000,max=2200"`
	UserID   uuid.UUID `json:"-"`
	UserName string    `json:"-"`
}

// ReopenMonthResult reports the outcome of a reopen
type ReopenMonthResult struct {
	Month             int `json:"month"`
	Year              int `json:"year"`
	ReopenedPayslips  int `json:"reopened_payslips"`
	DeletedPlaceholders int `json:"deleted_placeholders"`
}

// ReopenMonth reverses a monthly close: clears the closed flag and closing
// metadata on every payslip of the period, puts the closed commission back on
// each employee's accumulator, then deletes the still-pristine auto-opened
// next-month placeholders so no orphaned future period remains.
func (s *ClosingService) ReopenMonth(ctx context.Context, tenantID uuid.UUID, req ReopenMonthRequest) (*ReopenMonthResult, error) {
	period, err := payroll.NewPeriod(req.Month, req.Year)
	if err != nil {
		return nil, err
	}
	if req.UserID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_USER", "Reopening user is required")
	}

	var result ReopenMonthResult
	err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		closed, _, err := repos.PayslipRepo().PeriodClosed(ctx, tenantID, period)
		if err != nil {
			return err
		}
		if !closed {
			return shared.NewDomainError("MONTH_NOT_CLOSED", fmt.Sprintf("Month %s is not closed", period))
		}

		payslips, err := repos.PayslipRepo().FindAllForPeriod(ctx, tenantID, period)
		if err != nil {
			return err
		}
		for i := range payslips {
			payslip := &payslips[i]
			if err := payslip.Reopen(); err != nil {
				return err
			}
			if err := repos.PayslipRepo().Save(ctx, payslip); err != nil {
				return err
			}
			if err := s.restoreCommission(ctx, repos, tenantID, payslip); err != nil {
				return err
			}
			s.publishEvents(ctx, payslip)
		}

		deleted := 0
		nextPayslips, err := repos.PayslipRepo().FindAllForPeriod(ctx, tenantID, period.Next())
		if err != nil {
			return err
		}
		for i := range nextPayslips {
			if !nextPayslips[i].IsPristine() {
				continue
			}
			if err := repos.PayslipRepo().DeletePristine(ctx, tenantID, nextPayslips[i].ID); err != nil {
				if errors.Is(err, shared.ErrNotFound) {
					continue
				}
				return err
			}
			deleted++
		}

		audit := payroll.NewClosingAuditEntry(tenantID, payroll.AuditActionReopen, period, req.UserID, req.UserName, "")
		if err := repos.AuditRepo().Append(ctx, audit); err != nil {
			return err
		}

		result = ReopenMonthResult{
			Month:               period.Month,
			Year:                period.Year,
			ReopenedPayslips:    len(payslips),
			DeletedPlaceholders: deleted,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidateCache(ctx, tenantID, period)
	s.invalidateCache(ctx, tenantID, period.Next())

	return &result, nil
}

// restoreCommission puts the commission captured by a close back on the
// employee's accumulator, so a later re-close reproduces the same totals.
// The close zeroed the accumulator after folding it into the payslip.
func (s *ClosingService) restoreCommission(ctx context.Context, repos TransactionalRepositories, tenantID uuid.UUID, payslip *payroll.Payslip) error {
	if !payslip.TotalCommission.IsPositive() {
		return nil
	}
	employee, err := repos.EmployeeRepo().FindByIDForTenant(ctx, tenantID, payslip.EmployeeID)
	if errors.Is(err, shared.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if err := employee.AddCommission(payslip.TotalCommission); err != nil {
		return err
	}
	return repos.EmployeeRepo().Save(ctx, employee)
}

// ReportRowResponse is one employee's row in the monthly report
type ReportRowResponse struct {
	EmployeeID       uuid.UUID       `json:"employee_id"`
	EmployeeName     string          `json:"employee_name"`
	Month            int             `json:"month"`
	Year             int             `json:"year"`
	BaseSalary       decimal.Decimal `json:"base_salary"`
	TotalAdvances    decimal.Decimal `json:"total_advances"`
	TotalAbsences    decimal.Decimal `json:"total_absences"`
	TotalConsumption decimal.Decimal `json:"total_consumption"`
	TotalCommission  decimal.Decimal `json:"total_commission"`
	GrossSalary      decimal.Decimal `json:"gross_salary"`
	NetSalary        decimal.Decimal `json:"net_salary"`
	ComputedAt       time.Time       `json:"computed_at"`
}

// GenerateMonthlyReport computes the payroll preview for a period without
// closing anything. The aggregates follow the exact closing rules; each row
// is upserted into the cached report table and the whole result is cached.
func (s *ClosingService) GenerateMonthlyReport(ctx context.Context, tenantID uuid.UUID, month, year int) ([]ReportRowResponse, error) {
	period, err := payroll.NewPeriod(month, year)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if cached, hit, err := s.cache.GetReport(ctx, tenantID, period); err == nil && hit {
			return toReportResponses(cached), nil
		} else if err != nil {
			s.logger.Warn("report cache read failed", zap.Error(err))
		}
	}

	var rows []payroll.MonthlyReportRow
	err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		rows, err = s.computeReport(ctx, repos, tenantID, period)
		return err
	})
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.SetReport(ctx, tenantID, period, rows); err != nil {
			s.logger.Warn("report cache write failed", zap.Error(err))
		}
	}

	return toReportResponses(rows), nil
}

func (s *ClosingService) computeReport(ctx context.Context, repos TransactionalRepositories, tenantID uuid.UUID, period payroll.Period) ([]payroll.MonthlyReportRow, error) {
	closed, _, err := repos.PayslipRepo().PeriodClosed(ctx, tenantID, period)
	if err != nil {
		return nil, err
	}

	// A closed month reports the stored totals exactly as they were closed
	if closed {
		payslips, err := repos.PayslipRepo().FindAllForPeriod(ctx, tenantID, period)
		if err != nil {
			return nil, err
		}
		rows := make([]payroll.MonthlyReportRow, 0, len(payslips))
		for i := range payslips {
			p := &payslips[i]
			row := payroll.NewMonthlyReportRow(tenantID, p.EmployeeID, p.EmployeeName, period, payroll.PayslipTotals{
				BaseSalary:       p.BaseSalary,
				TotalAdvances:    p.TotalAdvances,
				TotalAbsences:    p.TotalAbsences,
				TotalConsumption: p.TotalConsumption,
				TotalCommission:  p.TotalCommission,
				GrossSalary:      p.GrossSalary,
				NetSalary:        p.NetSalary,
			})
			if err := repos.ReportRepo().Upsert(ctx, row); err != nil {
				return nil, err
			}
			rows = append(rows, *row)
		}
		return rows, nil
	}

	window, err := s.resolveWindow(ctx, repos, tenantID, period, time.Now())
	if err != nil {
		return nil, err
	}

	employees, err := repos.EmployeeRepo().FindActive(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	rows := make([]payroll.MonthlyReportRow, 0, len(employees))
	for i := range employees {
		employee := &employees[i]

		history, err := repos.SalaryHistoryRepo().FindByEmployee(ctx, tenantID, employee.ID)
		if err != nil {
			return nil, err
		}
		baseSalary := payroll.ResolveBaseSalary(history, period, employee.CurrentSalary)

		payslip, err := repos.PayslipRepo().FindByEmployeePeriod(ctx, tenantID, employee.ID, period)
		if errors.Is(err, shared.ErrNotFound) {
			payslip, err = payroll.NewOpenPayslip(tenantID, employee.ID, employee.Name, period, baseSalary)
		}
		if err != nil {
			return nil, err
		}

		consumption, err := s.employeeConsumption(ctx, repos, tenantID, employee, window)
		if err != nil {
			return nil, err
		}

		totals := payslip.ComputeTotals(baseSalary, employee.Commission, consumption)
		row := payroll.NewMonthlyReportRow(tenantID, employee.ID, employee.Name, period, totals)
		if err := repos.ReportRepo().Upsert(ctx, row); err != nil {
			return nil, err
		}
		rows = append(rows, *row)
	}
	return rows, nil
}

// AuditHistory returns the close/reopen audit entries, newest first
func (s *ClosingService) AuditHistory(ctx context.Context, tenantID uuid.UUID, limit int) ([]payroll.ClosingAuditEntry, error) {
	var entries []payroll.ClosingAuditEntry
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		entries, err = repos.AuditRepo().FindForTenant(ctx, tenantID, limit)
		return err
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func (s *ClosingService) invalidateCache(ctx context.Context, tenantID uuid.UUID, period payroll.Period) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, tenantID, period); err != nil {
		s.logger.Warn("report cache invalidation failed",
			zap.String("tenant_id", tenantID.String()),
			zap.String("period", period.String()),
			zap.Error(err))
	}
}

func toReportResponses(rows []payroll.MonthlyReportRow) []ReportRowResponse {
	responses := make([]ReportRowResponse, len(rows))
	for i, row := range rows {
		responses[i] = ReportRowResponse{
			EmployeeID:       row.EmployeeID,
			EmployeeName:     row.EmployeeName,
			Month:            row.Month,
			Year:             row.Year,
			BaseSalary:       row.BaseSalary,
			TotalAdvances:    row.TotalAdvances,
			TotalAbsences:    row.TotalAbsences,
			TotalConsumption: row.TotalConsumption,
			TotalCommission:  row.TotalCommission,
			GrossSalary:      row.GrossSalary,
			NetSalary:        row.NetSalary,
			ComputedAt:       row.ComputedAt,
		}
	}
	return responses
}
