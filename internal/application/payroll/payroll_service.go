package payroll

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gestor/backend/internal/domain/payroll"
	"github.com/gestor/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// PayrollService manages day-to-day payroll entries: advances, absences and
// salary changes. Month-level lifecycle lives in ClosingService.
type PayrollService struct {
	scope       TransactionScope
	payslipRepo payroll.PayslipRepository
	logger      *zap.Logger
}

// NewPayrollService creates a new PayrollService
func NewPayrollService(scope TransactionScope, payslipRepo payroll.PayslipRepository, logger *zap.Logger) *PayrollService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PayrollService{
		scope:       scope,
		payslipRepo: payslipRepo,
		logger:      logger,
	}
}

// AddAdvanceRequest is the request to register a salary advance
type AddAdvanceRequest struct {
	EmployeeID uuid.UUID       `json:"employee_id" binding:"required"`
	Date       time.Time       `json:"date"`
	Amount     decimal.Decimal `json:"amount" binding:"required"`
	Notes      string          `json:"notes"`
}

// AddAbsenceRequest is the request to register an absence
type AddAbsenceRequest struct {
	EmployeeID uuid.UUID        `json:"employee_id" binding:"required"`
	Date       time.Time        `json:"date"`
	Deduction  *decimal.Decimal `json:"deduction,omitempty"`
	Justified  bool             `json:"justified"`
	Notes      string           `json:"notes"`
}

// ChangeSalaryRequest is the request to change an employee's salary
type ChangeSalaryRequest struct {
	EmployeeID    uuid.UUID       `json:"employee_id" binding:"required"`
	NewSalary     decimal.Decimal `json:"new_salary" binding:"required"`
	Reason        string          `json:"reason"`
	EffectiveDate time.Time       `json:"effective_date"`
	RecordedBy    *uuid.UUID      `json:"-"`
}

// PayslipResponse is the API representation of a payslip
type PayslipResponse struct {
	ID               uuid.UUID         `json:"id"`
	EmployeeID       uuid.UUID         `json:"employee_id"`
	EmployeeName     string            `json:"employee_name"`
	Month            int               `json:"month"`
	Year             int               `json:"year"`
	BaseSalary       decimal.Decimal   `json:"base_salary"`
	Advances         payroll.Advances  `json:"advances"`
	Absences         payroll.Absences  `json:"absences"`
	TotalAdvances    decimal.Decimal   `json:"total_advances"`
	TotalAbsences    decimal.Decimal   `json:"total_absences"`
	TotalConsumption decimal.Decimal   `json:"total_consumption"`
	TotalCommission  decimal.Decimal   `json:"total_commission"`
	GrossSalary      decimal.Decimal   `json:"gross_salary"`
	NetSalary        decimal.Decimal   `json:"net_salary"`
	Closed           bool              `json:"closed"`
	ClosedAt         *time.Time        `json:"closed_at,omitempty"`
	Observations     string            `json:"observations,omitempty"`
	CreatedAt        time.Time         `json:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at"`
}

// SalaryChangeResponse is the API representation of a salary history entry
type SalaryChangeResponse struct {
	ID             uuid.UUID       `json:"id"`
	EmployeeID     uuid.UUID       `json:"employee_id"`
	PreviousSalary decimal.Decimal `json:"previous_salary"`
	NewSalary      decimal.Decimal `json:"new_salary"`
	Reason         string          `json:"reason,omitempty"`
	EffectiveDate  time.Time       `json:"effective_date"`
	CreatedAt      time.Time       `json:"created_at"`
}

// AddAdvance registers a salary advance on the payslip of the advance date's
// month, opening the payslip on demand when it does not exist yet. Advances
// dated in a closed month are rejected.
func (s *PayrollService) AddAdvance(ctx context.Context, tenantID uuid.UUID, req AddAdvanceRequest) (*PayslipResponse, error) {
	date := req.Date
	if date.IsZero() {
		date = time.Now()
	}

	var response *PayslipResponse
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		payslip, err := s.payslipForEntry(ctx, repos, tenantID, req.EmployeeID, date)
		if err != nil {
			return err
		}
		if _, err := payslip.AddAdvance(date, req.Amount, req.Notes); err != nil {
			return err
		}
		if err := repos.PayslipRepo().Save(ctx, payslip); err != nil {
			return err
		}
		response = toPayslipResponse(payslip)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return response, nil
}

// AddAbsence registers an absence on the payslip of the absence date's month,
// opening the payslip on demand. Absences dated in a closed month are
// rejected.
func (s *PayrollService) AddAbsence(ctx context.Context, tenantID uuid.UUID, req AddAbsenceRequest) (*PayslipResponse, error) {
	date := req.Date
	if date.IsZero() {
		date = time.Now()
	}

	var response *PayslipResponse
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		payslip, err := s.payslipForEntry(ctx, repos, tenantID, req.EmployeeID, date)
		if err != nil {
			return err
		}
		if _, err := payslip.AddAbsence(date, req.Deduction, req.Justified, req.Notes); err != nil {
			return err
		}
		if err := repos.PayslipRepo().Save(ctx, payslip); err != nil {
			return err
		}
		response = toPayslipResponse(payslip)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return response, nil
}

// payslipForEntry finds or opens the payslip holding entries for date.
// A missing payslip in an already-closed month means the close happened
// without the employee, so the entry is refused rather than silently
// reopening the period.
func (s *PayrollService) payslipForEntry(ctx context.Context, repos TransactionalRepositories, tenantID, employeeID uuid.UUID, date time.Time) (*payroll.Payslip, error) {
	period := payroll.PeriodOf(date)

	payslip, err := repos.PayslipRepo().FindByEmployeePeriod(ctx, tenantID, employeeID, period)
	if err == nil {
		return payslip, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}

	closed, _, err := repos.PayslipRepo().PeriodClosed(ctx, tenantID, period)
	if err != nil {
		return nil, err
	}
	if closed {
		return nil, shared.NewDomainError("MONTH_CLOSED", fmt.Sprintf("Month %s is already closed", period))
	}

	employee, err := repos.EmployeeRepo().FindByIDForTenant(ctx, tenantID, employeeID)
	if err != nil {
		return nil, err
	}

	history, err := repos.SalaryHistoryRepo().FindByEmployee(ctx, tenantID, employeeID)
	if err != nil {
		return nil, err
	}
	baseSalary := payroll.ResolveBaseSalary(history, period, employee.CurrentSalary)

	return payroll.NewOpenPayslip(tenantID, employeeID, employee.Name, period, baseSalary)
}

// ChangeSalary updates an employee's salary and appends the change to the
// append-only salary history. The effective date decides which periods the
// new value resolves for.
func (s *PayrollService) ChangeSalary(ctx context.Context, tenantID uuid.UUID, req ChangeSalaryRequest) (*SalaryChangeResponse, error) {
	effectiveDate := req.EffectiveDate
	if effectiveDate.IsZero() {
		effectiveDate = time.Now()
	}

	var response *SalaryChangeResponse
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		employee, err := repos.EmployeeRepo().FindByIDForTenant(ctx, tenantID, req.EmployeeID)
		if err != nil {
			return err
		}

		previous, err := employee.ChangeSalary(req.NewSalary)
		if err != nil {
			return err
		}

		change, err := payroll.NewSalaryChange(tenantID, employee.ID, previous, req.NewSalary, req.Reason, effectiveDate)
		if err != nil {
			return err
		}
		change.RecordedBy = req.RecordedBy
		if err := repos.SalaryHistoryRepo().Append(ctx, change); err != nil {
			return err
		}
		if err := repos.EmployeeRepo().Save(ctx, employee); err != nil {
			return err
		}

		response = &SalaryChangeResponse{
			ID:             change.ID,
			EmployeeID:     change.EmployeeID,
			PreviousSalary: change.PreviousSalary,
			NewSalary:      change.NewSalary,
			Reason:         change.Reason,
			EffectiveDate:  change.EffectiveDate,
			CreatedAt:      change.CreatedAt,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("salary changed",
		zap.String("tenant_id", tenantID.String()),
		zap.String("employee_id", req.EmployeeID.String()),
		zap.String("new_salary", req.NewSalary.String()))

	return response, nil
}

// SalaryHistory returns an employee's salary changes ordered by effective date
func (s *PayrollService) SalaryHistory(ctx context.Context, tenantID, employeeID uuid.UUID) ([]SalaryChangeResponse, error) {
	var changes []payroll.SalaryChange
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		changes, err = repos.SalaryHistoryRepo().FindByEmployee(ctx, tenantID, employeeID)
		return err
	})
	if err != nil {
		return nil, err
	}

	responses := make([]SalaryChangeResponse, len(changes))
	for i, change := range changes {
		responses[i] = SalaryChangeResponse{
			ID:             change.ID,
			EmployeeID:     change.EmployeeID,
			PreviousSalary: change.PreviousSalary,
			NewSalary:      change.NewSalary,
			Reason:         change.Reason,
			EffectiveDate:  change.EffectiveDate,
			CreatedAt:      change.CreatedAt,
		}
	}
	return responses, nil
}

// GetPayslip returns one payslip by ID
func (s *PayrollService) GetPayslip(ctx context.Context, tenantID, id uuid.UUID) (*PayslipResponse, error) {
	payslip, err := s.payslipRepo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	return toPayslipResponse(payslip), nil
}

// GetEmployeePayslip returns the payslip for (employee, month, year)
func (s *PayrollService) GetEmployeePayslip(ctx context.Context, tenantID, employeeID uuid.UUID, month, year int) (*PayslipResponse, error) {
	period, err := payroll.NewPeriod(month, year)
	if err != nil {
		return nil, err
	}
	payslip, err := s.payslipRepo.FindByEmployeePeriod(ctx, tenantID, employeeID, period)
	if err != nil {
		return nil, err
	}
	return toPayslipResponse(payslip), nil
}

// ListPayslipsForPeriod returns every payslip of one period
func (s *PayrollService) ListPayslipsForPeriod(ctx context.Context, tenantID uuid.UUID, month, year int) ([]PayslipResponse, error) {
	period, err := payroll.NewPeriod(month, year)
	if err != nil {
		return nil, err
	}
	payslips, err := s.payslipRepo.FindAllForPeriod(ctx, tenantID, period)
	if err != nil {
		return nil, err
	}

	responses := make([]PayslipResponse, len(payslips))
	for i := range payslips {
		responses[i] = *toPayslipResponse(&payslips[i])
	}
	return responses, nil
}

// ListEmployeePayslips returns an employee's payslips ordered by period
func (s *PayrollService) ListEmployeePayslips(ctx context.Context, tenantID, employeeID uuid.UUID) ([]PayslipResponse, error) {
	payslips, err := s.payslipRepo.FindByEmployee(ctx, tenantID, employeeID)
	if err != nil {
		return nil, err
	}

	responses := make([]PayslipResponse, len(payslips))
	for i := range payslips {
		responses[i] = *toPayslipResponse(&payslips[i])
	}
	return responses, nil
}

func toPayslipResponse(p *payroll.Payslip) *PayslipResponse {
	return &PayslipResponse{
		ID:               p.ID,
		EmployeeID:       p.EmployeeID,
		EmployeeName:     p.EmployeeName,
		Month:            p.Month,
		Year:             p.Year,
		BaseSalary:       p.BaseSalary,
		Advances:         p.Advances,
		Absences:         p.Absences,
		TotalAdvances:    p.TotalAdvances,
		TotalAbsences:    p.TotalAbsences,
		TotalConsumption: p.TotalConsumption,
		TotalCommission:  p.TotalCommission,
		GrossSalary:      p.GrossSalary,
		NetSalary:        p.NetSalary,
		Closed:           p.Closed,
		ClosedAt:         p.ClosedAt,
		Observations:     p.Observations,
		CreatedAt:        p.CreatedAt,
		UpdatedAt:        p.UpdatedAt,
	}
}
