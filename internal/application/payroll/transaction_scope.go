package payroll

import (
	"context"

	"github.com/gestor/backend/internal/domain/partner"
	"github.com/gestor/backend/internal/domain/payroll"
)

// TransactionScope provides transactional access to payroll repositories.
// A monthly close touches payslips, employees, the report cache and the audit
// trail; everything commits or rolls back together.
type TransactionScope interface {
	// Execute runs the given function within a database transaction.
	// If the function returns an error, the transaction is rolled back.
	// If the function succeeds, the transaction is committed.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides access to the payroll repositories
// within a transaction.
type TransactionalRepositories interface {
	// PayslipRepo returns the payslip repository scoped to the current transaction
	PayslipRepo() payroll.PayslipRepository
	// SalaryHistoryRepo returns the salary history repository scoped to the current transaction
	SalaryHistoryRepo() payroll.SalaryHistoryRepository
	// EmployeeRepo returns the employee repository scoped to the current transaction
	EmployeeRepo() partner.EmployeeRepository
	// ReportRepo returns the cached report repository scoped to the current transaction
	ReportRepo() payroll.ReportRepository
	// AuditRepo returns the close/reopen audit repository scoped to the current transaction
	AuditRepo() payroll.AuditRepository
	// Consumption returns the internal-consumption source scoped to the current transaction
	Consumption() payroll.ConsumptionSource
}

// NoOpTransactionScope is a transaction scope that doesn't actually use
// transactions. Useful for tests.
type NoOpTransactionScope struct {
	payslipRepo   payroll.PayslipRepository
	salaryRepo    payroll.SalaryHistoryRepository
	employeeRepo  partner.EmployeeRepository
	reportRepo    payroll.ReportRepository
	auditRepo     payroll.AuditRepository
	consumption   payroll.ConsumptionSource
}

// NewNoOpTransactionScope creates a NoOpTransactionScope with the given repositories.
func NewNoOpTransactionScope(
	payslipRepo payroll.PayslipRepository,
	salaryRepo payroll.SalaryHistoryRepository,
	employeeRepo partner.EmployeeRepository,
	reportRepo payroll.ReportRepository,
	auditRepo payroll.AuditRepository,
	consumption payroll.ConsumptionSource,
) *NoOpTransactionScope {
	return &NoOpTransactionScope{
		payslipRepo:  payslipRepo,
		salaryRepo:   salaryRepo,
		employeeRepo: employeeRepo,
		reportRepo:   reportRepo,
		auditRepo:    auditRepo,
		consumption:  consumption,
	}
}

// Execute runs the function without a real transaction.
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// PayslipRepo returns the payslip repository.
func (s *NoOpTransactionScope) PayslipRepo() payroll.PayslipRepository {
	return s.payslipRepo
}

// SalaryHistoryRepo returns the salary history repository.
func (s *NoOpTransactionScope) SalaryHistoryRepo() payroll.SalaryHistoryRepository {
	return s.salaryRepo
}

// EmployeeRepo returns the employee repository.
func (s *NoOpTransactionScope) EmployeeRepo() partner.EmployeeRepository {
	return s.employeeRepo
}

// ReportRepo returns the cached report repository.
func (s *NoOpTransactionScope) ReportRepo() payroll.ReportRepository {
	return s.reportRepo
}

// AuditRepo returns the audit repository.
func (s *NoOpTransactionScope) AuditRepo() payroll.AuditRepository {
	return s.auditRepo
}

// Consumption returns the internal-consumption source.
func (s *NoOpTransactionScope) Consumption() payroll.ConsumptionSource {
	return s.consumption
}

// Ensure NoOpTransactionScope implements both interfaces
var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
