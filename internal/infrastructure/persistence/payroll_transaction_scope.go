package persistence

import (
	"context"

	apppayroll "github.com/gestor/backend/internal/application/payroll"
	"github.com/gestor/backend/internal/domain/partner"
	"github.com/gestor/backend/internal/domain/payroll"
	"gorm.io/gorm"
)

// GormPayrollTransactionScope implements the payroll TransactionScope using
// GORM transactions. A monthly close touches payslips, salary history,
// employees, report rows and the audit trail in one atomic unit.
type GormPayrollTransactionScope struct {
	db *gorm.DB
}

// NewGormPayrollTransactionScope creates a new GormPayrollTransactionScope.
func NewGormPayrollTransactionScope(db *gorm.DB) *GormPayrollTransactionScope {
	return &GormPayrollTransactionScope{db: db}
}

// Execute runs the given function within a database transaction.
// If the function returns an error, the transaction is rolled back.
func (s *GormPayrollTransactionScope) Execute(ctx context.Context, fn func(repos apppayroll.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repos := &gormPayrollRepositories{tx: tx}
		return fn(repos)
	})
}

// gormPayrollRepositories provides access to payroll repositories within a transaction.
type gormPayrollRepositories struct {
	tx *gorm.DB
}

// PayslipRepo returns the payslip repository scoped to the current transaction.
func (r *gormPayrollRepositories) PayslipRepo() payroll.PayslipRepository {
	return NewGormPayslipRepository(r.tx)
}

// SalaryHistoryRepo returns the salary history repository scoped to the current transaction.
func (r *gormPayrollRepositories) SalaryHistoryRepo() payroll.SalaryHistoryRepository {
	return NewGormSalaryHistoryRepository(r.tx)
}

// EmployeeRepo returns the employee repository scoped to the current transaction.
func (r *gormPayrollRepositories) EmployeeRepo() partner.EmployeeRepository {
	return NewGormEmployeeRepository(r.tx)
}

// ReportRepo returns the report row repository scoped to the current transaction.
func (r *gormPayrollRepositories) ReportRepo() payroll.ReportRepository {
	return NewGormPayrollReportRepository(r.tx)
}

// AuditRepo returns the closing audit repository scoped to the current transaction.
func (r *gormPayrollRepositories) AuditRepo() payroll.AuditRepository {
	return NewGormClosingAuditRepository(r.tx)
}

// Consumption returns the internal-consumption source scoped to the current transaction.
func (r *gormPayrollRepositories) Consumption() payroll.ConsumptionSource {
	return NewConsumptionQuery(NewGormSourceDocumentRepository(r.tx))
}

// Ensure GormPayrollTransactionScope implements TransactionScope
var _ apppayroll.TransactionScope = (*GormPayrollTransactionScope)(nil)

// Ensure gormPayrollRepositories implements TransactionalRepositories
var _ apppayroll.TransactionalRepositories = (*gormPayrollRepositories)(nil)
