package payroll

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PayslipRepository defines the interface for payslip persistence.
// All queries are explicitly tenant-scoped.
type PayslipRepository interface {
	// FindByIDForTenant finds a payslip by ID for a specific tenant
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Payslip, error)

	// FindByEmployeePeriod finds the unique payslip for (employee, month, year)
	FindByEmployeePeriod(ctx context.Context, tenantID, employeeID uuid.UUID, period Period) (*Payslip, error)

	// FindAllForPeriod finds every payslip of a tenant for one period
	FindAllForPeriod(ctx context.Context, tenantID uuid.UUID, period Period) ([]Payslip, error)

	// FindByEmployee finds all payslips of an employee ordered by period
	FindByEmployee(ctx context.Context, tenantID, employeeID uuid.UUID) ([]Payslip, error)

	// PeriodClosed reports whether every payslip of the period is closed and
	// at least one exists; returns the latest closing timestamp when closed.
	PeriodClosed(ctx context.Context, tenantID uuid.UUID, period Period) (bool, *time.Time, error)

	// PeriodExists reports whether any payslip exists for the period
	PeriodExists(ctx context.Context, tenantID uuid.UUID, period Period) (bool, error)

	// EarliestPeriod returns the first period with any payslip, or nil when
	// the tenant has no payroll history yet
	EarliestPeriod(ctx context.Context, tenantID uuid.UUID) (*Period, error)

	// Save creates or updates a payslip
	Save(ctx context.Context, payslip *Payslip) error

	// DeletePristine hard-deletes an untouched auto-opened placeholder.
	// Implementations must refuse rows carrying advances, absences or a
	// closing date.
	DeletePristine(ctx context.Context, tenantID, id uuid.UUID) error
}

// SalaryHistoryRepository persists the append-only salary change ledger
type SalaryHistoryRepository interface {
	// FindByEmployee returns all changes for an employee ordered by effective date
	FindByEmployee(ctx context.Context, tenantID, employeeID uuid.UUID) ([]SalaryChange, error)

	// Append records a new salary change
	Append(ctx context.Context, change *SalaryChange) error
}

// ReportRepository persists cached monthly report rows
type ReportRepository interface {
	// Upsert overwrites the row for (tenant, employee, month, year)
	Upsert(ctx context.Context, row *MonthlyReportRow) error

	// FindForPeriod returns the cached rows of a period
	FindForPeriod(ctx context.Context, tenantID uuid.UUID, period Period) ([]MonthlyReportRow, error)
}

// AuditRepository persists the close/reopen audit history
type AuditRepository interface {
	// Append records an audit entry
	Append(ctx context.Context, entry *ClosingAuditEntry) error

	// FindForTenant returns audit entries, newest first
	FindForTenant(ctx context.Context, tenantID uuid.UUID, limit int) ([]ClosingAuditEntry, error)
}

// ConsumptionSource aggregates the internal-consumption deductions for one
// employee: the sum of credit-method payments on source documents where the
// employee is the customer within the open window. Implementations must skip
// documents sold by the employee themselves and ignore credit amounts
// exceeding 110% of the document total as corrupt data.
type ConsumptionSource interface {
	SumCreditConsumption(ctx context.Context, tenantID, customerID, excludeSellerID uuid.UUID, window OpenWindow) (decimal.Decimal, error)
}
