package payroll

import (
	"time"

	"github.com/gestor/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MonthlyReportRow is the cached result of a payroll report computation for
// one employee and period. Rows are upserted: recomputation overwrites the
// previous row for the same (employee, month, year).
type MonthlyReportRow struct {
	shared.BaseEntity
	TenantID         uuid.UUID       `json:"tenant_id"`
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

// NewMonthlyReportRow builds a report row from computed totals
func NewMonthlyReportRow(tenantID, employeeID uuid.UUID, employeeName string, period Period, totals PayslipTotals) *MonthlyReportRow {
	return &MonthlyReportRow{
		BaseEntity:       shared.NewBaseEntity(),
		TenantID:         tenantID,
		EmployeeID:       employeeID,
		EmployeeName:     employeeName,
		Month:            period.Month,
		Year:             period.Year,
		BaseSalary:       totals.BaseSalary,
		TotalAdvances:    totals.TotalAdvances,
		TotalAbsences:    totals.TotalAbsences,
		TotalConsumption: totals.TotalConsumption,
		TotalCommission:  totals.TotalCommission,
		GrossSalary:      totals.GrossSalary,
		NetSalary:        totals.NetSalary,
		ComputedAt:       time.Now(),
	}
}

// AuditAction identifies a payroll lifecycle action recorded for auditing
type AuditAction string

const (
	AuditActionClose  AuditAction = "CLOSE"
	AuditActionReopen AuditAction = "REOPEN"
)

// ClosingAuditEntry records who closed or reopened a payroll period and when
type ClosingAuditEntry struct {
	shared.BaseEntity
	TenantID uuid.UUID   `json:"tenant_id"`
	Action   AuditAction `json:"action"`
	Month    int         `json:"month"`
	Year     int         `json:"year"`
	UserID   uuid.UUID   `json:"user_id"`
	UserName string      `json:"user_name,omitempty"`
	Detail   string      `json:"detail,omitempty"`
}

// NewClosingAuditEntry creates an audit history entry
func NewClosingAuditEntry(tenantID uuid.UUID, action AuditAction, period Period, userID uuid.UUID, userName, detail string) *ClosingAuditEntry {
	return &ClosingAuditEntry{
		BaseEntity: shared.NewBaseEntity(),
		TenantID:   tenantID,
		Action:     action,
		Month:      period.Month,
		Year:       period.Year,
		UserID:     userID,
		UserName:   userName,
		Detail:     detail,
	}
}
