package models

import (
	"time"

	"github.com/gestor/backend/internal/domain/payroll"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PayslipModel is the persistence model for the Payslip aggregate root.
// The unique index enforces one payslip per (tenant, employee, month, year).
type PayslipModel struct {
	TenantAggregateModel
	EmployeeID       uuid.UUID        `gorm:"type:uuid;not null;uniqueIndex:idx_payslip_employee_period,priority:2"`
	EmployeeName     string           `gorm:"type:varchar(200);not null"`
	Month            int              `gorm:"not null;uniqueIndex:idx_payslip_employee_period,priority:3"`
	Year             int              `gorm:"not null;uniqueIndex:idx_payslip_employee_period,priority:4"`
	BaseSalary       decimal.Decimal  `gorm:"type:decimal(18,4);not null"`
	Advances         payroll.Advances `gorm:"type:jsonb;default:'[]'"`
	Absences         payroll.Absences `gorm:"type:jsonb;default:'[]'"`
	TotalAdvances    decimal.Decimal  `gorm:"type:decimal(18,4);not null"`
	TotalAbsences    decimal.Decimal  `gorm:"type:decimal(18,4);not null"`
	TotalConsumption decimal.Decimal  `gorm:"type:decimal(18,4);not null"`
	TotalCommission  decimal.Decimal  `gorm:"type:decimal(18,4);not null"`
	GrossSalary      decimal.Decimal  `gorm:"type:decimal(18,4);not null"`
	NetSalary        decimal.Decimal  `gorm:"type:decimal(18,4);not null"`
	Closed           bool             `gorm:"not null;default:false;index"`
	ClosedAt         *time.Time       ``
	ClosedBy         *uuid.UUID       `gorm:"type:uuid"`
	Observations     string           `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (PayslipModel) TableName() string {
	return "payslips"
}

// ToDomain converts the persistence model to a domain Payslip entity.
func (m *PayslipModel) ToDomain() *payroll.Payslip {
	return &payroll.Payslip{
		TenantAggregateRoot: m.tenantAggregateRootFromModel(),
		EmployeeID:          m.EmployeeID,
		EmployeeName:        m.EmployeeName,
		Month:               m.Month,
		Year:                m.Year,
		BaseSalary:          m.BaseSalary,
		Advances:            m.Advances,
		Absences:            m.Absences,
		TotalAdvances:       m.TotalAdvances,
		TotalAbsences:       m.TotalAbsences,
		TotalConsumption:    m.TotalConsumption,
		TotalCommission:     m.TotalCommission,
		GrossSalary:         m.GrossSalary,
		NetSalary:           m.NetSalary,
		Closed:              m.Closed,
		ClosedAt:            m.ClosedAt,
		ClosedBy:            m.ClosedBy,
		Observations:        m.Observations,
	}
}

// FromDomain populates the persistence model from a domain Payslip entity.
func (m *PayslipModel) FromDomain(p *payroll.Payslip) {
	m.FromDomainTenantAggregateRoot(p.TenantAggregateRoot)
	m.EmployeeID = p.EmployeeID
	m.EmployeeName = p.EmployeeName
	m.Month = p.Month
	m.Year = p.Year
	m.BaseSalary = p.BaseSalary
	m.Advances = p.Advances
	m.Absences = p.Absences
	m.TotalAdvances = p.TotalAdvances
	m.TotalAbsences = p.TotalAbsences
	m.TotalConsumption = p.TotalConsumption
	m.TotalCommission = p.TotalCommission
	m.GrossSalary = p.GrossSalary
	m.NetSalary = p.NetSalary
	m.Closed = p.Closed
	m.ClosedAt = p.ClosedAt
	m.ClosedBy = p.ClosedBy
	m.Observations = p.Observations
}

// PayslipModelFromDomain creates a new persistence model from a domain Payslip.
func PayslipModelFromDomain(p *payroll.Payslip) *PayslipModel {
	m := &PayslipModel{}
	m.FromDomain(p)
	return m
}

// SalaryChangeModel is the persistence model for the append-only salary history.
type SalaryChangeModel struct {
	BaseModel
	TenantID       uuid.UUID       `gorm:"type:uuid;not null;index:idx_salary_history_employee"`
	EmployeeID     uuid.UUID       `gorm:"type:uuid;not null;index:idx_salary_history_employee"`
	PreviousSalary decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	NewSalary      decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Delta          decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Reason         string          `gorm:"type:varchar(500)"`
	EffectiveDate  time.Time       `gorm:"not null;index"`
	RecordedBy     *uuid.UUID      `gorm:"type:uuid"`
}

// TableName returns the table name for GORM
func (SalaryChangeModel) TableName() string {
	return "salary_history"
}

// ToDomain converts the persistence model to a domain SalaryChange entity.
func (m *SalaryChangeModel) ToDomain() *payroll.SalaryChange {
	return &payroll.SalaryChange{
		BaseEntity:     m.BaseModel.ToDomain(),
		TenantID:       m.TenantID,
		EmployeeID:     m.EmployeeID,
		PreviousSalary: m.PreviousSalary,
		NewSalary:      m.NewSalary,
		Delta:          m.Delta,
		Reason:         m.Reason,
		EffectiveDate:  m.EffectiveDate,
		RecordedBy:     m.RecordedBy,
	}
}

// FromDomain populates the persistence model from a domain SalaryChange entity.
func (m *SalaryChangeModel) FromDomain(c *payroll.SalaryChange) {
	m.FromDomainBaseEntity(c.BaseEntity)
	m.TenantID = c.TenantID
	m.EmployeeID = c.EmployeeID
	m.PreviousSalary = c.PreviousSalary
	m.NewSalary = c.NewSalary
	m.Delta = c.Delta
	m.Reason = c.Reason
	m.EffectiveDate = c.EffectiveDate
	m.RecordedBy = c.RecordedBy
}

// MonthlyReportRowModel is the persistence model for cached payroll report rows.
// The unique index supports the upsert semantics: one row per (tenant, employee, period).
type MonthlyReportRowModel struct {
	BaseModel
	TenantID         uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_report_row_period,priority:1"`
	EmployeeID       uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_report_row_period,priority:2"`
	EmployeeName     string          `gorm:"type:varchar(200);not null"`
	Month            int             `gorm:"not null;uniqueIndex:idx_report_row_period,priority:3"`
	Year             int             `gorm:"not null;uniqueIndex:idx_report_row_period,priority:4"`
	BaseSalary       decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	TotalAdvances    decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	TotalAbsences    decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	TotalConsumption decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	TotalCommission  decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	GrossSalary      decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	NetSalary        decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	ComputedAt       time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (MonthlyReportRowModel) TableName() string {
	return "payroll_report_rows"
}

// ToDomain converts the persistence model to a domain MonthlyReportRow entity.
func (m *MonthlyReportRowModel) ToDomain() *payroll.MonthlyReportRow {
	return &payroll.MonthlyReportRow{
		BaseEntity:       m.BaseModel.ToDomain(),
		TenantID:         m.TenantID,
		EmployeeID:       m.EmployeeID,
		EmployeeName:     m.EmployeeName,
		Month:            m.Month,
		Year:             m.Year,
		BaseSalary:       m.BaseSalary,
		TotalAdvances:    m.TotalAdvances,
		TotalAbsences:    m.TotalAbsences,
		TotalConsumption: m.TotalConsumption,
		TotalCommission:  m.TotalCommission,
		GrossSalary:      m.GrossSalary,
		NetSalary:        m.NetSalary,
		ComputedAt:       m.ComputedAt,
	}
}

// FromDomain populates the persistence model from a domain MonthlyReportRow entity.
func (m *MonthlyReportRowModel) FromDomain(r *payroll.MonthlyReportRow) {
	m.FromDomainBaseEntity(r.BaseEntity)
	m.TenantID = r.TenantID
	m.EmployeeID = r.EmployeeID
	m.EmployeeName = r.EmployeeName
	m.Month = r.Month
	m.Year = r.Year
	m.BaseSalary = r.BaseSalary
	m.TotalAdvances = r.TotalAdvances
	m.TotalAbsences = r.TotalAbsences
	m.TotalConsumption = r.TotalConsumption
	m.TotalCommission = r.TotalCommission
	m.GrossSalary = r.GrossSalary
	m.NetSalary = r.NetSalary
	m.ComputedAt = r.ComputedAt
}

// ClosingAuditEntryModel is the persistence model for close/reopen audit history.
type ClosingAuditEntryModel struct {
	BaseModel
	TenantID uuid.UUID           `gorm:"type:uuid;not null;index"`
	Action   payroll.AuditAction `gorm:"type:varchar(20);not null"`
	Month    int                 `gorm:"not null"`
	Year     int                 `gorm:"not null"`
	UserID   uuid.UUID           `gorm:"type:uuid;not null"`
	UserName string              `gorm:"type:varchar(200)"`
	Detail   string              `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (ClosingAuditEntryModel) TableName() string {
	return "payroll_closing_audit"
}

// ToDomain converts the persistence model to a domain ClosingAuditEntry entity.
func (m *ClosingAuditEntryModel) ToDomain() *payroll.ClosingAuditEntry {
	return &payroll.ClosingAuditEntry{
		BaseEntity: m.BaseModel.ToDomain(),
		TenantID:   m.TenantID,
		Action:     m.Action,
		Month:      m.Month,
		Year:       m.Year,
		UserID:     m.UserID,
		UserName:   m.UserName,
		Detail:     m.Detail,
	}
}

// FromDomain populates the persistence model from a domain ClosingAuditEntry entity.
func (m *ClosingAuditEntryModel) FromDomain(e *payroll.ClosingAuditEntry) {
	m.FromDomainBaseEntity(e.BaseEntity)
	m.TenantID = e.TenantID
	m.Action = e.Action
	m.Month = e.Month
	m.Year = e.Year
	m.UserID = e.UserID
	m.UserName = e.UserName
	m.Detail = e.Detail
}
