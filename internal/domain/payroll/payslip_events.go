package payroll

import (
	"time"

	"github.com/gestor/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PayslipOpenedEvent is raised when an open placeholder payslip is created
type PayslipOpenedEvent struct {
	shared.BaseDomainEvent
	PayslipID  uuid.UUID       `json:"payslip_id"`
	EmployeeID uuid.UUID       `json:"employee_id"`
	Month      int             `json:"month"`
	Year       int             `json:"year"`
	BaseSalary decimal.Decimal `json:"base_salary"`
}

// EventType returns the event type name
func (e *PayslipOpenedEvent) EventType() string {
	return "PayslipOpened"
}

// NewPayslipOpenedEvent creates a new PayslipOpenedEvent
func NewPayslipOpenedEvent(p *Payslip) *PayslipOpenedEvent {
	return &PayslipOpenedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("PayslipOpened", "Payslip", p.ID, p.TenantID),
		PayslipID:       p.ID,
		EmployeeID:      p.EmployeeID,
		Month:           p.Month,
		Year:            p.Year,
		BaseSalary:      p.BaseSalary,
	}
}

// PayslipClosedEvent is raised when a payslip is finalized by the monthly close
type PayslipClosedEvent struct {
	shared.BaseDomainEvent
	PayslipID  uuid.UUID       `json:"payslip_id"`
	EmployeeID uuid.UUID       `json:"employee_id"`
	Month      int             `json:"month"`
	Year       int             `json:"year"`
	NetSalary  decimal.Decimal `json:"net_salary"`
	ClosedAt   *time.Time      `json:"closed_at,omitempty"`
	ClosedBy   *uuid.UUID      `json:"closed_by,omitempty"`
}

// EventType returns the event type name
func (e *PayslipClosedEvent) EventType() string {
	return "PayslipClosed"
}

// NewPayslipClosedEvent creates a new PayslipClosedEvent
func NewPayslipClosedEvent(p *Payslip) *PayslipClosedEvent {
	return &PayslipClosedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("PayslipClosed", "Payslip", p.ID, p.TenantID),
		PayslipID:       p.ID,
		EmployeeID:      p.EmployeeID,
		Month:           p.Month,
		Year:            p.Year,
		NetSalary:       p.NetSalary,
		ClosedAt:        p.ClosedAt,
		ClosedBy:        p.ClosedBy,
	}
}

// PayslipReopenedEvent is raised when a closed payslip is reopened
type PayslipReopenedEvent struct {
	shared.BaseDomainEvent
	PayslipID  uuid.UUID `json:"payslip_id"`
	EmployeeID uuid.UUID `json:"employee_id"`
	Month      int       `json:"month"`
	Year       int       `json:"year"`
}

// EventType returns the event type name
func (e *PayslipReopenedEvent) EventType() string {
	return "PayslipReopened"
}

// NewPayslipReopenedEvent creates a new PayslipReopenedEvent
func NewPayslipReopenedEvent(p *Payslip) *PayslipReopenedEvent {
	return &PayslipReopenedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("PayslipReopened", "Payslip", p.ID, p.TenantID),
		PayslipID:       p.ID,
		EmployeeID:      p.EmployeeID,
		Month:           p.Month,
		Year:            p.Year,
	}
}
