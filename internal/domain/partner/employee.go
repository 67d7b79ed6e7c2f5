package partner

import (
	"time"

	"github.com/gestor/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EmployeeStatus represents the employment status
type EmployeeStatus string

const (
	EmployeeStatusActive   EmployeeStatus = "ACTIVE"
	EmployeeStatusInactive EmployeeStatus = "INACTIVE"
)

// IsValid checks if the status is valid
func (s EmployeeStatus) IsValid() bool {
	return s == EmployeeStatusActive || s == EmployeeStatusInactive
}

// Employee represents a staff member subject to monthly payroll closing.
// CustomerID links the employee to their customer identity so purchases made
// on store credit can be settled against payroll as internal consumption.
type Employee struct {
	shared.TenantAggregateRoot
	Name          string          `json:"name"`
	Document      string          `json:"document,omitempty"` // CPF
	Email         string          `json:"email,omitempty"`
	Phone         string          `json:"phone,omitempty"`
	Role          string          `json:"role,omitempty"`
	CurrentSalary decimal.Decimal `json:"current_salary"`
	Commission    decimal.Decimal `json:"commission"` // Accumulated commission for the open period
	Status        EmployeeStatus  `json:"status"`
	CustomerID    *uuid.UUID      `json:"customer_id,omitempty"`
	HiredAt       *time.Time      `json:"hired_at,omitempty"`
}

// NewEmployee creates a new employee
func NewEmployee(tenantID uuid.UUID, name string, salary decimal.Decimal) (*Employee, error) {
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Employee name cannot be empty")
	}
	if salary.IsNegative() {
		return nil, shared.NewDomainError("INVALID_SALARY", "Salary cannot be negative")
	}

	return &Employee{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Name:                name,
		CurrentSalary:       salary,
		Commission:          decimal.Zero,
		Status:              EmployeeStatusActive,
	}, nil
}

// IsActive returns true if the employee is active
func (e *Employee) IsActive() bool {
	return e.Status == EmployeeStatusActive
}

// ChangeSalary updates the current salary, returning the previous value so
// the caller can append a salary-history entry in the same transaction.
func (e *Employee) ChangeSalary(newSalary decimal.Decimal) (decimal.Decimal, error) {
	if newSalary.IsNegative() {
		return decimal.Zero, shared.NewDomainError("INVALID_SALARY", "Salary cannot be negative")
	}
	previous := e.CurrentSalary
	e.CurrentSalary = newSalary
	e.UpdatedAt = time.Now()
	e.IncrementVersion()
	return previous, nil
}

// AddCommission accumulates commission earned during the open period
func (e *Employee) AddCommission(amount decimal.Decimal) error {
	if amount.IsNegative() {
		return shared.NewDomainError("INVALID_AMOUNT", "Commission amount cannot be negative")
	}
	e.Commission = e.Commission.Add(amount)
	e.UpdatedAt = time.Now()
	return nil
}

// ResetCommission zeroes the accumulated commission after a monthly close
func (e *Employee) ResetCommission() {
	e.Commission = decimal.Zero
	e.UpdatedAt = time.Now()
}

// LinkCustomer links the employee to their customer identity
func (e *Employee) LinkCustomer(customerID uuid.UUID) {
	e.CustomerID = &customerID
	e.UpdatedAt = time.Now()
}

// Deactivate marks the employee inactive; inactive employees are skipped by
// the monthly close.
func (e *Employee) Deactivate() {
	e.Status = EmployeeStatusInactive
	e.UpdatedAt = time.Now()
	e.IncrementVersion()
}
