package payroll

import (
	"sort"
	"time"

	"github.com/gestor/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SalaryChange is one entry in the append-only salary history ledger.
// It records what an employee's base salary became and when the change
// took effect, so payroll closings stay retroactively correct.
type SalaryChange struct {
	shared.BaseEntity
	TenantID       uuid.UUID       `json:"tenant_id"`
	EmployeeID     uuid.UUID       `json:"employee_id"`
	PreviousSalary decimal.Decimal `json:"previous_salary"`
	NewSalary      decimal.Decimal `json:"new_salary"`
	Delta          decimal.Decimal `json:"delta"`
	Reason         string          `json:"reason,omitempty"`
	EffectiveDate  time.Time       `json:"effective_date"`
	RecordedBy     *uuid.UUID      `json:"recorded_by,omitempty"`
}

// NewSalaryChange creates a salary history entry
func NewSalaryChange(tenantID, employeeID uuid.UUID, previous, next decimal.Decimal, reason string, effectiveDate time.Time) (*SalaryChange, error) {
	if employeeID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_EMPLOYEE", "Employee ID cannot be empty")
	}
	if next.IsNegative() {
		return nil, shared.NewDomainError("INVALID_SALARY", "New salary cannot be negative")
	}
	if effectiveDate.IsZero() {
		effectiveDate = time.Now()
	}

	return &SalaryChange{
		BaseEntity:     shared.NewBaseEntity(),
		TenantID:       tenantID,
		EmployeeID:     employeeID,
		PreviousSalary: previous,
		NewSalary:      next,
		Delta:          next.Sub(previous),
		Reason:         reason,
		EffectiveDate:  effectiveDate,
	}, nil
}

// ResolveBaseSalary answers "what was the base salary as of the end of the
// given period". It picks the latest history entry whose effective date is
// not after the period end; when no entry qualifies the employee's current
// salary is used.
func ResolveBaseSalary(history []SalaryChange, period Period, currentSalary decimal.Decimal) decimal.Decimal {
	cutoff := period.End()

	sorted := make([]SalaryChange, len(history))
	copy(sorted, history)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].EffectiveDate.Before(sorted[j].EffectiveDate)
	})

	resolved := decimal.Decimal{}
	found := false
	for _, change := range sorted {
		if change.EffectiveDate.After(cutoff) {
			break
		}
		resolved = change.NewSalary
		found = true
	}

	if !found {
		return currentSalary
	}
	return resolved
}
