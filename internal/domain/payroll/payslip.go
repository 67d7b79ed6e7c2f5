package payroll

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gestor/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Advance records a salary advance handed to the employee during the month.
// Stored as JSONB within the Payslip aggregate.
type Advance struct {
	ID     uuid.UUID       `json:"id"`
	Date   time.Time       `json:"date"`
	Amount decimal.Decimal `json:"amount"`
	Notes  string          `json:"notes,omitempty"`
}

// Advances is a slice of Advance with GORM Scanner/Valuer for JSONB storage
type Advances []Advance

// Value implements driver.Valuer for JSONB storage
func (a Advances) Value() (driver.Value, error) {
	if a == nil {
		return "[]", nil
	}
	return json.Marshal(a)
}

// Scan implements sql.Scanner for JSONB retrieval
func (a *Advances) Scan(value interface{}) error {
	if value == nil {
		*a = Advances{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("failed to scan Advances: unsupported type")
	}

	if len(bytes) == 0 {
		*a = Advances{}
		return nil
	}

	return json.Unmarshal(bytes, a)
}

// Absence records a missed work day. Deduction, when set, is the explicit
// amount to deduct; otherwise the close falls back to the month-resolved
// base salary divided by 30.
type Absence struct {
	ID        uuid.UUID        `json:"id"`
	Date      time.Time        `json:"date"`
	Deduction *decimal.Decimal `json:"deduction,omitempty"`
	Justified bool             `json:"justified"`
	Notes     string           `json:"notes,omitempty"`
}

// Absences is a slice of Absence with GORM Scanner/Valuer for JSONB storage
type Absences []Absence

// Value implements driver.Valuer for JSONB storage
func (a Absences) Value() (driver.Value, error) {
	if a == nil {
		return "[]", nil
	}
	return json.Marshal(a)
}

// Scan implements sql.Scanner for JSONB retrieval
func (a *Absences) Scan(value interface{}) error {
	if value == nil {
		*a = Absences{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("failed to scan Absences: unsupported type")
	}

	if len(bytes) == 0 {
		*a = Absences{}
		return nil
	}

	return json.Unmarshal(bytes, a)
}

// Payslip is the monthly payroll record (holerite) for one employee.
// Exactly one exists per (tenant, employee, month, year). An open placeholder
// is created automatically when the previous month closes; it accumulates
// advances and absences during the month and is finalized by the monthly close.
type Payslip struct {
	shared.TenantAggregateRoot
	EmployeeID       uuid.UUID       `json:"employee_id"`
	EmployeeName     string          `json:"employee_name"`
	Month            int             `json:"month"`
	Year             int             `json:"year"`
	BaseSalary       decimal.Decimal `json:"base_salary"`
	Advances         Advances        `json:"advances"`
	Absences         Absences        `json:"absences"`
	TotalAdvances    decimal.Decimal `json:"total_advances"`
	TotalAbsences    decimal.Decimal `json:"total_absences"`
	TotalConsumption decimal.Decimal `json:"total_consumption"`
	TotalCommission  decimal.Decimal `json:"total_commission"`
	GrossSalary      decimal.Decimal `json:"gross_salary"`
	NetSalary        decimal.Decimal `json:"net_salary"`
	Closed           bool            `json:"closed"`
	ClosedAt         *time.Time      `json:"closed_at,omitempty"`
	ClosedBy         *uuid.UUID      `json:"closed_by,omitempty"`
	Observations     string          `json:"observations,omitempty"`
}

// NewOpenPayslip creates an open placeholder payslip for a period
func NewOpenPayslip(tenantID, employeeID uuid.UUID, employeeName string, period Period, baseSalary decimal.Decimal) (*Payslip, error) {
	if employeeID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_EMPLOYEE", "Employee ID cannot be empty")
	}
	if err := period.Validate(); err != nil {
		return nil, err
	}
	if baseSalary.IsNegative() {
		return nil, shared.NewDomainError("INVALID_SALARY", "Base salary cannot be negative")
	}

	p := &Payslip{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		EmployeeID:          employeeID,
		EmployeeName:        employeeName,
		Month:               period.Month,
		Year:                period.Year,
		BaseSalary:          baseSalary,
		Advances:            Advances{},
		Absences:            Absences{},
		TotalAdvances:       decimal.Zero,
		TotalAbsences:       decimal.Zero,
		TotalConsumption:    decimal.Zero,
		TotalCommission:     decimal.Zero,
		GrossSalary:         baseSalary,
		NetSalary:           baseSalary,
	}

	p.AddDomainEvent(NewPayslipOpenedEvent(p))

	return p, nil
}

// Period returns the payslip's period
func (p *Payslip) Period() Period {
	return Period{Month: p.Month, Year: p.Year}
}

// AddAdvance appends a salary advance. Rejected once the month is closed.
func (p *Payslip) AddAdvance(date time.Time, amount decimal.Decimal, notes string) (*Advance, error) {
	if p.Closed {
		return nil, shared.NewDomainError("MONTH_CLOSED", "Cannot add an advance to a closed payslip")
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Advance amount must be positive")
	}
	if date.IsZero() {
		date = time.Now()
	}

	adv := Advance{ID: uuid.New(), Date: date, Amount: amount, Notes: notes}
	p.Advances = append(p.Advances, adv)
	p.UpdatedAt = time.Now()
	p.IncrementVersion()

	return &adv, nil
}

// AddAbsence appends an absence. Rejected once the month is closed.
func (p *Payslip) AddAbsence(date time.Time, deduction *decimal.Decimal, justified bool, notes string) (*Absence, error) {
	if p.Closed {
		return nil, shared.NewDomainError("MONTH_CLOSED", "Cannot add an absence to a closed payslip")
	}
	if deduction != nil && deduction.IsNegative() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Absence deduction cannot be negative")
	}
	if date.IsZero() {
		date = time.Now()
	}

	abs := Absence{ID: uuid.New(), Date: date, Deduction: deduction, Justified: justified, Notes: notes}
	p.Absences = append(p.Absences, abs)
	p.UpdatedAt = time.Now()
	p.IncrementVersion()

	return &abs, nil
}

// PayslipTotals holds the aggregates computed by a close or a report preview
type PayslipTotals struct {
	BaseSalary       decimal.Decimal `json:"base_salary"`
	TotalAdvances    decimal.Decimal `json:"total_advances"`
	TotalAbsences    decimal.Decimal `json:"total_absences"`
	TotalConsumption decimal.Decimal `json:"total_consumption"`
	TotalCommission  decimal.Decimal `json:"total_commission"`
	GrossSalary      decimal.Decimal `json:"gross_salary"`
	NetSalary        decimal.Decimal `json:"net_salary"`
}

// ComputeTotals aggregates the month's deductions against the month-resolved
// base salary. Only advances and absences dated within the payslip's calendar
// month count; entries from other months are preserved untouched. The absence
// fallback deduction is baseSalary/30, using the month-specific base so salary
// changes between the absence date and the closing date cause no retroactive
// skew.
func (p *Payslip) ComputeTotals(baseSalary, commission, consumption decimal.Decimal) PayslipTotals {
	period := p.Period()

	totalAdvances := decimal.Zero
	for _, adv := range p.Advances {
		if period.Contains(adv.Date) {
			totalAdvances = totalAdvances.Add(adv.Amount)
		}
	}

	dailyRate := baseSalary.Div(decimal.NewFromInt(30)).Round(2)
	totalAbsences := decimal.Zero
	for _, abs := range p.Absences {
		if !period.Contains(abs.Date) || abs.Justified {
			continue
		}
		if abs.Deduction != nil {
			totalAbsences = totalAbsences.Add(*abs.Deduction)
		} else {
			totalAbsences = totalAbsences.Add(dailyRate)
		}
	}

	gross := baseSalary.Add(commission)
	net := gross.Sub(totalAdvances).Sub(totalAbsences).Sub(consumption)

	return PayslipTotals{
		BaseSalary:       baseSalary,
		TotalAdvances:    totalAdvances,
		TotalAbsences:    totalAbsences,
		TotalConsumption: consumption,
		TotalCommission:  commission,
		GrossSalary:      gross,
		NetSalary:        net,
	}
}

// Close finalizes the payslip with the computed aggregates. The closing
// timestamp is stamped at the end of the selected day. Entries dated outside
// the payslip's month are removed from this record and returned so the caller
// can carry them into the following period.
func (p *Payslip) Close(totals PayslipTotals, closedBy uuid.UUID, closingDate time.Time) (Advances, Absences, error) {
	if p.Closed {
		return nil, nil, shared.NewDomainError("MONTH_CLOSED", fmt.Sprintf("Payslip %s is already closed", p.Period()))
	}
	if closedBy == uuid.Nil {
		return nil, nil, shared.NewDomainError("INVALID_USER", "Closing user is required")
	}
	if closingDate.IsZero() {
		closingDate = time.Now()
	}

	period := p.Period()

	var keptAdvances, carryAdvances Advances
	for _, adv := range p.Advances {
		if period.Contains(adv.Date) {
			keptAdvances = append(keptAdvances, adv)
		} else {
			carryAdvances = append(carryAdvances, adv)
		}
	}

	var keptAbsences, carryAbsences Absences
	for _, abs := range p.Absences {
		if period.Contains(abs.Date) {
			keptAbsences = append(keptAbsences, abs)
		} else {
			carryAbsences = append(carryAbsences, abs)
		}
	}

	closedAt := EndOfDay(closingDate)

	p.Advances = keptAdvances
	p.Absences = keptAbsences
	p.BaseSalary = totals.BaseSalary
	p.TotalAdvances = totals.TotalAdvances
	p.TotalAbsences = totals.TotalAbsences
	p.TotalConsumption = totals.TotalConsumption
	p.TotalCommission = totals.TotalCommission
	p.GrossSalary = totals.GrossSalary
	p.NetSalary = totals.NetSalary
	p.Closed = true
	p.ClosedAt = &closedAt
	p.ClosedBy = &closedBy
	p.UpdatedAt = time.Now()
	p.IncrementVersion()

	p.AddDomainEvent(NewPayslipClosedEvent(p))

	return carryAdvances, carryAbsences, nil
}

// Reopen reverses a close, clearing the closed flag and closing metadata.
func (p *Payslip) Reopen() error {
	if !p.Closed {
		return shared.NewDomainError("MONTH_NOT_CLOSED", fmt.Sprintf("Payslip %s is not closed", p.Period()))
	}

	p.Closed = false
	p.ClosedAt = nil
	p.ClosedBy = nil
	p.UpdatedAt = time.Now()
	p.IncrementVersion()

	p.AddDomainEvent(NewPayslipReopenedEvent(p))

	return nil
}

// IsPristine reports whether the payslip is an untouched auto-opened
// placeholder: open, with no advances, no absences and no closing date.
// Pristine next-month placeholders are deleted when their creating close
// is undone.
func (p *Payslip) IsPristine() bool {
	return !p.Closed && p.ClosedAt == nil && len(p.Advances) == 0 && len(p.Absences) == 0
}

// CarryEntries appends entries carried over from another period's close
func (p *Payslip) CarryEntries(advances Advances, absences Absences) error {
	if p.Closed {
		return shared.NewDomainError("MONTH_CLOSED", "Cannot carry entries into a closed payslip")
	}
	p.Advances = append(p.Advances, advances...)
	p.Absences = append(p.Absences, absences...)
	if len(advances) > 0 || len(absences) > 0 {
		p.UpdatedAt = time.Now()
		p.IncrementVersion()
	}
	return nil
}

// SetObservations sets free-form notes on the payslip
func (p *Payslip) SetObservations(obs string) {
	p.Observations = obs
	p.UpdatedAt = time.Now()
}
