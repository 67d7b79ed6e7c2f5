package finance

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gestor/backend/internal/domain/shared"
	"github.com/gestor/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ReceivableStatus represents the settlement status of a receivable
type ReceivableStatus string

const (
	ReceivableStatusPending ReceivableStatus = "PENDING" // No payment applied yet
	ReceivableStatusPartial ReceivableStatus = "PARTIAL" // Partially paid, 0 < pending < total
	ReceivableStatusSettled ReceivableStatus = "SETTLED" // Fully paid, pending = 0
)

// IsValid checks if the status is a valid ReceivableStatus
func (s ReceivableStatus) IsValid() bool {
	switch s {
	case ReceivableStatusPending, ReceivableStatusPartial, ReceivableStatusSettled:
		return true
	}
	return false
}

// String returns the string representation of ReceivableStatus
func (s ReceivableStatus) String() string {
	return string(s)
}

// CanApplyPayment returns true if payments can be applied in this status
func (s ReceivableStatus) CanApplyPayment() bool {
	return s == ReceivableStatusPending || s == ReceivableStatusPartial
}

// OriginKind identifies the type of document that originated the receivable
type OriginKind string

const (
	OriginKindProductSale  OriginKind = "PRODUCT_SALE"
	OriginKindServiceOrder OriginKind = "SERVICE_ORDER"
	OriginKindWrapJob      OriginKind = "WRAP_JOB"
	OriginKindManual       OriginKind = "MANUAL" // Free-standing receivable
)

// IsValid checks if the origin kind is valid
func (k OriginKind) IsValid() bool {
	switch k {
	case OriginKindProductSale, OriginKindServiceOrder, OriginKindWrapJob, OriginKindManual:
		return true
	}
	return false
}

// PaymentMethod identifies how a payment was made
type PaymentMethod string

const (
	PaymentMethodCash        PaymentMethod = "CASH"
	PaymentMethodPix         PaymentMethod = "PIX"
	PaymentMethodDebitCard   PaymentMethod = "DEBIT_CARD"
	PaymentMethodCreditCard  PaymentMethod = "CREDIT_CARD"
	PaymentMethodTransfer    PaymentMethod = "TRANSFER"
	PaymentMethodStoreCredit PaymentMethod = "STORE_CREDIT" // Deferred: settled later via receivable or payroll
)

// IsValid checks if the payment method is valid
func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodPix, PaymentMethodDebitCard,
		PaymentMethodCreditCard, PaymentMethodTransfer, PaymentMethodStoreCredit:
		return true
	}
	return false
}

// IsDeferred returns true for methods that do not move cash at registration
// time. Deferred payments stay on the receivable/payroll side and never emit
// a cash-ledger entry.
func (m PaymentMethod) IsDeferred() bool {
	return m == PaymentMethodStoreCredit
}

// PaymentEntry records a single payment applied to the receivable.
// It is a value object within the Receivable aggregate, stored as JSONB.
type PaymentEntry struct {
	ID      uuid.UUID       `json:"id"`
	Date    time.Time       `json:"date"`
	Amount  decimal.Decimal `json:"amount"`
	Method  PaymentMethod   `json:"method"`
	Notes   string          `json:"notes,omitempty"`
	Clamped bool            `json:"clamped,omitempty"` // Amount was reduced to the pending balance
}

// PaymentEntries is a slice of PaymentEntry with GORM Scanner/Valuer for JSONB storage
type PaymentEntries []PaymentEntry

// Value implements driver.Valuer for JSONB storage
func (p PaymentEntries) Value() (driver.Value, error) {
	if p == nil {
		return "[]", nil
	}
	return json.Marshal(p)
}

// Scan implements sql.Scanner for JSONB retrieval
func (p *PaymentEntries) Scan(value interface{}) error {
	if value == nil {
		*p = PaymentEntries{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("failed to scan PaymentEntries: unsupported type")
	}

	if len(bytes) == 0 {
		*p = PaymentEntries{}
		return nil
	}

	return json.Unmarshal(bytes, p)
}

// Sum returns the total of all payment entries
func (p PaymentEntries) Sum() decimal.Decimal {
	total := decimal.Zero
	for _, e := range p {
		total = total.Add(e.Amount)
	}
	return total
}

// InterestType determines how the interest delta is computed
type InterestType string

const (
	InterestTypePercent InterestType = "PERCENT" // Rate is a percentage of the pending balance
	InterestTypeFixed   InterestType = "FIXED"   // Rate is a fixed amount per application
)

// IsValid checks if the interest type is valid
func (t InterestType) IsValid() bool {
	return t == InterestTypePercent || t == InterestTypeFixed
}

// InterestFrequency determines the accrual cadence
type InterestFrequency string

const (
	InterestFrequencyOnce    InterestFrequency = "ONCE"
	InterestFrequencyDaily   InterestFrequency = "DAILY"
	InterestFrequencyWeekly  InterestFrequency = "WEEKLY"
	InterestFrequencyMonthly InterestFrequency = "MONTHLY"
)

// IsValid checks if the interest frequency is valid
func (f InterestFrequency) IsValid() bool {
	switch f {
	case InterestFrequencyOnce, InterestFrequencyDaily, InterestFrequencyWeekly, InterestFrequencyMonthly:
		return true
	}
	return false
}

// InterestConfig holds the accrual schedule for a receivable
type InterestConfig struct {
	Type          InterestType      `json:"type"`
	Rate          decimal.Decimal   `json:"rate"`
	StartDate     time.Time         `json:"start_date"`
	Frequency     InterestFrequency `json:"frequency"`
	LastAppliedAt *time.Time        `json:"last_applied_at,omitempty"`
	Applications  int               `json:"applications"`
}

// Validate checks the interest configuration
func (c InterestConfig) Validate() error {
	if !c.Type.IsValid() {
		return shared.NewDomainError("INVALID_INTEREST_TYPE", "Interest type is not valid")
	}
	if !c.Frequency.IsValid() {
		return shared.NewDomainError("INVALID_INTEREST_FREQUENCY", "Interest frequency is not valid")
	}
	if c.Rate.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_INTEREST_RATE", "Interest rate must be positive")
	}
	if c.StartDate.IsZero() {
		return shared.NewDomainError("INVALID_INTEREST_START", "Interest start date is required")
	}
	return nil
}

// InterestApplication records one accrual applied to the receivable
type InterestApplication struct {
	ID           uuid.UUID       `json:"id"`
	AppliedAt    time.Time       `json:"applied_at"`
	Amount       decimal.Decimal `json:"amount"`
	PendingAfter decimal.Decimal `json:"pending_after"`
}

// InterestApplications is stored as JSONB on the aggregate
type InterestApplications []InterestApplication

// Value implements driver.Valuer for JSONB storage
func (a InterestApplications) Value() (driver.Value, error) {
	if a == nil {
		return "[]", nil
	}
	return json.Marshal(a)
}

// Scan implements sql.Scanner for JSONB retrieval
func (a *InterestApplications) Scan(value interface{}) error {
	if value == nil {
		*a = InterestApplications{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("failed to scan InterestApplications: unsupported type")
	}

	if len(bytes) == 0 {
		*a = InterestApplications{}
		return nil
	}

	return json.Unmarshal(bytes, a)
}

// Receivable represents money owed to the business by a debtor.
// It tracks the full lifecycle: creation, partial payments, interest accrual,
// installment splitting and proportional adjustment when the originating
// document total changes.
type Receivable struct {
	shared.TenantAggregateRoot
	ReceivableNumber string           `json:"receivable_number"`
	DebtorID         uuid.UUID        `json:"debtor_id"`
	DebtorName       string           `json:"debtor_name"`
	OriginKind       OriginKind       `json:"origin_kind"`
	OriginID         uuid.UUID        `json:"origin_id"`     // uuid.Nil for MANUAL
	OriginNumber     string           `json:"origin_number"` // Document number of the origin, if any
	OriginalAmount   decimal.Decimal  `json:"original_amount"`
	AccruedInterest  decimal.Decimal  `json:"accrued_interest"`
	PaidAmount       decimal.Decimal  `json:"paid_amount"`
	PendingAmount    decimal.Decimal  `json:"pending_amount"`
	IssueDate        time.Time        `json:"issue_date"`
	DueDate          *time.Time       `json:"due_date,omitempty"`
	SettledAt        *time.Time       `json:"settled_at,omitempty"`
	Status           ReceivableStatus `json:"status"`
	Interest         *InterestConfig  `json:"interest,omitempty"`
	InterestHistory  InterestApplications `json:"interest_history"`
	Payments         PaymentEntries   `json:"payments"`
	ParentID         *uuid.UUID       `json:"parent_id,omitempty"` // Set when this is an installment child
	InstallmentSeq   int              `json:"installment_seq"`     // 1-based position within the plan
	InstallmentCount int              `json:"installment_count"`   // Total children in the plan
	Notes            string           `json:"notes,omitempty"`
}

// NewReceivable creates a new receivable
func NewReceivable(
	tenantID uuid.UUID,
	receivableNumber string,
	debtorID uuid.UUID,
	debtorName string,
	originKind OriginKind,
	originID uuid.UUID,
	originNumber string,
	amount valueobject.Money,
	issueDate time.Time,
	dueDate *time.Time,
) (*Receivable, error) {
	if receivableNumber == "" {
		return nil, shared.NewDomainError("INVALID_RECEIVABLE_NUMBER", "Receivable number cannot be empty")
	}
	if debtorID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_DEBTOR", "Debtor ID cannot be empty")
	}
	if debtorName == "" {
		return nil, shared.NewDomainError("INVALID_DEBTOR_NAME", "Debtor name cannot be empty")
	}
	if !originKind.IsValid() {
		return nil, shared.NewDomainError("INVALID_ORIGIN_KIND", "Origin kind is not valid")
	}
	if originKind != OriginKindManual && originID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_ORIGIN_ID", "Origin ID is required for non-manual receivables")
	}
	if amount.Amount().LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Receivable amount must be positive")
	}
	if issueDate.IsZero() {
		issueDate = time.Now()
	}

	r := &Receivable{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		ReceivableNumber:    receivableNumber,
		DebtorID:            debtorID,
		DebtorName:          debtorName,
		OriginKind:          originKind,
		OriginID:            originID,
		OriginNumber:        originNumber,
		OriginalAmount:      amount.Amount(),
		AccruedInterest:     decimal.Zero,
		PaidAmount:          decimal.Zero,
		PendingAmount:       amount.Amount(),
		IssueDate:           issueDate,
		DueDate:             dueDate,
		Status:              ReceivableStatusPending,
		InterestHistory:     InterestApplications{},
		Payments:            PaymentEntries{},
	}

	r.AddDomainEvent(NewReceivableCreatedEvent(r))

	return r, nil
}

// TotalDue returns the original amount plus accrued interest
func (r *Receivable) TotalDue() decimal.Decimal {
	return r.OriginalAmount.Add(r.AccruedInterest)
}

// IsSettled returns true if the receivable is fully paid
func (r *Receivable) IsSettled() bool {
	return r.Status == ReceivableStatusSettled
}

// IsInstallment returns true if this receivable is a child of a split plan
func (r *Receivable) IsInstallment() bool {
	return r.ParentID != nil
}

// IsSplitParent returns true if this receivable delegated its balance to
// installment children. Its pending stays zero; the children carry the debt.
func (r *Receivable) IsSplitParent() bool {
	return r.InstallmentCount > 0 && r.ParentID == nil
}

// RegisterPayment applies a payment to the receivable. A payment exceeding
// the pending balance is clamped to it rather than rejected, to tolerate
// rounding drift from callers; the returned flag reports the clamp so the
// caller can surface a warning.
func (r *Receivable) RegisterPayment(amount valueobject.Money, method PaymentMethod, date time.Time, notes string) (*PaymentEntry, error) {
	if !r.Status.CanApplyPayment() {
		return nil, shared.NewDomainError("RECEIVABLE_SETTLED", fmt.Sprintf("Cannot apply payment to receivable in %s status", r.Status))
	}
	if amount.Amount().LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Payment amount must be positive")
	}
	if !method.IsValid() {
		return nil, shared.NewDomainError("INVALID_PAYMENT_METHOD", "Payment method is not valid")
	}
	if date.IsZero() {
		date = time.Now()
	}

	applied := amount.Amount()
	clamped := false
	if applied.GreaterThan(r.PendingAmount) {
		applied = r.PendingAmount
		clamped = true
	}

	entry := PaymentEntry{
		ID:      uuid.New(),
		Date:    date,
		Amount:  applied,
		Method:  method,
		Notes:   notes,
		Clamped: clamped,
	}
	r.Payments = append(r.Payments, entry)

	r.PaidAmount = r.PaidAmount.Add(applied)
	r.PendingAmount = r.TotalDue().Sub(r.PaidAmount)

	if r.PendingAmount.LessThanOrEqual(decimal.Zero) {
		r.PendingAmount = decimal.Zero
		now := time.Now()
		r.Status = ReceivableStatusSettled
		r.SettledAt = &now
		r.AddDomainEvent(NewReceivableSettledEvent(r))
	} else {
		r.Status = ReceivableStatusPartial
		r.AddDomainEvent(NewReceivablePaymentRegisteredEvent(r, &entry))
	}

	r.UpdatedAt = time.Now()
	r.IncrementVersion()

	return &entry, nil
}

// ConfigureInterest sets the interest schedule. Rejected on settled receivables.
func (r *Receivable) ConfigureInterest(cfg InterestConfig) error {
	if r.IsSettled() {
		return shared.NewDomainError("RECEIVABLE_SETTLED", "Cannot configure interest on a settled receivable")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	cfg.LastAppliedAt = nil
	cfg.Applications = 0
	r.Interest = &cfg
	r.UpdatedAt = time.Now()
	r.IncrementVersion()

	return nil
}

// ShouldApplyInterest reports whether an accrual is due at the given moment:
// interest must be configured, the receivable must not be settled, the start
// date must have been reached and the frequency cadence respected since the
// last application.
func (r *Receivable) ShouldApplyInterest(now time.Time) bool {
	if r.Interest == nil || r.IsSettled() {
		return false
	}
	cfg := r.Interest
	if now.Before(truncateToDay(cfg.StartDate)) {
		return false
	}
	if cfg.LastAppliedAt == nil {
		return true
	}

	last := truncateToDay(*cfg.LastAppliedAt)
	today := truncateToDay(now)

	switch cfg.Frequency {
	case InterestFrequencyOnce:
		return cfg.Applications == 0
	case InterestFrequencyDaily:
		return today.After(last)
	case InterestFrequencyWeekly:
		return !today.Before(last.AddDate(0, 0, 7))
	case InterestFrequencyMonthly:
		return !today.Before(last.AddDate(0, 1, 0))
	}
	return false
}

// ApplyInterest accrues one interest application and returns the delta added
// to the pending balance. Interest never decreases pending.
func (r *Receivable) ApplyInterest(now time.Time) (decimal.Decimal, error) {
	if r.IsSettled() {
		return decimal.Zero, shared.NewDomainError("RECEIVABLE_SETTLED", "Cannot apply interest to a settled receivable")
	}
	if r.Interest == nil {
		return decimal.Zero, shared.NewDomainError("NO_INTEREST_CONFIG", "Receivable has no interest configuration")
	}
	if !r.ShouldApplyInterest(now) {
		return decimal.Zero, shared.NewDomainError("INTEREST_NOT_DUE", "Interest accrual is not due for this receivable")
	}

	var delta decimal.Decimal
	switch r.Interest.Type {
	case InterestTypePercent:
		delta = r.PendingAmount.Mul(r.Interest.Rate).Div(decimal.NewFromInt(100)).Round(2)
	case InterestTypeFixed:
		delta = r.Interest.Rate
	default:
		return decimal.Zero, shared.NewDomainError("INVALID_INTEREST_TYPE", "Interest type is not valid")
	}

	r.AccruedInterest = r.AccruedInterest.Add(delta)
	r.PendingAmount = r.PendingAmount.Add(delta)
	r.Interest.LastAppliedAt = &now
	r.Interest.Applications++
	r.InterestHistory = append(r.InterestHistory, InterestApplication{
		ID:           uuid.New(),
		AppliedAt:    now,
		Amount:       delta,
		PendingAfter: r.PendingAmount,
	})

	r.AddDomainEvent(NewReceivableInterestAppliedEvent(r, delta))
	r.UpdatedAt = time.Now()
	r.IncrementVersion()

	return delta, nil
}

// SplitIntoInstallments divides the current pending balance across count
// children spaced intervalDays apart starting at firstDue. Children conserve
// the parent's pending exactly; the parent balance is fully delegated and
// zeroed once the split succeeds.
func (r *Receivable) SplitIntoInstallments(count, intervalDays int, firstDue time.Time, numberFor func(seq int) string) ([]*Receivable, error) {
	if count < 2 {
		return nil, shared.NewDomainError("INVALID_INSTALLMENT_COUNT", "Installment count must be at least 2")
	}
	if intervalDays < 1 {
		return nil, shared.NewDomainError("INVALID_INSTALLMENT_INTERVAL", "Installment interval must be at least 1 day")
	}
	if r.IsSettled() || r.PendingAmount.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("RECEIVABLE_SETTLED", "Cannot split a receivable with no pending balance")
	}
	if r.IsInstallment() {
		return nil, shared.NewDomainError("ALREADY_INSTALLMENT", "Cannot split an installment receivable")
	}

	parts, err := valueobject.NewMoneyBRL(r.PendingAmount).Allocate(count)
	if err != nil {
		return nil, err
	}

	children := make([]*Receivable, 0, count)
	parentID := r.ID
	for i, part := range parts {
		due := firstDue.AddDate(0, 0, i*intervalDays)
		child, err := NewReceivable(
			r.TenantID,
			numberFor(i+1),
			r.DebtorID,
			r.DebtorName,
			r.OriginKind,
			r.OriginID,
			r.OriginNumber,
			part,
			time.Now(),
			&due,
		)
		if err != nil {
			return nil, err
		}
		child.ParentID = &parentID
		child.InstallmentSeq = i + 1
		child.InstallmentCount = count
		children = append(children, child)
	}

	now := time.Now()
	r.PendingAmount = decimal.Zero
	r.Status = ReceivableStatusSettled
	r.SettledAt = &now
	r.InstallmentCount = count
	r.UpdatedAt = now
	r.IncrementVersion()

	r.AddDomainEvent(NewReceivableSplitEvent(r, children))

	return children, nil
}

// ApplyOriginTotalChange recomputes the receivable proportionally after the
// originating document's total was edited: new original = old original ×
// (newTotal / oldTotal); pending = max(0, new original − already paid).
// The issue date is refreshed so downstream reports reflect the edit.
func (r *Receivable) ApplyOriginTotalChange(oldTotal, newTotal decimal.Decimal) error {
	if oldTotal.LessThanOrEqual(decimal.Zero) || newTotal.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_AMOUNT", "Origin totals must be positive")
	}

	ratio := newTotal.Div(oldTotal)
	r.OriginalAmount = r.OriginalAmount.Mul(ratio).Round(2)

	pending := r.OriginalAmount.Add(r.AccruedInterest).Sub(r.PaidAmount)
	if pending.LessThan(decimal.Zero) {
		pending = decimal.Zero
	}
	r.PendingAmount = pending

	now := time.Now()
	switch {
	case r.PendingAmount.IsZero():
		r.Status = ReceivableStatusSettled
		if r.SettledAt == nil {
			r.SettledAt = &now
		}
	case r.PaidAmount.GreaterThan(decimal.Zero):
		r.Status = ReceivableStatusPartial
		r.SettledAt = nil
	default:
		r.Status = ReceivableStatusPending
		r.SettledAt = nil
	}

	r.IssueDate = now
	r.UpdatedAt = now
	r.IncrementVersion()

	r.AddDomainEvent(NewReceivableAdjustedEvent(r, ratio))

	return nil
}

// IsOverdue returns true if the receivable is past due and not settled
func (r *Receivable) IsOverdue() bool {
	if r.IsSettled() || r.DueDate == nil {
		return false
	}
	return time.Now().After(*r.DueDate)
}

// PaymentCount returns the number of payments applied
func (r *Receivable) PaymentCount() int {
	return len(r.Payments)
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
