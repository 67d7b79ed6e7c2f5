package finance

import (
	"time"

	"github.com/gestor/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ReceivableCreatedEvent is raised when a new receivable is created
type ReceivableCreatedEvent struct {
	shared.BaseDomainEvent
	ReceivableID     uuid.UUID       `json:"receivable_id"`
	ReceivableNumber string          `json:"receivable_number"`
	DebtorID         uuid.UUID       `json:"debtor_id"`
	DebtorName       string          `json:"debtor_name"`
	OriginKind       OriginKind      `json:"origin_kind"`
	OriginID         uuid.UUID       `json:"origin_id"`
	OriginalAmount   decimal.Decimal `json:"original_amount"`
	DueDate          *time.Time      `json:"due_date,omitempty"`
}

// EventType returns the event type name
func (e *ReceivableCreatedEvent) EventType() string {
	return "ReceivableCreated"
}

// NewReceivableCreatedEvent creates a new ReceivableCreatedEvent
func NewReceivableCreatedEvent(r *Receivable) *ReceivableCreatedEvent {
	return &ReceivableCreatedEvent{
		BaseDomainEvent:  shared.NewBaseDomainEvent("ReceivableCreated", "Receivable", r.ID, r.TenantID),
		ReceivableID:     r.ID,
		ReceivableNumber: r.ReceivableNumber,
		DebtorID:         r.DebtorID,
		DebtorName:       r.DebtorName,
		OriginKind:       r.OriginKind,
		OriginID:         r.OriginID,
		OriginalAmount:   r.OriginalAmount,
		DueDate:          r.DueDate,
	}
}

// ReceivablePaymentRegisteredEvent is raised when a partial payment is applied
type ReceivablePaymentRegisteredEvent struct {
	shared.BaseDomainEvent
	ReceivableID     uuid.UUID       `json:"receivable_id"`
	ReceivableNumber string          `json:"receivable_number"`
	PaymentID        uuid.UUID       `json:"payment_id"`
	PaymentAmount    decimal.Decimal `json:"payment_amount"`
	PaymentMethod    PaymentMethod   `json:"payment_method"`
	PaidAmount       decimal.Decimal `json:"paid_amount"`
	PendingAmount    decimal.Decimal `json:"pending_amount"`
}

// EventType returns the event type name
func (e *ReceivablePaymentRegisteredEvent) EventType() string {
	return "ReceivablePaymentRegistered"
}

// NewReceivablePaymentRegisteredEvent creates a new ReceivablePaymentRegisteredEvent
func NewReceivablePaymentRegisteredEvent(r *Receivable, entry *PaymentEntry) *ReceivablePaymentRegisteredEvent {
	return &ReceivablePaymentRegisteredEvent{
		BaseDomainEvent:  shared.NewBaseDomainEvent("ReceivablePaymentRegistered", "Receivable", r.ID, r.TenantID),
		ReceivableID:     r.ID,
		ReceivableNumber: r.ReceivableNumber,
		PaymentID:        entry.ID,
		PaymentAmount:    entry.Amount,
		PaymentMethod:    entry.Method,
		PaidAmount:       r.PaidAmount,
		PendingAmount:    r.PendingAmount,
	}
}

// ReceivableSettledEvent is raised when a receivable is fully paid
type ReceivableSettledEvent struct {
	shared.BaseDomainEvent
	ReceivableID     uuid.UUID       `json:"receivable_id"`
	ReceivableNumber string          `json:"receivable_number"`
	DebtorID         uuid.UUID       `json:"debtor_id"`
	TotalPaid        decimal.Decimal `json:"total_paid"`
	SettledAt        time.Time       `json:"settled_at"`
}

// EventType returns the event type name
func (e *ReceivableSettledEvent) EventType() string {
	return "ReceivableSettled"
}

// NewReceivableSettledEvent creates a new ReceivableSettledEvent
func NewReceivableSettledEvent(r *Receivable) *ReceivableSettledEvent {
	settledAt := time.Now()
	if r.SettledAt != nil {
		settledAt = *r.SettledAt
	}
	return &ReceivableSettledEvent{
		BaseDomainEvent:  shared.NewBaseDomainEvent("ReceivableSettled", "Receivable", r.ID, r.TenantID),
		ReceivableID:     r.ID,
		ReceivableNumber: r.ReceivableNumber,
		DebtorID:         r.DebtorID,
		TotalPaid:        r.PaidAmount,
		SettledAt:        settledAt,
	}
}

// ReceivableInterestAppliedEvent is raised when an interest accrual is applied
type ReceivableInterestAppliedEvent struct {
	shared.BaseDomainEvent
	ReceivableID  uuid.UUID       `json:"receivable_id"`
	Delta         decimal.Decimal `json:"delta"`
	PendingAmount decimal.Decimal `json:"pending_amount"`
	Applications  int             `json:"applications"`
}

// EventType returns the event type name
func (e *ReceivableInterestAppliedEvent) EventType() string {
	return "ReceivableInterestApplied"
}

// NewReceivableInterestAppliedEvent creates a new ReceivableInterestAppliedEvent
func NewReceivableInterestAppliedEvent(r *Receivable, delta decimal.Decimal) *ReceivableInterestAppliedEvent {
	applications := 0
	if r.Interest != nil {
		applications = r.Interest.Applications
	}
	return &ReceivableInterestAppliedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("ReceivableInterestApplied", "Receivable", r.ID, r.TenantID),
		ReceivableID:    r.ID,
		Delta:           delta,
		PendingAmount:   r.PendingAmount,
		Applications:    applications,
	}
}

// ReceivableSplitEvent is raised when a receivable is split into installments
type ReceivableSplitEvent struct {
	shared.BaseDomainEvent
	ReceivableID     uuid.UUID   `json:"receivable_id"`
	InstallmentCount int         `json:"installment_count"`
	ChildIDs         []uuid.UUID `json:"child_ids"`
}

// EventType returns the event type name
func (e *ReceivableSplitEvent) EventType() string {
	return "ReceivableSplit"
}

// NewReceivableSplitEvent creates a new ReceivableSplitEvent
func NewReceivableSplitEvent(r *Receivable, children []*Receivable) *ReceivableSplitEvent {
	ids := make([]uuid.UUID, len(children))
	for i, c := range children {
		ids[i] = c.ID
	}
	return &ReceivableSplitEvent{
		BaseDomainEvent:  shared.NewBaseDomainEvent("ReceivableSplit", "Receivable", r.ID, r.TenantID),
		ReceivableID:     r.ID,
		InstallmentCount: len(children),
		ChildIDs:         ids,
	}
}

// ReceivableAdjustedEvent is raised when the origin total change is propagated
type ReceivableAdjustedEvent struct {
	shared.BaseDomainEvent
	ReceivableID   uuid.UUID       `json:"receivable_id"`
	Ratio          decimal.Decimal `json:"ratio"`
	OriginalAmount decimal.Decimal `json:"original_amount"`
	PendingAmount  decimal.Decimal `json:"pending_amount"`
}

// EventType returns the event type name
func (e *ReceivableAdjustedEvent) EventType() string {
	return "ReceivableAdjusted"
}

// NewReceivableAdjustedEvent creates a new ReceivableAdjustedEvent
func NewReceivableAdjustedEvent(r *Receivable, ratio decimal.Decimal) *ReceivableAdjustedEvent {
	return &ReceivableAdjustedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("ReceivableAdjusted", "Receivable", r.ID, r.TenantID),
		ReceivableID:    r.ID,
		Ratio:           ratio,
		OriginalAmount:  r.OriginalAmount,
		PendingAmount:   r.PendingAmount,
	}
}
