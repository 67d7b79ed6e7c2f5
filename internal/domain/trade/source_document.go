package trade

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/gestor/backend/internal/domain/shared"
	"github.com/gestor/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DocumentKind identifies the type of business transaction
type DocumentKind string

const (
	DocumentKindProductSale  DocumentKind = "PRODUCT_SALE"
	DocumentKindServiceOrder DocumentKind = "SERVICE_ORDER"
	DocumentKindWrapJob      DocumentKind = "WRAP_JOB" // Envelopment/wrapping job
)

// IsValid checks if the document kind is valid
func (k DocumentKind) IsValid() bool {
	switch k {
	case DocumentKindProductSale, DocumentKindServiceOrder, DocumentKindWrapJob:
		return true
	}
	return false
}

// NumberPrefix returns the sequential-number prefix for the kind
func (k DocumentKind) NumberPrefix() string {
	switch k {
	case DocumentKindProductSale:
		return "VD"
	case DocumentKindServiceOrder:
		return "OS"
	case DocumentKindWrapJob:
		return "EV"
	}
	return "DC"
}

// DocumentStatus represents the lifecycle status of a document
type DocumentStatus string

const (
	DocumentStatusOpen      DocumentStatus = "OPEN"
	DocumentStatusCompleted DocumentStatus = "COMPLETED"
	DocumentStatusCancelled DocumentStatus = "CANCELLED"
)

// IsValid checks if the status is valid
func (s DocumentStatus) IsValid() bool {
	switch s {
	case DocumentStatusOpen, DocumentStatusCompleted, DocumentStatusCancelled:
		return true
	}
	return false
}

// DocumentPayment records one payment line on a source document.
// CREDIT lines are deferred: they become receivables (or payroll internal
// consumption when the customer is an employee) instead of cash.
type DocumentPayment struct {
	ID     uuid.UUID       `json:"id"`
	Method string          `json:"method"` // CASH, PIX, DEBIT_CARD, CREDIT_CARD, TRANSFER, CREDIT
	Amount decimal.Decimal `json:"amount"`
	Date   time.Time       `json:"date"`
}

// PaymentMethodCredit is the deferred (store-credit) payment method on documents
const PaymentMethodCredit = "CREDIT"

// DocumentPayments is a slice of DocumentPayment with GORM Scanner/Valuer for JSONB storage
type DocumentPayments []DocumentPayment

// Value implements driver.Valuer for JSONB storage
func (p DocumentPayments) Value() (driver.Value, error) {
	if p == nil {
		return "[]", nil
	}
	return json.Marshal(p)
}

// Scan implements sql.Scanner for JSONB retrieval
func (p *DocumentPayments) Scan(value interface{}) error {
	if value == nil {
		*p = DocumentPayments{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("failed to scan DocumentPayments: unsupported type")
	}

	if len(bytes) == 0 {
		*p = DocumentPayments{}
		return nil
	}

	return json.Unmarshal(bytes, p)
}

// CreditSum returns the total of CREDIT (deferred) payment lines
func (p DocumentPayments) CreditSum() decimal.Decimal {
	total := decimal.Zero
	for _, line := range p {
		if line.Method == PaymentMethodCredit {
			total = total.Add(line.Amount)
		}
	}
	return total
}

// SourceDocument is an originating business transaction: a product sale, a
// service order or a wrap job. Completing one with a deferred payment line
// creates a receivable; editing its total after the fact propagates
// proportionally to every linked receivable.
type SourceDocument struct {
	shared.TenantAggregateRoot
	DocumentNumber string           `json:"document_number"`
	Kind           DocumentKind     `json:"kind"`
	CustomerID     uuid.UUID        `json:"customer_id"`
	CustomerName   string           `json:"customer_name"`
	SellerID       *uuid.UUID       `json:"seller_id,omitempty"` // Employee who sold/created the document
	Total          decimal.Decimal  `json:"total"`
	Payments       DocumentPayments `json:"payments"`
	Status         DocumentStatus   `json:"status"`
	IssuedAt       time.Time        `json:"issued_at"`
	CompletedAt    *time.Time       `json:"completed_at,omitempty"`
	Description    string           `json:"description,omitempty"`
}

// NewSourceDocument creates a new source document
func NewSourceDocument(
	tenantID uuid.UUID,
	documentNumber string,
	kind DocumentKind,
	customerID uuid.UUID,
	customerName string,
	total valueobject.Money,
) (*SourceDocument, error) {
	if documentNumber == "" {
		return nil, shared.NewDomainError("INVALID_DOCUMENT_NUMBER", "Document number cannot be empty")
	}
	if !kind.IsValid() {
		return nil, shared.NewDomainError("INVALID_DOCUMENT_KIND", "Document kind is not valid")
	}
	if customerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CUSTOMER", "Customer ID cannot be empty")
	}
	if total.Amount().LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Document total must be positive")
	}

	return &SourceDocument{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		DocumentNumber:      documentNumber,
		Kind:                kind,
		CustomerID:          customerID,
		CustomerName:        customerName,
		Total:               total.Amount(),
		Payments:            DocumentPayments{},
		Status:              DocumentStatusOpen,
		IssuedAt:            time.Now(),
	}, nil
}

// SetSeller records the employee who sold/created the document
func (d *SourceDocument) SetSeller(sellerID uuid.UUID) {
	d.SellerID = &sellerID
	d.UpdatedAt = time.Now()
}

// AddPayment appends a payment line
func (d *SourceDocument) AddPayment(method string, amount decimal.Decimal, date time.Time) (*DocumentPayment, error) {
	if d.Status == DocumentStatusCancelled {
		return nil, shared.NewDomainError("INVALID_STATE", "Cannot add payment to a cancelled document")
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Payment amount must be positive")
	}
	if date.IsZero() {
		date = time.Now()
	}

	line := DocumentPayment{ID: uuid.New(), Method: method, Amount: amount, Date: date}
	d.Payments = append(d.Payments, line)
	d.UpdatedAt = time.Now()
	d.IncrementVersion()

	return &line, nil
}

// Complete marks the document completed
func (d *SourceDocument) Complete() error {
	if d.Status != DocumentStatusOpen {
		return shared.NewDomainError("INVALID_STATE", "Only open documents can be completed")
	}
	now := time.Now()
	d.Status = DocumentStatusCompleted
	d.CompletedAt = &now
	d.UpdatedAt = now
	d.IncrementVersion()
	return nil
}

// UpdateTotal edits the document total after the fact, returning the previous
// total so the caller can propagate the change proportionally to linked
// receivables in the same transaction.
func (d *SourceDocument) UpdateTotal(newTotal valueobject.Money) (decimal.Decimal, error) {
	if d.Status == DocumentStatusCancelled {
		return decimal.Zero, shared.NewDomainError("INVALID_STATE", "Cannot edit a cancelled document")
	}
	if newTotal.Amount().LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, shared.NewDomainError("INVALID_AMOUNT", "Document total must be positive")
	}

	previous := d.Total
	d.Total = newTotal.Amount()
	d.UpdatedAt = time.Now()
	d.IncrementVersion()

	return previous, nil
}

// CreditConsumption returns the document's deferred-credit total for payroll
// internal-consumption settlement. Credit exceeding 110% of the document
// total is treated as corrupt data and yields zero.
func (d *SourceDocument) CreditConsumption() decimal.Decimal {
	credit := d.Payments.CreditSum()
	ceiling := d.Total.Mul(decimal.NewFromFloat(1.1))
	if credit.GreaterThan(ceiling) {
		return decimal.Zero
	}
	return credit
}

// SoldBy reports whether the given employee is the document's seller
func (d *SourceDocument) SoldBy(employeeID uuid.UUID) bool {
	return d.SellerID != nil && *d.SellerID == employeeID
}
