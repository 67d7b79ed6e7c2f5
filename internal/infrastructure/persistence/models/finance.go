package models

import (
	"time"

	"github.com/gestor/backend/internal/domain/finance"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ReceivableModel is the persistence model for the Receivable aggregate root.
type ReceivableModel struct {
	TenantAggregateModel
	ReceivableNumber string                       `gorm:"type:varchar(50);not null;uniqueIndex:idx_receivable_tenant_number,priority:2"`
	DebtorID         uuid.UUID                    `gorm:"type:uuid;not null;index"`
	DebtorName       string                       `gorm:"type:varchar(200);not null"`
	OriginKind       finance.OriginKind           `gorm:"type:varchar(30);not null;index"`
	OriginID         uuid.UUID                    `gorm:"type:uuid;index"`
	OriginNumber     string                       `gorm:"type:varchar(50)"`
	OriginalAmount   decimal.Decimal              `gorm:"type:decimal(18,4);not null"`
	AccruedInterest  decimal.Decimal              `gorm:"type:decimal(18,4);not null"`
	PaidAmount       decimal.Decimal              `gorm:"type:decimal(18,4);not null"`
	PendingAmount    decimal.Decimal              `gorm:"type:decimal(18,4);not null;index"`
	IssueDate        time.Time                    `gorm:"not null;index"`
	DueDate          *time.Time                   `gorm:"index"`
	SettledAt        *time.Time                   ``
	Status           finance.ReceivableStatus     `gorm:"type:varchar(20);not null;default:'PENDING';index"`
	Interest         *finance.InterestConfig      `gorm:"type:jsonb;serializer:json"`
	InterestHistory  finance.InterestApplications `gorm:"type:jsonb;default:'[]'"`
	Payments         finance.PaymentEntries       `gorm:"type:jsonb;default:'[]'"`
	ParentID         *uuid.UUID                   `gorm:"type:uuid;index"`
	InstallmentSeq   int                          `gorm:"not null;default:0"`
	InstallmentCount int                          `gorm:"not null;default:0"`
	Notes            string                       `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (ReceivableModel) TableName() string {
	return "receivables"
}

// ReceivableSequenceModel backs daily receivable numbering. One row per
// (tenant, day), advanced under a row lock so concurrent creations never
// hand out the same number.
type ReceivableSequenceModel struct {
	TenantID  uuid.UUID `gorm:"type:uuid;primaryKey"`
	Day       string    `gorm:"type:varchar(8);primaryKey"`
	NextValue int64     `gorm:"not null;default:1"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (ReceivableSequenceModel) TableName() string {
	return "receivable_sequences"
}

// ToDomain converts the persistence model to a domain Receivable entity.
func (m *ReceivableModel) ToDomain() *finance.Receivable {
	return &finance.Receivable{
		TenantAggregateRoot: m.tenantAggregateRootFromModel(),
		ReceivableNumber:    m.ReceivableNumber,
		DebtorID:            m.DebtorID,
		DebtorName:          m.DebtorName,
		OriginKind:          m.OriginKind,
		OriginID:            m.OriginID,
		OriginNumber:        m.OriginNumber,
		OriginalAmount:      m.OriginalAmount,
		AccruedInterest:     m.AccruedInterest,
		PaidAmount:          m.PaidAmount,
		PendingAmount:       m.PendingAmount,
		IssueDate:           m.IssueDate,
		DueDate:             m.DueDate,
		SettledAt:           m.SettledAt,
		Status:              m.Status,
		Interest:            m.Interest,
		InterestHistory:     m.InterestHistory,
		Payments:            m.Payments,
		ParentID:            m.ParentID,
		InstallmentSeq:      m.InstallmentSeq,
		InstallmentCount:    m.InstallmentCount,
		Notes:               m.Notes,
	}
}

// FromDomain populates the persistence model from a domain Receivable entity.
func (m *ReceivableModel) FromDomain(r *finance.Receivable) {
	m.FromDomainTenantAggregateRoot(r.TenantAggregateRoot)
	m.ReceivableNumber = r.ReceivableNumber
	m.DebtorID = r.DebtorID
	m.DebtorName = r.DebtorName
	m.OriginKind = r.OriginKind
	m.OriginID = r.OriginID
	m.OriginNumber = r.OriginNumber
	m.OriginalAmount = r.OriginalAmount
	m.AccruedInterest = r.AccruedInterest
	m.PaidAmount = r.PaidAmount
	m.PendingAmount = r.PendingAmount
	m.IssueDate = r.IssueDate
	m.DueDate = r.DueDate
	m.SettledAt = r.SettledAt
	m.Status = r.Status
	m.Interest = r.Interest
	m.InterestHistory = r.InterestHistory
	m.Payments = r.Payments
	m.ParentID = r.ParentID
	m.InstallmentSeq = r.InstallmentSeq
	m.InstallmentCount = r.InstallmentCount
	m.Notes = r.Notes
}

// ReceivableModelFromDomain creates a new persistence model from a domain Receivable.
func ReceivableModelFromDomain(r *finance.Receivable) *ReceivableModel {
	m := &ReceivableModel{}
	m.FromDomain(r)
	return m
}

// CashLedgerEntryModel is the persistence model for the CashLedgerEntry aggregate root.
type CashLedgerEntryModel struct {
	TenantAggregateModel
	Amount        decimal.Decimal         `gorm:"type:decimal(18,4);not null"`
	Direction     finance.LedgerDirection `gorm:"type:varchar(10);not null;index"`
	EntryDate     time.Time               `gorm:"not null;index"`
	Category      string                  `gorm:"type:varchar(100);not null;index"`
	BankAccountID *uuid.UUID              `gorm:"type:uuid;index"`
	OriginKind    finance.OriginKind      `gorm:"type:varchar(30);not null"`
	OriginID      uuid.UUID               `gorm:"type:uuid;index"`
	ReceivableID  *uuid.UUID              `gorm:"type:uuid;index"`
	Description   string                  `gorm:"type:text"`
	Metadata      finance.LedgerMetadata  `gorm:"type:jsonb;default:'{}'"`
}

// TableName returns the table name for GORM
func (CashLedgerEntryModel) TableName() string {
	return "cash_ledger_entries"
}

// ToDomain converts the persistence model to a domain CashLedgerEntry entity.
func (m *CashLedgerEntryModel) ToDomain() *finance.CashLedgerEntry {
	return &finance.CashLedgerEntry{
		TenantAggregateRoot: m.tenantAggregateRootFromModel(),
		Amount:              m.Amount,
		Direction:           m.Direction,
		EntryDate:           m.EntryDate,
		Category:            m.Category,
		BankAccountID:       m.BankAccountID,
		OriginKind:          m.OriginKind,
		OriginID:            m.OriginID,
		ReceivableID:        m.ReceivableID,
		Description:         m.Description,
		Metadata:            m.Metadata,
	}
}

// FromDomain populates the persistence model from a domain CashLedgerEntry entity.
func (m *CashLedgerEntryModel) FromDomain(e *finance.CashLedgerEntry) {
	m.FromDomainTenantAggregateRoot(e.TenantAggregateRoot)
	m.Amount = e.Amount
	m.Direction = e.Direction
	m.EntryDate = e.EntryDate
	m.Category = e.Category
	m.BankAccountID = e.BankAccountID
	m.OriginKind = e.OriginKind
	m.OriginID = e.OriginID
	m.ReceivableID = e.ReceivableID
	m.Description = e.Description
	m.Metadata = e.Metadata
}

// CashLedgerEntryModelFromDomain creates a new persistence model from a domain CashLedgerEntry.
func CashLedgerEntryModelFromDomain(e *finance.CashLedgerEntry) *CashLedgerEntryModel {
	m := &CashLedgerEntryModel{}
	m.FromDomain(e)
	return m
}
