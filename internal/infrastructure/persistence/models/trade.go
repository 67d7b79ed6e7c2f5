package models

import (
	"time"

	"github.com/gestor/backend/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SourceDocumentModel is the persistence model for the SourceDocument aggregate root.
type SourceDocumentModel struct {
	TenantAggregateModel
	DocumentNumber string                 `gorm:"type:varchar(50);not null;uniqueIndex:idx_document_tenant_number,priority:2"`
	Kind           trade.DocumentKind     `gorm:"type:varchar(30);not null;index"`
	CustomerID     uuid.UUID              `gorm:"type:uuid;not null;index"`
	CustomerName   string                 `gorm:"type:varchar(200);not null"`
	SellerID       *uuid.UUID             `gorm:"type:uuid;index"`
	Total          decimal.Decimal        `gorm:"type:decimal(18,4);not null"`
	Payments       trade.DocumentPayments `gorm:"type:jsonb;default:'[]'"`
	Status         trade.DocumentStatus   `gorm:"type:varchar(20);not null;default:'OPEN';index"`
	IssuedAt       time.Time              `gorm:"not null;index"`
	CompletedAt    *time.Time             ``
	Description    string                 `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (SourceDocumentModel) TableName() string {
	return "source_documents"
}

// ToDomain converts the persistence model to a domain SourceDocument entity.
func (m *SourceDocumentModel) ToDomain() *trade.SourceDocument {
	return &trade.SourceDocument{
		TenantAggregateRoot: m.tenantAggregateRootFromModel(),
		DocumentNumber:      m.DocumentNumber,
		Kind:                m.Kind,
		CustomerID:          m.CustomerID,
		CustomerName:        m.CustomerName,
		SellerID:            m.SellerID,
		Total:               m.Total,
		Payments:            m.Payments,
		Status:              m.Status,
		IssuedAt:            m.IssuedAt,
		CompletedAt:         m.CompletedAt,
		Description:         m.Description,
	}
}

// FromDomain populates the persistence model from a domain SourceDocument entity.
func (m *SourceDocumentModel) FromDomain(d *trade.SourceDocument) {
	m.FromDomainTenantAggregateRoot(d.TenantAggregateRoot)
	m.DocumentNumber = d.DocumentNumber
	m.Kind = d.Kind
	m.CustomerID = d.CustomerID
	m.CustomerName = d.CustomerName
	m.SellerID = d.SellerID
	m.Total = d.Total
	m.Payments = d.Payments
	m.Status = d.Status
	m.IssuedAt = d.IssuedAt
	m.CompletedAt = d.CompletedAt
	m.Description = d.Description
}

// SourceDocumentModelFromDomain creates a new persistence model from a domain SourceDocument.
func SourceDocumentModelFromDomain(d *trade.SourceDocument) *SourceDocumentModel {
	m := &SourceDocumentModel{}
	m.FromDomain(d)
	return m
}

// DocumentSequenceModel backs sequential document numbering. One row per
// (tenant, kind), advanced under a row lock so concurrent document creation
// never hands out the same number.
type DocumentSequenceModel struct {
	TenantID  uuid.UUID          `gorm:"type:uuid;primaryKey"`
	Kind      trade.DocumentKind `gorm:"type:varchar(30);primaryKey"`
	NextValue int64              `gorm:"not null;default:1"`
	UpdatedAt time.Time          `gorm:"not null"`
}

// TableName returns the table name for GORM
func (DocumentSequenceModel) TableName() string {
	return "document_sequences"
}
