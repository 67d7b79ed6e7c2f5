package trade

import (
	"context"
	"time"

	"github.com/gestor/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DocumentFilter defines filtering options for document queries
type DocumentFilter struct {
	shared.Filter
	Kind       *DocumentKind
	Status     *DocumentStatus
	CustomerID *uuid.UUID
}

// SourceDocumentRepository defines the persistence interface for source documents
type SourceDocumentRepository interface {
	// FindByIDForTenant retrieves a document scoped to a tenant
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*SourceDocument, error)

	// FindByNumber retrieves a document by its sequential number
	FindByNumber(ctx context.Context, tenantID uuid.UUID, documentNumber string) (*SourceDocument, error)

	// FindAllForTenant retrieves documents with pagination
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter DocumentFilter) ([]*SourceDocument, error)

	// FindByCustomerWindow retrieves documents for a customer issued within [from, to]
	FindByCustomerWindow(ctx context.Context, tenantID, customerID uuid.UUID, from, to time.Time) ([]*SourceDocument, error)

	// CountForTenant counts documents matching the filter
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter DocumentFilter) (int64, error)

	// Save persists a document (insert or update)
	Save(ctx context.Context, doc *SourceDocument) error

	// Remove tombstones a document
	Remove(ctx context.Context, tenantID, id uuid.UUID) error

	// GenerateNumber produces the next sequential document number for the
	// kind under a row lock, retrying with backoff on contention.
	GenerateNumber(ctx context.Context, tenantID uuid.UUID, kind DocumentKind) (string, error)

	// SumCreditConsumption totals deferred-credit payments on documents for
	// the customer within the window, excluding documents sold by
	// excludeSellerID and documents whose credit exceeds 110% of the total.
	SumCreditConsumption(ctx context.Context, tenantID, customerID, excludeSellerID uuid.UUID, from, to time.Time) (decimal.Decimal, error)
}
