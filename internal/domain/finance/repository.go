package finance

import (
	"context"
	"time"

	"github.com/gestor/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ReceivableFilter defines filtering options for receivable queries
type ReceivableFilter struct {
	shared.Filter
	DebtorID   *uuid.UUID        // Filter by debtor
	Status     *ReceivableStatus // Filter by status
	OriginKind *OriginKind       // Filter by origin kind
	OriginID   *uuid.UUID        // Filter by origin document
	ParentID   *uuid.UUID        // Filter installments of a parent
	FromDate   *time.Time        // Filter by issue date range start
	ToDate     *time.Time        // Filter by issue date range end
	DueFrom    *time.Time        // Filter by due date range start
	DueTo      *time.Time        // Filter by due date range end
	Overdue    *bool             // Filter only overdue receivables
}

// ReceivableRepository defines the interface for receivable persistence.
// Every query is explicitly tenant-scoped; tombstoned rows are excluded
// uniformly by the implementation.
type ReceivableRepository interface {
	// FindByIDForTenant finds a receivable by ID for a specific tenant
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Receivable, error)

	// FindByNumber finds by receivable number for a tenant
	FindByNumber(ctx context.Context, tenantID uuid.UUID, number string) (*Receivable, error)

	// FindDuplicate finds an existing receivable with the same debtor, amount,
	// issue date (same calendar day) and origin. Used for idempotent creation.
	FindDuplicate(ctx context.Context, tenantID, debtorID uuid.UUID, amount decimal.Decimal, issueDate time.Time, originKind OriginKind, originID uuid.UUID) (*Receivable, error)

	// FindByOrigin finds all receivables linked to an origin document
	FindByOrigin(ctx context.Context, tenantID uuid.UUID, originKind OriginKind, originID uuid.UUID) ([]Receivable, error)

	// FindInstallments finds the children of a split receivable
	FindInstallments(ctx context.Context, tenantID, parentID uuid.UUID) ([]Receivable, error)

	// FindAllForTenant finds all receivables for a tenant with filtering
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter ReceivableFilter) ([]Receivable, error)

	// FindInterestEligible finds non-settled receivables carrying an interest
	// configuration whose start date has been reached
	FindInterestEligible(ctx context.Context, tenantID uuid.UUID, asOf time.Time) ([]Receivable, error)

	// CountForTenant counts receivables for a tenant with optional filters
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter ReceivableFilter) (int64, error)

	// SumPendingByDebtor calculates total pending amount for a debtor
	SumPendingByDebtor(ctx context.Context, tenantID, debtorID uuid.UUID) (decimal.Decimal, error)

	// Save creates or updates a receivable
	Save(ctx context.Context, receivable *Receivable) error

	// Remove tombstones a receivable for a tenant
	Remove(ctx context.Context, tenantID, id uuid.UUID) error

	// GenerateNumber generates a unique receivable number for a tenant
	GenerateNumber(ctx context.Context, tenantID uuid.UUID) (string, error)
}

// CashLedgerFilter defines filtering options for cash ledger queries
type CashLedgerFilter struct {
	shared.Filter
	Direction *LedgerDirection
	Category  *string
	FromDate  *time.Time
	ToDate    *time.Time
}

// CashLedgerRepository defines the interface for cash ledger persistence
type CashLedgerRepository interface {
	// FindByIDForTenant finds a ledger entry by ID for a specific tenant
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*CashLedgerEntry, error)

	// FindAllForTenant finds ledger entries for a tenant with filtering
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter CashLedgerFilter) ([]CashLedgerEntry, error)

	// FindByReceivable finds the entries emitted by a receivable's payments
	FindByReceivable(ctx context.Context, tenantID, receivableID uuid.UUID) ([]CashLedgerEntry, error)

	// SumByDirection sums entry amounts for a direction within a date range
	SumByDirection(ctx context.Context, tenantID uuid.UUID, direction LedgerDirection, from, to time.Time) (decimal.Decimal, error)

	// Save persists a ledger entry
	Save(ctx context.Context, entry *CashLedgerEntry) error
}
