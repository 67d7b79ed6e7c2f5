package finance

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

// LedgerDirection indicates the direction of a cash movement
type LedgerDirection string

const (
	LedgerDirectionIn  LedgerDirection = "IN"
	LedgerDirectionOut LedgerDirection = "OUT"
)

// IsValid checks if the direction is valid
func (d LedgerDirection) IsValid() bool {
	return d == LedgerDirectionIn || d == LedgerDirectionOut
}

// LedgerMetadata holds free-form key/value context for a ledger entry, stored as JSONB
type LedgerMetadata map[string]string

// Value implements driver.Valuer for JSONB storage
func (m LedgerMetadata) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}
	return json.Marshal(m)
}

// Scan implements sql.Scanner for JSONB retrieval
func (m *LedgerMetadata) Scan(value interface{}) error {
	if value == nil {
		*m = LedgerMetadata{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("failed to scan LedgerMetadata: unsupported type")
	}

	if len(bytes) == 0 {
		*m = LedgerMetadata{}
		return nil
	}

	return json.Unmarshal(bytes, m)
}

// CashLedgerEntry records a single cash movement. Entries are append-only:
// one is emitted for every non-deferred payment registered on a receivable.
type CashLedgerEntry struct {
	shared.TenantAggregateRoot
	Amount        decimal.Decimal `json:"amount"`
	Direction     LedgerDirection `json:"direction"`
	EntryDate     time.Time       `json:"entry_date"`
	Category      string          `json:"category"`
	BankAccountID *uuid.UUID      `json:"bank_account_id,omitempty"`
	OriginKind    OriginKind      `json:"origin_kind"`
	OriginID      uuid.UUID       `json:"origin_id"`
	ReceivableID  *uuid.UUID      `json:"receivable_id,omitempty"`
	Description   string          `json:"description,omitempty"`
	Metadata      LedgerMetadata  `json:"metadata"`
}

// NewCashLedgerEntry creates a new cash ledger entry
func NewCashLedgerEntry(
	tenantID uuid.UUID,
	amount valueobject.Money,
	direction LedgerDirection,
	entryDate time.Time,
	category string,
	originKind OriginKind,
	originID uuid.UUID,
) (*CashLedgerEntry, error) {
	if amount.Amount().LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Ledger amount must be positive")
	}
	if !direction.IsValid() {
		return nil, shared.NewDomainError("INVALID_DIRECTION", "Ledger direction is not valid")
	}
	if category == "" {
		return nil, shared.NewDomainError("INVALID_CATEGORY", "Ledger category cannot be empty")
	}
	if entryDate.IsZero() {
		entryDate = time.Now()
	}

	return &CashLedgerEntry{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Amount:              amount.Amount(),
		Direction:           direction,
		EntryDate:           entryDate,
		Category:            category,
		OriginKind:          originKind,
		OriginID:            originID,
		Metadata:            LedgerMetadata{},
	}, nil
}

// LinkReceivable links the entry to the receivable whose payment produced it
func (e *CashLedgerEntry) LinkReceivable(receivableID uuid.UUID) {
	e.ReceivableID = &receivableID
}

// SetBankAccount sets the target bank account
func (e *CashLedgerEntry) SetBankAccount(bankAccountID uuid.UUID) {
	e.BankAccountID = &bankAccountID
}
