package finance

import (
	"context"

	"github.com/gestor/backend/internal/domain/finance"
)

// TransactionScope provides transactional access to finance repositories.
// When a function is executed within a transaction scope, all repository
// operations are part of the same database transaction and commit or roll
// back atomically.
type TransactionScope interface {
	// Execute runs the given function within a database transaction.
	// If the function returns an error, the transaction is rolled back.
	// If the function succeeds, the transaction is committed.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides access to the finance repositories
// within a transaction. Payment registration mutates the receivable and
// appends cash-ledger entries in the same transaction so a rollback never
// leaves a ledger entry without its payment.
type TransactionalRepositories interface {
	// ReceivableRepo returns the receivable repository scoped to the current transaction
	ReceivableRepo() finance.ReceivableRepository
	// LedgerRepo returns the cash ledger repository scoped to the current transaction
	LedgerRepo() finance.CashLedgerRepository
}

// NoOpTransactionScope is a transaction scope that doesn't actually use
// transactions. Useful for tests.
type NoOpTransactionScope struct {
	receivableRepo finance.ReceivableRepository
	ledgerRepo     finance.CashLedgerRepository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope with the given repositories.
func NewNoOpTransactionScope(
	receivableRepo finance.ReceivableRepository,
	ledgerRepo finance.CashLedgerRepository,
) *NoOpTransactionScope {
	return &NoOpTransactionScope{
		receivableRepo: receivableRepo,
		ledgerRepo:     ledgerRepo,
	}
}

// Execute runs the function without a real transaction.
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// ReceivableRepo returns the receivable repository.
func (s *NoOpTransactionScope) ReceivableRepo() finance.ReceivableRepository {
	return s.receivableRepo
}

// LedgerRepo returns the cash ledger repository.
func (s *NoOpTransactionScope) LedgerRepo() finance.CashLedgerRepository {
	return s.ledgerRepo
}

// Ensure NoOpTransactionScope implements both interfaces
var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
