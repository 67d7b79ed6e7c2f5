package persistence

import (
	"context"

	appfinance "github.com/gestor/backend/internal/application/finance"
	"github.com/gestor/backend/internal/domain/finance"
	"gorm.io/gorm"
)

// GormFinanceTransactionScope implements the finance TransactionScope using
// GORM transactions. It provides atomic execution of multiple repository
// operations.
type GormFinanceTransactionScope struct {
	db *gorm.DB
}

// NewGormFinanceTransactionScope creates a new GormFinanceTransactionScope.
func NewGormFinanceTransactionScope(db *gorm.DB) *GormFinanceTransactionScope {
	return &GormFinanceTransactionScope{db: db}
}

// Execute runs the given function within a database transaction.
// If the function returns an error, the transaction is rolled back.
// If the function succeeds, the transaction is committed.
func (s *GormFinanceTransactionScope) Execute(ctx context.Context, fn func(repos appfinance.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repos := &gormFinanceRepositories{tx: tx}
		return fn(repos)
	})
}

// gormFinanceRepositories provides access to finance repositories within a transaction.
type gormFinanceRepositories struct {
	tx *gorm.DB
}

// ReceivableRepo returns the receivable repository scoped to the current transaction.
func (r *gormFinanceRepositories) ReceivableRepo() finance.ReceivableRepository {
	return NewGormReceivableRepository(r.tx)
}

// LedgerRepo returns the cash ledger repository scoped to the current transaction.
func (r *gormFinanceRepositories) LedgerRepo() finance.CashLedgerRepository {
	return NewGormCashLedgerRepository(r.tx)
}

// Ensure GormFinanceTransactionScope implements TransactionScope
var _ appfinance.TransactionScope = (*GormFinanceTransactionScope)(nil)

// Ensure gormFinanceRepositories implements TransactionalRepositories
var _ appfinance.TransactionalRepositories = (*gormFinanceRepositories)(nil)
