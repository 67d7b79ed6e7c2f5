package persistence

import (
	"context"

	apptrade "github.com/gestor/backend/internal/application/trade"
	"github.com/gestor/backend/internal/domain/partner"
	"github.com/gestor/backend/internal/domain/trade"
	"gorm.io/gorm"
)

// GormTradeTransactionScope implements the trade TransactionScope using
// GORM transactions.
type GormTradeTransactionScope struct {
	db *gorm.DB
}

// NewGormTradeTransactionScope creates a new GormTradeTransactionScope.
func NewGormTradeTransactionScope(db *gorm.DB) *GormTradeTransactionScope {
	return &GormTradeTransactionScope{db: db}
}

// Execute runs the given function within a database transaction.
// If the function returns an error, the transaction is rolled back.
func (s *GormTradeTransactionScope) Execute(ctx context.Context, fn func(repos apptrade.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repos := &gormTradeRepositories{tx: tx}
		return fn(repos)
	})
}

// gormTradeRepositories provides access to trade repositories within a transaction.
type gormTradeRepositories struct {
	tx *gorm.DB
}

// DocumentRepo returns the source document repository scoped to the current transaction.
func (r *gormTradeRepositories) DocumentRepo() trade.SourceDocumentRepository {
	return NewGormSourceDocumentRepository(r.tx)
}

// CustomerRepo returns the customer repository scoped to the current transaction.
func (r *gormTradeRepositories) CustomerRepo() partner.CustomerRepository {
	return NewGormCustomerRepository(r.tx)
}

// EmployeeRepo returns the employee repository scoped to the current transaction.
func (r *gormTradeRepositories) EmployeeRepo() partner.EmployeeRepository {
	return NewGormEmployeeRepository(r.tx)
}

// Ensure GormTradeTransactionScope implements TransactionScope
var _ apptrade.TransactionScope = (*GormTradeTransactionScope)(nil)

// Ensure gormTradeRepositories implements TransactionalRepositories
var _ apptrade.TransactionalRepositories = (*gormTradeRepositories)(nil)
