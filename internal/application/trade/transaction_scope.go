package trade

import (
	"context"

	"github.com/gestor/backend/internal/domain/partner"
	"github.com/gestor/backend/internal/domain/trade"
)

// TransactionScope provides transactional boundaries for trade operations
type TransactionScope interface {
	// Execute runs the given function within a transaction.
	// If the function returns an error, the transaction is rolled back.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides access to repositories within a transaction
type TransactionalRepositories interface {
	DocumentRepo() trade.SourceDocumentRepository
	CustomerRepo() partner.CustomerRepository
	EmployeeRepo() partner.EmployeeRepository
}

// NoOpTransactionScope runs functions without transactional guarantees.
// Used in tests.
type NoOpTransactionScope struct {
	documentRepo trade.SourceDocumentRepository
	customerRepo partner.CustomerRepository
	employeeRepo partner.EmployeeRepository
}

// NewNoOpTransactionScope creates a scope that passes through the given repositories
func NewNoOpTransactionScope(
	documentRepo trade.SourceDocumentRepository,
	customerRepo partner.CustomerRepository,
	employeeRepo partner.EmployeeRepository,
) *NoOpTransactionScope {
	return &NoOpTransactionScope{
		documentRepo: documentRepo,
		customerRepo: customerRepo,
		employeeRepo: employeeRepo,
	}
}

// Execute runs the function without a transaction
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// DocumentRepo returns the source document repository
func (s *NoOpTransactionScope) DocumentRepo() trade.SourceDocumentRepository {
	return s.documentRepo
}

// CustomerRepo returns the customer repository
func (s *NoOpTransactionScope) CustomerRepo() partner.CustomerRepository {
	return s.customerRepo
}

// EmployeeRepo returns the employee repository
func (s *NoOpTransactionScope) EmployeeRepo() partner.EmployeeRepository {
	return s.employeeRepo
}
