package partner

import (
	"context"

	"github.com/gestor/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// EmployeeRepository defines the interface for employee persistence
type EmployeeRepository interface {
	// FindByIDForTenant finds an employee by ID for a specific tenant
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Employee, error)

	// FindAllForTenant finds all employees for a tenant with filtering
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]Employee, error)

	// FindActive finds all active employees for a tenant
	FindActive(ctx context.Context, tenantID uuid.UUID) ([]Employee, error)

	// FindByCustomerID finds the employee linked to a customer identity
	FindByCustomerID(ctx context.Context, tenantID, customerID uuid.UUID) (*Employee, error)

	// Save creates or updates an employee
	Save(ctx context.Context, employee *Employee) error

	// Remove tombstones an employee
	Remove(ctx context.Context, tenantID, id uuid.UUID) error
}

// CustomerRepository defines the interface for customer persistence
type CustomerRepository interface {
	// FindByIDForTenant finds a customer by ID for a specific tenant
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Customer, error)

	// FindAllForTenant finds all customers for a tenant with filtering
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]Customer, error)

	// Save creates or updates a customer
	Save(ctx context.Context, customer *Customer) error

	// Remove tombstones a customer
	Remove(ctx context.Context, tenantID, id uuid.UUID) error
}
