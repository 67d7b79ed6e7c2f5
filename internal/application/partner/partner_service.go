package partner

import (
	"context"
	"time"

	"github.com/gestor/backend/internal/domain/partner"
	"github.com/gestor/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// PartnerService manages employees and customers
type PartnerService struct {
	employeeRepo partner.EmployeeRepository
	customerRepo partner.CustomerRepository
	logger       *zap.Logger
}

// NewPartnerService creates a new PartnerService
func NewPartnerService(employeeRepo partner.EmployeeRepository, customerRepo partner.CustomerRepository, logger *zap.Logger) *PartnerService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PartnerService{
		employeeRepo: employeeRepo,
		customerRepo: customerRepo,
		logger:       logger,
	}
}

// CreateEmployeeRequest is the request to register an employee
type CreateEmployeeRequest struct {
	Name     string          `json:"name" binding:"required"`
	Document string          `json:"document"`
	Email    string          `json:"email" binding:"omitempty,email"`
	Phone    string          `json:"phone"`
	Role     string          `json:"role"`
	Salary   decimal.Decimal `json:"salary" binding:"required"`
	HiredAt  *time.Time      `json:"hired_at"`
	// LinkCustomer also creates a customer identity for the employee so
	// store-credit purchases settle through payroll
	LinkCustomer bool `json:"link_customer"`
}

// UpdateEmployeeRequest is the request to update employee contact data
type UpdateEmployeeRequest struct {
	Email string `json:"email" binding:"omitempty,email"`
	Phone string `json:"phone"`
	Role  string `json:"role"`
}

// EmployeeResponse is the API representation of an employee
type EmployeeResponse struct {
	ID            uuid.UUID              `json:"id"`
	Name          string                 `json:"name"`
	Document      string                 `json:"document,omitempty"`
	Email         string                 `json:"email,omitempty"`
	Phone         string                 `json:"phone,omitempty"`
	Role          string                 `json:"role,omitempty"`
	CurrentSalary decimal.Decimal        `json:"current_salary"`
	Commission    decimal.Decimal        `json:"commission"`
	Status        partner.EmployeeStatus `json:"status"`
	CustomerID    *uuid.UUID             `json:"customer_id,omitempty"`
	HiredAt       *time.Time             `json:"hired_at,omitempty"`
	CreatedAt     time.Time              `json:"created_at"`
	UpdatedAt     time.Time              `json:"updated_at"`
}

// CreateCustomerRequest is the request to register a customer
type CreateCustomerRequest struct {
	Name     string `json:"name" binding:"required"`
	Document string `json:"document"`
	Email    string `json:"email" binding:"omitempty,email"`
	Phone    string `json:"phone"`
	Notes    string `json:"notes"`
}

// CustomerResponse is the API representation of a customer
type CustomerResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Document  string    `json:"document,omitempty"`
	Email     string    `json:"email,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CreateEmployee registers an employee, optionally creating and linking a
// customer identity in the same call.
func (s *PartnerService) CreateEmployee(ctx context.Context, tenantID uuid.UUID, req CreateEmployeeRequest) (*EmployeeResponse, error) {
	employee, err := partner.NewEmployee(tenantID, req.Name, req.Salary)
	if err != nil {
		return nil, err
	}
	employee.Document = req.Document
	employee.Email = req.Email
	employee.Phone = req.Phone
	employee.Role = req.Role
	employee.HiredAt = req.HiredAt

	if req.LinkCustomer {
		customer, err := partner.NewCustomer(tenantID, req.Name)
		if err != nil {
			return nil, err
		}
		customer.Document = req.Document
		customer.Email = req.Email
		customer.Phone = req.Phone
		if err := s.customerRepo.Save(ctx, customer); err != nil {
			return nil, err
		}
		employee.LinkCustomer(customer.ID)
	}

	if err := s.employeeRepo.Save(ctx, employee); err != nil {
		return nil, err
	}

	s.logger.Info("employee created",
		zap.String("tenant_id", tenantID.String()),
		zap.String("employee_id", employee.ID.String()),
		zap.Bool("customer_linked", employee.CustomerID != nil))

	return toEmployeeResponse(employee), nil
}

// UpdateEmployee updates an employee's contact fields
func (s *PartnerService) UpdateEmployee(ctx context.Context, tenantID, id uuid.UUID, req UpdateEmployeeRequest) (*EmployeeResponse, error) {
	employee, err := s.employeeRepo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	employee.Email = req.Email
	employee.Phone = req.Phone
	employee.Role = req.Role
	employee.UpdatedAt = time.Now()
	employee.IncrementVersion()

	if err := s.employeeRepo.Save(ctx, employee); err != nil {
		return nil, err
	}
	return toEmployeeResponse(employee), nil
}

// LinkEmployeeCustomer links an existing customer identity to an employee
func (s *PartnerService) LinkEmployeeCustomer(ctx context.Context, tenantID, employeeID, customerID uuid.UUID) (*EmployeeResponse, error) {
	employee, err := s.employeeRepo.FindByIDForTenant(ctx, tenantID, employeeID)
	if err != nil {
		return nil, err
	}
	if _, err := s.customerRepo.FindByIDForTenant(ctx, tenantID, customerID); err != nil {
		return nil, err
	}

	employee.LinkCustomer(customerID)
	if err := s.employeeRepo.Save(ctx, employee); err != nil {
		return nil, err
	}
	return toEmployeeResponse(employee), nil
}

// RecordCommission credits commission earned by an employee during the open
// period. The accumulated amount is folded into the next monthly close.
func (s *PartnerService) RecordCommission(ctx context.Context, tenantID, employeeID uuid.UUID, amount decimal.Decimal) (*EmployeeResponse, error) {
	employee, err := s.employeeRepo.FindByIDForTenant(ctx, tenantID, employeeID)
	if err != nil {
		return nil, err
	}
	if !employee.IsActive() {
		return nil, shared.NewDomainError("EMPLOYEE_INACTIVE", "Cannot credit commission to an inactive employee")
	}

	if err := employee.AddCommission(amount); err != nil {
		return nil, err
	}
	if err := s.employeeRepo.Save(ctx, employee); err != nil {
		return nil, err
	}

	s.logger.Info("commission credited",
		zap.String("tenant_id", tenantID.String()),
		zap.String("employee_id", employee.ID.String()),
		zap.String("amount", amount.String()))

	return toEmployeeResponse(employee), nil
}

// DeactivateEmployee removes an employee from active payroll
func (s *PartnerService) DeactivateEmployee(ctx context.Context, tenantID, id uuid.UUID) (*EmployeeResponse, error) {
	employee, err := s.employeeRepo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	employee.Deactivate()
	if err := s.employeeRepo.Save(ctx, employee); err != nil {
		return nil, err
	}
	return toEmployeeResponse(employee), nil
}

// GetEmployee returns one employee by ID
func (s *PartnerService) GetEmployee(ctx context.Context, tenantID, id uuid.UUID) (*EmployeeResponse, error) {
	employee, err := s.employeeRepo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	return toEmployeeResponse(employee), nil
}

// ListEmployees returns employees matching the filter
func (s *PartnerService) ListEmployees(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]EmployeeResponse, error) {
	employees, err := s.employeeRepo.FindAllForTenant(ctx, tenantID, filter)
	if err != nil {
		return nil, err
	}

	responses := make([]EmployeeResponse, len(employees))
	for i := range employees {
		responses[i] = *toEmployeeResponse(&employees[i])
	}
	return responses, nil
}

// RemoveEmployee tombstones an employee
func (s *PartnerService) RemoveEmployee(ctx context.Context, tenantID, id uuid.UUID) error {
	return s.employeeRepo.Remove(ctx, tenantID, id)
}

// CreateCustomer registers a customer
func (s *PartnerService) CreateCustomer(ctx context.Context, tenantID uuid.UUID, req CreateCustomerRequest) (*CustomerResponse, error) {
	customer, err := partner.NewCustomer(tenantID, req.Name)
	if err != nil {
		return nil, err
	}
	customer.Document = req.Document
	customer.Email = req.Email
	customer.Phone = req.Phone
	customer.Notes = req.Notes

	if err := s.customerRepo.Save(ctx, customer); err != nil {
		return nil, err
	}
	return toCustomerResponse(customer), nil
}

// UpdateCustomerContact updates a customer's contact fields
func (s *PartnerService) UpdateCustomerContact(ctx context.Context, tenantID, id uuid.UUID, email, phone string) (*CustomerResponse, error) {
	customer, err := s.customerRepo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	customer.UpdateContact(email, phone)
	if err := s.customerRepo.Save(ctx, customer); err != nil {
		return nil, err
	}
	return toCustomerResponse(customer), nil
}

// GetCustomer returns one customer by ID
func (s *PartnerService) GetCustomer(ctx context.Context, tenantID, id uuid.UUID) (*CustomerResponse, error) {
	customer, err := s.customerRepo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	return toCustomerResponse(customer), nil
}

// ListCustomers returns customers matching the filter
func (s *PartnerService) ListCustomers(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]CustomerResponse, error) {
	customers, err := s.customerRepo.FindAllForTenant(ctx, tenantID, filter)
	if err != nil {
		return nil, err
	}

	responses := make([]CustomerResponse, len(customers))
	for i := range customers {
		responses[i] = *toCustomerResponse(&customers[i])
	}
	return responses, nil
}

// RemoveCustomer tombstones a customer
func (s *PartnerService) RemoveCustomer(ctx context.Context, tenantID, id uuid.UUID) error {
	return s.customerRepo.Remove(ctx, tenantID, id)
}

func toEmployeeResponse(e *partner.Employee) *EmployeeResponse {
	return &EmployeeResponse{
		ID:            e.ID,
		Name:          e.Name,
		Document:      e.Document,
		Email:         e.Email,
		Phone:         e.Phone,
		Role:          e.Role,
		CurrentSalary: e.CurrentSalary,
		Commission:    e.Commission,
		Status:        e.Status,
		CustomerID:    e.CustomerID,
		HiredAt:       e.HiredAt,
		CreatedAt:     e.CreatedAt,
		UpdatedAt:     e.UpdatedAt,
	}
}

func toCustomerResponse(c *partner.Customer) *CustomerResponse {
	return &CustomerResponse{
		ID:        c.ID,
		Name:      c.Name,
		Document:  c.Document,
		Email:     c.Email,
		Phone:     c.Phone,
		Notes:     c.Notes,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}
