package persistence

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gestor/backend/internal/domain/partner"
	"github.com/gestor/backend/internal/domain/shared"
	"github.com/gestor/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormEmployeeRepository implements EmployeeRepository using GORM
type GormEmployeeRepository struct {
	db *gorm.DB
}

// NewGormEmployeeRepository creates a new GormEmployeeRepository
func NewGormEmployeeRepository(db *gorm.DB) *GormEmployeeRepository {
	return &GormEmployeeRepository{db: db}
}

// FindByIDForTenant finds an employee by ID for a specific tenant
func (r *GormEmployeeRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*partner.Employee, error) {
	var model models.EmployeeModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ? AND removed_at IS NULL", tenantID, id).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAllForTenant finds all employees for a tenant with filtering
func (r *GormEmployeeRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]partner.Employee, error) {
	var employeeModels []models.EmployeeModel
	query := r.db.WithContext(ctx).Model(&models.EmployeeModel{}).
		Where("tenant_id = ? AND removed_at IS NULL", tenantID)

	if filter.Search != "" {
		searchPattern := "%" + filter.Search + "%"
		query = query.Where("name ILIKE ? OR document ILIKE ?", searchPattern, searchPattern)
	}
	if filter.Paginated() {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}
	if filter.OrderBy != "" {
		orderDir := "ASC"
		if strings.ToLower(filter.OrderDir) == "desc" {
			orderDir = "DESC"
		}
		query = query.Order(filter.OrderBy + " " + orderDir)
	} else {
		query = query.Order("name ASC")
	}

	if err := query.Find(&employeeModels).Error; err != nil {
		return nil, err
	}
	return toDomainEmployees(employeeModels), nil
}

// FindActive finds all active employees for a tenant
func (r *GormEmployeeRepository) FindActive(ctx context.Context, tenantID uuid.UUID) ([]partner.Employee, error) {
	var employeeModels []models.EmployeeModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND status = ? AND removed_at IS NULL", tenantID, partner.EmployeeStatusActive).
		Order("name ASC").
		Find(&employeeModels).Error; err != nil {
		return nil, err
	}
	return toDomainEmployees(employeeModels), nil
}

// FindByCustomerID finds the employee linked to a customer identity
func (r *GormEmployeeRepository) FindByCustomerID(ctx context.Context, tenantID, customerID uuid.UUID) (*partner.Employee, error) {
	var model models.EmployeeModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND customer_id = ? AND removed_at IS NULL", tenantID, customerID).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Save creates or updates an employee
func (r *GormEmployeeRepository) Save(ctx context.Context, employee *partner.Employee) error {
	model := models.EmployeeModelFromDomain(employee)
	return r.db.WithContext(ctx).Save(model).Error
}

// Remove tombstones an employee
func (r *GormEmployeeRepository) Remove(ctx context.Context, tenantID, id uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Model(&models.EmployeeModel{}).
		Where("tenant_id = ? AND id = ? AND removed_at IS NULL", tenantID, id).
		Updates(map[string]interface{}{
			"removed_at": time.Now(),
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func toDomainEmployees(employeeModels []models.EmployeeModel) []partner.Employee {
	employees := make([]partner.Employee, len(employeeModels))
	for i, model := range employeeModels {
		employees[i] = *model.ToDomain()
	}
	return employees
}

// Ensure GormEmployeeRepository implements EmployeeRepository
var _ partner.EmployeeRepository = (*GormEmployeeRepository)(nil)
