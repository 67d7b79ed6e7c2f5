package persistence

import (
	"context"

	"github.com/gestor/backend/internal/domain/payroll"
	"github.com/gestor/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormSalaryHistoryRepository implements SalaryHistoryRepository using GORM
type GormSalaryHistoryRepository struct {
	db *gorm.DB
}

// NewGormSalaryHistoryRepository creates a new GormSalaryHistoryRepository
func NewGormSalaryHistoryRepository(db *gorm.DB) *GormSalaryHistoryRepository {
	return &GormSalaryHistoryRepository{db: db}
}

// FindByEmployee returns all changes for an employee ordered by effective date
func (r *GormSalaryHistoryRepository) FindByEmployee(ctx context.Context, tenantID, employeeID uuid.UUID) ([]payroll.SalaryChange, error) {
	var changeModels []models.SalaryChangeModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND employee_id = ?", tenantID, employeeID).
		Order("effective_date ASC").
		Find(&changeModels).Error; err != nil {
		return nil, err
	}

	changes := make([]payroll.SalaryChange, len(changeModels))
	for i, model := range changeModels {
		changes[i] = *model.ToDomain()
	}
	return changes, nil
}

// Append records a new salary change. The ledger is append-only: entries are
// never updated or deleted.
func (r *GormSalaryHistoryRepository) Append(ctx context.Context, change *payroll.SalaryChange) error {
	model := &models.SalaryChangeModel{}
	model.FromDomain(change)
	return r.db.WithContext(ctx).Create(model).Error
}

// Ensure GormSalaryHistoryRepository implements SalaryHistoryRepository
var _ payroll.SalaryHistoryRepository = (*GormSalaryHistoryRepository)(nil)
