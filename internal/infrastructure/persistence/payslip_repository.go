package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/gestor/backend/internal/domain/payroll"
	"github.com/gestor/backend/internal/domain/shared"
	"github.com/gestor/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormPayslipRepository implements PayslipRepository using GORM
type GormPayslipRepository struct {
	db *gorm.DB
}

// NewGormPayslipRepository creates a new GormPayslipRepository
func NewGormPayslipRepository(db *gorm.DB) *GormPayslipRepository {
	return &GormPayslipRepository{db: db}
}

// FindByIDForTenant finds a payslip by ID for a specific tenant
func (r *GormPayslipRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*payroll.Payslip, error) {
	var model models.PayslipModel
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

// FindByEmployeePeriod finds the unique payslip for (employee, month, year)
func (r *GormPayslipRepository) FindByEmployeePeriod(ctx context.Context, tenantID, employeeID uuid.UUID, period payroll.Period) (*payroll.Payslip, error) {
	var model models.PayslipModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND employee_id = ? AND month = ? AND year = ? AND removed_at IS NULL",
			tenantID, employeeID, period.Month, period.Year).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAllForPeriod finds every payslip of a tenant for one period
func (r *GormPayslipRepository) FindAllForPeriod(ctx context.Context, tenantID uuid.UUID, period payroll.Period) ([]payroll.Payslip, error) {
	var payslipModels []models.PayslipModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND month = ? AND year = ? AND removed_at IS NULL", tenantID, period.Month, period.Year).
		Order("employee_name ASC").
		Find(&payslipModels).Error; err != nil {
		return nil, err
	}
	return toDomainPayslips(payslipModels), nil
}

// FindByEmployee finds all payslips of an employee ordered by period
func (r *GormPayslipRepository) FindByEmployee(ctx context.Context, tenantID, employeeID uuid.UUID) ([]payroll.Payslip, error) {
	var payslipModels []models.PayslipModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND employee_id = ? AND removed_at IS NULL", tenantID, employeeID).
		Order("year ASC, month ASC").
		Find(&payslipModels).Error; err != nil {
		return nil, err
	}
	return toDomainPayslips(payslipModels), nil
}

// PeriodClosed reports whether every payslip of the period is closed and at
// least one exists. When closed, the latest closing timestamp is returned so
// callers can anchor the next period's open window.
func (r *GormPayslipRepository) PeriodClosed(ctx context.Context, tenantID uuid.UUID, period payroll.Period) (bool, *time.Time, error) {
	var result struct {
		Total    int64
		Open     int64
		LatestAt *time.Time
	}
	if err := r.db.WithContext(ctx).
		Model(&models.PayslipModel{}).
		Select("COUNT(*) as total, COUNT(*) FILTER (WHERE NOT closed) as open, MAX(closed_at) as latest_at").
		Where("tenant_id = ? AND month = ? AND year = ? AND removed_at IS NULL", tenantID, period.Month, period.Year).
		Scan(&result).Error; err != nil {
		return false, nil, err
	}
	if result.Total == 0 || result.Open > 0 {
		return false, nil, nil
	}
	return true, result.LatestAt, nil
}

// PeriodExists reports whether any payslip exists for the period
func (r *GormPayslipRepository) PeriodExists(ctx context.Context, tenantID uuid.UUID, period payroll.Period) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.PayslipModel{}).
		Where("tenant_id = ? AND month = ? AND year = ? AND removed_at IS NULL", tenantID, period.Month, period.Year).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// EarliestPeriod returns the first period with any payslip, or nil when the
// tenant has no payroll history yet
func (r *GormPayslipRepository) EarliestPeriod(ctx context.Context, tenantID uuid.UUID) (*payroll.Period, error) {
	var result struct {
		Month int
		Year  int
	}
	err := r.db.WithContext(ctx).
		Model(&models.PayslipModel{}).
		Select("month, year").
		Where("tenant_id = ? AND removed_at IS NULL", tenantID).
		Order("year ASC, month ASC").
		Limit(1).
		Scan(&result).Error
	if err != nil {
		return nil, err
	}
	if result.Year == 0 {
		return nil, nil
	}
	return &payroll.Period{Month: result.Month, Year: result.Year}, nil
}

// Save creates or updates a payslip
func (r *GormPayslipRepository) Save(ctx context.Context, payslip *payroll.Payslip) error {
	model := models.PayslipModelFromDomain(payslip)
	return r.db.WithContext(ctx).Save(model).Error
}

// DeletePristine hard-deletes an untouched auto-opened placeholder. The WHERE
// clause re-checks pristineness so a concurrent edit cannot be destroyed.
func (r *GormPayslipRepository) DeletePristine(ctx context.Context, tenantID, id uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ? AND NOT closed AND closed_at IS NULL AND advances = '[]' AND absences = '[]'", tenantID, id).
		Delete(&models.PayslipModel{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func toDomainPayslips(payslipModels []models.PayslipModel) []payroll.Payslip {
	payslips := make([]payroll.Payslip, len(payslipModels))
	for i, model := range payslipModels {
		payslips[i] = *model.ToDomain()
	}
	return payslips
}

// Ensure GormPayslipRepository implements PayslipRepository
var _ payroll.PayslipRepository = (*GormPayslipRepository)(nil)
