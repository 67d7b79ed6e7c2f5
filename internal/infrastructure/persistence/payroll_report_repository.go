package persistence

import (
	"context"

	"github.com/gestor/backend/internal/domain/payroll"
	"github.com/gestor/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormPayrollReportRepository implements ReportRepository using GORM
type GormPayrollReportRepository struct {
	db *gorm.DB
}

// NewGormPayrollReportRepository creates a new GormPayrollReportRepository
func NewGormPayrollReportRepository(db *gorm.DB) *GormPayrollReportRepository {
	return &GormPayrollReportRepository{db: db}
}

// Upsert overwrites the cached row for (tenant, employee, month, year)
func (r *GormPayrollReportRepository) Upsert(ctx context.Context, row *payroll.MonthlyReportRow) error {
	model := &models.MonthlyReportRowModel{}
	model.FromDomain(row)
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "tenant_id"}, {Name: "employee_id"}, {Name: "month"}, {Name: "year"},
			},
			DoUpdates: clause.AssignmentColumns([]string{
				"employee_name", "base_salary", "total_advances", "total_absences",
				"total_consumption", "total_commission", "gross_salary", "net_salary",
				"computed_at", "updated_at",
			}),
		}).
		Create(model).Error
}

// FindForPeriod returns the cached rows of a period
func (r *GormPayrollReportRepository) FindForPeriod(ctx context.Context, tenantID uuid.UUID, period payroll.Period) ([]payroll.MonthlyReportRow, error) {
	var rowModels []models.MonthlyReportRowModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND month = ? AND year = ?", tenantID, period.Month, period.Year).
		Order("employee_name ASC").
		Find(&rowModels).Error; err != nil {
		return nil, err
	}

	rows := make([]payroll.MonthlyReportRow, len(rowModels))
	for i, model := range rowModels {
		rows[i] = *model.ToDomain()
	}
	return rows, nil
}

// Ensure GormPayrollReportRepository implements ReportRepository
var _ payroll.ReportRepository = (*GormPayrollReportRepository)(nil)
