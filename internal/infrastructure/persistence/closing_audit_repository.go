package persistence

import (
	"context"

	"github.com/gestor/backend/internal/domain/payroll"
	"github.com/gestor/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormClosingAuditRepository implements AuditRepository using GORM
type GormClosingAuditRepository struct {
	db *gorm.DB
}

// NewGormClosingAuditRepository creates a new GormClosingAuditRepository
func NewGormClosingAuditRepository(db *gorm.DB) *GormClosingAuditRepository {
	return &GormClosingAuditRepository{db: db}
}

// Append records an audit entry
func (r *GormClosingAuditRepository) Append(ctx context.Context, entry *payroll.ClosingAuditEntry) error {
	model := &models.ClosingAuditEntryModel{}
	model.FromDomain(entry)
	return r.db.WithContext(ctx).Create(model).Error
}

// FindForTenant returns audit entries, newest first
func (r *GormClosingAuditRepository) FindForTenant(ctx context.Context, tenantID uuid.UUID, limit int) ([]payroll.ClosingAuditEntry, error) {
	if limit <= 0 {
		limit = 50
	}

	var entryModels []models.ClosingAuditEntryModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("created_at DESC").
		Limit(limit).
		Find(&entryModels).Error; err != nil {
		return nil, err
	}

	entries := make([]payroll.ClosingAuditEntry, len(entryModels))
	for i, model := range entryModels {
		entries[i] = *model.ToDomain()
	}
	return entries, nil
}

// Ensure GormClosingAuditRepository implements AuditRepository
var _ payroll.AuditRepository = (*GormClosingAuditRepository)(nil)
