package persistence

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gestor/backend/internal/domain/finance"
	"github.com/gestor/backend/internal/domain/shared"
	"github.com/gestor/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormCashLedgerRepository implements CashLedgerRepository using GORM
type GormCashLedgerRepository struct {
	db *gorm.DB
}

// NewGormCashLedgerRepository creates a new GormCashLedgerRepository
func NewGormCashLedgerRepository(db *gorm.DB) *GormCashLedgerRepository {
	return &GormCashLedgerRepository{db: db}
}

// FindByIDForTenant finds a ledger entry by ID for a specific tenant
func (r *GormCashLedgerRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*finance.CashLedgerEntry, error) {
	var model models.CashLedgerEntryModel
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

// FindAllForTenant finds ledger entries for a tenant with filtering
func (r *GormCashLedgerRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter finance.CashLedgerFilter) ([]finance.CashLedgerEntry, error) {
	var entryModels []models.CashLedgerEntryModel
	query := r.db.WithContext(ctx).Model(&models.CashLedgerEntryModel{}).
		Where("tenant_id = ? AND removed_at IS NULL", tenantID)

	if filter.Direction != nil {
		query = query.Where("direction = ?", *filter.Direction)
	}
	if filter.Category != nil {
		query = query.Where("category = ?", *filter.Category)
	}
	if filter.FromDate != nil {
		query = query.Where("entry_date >= ?", *filter.FromDate)
	}
	if filter.ToDate != nil {
		query = query.Where("entry_date <= ?", *filter.ToDate)
	}
	if filter.Search != "" {
		query = query.Where("description ILIKE ?", "%"+filter.Search+"%")
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
		query = query.Order("entry_date DESC")
	}

	if err := query.Find(&entryModels).Error; err != nil {
		return nil, err
	}

	entries := make([]finance.CashLedgerEntry, len(entryModels))
	for i, model := range entryModels {
		entries[i] = *model.ToDomain()
	}
	return entries, nil
}

// FindByReceivable finds the entries emitted by a receivable's payments
func (r *GormCashLedgerRepository) FindByReceivable(ctx context.Context, tenantID, receivableID uuid.UUID) ([]finance.CashLedgerEntry, error) {
	var entryModels []models.CashLedgerEntryModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND receivable_id = ? AND removed_at IS NULL", tenantID, receivableID).
		Order("entry_date ASC").
		Find(&entryModels).Error; err != nil {
		return nil, err
	}

	entries := make([]finance.CashLedgerEntry, len(entryModels))
	for i, model := range entryModels {
		entries[i] = *model.ToDomain()
	}
	return entries, nil
}

// SumByDirection sums entry amounts for a direction within a date range
func (r *GormCashLedgerRepository) SumByDirection(ctx context.Context, tenantID uuid.UUID, direction finance.LedgerDirection, from, to time.Time) (decimal.Decimal, error) {
	var result struct {
		Total decimal.Decimal
	}
	if err := r.db.WithContext(ctx).
		Model(&models.CashLedgerEntryModel{}).
		Select("COALESCE(SUM(amount), 0) as total").
		Where("tenant_id = ? AND direction = ? AND entry_date >= ? AND entry_date <= ? AND removed_at IS NULL",
			tenantID, direction, from, to).
		Scan(&result).Error; err != nil {
		return decimal.Zero, err
	}
	return result.Total, nil
}

// Save persists a ledger entry
func (r *GormCashLedgerRepository) Save(ctx context.Context, entry *finance.CashLedgerEntry) error {
	model := models.CashLedgerEntryModelFromDomain(entry)
	return r.db.WithContext(ctx).Save(model).Error
}

// Ensure GormCashLedgerRepository implements CashLedgerRepository
var _ finance.CashLedgerRepository = (*GormCashLedgerRepository)(nil)
