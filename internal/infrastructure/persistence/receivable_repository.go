package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gestor/backend/internal/domain/finance"
	"github.com/gestor/backend/internal/domain/shared"
	"github.com/gestor/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormReceivableRepository implements ReceivableRepository using GORM
type GormReceivableRepository struct {
	db *gorm.DB
}

// NewGormReceivableRepository creates a new GormReceivableRepository
func NewGormReceivableRepository(db *gorm.DB) *GormReceivableRepository {
	return &GormReceivableRepository{db: db}
}

// FindByIDForTenant finds a receivable by ID for a specific tenant
func (r *GormReceivableRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*finance.Receivable, error) {
	var model models.ReceivableModel
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

// FindByNumber finds by receivable number for a tenant
func (r *GormReceivableRepository) FindByNumber(ctx context.Context, tenantID uuid.UUID, number string) (*finance.Receivable, error) {
	var model models.ReceivableModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND receivable_number = ? AND removed_at IS NULL", tenantID, number).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindDuplicate finds an existing receivable matching the idempotency key:
// same debtor, same amount, same calendar day of issue and same origin.
func (r *GormReceivableRepository) FindDuplicate(ctx context.Context, tenantID, debtorID uuid.UUID, amount decimal.Decimal, issueDate time.Time, originKind finance.OriginKind, originID uuid.UUID) (*finance.Receivable, error) {
	dayStart := time.Date(issueDate.Year(), issueDate.Month(), issueDate.Day(), 0, 0, 0, 0, issueDate.Location())
	dayEnd := dayStart.AddDate(0, 0, 1)

	var model models.ReceivableModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND debtor_id = ? AND original_amount = ? AND origin_kind = ? AND origin_id = ? AND issue_date >= ? AND issue_date < ? AND removed_at IS NULL",
			tenantID, debtorID, amount, originKind, originID, dayStart, dayEnd).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByOrigin finds all receivables linked to an origin document
func (r *GormReceivableRepository) FindByOrigin(ctx context.Context, tenantID uuid.UUID, originKind finance.OriginKind, originID uuid.UUID) ([]finance.Receivable, error) {
	var receivableModels []models.ReceivableModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND origin_kind = ? AND origin_id = ? AND removed_at IS NULL", tenantID, originKind, originID).
		Order("created_at ASC").
		Find(&receivableModels).Error; err != nil {
		return nil, err
	}
	return toDomainReceivables(receivableModels), nil
}

// FindInstallments finds the children of a split receivable ordered by sequence
func (r *GormReceivableRepository) FindInstallments(ctx context.Context, tenantID, parentID uuid.UUID) ([]finance.Receivable, error) {
	var receivableModels []models.ReceivableModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND parent_id = ? AND removed_at IS NULL", tenantID, parentID).
		Order("installment_seq ASC").
		Find(&receivableModels).Error; err != nil {
		return nil, err
	}
	return toDomainReceivables(receivableModels), nil
}

// FindAllForTenant finds all receivables for a tenant with filtering
func (r *GormReceivableRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter finance.ReceivableFilter) ([]finance.Receivable, error) {
	var receivableModels []models.ReceivableModel
	query := r.db.WithContext(ctx).Model(&models.ReceivableModel{}).
		Where("tenant_id = ? AND removed_at IS NULL", tenantID)
	query = r.applyFilter(query, filter)

	if err := query.Find(&receivableModels).Error; err != nil {
		return nil, err
	}
	return toDomainReceivables(receivableModels), nil
}

// FindInterestEligible finds non-settled receivables carrying an interest
// configuration whose start date has been reached
func (r *GormReceivableRepository) FindInterestEligible(ctx context.Context, tenantID uuid.UUID, asOf time.Time) ([]finance.Receivable, error) {
	var receivableModels []models.ReceivableModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND status IN ? AND interest IS NOT NULL AND (interest->>'start_date')::timestamptz <= ? AND removed_at IS NULL",
			tenantID,
			[]finance.ReceivableStatus{finance.ReceivableStatusPending, finance.ReceivableStatusPartial},
			asOf).
		Order("created_at ASC").
		Find(&receivableModels).Error; err != nil {
		return nil, err
	}
	return toDomainReceivables(receivableModels), nil
}

// CountForTenant counts receivables for a tenant
func (r *GormReceivableRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter finance.ReceivableFilter) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&models.ReceivableModel{}).
		Where("tenant_id = ? AND removed_at IS NULL", tenantID)
	query = r.applyFilterWithoutPagination(query, filter)

	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// SumPendingByDebtor calculates total pending amount for a debtor
func (r *GormReceivableRepository) SumPendingByDebtor(ctx context.Context, tenantID, debtorID uuid.UUID) (decimal.Decimal, error) {
	var result struct {
		Total decimal.Decimal
	}
	if err := r.db.WithContext(ctx).
		Model(&models.ReceivableModel{}).
		Select("COALESCE(SUM(pending_amount), 0) as total").
		Where("tenant_id = ? AND debtor_id = ? AND status IN ? AND removed_at IS NULL", tenantID, debtorID,
			[]finance.ReceivableStatus{finance.ReceivableStatusPending, finance.ReceivableStatusPartial}).
		Scan(&result).Error; err != nil {
		return decimal.Zero, err
	}
	return result.Total, nil
}

// Save creates or updates a receivable
func (r *GormReceivableRepository) Save(ctx context.Context, receivable *finance.Receivable) error {
	model := models.ReceivableModelFromDomain(receivable)
	return r.db.WithContext(ctx).Save(model).Error
}

// Remove tombstones a receivable for a tenant
func (r *GormReceivableRepository) Remove(ctx context.Context, tenantID, id uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Model(&models.ReceivableModel{}).
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

// GenerateNumber produces the next receivable number for the tenant, in the
// format RC-YYYYMMDD-XXXXX. The per-(tenant, day) counter row is advanced
// under a FOR UPDATE lock so concurrent creations never receive the same
// number; lock contention is retried a bounded number of times with backoff.
func (r *GormReceivableRepository) GenerateNumber(ctx context.Context, tenantID uuid.UUID) (string, error) {
	day := time.Now().Format("20060102")

	var lastErr error
	for attempt := 0; attempt < sequenceMaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(time.Duration(attempt) * sequenceRetryBackoff):
			}
		}

		number, err := r.nextNumber(ctx, tenantID, day)
		if err == nil {
			return number, nil
		}
		lastErr = err
	}
	return "", fmt.Errorf("generate receivable number: %w", lastErr)
}

func (r *GormReceivableRepository) nextNumber(ctx context.Context, tenantID uuid.UUID, day string) (string, error) {
	var value int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Ensure the counter row exists before locking it
		if err := tx.
			Clauses(clause.OnConflict{DoNothing: true}).
			Create(&models.ReceivableSequenceModel{
				TenantID:  tenantID,
				Day:       day,
				NextValue: 1,
				UpdatedAt: time.Now(),
			}).Error; err != nil {
			return err
		}

		var seq models.ReceivableSequenceModel
		if err := tx.
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("tenant_id = ? AND day = ?", tenantID, day).
			First(&seq).Error; err != nil {
			return err
		}

		value = seq.NextValue
		return tx.Model(&models.ReceivableSequenceModel{}).
			Where("tenant_id = ? AND day = ?", tenantID, day).
			Updates(map[string]interface{}{
				"next_value": seq.NextValue + 1,
				"updated_at": time.Now(),
			}).Error
	})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("RC-%s-%05d", day, value), nil
}

// applyFilter applies filter options to the query
func (r *GormReceivableRepository) applyFilter(query *gorm.DB, filter finance.ReceivableFilter) *gorm.DB {
	query = r.applyFilterWithoutPagination(query, filter)

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
		query = query.Order("created_at DESC")
	}

	return query
}

// applyFilterWithoutPagination applies filter options without pagination
func (r *GormReceivableRepository) applyFilterWithoutPagination(query *gorm.DB, filter finance.ReceivableFilter) *gorm.DB {
	if filter.Search != "" {
		searchPattern := "%" + filter.Search + "%"
		query = query.Where("receivable_number ILIKE ? OR debtor_name ILIKE ? OR origin_number ILIKE ?",
			searchPattern, searchPattern, searchPattern)
	}

	if filter.DebtorID != nil {
		query = query.Where("debtor_id = ?", *filter.DebtorID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.OriginKind != nil {
		query = query.Where("origin_kind = ?", *filter.OriginKind)
	}
	if filter.OriginID != nil {
		query = query.Where("origin_id = ?", *filter.OriginID)
	}
	if filter.ParentID != nil {
		query = query.Where("parent_id = ?", *filter.ParentID)
	}
	if filter.FromDate != nil {
		query = query.Where("issue_date >= ?", *filter.FromDate)
	}
	if filter.ToDate != nil {
		query = query.Where("issue_date <= ?", *filter.ToDate)
	}
	if filter.DueFrom != nil {
		query = query.Where("due_date >= ?", *filter.DueFrom)
	}
	if filter.DueTo != nil {
		query = query.Where("due_date <= ?", *filter.DueTo)
	}
	if filter.Overdue != nil && *filter.Overdue {
		query = query.Where("due_date < ? AND status IN ?", time.Now(),
			[]finance.ReceivableStatus{finance.ReceivableStatusPending, finance.ReceivableStatusPartial})
	}

	return query
}

func toDomainReceivables(receivableModels []models.ReceivableModel) []finance.Receivable {
	receivables := make([]finance.Receivable, len(receivableModels))
	for i, model := range receivableModels {
		receivables[i] = *model.ToDomain()
	}
	return receivables
}

// Ensure GormReceivableRepository implements ReceivableRepository
var _ finance.ReceivableRepository = (*GormReceivableRepository)(nil)
