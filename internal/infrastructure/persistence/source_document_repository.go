package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gestor/backend/internal/domain/payroll"
	"github.com/gestor/backend/internal/domain/shared"
	"github.com/gestor/backend/internal/domain/trade"
	"github.com/gestor/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	sequenceMaxRetries   = 3
	sequenceRetryBackoff = 50 * time.Millisecond
)

// GormSourceDocumentRepository implements SourceDocumentRepository using GORM
type GormSourceDocumentRepository struct {
	db *gorm.DB
}

// NewGormSourceDocumentRepository creates a new GormSourceDocumentRepository
func NewGormSourceDocumentRepository(db *gorm.DB) *GormSourceDocumentRepository {
	return &GormSourceDocumentRepository{db: db}
}

// FindByIDForTenant retrieves a document scoped to a tenant
func (r *GormSourceDocumentRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*trade.SourceDocument, error) {
	var model models.SourceDocumentModel
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

// FindByNumber retrieves a document by its sequential number
func (r *GormSourceDocumentRepository) FindByNumber(ctx context.Context, tenantID uuid.UUID, documentNumber string) (*trade.SourceDocument, error) {
	var model models.SourceDocumentModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND document_number = ? AND removed_at IS NULL", tenantID, documentNumber).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAllForTenant retrieves documents with pagination
func (r *GormSourceDocumentRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter trade.DocumentFilter) ([]*trade.SourceDocument, error) {
	var documentModels []models.SourceDocumentModel
	query := r.applyDocumentFilter(
		r.db.WithContext(ctx).Model(&models.SourceDocumentModel{}).
			Where("tenant_id = ? AND removed_at IS NULL", tenantID),
		filter,
	)
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
		query = query.Order("issued_at DESC")
	}

	if err := query.Find(&documentModels).Error; err != nil {
		return nil, err
	}

	documents := make([]*trade.SourceDocument, len(documentModels))
	for i := range documentModels {
		documents[i] = documentModels[i].ToDomain()
	}
	return documents, nil
}

// FindByCustomerWindow retrieves documents for a customer issued within [from, to]
func (r *GormSourceDocumentRepository) FindByCustomerWindow(ctx context.Context, tenantID, customerID uuid.UUID, from, to time.Time) ([]*trade.SourceDocument, error) {
	var documentModels []models.SourceDocumentModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND customer_id = ? AND issued_at >= ? AND issued_at <= ? AND removed_at IS NULL",
			tenantID, customerID, from, to).
		Order("issued_at ASC").
		Find(&documentModels).Error; err != nil {
		return nil, err
	}

	documents := make([]*trade.SourceDocument, len(documentModels))
	for i := range documentModels {
		documents[i] = documentModels[i].ToDomain()
	}
	return documents, nil
}

// CountForTenant counts documents matching the filter
func (r *GormSourceDocumentRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter trade.DocumentFilter) (int64, error) {
	var count int64
	query := r.applyDocumentFilter(
		r.db.WithContext(ctx).Model(&models.SourceDocumentModel{}).
			Where("tenant_id = ? AND removed_at IS NULL", tenantID),
		filter,
	)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// applyDocumentFilter applies the typed document predicates and free-text search
func (r *GormSourceDocumentRepository) applyDocumentFilter(query *gorm.DB, filter trade.DocumentFilter) *gorm.DB {
	if filter.Kind != nil {
		query = query.Where("kind = ?", string(*filter.Kind))
	}
	if filter.Status != nil {
		query = query.Where("status = ?", string(*filter.Status))
	}
	if filter.CustomerID != nil {
		query = query.Where("customer_id = ?", *filter.CustomerID)
	}
	if filter.Search != "" {
		searchPattern := "%" + filter.Search + "%"
		query = query.Where("document_number ILIKE ? OR customer_name ILIKE ?", searchPattern, searchPattern)
	}
	return query
}

// Save persists a document (insert or update)
func (r *GormSourceDocumentRepository) Save(ctx context.Context, doc *trade.SourceDocument) error {
	model := models.SourceDocumentModelFromDomain(doc)
	return r.db.WithContext(ctx).Save(model).Error
}

// Remove tombstones a document
func (r *GormSourceDocumentRepository) Remove(ctx context.Context, tenantID, id uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Model(&models.SourceDocumentModel{}).
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

// GenerateNumber produces the next sequential document number for the kind.
// The per-(tenant, kind) counter row is advanced under a FOR UPDATE lock so
// concurrent creations never receive the same number; lock contention is
// retried a bounded number of times with backoff.
func (r *GormSourceDocumentRepository) GenerateNumber(ctx context.Context, tenantID uuid.UUID, kind trade.DocumentKind) (string, error) {
	var lastErr error
	for attempt := 0; attempt < sequenceMaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(time.Duration(attempt) * sequenceRetryBackoff):
			}
		}

		number, err := r.nextNumber(ctx, tenantID, kind)
		if err == nil {
			return number, nil
		}
		lastErr = err
	}
	return "", fmt.Errorf("generate document number: %w", lastErr)
}

func (r *GormSourceDocumentRepository) nextNumber(ctx context.Context, tenantID uuid.UUID, kind trade.DocumentKind) (string, error) {
	var value int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Ensure the counter row exists before locking it
		if err := tx.
			Clauses(clause.OnConflict{DoNothing: true}).
			Create(&models.DocumentSequenceModel{
				TenantID:  tenantID,
				Kind:      kind,
				NextValue: 1,
				UpdatedAt: time.Now(),
			}).Error; err != nil {
			return err
		}

		var seq models.DocumentSequenceModel
		if err := tx.
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("tenant_id = ? AND kind = ?", tenantID, kind).
			First(&seq).Error; err != nil {
			return err
		}

		value = seq.NextValue
		return tx.Model(&models.DocumentSequenceModel{}).
			Where("tenant_id = ? AND kind = ?", tenantID, kind).
			Updates(map[string]interface{}{
				"next_value": seq.NextValue + 1,
				"updated_at": time.Now(),
			}).Error
	})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s-%06d", kind.NumberPrefix(), value), nil
}

// SumCreditConsumption totals deferred-credit payments on documents for the
// customer within the window. Documents sold by excludeSellerID are skipped
// so employees cannot settle their own sales as consumption, and documents
// whose credit exceeds 110% of the total are ignored as corrupt data.
func (r *GormSourceDocumentRepository) SumCreditConsumption(ctx context.Context, tenantID, customerID, excludeSellerID uuid.UUID, from, to time.Time) (decimal.Decimal, error) {
	var result struct {
		Total decimal.Decimal
	}
	err := r.db.WithContext(ctx).Raw(`
		SELECT COALESCE(SUM(credit), 0) AS total FROM (
			SELECT
				(SELECT COALESCE(SUM((p->>'amount')::numeric), 0)
				 FROM jsonb_array_elements(payments) p
				 WHERE p->>'method' = ?) AS credit,
				total
			FROM source_documents
			WHERE tenant_id = ?
			  AND customer_id = ?
			  AND (seller_id IS NULL OR seller_id <> ?)
			  AND status <> ?
			  AND issued_at >= ?
			  AND issued_at <= ?
			  AND removed_at IS NULL
		) d
		WHERE d.credit > 0 AND d.credit <= d.total * 1.1
	`, trade.PaymentMethodCredit, tenantID, customerID, excludeSellerID,
		trade.DocumentStatusCancelled, from, to).Scan(&result).Error
	if err != nil {
		return decimal.Zero, err
	}
	return result.Total, nil
}

// Ensure GormSourceDocumentRepository implements SourceDocumentRepository
var _ trade.SourceDocumentRepository = (*GormSourceDocumentRepository)(nil)

// ConsumptionQuery adapts the source document repository to the payroll
// closing engine's consumption source.
type ConsumptionQuery struct {
	documents *GormSourceDocumentRepository
}

// NewConsumptionQuery creates a ConsumptionQuery
func NewConsumptionQuery(documents *GormSourceDocumentRepository) *ConsumptionQuery {
	return &ConsumptionQuery{documents: documents}
}

// SumCreditConsumption implements payroll.ConsumptionSource
func (q *ConsumptionQuery) SumCreditConsumption(ctx context.Context, tenantID, customerID, excludeSellerID uuid.UUID, window payroll.OpenWindow) (decimal.Decimal, error) {
	return q.documents.SumCreditConsumption(ctx, tenantID, customerID, excludeSellerID, window.From, window.To)
}

// Ensure ConsumptionQuery implements ConsumptionSource
var _ payroll.ConsumptionSource = (*ConsumptionQuery)(nil)
