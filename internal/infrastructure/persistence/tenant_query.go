package persistence

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TenantQuery answers cross-tenant scheduling questions. It is the only
// query path not scoped to a single tenant.
type TenantQuery struct {
	db *gorm.DB
}

// NewTenantQuery creates a new TenantQuery
func NewTenantQuery(db *gorm.DB) *TenantQuery {
	return &TenantQuery{db: db}
}

// TenantsWithInterestConfig lists tenants holding at least one open
// receivable with an interest configuration, for the daily accrual batch.
func (q *TenantQuery) TenantsWithInterestConfig(ctx context.Context) ([]uuid.UUID, error) {
	var tenantIDs []uuid.UUID
	err := q.db.WithContext(ctx).
		Table("receivables").
		Where("interest IS NOT NULL AND status IN ? AND removed_at IS NULL", []string{"PENDING", "PARTIAL"}).
		Distinct("tenant_id").
		Pluck("tenant_id", &tenantIDs).Error
	if err != nil {
		return nil, err
	}
	return tenantIDs, nil
}
