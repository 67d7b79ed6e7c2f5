package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	apppayroll "github.com/gestor/backend/internal/application/payroll"
	"github.com/gestor/backend/internal/domain/payroll"
	"github.com/gestor/backend/internal/infrastructure/config"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisReportCache caches monthly payroll report rows in Redis.
// Cache misses and Redis failures are non-fatal: callers fall back to
// recomputing the report from the database.
type RedisReportCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisClient creates a Redis client from configuration
func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

// NewRedisReportCache creates a new RedisReportCache
func NewRedisReportCache(client *redis.Client, ttl time.Duration, logger *zap.Logger) *RedisReportCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisReportCache{
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

func reportKey(tenantID uuid.UUID, period payroll.Period) string {
	return fmt.Sprintf("payroll:report:%s:%04d-%02d", tenantID, period.Year, period.Month)
}

// GetReport returns the cached rows for a period, reporting a miss when the
// key is absent.
func (c *RedisReportCache) GetReport(ctx context.Context, tenantID uuid.UUID, period payroll.Period) ([]payroll.MonthlyReportRow, bool, error) {
	data, err := c.client.Get(ctx, reportKey(tenantID, period)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var rows []payroll.MonthlyReportRow
	if err := json.Unmarshal(data, &rows); err != nil {
		// Corrupt entry: treat as miss and drop it
		c.logger.Warn("discarding corrupt report cache entry",
			zap.String("tenant_id", tenantID.String()),
			zap.String("period", period.String()),
			zap.Error(err))
		c.client.Del(ctx, reportKey(tenantID, period))
		return nil, false, nil
	}
	return rows, true, nil
}

// SetReport stores the rows for a period with the configured TTL
func (c *RedisReportCache) SetReport(ctx context.Context, tenantID uuid.UUID, period payroll.Period, rows []payroll.MonthlyReportRow) error {
	data, err := json.Marshal(rows)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, reportKey(tenantID, period), data, c.ttl).Err()
}

// Invalidate removes the cached rows for a period
func (c *RedisReportCache) Invalidate(ctx context.Context, tenantID uuid.UUID, period payroll.Period) error {
	return c.client.Del(ctx, reportKey(tenantID, period)).Err()
}

// Ensure RedisReportCache implements ReportCache
var _ apppayroll.ReportCache = (*RedisReportCache)(nil)
