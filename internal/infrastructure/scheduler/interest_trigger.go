package scheduler

import (
	"context"
	"sync"
	"time"

	appfinance "github.com/gestor/backend/internal/application/finance"
	"github.com/gestor/backend/internal/infrastructure/config"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TenantProvider lists the tenants eligible for the daily accrual run
type TenantProvider interface {
	TenantsWithInterestConfig(ctx context.Context) ([]uuid.UUID, error)
}

// InterestTrigger runs the daily interest accrual batch. It wakes up on a
// fixed check interval and fires at most once per calendar day, at or after
// the configured time.
type InterestTrigger struct {
	cfg      config.InterestConfig
	service  *appfinance.ReceivableService
	tenants  TenantProvider
	logger   *zap.Logger

	cancel      context.CancelFunc
	wg          sync.WaitGroup
	mu          sync.Mutex
	running     bool
	lastRunDate string
}

// NewInterestTrigger creates a new InterestTrigger
func NewInterestTrigger(cfg config.InterestConfig, service *appfinance.ReceivableService, tenants TenantProvider, logger *zap.Logger) *InterestTrigger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InterestTrigger{
		cfg:     cfg,
		service: service,
		tenants: tenants,
		logger:  logger,
	}
}

// Start starts the trigger loop
func (t *InterestTrigger) Start(ctx context.Context) error {
	t.mu.Lock()
	if t.running {
		t.mu.Unlock()
		return nil
	}
	t.running = true
	t.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	t.cancel = cancel

	t.wg.Add(1)
	go t.runLoop(ctx)

	t.logger.Info("interest accrual trigger started",
		zap.Int("hour", t.cfg.AccrualHour),
		zap.Int("minute", t.cfg.AccrualMinute))
	return nil
}

// Stop stops the trigger loop and waits for an in-flight run to finish
func (t *InterestTrigger) Stop() {
	t.mu.Lock()
	if !t.running {
		t.mu.Unlock()
		return
	}
	t.running = false
	t.mu.Unlock()

	if t.cancel != nil {
		t.cancel()
	}
	t.wg.Wait()
	t.logger.Info("interest accrual trigger stopped")
}

func (t *InterestTrigger) runLoop(ctx context.Context) {
	defer t.wg.Done()

	ticker := time.NewTicker(t.cfg.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if t.shouldRun(now) {
				t.runBatch(ctx, now)
			}
		}
	}
}

// shouldRun reports whether the configured time of day has passed and the
// batch has not run yet today.
func (t *InterestTrigger) shouldRun(now time.Time) bool {
	target := time.Date(now.Year(), now.Month(), now.Day(), t.cfg.AccrualHour, t.cfg.AccrualMinute, 0, 0, now.Location())
	if now.Before(target) {
		return false
	}

	today := now.Format("2006-01-02")
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.lastRunDate == today {
		return false
	}
	t.lastRunDate = today
	return true
}

// runBatch applies interest for every eligible tenant. A failing tenant is
// logged and does not stop the others.
func (t *InterestTrigger) runBatch(ctx context.Context, now time.Time) {
	tenantIDs, err := t.tenants.TenantsWithInterestConfig(ctx)
	if err != nil {
		t.logger.Error("listing tenants for interest accrual failed", zap.Error(err))
		return
	}

	t.logger.Info("interest accrual batch starting",
		zap.Int("tenants", len(tenantIDs)),
		zap.Time("run_at", now))

	for _, tenantID := range tenantIDs {
		result, err := t.service.ApplyInterestBatch(ctx, tenantID)
		if err != nil {
			t.logger.Error("interest accrual failed for tenant",
				zap.String("tenant_id", tenantID.String()),
				zap.Error(err))
			continue
		}
		t.logger.Info("interest accrual completed for tenant",
			zap.String("tenant_id", tenantID.String()),
			zap.Int("applied", len(result.Applied)),
			zap.Int("failed", len(result.Failed)),
			zap.Int("skipped", result.Skipped))
	}
}
