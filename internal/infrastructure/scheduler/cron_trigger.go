package scheduler

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TenantProvider lists the tenants to reconcile
type TenantProvider interface {
	ListTenantIDs(ctx context.Context) ([]uuid.UUID, error)
}

// CronTriggerConfig holds configuration for the daily trigger
type CronTriggerConfig struct {
	Hour          int
	Minute        int
	CheckInterval time.Duration
}

// DefaultCronTriggerConfig runs daily at 03:00
func DefaultCronTriggerConfig() CronTriggerConfig {
	return CronTriggerConfig{
		Hour:          3,
		Minute:        0,
		CheckInterval: time.Minute,
	}
}

// ParseCronSchedule reads the minute and hour fields of a five-field cron
// expression. Only fixed daily schedules are supported; an empty expression
// yields the default 03:00.
func ParseCronSchedule(cronExpr string) (hour, minute int, err error) {
	def := DefaultCronTriggerConfig()
	parts := strings.Fields(cronExpr)
	if len(parts) == 0 {
		return def.Hour, def.Minute, nil
	}
	if len(parts) != 5 {
		return 0, 0, fmt.Errorf("%w: expected 5 fields, got %d", ErrInvalidSchedule, len(parts))
	}
	for _, f := range parts[2:] {
		if f != "*" {
			return 0, 0, fmt.Errorf("%w: only daily schedules are supported", ErrInvalidSchedule)
		}
	}

	minute, err = strconv.Atoi(parts[0])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("%w: minute must be 0-59, got %q", ErrInvalidSchedule, parts[0])
	}
	hour, err = strconv.Atoi(parts[1])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("%w: hour must be 0-23, got %q", ErrInvalidSchedule, parts[1])
	}
	return hour, minute, nil
}

// CronTrigger submits one reconciliation job per tenant once a day
type CronTrigger struct {
	config         CronTriggerConfig
	scheduler      *Scheduler
	tenantProvider TenantProvider
	logger         *zap.Logger
	now            func() time.Time

	cancel      context.CancelFunc
	wg          sync.WaitGroup
	mu          sync.Mutex
	isRunning   bool
	lastRunDate string
}

// NewCronTrigger creates a new cron trigger
func NewCronTrigger(
	config CronTriggerConfig,
	scheduler *Scheduler,
	tenantProvider TenantProvider,
	logger *zap.Logger,
) *CronTrigger {
	if config.CheckInterval <= 0 {
		config.CheckInterval = time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CronTrigger{
		config:         config,
		scheduler:      scheduler,
		tenantProvider: tenantProvider,
		logger:         logger,
		now:            time.Now,
	}
}

// Start starts the check loop
func (c *CronTrigger) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.isRunning {
		return nil
	}
	c.isRunning = true

	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel

	c.wg.Add(1)
	go c.runLoop(ctx)

	c.logger.Info("Reconciliation trigger started",
		zap.String("daily_at", fmt.Sprintf("%02d:%02d", c.config.Hour, c.config.Minute)),
		zap.Duration("check_interval", c.config.CheckInterval),
	)
	return nil
}

// Stop stops the check loop
func (c *CronTrigger) Stop(ctx context.Context) error {
	c.mu.Lock()
	if !c.isRunning {
		c.mu.Unlock()
		return nil
	}
	c.isRunning = false
	c.mu.Unlock()

	if c.cancel != nil {
		c.cancel()
	}

	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		c.logger.Info("Reconciliation trigger stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *CronTrigger) runLoop(ctx context.Context) {
	defer c.wg.Done()

	ticker := time.NewTicker(c.config.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.checkAndTrigger(ctx)
		}
	}
}

// checkAndTrigger fires at most once per calendar day, on the first check at
// or after the scheduled time
func (c *CronTrigger) checkAndTrigger(ctx context.Context) bool {
	now := c.now()
	if !c.shouldRun(now) {
		return false
	}

	currentDate := now.Format("2006-01-02")
	c.mu.Lock()
	if c.lastRunDate == currentDate {
		c.mu.Unlock()
		return false
	}
	c.lastRunDate = currentDate
	c.mu.Unlock()

	c.logger.Info("Triggering daily ledger reconciliation")
	if _, err := c.TriggerNow(ctx); err != nil {
		c.logger.Error("Daily ledger reconciliation not scheduled", zap.Error(err))
	}
	return true
}

// shouldRun reports whether today's scheduled time has passed. A tick that
// lands late, after a pause or a slow check, still fires that day.
func (c *CronTrigger) shouldRun(now time.Time) bool {
	scheduled := time.Date(now.Year(), now.Month(), now.Day(), c.config.Hour, c.config.Minute, 0, 0, now.Location())
	return !now.Before(scheduled)
}

// TriggerNow queues a reconciliation job for every tenant and returns how
// many were queued. Per-tenant submit failures are logged and skipped.
func (c *CronTrigger) TriggerNow(ctx context.Context) (int, error) {
	tenantIDs, err := c.tenantProvider.ListTenantIDs(ctx)
	if err != nil {
		return 0, fmt.Errorf("list tenants: %w", err)
	}

	queued := 0
	for _, tenantID := range tenantIDs {
		if err := c.scheduler.ScheduleReconciliation(tenantID); err != nil {
			c.logger.Error("Failed to schedule reconciliation",
				zap.String("tenant_id", tenantID.String()),
				zap.Error(err),
			)
			continue
		}
		queued++
	}

	c.logger.Info("Reconciliation jobs queued",
		zap.Int("tenants", len(tenantIDs)),
		zap.Int("queued", queued),
	)
	return queued, nil
}
