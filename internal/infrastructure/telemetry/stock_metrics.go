package telemetry

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/erp/pos/internal/domain/inventory"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

const defaultCollectInterval = time.Minute

// ErrMeterNil is returned when StockMetrics is built without a meter.
var ErrMeterNil = errors.New("telemetry: meter cannot be nil")

// LowStockProvider supplies the gauge values collected on a timer.
type LowStockProvider interface {
	TenantIDs(ctx context.Context) ([]uuid.UUID, error)
	CountLowStock(ctx context.Context, tenantID uuid.UUID) (int64, error)
}

// StockMetrics records stock movement counters and the low-stock gauge.
type StockMetrics struct {
	logger *zap.Logger

	movements      *Counter
	movedUnits     *Counter
	transfers      *Counter
	lowStockAlerts *Counter
	lowStockCount  *Gauge
	balanceDrift   *Gauge

	provider    LowStockProvider
	stop        chan struct{}
	stopOnce    sync.Once
	collectOnce sync.Once
}

// StockMetricsConfig configures StockMetrics.
type StockMetricsConfig struct {
	Meter    metric.Meter
	Logger   *zap.Logger
	Provider LowStockProvider
}

// NewStockMetrics creates every instrument up front.
func NewStockMetrics(cfg StockMetricsConfig) (*StockMetrics, error) {
	if cfg.Meter == nil {
		return nil, ErrMeterNil
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	m := &StockMetrics{logger: logger, provider: cfg.Provider, stop: make(chan struct{})}

	var err error
	if m.movements, err = NewCounter(cfg.Meter, "pos_stock_movements_total",
		"Number of ledger rows written", "{movements}"); err != nil {
		return nil, err
	}
	if m.movedUnits, err = NewCounter(cfg.Meter, "pos_stock_moved_units_total",
		"Units moved by ledger rows", "{units}"); err != nil {
		return nil, err
	}
	if m.transfers, err = NewCounter(cfg.Meter, "pos_stock_transfers_total",
		"Completed store-to-store transfers", "{transfers}"); err != nil {
		return nil, err
	}
	if m.lowStockAlerts, err = NewCounter(cfg.Meter, "pos_low_stock_alerts_total",
		"Balances that crossed their low-stock threshold", "{alerts}"); err != nil {
		return nil, err
	}
	if m.lowStockCount, err = NewGauge(cfg.Meter, "pos_inventory_low_stock_count",
		"Balance rows at or below their low-stock threshold", "{rows}"); err != nil {
		return nil, err
	}
	if m.balanceDrift, err = NewGauge(cfg.Meter, "pos_inventory_balance_drift_rows",
		"Balance rows whose quantity disagrees with the ledger at the last reconciliation", "{rows}"); err != nil {
		return nil, err
	}
	return m, nil
}

// RecordMovement counts one ledger row of the given type.
func (m *StockMetrics) RecordMovement(ctx context.Context, tenantID uuid.UUID, txType inventory.TransactionType, units int) {
	attrs := []attribute.KeyValue{
		AttrTenantID.String(tenantID.String()),
		AttrMovementType.String(string(txType)),
	}
	m.movements.Inc(ctx, attrs...)
	m.movedUnits.Add(ctx, int64(units), attrs...)
}

// RecordTransfer counts a transfer and its two ledger rows.
func (m *StockMetrics) RecordTransfer(ctx context.Context, tenantID uuid.UUID, units int) {
	m.transfers.Inc(ctx, AttrTenantID.String(tenantID.String()))
	m.RecordMovement(ctx, tenantID, inventory.TransactionTypeTransferOut, units)
	m.RecordMovement(ctx, tenantID, inventory.TransactionTypeTransferIn, units)
}

// RecordLowStockAlert counts a threshold crossing.
func (m *StockMetrics) RecordLowStockAlert(ctx context.Context, tenantID, storeID uuid.UUID) {
	m.lowStockAlerts.Inc(ctx,
		AttrTenantID.String(tenantID.String()),
		AttrStoreID.String(storeID.String()),
	)
}

// RecordLowStockCount sets the low-stock gauge for a tenant.
func (m *StockMetrics) RecordLowStockCount(ctx context.Context, tenantID uuid.UUID, count int64) {
	m.lowStockCount.Record(ctx, count, AttrTenantID.String(tenantID.String()))
}

// RecordBalanceDrift sets the drift gauge for a tenant after a reconciliation run.
func (m *StockMetrics) RecordBalanceDrift(ctx context.Context, tenantID uuid.UUID, rows int64) {
	m.balanceDrift.Record(ctx, rows, AttrTenantID.String(tenantID.String()))
}

// StartPeriodicCollection refreshes the gauge every interval until Stop or
// ctx is done. Only the first call starts a collector.
func (m *StockMetrics) StartPeriodicCollection(ctx context.Context, interval time.Duration) {
	if m.provider == nil {
		return
	}
	m.collectOnce.Do(func() {
		if interval <= 0 {
			interval = defaultCollectInterval
		}
		go m.runCollection(ctx, interval)
	})
}

func (m *StockMetrics) runCollection(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	m.Collect(ctx)
	for {
		select {
		case <-m.stop:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Collect(ctx)
		}
	}
}

// Collect refreshes the low-stock gauge once for every tenant.
func (m *StockMetrics) Collect(ctx context.Context) {
	if m.provider == nil {
		return
	}
	ctx, span := StartSpan(ctx, "stock_metrics.collect")
	defer span.End()

	tenantIDs, err := m.provider.TenantIDs(ctx)
	if err != nil {
		RecordError(span, err)
		m.logger.Error("Failed to list tenants for stock metrics", zap.Error(err))
		return
	}
	for _, tenantID := range tenantIDs {
		count, err := m.provider.CountLowStock(ctx, tenantID)
		if err != nil {
			m.logger.Warn("Failed to count low stock",
				zap.String("tenant_id", tenantID.String()),
				zap.Error(err),
			)
			continue
		}
		m.RecordLowStockCount(ctx, tenantID, count)
	}
}

// Stop ends periodic collection.
func (m *StockMetrics) Stop() {
	m.stopOnce.Do(func() { close(m.stop) })
}
