package telemetry

import (
	"context"

	"github.com/erp/pos/internal/domain/inventory"
	"github.com/erp/pos/internal/domain/shared"
)

// StockMetricsHandler feeds StockMetrics from committed stock events.
type StockMetricsHandler struct {
	metrics *StockMetrics
}

// NewStockMetricsHandler creates the handler.
func NewStockMetricsHandler(metrics *StockMetrics) *StockMetricsHandler {
	return &StockMetricsHandler{metrics: metrics}
}

// EventTypes lists the stock events this handler counts.
func (h *StockMetricsHandler) EventTypes() []string {
	return []string{
		inventory.EventTypeStockAdded,
		inventory.EventTypeStockRemoved,
		inventory.EventTypeStockTransferred,
		inventory.EventTypeStockBelowThreshold,
	}
}

// Handle records the event. Unknown payloads are ignored.
func (h *StockMetricsHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	switch e := event.(type) {
	case *inventory.StockAddedEvent:
		h.metrics.RecordMovement(ctx, e.TenantID(), inventory.TransactionTypeStockIn, e.Quantity)
	case *inventory.StockRemovedEvent:
		h.metrics.RecordMovement(ctx, e.TenantID(), inventory.TransactionTypeStockOut, e.Quantity)
	case *inventory.StockTransferredEvent:
		h.metrics.RecordTransfer(ctx, e.TenantID(), e.Quantity)
	case *inventory.StockBelowThresholdEvent:
		h.metrics.RecordLowStockAlert(ctx, e.TenantID(), e.StoreID)
	}
	return nil
}

var _ shared.EventHandler = (*StockMetricsHandler)(nil)
