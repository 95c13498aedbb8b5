package inventory

import (
	"context"
	"fmt"

	"github.com/erp/pos/internal/domain/inventory"
	"github.com/erp/pos/internal/domain/shared"
	"go.uber.org/zap"
)

// StockAlertNotifier delivers low-stock alerts to a channel (log, email, push)
type StockAlertNotifier interface {
	SendAlert(ctx context.Context, alert StockAlert) error
}

// StockAlert represents a stock level alert
type StockAlert struct {
	TenantID    string `json:"tenant_id"`
	InventoryID string `json:"inventory_id"`
	StoreID     string `json:"store_id"`
	ProductID   string `json:"product_id"`
	Quantity    int    `json:"quantity"`
	Threshold   int    `json:"threshold"`
	AlertType   string `json:"alert_type"` // "low_stock", "out_of_stock"
}

// LowStockAlertHandler handles StockBelowThreshold events
type LowStockAlertHandler struct {
	logger   *zap.Logger
	notifier StockAlertNotifier
}

// NewLowStockAlertHandler creates a new handler for low stock events
func NewLowStockAlertHandler(logger *zap.Logger) *LowStockAlertHandler {
	return &LowStockAlertHandler{logger: logger}
}

// WithNotifier sets the notifier for sending alerts
func (h *LowStockAlertHandler) WithNotifier(notifier StockAlertNotifier) *LowStockAlertHandler {
	h.notifier = notifier
	return h
}

// EventTypes returns the event types this handler is interested in
func (h *LowStockAlertHandler) EventTypes() []string {
	return []string{inventory.EventTypeStockBelowThreshold}
}

// Handle processes a StockBelowThresholdEvent
func (h *LowStockAlertHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	e, ok := event.(*inventory.StockBelowThresholdEvent)
	if !ok {
		return fmt.Errorf("unexpected event type: expected %s, got %s",
			inventory.EventTypeStockBelowThreshold, event.EventType())
	}

	alertType := "low_stock"
	if e.Quantity == 0 {
		alertType = "out_of_stock"
	}

	h.logger.Warn("stock below threshold",
		zap.String("tenant_id", event.TenantID().String()),
		zap.String("store_id", e.StoreID.String()),
		zap.String("product_id", e.ProductID.String()),
		zap.Int("quantity", e.Quantity),
		zap.Int("threshold", e.Threshold),
		zap.String("alert_type", alertType),
	)

	if h.notifier == nil {
		return nil
	}

	alert := StockAlert{
		TenantID:    event.TenantID().String(),
		InventoryID: e.InventoryID.String(),
		StoreID:     e.StoreID.String(),
		ProductID:   e.ProductID.String(),
		Quantity:    e.Quantity,
		Threshold:   e.Threshold,
		AlertType:   alertType,
	}
	if err := h.notifier.SendAlert(ctx, alert); err != nil {
		// Notification failure doesn't fail event handling
		h.logger.Error("failed to send stock alert",
			zap.String("inventory_id", alert.InventoryID),
			zap.Error(err),
		)
	}
	return nil
}

var _ shared.EventHandler = (*LowStockAlertHandler)(nil)

// LoggingStockAlertNotifier writes alerts to the log
type LoggingStockAlertNotifier struct {
	logger *zap.Logger
}

// NewLoggingStockAlertNotifier creates a new logging notifier
func NewLoggingStockAlertNotifier(logger *zap.Logger) *LoggingStockAlertNotifier {
	return &LoggingStockAlertNotifier{logger: logger}
}

// SendAlert logs the stock alert
func (n *LoggingStockAlertNotifier) SendAlert(_ context.Context, alert StockAlert) error {
	n.logger.Warn("STOCK ALERT",
		zap.String("type", alert.AlertType),
		zap.String("product_id", alert.ProductID),
		zap.String("store_id", alert.StoreID),
		zap.Int("quantity", alert.Quantity),
		zap.Int("threshold", alert.Threshold),
	)
	return nil
}

var _ StockAlertNotifier = (*LoggingStockAlertNotifier)(nil)
