package inventory

import (
	"context"
	"errors"

	"github.com/erp/pos/internal/domain/inventory"
	"github.com/erp/pos/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// StockCacheInvalidator drops cached balances when stock moves
type StockCacheInvalidator struct {
	cache  StockLevelCache
	logger *zap.Logger
}

// NewStockCacheInvalidator creates a new StockCacheInvalidator
func NewStockCacheInvalidator(cache StockLevelCache, logger *zap.Logger) *StockCacheInvalidator {
	return &StockCacheInvalidator{cache: cache, logger: logger}
}

// EventTypes returns the event types this handler is interested in
func (h *StockCacheInvalidator) EventTypes() []string {
	return []string{
		inventory.EventTypeStockAdded,
		inventory.EventTypeStockRemoved,
		inventory.EventTypeStockTransferred,
	}
}

// Handle invalidates every product-store pair touched by the event
func (h *StockCacheInvalidator) Handle(ctx context.Context, event shared.DomainEvent) error {
	type pair struct{ productID, storeID uuid.UUID }
	var pairs []pair

	switch e := event.(type) {
	case *inventory.StockAddedEvent:
		pairs = append(pairs, pair{e.ProductID, e.StoreID})
	case *inventory.StockRemovedEvent:
		pairs = append(pairs, pair{e.ProductID, e.StoreID})
	case *inventory.StockTransferredEvent:
		pairs = append(pairs,
			pair{e.ProductID, e.SourceStoreID},
			pair{e.ProductID, e.DestinationStoreID},
		)
	default:
		return nil
	}

	var errs []error
	for _, p := range pairs {
		if err := h.cache.Invalidate(ctx, event.TenantID(), p.productID, p.storeID); err != nil {
			h.logger.Warn("failed to invalidate stock cache",
				zap.String("product_id", p.productID.String()),
				zap.String("store_id", p.storeID.String()),
				zap.Error(err),
			)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

var _ shared.EventHandler = (*StockCacheInvalidator)(nil)
