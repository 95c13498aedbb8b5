package inventory

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/erp/pos/internal/domain/inventory"
	"github.com/erp/pos/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type recordingNotifier struct {
	mu     sync.Mutex
	alerts []StockAlert
	err    error
}

func (n *recordingNotifier) SendAlert(_ context.Context, alert StockAlert) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.alerts = append(n.alerts, alert)
	return n.err
}

func TestLowStockAlertHandler_Handle(t *testing.T) {
	ctx := context.Background()
	inv := newTestInventory(uuid.New(), uuid.New(), uuid.New(), 2)
	inv.LowStockThreshold = 5

	t.Run("sends low_stock alert", func(t *testing.T) {
		notifier := &recordingNotifier{}
		handler := NewLowStockAlertHandler(zaptest.NewLogger(t)).WithNotifier(notifier)

		require.NoError(t, handler.Handle(ctx, inventory.NewStockBelowThresholdEvent(inv)))
		require.Len(t, notifier.alerts, 1)
		assert.Equal(t, "low_stock", notifier.alerts[0].AlertType)
		assert.Equal(t, 2, notifier.alerts[0].Quantity)
		assert.Equal(t, 5, notifier.alerts[0].Threshold)
	})

	t.Run("zero quantity is out_of_stock", func(t *testing.T) {
		notifier := &recordingNotifier{}
		handler := NewLowStockAlertHandler(zaptest.NewLogger(t)).WithNotifier(notifier)
		empty := *inv
		empty.Quantity = 0

		require.NoError(t, handler.Handle(ctx, inventory.NewStockBelowThresholdEvent(&empty)))
		assert.Equal(t, "out_of_stock", notifier.alerts[0].AlertType)
	})

	t.Run("notifier failure is swallowed", func(t *testing.T) {
		notifier := &recordingNotifier{err: errors.New("smtp down")}
		handler := NewLowStockAlertHandler(zaptest.NewLogger(t)).WithNotifier(notifier)
		assert.NoError(t, handler.Handle(ctx, inventory.NewStockBelowThresholdEvent(inv)))
	})

	t.Run("wrong event type", func(t *testing.T) {
		handler := NewLowStockAlertHandler(zaptest.NewLogger(t))
		tx, _ := inventory.NewInventoryTransaction(inv.TenantID, inv.ProductID, inv.StoreID, uuid.New(), inventory.TransactionTypeStockIn, 1)
		assert.Error(t, handler.Handle(ctx, inventory.NewStockAddedEvent(inv, tx)))
	})

	t.Run("subscribes to threshold events only", func(t *testing.T) {
		handler := NewLowStockAlertHandler(zaptest.NewLogger(t))
		assert.Equal(t, []string{inventory.EventTypeStockBelowThreshold}, handler.EventTypes())
	})
}

func TestStockCacheInvalidator_Handle(t *testing.T) {
	ctx := context.Background()
	tenantID, productID, userID := uuid.New(), uuid.New(), uuid.New()
	storeA, storeB := uuid.New(), uuid.New()

	t.Run("stock added invalidates one pair", func(t *testing.T) {
		cache := new(MockStockLevelCache)
		handler := NewStockCacheInvalidator(cache, zaptest.NewLogger(t))
		inv := newTestInventory(tenantID, productID, storeA, 3)
		tx, _ := inventory.NewInventoryTransaction(tenantID, productID, storeA, userID, inventory.TransactionTypeStockIn, 3)
		cache.On("Invalidate", mock.Anything, tenantID, productID, storeA).Return(nil).Once()

		require.NoError(t, handler.Handle(ctx, inventory.NewStockAddedEvent(inv, tx)))
		cache.AssertExpectations(t)
	})

	t.Run("transfer invalidates both sides", func(t *testing.T) {
		cache := new(MockStockLevelCache)
		handler := NewStockCacheInvalidator(cache, zaptest.NewLogger(t))
		transfer, err := inventory.NewStockTransfer(tenantID, storeA, storeB, userID, productID, 2)
		require.NoError(t, err)
		cache.On("Invalidate", mock.Anything, tenantID, productID, storeA).Return(nil).Once()
		cache.On("Invalidate", mock.Anything, tenantID, productID, storeB).Return(errors.New("redis down")).Once()

		err = handler.Handle(ctx, inventory.NewStockTransferredEvent(transfer, 1, 2))
		assert.Error(t, err)
		cache.AssertExpectations(t)
	})

	t.Run("ignores unrelated events", func(t *testing.T) {
		cache := new(MockStockLevelCache)
		handler := NewStockCacheInvalidator(cache, zaptest.NewLogger(t))
		other := shared.NewBaseDomainEvent("Other", "Other", uuid.New(), tenantID)
		assert.NoError(t, handler.Handle(ctx, &other))
		cache.AssertNotCalled(t, "Invalidate", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}
