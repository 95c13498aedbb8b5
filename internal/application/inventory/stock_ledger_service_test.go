package inventory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/erp/pos/internal/domain/inventory"
	"github.com/erp/pos/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type ledgerFixture struct {
	invRepo      *MockInventoryRepository
	txRepo       *MockTransactionRepository
	transferRepo *MockTransferRepository
	publisher    *MockEventPublisher
	service      *StockLedgerService
}

func newLedgerFixture() *ledgerFixture {
	f := &ledgerFixture{
		invRepo:      new(MockInventoryRepository),
		txRepo:       new(MockTransactionRepository),
		transferRepo: new(MockTransferRepository),
		publisher:    NewMockEventPublisher(),
	}
	scope := NewNoOpTransactionScope(f.invRepo, f.txRepo, f.transferRepo)
	f.service = NewStockLedgerService(f.invRepo, f.txRepo, f.transferRepo, scope)
	f.service.SetEventPublisher(f.publisher)
	return f
}

func TestStockLedgerService_AddStock(t *testing.T) {
	ctx := context.Background()
	tenantID, productID, storeID, userID := uuid.New(), uuid.New(), uuid.New(), uuid.New()

	t.Run("creates balance and stock_in row", func(t *testing.T) {
		f := newLedgerFixture()
		empty := newTestInventory(tenantID, productID, storeID, 0)
		var captured *inventory.InventoryTransaction

		f.invRepo.On("GetOrCreate", mock.Anything, tenantID, productID, storeID).Return(empty, nil).Once()
		f.invRepo.On("IncreaseQuantity", mock.Anything, empty, 5).Return(withQuantity(empty, 5), nil).Once()
		f.txRepo.On("Create", mock.Anything, mock.AnythingOfType("*inventory.InventoryTransaction")).
			Run(func(args mock.Arguments) {
				captured = args.Get(1).(*inventory.InventoryTransaction)
			}).Return(nil).Once()

		supplierID := uuid.New()
		cost := decimal.RequireFromString("1.25")
		resp, err := f.service.AddStock(ctx, tenantID, AddStockRequest{
			ProductID:  productID,
			StoreID:    storeID,
			Quantity:   5,
			SupplierID: &supplierID,
			UnitCost:   &cost,
			Notes:      "delivery",
			UserID:     userID,
		})

		require.NoError(t, err)
		assert.Equal(t, 5, resp.Inventory.Quantity)
		assert.Equal(t, 5, resp.Transaction.Quantity)
		assert.Equal(t, "stock_in", resp.Transaction.TransactionType)
		require.NotNil(t, captured)
		assert.Equal(t, userID, captured.UserID)
		assert.Equal(t, supplierID, *captured.SupplierID)
		assert.True(t, captured.UnitCost.Decimal.Equal(cost))

		events := f.publisher.GetEventsByType(inventory.EventTypeStockAdded)
		require.Len(t, events, 1)
		assert.Equal(t, 5, events[0].(*inventory.StockAddedEvent).Balance)
		f.invRepo.AssertExpectations(t)
		f.txRepo.AssertExpectations(t)
	})

	t.Run("rejects non-positive quantity without touching repositories", func(t *testing.T) {
		f := newLedgerFixture()
		_, err := f.service.AddStock(ctx, tenantID, AddStockRequest{ProductID: productID, StoreID: storeID, Quantity: 0, UserID: userID})
		assert.ErrorIs(t, err, inventory.ErrInvalidQuantity)
		f.invRepo.AssertNotCalled(t, "GetOrCreate", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("rejects negative unit cost", func(t *testing.T) {
		f := newLedgerFixture()
		cost := decimal.NewFromInt(-1)
		_, err := f.service.AddStock(ctx, tenantID, AddStockRequest{ProductID: productID, StoreID: storeID, Quantity: 1, UnitCost: &cost, UserID: userID})
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "INVALID_COST", domainErr.Code)
	})

	t.Run("ledger insert failure is returned and no event published", func(t *testing.T) {
		f := newLedgerFixture()
		empty := newTestInventory(tenantID, productID, storeID, 0)
		f.invRepo.On("GetOrCreate", mock.Anything, tenantID, productID, storeID).Return(empty, nil).Once()
		f.invRepo.On("IncreaseQuantity", mock.Anything, empty, 2).Return(withQuantity(empty, 2), nil).Once()
		f.txRepo.On("Create", mock.Anything, mock.Anything).Return(errors.New("disk full")).Once()

		_, err := f.service.AddStock(ctx, tenantID, AddStockRequest{ProductID: productID, StoreID: storeID, Quantity: 2, UserID: userID})
		assert.EqualError(t, err, "disk full")
		assert.Empty(t, f.publisher.GetEvents())
	})
}

func TestStockLedgerService_RemoveStock(t *testing.T) {
	ctx := context.Background()
	tenantID, productID, storeID, userID := uuid.New(), uuid.New(), uuid.New(), uuid.New()

	t.Run("insufficient stock fails closed", func(t *testing.T) {
		f := newLedgerFixture()
		current := newTestInventory(tenantID, productID, storeID, 4)
		f.invRepo.On("FindByProductAndStore", mock.Anything, tenantID, productID, storeID).Return(current, nil).Once()

		_, err := f.service.RemoveStock(ctx, tenantID, RemoveStockRequest{ProductID: productID, StoreID: storeID, Quantity: 10, UserID: userID})

		assert.True(t, errors.Is(err, shared.ErrInsufficientStock))
		f.invRepo.AssertNotCalled(t, "DecreaseQuantity", mock.Anything, mock.Anything, mock.Anything)
		f.txRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		assert.Empty(t, f.publisher.GetEvents())
	})

	t.Run("guarded decrement losing a race is reported as insufficient stock", func(t *testing.T) {
		f := newLedgerFixture()
		current := newTestInventory(tenantID, productID, storeID, 10)
		f.invRepo.On("FindByProductAndStore", mock.Anything, tenantID, productID, storeID).Return(current, nil).Once()
		f.invRepo.On("DecreaseQuantity", mock.Anything, current, 10).Return(nil, shared.ErrInsufficientStock).Once()

		_, err := f.service.RemoveStock(ctx, tenantID, RemoveStockRequest{ProductID: productID, StoreID: storeID, Quantity: 10, UserID: userID})

		assert.ErrorIs(t, err, shared.ErrInsufficientStock)
		f.txRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("missing balance row is not found", func(t *testing.T) {
		f := newLedgerFixture()
		f.invRepo.On("FindByProductAndStore", mock.Anything, tenantID, productID, storeID).Return(nil, shared.ErrNotFound).Once()

		_, err := f.service.RemoveStock(ctx, tenantID, RemoveStockRequest{ProductID: productID, StoreID: storeID, Quantity: 1, UserID: userID})

		assert.ErrorIs(t, err, shared.ErrNotFound)
		assert.Equal(t, inventory.ErrInventoryNotFound, err)
	})

	t.Run("books stock_out and raises threshold event", func(t *testing.T) {
		f := newLedgerFixture()
		current := newTestInventory(tenantID, productID, storeID, 10)
		current.LowStockThreshold = 5
		f.invRepo.On("FindByProductAndStore", mock.Anything, tenantID, productID, storeID).Return(current, nil).Once()
		f.invRepo.On("DecreaseQuantity", mock.Anything, current, 7).Return(withQuantity(current, 3), nil).Once()
		f.txRepo.On("Create", mock.Anything, mock.AnythingOfType("*inventory.InventoryTransaction")).Return(nil).Once()

		resp, err := f.service.RemoveStock(ctx, tenantID, RemoveStockRequest{
			ProductID: productID, StoreID: storeID, Quantity: 7, Reason: "sale", UserID: userID,
		})

		require.NoError(t, err)
		assert.Equal(t, 3, resp.Inventory.Quantity)
		assert.True(t, resp.Inventory.IsLowStock)
		assert.Equal(t, -7, resp.Transaction.Quantity)
		assert.Equal(t, "sale", resp.Transaction.Reason)
		assert.Len(t, f.publisher.GetEventsByType(inventory.EventTypeStockRemoved), 1)
		assert.Len(t, f.publisher.GetEventsByType(inventory.EventTypeStockBelowThreshold), 1)
	})
}

func TestStockLedgerService_ChecksReferencesBeforeWriting(t *testing.T) {
	ctx := context.Background()
	tenantID, productID, storeA, storeB, userID := uuid.New(), uuid.New(), uuid.New(), uuid.New(), uuid.New()

	newFixture := func(refs *MockReferenceRepository) *ledgerFixture {
		f := newLedgerFixture()
		scope := NewNoOpTransactionScope(f.invRepo, f.txRepo, f.transferRepo).WithReferenceRepo(refs)
		f.service = NewStockLedgerService(f.invRepo, f.txRepo, f.transferRepo, scope)
		f.service.SetEventPublisher(f.publisher)
		return f
	}

	t.Run("stock-in for an unknown store", func(t *testing.T) {
		refs := new(MockReferenceRepository)
		refs.On("EnsureExist", mock.Anything, tenantID, inventory.References{
			ProductID: productID,
			StoreIDs:  []uuid.UUID{storeA},
			UserID:    userID,
		}).Return(inventory.ErrStoreNotFound).Once()
		f := newFixture(refs)

		_, err := f.service.AddStock(ctx, tenantID, AddStockRequest{ProductID: productID, StoreID: storeA, Quantity: 2, UserID: userID})

		assert.ErrorIs(t, err, inventory.ErrStoreNotFound)
		f.invRepo.AssertNotCalled(t, "GetOrCreate", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		f.txRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		assert.Empty(t, f.publisher.GetEvents())
		refs.AssertExpectations(t)
	})

	t.Run("stock-out for an unknown user", func(t *testing.T) {
		refs := new(MockReferenceRepository)
		refs.On("EnsureExist", mock.Anything, tenantID, mock.Anything).Return(inventory.ErrUserNotFound).Once()
		f := newFixture(refs)

		_, err := f.service.RemoveStock(ctx, tenantID, RemoveStockRequest{ProductID: productID, StoreID: storeA, Quantity: 1, UserID: userID})

		assert.ErrorIs(t, err, inventory.ErrUserNotFound)
		f.invRepo.AssertNotCalled(t, "FindByProductAndStore", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("transfer checks both stores", func(t *testing.T) {
		refs := new(MockReferenceRepository)
		refs.On("EnsureExist", mock.Anything, tenantID, inventory.References{
			ProductID: productID,
			StoreIDs:  []uuid.UUID{storeA, storeB},
			UserID:    userID,
		}).Return(inventory.ErrStoreNotFound).Once()
		f := newFixture(refs)

		_, err := f.service.TransferStock(ctx, tenantID, TransferStockRequest{
			ProductID: productID, SourceStoreID: storeA, DestinationStoreID: storeB, Quantity: 1, UserID: userID,
		})

		assert.ErrorIs(t, err, inventory.ErrStoreNotFound)
		f.transferRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		refs.AssertExpectations(t)
	})
}

func TestStockLedgerService_TransferStock(t *testing.T) {
	ctx := context.Background()
	tenantID, productID, userID := uuid.New(), uuid.New(), uuid.New()
	storeA, storeB := uuid.New(), uuid.New()

	t.Run("moves stock and writes paired rows", func(t *testing.T) {
		f := newLedgerFixture()
		src := newTestInventory(tenantID, productID, storeA, 10)
		dst := newTestInventory(tenantID, productID, storeB, 2)
		var rows []*inventory.InventoryTransaction
		var header *inventory.StockTransfer

		f.invRepo.On("FindByProductAndStore", mock.Anything, tenantID, productID, storeA).Return(src, nil).Once()
		f.transferRepo.On("Create", mock.Anything, mock.AnythingOfType("*inventory.StockTransfer")).
			Run(func(args mock.Arguments) { header = args.Get(1).(*inventory.StockTransfer) }).
			Return(nil).Once()
		f.invRepo.On("DecreaseQuantity", mock.Anything, src, 6).Return(withQuantity(src, 4), nil).Once()
		f.invRepo.On("GetOrCreate", mock.Anything, tenantID, productID, storeB).Return(dst, nil).Once()
		f.invRepo.On("IncreaseQuantity", mock.Anything, dst, 6).Return(withQuantity(dst, 8), nil).Once()
		f.txRepo.On("CreateBatch", mock.Anything, mock.Anything).
			Run(func(args mock.Arguments) { rows = args.Get(1).([]*inventory.InventoryTransaction) }).
			Return(nil).Once()

		resp, err := f.service.TransferStock(ctx, tenantID, TransferStockRequest{
			ProductID: productID, SourceStoreID: storeA, DestinationStoreID: storeB, Quantity: 6, UserID: userID,
		})

		require.NoError(t, err)
		assert.Equal(t, "completed", resp.Status)
		require.Len(t, resp.Items, 1)
		assert.Equal(t, 6, resp.Items[0].Quantity)

		require.NotNil(t, header)
		require.Len(t, rows, 2)
		assert.Equal(t, inventory.TransactionTypeTransferOut, rows[0].TransactionType)
		assert.Equal(t, -6, rows[0].Quantity)
		assert.Equal(t, inventory.TransactionTypeTransferIn, rows[1].TransactionType)
		assert.Equal(t, 6, rows[1].Quantity)
		assert.Equal(t, header.ID, *rows[0].ReferenceID)
		assert.Equal(t, header.ID, *rows[1].ReferenceID)

		events := f.publisher.GetEventsByType(inventory.EventTypeStockTransferred)
		require.Len(t, events, 1)
		moved := events[0].(*inventory.StockTransferredEvent)
		assert.Equal(t, 4, moved.SourceBalance)
		assert.Equal(t, 8, moved.DestinationBalance)
	})

	t.Run("same store is rejected before any write", func(t *testing.T) {
		f := newLedgerFixture()
		_, err := f.service.TransferStock(ctx, tenantID, TransferStockRequest{
			ProductID: productID, SourceStoreID: storeA, DestinationStoreID: storeA, Quantity: 1, UserID: userID,
		})
		assert.ErrorIs(t, err, inventory.ErrSameStoreTransfer)
		f.invRepo.AssertNotCalled(t, "FindByProductAndStore", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("insufficient source writes nothing", func(t *testing.T) {
		f := newLedgerFixture()
		src := newTestInventory(tenantID, productID, storeA, 3)
		f.invRepo.On("FindByProductAndStore", mock.Anything, tenantID, productID, storeA).Return(src, nil).Once()

		_, err := f.service.TransferStock(ctx, tenantID, TransferStockRequest{
			ProductID: productID, SourceStoreID: storeA, DestinationStoreID: storeB, Quantity: 6, UserID: userID,
		})
		assert.ErrorIs(t, err, shared.ErrInsufficientStock)
		f.transferRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("missing source is not found", func(t *testing.T) {
		f := newLedgerFixture()
		f.invRepo.On("FindByProductAndStore", mock.Anything, tenantID, productID, storeA).Return(nil, shared.ErrNotFound).Once()

		_, err := f.service.TransferStock(ctx, tenantID, TransferStockRequest{
			ProductID: productID, SourceStoreID: storeA, DestinationStoreID: storeB, Quantity: 1, UserID: userID,
		})
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestStockLedgerService_ListTransactions(t *testing.T) {
	ctx := context.Background()
	tenantID, storeID := uuid.New(), uuid.New()

	t.Run("builds filter with defaults", func(t *testing.T) {
		f := newLedgerFixture()
		start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
		end := time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)
		var got shared.Filter

		f.txRepo.On("FindAllForTenant", mock.Anything, tenantID, mock.AnythingOfType("shared.Filter")).
			Run(func(args mock.Arguments) { got = args.Get(2).(shared.Filter) }).
			Return([]inventory.TransactionView{{
				InventoryTransaction: inventory.InventoryTransaction{ID: uuid.New(), Quantity: 3, TransactionType: inventory.TransactionTypeStockIn},
				ProductName:          "Cola",
				StoreName:            "Main",
			}}, nil).Once()
		f.txRepo.On("CountForTenant", mock.Anything, tenantID, mock.AnythingOfType("shared.Filter")).Return(int64(1), nil).Once()

		items, total, err := f.service.ListTransactions(ctx, tenantID, TransactionListFilter{
			StoreID:         &storeID,
			TransactionType: "stock_in",
			StartDate:       &start,
			EndDate:         &end,
		})

		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		require.Len(t, items, 1)
		assert.Equal(t, "Cola", items[0].ProductName)
		assert.Equal(t, 1, got.Page)
		assert.Equal(t, shared.DefaultPageSize, got.PageSize)
		assert.Equal(t, storeID, got.Filters[inventory.FilterKeyStoreID])
		assert.Equal(t, "stock_in", got.Filters[inventory.FilterKeyTransactionType])
		assert.Equal(t, start, got.Filters[inventory.FilterKeyStartDate])
		endBound := got.Filters[inventory.FilterKeyEndDate].(time.Time)
		assert.Equal(t, 31, endBound.Day())
		assert.Equal(t, 23, endBound.Hour())
	})

	t.Run("invalid type is a validation error", func(t *testing.T) {
		f := newLedgerFixture()
		_, _, err := f.service.ListTransactions(ctx, tenantID, TransactionListFilter{TransactionType: "refund"})
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "INVALID_TRANSACTION_TYPE", domainErr.Code)
		f.txRepo.AssertNotCalled(t, "FindAllForTenant", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("reversed date range is rejected", func(t *testing.T) {
		f := newLedgerFixture()
		start := time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC)
		end := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
		_, _, err := f.service.ListTransactions(ctx, tenantID, TransactionListFilter{StartDate: &start, EndDate: &end})
		assert.Error(t, err)
	})
}

func TestStockLedgerService_ListTransfers(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()

	t.Run("rejects unknown status", func(t *testing.T) {
		f := newLedgerFixture()
		_, _, err := f.service.ListTransfers(ctx, tenantID, TransferListFilter{Status: "shipped"})
		assert.Error(t, err)
	})

	t.Run("returns joined headers", func(t *testing.T) {
		f := newLedgerFixture()
		f.transferRepo.On("FindAllForTenant", mock.Anything, tenantID, mock.Anything).Return([]inventory.TransferView{{
			StockTransfer:        inventory.StockTransfer{Status: inventory.TransferStatusCompleted},
			SourceStoreName:      "Warehouse",
			DestinationStoreName: "Downtown",
		}}, nil).Once()
		f.transferRepo.On("CountForTenant", mock.Anything, tenantID, mock.Anything).Return(int64(1), nil).Once()

		items, total, err := f.service.ListTransfers(ctx, tenantID, TransferListFilter{Status: "completed"})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		assert.Equal(t, "Warehouse", items[0].SourceStoreName)
		assert.Empty(t, items[0].Items)
	})
}

func TestStockLedgerService_GetTransferDetails(t *testing.T) {
	ctx := context.Background()
	tenantID, transferID := uuid.New(), uuid.New()

	t.Run("not found", func(t *testing.T) {
		f := newLedgerFixture()
		f.transferRepo.On("FindViewByID", mock.Anything, tenantID, transferID).Return(nil, shared.ErrNotFound).Once()
		_, err := f.service.GetTransferDetails(ctx, tenantID, transferID)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("header with items", func(t *testing.T) {
		f := newLedgerFixture()
		view := &inventory.TransferView{StockTransfer: inventory.StockTransfer{Status: inventory.TransferStatusCompleted}}
		view.ID = transferID
		f.transferRepo.On("FindViewByID", mock.Anything, tenantID, transferID).Return(view, nil).Once()
		f.transferRepo.On("FindItemViews", mock.Anything, transferID).Return([]inventory.TransferItemView{{
			StockTransferItem: inventory.StockTransferItem{ID: uuid.New(), TransferID: transferID, Quantity: 6},
			ProductName:       "Cola",
			ProductSKU:        "COLA",
		}}, nil).Once()

		resp, err := f.service.GetTransferDetails(ctx, tenantID, transferID)
		require.NoError(t, err)
		require.Len(t, resp.Items, 1)
		assert.Equal(t, "COLA", resp.Items[0].ProductSKU)
		assert.Equal(t, 6, resp.Items[0].Quantity)
	})
}

func TestStockLedgerService_GetStockLevel(t *testing.T) {
	ctx := context.Background()
	tenantID, productID, storeID := uuid.New(), uuid.New(), uuid.New()

	t.Run("cache hit skips repository", func(t *testing.T) {
		f := newLedgerFixture()
		cache := new(MockStockLevelCache)
		f.service.SetStockLevelCache(cache)
		cached := newTestInventory(tenantID, productID, storeID, 9)
		cache.On("Get", mock.Anything, tenantID, productID, storeID).Return(cached, true, nil).Once()

		resp, err := f.service.GetStockLevel(ctx, tenantID, productID, storeID)
		require.NoError(t, err)
		assert.Equal(t, 9, resp.Quantity)
		f.invRepo.AssertNotCalled(t, "FindByProductAndStore", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("cache miss loads and fills", func(t *testing.T) {
		f := newLedgerFixture()
		cache := new(MockStockLevelCache)
		f.service.SetStockLevelCache(cache)
		stored := newTestInventory(tenantID, productID, storeID, 4)
		cache.On("Get", mock.Anything, tenantID, productID, storeID).Return(nil, false, nil).Once()
		cache.On("Generation", mock.Anything, tenantID, productID, storeID).Return(int64(3), nil).Once()
		f.invRepo.On("FindByProductAndStore", mock.Anything, tenantID, productID, storeID).Return(stored, nil).Once()
		cache.On("Set", mock.Anything, stored, int64(3)).Return(nil).Once()

		resp, err := f.service.GetStockLevel(ctx, tenantID, productID, storeID)
		require.NoError(t, err)
		assert.Equal(t, 4, resp.Quantity)
		cache.AssertExpectations(t)
	})

	t.Run("generation read before the row is loaded", func(t *testing.T) {
		f := newLedgerFixture()
		cache := new(MockStockLevelCache)
		f.service.SetStockLevelCache(cache)
		stored := newTestInventory(tenantID, productID, storeID, 4)

		var order []string
		cache.On("Get", mock.Anything, tenantID, productID, storeID).Return(nil, false, nil).Once()
		cache.On("Generation", mock.Anything, tenantID, productID, storeID).
			Run(func(mock.Arguments) { order = append(order, "generation") }).Return(int64(0), nil).Once()
		f.invRepo.On("FindByProductAndStore", mock.Anything, tenantID, productID, storeID).
			Run(func(mock.Arguments) { order = append(order, "load") }).Return(stored, nil).Once()
		cache.On("Set", mock.Anything, stored, int64(0)).
			Run(func(mock.Arguments) { order = append(order, "set") }).Return(nil).Once()

		_, err := f.service.GetStockLevel(ctx, tenantID, productID, storeID)
		require.NoError(t, err)
		assert.Equal(t, []string{"generation", "load", "set"}, order)
	})

	t.Run("no fill when the generation is unavailable", func(t *testing.T) {
		f := newLedgerFixture()
		cache := new(MockStockLevelCache)
		f.service.SetStockLevelCache(cache)
		stored := newTestInventory(tenantID, productID, storeID, 4)
		cache.On("Get", mock.Anything, tenantID, productID, storeID).Return(nil, false, assert.AnError).Once()
		cache.On("Generation", mock.Anything, tenantID, productID, storeID).Return(int64(0), assert.AnError).Once()
		f.invRepo.On("FindByProductAndStore", mock.Anything, tenantID, productID, storeID).Return(stored, nil).Once()

		resp, err := f.service.GetStockLevel(ctx, tenantID, productID, storeID)
		require.NoError(t, err)
		assert.Equal(t, 4, resp.Quantity)
		cache.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("missing row without cache", func(t *testing.T) {
		f := newLedgerFixture()
		f.invRepo.On("FindByProductAndStore", mock.Anything, tenantID, productID, storeID).Return(nil, shared.ErrNotFound).Once()
		_, err := f.service.GetStockLevel(ctx, tenantID, productID, storeID)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestStockLedgerService_SetLowStockThreshold(t *testing.T) {
	ctx := context.Background()
	tenantID, productID, storeID := uuid.New(), uuid.New(), uuid.New()

	f := newLedgerFixture()
	cache := new(MockStockLevelCache)
	f.service.SetStockLevelCache(cache)
	stored := newTestInventory(tenantID, productID, storeID, 2)
	f.invRepo.On("FindByProductAndStore", mock.Anything, tenantID, productID, storeID).Return(stored, nil).Once()
	f.invRepo.On("UpdateThreshold", mock.Anything, stored).Return(nil).Once()
	cache.On("Invalidate", mock.Anything, tenantID, productID, storeID).Return(nil).Once()

	resp, err := f.service.SetLowStockThreshold(ctx, tenantID, productID, storeID, SetThresholdRequest{Threshold: 5})
	require.NoError(t, err)
	assert.Equal(t, 5, resp.LowStockThreshold)
	assert.True(t, resp.IsLowStock)
	assert.Len(t, f.publisher.GetEventsByType(inventory.EventTypeStockBelowThreshold), 1)
	cache.AssertExpectations(t)
}

func TestStockLedgerService_Reconcile(t *testing.T) {
	ctx := context.Background()
	tenantID, productID, storeID := uuid.New(), uuid.New(), uuid.New()

	t.Run("consistent", func(t *testing.T) {
		f := newLedgerFixture()
		f.invRepo.On("FindByProductAndStore", mock.Anything, tenantID, productID, storeID).
			Return(newTestInventory(tenantID, productID, storeID, 8), nil).Once()
		f.txRepo.On("SumQuantity", mock.Anything, tenantID, productID, storeID).Return(int64(8), nil).Once()

		resp, err := f.service.Reconcile(ctx, tenantID, productID, storeID)
		require.NoError(t, err)
		assert.True(t, resp.Consistent)
	})

	t.Run("drift detected", func(t *testing.T) {
		f := newLedgerFixture()
		f.invRepo.On("FindByProductAndStore", mock.Anything, tenantID, productID, storeID).
			Return(newTestInventory(tenantID, productID, storeID, 8), nil).Once()
		f.txRepo.On("SumQuantity", mock.Anything, tenantID, productID, storeID).Return(int64(5), nil).Once()

		resp, err := f.service.Reconcile(ctx, tenantID, productID, storeID)
		require.NoError(t, err)
		assert.False(t, resp.Consistent)
		assert.Equal(t, 8, resp.Projected)
		assert.Equal(t, int64(5), resp.LedgerSum)
	})

	t.Run("unknown pair is consistent at zero", func(t *testing.T) {
		f := newLedgerFixture()
		f.invRepo.On("FindByProductAndStore", mock.Anything, tenantID, productID, storeID).Return(nil, shared.ErrNotFound).Once()
		f.txRepo.On("SumQuantity", mock.Anything, tenantID, productID, storeID).Return(int64(0), nil).Once()

		resp, err := f.service.Reconcile(ctx, tenantID, productID, storeID)
		require.NoError(t, err)
		assert.True(t, resp.Consistent)
		assert.Equal(t, 0, resp.Projected)
	})
}
