package inventory

import (
	"context"
	"sync"

	"github.com/erp/pos/internal/domain/inventory"
	"github.com/erp/pos/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockEventPublisher collects published events
type MockEventPublisher struct {
	mu     sync.Mutex
	events []shared.DomainEvent
}

func NewMockEventPublisher() *MockEventPublisher {
	return &MockEventPublisher{events: make([]shared.DomainEvent, 0)}
}

func (m *MockEventPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, events...)
	return nil
}

func (m *MockEventPublisher) GetEvents() []shared.DomainEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]shared.DomainEvent, len(m.events))
	copy(result, m.events)
	return result
}

func (m *MockEventPublisher) GetEventsByType(eventType string) []shared.DomainEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]shared.DomainEvent, 0)
	for _, e := range m.events {
		if e.EventType() == eventType {
			result = append(result, e)
		}
	}
	return result
}

// MockInventoryRepository is a mock implementation of inventory.InventoryRepository
type MockInventoryRepository struct {
	mock.Mock
}

func (m *MockInventoryRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*inventory.Inventory, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inventory.Inventory), args.Error(1)
}

func (m *MockInventoryRepository) FindByProductAndStore(ctx context.Context, tenantID, productID, storeID uuid.UUID) (*inventory.Inventory, error) {
	args := m.Called(ctx, tenantID, productID, storeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inventory.Inventory), args.Error(1)
}

func (m *MockInventoryRepository) GetOrCreate(ctx context.Context, tenantID, productID, storeID uuid.UUID) (*inventory.Inventory, error) {
	args := m.Called(ctx, tenantID, productID, storeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inventory.Inventory), args.Error(1)
}

func (m *MockInventoryRepository) IncreaseQuantity(ctx context.Context, inv *inventory.Inventory, quantity int) (*inventory.Inventory, error) {
	args := m.Called(ctx, inv, quantity)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inventory.Inventory), args.Error(1)
}

func (m *MockInventoryRepository) DecreaseQuantity(ctx context.Context, inv *inventory.Inventory, quantity int) (*inventory.Inventory, error) {
	args := m.Called(ctx, inv, quantity)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inventory.Inventory), args.Error(1)
}

func (m *MockInventoryRepository) UpdateThreshold(ctx context.Context, inv *inventory.Inventory) error {
	args := m.Called(ctx, inv)
	return args.Error(0)
}

func (m *MockInventoryRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]inventory.InventoryView, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).([]inventory.InventoryView), args.Error(1)
}

func (m *MockInventoryRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockInventoryRepository) CountLowStock(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	args := m.Called(ctx, tenantID)
	return args.Get(0).(int64), args.Error(1)
}

// MockTransactionRepository is a mock implementation of inventory.TransactionRepository
type MockTransactionRepository struct {
	mock.Mock
}

func (m *MockTransactionRepository) Create(ctx context.Context, tx *inventory.InventoryTransaction) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

func (m *MockTransactionRepository) CreateBatch(ctx context.Context, txs []*inventory.InventoryTransaction) error {
	args := m.Called(ctx, txs)
	return args.Error(0)
}

func (m *MockTransactionRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]inventory.TransactionView, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).([]inventory.TransactionView), args.Error(1)
}

func (m *MockTransactionRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockTransactionRepository) FindByReference(ctx context.Context, tenantID, referenceID uuid.UUID) ([]inventory.InventoryTransaction, error) {
	args := m.Called(ctx, tenantID, referenceID)
	return args.Get(0).([]inventory.InventoryTransaction), args.Error(1)
}

func (m *MockTransactionRepository) SumQuantity(ctx context.Context, tenantID, productID, storeID uuid.UUID) (int64, error) {
	args := m.Called(ctx, tenantID, productID, storeID)
	return args.Get(0).(int64), args.Error(1)
}

// MockTransferRepository is a mock implementation of inventory.TransferRepository
type MockTransferRepository struct {
	mock.Mock
}

func (m *MockTransferRepository) Create(ctx context.Context, transfer *inventory.StockTransfer) error {
	args := m.Called(ctx, transfer)
	return args.Error(0)
}

func (m *MockTransferRepository) FindViewByID(ctx context.Context, tenantID, id uuid.UUID) (*inventory.TransferView, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inventory.TransferView), args.Error(1)
}

func (m *MockTransferRepository) FindItemViews(ctx context.Context, transferID uuid.UUID) ([]inventory.TransferItemView, error) {
	args := m.Called(ctx, transferID)
	return args.Get(0).([]inventory.TransferItemView), args.Error(1)
}

func (m *MockTransferRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]inventory.TransferView, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).([]inventory.TransferView), args.Error(1)
}

func (m *MockTransferRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).(int64), args.Error(1)
}

// MockStockLevelCache is a mock implementation of StockLevelCache
type MockStockLevelCache struct {
	mock.Mock
}

func (m *MockStockLevelCache) Get(ctx context.Context, tenantID, productID, storeID uuid.UUID) (*inventory.Inventory, bool, error) {
	args := m.Called(ctx, tenantID, productID, storeID)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*inventory.Inventory), args.Bool(1), args.Error(2)
}

func (m *MockStockLevelCache) Generation(ctx context.Context, tenantID, productID, storeID uuid.UUID) (int64, error) {
	args := m.Called(ctx, tenantID, productID, storeID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockStockLevelCache) Set(ctx context.Context, inv *inventory.Inventory, generation int64) error {
	args := m.Called(ctx, inv, generation)
	return args.Error(0)
}

func (m *MockStockLevelCache) Invalidate(ctx context.Context, tenantID, productID, storeID uuid.UUID) error {
	args := m.Called(ctx, tenantID, productID, storeID)
	return args.Error(0)
}

var (
	_ inventory.InventoryRepository   = (*MockInventoryRepository)(nil)
	_ inventory.TransactionRepository = (*MockTransactionRepository)(nil)
	_ inventory.TransferRepository    = (*MockTransferRepository)(nil)
	_ StockLevelCache                 = (*MockStockLevelCache)(nil)
)

func newTestInventory(tenantID, productID, storeID uuid.UUID, quantity int) *inventory.Inventory {
	inv, _ := inventory.NewInventory(tenantID, productID, storeID)
	inv.Quantity = quantity
	return inv
}

// withQuantity returns a copy of inv as the repository would reload it after an update
func withQuantity(inv *inventory.Inventory, quantity int) *inventory.Inventory {
	updated := *inv
	updated.ClearDomainEvents()
	updated.Quantity = quantity
	updated.Version = inv.Version + 1
	return &updated
}

// MockReferenceRepository is a mock implementation of inventory.ReferenceRepository
type MockReferenceRepository struct {
	mock.Mock
}

func (m *MockReferenceRepository) EnsureExist(ctx context.Context, tenantID uuid.UUID, refs inventory.References) error {
	args := m.Called(ctx, tenantID, refs)
	return args.Error(0)
}
