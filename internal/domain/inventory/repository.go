package inventory

import (
	"context"

	"github.com/erp/pos/internal/domain/shared"
	"github.com/google/uuid"
)

// Filter keys understood by the inventory repositories.
// Values are uuid.UUID for ids, time.Time for dates, string for type and status.
const (
	FilterKeyStoreID            = "store_id"
	FilterKeyProductID          = "product_id"
	FilterKeyTransactionType    = "transaction_type"
	FilterKeyStartDate          = "start_date"
	FilterKeyEndDate            = "end_date"
	FilterKeySourceStoreID      = "source_store_id"
	FilterKeyDestinationStoreID = "destination_store_id"
	FilterKeyStatus             = "status"
	FilterKeyLowStockOnly       = "low_stock_only"
)

// InventoryRepository defines persistence for balance rows
type InventoryRepository interface {
	// FindByIDForTenant finds a balance row by its ID within a tenant
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Inventory, error)

	// FindByProductAndStore finds the balance for a product-store pair
	FindByProductAndStore(ctx context.Context, tenantID, productID, storeID uuid.UUID) (*Inventory, error)

	// GetOrCreate returns the balance row, inserting an empty one if absent.
	// Concurrent callers converge on the same row.
	GetOrCreate(ctx context.Context, tenantID, productID, storeID uuid.UUID) (*Inventory, error)

	// IncreaseQuantity adds quantity to the row and returns the refreshed row
	IncreaseQuantity(ctx context.Context, inv *Inventory, quantity int) (*Inventory, error)

	// DecreaseQuantity subtracts quantity only if at least that much is on hand.
	// Returns INSUFFICIENT_STOCK and changes nothing otherwise.
	DecreaseQuantity(ctx context.Context, inv *Inventory, quantity int) (*Inventory, error)

	// UpdateThreshold persists the low-stock threshold
	UpdateThreshold(ctx context.Context, inv *Inventory) error

	// FindAllForTenant lists balance rows joined with display names
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]InventoryView, error)

	// CountForTenant counts balance rows matching the filter
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error)

	// CountLowStock counts rows at or below a non-zero threshold
	CountLowStock(ctx context.Context, tenantID uuid.UUID) (int64, error)
}

// TransactionRepository defines persistence for the append-only ledger
type TransactionRepository interface {
	// Create appends a ledger row
	Create(ctx context.Context, tx *InventoryTransaction) error

	// CreateBatch appends several ledger rows
	CreateBatch(ctx context.Context, txs []*InventoryTransaction) error

	// FindAllForTenant lists ledger rows newest first, joined with display names
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]TransactionView, error)

	// CountForTenant counts ledger rows matching the filter
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error)

	// FindByReference returns the rows booked for a transfer
	FindByReference(ctx context.Context, tenantID, referenceID uuid.UUID) ([]InventoryTransaction, error)

	// SumQuantity sums the signed deltas for a product-store pair
	SumQuantity(ctx context.Context, tenantID, productID, storeID uuid.UUID) (int64, error)
}

// TransferRepository defines persistence for transfer headers and items
type TransferRepository interface {
	// Create inserts the header together with its items
	Create(ctx context.Context, transfer *StockTransfer) error

	// FindViewByID returns the header joined with store and user names
	FindViewByID(ctx context.Context, tenantID, id uuid.UUID) (*TransferView, error)

	// FindItemViews returns the items joined with product name and SKU
	FindItemViews(ctx context.Context, transferID uuid.UUID) ([]TransferItemView, error)

	// FindAllForTenant lists headers newest first
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]TransferView, error)

	// CountForTenant counts headers matching the filter
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error)
}

// References names the master data rows a movement points at
type References struct {
	ProductID  uuid.UUID
	StoreIDs   []uuid.UUID
	UserID     uuid.UUID
	SupplierID *uuid.UUID
}

// ReferenceRepository resolves master data referenced by ledger rows
type ReferenceRepository interface {
	// EnsureExist returns a NOT_FOUND error for the first reference that does
	// not exist within the tenant
	EnsureExist(ctx context.Context, tenantID uuid.UUID, refs References) error
}
