package inventory

import (
	"time"

	"github.com/erp/pos/internal/domain/shared"
	"github.com/google/uuid"
)

// Inventory is the current on-hand balance of one product at one store.
// It is a projection of the transaction log: Quantity always equals the sum
// of the signed quantities of the transactions recorded for the same pair.
type Inventory struct {
	shared.BaseAggregateRoot
	TenantID          uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_inventory_tenant_product_store,priority:1" json:"tenant_id"`
	ProductID         uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_inventory_tenant_product_store,priority:2" json:"product_id"`
	StoreID           uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_inventory_tenant_product_store,priority:3;index" json:"store_id"`
	Quantity          int       `gorm:"not null;default:0" json:"quantity"`
	LowStockThreshold int       `gorm:"not null;default:0" json:"low_stock_threshold"`
}

// TableName returns the table name for GORM
func (Inventory) TableName() string {
	return "inventory"
}

// NewInventory creates an empty balance row for a product-store pair
func NewInventory(tenantID, productID, storeID uuid.UUID) (*Inventory, error) {
	if tenantID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_TENANT", "Tenant ID cannot be empty")
	}
	if productID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
	}
	if storeID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_STORE", "Store ID cannot be empty")
	}

	return &Inventory{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		TenantID:          tenantID,
		ProductID:         productID,
		StoreID:           storeID,
	}, nil
}

// EnsureAvailable returns INSUFFICIENT_STOCK when fewer than quantity units are on hand
func (i *Inventory) EnsureAvailable(quantity int) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	if i.Quantity < quantity {
		return shared.NewDomainErrorf("INSUFFICIENT_STOCK",
			"Insufficient stock: available %d, requested %d", i.Quantity, quantity)
	}
	return nil
}

// IsLowStock reports whether the balance is at or below a configured threshold.
// A zero threshold disables the check.
func (i *Inventory) IsLowStock() bool {
	return i.LowStockThreshold > 0 && i.Quantity <= i.LowStockThreshold
}

// EnsureCapacity returns INVALID_QUANTITY when adding quantity would push the
// balance past MaxQuantity
func (i *Inventory) EnsureCapacity(quantity int) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	if quantity > MaxQuantity-i.Quantity {
		return ErrBalanceOverflow
	}
	return nil
}

// SetLowStockThreshold updates the alert threshold
func (i *Inventory) SetLowStockThreshold(threshold int) error {
	if threshold < 0 {
		return shared.NewDomainError("INVALID_THRESHOLD", "Low stock threshold cannot be negative")
	}
	if threshold > MaxQuantity {
		return shared.NewDomainErrorf("INVALID_THRESHOLD", "Low stock threshold cannot exceed %d", MaxQuantity)
	}
	i.LowStockThreshold = threshold
	i.UpdatedAt = time.Now()
	i.IncrementVersion()
	return nil
}

// RecordMovement registers the domain events for a movement whose effect is
// already reflected in Quantity.
func (i *Inventory) RecordMovement(tx *InventoryTransaction) {
	switch tx.TransactionType {
	case TransactionTypeStockIn:
		i.AddDomainEvent(NewStockAddedEvent(i, tx))
	case TransactionTypeStockOut:
		i.AddDomainEvent(NewStockRemovedEvent(i, tx))
	}

	if tx.Quantity < 0 && i.IsLowStock() {
		i.AddDomainEvent(NewStockBelowThresholdEvent(i))
	}
}
