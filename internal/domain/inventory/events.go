package inventory

import (
	"github.com/erp/pos/internal/domain/shared"
	"github.com/google/uuid"
)

// Aggregate type constants
const (
	AggregateTypeInventory     = "Inventory"
	AggregateTypeStockTransfer = "StockTransfer"
)

// Event type constants
const (
	EventTypeStockAdded          = "StockAdded"
	EventTypeStockRemoved        = "StockRemoved"
	EventTypeStockTransferred    = "StockTransferred"
	EventTypeStockBelowThreshold = "StockBelowThreshold"
)

// StockAddedEvent is raised after a stock-in is booked
type StockAddedEvent struct {
	shared.BaseDomainEvent
	InventoryID   uuid.UUID `json:"inventory_id"`
	ProductID     uuid.UUID `json:"product_id"`
	StoreID       uuid.UUID `json:"store_id"`
	TransactionID uuid.UUID `json:"transaction_id"`
	Quantity      int       `json:"quantity"`
	Balance       int       `json:"balance"`
}

// NewStockAddedEvent creates a new StockAddedEvent
func NewStockAddedEvent(inv *Inventory, tx *InventoryTransaction) *StockAddedEvent {
	return &StockAddedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStockAdded, AggregateTypeInventory, inv.ID, inv.TenantID),
		InventoryID:     inv.ID,
		ProductID:       inv.ProductID,
		StoreID:         inv.StoreID,
		TransactionID:   tx.ID,
		Quantity:        tx.AbsQuantity(),
		Balance:         inv.Quantity,
	}
}

// StockRemovedEvent is raised after a stock-out is booked
type StockRemovedEvent struct {
	shared.BaseDomainEvent
	InventoryID   uuid.UUID `json:"inventory_id"`
	ProductID     uuid.UUID `json:"product_id"`
	StoreID       uuid.UUID `json:"store_id"`
	TransactionID uuid.UUID `json:"transaction_id"`
	Quantity      int       `json:"quantity"`
	Balance       int       `json:"balance"`
	Reason        string    `json:"reason,omitempty"`
}

// NewStockRemovedEvent creates a new StockRemovedEvent
func NewStockRemovedEvent(inv *Inventory, tx *InventoryTransaction) *StockRemovedEvent {
	return &StockRemovedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStockRemoved, AggregateTypeInventory, inv.ID, inv.TenantID),
		InventoryID:     inv.ID,
		ProductID:       inv.ProductID,
		StoreID:         inv.StoreID,
		TransactionID:   tx.ID,
		Quantity:        tx.AbsQuantity(),
		Balance:         inv.Quantity,
		Reason:          tx.Reason,
	}
}

// StockTransferredEvent is raised after both sides of a transfer are booked
type StockTransferredEvent struct {
	shared.BaseDomainEvent
	TransferID         uuid.UUID `json:"transfer_id"`
	ProductID          uuid.UUID `json:"product_id"`
	SourceStoreID      uuid.UUID `json:"source_store_id"`
	DestinationStoreID uuid.UUID `json:"destination_store_id"`
	Quantity           int       `json:"quantity"`
	SourceBalance      int       `json:"source_balance"`
	DestinationBalance int       `json:"destination_balance"`
}

// NewStockTransferredEvent creates a new StockTransferredEvent
func NewStockTransferredEvent(t *StockTransfer, sourceBalance, destinationBalance int) *StockTransferredEvent {
	var productID uuid.UUID
	var quantity int
	if len(t.Items) > 0 {
		productID = t.Items[0].ProductID
		quantity = t.Items[0].Quantity
	}
	return &StockTransferredEvent{
		BaseDomainEvent:    shared.NewBaseDomainEvent(EventTypeStockTransferred, AggregateTypeStockTransfer, t.ID, t.TenantID),
		TransferID:         t.ID,
		ProductID:          productID,
		SourceStoreID:      t.SourceStoreID,
		DestinationStoreID: t.DestinationStoreID,
		Quantity:           quantity,
		SourceBalance:      sourceBalance,
		DestinationBalance: destinationBalance,
	}
}

// StockBelowThresholdEvent is raised when a balance drops to or below its threshold
type StockBelowThresholdEvent struct {
	shared.BaseDomainEvent
	InventoryID uuid.UUID `json:"inventory_id"`
	ProductID   uuid.UUID `json:"product_id"`
	StoreID     uuid.UUID `json:"store_id"`
	Quantity    int       `json:"quantity"`
	Threshold   int       `json:"threshold"`
}

// NewStockBelowThresholdEvent creates a new StockBelowThresholdEvent
func NewStockBelowThresholdEvent(inv *Inventory) *StockBelowThresholdEvent {
	return &StockBelowThresholdEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStockBelowThreshold, AggregateTypeInventory, inv.ID, inv.TenantID),
		InventoryID:     inv.ID,
		ProductID:       inv.ProductID,
		StoreID:         inv.StoreID,
		Quantity:        inv.Quantity,
		Threshold:       inv.LowStockThreshold,
	}
}
