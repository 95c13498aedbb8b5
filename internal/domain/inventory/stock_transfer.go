package inventory

import (
	"time"

	"github.com/erp/pos/internal/domain/shared"
	"github.com/google/uuid"
)

// TransferStatus represents the status of a stock transfer
type TransferStatus string

const (
	TransferStatusPending   TransferStatus = "pending"
	TransferStatusCompleted TransferStatus = "completed"
	TransferStatusCancelled TransferStatus = "cancelled"
)

// IsValid returns true if the status is a known value
func (s TransferStatus) IsValid() bool {
	switch s {
	case TransferStatusPending, TransferStatusCompleted, TransferStatusCancelled:
		return true
	}
	return false
}

// StockTransfer is the header of a movement of goods between two stores of
// the same company. Transfers are applied immediately, so every persisted
// transfer is completed.
type StockTransfer struct {
	shared.BaseAggregateRoot
	TenantID           uuid.UUID           `gorm:"type:uuid;not null;index:idx_stock_transfer_tenant_date,priority:1" json:"tenant_id"`
	SourceStoreID      uuid.UUID           `gorm:"type:uuid;not null;index" json:"source_store_id"`
	DestinationStoreID uuid.UUID           `gorm:"type:uuid;not null;index" json:"destination_store_id"`
	UserID             uuid.UUID           `gorm:"type:uuid;not null" json:"user_id"`
	Status             TransferStatus      `gorm:"type:varchar(20);not null" json:"status"`
	Notes              string              `gorm:"type:text" json:"notes,omitempty"`
	TransferDate       time.Time           `gorm:"not null;index:idx_stock_transfer_tenant_date,priority:2" json:"transfer_date"`
	Items              []StockTransferItem `gorm:"foreignKey:TransferID;references:ID" json:"items,omitempty"`
}

// TableName returns the table name for GORM
func (StockTransfer) TableName() string {
	return "stock_transfers"
}

// StockTransferItem is one product line of a transfer
type StockTransferItem struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	TransferID uuid.UUID `gorm:"type:uuid;not null;index" json:"transfer_id"`
	ProductID  uuid.UUID `gorm:"type:uuid;not null" json:"product_id"`
	Quantity   int       `gorm:"not null" json:"quantity"`
	CreatedAt  time.Time `json:"created_at"`
}

// TableName returns the table name for GORM
func (StockTransferItem) TableName() string {
	return "stock_transfer_items"
}

// NewStockTransfer creates a completed transfer header with a single item
func NewStockTransfer(tenantID, sourceStoreID, destinationStoreID, userID, productID uuid.UUID, quantity int) (*StockTransfer, error) {
	if tenantID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_TENANT", "Tenant ID cannot be empty")
	}
	if sourceStoreID == uuid.Nil || destinationStoreID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_STORE", "Source and destination stores are required")
	}
	if sourceStoreID == destinationStoreID {
		return nil, ErrSameStoreTransfer
	}
	if userID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_USER", "User ID cannot be empty")
	}
	if productID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
	}
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}
	if quantity > MaxQuantity {
		return nil, ErrQuantityTooLarge
	}

	root := shared.NewBaseAggregateRoot()
	transfer := &StockTransfer{
		BaseAggregateRoot:  root,
		TenantID:           tenantID,
		SourceStoreID:      sourceStoreID,
		DestinationStoreID: destinationStoreID,
		UserID:             userID,
		Status:             TransferStatusCompleted,
		TransferDate:       root.CreatedAt,
	}
	transfer.Items = []StockTransferItem{{
		ID:         uuid.New(),
		TransferID: transfer.ID,
		ProductID:  productID,
		Quantity:   quantity,
		CreatedAt:  transfer.CreatedAt,
	}}

	return transfer, nil
}

// SetNotes sets free-text notes on the header
func (t *StockTransfer) SetNotes(notes string) {
	t.Notes = notes
}

// LedgerEntries builds the paired transfer_out and transfer_in rows.
// Both rows share the transfer ID as reference and the transfer date.
func (t *StockTransfer) LedgerEntries() (out, in *InventoryTransaction, err error) {
	if len(t.Items) != 1 {
		return nil, nil, shared.NewDomainError("INVALID_TRANSFER", "Transfer must have exactly one item")
	}
	item := t.Items[0]

	out, err = NewInventoryTransaction(t.TenantID, item.ProductID, t.SourceStoreID, t.UserID, TransactionTypeTransferOut, item.Quantity)
	if err != nil {
		return nil, nil, err
	}
	in, err = NewInventoryTransaction(t.TenantID, item.ProductID, t.DestinationStoreID, t.UserID, TransactionTypeTransferIn, item.Quantity)
	if err != nil {
		return nil, nil, err
	}

	for _, row := range []*InventoryTransaction{out, in} {
		row.WithReference(t.ID).WithTransactionDate(t.TransferDate).WithNotes(t.Notes)
	}
	return out, in, nil
}

// MarkApplied registers the transfer event once both sides are booked
func (t *StockTransfer) MarkApplied(sourceBalance, destinationBalance int) {
	t.AddDomainEvent(NewStockTransferredEvent(t, sourceBalance, destinationBalance))
}
