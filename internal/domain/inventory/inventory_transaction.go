package inventory

import (
	"time"

	"github.com/erp/pos/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionType represents the kind of stock movement a ledger row records
type TransactionType string

const (
	// TransactionTypeStockIn represents goods received into a store
	TransactionTypeStockIn TransactionType = "stock_in"
	// TransactionTypeStockOut represents goods leaving a store (sale, damage, shrinkage)
	TransactionTypeStockOut TransactionType = "stock_out"
	// TransactionTypeTransferIn is the destination side of a transfer
	TransactionTypeTransferIn TransactionType = "transfer_in"
	// TransactionTypeTransferOut is the source side of a transfer
	TransactionTypeTransferOut TransactionType = "transfer_out"
)

// String returns the string representation of TransactionType
func (t TransactionType) String() string {
	return string(t)
}

// IsValid returns true if the transaction type is valid
func (t TransactionType) IsValid() bool {
	switch t {
	case TransactionTypeStockIn,
		TransactionTypeStockOut,
		TransactionTypeTransferIn,
		TransactionTypeTransferOut:
		return true
	}
	return false
}

// IsIncrease returns true if this transaction type adds stock
func (t TransactionType) IsIncrease() bool {
	return t == TransactionTypeStockIn || t == TransactionTypeTransferIn
}

// IsDecrease returns true if this transaction type removes stock
func (t TransactionType) IsDecrease() bool {
	return t == TransactionTypeStockOut || t == TransactionTypeTransferOut
}

// ParseTransactionType validates a raw type string
func ParseTransactionType(s string) (TransactionType, error) {
	t := TransactionType(s)
	if !t.IsValid() {
		return "", shared.NewDomainErrorf("INVALID_TRANSACTION_TYPE", "Invalid transaction type: %s", s)
	}
	return t, nil
}

// InventoryTransaction is one write-once row of the stock ledger.
// Quantity is signed: positive for stock_in and transfer_in, negative for
// stock_out and transfer_out.
type InventoryTransaction struct {
	ID              uuid.UUID           `gorm:"type:uuid;primaryKey" json:"id"`
	TenantID        uuid.UUID           `gorm:"type:uuid;not null;index:idx_inv_tx_tenant_date,priority:1" json:"tenant_id"`
	ProductID       uuid.UUID           `gorm:"type:uuid;not null;index:idx_inv_tx_product_store,priority:1" json:"product_id"`
	StoreID         uuid.UUID           `gorm:"type:uuid;not null;index:idx_inv_tx_product_store,priority:2" json:"store_id"`
	UserID          uuid.UUID           `gorm:"type:uuid;not null" json:"user_id"`
	Quantity        int                 `gorm:"not null" json:"quantity"`
	TransactionType TransactionType     `gorm:"type:varchar(20);not null;index" json:"transaction_type"`
	SupplierID      *uuid.UUID          `gorm:"type:uuid" json:"supplier_id,omitempty"`
	UnitCost        decimal.NullDecimal `gorm:"type:decimal(18,4)" json:"unit_cost"`
	Reason          string              `gorm:"type:varchar(255)" json:"reason,omitempty"`
	Notes           string              `gorm:"type:text" json:"notes,omitempty"`
	ReferenceID     *uuid.UUID          `gorm:"type:uuid;index" json:"reference_id,omitempty"`
	TransactionDate time.Time           `gorm:"not null;index:idx_inv_tx_tenant_date,priority:2" json:"transaction_date"`
	CreatedAt       time.Time           `json:"created_at"`
}

// TableName returns the table name for GORM
func (InventoryTransaction) TableName() string {
	return "inventory_transactions"
}

// NewInventoryTransaction creates a ledger row. quantity is the unsigned
// amount moved; the sign is derived from txType.
func NewInventoryTransaction(
	tenantID uuid.UUID,
	productID uuid.UUID,
	storeID uuid.UUID,
	userID uuid.UUID,
	txType TransactionType,
	quantity int,
) (*InventoryTransaction, error) {
	if tenantID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_TENANT", "Tenant ID cannot be empty")
	}
	if productID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
	}
	if storeID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_STORE", "Store ID cannot be empty")
	}
	if userID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_USER", "User ID cannot be empty")
	}
	if !txType.IsValid() {
		return nil, shared.NewDomainErrorf("INVALID_TRANSACTION_TYPE", "Invalid transaction type: %s", txType)
	}
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}
	if quantity > MaxQuantity {
		return nil, ErrQuantityTooLarge
	}

	signed := quantity
	if txType.IsDecrease() {
		signed = -quantity
	}

	now := time.Now()
	return &InventoryTransaction{
		ID:              uuid.New(),
		TenantID:        tenantID,
		ProductID:       productID,
		StoreID:         storeID,
		UserID:          userID,
		Quantity:        signed,
		TransactionType: txType,
		TransactionDate: now,
		CreatedAt:       now,
	}, nil
}

// WithSupplier attributes a stock-in to a supplier
func (t *InventoryTransaction) WithSupplier(supplierID uuid.UUID) *InventoryTransaction {
	t.SupplierID = &supplierID
	return t
}

// WithUnitCost records the purchase cost per unit
func (t *InventoryTransaction) WithUnitCost(cost decimal.Decimal) *InventoryTransaction {
	t.UnitCost = decimal.NewNullDecimal(cost)
	return t
}

// WithReason sets the reason for the movement
func (t *InventoryTransaction) WithReason(reason string) *InventoryTransaction {
	t.Reason = reason
	return t
}

// WithNotes sets free-text notes
func (t *InventoryTransaction) WithNotes(notes string) *InventoryTransaction {
	t.Notes = notes
	return t
}

// WithReference links the row to a transfer header
func (t *InventoryTransaction) WithReference(referenceID uuid.UUID) *InventoryTransaction {
	t.ReferenceID = &referenceID
	return t
}

// WithTransactionDate overrides the transaction date
func (t *InventoryTransaction) WithTransactionDate(date time.Time) *InventoryTransaction {
	t.TransactionDate = date
	return t
}

// AbsQuantity returns the unsigned amount moved
func (t *InventoryTransaction) AbsQuantity() int {
	if t.Quantity < 0 {
		return -t.Quantity
	}
	return t.Quantity
}
