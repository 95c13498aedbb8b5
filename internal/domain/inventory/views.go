package inventory

import "github.com/google/uuid"

// Read models returned by the joined list queries. The embedded entity
// carries the stored columns; the extra fields are display names resolved
// from the master-data tables and are empty when the referenced row is gone.

// TransactionView is a ledger row with product, store, user and supplier names
type TransactionView struct {
	InventoryTransaction
	ProductName  string `gorm:"column:product_name" json:"product_name"`
	ProductSKU   string `gorm:"column:product_sku" json:"product_sku"`
	StoreName    string `gorm:"column:store_name" json:"store_name"`
	UserName     string `gorm:"column:user_name" json:"user_name"`
	SupplierName string `gorm:"column:supplier_name" json:"supplier_name,omitempty"`
}

// TransferView is a transfer header with store and user names
type TransferView struct {
	StockTransfer
	SourceStoreName      string `gorm:"column:source_store_name" json:"source_store_name"`
	DestinationStoreName string `gorm:"column:destination_store_name" json:"destination_store_name"`
	UserName             string `gorm:"column:user_name" json:"user_name"`
}

// TransferItemView is a transfer line with product name and SKU
type TransferItemView struct {
	StockTransferItem
	ProductName string `gorm:"column:product_name" json:"product_name"`
	ProductSKU  string `gorm:"column:product_sku" json:"product_sku"`
}

// InventoryView is a balance row with product and store names
type InventoryView struct {
	Inventory
	ProductName string `gorm:"column:product_name" json:"product_name"`
	ProductSKU  string `gorm:"column:product_sku" json:"product_sku"`
	StoreName   string `gorm:"column:store_name" json:"store_name"`
}

// IsLowStock reports whether the viewed balance is at or below its threshold
func (v InventoryView) IsLowStock() bool {
	return v.Inventory.IsLowStock()
}

// BalanceDrift is a balance row whose quantity disagrees with its ledger
type BalanceDrift struct {
	InventoryID uuid.UUID `gorm:"column:inventory_id" json:"inventory_id"`
	TenantID    uuid.UUID `gorm:"column:tenant_id" json:"tenant_id"`
	ProductID   uuid.UUID `gorm:"column:product_id" json:"product_id"`
	StoreID     uuid.UUID `gorm:"column:store_id" json:"store_id"`
	Projected   int       `gorm:"column:projected" json:"projected"`
	LedgerSum   int64     `gorm:"column:ledger_sum" json:"ledger_sum"`
}

// Delta is the amount the stored balance exceeds the ledger by
func (d BalanceDrift) Delta() int64 {
	return int64(d.Projected) - d.LedgerSum
}
