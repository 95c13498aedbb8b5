package inventory

import (
	"time"

	"github.com/erp/pos/internal/domain/inventory"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AddStockRequest represents a stock-in request.
// UserID is the acting user and is filled in by the caller, never bound from the body.
type AddStockRequest struct {
	ProductID  uuid.UUID        `json:"product_id" binding:"required"`
	StoreID    uuid.UUID        `json:"store_id" binding:"required"`
	Quantity   int              `json:"quantity" binding:"required,gt=0,max=2147483647"`
	SupplierID *uuid.UUID       `json:"supplier_id"`
	UnitCost   *decimal.Decimal `json:"unit_cost"`
	Notes      string           `json:"notes" binding:"max=1000"`
	UserID     uuid.UUID        `json:"-"`
}

// RemoveStockRequest represents a stock-out request
type RemoveStockRequest struct {
	ProductID uuid.UUID `json:"product_id" binding:"required"`
	StoreID   uuid.UUID `json:"store_id" binding:"required"`
	Quantity  int       `json:"quantity" binding:"required,gt=0,max=2147483647"`
	Reason    string    `json:"reason" binding:"max=255"`
	Notes     string    `json:"notes" binding:"max=1000"`
	UserID    uuid.UUID `json:"-"`
}

// TransferStockRequest represents a request to move stock between two stores
type TransferStockRequest struct {
	ProductID          uuid.UUID `json:"product_id" binding:"required"`
	SourceStoreID      uuid.UUID `json:"source_store_id" binding:"required"`
	DestinationStoreID uuid.UUID `json:"destination_store_id" binding:"required"`
	Quantity           int       `json:"quantity" binding:"required,gt=0,max=2147483647"`
	Notes              string    `json:"notes" binding:"max=1000"`
	UserID             uuid.UUID `json:"-"`
}

// SetThresholdRequest represents a request to change the low-stock threshold
type SetThresholdRequest struct {
	Threshold int `json:"threshold" binding:"min=0,max=2147483647"`
}

// TransactionListFilter represents filter options for the ledger listing.
// Dates are inclusive; a date without a clock component covers the whole day.
type TransactionListFilter struct {
	StoreID         *uuid.UUID `form:"store_id"`
	ProductID       *uuid.UUID `form:"product_id"`
	TransactionType string     `form:"transaction_type"`
	StartDate       *time.Time `form:"start_date" time_format:"2006-01-02"`
	EndDate         *time.Time `form:"end_date" time_format:"2006-01-02"`
	Page            int        `form:"page" binding:"omitempty,min=1"`
	PageSize        int        `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// TransferListFilter represents filter options for the transfer listing
type TransferListFilter struct {
	SourceStoreID      *uuid.UUID `form:"source_store_id"`
	DestinationStoreID *uuid.UUID `form:"destination_store_id"`
	Status             string     `form:"status"`
	StartDate          *time.Time `form:"start_date" time_format:"2006-01-02"`
	EndDate            *time.Time `form:"end_date" time_format:"2006-01-02"`
	Page               int        `form:"page" binding:"omitempty,min=1"`
	PageSize           int        `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// InventoryListFilter represents filter options for the balance listing
type InventoryListFilter struct {
	StoreID      *uuid.UUID `form:"store_id"`
	ProductID    *uuid.UUID `form:"product_id"`
	LowStockOnly bool       `form:"low_stock_only"`
	Search       string     `form:"search"`
	Page         int        `form:"page" binding:"omitempty,min=1"`
	PageSize     int        `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy      string     `form:"order_by"`
	OrderDir     string     `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// InventoryResponse represents a balance row in API responses
type InventoryResponse struct {
	ID                uuid.UUID `json:"id"`
	TenantID          uuid.UUID `json:"tenant_id"`
	ProductID         uuid.UUID `json:"product_id"`
	StoreID           uuid.UUID `json:"store_id"`
	ProductName       string    `json:"product_name,omitempty"`
	ProductSKU        string    `json:"product_sku,omitempty"`
	StoreName         string    `json:"store_name,omitempty"`
	Quantity          int       `json:"quantity"`
	LowStockThreshold int       `json:"low_stock_threshold"`
	IsLowStock        bool      `json:"is_low_stock"`
	Version           int       `json:"version"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// TransactionResponse represents a ledger row in API responses
type TransactionResponse struct {
	ID              uuid.UUID        `json:"id"`
	ProductID       uuid.UUID        `json:"product_id"`
	ProductName     string           `json:"product_name,omitempty"`
	ProductSKU      string           `json:"product_sku,omitempty"`
	StoreID         uuid.UUID        `json:"store_id"`
	StoreName       string           `json:"store_name,omitempty"`
	UserID          uuid.UUID        `json:"user_id"`
	UserName        string           `json:"user_name,omitempty"`
	Quantity        int              `json:"quantity"`
	TransactionType string           `json:"transaction_type"`
	SupplierID      *uuid.UUID       `json:"supplier_id,omitempty"`
	SupplierName    string           `json:"supplier_name,omitempty"`
	UnitCost        *decimal.Decimal `json:"unit_cost,omitempty"`
	Reason          string           `json:"reason,omitempty"`
	Notes           string           `json:"notes,omitempty"`
	ReferenceID     *uuid.UUID       `json:"reference_id,omitempty"`
	TransactionDate time.Time        `json:"transaction_date"`
	CreatedAt       time.Time        `json:"created_at"`
}

// StockMovementResponse is returned by stock-in and stock-out
type StockMovementResponse struct {
	Inventory   InventoryResponse   `json:"inventory"`
	Transaction TransactionResponse `json:"transaction"`
}

// TransferItemResponse represents a transfer line
type TransferItemResponse struct {
	ID          uuid.UUID `json:"id"`
	ProductID   uuid.UUID `json:"product_id"`
	ProductName string    `json:"product_name,omitempty"`
	ProductSKU  string    `json:"product_sku,omitempty"`
	Quantity    int       `json:"quantity"`
}

// TransferResponse represents a transfer header, with items when requested
type TransferResponse struct {
	ID                   uuid.UUID              `json:"id"`
	SourceStoreID        uuid.UUID              `json:"source_store_id"`
	SourceStoreName      string                 `json:"source_store_name,omitempty"`
	DestinationStoreID   uuid.UUID              `json:"destination_store_id"`
	DestinationStoreName string                 `json:"destination_store_name,omitempty"`
	UserID               uuid.UUID              `json:"user_id"`
	UserName             string                 `json:"user_name,omitempty"`
	Status               string                 `json:"status"`
	Notes                string                 `json:"notes,omitempty"`
	TransferDate         time.Time              `json:"transfer_date"`
	CreatedAt            time.Time              `json:"created_at"`
	Items                []TransferItemResponse `json:"items,omitempty"`
}

// ReconcileResponse reports whether a balance matches its ledger
type ReconcileResponse struct {
	ProductID  uuid.UUID `json:"product_id"`
	StoreID    uuid.UUID `json:"store_id"`
	Projected  int       `json:"projected"`
	LedgerSum  int64     `json:"ledger_sum"`
	Consistent bool      `json:"consistent"`
}

// ToInventoryResponse converts a domain Inventory to InventoryResponse
func ToInventoryResponse(inv *inventory.Inventory) InventoryResponse {
	return InventoryResponse{
		ID:                inv.ID,
		TenantID:          inv.TenantID,
		ProductID:         inv.ProductID,
		StoreID:           inv.StoreID,
		Quantity:          inv.Quantity,
		LowStockThreshold: inv.LowStockThreshold,
		IsLowStock:        inv.IsLowStock(),
		Version:           inv.Version,
		CreatedAt:         inv.CreatedAt,
		UpdatedAt:         inv.UpdatedAt,
	}
}

// ToInventoryViewResponses converts joined balance rows
func ToInventoryViewResponses(views []inventory.InventoryView) []InventoryResponse {
	responses := make([]InventoryResponse, len(views))
	for i := range views {
		r := ToInventoryResponse(&views[i].Inventory)
		r.ProductName = views[i].ProductName
		r.ProductSKU = views[i].ProductSKU
		r.StoreName = views[i].StoreName
		responses[i] = r
	}
	return responses
}

// ToTransactionResponse converts a ledger row to TransactionResponse
func ToTransactionResponse(tx *inventory.InventoryTransaction) TransactionResponse {
	r := TransactionResponse{
		ID:              tx.ID,
		ProductID:       tx.ProductID,
		StoreID:         tx.StoreID,
		UserID:          tx.UserID,
		Quantity:        tx.Quantity,
		TransactionType: tx.TransactionType.String(),
		SupplierID:      tx.SupplierID,
		Reason:          tx.Reason,
		Notes:           tx.Notes,
		ReferenceID:     tx.ReferenceID,
		TransactionDate: tx.TransactionDate,
		CreatedAt:       tx.CreatedAt,
	}
	if tx.UnitCost.Valid {
		cost := tx.UnitCost.Decimal
		r.UnitCost = &cost
	}
	return r
}

// ToTransactionViewResponses converts joined ledger rows
func ToTransactionViewResponses(views []inventory.TransactionView) []TransactionResponse {
	responses := make([]TransactionResponse, len(views))
	for i := range views {
		r := ToTransactionResponse(&views[i].InventoryTransaction)
		r.ProductName = views[i].ProductName
		r.ProductSKU = views[i].ProductSKU
		r.StoreName = views[i].StoreName
		r.UserName = views[i].UserName
		r.SupplierName = views[i].SupplierName
		responses[i] = r
	}
	return responses
}

// ToTransferResponse converts a transfer header and its items
func ToTransferResponse(t *inventory.StockTransfer) TransferResponse {
	r := TransferResponse{
		ID:                 t.ID,
		SourceStoreID:      t.SourceStoreID,
		DestinationStoreID: t.DestinationStoreID,
		UserID:             t.UserID,
		Status:             string(t.Status),
		Notes:              t.Notes,
		TransferDate:       t.TransferDate,
		CreatedAt:          t.CreatedAt,
	}
	for _, item := range t.Items {
		r.Items = append(r.Items, TransferItemResponse{
			ID:        item.ID,
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
		})
	}
	return r
}

// ToTransferViewResponse converts a joined transfer header
func ToTransferViewResponse(v *inventory.TransferView) TransferResponse {
	r := ToTransferResponse(&v.StockTransfer)
	r.SourceStoreName = v.SourceStoreName
	r.DestinationStoreName = v.DestinationStoreName
	r.UserName = v.UserName
	return r
}

// ToTransferViewResponses converts joined transfer headers
func ToTransferViewResponses(views []inventory.TransferView) []TransferResponse {
	responses := make([]TransferResponse, len(views))
	for i := range views {
		responses[i] = ToTransferViewResponse(&views[i])
	}
	return responses
}

// ToTransferItemResponses converts joined transfer items
func ToTransferItemResponses(views []inventory.TransferItemView) []TransferItemResponse {
	responses := make([]TransferItemResponse, len(views))
	for i, v := range views {
		responses[i] = TransferItemResponse{
			ID:          v.ID,
			ProductID:   v.ProductID,
			ProductName: v.ProductName,
			ProductSKU:  v.ProductSKU,
			Quantity:    v.Quantity,
		}
	}
	return responses
}
