package handler

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	inventoryapp "github.com/erp/pos/internal/application/inventory"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// StockLedger is the stock ledger use-case surface served over HTTP
type StockLedger interface {
	AddStock(ctx context.Context, tenantID uuid.UUID, req inventoryapp.AddStockRequest) (*inventoryapp.StockMovementResponse, error)
	RemoveStock(ctx context.Context, tenantID uuid.UUID, req inventoryapp.RemoveStockRequest) (*inventoryapp.StockMovementResponse, error)
	TransferStock(ctx context.Context, tenantID uuid.UUID, req inventoryapp.TransferStockRequest) (*inventoryapp.TransferResponse, error)
	ListTransactions(ctx context.Context, tenantID uuid.UUID, filter inventoryapp.TransactionListFilter) ([]inventoryapp.TransactionResponse, int64, error)
	ListTransfers(ctx context.Context, tenantID uuid.UUID, filter inventoryapp.TransferListFilter) ([]inventoryapp.TransferResponse, int64, error)
	GetTransferDetails(ctx context.Context, tenantID, transferID uuid.UUID) (*inventoryapp.TransferResponse, error)
	GetStockLevel(ctx context.Context, tenantID, productID, storeID uuid.UUID) (*inventoryapp.InventoryResponse, error)
	ListInventory(ctx context.Context, tenantID uuid.UUID, filter inventoryapp.InventoryListFilter) ([]inventoryapp.InventoryResponse, int64, error)
	SetLowStockThreshold(ctx context.Context, tenantID, productID, storeID uuid.UUID, req inventoryapp.SetThresholdRequest) (*inventoryapp.InventoryResponse, error)
	Reconcile(ctx context.Context, tenantID, productID, storeID uuid.UUID) (*inventoryapp.ReconcileResponse, error)
}

// StockImporter books a CSV upload of stock receipts
type StockImporter interface {
	ImportStockIn(ctx context.Context, tenantID, userID uuid.UUID, r io.Reader) (*inventoryapp.StockImportResult, error)
}

// StockHandler handles stock ledger endpoints
type StockHandler struct {
	BaseHandler
	ledger   StockLedger
	importer StockImporter
}

// NewStockHandler creates a new StockHandler
func NewStockHandler(ledger StockLedger) *StockHandler {
	return &StockHandler{ledger: ledger}
}

// WithImporter enables the bulk stock-in upload
func (h *StockHandler) WithImporter(importer StockImporter) *StockHandler {
	h.importer = importer
	return h
}

// parseDateTime accepts RFC3339, a plain date, or a datetime without zone
func parseDateTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	if t, err := time.Parse("2006-01-02 15:04:05", s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}

// optionalUUID parses a validated query value; empty means unset
func optionalUUID(s string) *uuid.UUID {
	if s == "" {
		return nil
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return nil
	}
	return &id
}

// optionalDate parses a query date; empty means unset
func optionalDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := parseDateTime(s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// AddStock godoc
// @ID           addStock
// @Summary      Stock in
// @Description  Books received units for a product at a store and writes a stock_in ledger row
// @Tags         inventory
// @Accept       json
// @Produce      json
// @Param        X-Tenant-ID header string true "Tenant ID" format(uuid)
// @Param        X-User-ID header string true "Acting user ID" format(uuid)
// @Param        Idempotency-Key header string false "Client retry key"
// @Param        request body inventoryapp.AddStockRequest true "Stock-in request"
// @Success      201 {object} APIResponse[inventoryapp.StockMovementResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Router       /inventory/stock-in [post]
func (h *StockHandler) AddStock(c *gin.Context) {
	tenantID, userID, ok := h.actorFromRequest(c)
	if !ok {
		return
	}

	var req inventoryapp.AddStockRequest
	if !h.bindJSON(c, &req) {
		return
	}
	req.UserID = userID

	resp, err := h.ledger.AddStock(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// ImportStockIn godoc
// @ID           importStockIn
// @Summary      Bulk stock in
// @Description  Books a CSV of receipts (product_id, store_id, quantity, optional supplier_id, unit_cost, notes).
// @Description  The file is validated first; any invalid row means nothing is written.
// @Tags         inventory
// @Accept       text/csv
// @Accept       multipart/form-data
// @Produce      json
// @Param        X-Tenant-ID header string true "Tenant ID" format(uuid)
// @Param        X-User-ID header string true "Acting user ID" format(uuid)
// @Param        file formData file false "CSV file when sent as multipart"
// @Success      200 {object} APIResponse[inventoryapp.StockImportResult]
// @Failure      400 {object} ErrorResponse
// @Router       /inventory/stock-in/import [post]
func (h *StockHandler) ImportStockIn(c *gin.Context) {
	tenantID, userID, ok := h.actorFromRequest(c)
	if !ok {
		return
	}
	if h.importer == nil {
		h.NotFound(c, "Stock import is not enabled")
		return
	}

	var body io.Reader = c.Request.Body
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		fh, err := c.FormFile("file")
		if err != nil {
			h.BadRequest(c, "Multipart upload must carry a 'file' field")
			return
		}
		f, err := fh.Open()
		if err != nil {
			h.BadRequest(c, "Cannot read uploaded file")
			return
		}
		defer f.Close()
		body = f
	}

	result, err := h.importer.ImportStockIn(c.Request.Context(), tenantID, userID, body)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// RemoveStock godoc
// @ID           removeStock
// @Summary      Stock out
// @Description  Removes units from a store. Fails with 422 when stock is insufficient.
// @Tags         inventory
// @Accept       json
// @Produce      json
// @Param        X-Tenant-ID header string true "Tenant ID" format(uuid)
// @Param        X-User-ID header string true "Acting user ID" format(uuid)
// @Param        request body inventoryapp.RemoveStockRequest true "Stock-out request"
// @Success      201 {object} APIResponse[inventoryapp.StockMovementResponse]
// @Failure      422 {object} ErrorResponse
// @Router       /inventory/stock-out [post]
func (h *StockHandler) RemoveStock(c *gin.Context) {
	tenantID, userID, ok := h.actorFromRequest(c)
	if !ok {
		return
	}

	var req inventoryapp.RemoveStockRequest
	if !h.bindJSON(c, &req) {
		return
	}
	req.UserID = userID

	resp, err := h.ledger.RemoveStock(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// TransferStock godoc
// @ID           transferStock
// @Summary      Transfer stock between stores
// @Description  Moves units from a source store to a destination store in one transaction
// @Tags         inventory
// @Accept       json
// @Produce      json
// @Param        X-Tenant-ID header string true "Tenant ID" format(uuid)
// @Param        X-User-ID header string true "Acting user ID" format(uuid)
// @Param        request body inventoryapp.TransferStockRequest true "Transfer request"
// @Success      201 {object} APIResponse[inventoryapp.TransferResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Router       /inventory/transfers [post]
func (h *StockHandler) TransferStock(c *gin.Context) {
	tenantID, userID, ok := h.actorFromRequest(c)
	if !ok {
		return
	}

	var req inventoryapp.TransferStockRequest
	if !h.bindJSON(c, &req) {
		return
	}
	req.UserID = userID

	resp, err := h.ledger.TransferStock(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// transactionListQuery is the query form of TransactionListFilter
type transactionListQuery struct {
	StoreID         string `form:"store_id" binding:"omitempty,uuid"`
	ProductID       string `form:"product_id" binding:"omitempty,uuid"`
	TransactionType string `form:"transaction_type" binding:"omitempty,oneof=stock_in stock_out transfer_in transfer_out"`
	StartDate       string `form:"start_date"`
	EndDate         string `form:"end_date"`
	Page            int    `form:"page" binding:"omitempty,min=1"`
	PageSize        int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// ListTransactions godoc
// @ID           listStockTransactions
// @Summary      List ledger rows
// @Description  Ledger rows newest first, filtered by store, product, type and inclusive date range
// @Tags         inventory
// @Produce      json
// @Param        X-Tenant-ID header string true "Tenant ID" format(uuid)
// @Param        store_id query string false "Store ID" format(uuid)
// @Param        product_id query string false "Product ID" format(uuid)
// @Param        transaction_type query string false "Type" Enums(stock_in, stock_out, transfer_in, transfer_out)
// @Param        start_date query string false "Start date (YYYY-MM-DD)"
// @Param        end_date query string false "End date (YYYY-MM-DD), inclusive"
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20) maximum(100)
// @Success      200 {object} APIResponse[[]inventoryapp.TransactionResponse]
// @Router       /inventory/transactions [get]
func (h *StockHandler) ListTransactions(c *gin.Context) {
	tenantID, ok := h.tenantFromRequest(c)
	if !ok {
		return
	}

	var q transactionListQuery
	if !h.bindQuery(c, &q) {
		return
	}
	start, err := optionalDate(q.StartDate)
	if err != nil {
		h.Error(c, http.StatusBadRequest, "ERR_INVALID_DATE", "Invalid start_date format")
		return
	}
	end, err := optionalDate(q.EndDate)
	if err != nil {
		h.Error(c, http.StatusBadRequest, "ERR_INVALID_DATE", "Invalid end_date format")
		return
	}

	filter := inventoryapp.TransactionListFilter{
		StoreID:         optionalUUID(q.StoreID),
		ProductID:       optionalUUID(q.ProductID),
		TransactionType: q.TransactionType,
		StartDate:       start,
		EndDate:         end,
	}
	filter.Page, filter.PageSize = page(q.Page, q.PageSize)

	items, total, err := h.ledger.ListTransactions(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, items, total, filter.Page, filter.PageSize)
}

// transferListQuery is the query form of TransferListFilter
type transferListQuery struct {
	SourceStoreID      string `form:"source_store_id" binding:"omitempty,uuid"`
	DestinationStoreID string `form:"destination_store_id" binding:"omitempty,uuid"`
	Status             string `form:"status"`
	StartDate          string `form:"start_date"`
	EndDate            string `form:"end_date"`
	Page               int    `form:"page" binding:"omitempty,min=1"`
	PageSize           int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// ListTransfers godoc
// @ID           listStockTransfers
// @Summary      List transfers
// @Tags         inventory
// @Produce      json
// @Param        X-Tenant-ID header string true "Tenant ID" format(uuid)
// @Param        source_store_id query string false "Source store" format(uuid)
// @Param        destination_store_id query string false "Destination store" format(uuid)
// @Success      200 {object} APIResponse[[]inventoryapp.TransferResponse]
// @Router       /inventory/transfers [get]
func (h *StockHandler) ListTransfers(c *gin.Context) {
	tenantID, ok := h.tenantFromRequest(c)
	if !ok {
		return
	}

	var q transferListQuery
	if !h.bindQuery(c, &q) {
		return
	}
	start, err := optionalDate(q.StartDate)
	if err != nil {
		h.Error(c, http.StatusBadRequest, "ERR_INVALID_DATE", "Invalid start_date format")
		return
	}
	end, err := optionalDate(q.EndDate)
	if err != nil {
		h.Error(c, http.StatusBadRequest, "ERR_INVALID_DATE", "Invalid end_date format")
		return
	}

	filter := inventoryapp.TransferListFilter{
		SourceStoreID:      optionalUUID(q.SourceStoreID),
		DestinationStoreID: optionalUUID(q.DestinationStoreID),
		Status:             q.Status,
		StartDate:          start,
		EndDate:            end,
	}
	filter.Page, filter.PageSize = page(q.Page, q.PageSize)

	items, total, err := h.ledger.ListTransfers(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, items, total, filter.Page, filter.PageSize)
}

// GetTransferDetails godoc
// @ID           getStockTransfer
// @Summary      Get transfer with items
// @Tags         inventory
// @Produce      json
// @Param        X-Tenant-ID header string true "Tenant ID" format(uuid)
// @Param        id path string true "Transfer ID" format(uuid)
// @Success      200 {object} APIResponse[inventoryapp.TransferResponse]
// @Failure      404 {object} ErrorResponse
// @Router       /inventory/transfers/{id} [get]
func (h *StockHandler) GetTransferDetails(c *gin.Context) {
	tenantID, ok := h.tenantFromRequest(c)
	if !ok {
		return
	}
	transferID, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}

	resp, err := h.ledger.GetTransferDetails(c.Request.Context(), tenantID, transferID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// storeProduct resolves tenant plus the store and product path parameters
func (h *StockHandler) storeProduct(c *gin.Context) (tenantID, storeID, productID uuid.UUID, ok bool) {
	if tenantID, ok = h.tenantFromRequest(c); !ok {
		return
	}
	if storeID, ok = h.pathUUID(c, "store_id"); !ok {
		return
	}
	productID, ok = h.pathUUID(c, "product_id")
	return
}

// GetStockLevel godoc
// @ID           getStockLevel
// @Summary      Current quantity of a product at a store
// @Tags         inventory
// @Produce      json
// @Param        X-Tenant-ID header string true "Tenant ID" format(uuid)
// @Param        store_id path string true "Store ID" format(uuid)
// @Param        product_id path string true "Product ID" format(uuid)
// @Success      200 {object} APIResponse[inventoryapp.InventoryResponse]
// @Failure      404 {object} ErrorResponse
// @Router       /inventory/stores/{store_id}/products/{product_id} [get]
func (h *StockHandler) GetStockLevel(c *gin.Context) {
	tenantID, storeID, productID, ok := h.storeProduct(c)
	if !ok {
		return
	}

	resp, err := h.ledger.GetStockLevel(c.Request.Context(), tenantID, productID, storeID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// inventoryListQuery is the query form of InventoryListFilter
type inventoryListQuery struct {
	StoreID      string `form:"store_id" binding:"omitempty,uuid"`
	ProductID    string `form:"product_id" binding:"omitempty,uuid"`
	LowStockOnly bool   `form:"low_stock_only"`
	Search       string `form:"search"`
	Page         int    `form:"page" binding:"omitempty,min=1"`
	PageSize     int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy      string `form:"order_by"`
	OrderDir     string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// ListInventory godoc
// @ID           listInventory
// @Summary      List balances
// @Description  Balances with product and store names, sorted by product name by default
// @Tags         inventory
// @Produce      json
// @Param        X-Tenant-ID header string true "Tenant ID" format(uuid)
// @Param        store_id query string false "Store ID" format(uuid)
// @Param        low_stock_only query boolean false "Only rows at or below threshold"
// @Param        search query string false "Product name or SKU"
// @Success      200 {object} APIResponse[[]inventoryapp.InventoryResponse]
// @Router       /inventory [get]
func (h *StockHandler) ListInventory(c *gin.Context) {
	tenantID, ok := h.tenantFromRequest(c)
	if !ok {
		return
	}

	var q inventoryListQuery
	if !h.bindQuery(c, &q) {
		return
	}
	filter := inventoryapp.InventoryListFilter{
		StoreID:      optionalUUID(q.StoreID),
		ProductID:    optionalUUID(q.ProductID),
		LowStockOnly: q.LowStockOnly,
		Search:       q.Search,
		OrderBy:      q.OrderBy,
		OrderDir:     q.OrderDir,
	}
	filter.Page, filter.PageSize = page(q.Page, q.PageSize)

	items, total, err := h.ledger.ListInventory(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, items, total, filter.Page, filter.PageSize)
}

// SetLowStockThreshold godoc
// @ID           setLowStockThreshold
// @Summary      Set low-stock threshold
// @Description  Zero disables the alert. Creates the balance row when missing.
// @Tags         inventory
// @Accept       json
// @Produce      json
// @Param        X-Tenant-ID header string true "Tenant ID" format(uuid)
// @Param        store_id path string true "Store ID" format(uuid)
// @Param        product_id path string true "Product ID" format(uuid)
// @Param        request body inventoryapp.SetThresholdRequest true "Threshold"
// @Success      200 {object} APIResponse[inventoryapp.InventoryResponse]
// @Router       /inventory/stores/{store_id}/products/{product_id}/threshold [put]
func (h *StockHandler) SetLowStockThreshold(c *gin.Context) {
	tenantID, storeID, productID, ok := h.storeProduct(c)
	if !ok {
		return
	}

	var req inventoryapp.SetThresholdRequest
	if !h.bindJSON(c, &req) {
		return
	}

	resp, err := h.ledger.SetLowStockThreshold(c.Request.Context(), tenantID, productID, storeID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Reconcile godoc
// @ID           reconcileStock
// @Summary      Compare balance with ledger
// @Tags         inventory
// @Produce      json
// @Param        X-Tenant-ID header string true "Tenant ID" format(uuid)
// @Param        store_id path string true "Store ID" format(uuid)
// @Param        product_id path string true "Product ID" format(uuid)
// @Success      200 {object} APIResponse[inventoryapp.ReconcileResponse]
// @Router       /inventory/stores/{store_id}/products/{product_id}/reconcile [get]
func (h *StockHandler) Reconcile(c *gin.Context) {
	tenantID, storeID, productID, ok := h.storeProduct(c)
	if !ok {
		return
	}

	resp, err := h.ledger.Reconcile(c.Request.Context(), tenantID, productID, storeID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}
