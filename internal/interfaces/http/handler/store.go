package handler

import (
	"context"

	partnerapp "github.com/erp/pos/internal/application/partner"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// StoreService is the store use-case surface served over HTTP
type StoreService interface {
	Create(ctx context.Context, tenantID uuid.UUID, req partnerapp.CreateStoreRequest) (*partnerapp.StoreResponse, error)
	GetByID(ctx context.Context, tenantID, storeID uuid.UUID) (*partnerapp.StoreResponse, error)
	List(ctx context.Context, tenantID uuid.UUID, filter partnerapp.StoreListFilter) ([]partnerapp.StoreResponse, int64, error)
	SetMain(ctx context.Context, tenantID, storeID uuid.UUID) (*partnerapp.StoreResponse, error)
}

// StoreHandler handles store endpoints
type StoreHandler struct {
	BaseHandler
	stores StoreService
}

// NewStoreHandler creates a new StoreHandler
func NewStoreHandler(stores StoreService) *StoreHandler {
	return &StoreHandler{stores: stores}
}

// Create godoc
// @ID           createStore
// @Summary      Create a store
// @Tags         stores
// @Accept       json
// @Produce      json
// @Param        X-Tenant-ID header string true "Tenant ID" format(uuid)
// @Param        request body partnerapp.CreateStoreRequest true "Store"
// @Success      201 {object} APIResponse[partnerapp.StoreResponse]
// @Failure      409 {object} ErrorResponse
// @Router       /stores [post]
func (h *StoreHandler) Create(c *gin.Context) {
	tenantID, ok := h.tenantFromRequest(c)
	if !ok {
		return
	}

	var req partnerapp.CreateStoreRequest
	if !h.bindJSON(c, &req) {
		return
	}

	resp, err := h.stores.Create(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// GetByID godoc
// @ID           getStore
// @Summary      Get a store
// @Tags         stores
// @Produce      json
// @Param        X-Tenant-ID header string true "Tenant ID" format(uuid)
// @Param        id path string true "Store ID" format(uuid)
// @Success      200 {object} APIResponse[partnerapp.StoreResponse]
// @Failure      404 {object} ErrorResponse
// @Router       /stores/{id} [get]
func (h *StoreHandler) GetByID(c *gin.Context) {
	tenantID, ok := h.tenantFromRequest(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}

	resp, err := h.stores.GetByID(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// List godoc
// @ID           listStores
// @Summary      List stores
// @Tags         stores
// @Produce      json
// @Param        X-Tenant-ID header string true "Tenant ID" format(uuid)
// @Param        search query string false "Code or name"
// @Param        is_main query boolean false "Only the main store"
// @Success      200 {object} APIResponse[[]partnerapp.StoreResponse]
// @Router       /stores [get]
func (h *StoreHandler) List(c *gin.Context) {
	tenantID, ok := h.tenantFromRequest(c)
	if !ok {
		return
	}

	var filter partnerapp.StoreListFilter
	if !h.bindQuery(c, &filter) {
		return
	}
	filter.Page, filter.PageSize = page(filter.Page, filter.PageSize)

	items, total, err := h.stores.List(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, items, total, filter.Page, filter.PageSize)
}

// SetMain godoc
// @ID           setMainStore
// @Summary      Mark a store as the tenant's main store
// @Tags         stores
// @Produce      json
// @Param        X-Tenant-ID header string true "Tenant ID" format(uuid)
// @Param        id path string true "Store ID" format(uuid)
// @Success      200 {object} APIResponse[partnerapp.StoreResponse]
// @Failure      422 {object} ErrorResponse
// @Router       /stores/{id}/main [put]
func (h *StoreHandler) SetMain(c *gin.Context) {
	tenantID, ok := h.tenantFromRequest(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}

	resp, err := h.stores.SetMain(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}
