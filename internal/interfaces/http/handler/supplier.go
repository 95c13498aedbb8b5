package handler

import (
	"context"

	partnerapp "github.com/erp/pos/internal/application/partner"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// SupplierService is the supplier use-case surface served over HTTP
type SupplierService interface {
	Create(ctx context.Context, tenantID uuid.UUID, req partnerapp.CreateSupplierRequest) (*partnerapp.SupplierResponse, error)
	GetByID(ctx context.Context, tenantID, supplierID uuid.UUID) (*partnerapp.SupplierResponse, error)
	List(ctx context.Context, tenantID uuid.UUID, filter partnerapp.SupplierListFilter) ([]partnerapp.SupplierResponse, int64, error)
}

// SupplierHandler handles supplier endpoints
type SupplierHandler struct {
	BaseHandler
	suppliers SupplierService
}

// NewSupplierHandler creates a new SupplierHandler
func NewSupplierHandler(suppliers SupplierService) *SupplierHandler {
	return &SupplierHandler{suppliers: suppliers}
}

// Create godoc
// @ID           createSupplier
// @Summary      Create a supplier
// @Tags         suppliers
// @Accept       json
// @Produce      json
// @Param        X-Tenant-ID header string true "Tenant ID" format(uuid)
// @Param        request body partnerapp.CreateSupplierRequest true "Supplier"
// @Success      201 {object} APIResponse[partnerapp.SupplierResponse]
// @Router       /suppliers [post]
func (h *SupplierHandler) Create(c *gin.Context) {
	tenantID, ok := h.tenantFromRequest(c)
	if !ok {
		return
	}

	var req partnerapp.CreateSupplierRequest
	if !h.bindJSON(c, &req) {
		return
	}

	resp, err := h.suppliers.Create(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// GetByID returns one supplier
func (h *SupplierHandler) GetByID(c *gin.Context) {
	tenantID, ok := h.tenantFromRequest(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}

	resp, err := h.suppliers.GetByID(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// List returns a page of suppliers
func (h *SupplierHandler) List(c *gin.Context) {
	tenantID, ok := h.tenantFromRequest(c)
	if !ok {
		return
	}

	var filter partnerapp.SupplierListFilter
	if !h.bindQuery(c, &filter) {
		return
	}
	filter.Page, filter.PageSize = page(filter.Page, filter.PageSize)

	items, total, err := h.suppliers.List(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, items, total, filter.Page, filter.PageSize)
}
