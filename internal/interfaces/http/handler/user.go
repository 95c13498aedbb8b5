package handler

import (
	"context"

	identityapp "github.com/erp/pos/internal/application/identity"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// UserService is the staff user use-case surface served over HTTP
type UserService interface {
	Create(ctx context.Context, tenantID uuid.UUID, req identityapp.CreateUserRequest) (*identityapp.UserResponse, error)
	GetByID(ctx context.Context, tenantID, userID uuid.UUID) (*identityapp.UserResponse, error)
	List(ctx context.Context, tenantID uuid.UUID, filter identityapp.UserListFilter) ([]identityapp.UserResponse, int64, error)
	VerifyPIN(ctx context.Context, tenantID, userID uuid.UUID, pin string) (bool, error)
}

// UserHandler handles staff user endpoints
type UserHandler struct {
	BaseHandler
	users UserService
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(users UserService) *UserHandler {
	return &UserHandler{users: users}
}

// VerifyPINRequest carries the PIN entered at the till
type VerifyPINRequest struct {
	PIN string `json:"pin" binding:"required,numeric,min=4,max=8"`
}

// VerifyPINResponse reports whether the PIN matched
type VerifyPINResponse struct {
	Valid bool `json:"valid"`
}

// Create godoc
// @ID           createUser
// @Summary      Create a staff user
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        X-Tenant-ID header string true "Tenant ID" format(uuid)
// @Param        request body identityapp.CreateUserRequest true "User"
// @Success      201 {object} APIResponse[identityapp.UserResponse]
// @Failure      409 {object} ErrorResponse
// @Router       /users [post]
func (h *UserHandler) Create(c *gin.Context) {
	tenantID, ok := h.tenantFromRequest(c)
	if !ok {
		return
	}

	var req identityapp.CreateUserRequest
	if !h.bindJSON(c, &req) {
		return
	}

	resp, err := h.users.Create(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// GetByID returns one user
func (h *UserHandler) GetByID(c *gin.Context) {
	tenantID, ok := h.tenantFromRequest(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}

	resp, err := h.users.GetByID(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// List returns a page of users
func (h *UserHandler) List(c *gin.Context) {
	tenantID, ok := h.tenantFromRequest(c)
	if !ok {
		return
	}

	var filter identityapp.UserListFilter
	if !h.bindQuery(c, &filter) {
		return
	}
	filter.Page, filter.PageSize = page(filter.Page, filter.PageSize)

	items, total, err := h.users.List(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, items, total, filter.Page, filter.PageSize)
}

// VerifyPIN godoc
// @ID           verifyUserPin
// @Summary      Check a staff PIN
// @Description  Returns valid=false for a wrong PIN or a user without one
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        X-Tenant-ID header string true "Tenant ID" format(uuid)
// @Param        id path string true "User ID" format(uuid)
// @Param        request body VerifyPINRequest true "PIN"
// @Success      200 {object} APIResponse[VerifyPINResponse]
// @Failure      404 {object} ErrorResponse
// @Router       /users/{id}/verify-pin [post]
func (h *UserHandler) VerifyPIN(c *gin.Context) {
	tenantID, ok := h.tenantFromRequest(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}

	var req VerifyPINRequest
	if !h.bindJSON(c, &req) {
		return
	}

	valid, err := h.users.VerifyPIN(c.Request.Context(), tenantID, id, req.PIN)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, VerifyPINResponse{Valid: valid})
}
