package catalog

import (
	"time"

	"github.com/erp/pos/internal/domain/catalog"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateProductRequest represents a request to create a product
type CreateProductRequest struct {
	SKU        string           `json:"sku" binding:"required,min=1,max=64"`
	Name       string           `json:"name" binding:"required,min=1,max=200"`
	Barcode    string           `json:"barcode" binding:"max=64"`
	CategoryID *uuid.UUID       `json:"category_id"`
	Price      *decimal.Decimal `json:"price"`
	Cost       *decimal.Decimal `json:"cost"`
}

// ProductListFilter represents filter options for product list
type ProductListFilter struct {
	Search     string `form:"search"`
	CategoryID string `form:"category_id" binding:"omitempty,uuid"`
	Status     string `form:"status" binding:"omitempty,oneof=active inactive discontinued"`
	Page       int    `form:"page" binding:"omitempty,min=1"`
	PageSize   int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy    string `form:"order_by"`
	OrderDir   string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// ProductResponse represents a product in API responses
type ProductResponse struct {
	ID         uuid.UUID       `json:"id"`
	TenantID   uuid.UUID       `json:"tenant_id"`
	SKU        string          `json:"sku"`
	Name       string          `json:"name"`
	Barcode    string          `json:"barcode,omitempty"`
	CategoryID *uuid.UUID      `json:"category_id,omitempty"`
	Price      decimal.Decimal `json:"price"`
	Cost       decimal.Decimal `json:"cost"`
	Margin     decimal.Decimal `json:"margin"`
	Status     string          `json:"status"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// ToProductResponse converts a domain Product to ProductResponse
func ToProductResponse(p *catalog.Product) ProductResponse {
	return ProductResponse{
		ID:         p.ID,
		TenantID:   p.TenantID,
		SKU:        p.SKU,
		Name:       p.Name,
		Barcode:    p.Barcode,
		CategoryID: p.CategoryID,
		Price:      p.Price,
		Cost:       p.Cost,
		Margin:     p.Margin(),
		Status:     string(p.Status),
		CreatedAt:  p.CreatedAt,
		UpdatedAt:  p.UpdatedAt,
	}
}

// ToProductResponses converts a slice of products
func ToProductResponses(products []catalog.Product) []ProductResponse {
	responses := make([]ProductResponse, len(products))
	for i := range products {
		responses[i] = ToProductResponse(&products[i])
	}
	return responses
}
