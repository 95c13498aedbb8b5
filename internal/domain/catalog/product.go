package catalog

import (
	"strings"
	"time"

	"github.com/erp/pos/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductStatus represents the status of a product
type ProductStatus string

const (
	ProductStatusActive       ProductStatus = "active"
	ProductStatusInactive     ProductStatus = "inactive"
	ProductStatusDiscontinued ProductStatus = "discontinued"
)

// Product is a sellable item identified by SKU
type Product struct {
	shared.TenantAggregateRoot
	CategoryID *uuid.UUID      `gorm:"type:uuid;index" json:"category_id,omitempty"`
	Name       string          `gorm:"type:varchar(200);not null" json:"name"`
	SKU        string          `gorm:"column:sku;type:varchar(64);not null;index" json:"sku"`
	Barcode    string          `gorm:"type:varchar(64);index" json:"barcode,omitempty"`
	Price      decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"price"`
	Cost       decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"cost"`
	Status     ProductStatus   `gorm:"type:varchar(20);not null;default:'active'" json:"status"`
}

// TableName returns the table name for GORM
func (Product) TableName() string {
	return "products"
}

// NewProduct creates a new active product
func NewProduct(tenantID uuid.UUID, sku, name string) (*Product, error) {
	if tenantID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_TENANT", "Tenant ID cannot be empty")
	}
	if err := validateSKU(sku); err != nil {
		return nil, err
	}
	if err := validateProductName(name); err != nil {
		return nil, err
	}

	return &Product{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		SKU:                 strings.ToUpper(strings.TrimSpace(sku)),
		Name:                strings.TrimSpace(name),
		Price:               decimal.Zero,
		Cost:                decimal.Zero,
		Status:              ProductStatusActive,
	}, nil
}

// SetPrices sets the selling price and cost
func (p *Product) SetPrices(price, cost decimal.Decimal) error {
	if price.IsNegative() {
		return shared.NewDomainError("INVALID_PRICE", "Price cannot be negative")
	}
	if cost.IsNegative() {
		return shared.NewDomainError("INVALID_COST", "Cost cannot be negative")
	}
	p.Price = price.Round(4)
	p.Cost = cost.Round(4)
	p.UpdatedAt = time.Now()
	return nil
}

// SetBarcode sets the barcode
func (p *Product) SetBarcode(barcode string) error {
	barcode = strings.TrimSpace(barcode)
	if len(barcode) > 64 {
		return shared.NewDomainError("INVALID_BARCODE", "Barcode cannot exceed 64 characters")
	}
	p.Barcode = barcode
	p.UpdatedAt = time.Now()
	return nil
}

// SetCategory assigns the product to a category; nil clears it
func (p *Product) SetCategory(categoryID *uuid.UUID) {
	p.CategoryID = categoryID
	p.UpdatedAt = time.Now()
}

// Margin returns price minus cost
func (p *Product) Margin() decimal.Decimal {
	return p.Price.Sub(p.Cost)
}

// IsActive returns true if the product can be sold
func (p *Product) IsActive() bool {
	return p.Status == ProductStatusActive
}

func validateSKU(sku string) error {
	sku = strings.TrimSpace(sku)
	if sku == "" {
		return shared.NewDomainError("INVALID_SKU", "SKU cannot be empty")
	}
	if len(sku) > 64 {
		return shared.NewDomainError("INVALID_SKU", "SKU cannot exceed 64 characters")
	}
	if strings.ContainsAny(sku, " \t\n") {
		return shared.NewDomainError("INVALID_SKU", "SKU cannot contain whitespace")
	}
	return nil
}

func validateProductName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "Product name cannot be empty")
	}
	if len(name) > 200 {
		return shared.NewDomainError("INVALID_NAME", "Product name cannot exceed 200 characters")
	}
	return nil
}
