package persistence

import (
	"strings"
)

// ValidateSortOrder normalizes the sort order to ASC or DESC, defaulting to DESC
func ValidateSortOrder(orderDir string) string {
	if strings.ToUpper(strings.TrimSpace(orderDir)) == "ASC" {
		return "ASC"
	}
	return "DESC"
}

// ValidateSortField returns sortField if whitelisted, otherwise defaultField
func ValidateSortField(sortField string, allowedFields map[string]bool, defaultField string) string {
	trimmed := strings.TrimSpace(sortField)
	if trimmed == "" {
		return defaultField
	}
	if allowedFields[trimmed] {
		return trimmed
	}
	return defaultField
}

// StoreSortFields contains allowed sort fields for stores
var StoreSortFields = map[string]bool{
	"created_at": true,
	"updated_at": true,
	"code":       true,
	"name":       true,
	"status":     true,
	"is_main":    true,
}

// SupplierSortFields contains allowed sort fields for suppliers
var SupplierSortFields = map[string]bool{
	"created_at":   true,
	"updated_at":   true,
	"name":         true,
	"contact_name": true,
}

// ProductSortFields contains allowed sort fields for products
var ProductSortFields = map[string]bool{
	"created_at": true,
	"updated_at": true,
	"name":       true,
	"sku":        true,
	"barcode":    true,
	"price":      true,
	"cost":       true,
	"status":     true,
}

// UserSortFields contains allowed sort fields for users
var UserSortFields = map[string]bool{
	"created_at": true,
	"updated_at": true,
	"username":   true,
	"full_name":  true,
	"email":      true,
}

// InventorySortFields contains allowed sort fields for balance listings.
// product_name and store_name are select aliases; the rest are inventory columns.
var InventorySortFields = map[string]bool{
	"updated_at":          true,
	"quantity":            true,
	"low_stock_threshold": true,
	"product_name":        true,
	"store_name":          true,
}
