package inventory

import (
	"math"

	"github.com/erp/pos/internal/domain/shared"
)

// MaxQuantity is the largest amount a movement, threshold or balance may
// carry. Quantity columns are 32-bit INTEGER.
const MaxQuantity = math.MaxInt32

var (
	ErrInvalidQuantity   = shared.NewDomainError("INVALID_QUANTITY", "Quantity must be a positive integer")
	ErrQuantityTooLarge  = shared.NewDomainErrorf("INVALID_QUANTITY", "Quantity cannot exceed %d", MaxQuantity)
	ErrBalanceOverflow   = shared.NewDomainErrorf("INVALID_QUANTITY", "Balance would exceed %d units", MaxQuantity)
	ErrSameStoreTransfer = shared.NewDomainError("SAME_STORE_TRANSFER", "Source and destination store must differ")
	ErrInventoryNotFound = shared.NewDomainError("NOT_FOUND", "No inventory recorded for this product at this store")
	ErrTransferNotFound  = shared.NewDomainError("NOT_FOUND", "Stock transfer not found")
	ErrProductNotFound   = shared.NewDomainError("NOT_FOUND", "Product not found")
	ErrStoreNotFound     = shared.NewDomainError("NOT_FOUND", "Store not found")
	ErrUserNotFound      = shared.NewDomainError("NOT_FOUND", "User not found")
	ErrSupplierNotFound  = shared.NewDomainError("NOT_FOUND", "Supplier not found")
)
