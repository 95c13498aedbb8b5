package partner

import (
	"context"

	"github.com/erp/pos/internal/domain/shared"
	"github.com/google/uuid"
)

// StoreRepository defines persistence operations for stores
type StoreRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Store, error)
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]Store, error)
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error)
	ExistsByCode(ctx context.Context, tenantID uuid.UUID, code string) (bool, error)
	Save(ctx context.Context, store *Store) error
	// SetMain flags storeID as main and clears the flag on every other store of the tenant
	SetMain(ctx context.Context, tenantID, storeID uuid.UUID) error
}

// SupplierRepository defines persistence operations for suppliers
type SupplierRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Supplier, error)
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]Supplier, error)
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error)
	Save(ctx context.Context, supplier *Supplier) error
}
