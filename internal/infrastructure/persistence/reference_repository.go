package persistence

import (
	"context"

	"github.com/erp/pos/internal/domain/catalog"
	"github.com/erp/pos/internal/domain/identity"
	"github.com/erp/pos/internal/domain/inventory"
	"github.com/erp/pos/internal/domain/partner"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormReferenceRepository implements inventory.ReferenceRepository using GORM.
// The composite foreign keys on the ledger tables enforce the same rule in
// Postgres; checking first turns a violation into a NOT_FOUND.
type GormReferenceRepository struct {
	db *gorm.DB
}

// NewGormReferenceRepository creates a new GormReferenceRepository
func NewGormReferenceRepository(db *gorm.DB) *GormReferenceRepository {
	return &GormReferenceRepository{db: db}
}

// EnsureExist checks product, stores, user and supplier in that order
func (r *GormReferenceRepository) EnsureExist(ctx context.Context, tenantID uuid.UUID, refs inventory.References) error {
	if err := r.exists(ctx, &catalog.Product{}, tenantID, []uuid.UUID{refs.ProductID}, inventory.ErrProductNotFound); err != nil {
		return err
	}
	if err := r.exists(ctx, &partner.Store{}, tenantID, refs.StoreIDs, inventory.ErrStoreNotFound); err != nil {
		return err
	}
	if err := r.exists(ctx, &identity.User{}, tenantID, []uuid.UUID{refs.UserID}, inventory.ErrUserNotFound); err != nil {
		return err
	}
	if refs.SupplierID != nil && *refs.SupplierID != uuid.Nil {
		return r.exists(ctx, &partner.Supplier{}, tenantID, []uuid.UUID{*refs.SupplierID}, inventory.ErrSupplierNotFound)
	}
	return nil
}

func (r *GormReferenceRepository) exists(ctx context.Context, model interface{}, tenantID uuid.UUID, ids []uuid.UUID, missing error) error {
	ids = distinctIDs(ids)
	if len(ids) == 0 {
		return nil
	}
	for _, id := range ids {
		if id == uuid.Nil {
			return missing
		}
	}

	var count int64
	if err := r.db.WithContext(ctx).Model(model).
		Where("tenant_id = ? AND id IN ?", tenantID, ids).
		Count(&count).Error; err != nil {
		return err
	}
	if count != int64(len(ids)) {
		return missing
	}
	return nil
}

func distinctIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

var _ inventory.ReferenceRepository = (*GormReferenceRepository)(nil)
