package persistence

import (
	"context"
	"strings"
	"time"

	"github.com/erp/pos/internal/domain/partner"
	"github.com/erp/pos/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormStoreRepository implements partner.StoreRepository using GORM
type GormStoreRepository struct {
	db *gorm.DB
}

// NewGormStoreRepository creates a new GormStoreRepository
func NewGormStoreRepository(db *gorm.DB) *GormStoreRepository {
	return &GormStoreRepository{db: db}
}

// FindByIDForTenant finds a store by ID within a tenant
func (r *GormStoreRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*partner.Store, error) {
	var store partner.Store
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&store).Error; err != nil {
		return nil, mapNotFound(err, shared.ErrNotFound)
	}
	return &store, nil
}

// FindAllForTenant lists stores for a tenant
func (r *GormStoreRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]partner.Store, error) {
	var stores []partner.Store
	query := orderBy(r.filtered(ctx, tenantID, filter), filter, StoreSortFields, "is_main DESC, name ASC")
	if err := paginate(query, filter).Find(&stores).Error; err != nil {
		return nil, err
	}
	return stores, nil
}

// CountForTenant counts stores matching the filter
func (r *GormStoreRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	var count int64
	if err := r.filtered(ctx, tenantID, filter).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// ExistsByCode checks whether a store code is taken within a tenant
func (r *GormStoreRepository) ExistsByCode(ctx context.Context, tenantID uuid.UUID, code string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&partner.Store{}).
		Where("tenant_id = ? AND code = ?", tenantID, strings.ToUpper(code)).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Save creates or updates a store
func (r *GormStoreRepository) Save(ctx context.Context, store *partner.Store) error {
	return r.db.WithContext(ctx).Save(store).Error
}

// SetMain flags storeID as the tenant's main store and clears the flag on
// every other store of the tenant, atomically. Others are cleared first so the
// partial unique index on (tenant_id) WHERE is_main holds after each statement.
func (r *GormStoreRepository) SetMain(ctx context.Context, tenantID, storeID uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		if err := tx.Model(&partner.Store{}).
			Where("tenant_id = ? AND id <> ? AND is_main = ?", tenantID, storeID, true).
			Updates(map[string]interface{}{
				"is_main":    false,
				"version":    gorm.Expr("version + 1"),
				"updated_at": now,
			}).Error; err != nil {
			return err
		}

		result := tx.Model(&partner.Store{}).
			Where("tenant_id = ? AND id = ?", tenantID, storeID).
			Updates(map[string]interface{}{
				"is_main":    true,
				"version":    gorm.Expr("version + 1"),
				"updated_at": now,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
}

func (r *GormStoreRepository) filtered(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) *gorm.DB {
	query := r.db.WithContext(ctx).Model(&partner.Store{}).Where("tenant_id = ?", tenantID)
	if filter.Search != "" {
		pattern := likePattern(filter.Search)
		query = query.Where("LOWER(name) LIKE ? OR LOWER(code) LIKE ?", pattern, pattern)
	}
	for key, value := range filter.Filters {
		switch key {
		case "is_main":
			query = query.Where("is_main = ?", value)
		case "status":
			query = query.Where("status = ?", value)
		}
	}
	return query
}

var _ partner.StoreRepository = (*GormStoreRepository)(nil)
