package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/erp/pos/internal/domain/inventory"
	"github.com/erp/pos/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormInventoryRepository implements inventory.InventoryRepository using GORM
type GormInventoryRepository struct {
	db *gorm.DB
}

// NewGormInventoryRepository creates a new GormInventoryRepository
func NewGormInventoryRepository(db *gorm.DB) *GormInventoryRepository {
	return &GormInventoryRepository{db: db}
}

// FindByIDForTenant finds a balance row by ID within a tenant
func (r *GormInventoryRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*inventory.Inventory, error) {
	var inv inventory.Inventory
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&inv).Error; err != nil {
		return nil, mapNotFound(err, inventory.ErrInventoryNotFound)
	}
	return &inv, nil
}

// FindByProductAndStore finds the balance row for a product-store pair
func (r *GormInventoryRepository) FindByProductAndStore(ctx context.Context, tenantID, productID, storeID uuid.UUID) (*inventory.Inventory, error) {
	var inv inventory.Inventory
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND product_id = ? AND store_id = ?", tenantID, productID, storeID).
		First(&inv).Error; err != nil {
		return nil, mapNotFound(err, inventory.ErrInventoryNotFound)
	}
	return &inv, nil
}

// GetOrCreate inserts an empty balance row unless one exists, then returns
// the stored row. The unique (tenant_id, product_id, store_id) index makes
// concurrent first writers converge on one row.
func (r *GormInventoryRepository) GetOrCreate(ctx context.Context, tenantID, productID, storeID uuid.UUID) (*inventory.Inventory, error) {
	inv, err := inventory.NewInventory(tenantID, productID, storeID)
	if err != nil {
		return nil, err
	}

	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "tenant_id"},
				{Name: "product_id"},
				{Name: "store_id"},
			},
			DoNothing: true,
		}).
		Create(inv)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to create inventory row: %w", result.Error)
	}
	if result.RowsAffected == 1 {
		return inv, nil
	}

	return r.FindByProductAndStore(ctx, tenantID, productID, storeID)
}

// IncreaseQuantity adds quantity with a single UPDATE and returns the stored row.
// The guard keeps the balance within inventory.MaxQuantity.
func (r *GormInventoryRepository) IncreaseQuantity(ctx context.Context, inv *inventory.Inventory, quantity int) (*inventory.Inventory, error) {
	if quantity <= 0 {
		return nil, inventory.ErrInvalidQuantity
	}
	if quantity > inventory.MaxQuantity {
		return nil, inventory.ErrQuantityTooLarge
	}

	result := r.db.WithContext(ctx).
		Model(&inventory.Inventory{}).
		Where("id = ? AND quantity <= ?", inv.ID, inventory.MaxQuantity-quantity).
		Updates(map[string]interface{}{
			"quantity":   gorm.Expr("quantity + ?", quantity),
			"version":    gorm.Expr("version + 1"),
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return nil, fmt.Errorf("failed to increase inventory: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		current, err := r.FindByIDForTenant(ctx, inv.TenantID, inv.ID)
		if err != nil {
			return nil, err
		}
		if err := current.EnsureCapacity(quantity); err != nil {
			return nil, err
		}
		return nil, shared.NewDomainError("CONCURRENT_MODIFICATION", "Inventory changed concurrently, retry the operation")
	}

	return r.FindByIDForTenant(ctx, inv.TenantID, inv.ID)
}

// DecreaseQuantity subtracts quantity only while quantity >= requested.
// Zero affected rows means a concurrent writer drained the stock first.
func (r *GormInventoryRepository) DecreaseQuantity(ctx context.Context, inv *inventory.Inventory, quantity int) (*inventory.Inventory, error) {
	if quantity <= 0 {
		return nil, inventory.ErrInvalidQuantity
	}

	result := r.db.WithContext(ctx).
		Model(&inventory.Inventory{}).
		Where("id = ? AND quantity >= ?", inv.ID, quantity).
		Updates(map[string]interface{}{
			"quantity":   gorm.Expr("quantity - ?", quantity),
			"version":    gorm.Expr("version + 1"),
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return nil, fmt.Errorf("failed to decrease inventory: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		current, err := r.FindByIDForTenant(ctx, inv.TenantID, inv.ID)
		if err != nil {
			return nil, err
		}
		if err := current.EnsureAvailable(quantity); err != nil {
			return nil, err
		}
		return nil, shared.NewDomainError("CONCURRENT_MODIFICATION", "Inventory changed concurrently, retry the operation")
	}

	return r.FindByIDForTenant(ctx, inv.TenantID, inv.ID)
}

// UpdateThreshold persists the low-stock threshold and version
func (r *GormInventoryRepository) UpdateThreshold(ctx context.Context, inv *inventory.Inventory) error {
	result := r.db.WithContext(ctx).
		Model(&inventory.Inventory{}).
		Where("tenant_id = ? AND id = ?", inv.TenantID, inv.ID).
		Updates(map[string]interface{}{
			"low_stock_threshold": inv.LowStockThreshold,
			"version":             inv.Version,
			"updated_at":          time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return inventory.ErrInventoryNotFound
	}
	return nil
}

// FindAllForTenant lists balance rows with product and store names
func (r *GormInventoryRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]inventory.InventoryView, error) {
	query := r.viewQuery(ctx, tenantID, filter).
		Select("i.*, COALESCE(p.name, '') AS product_name, COALESCE(p.sku, '') AS product_sku, COALESCE(s.name, '') AS store_name")

	field := ValidateSortField(filter.OrderBy, InventorySortFields, "product_name")
	if field != "product_name" && field != "store_name" {
		field = "i." + field
	}
	query = query.Order(field + " " + ValidateSortOrder(orderDirOrAsc(filter.OrderDir))).Order("i.id ASC")

	views := make([]inventory.InventoryView, 0)
	if err := paginate(query, filter).Scan(&views).Error; err != nil {
		return nil, err
	}
	return views, nil
}

// CountForTenant counts balance rows matching the filter
func (r *GormInventoryRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	var count int64
	if err := r.viewQuery(ctx, tenantID, filter).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// CountLowStock counts rows at or below a non-zero threshold
func (r *GormInventoryRepository) CountLowStock(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&inventory.Inventory{}).
		Where("tenant_id = ? AND low_stock_threshold > 0 AND quantity <= low_stock_threshold", tenantID).
		Count(&count).Error
	return count, err
}

// FindDrift returns the tenant's balance rows whose quantity differs from
// the sum of their ledger rows
func (r *GormInventoryRepository) FindDrift(ctx context.Context, tenantID uuid.UUID) ([]inventory.BalanceDrift, error) {
	drifts := make([]inventory.BalanceDrift, 0)
	err := r.db.WithContext(ctx).
		Table("inventory AS i").
		Select("i.id AS inventory_id, i.tenant_id, i.product_id, i.store_id, i.quantity AS projected, COALESCE(SUM(t.quantity), 0) AS ledger_sum").
		Joins("LEFT JOIN inventory_transactions t ON t.tenant_id = i.tenant_id AND t.product_id = i.product_id AND t.store_id = i.store_id").
		Where("i.tenant_id = ?", tenantID).
		Group("i.id, i.tenant_id, i.product_id, i.store_id, i.quantity").
		Having("i.quantity <> COALESCE(SUM(t.quantity), 0)").
		Order("i.id ASC").
		Scan(&drifts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to compute balance drift: %w", err)
	}
	return drifts, nil
}

// ListTenantIDs returns every tenant holding at least one balance row
func (r *GormInventoryRepository) ListTenantIDs(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	if err := r.db.WithContext(ctx).
		Model(&inventory.Inventory{}).
		Distinct("tenant_id").
		Order("tenant_id ASC").
		Pluck("tenant_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *GormInventoryRepository) viewQuery(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) *gorm.DB {
	query := r.db.WithContext(ctx).
		Table("inventory AS i").
		Joins("LEFT JOIN products p ON p.id = i.product_id").
		Joins("LEFT JOIN stores s ON s.id = i.store_id").
		Where("i.tenant_id = ?", tenantID)

	if filter.Search != "" {
		pattern := likePattern(filter.Search)
		query = query.Where("LOWER(p.name) LIKE ? OR LOWER(p.sku) LIKE ?", pattern, pattern)
	}
	for key, value := range filter.Filters {
		switch key {
		case inventory.FilterKeyStoreID:
			query = query.Where("i.store_id = ?", value)
		case inventory.FilterKeyProductID:
			query = query.Where("i.product_id = ?", value)
		case inventory.FilterKeyLowStockOnly:
			if value == true {
				query = query.Where("i.low_stock_threshold > 0 AND i.quantity <= i.low_stock_threshold")
			}
		}
	}
	return query
}

// orderDirOrAsc defaults an empty direction to ascending for name-sorted listings
func orderDirOrAsc(dir string) string {
	if dir == "" {
		return "asc"
	}
	return dir
}

var _ inventory.InventoryRepository = (*GormInventoryRepository)(nil)
