package persistence

import (
	"context"
	"fmt"

	"github.com/erp/pos/internal/domain/inventory"
	"github.com/erp/pos/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormInventoryTransactionRepository implements inventory.TransactionRepository.
// The ledger is append-only: there is no update or delete.
type GormInventoryTransactionRepository struct {
	db *gorm.DB
}

// NewGormInventoryTransactionRepository creates a new GormInventoryTransactionRepository
func NewGormInventoryTransactionRepository(db *gorm.DB) *GormInventoryTransactionRepository {
	return &GormInventoryTransactionRepository{db: db}
}

// Create appends a ledger row
func (r *GormInventoryTransactionRepository) Create(ctx context.Context, tx *inventory.InventoryTransaction) error {
	if err := r.db.WithContext(ctx).Create(tx).Error; err != nil {
		return fmt.Errorf("failed to record inventory transaction: %w", err)
	}
	return nil
}

// CreateBatch appends several ledger rows in one statement
func (r *GormInventoryTransactionRepository) CreateBatch(ctx context.Context, txs []*inventory.InventoryTransaction) error {
	if len(txs) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).Create(&txs).Error; err != nil {
		return fmt.Errorf("failed to record inventory transactions: %w", err)
	}
	return nil
}

// FindAllForTenant lists ledger rows newest first with display names joined in.
// id breaks ties between rows sharing a transaction_date.
func (r *GormInventoryTransactionRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]inventory.TransactionView, error) {
	query := r.filtered(ctx, tenantID, filter).
		Select(`t.*,
			COALESCE(p.name, '') AS product_name,
			COALESCE(p.sku, '') AS product_sku,
			COALESCE(s.name, '') AS store_name,
			COALESCE(u.full_name, '') AS user_name,
			COALESCE(sup.name, '') AS supplier_name`).
		Joins("LEFT JOIN products p ON p.id = t.product_id").
		Joins("LEFT JOIN stores s ON s.id = t.store_id").
		Joins("LEFT JOIN users u ON u.id = t.user_id").
		Joins("LEFT JOIN suppliers sup ON sup.id = t.supplier_id").
		Order("t.transaction_date DESC").
		Order("t.id DESC")

	views := make([]inventory.TransactionView, 0)
	if err := paginate(query, filter).Scan(&views).Error; err != nil {
		return nil, err
	}
	return views, nil
}

// CountForTenant counts ledger rows matching the filter
func (r *GormInventoryTransactionRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	var count int64
	if err := r.filtered(ctx, tenantID, filter).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// FindByReference returns the rows booked against a transfer, outgoing first
func (r *GormInventoryTransactionRepository) FindByReference(ctx context.Context, tenantID, referenceID uuid.UUID) ([]inventory.InventoryTransaction, error) {
	var txs []inventory.InventoryTransaction
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND reference_id = ?", tenantID, referenceID).
		Order("quantity ASC").
		Find(&txs).Error; err != nil {
		return nil, err
	}
	return txs, nil
}

// SumQuantity sums the signed deltas for a product-store pair
func (r *GormInventoryTransactionRepository) SumQuantity(ctx context.Context, tenantID, productID, storeID uuid.UUID) (int64, error) {
	var sum int64
	if err := r.db.WithContext(ctx).
		Model(&inventory.InventoryTransaction{}).
		Select("COALESCE(SUM(quantity), 0)").
		Where("tenant_id = ? AND product_id = ? AND store_id = ?", tenantID, productID, storeID).
		Scan(&sum).Error; err != nil {
		return 0, err
	}
	return sum, nil
}

func (r *GormInventoryTransactionRepository) filtered(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) *gorm.DB {
	query := r.db.WithContext(ctx).
		Table("inventory_transactions AS t").
		Where("t.tenant_id = ?", tenantID)

	for key, value := range filter.Filters {
		switch key {
		case inventory.FilterKeyStoreID:
			query = query.Where("t.store_id = ?", value)
		case inventory.FilterKeyProductID:
			query = query.Where("t.product_id = ?", value)
		case inventory.FilterKeyTransactionType:
			query = query.Where("t.transaction_type = ?", value)
		case inventory.FilterKeyStartDate:
			query = query.Where("t.transaction_date >= ?", value)
		case inventory.FilterKeyEndDate:
			query = query.Where("t.transaction_date <= ?", value)
		}
	}
	return query
}

var _ inventory.TransactionRepository = (*GormInventoryTransactionRepository)(nil)
