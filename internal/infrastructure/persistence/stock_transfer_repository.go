package persistence

import (
	"context"
	"fmt"

	"github.com/erp/pos/internal/domain/inventory"
	"github.com/erp/pos/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormStockTransferRepository implements inventory.TransferRepository using GORM
type GormStockTransferRepository struct {
	db *gorm.DB
}

// NewGormStockTransferRepository creates a new GormStockTransferRepository
func NewGormStockTransferRepository(db *gorm.DB) *GormStockTransferRepository {
	return &GormStockTransferRepository{db: db}
}

const transferViewSelect = `st.*,
	COALESCE(src.name, '') AS source_store_name,
	COALESCE(dst.name, '') AS destination_store_name,
	COALESCE(u.full_name, '') AS user_name`

// Create inserts the header, then its items
func (r *GormStockTransferRepository) Create(ctx context.Context, transfer *inventory.StockTransfer) error {
	db := r.db.WithContext(ctx)
	if err := db.Omit("Items").Create(transfer).Error; err != nil {
		return fmt.Errorf("failed to create stock transfer: %w", err)
	}
	if len(transfer.Items) == 0 {
		return nil
	}
	if err := db.Create(&transfer.Items).Error; err != nil {
		return fmt.Errorf("failed to create stock transfer items: %w", err)
	}
	return nil
}

// FindViewByID returns the header with store and user names
func (r *GormStockTransferRepository) FindViewByID(ctx context.Context, tenantID, id uuid.UUID) (*inventory.TransferView, error) {
	var views []inventory.TransferView
	if err := r.joined(ctx).
		Select(transferViewSelect).
		Where("st.tenant_id = ? AND st.id = ?", tenantID, id).
		Limit(1).
		Scan(&views).Error; err != nil {
		return nil, err
	}
	if len(views) == 0 {
		return nil, inventory.ErrTransferNotFound
	}
	return &views[0], nil
}

// FindItemViews returns the transfer lines with product name and SKU
func (r *GormStockTransferRepository) FindItemViews(ctx context.Context, transferID uuid.UUID) ([]inventory.TransferItemView, error) {
	items := make([]inventory.TransferItemView, 0)
	if err := r.db.WithContext(ctx).
		Table("stock_transfer_items AS it").
		Select("it.*, COALESCE(p.name, '') AS product_name, COALESCE(p.sku, '') AS product_sku").
		Joins("LEFT JOIN products p ON p.id = it.product_id").
		Where("it.transfer_id = ?", transferID).
		Order("it.created_at ASC").
		Scan(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// FindAllForTenant lists headers newest first
func (r *GormStockTransferRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]inventory.TransferView, error) {
	query := r.filtered(r.joined(ctx).Select(transferViewSelect), tenantID, filter).
		Order("st.transfer_date DESC").
		Order("st.id DESC")

	views := make([]inventory.TransferView, 0)
	if err := paginate(query, filter).Scan(&views).Error; err != nil {
		return nil, err
	}
	return views, nil
}

// CountForTenant counts headers matching the filter
func (r *GormStockTransferRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	var count int64
	query := r.filtered(r.db.WithContext(ctx).Table("stock_transfers AS st"), tenantID, filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *GormStockTransferRepository) joined(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Table("stock_transfers AS st").
		Joins("LEFT JOIN stores src ON src.id = st.source_store_id").
		Joins("LEFT JOIN stores dst ON dst.id = st.destination_store_id").
		Joins("LEFT JOIN users u ON u.id = st.user_id")
}

func (r *GormStockTransferRepository) filtered(query *gorm.DB, tenantID uuid.UUID, filter shared.Filter) *gorm.DB {
	query = query.Where("st.tenant_id = ?", tenantID)
	for key, value := range filter.Filters {
		switch key {
		case inventory.FilterKeySourceStoreID:
			query = query.Where("st.source_store_id = ?", value)
		case inventory.FilterKeyDestinationStoreID:
			query = query.Where("st.destination_store_id = ?", value)
		case inventory.FilterKeyStatus:
			query = query.Where("st.status = ?", value)
		case inventory.FilterKeyStartDate:
			query = query.Where("st.transfer_date >= ?", value)
		case inventory.FilterKeyEndDate:
			query = query.Where("st.transfer_date <= ?", value)
		}
	}
	return query
}

var _ inventory.TransferRepository = (*GormStockTransferRepository)(nil)
