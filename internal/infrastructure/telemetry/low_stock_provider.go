package telemetry

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormLowStockProvider implements LowStockProvider over the inventory table.
type GormLowStockProvider struct {
	db *gorm.DB
}

// NewGormLowStockProvider creates a new GormLowStockProvider.
func NewGormLowStockProvider(db *gorm.DB) *GormLowStockProvider {
	return &GormLowStockProvider{db: db}
}

// TenantIDs returns every tenant holding at least one balance row.
func (p *GormLowStockProvider) TenantIDs(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := p.db.WithContext(ctx).
		Table("inventory").
		Distinct("tenant_id").
		Pluck("tenant_id", &ids).Error
	return ids, err
}

// CountLowStock counts rows at or below a non-zero threshold.
func (p *GormLowStockProvider) CountLowStock(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	var count int64
	err := p.db.WithContext(ctx).
		Table("inventory").
		Where("tenant_id = ? AND low_stock_threshold > 0 AND quantity <= low_stock_threshold", tenantID).
		Count(&count).Error
	return count, err
}
