package persistence

import (
	"context"

	appinv "github.com/erp/pos/internal/application/inventory"
	"github.com/erp/pos/internal/domain/inventory"
	"gorm.io/gorm"
)

// GormTransactionScope implements TransactionScope using GORM transactions
type GormTransactionScope struct {
	db *gorm.DB
}

// NewGormTransactionScope creates a new GormTransactionScope
func NewGormTransactionScope(db *gorm.DB) *GormTransactionScope {
	return &GormTransactionScope{db: db}
}

// Execute runs fn in a database transaction. A returned error or panic rolls
// back every write made through the provided repositories.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos appinv.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTransactionalRepositories{tx: tx})
	})
}

type gormTransactionalRepositories struct {
	tx *gorm.DB
}

func (r *gormTransactionalRepositories) InventoryRepo() inventory.InventoryRepository {
	return NewGormInventoryRepository(r.tx)
}

func (r *gormTransactionalRepositories) TransactionRepo() inventory.TransactionRepository {
	return NewGormInventoryTransactionRepository(r.tx)
}

func (r *gormTransactionalRepositories) TransferRepo() inventory.TransferRepository {
	return NewGormStockTransferRepository(r.tx)
}

func (r *gormTransactionalRepositories) ReferenceRepo() inventory.ReferenceRepository {
	return NewGormReferenceRepository(r.tx)
}

var _ appinv.TransactionScope = (*GormTransactionScope)(nil)
var _ appinv.TransactionalRepositories = (*gormTransactionalRepositories)(nil)
