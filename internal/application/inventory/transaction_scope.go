package inventory

import (
	"context"

	"github.com/erp/pos/internal/domain/inventory"
)

// TransactionScope provides transactional access to the ledger repositories.
// All repository calls made inside fn commit or roll back together.
type TransactionScope interface {
	// Execute runs fn within a database transaction.
	// If fn returns an error, the transaction is rolled back.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories exposes repositories bound to one transaction
type TransactionalRepositories interface {
	InventoryRepo() inventory.InventoryRepository
	TransactionRepo() inventory.TransactionRepository
	TransferRepo() inventory.TransferRepository
	// ReferenceRepo may return nil, in which case references are not checked
	ReferenceRepo() inventory.ReferenceRepository
}

// NoOpTransactionScope runs the function directly against the given
// repositories. Used in unit tests where the repositories are mocks.
type NoOpTransactionScope struct {
	inventoryRepo   inventory.InventoryRepository
	transactionRepo inventory.TransactionRepository
	transferRepo    inventory.TransferRepository
	referenceRepo   inventory.ReferenceRepository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope with the given repositories.
func NewNoOpTransactionScope(
	inventoryRepo inventory.InventoryRepository,
	transactionRepo inventory.TransactionRepository,
	transferRepo inventory.TransferRepository,
) *NoOpTransactionScope {
	return &NoOpTransactionScope{
		inventoryRepo:   inventoryRepo,
		transactionRepo: transactionRepo,
		transferRepo:    transferRepo,
	}
}

// WithReferenceRepo sets the repository used to check master data references
func (s *NoOpTransactionScope) WithReferenceRepo(repo inventory.ReferenceRepository) *NoOpTransactionScope {
	s.referenceRepo = repo
	return s
}

// Execute runs the function without a real transaction.
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// InventoryRepo returns the inventory repository.
func (s *NoOpTransactionScope) InventoryRepo() inventory.InventoryRepository {
	return s.inventoryRepo
}

// TransactionRepo returns the ledger repository.
func (s *NoOpTransactionScope) TransactionRepo() inventory.TransactionRepository {
	return s.transactionRepo
}

// TransferRepo returns the transfer repository.
func (s *NoOpTransactionScope) TransferRepo() inventory.TransferRepository {
	return s.transferRepo
}

// ReferenceRepo returns the reference repository, nil when none was set.
func (s *NoOpTransactionScope) ReferenceRepo() inventory.ReferenceRepository {
	return s.referenceRepo
}

var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
