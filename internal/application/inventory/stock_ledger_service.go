package inventory

import (
	"context"
	"errors"
	"time"

	"github.com/erp/pos/internal/domain/inventory"
	"github.com/erp/pos/internal/domain/shared"
	"github.com/google/uuid"
)

// StockLevelCache caches single balance rows for GetStockLevel.
// Implementations must treat a miss as (nil, false, nil).
type StockLevelCache interface {
	Get(ctx context.Context, tenantID, productID, storeID uuid.UUID) (*inventory.Inventory, bool, error)
	// Generation returns a counter that Invalidate advances for the pair
	Generation(ctx context.Context, tenantID, productID, storeID uuid.UUID) (int64, error)
	// Set stores inv only while the pair is still at generation
	Set(ctx context.Context, inv *inventory.Inventory, generation int64) error
	Invalidate(ctx context.Context, tenantID, productID, storeID uuid.UUID) error
}

// StockLedgerService books stock movements and answers ledger queries.
// Every write runs inside one TransactionScope so the balance and its
// ledger rows are committed together or not at all.
type StockLedgerService struct {
	inventoryRepo   inventory.InventoryRepository
	transactionRepo inventory.TransactionRepository
	transferRepo    inventory.TransferRepository
	txScope         TransactionScope
	cache           StockLevelCache
	eventPublisher  shared.EventPublisher
}

// NewStockLedgerService creates a new StockLedgerService
func NewStockLedgerService(
	inventoryRepo inventory.InventoryRepository,
	transactionRepo inventory.TransactionRepository,
	transferRepo inventory.TransferRepository,
	txScope TransactionScope,
) *StockLedgerService {
	return &StockLedgerService{
		inventoryRepo:   inventoryRepo,
		transactionRepo: transactionRepo,
		transferRepo:    transferRepo,
		txScope:         txScope,
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *StockLedgerService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetStockLevelCache sets the read-through cache used by GetStockLevel
func (s *StockLedgerService) SetStockLevelCache(cache StockLevelCache) {
	s.cache = cache
}

// publishDomainEvents publishes and clears the pending events of the given aggregates.
// Called only after the transaction has committed.
func (s *StockLedgerService) publishDomainEvents(ctx context.Context, aggregates ...shared.AggregateRoot) {
	if s.eventPublisher == nil {
		return
	}
	var events []shared.DomainEvent
	for _, agg := range aggregates {
		if agg == nil {
			continue
		}
		events = append(events, agg.GetDomainEvents()...)
		agg.ClearDomainEvents()
	}
	if len(events) == 0 {
		return
	}
	// Handler failures are logged by the event bus and do not undo a committed write
	_ = s.eventPublisher.Publish(ctx, events...)
}

// ensureReferences checks inside the transaction that the product, stores,
// user and supplier exist for the tenant
func ensureReferences(ctx context.Context, repos TransactionalRepositories, tenantID uuid.UUID, refs inventory.References) error {
	refRepo := repos.ReferenceRepo()
	if refRepo == nil {
		return nil
	}
	return refRepo.EnsureExist(ctx, tenantID, refs)
}

// AddStock books a stock-in for a product at a store, creating the balance row if needed
func (s *StockLedgerService) AddStock(ctx context.Context, tenantID uuid.UUID, req AddStockRequest) (*StockMovementResponse, error) {
	tx, err := inventory.NewInventoryTransaction(tenantID, req.ProductID, req.StoreID, req.UserID, inventory.TransactionTypeStockIn, req.Quantity)
	if err != nil {
		return nil, err
	}
	if req.SupplierID != nil && *req.SupplierID != uuid.Nil {
		tx.WithSupplier(*req.SupplierID)
	}
	if req.UnitCost != nil {
		if req.UnitCost.IsNegative() {
			return nil, shared.NewDomainError("INVALID_COST", "Unit cost cannot be negative")
		}
		tx.WithUnitCost(*req.UnitCost)
	}
	tx.WithNotes(req.Notes)

	var inv *inventory.Inventory
	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		if err := ensureReferences(ctx, repos, tenantID, inventory.References{
			ProductID:  req.ProductID,
			StoreIDs:   []uuid.UUID{req.StoreID},
			UserID:     req.UserID,
			SupplierID: tx.SupplierID,
		}); err != nil {
			return err
		}
		row, err := repos.InventoryRepo().GetOrCreate(ctx, tenantID, req.ProductID, req.StoreID)
		if err != nil {
			return err
		}
		row, err = repos.InventoryRepo().IncreaseQuantity(ctx, row, req.Quantity)
		if err != nil {
			return err
		}
		if err := repos.TransactionRepo().Create(ctx, tx); err != nil {
			return err
		}
		row.RecordMovement(tx)
		inv = row
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishDomainEvents(ctx, inv)

	return &StockMovementResponse{
		Inventory:   ToInventoryResponse(inv),
		Transaction: ToTransactionResponse(tx),
	}, nil
}

// RemoveStock books a stock-out. It fails with INSUFFICIENT_STOCK and writes
// nothing when fewer than the requested units are on hand.
func (s *StockLedgerService) RemoveStock(ctx context.Context, tenantID uuid.UUID, req RemoveStockRequest) (*StockMovementResponse, error) {
	tx, err := inventory.NewInventoryTransaction(tenantID, req.ProductID, req.StoreID, req.UserID, inventory.TransactionTypeStockOut, req.Quantity)
	if err != nil {
		return nil, err
	}
	tx.WithReason(req.Reason).WithNotes(req.Notes)

	var inv *inventory.Inventory
	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		if err := ensureReferences(ctx, repos, tenantID, inventory.References{
			ProductID: req.ProductID,
			StoreIDs:  []uuid.UUID{req.StoreID},
			UserID:    req.UserID,
		}); err != nil {
			return err
		}
		row, err := repos.InventoryRepo().FindByProductAndStore(ctx, tenantID, req.ProductID, req.StoreID)
		if err != nil {
			return notFoundAsInventory(err)
		}
		if err := row.EnsureAvailable(req.Quantity); err != nil {
			return err
		}
		row, err = repos.InventoryRepo().DecreaseQuantity(ctx, row, req.Quantity)
		if err != nil {
			return err
		}
		if err := repos.TransactionRepo().Create(ctx, tx); err != nil {
			return err
		}
		row.RecordMovement(tx)
		inv = row
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishDomainEvents(ctx, inv)

	return &StockMovementResponse{
		Inventory:   ToInventoryResponse(inv),
		Transaction: ToTransactionResponse(tx),
	}, nil
}

// TransferStock moves units of one product from a source store to a
// destination store. The header, item, both balance updates and both ledger
// rows are written in a single transaction.
func (s *StockLedgerService) TransferStock(ctx context.Context, tenantID uuid.UUID, req TransferStockRequest) (*TransferResponse, error) {
	if req.SourceStoreID == req.DestinationStoreID {
		return nil, inventory.ErrSameStoreTransfer
	}
	transfer, err := inventory.NewStockTransfer(tenantID, req.SourceStoreID, req.DestinationStoreID, req.UserID, req.ProductID, req.Quantity)
	if err != nil {
		return nil, err
	}
	transfer.SetNotes(req.Notes)

	out, in, err := transfer.LedgerEntries()
	if err != nil {
		return nil, err
	}

	var source, destination *inventory.Inventory
	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		if err := ensureReferences(ctx, repos, tenantID, inventory.References{
			ProductID: req.ProductID,
			StoreIDs:  []uuid.UUID{req.SourceStoreID, req.DestinationStoreID},
			UserID:    req.UserID,
		}); err != nil {
			return err
		}
		src, err := repos.InventoryRepo().FindByProductAndStore(ctx, tenantID, req.ProductID, req.SourceStoreID)
		if err != nil {
			return notFoundAsInventory(err)
		}
		if err := src.EnsureAvailable(req.Quantity); err != nil {
			return err
		}

		if err := repos.TransferRepo().Create(ctx, transfer); err != nil {
			return err
		}

		src, err = repos.InventoryRepo().DecreaseQuantity(ctx, src, req.Quantity)
		if err != nil {
			return err
		}

		dst, err := repos.InventoryRepo().GetOrCreate(ctx, tenantID, req.ProductID, req.DestinationStoreID)
		if err != nil {
			return err
		}
		dst, err = repos.InventoryRepo().IncreaseQuantity(ctx, dst, req.Quantity)
		if err != nil {
			return err
		}

		if err := repos.TransactionRepo().CreateBatch(ctx, []*inventory.InventoryTransaction{out, in}); err != nil {
			return err
		}

		src.RecordMovement(out)
		dst.RecordMovement(in)
		transfer.MarkApplied(src.Quantity, dst.Quantity)
		source, destination = src, dst
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishDomainEvents(ctx, transfer, source, destination)

	response := ToTransferResponse(transfer)
	return &response, nil
}

// ListTransactions lists ledger rows newest first with display names joined in
func (s *StockLedgerService) ListTransactions(ctx context.Context, tenantID uuid.UUID, filter TransactionListFilter) ([]TransactionResponse, int64, error) {
	domainFilter := shared.Filter{
		Page:     filter.Page,
		PageSize: filter.PageSize,
		Filters:  make(map[string]interface{}),
	}
	domainFilter.Normalize()

	if filter.StoreID != nil {
		domainFilter.Filters[inventory.FilterKeyStoreID] = *filter.StoreID
	}
	if filter.ProductID != nil {
		domainFilter.Filters[inventory.FilterKeyProductID] = *filter.ProductID
	}
	if filter.TransactionType != "" {
		txType, err := inventory.ParseTransactionType(filter.TransactionType)
		if err != nil {
			return nil, 0, err
		}
		domainFilter.Filters[inventory.FilterKeyTransactionType] = txType.String()
	}
	if err := applyDateRange(domainFilter, filter.StartDate, filter.EndDate); err != nil {
		return nil, 0, err
	}

	views, err := s.transactionRepo.FindAllForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.transactionRepo.CountForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	return ToTransactionViewResponses(views), total, nil
}

// ListTransfers lists transfer headers newest first
func (s *StockLedgerService) ListTransfers(ctx context.Context, tenantID uuid.UUID, filter TransferListFilter) ([]TransferResponse, int64, error) {
	domainFilter := shared.Filter{
		Page:     filter.Page,
		PageSize: filter.PageSize,
		Filters:  make(map[string]interface{}),
	}
	domainFilter.Normalize()

	if filter.SourceStoreID != nil {
		domainFilter.Filters[inventory.FilterKeySourceStoreID] = *filter.SourceStoreID
	}
	if filter.DestinationStoreID != nil {
		domainFilter.Filters[inventory.FilterKeyDestinationStoreID] = *filter.DestinationStoreID
	}
	if filter.Status != "" {
		status := inventory.TransferStatus(filter.Status)
		if !status.IsValid() {
			return nil, 0, shared.NewDomainErrorf("INVALID_STATUS", "Invalid transfer status: %s", filter.Status)
		}
		domainFilter.Filters[inventory.FilterKeyStatus] = string(status)
	}
	if err := applyDateRange(domainFilter, filter.StartDate, filter.EndDate); err != nil {
		return nil, 0, err
	}

	views, err := s.transferRepo.FindAllForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.transferRepo.CountForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	return ToTransferViewResponses(views), total, nil
}

// GetTransferDetails returns a transfer header with its items
func (s *StockLedgerService) GetTransferDetails(ctx context.Context, tenantID, transferID uuid.UUID) (*TransferResponse, error) {
	view, err := s.transferRepo.FindViewByID(ctx, tenantID, transferID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, inventory.ErrTransferNotFound
		}
		return nil, err
	}

	items, err := s.transferRepo.FindItemViews(ctx, view.ID)
	if err != nil {
		return nil, err
	}

	response := ToTransferViewResponse(view)
	response.Items = ToTransferItemResponses(items)
	return &response, nil
}

// GetStockLevel returns the balance of a product at a store, served from
// the cache when possible
func (s *StockLedgerService) GetStockLevel(ctx context.Context, tenantID, productID, storeID uuid.UUID) (*InventoryResponse, error) {
	fill := false
	var generation int64
	if s.cache != nil {
		if inv, ok, err := s.cache.Get(ctx, tenantID, productID, storeID); err == nil && ok {
			response := ToInventoryResponse(inv)
			return &response, nil
		}
		// Read before the row so a commit that lands during the load
		// invalidates past this generation and the fill is dropped
		gen, err := s.cache.Generation(ctx, tenantID, productID, storeID)
		fill, generation = err == nil, gen
	}

	inv, err := s.inventoryRepo.FindByProductAndStore(ctx, tenantID, productID, storeID)
	if err != nil {
		return nil, notFoundAsInventory(err)
	}

	if fill {
		// A failed cache write only costs a later miss
		_ = s.cache.Set(ctx, inv, generation)
	}

	response := ToInventoryResponse(inv)
	return &response, nil
}

// ListInventory lists balance rows with product and store names
func (s *StockLedgerService) ListInventory(ctx context.Context, tenantID uuid.UUID, filter InventoryListFilter) ([]InventoryResponse, int64, error) {
	domainFilter := shared.Filter{
		Page:     filter.Page,
		PageSize: filter.PageSize,
		OrderBy:  filter.OrderBy,
		OrderDir: filter.OrderDir,
		Search:   filter.Search,
		Filters:  make(map[string]interface{}),
	}
	domainFilter.Normalize()

	if filter.StoreID != nil {
		domainFilter.Filters[inventory.FilterKeyStoreID] = *filter.StoreID
	}
	if filter.ProductID != nil {
		domainFilter.Filters[inventory.FilterKeyProductID] = *filter.ProductID
	}
	if filter.LowStockOnly {
		domainFilter.Filters[inventory.FilterKeyLowStockOnly] = true
	}

	views, err := s.inventoryRepo.FindAllForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.inventoryRepo.CountForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	return ToInventoryViewResponses(views), total, nil
}

// SetLowStockThreshold changes the alert threshold of an existing balance row
func (s *StockLedgerService) SetLowStockThreshold(ctx context.Context, tenantID, productID, storeID uuid.UUID, req SetThresholdRequest) (*InventoryResponse, error) {
	inv, err := s.inventoryRepo.FindByProductAndStore(ctx, tenantID, productID, storeID)
	if err != nil {
		return nil, notFoundAsInventory(err)
	}
	if err := inv.SetLowStockThreshold(req.Threshold); err != nil {
		return nil, err
	}
	if err := s.inventoryRepo.UpdateThreshold(ctx, inv); err != nil {
		return nil, err
	}

	if s.cache != nil {
		_ = s.cache.Invalidate(ctx, tenantID, productID, storeID)
	}
	if inv.IsLowStock() {
		inv.AddDomainEvent(inventory.NewStockBelowThresholdEvent(inv))
	}
	s.publishDomainEvents(ctx, inv)

	response := ToInventoryResponse(inv)
	return &response, nil
}

// Reconcile compares the stored balance with the sum of its ledger rows.
// A pair with neither a balance row nor ledger rows is consistent at zero.
func (s *StockLedgerService) Reconcile(ctx context.Context, tenantID, productID, storeID uuid.UUID) (*ReconcileResponse, error) {
	projected := 0
	inv, err := s.inventoryRepo.FindByProductAndStore(ctx, tenantID, productID, storeID)
	switch {
	case err == nil:
		projected = inv.Quantity
	case errors.Is(err, shared.ErrNotFound):
	default:
		return nil, err
	}

	sum, err := s.transactionRepo.SumQuantity(ctx, tenantID, productID, storeID)
	if err != nil {
		return nil, err
	}

	return &ReconcileResponse{
		ProductID:  productID,
		StoreID:    storeID,
		Projected:  projected,
		LedgerSum:  sum,
		Consistent: int64(projected) == sum,
	}, nil
}

// notFoundAsInventory replaces a generic NOT_FOUND with the inventory-specific message
func notFoundAsInventory(err error) error {
	if errors.Is(err, shared.ErrNotFound) {
		return inventory.ErrInventoryNotFound
	}
	return err
}

// applyDateRange adds inclusive date bounds to the filter. An end date at
// midnight is widened to the last instant of that day.
func applyDateRange(filter shared.Filter, start, end *time.Time) error {
	if start != nil {
		filter.Filters[inventory.FilterKeyStartDate] = *start
	}
	if end != nil {
		e := *end
		if e.Hour() == 0 && e.Minute() == 0 && e.Second() == 0 && e.Nanosecond() == 0 {
			e = e.Add(24*time.Hour - time.Nanosecond)
		}
		filter.Filters[inventory.FilterKeyEndDate] = e
	}
	if start != nil && end != nil && end.Before(*start) {
		return shared.NewDomainError("INVALID_DATE_RANGE", "End date cannot be before start date")
	}
	return nil
}
