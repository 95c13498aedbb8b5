package partner

import (
	"context"

	"github.com/erp/pos/internal/domain/partner"
	"github.com/erp/pos/internal/domain/shared"
	"github.com/google/uuid"
)

// StoreService handles store-related business operations
type StoreService struct {
	storeRepo partner.StoreRepository
}

// NewStoreService creates a new StoreService
func NewStoreService(storeRepo partner.StoreRepository) *StoreService {
	return &StoreService{storeRepo: storeRepo}
}

// Create creates a new store
func (s *StoreService) Create(ctx context.Context, tenantID uuid.UUID, req CreateStoreRequest) (*StoreResponse, error) {
	store, err := partner.NewStore(tenantID, req.Code, req.Name)
	if err != nil {
		return nil, err
	}

	exists, err := s.storeRepo.ExistsByCode(ctx, tenantID, store.Code)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.NewDomainError("ALREADY_EXISTS", "Store with this code already exists")
	}

	if req.Address != "" {
		store.SetAddress(req.Address)
	}

	if err := s.storeRepo.Save(ctx, store); err != nil {
		return nil, err
	}

	if req.IsMain {
		if err := s.storeRepo.SetMain(ctx, tenantID, store.ID); err != nil {
			return nil, err
		}
		store.MarkMain()
	}

	response := ToStoreResponse(store)
	return &response, nil
}

// GetByID retrieves a store by ID
func (s *StoreService) GetByID(ctx context.Context, tenantID, storeID uuid.UUID) (*StoreResponse, error) {
	store, err := s.storeRepo.FindByIDForTenant(ctx, tenantID, storeID)
	if err != nil {
		return nil, err
	}
	response := ToStoreResponse(store)
	return &response, nil
}

// List retrieves stores with filtering and pagination
func (s *StoreService) List(ctx context.Context, tenantID uuid.UUID, filter StoreListFilter) ([]StoreResponse, int64, error) {
	if filter.OrderBy == "" {
		filter.OrderBy = "name"
	}
	if filter.OrderDir == "" {
		filter.OrderDir = "asc"
	}

	domainFilter := shared.Filter{
		Page:     filter.Page,
		PageSize: filter.PageSize,
		OrderBy:  filter.OrderBy,
		OrderDir: filter.OrderDir,
		Search:   filter.Search,
		Filters:  make(map[string]interface{}),
	}
	domainFilter.Normalize()

	if filter.IsMain != nil {
		domainFilter.Filters["is_main"] = *filter.IsMain
	}
	if filter.Status != "" {
		domainFilter.Filters["status"] = filter.Status
	}

	stores, err := s.storeRepo.FindAllForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.storeRepo.CountForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	return ToStoreResponses(stores), total, nil
}

// SetMain makes the store the tenant's main store and clears the flag elsewhere
func (s *StoreService) SetMain(ctx context.Context, tenantID, storeID uuid.UUID) (*StoreResponse, error) {
	store, err := s.storeRepo.FindByIDForTenant(ctx, tenantID, storeID)
	if err != nil {
		return nil, err
	}
	if !store.IsActive() {
		return nil, shared.NewDomainError("INVALID_STATE", "Inactive store cannot be the main store")
	}

	if err := s.storeRepo.SetMain(ctx, tenantID, storeID); err != nil {
		return nil, err
	}
	store.MarkMain()

	response := ToStoreResponse(store)
	return &response, nil
}
