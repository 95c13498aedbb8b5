package partner

import (
	"strings"
	"time"

	"github.com/erp/pos/internal/domain/shared"
	"github.com/google/uuid"
)

// StoreStatus represents the status of a store
type StoreStatus string

const (
	StoreStatusActive   StoreStatus = "active"
	StoreStatusInactive StoreStatus = "inactive"
)

// IsValid returns true if the status is a known value
func (s StoreStatus) IsValid() bool {
	return s == StoreStatusActive || s == StoreStatusInactive
}

// Store is a stock-holding location. A sellable shop and a back warehouse
// share this shape; the only distinction is the IsMain flag.
type Store struct {
	shared.TenantAggregateRoot
	Code    string      `gorm:"type:varchar(50);not null;index" json:"code"`
	Name    string      `gorm:"type:varchar(200);not null" json:"name"`
	Address string      `gorm:"type:text" json:"address"`
	IsMain  bool        `gorm:"not null;default:false" json:"is_main"`
	Status  StoreStatus `gorm:"type:varchar(20);not null;default:'active'" json:"status"`
}

// TableName returns the table name for GORM
func (Store) TableName() string {
	return "stores"
}

// NewStore creates a new active store
func NewStore(tenantID uuid.UUID, code, name string) (*Store, error) {
	if tenantID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_TENANT", "Tenant ID cannot be empty")
	}
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, shared.NewDomainError("INVALID_CODE", "Store code cannot be empty")
	}
	if len(code) > 50 {
		return nil, shared.NewDomainError("INVALID_CODE", "Store code cannot exceed 50 characters")
	}
	if err := validateStoreName(name); err != nil {
		return nil, err
	}

	return &Store{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Code:                strings.ToUpper(code),
		Name:                strings.TrimSpace(name),
		Status:              StoreStatusActive,
	}, nil
}

// SetAddress sets the store address
func (s *Store) SetAddress(address string) {
	s.Address = address
	s.UpdatedAt = time.Now()
}

// MarkMain flags the store as the company's main store
func (s *Store) MarkMain() {
	if s.IsMain {
		return
	}
	s.IsMain = true
	s.UpdatedAt = time.Now()
	s.IncrementVersion()
}

// ClearMain removes the main flag
func (s *Store) ClearMain() {
	if !s.IsMain {
		return
	}
	s.IsMain = false
	s.UpdatedAt = time.Now()
	s.IncrementVersion()
}

// Deactivate marks the store inactive
func (s *Store) Deactivate() error {
	if s.Status == StoreStatusInactive {
		return shared.NewDomainError("ALREADY_INACTIVE", "Store is already inactive")
	}
	if s.IsMain {
		return shared.NewDomainError("CANNOT_DEACTIVATE_MAIN", "Main store cannot be deactivated")
	}
	s.Status = StoreStatusInactive
	s.UpdatedAt = time.Now()
	s.IncrementVersion()
	return nil
}

// IsActive returns true if the store is active
func (s *Store) IsActive() bool {
	return s.Status == StoreStatusActive
}

func validateStoreName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "Store name cannot be empty")
	}
	if len(name) > 200 {
		return shared.NewDomainError("INVALID_NAME", "Store name cannot exceed 200 characters")
	}
	return nil
}
