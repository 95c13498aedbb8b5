package partner

import (
	"strings"

	"github.com/erp/pos/internal/domain/shared"
	"github.com/google/uuid"
)

// Supplier is a vendor that stock-in entries can be attributed to
type Supplier struct {
	shared.TenantAggregateRoot
	Name        string `gorm:"type:varchar(200);not null" json:"name"`
	ContactName string `gorm:"type:varchar(100)" json:"contact_name"`
	Phone       string `gorm:"type:varchar(50)" json:"phone"`
	Email       string `gorm:"type:varchar(200)" json:"email"`
}

// TableName returns the table name for GORM
func (Supplier) TableName() string {
	return "suppliers"
}

// NewSupplier creates a new supplier
func NewSupplier(tenantID uuid.UUID, name string) (*Supplier, error) {
	if tenantID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_TENANT", "Tenant ID cannot be empty")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Supplier name cannot be empty")
	}
	if len(name) > 200 {
		return nil, shared.NewDomainError("INVALID_NAME", "Supplier name cannot exceed 200 characters")
	}

	return &Supplier{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Name:                name,
	}, nil
}

// SetContact sets the supplier contact details
func (s *Supplier) SetContact(contactName, phone, email string) error {
	if email != "" && !strings.Contains(email, "@") {
		return shared.NewDomainError("INVALID_EMAIL", "Invalid email format")
	}
	s.ContactName = contactName
	s.Phone = phone
	s.Email = email
	s.Touch()
	return nil
}
