package identity

import (
	"regexp"
	"strings"

	"github.com/erp/pos/internal/domain/shared"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// bcrypt cost for PIN hashes
const pinCost = bcrypt.DefaultCost

var (
	usernamePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9._-]{2,49}$`)
	pinPattern      = regexp.MustCompile(`^[0-9]{4,8}$`)
)

// User is a staff member who books stock movements
type User struct {
	shared.TenantAggregateRoot
	Username string `gorm:"type:varchar(50);not null;index" json:"username"`
	FullName string `gorm:"type:varchar(200);not null" json:"full_name"`
	Email    string `gorm:"type:varchar(200)" json:"email,omitempty"`
	PINHash  string `gorm:"column:pin_hash;type:varchar(100)" json:"-"`
}

// TableName returns the table name for GORM
func (User) TableName() string {
	return "users"
}

// NewUser creates a new user
func NewUser(tenantID uuid.UUID, username, fullName string) (*User, error) {
	if tenantID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_TENANT", "Tenant ID cannot be empty")
	}
	username = strings.ToLower(strings.TrimSpace(username))
	if !usernamePattern.MatchString(username) {
		return nil, shared.NewDomainError("INVALID_USERNAME",
			"Username must be 3-50 characters of lowercase letters, digits, dot, underscore or hyphen")
	}
	fullName = strings.TrimSpace(fullName)
	if fullName == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Full name cannot be empty")
	}

	return &User{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Username:            username,
		FullName:            fullName,
	}, nil
}

// SetEmail sets the email address
func (u *User) SetEmail(email string) error {
	email = strings.TrimSpace(email)
	if email != "" && !strings.Contains(email, "@") {
		return shared.NewDomainError("INVALID_EMAIL", "Invalid email format")
	}
	u.Email = email
	u.Touch()
	return nil
}

// SetPIN stores a bcrypt hash of the register unlock PIN
func (u *User) SetPIN(pin string) error {
	if !pinPattern.MatchString(pin) {
		return shared.NewDomainError("INVALID_PIN", "PIN must be 4 to 8 digits")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(pin), pinCost)
	if err != nil {
		return shared.NewDomainError("PIN_HASH_ERROR", "Failed to hash PIN")
	}
	u.PINHash = string(hash)
	u.Touch()
	return nil
}

// VerifyPIN reports whether pin matches the stored hash
func (u *User) VerifyPIN(pin string) bool {
	if u.PINHash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(u.PINHash), []byte(pin)) == nil
}

// HasPIN returns true if a PIN has been set
func (u *User) HasPIN() bool {
	return u.PINHash != ""
}
