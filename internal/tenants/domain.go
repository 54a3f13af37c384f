package tenants

import (
	"fmt"
	"time"

	"github.com/modular-admin/modular-admin/internal/platform/httpx"
)

// Collection is the docstore collection holding tenants.
const Collection = "tenants"

var (
	// ErrNotFound indicates the tenant does not exist for the customer.
	ErrNotFound = fmt.Errorf("tenant %w", httpx.ErrNotFound)
	// ErrExists indicates the tenant name is taken within the customer.
	ErrExists = fmt.Errorf("tenant already exists: %w", httpx.ErrDuplicate)
)

// Tenant is an isolated environment owned by a customer.
type Tenant struct {
	Customer      string    `json:"customer"`
	Name          string    `json:"name"`
	DisplayName   string    `json:"display_name"`
	ContactEmails []string  `json:"contact_emails"`
	Active        bool      `json:"active"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// ListRequest filters tenant listings.
type ListRequest struct {
	CustomerID string `json:"customer_id" validate:"required"`
	Name       string `json:"name"`
	Limit      string `json:"limit"`
	NextToken  string `json:"next_token"`
}

// CreateRequest creates a tenant.
type CreateRequest struct {
	CustomerID    string   `json:"customer_id" validate:"required"`
	Name          string   `json:"name" validate:"required,dns_rfc1035_label"`
	DisplayName   string   `json:"display_name" validate:"max=256"`
	ContactEmails []string `json:"contact_emails" validate:"dive,email"`
}

// UpdateRequest changes tenant attributes; nil fields are left alone.
type UpdateRequest struct {
	CustomerID    string    `json:"customer_id" validate:"required"`
	Name          string    `json:"name" validate:"required"`
	DisplayName   *string   `json:"display_name" validate:"omitempty,max=256"`
	ContactEmails *[]string `json:"contact_emails" validate:"omitempty,dive,email"`
	Active        *bool     `json:"active"`
}

// DeleteRequest removes a tenant.
type DeleteRequest struct {
	CustomerID string `json:"customer_id" validate:"required"`
	Name       string `json:"name" validate:"required"`
}
