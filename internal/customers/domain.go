package customers

import (
	"fmt"
	"time"

	"github.com/modular-admin/modular-admin/internal/platform/httpx"
)

// Collection is the docstore collection holding customer records. Customers
// are global, so they live under the empty customer namespace.
const Collection = "customers"

const namespace = ""

// OwnedCollections are purged when a customer is deleted.
var OwnedCollections = []string{"policies", "roles", "users", "tenants"}

var (
	// ErrNotFound indicates the customer does not exist.
	ErrNotFound = fmt.Errorf("customer %w", httpx.ErrNotFound)
	// ErrExists indicates the customer name is taken.
	ErrExists = fmt.Errorf("customer already exists: %w", httpx.ErrDuplicate)
)

// Customer is a top-level tenant of the platform.
type Customer struct {
	Name        string    `json:"name"`
	DisplayName string    `json:"display_name"`
	Admins      []string  `json:"admins"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// SignUpRequest bootstraps a customer and its first administrator.
type SignUpRequest struct {
	Name        string `json:"name" validate:"required,dns_rfc1035_label"`
	DisplayName string `json:"display_name" validate:"max=256"`
	Username    string `json:"username" validate:"required,max=128"`
	Password    string `json:"password" validate:"required,min=8,max=72"`
}

// SignUpResult reports what a sign up created.
type SignUpResult struct {
	Customer Customer `json:"customer"`
	Username string   `json:"username"`
	Role     string   `json:"role"`
	Policy   string   `json:"policy"`
}

// DescribeRequest describes one customer. System callers may omit
// CustomerID to list every customer.
type DescribeRequest struct {
	CustomerID string `json:"customer_id"`
	Limit      string `json:"limit"`
	NextToken  string `json:"next_token"`
}

// UpdateRequest changes customer attributes.
type UpdateRequest struct {
	CustomerID  string  `json:"customer_id" validate:"required"`
	DisplayName *string `json:"display_name" validate:"omitempty,max=256"`
}

// DeleteRequest removes a customer together with everything it owns.
type DeleteRequest struct {
	CustomerID string `json:"customer_id" validate:"required"`
}
