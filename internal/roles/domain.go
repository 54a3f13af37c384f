package roles

import (
	"fmt"

	"github.com/modular-admin/modular-admin/internal/platform/httpx"
)

// Collection is the docstore collection holding role documents.
const Collection = "roles"

var (
	// ErrNotFound indicates the role does not exist for the customer.
	ErrNotFound = fmt.Errorf("role %w", httpx.ErrNotFound)
	// ErrExists indicates a role with the same name already exists.
	ErrExists = fmt.Errorf("role already exists: %w", httpx.ErrDuplicate)
)

// RoleListFilters narrows role listings. A non-empty Name describes one role.
type RoleListFilters struct {
	CustomerID string `json:"customer_id" validate:"required"`
	Name       string `json:"name"`
	Limit      string `json:"limit"`
	NextToken  string `json:"next_token"`
}

// CreateRoleRequest creates a role. Expiration is RFC3339 and optional.
type CreateRoleRequest struct {
	CustomerID string   `json:"customer_id" validate:"required"`
	Name       string   `json:"name" validate:"required,max=128"`
	Policies   []string `json:"policies"`
	Expiration *string  `json:"expiration"`
}

// UpdateRoleRequest attaches and detaches policies. A nil Expiration keeps the
// current value; an empty one removes it.
type UpdateRoleRequest struct {
	CustomerID       string   `json:"customer_id" validate:"required"`
	Name             string   `json:"name" validate:"required"`
	PoliciesToAttach []string `json:"policies_to_attach"`
	PoliciesToDetach []string `json:"policies_to_detach"`
	Expiration       *string  `json:"expiration"`
}

// DeleteRoleRequest removes a role.
type DeleteRoleRequest struct {
	CustomerID string `json:"customer_id" validate:"required"`
	Name       string `json:"name" validate:"required"`
}
