package policies

import (
	"fmt"

	"github.com/modular-admin/modular-admin/internal/platform/httpx"
)

// Collection is the docstore collection holding policy documents.
const Collection = "policies"

var (
	// ErrNotFound indicates the policy does not exist for the customer.
	ErrNotFound = fmt.Errorf("policy %w", httpx.ErrNotFound)
	// ErrExists indicates a policy with the same name already exists.
	ErrExists = fmt.Errorf("policy already exists: %w", httpx.ErrDuplicate)
)

// ListRequest filters policy listings. A non-empty Name describes one policy.
type ListRequest struct {
	CustomerID string `json:"customer_id" validate:"required"`
	Name       string `json:"name"`
	Limit      string `json:"limit"`
	NextToken  string `json:"next_token"`
}

// CreateRequest creates a policy.
type CreateRequest struct {
	CustomerID  string   `json:"customer_id" validate:"required"`
	Name        string   `json:"name" validate:"required,max=128"`
	Permissions []string `json:"permissions"`
}

// UpdateRequest attaches and detaches permissions.
type UpdateRequest struct {
	CustomerID          string   `json:"customer_id" validate:"required"`
	Name                string   `json:"name" validate:"required"`
	PermissionsToAttach []string `json:"permissions_to_attach"`
	PermissionsToDetach []string `json:"permissions_to_detach"`
}

// DeleteRequest removes a policy.
type DeleteRequest struct {
	CustomerID string `json:"customer_id" validate:"required"`
	Name       string `json:"name" validate:"required"`
}
