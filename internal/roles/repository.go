package roles

import (
	"context"
	"errors"
	"fmt"

	"github.com/modular-admin/modular-admin/internal/platform/docstore"
	"github.com/modular-admin/modular-admin/internal/rbac"
)

// Repository provides document store backed persistence.
type Repository struct {
	docs *docstore.Collection[rbac.Role]
}

// NewRepository constructs a repository.
func NewRepository(store docstore.Store) *Repository {
	return &Repository{docs: docstore.NewCollection[rbac.Role](store, Collection)}
}

// LookupRole implements rbac.RoleStore. An absent role is (nil, nil).
func (r *Repository) LookupRole(ctx context.Context, customer, name string) (*rbac.Role, error) {
	role, err := r.docs.Get(ctx, customer, name)
	if errors.Is(err, docstore.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &role, nil
}

// GetRole returns the role or ErrNotFound.
func (r *Repository) GetRole(ctx context.Context, customer, name string) (rbac.Role, error) {
	role, err := r.docs.Get(ctx, customer, name)
	return role, translate(err)
}

// CreateRole inserts a new role.
func (r *Repository) CreateRole(ctx context.Context, role rbac.Role) error {
	return translate(r.docs.Insert(ctx, role.Customer, role.Name, role))
}

// SaveRole replaces a stored role.
func (r *Repository) SaveRole(ctx context.Context, role rbac.Role) error {
	return translate(r.docs.Put(ctx, role.Customer, role.Name, role))
}

// DeleteRole removes a role.
func (r *Repository) DeleteRole(ctx context.Context, customer, name string) error {
	return translate(r.docs.Delete(ctx, customer, name))
}

// ListRoles returns one page of roles ordered by name.
func (r *Repository) ListRoles(ctx context.Context, customer string, limit int, cursor string) ([]rbac.Role, string, error) {
	return r.docs.List(ctx, customer, limit, cursor)
}

// EachRole walks every role of a customer.
func (r *Repository) EachRole(ctx context.Context, customer string, fn func(rbac.Role) error) error {
	return r.docs.Each(ctx, customer, fn)
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, docstore.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, docstore.ErrDuplicate):
		return ErrExists
	default:
		return fmt.Errorf("roles: %w", err)
	}
}
