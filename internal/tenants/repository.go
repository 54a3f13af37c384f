package tenants

import (
	"context"
	"errors"
	"fmt"

	"github.com/modular-admin/modular-admin/internal/platform/docstore"
)

// Repository persists tenants.
type Repository struct {
	docs *docstore.Collection[Tenant]
}

// NewRepository constructs a repository.
func NewRepository(store docstore.Store) *Repository {
	return &Repository{docs: docstore.NewCollection[Tenant](store, Collection)}
}

// Get returns the tenant or ErrNotFound.
func (r *Repository) Get(ctx context.Context, customer, name string) (Tenant, error) {
	t, err := r.docs.Get(ctx, customer, name)
	return t, translate(err)
}

// Insert stores a new tenant.
func (r *Repository) Insert(ctx context.Context, t Tenant) error {
	return translate(r.docs.Insert(ctx, t.Customer, t.Name, t))
}

// Put replaces a stored tenant.
func (r *Repository) Put(ctx context.Context, t Tenant) error {
	return translate(r.docs.Put(ctx, t.Customer, t.Name, t))
}

// Delete removes a tenant.
func (r *Repository) Delete(ctx context.Context, customer, name string) error {
	return translate(r.docs.Delete(ctx, customer, name))
}

// List returns one page of tenants ordered by name.
func (r *Repository) List(ctx context.Context, customer string, limit int, cursor string) ([]Tenant, string, error) {
	return r.docs.List(ctx, customer, limit, cursor)
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
		return fmt.Errorf("tenants: %w", err)
	}
}
