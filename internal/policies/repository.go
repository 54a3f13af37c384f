package policies

import (
	"context"
	"errors"
	"fmt"

	"github.com/modular-admin/modular-admin/internal/platform/docstore"
	"github.com/modular-admin/modular-admin/internal/rbac"
)

// Repository persists policies in the document store.
type Repository struct {
	docs *docstore.Collection[rbac.Policy]
}

// NewRepository constructs a repository.
func NewRepository(store docstore.Store) *Repository {
	return &Repository{docs: docstore.NewCollection[rbac.Policy](store, Collection)}
}

// LookupPolicy implements rbac.PolicyStore. An absent policy is (nil, nil).
func (r *Repository) LookupPolicy(ctx context.Context, customer, name string) (*rbac.Policy, error) {
	policy, err := r.docs.Get(ctx, customer, name)
	if errors.Is(err, docstore.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &policy, nil
}

// Get returns the policy or ErrNotFound.
func (r *Repository) Get(ctx context.Context, customer, name string) (rbac.Policy, error) {
	policy, err := r.docs.Get(ctx, customer, name)
	return policy, translate(err)
}

// Insert creates a policy, failing with ErrExists.
func (r *Repository) Insert(ctx context.Context, policy rbac.Policy) error {
	return translate(r.docs.Insert(ctx, policy.Customer, policy.Name, policy))
}

// Put replaces a stored policy.
func (r *Repository) Put(ctx context.Context, policy rbac.Policy) error {
	return translate(r.docs.Put(ctx, policy.Customer, policy.Name, policy))
}

// Delete removes a policy or returns ErrNotFound.
func (r *Repository) Delete(ctx context.Context, customer, name string) error {
	return translate(r.docs.Delete(ctx, customer, name))
}

// List returns one page of a customer's policies ordered by name.
func (r *Repository) List(ctx context.Context, customer string, limit int, cursor string) ([]rbac.Policy, string, error) {
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
		return fmt.Errorf("policies: %w", err)
	}
}
