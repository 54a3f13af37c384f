package customers

import (
	"context"
	"errors"
	"fmt"

	"github.com/modular-admin/modular-admin/internal/platform/docstore"
)

// Repository persists customers and purges the documents they own.
type Repository struct {
	store docstore.Store
	docs  *docstore.Collection[Customer]
}

// NewRepository constructs a repository.
func NewRepository(store docstore.Store) *Repository {
	return &Repository{store: store, docs: docstore.NewCollection[Customer](store, Collection)}
}

// Get returns the customer or ErrNotFound.
func (r *Repository) Get(ctx context.Context, name string) (Customer, error) {
	c, err := r.docs.Get(ctx, namespace, name)
	return c, translate(err)
}

// Insert stores a new customer.
func (r *Repository) Insert(ctx context.Context, c Customer) error {
	return translate(r.docs.Insert(ctx, namespace, c.Name, c))
}

// Put replaces a stored customer.
func (r *Repository) Put(ctx context.Context, c Customer) error {
	return translate(r.docs.Put(ctx, namespace, c.Name, c))
}

// Delete removes the customer record only.
func (r *Repository) Delete(ctx context.Context, name string) error {
	return translate(r.docs.Delete(ctx, namespace, name))
}

// List returns one page of customers ordered by name.
func (r *Repository) List(ctx context.Context, limit int, cursor string) ([]Customer, string, error) {
	return r.docs.List(ctx, namespace, limit, cursor)
}

// Each walks every customer.
func (r *Repository) Each(ctx context.Context, fn func(Customer) error) error {
	return r.docs.Each(ctx, namespace, fn)
}

// Purge deletes every document the customer owns in the given collections.
func (r *Repository) Purge(ctx context.Context, customer string, collections []string) error {
	for _, collection := range collections {
		for {
			page, err := r.store.List(ctx, collection, customer, 100, "")
			if err != nil {
				return fmt.Errorf("customers: purge %s: %w", collection, err)
			}
			if len(page.Items) == 0 {
				break
			}
			for _, doc := range page.Items {
				err := r.store.Delete(ctx, collection, customer, doc.Name)
				if err != nil && !errors.Is(err, docstore.ErrNotFound) {
					return fmt.Errorf("customers: purge %s/%s: %w", collection, doc.Name, err)
				}
			}
		}
	}
	return nil
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
		return fmt.Errorf("customers: %w", err)
	}
}
