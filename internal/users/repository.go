package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/modular-admin/modular-admin/internal/platform/docstore"
)

// Repository provides document store backed persistence.
type Repository struct {
	docs *docstore.Collection[User]
}

// NewRepository constructs a repository.
func NewRepository(store docstore.Store) *Repository {
	return &Repository{docs: docstore.NewCollection[User](store, Collection)}
}

// FindUser fetches a user by customer and username.
func (r *Repository) FindUser(ctx context.Context, customer, username string) (User, error) {
	user, err := r.docs.Get(ctx, customer, username)
	return user, translate(err)
}

// CreateUser inserts a new user.
func (r *Repository) CreateUser(ctx context.Context, user User) error {
	return translate(r.docs.Insert(ctx, user.Customer, user.Username, user))
}

// SaveUser replaces a stored user.
func (r *Repository) SaveUser(ctx context.Context, user User) error {
	return translate(r.docs.Put(ctx, user.Customer, user.Username, user))
}

// DeleteUser removes a user.
func (r *Repository) DeleteUser(ctx context.Context, customer, username string) error {
	return translate(r.docs.Delete(ctx, customer, username))
}

// ListUsers returns one page of users ordered by username.
func (r *Repository) ListUsers(ctx context.Context, customer string, limit int, cursor string) ([]User, string, error) {
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
		return fmt.Errorf("users: %w", err)
	}
}
