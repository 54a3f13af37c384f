// Package docstore is the document/key-value persistence layer. Documents are
// opaque JSON bodies addressed by (collection, customer, name); the customer
// segment is the tenancy namespace and may be empty for global collections.
package docstore

import (
	"context"
	"errors"
	"strings"
)

var (
	// ErrNotFound is returned when no document exists for the key.
	ErrNotFound = errors.New("docstore: not found")
	// ErrDuplicate is returned by Insert when the key is taken.
	ErrDuplicate = errors.New("docstore: duplicate")
	// ErrInvalidKey is returned for empty collection or name segments.
	ErrInvalidKey = errors.New("docstore: invalid key")
)

// Document is a stored body together with its name.
type Document struct {
	Name string
	Body []byte
}

// Page is one slice of a customer's collection ordered by name. NextCursor is
// empty on the last page.
type Page struct {
	Items      []Document
	NextCursor string
}

// Store is implemented by every backend. Reads observe every write that
// returned before them.
type Store interface {
	Get(ctx context.Context, collection, customer, name string) ([]byte, error)
	Insert(ctx context.Context, collection, customer, name string, doc []byte) error
	Put(ctx context.Context, collection, customer, name string, doc []byte) error
	Delete(ctx context.Context, collection, customer, name string) error
	List(ctx context.Context, collection, customer string, limit int, cursor string) (Page, error)
}

func checkKey(collection, name string) error {
	if strings.TrimSpace(collection) == "" || strings.TrimSpace(name) == "" {
		return ErrInvalidKey
	}
	return nil
}

func checkCollection(collection string) error {
	if strings.TrimSpace(collection) == "" {
		return ErrInvalidKey
	}
	return nil
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return 50
	}
	return limit
}
