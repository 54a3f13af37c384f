package docstore

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"
)

// Collection is a typed view over one collection of a Store.
type Collection[T any] struct {
	store Store
	name  string
}

// NewCollection binds a collection name to a Store.
func NewCollection[T any](store Store, name string) *Collection[T] {
	return &Collection[T]{store: store, name: name}
}

// Name returns the collection name.
func (c *Collection[T]) Name() string {
	return c.name
}

// Get decodes the document stored under (customer, name).
func (c *Collection[T]) Get(ctx context.Context, customer, name string) (T, error) {
	var out T
	body, err := c.store.Get(ctx, c.name, customer, name)
	if err != nil {
		return out, fmt.Errorf("docstore: get %s/%s: %w", c.name, name, err)
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return out, fmt.Errorf("docstore: decode %s/%s: %w", c.name, name, err)
	}
	return out, nil
}

// Insert stores a new document, failing with ErrDuplicate when present.
func (c *Collection[T]) Insert(ctx context.Context, customer, name string, value T) error {
	body, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("docstore: encode %s/%s: %w", c.name, name, err)
	}
	if err := c.store.Insert(ctx, c.name, customer, name, body); err != nil {
		return fmt.Errorf("docstore: insert %s/%s: %w", c.name, name, err)
	}
	return nil
}

// Put stores value, replacing any existing document.
func (c *Collection[T]) Put(ctx context.Context, customer, name string, value T) error {
	body, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("docstore: encode %s/%s: %w", c.name, name, err)
	}
	if err := c.store.Put(ctx, c.name, customer, name, body); err != nil {
		return fmt.Errorf("docstore: put %s/%s: %w", c.name, name, err)
	}
	return nil
}

// Delete removes the document stored under (customer, name).
func (c *Collection[T]) Delete(ctx context.Context, customer, name string) error {
	if err := c.store.Delete(ctx, c.name, customer, name); err != nil {
		return fmt.Errorf("docstore: delete %s/%s: %w", c.name, name, err)
	}
	return nil
}

// List decodes one page of a customer's documents.
func (c *Collection[T]) List(ctx context.Context, customer string, limit int, cursor string) ([]T, string, error) {
	page, err := c.store.List(ctx, c.name, customer, limit, cursor)
	if err != nil {
		return nil, "", fmt.Errorf("docstore: list %s: %w", c.name, err)
	}
	items := make([]T, 0, len(page.Items))
	for _, doc := range page.Items {
		var item T
		if err := json.Unmarshal(doc.Body, &item); err != nil {
			return nil, "", fmt.Errorf("docstore: decode %s/%s: %w", c.name, doc.Name, err)
		}
		items = append(items, item)
	}
	return items, page.NextCursor, nil
}

// Each walks every document of a customer page by page until fn returns an error.
func (c *Collection[T]) Each(ctx context.Context, customer string, fn func(T) error) error {
	cursor := ""
	for {
		items, next, err := c.List(ctx, customer, 100, cursor)
		if err != nil {
			return err
		}
		for _, item := range items {
			if err := fn(item); err != nil {
				return err
			}
		}
		if next == "" {
			return nil
		}
		cursor = next
	}
}
