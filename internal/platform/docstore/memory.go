package docstore

import (
	"context"
	"sort"
	"sync"
)

type memoryKey struct {
	collection string
	customer   string
}

// Memory is an in-process Store used for development and tests.
type Memory struct {
	mu   sync.RWMutex
	docs map[memoryKey]map[string][]byte
}

// NewMemory constructs an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{docs: make(map[memoryKey]map[string][]byte)}
}

// Get implements Store.
func (m *Memory) Get(ctx context.Context, collection, customer, name string) ([]byte, error) {
	if err := checkKey(collection, name); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	doc, ok := m.docs[memoryKey{collection, customer}][name]
	if !ok {
		return nil, ErrNotFound
	}
	return clone(doc), nil
}

// Insert implements Store.
func (m *Memory) Insert(ctx context.Context, collection, customer, name string, doc []byte) error {
	if err := checkKey(collection, name); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	bucket := m.bucket(collection, customer)
	if _, ok := bucket[name]; ok {
		return ErrDuplicate
	}
	bucket[name] = clone(doc)
	return nil
}

// Put implements Store.
func (m *Memory) Put(ctx context.Context, collection, customer, name string, doc []byte) error {
	if err := checkKey(collection, name); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bucket(collection, customer)[name] = clone(doc)
	return nil
}

// Delete implements Store.
func (m *Memory) Delete(ctx context.Context, collection, customer, name string) error {
	if err := checkKey(collection, name); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	bucket := m.docs[memoryKey{collection, customer}]
	if _, ok := bucket[name]; !ok {
		return ErrNotFound
	}
	delete(bucket, name)
	return nil
}

// List implements Store.
func (m *Memory) List(ctx context.Context, collection, customer string, limit int, cursor string) (Page, error) {
	if err := checkCollection(collection); err != nil {
		return Page{}, err
	}
	if err := ctx.Err(); err != nil {
		return Page{}, err
	}
	limit = normalizeLimit(limit)
	m.mu.RLock()
	defer m.mu.RUnlock()
	bucket := m.docs[memoryKey{collection, customer}]
	names := make([]string, 0, len(bucket))
	for name := range bucket {
		if name > cursor {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	var page Page
	for i, name := range names {
		if i == limit {
			page.NextCursor = names[i-1]
			break
		}
		page.Items = append(page.Items, Document{Name: name, Body: clone(bucket[name])})
	}
	return page, nil
}

func (m *Memory) bucket(collection, customer string) map[string][]byte {
	key := memoryKey{collection, customer}
	bucket, ok := m.docs[key]
	if !ok {
		bucket = make(map[string][]byte)
		m.docs[key] = bucket
	}
	return bucket
}

func clone(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

var _ Store = (*Memory)(nil)
