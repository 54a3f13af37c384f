package docstore

import (
	"context"
	"errors"
	"net/url"

	"github.com/redis/go-redis/v9"
)

// Redis keeps one string key per document plus a lexicographic sorted-set
// index per (collection, customer) used for paging.
type Redis struct {
	client redis.UniversalClient
	prefix string
}

// NewRedis constructs a Redis store. Keys are namespaced by prefix.
func NewRedis(client redis.UniversalClient, prefix string) *Redis {
	if prefix == "" {
		prefix = "modular"
	}
	return &Redis{client: client, prefix: prefix}
}

func (r *Redis) docKey(collection, customer, name string) string {
	return r.prefix + ":doc:" + url.QueryEscape(collection) + ":" + url.QueryEscape(customer) + ":" + url.QueryEscape(name)
}

func (r *Redis) indexKey(collection, customer string) string {
	return r.prefix + ":idx:" + url.QueryEscape(collection) + ":" + url.QueryEscape(customer)
}

// Get implements Store.
func (r *Redis) Get(ctx context.Context, collection, customer, name string) ([]byte, error) {
	if err := checkKey(collection, name); err != nil {
		return nil, err
	}
	body, err := r.client.Get(ctx, r.docKey(collection, customer, name)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return body, nil
}

// Insert implements Store.
func (r *Redis) Insert(ctx context.Context, collection, customer, name string, doc []byte) error {
	if err := checkKey(collection, name); err != nil {
		return err
	}
	key := r.docKey(collection, customer, name)
	var created *redis.BoolCmd
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		created = pipe.SetNX(ctx, key, doc, 0)
		pipe.ZAdd(ctx, r.indexKey(collection, customer), redis.Z{Member: name})
		return nil
	})
	if err != nil {
		// EXEC does not roll back a failed ZADD; an unindexed document is
		// invisible to List, so drop it.
		if created != nil && created.Val() {
			_ = r.client.Del(context.WithoutCancel(ctx), key).Err()
		}
		return err
	}
	if !created.Val() {
		return ErrDuplicate
	}
	return nil
}

// Put implements Store.
func (r *Redis) Put(ctx context.Context, collection, customer, name string, doc []byte) error {
	if err := checkKey(collection, name); err != nil {
		return err
	}
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, r.docKey(collection, customer, name), doc, 0)
		pipe.ZAdd(ctx, r.indexKey(collection, customer), redis.Z{Member: name})
		return nil
	})
	return err
}

// Delete implements Store.
func (r *Redis) Delete(ctx context.Context, collection, customer, name string) error {
	if err := checkKey(collection, name); err != nil {
		return err
	}
	var del *redis.IntCmd
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		del = pipe.Del(ctx, r.docKey(collection, customer, name))
		pipe.ZRem(ctx, r.indexKey(collection, customer), name)
		return nil
	})
	if err != nil {
		return err
	}
	if del.Val() == 0 {
		return ErrNotFound
	}
	return nil
}

// List implements Store.
func (r *Redis) List(ctx context.Context, collection, customer string, limit int, cursor string) (Page, error) {
	if err := checkCollection(collection); err != nil {
		return Page{}, err
	}
	limit = normalizeLimit(limit)
	min := "-"
	if cursor != "" {
		min = "(" + cursor
	}
	names, err := r.client.ZRangeByLex(ctx, r.indexKey(collection, customer), &redis.ZRangeBy{
		Min:   min,
		Max:   "+",
		Count: int64(limit + 1),
	}).Result()
	if err != nil {
		return Page{}, err
	}
	var page Page
	if len(names) > limit {
		names = names[:limit]
		page.NextCursor = names[limit-1]
	}
	if len(names) == 0 {
		return page, nil
	}
	keys := make([]string, len(names))
	for i, name := range names {
		keys[i] = r.docKey(collection, customer, name)
	}
	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return Page{}, err
	}
	for i, value := range values {
		body, ok := value.(string)
		if !ok {
			// removed between the index read and the fetch
			continue
		}
		page.Items = append(page.Items, Document{Name: names[i], Body: []byte(body)})
	}
	return page, nil
}

var _ Store = (*Redis)(nil)
