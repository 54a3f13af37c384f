package docstore

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type widget struct {
	Name  string   `json:"name"`
	Parts []string `json:"parts"`
}

func backends(t *testing.T) map[string]Store {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return map[string]Store{
		"memory": NewMemory(),
		"redis":  NewRedis(client, "test"),
	}
}

func TestStoreContract(t *testing.T) {
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			_, err := store.Get(ctx, "widgets", "acme", "missing")
			assert.ErrorIs(t, err, ErrNotFound)

			require.NoError(t, store.Insert(ctx, "widgets", "acme", "a", []byte(`{"name":"a"}`)))
			assert.ErrorIs(t, store.Insert(ctx, "widgets", "acme", "a", []byte(`{}`)), ErrDuplicate)

			body, err := store.Get(ctx, "widgets", "acme", "a")
			require.NoError(t, err)
			assert.JSONEq(t, `{"name":"a"}`, string(body))

			require.NoError(t, store.Put(ctx, "widgets", "acme", "a", []byte(`{"name":"a2"}`)))
			body, err = store.Get(ctx, "widgets", "acme", "a")
			require.NoError(t, err)
			assert.JSONEq(t, `{"name":"a2"}`, string(body))

			_, err = store.Get(ctx, "widgets", "other", "a")
			assert.ErrorIs(t, err, ErrNotFound, "customers are isolated namespaces")

			require.NoError(t, store.Delete(ctx, "widgets", "acme", "a"))
			assert.ErrorIs(t, store.Delete(ctx, "widgets", "acme", "a"), ErrNotFound)

			assert.ErrorIs(t, store.Put(ctx, "widgets", "acme", "", nil), ErrInvalidKey)
		})
	}
}

func TestStorePagination(t *testing.T) {
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			for _, n := range []string{"e", "b", "d", "a", "c"} {
				require.NoError(t, store.Put(ctx, "widgets", "acme", n, []byte(`{"name":"`+n+`"}`)))
			}
			require.NoError(t, store.Put(ctx, "widgets", "other", "z", []byte(`{}`)))

			page, err := store.List(ctx, "widgets", "acme", 2, "")
			require.NoError(t, err)
			assert.Equal(t, []string{"a", "b"}, docNames(page))
			assert.Equal(t, "b", page.NextCursor)

			page, err = store.List(ctx, "widgets", "acme", 2, page.NextCursor)
			require.NoError(t, err)
			assert.Equal(t, []string{"c", "d"}, docNames(page))

			page, err = store.List(ctx, "widgets", "acme", 2, page.NextCursor)
			require.NoError(t, err)
			assert.Equal(t, []string{"e"}, docNames(page))
			assert.Empty(t, page.NextCursor)
		})
	}
}

func TestCollectionRoundTrip(t *testing.T) {
	ctx := context.Background()
	col := NewCollection[widget](NewMemory(), "widgets")

	require.NoError(t, col.Insert(ctx, "acme", "gear", widget{Name: "gear", Parts: []string{"tooth"}}))
	got, err := col.Get(ctx, "acme", "gear")
	require.NoError(t, err)
	assert.Equal(t, []string{"tooth"}, got.Parts)

	_, err = col.Get(ctx, "acme", "nope")
	assert.True(t, errors.Is(err, ErrNotFound))

	var seen []string
	require.NoError(t, col.Each(ctx, "acme", func(w widget) error {
		seen = append(seen, w.Name)
		return nil
	}))
	assert.Equal(t, []string{"gear"}, seen)
}

func docNames(page Page) []string {
	names := make([]string, 0, len(page.Items))
	for _, item := range page.Items {
		names = append(names, item.Name)
	}
	return names
}

func TestRedisInsertLeavesNoUnindexedDocument(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	store := NewRedis(client, "test")
	ctx := context.Background()

	require.NoError(t, mr.Set(store.indexKey("widgets", "acme"), "not-a-zset"))

	require.Error(t, store.Insert(ctx, "widgets", "acme", "a", []byte(`{"name":"a"}`)))
	assert.False(t, mr.Exists(store.docKey("widgets", "acme", "a")))
	_, err := store.Get(ctx, "widgets", "acme", "a")
	assert.ErrorIs(t, err, ErrNotFound)

	mr.Del(store.indexKey("widgets", "acme"))
	require.NoError(t, store.Insert(ctx, "widgets", "acme", "a", []byte(`{"name":"a"}`)))
	page, err := store.List(ctx, "widgets", "acme", 10, "")
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "a", page.Items[0].Name)
}
