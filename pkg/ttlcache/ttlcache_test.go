package ttlcache_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/illmade-knight/go-catpedia/pkg/kvstore"
	"github.com/illmade-knight/go-catpedia/pkg/ttlcache"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock is a settable time source.
type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

// mockStore wraps an in-memory store and lets individual operations be overridden.
type mockStore struct {
	*kvstore.InMemoryStore
	GetFunc func(ctx context.Context, key string) ([]byte, error)
	SetFunc func(ctx context.Context, key string, value []byte) error
	removed []string
}

func newMockStore() *mockStore {
	return &mockStore{InMemoryStore: kvstore.NewInMemoryStore()}
}

func (m *mockStore) Get(ctx context.Context, key string) ([]byte, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, key)
	}
	return m.InMemoryStore.Get(ctx, key)
}

func (m *mockStore) Set(ctx context.Context, key string, value []byte) error {
	if m.SetFunc != nil {
		return m.SetFunc(ctx, key, value)
	}
	return m.InMemoryStore.Set(ctx, key, value)
}

func (m *mockStore) Remove(ctx context.Context, key string) error {
	m.removed = append(m.removed, key)
	return m.InMemoryStore.Remove(ctx, key)
}

type breedStub struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func newCache(t *testing.T, store kvstore.Store, clock *fakeClock) *ttlcache.Cache[[]breedStub] {
	t.Helper()
	c, err := ttlcache.New[[]breedStub](store, zerolog.Nop(), ttlcache.WithClock(clock.Now))
	require.NoError(t, err)
	return c
}

func TestCache_SetThenGet(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: time.UnixMilli(1_700_000_000_000)}
	c := newCache(t, newMockStore(), clock)
	value := []breedStub{{ID: "abys", Name: "Abyssinian"}}

	require.NoError(t, c.Set(ctx, "breeds", value))

	got, ok := c.Get(ctx, "breeds")
	require.True(t, ok, "a freshly written entry must be readable")
	assert.Equal(t, value, got)

	entry, ok := c.Lookup(ctx, "breeds")
	require.True(t, ok)
	assert.True(t, entry.StoredAt.Equal(clock.now))
}

func TestCache_Get_Miss(t *testing.T) {
	c := newCache(t, newMockStore(), &fakeClock{now: time.Now()})

	got, ok := c.Get(context.Background(), "nothing")
	assert.False(t, ok)
	assert.Nil(t, got)
}

func TestCache_Expiry(t *testing.T) {
	ctx := context.Background()
	written := time.UnixMilli(1_700_000_000_000)

	t.Run("Entry exactly TTL old is still valid", func(t *testing.T) {
		store := newMockStore()
		clock := &fakeClock{now: written}
		c := newCache(t, store, clock)
		require.NoError(t, c.Set(ctx, "breeds", []breedStub{{ID: "beng"}}))

		clock.now = written.Add(ttlcache.DefaultTTL)

		_, ok := c.Get(ctx, "breeds")
		assert.True(t, ok)
		assert.Empty(t, store.removed)
	})

	t.Run("Entry one millisecond past TTL is absent and removed", func(t *testing.T) {
		store := newMockStore()
		clock := &fakeClock{now: written}
		c := newCache(t, store, clock)
		require.NoError(t, c.Set(ctx, "breeds", []breedStub{{ID: "beng"}}))

		clock.now = written.Add(ttlcache.DefaultTTL + time.Millisecond)

		_, ok := c.Get(ctx, "breeds")
		assert.False(t, ok)
		assert.Equal(t, []string{"breeds"}, store.removed)

		_, err := store.InMemoryStore.Get(ctx, "breeds")
		assert.ErrorIs(t, err, kvstore.ErrNotFound, "expired entry should be deleted from storage")
	})
}

func TestCache_ExpiryAtMillisecondPrecision(t *testing.T) {
	ctx := context.Background()
	// A write between two millisecond ticks.
	clock := &fakeClock{now: time.UnixMilli(1_700_000_000_000).Add(700 * time.Microsecond)}
	store := newMockStore()
	c := newCache(t, store, clock)
	require.NoError(t, c.Set(ctx, "k", []breedStub{{ID: "abys"}}))

	clock.now = clock.now.Add(c.TTL())
	_, ok := c.Get(ctx, "k")
	assert.True(t, ok, "an entry exactly TTL old is still valid")
	assert.Empty(t, store.removed)

	clock.now = clock.now.Add(time.Millisecond)
	_, ok = c.Get(ctx, "k")
	assert.False(t, ok)
}

func TestCache_CorruptEntry(t *testing.T) {
	ctx := context.Background()
	testCases := []struct {
		name string
		raw  string
	}{
		{name: "not JSON", raw: "{{{"},
		{name: "missing timestamp", raw: `{"data":[]}`},
		{name: "missing data", raw: `{"timestamp":1700000000000}`},
		{name: "wrong data shape", raw: `{"data":"abys","timestamp":1700000000000}`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			store := newMockStore()
			require.NoError(t, store.InMemoryStore.Set(ctx, "breeds", []byte(tc.raw)))
			c := newCache(t, store, &fakeClock{now: time.UnixMilli(1_700_000_000_000)})

			_, ok := c.Get(ctx, "breeds")

			assert.False(t, ok)
			assert.Equal(t, []string{"breeds"}, store.removed, "corrupt entry should be deleted")
		})
	}
}

func TestCache_StorageUnavailable(t *testing.T) {
	ctx := context.Background()
	store := newMockStore()
	store.GetFunc = func(ctx context.Context, key string) ([]byte, error) {
		return nil, errors.New("quota exceeded")
	}
	c := newCache(t, store, &fakeClock{now: time.Now()})

	_, ok := c.Get(ctx, "breeds")

	assert.False(t, ok, "storage failure is a soft miss")
	assert.Empty(t, store.removed, "a storage failure must not delete the entry")
}

func TestCache_SetFailure(t *testing.T) {
	expectedErr := errors.New("disk full")
	store := newMockStore()
	store.SetFunc = func(ctx context.Context, key string, value []byte) error {
		return expectedErr
	}
	c := newCache(t, store, &fakeClock{now: time.Now()})

	err := c.Set(context.Background(), "breeds", nil)

	require.Error(t, err)
	assert.ErrorIs(t, err, expectedErr)
}

func TestCache_Clear(t *testing.T) {
	ctx := context.Background()
	c := newCache(t, newMockStore(), &fakeClock{now: time.Now()})
	require.NoError(t, c.Set(ctx, "breeds", []breedStub{{ID: "abys"}}))

	require.NoError(t, c.Clear(ctx, "breeds"))
	require.NoError(t, c.Clear(ctx, "breeds"), "clearing twice is not an error")

	_, ok := c.Get(ctx, "breeds")
	assert.False(t, ok)
}

func TestCache_OverwriteRefreshesTimestamp(t *testing.T) {
	ctx := context.Background()
	written := time.UnixMilli(1_700_000_000_000)
	clock := &fakeClock{now: written}
	c := newCache(t, newMockStore(), clock)
	require.NoError(t, c.Set(ctx, "breeds", []breedStub{{ID: "old"}}))

	clock.now = written.Add(6 * 24 * time.Hour)
	require.NoError(t, c.Set(ctx, "breeds", []breedStub{{ID: "new"}}))

	clock.now = written.Add(ttlcache.DefaultTTL + time.Hour)
	got, ok := c.Get(ctx, "breeds")
	require.True(t, ok, "the rewrite restarts the expiry window")
	assert.Equal(t, []breedStub{{ID: "new"}}, got)
}

func TestNew_NilStore(t *testing.T) {
	_, err := ttlcache.New[int](nil, zerolog.Nop())
	require.Error(t, err)
}
