package catalog_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/illmade-knight/go-catpedia/pkg/catalog"
	"github.com/illmade-knight/go-catpedia/pkg/kvstore"
	"github.com/illmade-knight/go-catpedia/pkg/ttlcache"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockSource is a test double for the remote catalog.
type mockSource struct {
	callCount atomic.Int32
	FetchFunc func(ctx context.Context) ([]catalog.Breed, error)
}

func (m *mockSource) Fetch(ctx context.Context) ([]catalog.Breed, error) {
	m.callCount.Add(1)
	return m.FetchFunc(ctx)
}

// failingSetStore accepts reads but rejects every write.
type failingSetStore struct {
	*kvstore.InMemoryStore
}

func (s failingSetStore) Set(context.Context, string, []byte) error {
	return errors.New("storage disabled")
}

type fetcherFixture struct {
	source  *mockSource
	cache   *ttlcache.Cache[[]catalog.Breed]
	fetcher *catalog.ResilientFetcher
	now     *time.Time
}

func newFetcherFixture(t *testing.T, store kvstore.Store) *fetcherFixture {
	t.Helper()
	now := time.UnixMilli(1_700_000_000_000)
	fx := &fetcherFixture{source: &mockSource{}, now: &now}

	c, err := ttlcache.New[[]catalog.Breed](store, zerolog.Nop(), ttlcache.WithClock(func() time.Time { return *fx.now }))
	require.NoError(t, err)
	fx.cache = c

	f, err := catalog.NewResilientFetcher(fx.source, c, zerolog.Nop())
	require.NoError(t, err)
	fx.fetcher = f
	return fx
}

var (
	catalogV1 = []catalog.Breed{{ID: "abys", Name: "Abyssinian"}}
	catalogV2 = []catalog.Breed{{ID: "abys", Name: "Abyssinian"}, {ID: "siam", Name: "Siamese"}}
)

func TestResilientFetcher_NetworkSuccessWritesThrough(t *testing.T) {
	ctx := context.Background()
	fx := newFetcherFixture(t, kvstore.NewInMemoryStore())

	// Arrange: a previous fetch cached V1.
	fx.source.FetchFunc = func(context.Context) ([]catalog.Breed, error) { return catalogV1, nil }
	_, err := fx.fetcher.Fetch(ctx)
	require.NoError(t, err)

	// Act: the next fetch returns V2.
	fx.source.FetchFunc = func(context.Context) ([]catalog.Breed, error) { return catalogV2, nil }
	res, err := fx.fetcher.Fetch(ctx)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, catalog.SourceNetwork, res.Source)
	assert.False(t, res.Degraded())
	assert.Equal(t, catalogV2, res.Breeds)

	cached, ok := fx.cache.Get(ctx, catalog.CacheKey)
	require.True(t, ok)
	assert.Equal(t, catalogV2, cached, "cache should hold the newest network result")
}

func TestResilientFetcher_FallsBackToCache(t *testing.T) {
	testCases := []struct {
		name string
		err  error
	}{
		{name: "network error", err: errors.Join(catalog.ErrFetchFailed, errors.New("connection refused"))},
		{name: "non-2xx response", err: &catalog.StatusError{StatusCode: 500, URL: "/breeds"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctx := context.Background()
			fx := newFetcherFixture(t, kvstore.NewInMemoryStore())
			fx.source.FetchFunc = func(context.Context) ([]catalog.Breed, error) { return catalogV1, nil }
			_, err := fx.fetcher.Fetch(ctx)
			require.NoError(t, err)
			cachedAt := *fx.now

			*fx.now = fx.now.Add(24 * time.Hour)
			fx.source.FetchFunc = func(context.Context) ([]catalog.Breed, error) { return nil, tc.err }

			res, err := fx.fetcher.Fetch(ctx)

			require.NoError(t, err)
			assert.Equal(t, catalogV1, res.Breeds)
			assert.Equal(t, catalog.SourceCache, res.Source)
			assert.True(t, res.Degraded())
			assert.True(t, res.CachedAt.Equal(cachedAt))
			assert.ErrorIs(t, res.Cause, tc.err)
		})
	}
}

func TestResilientFetcher_FailureWithoutCache(t *testing.T) {
	fx := newFetcherFixture(t, kvstore.NewInMemoryStore())
	sourceErr := &catalog.StatusError{StatusCode: 502, URL: "/breeds"}
	fx.source.FetchFunc = func(context.Context) ([]catalog.Breed, error) { return nil, sourceErr }

	_, err := fx.fetcher.Fetch(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, catalog.ErrCatalogUnavailable)
	assert.ErrorIs(t, err, catalog.ErrFetchFailed)
	assert.Equal(t, int32(1), fx.source.callCount.Load(), "no automatic retry")
}

func TestResilientFetcher_ExpiredCacheIsNotAFallback(t *testing.T) {
	ctx := context.Background()
	fx := newFetcherFixture(t, kvstore.NewInMemoryStore())
	fx.source.FetchFunc = func(context.Context) ([]catalog.Breed, error) { return catalogV1, nil }
	_, err := fx.fetcher.Fetch(ctx)
	require.NoError(t, err)

	*fx.now = fx.now.Add(ttlcache.DefaultTTL + time.Millisecond)
	fx.source.FetchFunc = func(context.Context) ([]catalog.Breed, error) {
		return nil, catalog.ErrFetchFailed
	}

	_, err = fx.fetcher.Fetch(ctx)

	assert.ErrorIs(t, err, catalog.ErrCatalogUnavailable)
}

func TestResilientFetcher_CacheWriteFailureIsNotFatal(t *testing.T) {
	fx := newFetcherFixture(t, failingSetStore{kvstore.NewInMemoryStore()})
	fx.source.FetchFunc = func(context.Context) ([]catalog.Breed, error) { return catalogV1, nil }

	breeds, err := fx.fetcher.Breeds(context.Background())

	require.NoError(t, err)
	assert.Equal(t, catalogV1, breeds)
}

func TestResilientFetcher_Invalidate(t *testing.T) {
	ctx := context.Background()
	fx := newFetcherFixture(t, kvstore.NewInMemoryStore())
	fx.source.FetchFunc = func(context.Context) ([]catalog.Breed, error) { return catalogV1, nil }
	_, err := fx.fetcher.Fetch(ctx)
	require.NoError(t, err)

	require.NoError(t, fx.fetcher.Invalidate(ctx))

	fx.source.FetchFunc = func(context.Context) ([]catalog.Breed, error) { return nil, catalog.ErrFetchFailed }
	_, err = fx.fetcher.Fetch(ctx)
	assert.ErrorIs(t, err, catalog.ErrCatalogUnavailable)
}

func TestNewResilientFetcher_Validation(t *testing.T) {
	c, err := ttlcache.New[[]catalog.Breed](kvstore.NewInMemoryStore(), zerolog.Nop())
	require.NoError(t, err)

	_, err = catalog.NewResilientFetcher(nil, c, zerolog.Nop())
	require.Error(t, err)

	_, err = catalog.NewResilientFetcher(&mockSource{}, nil, zerolog.Nop())
	require.Error(t, err)
}

func TestResilientFetcher_ConcurrentCallersShareOneAttempt(t *testing.T) {
	ctx := context.Background()
	fx := newFetcherFixture(t, kvstore.NewInMemoryStore())

	// Arrange: the network call blocks until released.
	started := make(chan struct{})
	release := make(chan struct{})
	var startOnce sync.Once
	fx.source.FetchFunc = func(context.Context) ([]catalog.Breed, error) {
		startOnce.Do(func() { close(started) })
		<-release
		return catalogV2, nil
	}

	const callers = 8
	results := make([]catalog.Result, callers)
	errs := make([]error, callers)
	var ready, done sync.WaitGroup
	fetch := func(i int) {
		defer done.Done()
		ready.Done()
		results[i], errs[i] = fx.fetcher.Fetch(ctx)
	}

	// Act: one caller starts the attempt, the rest arrive while it is in flight.
	ready.Add(callers)
	done.Add(callers)
	go fetch(0)
	<-started
	for i := 1; i < callers; i++ {
		go fetch(i)
	}
	ready.Wait()
	time.Sleep(50 * time.Millisecond)
	close(release)
	done.Wait()

	// Assert
	assert.Equal(t, int32(1), fx.source.callCount.Load(), "one network request for all callers")
	for i := range callers {
		require.NoError(t, errs[i])
		assert.Equal(t, results[0], results[i])
		assert.Equal(t, catalog.SourceNetwork, results[i].Source)
		assert.Equal(t, catalogV2, results[i].Breeds)
	}
}
