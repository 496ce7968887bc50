package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/illmade-knight/go-catpedia/pkg/ttlcache"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// CacheKey is the storage key of the cached breed list.
const CacheKey = "catpedia-breeds-cache"

// Source is the authoritative, remote provider of the breed list.
type Source interface {
	Fetch(ctx context.Context) ([]Breed, error)
}

// DataSource tells where a Result's breeds came from.
type DataSource string

const (
	SourceNetwork DataSource = "network"
	SourceCache   DataSource = "cache"
)

// Result is a successful catalog read. A Result from the cache carries the
// network failure that forced the fallback in Cause.
type Result struct {
	Breeds   []Breed
	Source   DataSource
	CachedAt time.Time
	Cause    error
}

// Degraded reports whether the breeds were served from the cache because the
// network attempt failed.
func (r Result) Degraded() bool {
	return r.Source == SourceCache
}

// ResilientFetcher reads the breed list from the network, writes every
// successful read through to a TTL cache, and falls back to the cached list
// when the network attempt fails.
//
// Each call makes at most one network attempt; retrying is the caller's
// decision. Concurrent callers share a single in-flight attempt.
type ResilientFetcher struct {
	source Source
	cache  *ttlcache.Cache[[]Breed]
	group  singleflight.Group
	logger zerolog.Logger
}

// NewResilientFetcher creates a ResilientFetcher.
func NewResilientFetcher(source Source, cache *ttlcache.Cache[[]Breed], logger zerolog.Logger) (*ResilientFetcher, error) {
	if source == nil {
		return nil, errors.New("catalog source cannot be nil")
	}
	if cache == nil {
		return nil, errors.New("catalog cache cannot be nil")
	}
	return &ResilientFetcher{
		source: source,
		cache:  cache,
		logger: logger.With().Str("component", "ResilientFetcher").Logger(),
	}, nil
}

// Fetch returns the breed list. It fails with ErrCatalogUnavailable only when
// the network attempt failed and there is no valid cached list.
func (f *ResilientFetcher) Fetch(ctx context.Context) (Result, error) {
	v, err, shared := f.group.Do(CacheKey, func() (any, error) {
		return f.fetch(ctx)
	})
	if shared {
		f.logger.Debug().Msg("Joined an in-flight catalog fetch.")
	}
	if err != nil {
		return Result{}, err
	}
	return v.(Result), nil
}

// Breeds is Fetch without the provenance.
func (f *ResilientFetcher) Breeds(ctx context.Context) ([]Breed, error) {
	res, err := f.Fetch(ctx)
	if err != nil {
		return nil, err
	}
	return res.Breeds, nil
}

// Invalidate drops the cached breed list.
func (f *ResilientFetcher) Invalidate(ctx context.Context) error {
	return f.cache.Clear(ctx, CacheKey)
}

func (f *ResilientFetcher) fetch(ctx context.Context) (Result, error) {
	// 1. Read the fallback before touching the network.
	cached, hasCached := f.cache.Lookup(ctx, CacheKey)

	// 2. One network attempt.
	breeds, err := f.source.Fetch(ctx)
	if err == nil {
		// 3. Write through. A failed write never fails the fetch.
		if writeErr := f.cache.Set(ctx, CacheKey, breeds); writeErr != nil {
			f.logger.Warn().Err(writeErr).Msg("Failed to write catalog to cache.")
		}
		f.logger.Debug().Int("breeds", len(breeds)).Msg("Catalog fetched from network.")
		return Result{Breeds: breeds, Source: SourceNetwork}, nil
	}

	// 4. Fall back to the cached list, if any.
	if hasCached {
		f.logger.Info().Err(err).Time("cached_at", cached.StoredAt).Msg("Using cached data (offline mode).")
		return Result{
			Breeds:   cached.Value,
			Source:   SourceCache,
			CachedAt: cached.StoredAt,
			Cause:    err,
		}, nil
	}

	f.logger.Error().Err(err).Msg("Catalog fetch failed and no cached data is available.")
	return Result{}, fmt.Errorf("%w: %w", ErrCatalogUnavailable, err)
}
