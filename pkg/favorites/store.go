// Package favorites keeps the user's favorite breed ids in durable storage
// and tells every interested view when the set changes.
//
// There is no shared in-memory copy of the set. Each reader goes back to
// storage, and each change is announced on a Notifier so that views that did
// not make the change can re-read it.
package favorites

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/illmade-knight/go-catpedia/pkg/kvstore"
	"github.com/rs/zerolog"
)

// Key is the storage key of the persisted id list.
const Key = "catpedia-favorites"

// ErrEmptyID is returned when toggling an empty id.
var ErrEmptyID = errors.New("favorites: id cannot be empty")

// Store is the single owner of the persisted favorites set.
type Store struct {
	kv       kvstore.Store
	notifier Notifier
	logger   zerolog.Logger

	// mu serializes read-modify-write-notify cycles.
	mu sync.Mutex
}

// NewStore creates a Store persisting under Key in kv.
func NewStore(kv kvstore.Store, notifier Notifier, logger zerolog.Logger) (*Store, error) {
	if kv == nil {
		return nil, errors.New("favorites storage cannot be nil")
	}
	if notifier == nil {
		return nil, errors.New("favorites notifier cannot be nil")
	}
	return &Store{
		kv:       kv,
		notifier: notifier,
		logger:   logger.With().Str("component", "FavoritesStore").Logger(),
	}, nil
}

// Read returns the persisted ids in insertion order. A missing or corrupt
// entry reads as the empty set.
func (s *Store) Read(ctx context.Context) ([]string, error) {
	raw, err := s.kv.Get(ctx, Key)
	if err != nil {
		if errors.Is(err, kvstore.ErrNotFound) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to read favorites: %w", err)
	}
	var ids []string
	if err := json.Unmarshal(raw, &ids); err != nil {
		s.logger.Warn().Err(err).Msg("Corrupt favorites entry, treating as empty.")
		return []string{}, nil
	}
	if ids == nil {
		ids = []string{}
	}
	return ids, nil
}

// IsFavorite reports whether id is in the persisted set.
func (s *Store) IsFavorite(ctx context.Context, id string) (bool, error) {
	ids, err := s.Read(ctx)
	if err != nil {
		return false, err
	}
	return slices.Contains(ids, id), nil
}

// Toggle adds id if absent or removes it if present, writes the whole set
// back, then notifies every subscriber. It returns the new membership of id.
//
// Subscribers run before Toggle returns and must not call Toggle themselves.
func (s *Store) Toggle(ctx context.Context, id string) (bool, error) {
	if id == "" {
		return false, ErrEmptyID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ids, err := s.Read(ctx)
	if err != nil {
		return false, err
	}

	var next []string
	added := !slices.Contains(ids, id)
	if added {
		next = append(ids, id)
	} else {
		next = slices.DeleteFunc(ids, func(v string) bool { return v == id })
	}

	raw, err := json.Marshal(next)
	if err != nil {
		return false, fmt.Errorf("failed to marshal favorites: %w", err)
	}
	if err := s.kv.Set(ctx, Key, raw); err != nil {
		s.logger.Error().Err(err).Str("id", id).Msg("Failed to persist favorites.")
		return false, fmt.Errorf("failed to write favorites: %w", err)
	}

	s.logger.Debug().Str("id", id).Bool("favorite", added).Int("count", len(next)).Msg("Favorites updated.")
	s.notifier.Notify(ctx)
	return added, nil
}

// Subscribe registers l for favorites-changed notifications.
func (s *Store) Subscribe(l Listener) (unsubscribe func()) {
	return s.notifier.Subscribe(l)
}
