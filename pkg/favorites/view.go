package favorites

import (
	"context"
	"slices"
	"sync"

	"github.com/rs/zerolog"
)

// View is a mounted consumer of the favorites set. It holds the result of
// its most recent full read and re-reads on every notification until it is
// unmounted.
type View struct {
	store    *Store
	onChange func(ids []string)
	logger   zerolog.Logger

	// refreshMu serializes whole refreshes so a slow read can never store
	// its result after a later one.
	refreshMu sync.Mutex

	mu          sync.RWMutex
	ids         []string
	unsubscribe func()
}

// Mount subscribes a new View to store and performs the initial read.
// onChange, if non-nil, receives a copy of the set after every successful
// read, including the initial one.
func Mount(ctx context.Context, store *Store, onChange func(ids []string), logger zerolog.Logger) (*View, error) {
	v := &View{
		store:    store,
		onChange: onChange,
		logger:   logger.With().Str("component", "FavoritesView").Logger(),
	}
	// Subscribe before the first read so a change in between is not lost.
	v.unsubscribe = store.Subscribe(func(ctx context.Context) {
		if err := v.refresh(ctx); err != nil {
			v.logger.Warn().Err(err).Msg("Failed to re-read favorites, keeping last known set.")
		}
	})
	if err := v.refresh(ctx); err != nil {
		v.Unmount()
		return nil, err
	}
	return v, nil
}

func (v *View) refresh(ctx context.Context) error {
	v.refreshMu.Lock()
	defer v.refreshMu.Unlock()

	ids, err := v.store.Read(ctx)
	if err != nil {
		return err
	}
	v.mu.Lock()
	v.ids = ids
	v.mu.Unlock()

	if v.onChange != nil {
		v.onChange(slices.Clone(ids))
	}
	return nil
}

// IDs returns a copy of the last read set.
func (v *View) IDs() []string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return slices.Clone(v.ids)
}

// Contains reports whether id was in the last read set.
func (v *View) Contains(id string) bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return slices.Contains(v.ids, id)
}

// Len returns the size of the last read set.
func (v *View) Len() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.ids)
}

// Unmount stops the view from receiving notifications. It is safe to call
// more than once.
func (v *View) Unmount() {
	v.mu.Lock()
	unsubscribe := v.unsubscribe
	v.unsubscribe = nil
	v.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
}
