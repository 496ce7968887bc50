package favorites

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Listener is called after the favorites set changed. It receives no
// payload; listeners re-read the full set.
type Listener func(ctx context.Context)

// Notifier is a process-wide publish/subscribe channel for favorites-changed
// events.
type Notifier interface {
	// Notify delivers one event to every current subscriber and returns
	// after all of them have run.
	Notify(ctx context.Context)
	// Subscribe registers l and returns a function that removes it.
	// The returned function is idempotent.
	Subscribe(l Listener) (unsubscribe func())
}

type subscription struct {
	id       uuid.UUID
	listener Listener
}

// LocalNotifier delivers events synchronously, in subscription order, to
// listeners in the current process.
type LocalNotifier struct {
	mu     sync.RWMutex
	subs   []subscription
	logger zerolog.Logger
}

// NewLocalNotifier creates an empty notifier.
func NewLocalNotifier(logger zerolog.Logger) *LocalNotifier {
	return &LocalNotifier{
		logger: logger.With().Str("component", "LocalNotifier").Logger(),
	}
}

// Notify runs every listener subscribed at the time of the call. Listeners
// may unsubscribe, or subscribe others, while being notified.
func (n *LocalNotifier) Notify(ctx context.Context) {
	n.mu.RLock()
	snapshot := make([]subscription, len(n.subs))
	copy(snapshot, n.subs)
	n.mu.RUnlock()

	n.logger.Debug().Int("listeners", len(snapshot)).Msg("Delivering favorites-changed notification.")
	for _, s := range snapshot {
		s.listener(ctx)
	}
}

// Subscribe adds l to the delivery list.
func (n *LocalNotifier) Subscribe(l Listener) func() {
	id := uuid.New()
	n.mu.Lock()
	n.subs = append(n.subs, subscription{id: id, listener: l})
	n.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { n.unsubscribe(id) })
	}
}

// Len returns the number of current subscribers.
func (n *LocalNotifier) Len() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.subs)
}

func (n *LocalNotifier) unsubscribe(id uuid.UUID) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for i, s := range n.subs {
		if s.id == id {
			n.subs = append(n.subs[:i:i], n.subs[i+1:]...)
			return
		}
	}
}

var _ Notifier = (*LocalNotifier)(nil)
