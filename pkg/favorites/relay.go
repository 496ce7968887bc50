package favorites

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"cloud.google.com/go/pubsub"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// EventFavoritesUpdated is the event attribute of relayed messages.
const EventFavoritesUpdated = "favorites-updated"

// PubsubRelayConfig holds configuration for the Pub/Sub relay.
type PubsubRelayConfig struct {
	ProjectID       string `yaml:"project_id" env:"PROJECT_ID"`
	TopicID         string `yaml:"topic_id" env:"TOPIC_ID"`
	CredentialsFile string `yaml:"credentials_file" env:"CREDENTIALS_FILE"`

	TopicExistsTimeout         time.Duration `yaml:"topic_exists_timeout" env:"TOPIC_EXISTS_TIMEOUT"`
	PublishConfirmationTimeout time.Duration `yaml:"publish_confirmation_timeout" env:"PUBLISH_CONFIRMATION_TIMEOUT"`
}

// NewPubsubRelayDefaults provides a config with sensible defaults.
func NewPubsubRelayDefaults() *PubsubRelayConfig {
	return &PubsubRelayConfig{
		TopicExistsTimeout:         15 * time.Second,
		PublishConfirmationTimeout: 20 * time.Second,
	}
}

// PubsubRelay mirrors local favorites-changed notifications to a Pub/Sub
// topic for consumers outside the process. Messages carry only attributes;
// nothing is ever delivered back into the local Notifier.
type PubsubRelay struct {
	topic                      *pubsub.Topic
	origin                     string
	publishConfirmationTimeout time.Duration
	logger                     zerolog.Logger

	mu          sync.Mutex
	unsubscribe func()
	stopped     bool
	wg          sync.WaitGroup
}

// NewPubsubRelay creates a relay publishing to cfg.TopicID.
// It validates the topic's existence before returning.
func NewPubsubRelay(
	ctx context.Context,
	cfg *PubsubRelayConfig,
	client *pubsub.Client,
	logger zerolog.Logger,
) (*PubsubRelay, error) {
	if client == nil {
		return nil, errors.New("pubsub client cannot be nil for relay")
	}

	topic := client.Topic(cfg.TopicID)
	existsCtx, cancel := context.WithTimeout(ctx, cfg.TopicExistsTimeout)
	defer cancel()
	exists, err := topic.Exists(existsCtx)
	if err != nil {
		return nil, fmt.Errorf("failed to check for topic %s: %w", cfg.TopicID, err)
	}
	if !exists {
		return nil, fmt.Errorf("pubsub topic %s does not exist", cfg.TopicID)
	}

	origin := uuid.NewString()
	logger.Info().Str("topic_id", cfg.TopicID).Str("origin", origin).Msg("PubsubRelay initialized successfully.")
	return &PubsubRelay{
		topic:                      topic,
		origin:                     origin,
		publishConfirmationTimeout: cfg.PublishConfirmationTimeout,
		logger:                     logger.With().Str("component", "PubsubRelay").Str("topic_id", cfg.TopicID).Logger(),
	}, nil
}

// Origin identifies this process in relayed messages.
func (r *PubsubRelay) Origin() string {
	return r.origin
}

// Start subscribes the relay to n.
func (r *PubsubRelay) Start(n Notifier) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.unsubscribe != nil || r.stopped {
		return
	}
	r.unsubscribe = n.Subscribe(r.publish)
	r.logger.Info().Msg("PubsubRelay started.")
}

// publish hands one message to the client's batcher and confirms it in the
// background so the notifying toggle is not held up by the network.
// Notifications that arrive after Stop are dropped.
func (r *PubsubRelay) publish(ctx context.Context) {
	r.mu.Lock()
	if r.stopped {
		r.mu.Unlock()
		r.logger.Debug().Msg("Relay stopped, dropping favorites change.")
		return
	}
	r.wg.Add(1)
	r.mu.Unlock()

	res := r.topic.Publish(context.WithoutCancel(ctx), &pubsub.Message{
		Attributes: map[string]string{
			"event":   EventFavoritesUpdated,
			"origin":  r.origin,
			"sent_at": time.Now().UTC().Format(time.RFC3339Nano),
		},
	})
	go r.confirmPublish(res)
}

func (r *PubsubRelay) confirmPublish(res *pubsub.PublishResult) {
	defer r.wg.Done()
	getCtx, cancel := context.WithTimeout(context.Background(), r.publishConfirmationTimeout)
	defer cancel()

	msgID, err := res.Get(getCtx)
	if err != nil {
		r.logger.Error().Err(err).Msg("Failed to relay favorites change.")
		return
	}
	r.logger.Debug().Str("pubsub_msg_id", msgID).Msg("Favorites change relayed.")
}

// Stop unsubscribes from the notifier, waits for outstanding confirmations and
// flushes the topic, respecting ctx's deadline.
func (r *PubsubRelay) Stop(ctx context.Context) error {
	r.mu.Lock()
	r.stopped = true
	if r.unsubscribe != nil {
		r.unsubscribe()
		r.unsubscribe = nil
	}
	r.mu.Unlock()

	r.logger.Info().Msg("Flushing remaining messages and stopping Pub/Sub topic...")
	stopDone := make(chan struct{})
	go func() {
		r.wg.Wait()
		r.topic.Stop()
		close(stopDone)
	}()
	select {
	case <-stopDone:
		r.logger.Info().Msg("PubsubRelay stopped gracefully.")
		return nil
	case <-ctx.Done():
		r.logger.Error().Err(ctx.Err()).Msg("Timeout waiting for Pub/Sub topic to flush and stop.")
		return ctx.Err()
	}
}
