// Package catpedia wires the data layer together from a config.Config.
package catpedia

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/pubsub"
	"cloud.google.com/go/storage"
	"github.com/illmade-knight/go-catpedia/pkg/catalog"
	"github.com/illmade-knight/go-catpedia/pkg/config"
	"github.com/illmade-knight/go-catpedia/pkg/favorites"
	"github.com/illmade-knight/go-catpedia/pkg/kvstore"
	"github.com/illmade-knight/go-catpedia/pkg/ttlcache"
	"github.com/rs/zerolog"
	"google.golang.org/api/option"
)

const relayStopTimeout = 30 * time.Second

// Client bundles everything a view needs: the resilient catalog, the
// uncached detail API, and the favorites store.
type Client struct {
	Catalog   *catalog.ResilientFetcher
	API       *catalog.APIClient
	Favorites *favorites.Store
	Notifier  *favorites.LocalNotifier

	store   kvstore.Store
	relay   *favorites.PubsubRelay
	closers []func() error
	logger  zerolog.Logger
}

// Dependencies lets callers supply pre-built collaborators. Zero fields are
// built from the config.
type Dependencies struct {
	Store      kvstore.Store
	HTTPClient *http.Client
}

// New builds a Client from cfg.
func New(ctx context.Context, cfg *config.Config, deps Dependencies, logger zerolog.Logger) (*Client, error) {
	c := &Client{logger: logger.With().Str("component", "Catpedia").Logger()}

	store := deps.Store
	if store == nil {
		var err error
		store, err = c.openStore(ctx, &cfg.Storage, logger)
		if err != nil {
			_ = c.Close()
			return nil, err
		}
		c.closers = append(c.closers, store.Close)
	}
	c.store = store

	api, err := catalog.NewAPIClient(&cfg.API, deps.HTTPClient, logger)
	if err != nil {
		_ = c.Close()
		return nil, err
	}
	c.API = api

	breedCache, err := ttlcache.New[[]catalog.Breed](store, logger)
	if err != nil {
		_ = c.Close()
		return nil, err
	}
	c.Catalog, err = catalog.NewResilientFetcher(api, breedCache, logger)
	if err != nil {
		_ = c.Close()
		return nil, err
	}

	c.Notifier = favorites.NewLocalNotifier(logger)
	c.Favorites, err = favorites.NewStore(store, c.Notifier, logger)
	if err != nil {
		_ = c.Close()
		return nil, err
	}

	if cfg.Relay.Enabled {
		if err := c.startRelay(ctx, &cfg.Relay.Pubsub, logger); err != nil {
			_ = c.Close()
			return nil, err
		}
	}

	c.logger.Info().Str("backend", cfg.Storage.Backend).Bool("relay", cfg.Relay.Enabled).Msg("Catpedia client ready.")
	return c, nil
}

// Mount mounts a favorites view on the client's store.
func (c *Client) Mount(ctx context.Context, onChange func(ids []string)) (*favorites.View, error) {
	return favorites.Mount(ctx, c.Favorites, onChange, c.logger)
}

func (c *Client) openStore(ctx context.Context, cfg *config.StorageConfig, logger zerolog.Logger) (kvstore.Store, error) {
	switch cfg.Backend {
	case config.BackendMemory:
		return kvstore.NewInMemoryStore(), nil
	case config.BackendSQLite:
		return kvstore.NewSQLiteStore(ctx, &cfg.SQLite, logger)
	case config.BackendRedis:
		return kvstore.NewRedisStore(ctx, &cfg.Redis, logger)
	case config.BackendFirestore:
		fsClient, err := firestore.NewClient(ctx, cfg.Firestore.ProjectID, credentialOptions(cfg.CredentialsFile)...)
		if err != nil {
			return nil, fmt.Errorf("failed to create firestore client: %w", err)
		}
		c.closers = append(c.closers, fsClient.Close)
		return kvstore.NewFirestoreStore(&cfg.Firestore, fsClient, logger)
	case config.BackendGCS:
		creds := cfg.CredentialsFile
		if cfg.GCS.CredentialsFile != "" {
			creds = cfg.GCS.CredentialsFile
		}
		gcsClient, err := storage.NewClient(ctx, credentialOptions(creds)...)
		if err != nil {
			return nil, fmt.Errorf("failed to create storage client: %w", err)
		}
		c.closers = append(c.closers, gcsClient.Close)
		return kvstore.NewGCSStore(&cfg.GCS, kvstore.NewGCSClientAdapter(gcsClient), logger)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

// credentialOptions returns the client options for an optional credentials file.
func credentialOptions(file string) []option.ClientOption {
	if file == "" {
		return nil
	}
	return []option.ClientOption{option.WithCredentialsFile(file)}
}

func (c *Client) startRelay(ctx context.Context, cfg *favorites.PubsubRelayConfig, logger zerolog.Logger) error {
	psClient, err := pubsub.NewClient(ctx, cfg.ProjectID, credentialOptions(cfg.CredentialsFile)...)
	if err != nil {
		return fmt.Errorf("failed to create pubsub client: %w", err)
	}
	c.closers = append(c.closers, psClient.Close)

	relay, err := favorites.NewPubsubRelay(ctx, cfg, psClient, logger)
	if err != nil {
		return err
	}
	relay.Start(c.Notifier)
	c.relay = relay
	return nil
}

// Close stops the relay and releases every backend in reverse order of
// creation. Stores passed in through Dependencies are left open.
func (c *Client) Close() error {
	var errs []error
	if c.relay != nil {
		stopCtx, cancel := context.WithTimeout(context.Background(), relayStopTimeout)
		defer cancel()
		if err := c.relay.Stop(stopCtx); err != nil {
			errs = append(errs, err)
		}
		c.relay = nil
	}
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	c.closers = nil
	return errors.Join(errs...)
}
