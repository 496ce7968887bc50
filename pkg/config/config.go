// Package config loads client configuration from a YAML file with
// environment variable overrides.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/illmade-knight/go-catpedia/pkg/catalog"
	"github.com/illmade-knight/go-catpedia/pkg/favorites"
	"github.com/illmade-knight/go-catpedia/pkg/kvstore"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is prepended to every environment variable name.
const EnvPrefix = "CATPEDIA_"

// Storage backends.
const (
	BackendMemory    = "memory"
	BackendSQLite    = "sqlite"
	BackendRedis     = "redis"
	BackendFirestore = "firestore"
	BackendGCS       = "gcs"
)

// StorageConfig selects and configures the durable key-value backend.
type StorageConfig struct {
	Backend   string                  `yaml:"backend" env:"BACKEND"`
	SQLite    kvstore.SQLiteConfig    `yaml:"sqlite" envPrefix:"SQLITE_"`
	Redis     kvstore.RedisConfig     `yaml:"redis" envPrefix:"REDIS_"`
	Firestore kvstore.FirestoreConfig `yaml:"firestore" envPrefix:"FIRESTORE_"`
	GCS       kvstore.GCSConfig       `yaml:"gcs" envPrefix:"GCS_"`
	// CredentialsFile is used by the Google Cloud backends. Optional; for gcs,
	// GCS.CredentialsFile takes precedence when set.
	CredentialsFile string `yaml:"credentials_file" env:"CREDENTIALS_FILE"`
}

// RelayConfig configures the optional Pub/Sub mirror of favorites changes.
type RelayConfig struct {
	Enabled bool                        `yaml:"enabled" env:"ENABLED"`
	Pubsub  favorites.PubsubRelayConfig `yaml:"pubsub" envPrefix:"PUBSUB_"`
}

// Config is the complete client configuration.
type Config struct {
	LogLevel string            `yaml:"log_level" env:"LOG_LEVEL"`
	API      catalog.APIConfig `yaml:"api" envPrefix:"API_"`
	Storage  StorageConfig     `yaml:"storage" envPrefix:"STORAGE_"`
	Relay    RelayConfig       `yaml:"relay" envPrefix:"RELAY_"`
}

// Default returns the configuration used when nothing is overridden.
func Default() *Config {
	return &Config{
		LogLevel: "info",
		API:      *catalog.NewAPIDefaults(),
		Storage: StorageConfig{
			Backend: BackendSQLite,
			SQLite:  kvstore.SQLiteConfig{Path: "catpedia.db"},
			Firestore: kvstore.FirestoreConfig{
				CollectionName: "catpedia",
			},
		},
		Relay: RelayConfig{
			Pubsub: *favorites.NewPubsubRelayDefaults(),
		},
	}
}

// Load reads the YAML file at path, if path is not empty, on top of Default,
// then applies CATPEDIA_* environment variables and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the selected backend and the relay have what they need.
func (c *Config) Validate() error {
	var errs []error

	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("invalid log_level %q", c.LogLevel))
	}
	if c.API.BaseURL == "" {
		errs = append(errs, errors.New("api.base_url is required"))
	}

	switch c.Storage.Backend {
	case BackendMemory:
	case BackendSQLite:
		if c.Storage.SQLite.Path == "" {
			errs = append(errs, errors.New("storage.sqlite.path is required"))
		}
	case BackendRedis:
		if c.Storage.Redis.Addr == "" {
			errs = append(errs, errors.New("storage.redis.addr is required"))
		}
	case BackendFirestore:
		if c.Storage.Firestore.ProjectID == "" || c.Storage.Firestore.CollectionName == "" {
			errs = append(errs, errors.New("storage.firestore.project_id and collection are required"))
		}
	case BackendGCS:
		if c.Storage.GCS.BucketName == "" {
			errs = append(errs, errors.New("storage.gcs.bucket is required"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown storage backend %q", c.Storage.Backend))
	}

	if c.Relay.Enabled && (c.Relay.Pubsub.ProjectID == "" || c.Relay.Pubsub.TopicID == "") {
		errs = append(errs, errors.New("relay.pubsub.project_id and topic_id are required when the relay is enabled"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}
