package kvstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"

	"cloud.google.com/go/storage"
	"github.com/rs/zerolog"
)

// GCSConfig holds configuration for the GCS-backed store.
type GCSConfig struct {
	ProjectID       string `yaml:"project_id" env:"PROJECT_ID"`
	BucketName      string `yaml:"bucket" env:"BUCKET"`
	ObjectPrefix    string `yaml:"object_prefix" env:"OBJECT_PREFIX"`
	CredentialsFile string `yaml:"credentials_file" env:"CREDENTIALS_FILE"`
}

// GCSStore is a Store that keeps each key as one object in a bucket.
type GCSStore struct {
	bucket GCSBucketHandle
	prefix string
	logger zerolog.Logger
}

// NewGCSStore creates a GCSStore on top of the given client abstraction.
func NewGCSStore(cfg *GCSConfig, client GCSClient, logger zerolog.Logger) (*GCSStore, error) {
	if client == nil {
		return nil, errors.New("gcs client cannot be nil")
	}
	if cfg.BucketName == "" {
		return nil, errors.New("gcs bucket name cannot be empty")
	}
	logger.Info().Str("bucket", cfg.BucketName).Str("prefix", cfg.ObjectPrefix).Msg("GCSStore initialized.")
	return &GCSStore{
		bucket: client.Bucket(cfg.BucketName),
		prefix: cfg.ObjectPrefix,
		logger: logger.With().Str("component", "GCSStore").Str("bucket", cfg.BucketName).Logger(),
	}, nil
}

func (s *GCSStore) objectName(key string) string {
	if s.prefix == "" {
		return key + ".json"
	}
	return path.Join(s.prefix, key+".json")
}

// Get downloads the object for key.
func (s *GCSStore) Get(ctx context.Context, key string) ([]byte, error) {
	name := s.objectName(key)
	r, err := s.bucket.Object(name).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, fmt.Errorf("key '%s': %w", key, ErrNotFound)
		}
		s.logger.Error().Err(err).Str("object", name).Msg("Failed to open GCS object.")
		return nil, fmt.Errorf("gcs read for %s: %w", name, err)
	}
	defer func() { _ = r.Close() }()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("gcs read body for %s: %w", name, err)
	}
	return data, nil
}

// Set uploads value as the object for key. The write is committed on Close.
func (s *GCSStore) Set(ctx context.Context, key string, value []byte) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	name := s.objectName(key)
	w := s.bucket.Object(name).NewWriter(ctx)
	if _, err := w.Write(value); err != nil {
		_ = w.Close()
		s.logger.Error().Err(err).Str("object", name).Msg("Failed to write GCS object.")
		return fmt.Errorf("gcs write for %s: %w", name, err)
	}
	if err := w.Close(); err != nil {
		s.logger.Error().Err(err).Str("object", name).Msg("Failed to finalize GCS object.")
		return fmt.Errorf("gcs close for %s: %w", name, err)
	}
	s.logger.Debug().Str("object", name).Int("bytes", len(value)).Msg("Stored object in GCS.")
	return nil
}

// Remove deletes the object for key.
func (s *GCSStore) Remove(ctx context.Context, key string) error {
	name := s.objectName(key)
	if err := s.bucket.Object(name).Delete(ctx); err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil
		}
		return fmt.Errorf("gcs delete for %s: %w", name, err)
	}
	return nil
}

// Close is a no-op; the storage client's lifecycle is managed externally.
func (s *GCSStore) Close() error {
	return nil
}

var _ Store = (*GCSStore)(nil)
