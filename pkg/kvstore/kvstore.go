// Package kvstore provides durable string-keyed storage backends.
//
// Values are opaque bytes; callers in this module store UTF-8 JSON text.
// Expiry is not a storage concern: backends keep values until they are
// overwritten or removed.
package kvstore

import (
	"context"
	"errors"
	"io"
	"strings"
)

// MaxKeyLength is the maximum allowed length for a storage key.
const MaxKeyLength = 512

// Sentinel errors for storage operations.
var (
	ErrNotFound   = errors.New("kvstore: key not found")
	ErrInvalidKey = errors.New("kvstore: key is invalid")
	ErrKeyTooLong = errors.New("kvstore: key exceeds max length")
)

// Store is the contract for a durable key-value backend.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Get returns ErrNotFound (possibly wrapped) when the key is absent.
// - Remove is idempotent; removing a missing key is not an error.
type Store interface {
	// Get retrieves the raw value stored under key.
	Get(ctx context.Context, key string) ([]byte, error)
	// Set stores value under key, overwriting any previous value.
	Set(ctx context.Context, key string, value []byte) error
	// Remove deletes the value stored under key.
	Remove(ctx context.Context, key string) error
	// Closer is included for implementations that manage connections.
	io.Closer
}

// ValidateKey checks if a key is usable by every backend.
func ValidateKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return ErrInvalidKey
	}
	if len(key) > MaxKeyLength {
		return ErrKeyTooLong
	}
	if strings.ContainsAny(key, "\n\r") {
		return ErrInvalidKey
	}
	return nil
}
