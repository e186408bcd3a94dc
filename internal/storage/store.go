// Package storage abstracts writing pipeline outputs to a backend. The
// local backend writes atomically via temp file + rename; the blob backend
// targets any gocloud-supported bucket (S3, GCS, local file URLs).
package storage

import (
	"context"
	"fmt"
)

// Store writes opaque payloads under slash-separated keys.
type Store interface {
	// Write persists data under key, creating intermediate directories
	// as needed.
	Write(ctx context.Context, key string, data []byte) error

	// Exists checks whether key already holds an object.
	Exists(ctx context.Context, key string) (bool, error)

	// URI returns the canonical URI for the given key.
	// For local: file:///path, blob: the bucket URL joined with the key.
	URI(key string) string

	// Close releases any resources.
	Close() error
}

// Config configures the storage backend.
type Config struct {
	Backend   string // "local" | "blob"
	LocalDir  string
	BucketURL string // "s3://...", "gs://...", "file://..."
	Prefix    string
}

// NewStore creates a storage backend based on configuration.
func NewStore(cfg Config) (Store, error) {
	switch cfg.Backend {
	case "local":
		if cfg.LocalDir == "" {
			return nil, fmt.Errorf("LocalDir required for local backend")
		}
		return NewLocalStore(cfg.LocalDir, cfg.Prefix)
	case "blob":
		if cfg.BucketURL == "" {
			return nil, fmt.Errorf("BucketURL required for blob backend")
		}
		return NewBlobStore(cfg.BucketURL, cfg.Prefix)
	default:
		return nil, fmt.Errorf("unknown storage backend: %s", cfg.Backend)
	}
}
