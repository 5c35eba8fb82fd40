// Package storage keeps exported copies of rendered campaign markup.
package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/FizzSlash/AIdesign/internal/infra"
)

// ErrNotFound is returned by Read for a key that was never written.
var ErrNotFound = errors.New("storage: object not found")

// Store writes and reads markup by relative key.
type Store interface {
	Write(ctx context.Context, key string, data []byte) (string, error)
	Read(ctx context.Context, key string) ([]byte, error)
}

// FromConfig picks S3 when a bucket is configured and the local
// filesystem otherwise.
func FromConfig(ctx context.Context, cfg *infra.Config) (Store, error) {
	if cfg.S3Bucket != "" {
		return NewS3Store(ctx, S3Config{
			Bucket:   cfg.S3Bucket,
			Region:   cfg.S3Region,
			Endpoint: cfg.S3Endpoint,
			Prefix:   cfg.S3Prefix,
		})
	}
	store, err := NewFileStore(cfg.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("storage: file store: %w", err)
	}
	return store, nil
}
