// Package metadata is a small key/value store in the CLI's local database.
// It keeps the session between runs.
package metadata

import (
	"context"
)

type Repository interface {
	// Get returns nil and no error for an unknown key.
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	List(ctx context.Context) (map[string][]byte, error)
	Clear(ctx context.Context) error
}
