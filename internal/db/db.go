// Package db defines the key-value storage contract used by caches.
// Consumers depend on the narrow KVStore interface; drivers live in
// subpackages.
package db

import "context"

// KVStore provides simple key-value operations.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}

// Store is the database facade.
type Store interface {
	KVStore
	Close() error
}
