package storage

import (
	"context"
	"errors"
)

// ErrNotFound reports that a key has no value in the store.
var ErrNotFound = errors.New("storage: not found")

// KV is the durable key-value substrate everything persists through: string
// keys mapping to JSON-serialized values. Concrete drivers (memory, sqlite)
// implement this. There is no cross-process coordination; concurrent writers
// to the same backend are last-write-wins.
//
// Reads and writes either succeed or fail immediately. Deleting an absent key
// is not an error.
type KV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error

	// Close releases any underlying resources (no-op for memory).
	Close() error
}
