package core

import (
	"context"
	"errors"
)

// ErrNotFound is returned by a Store when the key does not exist.
var ErrNotFound = errors.New("key not found")

// Store is a flat key-value persistence port. The garage keeps its whole
// state in a couple of keys and overwrites them on every change.
type Store interface {
	// Get returns the value stored under key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Put creates or replaces the value stored under key.
	Put(ctx context.Context, key string, value []byte) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	Close() error
}
