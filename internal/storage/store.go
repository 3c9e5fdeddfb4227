// Package storage provides key-value persistence abstractions for client
// state.
package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when the key has no stored value.
var ErrNotFound = errors.New("key not found")

// Store is a minimal key-value store.
//
// Two scopes exist in this codebase: durable storage shared across processes
// on one machine (sqlite), which holds the guest cart and session identity,
// and session storage scoped to a single process (memory), which holds the
// pending checkout payload. Both are single-writer-at-a-time from the
// perspective of one process; durable storage is last-writer-wins across
// processes with no conflict detection.
type Store interface {
	// Get returns the value stored under key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value under key, overwriting any previous value.
	Set(ctx context.Context, key string, value []byte) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases any resources held by the store.
	Close() error
}
