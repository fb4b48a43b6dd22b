// Package persist provides key/value backends for detector snapshots.
package persist

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// SnapshotKey is the key the host stores its snapshot under.
const SnapshotKey = "pattern-memory/snapshot"

// ErrClosed is returned by operations on a closed backend.
var ErrClosed = errors.New("persist: backend closed")

// KV is the storage contract the host needs: opaque values by key.
type KV interface {
	// Get returns the value and whether it exists.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Put stores a value, replacing any previous one.
	Put(ctx context.Context, key string, value []byte) error

	// Delete removes a key. Missing keys are not an error.
	Delete(ctx context.Context, key string) error

	// Close releases the backend.
	Close() error
}

// Backend names.
const (
	BackendSQLite = "sqlite"
	BackendBolt   = "bolt"
)

// Open opens the named backend at path.
func Open(backend, path string) (KV, error) {
	switch strings.ToLower(strings.TrimSpace(backend)) {
	case "", BackendSQLite:
		return NewSQLiteKV(path)
	case BackendBolt, "bbolt":
		return NewBoltKV(path)
	default:
		return nil, fmt.Errorf("unknown storage backend %q (valid: sqlite, bolt)", backend)
	}
}
