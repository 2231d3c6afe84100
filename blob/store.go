// Package blob provides the key→bytes stores backing the disk cache tier.
//
// The disk tier only needs a logical contract (put, get, delete, with byte
// accounting done by the caller), so the backend set is open: a local
// filesystem store for the common case and a redis store for shared or
// diskless deployments.
package blob

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when the key has no stored value.
var ErrNotFound = errors.New("blob: key not found")

// Store persists opaque blobs by key. Implementations must be safe for
// concurrent use. Operations may block on I/O; callers keep them off
// latency-sensitive paths.
type Store interface {
	// Put stores data under key, replacing any existing value.
	Put(ctx context.Context, key string, data []byte) error

	// Get returns the value stored under key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Delete removes the value stored under key. Deleting a missing key
	// is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}
