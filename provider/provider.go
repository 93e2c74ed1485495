// Package provider defines the byte store used by typewire/store.
//
// Implementations MUST be byte-for-byte transparent: Get must return exactly the
// same []byte that was previously passed to Set for a key (no prepended/appended
// metadata, no re-encoding, no mutation). The store validates every value as a
// typewire envelope and deletes anything that does not parse, so a transform
// that is not fully reversed shows up as a permanent miss.
//
// Important: the keyspace "tw:<ns>:" is owned by typewire/store. External code
// MUST NOT write values under this prefix.
package provider

import (
	"context"
	"time"
)

// Provider is a minimal byte store with TTLs. Must be safe for concurrent use.
type Provider interface {
	// Get returns (value, true, nil) on hit; (nil, false, nil) on miss.
	// If an IO/remote error happens, return (nil, false, err).
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores value with the given TTL; ttl <= 0 means no expiry where the
	// store supports it. cost is the value size for cost-aware stores and may
	// be ignored. Returns ok=false when the store rejected the write.
	Set(ctx context.Context, key string, value []byte, cost int64, ttl time.Duration) (ok bool, err error)

	// Del removes a key (best-effort).
	Del(ctx context.Context, key string) error

	// Close releases resources.
	Close(ctx context.Context) error
}
