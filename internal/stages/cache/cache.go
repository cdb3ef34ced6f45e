// Package cache provides the projection cache used by the stage registry.
// The registry keeps two serialized projections (active stages, progression
// map) behind this interface so invalidation is an explicit, testable
// contract instead of ambient global state.
package cache

import "context"

// Populate builds a serialized projection on a cache miss.
type Populate func(ctx context.Context) (string, error)

// Cache is a get-or-populate cache for serialized stage projections.
// Implementations must guarantee that after Invalidate returns, the next
// GetOrPopulate for that key runs the populate function again.
type Cache interface {
	// GetOrPopulate returns the cached value for key, calling populate and
	// storing its result on a miss.
	GetOrPopulate(ctx context.Context, key string, populate Populate) (string, error)
	// Invalidate clears the given keys.
	Invalidate(ctx context.Context, keys ...string) error
}
