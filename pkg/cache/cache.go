// Package cache stores computed trees and bundled paths so repeated requests
// for the same graph and parameters skip the computation.
//
// # Backends
//
//   - [FileCache]: one JSON file per entry under a directory (CLI default)
//   - [NullCache]: stores nothing (--no-cache)
//   - [RedisCache]: a shared Redis instance
//   - [MongoCache]: a MongoDB collection with a TTL index
//
// [Open] builds a backend from a [Config] and wraps it with [Instrument] so
// hits and misses reach the cache hooks of pkg/observability.
//
// # Keys
//
// A [Keyer] turns a graph hash plus the parameters that affect the result
// into a key. Keys start with their kind ("tree:", "bundle:") so that hooks
// and metrics can tell them apart.
package cache

import (
	"context"
	"strings"
	"time"

	"github.com/matzehuels/layerweave/pkg/observability"
)

// Cache is a byte-oriented key/value store with optional expiry.
type Cache interface {
	// Get returns the stored value and true, or false on a miss.
	// Expired entries are misses.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of zero never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases the backend's resources.
	Close() error
}

// Entry lifetimes.
const (
	TTLTree   = 7 * 24 * time.Hour
	TTLBundle = 7 * 24 * time.Hour
)

// Kinds of cached values.
const (
	KindTree   = "tree"
	KindBundle = "bundle"
)

// KindOf returns the kind prefix of key, ignoring any scope prefix added by
// a ScopedKeyer.
func KindOf(key string) string {
	for _, kind := range []string{KindTree, KindBundle} {
		if strings.HasPrefix(key, kind+":") || strings.Contains(key, ":"+kind+":") {
			return kind
		}
	}
	return "other"
}

// instrumented reports cache traffic to the observability hooks.
type instrumented struct {
	Cache
}

// Instrument wraps c so that every Get and Set is reported through
// observability.Cache().
func Instrument(c Cache) Cache {
	if _, ok := c.(*instrumented); ok {
		return c
	}
	return &instrumented{Cache: c}
}

func (c *instrumented) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, hit, err := c.Cache.Get(ctx, key)
	if err == nil {
		if hit {
			observability.Cache().OnCacheHit(ctx, KindOf(key))
		} else {
			observability.Cache().OnCacheMiss(ctx, KindOf(key))
		}
	}
	return data, hit, err
}

func (c *instrumented) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	if err := c.Cache.Set(ctx, key, data, ttl); err != nil {
		return err
	}
	observability.Cache().OnCacheSet(ctx, KindOf(key), len(data))
	return nil
}
