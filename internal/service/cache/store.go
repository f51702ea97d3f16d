// Package cache holds the key-value stores that back the profile cache.
package cache

import "context"

// Store is a plain string key-value store. Get reports a missing key with found=false
// and a nil error. A Get followed by a Put is not atomic.
type Store interface {
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Put(ctx context.Context, key, value string) error
	Ping(ctx context.Context) error
	Name() string
	Close() error
}
