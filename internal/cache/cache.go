// Package cache is the read-through cache in front of the link store.
//
// The cache is a derived projection of the store: every operation is
// best-effort, bounded by a timeout and never reports an error to the
// caller. A failed Get is a miss; a failed Put or Delete is dropped.
package cache

import (
	"context"
	"time"
)

// Gateway maps short codes to original URLs.
// Implementations are safe for concurrent use.
type Gateway interface {
	// Get returns the cached URL for code. Backend failures report a miss.
	Get(ctx context.Context, code string) (string, bool)
	// Put stores url under code. A zero ttl stores the entry without expiry.
	Put(ctx context.Context, code, url string, ttl time.Duration)
	// Delete evicts code. A missing key is not an error.
	Delete(ctx context.Context, code string)
	// Purge evicts every entry owned by the gateway.
	Purge(ctx context.Context)
}

// Noop is the Gateway used when no cache backend is reachable.
// Every Get misses and every write is discarded.
type Noop struct{}

var _ Gateway = Noop{}

func (Noop) Get(context.Context, string) (string, bool) { return "", false }
func (Noop) Put(context.Context, string, string, time.Duration) {}
func (Noop) Delete(context.Context, string) {}
func (Noop) Purge(context.Context) {}
