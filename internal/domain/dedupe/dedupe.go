// Package dedupe tracks idempotency keys so a retried request is applied at
// most once within a time window.
package dedupe

import (
	"context"
	"sync"
	"time"

	"github.com/bluele/gcache"
)

// Deduper records seen keys.
type Deduper interface {
	// SeenAndRecord atomically checks if id was seen and records it if not.
	// Returns true if id was already seen, false if it was newly recorded.
	SeenAndRecord(ctx context.Context, id string) bool

	// Unrecord forgets id so a failed request can be retried with the same key.
	Unrecord(ctx context.Context, id string)

	// Size is the number of live keys.
	Size() int64
}

const (
	defaultMaxSize = 10_000
	defaultTTL     = 10 * time.Minute
)

// cacheDeduper keeps keys in an LRU cache with per-entry expiry. The mutex
// makes check-then-set atomic, which gcache alone does not.
type cacheDeduper struct {
	mu      sync.Mutex
	cache   gcache.Cache
	maxSize int
	ttl     time.Duration
}

// NewInMemoryDeduper creates a bounded, expiring deduper.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &cacheDeduper{maxSize: defaultMaxSize, ttl: defaultTTL}
	for _, opt := range opts {
		opt(d)
	}
	d.cache = gcache.New(d.maxSize).LRU().Expiration(d.ttl).Build()
	return d
}

func (d *cacheDeduper) SeenAndRecord(_ context.Context, id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, err := d.cache.Get(id); err == nil {
		return true
	}
	// Set only fails for nil keys.
	_ = d.cache.Set(id, struct{}{})
	return false
}

func (d *cacheDeduper) Unrecord(_ context.Context, id string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cache.Remove(id)
}

func (d *cacheDeduper) Size() int64 {
	return int64(d.cache.Len(true))
}
