package dedupe

import "time"

// Option applies a configuration option to the deduper.
type Option func(*cacheDeduper)

// WithMaxSize caps the number of remembered keys; the least recently seen key
// is evicted first. Non-positive values keep the default.
func WithMaxSize(maxSize int) Option {
	return func(d *cacheDeduper) {
		if maxSize > 0 {
			d.maxSize = maxSize
		}
	}
}

// WithTTL sets how long a key is remembered.
func WithTTL(ttl time.Duration) Option {
	return func(d *cacheDeduper) {
		if ttl > 0 {
			d.ttl = ttl
		}
	}
}
