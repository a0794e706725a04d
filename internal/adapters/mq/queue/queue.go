// Package queue buffers prediction audit records between the request path
// and the audit workers.
package queue

import (
	"context"
	"sync"
	"time"

	"github.com/okian/busmaybe/internal/domain/audit"
	"github.com/okian/busmaybe/pkg/metrics"
)

const defaultCapacity = 1024

// Record is the payload flowing through the queue.
type Record = audit.Record

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds a record without blocking. It fails with ErrQueueFull or
	// ErrQueueClosed.
	Enqueue(ctx context.Context, r Record) error

	// Dequeue returns a channel that yields records until the queue is
	// closed and drained, or ctx ends.
	Dequeue(ctx context.Context) <-chan Record

	// Len returns the current number of queued records.
	Len() int

	// Cap returns the queue capacity.
	Cap() int

	// Close stops accepting records. Buffered records remain readable.
	Close() error
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	records  chan Record
	capacity int
	now      func() time.Time

	mu     sync.RWMutex
	closed bool
}

// NewInMemoryQueue creates a new in-memory queue with configuration options.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{capacity: defaultCapacity, now: time.Now}
	for _, opt := range opts {
		opt(q)
	}
	q.records = make(chan Record, q.capacity)
	metrics.UpdateAuditQueue(0, q.capacity)
	return q
}

// Enqueue adds a record to the queue.
func (q *InMemoryQueue) Enqueue(ctx context.Context, r Record) error { //nolint:gocritic // hugeParam: records travel by value
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordAuditDropped()
		return ErrQueueClosed
	}
	if err := ctx.Err(); err != nil {
		metrics.RecordAuditDropped()
		return err
	}

	r.EnqueuedAt = q.now()
	select {
	case q.records <- r:
		metrics.RecordAuditEnqueued()
		metrics.UpdateAuditQueue(len(q.records), q.capacity)
		return nil
	default:
		metrics.RecordAuditDropped()
		return ErrQueueFull
	}
}

// Dequeue returns a channel that will receive records as they become available.
func (q *InMemoryQueue) Dequeue(ctx context.Context) <-chan Record {
	out := make(chan Record)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case r, ok := <-q.records:
				if !ok {
					return
				}
				metrics.UpdateAuditQueue(len(q.records), q.capacity)
				select {
				case out <- r:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out
}

// Len returns the current number of queued records.
func (q *InMemoryQueue) Len() int { return len(q.records) }

// Cap returns the queue capacity.
func (q *InMemoryQueue) Cap() int { return q.capacity }

// Close stops accepting records. It is safe to call more than once.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return nil
	}
	close(q.records)
	q.closed = true
	return nil
}

// IsClosed reports whether Close has been called.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
