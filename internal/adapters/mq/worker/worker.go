// Package worker drains the prediction audit queue into the prediction log.
package worker

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/busmaybe/internal/domain/audit"
	"github.com/okian/busmaybe/pkg/logger"
	"github.com/okian/busmaybe/pkg/metrics"
)

// Queue defines how workers receive records.
type Queue interface {
	Dequeue(ctx context.Context) <-chan audit.Record
}

// Sink stores processed records.
type Sink interface {
	Append(ctx context.Context, r audit.Record) error
}

// InMemoryWorker moves records from a queue to a sink.
type InMemoryWorker struct {
	queue  Queue
	sink   Sink
	name   string
	logger logger.Logger
	now    func() time.Time

	done chan struct{}
}

// NewInMemoryWorker creates a worker.
func NewInMemoryWorker(q Queue, sink Sink, opts ...Option) *InMemoryWorker {
	s := newSettings(opts)
	return &InMemoryWorker{
		queue:  q,
		sink:   sink,
		name:   s.name,
		logger: s.logger.Named(s.name),
		now:    time.Now,
		done:   make(chan struct{}),
	}
}

// Run processes records until the queue is drained and closed or ctx ends.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	for r := range w.queue.Dequeue(ctx) {
		if err := w.process(ctx, r); err != nil {
			w.logger.Error(ctx, "error storing prediction", logger.String("id", r.ID), logger.Error(err))
		}
	}
}

// Done is closed once Run returns.
func (w *InMemoryWorker) Done() <-chan struct{} { return w.done }

func (w *InMemoryWorker) process(ctx context.Context, r audit.Record) error { //nolint:gocritic // hugeParam: records travel by value
	if err := w.sink.Append(ctx, r); err != nil {
		return fmt.Errorf("append %s: %w", r.ID, err)
	}
	var latency time.Duration
	if !r.EnqueuedAt.IsZero() {
		latency = w.now().Sub(r.EnqueuedAt)
	}
	metrics.RecordAuditProcessed(float64(latency) / float64(time.Millisecond))
	return nil
}

// Pool runs a fixed set of workers over one queue.
type Pool struct {
	workers []*InMemoryWorker
	closer  interface{ Close() error }
	logger  logger.Logger

	startOnce sync.Once
	started   atomic.Bool
}

// NewPool creates workerCount workers (at least one) reading q and writing
// to sink. When q also implements Close, Shutdown closes it first.
func NewPool(workerCount int, q Queue, sink Sink, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = 1
	}
	s := newSettings(opts)
	p := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		logger:  s.logger.Named("worker-pool"),
	}
	if c, ok := q.(interface{ Close() error }); ok {
		p.closer = c
	}
	for i := range p.workers {
		p.workers[i] = NewInMemoryWorker(q, sink,
			WithLogger(s.logger),
			WithName("worker-"+strconv.Itoa(i)))
	}
	return p
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Start launches every worker. Later calls do nothing.
func (p *Pool) Start(ctx context.Context) {
	p.startOnce.Do(func() {
		for _, w := range p.workers {
			go w.Run(ctx)
		}
		p.started.Store(true)
		metrics.UpdateAuditWorkers(len(p.workers))
		p.logger.Info(ctx, "audit workers started", logger.Int("count", len(p.workers)))
	})
}

// Shutdown closes the queue and waits for workers to drain it, giving up
// when ctx ends.
func (p *Pool) Shutdown(ctx context.Context) error {
	if p.closer != nil {
		if err := p.closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}
	if !p.started.Load() {
		return nil
	}
	defer metrics.UpdateAuditWorkers(0)

	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-ctx.Done():
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
			return fmt.Errorf("shutdown timed out: %w", ctx.Err())
		}
	}
	return nil
}
