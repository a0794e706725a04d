package repository

import (
	"context"
	"sync"

	"github.com/okian/busmaybe/internal/domain/audit"
	"github.com/okian/busmaybe/pkg/metrics"
)

// PredictionRing is a PredictionLog holding at most its capacity of records.
type PredictionRing struct {
	mu   sync.RWMutex
	ring *ring[audit.Record]
}

// NewPredictionRing creates a log holding up to capacity records.
func NewPredictionRing(capacity int) *PredictionRing {
	return &PredictionRing{ring: newRing[audit.Record](capacity)}
}

// Append stores r, evicting the oldest record when full.
func (p *PredictionRing) Append(_ context.Context, r audit.Record) error { //nolint:gocritic // hugeParam: records travel by value
	if r.ID == "" {
		return ErrMissingID
	}
	p.mu.Lock()
	p.ring.push(r)
	n := p.ring.size
	p.mu.Unlock()
	metrics.UpdateAuditLogSize(n)
	return nil
}

// Recent returns up to n newest records, newest first.
func (p *PredictionRing) Recent(_ context.Context, n int) []audit.Record {
	p.mu.RLock()
	out := p.ring.tail(n)
	p.mu.RUnlock()
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

func (p *PredictionRing) Len(_ context.Context) int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.ring.size
}
