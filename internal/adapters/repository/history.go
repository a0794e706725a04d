package repository

import (
	"context"
	"sync"

	"github.com/okian/busmaybe/internal/domain/decision"
	"github.com/okian/busmaybe/pkg/metrics"
)

// HistoryRing is a HistoryStore holding at most its capacity of records.
type HistoryRing struct {
	mu   sync.RWMutex
	ring *ring[decision.Record]
}

// NewHistoryRing creates a history holding up to capacity records.
func NewHistoryRing(capacity int) *HistoryRing {
	return &HistoryRing{ring: newRing[decision.Record](capacity)}
}

func (h *HistoryRing) Append(_ context.Context, r decision.Record) {
	h.mu.Lock()
	h.ring.push(r)
	n := h.ring.size
	h.mu.Unlock()
	metrics.UpdateHistorySize(n)
}

func (h *HistoryRing) Last(_ context.Context) (decision.Record, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.ring.last()
}

func (h *HistoryRing) Recent(_ context.Context, n int) []decision.Record {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.ring.tail(n)
}

func (h *HistoryRing) Clear(_ context.Context) {
	h.mu.Lock()
	h.ring.reset()
	h.mu.Unlock()
	metrics.UpdateHistorySize(0)
}

func (h *HistoryRing) Len(_ context.Context) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.ring.size
}
