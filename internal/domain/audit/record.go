// Package audit holds the prediction audit record passed from the request
// path through the queue to the prediction log.
package audit

import (
	"time"

	"github.com/okian/busmaybe/internal/domain/arrival"
)

// Record is one served prediction.
type Record struct {
	ID          string           `json:"id"`
	At          time.Time        `json:"at"`
	StopID      string           `json:"stop_id"`
	RouteID     string           `json:"route_id"`
	ETAMin      *int             `json:"eta_min,omitempty"`
	Probability float64          `json:"probability"`
	Percent     int              `json:"probability_percent"`
	Level       arrival.Level    `json:"level"`
	Reasons     []arrival.Reason `json:"reasons"`

	// EnqueuedAt is set by the queue and used for latency accounting.
	EnqueuedAt time.Time `json:"-"`
}

// Source reports whether the prediction used a supplied ETA.
func (r Record) Source() string {
	if r.ETAMin != nil {
		return "eta"
	}
	return "heuristic"
}
