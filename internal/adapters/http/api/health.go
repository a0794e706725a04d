package api

import (
	"net/http"
	"time"
)

// HealthTimestampLayout renders /health timestamps as local ISO-8601.
const HealthTimestampLayout = "2006-01-02T15:04:05.000000"

type healthResponse struct {
	OK bool   `json:"ok"`
	TS string `json:"ts"`
}

// HealthHandler handles health check requests.
type HealthHandler struct {
	now func() time.Time
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(now func() time.Time) *HealthHandler {
	if now == nil {
		now = time.Now
	}
	return &HealthHandler{now: now}
}

// HandleHealth handles GET /health requests.
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{OK: true, TS: h.now().Format(HealthTimestampLayout)})
}
