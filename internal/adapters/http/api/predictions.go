package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/okian/busmaybe/internal/domain/audit"
)

const defaultPredictionsLimit = 20

// PredictionsHandler serves the audited prediction log.
type PredictionsHandler struct {
	deps PredictionLogDependencies
}

// NewPredictionsHandler creates a new predictions handler.
func NewPredictionsHandler(deps PredictionLogDependencies) *PredictionsHandler {
	return &PredictionsHandler{deps: deps}
}

// HandleRecent handles GET /predictions?limit= requests, newest first.
func (h *PredictionsHandler) HandleRecent(w http.ResponseWriter, r *http.Request) {
	const op = "api.predictions"
	limit := min(defaultPredictionsLimit, h.deps.MaxPredictionsLimit())
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", newKind(op, ErrBadRequest, "limit must be an integer"))
			return
		}
		limit = n
	}
	items, err := h.deps.RecentPredictions(r.Context(), limit)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, itemsResponse[audit.Record]{Items: items})
}
