package api

import (
	"net/http"

	"github.com/okian/busmaybe/internal/domain/transit"
	"github.com/okian/busmaybe/internal/domain/types"
)

// LookupHandler serves the stop and route listings.
type LookupHandler struct {
	deps LookupDependencies
}

// NewLookupHandler creates a new lookup handler.
func NewLookupHandler(deps LookupDependencies) *LookupHandler {
	return &LookupHandler{deps: deps}
}

// HandleStops handles GET /stops?q= requests.
func (h *LookupHandler) HandleStops(w http.ResponseWriter, r *http.Request) {
	items := h.deps.Stops(r.Context(), r.URL.Query().Get("q"))
	writeJSON(w, http.StatusOK, itemsResponse[transit.Stop]{Items: items})
}

// HandleRoutes handles GET /routes?stop_id= requests.
func (h *LookupHandler) HandleRoutes(w http.ResponseWriter, r *http.Request) {
	items := h.deps.Routes(r.Context(), r.URL.Query().Get("stop_id"))
	writeJSON(w, http.StatusOK, itemsResponse[types.RouteSummary]{Items: items})
}
