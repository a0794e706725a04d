package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/okian/busmaybe/internal/domain/types"
)

// predictRequest mirrors the OpenAPI schema for POST /predict. Ids and the
// available flag stay raw: a non-string id is an unknown id, not a malformed
// body, and available is read as a truthy flag.
type predictRequest struct {
	StopID      json.RawMessage `json:"stop_id"`
	RouteID     json.RawMessage `json:"route_id"`
	ArrivalInfo arrivalInfo     `json:"arrival_info"`
}

type arrivalInfo struct {
	Available json.RawMessage `json:"available"`
	// ETAMin stays raw so a non-integer reaches validation instead of
	// failing the whole decode.
	ETAMin json.RawMessage `json:"eta_min"`
}

// query converts the request. Missing ids are the only failure here; the
// service checks ids exist before it checks the ETA.
func (p predictRequest) query() (types.PredictQuery, error) {
	q := types.PredictQuery{
		StopID:           rawID(p.StopID),
		RouteID:          rawID(p.RouteID),
		ArrivalAvailable: truthy(p.ArrivalInfo.Available),
	}
	if q.StopID == "" || q.RouteID == "" {
		return q, errMissingIDs
	}
	if q.ArrivalAvailable {
		if n, err := strconv.Atoi(strings.TrimSpace(string(p.ArrivalInfo.ETAMin))); err == nil {
			q.ETAMin = &n
		}
	}
	return q, nil
}

// rawID returns a string id trimmed, and any other present value as its
// JSON text so it fails lookup. Falsy values count as missing.
func rawID(raw json.RawMessage) string {
	if !truthy(raw) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	return string(bytes.TrimSpace(raw))
}

// truthy reports whether raw is present and not null, false, zero, an empty
// string, an empty list or an empty object.
func truthy(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	if isNull(raw) {
		return false
	}
	switch raw[0] {
	case 't':
		return true
	case 'f':
		return false
	case '"':
		var s string
		return json.Unmarshal(raw, &s) == nil && s != ""
	case '[', '{':
		var v any
		if json.Unmarshal(raw, &v) != nil {
			return false
		}
		switch c := v.(type) {
		case []any:
			return len(c) > 0
		case map[string]any:
			return len(c) > 0
		}
		return false
	default:
		f, err := strconv.ParseFloat(string(raw), 64)
		return err == nil && f != 0
	}
}

// PredictHandler handles arrival predictions.
type PredictHandler struct {
	deps PredictDependencies
}

// NewPredictHandler creates a new predict handler.
func NewPredictHandler(deps PredictDependencies) *PredictHandler {
	return &PredictHandler{deps: deps}
}

// HandlePredict handles POST /predict requests.
func (h *PredictHandler) HandlePredict(w http.ResponseWriter, r *http.Request) {
	const op = "api.predict"
	var req predictRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", wrapKind(op, ErrBadRequest, err))
		return
	}
	q, err := req.query()
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", wrapKind(op, ErrBadRequest, err))
		return
	}
	p, err := h.deps.Predict(r.Context(), q)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}
