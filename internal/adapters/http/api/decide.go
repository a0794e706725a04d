package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/okian/busmaybe/internal/domain/decision"
)

// decideRequest mirrors the OpenAPI schema for POST /decide. options may be
// a single string or a list; weights may hold numbers or numeric strings.
type decideRequest struct {
	Question  string          `json:"question"`
	Options   json.RawMessage `json:"options"`
	Weights   json.RawMessage `json:"weights"`
	AvoidLast bool            `json:"avoid_last"`
}

var (
	errOptionsShape = errors.New("options must be a string or a list of strings")
	errWeightsShape = errors.New("weights must be a list of numbers")
)

func isNull(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) == 0 || bytes.Equal(raw, []byte("null"))
}

func (d decideRequest) options() ([]string, error) {
	if isNull(d.Options) {
		return nil, nil
	}
	var single string
	if err := json.Unmarshal(d.Options, &single); err == nil {
		return []string{single}, nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(d.Options, &items); err != nil {
		return nil, errOptionsShape
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		var s string
		if err := json.Unmarshal(item, &s); err == nil {
			out = append(out, s)
			continue
		}
		var n json.Number
		if err := json.Unmarshal(item, &n); err != nil {
			return nil, errOptionsShape
		}
		out = append(out, n.String())
	}
	return out, nil
}

func (d decideRequest) weights() ([]float64, error) {
	if isNull(d.Weights) {
		return nil, nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(d.Weights, &items); err != nil {
		return nil, errWeightsShape
	}
	out := make([]float64, len(items))
	for i, item := range items {
		var s string
		if err := json.Unmarshal(item, &s); err == nil {
			item = json.RawMessage(strings.TrimSpace(s))
		}
		f, err := strconv.ParseFloat(string(item), 64)
		if err != nil {
			return nil, errWeightsShape
		}
		out[i] = f
	}
	return out, nil
}

// DecisionHandler handles the decision helper and its history.
type DecisionHandler struct {
	deps DecisionDependencies
}

// NewDecisionHandler creates a new decision handler.
func NewDecisionHandler(deps DecisionDependencies) *DecisionHandler {
	return &DecisionHandler{deps: deps}
}

// HandleDecide handles POST /decide requests.
func (h *DecisionHandler) HandleDecide(w http.ResponseWriter, r *http.Request) {
	const op = "api.decide"
	var req decideRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", wrapKind(op, ErrBadRequest, err))
		return
	}
	options, err := req.options()
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", wrapKind(op, ErrBadRequest, err))
		return
	}
	weights, err := req.weights()
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", wrapKind(op, ErrBadRequest, err))
		return
	}

	rec, err := h.deps.Decide(r.Context(), req.Question, options, weights, req.AvoidLast)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// HandleHistory handles GET /history?limit= requests. The response is a bare
// list, oldest first.
func (h *DecisionHandler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	const op = "api.history"
	limit := decision.DefaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", newKind(op, ErrBadRequest, "limit must be an integer"))
			return
		}
		limit = n
	}
	writeJSON(w, http.StatusOK, h.deps.History(r.Context(), limit))
}

// HandleClear handles POST /history/clear requests.
func (h *DecisionHandler) HandleClear(w http.ResponseWriter, r *http.Request) {
	h.deps.ClearHistory(r.Context())
	writeJSON(w, http.StatusOK, okResponse{OK: true})
}
