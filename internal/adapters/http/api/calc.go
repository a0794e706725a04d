package api

import (
	"net/http"
)

type addRequest struct {
	A *float64 `json:"a"`
	B *float64 `json:"b"`
}

type addResponse struct {
	Result float64 `json:"result"`
}

// CalcHandler handles the calculator.
type CalcHandler struct {
	deps CalcDependencies
}

// NewCalcHandler creates a new calculator handler.
func NewCalcHandler(deps CalcDependencies) *CalcHandler {
	return &CalcHandler{deps: deps}
}

// HandleAdd handles POST /add requests.
func (h *CalcHandler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	const op = "api.add"
	var req addRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", wrapKind(op, ErrBadRequest, err))
		return
	}
	if req.A == nil || req.B == nil {
		writeError(w, http.StatusBadRequest, "bad_request", newKind(op, ErrBadRequest, "a and b are required"))
		return
	}
	writeJSON(w, http.StatusOK, addResponse{Result: h.deps.Add(r.Context(), *req.A, *req.B)})
}
