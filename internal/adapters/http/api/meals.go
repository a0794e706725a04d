package api

import (
	"net/http"
	"strings"

	"github.com/okian/busmaybe/internal/domain/meal"
)

// IdempotencyKeyHeader names the optional retry key for POST /api/meals.
const IdempotencyKeyHeader = "Idempotency-Key"

type mealRequest struct {
	Menu string `json:"menu"`
	User string `json:"user"`
}

// MealsHandler handles the meal log.
type MealsHandler struct {
	deps MealDependencies
}

// NewMealsHandler creates a new meals handler.
func NewMealsHandler(deps MealDependencies) *MealsHandler {
	return &MealsHandler{deps: deps}
}

// HandleList handles GET /api/meals requests.
func (h *MealsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, itemsResponse[meal.Meal]{Items: h.deps.Meals(r.Context())})
}

// HandleCreate handles POST /api/meals requests.
func (h *MealsHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	const op = "api.create_meal"
	var req mealRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", wrapKind(op, ErrBadRequest, err))
		return
	}

	key := strings.TrimSpace(r.Header.Get(IdempotencyKeyHeader))
	m, dup, err := h.deps.AddMeal(r.Context(), key, meal.Draft{Menu: req.Menu, User: req.User})
	switch {
	case err != nil:
		writeServiceError(w, op, err)
	case dup:
		writeJSON(w, http.StatusOK, statusResponse{Status: "duplicate"})
	default:
		writeJSON(w, http.StatusCreated, m)
	}
}
