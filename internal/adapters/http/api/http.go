// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/okian/busmaybe/internal/domain/audit"
	"github.com/okian/busmaybe/internal/domain/decision"
	"github.com/okian/busmaybe/internal/domain/meal"
	"github.com/okian/busmaybe/internal/domain/transit"
	"github.com/okian/busmaybe/internal/domain/types"
	"github.com/okian/busmaybe/pkg/logger"
	"github.com/okian/busmaybe/pkg/metrics"
)

// maxBodyBytes bounds every JSON request body.
const maxBodyBytes = 1 << 20

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	PredictDependencies
	LookupDependencies
	CalcDependencies
	MealDependencies
	DecisionDependencies
	PredictionLogDependencies
	StatsProvider
}

// PredictDependencies scores arrival queries.
type PredictDependencies interface {
	Predict(ctx context.Context, q types.PredictQuery) (types.Prediction, error)
}

// LookupDependencies serves registry listings.
type LookupDependencies interface {
	Stops(ctx context.Context, q string) []transit.Stop
	Routes(ctx context.Context, stopID string) []types.RouteSummary
}

// CalcDependencies is the calculator.
type CalcDependencies interface {
	Add(ctx context.Context, a, b float64) float64
}

// MealDependencies reads and appends the meal log.
type MealDependencies interface {
	Meals(ctx context.Context) []meal.Meal
	AddMeal(ctx context.Context, key string, d meal.Draft) (meal.Meal, bool, error)
}

// DecisionDependencies runs the decision helper.
type DecisionDependencies interface {
	Decide(ctx context.Context, question string, options []string, weights []float64, avoidLast bool) (decision.Record, error)
	History(ctx context.Context, limit int) []decision.Record
	ClearHistory(ctx context.Context)
}

// PredictionLogDependencies reads the audited predictions.
type PredictionLogDependencies interface {
	RecentPredictions(ctx context.Context, limit int) ([]audit.Record, error)
	MaxPredictionsLimit() int
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	predictHandler     *PredictHandler
	lookupHandler      *LookupHandler
	calcHandler        *CalcHandler
	mealsHandler       *MealsHandler
	decisionHandler    *DecisionHandler
	predictionsHandler *PredictionsHandler
	metricsHandler     http.Handler
}

// Option configures a Server.
type Option func(*serverOptions)

type serverOptions struct {
	now func() time.Time
}

// WithClock sets the clock reported by /health.
func WithClock(now func() time.Time) Option {
	return func(o *serverOptions) {
		if now != nil {
			o.now = now
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, opts ...Option) *Server {
	o := serverOptions{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return &Server{
		healthHandler:      NewHealthHandler(o.now),
		statsHandler:       NewStatsHandler(deps),
		predictHandler:     NewPredictHandler(deps),
		lookupHandler:      NewLookupHandler(deps),
		calcHandler:        NewCalcHandler(deps),
		mealsHandler:       NewMealsHandler(deps),
		decisionHandler:    NewDecisionHandler(deps),
		predictionsHandler: NewPredictionsHandler(deps),
		metricsHandler:     promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}),
	}
}

// Register attaches all API routes to router, along with JSON not-found and
// method-not-allowed responses.
func (s *Server) Register(_ context.Context, router *httprouter.Router) {
	if router == nil {
		panic("router is nil")
	}

	router.HandlerFunc(http.MethodGet, "/health", MetricsMiddleware(s.healthHandler.HandleHealth, "health"))
	router.HandlerFunc(http.MethodGet, "/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	router.Handler(http.MethodGet, "/metrics", s.metricsHandler)

	router.HandlerFunc(http.MethodPost, "/predict", MetricsMiddleware(s.predictHandler.HandlePredict, "predict"))
	router.HandlerFunc(http.MethodGet, "/stops", MetricsMiddleware(s.lookupHandler.HandleStops, "stops"))
	router.HandlerFunc(http.MethodGet, "/routes", MetricsMiddleware(s.lookupHandler.HandleRoutes, "routes"))
	router.HandlerFunc(http.MethodGet, "/predictions", MetricsMiddleware(s.predictionsHandler.HandleRecent, "predictions"))

	router.HandlerFunc(http.MethodPost, "/add", MetricsMiddleware(s.calcHandler.HandleAdd, "add"))

	router.HandlerFunc(http.MethodGet, "/api/meals", MetricsMiddleware(s.mealsHandler.HandleList, "meals"))
	router.HandlerFunc(http.MethodPost, "/api/meals", MetricsMiddleware(s.mealsHandler.HandleCreate, "meals"))

	router.HandlerFunc(http.MethodPost, "/decide", MetricsMiddleware(s.decisionHandler.HandleDecide, "decide"))
	router.HandlerFunc(http.MethodGet, "/history", MetricsMiddleware(s.decisionHandler.HandleHistory, "history"))
	router.HandlerFunc(http.MethodPost, "/history/clear", MetricsMiddleware(s.decisionHandler.HandleClear, "history_clear"))

	router.NotFound = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "not_found", nil)
	})
	router.MethodNotAllowed = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
	})
}

// Handler wraps h with the cross-cutting middleware: CORS outermost, then
// request logging.
func Handler(h http.Handler, l logger.Logger) http.Handler {
	return CORS(RequestLogger(l)(h))
}

type statusResponse struct {
	Status string `json:"status"`
}

type okResponse struct {
	OK bool `json:"ok"`
}

type itemsResponse[T any] struct {
	Items []T `json:"items"`
}

type errorResponse struct {
	Code  string `json:"code"`
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Error: msg})
}

// writeServiceError maps the service's error kinds to status codes.
func writeServiceError(w http.ResponseWriter, op string, err error) {
	err = fmt.Errorf("%s: %w", op, err)
	switch {
	case errors.Is(err, types.ErrValidation):
		writeError(w, http.StatusBadRequest, "bad_request", err)
	case errors.Is(err, types.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	}
}

// decodeJSON reads one JSON value from the request body into dst. An empty
// body decodes as {}.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("malformed JSON body: %w", err)
	}
	return nil
}
