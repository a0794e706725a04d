// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	eventqueue "github.com/okian/busmaybe/internal/adapters/mq/queue"
	workerpool "github.com/okian/busmaybe/internal/adapters/mq/worker"
	repository "github.com/okian/busmaybe/internal/adapters/repository"
	"github.com/okian/busmaybe/internal/domain/arrival"
	"github.com/okian/busmaybe/internal/domain/audit"
	"github.com/okian/busmaybe/internal/domain/decision"
	"github.com/okian/busmaybe/internal/domain/dedupe"
	"github.com/okian/busmaybe/internal/domain/meal"
	"github.com/okian/busmaybe/internal/domain/transit"
	"github.com/okian/busmaybe/internal/domain/types"
	"github.com/okian/busmaybe/pkg/logger"
	"github.com/okian/busmaybe/pkg/metrics"
)

const (
	defaultQueueSize      = 1024
	defaultWorkerCount    = 2
	defaultHistorySize    = 500
	defaultAuditLogSize   = 500
	defaultMaxPredictions = 100
)

// Service implements the API dependencies.
type Service struct {
	mu sync.RWMutex

	// Core components
	registry    *transit.Registry
	deduper     dedupe.Deduper
	meals       repository.MealStore
	history     repository.HistoryStore
	predictions repository.PredictionLog
	picker      *decision.Picker
	auditQueue  *eventqueue.InMemoryQueue
	workerPool  *workerpool.Pool

	// decideMu serializes read-last, pick, append so avoid_last sees the
	// pick it follows.
	decideMu sync.Mutex

	// Configuration
	queueSize      int
	workerCount    int
	maxPredictions int
	now            func() time.Time
	loc            *time.Location

	// State
	started bool

	logger logger.Logger
}

// New constructs a Service. Anything not supplied through options gets an
// in-memory default: the demo registry, unbounded meal store, bounded
// history and prediction log, and a clock-seeded picker.
func New(opts ...Option) *Service {
	s := &Service{
		queueSize:      defaultQueueSize,
		workerCount:    defaultWorkerCount,
		maxPredictions: defaultMaxPredictions,
		now:            time.Now,
		loc:            time.Local,
		logger:         logger.Nop(),
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.registry == nil {
		s.registry = transit.DemoRegistry()
	}
	if s.deduper == nil {
		s.deduper = dedupe.NewInMemoryDeduper()
	}
	if s.meals == nil {
		s.meals = repository.NewMealMemStore()
	}
	if s.history == nil {
		s.history = repository.NewHistoryRing(defaultHistorySize)
	}
	if s.predictions == nil {
		s.predictions = repository.NewPredictionRing(defaultAuditLogSize)
	}
	if s.picker == nil {
		s.picker = decision.NewPicker(0)
	}

	s.auditQueue = eventqueue.NewInMemoryQueue(eventqueue.WithCapacity(s.queueSize))
	s.workerPool = workerpool.NewPool(s.workerCount, s.auditQueue, s.predictions,
		workerpool.WithLogger(s.logger))

	metrics.UpdateRegistrySize(len(s.registry.Stops()), len(s.registry.Routes()))
	return s
}

// Start launches the audit workers. The service answers requests before
// Start too; audit records then wait in the queue. Cancelling ctx does not
// stop the workers; only Stop does, after the queue drains.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.auditQueue.IsClosed() {
		return errors.New("service cannot be restarted after Stop")
	}

	s.logger.Info(ctx, "starting busmaybe service...")
	s.workerPool.Start(context.WithoutCancel(ctx))
	s.started = true
	s.logger.Info(ctx, "busmaybe service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("stops", len(s.registry.Stops())),
		logger.Int("routes", len(s.registry.Routes())),
	)
	return nil
}

// Stop closes the audit queue and waits for the workers to drain it.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}
	s.logger.Info(ctx, "stopping busmaybe service...")
	err := s.workerPool.Shutdown(ctx)
	s.started = false
	if err != nil {
		return fmt.Errorf("stop workers: %w", err)
	}
	s.logger.Info(ctx, "busmaybe service stopped")
	return nil
}

func (s *Service) localNow() time.Time {
	return s.now().In(s.loc)
}

// Predict resolves the stop and route, scores them and audits the result.
// Unknown ids are reported before a bad ETA.
func (s *Service) Predict(ctx context.Context, q types.PredictQuery) (types.Prediction, error) {
	stopID, routeID := strings.TrimSpace(q.StopID), strings.TrimSpace(q.RouteID)
	if stopID == "" || routeID == "" {
		return types.Prediction{}, fmt.Errorf("%w: stop_id and route_id are required", types.ErrValidation)
	}

	stop, ok := s.registry.Stop(stopID)
	if !ok {
		return types.Prediction{}, fmt.Errorf("%w: unknown stop_id %q", types.ErrNotFound, stopID)
	}
	route, ok := s.registry.Route(routeID)
	if !ok {
		return types.Prediction{}, fmt.Errorf("%w: unknown route_id %q", types.ErrNotFound, routeID)
	}
	if q.ArrivalAvailable && (q.ETAMin == nil || *q.ETAMin < 0) {
		return types.Prediction{}, fmt.Errorf("%w: eta_min must be a non-negative integer when arrival info is available", types.ErrValidation)
	}

	in := arrival.Input{Route: route, StopID: stopID, Now: s.localNow()}
	if q.ArrivalAvailable {
		in.ETAMin = q.ETAMin
	} else if sig, ok := s.registry.SignalFor(routeID); ok {
		in.Signal = &sig
	}
	res := arrival.Score(in)

	rec := audit.Record{
		ID:          uuid.NewString(),
		At:          in.Now,
		StopID:      stopID,
		RouteID:     routeID,
		ETAMin:      in.ETAMin,
		Probability: res.Probability,
		Percent:     res.Percent(),
		Level:       res.Level,
		Reasons:     res.Reasons,
	}
	metrics.RecordPrediction(string(res.Level), rec.Source(), res.Probability)
	if err := s.auditQueue.Enqueue(ctx, rec); err != nil {
		s.logger.Warn(ctx, "prediction audit dropped", logger.String("id", rec.ID), logger.Error(err))
	}

	s.logger.Debug(ctx, "prediction served",
		logger.String("stop", stopID),
		logger.String("route", routeID),
		logger.Float64("probability", res.Probability),
		logger.String("level", string(res.Level)),
	)

	return types.Prediction{
		Stop:   stop,
		Route:  types.Ref(route),
		Result: types.NewResultView(res),
	}, nil
}

// Stops returns stops whose name contains q, ignoring case.
func (s *Service) Stops(_ context.Context, q string) []transit.Stop {
	return s.registry.SearchStops(q)
}

// Routes lists the routes through stopID, or every route when stopID is
// blank.
func (s *Service) Routes(_ context.Context, stopID string) []types.RouteSummary {
	var routes []transit.Route
	if stopID = strings.TrimSpace(stopID); stopID == "" {
		routes = s.registry.Routes()
	} else {
		routes = s.registry.RoutesForStop(stopID)
	}
	out := make([]types.RouteSummary, len(routes))
	for i := range routes {
		out[i] = types.Summarize(&routes[i])
	}
	return out
}

// Add is the calculator.
func (s *Service) Add(_ context.Context, a, b float64) float64 {
	return a + b
}

// Meals lists every logged meal.
func (s *Service) Meals(ctx context.Context) []meal.Meal {
	return s.meals.List(ctx)
}

// AddMeal stores d. A non-empty key seen within the idempotency window
// reports a duplicate and stores nothing.
func (s *Service) AddMeal(ctx context.Context, key string, d meal.Draft) (meal.Meal, bool, error) {
	if err := d.Validate(); err != nil {
		return meal.Meal{}, false, fmt.Errorf("%w: %w", types.ErrValidation, err)
	}
	if key != "" && s.deduper.SeenAndRecord(ctx, key) {
		metrics.RecordDuplicate("meals")
		return meal.Meal{}, true, nil
	}
	m, err := s.meals.Add(ctx, d)
	if err != nil {
		if key != "" {
			s.deduper.Unrecord(ctx, key)
		}
		return meal.Meal{}, false, fmt.Errorf("add meal: %w", err)
	}
	return m, false, nil
}

// Decide validates the request, picks an option and appends the record to
// history.
func (s *Service) Decide(ctx context.Context, question string, options []string, weights []float64, avoidLast bool) (decision.Record, error) {
	req, err := decision.NewRequest(question, options, weights, avoidLast)
	if err != nil {
		return decision.Record{}, fmt.Errorf("%w: %w", types.ErrValidation, err)
	}

	s.decideMu.Lock()
	defer s.decideMu.Unlock()

	var last string
	if prev, ok := s.history.Last(ctx); ok {
		last = prev.Picked
	}
	rec := decision.Decide(req, last, s.picker, s.localNow())
	s.history.Append(ctx, rec)
	metrics.RecordDecision()
	return rec, nil
}

// History returns up to limit recent decisions, oldest first. limit is
// clamped to 1..decision.MaxHistoryLimit.
func (s *Service) History(ctx context.Context, limit int) []decision.Record {
	limit = max(1, min(limit, decision.MaxHistoryLimit))
	return s.history.Recent(ctx, limit)
}

// ClearHistory empties the decision history.
func (s *Service) ClearHistory(ctx context.Context) {
	s.history.Clear(ctx)
	s.logger.Info(ctx, "decision history cleared")
}

// MaxPredictionsLimit is the largest limit RecentPredictions accepts.
func (s *Service) MaxPredictionsLimit() int { return s.maxPredictions }

// RecentPredictions returns up to limit audited predictions, newest first.
func (s *Service) RecentPredictions(ctx context.Context, limit int) ([]audit.Record, error) {
	if limit < 1 || limit > s.maxPredictions {
		return nil, fmt.Errorf("%w: limit must be between 1 and %d", types.ErrValidation, s.maxPredictions)
	}
	return s.predictions.Recent(ctx, limit), nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":         s.started,
		"workerCount":     s.workerCount,
		"queueCapacity":   s.auditQueue.Cap(),
		"queueLength":     s.auditQueue.Len(),
		"stops":           len(s.registry.Stops()),
		"routes":          len(s.registry.Routes()),
		"meals":           s.meals.Count(ctx),
		"historySize":     s.history.Len(ctx),
		"predictionLog":   s.predictions.Len(ctx),
		"idempotencyKeys": s.deduper.Size(),
		"maxPredictions":  s.maxPredictions,
		"serviceTimezone": s.loc.String(),
	}

	metrics.UpdateAuditQueue(s.auditQueue.Len(), s.auditQueue.Cap())
	return stats
}
