package service

import (
	"time"

	repository "github.com/okian/busmaybe/internal/adapters/repository"
	"github.com/okian/busmaybe/internal/domain/decision"
	"github.com/okian/busmaybe/internal/domain/dedupe"
	"github.com/okian/busmaybe/internal/domain/transit"
	"github.com/okian/busmaybe/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithRegistry replaces the bundled demo registry.
func WithRegistry(r *transit.Registry) Option {
	return func(s *Service) {
		if r != nil {
			s.registry = r
		}
	}
}

// WithClock sets the clock used for scoring and history timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLocation sets the zone service hours and timestamps are read in.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// WithPicker sets the decision picker.
func WithPicker(p *decision.Picker) Option {
	return func(s *Service) {
		if p != nil {
			s.picker = p
		}
	}
}

// WithDeduper sets the idempotency key tracker for meal creation.
func WithDeduper(d dedupe.Deduper) Option {
	return func(s *Service) {
		if d != nil {
			s.deduper = d
		}
	}
}

// WithMealStore sets the meal store.
func WithMealStore(m repository.MealStore) Option {
	return func(s *Service) {
		if m != nil {
			s.meals = m
		}
	}
}

// WithHistoryStore sets the decision history store.
func WithHistoryStore(h repository.HistoryStore) Option {
	return func(s *Service) {
		if h != nil {
			s.history = h
		}
	}
}

// WithPredictionLog sets where audited predictions end up.
func WithPredictionLog(p repository.PredictionLog) Option {
	return func(s *Service) {
		if p != nil {
			s.predictions = p
		}
	}
}

// WithQueueSize sets the capacity of the audit queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithWorkerCount sets the number of audit workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithMaxPredictionsLimit caps RecentPredictions.
func WithMaxPredictionsLimit(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxPredictions = n
		}
	}
}
