package repository

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/busmaybe/internal/domain/meal"
	"github.com/okian/busmaybe/pkg/metrics"
)

// MealMemStore is an unbounded, insertion-ordered MealStore.
type MealMemStore struct {
	mu    sync.RWMutex
	meals []meal.Meal
	newID func() string
	now   func() time.Time
}

// NewMealMemStore creates an empty store.
func NewMealMemStore(opts ...MealOption) *MealMemStore {
	s := &MealMemStore{
		newID: func() string { return uuid.NewString() },
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Add validates d and appends it.
func (s *MealMemStore) Add(_ context.Context, d meal.Draft) (meal.Meal, error) {
	if err := d.Validate(); err != nil {
		return meal.Meal{}, err
	}
	m := meal.Meal{ID: s.newID(), Menu: d.Menu, User: d.User, CreatedAt: s.now()}

	s.mu.Lock()
	s.meals = append(s.meals, m)
	s.mu.Unlock()

	metrics.RecordMealCreated()
	return m, nil
}

func (s *MealMemStore) List(_ context.Context) []meal.Meal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]meal.Meal, len(s.meals))
	copy(out, s.meals)
	return out
}

func (s *MealMemStore) Count(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.meals)
}
