package repository

import "time"

// MealOption configures a MealMemStore.
type MealOption func(*MealMemStore)

// WithIDGenerator replaces the uuid generator.
func WithIDGenerator(gen func() string) MealOption {
	return func(s *MealMemStore) {
		if gen != nil {
			s.newID = gen
		}
	}
}

// WithClock replaces the clock used to stamp records.
func WithClock(now func() time.Time) MealOption {
	return func(s *MealMemStore) {
		if now != nil {
			s.now = now
		}
	}
}
