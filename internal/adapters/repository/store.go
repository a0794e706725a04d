// Package repository holds the service's in-memory stores. Each store owns
// its data, is safe for concurrent use and lives as long as its owner.
package repository

import (
	"context"

	"github.com/okian/busmaybe/internal/domain/audit"
	"github.com/okian/busmaybe/internal/domain/decision"
	"github.com/okian/busmaybe/internal/domain/meal"
)

// MealStore keeps meal records in insertion order.
type MealStore interface {
	// Add stores a validated draft and returns the record with its id.
	Add(ctx context.Context, d meal.Draft) (meal.Meal, error)
	// List returns every meal, oldest first.
	List(ctx context.Context) []meal.Meal
	Count(ctx context.Context) int
}

// HistoryStore keeps the most recent decisions.
type HistoryStore interface {
	Append(ctx context.Context, r decision.Record)
	// Last returns the newest record.
	Last(ctx context.Context) (decision.Record, bool)
	// Recent returns up to n newest records, oldest first.
	Recent(ctx context.Context, n int) []decision.Record
	Clear(ctx context.Context)
	Len(ctx context.Context) int
}

// PredictionLog keeps the most recent served predictions.
type PredictionLog interface {
	Append(ctx context.Context, r audit.Record) error
	// Recent returns up to n newest records, newest first.
	Recent(ctx context.Context, n int) []audit.Record
	Len(ctx context.Context) int
}
