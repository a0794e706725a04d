package probe

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/okian/busmaybe/pkg/logger"
)

// File permission constants.
const (
	directoryPermission = 0o750
	filePermission      = 0o600
)

const workerChannelMultiplier = 2

// Run executes every check in order and returns the collected statistics.
// The error reports the first failed step, or the inconsistent predictions.
func Run(ctx context.Context, cfg *Config, log logger.Logger) (*Stats, error) {
	stats := &Stats{StartTime: time.Now()}
	client := newHTTPClient(cfg.BaseURL, cfg.Timeout)
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed)) //nolint:gosec // test data

	log.Info(ctx, "starting busmaybe probe",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("rounds", cfg.Rounds),
		logger.Int("workers", cfg.Workers),
		logger.Int64("seed", seed))

	// Step 1: Check service health
	if err := checkHealth(ctx, client); err != nil {
		return stats, err
	}

	// Step 2: Discover stops and routes
	routesByStop, err := discover(ctx, client, stats)
	if err != nil {
		return stats, fmt.Errorf("discovery failed: %w", err)
	}
	log.Info(ctx, "registry discovered", logger.Int("stops", stats.Stops), logger.Int("routes", stats.Routes))

	// Step 3: Predict every pair, with and without ETAs
	since := time.Now().Add(-time.Second)
	outcomes := submitPredictions(ctx, cfg, client, buildQueries(routesByStop, cfg.Rounds, rng), stats, log)
	if cfg.OutputFile != "" {
		if err := saveOutcomes(cfg.OutputFile, outcomes); err != nil {
			log.Warn(ctx, "failed to save outcomes", logger.Error(err))
		}
	}

	// Step 4: Meal idempotency
	if err := checkMeals(ctx, client); err != nil {
		return stats, fmt.Errorf("meal check failed: %w", err)
	}

	// Step 5: avoid_last decisions
	if err := checkDecisions(ctx, client, cfg.Decisions); err != nil {
		return stats, fmt.Errorf("decision check failed: %w", err)
	}

	// Step 6: Audit log
	if stats.PredictionsOK+stats.Inconsistent > 0 {
		n, err := waitForAudit(ctx, client, since, cfg.AuditWait, log)
		if err != nil {
			return stats, fmt.Errorf("audit check failed: %w", err)
		}
		stats.AuditedPredictions = n
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(ctx, stats, log)

	if stats.PredictionsFailed > 0 || stats.Inconsistent > 0 {
		return stats, fmt.Errorf("%w: %d failed and %d inconsistent predictions",
			ErrCheckFailed, stats.PredictionsFailed, stats.Inconsistent)
	}
	log.Info(ctx, "probe completed successfully")
	return stats, nil
}

// saveOutcomes writes outcomes to filename as a JSON array.
func saveOutcomes(filename string, outcomes []Outcome) error {
	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	data, err := json.MarshalIndent(outcomes, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal outcomes: %w", err)
	}
	return os.WriteFile(filename, data, filePermission)
}

// displayFinalStats logs the final probe statistics.
func displayFinalStats(ctx context.Context, stats *Stats, log logger.Logger) {
	var perSecond float64
	if stats.Duration > 0 {
		perSecond = float64(stats.PredictionsSent) / stats.Duration.Seconds()
	}
	log.Info(ctx, "final statistics",
		logger.Int("stops", stats.Stops),
		logger.Int("routes", stats.Routes),
		logger.Int("predictionsSent", stats.PredictionsSent),
		logger.Int("predictionsOK", stats.PredictionsOK),
		logger.Int("predictionsFailed", stats.PredictionsFailed),
		logger.Int("inconsistent", stats.Inconsistent),
		logger.Int("auditLogSize", stats.AuditedPredictions),
		logger.Duration("duration", stats.Duration),
		logger.Float64("predictionsPerSecond", perSecond))
}
