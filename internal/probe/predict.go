package probe

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
	"net/http"
	"sync"

	"github.com/okian/busmaybe/internal/domain/arrival"
	"github.com/okian/busmaybe/pkg/logger"
)

// Rounding band for tier checks: the percent is rounded while the tier uses
// the raw probability, so a 70% can still be MEDIUM.
const (
	highFloor   = 70
	mediumFloor = 40
)

// maxProbeETA reaches past the 30 minute decay window so clamping is probed.
const maxProbeETA = 40

type arrivalInfo struct {
	Available bool `json:"available"`
	ETAMin    *int `json:"eta_min,omitempty"`
}

type predictRequest struct {
	StopID      string      `json:"stop_id"`
	RouteID     string      `json:"route_id"`
	ArrivalInfo arrivalInfo `json:"arrival_info"`
}

type predictResponse struct {
	Result struct {
		ProbabilityPercent int    `json:"probability_percent"`
		Level              string `json:"level"`
		Message            string `json:"message"`
	} `json:"result"`
}

// buildQueries pairs every stop with each route through it. Each round adds
// a heuristic query and one with a random ETA.
func buildQueries(routesByStop map[string][]Route, rounds int, rng *rand.Rand) []Query {
	var out []Query
	for stopID, routes := range routesByStop {
		for _, r := range routes {
			for i := 0; i < rounds; i++ {
				eta := rng.Intn(maxProbeETA + 1)
				out = append(out,
					Query{StopID: stopID, RouteID: r.RouteID},
					Query{StopID: stopID, RouteID: r.RouteID, ETAMin: &eta},
				)
			}
		}
	}
	return out
}

// expectedETAPercent is the percent a known ETA must produce.
func expectedETAPercent(eta int) int {
	return int(math.Round(arrival.Clamp01(1-float64(eta)/30) * 100))
}

// check reports what is wrong with an answer, or "" when it is consistent.
func check(q Query, percent int, level string) string {
	if percent < 0 || percent > 100 {
		return fmt.Sprintf("percent %d outside 0..100", percent)
	}
	switch arrival.Level(level) {
	case arrival.LevelHigh:
		if percent < highFloor {
			return fmt.Sprintf("HIGH with %d%%", percent)
		}
	case arrival.LevelMedium:
		if percent < mediumFloor || percent > highFloor {
			return fmt.Sprintf("MEDIUM with %d%%", percent)
		}
	case arrival.LevelLow:
		if percent > mediumFloor {
			return fmt.Sprintf("LOW with %d%%", percent)
		}
	default:
		return fmt.Sprintf("unknown level %q", level)
	}
	if q.ETAMin != nil {
		if want := expectedETAPercent(*q.ETAMin); percent != want {
			return fmt.Sprintf("ETA %d gave %d%%, want %d%%", *q.ETAMin, percent, want)
		}
	}
	return ""
}

func predictOne(ctx context.Context, client *HTTPClient, q Query) Outcome {
	req := predictRequest{StopID: q.StopID, RouteID: q.RouteID}
	if q.ETAMin != nil {
		req.ArrivalInfo = arrivalInfo{Available: true, ETAMin: q.ETAMin}
	}
	status, body, err := client.postJSON(ctx, "/predict", req, nil)
	out := Outcome{Query: q, Status: status}
	if err != nil {
		out.Problem = err.Error()
		return out
	}
	if status != http.StatusOK {
		out.Problem = fmt.Sprintf("status %d", status)
		return out
	}
	var resp predictResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		out.Problem = "undecodable response: " + err.Error()
		return out
	}
	out.Percent = resp.Result.ProbabilityPercent
	out.Level = resp.Result.Level
	out.Problem = check(q, out.Percent, out.Level)
	return out
}

// submitPredictions sends queries with a pool of workers and checks every
// answer.
func submitPredictions(ctx context.Context, cfg *Config, client *HTTPClient, queries []Query, stats *Stats, log logger.Logger) []Outcome {
	log.Info(ctx, "submitting predictions", logger.Int("queries", len(queries)), logger.Int("workers", cfg.Workers))

	outcomes := make([]Outcome, len(queries))
	jobs := make(chan int, cfg.Workers*workerChannelMultiplier)
	var wg sync.WaitGroup

	for w := 0; w < cfg.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				outcomes[i] = predictOne(ctx, client, queries[i])
				if outcomes[i].Problem != "" && cfg.Verbose {
					log.Warn(ctx, "prediction problem",
						logger.String("stop", queries[i].StopID),
						logger.String("route", queries[i].RouteID),
						logger.String("problem", outcomes[i].Problem))
				}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for i := range queries {
			select {
			case <-ctx.Done():
				return
			case jobs <- i:
			}
		}
	}()
	wg.Wait()

	for _, o := range outcomes {
		if o.Status == 0 && o.Problem == "" {
			continue // never sent
		}
		stats.PredictionsSent++
		switch {
		case o.Status != http.StatusOK:
			stats.PredictionsFailed++
		case o.Problem != "":
			stats.Inconsistent++
		default:
			stats.PredictionsOK++
		}
	}

	log.Info(ctx, "prediction submission completed",
		logger.Int("ok", stats.PredictionsOK),
		logger.Int("failed", stats.PredictionsFailed),
		logger.Int("inconsistent", stats.Inconsistent))
	return outcomes
}
