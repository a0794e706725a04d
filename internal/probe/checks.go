package probe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/okian/busmaybe/pkg/logger"
)

// Sentinel kinds for failed checks.
var (
	ErrUnhealthy     = errors.New("service unhealthy")
	ErrCheckFailed   = errors.New("check failed")
	ErrAuditTimedOut = errors.New("prediction audit did not catch up")
)

const auditPollInterval = 100 * time.Millisecond

// checkHealth verifies /health reports ok.
func checkHealth(ctx context.Context, client *HTTPClient) error {
	var health struct {
		OK bool   `json:"ok"`
		TS string `json:"ts"`
	}
	if err := client.getJSON(ctx, "/health", &health); err != nil {
		return fmt.Errorf("%w: %w", ErrUnhealthy, err)
	}
	if !health.OK {
		return fmt.Errorf("%w: ok=false", ErrUnhealthy)
	}
	return nil
}

// discover fetches the stops and, per stop, the routes serving it.
func discover(ctx context.Context, client *HTTPClient, stats *Stats) (map[string][]Route, error) {
	var stops struct {
		Items []Stop `json:"items"`
	}
	if err := client.getJSON(ctx, "/stops", &stops); err != nil {
		return nil, err
	}
	var all struct {
		Items []Route `json:"items"`
	}
	if err := client.getJSON(ctx, "/routes", &all); err != nil {
		return nil, err
	}
	stats.Stops, stats.Routes = len(stops.Items), len(all.Items)

	out := make(map[string][]Route, len(stops.Items))
	for _, s := range stops.Items {
		var routes struct {
			Items []Route `json:"items"`
		}
		if err := client.getJSON(ctx, "/routes?stop_id="+s.StopID, &routes); err != nil {
			return nil, err
		}
		for _, r := range routes.Items {
			if !contains(r.StopSequence, s.StopID) {
				return nil, fmt.Errorf("%w: route %s listed for stop %s it does not serve", ErrCheckFailed, r.RouteID, s.StopID)
			}
		}
		out[s.StopID] = routes.Items
	}
	return out, nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// checkMeals posts the same meal twice under one idempotency key and
// expects one creation and one duplicate.
func checkMeals(ctx context.Context, client *HTTPClient) error {
	key := uuid.NewString()
	body := map[string]string{"menu": "probe " + key[:8], "user": "probe"}
	headers := map[string]string{"Idempotency-Key": key}

	status, _, err := client.postJSON(ctx, "/api/meals", body, headers)
	if err != nil {
		return err
	}
	if status != http.StatusCreated {
		return fmt.Errorf("%w: first meal post returned %d", ErrCheckFailed, status)
	}

	status, raw, err := client.postJSON(ctx, "/api/meals", body, headers)
	if err != nil {
		return err
	}
	var ack struct {
		Status string `json:"status"`
	}
	if status != http.StatusOK || json.Unmarshal(raw, &ack) != nil || ack.Status != "duplicate" {
		return fmt.Errorf("%w: retried meal post returned %d %s", ErrCheckFailed, status, raw)
	}
	return nil
}

// checkDecisions makes n avoid_last decisions between two options and
// expects the pick to alternate.
func checkDecisions(ctx context.Context, client *HTTPClient, n int) error {
	req := map[string]any{"question": "probe", "options": []string{"left", "right"}, "avoid_last": true}
	var prev string
	for i := 0; i < n; i++ {
		status, raw, err := client.postJSON(ctx, "/decide", req, nil)
		if err != nil {
			return err
		}
		var rec struct {
			Picked string `json:"picked"`
		}
		if status != http.StatusOK || json.Unmarshal(raw, &rec) != nil {
			return fmt.Errorf("%w: decide returned %d %s", ErrCheckFailed, status, raw)
		}
		if rec.Picked == prev {
			return fmt.Errorf("%w: avoid_last repeated %q", ErrCheckFailed, prev)
		}
		prev = rec.Picked
	}
	return nil
}

// waitForAudit polls until a prediction made at or after since shows up in
// the audit log, then returns the log size.
func waitForAudit(ctx context.Context, client *HTTPClient, since time.Time, wait time.Duration, log logger.Logger) (int, error) {
	deadline := time.Now().Add(wait)
	for {
		var recent struct {
			Items []struct {
				At time.Time `json:"at"`
			} `json:"items"`
		}
		if err := client.getJSON(ctx, "/predictions?limit=1", &recent); err != nil {
			return 0, err
		}
		if len(recent.Items) > 0 && !recent.Items[0].At.Before(since) {
			break
		}
		if time.Now().After(deadline) {
			return 0, ErrAuditTimedOut
		}
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-time.After(auditPollInterval):
		}
	}

	var stats map[string]any
	if err := client.getJSON(ctx, "/stats", &stats); err != nil {
		return 0, err
	}
	size, _ := stats["predictionLog"].(float64)
	log.Debug(ctx, "audit log caught up", logger.Int("size", int(size)))
	return int(size), nil
}
