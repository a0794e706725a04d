package probe

import "time"

// Config holds configuration for a probe run.
type Config struct {
	BaseURL    string        // Base URL of the service
	Rounds     int           // Prediction rounds per stop/route pair
	Decisions  int           // avoid_last decisions to check
	Workers    int           // Number of concurrent workers
	Timeout    time.Duration // HTTP request timeout
	AuditWait  time.Duration // How long to wait for the audit log to catch up
	OutputFile string        // Output file for the prediction report; empty skips it
	Seed       int64         // ETA generator seed; zero seeds from the clock
	Verbose    bool          // Enable verbose logging
}

// Stop mirrors an item of GET /stops.
type Stop struct {
	StopID string `json:"stop_id"`
	Name   string `json:"name"`
}

// Route mirrors an item of GET /routes.
type Route struct {
	RouteID      string   `json:"route_id"`
	RouteNo      string   `json:"route_no"`
	DisplayName  string   `json:"display_name"`
	HeadwayMin   float64  `json:"headway_min"`
	StopSequence []string `json:"stop_sequence"`
}

// Query is one prediction to send.
type Query struct {
	StopID  string `json:"stop_id"`
	RouteID string `json:"route_id"`
	// ETAMin is nil for heuristic queries.
	ETAMin *int `json:"eta_min,omitempty"`
}

// Outcome is the checked answer to a Query.
type Outcome struct {
	Query   Query  `json:"query"`
	Status  int    `json:"status"`
	Percent int    `json:"probability_percent"`
	Level   string `json:"level"`
	Problem string `json:"problem,omitempty"`
}

// Stats holds probe statistics.
type Stats struct {
	Stops              int
	Routes             int
	PredictionsSent    int
	PredictionsOK      int
	PredictionsFailed  int
	Inconsistent       int
	AuditedPredictions int
	StartTime          time.Time
	EndTime            time.Time
	Duration           time.Duration
}
