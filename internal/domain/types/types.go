// Package types contains the query and view types shared by the service
// facade and the HTTP layer, plus the error kinds both sides agree on.
package types

import (
	"errors"

	"github.com/okian/busmaybe/internal/domain/arrival"
	"github.com/okian/busmaybe/internal/domain/transit"
)

// Error kinds. The HTTP layer maps ErrValidation to 400 and ErrNotFound to 404.
var (
	ErrValidation = errors.New("validation")
	ErrNotFound   = errors.New("not found")
)

// PredictQuery is a validated arrival question.
type PredictQuery struct {
	StopID  string
	RouteID string
	// ArrivalAvailable says the caller claims to know the ETA; ETAMin must
	// then hold a non-negative value. ETAMin is nil when it was absent or
	// not a whole number.
	ArrivalAvailable bool
	ETAMin           *int
}

// RouteRef identifies a route in a prediction.
type RouteRef struct {
	RouteID     string `json:"route_id"`
	RouteNo     string `json:"route_no"`
	DisplayName string `json:"display_name"`
}

// RouteSummary is a route as listed to clients; the service window is
// omitted.
type RouteSummary struct {
	RouteID      string   `json:"route_id"`
	RouteNo      string   `json:"route_no"`
	DisplayName  string   `json:"display_name"`
	HeadwayMin   float64  `json:"headway_min"`
	StopSequence []string `json:"stop_sequence"`
}

// Summarize converts a registry route for output.
func Summarize(r *transit.Route) RouteSummary {
	return RouteSummary{
		RouteID:      r.ID,
		RouteNo:      r.No,
		DisplayName:  r.DisplayName,
		HeadwayMin:   r.HeadwayMin,
		StopSequence: append([]string{}, r.StopSequence...),
	}
}

// Ref converts a registry route to its identifying fields.
func Ref(r *transit.Route) RouteRef {
	return RouteRef{RouteID: r.ID, RouteNo: r.No, DisplayName: r.DisplayName}
}

// ResultView is the rendered score.
type ResultView struct {
	ProbabilityPercent int              `json:"probability_percent"`
	Level              arrival.Level    `json:"level"`
	Badge              string           `json:"badge"`
	Message            string           `json:"message"`
	Reasons            []arrival.Reason `json:"reasons"`
}

// NewResultView renders res.
func NewResultView(res arrival.Result) ResultView {
	return ResultView{
		ProbabilityPercent: res.Percent(),
		Level:              res.Level,
		Badge:              res.Level.Badge(),
		Message:            res.Message(),
		Reasons:            res.Reasons,
	}
}

// Prediction is the full answer to a PredictQuery.
type Prediction struct {
	Stop   transit.Stop `json:"stop"`
	Route  RouteRef     `json:"route"`
	Result ResultView   `json:"result"`
}
