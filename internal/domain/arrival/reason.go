package arrival

import (
	"strconv"
	"strings"
)

// ReasonKind names one adjustment applied while scoring.
type ReasonKind string

// Reason kinds in the order the scorer may apply them.
const (
	ReasonETAProvided   ReasonKind = "eta_provided"
	ReasonNoArrivalInfo ReasonKind = "no_arrival_info"
	ReasonInService     ReasonKind = "in_service_hours"
	ReasonOutOfService  ReasonKind = "outside_service_hours"
	ReasonHeadway       ReasonKind = "headway"
	ReasonRecentSignal  ReasonKind = "recent_signal"
)

// Reason is one structured step of the explanation.
//
// Value carries the kind's input (ETA minutes, headway minutes or sighting
// age) and is zero for kinds without one. Effect is what the step did to the
// probability: the resulting probability for eta_provided, the starting value
// for no_arrival_info, the multiplier for the service-hours kinds and the
// amount added for headway and recent_signal.
type Reason struct {
	Kind   ReasonKind `json:"kind"`
	Value  float64    `json:"value,omitempty"`
	Effect float64    `json:"effect"`
}

// Text renders the reason for display.
func (r Reason) Text() string {
	switch r.Kind {
	case ReasonETAProvided:
		return "arrival info provided (ETA " + formatNumber(r.Value) + " min)"
	case ReasonNoArrivalInfo:
		return "no arrival info (base probability)"
	case ReasonInService:
		return "within service hours (raised)"
	case ReasonOutOfService:
		return "outside or near the end of service hours (lowered)"
	case ReasonHeadway:
		return "headway " + formatNumber(r.Value) + " min applied"
	case ReasonRecentSignal:
		return "recent sighting (" + formatNumber(r.Value) + " min ago) applied"
	default:
		return string(r.Kind)
	}
}

// Render joins the reasons with "; " and appends the level's action after " | ".
func Render(reasons []Reason, level Level) string {
	parts := make([]string, len(reasons))
	for i, r := range reasons {
		parts[i] = r.Text()
	}
	return strings.Join(parts, "; ") + " | " + level.Action()
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
