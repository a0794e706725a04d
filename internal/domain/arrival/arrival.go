// Package arrival estimates how likely a bus is to reach a stop soon.
//
// The estimate is a pure function of static route data, an optional recent
// sighting, the current wall-clock time and an optional observed ETA. It does
// no I/O and holds no state, so it is safe to call from any goroutine.
package arrival

import (
	"math"
	"time"

	"github.com/okian/busmaybe/internal/domain/transit"
)

// Scoring constants.
const (
	etaHorizonMin = 30.0 // an ETA at or beyond this many minutes scores 0

	baseProbability    = 0.15
	inServiceFactor    = 1.2
	outOfServiceFactor = 0.2

	headwayCeilingMin = 25.0 // headways at or above this contribute nothing
	headwaySpanMin    = 20.0
	headwayWeight     = 0.25

	recencyHorizonMin = 15.0
	proximitySpan     = 4.0
	unknownDistance   = 3
	signalWeight      = 0.45
	recencyShare      = 0.6
	proximityShare    = 0.4
)

// Input is everything the scorer looks at. Route must be non-nil; ETAMin, when
// set, must be non-negative. Both are enforced by the caller.
type Input struct {
	Route  *transit.Route
	StopID string
	Signal *transit.Signal
	Now    time.Time
	ETAMin *int
}

// Result is the scored outcome.
type Result struct {
	Probability float64
	Level       Level
	Reasons     []Reason
}

// Action is the recommendation for the result's level.
func (r Result) Action() string { return r.Level.Action() }

// Message renders the reasons followed by the recommended action.
func (r Result) Message() string { return Render(r.Reasons, r.Level) }

// Percent is the probability as a rounded whole percentage.
func (r Result) Percent() int { return int(math.Round(r.Probability * 100)) }

// Score computes the arrival probability for in.
func Score(in Input) Result {
	if in.ETAMin != nil {
		p := Clamp01(1 - float64(*in.ETAMin)/etaHorizonMin)
		return Result{
			Probability: p,
			Level:       LevelFor(p),
			Reasons:     []Reason{{Kind: ReasonETAProvided, Value: float64(*in.ETAMin), Effect: p}},
		}
	}

	p := baseProbability
	reasons := make([]Reason, 0, 4)
	reasons = append(reasons, Reason{Kind: ReasonNoArrivalInfo, Effect: baseProbability})

	if in.Route.Daytime.Contains(in.Now) {
		p *= inServiceFactor
		reasons = append(reasons, Reason{Kind: ReasonInService, Effect: inServiceFactor})
	} else {
		p *= outOfServiceFactor
		reasons = append(reasons, Reason{Kind: ReasonOutOfService, Effect: outOfServiceFactor})
	}

	headwayBoost := headwayWeight * HeadwayFactor(in.Route.HeadwayMin)
	p += headwayBoost
	reasons = append(reasons, Reason{Kind: ReasonHeadway, Value: in.Route.HeadwayMin, Effect: headwayBoost})

	if in.Signal != nil {
		boost := SignalBoost(in.Signal.MinutesAgo, Distance(in.Route, in.Signal.NearStopID, in.StopID))
		p += boost
		reasons = append(reasons, Reason{Kind: ReasonRecentSignal, Value: in.Signal.MinutesAgo, Effect: boost})
	}

	p = Clamp01(p)
	return Result{Probability: p, Level: LevelFor(p), Reasons: reasons}
}

// HeadwayFactor maps a headway onto [0,1]: 1 for headways of 5 minutes or
// less, 0 at 25 minutes or more, linear in between.
func HeadwayFactor(headwayMin float64) float64 {
	return Clamp01((headwayCeilingMin - headwayMin) / headwaySpanMin)
}

// Recency maps a sighting age onto [0,1], reaching 0 at 15 minutes.
func Recency(minutesAgo float64) float64 {
	return Clamp01(1 - minutesAgo/recencyHorizonMin)
}

// Proximity maps a stop distance onto [0,1], reaching 0 at 4 stops.
func Proximity(distance int) float64 {
	return Clamp01(1 - float64(distance)/proximitySpan)
}

// SignalBoost is the additive contribution of a sighting.
func SignalBoost(minutesAgo float64, distance int) float64 {
	return signalWeight * (recencyShare*Recency(minutesAgo) + proximityShare*Proximity(distance))
}

// Distance counts the stops between the sighting and the target along the
// route. When either stop is not on the route it is treated as 3.
func Distance(route *transit.Route, nearStopID, targetStopID string) int {
	near := route.IndexOf(nearStopID)
	target := route.IndexOf(targetStopID)
	if near < 0 || target < 0 {
		return unknownDistance
	}
	if d := target - near; d >= 0 {
		return d
	}
	return near - target
}

// Clamp01 bounds x to [0,1].
func Clamp01(x float64) float64 {
	return math.Max(0, math.Min(1, x))
}
