package arrival_test

import (
	"math"
	"testing"
	"time"

	"github.com/okian/busmaybe/internal/domain/arrival"
	"github.com/okian/busmaybe/internal/domain/transit"
	. "github.com/smartystreets/goconvey/convey"
)

const tolerance = 1e-9

func r10() *transit.Route {
	return &transit.Route{
		ID:           "R10",
		No:           "10",
		HeadwayMin:   12,
		Daytime:      transit.ServiceWindow{Start: transit.Clock(6, 0, 0), End: transit.Clock(22, 30, 0)},
		StopSequence: []string{"S200", "S100"},
	}
}

func at(h, m int) time.Time {
	return time.Date(2026, 5, 11, h, m, 0, 0, time.UTC)
}

func eta(n int) *int { return &n }

func TestScore_KnownETA(t *testing.T) {
	Convey("Given a known ETA", t, func() {
		route := r10()

		Convey("Then the probability decays linearly over 30 minutes", func() {
			for e := 0; e <= 30; e++ {
				res := arrival.Score(arrival.Input{Route: route, StopID: "S100", Now: at(12, 0), ETAMin: eta(e)})
				So(res.Probability, ShouldEqual, 1-float64(e)/30)
			}
		})

		Convey("And an ETA of zero is certain", func() {
			res := arrival.Score(arrival.Input{Route: route, StopID: "S100", Now: at(12, 0), ETAMin: eta(0)})
			So(res.Probability, ShouldEqual, 1.0)
			So(res.Level, ShouldEqual, arrival.LevelHigh)
		})

		Convey("And ETAs past 30 minutes are exactly zero", func() {
			for _, e := range []int{31, 45, 600} {
				res := arrival.Score(arrival.Input{Route: route, StopID: "S100", Now: at(12, 0), ETAMin: eta(e)})
				So(res.Probability, ShouldEqual, 0.0)
				So(res.Level, ShouldEqual, arrival.LevelLow)
			}
		})

		Convey("And other signals are ignored", func() {
			sig := &transit.Signal{RouteID: "R10", NearStopID: "S100", MinutesAgo: 0}
			res := arrival.Score(arrival.Input{Route: route, StopID: "S100", Signal: sig, Now: at(3, 0), ETAMin: eta(6)})
			So(res.Probability, ShouldAlmostEqual, 0.8, tolerance)
			So(res.Reasons, ShouldHaveLength, 1)
			So(res.Reasons[0].Kind, ShouldEqual, arrival.ReasonETAProvided)
		})

		Convey("When the ETA is 6 minutes", func() {
			res := arrival.Score(arrival.Input{Route: route, StopID: "S100", Now: at(12, 0), ETAMin: eta(6)})

			Convey("Then the result is HIGH and the message reports the ETA", func() {
				So(res.Probability, ShouldAlmostEqual, 0.8, tolerance)
				So(res.Level, ShouldEqual, arrival.LevelHigh)
				So(res.Percent(), ShouldEqual, 80)
				So(res.Message(), ShouldContainSubstring, "ETA 6")
				So(res.Message(), ShouldEndWith, "| "+arrival.LevelHigh.Action())
			})
		})
	})
}

func TestScore_UnknownETA(t *testing.T) {
	Convey("Given route R10 with a 12 minute headway", t, func() {
		route := r10()

		Convey("When it is daytime and there is no signal", func() {
			res := arrival.Score(arrival.Input{Route: route, StopID: "S100", Now: at(12, 0)})

			Convey("Then the probability is 0.18 + 0.1625", func() {
				So(res.Probability, ShouldAlmostEqual, 0.3425, tolerance)
				So(res.Level, ShouldEqual, arrival.LevelLow)
				So(res.Percent(), ShouldEqual, 34)
			})

			Convey("And the reasons are recorded in the order applied", func() {
				So(res.Reasons, ShouldHaveLength, 3)
				So(res.Reasons[0].Kind, ShouldEqual, arrival.ReasonNoArrivalInfo)
				So(res.Reasons[1].Kind, ShouldEqual, arrival.ReasonInService)
				So(res.Reasons[1].Effect, ShouldEqual, 1.2)
				So(res.Reasons[2].Kind, ShouldEqual, arrival.ReasonHeadway)
				So(res.Reasons[2].Value, ShouldEqual, 12.0)
				So(res.Reasons[2].Effect, ShouldAlmostEqual, 0.1625, tolerance)
			})
		})

		Convey("When a vehicle was seen at the target stop a minute ago", func() {
			sig := &transit.Signal{RouteID: "R10", NearStopID: "S100", MinutesAgo: 1}
			res := arrival.Score(arrival.Input{Route: route, StopID: "S100", Signal: sig, Now: at(12, 0)})

			Convey("Then the sighting adds 0.432 and the result is HIGH", func() {
				So(res.Reasons, ShouldHaveLength, 4)
				So(res.Reasons[3].Kind, ShouldEqual, arrival.ReasonRecentSignal)
				So(res.Reasons[3].Effect, ShouldAlmostEqual, 0.432, tolerance)
				So(res.Probability, ShouldAlmostEqual, 0.7745, tolerance)
				So(res.Level, ShouldEqual, arrival.LevelHigh)
				So(res.Percent(), ShouldEqual, 77)
			})

			Convey("And the message lists every reason before the action", func() {
				So(res.Message(), ShouldEqual,
					"no arrival info (base probability); within service hours (raised); headway 12 min applied; "+
						"recent sighting (1 min ago) applied | wait at the stop now")
			})
		})

		Convey("When a vehicle was seen one stop upstream a minute ago", func() {
			sig := &transit.Signal{RouteID: "R10", NearStopID: "S200", MinutesAgo: 1}
			res := arrival.Score(arrival.Input{Route: route, StopID: "S100", Signal: sig, Now: at(12, 0)})

			Convey("Then proximity drops to 0.75", func() {
				So(res.Reasons[3].Effect, ShouldAlmostEqual, 0.387, tolerance)
				So(res.Probability, ShouldAlmostEqual, 0.7295, tolerance)
			})
		})

		Convey("When the sighting stop is not on the route", func() {
			sig := &transit.Signal{RouteID: "R10", NearStopID: "S300", MinutesAgo: 15}

			Convey("Then the distance defaults to 3", func() {
				So(arrival.Distance(route, "S300", "S100"), ShouldEqual, 3)
				res := arrival.Score(arrival.Input{Route: route, StopID: "S100", Signal: sig, Now: at(12, 0)})
				So(res.Reasons[3].Effect, ShouldAlmostEqual, 0.45*0.4*0.25, tolerance)
			})
		})

		Convey("When it is outside the service window", func() {
			res := arrival.Score(arrival.Input{Route: route, StopID: "S100", Now: at(23, 0)})

			Convey("Then the base is multiplied by 0.2", func() {
				So(res.Reasons[1].Kind, ShouldEqual, arrival.ReasonOutOfService)
				So(res.Probability, ShouldAlmostEqual, 0.03+0.1625, tolerance)
				So(res.Level, ShouldEqual, arrival.LevelLow)
			})
		})

		Convey("When the time is exactly the end of service", func() {
			res := arrival.Score(arrival.Input{Route: route, StopID: "S100", Now: at(22, 30)})

			Convey("Then it still counts as in service", func() {
				So(res.Reasons[1].Kind, ShouldEqual, arrival.ReasonInService)
			})
		})
	})
}

func TestScore_AlwaysBounded(t *testing.T) {
	Convey("Given every combination of headway, time and signal", t, func() {
		headways := []float64{0.5, 1, 5, 12, 24.9, 25, 40, 120}
		times := []time.Time{at(0, 0), at(6, 0), at(12, 0), at(22, 30), at(23, 59)}
		signals := []*transit.Signal{
			nil,
			{NearStopID: "S100", MinutesAgo: 0},
			{NearStopID: "S200", MinutesAgo: 3},
			{NearStopID: "S999", MinutesAgo: 14},
			{NearStopID: "S100", MinutesAgo: 300},
		}

		Convey("Then the probability stays within [0,1]", func() {
			for _, h := range headways {
				route := r10()
				route.HeadwayMin = h
				for _, now := range times {
					for _, sig := range signals {
						res := arrival.Score(arrival.Input{Route: route, StopID: "S100", Signal: sig, Now: now})
						So(res.Probability, ShouldBeBetweenOrEqual, 0.0, 1.0)
						So(res.Level, ShouldEqual, arrival.LevelFor(res.Probability))
					}
				}
			}
		})
	})
}

func TestHeadwayFactor(t *testing.T) {
	Convey("Given the headway factor", t, func() {
		Convey("Then it is 1 for headways of 5 minutes or less", func() {
			So(arrival.HeadwayFactor(5), ShouldEqual, 1.0)
			So(arrival.HeadwayFactor(1), ShouldEqual, 1.0)
		})

		Convey("And 0 for headways of 25 minutes or more", func() {
			So(arrival.HeadwayFactor(25), ShouldEqual, 0.0)
			So(arrival.HeadwayFactor(90), ShouldEqual, 0.0)
		})

		Convey("And it never increases as the headway grows", func() {
			prev := math.Inf(1)
			for h := 0.0; h <= 40; h += 0.25 {
				f := arrival.HeadwayFactor(h)
				So(f, ShouldBeLessThanOrEqualTo, prev)
				prev = f
			}
		})
	})
}

func TestSignalComponents(t *testing.T) {
	Convey("Given the sighting components", t, func() {
		Convey("Then recency reaches zero at 15 minutes and stays there", func() {
			So(arrival.Recency(0), ShouldEqual, 1.0)
			So(arrival.Recency(15), ShouldEqual, 0.0)
			So(arrival.Recency(40), ShouldEqual, 0.0)
		})

		Convey("And an old sighting contributes only through proximity", func() {
			So(arrival.SignalBoost(15, 0), ShouldAlmostEqual, 0.45*0.4, tolerance)
			So(arrival.SignalBoost(60, 4), ShouldEqual, 0.0)
		})

		Convey("And proximity reaches zero four stops away", func() {
			So(arrival.Proximity(0), ShouldEqual, 1.0)
			So(arrival.Proximity(2), ShouldEqual, 0.5)
			So(arrival.Proximity(4), ShouldEqual, 0.0)
			So(arrival.Proximity(7), ShouldEqual, 0.0)
		})

		Convey("And distance is symmetric along the route", func() {
			route := &transit.Route{StopSequence: []string{"A", "B", "C", "D"}}
			So(arrival.Distance(route, "A", "D"), ShouldEqual, 3)
			So(arrival.Distance(route, "D", "B"), ShouldEqual, 2)
			So(arrival.Distance(route, "C", "C"), ShouldEqual, 0)
		})
	})
}

func TestLevelFor(t *testing.T) {
	Convey("Given the tier thresholds", t, func() {
		Convey("Then lower bounds are inclusive", func() {
			So(arrival.LevelFor(0.7), ShouldEqual, arrival.LevelHigh)
			So(arrival.LevelFor(0.4), ShouldEqual, arrival.LevelMedium)
			So(arrival.LevelFor(math.Nextafter(0.7, 0)), ShouldEqual, arrival.LevelMedium)
			So(arrival.LevelFor(math.Nextafter(0.4, 0)), ShouldEqual, arrival.LevelLow)
			So(arrival.LevelFor(0), ShouldEqual, arrival.LevelLow)
			So(arrival.LevelFor(1), ShouldEqual, arrival.LevelHigh)
		})

		Convey("And each level has its own badge and action", func() {
			So(arrival.LevelHigh.Badge(), ShouldEqual, "🟢")
			So(arrival.LevelMedium.Badge(), ShouldEqual, "🟡")
			So(arrival.LevelLow.Badge(), ShouldEqual, "🔴")
			So(arrival.LevelHigh.Action(), ShouldNotEqual, arrival.LevelMedium.Action())
			So(arrival.LevelMedium.Action(), ShouldNotEqual, arrival.LevelLow.Action())
		})
	})
}
