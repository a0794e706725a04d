package types_test

import (
	"testing"

	"github.com/okian/busmaybe/internal/domain/arrival"
	"github.com/okian/busmaybe/internal/domain/transit"
	types "github.com/okian/busmaybe/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func TestRouteViews(t *testing.T) {
	Convey("Given a registry route", t, func() {
		route, ok := transit.DemoRegistry().Route("R10")
		So(ok, ShouldBeTrue)

		Convey("When it is summarized", func() {
			sum := types.Summarize(route)

			Convey("Then its listing fields are copied", func() {
				So(sum.RouteID, ShouldEqual, "R10")
				So(sum.RouteNo, ShouldEqual, "10")
				So(sum.HeadwayMin, ShouldEqual, 12.0)
				So(sum.StopSequence, ShouldResemble, []string{"S200", "S100"})
			})

			Convey("And the stop sequence is not shared with the registry", func() {
				sum.StopSequence[0] = "X"
				again, _ := transit.DemoRegistry().Route("R10")
				So(again.StopSequence[0], ShouldEqual, "S200")
			})
		})

		Convey("When it is referenced", func() {
			ref := types.Ref(route)

			Convey("Then only the identifying fields are kept", func() {
				So(ref, ShouldResemble, types.RouteRef{RouteID: "R10", RouteNo: "10", DisplayName: route.DisplayName})
			})
		})
	})
}

func TestNewResultView(t *testing.T) {
	Convey("Given a scored result", t, func() {
		res := arrival.Result{
			Probability: 0.8,
			Level:       arrival.LevelHigh,
			Reasons:     []arrival.Reason{{Kind: arrival.ReasonETAProvided, Value: 6, Effect: 0.8}},
		}

		Convey("Then the view carries the rendered fields", func() {
			view := types.NewResultView(res)
			So(view.ProbabilityPercent, ShouldEqual, 80)
			So(view.Level, ShouldEqual, arrival.LevelHigh)
			So(view.Badge, ShouldEqual, arrival.LevelHigh.Badge())
			So(view.Message, ShouldEqual, res.Message())
			So(view.Reasons, ShouldHaveLength, 1)
		})
	})
}
