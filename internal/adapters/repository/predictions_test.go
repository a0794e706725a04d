package repository

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/okian/busmaybe/internal/domain/audit"
	. "github.com/smartystreets/goconvey/convey"
)

func TestPredictionRing(t *testing.T) {
	ctx := context.Background()

	Convey("Given a prediction log holding four records", t, func() {
		log := NewPredictionRing(4)

		Convey("When six records are appended", func() {
			for i := 1; i <= 6; i++ {
				So(log.Append(ctx, audit.Record{ID: fmt.Sprintf("p%d", i), StopID: "S100"}), ShouldBeNil)
			}

			Convey("Then only the newest four are kept", func() {
				So(log.Len(ctx), ShouldEqual, 4)
			})

			Convey("And they read back newest first", func() {
				got := log.Recent(ctx, 10)
				So(got, ShouldHaveLength, 4)
				So(got[0].ID, ShouldEqual, "p6")
				So(got[3].ID, ShouldEqual, "p3")

				top := log.Recent(ctx, 2)
				So([]string{top[0].ID, top[1].ID}, ShouldResemble, []string{"p6", "p5"})
			})
		})

		Convey("When a record has no id", func() {
			err := log.Append(ctx, audit.Record{StopID: "S100"})

			Convey("Then it is rejected and not stored", func() {
				So(errors.Is(err, ErrMissingID), ShouldBeTrue)
				So(log.Len(ctx), ShouldEqual, 0)
			})
		})
	})
}

func TestRing(t *testing.T) {
	Convey("Given a ring asked for zero capacity", t, func() {
		r := newRing[int](0)
		r.push(1)
		r.push(2)

		Convey("Then it still holds the latest value", func() {
			So(r.tail(5), ShouldResemble, []int{2})
		})
	})
}
