// Package gtfsfeed builds a transit registry from a GTFS static feed.
//
// Only the schedule shape is used: each route's stop order comes from its
// longest trip, its service window spans its first and last trip start, and
// its headway is the median gap between trip starts. Feeds carry no vehicle
// sightings, so the registry has no signals.
package gtfsfeed

import (
	"context"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/jamespfennell/gtfs"

	"github.com/okian/busmaybe/internal/domain/transit"
	"github.com/okian/busmaybe/pkg/logger"
)

const (
	defaultHeadwayMin = 15.0
	lastInstant       = 24*time.Hour - time.Second
)

type importer struct {
	defaultHeadway float64
	log            logger.Logger
}

func newImporter(opts []Option) *importer {
	i := &importer{defaultHeadway: defaultHeadwayMin, log: logger.Nop()}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Load reads the GTFS zip at path and builds a registry from it.
func Load(ctx context.Context, path string, opts ...Option) (*transit.Registry, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrReadFeed, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	static, err := gtfs.ParseStatic(b, gtfs.ParseStaticOptions{})
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrParseFeed, path, err)
	}
	imp := newImporter(opts)
	imp.log.Info(ctx, "parsed gtfs feed",
		logger.String("path", path),
		logger.Int("stops", len(static.Stops)),
		logger.Int("routes", len(static.Routes)),
		logger.Int("trips", len(static.Trips)),
		logger.Int("warnings", len(static.Warnings)))
	return imp.build(ctx, static)
}

// FromStatic builds a registry from an already parsed feed.
func FromStatic(ctx context.Context, static *gtfs.Static, opts ...Option) (*transit.Registry, error) {
	return newImporter(opts).build(ctx, static)
}

func (i *importer) build(ctx context.Context, static *gtfs.Static) (*transit.Registry, error) {
	stops := make([]transit.Stop, 0, len(static.Stops))
	for _, s := range static.Stops {
		stops = append(stops, transit.Stop{ID: s.Id, Name: s.Name})
	}

	tripsByRoute := make(map[string][]*gtfs.ScheduledTrip)
	for idx := range static.Trips {
		trip := &static.Trips[idx]
		if trip.Route == nil || len(trip.StopTimes) == 0 {
			continue
		}
		tripsByRoute[trip.Route.Id] = append(tripsByRoute[trip.Route.Id], trip)
	}

	routes := make([]transit.Route, 0, len(static.Routes))
	skipped := 0
	for _, r := range static.Routes {
		trips := tripsByRoute[r.Id]
		if len(trips) == 0 {
			skipped++
			continue
		}
		routes = append(routes, i.route(r, trips))
	}
	if skipped > 0 {
		i.log.Warn(ctx, "skipped routes without scheduled trips", logger.Int("count", skipped))
	}
	if len(routes) == 0 {
		return nil, ErrEmptyFeed
	}
	return transit.NewRegistry(stops, routes, nil)
}

func (i *importer) route(r gtfs.Route, trips []*gtfs.ScheduledTrip) transit.Route {
	starts := make([]time.Duration, 0, len(trips))
	longest := trips[0]
	for _, t := range trips {
		starts = append(starts, tripStart(t))
		if len(t.StopTimes) > len(longest.StopTimes) {
			longest = t
		}
	}
	sort.Slice(starts, func(a, b int) bool { return starts[a] < starts[b] })

	no := r.ShortName
	if no == "" {
		no = r.Id
	}
	name := r.LongName
	if name == "" {
		name = no
	}

	return transit.Route{
		ID:          r.Id,
		No:          no,
		DisplayName: name,
		HeadwayMin:  medianGapMinutes(starts, i.defaultHeadway),
		Daytime: transit.ServiceWindow{
			Start: clampToDay(starts[0]),
			End:   clampToDay(starts[len(starts)-1]),
		},
		StopSequence: stopSequence(longest),
	}
}

// tripStart is the departure from the first stop. GTFS allows times past
// 24:00 for trips that run over midnight.
func tripStart(t *gtfs.ScheduledTrip) time.Duration {
	first := t.StopTimes[0]
	for _, st := range t.StopTimes[1:] {
		if st.StopSequence < first.StopSequence {
			first = st
		}
	}
	if first.DepartureTime > 0 {
		return first.DepartureTime
	}
	return first.ArrivalTime
}

// stopSequence orders the trip's stops, keeping the first visit of stops a
// loop route passes twice.
func stopSequence(t *gtfs.ScheduledTrip) []string {
	times := make([]gtfs.ScheduledStopTime, len(t.StopTimes))
	copy(times, t.StopTimes)
	sort.SliceStable(times, func(a, b int) bool { return times[a].StopSequence < times[b].StopSequence })

	seen := make(map[string]struct{}, len(times))
	seq := make([]string, 0, len(times))
	for _, st := range times {
		if st.Stop == nil {
			continue
		}
		if _, dup := seen[st.Stop.Id]; dup {
			continue
		}
		seen[st.Stop.Id] = struct{}{}
		seq = append(seq, st.Stop.Id)
	}
	return seq
}

func medianGapMinutes(sorted []time.Duration, fallback float64) float64 {
	if len(sorted) < 2 {
		return fallback
	}
	gaps := make([]float64, 0, len(sorted)-1)
	for k := 1; k < len(sorted); k++ {
		if gap := sorted[k] - sorted[k-1]; gap > 0 {
			gaps = append(gaps, gap.Minutes())
		}
	}
	if len(gaps) == 0 {
		return fallback
	}
	sort.Float64s(gaps)
	mid := len(gaps) / 2
	if len(gaps)%2 == 1 {
		return gaps[mid]
	}
	return (gaps[mid-1] + gaps[mid]) / 2
}

func clampToDay(d time.Duration) time.Duration {
	switch {
	case d < 0:
		return 0
	case d > lastInstant:
		return lastInstant
	default:
		return d
	}
}
