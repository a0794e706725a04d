// Package transit holds the static stop/route/signal registry consulted by the
// arrival scorer. A Registry is immutable once built and safe for concurrent reads.
package transit

import (
	"fmt"
	"time"
)

// Stop is a boarding point.
type Stop struct {
	ID   string `json:"stop_id"`
	Name string `json:"name"`
}

// ServiceWindow is a wall-clock operating window expressed as offsets since
// local midnight. Both ends are inclusive.
type ServiceWindow struct {
	Start time.Duration
	End   time.Duration
}

// Clock builds an offset since midnight from hours, minutes and seconds.
func Clock(h, m, s int) time.Duration {
	return time.Duration(h)*time.Hour + time.Duration(m)*time.Minute + time.Duration(s)*time.Second
}

// Contains reports whether the wall-clock time of t lies within the window.
func (w ServiceWindow) Contains(t time.Time) bool {
	offset := SinceMidnight(t)
	return w.Start <= offset && offset <= w.End
}

// String renders the window as HH:MM-HH:MM.
func (w ServiceWindow) String() string {
	return formatClock(w.Start) + "-" + formatClock(w.End)
}

// SinceMidnight returns the wall-clock offset of t in its own location.
func SinceMidnight(t time.Time) time.Duration {
	h, m, s := t.Clock()
	return Clock(h, m, s) + time.Duration(t.Nanosecond())
}

func formatClock(d time.Duration) string {
	h := int(d / time.Hour)
	m := int((d % time.Hour) / time.Minute)
	return fmt.Sprintf("%02d:%02d", h, m)
}

// Route is a bus line with its schedule characteristics.
type Route struct {
	ID           string
	No           string
	DisplayName  string
	HeadwayMin   float64
	Daytime      ServiceWindow
	StopSequence []string
}

// IndexOf returns the position of stopID in the route's stop sequence, or -1.
func (r *Route) IndexOf(stopID string) int {
	for i, id := range r.StopSequence {
		if id == stopID {
			return i
		}
	}
	return -1
}

// Serves reports whether the route passes through stopID.
func (r *Route) Serves(stopID string) bool {
	return r.IndexOf(stopID) >= 0
}

// Signal is a recent (simulated) sighting of a route's vehicle near a stop.
type Signal struct {
	RouteID    string
	NearStopID string
	MinutesAgo float64
}
