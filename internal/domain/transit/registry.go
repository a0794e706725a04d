package transit

import (
	"fmt"
	"strings"
)

// Registry is the read-only lookup table of stops, routes and signals.
type Registry struct {
	stops   []Stop
	routes  []Route
	signals map[string]Signal

	stopIdx  map[string]int
	routeIdx map[string]int
}

// NewRegistry validates the dataset and builds the lookup indexes. Slices are
// copied so later mutation by the caller cannot leak into the registry.
func NewRegistry(stops []Stop, routes []Route, signals []Signal) (*Registry, error) {
	r := &Registry{
		stops:    make([]Stop, len(stops)),
		routes:   make([]Route, len(routes)),
		signals:  make(map[string]Signal, len(signals)),
		stopIdx:  make(map[string]int, len(stops)),
		routeIdx: make(map[string]int, len(routes)),
	}
	copy(r.stops, stops)

	for i, s := range r.stops {
		if strings.TrimSpace(s.ID) == "" {
			return nil, fmt.Errorf("%w: stop at index %d has empty id", ErrInvalidRegistry, i)
		}
		if _, dup := r.stopIdx[s.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate stop id %q", ErrInvalidRegistry, s.ID)
		}
		r.stopIdx[s.ID] = i
	}

	for i, rt := range routes {
		if err := r.validateRoute(rt); err != nil {
			return nil, err
		}
		rt.StopSequence = append([]string(nil), rt.StopSequence...)
		r.routes[i] = rt
		r.routeIdx[rt.ID] = i
	}

	for _, sig := range signals {
		if _, ok := r.routeIdx[sig.RouteID]; !ok {
			return nil, fmt.Errorf("%w: signal references unknown route %q", ErrInvalidRegistry, sig.RouteID)
		}
		if _, dup := r.signals[sig.RouteID]; dup {
			return nil, fmt.Errorf("%w: more than one signal for route %q", ErrInvalidRegistry, sig.RouteID)
		}
		if sig.MinutesAgo < 0 {
			return nil, fmt.Errorf("%w: signal for route %q has negative minutes_ago", ErrInvalidRegistry, sig.RouteID)
		}
		r.signals[sig.RouteID] = sig
	}
	return r, nil
}

func (r *Registry) validateRoute(rt Route) error {
	if strings.TrimSpace(rt.ID) == "" {
		return fmt.Errorf("%w: route with empty id", ErrInvalidRegistry)
	}
	if _, dup := r.routeIdx[rt.ID]; dup {
		return fmt.Errorf("%w: duplicate route id %q", ErrInvalidRegistry, rt.ID)
	}
	if rt.HeadwayMin <= 0 {
		return fmt.Errorf("%w: route %q headway must be positive", ErrInvalidRegistry, rt.ID)
	}
	if rt.Daytime.Start > rt.Daytime.End {
		return fmt.Errorf("%w: route %q daytime starts after it ends", ErrInvalidRegistry, rt.ID)
	}
	seen := make(map[string]struct{}, len(rt.StopSequence))
	for _, id := range rt.StopSequence {
		if _, ok := r.stopIdx[id]; !ok {
			return fmt.Errorf("%w: route %q references unknown stop %q", ErrInvalidRegistry, rt.ID, id)
		}
		if _, dup := seen[id]; dup {
			return fmt.Errorf("%w: route %q visits stop %q twice", ErrInvalidRegistry, rt.ID, id)
		}
		seen[id] = struct{}{}
	}
	return nil
}

// Stop resolves a stop by id.
func (r *Registry) Stop(id string) (Stop, bool) {
	i, ok := r.stopIdx[id]
	if !ok {
		return Stop{}, false
	}
	return r.stops[i], true
}

// Route resolves a route by id. The returned pointer must be treated as read-only.
func (r *Registry) Route(id string) (*Route, bool) {
	i, ok := r.routeIdx[id]
	if !ok {
		return nil, false
	}
	return &r.routes[i], true
}

// SignalFor returns the sighting recorded for a route, if any.
func (r *Registry) SignalFor(routeID string) (Signal, bool) {
	sig, ok := r.signals[routeID]
	return sig, ok
}

// Stops returns every stop in registration order.
func (r *Registry) Stops() []Stop {
	out := make([]Stop, len(r.stops))
	copy(out, r.stops)
	return out
}

// Routes returns every route in registration order.
func (r *Registry) Routes() []Route {
	out := make([]Route, len(r.routes))
	copy(out, r.routes)
	return out
}

// SearchStops filters stops by a case-insensitive name substring.
// An empty or blank query returns every stop.
func (r *Registry) SearchStops(q string) []Stop {
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return r.Stops()
	}
	out := make([]Stop, 0)
	for _, s := range r.stops {
		if strings.Contains(strings.ToLower(s.Name), q) {
			out = append(out, s)
		}
	}
	return out
}

// RoutesForStop returns the routes whose stop sequence contains stopID.
func (r *Registry) RoutesForStop(stopID string) []Route {
	out := make([]Route, 0)
	for i := range r.routes {
		if r.routes[i].Serves(stopID) {
			out = append(out, r.routes[i])
		}
	}
	return out
}
