package core

import (
	"errors"
	"fmt"

	"github.com/signalsfoundry/constellation-router/model"
)

// Labels used for the synthetic ground nodes of a route query.
const (
	SourceLabel      = "src"
	DestinationLabel = "dst"
)

// Route is the result of a successful routing query.
type Route struct {
	Source      Node
	Destination Node

	// Satellites is the relay chain from the source's entry satellite to the
	// destination's exit satellite. It always has at least one element.
	Satellites []string
}

// Hops is the number of inter-satellite links on the route.
func (r *Route) Hops() int {
	if r == nil || len(r.Satellites) == 0 {
		return 0
	}
	return len(r.Satellites) - 1
}

// Labels returns the satellite IDs, optionally wrapped in the source and
// destination labels.
func (r *Route) Labels(includeEndpoints bool) []string {
	if r == nil {
		return nil
	}
	if !includeEndpoints {
		return append([]string(nil), r.Satellites...)
	}
	out := make([]string, 0, len(r.Satellites)+2)
	out = append(out, r.Source.id)
	out = append(out, r.Satellites...)
	return append(out, r.Destination.id)
}

// Validate checks that every consecutive pair of satellites is an edge of g.
func (r *Route) Validate(g *ConnectivityGraph) error {
	if r == nil || len(r.Satellites) == 0 {
		return errors.New("empty route")
	}
	for i := 0; i+1 < len(r.Satellites); i++ {
		if !g.HasEdge(r.Satellites[i], r.Satellites[i+1]) {
			return fmt.Errorf("route hop %d: %q and %q are not linked", i, r.Satellites[i], r.Satellites[i+1])
		}
	}
	return nil
}

// Router answers route queries against one constellation snapshot. It holds
// no mutable state; a single Router may serve concurrent queries.
type Router struct {
	constellation *Constellation
	satellites    []Node
	graph         *ConnectivityGraph
}

// NewRouter builds the connectivity graph for c. The graph is complete
// before NewRouter returns.
func NewRouter(c *Constellation, opts ...BuildOption) *Router {
	return NewRouterWithGraph(c, BuildGraph(c, opts...))
}

// NewRouterWithGraph reuses a graph already built over c.
func NewRouterWithGraph(c *Constellation, g *ConnectivityGraph) *Router {
	return &Router{
		constellation: c,
		satellites:    c.Nodes(),
		graph:         g,
	}
}

// Graph returns the router's connectivity graph. Callers must not modify it.
func (r *Router) Graph() *ConnectivityGraph { return r.graph }

// Constellation returns the satellites the router was built over.
func (r *Router) Constellation() *Constellation { return r.constellation }

// Route attaches both ground points to their nearest visible satellites and
// finds the fewest-hop relay chain between them. Business outcomes are
// reported as ErrNoVisibleSatellite or ErrNoRouteFound.
func (r *Router) Route(req model.RouteRequest) (*Route, error) {
	src := NewGroundPoint(SourceLabel, req.SrcLat, req.SrcLon)
	dst := NewGroundPoint(DestinationLabel, req.DstLat, req.DstLon)

	entry, err := ResolveUplink(src, r.satellites)
	if err != nil {
		return nil, fmt.Errorf("source uplink: %w", err)
	}
	exit, err := ResolveUplink(dst, r.satellites)
	if err != nil {
		return nil, fmt.Errorf("destination uplink: %w", err)
	}

	path, err := r.graph.ShortestPath(entry, exit)
	if err != nil {
		return nil, err
	}
	return &Route{
		Source:      src,
		Destination: dst,
		Satellites:  path,
	}, nil
}

// Outcome labels used by Outcome.
const (
	OutcomeOK                 = "ok"
	OutcomeNoVisibleSatellite = "no_visible_satellite"
	OutcomeNoRoute            = "no_route"
	OutcomeInvalidGroundPoint = "invalid_ground_point"
	OutcomeError              = "error"
)

// Outcome classifies the error returned by Router.Route into a stable label.
func Outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, ErrNoVisibleSatellite):
		return OutcomeNoVisibleSatellite
	case errors.Is(err, ErrNoRouteFound):
		return OutcomeNoRoute
	case errors.Is(err, ErrInvalidGroundPoint):
		return OutcomeInvalidGroundPoint
	default:
		return OutcomeError
	}
}

// IsBusinessFailure reports whether err is an expected routing outcome
// rather than a defect or bad input.
func IsBusinessFailure(err error) bool {
	switch Outcome(err) {
	case OutcomeNoVisibleSatellite, OutcomeNoRoute:
		return true
	}
	return false
}
