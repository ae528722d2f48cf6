package core

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/signalsfoundry/constellation-router/model"
)

var (
	ErrEmptyNodeID        = errors.New("empty node ID")
	ErrDuplicateNode      = errors.New("node already exists")
	ErrUnknownNode        = errors.New("unknown node")
	ErrInvalidGroundPoint = errors.New("node is not on the Earth's surface")
	ErrNoVisibleSatellite = errors.New("no satellite above the horizon")
	ErrNoRouteFound       = errors.New("no route found")
)

// surfaceTolerance is how far (km) a ground point's radius may drift from
// EarthRadiusKm after the trigonometric round trip.
const surfaceTolerance = 1e-4

// Node is a satellite or ground point. It is an immutable value: the
// radius and Cartesian position are derived once in NewNode.
type Node struct {
	id        string
	latitude  float64
	longitude float64
	altitude  float64

	radius   float64
	position Vec3
}

// NewNode derives the Cartesian position of a point at the given latitude,
// longitude (degrees) and altitude (km above the mean surface).
func NewNode(id string, latDeg, lonDeg, altKm float64) Node {
	return Node{
		id:        id,
		latitude:  latDeg,
		longitude: lonDeg,
		altitude:  altKm,
		radius:    EarthRadiusKm + altKm,
		position:  ToCartesian(latDeg, lonDeg, altKm),
	}
}

// NewGroundPoint returns a zero-altitude node.
func NewGroundPoint(label string, latDeg, lonDeg float64) Node {
	return NewNode(label, latDeg, lonDeg, 0)
}

// NodeFromRecord converts a validated parser record into a Node.
func NodeFromRecord(rec model.SatelliteRecord) Node {
	return NewNode(rec.ID, rec.Latitude, rec.Longitude, rec.AltitudeKm)
}

func (n Node) ID() string         { return n.id }
func (n Node) Latitude() float64  { return n.latitude }
func (n Node) Longitude() float64 { return n.longitude }
func (n Node) Altitude() float64  { return n.altitude }

// Radius is the distance from the Earth's centre, EarthRadiusKm + altitude.
func (n Node) Radius() float64 { return n.radius }

// Position is the Earth-centred Cartesian position in kilometres.
func (n Node) Position() Vec3 { return n.position }

// DistanceTo is the Euclidean distance between the two positions.
func (n Node) DistanceTo(other Node) float64 {
	return n.position.DistanceTo(other.position)
}

// OnSurface reports whether the node lies on the Earth's surface to within
// surfaceTolerance.
func (n Node) OnSurface() bool {
	return math.Abs(n.position.Norm()-EarthRadiusKm) < surfaceTolerance
}

// Constellation maps node IDs to satellites. It is never mutated after
// NewConstellation returns.
type Constellation struct {
	nodes map[string]Node
	ids   []string
}

// NewConstellation indexes nodes by ID, rejecting empty or repeated IDs.
func NewConstellation(nodes ...Node) (*Constellation, error) {
	c := &Constellation{
		nodes: make(map[string]Node, len(nodes)),
		ids:   make([]string, 0, len(nodes)),
	}
	for _, n := range nodes {
		if n.id == "" {
			return nil, ErrEmptyNodeID
		}
		if _, exists := c.nodes[n.id]; exists {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateNode, n.id)
		}
		c.nodes[n.id] = n
		c.ids = append(c.ids, n.id)
	}
	sort.Strings(c.ids)
	return c, nil
}

// ConstellationFromRecords validates every record and builds a constellation.
func ConstellationFromRecords(records []model.SatelliteRecord) (*Constellation, error) {
	nodes := make([]Node, 0, len(records))
	for _, rec := range records {
		if err := rec.Validate(); err != nil {
			return nil, err
		}
		nodes = append(nodes, NodeFromRecord(rec))
	}
	return NewConstellation(nodes...)
}

// Node returns the node with the given ID.
func (c *Constellation) Node(id string) (Node, bool) {
	n, ok := c.nodes[id]
	return n, ok
}

// IDs returns the node IDs in ascending order.
func (c *Constellation) IDs() []string {
	return append([]string(nil), c.ids...)
}

// Nodes returns the nodes ordered by ID.
func (c *Constellation) Nodes() []Node {
	out := make([]Node, 0, len(c.ids))
	for _, id := range c.ids {
		out = append(out, c.nodes[id])
	}
	return out
}

// Len returns the number of nodes.
func (c *Constellation) Len() int { return len(c.ids) }
