package core

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/graph/simple"
)

// Graph is the contract the router needs from a connectivity graph.
// Edges are undirected and unweighted.
type Graph interface {
	AddVertex(id string)
	AddEdge(a, b string) error
	Neighbors(id string) []string
	ShortestPath(from, to string) ([]string, error)
}

// ConnectivityGraph is an undirected satellite graph stored in a gonum
// simple graph. Vertex IDs are mapped onto dense int64 node IDs.
//
// Construction is single-threaded. Once built, concurrent reads are safe
// as long as no further vertices or edges are added.
type ConnectivityGraph struct {
	g     *simple.UndirectedGraph
	index map[string]int64
	names []string
}

// NewConnectivityGraph returns an empty graph.
func NewConnectivityGraph() *ConnectivityGraph {
	return &ConnectivityGraph{
		g:     simple.NewUndirectedGraph(),
		index: make(map[string]int64),
	}
}

// AddVertex adds id if it is not already present.
func (cg *ConnectivityGraph) AddVertex(id string) {
	if _, ok := cg.index[id]; ok {
		return
	}
	nid := int64(len(cg.names))
	cg.index[id] = nid
	cg.names = append(cg.names, id)
	cg.g.AddNode(simple.Node(nid))
}

// AddEdge links two existing vertices. Self-loops are ignored.
func (cg *ConnectivityGraph) AddEdge(a, b string) error {
	ia, ok := cg.index[a]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownNode, a)
	}
	ib, ok := cg.index[b]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownNode, b)
	}
	if ia == ib {
		return nil
	}
	cg.g.SetEdge(simple.Edge{F: simple.Node(ia), T: simple.Node(ib)})
	return nil
}

// HasVertex reports whether id is a vertex.
func (cg *ConnectivityGraph) HasVertex(id string) bool {
	_, ok := cg.index[id]
	return ok
}

// HasEdge reports whether a and b are linked.
func (cg *ConnectivityGraph) HasEdge(a, b string) bool {
	ia, okA := cg.index[a]
	ib, okB := cg.index[b]
	if !okA || !okB {
		return false
	}
	return cg.g.HasEdgeBetween(ia, ib)
}

// Neighbors returns the IDs adjacent to id in ascending order, or nil for
// an unknown vertex.
func (cg *ConnectivityGraph) Neighbors(id string) []string {
	nid, ok := cg.index[id]
	if !ok {
		return nil
	}
	it := cg.g.From(nid)
	var out []string
	for it.Next() {
		out = append(out, cg.names[it.Node().ID()])
	}
	sort.Strings(out)
	return out
}

// Vertices returns every vertex ID in ascending order.
func (cg *ConnectivityGraph) Vertices() []string {
	out := append([]string(nil), cg.names...)
	sort.Strings(out)
	return out
}

// EdgeCount returns the number of undirected edges.
func (cg *ConnectivityGraph) EdgeCount() int {
	return cg.g.Edges().Len()
}

// ShortestPath runs a breadth-first search from one vertex to another and
// returns the fewest-hop path, both ends included. Neighbours are expanded
// in ascending ID order, so among equal-length paths the lexicographically
// earliest expansion wins and results are reproducible.
func (cg *ConnectivityGraph) ShortestPath(from, to string) ([]string, error) {
	if !cg.HasVertex(from) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownNode, from)
	}
	if !cg.HasVertex(to) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownNode, to)
	}
	if from == to {
		return []string{from}, nil
	}

	parent := map[string]string{from: ""}
	queue := []string{from}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, next := range cg.Neighbors(cur) {
			if _, seen := parent[next]; seen {
				continue
			}
			parent[next] = cur
			if next == to {
				return unwindPath(parent, from, to), nil
			}
			queue = append(queue, next)
		}
	}
	return nil, fmt.Errorf("%w: %q and %q are not connected", ErrNoRouteFound, from, to)
}

func unwindPath(parent map[string]string, from, to string) []string {
	var path []string
	for cur := to; ; cur = parent[cur] {
		path = append(path, cur)
		if cur == from {
			break
		}
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

// PairFilter is a broad-phase check run before IsVisible. It must only
// reject pairs that IsVisible would also reject.
type PairFilter func(a, b Node) bool

// AboveSurface rejects pairs where either node is at or below the surface:
// the perpendicular distance to their line can never exceed either radius.
func AboveSurface(a, b Node) bool {
	return a.radius > EarthRadiusKm && b.radius > EarthRadiusKm
}

// BuildOption tweaks BuildGraph.
type BuildOption func(*buildOptions)

type buildOptions struct {
	filter PairFilter
}

// WithPairFilter installs a broad-phase filter.
func WithPairFilter(f PairFilter) BuildOption {
	return func(o *buildOptions) { o.filter = f }
}

// BuildGraph evaluates every unordered pair of distinct nodes and links the
// visible ones. Every node becomes a vertex, even when isolated.
func BuildGraph(c *Constellation, opts ...BuildOption) *ConnectivityGraph {
	var o buildOptions
	for _, opt := range opts {
		opt(&o)
	}

	cg := NewConnectivityGraph()
	nodes := c.Nodes()
	for _, n := range nodes {
		cg.AddVertex(n.id)
	}
	for i := 0; i < len(nodes); i++ {
		a := nodes[i]
		for j := i + 1; j < len(nodes); j++ {
			b := nodes[j]
			if o.filter != nil && !o.filter(a, b) {
				continue
			}
			if IsVisible(a, b) {
				// Both vertices were added above.
				_ = cg.AddEdge(a.id, b.id)
			}
		}
	}
	return cg
}
