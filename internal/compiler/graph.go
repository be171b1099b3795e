package compiler

import (
	"sort"

	"github.com/roach88/kiln/internal/definition"
)

// NodeID addresses a node of a ServiceReferenceGraph.
type NodeID int

// Edge connects two nodes. Value is the *definition.Reference or
// *definition.Alias that created the edge.
type Edge struct {
	Source NodeID
	Dest   NodeID
	Value  any
}

type node struct {
	id    string
	value any
	in    []int
	out   []int
}

// ServiceReferenceGraph is the directed graph of service references.
//
// Nodes and edges live in flat slices and refer to each other by index, so
// Clear is a reset of both slices. The graph describes the builder as of
// the last analysis pass; passes that change references must re-run the
// analysis before the graph is trusted again.
type ServiceReferenceGraph struct {
	nodes []node
	edges []Edge
	index map[string]NodeID
}

// NewServiceReferenceGraph returns an empty graph.
func NewServiceReferenceGraph() *ServiceReferenceGraph {
	return &ServiceReferenceGraph{index: make(map[string]NodeID)}
}

// Clear removes every node and edge.
func (g *ServiceReferenceGraph) Clear() {
	g.nodes = g.nodes[:0]
	g.edges = g.edges[:0]
	g.index = make(map[string]NodeID)
}

// Connect adds an edge from sourceID to destID, creating missing nodes.
// Node values are the definition or alias owning the identifier; a nil
// value never overwrites a known one.
func (g *ServiceReferenceGraph) Connect(sourceID string, sourceValue any, destID string, destValue any, ref any) {
	src := g.node(sourceID, sourceValue)
	dst := g.node(destID, destValue)
	e := len(g.edges)
	g.edges = append(g.edges, Edge{Source: src, Dest: dst, Value: ref})
	g.nodes[src].out = append(g.nodes[src].out, e)
	g.nodes[dst].in = append(g.nodes[dst].in, e)
}

func (g *ServiceReferenceGraph) node(id string, value any) NodeID {
	if n, ok := g.index[id]; ok {
		if g.nodes[n].value == nil {
			g.nodes[n].value = value
		}
		return n
	}
	n := NodeID(len(g.nodes))
	g.nodes = append(g.nodes, node{id: id, value: value})
	g.index[id] = n
	return n
}

// HasNode reports whether id takes part in any edge.
func (g *ServiceReferenceGraph) HasNode(id string) bool {
	_, ok := g.index[id]
	return ok
}

// Node returns the node of id.
func (g *ServiceReferenceGraph) Node(id string) (NodeID, bool) {
	n, ok := g.index[id]
	return n, ok
}

// ServiceID returns the identifier of n.
func (g *ServiceReferenceGraph) ServiceID(n NodeID) string {
	return g.nodes[n].id
}

// Value returns the definition or alias of n, or nil when the identifier
// has neither.
func (g *ServiceReferenceGraph) Value(n NodeID) any {
	return g.nodes[n].value
}

// IsAlias reports whether n is an alias.
func (g *ServiceReferenceGraph) IsAlias(n NodeID) bool {
	_, ok := g.nodes[n].value.(*definition.Alias)
	return ok
}

// InEdges returns the edges ending at n.
func (g *ServiceReferenceGraph) InEdges(n NodeID) []Edge {
	return g.collect(g.nodes[n].in)
}

// OutEdges returns the edges starting at n.
func (g *ServiceReferenceGraph) OutEdges(n NodeID) []Edge {
	return g.collect(g.nodes[n].out)
}

func (g *ServiceReferenceGraph) collect(idx []int) []Edge {
	out := make([]Edge, len(idx))
	for i, e := range idx {
		out[i] = g.edges[e]
	}
	return out
}

// Nodes returns every node in insertion order.
func (g *ServiceReferenceGraph) Nodes() []NodeID {
	out := make([]NodeID, len(g.nodes))
	for i := range g.nodes {
		out[i] = NodeID(i)
	}
	return out
}

// ServiceIDs returns the identifiers of every node, sorted.
func (g *ServiceReferenceGraph) ServiceIDs() []string {
	ids := make([]string, 0, len(g.nodes))
	for _, n := range g.nodes {
		ids = append(ids, n.id)
	}
	sort.Strings(ids)
	return ids
}

// Sources returns the distinct identifiers with an edge into id, sorted.
func (g *ServiceReferenceGraph) Sources(id string) []string {
	n, ok := g.index[id]
	if !ok {
		return nil
	}
	seen := make(map[string]bool)
	var out []string
	for _, e := range g.InEdges(n) {
		src := g.nodes[e.Source].id
		if !seen[src] {
			seen[src] = true
			out = append(out, src)
		}
	}
	sort.Strings(out)
	return out
}
