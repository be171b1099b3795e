package compiler

import (
	"slices"

	"github.com/roach88/kiln/internal/container"
)

// CheckCircularReferencesPass fails when the reference graph has a cycle.
//
// It runs a depth-first search from every node, in identifier order,
// tracking the current path. Meeting a node already on the path is a
// cycle; the error carries the path from that node back to itself. Nodes
// whose whole closure was explored without finding a cycle are not
// explored again.
type CheckCircularReferencesPass struct {
	compilerRef
}

// Process implements container.CompilerPass.
func (p *CheckCircularReferencesPass) Process(b *container.Builder) error {
	graph := p.current().ServiceReferenceGraph()
	done := make(map[NodeID]bool)

	var path []NodeID
	var visit func(n NodeID) error
	visit = func(n NodeID) error {
		if i := slices.Index(path, n); i >= 0 {
			cycle := make([]string, 0, len(path)-i+1)
			for _, m := range path[i:] {
				cycle = append(cycle, graph.ServiceID(m))
			}
			cycle = append(cycle, graph.ServiceID(n))
			return &container.CircularReferenceError{ID: cycle[0], Path: cycle}
		}
		if done[n] {
			return nil
		}

		path = append(path, n)
		for _, e := range graph.OutEdges(n) {
			if err := visit(e.Dest); err != nil {
				return err
			}
		}
		path = path[:len(path)-1]
		done[n] = true
		return nil
	}

	for _, id := range graph.ServiceIDs() {
		n, _ := graph.Node(id)
		if err := visit(n); err != nil {
			return err
		}
	}
	return nil
}
