package ast

import (
	"sort"

	"github.com/dominikbraun/graph"
	"github.com/pkg/errors"
)

// Graph is a read-only view over a Process's elements and flows, backed
// by a directed github.com/dominikbraun/graph graph. It is built once
// from a Process and never mutated.
type Graph struct {
	proc *Process
	g    graph.Graph[string, Element]
}

func elementHash(e Element) string {
	return e.ID
}

// NewGraph builds a Graph over proc's elements and flows. Authored
// cycles are permitted — the layout engine is responsible for detecting
// and handling back-edges, so the graph itself must not reject them.
func NewGraph(proc *Process) (*Graph, error) {
	g := graph.New(elementHash, graph.Directed())

	for _, e := range proc.Elements {
		if err := g.AddVertex(e); err != nil && err != graph.ErrVertexAlreadyExists {
			return nil, errors.Wrapf(err, "adding vertex %s", e.ID)
		}
	}
	for _, f := range proc.Flows {
		if err := g.AddEdge(f.SourceID, f.TargetID); err != nil && err != graph.ErrEdgeAlreadyExists {
			return nil, errors.Wrapf(err, "adding edge %s -> %s", f.SourceID, f.TargetID)
		}
	}

	return &Graph{proc: proc, g: g}, nil
}

// Underlying exposes the raw graph, used by the `bpmc info --dot` debug flag
// via github.com/dominikbraun/graph/draw.
func (g *Graph) Underlying() graph.Graph[string, Element] {
	return g.g
}

// Successors returns the ids reachable from id via one outgoing flow,
// in the deterministic order the flows were authored.
func (g *Graph) Successors(id string) []string {
	var out []string
	for _, f := range g.proc.Flows {
		if f.SourceID == id {
			out = append(out, f.TargetID)
		}
	}
	return out
}

// Predecessors returns the ids with one outgoing flow into id, in the
// deterministic order the flows were authored.
func (g *Graph) Predecessors(id string) []string {
	var out []string
	for _, f := range g.proc.Flows {
		if f.TargetID == id {
			out = append(out, f.SourceID)
		}
	}
	return out
}

// InDegree returns the number of flows targeting id.
func (g *Graph) InDegree(id string) int {
	return len(g.Predecessors(id))
}

// OutDegree returns the number of flows sourced at id.
func (g *Graph) OutDegree(id string) int {
	return len(g.Successors(id))
}

// ReachableFromStarts returns the set of element ids reachable from any
// StartEvent.
func (g *Graph) ReachableFromStarts() map[string]bool {
	seen := map[string]bool{}
	var stack []string
	for _, s := range g.proc.StartEvents() {
		if !seen[s.ID] {
			seen[s.ID] = true
			stack = append(stack, s.ID)
		}
	}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, succ := range g.Successors(n) {
			if !seen[succ] {
				seen[succ] = true
				stack = append(stack, succ)
			}
		}
	}
	return seen
}

// SortedIDs returns every element id in the graph, sorted. Used only by
// debug/printing paths where author order isn't load-bearing.
func (g *Graph) SortedIDs() []string {
	ids := make([]string, 0, len(g.proc.Elements))
	for _, e := range g.proc.Elements {
		ids = append(ids, e.ID)
	}
	sort.Strings(ids)
	return ids
}
