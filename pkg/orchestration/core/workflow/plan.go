package workflow

import (
	model "github.com/tigerroll/pdfflow/pkg/orchestration/core/domain/model"
)

// plan is the indexed form of a graph used for one run.
type plan struct {
	nodes    map[string]model.Node
	order    []string // node ids in definition order
	outgoing map[string][]model.Edge
	// inDegree counts distinct source nodes per target.
	inDegree map[string]int
	starts   []string
}

func newPlan(g *model.WorkflowGraph) *plan {
	p := &plan{
		nodes:    make(map[string]model.Node, len(g.Nodes)),
		outgoing: make(map[string][]model.Edge),
		inDegree: make(map[string]int, len(g.Nodes)),
	}
	for _, n := range g.Nodes {
		p.nodes[n.ID] = n
		p.order = append(p.order, n.ID)
		p.inDegree[n.ID] = 0
		if n.Type == model.NodeTypeStart {
			p.starts = append(p.starts, n.ID)
		}
	}

	seen := make(map[[2]string]bool)
	for _, e := range g.Edges {
		if _, ok := p.nodes[e.Source]; !ok {
			continue
		}
		if _, ok := p.nodes[e.Target]; !ok {
			continue
		}
		p.outgoing[e.Source] = append(p.outgoing[e.Source], e)
		key := [2]string{e.Source, e.Target}
		if !seen[key] {
			seen[key] = true
			p.inDegree[e.Target]++
		}
	}
	return p
}

// reachable returns every node reachable from the start nodes, ignoring conditions.
func (p *plan) reachable() map[string]bool {
	visited := make(map[string]bool, len(p.nodes))
	stack := append([]string(nil), p.starts...)
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[id] {
			continue
		}
		visited[id] = true
		for _, e := range p.outgoing[id] {
			if !visited[e.Target] {
				stack = append(stack, e.Target)
			}
		}
	}
	return visited
}

// hasCycle reports whether the edges between the given nodes form a cycle.
func (p *plan) hasCycle(ids []string) bool {
	in := make(map[string]bool, len(ids))
	for _, id := range ids {
		in[id] = true
	}
	const (
		unvisited = iota
		visiting
		done
	)
	state := make(map[string]int, len(ids))
	var visit func(id string) bool
	visit = func(id string) bool {
		state[id] = visiting
		for _, e := range p.outgoing[id] {
			if !in[e.Target] {
				continue
			}
			switch state[e.Target] {
			case visiting:
				return true
			case unvisited:
				if visit(e.Target) {
					return true
				}
			}
		}
		state[id] = done
		return false
	}
	for _, id := range ids {
		if state[id] == unvisited && visit(id) {
			return true
		}
	}
	return false
}
