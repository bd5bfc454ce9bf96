package source

import (
	"github.com/msalah0e/ontoview/internal/graph"
)

// maxPaths caps path enumeration on dense models.
const maxPaths = 1000

// network is an undirected view over link records, used by sources that
// evaluate queries themselves.
type network struct {
	links  []link
	byNode map[string][]int
}

type link struct {
	rec      graph.Record
	src, dst string
}

func newNetwork(recs []graph.Record) *network {
	n := &network{byNode: make(map[string][]int)}
	for _, rec := range recs {
		p := graph.Parse(rec)
		if p.Shape != graph.EdgeShape {
			continue
		}
		i := len(n.links)
		n.links = append(n.links, link{rec: rec, src: p.Edge.SourceID, dst: p.Edge.TargetID})
		n.byNode[p.Edge.SourceID] = append(n.byNode[p.Edge.SourceID], i)
		if p.Edge.TargetID != p.Edge.SourceID {
			n.byNode[p.Edge.TargetID] = append(n.byNode[p.Edge.TargetID], i)
		}
	}
	return n
}

// touching returns the links with id at either end, in input order.
func (n *network) touching(id string) []graph.Record {
	idx := n.byNode[id]
	out := make([]graph.Record, 0, len(idx))
	for _, i := range idx {
		out = append(out, n.links[i].rec)
	}
	return out
}

func (l link) other(id string) string {
	if l.src == id {
		return l.dst
	}
	return l.src
}

// neighbors returns the distinct ids one link away from id, in discovery
// order. keep, when set, filters links.
func (n *network) neighbors(id string, keep func(graph.Record) bool) []string {
	seen := make(map[string]bool)
	var out []string
	for _, i := range n.byNode[id] {
		l := n.links[i]
		if keep != nil && !keep(l.rec) {
			continue
		}
		next := l.other(id)
		if next == id || seen[next] {
			continue
		}
		seen[next] = true
		out = append(out, next)
	}
	return out
}

// reachable returns ids within depth hops of root, root excluded, in
// breadth-first order.
func (n *network) reachable(root string, depth int) []string {
	seen := map[string]bool{root: true}
	level := []string{root}
	var out []string
	for d := 0; d < depth && len(level) > 0; d++ {
		var next []string
		for _, id := range level {
			for _, nb := range n.neighbors(id, nil) {
				if seen[nb] {
					continue
				}
				seen[nb] = true
				next = append(next, nb)
				out = append(out, nb)
			}
		}
		level = next
	}
	return out
}

// paths enumerates simple paths from src to dst using at most maxDepth
// links. Each path is the list of link records walked.
func (n *network) paths(src, dst string, maxDepth int) [][]graph.Record {
	var out [][]graph.Record
	visited := make(map[string]bool)
	var cur []graph.Record

	var walk func(at string, depth int)
	walk = func(at string, depth int) {
		if depth > maxDepth || len(out) >= maxPaths {
			return
		}
		if at == dst {
			out = append(out, append([]graph.Record(nil), cur...))
			return
		}
		visited[at] = true
		for _, i := range n.byNode[at] {
			l := n.links[i]
			next := l.other(at)
			if visited[next] {
				continue
			}
			cur = append(cur, l.rec)
			walk(next, depth+1)
			cur = cur[:len(cur)-1]
		}
		visited[at] = false
	}
	walk(src, 0)
	return out
}
