package graph

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrCatalogUnavailable means the typed-entity catalog could not be obtained.
	ErrCatalogUnavailable = errors.New("entity catalog unavailable")
	// ErrQueryUnavailable means the top-level query result could not be obtained.
	ErrQueryUnavailable = errors.New("query result unavailable")
)

// Kind tags what a node represents.
type Kind string

const (
	KindNone       Kind = ""
	KindObjectType Kind = "objectType"
)

// Node is one rectangle in the diagram. X and Y are the world-space center.
type Node struct {
	ID    string  `json:"id"`
	Label string  `json:"label"`
	Kind  Kind    `json:"kind,omitempty"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
}

// Edge is a directed line between two nodes.
type Edge struct {
	SourceID       string `json:"sourceId"`
	TargetID       string `json:"targetId"`
	Label          string `json:"label,omitempty"`
	RelationshipID string `json:"relationshipId,omitempty"`
	Shape          string `json:"shape,omitempty"`
}

// Graph is a built set of nodes and edges. Every edge references nodes
// present in Nodes.
type Graph struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// Stats holds summary counts.
type Stats struct {
	Nodes int
	Edges int
	Kinds int
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{
		Nodes: make([]Node, 0),
		Edges: make([]Edge, 0),
	}
}

// Node returns the node with the given id.
func (g *Graph) Node(id string) (Node, bool) {
	for _, n := range g.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return Node{}, false
}

// GetStats returns summary statistics.
func (g *Graph) GetStats() Stats {
	kinds := make(map[Kind]bool)
	for _, n := range g.Nodes {
		if n.Kind != KindNone {
			kinds[n.Kind] = true
		}
	}
	return Stats{Nodes: len(g.Nodes), Edges: len(g.Edges), Kinds: len(kinds)}
}

// Outgoing returns the edges leaving id, in edge order.
func (g *Graph) Outgoing(id string) []Edge {
	var out []Edge
	for _, e := range g.Edges {
		if e.SourceID == id {
			out = append(out, e)
		}
	}
	return out
}

// ExportJSON returns the graph as pretty-printed JSON.
func (g *Graph) ExportJSON() ([]byte, error) {
	return json.MarshalIndent(g, "", "  ")
}

// ExportDOT returns the graph in Graphviz DOT format.
func (g *Graph) ExportDOT() string {
	var b strings.Builder
	b.WriteString("digraph ontoview {\n")
	b.WriteString("  rankdir=LR;\n")
	b.WriteString("  node [shape=box, style=rounded];\n\n")

	// Sort node ids for deterministic output
	ids := make([]string, 0, len(g.Nodes))
	byID := make(map[string]Node, len(g.Nodes))
	for _, n := range g.Nodes {
		ids = append(ids, n.ID)
		byID[n.ID] = n
	}
	sort.Strings(ids)

	for _, id := range ids {
		n := byID[id]
		if n.Kind != KindNone {
			b.WriteString(fmt.Sprintf("  %q [label=%q, tooltip=%q];\n", id, n.Label, string(n.Kind)))
			continue
		}
		b.WriteString(fmt.Sprintf("  %q [label=%q];\n", id, n.Label))
	}

	b.WriteString("\n")
	for _, e := range g.Edges {
		b.WriteString(fmt.Sprintf("  %q -> %q [label=%q];\n", e.SourceID, e.TargetID, e.Label))
	}

	b.WriteString("}\n")
	return b.String()
}
