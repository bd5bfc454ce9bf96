package render

import (
	"github.com/msalah0e/ontoview/internal/geometry"
	"github.com/msalah0e/ontoview/internal/graph"
	"github.com/msalah0e/ontoview/internal/layout"
	"github.com/msalah0e/ontoview/internal/viewport"
)

// Node colors by kind.
const (
	ColorObjectType = "#1677ff"
	ColorDefault    = "#faad14"
)

// NodeOp draws one node rectangle with its label, in screen coordinates.
type NodeOp struct {
	ID    string        `json:"id"`
	Label string        `json:"label"`
	Kind  graph.Kind    `json:"kind,omitempty"`
	Rect  geometry.Rect `json:"rect"`
	Color string        `json:"color"`
}

// EdgeOp draws one edge line from border to border, in screen coordinates.
type EdgeOp struct {
	SourceID string         `json:"sourceId"`
	TargetID string         `json:"targetId"`
	Label    string         `json:"label,omitempty"`
	Shape    string         `json:"shape,omitempty"`
	From     geometry.Point `json:"from"`
	To       geometry.Point `json:"to"`
	LabelAt  geometry.Point `json:"labelAt"`
}

// DrawList is everything needed to paint one frame. Edges are painted
// first so nodes sit on top of them.
type DrawList struct {
	Generation uint64             `json:"generation"`
	Transform  viewport.Transform `json:"transform"`
	Edges      []EdgeOp           `json:"edges"`
	Nodes      []NodeOp           `json:"nodes"`
}

// Color returns the node color for a kind.
func Color(k graph.Kind) string {
	if k == graph.KindObjectType {
		return ColorObjectType
	}
	return ColorDefault
}

// Draw computes the draw list for snapshot s seen through t. Edge geometry
// is worked out in world space and then mapped to the screen, so lines
// stay attached to node borders at any zoom.
func Draw(s layout.Snapshot, t viewport.Transform) DrawList {
	d := DrawList{
		Generation: s.Generation,
		Transform:  t,
		Edges:      make([]EdgeOp, 0, len(s.Edges)),
		Nodes:      make([]NodeOp, 0, len(s.Nodes)),
	}
	screen := geometry.Size{W: s.Size.W * t.Scale, H: s.Size.H * t.Scale}

	for _, e := range s.Edges {
		src, ok := s.Node(e.SourceID)
		if !ok {
			continue
		}
		dst, ok := s.Node(e.TargetID)
		if !ok {
			continue
		}
		a, b := geometry.EdgeEndpoints(center(src), center(dst), s.Size, s.Size)
		d.Edges = append(d.Edges, EdgeOp{
			SourceID: e.SourceID,
			TargetID: e.TargetID,
			Label:    e.Label,
			Shape:    e.Shape,
			From:     t.Apply(a),
			To:       t.Apply(b),
			LabelAt:  t.Apply(geometry.LabelAnchor(a, b, geometry.LabelOffset)),
		})
	}

	for _, n := range s.Nodes {
		label := n.Label
		if label == "" {
			label = n.ID
		}
		d.Nodes = append(d.Nodes, NodeOp{
			ID:    n.ID,
			Label: label,
			Kind:  n.Kind,
			Rect:  geometry.Rect{Center: t.Apply(center(n)), Size: screen},
			Color: Color(n.Kind),
		})
	}
	return d
}

func center(n graph.Node) geometry.Point {
	return geometry.Point{X: n.X, Y: n.Y}
}

// Bounds returns the smallest screen rectangle containing every node, or a
// zero Rect for an empty list.
func (d DrawList) Bounds() geometry.Rect {
	if len(d.Nodes) == 0 {
		return geometry.Rect{}
	}
	lo, hi := d.Nodes[0].Rect.Min(), d.Nodes[0].Rect.Max()
	for _, n := range d.Nodes[1:] {
		mn, mx := n.Rect.Min(), n.Rect.Max()
		lo.X, lo.Y = min(lo.X, mn.X), min(lo.Y, mn.Y)
		hi.X, hi.Y = max(hi.X, mx.X), max(hi.Y, mx.Y)
	}
	return geometry.Rect{
		Center: lo.Midpoint(hi),
		Size:   geometry.Size{W: hi.X - lo.X, H: hi.Y - lo.Y},
	}
}
