package layout

import (
	"sync"

	"github.com/msalah0e/ontoview/internal/geometry"
	"github.com/msalah0e/ontoview/internal/graph"
)

// Snapshot is one laid-out graph. Positions change only through Drag.
type Snapshot struct {
	Generation uint64        `json:"generation"`
	Size       geometry.Size `json:"size"`
	Nodes      []graph.Node  `json:"nodes"`
	Edges      []graph.Edge  `json:"edges"`

	index map[string]int
}

// NewSnapshot lays out g on a fresh circle. Earlier positions in g are
// discarded.
func NewSnapshot(g *graph.Graph, c Config, generation uint64) Snapshot {
	if g == nil {
		g = graph.New()
	}
	s := Snapshot{
		Generation: generation,
		Size:       c.NodeSize,
		Nodes:      Circular(g.Nodes, c),
		Edges:      append([]graph.Edge(nil), g.Edges...),
	}
	s.index = indexNodes(s.Nodes)
	return s
}

func indexNodes(nodes []graph.Node) map[string]int {
	idx := make(map[string]int, len(nodes))
	for i, n := range nodes {
		idx[n.ID] = i
	}
	return idx
}

// Node returns the node with id.
func (s Snapshot) Node(id string) (graph.Node, bool) {
	if s.index == nil {
		s.index = indexNodes(s.Nodes)
	}
	i, ok := s.index[id]
	if !ok {
		return graph.Node{}, false
	}
	return s.Nodes[i], true
}

// Rect returns the world-space rectangle of n.
func (s Snapshot) Rect(n graph.Node) geometry.Rect {
	return geometry.Rect{Center: geometry.Point{X: n.X, Y: n.Y}, Size: s.Size}
}

// HitTest returns the topmost node containing the world point p. Nodes
// drawn later sit on top, so the list is scanned from the end.
func (s Snapshot) HitTest(p geometry.Point) (string, bool) {
	for i := len(s.Nodes) - 1; i >= 0; i-- {
		if s.Rect(s.Nodes[i]).Contains(p) {
			return s.Nodes[i].ID, true
		}
	}
	return "", false
}

// Drag returns a copy of s with node id moved by a screen-space delta
// divided by zoom. Unknown ids and non-positive zoom leave s unchanged.
func Drag(s Snapshot, id string, delta geometry.Point, zoom float64) Snapshot {
	if zoom <= 0 {
		return s
	}
	if s.index == nil {
		s.index = indexNodes(s.Nodes)
	}
	i, ok := s.index[id]
	if !ok {
		return s
	}

	nodes := make([]graph.Node, len(s.Nodes))
	copy(nodes, s.Nodes)
	nodes[i].X += delta.X / zoom
	nodes[i].Y += delta.Y / zoom
	s.Nodes = nodes
	return s
}

// Engine owns the current snapshot. It is the only writer of node positions.
type Engine struct {
	mu   sync.RWMutex
	cfg  Config
	snap Snapshot
}

// NewEngine creates an engine holding an empty snapshot.
func NewEngine(c Config) *Engine {
	return &Engine{cfg: c, snap: NewSnapshot(nil, c, 0)}
}

// Config returns the layout configuration.
func (e *Engine) Config() Config {
	return e.cfg
}

// Load replaces the snapshot with a fresh layout of g.
func (e *Engine) Load(g *graph.Graph, generation uint64) Snapshot {
	s := NewSnapshot(g, e.cfg, generation)
	e.mu.Lock()
	e.snap = s
	e.mu.Unlock()
	return s
}

// Snapshot returns the current snapshot.
func (e *Engine) Snapshot() Snapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.snap
}

// DragNode moves node id by a screen-space delta at the given zoom.
// Reports whether the node exists.
func (e *Engine) DragNode(id string, delta geometry.Point, zoom float64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.snap.Node(id); !ok {
		return false
	}
	e.snap = Drag(e.snap, id, delta, zoom)
	return true
}

// HitTest returns the topmost node at world point p.
func (e *Engine) HitTest(p geometry.Point) (string, bool) {
	return e.Snapshot().HitTest(p)
}
