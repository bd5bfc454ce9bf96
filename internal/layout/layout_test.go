package layout

import (
	"fmt"
	"math"
	"testing"

	"github.com/msalah0e/ontoview/internal/geometry"
	"github.com/msalah0e/ontoview/internal/graph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const eps = 1e-9

func nodes(n int) []graph.Node {
	out := make([]graph.Node, n)
	for i := range out {
		out[i] = graph.Node{ID: fmt.Sprintf("n%d", i), Label: fmt.Sprintf("N%d", i)}
	}
	return out
}

func TestRadius_Monotonic(t *testing.T) {
	c := DefaultConfig()
	prev := c.Radius(0)
	assert.Equal(t, 180.0, prev)
	for n := 1; n <= 500; n++ {
		r := c.Radius(n)
		require.GreaterOrEqual(t, r, prev, "radius decreased at n=%d", n)
		prev = r
	}
	assert.InDelta(t, 140*20*1.6/(2*math.Pi), c.Radius(20), eps)
}

func TestCircular_ThreeNodes(t *testing.T) {
	c := DefaultConfig()
	placed := Circular(nodes(3), c)
	require.Len(t, placed, 3)

	for _, n := range placed {
		assert.InDelta(t, 180, math.Hypot(n.X, n.Y), eps, "node %s not on circle", n.ID)
	}

	// first node at the top
	assert.InDelta(t, 0, placed[0].X, eps)
	assert.InDelta(t, -180, placed[0].Y, eps)

	for i := range placed {
		for j := i + 1; j < len(placed); j++ {
			a := geometry.Rect{Center: geometry.Point{X: placed[i].X, Y: placed[i].Y}, Size: c.NodeSize}
			b := geometry.Rect{Center: geometry.Point{X: placed[j].X, Y: placed[j].Y}, Size: c.NodeSize}
			assert.False(t, overlaps(a, b), "%s overlaps %s", placed[i].ID, placed[j].ID)
		}
	}
}

func TestCircular_Clockwise(t *testing.T) {
	placed := Circular(nodes(4), DefaultConfig())
	// top, right, bottom, left with y growing downward
	assert.InDelta(t, 180, placed[1].X, eps)
	assert.InDelta(t, 180, placed[2].Y, eps)
	assert.InDelta(t, -180, placed[3].X, eps)
}

func TestCircular_DoesNotMutateInput(t *testing.T) {
	in := nodes(2)
	_ = Circular(in, DefaultConfig())
	assert.Zero(t, in[0].X)
	assert.Zero(t, in[0].Y)
	assert.Empty(t, Circular(nil, DefaultConfig()))
}

func TestNewSnapshot_DiscardsPositions(t *testing.T) {
	g := graph.New()
	g.Nodes = append(g.Nodes, graph.Node{ID: "a", X: 999, Y: 999})
	s := NewSnapshot(g, DefaultConfig(), 3)
	n, ok := s.Node("a")
	require.True(t, ok)
	assert.InDelta(t, -180, n.Y, eps)
	assert.Equal(t, uint64(3), s.Generation)
}

func TestDrag(t *testing.T) {
	g := graph.New()
	g.Nodes = nodes(3)
	s := NewSnapshot(g, DefaultConfig(), 1)
	before0, _ := s.Node("n0")
	before1, _ := s.Node("n1")

	moved := Drag(s, "n0", geometry.Point{X: 20, Y: -10}, 2)

	after0, _ := moved.Node("n0")
	after1, _ := moved.Node("n1")
	assert.InDelta(t, before0.X+10, after0.X, eps)
	assert.InDelta(t, before0.Y-5, after0.Y, eps)
	assert.Equal(t, before1, after1, "only the dragged node moves")

	orig, _ := s.Node("n0")
	assert.Equal(t, before0, orig, "Drag must not mutate its input")

	assert.Equal(t, s, Drag(s, "missing", geometry.Point{X: 1}, 1))
	assert.Equal(t, s, Drag(s, "n0", geometry.Point{X: 1}, 0))
}

func TestHitTest_TopmostFirst(t *testing.T) {
	s := Snapshot{
		Size: geometry.Size{W: 140, H: 60},
		Nodes: []graph.Node{
			{ID: "bottom", X: 0, Y: 0},
			{ID: "top", X: 50, Y: 0},
		},
	}

	id, ok := s.HitTest(geometry.Point{X: 30, Y: 0})
	require.True(t, ok)
	assert.Equal(t, "top", id)

	id, ok = s.HitTest(geometry.Point{X: -60, Y: 0})
	require.True(t, ok)
	assert.Equal(t, "bottom", id)

	_, ok = s.HitTest(geometry.Point{X: 0, Y: 100})
	assert.False(t, ok)
}

func TestEngine(t *testing.T) {
	e := NewEngine(DefaultConfig())
	assert.Empty(t, e.Snapshot().Nodes)

	g := graph.New()
	g.Nodes = nodes(1)
	e.Load(g, 7)

	id, ok := e.HitTest(geometry.Point{X: 0, Y: -180})
	require.True(t, ok)
	assert.Equal(t, "n0", id)

	assert.True(t, e.DragNode("n0", geometry.Point{X: 0, Y: 180}, 1))
	n, _ := e.Snapshot().Node("n0")
	assert.InDelta(t, 0, n.Y, eps)
	assert.False(t, e.DragNode("nope", geometry.Point{}, 1))

	e.Load(g, 8)
	n, _ = e.Snapshot().Node("n0")
	assert.InDelta(t, -180, n.Y, eps, "reload resets positions")
}

func overlaps(a, b geometry.Rect) bool {
	amin, amax := a.Min(), a.Max()
	bmin, bmax := b.Min(), b.Max()
	return amin.X < bmax.X && bmin.X < amax.X && amin.Y < bmax.Y && bmin.Y < amax.Y
}
