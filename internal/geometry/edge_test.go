package geometry

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const eps = 1e-9

var nodeSize = Size{W: 140, H: 60}

// onBoundary reports whether p sits on the border of r within eps.
func onBoundary(r Rect, p Point) bool {
	dx := math.Abs(p.X - r.Center.X)
	dy := math.Abs(p.Y - r.Center.Y)
	hw, hh := r.Size.W/2, r.Size.H/2
	onVertical := math.Abs(dx-hw) < eps && dy <= hh+eps
	onHorizontal := math.Abs(dy-hh) < eps && dx <= hw+eps
	return onVertical || onHorizontal
}

func TestBoundaryPoint_Degenerate(t *testing.T) {
	c := Point{X: 10, Y: 20}
	assert.Equal(t, c, BoundaryPoint(c, c, nodeSize))
}

func TestBoundaryPoint_Axes(t *testing.T) {
	c := Point{}
	cases := []struct {
		name  string
		other Point
		want  Point
	}{
		{"right", Point{X: 500}, Point{X: 70}},
		{"left", Point{X: -500}, Point{X: -70}},
		{"down", Point{Y: 500}, Point{Y: 30}},
		{"up", Point{Y: -500}, Point{Y: -30}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := BoundaryPoint(c, tc.other, nodeSize)
			assert.InDelta(t, tc.want.X, got.X, eps)
			assert.InDelta(t, tc.want.Y, got.Y, eps)
		})
	}
}

func TestBoundaryPoint_Corner(t *testing.T) {
	// The diagonal of the rectangle hits the corner exactly.
	got := BoundaryPoint(Point{}, Point{X: 140, Y: 60}, nodeSize)
	assert.InDelta(t, 70, got.X, eps)
	assert.InDelta(t, 30, got.Y, eps)
}

func TestEdgeEndpoints_OnBoundaryFacingOther(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 2000; i++ {
		src := Point{X: rng.Float64()*2000 - 1000, Y: rng.Float64()*2000 - 1000}
		dst := Point{X: rng.Float64()*2000 - 1000, Y: rng.Float64()*2000 - 1000}
		if src == dst {
			continue
		}

		start, end := EdgeEndpoints(src, dst, nodeSize, nodeSize)

		require.Truef(t, onBoundary(Rect{Center: src, Size: nodeSize}, start),
			"start %v not on source boundary (src=%v dst=%v)", start, src, dst)
		require.Truef(t, onBoundary(Rect{Center: dst, Size: nodeSize}, end),
			"end %v not on target boundary (src=%v dst=%v)", end, src, dst)

		toward := dst.Sub(src)
		require.Greater(t, dot(start.Sub(src), toward), 0.0, "start must face the target")
		require.Greater(t, dot(end.Sub(dst), toward.Scale(-1)), 0.0, "end must face the source")
	}
}

func TestEdgeEndpoints_DifferentSizes(t *testing.T) {
	small := Size{W: 20, H: 20}
	start, end := EdgeEndpoints(Point{}, Point{X: 300}, nodeSize, small)
	assert.InDelta(t, 70, start.X, eps)
	assert.InDelta(t, 290, end.X, eps)
}

func TestLabelAnchor(t *testing.T) {
	t.Run("horizontal line puts label above", func(t *testing.T) {
		got := LabelAnchor(Point{X: 0}, Point{X: 100}, LabelOffset)
		assert.InDelta(t, 50, got.X, eps)
		assert.InDelta(t, -LabelOffset, got.Y, eps)
	})

	t.Run("direction does not flip side", func(t *testing.T) {
		a := LabelAnchor(Point{X: 0, Y: 0}, Point{X: 100, Y: 40}, LabelOffset)
		b := LabelAnchor(Point{X: 100, Y: 40}, Point{X: 0, Y: 0}, LabelOffset)
		assert.InDelta(t, a.X, b.X, eps)
		assert.InDelta(t, a.Y, b.Y, eps)
		assert.Less(t, a.Y, 20.0)
	})

	t.Run("degenerate segment", func(t *testing.T) {
		got := LabelAnchor(Point{X: 5, Y: 5}, Point{X: 5, Y: 5}, LabelOffset)
		assert.Equal(t, Point{X: 5, Y: 5 - LabelOffset}, got)
	})

	t.Run("offset distance", func(t *testing.T) {
		a, b := Point{X: -30, Y: 12}, Point{X: 70, Y: 90}
		got := LabelAnchor(a, b, LabelOffset)
		assert.InDelta(t, LabelOffset, got.Sub(a.Midpoint(b)).Len(), eps)
	})
}

func TestRectContains(t *testing.T) {
	r := Rect{Center: Point{X: 100, Y: 100}, Size: nodeSize}
	assert.True(t, r.Contains(Point{X: 100, Y: 100}))
	assert.True(t, r.Contains(Point{X: 170, Y: 130}), "border is inside")
	assert.False(t, r.Contains(Point{X: 171, Y: 100}))
	assert.False(t, r.Contains(Point{X: 100, Y: 69}))
}

func dot(a, b Point) float64 {
	return a.X*b.X + a.Y*b.Y
}
