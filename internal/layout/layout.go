package layout

import (
	"math"

	"github.com/msalah0e/ontoview/internal/geometry"
	"github.com/msalah0e/ontoview/internal/graph"
)

// Config controls the initial arrangement.
type Config struct {
	NodeSize   geometry.Size `toml:"node_size"`
	BaseRadius float64       `toml:"base_radius" validate:"gt=0"`
	Spread     float64       `toml:"spread" validate:"gt=0"`
}

// DefaultConfig returns the stock node size and circle parameters.
func DefaultConfig() Config {
	return Config{
		NodeSize:   geometry.Size{W: 140, H: 60},
		BaseRadius: 180,
		Spread:     1.6,
	}
}

// Radius returns the circle radius for n nodes. It never drops below
// BaseRadius and grows so neighbouring rectangles do not overlap along the
// circumference.
func (c Config) Radius(n int) float64 {
	return math.Max(c.BaseRadius, c.NodeSize.W*float64(n)*c.Spread/(2*math.Pi))
}

// Circular returns a copy of nodes placed evenly around a circle centered on
// the origin. The first node sits at the top and the rest follow clockwise.
func Circular(nodes []graph.Node, c Config) []graph.Node {
	out := make([]graph.Node, len(nodes))
	copy(out, nodes)
	n := len(out)
	if n == 0 {
		return out
	}

	r := c.Radius(n)
	for i := range out {
		angle := 2*math.Pi*float64(i)/float64(n) - math.Pi/2
		out[i].X = r * math.Cos(angle)
		out[i].Y = r * math.Sin(angle)
	}
	return out
}
