package geometry

import "math"

// Point is a 2D coordinate. Depending on context it lives in world space
// (node centers) or screen space (pointer positions, draw list).
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Add returns p + q.
func (p Point) Add(q Point) Point {
	return Point{X: p.X + q.X, Y: p.Y + q.Y}
}

// Sub returns p - q.
func (p Point) Sub(q Point) Point {
	return Point{X: p.X - q.X, Y: p.Y - q.Y}
}

// Scale returns p multiplied by k.
func (p Point) Scale(k float64) Point {
	return Point{X: p.X * k, Y: p.Y * k}
}

// Len returns the Euclidean length of p taken as a vector.
func (p Point) Len() float64 {
	return math.Hypot(p.X, p.Y)
}

// Midpoint returns the point halfway between p and q.
func (p Point) Midpoint(q Point) Point {
	return Point{X: (p.X + q.X) / 2, Y: (p.Y + q.Y) / 2}
}

// Size is the width and height of a node rectangle.
type Size struct {
	W float64 `json:"w" toml:"width" validate:"gte=0"`
	H float64 `json:"h" toml:"height" validate:"gte=0"`
}

// Rect is an axis-aligned rectangle described by its center.
type Rect struct {
	Center Point `json:"center"`
	Size   Size  `json:"size"`
}

// Min returns the top-left corner.
func (r Rect) Min() Point {
	return Point{X: r.Center.X - r.Size.W/2, Y: r.Center.Y - r.Size.H/2}
}

// Max returns the bottom-right corner.
func (r Rect) Max() Point {
	return Point{X: r.Center.X + r.Size.W/2, Y: r.Center.Y + r.Size.H/2}
}

// Contains reports whether p lies inside r or on its border.
func (r Rect) Contains(p Point) bool {
	lo, hi := r.Min(), r.Max()
	return p.X >= lo.X && p.X <= hi.X && p.Y >= lo.Y && p.Y <= hi.Y
}
