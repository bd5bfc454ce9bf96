package geometry

import "math"

// LabelOffset is the distance between an edge and its label anchor.
const LabelOffset = 8.0

// BoundaryPoint returns where the ray from center toward other leaves a
// rectangle of the given size centered at center. When the two points
// coincide the center itself is returned.
func BoundaryPoint(center, other Point, size Size) Point {
	d := other.Sub(center)
	if d.X == 0 && d.Y == 0 {
		return center
	}

	hw, hh := size.W/2, size.H/2
	ax, ay := math.Abs(d.X), math.Abs(d.Y)

	var scale float64
	if ax*hh > ay*hw {
		// exits through a vertical side
		scale = hw / ax
	} else {
		scale = hh / ay
	}
	return center.Add(d.Scale(scale))
}

// EdgeEndpoints returns the start and end of a directed edge drawn between
// two rectangles so that the line touches each border instead of the
// centers. Each end is computed independently from its own rectangle.
func EdgeEndpoints(src, dst Point, srcSize, dstSize Size) (start, end Point) {
	start = BoundaryPoint(src, dst, srcSize)
	end = BoundaryPoint(dst, src, dstSize)
	return start, end
}

// LabelAnchor returns the position for an edge label: the midpoint of the
// segment a-b pushed offset units along the segment normal that points up
// (negative y). A degenerate segment gets a plain vertical offset.
func LabelAnchor(a, b Point, offset float64) Point {
	mid := a.Midpoint(b)
	d := b.Sub(a)
	l := d.Len()
	if l == 0 {
		return Point{X: mid.X, Y: mid.Y - offset}
	}

	n := Point{X: -d.Y / l, Y: d.X / l}
	if n.Y > 0 || (n.Y == 0 && n.X > 0) {
		n = n.Scale(-1)
	}
	return mid.Add(n.Scale(offset))
}
