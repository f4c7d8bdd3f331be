package geometry

// SegmentsIntersect reports whether a and b properly cross: the endpoints of
// each lie strictly on opposite sides of the other's supporting line. Segments
// that only touch, share an endpoint or overlap collinearly do not intersect.
func SegmentsIntersect(a, b Segment) bool {
	return b.Side(a.P1)*b.Side(a.P2) < 0 && a.Side(b.P1)*a.Side(b.P2) < 0
}

// PolygonsIntersect reports whether any edge of a crosses any edge of b.
//
// Only boundary crossings are detected. A polygon nested entirely inside
// another has no crossing edges and is reported as not intersecting.
func PolygonsIntersect(a, b Polygon) bool {
	sa := a.Segments()
	sb := b.Segments()
	for _, si := range sa {
		for _, sj := range sb {
			if SegmentsIntersect(si, sj) {
				return true
			}
		}
	}
	return false
}

// Shape is anything placed in the world with a bounding circle and a
// world-space outline.
type Shape interface {
	Center() Vec2
	BoundingRadius() float64
	Outline() Polygon
}

// Overlaps is the broad phase: it reports whether the bounding circles of a
// and b can touch.
func Overlaps(a, b Shape) bool {
	return Distance(a.Center(), b.Center()) <= a.BoundingRadius()+b.BoundingRadius()
}

// Collides runs the broad phase and, when the bounding circles overlap, the
// exact edge crossing test on the outlines.
func Collides(a, b Shape) bool {
	if !Overlaps(a, b) {
		return false
	}
	return PolygonsIntersect(a.Outline(), b.Outline())
}
