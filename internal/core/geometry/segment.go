package geometry

// Segment is a line segment together with its supporting line, stored as a
// unit normal N and offset D so that a point x lies on the line when x·N = D.
type Segment struct {
	P1, P2 Vec2
	N      Vec2
	D      float64
}

// NewSegment builds the segment from p1 to p2. N is Perp(p2-p1) normalized.
func NewSegment(p1, p2 Vec2) (Segment, error) {
	n, err := p2.Sub(p1).Perp().Normalize()
	if err != nil {
		return Segment{}, ErrZeroLengthSegment
	}
	return Segment{P1: p1, P2: p2, N: n, D: p1.Dot(n)}, nil
}

// SegmentsOf returns the edges of poly in order.
func SegmentsOf(poly Polygon) []Segment {
	return poly.Segments()
}

// Side returns the signed distance of p from the segment's supporting line.
func (s Segment) Side(p Vec2) float64 {
	return p.Dot(s.N) - s.D
}

// Direction returns P2 - P1.
func (s Segment) Direction() Vec2 {
	return s.P2.Sub(s.P1)
}
