package geometry

// RayNearestHit casts a ray of length maxLength from origin along dir and
// returns the distance to the nearest edge of poly it crosses. The second
// result is false when no edge is crossed.
//
// dir is normalized first; a zero dir or non-positive maxLength never hits.
// The nearest hit is the numeric minimum over all crossing edges, independent
// of edge order.
func RayNearestHit(origin, dir Vec2, maxLength float64, poly Polygon) (float64, bool) {
	if !(maxLength > 0) {
		return 0, false
	}
	unit, err := dir.Normalize()
	if err != nil {
		return 0, false
	}
	ray, err := NewSegment(origin, origin.Add(unit.Scale(maxLength)))
	if err != nil {
		return 0, false
	}

	best, hit := 0.0, false
	for _, edge := range poly.Segments() {
		if !SegmentsIntersect(ray, edge) {
			continue
		}
		t := crossingParameter(ray, edge)
		if t < 0 {
			continue
		}
		if !hit || t < best {
			best, hit = t, true
		}
	}
	if !hit {
		return 0, false
	}
	return best * maxLength, true
}

// crossingParameter solves p + t·r = q + u·s for t, where r and s are the
// directions of ray and edge.
func crossingParameter(ray, edge Segment) float64 {
	p, r := ray.P1, ray.Direction()
	q, s := edge.P1, edge.Direction()
	denom := r.Cross(s)
	if denom == 0 {
		return -1
	}
	return q.Sub(p).Cross(s) / denom
}
