package geometry

import (
	"fmt"

	"github.com/pkg/errors"
)

// Polygon is a closed, simple polygon: edge i joins vertex i to vertex
// (i+1) mod n. Values are only produced by NewPolygon, Rect and Transform,
// so every Polygon has at least three distinct consecutive vertices and a
// non-zero area.
type Polygon struct {
	pts []Vec2
}

// NewPolygon validates pts and returns the polygon they describe.
func NewPolygon(pts ...Vec2) (Polygon, error) {
	if len(pts) < 3 {
		return Polygon{}, ErrTooFewVertices
	}
	for i, p := range pts {
		if !p.IsFinite() {
			return Polygon{}, errors.Wrapf(ErrNonFiniteCoordinate, "vertex %d", i)
		}
		if p == pts[(i+1)%len(pts)] {
			return Polygon{}, errors.Wrapf(ErrRepeatedVertex, "vertex %d", i)
		}
	}
	poly := Polygon{pts: append([]Vec2(nil), pts...)}
	if poly.SignedArea() == 0 {
		return Polygon{}, ErrDegeneratePolygon
	}
	return poly, nil
}

// Rect returns the w by h rectangle centred on the origin, wound
// counter-clockwise on screen so that the segment normals point outward.
func Rect(w, h float64) (Polygon, error) {
	hw, hh := w/2, h/2
	return NewPolygon(
		Vec2{-hw, -hh},
		Vec2{-hw, hh},
		Vec2{hw, hh},
		Vec2{hw, -hh},
	)
}

// Len returns the number of vertices.
func (p Polygon) Len() int { return len(p.pts) }

// Vertex returns vertex i.
func (p Polygon) Vertex(i int) Vec2 { return p.pts[i] }

// Vertices returns a copy of the vertex list.
func (p Polygon) Vertices() []Vec2 {
	return append([]Vec2(nil), p.pts...)
}

// Transform maps every vertex through pose.
func (p Polygon) Transform(pose Pose) Polygon {
	out := make([]Vec2, len(p.pts))
	for i, v := range p.pts {
		out[i] = pose.Apply(v)
	}
	return Polygon{pts: out}
}

// SignedArea is positive for clockwise winding on screen (y down).
func (p Polygon) SignedArea() float64 {
	var sum float64
	for i, a := range p.pts {
		sum += a.Cross(p.pts[(i+1)%len(p.pts)])
	}
	return sum / 2
}

// Segments returns one segment per edge, in edge order.
func (p Polygon) Segments() []Segment {
	out := make([]Segment, len(p.pts))
	for i := range p.pts {
		s, err := NewSegment(p.pts[i], p.pts[(i+1)%len(p.pts)])
		if err != nil {
			// unreachable for polygons built by this package
			panic(fmt.Sprintf("geometry: edge %d: %v", i, err))
		}
		out[i] = s
	}
	return out
}
