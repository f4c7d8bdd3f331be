package world

import (
	"math"

	"github.com/dhconnelly/rtreego"

	"github.com/zeusync/robosim/internal/core/geometry"
	"github.com/zeusync/robosim/internal/core/models"
)

// boundsPad widens every box so that touching boxes, and rays running
// exactly along an axis, still produce a non-empty rectangle.
const boundsPad = 1e-3

// obstacleSet is an immutable snapshot of the scene's obstacles. The world
// swaps whole sets, so a query sees either the old set or the new one.
type obstacleSet struct {
	bodies []*models.Body
	index  *rtreego.Rtree
}

type indexedBody struct {
	body   *models.Body
	bounds rtreego.Rect
}

func (i indexedBody) Bounds() rtreego.Rect { return i.bounds }

func newObstacleSet(bodies []*models.Body) (*obstacleSet, error) {
	spatials := make([]rtreego.Spatial, 0, len(bodies))
	kept := make([]*models.Body, 0, len(bodies))
	for _, b := range bodies {
		if b == nil {
			continue
		}
		if b.Kind() != models.KindObstacle {
			return nil, ErrNotObstacle
		}
		bb, err := boundsOf(b.Outline().Vertices())
		if err != nil {
			return nil, err
		}
		spatials = append(spatials, indexedBody{body: b, bounds: bb})
		kept = append(kept, b)
	}
	return &obstacleSet{
		bodies: kept,
		index:  rtreego.NewTree(2, 4, 16, spatials...),
	}, nil
}

func (s *obstacleSet) Len() int { return len(s.bodies) }

// near returns the obstacles whose bounding boxes overlap the box around pts.
func (s *obstacleSet) near(pts ...geometry.Vec2) []*models.Body {
	if len(s.bodies) == 0 {
		return nil
	}
	bb, err := boundsOf(pts)
	if err != nil {
		// A non-finite query box cannot be indexed; fall back to everything.
		return s.bodies
	}
	hits := s.index.SearchIntersect(bb)
	out := make([]*models.Body, 0, len(hits))
	for _, h := range hits {
		out = append(out, h.(indexedBody).body)
	}
	return out
}

// colliding returns the first obstacle that collides with shape, if any.
func (s *obstacleSet) colliding(shape geometry.Shape) (*models.Body, bool) {
	for _, b := range s.near(shape.Outline().Vertices()...) {
		if geometry.Collides(shape, b) {
			return b, true
		}
	}
	return nil, false
}

// alongRay returns the obstacles a ray from origin of the given length
// could reach.
func (s *obstacleSet) alongRay(origin, dir geometry.Vec2, length float64) []geometry.Shape {
	bodies := s.near(origin, origin.Add(dir.Scale(length)))
	out := make([]geometry.Shape, len(bodies))
	for i, b := range bodies {
		out[i] = b
	}
	return out
}

func boundsOf(pts []geometry.Vec2) (rtreego.Rect, error) {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, p := range pts {
		if !p.IsFinite() {
			return rtreego.Rect{}, geometry.ErrNonFiniteCoordinate
		}
		minX, maxX = math.Min(minX, p.X), math.Max(maxX, p.X)
		minY, maxY = math.Min(minY, p.Y), math.Max(maxY, p.Y)
	}
	if len(pts) == 0 {
		return rtreego.Rect{}, geometry.ErrTooFewVertices
	}
	return rtreego.NewRect(
		rtreego.Point{minX - boundsPad, minY - boundsPad},
		[]float64{maxX - minX + 2*boundsPad, maxY - minY + 2*boundsPad},
	)
}
