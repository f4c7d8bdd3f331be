// Package models defines the bodies that populate a scene. Obstacles and the
// robot share one Body type; Kind tells them apart.
package models

import (
	"fmt"
	"math"

	"github.com/pkg/errors"

	"github.com/zeusync/robosim/internal/core/geometry"
)

type EntityID uint32

// Kind distinguishes the two sorts of body in a scene.
type Kind uint8

const (
	KindObstacle Kind = iota
	KindRobot
)

func (k Kind) String() string {
	switch k {
	case KindObstacle:
		return "obstacle"
	case KindRobot:
		return "robot"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Body is a rectangle placed in the world. The hull is fixed in the body frame;
// the world outline is recomputed whenever the pose changes.
type Body struct {
	id     EntityID
	kind   Kind
	width  float64
	height float64
	pose   geometry.Pose
	hull   geometry.Polygon
	world  geometry.Polygon
	radius float64
}

var _ geometry.Shape = (*Body)(nil)

// NewBody builds a width by height body of the given kind at pose.
func NewBody(id EntityID, kind Kind, width, height float64, pose geometry.Pose) (*Body, error) {
	if !(width > 0) || !(height > 0) || math.IsInf(width, 0) || math.IsInf(height, 0) {
		return nil, errors.Wrapf(ErrInvalidDimensions, "%gx%g", width, height)
	}
	if !pose.IsFinite() {
		return nil, ErrInvalidPose
	}
	hull, err := geometry.Rect(width, height)
	if err != nil {
		return nil, errors.Wrapf(ErrInvalidDimensions, "hull: %v", err)
	}
	b := &Body{
		id:     id,
		kind:   kind,
		width:  width,
		height: height,
		hull:   hull,
		radius: math.Sqrt(0.25*width*width + 0.25*height*height),
	}
	b.place(pose)
	return b, nil
}

// NewObstacle builds a static obstacle from a scene record.
func NewObstacle(id EntityID, x, y, width, height, angle float64) (*Body, error) {
	return NewBody(id, KindObstacle, width, height, geometry.NewPose(x, y, angle))
}

func (b *Body) ID() EntityID   { return b.id }
func (b *Body) Kind() Kind     { return b.kind }
func (b *Body) Width() float64 { return b.width }

func (b *Body) Height() float64 { return b.height }

// Pose returns the current position and heading.
func (b *Body) Pose() geometry.Pose { return b.pose }

// Hull returns the body-frame outline.
func (b *Body) Hull() geometry.Polygon { return b.hull }

// Center implements geometry.Shape.
func (b *Body) Center() geometry.Vec2 { return b.pose.Position }

// BoundingRadius implements geometry.Shape: half the diagonal of the hull.
func (b *Body) BoundingRadius() float64 { return b.radius }

// Outline implements geometry.Shape: the hull in world space.
func (b *Body) Outline() geometry.Polygon { return b.world }

// SetPose moves the body. Obstacles are immutable once built.
func (b *Body) SetPose(p geometry.Pose) error {
	if b.kind == KindObstacle {
		return ErrImmutableBody
	}
	if !p.IsFinite() {
		return ErrInvalidPose
	}
	b.place(p)
	return nil
}

func (b *Body) place(p geometry.Pose) {
	b.pose = p
	b.world = b.hull.Transform(p)
}
