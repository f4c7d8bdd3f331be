package geometry

// Forward is the body-frame direction a pose with heading 0 faces: up the screen.
var Forward = Vec2{0, -1}

// Pose is a rigid transform: a rotation by Heading degrees followed by a
// translation to Position.
type Pose struct {
	Position Vec2    `json:"position"`
	Heading  float64 `json:"heading"`
}

// NewPose builds a pose at (x, y) facing angle degrees.
func NewPose(x, y, angle float64) Pose {
	return Pose{Position: Vec2{x, y}, Heading: angle}
}

// Apply maps a body-frame point into world space.
func (p Pose) Apply(local Vec2) Vec2 {
	return local.Rotate(p.Heading).Add(p.Position)
}

// Direction maps a body-frame direction into world space. Translation does not
// apply to directions.
func (p Pose) Direction(local Vec2) Vec2 {
	return local.Rotate(p.Heading)
}

// Facing is the world-space unit vector the pose points along.
func (p Pose) Facing() Vec2 {
	return p.Direction(Forward)
}

// IsFinite reports whether every component of the pose is a finite number.
func (p Pose) IsFinite() bool {
	return p.Position.IsFinite() && isFinite(p.Heading)
}
