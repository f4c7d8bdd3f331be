// Package geometry holds the 2D primitives the simulator is built on: vectors,
// rigid poses, closed polygons, edge segments and the intersection tests that
// drive collision detection and the distance sensor.
//
// Coordinates follow screen conventions: x grows to the right and y grows
// downward, so a positive rotation turns clockwise on screen.
package geometry

import "math"

// Vec2 is a 2D vector. Two vectors are the same vector when their components are equal.
type Vec2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// V is shorthand for Vec2{X: x, Y: y}.
func V(x, y float64) Vec2 { return Vec2{X: x, Y: y} }

func (v Vec2) Add(o Vec2) Vec2 { return Vec2{v.X + o.X, v.Y + o.Y} }

func (v Vec2) Sub(o Vec2) Vec2 { return Vec2{v.X - o.X, v.Y - o.Y} }

func (v Vec2) Scale(f float64) Vec2 { return Vec2{v.X * f, v.Y * f} }

// Dot returns the scalar product of v and o.
func (v Vec2) Dot(o Vec2) float64 { return v.X*o.X + v.Y*o.Y }

// Cross returns the z component of the 3D cross product of v and o.
func (v Vec2) Cross(o Vec2) float64 { return v.X*o.Y - v.Y*o.X }

// Norm returns the Euclidean length of v.
func (v Vec2) Norm() float64 { return math.Hypot(v.X, v.Y) }

// Normalize returns v scaled to unit length. A zero vector has no direction
// and yields ErrZeroVector.
func (v Vec2) Normalize() (Vec2, error) {
	n := v.Norm()
	if n == 0 || math.IsNaN(n) || math.IsInf(n, 0) {
		return Vec2{}, ErrZeroVector
	}
	return Vec2{v.X / n, v.Y / n}, nil
}

// Perp rotates v by a quarter turn: (x, y) -> (-y, x).
func (v Vec2) Perp() Vec2 { return Vec2{-v.Y, v.X} }

// Rotate turns v by deg degrees about the origin.
func (v Vec2) Rotate(deg float64) Vec2 {
	sin, cos := math.Sincos(Radians(deg))
	return Vec2{v.X*cos - v.Y*sin, v.X*sin + v.Y*cos}
}

// IsFinite reports whether both components are neither NaN nor infinite.
func (v Vec2) IsFinite() bool {
	return isFinite(v.X) && isFinite(v.Y)
}

// Distance returns the Euclidean distance between a and b.
func Distance(a, b Vec2) float64 { return math.Hypot(b.X-a.X, b.Y-a.Y) }

// Radians converts degrees to radians.
func Radians(deg float64) float64 { return deg * math.Pi / 180 }

// Degrees converts radians to degrees.
func Degrees(rad float64) float64 { return rad * 180 / math.Pi }

func isFinite(f float64) bool { return !math.IsNaN(f) && !math.IsInf(f, 0) }
