// Package robot models the simulated differential-drive robot: two wheels with
// encoders, a body rectangle and a distance sensor on a rotatable servo.
package robot

import (
	"math"
	"time"

	"github.com/zeusync/robosim/internal/core/geometry"
	"github.com/zeusync/robosim/internal/core/models"
)

const (
	// MicroStep is the integration step of Advance.
	MicroStep = time.Millisecond

	DefaultMaxWheelSpeed = 250.0
	DefaultMaxServoAngle = 45.0
	DefaultSensorRange   = 200.0
)

// DefaultServoMount is where the sensor servo sits in the body frame.
var DefaultServoMount = geometry.V(0, -20)

// Spec describes the fixed properties of a robot.
type Spec struct {
	Width         float64
	Length        float64
	ServoMount    geometry.Vec2
	SensorRange   float64
	MaxWheelSpeed float64
	MaxServoAngle float64
}

// DefaultSpec returns a 40 by 50 robot with the stock servo and limits.
func DefaultSpec() Spec {
	return Spec{
		Width:         40,
		Length:        50,
		ServoMount:    DefaultServoMount,
		SensorRange:   DefaultSensorRange,
		MaxWheelSpeed: DefaultMaxWheelSpeed,
		MaxServoAngle: DefaultMaxServoAngle,
	}
}

// Robot is the mutable robot state. It is not safe for concurrent use; the
// world serializes access to it.
type Robot struct {
	*models.Body

	spec  Spec
	track float64
	start geometry.Pose

	vl, vr   float64
	servo    float64
	encoders [2]float64
	clicks   [2]int
	carry    time.Duration
}

// New builds a robot resting at start.
func New(id models.EntityID, spec Spec, start geometry.Pose) (*Robot, error) {
	body, err := models.NewBody(id, models.KindRobot, spec.Width, spec.Length, start)
	if err != nil {
		return nil, err
	}
	return &Robot{
		Body:  body,
		spec:  spec,
		track: spec.Width,
		start: start,
	}, nil
}

// Spec returns the robot's fixed properties.
func (r *Robot) Spec() Spec { return r.spec }

// TrackWidth is the distance between the wheels.
func (r *Robot) TrackWidth() float64 { return r.track }

// StartPose is the pose Reset returns to.
func (r *Robot) StartPose() geometry.Pose { return r.start }

// SetStartPose changes the pose Reset returns to. It does not move the robot.
func (r *Robot) SetStartPose(p geometry.Pose) error {
	if !p.IsFinite() {
		return models.ErrInvalidPose
	}
	r.start = p
	return nil
}

// Drive sets the wheel velocities, clamped to the configured maximum.
// Out-of-range values are clamped silently rather than rejected.
func (r *Robot) Drive(left, right float64) {
	r.vl = clamp(left, r.spec.MaxWheelSpeed, r.vl)
	r.vr = clamp(right, r.spec.MaxWheelSpeed, r.vr)
}

// Velocity returns the left and right wheel velocities.
func (r *Robot) Velocity() (left, right float64) { return r.vl, r.vr }

// SetServo sets the sensor servo angle, clamped to the configured maximum.
func (r *Robot) SetServo(angle float64) {
	r.servo = clamp(angle, r.spec.MaxServoAngle, r.servo)
}

// Servo returns the servo angle in degrees relative to the body.
func (r *Robot) Servo() float64 { return r.servo }

// Encoders returns the continuously integrated wheel travel.
func (r *Robot) Encoders() (left, right float64) { return r.encoders[0], r.encoders[1] }

// Clicks returns the whole encoder clicks accumulated since the last TakeClicks.
func (r *Robot) Clicks() (left, right int) { return r.clicks[0], r.clicks[1] }

// TakeClicks returns the accumulated clicks and zeroes the counters.
func (r *Robot) TakeClicks() (left, right int) {
	left, right = r.clicks[0], r.clicks[1]
	r.clicks = [2]int{}
	return left, right
}

// Reset puts the robot back at its start pose and zeroes velocity, servo,
// encoders and clicks.
func (r *Robot) Reset() {
	r.vl, r.vr = 0, 0
	r.servo = 0
	r.encoders = [2]float64{}
	r.clicks = [2]int{}
	r.carry = 0
	// The start pose is checked finite by New and SetStartPose.
	_ = r.Body.SetPose(r.start)
}

// SensorRay returns the world-space origin and unit direction of the distance
// sensor: the servo rotation about its mount composed with the body pose.
func (r *Robot) SensorRay() (origin, dir geometry.Vec2) {
	pose := r.Pose()
	origin = pose.Apply(r.spec.ServoMount)
	dir = pose.Direction(geometry.Forward.Rotate(r.servo))
	return origin, dir
}

// clamp limits v to [-limit, limit]. NaN carries no value and keeps prev.
func clamp(v, limit, prev float64) float64 {
	if math.IsNaN(v) {
		return prev
	}
	return math.Max(-limit, math.Min(limit, v))
}
