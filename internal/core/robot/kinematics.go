package robot

import (
	"math"
	"time"

	"github.com/zeusync/robosim/internal/core/geometry"
)

// Advance integrates the differential drive over dt.
//
// Time is consumed in whole MicroSteps on a grid fixed in absolute time:
// a remainder shorter than MicroStep is carried into the next call instead
// of being integrated as a short step. Each step is a straight move followed
// by a turn. With constant wheel velocities the encoder totals therefore
// depend only on the total time elapsed, however callers split it. The
// carried remainder is integrated with whatever velocities are set when it
// completes a step.
func (r *Robot) Advance(dt time.Duration) {
	if dt <= 0 {
		return
	}
	startL, startR := truncTicks(r.encoders[0]), truncTicks(r.encoders[1])

	total := r.carry + dt
	steps := total / MicroStep
	r.carry = total % MicroStep
	if steps == 0 {
		return
	}

	secs := MicroStep.Seconds()
	pl := secs * r.vl
	pr := secs * r.vr
	turn := geometry.Degrees(math.Atan2(pr-pl, r.track))
	forward := (pl + pr) / 2

	pose := r.Pose()
	for i := time.Duration(0); i < steps; i++ {
		pose.Position = pose.Position.Add(pose.Facing().Scale(forward))
		pose.Heading -= turn

		r.encoders[0] += pl
		r.encoders[1] += pr
	}
	// Velocities are clamped finite, so the pose stays finite and a robot
	// body always accepts it.
	_ = r.Body.SetPose(pose)

	endL, endR := truncTicks(r.encoders[0]), truncTicks(r.encoders[1])
	r.clicks[0] += endL - startL
	r.clicks[1] += endR - startR
}

// Pending is the time given to Advance that has not yet filled a MicroStep.
func (r *Robot) Pending() time.Duration { return r.carry }

func truncTicks(v float64) int {
	return int(math.Trunc(v))
}
