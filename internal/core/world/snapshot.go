package world

import (
	"time"

	"github.com/zeusync/robosim/internal/core/geometry"
	"github.com/zeusync/robosim/internal/core/models"
)

// Snapshot is a read-only copy of the world, suitable for rendering.
type Snapshot struct {
	State     State          `json:"state"`
	Tick      uint64         `json:"tick"`
	Elapsed   time.Duration  `json:"elapsed"`
	Robot     RobotSnapshot  `json:"robot"`
	Obstacles []BodySnapshot `json:"obstacles"`
}

type BodySnapshot struct {
	ID      models.EntityID `json:"id"`
	Pose    geometry.Pose   `json:"pose"`
	Width   float64         `json:"width"`
	Height  float64         `json:"height"`
	Outline []geometry.Vec2 `json:"outline"`
}

type RobotSnapshot struct {
	BodySnapshot

	Velocity     [2]float64    `json:"velocity"`
	Servo        float64       `json:"servo"`
	Encoders     [2]float64    `json:"encoders"`
	SensorOrigin geometry.Vec2 `json:"sensor_origin"`
	SensorDir    geometry.Vec2 `json:"sensor_dir"`
}

func bodySnapshot(b *models.Body) BodySnapshot {
	return BodySnapshot{
		ID:      b.ID(),
		Pose:    b.Pose(),
		Width:   b.Width(),
		Height:  b.Height(),
		Outline: b.Outline().Vertices(),
	}
}

// Snapshot copies the current state.
func (w *World) Snapshot() Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()

	r := w.robot
	vl, vr := r.Velocity()
	el, er := r.Encoders()
	origin, dir := r.SensorRay()

	snap := Snapshot{
		State:   w.state,
		Tick:    w.tick,
		Elapsed: w.elapsed,
		Robot: RobotSnapshot{
			BodySnapshot: bodySnapshot(r.Body),
			Velocity:     [2]float64{vl, vr},
			Servo:        r.Servo(),
			Encoders:     [2]float64{el, er},
			SensorOrigin: origin,
			SensorDir:    dir,
		},
		Obstacles: make([]BodySnapshot, len(w.obstacles.bodies)),
	}
	for i, b := range w.obstacles.bodies {
		snap.Obstacles[i] = bodySnapshot(b)
	}
	return snap
}
