// Package world owns the simulated scene: the robot, the static obstacles
// and the Running/Collided state machine advanced once per tick.
package world

import (
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/zeusync/robosim/internal/core/events/bus"
	"github.com/zeusync/robosim/internal/core/geometry"
	"github.com/zeusync/robosim/internal/core/models"
	"github.com/zeusync/robosim/internal/core/observability/log"
	"github.com/zeusync/robosim/internal/core/protocol"
	"github.com/zeusync/robosim/internal/core/robot"
)

const eventSource = "world"

// State is the world's simulation state.
type State uint8

const (
	Running State = iota
	Collided
)

func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case Collided:
		return "collided"
	default:
		return "unknown"
	}
}

func (s State) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *State) UnmarshalText(text []byte) error {
	switch strings.ToLower(string(text)) {
	case "running":
		*s = Running
	case "collided":
		*s = Collided
	default:
		return errors.Wrapf(ErrUnknownState, "%q", text)
	}
	return nil
}

// Inbox yields the commands received since the previous tick.
type Inbox interface {
	Drain() []protocol.Command
}

// CollisionEvent is the payload of bus.WorldCollided.
type CollisionEvent struct {
	Obstacle models.EntityID `json:"obstacle"`
	Pose     geometry.Pose   `json:"pose"`
	Tick     uint64          `json:"tick"`
}

// World is safe for concurrent use. The tick, the in-process controller
// handle and the read accessors all serialize on one mutex; remote commands
// never touch it directly but arrive through the inbox.
type World struct {
	mu sync.Mutex

	robot     *robot.Robot
	obstacles *obstacleSet
	state     State
	inbox     Inbox

	tick    uint64
	elapsed time.Duration

	events bus.EventBus
	logger log.Log
}

// New creates a running world around r with no obstacles.
func New(r *robot.Robot, events bus.EventBus, logger log.Log) (*World, error) {
	if r == nil {
		return nil, ErrNoRobot
	}
	empty, _ := newObstacleSet(nil)
	return &World{
		robot:     r,
		obstacles: empty,
		state:     Running,
		events:    events,
		logger:    logger.With(log.Component("world")),
	}, nil
}

// AttachInbox sets where Advance pulls remote commands from.
func (w *World) AttachInbox(in Inbox) {
	w.mu.Lock()
	w.inbox = in
	w.mu.Unlock()
}

// Advance applies pending commands and then, while Running, integrates the
// robot over dt and checks it against every obstacle. It reports whether
// the world is still running; the tick that collides already reports false.
//
// Commands are applied even when the world has collided, so sensor and
// encoder queries keep being answered.
func (w *World) Advance(dt time.Duration) bool {
	var pending []bus.Event
	defer func() { w.publish(pending) }()

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.inbox != nil {
		for _, cmd := range w.inbox.Drain() {
			pending = append(pending, w.apply(cmd)...)
		}
	}

	if w.state == Collided {
		return false
	}
	if dt <= 0 {
		return true
	}

	w.tick++
	w.elapsed += dt
	w.robot.Advance(dt)

	if hit, ok := w.obstacles.colliding(w.robot); ok {
		w.state = Collided
		pose := w.robot.Pose()
		w.logger.Warn("Robot collided",
			log.Int("obstacle", int(hit.ID())),
			log.Float64("x", pose.Position.X),
			log.Float64("y", pose.Position.Y),
			log.Float64("heading", pose.Heading),
			log.Int64("tick", int64(w.tick)))
		pending = append(pending, bus.NewEvent(bus.WorldCollided, eventSource, CollisionEvent{
			Obstacle: hit.ID(),
			Pose:     pose,
			Tick:     w.tick,
		}))
		return false
	}
	return true
}

// Restart puts the robot back at its start pose, zeroes its motion and
// encoders and returns the world to Running.
func (w *World) Restart() {
	w.mu.Lock()
	ev := w.restartLocked()
	w.mu.Unlock()
	w.publish([]bus.Event{ev})
}

func (w *World) restartLocked() bus.Event {
	from := w.state
	w.robot.Reset()
	w.state = Running
	w.logger.Info("World restarted", log.Stringer("from", from))
	return bus.NewEvent(bus.WorldRestarted, eventSource, w.robot.StartPose())
}

// SetStartPose records a new start pose and restarts the world at it.
func (w *World) SetStartPose(x, y, angle float64) error {
	w.mu.Lock()
	if err := w.robot.SetStartPose(geometry.NewPose(x, y, angle)); err != nil {
		w.mu.Unlock()
		return errors.Wrapf(ErrInvalidPose, "(%g, %g, %g)", x, y, angle)
	}
	ev := w.restartLocked()
	w.mu.Unlock()
	w.publish([]bus.Event{ev})
	return nil
}

// SetObstacles replaces the whole obstacle set. The robot keeps its pose
// and the state is left alone; a robot that now overlaps an obstacle is
// caught by the next Advance.
func (w *World) SetObstacles(bodies []*models.Body) error {
	set, err := newObstacleSet(bodies)
	if err != nil {
		return errors.Wrap(err, "build obstacle set")
	}
	w.mu.Lock()
	w.obstacles = set
	w.mu.Unlock()
	w.logger.Info("Obstacles replaced", log.Int("count", set.Len()))
	return nil
}

// State returns the current state.
func (w *World) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Running reports whether the world is in the Running state.
func (w *World) Running() bool { return w.State() == Running }

// Obstacles returns the current obstacles. The bodies are immutable.
func (w *World) Obstacles() []*models.Body {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]*models.Body, len(w.obstacles.bodies))
	copy(out, w.obstacles.bodies)
	return out
}

func (w *World) publish(events []bus.Event) {
	if w.events == nil {
		return
	}
	for _, ev := range events {
		if err := w.events.Publish(ev); err != nil {
			w.logger.Warn("Event handler failed",
				log.String("event", string(ev.Type)),
				log.Error(err))
		}
	}
}
