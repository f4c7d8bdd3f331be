package world

import (
	"fmt"

	"github.com/zeusync/robosim/internal/core/events/bus"
	"github.com/zeusync/robosim/internal/core/protocol"
	"github.com/zeusync/robosim/internal/core/sensor"
)

// handler applies one command to the world. It runs with w.mu held and
// returns the events to publish once the lock is released.
type handler func(w *World, cmd protocol.Command) []bus.Event

var handlers = map[protocol.Kind]handler{
	protocol.KindDrive: func(w *World, cmd protocol.Command) []bus.Event {
		w.robot.Drive(cmd.Arg(0), cmd.Arg(1))
		return nil
	},
	protocol.KindServoAngle: func(w *World, cmd protocol.Command) []bus.Event {
		w.robot.SetServo(cmd.Arg(0))
		return nil
	},
	protocol.KindSense: func(w *World, cmd protocol.Command) []bus.Event {
		cmd.Respond(protocol.SenseReply(w.senseLocked()))
		return nil
	},
	protocol.KindEncoders: func(w *World, cmd protocol.Command) []bus.Event {
		cmd.Respond(protocol.EncodersReply(w.robot.TakeClicks()))
		return nil
	},
	protocol.KindReset: func(w *World, _ protocol.Command) []bus.Event {
		return []bus.Event{w.restartLocked()}
	},
}

func init() {
	for _, k := range protocol.Kinds() {
		if _, ok := handlers[k]; !ok {
			panic(fmt.Sprintf("world: no handler for command %s", k))
		}
	}
}

func (w *World) apply(cmd protocol.Command) []bus.Event {
	h, ok := handlers[cmd.Kind]
	if !ok {
		// Parse never yields such a command.
		w.logger.Warn("Unhandled command")
		return nil
	}
	return h(w, cmd)
}

func (w *World) senseLocked() float64 {
	spec := w.robot.Spec()
	origin, dir := w.robot.SensorRay()
	return sensor.Range(origin, dir, spec.SensorRange, w.obstacles.alongRay(origin, dir, spec.SensorRange))
}
