package world

import (
	"context"

	"github.com/zeusync/robosim/internal/core/protocol"
)

// Handle is the in-process controller for the world's robot. It applies
// commands immediately, through the same handlers remote commands use.
type Handle struct {
	w *World
}

// Handle returns a controller bound to this world's robot.
func (w *World) Handle() *Handle { return &Handle{w: w} }

func (h *Handle) Drive(ctx context.Context, left, right float64) error {
	_, err := h.do(ctx, protocol.NewCommand(protocol.KindDrive, left, right))
	return err
}

func (h *Handle) SetSensorAngle(ctx context.Context, angle float64) error {
	_, err := h.do(ctx, protocol.NewCommand(protocol.KindServoAngle, angle))
	return err
}

// Sense returns the sensor distance, or -1 when nothing is in range.
func (h *Handle) Sense(ctx context.Context) (float64, error) {
	r, err := h.do(ctx, protocol.NewCommand(protocol.KindSense))
	if err != nil {
		return 0, err
	}
	return r.Distance(), nil
}

// ReadEncoders returns and zeroes the clicks counted since the last read.
func (h *Handle) ReadEncoders(ctx context.Context) (left, right int, err error) {
	r, err := h.do(ctx, protocol.NewCommand(protocol.KindEncoders))
	if err != nil {
		return 0, 0, err
	}
	left, right = r.Clicks()
	return left, right, nil
}

func (h *Handle) Reset(ctx context.Context) error {
	_, err := h.do(ctx, protocol.NewCommand(protocol.KindReset))
	return err
}

func (h *Handle) do(ctx context.Context, cmd protocol.Command) (protocol.Reply, error) {
	if err := ctx.Err(); err != nil {
		return protocol.Reply{}, err
	}
	var reply protocol.Reply
	cmd = cmd.WithResponder(func(r protocol.Reply) { reply = r })

	h.w.mu.Lock()
	events := h.w.apply(cmd)
	h.w.mu.Unlock()
	h.w.publish(events)
	return reply, nil
}
