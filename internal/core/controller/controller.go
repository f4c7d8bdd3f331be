// Package controller defines what a robot controller can do and provides an
// autopilot written against that capability only. The same code drives the
// robot in-process through world.Handle or remotely through the sdk client.
package controller

import (
	"context"

	"github.com/zeusync/robosim/internal/core/world"
)

// Controller is the capability a robot exposes to its driver.
type Controller interface {
	// Drive sets the left and right wheel velocities.
	Drive(ctx context.Context, left, right float64) error
	// SetSensorAngle turns the sensor servo, in degrees relative to the body.
	SetSensorAngle(ctx context.Context, angle float64) error
	// Sense returns the distance to the nearest obstacle along the sensor,
	// or -1 when nothing is in range.
	Sense(ctx context.Context) (float64, error)
	// ReadEncoders returns and zeroes the encoder clicks since the last read.
	ReadEncoders(ctx context.Context) (left, right int, err error)
	// Reset returns the robot to its start pose.
	Reset(ctx context.Context) error
}

var _ Controller = (*world.Handle)(nil)
