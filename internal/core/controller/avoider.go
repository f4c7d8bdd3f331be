package controller

import (
	"context"
	"time"

	"github.com/zeusync/robosim/internal/core/observability/log"
)

// AvoiderConfig tunes the autopilot.
type AvoiderConfig struct {
	// Speed is the base wheel velocity.
	Speed float64 `yaml:"speed"`
	// ProbeAngle is the side look, in degrees; negative looks left.
	ProbeAngle float64 `yaml:"probe_angle"`
	// DriftTurn steers toward the probed side when it is clear and away
	// from it when it is not.
	DriftTurn float64 `yaml:"drift_turn"`
	// EvadeTurn is applied when the way ahead is blocked.
	EvadeTurn float64 `yaml:"evade_turn"`
	// Interval is the pause between decisions.
	Interval time.Duration `yaml:"interval"`
}

func DefaultAvoiderConfig() AvoiderConfig {
	return AvoiderConfig{
		Speed:      100,
		ProbeAngle: -45,
		DriftTurn:  10,
		EvadeTurn:  40,
		Interval:   100 * time.Millisecond,
	}
}

// Avoider wanders while keeping clear of obstacles: it follows whatever is
// on the probed side at a distance and swerves hard when something is dead
// ahead.
type Avoider struct {
	ctrl   Controller
	config AvoiderConfig
	logger log.Log
}

func NewAvoider(ctrl Controller, config AvoiderConfig, logger log.Log) *Avoider {
	return &Avoider{
		ctrl:   ctrl,
		config: config,
		logger: logger.With(log.Component("avoider")),
	}
}

// Step makes one decision and drives on it. It returns the turn applied.
func (a *Avoider) Step(ctx context.Context) (float64, error) {
	turn, err := a.decide(ctx)
	if err != nil {
		return 0, err
	}
	if err = a.ctrl.Drive(ctx, a.config.Speed+turn, a.config.Speed-turn); err != nil {
		return 0, err
	}
	return turn, nil
}

func (a *Avoider) decide(ctx context.Context) (float64, error) {
	side, err := a.obstacleAt(ctx, a.config.ProbeAngle)
	if err != nil {
		return 0, err
	}
	turn := -a.config.DriftTurn
	if side {
		turn = a.config.DriftTurn
	}

	ahead, err := a.obstacleAt(ctx, 0)
	if err != nil {
		return 0, err
	}
	if ahead {
		turn = a.config.EvadeTurn
	}
	return turn, nil
}

func (a *Avoider) obstacleAt(ctx context.Context, angle float64) (bool, error) {
	if err := a.ctrl.SetSensorAngle(ctx, angle); err != nil {
		return false, err
	}
	d, err := a.ctrl.Sense(ctx)
	if err != nil {
		return false, err
	}
	return d > 0, nil
}

// Run steps every config.Interval until ctx is done, then stops the robot.
// A failed step is logged and retried on the next interval.
func (a *Avoider) Run(ctx context.Context) error {
	ticker := time.NewTicker(a.config.Interval)
	defer ticker.Stop()

	a.logger.Info("Autopilot started", log.Float64("speed", a.config.Speed))
	for {
		select {
		case <-ctx.Done():
			// ctx is gone, stop with a fresh one.
			stopCtx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			if err := a.ctrl.Drive(stopCtx, 0, 0); err != nil {
				a.logger.Warn("Stop failed", log.Error(err))
			}
			a.logger.Info("Autopilot stopped")
			return nil
		case <-ticker.C:
			turn, err := a.Step(ctx)
			if err != nil {
				a.logger.Warn("Step failed", log.Error(err))
				continue
			}
			a.logger.Debug("Step", log.Float64("turn", turn))
		}
	}
}
