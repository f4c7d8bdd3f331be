// Package config loads the simulator configuration from YAML.
package config

import (
	"math"
	"net"
	"os"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/zeusync/robosim/internal/core/geometry"
	"github.com/zeusync/robosim/internal/core/observability/log"
	"github.com/zeusync/robosim/internal/core/protocol"
	"github.com/zeusync/robosim/internal/core/robot"
)

// Config is the whole simulator configuration. Zero-valued sections in a
// file keep their defaults.
type Config struct {
	LogLevel   log.Level       `yaml:"log_level"`
	Server     protocol.Config `yaml:"server"`
	Simulation Simulation      `yaml:"simulation"`
	Robot      Robot           `yaml:"robot"`
	Scene      Scene           `yaml:"scene"`
	Telemetry  Telemetry       `yaml:"telemetry"`
}

type Simulation struct {
	// TickInterval is the elapsed time fed to each world advance.
	TickInterval time.Duration `yaml:"tick_interval"`
}

type Robot struct {
	Width         float64       `yaml:"width"`
	Length        float64       `yaml:"length"`
	StartX        float64       `yaml:"start_x"`
	StartY        float64       `yaml:"start_y"`
	StartAngle    float64       `yaml:"start_angle"`
	ServoMount    geometry.Vec2 `yaml:"servo_mount"`
	SensorRange   float64       `yaml:"sensor_range"`
	MaxWheelSpeed float64       `yaml:"max_wheel_speed"`
	MaxServoAngle float64       `yaml:"max_servo_angle"`
}

type Scene struct {
	// Path is the scene file. Empty means the built-in scene.
	Path string `yaml:"path"`
	// WatchInterval is how often the file is checked for changes; zero
	// disables reloading.
	WatchInterval time.Duration `yaml:"watch_interval"`
}

type Telemetry struct {
	Enabled    bool          `yaml:"enabled"`
	ListenAddr string        `yaml:"listen_addr"`
	Interval   time.Duration `yaml:"interval"`
}

// Default returns the stock configuration.
func Default() Config {
	spec := robot.DefaultSpec()
	return Config{
		LogLevel: log.LevelInfo,
		Server:   protocol.DefaultConfig(),
		Simulation: Simulation{
			TickInterval: 100 * time.Millisecond,
		},
		Robot: Robot{
			Width:         spec.Width,
			Length:        spec.Length,
			StartX:        250,
			StartY:        250,
			ServoMount:    spec.ServoMount,
			SensorRange:   spec.SensorRange,
			MaxWheelSpeed: spec.MaxWheelSpeed,
			MaxServoAngle: spec.MaxServoAngle,
		},
		Scene: Scene{
			WatchInterval: time.Second,
		},
		Telemetry: Telemetry{
			Enabled:    true,
			ListenAddr: "127.0.0.1:9090",
			Interval:   100 * time.Millisecond,
		},
	}
}

// Load reads path over the defaults and validates the result. An empty
// path yields the defaults.
func Load(path string) (Config, error) {
	c := Default()
	if path == "" {
		return c, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrapf(err, "read config %s", path)
	}
	if err = yaml.Unmarshal(data, &c); err != nil {
		return Config{}, errors.Wrapf(ErrInvalidConfig, "%s: %v", path, err)
	}
	if err = c.Validate(); err != nil {
		return Config{}, errors.Wrap(err, path)
	}
	return c, nil
}

func (c Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return err
	}
	if c.Simulation.TickInterval <= 0 {
		return errors.Wrapf(ErrInvalidConfig, "simulation.tick_interval %s", c.Simulation.TickInterval)
	}
	if err := c.Robot.validate(); err != nil {
		return err
	}
	if c.Scene.WatchInterval < 0 {
		return errors.Wrapf(ErrInvalidConfig, "scene.watch_interval %s", c.Scene.WatchInterval)
	}
	if c.Telemetry.Enabled {
		if _, _, err := net.SplitHostPort(c.Telemetry.ListenAddr); err != nil {
			return errors.Wrapf(ErrInvalidConfig, "telemetry.listen_addr %q", c.Telemetry.ListenAddr)
		}
		if c.Telemetry.Interval <= 0 {
			return errors.Wrapf(ErrInvalidConfig, "telemetry.interval %s", c.Telemetry.Interval)
		}
	}
	return nil
}

func (r Robot) validate() error {
	for name, v := range map[string]float64{
		"width":           r.Width,
		"length":          r.Length,
		"sensor_range":    r.SensorRange,
		"max_wheel_speed": r.MaxWheelSpeed,
		"max_servo_angle": r.MaxServoAngle,
	} {
		if !(v > 0) || math.IsInf(v, 0) {
			return errors.Wrapf(ErrInvalidConfig, "robot.%s %g", name, v)
		}
	}
	if !r.Start().IsFinite() || !r.ServoMount.IsFinite() {
		return errors.Wrap(ErrInvalidConfig, "robot start pose or servo mount")
	}
	return nil
}

// Spec is the robot's fixed description.
func (r Robot) Spec() robot.Spec {
	return robot.Spec{
		Width:         r.Width,
		Length:        r.Length,
		ServoMount:    r.ServoMount,
		SensorRange:   r.SensorRange,
		MaxWheelSpeed: r.MaxWheelSpeed,
		MaxServoAngle: r.MaxServoAngle,
	}
}

// Start is the configured start pose. A scene start record overrides it.
func (r Robot) Start() geometry.Pose { return geometry.NewPose(r.StartX, r.StartY, r.StartAngle) }
