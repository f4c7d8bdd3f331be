package injector

import (
	"github.com/google/uuid"
	"github.com/google/wire"

	"github.com/zeusync/robosim/internal/config"
	"github.com/zeusync/robosim/internal/core/events/bus"
	"github.com/zeusync/robosim/internal/core/observability/log"
	"github.com/zeusync/robosim/internal/core/protocol"
	"github.com/zeusync/robosim/internal/core/robot"
	"github.com/zeusync/robosim/internal/core/scene"
	"github.com/zeusync/robosim/internal/core/world"
	"github.com/zeusync/robosim/internal/server"
)

var ProviderSet = wire.NewSet(
	ProvideLogger,
	bus.New,
	ProvideRobot,
	world.New,
	ProvideProtocolServer,
	ProvideSceneWatcher,
	ProvideTelemetry,
	server.New,
)

func ProvideLogger(cfg config.Config) log.Log {
	return log.New(cfg.LogLevel)
}

func ProvideRobot(cfg config.Config) (*robot.Robot, error) {
	return robot.New(0, cfg.Robot.Spec(), cfg.Robot.Start())
}

func ProvideProtocolServer(cfg config.Config, logger log.Log) (*protocol.Server, error) {
	return protocol.Listen(cfg.Server, logger)
}

func ProvideSceneWatcher(cfg config.Config, w *world.World, events bus.EventBus, logger log.Log) *scene.Watcher {
	return scene.NewWatcher(cfg.Scene.Path, cfg.Scene.WatchInterval, w, events, logger)
}

// ProvideTelemetry returns nil when telemetry is disabled.
func ProvideTelemetry(cfg config.Config, w *world.World, watcher *scene.Watcher, events bus.EventBus, logger log.Log) *server.Telemetry {
	if !cfg.Telemetry.Enabled {
		return nil
	}
	session := uuid.NewString()
	logger.Info("Telemetry session", log.String("session", session))
	return server.NewTelemetry(cfg.Telemetry.ListenAddr, cfg.Telemetry.Interval, session, w, watcher, events, logger)
}
