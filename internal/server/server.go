// Package server runs the simulator: it ticks the world, feeds it commands
// from the UDP protocol server, keeps the scene in sync with its file and
// streams telemetry.
package server

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/zeusync/robosim/internal/config"
	"github.com/zeusync/robosim/internal/core/observability/log"
	"github.com/zeusync/robosim/internal/core/protocol"
	"github.com/zeusync/robosim/internal/core/scene"
	"github.com/zeusync/robosim/internal/core/world"
)

// Server owns the simulator's goroutines. Build it with New (or the
// injector) and call Run once.
type Server struct {
	config config.Config
	logger log.Log

	world     *world.World
	proto     *protocol.Server
	scene     *scene.Watcher
	telemetry *Telemetry

	running atomic.Bool
	ticks   atomic.Uint64
}

// New assembles a server. telemetry may be nil.
func New(cfg config.Config, logger log.Log, w *world.World, proto *protocol.Server, watcher *scene.Watcher, telemetry *Telemetry) *Server {
	s := &Server{
		config:    cfg,
		logger:    logger.With(log.Component("server")),
		world:     w,
		proto:     proto,
		scene:     watcher,
		telemetry: telemetry,
	}
	s.logger.Info("Server created",
		log.String("listen_addr", proto.Addr().String()),
		log.Duration("tick", cfg.Simulation.TickInterval),
		log.Bool("telemetry", telemetry != nil),
		log.Stringer("log_level", s.logger.Level()))
	return s
}

// Run loads the scene and runs until ctx is done or a component fails.
// The protocol server is shut down on the way out either way.
func (s *Server) Run(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return ErrServerAlreadyRunning
	}
	if err := s.prepare(); err != nil {
		s.shutdownProtocol()
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return s.tickLoop(gctx) })
	g.Go(func() error { return s.scene.Run(gctx) })
	if s.telemetry != nil {
		g.Go(func() error { return s.telemetry.Serve(gctx) })
	}
	g.Go(func() error {
		<-gctx.Done()
		return s.shutdownProtocol()
	})

	s.logger.Info("Simulation started")
	err := g.Wait()
	s.logger.Info("Simulation stopped", log.Int64("ticks", int64(s.ticks.Load())))
	return err
}

func (s *Server) prepare() error {
	if err := s.scene.Load(); err != nil {
		return errors.Wrap(err, "load scene")
	}
	s.world.AttachInbox(s.proto)
	return nil
}

func (s *Server) tickLoop(ctx context.Context) error {
	ticker := time.NewTicker(s.config.Simulation.TickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.step()
		}
	}
}

// step advances the world by one tick interval. The tick always uses the
// configured interval, not wall-clock time, so runs are reproducible.
func (s *Server) step() bool {
	s.ticks.Add(1)
	return s.world.Advance(s.config.Simulation.TickInterval)
}

func (s *Server) shutdownProtocol() error {
	err := s.proto.Shutdown(context.Background())
	if errors.Is(err, protocol.ErrServerClosed) {
		return nil
	}
	return err
}

// Ticks is the number of ticks run so far.
func (s *Server) Ticks() uint64 { return s.ticks.Load() }
