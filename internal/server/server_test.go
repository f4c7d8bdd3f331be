package server

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/robosim/internal/config"
	"github.com/zeusync/robosim/internal/core/events/bus"
	"github.com/zeusync/robosim/internal/core/observability/log"
	"github.com/zeusync/robosim/internal/core/protocol"
	"github.com/zeusync/robosim/internal/core/robot"
	"github.com/zeusync/robosim/internal/core/scene"
	"github.com/zeusync/robosim/internal/core/world"
)

type stack struct {
	cfg       config.Config
	srv       *Server
	world     *world.World
	proto     *protocol.Server
	telemetry *Telemetry
	events    bus.EventBus
	client    *net.UDPConn
	replies   *net.UDPConn
}

func newStack(t *testing.T, withTelemetry bool) *stack {
	t.Helper()
	replies, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	require.NoError(t, err)
	t.Cleanup(func() { _ = replies.Close() })

	cfg := config.Default()
	cfg.Server.ListenAddr = "127.0.0.1:0"
	cfg.Server.ReplyPort = replies.LocalAddr().(*net.UDPAddr).Port
	cfg.Server.PollInterval = 5 * time.Millisecond
	cfg.Telemetry.ListenAddr = "127.0.0.1:0"
	require.NoError(t, cfg.Validate())

	logger := log.NewNop()
	events := bus.New()
	r, err := robot.New(0, cfg.Robot.Spec(), cfg.Robot.Start())
	require.NoError(t, err)
	w, err := world.New(r, events, logger)
	require.NoError(t, err)
	proto, err := protocol.Listen(cfg.Server, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = proto.Shutdown(context.Background()) })
	watcher := scene.NewWatcher(cfg.Scene.Path, cfg.Scene.WatchInterval, w, events, logger)

	var tel *Telemetry
	if withTelemetry {
		tel = NewTelemetry(cfg.Telemetry.ListenAddr, cfg.Telemetry.Interval, uuid.NewString(), w, watcher, events, logger)
	}

	client, err := net.DialUDP("udp", nil, proto.Addr().(*net.UDPAddr))
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	return &stack{
		cfg:       cfg,
		srv:       New(cfg, logger, w, proto, watcher, tel),
		world:     w,
		proto:     proto,
		telemetry: tel,
		events:    events,
		client:    client,
		replies:   replies,
	}
}

func (s *stack) send(t *testing.T, msgs ...string) {
	t.Helper()
	for _, m := range msgs {
		_, err := s.client.Write([]byte(m))
		require.NoError(t, err)
	}
}

// waitQueued blocks until n commands wait for the next tick.
func (s *stack) waitQueued(t *testing.T, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return s.proto.Stats().Queued == n },
		time.Second, 2*time.Millisecond)
}

func (s *stack) reply(t *testing.T) string {
	t.Helper()
	buf := make([]byte, protocol.MaxPacketSize)
	require.NoError(t, s.replies.SetReadDeadline(time.Now().Add(time.Second)))
	n, _, err := s.replies.ReadFromUDP(buf)
	require.NoError(t, err)
	return string(buf[:n])
}

func TestProtocolScenario(t *testing.T) {
	s := newStack(t, false)
	require.NoError(t, s.srv.prepare())

	s.send(t, "V 50 50")
	s.waitQueued(t, 1)
	for i := 0; i < 10; i++ {
		require.True(t, s.srv.step())
	}

	// Ten ticks of 100ms must count exactly what one 1s advance counts.
	ref, err := robot.New(0, s.cfg.Robot.Spec(), s.cfg.Robot.Start())
	require.NoError(t, err)
	ref.Drive(50, 50)
	ref.Advance(time.Second)
	want := protocol.EncodersReply(ref.Clicks())

	s.send(t, "E")
	s.waitQueued(t, 1)
	s.srv.step()
	assert.Equal(t, string(want.Encode()), s.reply(t))

	s.send(t, "RESET", "E")
	s.waitQueued(t, 2)
	s.srv.step()
	assert.Equal(t, "E 0 0", s.reply(t))

	s.send(t, "V 10 20")
	s.waitQueued(t, 1)
	s.srv.step()
	s.send(t, "V abc 10")
	require.Eventually(t, func() bool { return s.proto.Stats().Dropped == 1 },
		time.Second, 2*time.Millisecond)
	s.srv.step()
	assert.Equal(t, [2]float64{10, 20}, s.world.Snapshot().Robot.Velocity)

	s.send(t, "S")
	s.waitQueued(t, 1)
	s.srv.step()
	assert.Regexp(t, `^S -?[0-9.]+$`, s.reply(t))
}

func TestRunTicksAndStops(t *testing.T) {
	s := newStack(t, true)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- s.srv.Run(ctx) }()

	var addr net.Addr
	select {
	case addr = <-s.telemetry.Bound():
	case <-time.After(time.Second):
		t.Fatal("telemetry did not bind")
	}

	conn, _, err := websocket.DefaultDialer.Dial("ws://"+addr.String()+"/ws", nil)
	require.NoError(t, err)
	defer conn.Close()

	var hello Message
	require.NoError(t, conn.ReadJSON(&hello))
	assert.Equal(t, MessageHello, hello.Type)

	require.Eventually(t, func() bool { return s.srv.Ticks() > 0 }, 2*time.Second, 10*time.Millisecond)
	assert.Len(t, s.world.Obstacles(), 1, "default scene")
	assert.ErrorIs(t, s.srv.Run(ctx), ErrServerAlreadyRunning)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("Run did not return")
	}

	assert.ErrorIs(t, s.proto.Shutdown(context.Background()), protocol.ErrServerClosed)
	for {
		if _, _, err = conn.ReadMessage(); err != nil {
			break
		}
	}
	assert.True(t, websocket.IsCloseError(err, websocket.CloseGoingAway), "got %v", err)
}

func TestRunFailsOnBrokenScene(t *testing.T) {
	s := newStack(t, false)
	s.srv.scene = scene.NewWatcher("/nonexistent/arena.scene", 0, s.world, nil, log.NewNop())
	err := s.srv.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load scene")
	assert.ErrorIs(t, s.proto.Shutdown(context.Background()), protocol.ErrServerClosed)
}
