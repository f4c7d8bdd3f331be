package client

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/robosim/internal/core/geometry"
	"github.com/zeusync/robosim/internal/core/models"
	"github.com/zeusync/robosim/internal/core/observability/log"
	"github.com/zeusync/robosim/internal/core/protocol"
	"github.com/zeusync/robosim/internal/core/robot"
	"github.com/zeusync/robosim/internal/core/world"
)

// fakeSim is a bare UDP socket standing in for the simulator.
type fakeSim struct {
	conn *net.UDPConn
}

func newFakeSim(t *testing.T) *fakeSim {
	t.Helper()
	conn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return &fakeSim{conn: conn}
}

func (f *fakeSim) read(t *testing.T) string {
	t.Helper()
	buf := make([]byte, protocol.MaxPacketSize)
	require.NoError(t, f.conn.SetReadDeadline(time.Now().Add(time.Second)))
	n, _, err := f.conn.ReadFromUDP(buf)
	require.NoError(t, err)
	return string(buf[:n])
}

func (f *fakeSim) reply(t *testing.T, to net.Addr, msg string) {
	t.Helper()
	_, err := f.conn.WriteToUDP([]byte(msg), to.(*net.UDPAddr))
	require.NoError(t, err)
}

func testConfig(server string) Config {
	return Config{
		ServerAddr:   server,
		ReplyAddr:    "127.0.0.1:0",
		ReplyTimeout: 200 * time.Millisecond,
		PollInterval: 5 * time.Millisecond,
	}
}

func newClient(t *testing.T, config Config) *Client {
	t.Helper()
	c, err := New(config, log.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestCommandsOnTheWire(t *testing.T) {
	sim := newFakeSim(t)
	c := newClient(t, testConfig(sim.conn.LocalAddr().String()))
	ctx := context.Background()

	require.NoError(t, c.Drive(ctx, 10, -5.5))
	assert.Equal(t, "V 10 -5.5", sim.read(t))
	require.NoError(t, c.SetSensorAngle(ctx, -45))
	assert.Equal(t, "SA -45", sim.read(t))
	require.NoError(t, c.Reset(ctx))
	assert.Equal(t, "RESET", sim.read(t))
}

func TestSenseAndEncodersWaitForReply(t *testing.T) {
	sim := newFakeSim(t)
	c := newClient(t, testConfig(sim.conn.LocalAddr().String()))
	ctx := context.Background()

	go func() {
		buf := make([]byte, protocol.MaxPacketSize)
		for {
			n, _, err := sim.conn.ReadFromUDP(buf)
			if err != nil {
				return
			}
			to := c.ReplyAddr().(*net.UDPAddr)
			switch string(buf[:n]) {
			case "S":
				_, _ = sim.conn.WriteToUDP([]byte("S 42.5"), to)
			case "E":
				_, _ = sim.conn.WriteToUDP([]byte("E 7 -3"), to)
			}
		}
	}()

	d, err := c.Sense(ctx)
	require.NoError(t, err)
	assert.Equal(t, 42.5, d)

	l, r, err := c.ReadEncoders(ctx)
	require.NoError(t, err)
	assert.Equal(t, 7, l)
	assert.Equal(t, -3, r)
}

func TestStaleReplyIsDiscarded(t *testing.T) {
	sim := newFakeSim(t)
	c := newClient(t, testConfig(sim.conn.LocalAddr().String()))

	sim.reply(t, c.ReplyAddr(), "S 1")
	require.Eventually(t, func() bool { return len(c.sense) == 1 }, time.Second, 2*time.Millisecond)

	done := make(chan float64, 1)
	go func() {
		d, _ := c.Sense(context.Background())
		done <- d
	}()
	assert.Equal(t, "S", sim.read(t))
	sim.reply(t, c.ReplyAddr(), "S 2")
	assert.Equal(t, 2.0, <-done)
}

func TestReplyTimeout(t *testing.T) {
	sim := newFakeSim(t)
	c := newClient(t, testConfig(sim.conn.LocalAddr().String()))

	start := time.Now()
	_, err := c.Sense(context.Background())
	assert.ErrorIs(t, err, ErrReplyTimeout)
	assert.GreaterOrEqual(t, time.Since(start), 200*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err = c.ReadEncoders(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestClose(t *testing.T) {
	sim := newFakeSim(t)
	c, err := New(testConfig(sim.conn.LocalAddr().String()), log.NewNop())
	require.NoError(t, err)

	require.NoError(t, c.Close())
	assert.ErrorIs(t, c.Close(), ErrClientClosed)
	assert.ErrorIs(t, c.Drive(context.Background(), 1, 1), ErrClientClosed)
	_, err = c.Sense(context.Background())
	assert.ErrorIs(t, err, ErrClientClosed)
}

func TestNewRejectsBadConfig(t *testing.T) {
	_, err := New(Config{ServerAddr: "127.0.0.1:1", ReplyAddr: "127.0.0.1:0"}, log.NewNop())
	assert.ErrorIs(t, err, ErrInvalidConfig)

	config := testConfig("no port")
	_, err = New(config, log.NewNop())
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

// freePort finds a UDP port that is free right now.
func freePort(t *testing.T) int {
	t.Helper()
	conn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	require.NoError(t, err)
	port := conn.LocalAddr().(*net.UDPAddr).Port
	require.NoError(t, conn.Close())
	return port
}

func TestAgainstSimulator(t *testing.T) {
	replyPort := freePort(t)

	r, err := robot.New(0, robot.DefaultSpec(), geometry.NewPose(250, 250, 0))
	require.NoError(t, err)
	w, err := world.New(r, nil, log.NewNop())
	require.NoError(t, err)
	wall, err := models.NewObstacle(1, 250, 100, 150, 30, 0)
	require.NoError(t, err)
	require.NoError(t, w.SetObstacles([]*models.Body{wall}))

	sc := protocol.DefaultConfig()
	sc.ListenAddr = "127.0.0.1:0"
	sc.ReplyPort = replyPort
	sc.PollInterval = 5 * time.Millisecond
	srv, err := protocol.Listen(sc, log.NewNop())
	require.NoError(t, err)
	defer srv.Shutdown(context.Background())
	w.AttachInbox(srv)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		ticker := time.NewTicker(5 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				w.Advance(10 * time.Millisecond)
			}
		}
	}()

	config := testConfig(srv.Addr().String())
	config.ReplyAddr = (&net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: replyPort}).String()
	c := newClient(t, config)

	d, err := c.Sense(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 115, d, 1e-9)

	require.NoError(t, c.Drive(ctx, -20, -20))
	require.Eventually(t, func() bool {
		return w.Snapshot().Robot.Velocity == [2]float64{-20, -20}
	}, time.Second, 5*time.Millisecond)

	var left, right int
	require.Eventually(t, func() bool {
		l, r, err := c.ReadEncoders(ctx)
		if err != nil {
			return false
		}
		left += l
		right += r
		return left < 0 && right < 0
	}, 2*time.Second, 20*time.Millisecond)

	require.NoError(t, c.Reset(ctx))
	require.Eventually(t, func() bool {
		return w.Snapshot().Robot.Pose == geometry.NewPose(250, 250, 0)
	}, time.Second, 5*time.Millisecond)
}
