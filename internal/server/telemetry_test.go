package server

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/robosim/internal/core/events/bus"
	"github.com/zeusync/robosim/internal/core/geometry"
	"github.com/zeusync/robosim/internal/core/observability/log"
	"github.com/zeusync/robosim/internal/core/robot"
	"github.com/zeusync/robosim/internal/core/scene"
	"github.com/zeusync/robosim/internal/core/world"
)

func TestTelemetryStream(t *testing.T) {
	events := bus.New()
	r, err := robot.New(0, robot.DefaultSpec(), geometry.NewPose(250, 250, 0))
	require.NoError(t, err)
	w, err := world.New(r, events, log.NewNop())
	require.NoError(t, err)
	watcher := scene.NewWatcher("", 0, w, events, log.NewNop())
	require.NoError(t, watcher.Load())

	tel := NewTelemetry("", time.Hour, "session-1", w, watcher, events, log.NewNop())
	ts := httptest.NewServer(tel.Handler())
	defer ts.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	defer conn.Close()

	var hello Message
	require.NoError(t, conn.ReadJSON(&hello))
	assert.Equal(t, MessageHello, hello.Type)
	assert.Equal(t, "session-1", hello.Session)
	assert.NotEmpty(t, hello.Client)
	assert.Equal(t, uint64(1), hello.Seq)

	var snap Message
	require.NoError(t, conn.ReadJSON(&snap))
	require.Equal(t, MessageSnapshot, snap.Type)
	require.NotNil(t, snap.Snapshot)
	assert.Equal(t, world.Running, snap.Snapshot.State)
	assert.Len(t, snap.Snapshot.Obstacles, 1)
	assert.Len(t, snap.Snapshot.Robot.Outline, 4)
	assert.Equal(t, 1, tel.Clients())

	w.Restart()
	var ev Message
	require.NoError(t, conn.ReadJSON(&ev))
	require.Equal(t, MessageEvent, ev.Type)
	require.NotNil(t, ev.Event)
	assert.Equal(t, bus.WorldRestarted, ev.Event.Type)
	assert.Equal(t, uint64(3), ev.Seq)

	tel.stop()
	_, _, err = conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseGoingAway), "got %v", err)
	assert.Eventually(t, func() bool { return tel.Clients() == 0 }, time.Second, 5*time.Millisecond)
}

func TestTelemetryRejectsPlainHTTP(t *testing.T) {
	tel := NewTelemetry("", time.Second, "s", nil, nil, bus.New(), log.NewNop())
	ts := httptest.NewServer(tel.Handler())
	defer ts.Close()

	resp, err := ts.Client().Get(ts.URL + "/ws")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, 400, resp.StatusCode)
}
