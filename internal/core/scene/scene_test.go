package scene

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/robosim/internal/core/events/bus"
	"github.com/zeusync/robosim/internal/core/geometry"
	"github.com/zeusync/robosim/internal/core/models"
	"github.com/zeusync/robosim/internal/core/observability/log"
)

type recordingTarget struct {
	mu        sync.Mutex
	obstacles []*models.Body
	start     *geometry.Pose
	loads     int
}

func (r *recordingTarget) SetObstacles(bodies []*models.Body) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.obstacles = bodies
	r.loads++
	return nil
}

func (r *recordingTarget) SetStartPose(x, y, angle float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p := geometry.NewPose(x, y, angle)
	r.start = &p
	return nil
}

func (r *recordingTarget) count() (loads, obstacles int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.loads, len(r.obstacles)
}

const sample = `# arena
300 100 150 30 20
10, 10, 40, 40, 0   # comma separated

250 250 0
0 0 640 480
`

func TestParse(t *testing.T) {
	s, err := Parse([]byte(sample))
	require.NoError(t, err)
	require.Len(t, s.Obstacles, 2)
	assert.Equal(t, Obstacle{X: 300, Y: 100, Width: 150, Height: 30, Angle: 20}, s.Obstacles[0])
	assert.Equal(t, Obstacle{X: 10, Y: 10, Width: 40, Height: 40}, s.Obstacles[1])
	require.NotNil(t, s.Start)
	assert.Equal(t, geometry.NewPose(250, 250, 0), *s.Start)
	assert.Equal(t, []Decoration{{0, 0, 640, 480}}, s.Decorations)
	assert.NotZero(t, s.Fingerprint)

	again, err := Read(strings.NewReader(sample))
	require.NoError(t, err)
	assert.Equal(t, s.Fingerprint, again.Fingerprint)
}

func TestParseRejectsBadRecords(t *testing.T) {
	tests := []struct {
		name string
		data string
		line string
	}{
		{name: "two values", data: "1 2", line: "line 1"},
		{name: "six values", data: "# ok\n1 2 3 4 5 6", line: "line 2"},
		{name: "not a number", data: "1 2 x", line: "line 1"},
		{name: "nan", data: "1 2 NaN", line: "line 1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data))
			require.ErrorIs(t, err, ErrInvalidRecord)
			assert.Contains(t, err.Error(), tt.line)
		})
	}
}

func TestBodiesRejectsDegenerateObstacle(t *testing.T) {
	s, err := Parse([]byte("1 1 0 10 0"))
	require.NoError(t, err)
	_, err = s.Bodies()
	assert.ErrorIs(t, err, models.ErrInvalidDimensions)

	target := &recordingTarget{}
	assert.Error(t, Apply(target, s))
	loads, _ := target.count()
	assert.Zero(t, loads)
}

func TestApply(t *testing.T) {
	target := &recordingTarget{}
	require.NoError(t, Apply(target, Default()))
	loads, obstacles := target.count()
	assert.Equal(t, 1, loads)
	assert.Equal(t, 1, obstacles)
	assert.Equal(t, models.EntityID(1), target.obstacles[0].ID())
	require.NotNil(t, target.start)
	assert.Equal(t, geometry.NewPose(250, 250, 0), *target.start)
}

func writeScene(t *testing.T, path, data string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
}

func TestWatcherReloadsOnChange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "arena.scene")
	writeScene(t, path, "300 100 150 30 20\n")

	events := bus.New()
	var loaded []LoadedEvent
	_, _ = events.Subscribe(bus.SceneLoaded, func(e bus.Event) error {
		loaded = append(loaded, e.Data.(LoadedEvent))
		return nil
	})

	target := &recordingTarget{}
	w := NewWatcher(path, time.Hour, target, events, log.NewNop())
	require.NoError(t, w.Load())
	require.NotNil(t, w.Current())

	changed, err := w.Poll()
	require.NoError(t, err)
	assert.False(t, changed, "unchanged file must not reload")

	writeScene(t, path, "300 100 150 30 20\n10 10 5 5 0\n")
	changed, err = w.Poll()
	require.NoError(t, err)
	assert.True(t, changed)
	loads, obstacles := target.count()
	assert.Equal(t, 2, loads)
	assert.Equal(t, 2, obstacles)

	writeScene(t, path, "garbage\n")
	_, err = w.Poll()
	assert.ErrorIs(t, err, ErrInvalidRecord)
	assert.Len(t, w.Current().Obstacles, 2)

	changed, err = w.Poll()
	assert.NoError(t, err, "known-bad contents are reported once")
	assert.False(t, changed)

	writeScene(t, path, "garbage again\n")
	_, err = w.Poll()
	assert.ErrorIs(t, err, ErrInvalidRecord, "new contents are parsed again")

	require.Len(t, loaded, 2)
	assert.Equal(t, 2, loaded[1].Obstacles)
	assert.Equal(t, path, loaded[1].Path)

	writeScene(t, path, "garbage\n")
	_, err = w.Poll()
	assert.ErrorIs(t, err, ErrInvalidRecord)
	writeScene(t, path, "10 10 5 5 0\n")
	changed, err = w.Poll()
	require.NoError(t, err)
	assert.True(t, changed)
	_, obstacles = target.count()
	assert.Equal(t, 1, obstacles)
}

func TestWatcherRunPicksUpChanges(t *testing.T) {
	path := filepath.Join(t.TempDir(), "arena.scene")
	writeScene(t, path, "1 1 5 5 0\n")

	target := &recordingTarget{}
	w := NewWatcher(path, 5*time.Millisecond, target, nil, log.NewNop())
	require.NoError(t, w.Load())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	writeScene(t, path, "1 1 5 5 0\n20 20 5 5 0\n30 30 5 5 0\n")
	require.Eventually(t, func() bool {
		_, n := target.count()
		return n == 3
	}, time.Second, 5*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
}

func TestWatcherWithoutPathUsesDefault(t *testing.T) {
	target := &recordingTarget{}
	w := NewWatcher("", time.Second, target, nil, log.NewNop())
	require.NoError(t, w.Load())
	assert.Equal(t, Default().Obstacles, w.Current().Obstacles)

	_, err := NewWatcher(filepath.Join(t.TempDir(), "missing"), 0, target, nil, log.NewNop()).Poll()
	assert.Error(t, err)
	assert.Error(t, NewWatcher(filepath.Join(t.TempDir(), "missing"), 0, target, nil, log.NewNop()).Load())
}
