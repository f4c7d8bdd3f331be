package scene

import (
	"context"
	"os"
	"sync/atomic"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/pkg/errors"

	"github.com/zeusync/robosim/internal/core/events/bus"
	"github.com/zeusync/robosim/internal/core/observability/log"
)

// LoadedEvent is the payload of bus.SceneLoaded.
type LoadedEvent struct {
	Path        string `json:"path"`
	Fingerprint uint64 `json:"fingerprint"`
	Obstacles   int    `json:"obstacles"`
}

// Watcher loads a scene file into a target and reloads it whenever the
// file's contents change. With an empty path it loads Default once.
type Watcher struct {
	path     string
	interval time.Duration
	target   Target
	events   bus.EventBus
	logger   log.Log

	current atomic.Pointer[Scene]
	// rejected is the fingerprint of the last contents that failed to load.
	rejected atomic.Pointer[uint64]
}

func NewWatcher(path string, interval time.Duration, target Target, events bus.EventBus, logger log.Log) *Watcher {
	return &Watcher{
		path:     path,
		interval: interval,
		target:   target,
		events:   events,
		logger:   logger.With(log.Component("scene")),
	}
}

// Current is the scene last applied, nil before Load.
func (w *Watcher) Current() *Scene { return w.current.Load() }

// Load applies the scene once. A broken file here is a startup error.
func (w *Watcher) Load() error {
	if w.path == "" {
		return w.apply(Default())
	}
	s, err := Load(w.path)
	if err != nil {
		return err
	}
	return w.apply(s)
}

// Run polls the file until ctx is done. Unreadable or invalid contents are
// logged and the previous scene stays in place.
func (w *Watcher) Run(ctx context.Context) error {
	if w.path == "" || w.interval <= 0 {
		<-ctx.Done()
		return nil
	}
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := w.Poll(); err != nil {
				w.logger.Warn("Scene reload failed", log.String("path", w.path), log.Error(err))
			}
		}
	}
}

// Poll reloads the file if its fingerprint changed and reports whether it did.
// Contents that already failed once are skipped silently until they change.
func (w *Watcher) Poll() (bool, error) {
	data, err := os.ReadFile(w.path)
	if err != nil {
		return false, errors.Wrap(err, "read scene")
	}
	sum := xxhash.Sum64(data)
	if cur := w.current.Load(); cur != nil && cur.Fingerprint == sum {
		return false, nil
	}
	if bad := w.rejected.Load(); bad != nil && *bad == sum {
		return false, nil
	}
	s, err := Parse(data)
	if err == nil {
		err = w.apply(s)
	}
	if err != nil {
		w.rejected.Store(&sum)
		return false, err
	}
	w.rejected.Store(nil)
	return true, nil
}

func (w *Watcher) apply(s *Scene) error {
	if err := Apply(w.target, s); err != nil {
		return err
	}
	w.current.Store(s)
	w.logger.Info("Scene loaded",
		log.String("path", w.path),
		log.Int("obstacles", len(s.Obstacles)),
		log.Int("decorations", len(s.Decorations)),
		log.Bool("start_pose", s.Start != nil))

	if w.events != nil {
		ev := bus.NewEvent(bus.SceneLoaded, "scene", LoadedEvent{
			Path:        w.path,
			Fingerprint: s.Fingerprint,
			Obstacles:   len(s.Obstacles),
		})
		if err := w.events.Publish(ev); err != nil {
			w.logger.Warn("Event handler failed", log.Error(err))
		}
	}
	return nil
}
