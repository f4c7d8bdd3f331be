package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"

	"github.com/zeusync/robosim/internal/core/events/bus"
	"github.com/zeusync/robosim/internal/core/observability/log"
	"github.com/zeusync/robosim/internal/core/scene"
	"github.com/zeusync/robosim/internal/core/world"
	"github.com/zeusync/robosim/pkg/generic"
)

const (
	writeWait    = 5 * time.Second
	pongWait     = 60 * time.Second
	pingInterval = 30 * time.Second
	eventBuffer  = 32
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 8192,
	CheckOrigin: func(r *http.Request) bool {
		return true // renderers are local tools
	},
}

// MessageType tags telemetry frames.
type MessageType string

const (
	MessageHello    MessageType = "hello"
	MessageSnapshot MessageType = "snapshot"
	MessageEvent    MessageType = "event"
)

// Message is one JSON frame on the telemetry stream.
type Message struct {
	Type        MessageType        `json:"type"`
	Session     string             `json:"session"`
	Client      string             `json:"client,omitempty"`
	Seq         uint64             `json:"seq"`
	Snapshot    *world.Snapshot    `json:"snapshot,omitempty"`
	Decorations []scene.Decoration `json:"decorations,omitempty"`
	Event       *bus.Event         `json:"event,omitempty"`
}

// Telemetry streams world snapshots and lifecycle events to websocket
// clients on /ws. It is read-only: clients cannot steer the robot.
type Telemetry struct {
	addr     string
	interval time.Duration
	session  string

	world  *world.World
	scene  *scene.Watcher
	events bus.EventBus
	logger log.Log

	clients  atomic.Int64
	quit     chan struct{}
	quitOnce sync.Once
	bound    chan net.Addr
}

func NewTelemetry(addr string, interval time.Duration, session string, w *world.World, watcher *scene.Watcher, events bus.EventBus, logger log.Log) *Telemetry {
	return &Telemetry{
		addr:     addr,
		interval: interval,
		session:  session,
		world:    w,
		scene:    watcher,
		events:   events,
		logger:   logger.With(log.Component("telemetry")),
		quit:     make(chan struct{}),
		bound:    make(chan net.Addr, 1),
	}
}

// Handler serves the telemetry endpoints.
func (t *Telemetry) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", t.handleWebSocket)
	return mux
}

// Clients is the number of connected websocket clients.
func (t *Telemetry) Clients() int { return int(t.clients.Load()) }

// Bound yields the listening address once Serve has bound it.
func (t *Telemetry) Bound() <-chan net.Addr { return t.bound }

// Serve listens on the configured address until ctx is done, then closes
// every client stream.
func (t *Telemetry) Serve(ctx context.Context) error {
	ln, err := net.Listen("tcp", t.addr)
	if err != nil {
		return errors.Wrapf(err, "telemetry listen %s", t.addr)
	}
	t.bound <- ln.Addr()

	srv := &http.Server{
		Handler:           t.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()
	t.logger.Info("Telemetry listening", log.String("addr", ln.Addr().String()))

	select {
	case err = <-errCh:
		t.stop()
		return errors.Wrap(err, "telemetry serve")
	case <-ctx.Done():
	}

	t.stop()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err = srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "telemetry shutdown")
	}
	if err = <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "telemetry serve")
	}
	return nil
}

func (t *Telemetry) stop() { t.quitOnce.Do(func() { close(t.quit) }) }

func (t *Telemetry) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		t.logger.Warn("Upgrade failed", log.Error(err))
		return
	}
	c := &telemetryClient{
		id:     uuid.NewString(),
		conn:   conn,
		events: make(chan bus.Event, eventBuffer),
		done:   make(chan struct{}),
	}

	sub, err := t.events.Subscribe(bus.AllEvents, func(e bus.Event) error {
		select {
		case c.events <- e:
		default:
			// slow reader, the next snapshot carries the state anyway
		}
		return nil
	})
	if err != nil {
		t.logger.Error("Subscribe failed", log.Error(err))
		_ = conn.Close()
		return
	}

	t.clients.Add(1)
	t.logger.Info("Client connected",
		log.String("client", c.id),
		log.String("remote", conn.RemoteAddr().String()))

	go c.readPump()
	t.writePump(c)

	_ = t.events.Unsubscribe(sub)
	t.clients.Add(-1)
	t.logger.Info("Client disconnected", log.String("client", c.id))
}

type telemetryClient struct {
	id     string
	conn   *websocket.Conn
	events chan bus.Event
	done   chan struct{}
	seq    uint64
}

// readPump discards client input; it exists to process control frames and
// notice when the peer goes away.
func (c *telemetryClient) readPump() {
	defer close(c.done)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (t *Telemetry) writePump(c *telemetryClient) {
	frames := time.NewTicker(t.interval)
	pings := time.NewTicker(pingInterval)
	defer func() {
		frames.Stop()
		pings.Stop()
		_ = c.conn.Close()
	}()

	if err := t.send(c, Message{Type: MessageHello, Client: c.id}); err != nil {
		return
	}
	if err := t.sendSnapshot(c); err != nil {
		return
	}

	for {
		var err error
		select {
		case <-t.quit:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"))
			return
		case <-c.done:
			return
		case e := <-c.events:
			err = t.send(c, Message{Type: MessageEvent, Event: &e})
		case <-frames.C:
			err = t.sendSnapshot(c)
		case <-pings.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			err = c.conn.WriteMessage(websocket.PingMessage, nil)
		}
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				t.logger.Debug("Write failed", log.String("client", c.id), log.Error(err))
			}
			return
		}
	}
}

func (t *Telemetry) sendSnapshot(c *telemetryClient) error {
	snap := t.world.Snapshot()
	msg := Message{Type: MessageSnapshot, Snapshot: &snap}
	if t.scene != nil {
		if cur := t.scene.Current(); cur != nil {
			msg.Decorations = cur.Decorations
		}
	}
	return t.send(c, msg)
}

var framePool = generic.NewHotPool(func() *bytes.Buffer { return new(bytes.Buffer) }, (*bytes.Buffer).Reset, 4)

func (t *Telemetry) send(c *telemetryClient, msg Message) error {
	c.seq++
	msg.Seq = c.seq
	msg.Session = t.session

	buf := framePool.Get()
	defer framePool.Put(buf)
	if err := json.NewEncoder(buf).Encode(msg); err != nil {
		return errors.Wrap(err, "encode telemetry message")
	}
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(websocket.TextMessage, buf.Bytes())
}
