package protocol

import (
	"context"
	"net"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/pkg/errors"

	"github.com/zeusync/robosim/internal/core/observability/log"
	"github.com/zeusync/robosim/pkg/sequence"
)

// Server receives commands on a UDP socket and queues them for the
// simulation tick to apply. Replies produced by the tick are written back by
// a separate goroutine, so neither side ever waits on the other.
type Server struct {
	config Config
	logger log.Log

	conn  *net.UDPConn
	inbox *sequence.Queue[Command]

	replies chan outbound

	stopping atomic.Bool
	quit     chan struct{}
	recvDone chan struct{}
	sendDone chan struct{}

	received atomic.Uint64
	dropped  atomic.Uint64
	sent     atomic.Uint64
}

type outbound struct {
	to    *net.UDPAddr
	reply Reply
}

// Stats counts datagrams handled since Listen.
type Stats struct {
	Received uint64
	Dropped  uint64
	Sent     uint64
	Queued   int
}

// Listen binds config.ListenAddr and starts the receive loop. Binding happens
// exactly once; if the address is taken the error wraps ErrAddressInUse,
// which usually means another simulator is already running.
func Listen(config Config, logger log.Log) (*Server, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	laddr, err := net.ResolveUDPAddr("udp", config.ListenAddr)
	if err != nil {
		return nil, errors.Wrap(err, "resolve listen address")
	}
	conn, err := net.ListenUDP("udp", laddr)
	if err != nil {
		if errors.Is(err, syscall.EADDRINUSE) {
			return nil, errors.Wrap(ErrAddressInUse, config.ListenAddr)
		}
		return nil, errors.Wrapf(err, "bind %s", config.ListenAddr)
	}

	s := newServer(config, conn, logger)
	go s.receiveLoop()
	go s.sendLoop()

	s.logger.Info("Listening for commands",
		log.String("addr", conn.LocalAddr().String()),
		log.Int("reply_port", config.ReplyPort))
	return s, nil
}

// newServer wraps a bound socket without starting the loops.
func newServer(config Config, conn *net.UDPConn, logger log.Log) *Server {
	return &Server{
		config:   config,
		logger:   logger.With(log.Component("protocol")),
		conn:     conn,
		inbox:    sequence.NewQueue[Command](config.QueueSize),
		replies:  make(chan outbound, config.ReplyBuffer),
		quit:     make(chan struct{}),
		recvDone: make(chan struct{}),
		sendDone: make(chan struct{}),
	}
}

// Addr is the bound command address.
func (s *Server) Addr() net.Addr { return s.conn.LocalAddr() }

// Drain returns every command received since the previous call, oldest first.
func (s *Server) Drain() []Command { return s.inbox.Drain() }

func (s *Server) Stats() Stats {
	return Stats{
		Received: s.received.Load(),
		Dropped:  s.dropped.Load(),
		Sent:     s.sent.Load(),
		Queued:   s.inbox.Len(),
	}
}

// Shutdown raises the stop flag and waits, at most config.ShutdownTimeout,
// for the receive loop to notice it. A loop that does not stop in time is
// reported as ErrShutdownTimeout; the socket is closed either way.
func (s *Server) Shutdown(ctx context.Context) error {
	if !s.stopping.CompareAndSwap(false, true) {
		return ErrServerClosed
	}
	close(s.quit)

	timer := time.NewTimer(s.config.ShutdownTimeout)
	defer timer.Stop()

	var err error
	select {
	case <-s.recvDone:
	case <-timer.C:
		err = ErrShutdownTimeout
	case <-ctx.Done():
		err = ctx.Err()
	}
	<-s.sendDone

	if closeErr := s.conn.Close(); closeErr != nil && err == nil {
		err = errors.Wrap(closeErr, "close command socket")
	}
	if err != nil {
		s.logger.Error("Shutdown incomplete", log.Error(err))
		return err
	}
	s.logger.Info("Stopped", log.Int64("received", int64(s.received.Load())))
	return nil
}

func (s *Server) receiveLoop() {
	defer close(s.recvDone)
	buf := make([]byte, s.config.MaxPacketSize)
	for !s.stopping.Load() {
		if err := s.conn.SetReadDeadline(time.Now().Add(s.config.PollInterval)); err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			s.logger.Warn("Set read deadline failed", log.Error(err))
		}
		n, from, err := s.conn.ReadFromUDP(buf)
		if err != nil {
			var ne net.Error
			switch {
			case errors.As(err, &ne) && ne.Timeout():
				// nothing arrived this poll
			case errors.Is(err, net.ErrClosed):
				return
			default:
				s.logger.Warn("Receive failed", log.Error(err))
				s.pause()
			}
			continue
		}
		s.received.Add(1)
		s.handle(buf[:n], from)
	}
}

func (s *Server) handle(packet []byte, from *net.UDPAddr) {
	cmd, err := Parse(packet)
	if err != nil {
		s.dropped.Add(1)
		s.logger.Debug("Dropped packet",
			log.String("from", from.String()),
			log.Error(err))
		return
	}
	cmd.From = from
	if cmd.Kind == KindSense || cmd.Kind == KindEncoders {
		to := &net.UDPAddr{IP: from.IP, Port: s.config.ReplyPort, Zone: from.Zone}
		cmd.respond = func(r Reply) { s.enqueueReply(to, r) }
	}
	if !s.inbox.Push(cmd) {
		s.dropped.Add(1)
		s.logger.Warn("Command queue full", log.Stringer("kind", cmd.Kind))
	}
}

// enqueueReply never blocks; when the writer is behind the reply is lost,
// like any other lost datagram.
func (s *Server) enqueueReply(to *net.UDPAddr, r Reply) {
	if s.stopping.Load() {
		return
	}
	select {
	case s.replies <- outbound{to: to, reply: r}:
	default:
		s.dropped.Add(1)
		s.logger.Warn("Reply buffer full", log.Stringer("kind", r.Kind))
	}
}

func (s *Server) sendLoop() {
	defer close(s.sendDone)
	for {
		select {
		case <-s.quit:
			return
		case out := <-s.replies:
			if _, err := s.conn.WriteToUDP(out.reply.Encode(), out.to); err != nil {
				s.logger.Warn("Send reply failed",
					log.String("to", out.to.String()),
					log.Error(err))
				continue
			}
			s.sent.Add(1)
		}
	}
}

// pause keeps a persistent socket error from spinning the loop.
func (s *Server) pause() {
	select {
	case <-s.quit:
	case <-time.After(s.config.PollInterval):
	}
}
