// Package client is the Go SDK for driving a simulated robot over the UDP
// command protocol, exactly as a controller on real hardware would.
package client

import (
	"context"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"

	"github.com/zeusync/robosim/internal/core/controller"
	"github.com/zeusync/robosim/internal/core/observability/log"
	"github.com/zeusync/robosim/internal/core/protocol"
)

var _ controller.Controller = (*Client)(nil)

// Client is a remote robot controller. Commands are fire-and-forget
// datagrams; Sense and ReadEncoders wait a bounded time for the answer on
// the reply port. A lost E reply loses those clicks for good.
type Client struct {
	send *net.UDPConn
	recv *net.UDPConn

	// query serializes request/reply pairs so replies are not mixed up.
	query    sync.Mutex
	sense    chan protocol.Reply
	encoders chan protocol.Reply

	closed atomic.Bool
	done   chan struct{}

	config Config
	logger log.Log

	workerGroup sync.WaitGroup
}

// Config holds configuration for the client
type Config struct {
	// ServerAddr is the simulator's command address.
	ServerAddr string
	// ReplyAddr is bound locally for replies. Its port must match the
	// simulator's reply port.
	ReplyAddr string

	// ReplyTimeout bounds the wait for an S or E answer.
	ReplyTimeout time.Duration
	// PollInterval bounds each blocking read of the reply socket.
	PollInterval time.Duration
}

// DefaultClientConfig returns default client configuration
func DefaultClientConfig() Config {
	return Config{
		ServerAddr:   protocol.DefaultListenAddr,
		ReplyAddr:    fmt.Sprintf("0.0.0.0:%d", protocol.DefaultReplyPort),
		ReplyTimeout: 10 * 20 * time.Millisecond,
		PollInterval: 50 * time.Millisecond,
	}
}

// New binds the reply socket and starts the reply reader.
func New(config Config, logger log.Log) (*Client, error) {
	if config.ReplyTimeout <= 0 || config.PollInterval <= 0 {
		return nil, ErrInvalidConfig
	}
	raddr, err := net.ResolveUDPAddr("udp", config.ServerAddr)
	if err != nil {
		return nil, errors.Wrapf(ErrInvalidConfig, "server address %q: %v", config.ServerAddr, err)
	}
	laddr, err := net.ResolveUDPAddr("udp", config.ReplyAddr)
	if err != nil {
		return nil, errors.Wrapf(ErrInvalidConfig, "reply address %q: %v", config.ReplyAddr, err)
	}

	recv, err := net.ListenUDP("udp", laddr)
	if err != nil {
		return nil, errors.Wrapf(err, "bind reply port %s", config.ReplyAddr)
	}
	send, err := net.DialUDP("udp", nil, raddr)
	if err != nil {
		_ = recv.Close()
		return nil, errors.Wrapf(err, "dial %s", config.ServerAddr)
	}

	c := &Client{
		send:     send,
		recv:     recv,
		sense:    make(chan protocol.Reply, 1),
		encoders: make(chan protocol.Reply, 1),
		done:     make(chan struct{}),
		config:   config,
		logger:   logger.With(log.Component("client"), log.String("server", config.ServerAddr)),
	}

	c.workerGroup.Add(1)
	go c.receiveLoop()

	c.logger.Info("Client ready", log.String("reply_addr", recv.LocalAddr().String()))
	return c, nil
}

// ReplyAddr is the bound reply address.
func (c *Client) ReplyAddr() net.Addr { return c.recv.LocalAddr() }

func (c *Client) Drive(ctx context.Context, left, right float64) error {
	return c.sendCommand(ctx, protocol.NewCommand(protocol.KindDrive, left, right))
}

func (c *Client) SetSensorAngle(ctx context.Context, angle float64) error {
	return c.sendCommand(ctx, protocol.NewCommand(protocol.KindServoAngle, angle))
}

func (c *Client) Reset(ctx context.Context) error {
	return c.sendCommand(ctx, protocol.NewCommand(protocol.KindReset))
}

// Sense returns the sensor distance, -1 meaning nothing in range.
func (c *Client) Sense(ctx context.Context) (float64, error) {
	r, err := c.request(ctx, protocol.KindSense, c.sense)
	if err != nil {
		return 0, err
	}
	return r.Distance(), nil
}

// ReadEncoders returns the clicks counted since the previous read.
func (c *Client) ReadEncoders(ctx context.Context) (left, right int, err error) {
	r, err := c.request(ctx, protocol.KindEncoders, c.encoders)
	if err != nil {
		return 0, 0, err
	}
	left, right = r.Clicks()
	return left, right, nil
}

// Close stops the reply reader and releases both sockets.
func (c *Client) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return ErrClientClosed
	}
	close(c.done)
	c.workerGroup.Wait()

	err := c.send.Close()
	if recvErr := c.recv.Close(); recvErr != nil && err == nil {
		err = recvErr
	}
	c.logger.Info("Client closed")
	return err
}

func (c *Client) sendCommand(ctx context.Context, cmd protocol.Command) error {
	if c.closed.Load() {
		return ErrClientClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := c.send.Write(cmd.Encode()); err != nil {
		return errors.Wrapf(err, "send %s", cmd.Kind)
	}
	return nil
}

func (c *Client) request(ctx context.Context, kind protocol.Kind, replies chan protocol.Reply) (protocol.Reply, error) {
	c.query.Lock()
	defer c.query.Unlock()

	// A late answer to an earlier request must not be taken for this one.
	select {
	case <-replies:
	default:
	}

	if err := c.sendCommand(ctx, protocol.NewCommand(kind)); err != nil {
		return protocol.Reply{}, err
	}

	timer := time.NewTimer(c.config.ReplyTimeout)
	defer timer.Stop()
	select {
	case r := <-replies:
		return r, nil
	case <-timer.C:
		return protocol.Reply{}, errors.Wrap(ErrReplyTimeout, kind.String())
	case <-ctx.Done():
		return protocol.Reply{}, ctx.Err()
	case <-c.done:
		return protocol.Reply{}, ErrClientClosed
	}
}

func (c *Client) receiveLoop() {
	defer c.workerGroup.Done()
	buf := make([]byte, protocol.MaxPacketSize)
	for {
		select {
		case <-c.done:
			return
		default:
		}

		_ = c.recv.SetReadDeadline(time.Now().Add(c.config.PollInterval))
		n, from, err := c.recv.ReadFromUDP(buf)
		if err != nil {
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				continue
			}
			if errors.Is(err, net.ErrClosed) {
				return
			}
			c.logger.Warn("Receive failed", log.Error(err))
			continue
		}

		r, err := protocol.ParseReply(buf[:n])
		if err != nil {
			c.logger.Debug("Ignored datagram",
				log.String("from", from.String()),
				log.Int("size", n),
				log.Error(err))
			continue
		}
		switch r.Kind {
		case protocol.KindSense:
			offer(c.sense, r)
		case protocol.KindEncoders:
			offer(c.encoders, r)
		}
	}
}

// offer keeps only the newest reply in a one-slot channel.
func offer(ch chan protocol.Reply, r protocol.Reply) {
	for {
		select {
		case ch <- r:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}
