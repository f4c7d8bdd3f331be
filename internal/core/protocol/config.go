package protocol

import (
	"net"
	"time"

	"github.com/pkg/errors"
)

const (
	DefaultListenAddr = "127.0.0.1:9080"
	DefaultReplyPort  = 9081
	MaxPacketSize     = 256
)

// Config holds the UDP server settings.
type Config struct {
	// ListenAddr is where commands arrive.
	ListenAddr string `yaml:"listen_addr"`
	// ReplyPort is the fixed port replies go to, at the sender's IP.
	ReplyPort int `yaml:"reply_port"`

	MaxPacketSize int `yaml:"max_packet_size"`

	// PollInterval bounds each blocking read so the loop notices shutdown.
	PollInterval time.Duration `yaml:"poll_interval"`
	// ShutdownTimeout bounds how long Shutdown waits for the receive loop.
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// QueueSize caps undrained commands; further commands are dropped.
	// Zero leaves the queue unbounded.
	QueueSize int `yaml:"queue_size"`
	// ReplyBuffer caps replies waiting to be written; further replies are dropped.
	ReplyBuffer int `yaml:"reply_buffer"`
}

// DefaultConfig returns the stock ports and timings.
func DefaultConfig() Config {
	return Config{
		ListenAddr:      DefaultListenAddr,
		ReplyPort:       DefaultReplyPort,
		MaxPacketSize:   MaxPacketSize,
		PollInterval:    10 * time.Millisecond,
		ShutdownTimeout: time.Second,
		QueueSize:       1024,
		ReplyBuffer:     64,
	}
}

func (c Config) Validate() error {
	if _, err := net.ResolveUDPAddr("udp", c.ListenAddr); err != nil {
		return errors.Wrapf(ErrInvalidConfig, "listen_addr %q: %v", c.ListenAddr, err)
	}
	switch {
	case c.ReplyPort <= 0 || c.ReplyPort > 65535:
		return errors.Wrapf(ErrInvalidConfig, "reply_port %d", c.ReplyPort)
	case c.MaxPacketSize <= 0:
		return errors.Wrapf(ErrInvalidConfig, "max_packet_size %d", c.MaxPacketSize)
	case c.PollInterval <= 0:
		return errors.Wrapf(ErrInvalidConfig, "poll_interval %s", c.PollInterval)
	case c.ShutdownTimeout < c.PollInterval:
		return errors.Wrapf(ErrInvalidConfig, "shutdown_timeout %s shorter than poll_interval", c.ShutdownTimeout)
	case c.QueueSize < 0:
		return errors.Wrapf(ErrInvalidConfig, "queue_size %d", c.QueueSize)
	case c.ReplyBuffer <= 0:
		return errors.Wrapf(ErrInvalidConfig, "reply_buffer %d", c.ReplyBuffer)
	}
	return nil
}
