package protocol

import "errors"

var (
	// Packet errors. The server drops such packets without replying.

	ErrEmptyPacket      = errors.New("empty packet")
	ErrUnknownVerb      = errors.New("unknown verb")
	ErrMalformedCommand = errors.New("malformed command")

	// Server errors

	ErrAddressInUse    = errors.New("address already in use")
	ErrServerClosed    = errors.New("server is closed")
	ErrShutdownTimeout = errors.New("receive loop did not stop in time")
	ErrInvalidConfig   = errors.New("invalid protocol configuration")
)
