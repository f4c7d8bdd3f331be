// Package protocol implements the plain-text UDP command protocol a remote
// controller uses to drive the simulated robot.
//
// One datagram carries one message: ASCII, whitespace-separated tokens, the
// first being the verb and the rest decimal numbers.
//
//	V <left> <right>   set wheel velocities
//	SA <angle>         set servo angle
//	S                  read the distance sensor, answered with "S <distance>"
//	E                  read and zero the encoder clicks, answered with "E <left> <right>"
//	RESET              return the robot to its start pose
package protocol

import (
	"bytes"
	"fmt"
	"math"
	"net"
	"strconv"

	"github.com/pkg/errors"
)

// Kind is the closed set of commands the robot understands.
type Kind uint8

const (
	KindDrive Kind = iota + 1
	KindServoAngle
	KindSense
	KindEncoders
	KindReset
)

type kindInfo struct {
	verb  string
	arity int
}

var kindTable = map[Kind]kindInfo{
	KindDrive:      {verb: "V", arity: 2},
	KindServoAngle: {verb: "SA", arity: 1},
	KindSense:      {verb: "S", arity: 0},
	KindEncoders:   {verb: "E", arity: 0},
	KindReset:      {verb: "RESET", arity: 0},
}

var verbTable = func() map[string]Kind {
	m := make(map[string]Kind, len(kindTable))
	for k, info := range kindTable {
		m[info.verb] = k
	}
	return m
}()

// Kinds lists every command kind in declaration order.
func Kinds() []Kind {
	return []Kind{KindDrive, KindServoAngle, KindSense, KindEncoders, KindReset}
}

// Verb is the wire token for k.
func (k Kind) Verb() string { return kindTable[k].verb }

// Arity is the number of numeric arguments k requires.
func (k Kind) Arity() int { return kindTable[k].arity }

func (k Kind) String() string {
	if info, ok := kindTable[k]; ok {
		return info.verb
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// KindOf maps a wire verb to its Kind. Verbs are case-sensitive.
func KindOf(verb string) (Kind, bool) {
	k, ok := verbTable[verb]
	return k, ok
}

// Command is one decoded request.
type Command struct {
	Kind Kind
	Args []float64

	// From is the sender, nil for commands issued in-process.
	From *net.UDPAddr

	respond func(Reply)
}

// Arg returns argument i, or zero when absent.
func (c Command) Arg(i int) float64 {
	if i < len(c.Args) {
		return c.Args[i]
	}
	return 0
}

// Respond hands r back to whoever issued the command. It never blocks and
// does nothing for commands that expect no answer.
func (c Command) Respond(r Reply) {
	if c.respond != nil {
		c.respond(r)
	}
}

// WithResponder returns a copy of c whose replies go to fn.
func (c Command) WithResponder(fn func(Reply)) Command {
	c.respond = fn
	return c
}

// Encode renders the command in wire form.
func (c Command) Encode() []byte {
	buf := bytes.NewBufferString(c.Kind.Verb())
	for _, a := range c.Args {
		buf.WriteByte(' ')
		buf.WriteString(strconv.FormatFloat(a, 'f', -1, 64))
	}
	return buf.Bytes()
}

// NewCommand builds a command for in-process use or for sending.
func NewCommand(kind Kind, args ...float64) Command {
	return Command{Kind: kind, Args: args}
}

// Parse decodes one datagram. Unknown verbs yield ErrUnknownVerb; missing,
// unparsable or non-finite arguments yield ErrMalformedCommand. Every token
// after the verb must be a number, but numbers beyond the verb's arity are
// ignored.
func Parse(packet []byte) (Command, error) {
	fields := bytes.Fields(packet)
	if len(fields) == 0 {
		return Command{}, ErrEmptyPacket
	}
	kind, ok := KindOf(string(fields[0]))
	if !ok {
		return Command{}, errors.Wrapf(ErrUnknownVerb, "%q", fields[0])
	}

	raw := fields[1:]
	if len(raw) < kind.Arity() {
		return Command{}, errors.Wrapf(ErrMalformedCommand, "%s wants %d arguments, got %d",
			kind, kind.Arity(), len(raw))
	}
	args := make([]float64, len(raw))
	for i, tok := range raw {
		v, err := strconv.ParseFloat(string(tok), 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return Command{}, errors.Wrapf(ErrMalformedCommand, "%s argument %d is %q", kind, i, tok)
		}
		args[i] = v
	}
	return Command{Kind: kind, Args: args[:kind.Arity()]}, nil
}
