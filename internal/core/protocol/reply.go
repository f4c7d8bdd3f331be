package protocol

import (
	"bytes"
	"math"
	"strconv"

	"github.com/pkg/errors"
)

// Reply answers an S or E command.
type Reply struct {
	Kind   Kind
	Values []float64
}

// SenseReply carries a distance reading, -1 meaning nothing in range.
func SenseReply(distance float64) Reply {
	return Reply{Kind: KindSense, Values: []float64{distance}}
}

// EncodersReply carries the clicks counted since the previous E.
func EncodersReply(left, right int) Reply {
	return Reply{Kind: KindEncoders, Values: []float64{float64(left), float64(right)}}
}

func (r Reply) Encode() []byte {
	buf := bytes.NewBufferString(r.Kind.Verb())
	for _, v := range r.Values {
		buf.WriteByte(' ')
		buf.WriteString(strconv.FormatFloat(v, 'f', -1, 64))
	}
	return buf.Bytes()
}

// Distance is the reading of a sense reply.
func (r Reply) Distance() float64 {
	if r.Kind != KindSense || len(r.Values) < 1 {
		return -1
	}
	return r.Values[0]
}

// Clicks is the left and right count of an encoders reply.
func (r Reply) Clicks() (left, right int) {
	if r.Kind != KindEncoders || len(r.Values) < 2 {
		return 0, 0
	}
	return int(r.Values[0]), int(r.Values[1])
}

// ParseReply decodes a reply datagram as sent by the server.
func ParseReply(packet []byte) (Reply, error) {
	fields := bytes.Fields(packet)
	if len(fields) == 0 {
		return Reply{}, ErrEmptyPacket
	}
	kind, ok := KindOf(string(fields[0]))
	var want int
	switch {
	case ok && kind == KindSense:
		want = 1
	case ok && kind == KindEncoders:
		want = 2
	default:
		return Reply{}, errors.Wrapf(ErrUnknownVerb, "%q", fields[0])
	}
	if len(fields)-1 < want {
		return Reply{}, errors.Wrapf(ErrMalformedCommand, "%s reply wants %d values", kind, want)
	}
	values := make([]float64, want)
	for i := range values {
		v, err := strconv.ParseFloat(string(fields[i+1]), 64)
		if err != nil || math.IsNaN(v) {
			return Reply{}, errors.Wrapf(ErrMalformedCommand, "%s value %d is %q", kind, i, fields[i+1])
		}
		values[i] = v
	}
	return Reply{Kind: kind, Values: values}, nil
}
