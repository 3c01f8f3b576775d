// Package v3 implements the MQTT 3.1 / 3.1.1 control packet codec.
package v3

import (
	"bytes"
	"errors"
	"io"

	"github.com/axmq/wire/encoding"
)

// Packet is implemented by all MQTT 3.1.1 control packets. Encode and
// EncodeLen cover the packet body only; EncodeTo and EncodeToBytes compose
// the fixed header.
type Packet interface {
	// Type returns the control packet type.
	Type() encoding.PacketType

	// EncodeLen returns the remaining length of the encoded body.
	EncodeLen() int

	// Encode writes the packet body (everything after the fixed header).
	Encode(w io.Writer) error

	// flags returns the fixed header flags nibble for this packet.
	flags() byte
}

// Pingreq is the zero-body PINGREQ packet.
type Pingreq struct{}

// Pingresp is the zero-body PINGRESP packet.
type Pingresp struct{}

// Disconnect is the zero-body MQTT 3.1.1 DISCONNECT packet.
type Disconnect struct{}

func (*Pingreq) Type() encoding.PacketType    { return encoding.PINGREQ }
func (*Pingreq) EncodeLen() int               { return 0 }
func (*Pingreq) Encode(io.Writer) error       { return nil }
func (*Pingreq) flags() byte                  { return 0 }
func (*Pingresp) Type() encoding.PacketType   { return encoding.PINGRESP }
func (*Pingresp) EncodeLen() int              { return 0 }
func (*Pingresp) Encode(io.Writer) error      { return nil }
func (*Pingresp) flags() byte                 { return 0 }
func (*Disconnect) Type() encoding.PacketType { return encoding.DISCONNECT }
func (*Disconnect) EncodeLen() int            { return 0 }
func (*Disconnect) Encode(io.Writer) error    { return nil }
func (*Disconnect) flags() byte               { return 0 }

// EncodeTo writes the complete packet, fixed header included.
func EncodeTo(w io.Writer, p Packet) error {
	bodyLen := p.EncodeLen()
	if uint64(bodyLen) > uint64(encoding.MaxVarByteInt) {
		return encoding.ErrInvalidVarByteInt
	}

	fh := encoding.FixedHeader{
		Type:            p.Type(),
		Flags:           p.flags(),
		RemainingLength: uint32(bodyLen),
	}
	if err := fh.EncodeFixedHeader(w); err != nil {
		return err
	}
	return p.Encode(w)
}

// EncodeToBytes encodes the complete packet, fixed header included.
func EncodeToBytes(p Packet) ([]byte, error) {
	total, err := encoding.TotalLen(uint32(p.EncodeLen()))
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	buf.Grow(total)
	if err := EncodeTo(&buf, p); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decode decodes a single packet from a fully-buffered byte slice. A nil
// packet with nil error means the slice does not yet hold a complete packet;
// n reports the bytes consumed up to the packet boundary.
func Decode(data []byte) (Packet, int, error) {
	header, headerLen, err := encoding.ParseFixedHeaderFromBytes(data)
	if err != nil {
		if errors.Is(err, encoding.ErrUnexpectedEOF) {
			return nil, 0, nil
		}
		return nil, 0, err
	}

	total := headerLen + int(header.RemainingLength)
	if len(data) < total {
		return nil, 0, nil
	}

	pkt, err := decodeBody(header, data[headerLen:total])
	if err != nil {
		return nil, 0, err
	}
	return pkt, total, nil
}

// decodeBody dispatches the completed body slice to the type-specific
// decoder.
func decodeBody(h *encoding.FixedHeader, body []byte) (Packet, error) {
	switch h.Type {
	case encoding.CONNECT:
		return decodeConnect(body)
	case encoding.CONNACK:
		return decodeConnack(body)
	case encoding.PUBLISH:
		return decodePublish(h, body)
	case encoding.PUBACK:
		pid, err := decodePidOnly(body)
		if err != nil {
			return nil, err
		}
		return &Puback{Pid: pid}, nil
	case encoding.PUBREC:
		pid, err := decodePidOnly(body)
		if err != nil {
			return nil, err
		}
		return &Pubrec{Pid: pid}, nil
	case encoding.PUBREL:
		pid, err := decodePidOnly(body)
		if err != nil {
			return nil, err
		}
		return &Pubrel{Pid: pid}, nil
	case encoding.PUBCOMP:
		pid, err := decodePidOnly(body)
		if err != nil {
			return nil, err
		}
		return &Pubcomp{Pid: pid}, nil
	case encoding.SUBSCRIBE:
		return decodeSubscribe(body)
	case encoding.SUBACK:
		return decodeSuback(body)
	case encoding.UNSUBSCRIBE:
		return decodeUnsubscribe(body)
	case encoding.UNSUBACK:
		pid, err := decodePidOnly(body)
		if err != nil {
			return nil, err
		}
		return &Unsuback{Pid: pid}, nil
	case encoding.PINGREQ:
		if h.RemainingLength != 0 {
			return nil, encoding.ErrInvalidRemainingLength
		}
		return &Pingreq{}, nil
	case encoding.PINGRESP:
		if h.RemainingLength != 0 {
			return nil, encoding.ErrInvalidRemainingLength
		}
		return &Pingresp{}, nil
	case encoding.DISCONNECT:
		if h.RemainingLength != 0 {
			return nil, encoding.ErrInvalidRemainingLength
		}
		return &Disconnect{}, nil
	default:
		// AUTH exists only in MQTT 5.0
		return nil, encoding.ErrInvalidHeader
	}
}

// truncated remaps end-of-input inside a completed body: the header promised
// more bytes than the grammar found, so the remaining length is wrong.
func truncated(err error) error {
	if errors.Is(err, encoding.ErrUnexpectedEOF) {
		return encoding.ErrInvalidRemainingLength
	}
	return err
}
