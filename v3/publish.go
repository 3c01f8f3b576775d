package v3

import (
	"io"

	"github.com/axmq/wire/encoding"
)

// Publish represents an MQTT 3.1/3.1.1 PUBLISH packet
type Publish struct {
	DUP       bool
	Retain    bool
	QosPid    encoding.QosPid
	TopicName encoding.TopicName
	Payload   encoding.VarBytes
}

// NewPublish returns a PUBLISH with DUP and Retain clear.
func NewPublish(qosPid encoding.QosPid, topicName encoding.TopicName, payload encoding.VarBytes) *Publish {
	return &Publish{
		QosPid:    qosPid,
		TopicName: topicName,
		Payload:   payload,
	}
}

func (*Publish) Type() encoding.PacketType { return encoding.PUBLISH }

func (p *Publish) flags() byte {
	var flags byte
	if p.DUP {
		flags |= 0x08
	}
	flags |= byte(p.QosPid.Level) << 1
	if p.Retain {
		flags |= 0x01
	}
	return flags
}

func decodePublish(h *encoding.FixedHeader, body []byte) (*Publish, error) {
	topic, offset, err := encoding.ReadUTF8StringFromBytes(body)
	if err != nil {
		return nil, truncated(err)
	}

	topicName, err := encoding.NewTopicName(topic)
	if err != nil {
		return nil, err
	}

	qosPid := encoding.QosPidLevel0()
	if h.QoS > encoding.QoS0 {
		value, n, err := encoding.ReadTwoByteIntFromBytes(body[offset:])
		if err != nil {
			return nil, truncated(err)
		}
		offset += n

		pid, err := encoding.NewPid(value)
		if err != nil {
			return nil, err
		}
		qosPid = encoding.QosPid{Level: h.QoS, Pid: pid}
	}

	// Payload is the remainder of the body; copied here because the body
	// slice may be borrowed from the caller's chunk.
	var payload encoding.VarBytes
	if rest := body[offset:]; len(rest) > 0 {
		payload = make(encoding.VarBytes, len(rest))
		copy(payload, rest)
	}

	return &Publish{
		DUP:       h.DUP,
		Retain:    h.Retain,
		QosPid:    qosPid,
		TopicName: topicName,
		Payload:   payload,
	}, nil
}

// Encode writes the PUBLISH body.
func (p *Publish) Encode(w io.Writer) error {
	if err := encoding.WriteUTF8String(w, string(p.TopicName)); err != nil {
		return err
	}
	if p.QosPid.Level > encoding.QoS0 {
		if err := encoding.WriteTwoByteInt(w, p.QosPid.Pid.Value()); err != nil {
			return err
		}
	}
	if len(p.Payload) > 0 {
		_, err := w.Write(p.Payload)
		return err
	}
	return nil
}

// EncodeLen returns the PUBLISH body length.
func (p *Publish) EncodeLen() int {
	length := 2 + len(p.TopicName) + len(p.Payload)
	if p.QosPid.Level > encoding.QoS0 {
		length += 2
	}
	return length
}

// decodePidOnly decodes the two-byte packet identifier body shared by
// PUBACK, PUBREC, PUBREL, PUBCOMP and UNSUBACK.
func decodePidOnly(body []byte) (encoding.Pid, error) {
	value, n, err := encoding.ReadTwoByteIntFromBytes(body)
	if err != nil {
		return 0, truncated(err)
	}
	if n != len(body) {
		return 0, encoding.ErrInvalidRemainingLength
	}
	return encoding.NewPid(value)
}

func encodePidOnly(w io.Writer, pid encoding.Pid) error {
	return encoding.WriteTwoByteInt(w, pid.Value())
}

// Puback represents an MQTT 3.1/3.1.1 PUBACK packet
type Puback struct {
	Pid encoding.Pid
}

func (*Puback) Type() encoding.PacketType { return encoding.PUBACK }
func (*Puback) EncodeLen() int            { return 2 }
func (*Puback) flags() byte               { return 0 }
func (p *Puback) Encode(w io.Writer) error {
	return encodePidOnly(w, p.Pid)
}

// Pubrec represents an MQTT 3.1/3.1.1 PUBREC packet
type Pubrec struct {
	Pid encoding.Pid
}

func (*Pubrec) Type() encoding.PacketType { return encoding.PUBREC }
func (*Pubrec) EncodeLen() int            { return 2 }
func (*Pubrec) flags() byte               { return 0 }
func (p *Pubrec) Encode(w io.Writer) error {
	return encodePidOnly(w, p.Pid)
}

// Pubrel represents an MQTT 3.1/3.1.1 PUBREL packet
type Pubrel struct {
	Pid encoding.Pid
}

func (*Pubrel) Type() encoding.PacketType { return encoding.PUBREL }
func (*Pubrel) EncodeLen() int            { return 2 }

// Reserved flags must be 0010
func (*Pubrel) flags() byte { return 0x02 }
func (p *Pubrel) Encode(w io.Writer) error {
	return encodePidOnly(w, p.Pid)
}

// Pubcomp represents an MQTT 3.1/3.1.1 PUBCOMP packet
type Pubcomp struct {
	Pid encoding.Pid
}

func (*Pubcomp) Type() encoding.PacketType { return encoding.PUBCOMP }
func (*Pubcomp) EncodeLen() int            { return 2 }
func (*Pubcomp) flags() byte               { return 0 }
func (p *Pubcomp) Encode(w io.Writer) error {
	return encodePidOnly(w, p.Pid)
}
