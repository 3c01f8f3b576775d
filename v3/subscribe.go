package v3

import (
	"io"

	"github.com/axmq/wire/encoding"
)

// Subscription is a single (topic filter, maximum QoS) request in SUBSCRIBE
type Subscription struct {
	TopicFilter encoding.TopicFilter
	QoS         encoding.QoS
}

// Subscribe represents an MQTT 3.1/3.1.1 SUBSCRIBE packet
type Subscribe struct {
	Pid    encoding.Pid
	Topics []Subscription
}

func (*Subscribe) Type() encoding.PacketType { return encoding.SUBSCRIBE }

// Reserved flags must be 0010
func (*Subscribe) flags() byte { return 0x02 }

func decodeSubscribe(body []byte) (*Subscribe, error) {
	value, offset, err := encoding.ReadTwoByteIntFromBytes(body)
	if err != nil {
		return nil, truncated(err)
	}
	pid, err := encoding.NewPid(value)
	if err != nil {
		return nil, err
	}

	if offset == len(body) {
		return nil, encoding.ErrEmptySubscription
	}

	topics := make([]Subscription, 0, 2)
	for offset < len(body) {
		filter, n, err := encoding.ReadUTF8StringFromBytes(body[offset:])
		if err != nil {
			return nil, truncated(err)
		}
		offset += n

		topicFilter, err := encoding.NewTopicFilter(filter)
		if err != nil {
			return nil, err
		}

		qosByte, n, err := encoding.ReadByteFromBytes(body[offset:])
		if err != nil {
			return nil, truncated(err)
		}
		offset += n

		qos, err := encoding.QoSFromByte(qosByte)
		if err != nil {
			return nil, err
		}

		topics = append(topics, Subscription{TopicFilter: topicFilter, QoS: qos})
	}

	return &Subscribe{Pid: pid, Topics: topics}, nil
}

// Encode writes the SUBSCRIBE body.
func (p *Subscribe) Encode(w io.Writer) error {
	if err := encoding.WriteTwoByteInt(w, p.Pid.Value()); err != nil {
		return err
	}
	for _, sub := range p.Topics {
		if err := encoding.WriteUTF8String(w, string(sub.TopicFilter)); err != nil {
			return err
		}
		if err := encoding.WriteByte(w, byte(sub.QoS)); err != nil {
			return err
		}
	}
	return nil
}

// EncodeLen returns the SUBSCRIBE body length.
func (p *Subscribe) EncodeLen() int {
	length := 2
	for _, sub := range p.Topics {
		length += 3 + len(sub.TopicFilter)
	}
	return length
}

// SubscribeReturnCode is the per-topic outcome in SUBACK: the granted
// maximum QoS, or failure (0x80).
type SubscribeReturnCode byte

const (
	MaxLevel0 SubscribeReturnCode = 0
	MaxLevel1 SubscribeReturnCode = 1
	MaxLevel2 SubscribeReturnCode = 2
	Failure   SubscribeReturnCode = 0x80
)

// SubscribeReturnCodeFromByte validates a wire byte as a SUBACK return code.
func SubscribeReturnCodeFromByte(b byte) (SubscribeReturnCode, error) {
	switch b {
	case 0, 1, 2, 0x80:
		return SubscribeReturnCode(b), nil
	default:
		return 0, &encoding.InvalidQoSError{Value: b}
	}
}

// SubscribeReturnCodeFromQoS converts a granted QoS to its return code.
func SubscribeReturnCodeFromQoS(qos encoding.QoS) SubscribeReturnCode {
	return SubscribeReturnCode(qos)
}

// String returns human-readable return code name
func (c SubscribeReturnCode) String() string {
	switch c {
	case MaxLevel0:
		return "MaxLevel0"
	case MaxLevel1:
		return "MaxLevel1"
	case MaxLevel2:
		return "MaxLevel2"
	case Failure:
		return "Failure"
	default:
		return "UNKNOWN"
	}
}

// Suback represents an MQTT 3.1/3.1.1 SUBACK packet
type Suback struct {
	Pid    encoding.Pid
	Topics []SubscribeReturnCode
}

func (*Suback) Type() encoding.PacketType { return encoding.SUBACK }
func (*Suback) flags() byte               { return 0 }

func decodeSuback(body []byte) (*Suback, error) {
	value, offset, err := encoding.ReadTwoByteIntFromBytes(body)
	if err != nil {
		return nil, truncated(err)
	}
	pid, err := encoding.NewPid(value)
	if err != nil {
		return nil, err
	}

	topics := make([]SubscribeReturnCode, 0, len(body)-offset)
	for offset < len(body) {
		code, err := SubscribeReturnCodeFromByte(body[offset])
		if err != nil {
			return nil, err
		}
		offset++
		topics = append(topics, code)
	}

	return &Suback{Pid: pid, Topics: topics}, nil
}

// Encode writes the SUBACK body.
func (p *Suback) Encode(w io.Writer) error {
	if err := encoding.WriteTwoByteInt(w, p.Pid.Value()); err != nil {
		return err
	}
	for _, code := range p.Topics {
		if err := encoding.WriteByte(w, byte(code)); err != nil {
			return err
		}
	}
	return nil
}

// EncodeLen returns the SUBACK body length.
func (p *Suback) EncodeLen() int {
	return 2 + len(p.Topics)
}

// Unsubscribe represents an MQTT 3.1/3.1.1 UNSUBSCRIBE packet
type Unsubscribe struct {
	Pid    encoding.Pid
	Topics []encoding.TopicFilter
}

func (*Unsubscribe) Type() encoding.PacketType { return encoding.UNSUBSCRIBE }

// Reserved flags must be 0010
func (*Unsubscribe) flags() byte { return 0x02 }

func decodeUnsubscribe(body []byte) (*Unsubscribe, error) {
	value, offset, err := encoding.ReadTwoByteIntFromBytes(body)
	if err != nil {
		return nil, truncated(err)
	}
	pid, err := encoding.NewPid(value)
	if err != nil {
		return nil, err
	}

	if offset == len(body) {
		return nil, encoding.ErrEmptySubscription
	}

	topics := make([]encoding.TopicFilter, 0, 2)
	for offset < len(body) {
		filter, n, err := encoding.ReadUTF8StringFromBytes(body[offset:])
		if err != nil {
			return nil, truncated(err)
		}
		offset += n

		topicFilter, err := encoding.NewTopicFilter(filter)
		if err != nil {
			return nil, err
		}
		topics = append(topics, topicFilter)
	}

	return &Unsubscribe{Pid: pid, Topics: topics}, nil
}

// Encode writes the UNSUBSCRIBE body.
func (p *Unsubscribe) Encode(w io.Writer) error {
	if err := encoding.WriteTwoByteInt(w, p.Pid.Value()); err != nil {
		return err
	}
	for _, filter := range p.Topics {
		if err := encoding.WriteUTF8String(w, string(filter)); err != nil {
			return err
		}
	}
	return nil
}

// EncodeLen returns the UNSUBSCRIBE body length.
func (p *Unsubscribe) EncodeLen() int {
	length := 2
	for _, filter := range p.Topics {
		length += 2 + len(filter)
	}
	return length
}

// Unsuback represents an MQTT 3.1/3.1.1 UNSUBACK packet
type Unsuback struct {
	Pid encoding.Pid
}

func (*Unsuback) Type() encoding.PacketType { return encoding.UNSUBACK }
func (*Unsuback) EncodeLen() int            { return 2 }
func (*Unsuback) flags() byte               { return 0 }
func (p *Unsuback) Encode(w io.Writer) error {
	return encodePidOnly(w, p.Pid)
}
