package v3

import (
	"io"

	"github.com/axmq/wire/encoding"
)

// Connect represents an MQTT 3.1/3.1.1 CONNECT packet
type Connect struct {
	Protocol     encoding.Protocol
	CleanSession bool
	KeepAlive    uint16
	ClientID     encoding.ClientID
	LastWill     *LastWill
	Username     *encoding.Username
	// Password is absent when nil; an empty non-nil slice is an empty
	// password on the wire.
	Password []byte
}

// LastWill is the message the server publishes when the client disconnects
// ungracefully. Carried in CONNECT per MQTT 3.1.1 section 3.1.3.3.
type LastWill struct {
	QoS       encoding.QoS
	Retain    bool
	TopicName encoding.TopicName
	Message   encoding.VarBytes
}

// NewConnect returns a clean-session V311 CONNECT.
func NewConnect(clientID encoding.ClientID, keepAlive uint16) *Connect {
	return &Connect{
		Protocol:     encoding.V311,
		CleanSession: true,
		KeepAlive:    keepAlive,
		ClientID:     clientID,
	}
}

func (*Connect) Type() encoding.PacketType { return encoding.CONNECT }
func (*Connect) flags() byte               { return 0 }

func decodeConnect(body []byte) (*Connect, error) {
	protocol, offset, err := encoding.DecodeProtocolFromBytes(body)
	if err != nil {
		return nil, truncated(err)
	}
	if protocol == encoding.V50 {
		return nil, &encoding.UnexpectedProtocolError{Protocol: protocol}
	}
	return decodeConnectWithProtocol(body[offset:], protocol)
}

func decodeConnectWithProtocol(body []byte, protocol encoding.Protocol) (*Connect, error) {
	connectFlags, offset, err := encoding.ReadByteFromBytes(body)
	if err != nil {
		return nil, truncated(err)
	}
	// Reserved bit (bit 0) must be 0
	if connectFlags&0x01 != 0 {
		return nil, &encoding.InvalidConnectFlagsError{Flags: connectFlags}
	}

	keepAlive, n, err := encoding.ReadTwoByteIntFromBytes(body[offset:])
	if err != nil {
		return nil, truncated(err)
	}
	offset += n

	clientID, n, err := encoding.ReadUTF8StringFromBytes(body[offset:])
	if err != nil {
		return nil, truncated(err)
	}
	offset += n

	pkt := &Connect{
		Protocol:     protocol,
		CleanSession: connectFlags&0x02 != 0,
		KeepAlive:    keepAlive,
		ClientID:     encoding.ClientID(clientID),
	}

	if connectFlags&0x04 != 0 {
		topic, n, err := encoding.ReadUTF8StringFromBytes(body[offset:])
		if err != nil {
			return nil, truncated(err)
		}
		offset += n

		topicName, err := encoding.NewTopicName(topic)
		if err != nil {
			return nil, err
		}

		message, n, err := encoding.ReadBinaryDataFromBytes(body[offset:])
		if err != nil {
			return nil, truncated(err)
		}
		offset += n

		qos, err := encoding.QoSFromByte((connectFlags & 0x18) >> 3)
		if err != nil {
			return nil, err
		}

		pkt.LastWill = &LastWill{
			QoS:       qos,
			Retain:    connectFlags&0x20 != 0,
			TopicName: topicName,
			Message:   encoding.VarBytes(message),
		}
	} else if connectFlags&0x38 != 0 {
		// Will QoS and Will Retain must be zero without the Will flag
		return nil, &encoding.InvalidConnectFlagsError{Flags: connectFlags}
	}

	if connectFlags&0x80 != 0 {
		username, n, err := encoding.ReadUTF8StringFromBytes(body[offset:])
		if err != nil {
			return nil, truncated(err)
		}
		offset += n
		u := encoding.Username(username)
		pkt.Username = &u
	}

	if connectFlags&0x40 != 0 {
		password, n, err := encoding.ReadBinaryDataFromBytes(body[offset:])
		if err != nil {
			return nil, truncated(err)
		}
		offset += n
		if password == nil {
			password = []byte{}
		}
		pkt.Password = password
	}

	if offset != len(body) {
		return nil, encoding.ErrInvalidRemainingLength
	}
	return pkt, nil
}

func (p *Connect) connectFlags() byte {
	var flags byte
	if p.CleanSession {
		flags |= 0x02
	}
	if p.LastWill != nil {
		flags |= 0x04
		flags |= byte(p.LastWill.QoS) << 3
		if p.LastWill.Retain {
			flags |= 0x20
		}
	}
	if p.Password != nil {
		flags |= 0x40
	}
	if p.Username != nil {
		flags |= 0x80
	}
	return flags
}

// Encode writes the CONNECT body.
func (p *Connect) Encode(w io.Writer) error {
	if err := p.Protocol.Encode(w); err != nil {
		return err
	}
	if err := encoding.WriteByte(w, p.connectFlags()); err != nil {
		return err
	}
	if err := encoding.WriteTwoByteInt(w, p.KeepAlive); err != nil {
		return err
	}
	if err := encoding.WriteUTF8String(w, string(p.ClientID)); err != nil {
		return err
	}
	if p.LastWill != nil {
		if err := encoding.WriteUTF8String(w, string(p.LastWill.TopicName)); err != nil {
			return err
		}
		if err := encoding.WriteBinaryData(w, p.LastWill.Message); err != nil {
			return err
		}
	}
	if p.Username != nil {
		if err := encoding.WriteUTF8String(w, string(*p.Username)); err != nil {
			return err
		}
	}
	if p.Password != nil {
		if err := encoding.WriteBinaryData(w, p.Password); err != nil {
			return err
		}
	}
	return nil
}

// EncodeLen returns the CONNECT body length.
func (p *Connect) EncodeLen() int {
	length := p.Protocol.EncodeLen()
	// connect flags + keep alive
	length += 1 + 2
	length += 2 + len(p.ClientID)
	if p.LastWill != nil {
		length += 2 + len(p.LastWill.TopicName)
		length += 2 + len(p.LastWill.Message)
	}
	if p.Username != nil {
		length += 2 + len(*p.Username)
	}
	if p.Password != nil {
		length += 2 + len(p.Password)
	}
	return length
}

// ConnectReturnCode is the MQTT 3.1.1 CONNACK return code. See MQTT 3.1.1
// section 3.2.2.3 for interpretations.
type ConnectReturnCode byte

const (
	Accepted                    ConnectReturnCode = 0
	UnacceptableProtocolVersion ConnectReturnCode = 1
	IdentifierRejected          ConnectReturnCode = 2
	ServerUnavailable           ConnectReturnCode = 3
	BadUserNameOrPassword       ConnectReturnCode = 4
	NotAuthorized               ConnectReturnCode = 5
)

// ConnectReturnCodeFromByte validates a wire byte as a CONNACK return code.
func ConnectReturnCodeFromByte(b byte) (ConnectReturnCode, error) {
	if b > 5 {
		return 0, &encoding.InvalidConnectReturnCodeError{Code: b}
	}
	return ConnectReturnCode(b), nil
}

// String returns human-readable return code name
func (c ConnectReturnCode) String() string {
	switch c {
	case Accepted:
		return "Accepted"
	case UnacceptableProtocolVersion:
		return "UnacceptableProtocolVersion"
	case IdentifierRejected:
		return "IdentifierRejected"
	case ServerUnavailable:
		return "ServerUnavailable"
	case BadUserNameOrPassword:
		return "BadUserNameOrPassword"
	case NotAuthorized:
		return "NotAuthorized"
	default:
		return "UNKNOWN"
	}
}

// Connack represents an MQTT 3.1/3.1.1 CONNACK packet
type Connack struct {
	SessionPresent bool
	Code           ConnectReturnCode
}

func (*Connack) Type() encoding.PacketType { return encoding.CONNACK }
func (*Connack) flags() byte               { return 0 }

func decodeConnack(body []byte) (*Connack, error) {
	ackFlags, offset, err := encoding.ReadByteFromBytes(body)
	if err != nil {
		return nil, truncated(err)
	}
	if ackFlags&0xFE != 0 {
		return nil, &encoding.InvalidConnackFlagsError{Flags: ackFlags}
	}

	codeByte, n, err := encoding.ReadByteFromBytes(body[offset:])
	if err != nil {
		return nil, truncated(err)
	}
	offset += n

	code, err := ConnectReturnCodeFromByte(codeByte)
	if err != nil {
		return nil, err
	}

	if offset != len(body) {
		return nil, encoding.ErrInvalidRemainingLength
	}
	return &Connack{SessionPresent: ackFlags&0x01 != 0, Code: code}, nil
}

// Encode writes the CONNACK body.
func (p *Connack) Encode(w io.Writer) error {
	var ackFlags byte
	if p.SessionPresent {
		ackFlags |= 0x01
	}
	if err := encoding.WriteByte(w, ackFlags); err != nil {
		return err
	}
	return encoding.WriteByte(w, byte(p.Code))
}

// EncodeLen returns the CONNACK body length.
func (*Connack) EncodeLen() int { return 2 }
