package v5

import (
	"io"
	"unicode/utf8"

	"github.com/axmq/wire/encoding"
)

// PublishProperties is the property block of PUBLISH.
type PublishProperties struct {
	PayloadFormatIndicator *bool
	MessageExpiryInterval  *uint32
	TopicAlias             *uint16
	ResponseTopic          *encoding.TopicName
	CorrelationData        []byte
	UserProperties         []UserProperty
	SubscriptionIdentifier *uint32
	ContentType            *string
}

func decodePublishProperties(body []byte) (PublishProperties, int, error) {
	var p PublishProperties
	n, err := decodeProperties(encoding.PUBLISH, body, func(id PropertyID, v *propertyValue) error {
		switch id {
		case PropPayloadFormatIndicator:
			p.PayloadFormatIndicator = ptrTo(v.b == 1)
		case PropMessageExpiryInterval:
			p.MessageExpiryInterval = ptrTo(v.u32)
		case PropTopicAlias:
			p.TopicAlias = ptrTo(v.u16)
		case PropResponseTopic:
			topic, err := encoding.NewTopicName(v.str)
			if err != nil {
				return err
			}
			p.ResponseTopic = &topic
		case PropCorrelationData:
			p.CorrelationData = v.data
		case PropUserProperty:
			p.UserProperties = append(p.UserProperties, v.pair)
		case PropSubscriptionIdentifier:
			p.SubscriptionIdentifier = ptrTo(v.u32)
		case PropContentType:
			p.ContentType = ptrTo(v.str)
		default:
			return errPropertyNotAllowed
		}
		return nil
	})
	return p, n, err
}

func (p *PublishProperties) innerLen() int {
	length := 0
	if p.PayloadFormatIndicator != nil {
		length += propByteLen
	}
	if p.MessageExpiryInterval != nil {
		length += propFourByteIntLen
	}
	if p.TopicAlias != nil {
		length += propTwoByteIntLen
	}
	if p.ResponseTopic != nil {
		length += propStringLen(string(*p.ResponseTopic))
	}
	if p.CorrelationData != nil {
		length += propBinaryLen(p.CorrelationData)
	}
	length += userPropertiesLen(p.UserProperties)
	if p.SubscriptionIdentifier != nil {
		length += propVarIntLen(*p.SubscriptionIdentifier)
	}
	if p.ContentType != nil {
		length += propStringLen(*p.ContentType)
	}
	return length
}

// EncodeLen returns the full block length including the var-int prefix.
func (p *PublishProperties) EncodeLen() int {
	return propertyBlockLen(p.innerLen())
}

// Encode writes the property block, prefix included.
func (p *PublishProperties) Encode(w io.Writer) error {
	return writePropertyBlock(w, p.innerLen(), func(w io.Writer) error {
		if p.PayloadFormatIndicator != nil {
			if err := writePropBool(w, PropPayloadFormatIndicator, *p.PayloadFormatIndicator); err != nil {
				return err
			}
		}
		if p.MessageExpiryInterval != nil {
			if err := writePropFourByteInt(w, PropMessageExpiryInterval, *p.MessageExpiryInterval); err != nil {
				return err
			}
		}
		if p.TopicAlias != nil {
			if err := writePropTwoByteInt(w, PropTopicAlias, *p.TopicAlias); err != nil {
				return err
			}
		}
		if p.ResponseTopic != nil {
			if err := writePropString(w, PropResponseTopic, string(*p.ResponseTopic)); err != nil {
				return err
			}
		}
		if p.CorrelationData != nil {
			if err := writePropBinary(w, PropCorrelationData, p.CorrelationData); err != nil {
				return err
			}
		}
		if err := writeUserProperties(w, p.UserProperties); err != nil {
			return err
		}
		if p.SubscriptionIdentifier != nil {
			if err := writePropVarInt(w, PropSubscriptionIdentifier, *p.SubscriptionIdentifier); err != nil {
				return err
			}
		}
		if p.ContentType != nil {
			if err := writePropString(w, PropContentType, *p.ContentType); err != nil {
				return err
			}
		}
		return nil
	})
}

// Publish represents an MQTT 5.0 PUBLISH packet. TopicName may be empty only
// when the TopicAlias property is present; a nonempty topic alongside a
// TopicAlias is accepted at the codec layer and left to the broker to judge.
type Publish struct {
	DUP        bool
	Retain     bool
	QosPid     encoding.QosPid
	TopicName  encoding.TopicName
	Properties PublishProperties
	Payload    encoding.VarBytes
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

	props, n, err := decodePublishProperties(body[offset:])
	if err != nil {
		return nil, truncated(err)
	}
	offset += n

	var topicName encoding.TopicName
	if topic == "" {
		// An empty topic is legal only when resolved through a topic alias
		if props.TopicAlias == nil {
			return nil, encoding.ErrEmptyTopic
		}
	} else {
		topicName, err = encoding.NewTopicName(topic)
		if err != nil {
			return nil, err
		}
	}

	var payload encoding.VarBytes
	if rest := body[offset:]; len(rest) > 0 {
		if props.PayloadFormatIndicator != nil && *props.PayloadFormatIndicator && !utf8.Valid(rest) {
			return nil, ErrInvalidPayloadFormat
		}
		payload = make(encoding.VarBytes, len(rest))
		copy(payload, rest)
	}

	return &Publish{
		DUP:        h.DUP,
		Retain:     h.Retain,
		QosPid:     qosPid,
		TopicName:  topicName,
		Properties: props,
		Payload:    payload,
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
	if err := p.Properties.Encode(w); err != nil {
		return err
	}
	if len(p.Payload) > 0 {
		_, err := w.Write(p.Payload)
		return err
	}
	return nil
}

// EncodeLen returns the PUBLISH body length.
func (p *Publish) EncodeLen() int {
	length := 2 + len(p.TopicName)
	if p.QosPid.Level > encoding.QoS0 {
		length += 2
	}
	length += p.Properties.EncodeLen()
	length += len(p.Payload)
	return length
}

// AckProperties is the property block shared by the PUBACK, PUBREC, PUBREL,
// PUBCOMP, SUBACK and UNSUBACK packets: a reason string plus user properties.
type AckProperties struct {
	ReasonString   *string
	UserProperties []UserProperty
}

func decodeAckProperties(pt encoding.PacketType, body []byte) (AckProperties, int, error) {
	var p AckProperties
	n, err := decodeProperties(pt, body, func(id PropertyID, v *propertyValue) error {
		switch id {
		case PropReasonString:
			p.ReasonString = ptrTo(v.str)
		case PropUserProperty:
			p.UserProperties = append(p.UserProperties, v.pair)
		default:
			return errPropertyNotAllowed
		}
		return nil
	})
	return p, n, err
}

func (p *AckProperties) isEmpty() bool {
	return p.ReasonString == nil && len(p.UserProperties) == 0
}

func (p *AckProperties) innerLen() int {
	length := 0
	if p.ReasonString != nil {
		length += propStringLen(*p.ReasonString)
	}
	length += userPropertiesLen(p.UserProperties)
	return length
}

// EncodeLen returns the full block length including the var-int prefix.
func (p *AckProperties) EncodeLen() int {
	return propertyBlockLen(p.innerLen())
}

// Encode writes the property block, prefix included.
func (p *AckProperties) Encode(w io.Writer) error {
	return writePropertyBlock(w, p.innerLen(), func(w io.Writer) error {
		if p.ReasonString != nil {
			if err := writePropString(w, PropReasonString, *p.ReasonString); err != nil {
				return err
			}
		}
		return writeUserProperties(w, p.UserProperties)
	})
}

// PubackReasonCode is the PUBACK reason code. MQTT 5.0 section 3.4.2.1.
type PubackReasonCode byte

// PubrecReasonCode is the PUBREC reason code, sharing the PUBACK set.
type PubrecReasonCode = PubackReasonCode

const (
	PubackSuccess                     PubackReasonCode = 0x00
	PubackNoMatchingSubscribers       PubackReasonCode = 0x10
	PubackUnspecifiedError            PubackReasonCode = 0x80
	PubackImplementationSpecificError PubackReasonCode = 0x83
	PubackNotAuthorized               PubackReasonCode = 0x87
	PubackTopicNameInvalid            PubackReasonCode = 0x90
	PubackPacketIdentifierInUse       PubackReasonCode = 0x91
	PubackQuotaExceeded               PubackReasonCode = 0x97
	PubackPayloadFormatInvalid        PubackReasonCode = 0x99
)

func pubackReasonCodeFromByte(pt encoding.PacketType, b byte) (PubackReasonCode, error) {
	switch PubackReasonCode(b) {
	case PubackSuccess, PubackNoMatchingSubscribers, PubackUnspecifiedError,
		PubackImplementationSpecificError, PubackNotAuthorized,
		PubackTopicNameInvalid, PubackPacketIdentifierInUse,
		PubackQuotaExceeded, PubackPayloadFormatInvalid:
		return PubackReasonCode(b), nil
	default:
		return 0, &InvalidReasonCodeError{Type: pt, Code: b}
	}
}

// PubrelReasonCode is the PUBREL reason code. MQTT 5.0 section 3.6.2.1.
type PubrelReasonCode byte

// PubcompReasonCode is the PUBCOMP reason code, sharing the PUBREL set.
type PubcompReasonCode = PubrelReasonCode

const (
	PubrelSuccess                  PubrelReasonCode = 0x00
	PubrelPacketIdentifierNotFound PubrelReasonCode = 0x92
)

func pubrelReasonCodeFromByte(pt encoding.PacketType, b byte) (PubrelReasonCode, error) {
	switch PubrelReasonCode(b) {
	case PubrelSuccess, PubrelPacketIdentifierNotFound:
		return PubrelReasonCode(b), nil
	default:
		return 0, &InvalidReasonCodeError{Type: pt, Code: b}
	}
}

// decodeAckShape reads the three wire forms of the ack family: pid only (reason
// defaults to success), pid + reason code, and pid + reason code +
// properties.
func decodeAckShape(h *encoding.FixedHeader, body []byte) (pid encoding.Pid, reasonByte byte, props AckProperties, hasReason bool, err error) {
	value, offset, err := encoding.ReadTwoByteIntFromBytes(body)
	if err != nil {
		return 0, 0, AckProperties{}, false, truncated(err)
	}
	pid, err = encoding.NewPid(value)
	if err != nil {
		return 0, 0, AckProperties{}, false, err
	}

	if h.RemainingLength == 2 {
		return pid, 0, AckProperties{}, false, nil
	}

	reasonByte, n, err := encoding.ReadByteFromBytes(body[offset:])
	if err != nil {
		return 0, 0, AckProperties{}, false, truncated(err)
	}
	offset += n

	if h.RemainingLength == 3 {
		return pid, reasonByte, AckProperties{}, true, nil
	}

	props, n, err = decodeAckProperties(h.Type, body[offset:])
	if err != nil {
		return 0, 0, AckProperties{}, false, truncated(err)
	}
	offset += n

	if offset != len(body) {
		return 0, 0, AckProperties{}, false, encoding.ErrInvalidRemainingLength
	}
	return pid, reasonByte, props, true, nil
}

// encodeAckShape writes the shortest ack form preserving the reason code and
// properties; both ack reason-code sets use 0x00 for success.
func encodeAckShape(w io.Writer, pid encoding.Pid, reasonCode byte, props *AckProperties) error {
	if err := encoding.WriteTwoByteInt(w, pid.Value()); err != nil {
		return err
	}
	if props.isEmpty() {
		if reasonCode == 0 {
			return nil
		}
		return encoding.WriteByte(w, reasonCode)
	}
	if err := encoding.WriteByte(w, reasonCode); err != nil {
		return err
	}
	return props.Encode(w)
}

func ackShapeLen(reasonCode byte, props *AckProperties) int {
	if props.isEmpty() {
		if reasonCode == 0 {
			return 2
		}
		return 3
	}
	return 3 + props.EncodeLen()
}

// Puback represents an MQTT 5.0 PUBACK packet
type Puback struct {
	Pid        encoding.Pid
	ReasonCode PubackReasonCode
	Properties AckProperties
}

// NewPuback returns a success PUBACK with default properties.
func NewPuback(pid encoding.Pid) *Puback {
	return &Puback{Pid: pid, ReasonCode: PubackSuccess}
}

func (*Puback) Type() encoding.PacketType { return encoding.PUBACK }
func (*Puback) flags() byte               { return 0 }

func decodePuback(h *encoding.FixedHeader, body []byte) (*Puback, error) {
	pid, reasonByte, props, hasReason, err := decodeAckShape(h, body)
	if err != nil {
		return nil, err
	}
	code := PubackSuccess
	if hasReason {
		code, err = pubackReasonCodeFromByte(h.Type, reasonByte)
		if err != nil {
			return nil, err
		}
	}
	return &Puback{Pid: pid, ReasonCode: code, Properties: props}, nil
}

func (p *Puback) Encode(w io.Writer) error {
	return encodeAckShape(w, p.Pid, byte(p.ReasonCode), &p.Properties)
}

func (p *Puback) EncodeLen() int {
	return ackShapeLen(byte(p.ReasonCode), &p.Properties)
}

// Pubrec represents an MQTT 5.0 PUBREC packet
type Pubrec struct {
	Pid        encoding.Pid
	ReasonCode PubrecReasonCode
	Properties AckProperties
}

// NewPubrec returns a success PUBREC with default properties.
func NewPubrec(pid encoding.Pid) *Pubrec {
	return &Pubrec{Pid: pid, ReasonCode: PubackSuccess}
}

func (*Pubrec) Type() encoding.PacketType { return encoding.PUBREC }
func (*Pubrec) flags() byte               { return 0 }

func decodePubrec(h *encoding.FixedHeader, body []byte) (*Pubrec, error) {
	pid, reasonByte, props, hasReason, err := decodeAckShape(h, body)
	if err != nil {
		return nil, err
	}
	code := PubackSuccess
	if hasReason {
		code, err = pubackReasonCodeFromByte(h.Type, reasonByte)
		if err != nil {
			return nil, err
		}
	}
	return &Pubrec{Pid: pid, ReasonCode: code, Properties: props}, nil
}

func (p *Pubrec) Encode(w io.Writer) error {
	return encodeAckShape(w, p.Pid, byte(p.ReasonCode), &p.Properties)
}

func (p *Pubrec) EncodeLen() int {
	return ackShapeLen(byte(p.ReasonCode), &p.Properties)
}

// Pubrel represents an MQTT 5.0 PUBREL packet
type Pubrel struct {
	Pid        encoding.Pid
	ReasonCode PubrelReasonCode
	Properties AckProperties
}

// NewPubrel returns a success PUBREL with default properties.
func NewPubrel(pid encoding.Pid) *Pubrel {
	return &Pubrel{Pid: pid, ReasonCode: PubrelSuccess}
}

func (*Pubrel) Type() encoding.PacketType { return encoding.PUBREL }

// Reserved flags must be 0010
func (*Pubrel) flags() byte { return 0x02 }

func decodePubrel(h *encoding.FixedHeader, body []byte) (*Pubrel, error) {
	pid, reasonByte, props, hasReason, err := decodeAckShape(h, body)
	if err != nil {
		return nil, err
	}
	code := PubrelSuccess
	if hasReason {
		code, err = pubrelReasonCodeFromByte(h.Type, reasonByte)
		if err != nil {
			return nil, err
		}
	}
	return &Pubrel{Pid: pid, ReasonCode: code, Properties: props}, nil
}

func (p *Pubrel) Encode(w io.Writer) error {
	return encodeAckShape(w, p.Pid, byte(p.ReasonCode), &p.Properties)
}

func (p *Pubrel) EncodeLen() int {
	return ackShapeLen(byte(p.ReasonCode), &p.Properties)
}

// Pubcomp represents an MQTT 5.0 PUBCOMP packet
type Pubcomp struct {
	Pid        encoding.Pid
	ReasonCode PubcompReasonCode
	Properties AckProperties
}

// NewPubcomp returns a success PUBCOMP with default properties.
func NewPubcomp(pid encoding.Pid) *Pubcomp {
	return &Pubcomp{Pid: pid, ReasonCode: PubrelSuccess}
}

func (*Pubcomp) Type() encoding.PacketType { return encoding.PUBCOMP }
func (*Pubcomp) flags() byte               { return 0 }

func decodePubcomp(h *encoding.FixedHeader, body []byte) (*Pubcomp, error) {
	pid, reasonByte, props, hasReason, err := decodeAckShape(h, body)
	if err != nil {
		return nil, err
	}
	code := PubrelSuccess
	if hasReason {
		code, err = pubrelReasonCodeFromByte(h.Type, reasonByte)
		if err != nil {
			return nil, err
		}
	}
	return &Pubcomp{Pid: pid, ReasonCode: code, Properties: props}, nil
}

func (p *Pubcomp) Encode(w io.Writer) error {
	return encodeAckShape(w, p.Pid, byte(p.ReasonCode), &p.Properties)
}

func (p *Pubcomp) EncodeLen() int {
	return ackShapeLen(byte(p.ReasonCode), &p.Properties)
}
