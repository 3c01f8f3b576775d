package v5

import (
	"io"

	"github.com/axmq/wire/encoding"
)

// RetainHandling controls retained message delivery at subscribe time.
// MQTT 5.0 section 3.8.3.1.
type RetainHandling byte

const (
	// SendRetained delivers retained messages at subscribe time
	SendRetained RetainHandling = 0
	// SendRetainedIfNew delivers retained messages only for new subscriptions
	SendRetainedIfNew RetainHandling = 1
	// DoNotSendRetained never delivers retained messages at subscribe time
	DoNotSendRetained RetainHandling = 2
)

// SubscriptionOptions is the options byte of one SUBSCRIBE entry, laid out
// [reserved(2) | retain-handling(2) | RAP | NL | max-qos(2)].
type SubscriptionOptions struct {
	MaxQoS            encoding.QoS
	NoLocal           bool
	RetainAsPublished bool
	RetainHandling    RetainHandling
}

// subscriptionOptionsFromByte validates and unpacks one options byte.
func subscriptionOptionsFromByte(b byte) (SubscriptionOptions, error) {
	// Reserved bits (7, 6) must be 0
	if b&0xC0 != 0 {
		return SubscriptionOptions{}, &InvalidSubscriptionOptionsError{Options: b}
	}
	if b&0x03 == 3 {
		return SubscriptionOptions{}, &InvalidSubscriptionOptionsError{Options: b}
	}
	retainHandling := (b & 0x30) >> 4
	if retainHandling == 3 {
		return SubscriptionOptions{}, &InvalidSubscriptionOptionsError{Options: b}
	}
	return SubscriptionOptions{
		MaxQoS:            encoding.QoS(b & 0x03),
		NoLocal:           b&0x04 != 0,
		RetainAsPublished: b&0x08 != 0,
		RetainHandling:    RetainHandling(retainHandling),
	}, nil
}

func (o SubscriptionOptions) toByte() byte {
	b := byte(o.MaxQoS) & 0x03
	if o.NoLocal {
		b |= 0x04
	}
	if o.RetainAsPublished {
		b |= 0x08
	}
	b |= byte(o.RetainHandling&0x03) << 4
	return b
}

// Subscription is one (topic filter, options) entry in SUBSCRIBE
type Subscription struct {
	TopicFilter encoding.TopicFilter
	Options     SubscriptionOptions
}

// SubscribeProperties is the property block of SUBSCRIBE.
type SubscribeProperties struct {
	SubscriptionIdentifier *uint32
	UserProperties         []UserProperty
}

func decodeSubscribeProperties(body []byte) (SubscribeProperties, int, error) {
	var p SubscribeProperties
	n, err := decodeProperties(encoding.SUBSCRIBE, body, func(id PropertyID, v *propertyValue) error {
		switch id {
		case PropSubscriptionIdentifier:
			p.SubscriptionIdentifier = ptrTo(v.u32)
		case PropUserProperty:
			p.UserProperties = append(p.UserProperties, v.pair)
		default:
			return errPropertyNotAllowed
		}
		return nil
	})
	return p, n, err
}

func (p *SubscribeProperties) innerLen() int {
	length := 0
	if p.SubscriptionIdentifier != nil {
		length += propVarIntLen(*p.SubscriptionIdentifier)
	}
	length += userPropertiesLen(p.UserProperties)
	return length
}

// EncodeLen returns the full block length including the var-int prefix.
func (p *SubscribeProperties) EncodeLen() int {
	return propertyBlockLen(p.innerLen())
}

// Encode writes the property block, prefix included.
func (p *SubscribeProperties) Encode(w io.Writer) error {
	return writePropertyBlock(w, p.innerLen(), func(w io.Writer) error {
		if p.SubscriptionIdentifier != nil {
			if err := writePropVarInt(w, PropSubscriptionIdentifier, *p.SubscriptionIdentifier); err != nil {
				return err
			}
		}
		return writeUserProperties(w, p.UserProperties)
	})
}

// Subscribe represents an MQTT 5.0 SUBSCRIBE packet
type Subscribe struct {
	Pid        encoding.Pid
	Properties SubscribeProperties
	Topics     []Subscription
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

	props, n, err := decodeSubscribeProperties(body[offset:])
	if err != nil {
		return nil, truncated(err)
	}
	offset += n

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

		optionsByte, n, err := encoding.ReadByteFromBytes(body[offset:])
		if err != nil {
			return nil, truncated(err)
		}
		offset += n

		options, err := subscriptionOptionsFromByte(optionsByte)
		if err != nil {
			return nil, err
		}

		topics = append(topics, Subscription{TopicFilter: topicFilter, Options: options})
	}

	return &Subscribe{Pid: pid, Properties: props, Topics: topics}, nil
}

// Encode writes the SUBSCRIBE body.
func (p *Subscribe) Encode(w io.Writer) error {
	if err := encoding.WriteTwoByteInt(w, p.Pid.Value()); err != nil {
		return err
	}
	if err := p.Properties.Encode(w); err != nil {
		return err
	}
	for _, sub := range p.Topics {
		if err := encoding.WriteUTF8String(w, string(sub.TopicFilter)); err != nil {
			return err
		}
		if err := encoding.WriteByte(w, sub.Options.toByte()); err != nil {
			return err
		}
	}
	return nil
}

// EncodeLen returns the SUBSCRIBE body length.
func (p *Subscribe) EncodeLen() int {
	length := 2 + p.Properties.EncodeLen()
	for _, sub := range p.Topics {
		length += 3 + len(sub.TopicFilter)
	}
	return length
}

// SubscribeReasonCode is the per-topic SUBACK outcome. MQTT 5.0 section
// 3.9.3.
type SubscribeReasonCode byte

const (
	SubackGrantedQoS0                         SubscribeReasonCode = 0x00
	SubackGrantedQoS1                         SubscribeReasonCode = 0x01
	SubackGrantedQoS2                         SubscribeReasonCode = 0x02
	SubackUnspecifiedError                    SubscribeReasonCode = 0x80
	SubackImplementationSpecificError         SubscribeReasonCode = 0x83
	SubackNotAuthorized                       SubscribeReasonCode = 0x87
	SubackTopicFilterInvalid                  SubscribeReasonCode = 0x8F
	SubackPacketIdentifierInUse               SubscribeReasonCode = 0x91
	SubackQuotaExceeded                       SubscribeReasonCode = 0x97
	SubackSharedSubscriptionsNotSupported     SubscribeReasonCode = 0x9E
	SubackSubscriptionIdentifiersNotSupported SubscribeReasonCode = 0xA1
	SubackWildcardSubscriptionsNotSupported   SubscribeReasonCode = 0xA2
)

// SubscribeReasonCodeFromByte validates a wire byte against the SUBACK set.
func SubscribeReasonCodeFromByte(b byte) (SubscribeReasonCode, error) {
	switch SubscribeReasonCode(b) {
	case SubackGrantedQoS0, SubackGrantedQoS1, SubackGrantedQoS2,
		SubackUnspecifiedError, SubackImplementationSpecificError,
		SubackNotAuthorized, SubackTopicFilterInvalid,
		SubackPacketIdentifierInUse, SubackQuotaExceeded,
		SubackSharedSubscriptionsNotSupported,
		SubackSubscriptionIdentifiersNotSupported,
		SubackWildcardSubscriptionsNotSupported:
		return SubscribeReasonCode(b), nil
	default:
		return 0, &InvalidReasonCodeError{Type: encoding.SUBACK, Code: b}
	}
}

// Suback represents an MQTT 5.0 SUBACK packet
type Suback struct {
	Pid        encoding.Pid
	Properties AckProperties
	Topics     []SubscribeReasonCode
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

	props, n, err := decodeAckProperties(encoding.SUBACK, body[offset:])
	if err != nil {
		return nil, truncated(err)
	}
	offset += n

	topics := make([]SubscribeReasonCode, 0, len(body)-offset)
	for offset < len(body) {
		code, err := SubscribeReasonCodeFromByte(body[offset])
		if err != nil {
			return nil, err
		}
		offset++
		topics = append(topics, code)
	}

	return &Suback{Pid: pid, Properties: props, Topics: topics}, nil
}

// Encode writes the SUBACK body.
func (p *Suback) Encode(w io.Writer) error {
	if err := encoding.WriteTwoByteInt(w, p.Pid.Value()); err != nil {
		return err
	}
	if err := p.Properties.Encode(w); err != nil {
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
	return 2 + p.Properties.EncodeLen() + len(p.Topics)
}

// UnsubscribeProperties is the property block of UNSUBSCRIBE.
type UnsubscribeProperties struct {
	UserProperties []UserProperty
}

func decodeUnsubscribeProperties(body []byte) (UnsubscribeProperties, int, error) {
	var p UnsubscribeProperties
	n, err := decodeProperties(encoding.UNSUBSCRIBE, body, func(id PropertyID, v *propertyValue) error {
		if id != PropUserProperty {
			return errPropertyNotAllowed
		}
		p.UserProperties = append(p.UserProperties, v.pair)
		return nil
	})
	return p, n, err
}

// EncodeLen returns the full block length including the var-int prefix.
func (p *UnsubscribeProperties) EncodeLen() int {
	return propertyBlockLen(userPropertiesLen(p.UserProperties))
}

// Encode writes the property block, prefix included.
func (p *UnsubscribeProperties) Encode(w io.Writer) error {
	return writePropertyBlock(w, userPropertiesLen(p.UserProperties), func(w io.Writer) error {
		return writeUserProperties(w, p.UserProperties)
	})
}

// Unsubscribe represents an MQTT 5.0 UNSUBSCRIBE packet
type Unsubscribe struct {
	Pid        encoding.Pid
	Properties UnsubscribeProperties
	Topics     []encoding.TopicFilter
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

	props, n, err := decodeUnsubscribeProperties(body[offset:])
	if err != nil {
		return nil, truncated(err)
	}
	offset += n

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

	return &Unsubscribe{Pid: pid, Properties: props, Topics: topics}, nil
}

// Encode writes the UNSUBSCRIBE body.
func (p *Unsubscribe) Encode(w io.Writer) error {
	if err := encoding.WriteTwoByteInt(w, p.Pid.Value()); err != nil {
		return err
	}
	if err := p.Properties.Encode(w); err != nil {
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
	length := 2 + p.Properties.EncodeLen()
	for _, filter := range p.Topics {
		length += 2 + len(filter)
	}
	return length
}

// UnsubscribeReasonCode is the per-topic UNSUBACK outcome. MQTT 5.0 section
// 3.11.3.
type UnsubscribeReasonCode byte

const (
	UnsubackSuccess                     UnsubscribeReasonCode = 0x00
	UnsubackNoSubscriptionExisted       UnsubscribeReasonCode = 0x11
	UnsubackUnspecifiedError            UnsubscribeReasonCode = 0x80
	UnsubackImplementationSpecificError UnsubscribeReasonCode = 0x83
	UnsubackNotAuthorized               UnsubscribeReasonCode = 0x87
	UnsubackTopicFilterInvalid          UnsubscribeReasonCode = 0x8F
	UnsubackPacketIdentifierInUse       UnsubscribeReasonCode = 0x91
)

// UnsubscribeReasonCodeFromByte validates a wire byte against the UNSUBACK set.
func UnsubscribeReasonCodeFromByte(b byte) (UnsubscribeReasonCode, error) {
	switch UnsubscribeReasonCode(b) {
	case UnsubackSuccess, UnsubackNoSubscriptionExisted,
		UnsubackUnspecifiedError, UnsubackImplementationSpecificError,
		UnsubackNotAuthorized, UnsubackTopicFilterInvalid,
		UnsubackPacketIdentifierInUse:
		return UnsubscribeReasonCode(b), nil
	default:
		return 0, &InvalidReasonCodeError{Type: encoding.UNSUBACK, Code: b}
	}
}

// Unsuback represents an MQTT 5.0 UNSUBACK packet
type Unsuback struct {
	Pid        encoding.Pid
	Properties AckProperties
	Topics     []UnsubscribeReasonCode
}

func (*Unsuback) Type() encoding.PacketType { return encoding.UNSUBACK }
func (*Unsuback) flags() byte               { return 0 }

func decodeUnsuback(body []byte) (*Unsuback, error) {
	value, offset, err := encoding.ReadTwoByteIntFromBytes(body)
	if err != nil {
		return nil, truncated(err)
	}
	pid, err := encoding.NewPid(value)
	if err != nil {
		return nil, err
	}

	props, n, err := decodeAckProperties(encoding.UNSUBACK, body[offset:])
	if err != nil {
		return nil, truncated(err)
	}
	offset += n

	topics := make([]UnsubscribeReasonCode, 0, len(body)-offset)
	for offset < len(body) {
		code, err := UnsubscribeReasonCodeFromByte(body[offset])
		if err != nil {
			return nil, err
		}
		offset++
		topics = append(topics, code)
	}

	return &Unsuback{Pid: pid, Properties: props, Topics: topics}, nil
}

// Encode writes the UNSUBACK body.
func (p *Unsuback) Encode(w io.Writer) error {
	if err := encoding.WriteTwoByteInt(w, p.Pid.Value()); err != nil {
		return err
	}
	if err := p.Properties.Encode(w); err != nil {
		return err
	}
	for _, code := range p.Topics {
		if err := encoding.WriteByte(w, byte(code)); err != nil {
			return err
		}
	}
	return nil
}

// EncodeLen returns the UNSUBACK body length.
func (p *Unsuback) EncodeLen() int {
	return 2 + p.Properties.EncodeLen() + len(p.Topics)
}
