package v5

import (
	"io"

	"github.com/axmq/wire/encoding"
)

// ConnectProperties is the property block of CONNECT.
type ConnectProperties struct {
	SessionExpiryInterval      *uint32
	ReceiveMaximum             *uint16
	MaximumPacketSize          *uint32
	TopicAliasMaximum          *uint16
	RequestResponseInformation *bool
	RequestProblemInformation  *bool
	UserProperties             []UserProperty
	AuthenticationMethod       *string
	AuthenticationData         []byte
}

func decodeConnectProperties(body []byte) (ConnectProperties, int, error) {
	var p ConnectProperties
	n, err := decodeProperties(encoding.CONNECT, body, func(id PropertyID, v *propertyValue) error {
		switch id {
		case PropSessionExpiryInterval:
			p.SessionExpiryInterval = ptrTo(v.u32)
		case PropReceiveMaximum:
			p.ReceiveMaximum = ptrTo(v.u16)
		case PropMaximumPacketSize:
			p.MaximumPacketSize = ptrTo(v.u32)
		case PropTopicAliasMaximum:
			p.TopicAliasMaximum = ptrTo(v.u16)
		case PropRequestResponseInformation:
			p.RequestResponseInformation = ptrTo(v.b == 1)
		case PropRequestProblemInformation:
			p.RequestProblemInformation = ptrTo(v.b == 1)
		case PropUserProperty:
			p.UserProperties = append(p.UserProperties, v.pair)
		case PropAuthenticationMethod:
			p.AuthenticationMethod = ptrTo(v.str)
		case PropAuthenticationData:
			p.AuthenticationData = v.data
		default:
			return errPropertyNotAllowed
		}
		return nil
	})
	return p, n, err
}

func (p *ConnectProperties) innerLen() int {
	length := 0
	if p.SessionExpiryInterval != nil {
		length += propFourByteIntLen
	}
	if p.ReceiveMaximum != nil {
		length += propTwoByteIntLen
	}
	if p.MaximumPacketSize != nil {
		length += propFourByteIntLen
	}
	if p.TopicAliasMaximum != nil {
		length += propTwoByteIntLen
	}
	if p.RequestResponseInformation != nil {
		length += propByteLen
	}
	if p.RequestProblemInformation != nil {
		length += propByteLen
	}
	length += userPropertiesLen(p.UserProperties)
	if p.AuthenticationMethod != nil {
		length += propStringLen(*p.AuthenticationMethod)
	}
	if p.AuthenticationData != nil {
		length += propBinaryLen(p.AuthenticationData)
	}
	return length
}

// EncodeLen returns the full block length including the var-int prefix.
func (p *ConnectProperties) EncodeLen() int {
	return propertyBlockLen(p.innerLen())
}

// Encode writes the property block, prefix included.
func (p *ConnectProperties) Encode(w io.Writer) error {
	return writePropertyBlock(w, p.innerLen(), func(w io.Writer) error {
		if p.SessionExpiryInterval != nil {
			if err := writePropFourByteInt(w, PropSessionExpiryInterval, *p.SessionExpiryInterval); err != nil {
				return err
			}
		}
		if p.ReceiveMaximum != nil {
			if err := writePropTwoByteInt(w, PropReceiveMaximum, *p.ReceiveMaximum); err != nil {
				return err
			}
		}
		if p.MaximumPacketSize != nil {
			if err := writePropFourByteInt(w, PropMaximumPacketSize, *p.MaximumPacketSize); err != nil {
				return err
			}
		}
		if p.TopicAliasMaximum != nil {
			if err := writePropTwoByteInt(w, PropTopicAliasMaximum, *p.TopicAliasMaximum); err != nil {
				return err
			}
		}
		if p.RequestResponseInformation != nil {
			if err := writePropBool(w, PropRequestResponseInformation, *p.RequestResponseInformation); err != nil {
				return err
			}
		}
		if p.RequestProblemInformation != nil {
			if err := writePropBool(w, PropRequestProblemInformation, *p.RequestProblemInformation); err != nil {
				return err
			}
		}
		if err := writeUserProperties(w, p.UserProperties); err != nil {
			return err
		}
		if p.AuthenticationMethod != nil {
			if err := writePropString(w, PropAuthenticationMethod, *p.AuthenticationMethod); err != nil {
				return err
			}
		}
		if p.AuthenticationData != nil {
			if err := writePropBinary(w, PropAuthenticationData, p.AuthenticationData); err != nil {
				return err
			}
		}
		return nil
	})
}

// WillProperties is the property block preceding the will topic and payload.
type WillProperties struct {
	WillDelayInterval      *uint32
	PayloadFormatIndicator *bool
	MessageExpiryInterval  *uint32
	ContentType            *string
	ResponseTopic          *encoding.TopicName
	CorrelationData        []byte
	UserProperties         []UserProperty
}

func decodeWillProperties(body []byte) (WillProperties, int, error) {
	var p WillProperties
	n, err := decodeProperties(encoding.CONNECT, body, func(id PropertyID, v *propertyValue) error {
		switch id {
		case PropWillDelayInterval:
			p.WillDelayInterval = ptrTo(v.u32)
		case PropPayloadFormatIndicator:
			p.PayloadFormatIndicator = ptrTo(v.b == 1)
		case PropMessageExpiryInterval:
			p.MessageExpiryInterval = ptrTo(v.u32)
		case PropContentType:
			p.ContentType = ptrTo(v.str)
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
		default:
			return errPropertyNotAllowed
		}
		return nil
	})
	return p, n, err
}

func (p *WillProperties) innerLen() int {
	length := 0
	if p.WillDelayInterval != nil {
		length += propFourByteIntLen
	}
	if p.PayloadFormatIndicator != nil {
		length += propByteLen
	}
	if p.MessageExpiryInterval != nil {
		length += propFourByteIntLen
	}
	if p.ContentType != nil {
		length += propStringLen(*p.ContentType)
	}
	if p.ResponseTopic != nil {
		length += propStringLen(string(*p.ResponseTopic))
	}
	if p.CorrelationData != nil {
		length += propBinaryLen(p.CorrelationData)
	}
	length += userPropertiesLen(p.UserProperties)
	return length
}

// EncodeLen returns the full block length including the var-int prefix.
func (p *WillProperties) EncodeLen() int {
	return propertyBlockLen(p.innerLen())
}

// Encode writes the property block, prefix included.
func (p *WillProperties) Encode(w io.Writer) error {
	return writePropertyBlock(w, p.innerLen(), func(w io.Writer) error {
		if p.WillDelayInterval != nil {
			if err := writePropFourByteInt(w, PropWillDelayInterval, *p.WillDelayInterval); err != nil {
				return err
			}
		}
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
		if p.ContentType != nil {
			if err := writePropString(w, PropContentType, *p.ContentType); err != nil {
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
		return writeUserProperties(w, p.UserProperties)
	})
}

// LastWill is the will message carried in CONNECT, with its own property
// block preceding the topic and payload.
type LastWill struct {
	QoS        encoding.QoS
	Retain     bool
	Properties WillProperties
	TopicName  encoding.TopicName
	Payload    encoding.VarBytes
}

// Connect represents an MQTT 5.0 CONNECT packet
type Connect struct {
	CleanStart bool
	KeepAlive  uint16
	Properties ConnectProperties
	ClientID   encoding.ClientID
	LastWill   *LastWill
	Username   *encoding.Username
	// Password is absent when nil; an empty non-nil slice is an empty
	// password on the wire.
	Password []byte
}

// NewConnect returns a clean-start CONNECT.
func NewConnect(clientID encoding.ClientID, keepAlive uint16) *Connect {
	return &Connect{
		CleanStart: true,
		KeepAlive:  keepAlive,
		ClientID:   clientID,
	}
}

func (*Connect) Type() encoding.PacketType { return encoding.CONNECT }
func (*Connect) flags() byte               { return 0 }

func decodeConnect(body []byte) (*Connect, error) {
	protocol, offset, err := encoding.DecodeProtocolFromBytes(body)
	if err != nil {
		return nil, truncated(err)
	}
	if protocol != encoding.V50 {
		return nil, &encoding.UnexpectedProtocolError{Protocol: protocol}
	}

	connectFlags, n, err := encoding.ReadByteFromBytes(body[offset:])
	if err != nil {
		return nil, truncated(err)
	}
	offset += n
	// Reserved bit (bit 0) must be 0
	if connectFlags&0x01 != 0 {
		return nil, &encoding.InvalidConnectFlagsError{Flags: connectFlags}
	}

	keepAlive, n, err := encoding.ReadTwoByteIntFromBytes(body[offset:])
	if err != nil {
		return nil, truncated(err)
	}
	offset += n

	props, n, err := decodeConnectProperties(body[offset:])
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
		CleanStart: connectFlags&0x02 != 0,
		KeepAlive:  keepAlive,
		Properties: props,
		ClientID:   encoding.ClientID(clientID),
	}

	if connectFlags&0x04 != 0 {
		willProps, n, err := decodeWillProperties(body[offset:])
		if err != nil {
			return nil, truncated(err)
		}
		offset += n

		topic, n, err := encoding.ReadUTF8StringFromBytes(body[offset:])
		if err != nil {
			return nil, truncated(err)
		}
		offset += n

		topicName, err := encoding.NewTopicName(topic)
		if err != nil {
			return nil, err
		}

		payload, n, err := encoding.ReadBinaryDataFromBytes(body[offset:])
		if err != nil {
			return nil, truncated(err)
		}
		offset += n

		qos, err := encoding.QoSFromByte((connectFlags & 0x18) >> 3)
		if err != nil {
			return nil, err
		}

		pkt.LastWill = &LastWill{
			QoS:        qos,
			Retain:     connectFlags&0x20 != 0,
			Properties: willProps,
			TopicName:  topicName,
			Payload:    encoding.VarBytes(payload),
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
	if p.CleanStart {
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
	if err := encoding.V50.Encode(w); err != nil {
		return err
	}
	if err := encoding.WriteByte(w, p.connectFlags()); err != nil {
		return err
	}
	if err := encoding.WriteTwoByteInt(w, p.KeepAlive); err != nil {
		return err
	}
	if err := p.Properties.Encode(w); err != nil {
		return err
	}
	if err := encoding.WriteUTF8String(w, string(p.ClientID)); err != nil {
		return err
	}
	if p.LastWill != nil {
		if err := p.LastWill.Properties.Encode(w); err != nil {
			return err
		}
		if err := encoding.WriteUTF8String(w, string(p.LastWill.TopicName)); err != nil {
			return err
		}
		if err := encoding.WriteBinaryData(w, p.LastWill.Payload); err != nil {
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
	length := encoding.V50.EncodeLen()
	// connect flags + keep alive
	length += 1 + 2
	length += p.Properties.EncodeLen()
	length += 2 + len(p.ClientID)
	if p.LastWill != nil {
		length += p.LastWill.Properties.EncodeLen()
		length += 2 + len(p.LastWill.TopicName)
		length += 2 + len(p.LastWill.Payload)
	}
	if p.Username != nil {
		length += 2 + len(*p.Username)
	}
	if p.Password != nil {
		length += 2 + len(p.Password)
	}
	return length
}

// ConnectReasonCode is the CONNACK reason code. MQTT 5.0 section 3.2.2.2.
type ConnectReasonCode byte

const (
	ConnectSuccess                     ConnectReasonCode = 0x00
	ConnectUnspecifiedError            ConnectReasonCode = 0x80
	ConnectMalformedPacket             ConnectReasonCode = 0x81
	ConnectProtocolError               ConnectReasonCode = 0x82
	ConnectImplementationSpecificError ConnectReasonCode = 0x83
	ConnectUnsupportedProtocolVersion  ConnectReasonCode = 0x84
	ConnectClientIdentifierNotValid    ConnectReasonCode = 0x85
	ConnectBadUserNameOrPassword       ConnectReasonCode = 0x86
	ConnectNotAuthorized               ConnectReasonCode = 0x87
	ConnectServerUnavailable           ConnectReasonCode = 0x88
	ConnectServerBusy                  ConnectReasonCode = 0x89
	ConnectBanned                      ConnectReasonCode = 0x8A
	ConnectBadAuthenticationMethod     ConnectReasonCode = 0x8C
	ConnectTopicNameInvalid            ConnectReasonCode = 0x90
	ConnectPacketTooLarge              ConnectReasonCode = 0x95
	ConnectQuotaExceeded               ConnectReasonCode = 0x97
	ConnectPayloadFormatInvalid        ConnectReasonCode = 0x99
	ConnectRetainNotSupported          ConnectReasonCode = 0x9A
	ConnectQoSNotSupported             ConnectReasonCode = 0x9B
	ConnectUseAnotherServer            ConnectReasonCode = 0x9C
	ConnectServerMoved                 ConnectReasonCode = 0x9D
	ConnectConnectionRateExceeded      ConnectReasonCode = 0x9F
)

// ConnectReasonCodeFromByte validates a wire byte against the CONNACK set.
func ConnectReasonCodeFromByte(b byte) (ConnectReasonCode, error) {
	switch ConnectReasonCode(b) {
	case ConnectSuccess, ConnectUnspecifiedError, ConnectMalformedPacket,
		ConnectProtocolError, ConnectImplementationSpecificError,
		ConnectUnsupportedProtocolVersion, ConnectClientIdentifierNotValid,
		ConnectBadUserNameOrPassword, ConnectNotAuthorized,
		ConnectServerUnavailable, ConnectServerBusy, ConnectBanned,
		ConnectBadAuthenticationMethod, ConnectTopicNameInvalid,
		ConnectPacketTooLarge, ConnectQuotaExceeded,
		ConnectPayloadFormatInvalid, ConnectRetainNotSupported,
		ConnectQoSNotSupported, ConnectUseAnotherServer, ConnectServerMoved,
		ConnectConnectionRateExceeded:
		return ConnectReasonCode(b), nil
	default:
		return 0, &InvalidReasonCodeError{Type: encoding.CONNACK, Code: b}
	}
}

// ConnackProperties is the property block of CONNACK.
type ConnackProperties struct {
	SessionExpiryInterval           *uint32
	ReceiveMaximum                  *uint16
	MaximumQoS                      *encoding.QoS
	RetainAvailable                 *bool
	MaximumPacketSize               *uint32
	AssignedClientIdentifier        *string
	TopicAliasMaximum               *uint16
	ReasonString                    *string
	UserProperties                  []UserProperty
	WildcardSubscriptionAvailable   *bool
	SubscriptionIdentifierAvailable *bool
	SharedSubscriptionAvailable     *bool
	ServerKeepAlive                 *uint16
	ResponseInformation             *string
	ServerReference                 *string
	AuthenticationMethod            *string
	AuthenticationData              []byte
}

func decodeConnackProperties(body []byte) (ConnackProperties, int, error) {
	var p ConnackProperties
	n, err := decodeProperties(encoding.CONNACK, body, func(id PropertyID, v *propertyValue) error {
		switch id {
		case PropSessionExpiryInterval:
			p.SessionExpiryInterval = ptrTo(v.u32)
		case PropReceiveMaximum:
			p.ReceiveMaximum = ptrTo(v.u16)
		case PropMaximumQoS:
			p.MaximumQoS = ptrTo(encoding.QoS(v.b))
		case PropRetainAvailable:
			p.RetainAvailable = ptrTo(v.b == 1)
		case PropMaximumPacketSize:
			p.MaximumPacketSize = ptrTo(v.u32)
		case PropAssignedClientIdentifier:
			p.AssignedClientIdentifier = ptrTo(v.str)
		case PropTopicAliasMaximum:
			p.TopicAliasMaximum = ptrTo(v.u16)
		case PropReasonString:
			p.ReasonString = ptrTo(v.str)
		case PropUserProperty:
			p.UserProperties = append(p.UserProperties, v.pair)
		case PropWildcardSubscriptionAvailable:
			p.WildcardSubscriptionAvailable = ptrTo(v.b == 1)
		case PropSubscriptionIdentifierAvailable:
			p.SubscriptionIdentifierAvailable = ptrTo(v.b == 1)
		case PropSharedSubscriptionAvailable:
			p.SharedSubscriptionAvailable = ptrTo(v.b == 1)
		case PropServerKeepAlive:
			p.ServerKeepAlive = ptrTo(v.u16)
		case PropResponseInformation:
			p.ResponseInformation = ptrTo(v.str)
		case PropServerReference:
			p.ServerReference = ptrTo(v.str)
		case PropAuthenticationMethod:
			p.AuthenticationMethod = ptrTo(v.str)
		case PropAuthenticationData:
			p.AuthenticationData = v.data
		default:
			return errPropertyNotAllowed
		}
		return nil
	})
	return p, n, err
}

func (p *ConnackProperties) innerLen() int {
	length := 0
	if p.SessionExpiryInterval != nil {
		length += propFourByteIntLen
	}
	if p.ReceiveMaximum != nil {
		length += propTwoByteIntLen
	}
	if p.MaximumQoS != nil {
		length += propByteLen
	}
	if p.RetainAvailable != nil {
		length += propByteLen
	}
	if p.MaximumPacketSize != nil {
		length += propFourByteIntLen
	}
	if p.AssignedClientIdentifier != nil {
		length += propStringLen(*p.AssignedClientIdentifier)
	}
	if p.TopicAliasMaximum != nil {
		length += propTwoByteIntLen
	}
	if p.ReasonString != nil {
		length += propStringLen(*p.ReasonString)
	}
	length += userPropertiesLen(p.UserProperties)
	if p.WildcardSubscriptionAvailable != nil {
		length += propByteLen
	}
	if p.SubscriptionIdentifierAvailable != nil {
		length += propByteLen
	}
	if p.SharedSubscriptionAvailable != nil {
		length += propByteLen
	}
	if p.ServerKeepAlive != nil {
		length += propTwoByteIntLen
	}
	if p.ResponseInformation != nil {
		length += propStringLen(*p.ResponseInformation)
	}
	if p.ServerReference != nil {
		length += propStringLen(*p.ServerReference)
	}
	if p.AuthenticationMethod != nil {
		length += propStringLen(*p.AuthenticationMethod)
	}
	if p.AuthenticationData != nil {
		length += propBinaryLen(p.AuthenticationData)
	}
	return length
}

// EncodeLen returns the full block length including the var-int prefix.
func (p *ConnackProperties) EncodeLen() int {
	return propertyBlockLen(p.innerLen())
}

// Encode writes the property block, prefix included.
func (p *ConnackProperties) Encode(w io.Writer) error {
	return writePropertyBlock(w, p.innerLen(), func(w io.Writer) error {
		if p.SessionExpiryInterval != nil {
			if err := writePropFourByteInt(w, PropSessionExpiryInterval, *p.SessionExpiryInterval); err != nil {
				return err
			}
		}
		if p.ReceiveMaximum != nil {
			if err := writePropTwoByteInt(w, PropReceiveMaximum, *p.ReceiveMaximum); err != nil {
				return err
			}
		}
		if p.MaximumQoS != nil {
			if err := writePropByte(w, PropMaximumQoS, byte(*p.MaximumQoS)); err != nil {
				return err
			}
		}
		if p.RetainAvailable != nil {
			if err := writePropBool(w, PropRetainAvailable, *p.RetainAvailable); err != nil {
				return err
			}
		}
		if p.MaximumPacketSize != nil {
			if err := writePropFourByteInt(w, PropMaximumPacketSize, *p.MaximumPacketSize); err != nil {
				return err
			}
		}
		if p.AssignedClientIdentifier != nil {
			if err := writePropString(w, PropAssignedClientIdentifier, *p.AssignedClientIdentifier); err != nil {
				return err
			}
		}
		if p.TopicAliasMaximum != nil {
			if err := writePropTwoByteInt(w, PropTopicAliasMaximum, *p.TopicAliasMaximum); err != nil {
				return err
			}
		}
		if p.ReasonString != nil {
			if err := writePropString(w, PropReasonString, *p.ReasonString); err != nil {
				return err
			}
		}
		if err := writeUserProperties(w, p.UserProperties); err != nil {
			return err
		}
		if p.WildcardSubscriptionAvailable != nil {
			if err := writePropBool(w, PropWildcardSubscriptionAvailable, *p.WildcardSubscriptionAvailable); err != nil {
				return err
			}
		}
		if p.SubscriptionIdentifierAvailable != nil {
			if err := writePropBool(w, PropSubscriptionIdentifierAvailable, *p.SubscriptionIdentifierAvailable); err != nil {
				return err
			}
		}
		if p.SharedSubscriptionAvailable != nil {
			if err := writePropBool(w, PropSharedSubscriptionAvailable, *p.SharedSubscriptionAvailable); err != nil {
				return err
			}
		}
		if p.ServerKeepAlive != nil {
			if err := writePropTwoByteInt(w, PropServerKeepAlive, *p.ServerKeepAlive); err != nil {
				return err
			}
		}
		if p.ResponseInformation != nil {
			if err := writePropString(w, PropResponseInformation, *p.ResponseInformation); err != nil {
				return err
			}
		}
		if p.ServerReference != nil {
			if err := writePropString(w, PropServerReference, *p.ServerReference); err != nil {
				return err
			}
		}
		if p.AuthenticationMethod != nil {
			if err := writePropString(w, PropAuthenticationMethod, *p.AuthenticationMethod); err != nil {
				return err
			}
		}
		if p.AuthenticationData != nil {
			if err := writePropBinary(w, PropAuthenticationData, p.AuthenticationData); err != nil {
				return err
			}
		}
		return nil
	})
}

// Connack represents an MQTT 5.0 CONNACK packet
type Connack struct {
	SessionPresent bool
	ReasonCode     ConnectReasonCode
	Properties     ConnackProperties
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

	code, err := ConnectReasonCodeFromByte(codeByte)
	if err != nil {
		return nil, err
	}

	props, n, err := decodeConnackProperties(body[offset:])
	if err != nil {
		return nil, truncated(err)
	}
	offset += n

	if offset != len(body) {
		return nil, encoding.ErrInvalidRemainingLength
	}
	return &Connack{
		SessionPresent: ackFlags&0x01 != 0,
		ReasonCode:     code,
		Properties:     props,
	}, nil
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
	if err := encoding.WriteByte(w, byte(p.ReasonCode)); err != nil {
		return err
	}
	return p.Properties.Encode(w)
}

// EncodeLen returns the CONNACK body length.
func (p *Connack) EncodeLen() int {
	return 2 + p.Properties.EncodeLen()
}
