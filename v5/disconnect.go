package v5

import (
	"io"

	"github.com/axmq/wire/encoding"
)

// DisconnectReasonCode is the DISCONNECT reason code. MQTT 5.0 section
// 3.14.2.1.
type DisconnectReasonCode byte

const (
	DisconnectNormalDisconnection                 DisconnectReasonCode = 0x00
	DisconnectWithWillMessage                     DisconnectReasonCode = 0x04
	DisconnectUnspecifiedError                    DisconnectReasonCode = 0x80
	DisconnectMalformedPacket                     DisconnectReasonCode = 0x81
	DisconnectProtocolError                       DisconnectReasonCode = 0x82
	DisconnectImplementationSpecificError         DisconnectReasonCode = 0x83
	DisconnectNotAuthorized                       DisconnectReasonCode = 0x87
	DisconnectServerBusy                          DisconnectReasonCode = 0x89
	DisconnectServerShuttingDown                  DisconnectReasonCode = 0x8B
	DisconnectKeepAliveTimeout                    DisconnectReasonCode = 0x8D
	DisconnectSessionTakenOver                    DisconnectReasonCode = 0x8E
	DisconnectTopicFilterInvalid                  DisconnectReasonCode = 0x8F
	DisconnectTopicNameInvalid                    DisconnectReasonCode = 0x90
	DisconnectReceiveMaximumExceeded              DisconnectReasonCode = 0x93
	DisconnectTopicAliasInvalid                   DisconnectReasonCode = 0x94
	DisconnectPacketTooLarge                      DisconnectReasonCode = 0x95
	DisconnectMessageRateTooHigh                  DisconnectReasonCode = 0x96
	DisconnectQuotaExceeded                       DisconnectReasonCode = 0x97
	DisconnectAdministrativeAction                DisconnectReasonCode = 0x98
	DisconnectPayloadFormatInvalid                DisconnectReasonCode = 0x99
	DisconnectRetainNotSupported                  DisconnectReasonCode = 0x9A
	DisconnectQoSNotSupported                     DisconnectReasonCode = 0x9B
	DisconnectUseAnotherServer                    DisconnectReasonCode = 0x9C
	DisconnectServerMoved                         DisconnectReasonCode = 0x9D
	DisconnectSharedSubscriptionsNotSupported     DisconnectReasonCode = 0x9E
	DisconnectConnectionRateExceeded              DisconnectReasonCode = 0x9F
	DisconnectMaximumConnectTime                  DisconnectReasonCode = 0xA0
	DisconnectSubscriptionIdentifiersNotSupported DisconnectReasonCode = 0xA1
	DisconnectWildcardSubscriptionsNotSupported   DisconnectReasonCode = 0xA2
)

// DisconnectReasonCodeFromByte validates a wire byte against the DISCONNECT set.
func DisconnectReasonCodeFromByte(b byte) (DisconnectReasonCode, error) {
	switch DisconnectReasonCode(b) {
	case DisconnectNormalDisconnection, DisconnectWithWillMessage,
		DisconnectUnspecifiedError, DisconnectMalformedPacket,
		DisconnectProtocolError, DisconnectImplementationSpecificError,
		DisconnectNotAuthorized, DisconnectServerBusy,
		DisconnectServerShuttingDown, DisconnectKeepAliveTimeout,
		DisconnectSessionTakenOver, DisconnectTopicFilterInvalid,
		DisconnectTopicNameInvalid, DisconnectReceiveMaximumExceeded,
		DisconnectTopicAliasInvalid, DisconnectPacketTooLarge,
		DisconnectMessageRateTooHigh, DisconnectQuotaExceeded,
		DisconnectAdministrativeAction, DisconnectPayloadFormatInvalid,
		DisconnectRetainNotSupported, DisconnectQoSNotSupported,
		DisconnectUseAnotherServer, DisconnectServerMoved,
		DisconnectSharedSubscriptionsNotSupported,
		DisconnectConnectionRateExceeded, DisconnectMaximumConnectTime,
		DisconnectSubscriptionIdentifiersNotSupported,
		DisconnectWildcardSubscriptionsNotSupported:
		return DisconnectReasonCode(b), nil
	default:
		return 0, &InvalidReasonCodeError{Type: encoding.DISCONNECT, Code: b}
	}
}

// DisconnectProperties is the property block of DISCONNECT.
type DisconnectProperties struct {
	SessionExpiryInterval *uint32
	ReasonString          *string
	UserProperties        []UserProperty
	ServerReference       *string
}

func decodeDisconnectProperties(body []byte) (DisconnectProperties, int, error) {
	var p DisconnectProperties
	n, err := decodeProperties(encoding.DISCONNECT, body, func(id PropertyID, v *propertyValue) error {
		switch id {
		case PropSessionExpiryInterval:
			p.SessionExpiryInterval = ptrTo(v.u32)
		case PropReasonString:
			p.ReasonString = ptrTo(v.str)
		case PropUserProperty:
			p.UserProperties = append(p.UserProperties, v.pair)
		case PropServerReference:
			p.ServerReference = ptrTo(v.str)
		default:
			return errPropertyNotAllowed
		}
		return nil
	})
	return p, n, err
}

func (p *DisconnectProperties) isEmpty() bool {
	return p.SessionExpiryInterval == nil && p.ReasonString == nil &&
		len(p.UserProperties) == 0 && p.ServerReference == nil
}

func (p *DisconnectProperties) innerLen() int {
	length := 0
	if p.SessionExpiryInterval != nil {
		length += propFourByteIntLen
	}
	if p.ReasonString != nil {
		length += propStringLen(*p.ReasonString)
	}
	length += userPropertiesLen(p.UserProperties)
	if p.ServerReference != nil {
		length += propStringLen(*p.ServerReference)
	}
	return length
}

// EncodeLen returns the full block length including the var-int prefix.
func (p *DisconnectProperties) EncodeLen() int {
	return propertyBlockLen(p.innerLen())
}

// Encode writes the property block, prefix included.
func (p *DisconnectProperties) Encode(w io.Writer) error {
	return writePropertyBlock(w, p.innerLen(), func(w io.Writer) error {
		if p.SessionExpiryInterval != nil {
			if err := writePropFourByteInt(w, PropSessionExpiryInterval, *p.SessionExpiryInterval); err != nil {
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
		if p.ServerReference != nil {
			if err := writePropString(w, PropServerReference, *p.ServerReference); err != nil {
				return err
			}
		}
		return nil
	})
}

// Disconnect represents an MQTT 5.0 DISCONNECT packet
type Disconnect struct {
	ReasonCode DisconnectReasonCode
	Properties DisconnectProperties
}

// NewDisconnect returns a normal disconnection with default properties.
func NewDisconnect() *Disconnect {
	return &Disconnect{ReasonCode: DisconnectNormalDisconnection}
}

func (*Disconnect) Type() encoding.PacketType { return encoding.DISCONNECT }
func (*Disconnect) flags() byte               { return 0 }

func decodeDisconnect(h *encoding.FixedHeader, body []byte) (*Disconnect, error) {
	// A zero remaining length means normal disconnection
	if h.RemainingLength == 0 {
		return NewDisconnect(), nil
	}

	codeByte, offset, err := encoding.ReadByteFromBytes(body)
	if err != nil {
		return nil, truncated(err)
	}
	code, err := DisconnectReasonCodeFromByte(codeByte)
	if err != nil {
		return nil, err
	}

	if h.RemainingLength == 1 {
		return &Disconnect{ReasonCode: code}, nil
	}

	props, n, err := decodeDisconnectProperties(body[offset:])
	if err != nil {
		return nil, truncated(err)
	}
	offset += n

	if offset != len(body) {
		return nil, encoding.ErrInvalidRemainingLength
	}
	return &Disconnect{ReasonCode: code, Properties: props}, nil
}

// Encode writes the DISCONNECT body in its shortest form.
func (p *Disconnect) Encode(w io.Writer) error {
	if p.Properties.isEmpty() {
		if p.ReasonCode == DisconnectNormalDisconnection {
			return nil
		}
		return encoding.WriteByte(w, byte(p.ReasonCode))
	}
	if err := encoding.WriteByte(w, byte(p.ReasonCode)); err != nil {
		return err
	}
	return p.Properties.Encode(w)
}

// EncodeLen returns the DISCONNECT body length.
func (p *Disconnect) EncodeLen() int {
	if p.Properties.isEmpty() {
		if p.ReasonCode == DisconnectNormalDisconnection {
			return 0
		}
		return 1
	}
	return 1 + p.Properties.EncodeLen()
}

// AuthReasonCode is the AUTH reason code. MQTT 5.0 section 3.15.2.1.
type AuthReasonCode byte

const (
	AuthSuccess                AuthReasonCode = 0x00
	AuthContinueAuthentication AuthReasonCode = 0x18
	AuthReAuthenticate         AuthReasonCode = 0x19
)

// AuthReasonCodeFromByte validates a wire byte against the AUTH set.
func AuthReasonCodeFromByte(b byte) (AuthReasonCode, error) {
	switch AuthReasonCode(b) {
	case AuthSuccess, AuthContinueAuthentication, AuthReAuthenticate:
		return AuthReasonCode(b), nil
	default:
		return 0, &InvalidReasonCodeError{Type: encoding.AUTH, Code: b}
	}
}

// AuthProperties is the property block of AUTH.
type AuthProperties struct {
	AuthenticationMethod *string
	AuthenticationData   []byte
	ReasonString         *string
	UserProperties       []UserProperty
}

func decodeAuthProperties(body []byte) (AuthProperties, int, error) {
	var p AuthProperties
	n, err := decodeProperties(encoding.AUTH, body, func(id PropertyID, v *propertyValue) error {
		switch id {
		case PropAuthenticationMethod:
			p.AuthenticationMethod = ptrTo(v.str)
		case PropAuthenticationData:
			p.AuthenticationData = v.data
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

func (p *AuthProperties) isEmpty() bool {
	return p.AuthenticationMethod == nil && p.AuthenticationData == nil &&
		p.ReasonString == nil && len(p.UserProperties) == 0
}

func (p *AuthProperties) innerLen() int {
	length := 0
	if p.AuthenticationMethod != nil {
		length += propStringLen(*p.AuthenticationMethod)
	}
	if p.AuthenticationData != nil {
		length += propBinaryLen(p.AuthenticationData)
	}
	if p.ReasonString != nil {
		length += propStringLen(*p.ReasonString)
	}
	length += userPropertiesLen(p.UserProperties)
	return length
}

// EncodeLen returns the full block length including the var-int prefix.
func (p *AuthProperties) EncodeLen() int {
	return propertyBlockLen(p.innerLen())
}

// Encode writes the property block, prefix included.
func (p *AuthProperties) Encode(w io.Writer) error {
	return writePropertyBlock(w, p.innerLen(), func(w io.Writer) error {
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
		if p.ReasonString != nil {
			if err := writePropString(w, PropReasonString, *p.ReasonString); err != nil {
				return err
			}
		}
		return writeUserProperties(w, p.UserProperties)
	})
}

// Auth represents an MQTT 5.0 AUTH packet
type Auth struct {
	ReasonCode AuthReasonCode
	Properties AuthProperties
}

// NewAuth returns a success AUTH with default properties.
func NewAuth() *Auth {
	return &Auth{ReasonCode: AuthSuccess}
}

func (*Auth) Type() encoding.PacketType { return encoding.AUTH }
func (*Auth) flags() byte               { return 0 }

func decodeAuth(h *encoding.FixedHeader, body []byte) (*Auth, error) {
	// A zero remaining length means success with default properties
	if h.RemainingLength == 0 {
		return NewAuth(), nil
	}

	codeByte, offset, err := encoding.ReadByteFromBytes(body)
	if err != nil {
		return nil, truncated(err)
	}
	code, err := AuthReasonCodeFromByte(codeByte)
	if err != nil {
		return nil, err
	}

	if h.RemainingLength == 1 {
		return &Auth{ReasonCode: code}, nil
	}

	props, n, err := decodeAuthProperties(body[offset:])
	if err != nil {
		return nil, truncated(err)
	}
	offset += n

	if offset != len(body) {
		return nil, encoding.ErrInvalidRemainingLength
	}
	return &Auth{ReasonCode: code, Properties: props}, nil
}

// Encode writes the AUTH body in its shortest form.
func (p *Auth) Encode(w io.Writer) error {
	if p.Properties.isEmpty() {
		if p.ReasonCode == AuthSuccess {
			return nil
		}
		return encoding.WriteByte(w, byte(p.ReasonCode))
	}
	if err := encoding.WriteByte(w, byte(p.ReasonCode)); err != nil {
		return err
	}
	return p.Properties.Encode(w)
}

// EncodeLen returns the AUTH body length.
func (p *Auth) EncodeLen() int {
	if p.Properties.isEmpty() {
		if p.ReasonCode == AuthSuccess {
			return 0
		}
		return 1
	}
	return 1 + p.Properties.EncodeLen()
}
