package v5

import (
	"errors"
	"io"

	"github.com/axmq/wire/encoding"
)

// PropertyID represents MQTT 5.0 property identifiers
type PropertyID byte

const (
	PropPayloadFormatIndicator          PropertyID = 0x01
	PropMessageExpiryInterval           PropertyID = 0x02
	PropContentType                     PropertyID = 0x03
	PropResponseTopic                   PropertyID = 0x08
	PropCorrelationData                 PropertyID = 0x09
	PropSubscriptionIdentifier          PropertyID = 0x0B
	PropSessionExpiryInterval           PropertyID = 0x11
	PropAssignedClientIdentifier        PropertyID = 0x12
	PropServerKeepAlive                 PropertyID = 0x13
	PropAuthenticationMethod            PropertyID = 0x15
	PropAuthenticationData              PropertyID = 0x16
	PropRequestProblemInformation       PropertyID = 0x17
	PropWillDelayInterval               PropertyID = 0x18
	PropRequestResponseInformation      PropertyID = 0x19
	PropResponseInformation             PropertyID = 0x1A
	PropServerReference                 PropertyID = 0x1C
	PropReasonString                    PropertyID = 0x1F
	PropReceiveMaximum                  PropertyID = 0x21
	PropTopicAliasMaximum               PropertyID = 0x22
	PropTopicAlias                      PropertyID = 0x23
	PropMaximumQoS                      PropertyID = 0x24
	PropRetainAvailable                 PropertyID = 0x25
	PropUserProperty                    PropertyID = 0x26
	PropMaximumPacketSize               PropertyID = 0x27
	PropWildcardSubscriptionAvailable   PropertyID = 0x28
	PropSubscriptionIdentifierAvailable PropertyID = 0x29
	PropSharedSubscriptionAvailable     PropertyID = 0x2A
)

// String returns human-readable property name
func (id PropertyID) String() string {
	names := map[PropertyID]string{
		PropPayloadFormatIndicator:          "PayloadFormatIndicator",
		PropMessageExpiryInterval:           "MessageExpiryInterval",
		PropContentType:                     "ContentType",
		PropResponseTopic:                   "ResponseTopic",
		PropCorrelationData:                 "CorrelationData",
		PropSubscriptionIdentifier:          "SubscriptionIdentifier",
		PropSessionExpiryInterval:           "SessionExpiryInterval",
		PropAssignedClientIdentifier:        "AssignedClientIdentifier",
		PropServerKeepAlive:                 "ServerKeepAlive",
		PropAuthenticationMethod:            "AuthenticationMethod",
		PropAuthenticationData:              "AuthenticationData",
		PropRequestProblemInformation:       "RequestProblemInformation",
		PropWillDelayInterval:               "WillDelayInterval",
		PropRequestResponseInformation:      "RequestResponseInformation",
		PropResponseInformation:             "ResponseInformation",
		PropServerReference:                 "ServerReference",
		PropReasonString:                    "ReasonString",
		PropReceiveMaximum:                  "ReceiveMaximum",
		PropTopicAliasMaximum:               "TopicAliasMaximum",
		PropTopicAlias:                      "TopicAlias",
		PropMaximumQoS:                      "MaximumQoS",
		PropRetainAvailable:                 "RetainAvailable",
		PropUserProperty:                    "UserProperty",
		PropMaximumPacketSize:               "MaximumPacketSize",
		PropWildcardSubscriptionAvailable:   "WildcardSubscriptionAvailable",
		PropSubscriptionIdentifierAvailable: "SubscriptionIdentifierAvailable",
		PropSharedSubscriptionAvailable:     "SharedSubscriptionAvailable",
	}

	if name, ok := names[id]; ok {
		return name
	}
	return "UNKNOWN"
}

// propertyType represents the wire data type of a property value
type propertyType byte

const (
	propertyTypeByte propertyType = iota + 1
	propertyTypeTwoByteInt
	propertyTypeFourByteInt
	propertyTypeVarInt
	propertyTypeUTF8String
	propertyTypeUTF8Pair
	propertyTypeBinaryData
)

// propertySpec defines the value type and multiplicity for each property
type propertySpec struct {
	Type     propertyType
	Multiple bool
}

// propertySpecs is the property catalog: one entry per id defined by MQTT
// 5.0 section 2.2.2.2.
var propertySpecs = map[PropertyID]propertySpec{
	PropPayloadFormatIndicator:          {propertyTypeByte, false},
	PropMessageExpiryInterval:           {propertyTypeFourByteInt, false},
	PropContentType:                     {propertyTypeUTF8String, false},
	PropResponseTopic:                   {propertyTypeUTF8String, false},
	PropCorrelationData:                 {propertyTypeBinaryData, false},
	PropSubscriptionIdentifier:          {propertyTypeVarInt, true},
	PropSessionExpiryInterval:           {propertyTypeFourByteInt, false},
	PropAssignedClientIdentifier:        {propertyTypeUTF8String, false},
	PropServerKeepAlive:                 {propertyTypeTwoByteInt, false},
	PropAuthenticationMethod:            {propertyTypeUTF8String, false},
	PropAuthenticationData:              {propertyTypeBinaryData, false},
	PropRequestProblemInformation:       {propertyTypeByte, false},
	PropWillDelayInterval:               {propertyTypeFourByteInt, false},
	PropRequestResponseInformation:      {propertyTypeByte, false},
	PropResponseInformation:             {propertyTypeUTF8String, false},
	PropServerReference:                 {propertyTypeUTF8String, false},
	PropReasonString:                    {propertyTypeUTF8String, false},
	PropReceiveMaximum:                  {propertyTypeTwoByteInt, false},
	PropTopicAliasMaximum:               {propertyTypeTwoByteInt, false},
	PropTopicAlias:                      {propertyTypeTwoByteInt, false},
	PropMaximumQoS:                      {propertyTypeByte, false},
	PropRetainAvailable:                 {propertyTypeByte, false},
	PropUserProperty:                    {propertyTypeUTF8Pair, true},
	PropMaximumPacketSize:               {propertyTypeFourByteInt, false},
	PropWildcardSubscriptionAvailable:   {propertyTypeByte, false},
	PropSubscriptionIdentifierAvailable: {propertyTypeByte, false},
	PropSharedSubscriptionAvailable:     {propertyTypeByte, false},
}

// UserProperty is a single UTF-8 key/value pair; it may repeat within one
// property block.
type UserProperty struct {
	Key   string
	Value string
}

// propertyValue holds one decoded property value; the field matching the
// catalog type for the id is set.
type propertyValue struct {
	b    byte
	u16  uint16
	u32  uint32
	str  string
	data []byte
	pair UserProperty
}

// errPropertyNotAllowed is returned by fold callbacks for ids outside the
// packet type's allow-list; decodeProperties converts it to an
// InvalidPropertyIDError carrying the packet type.
var errPropertyNotAllowed = errors.New("property not allowed")

// decodeProperties reads a var-int length-prefixed property block from body,
// decoding each (id, value) pair by the catalog and folding it into the
// target record through fold. Returns the number of bytes consumed. It
// enforces the block length exactly, rejects unknown ids, repeated scalar
// ids, and out-of-range values.
func decodeProperties(pt encoding.PacketType, body []byte, fold func(id PropertyID, v *propertyValue) error) (int, error) {
	propLen, offset, err := encoding.DecodeVariableByteIntegerFromBytes(body)
	if err != nil {
		return 0, err
	}

	end := offset + int(propLen)
	if end > len(body) {
		return 0, encoding.ErrUnexpectedEOF
	}

	// Duplicate detection: one bit per id, all ids are below 64
	var seen uint64

	for offset < end {
		id := PropertyID(body[offset])
		offset++

		spec, ok := propertySpecs[id]
		if !ok {
			return 0, &InvalidPropertyIDError{Type: pt, ID: id}
		}
		if !spec.Multiple {
			if seen&(1<<id) != 0 {
				return 0, &DuplicatedPropertyError{ID: id}
			}
			seen |= 1 << id
		}

		var value propertyValue
		var n int
		switch spec.Type {
		case propertyTypeByte:
			value.b, n, err = encoding.ReadByteFromBytes(body[offset:end])
		case propertyTypeTwoByteInt:
			value.u16, n, err = encoding.ReadTwoByteIntFromBytes(body[offset:end])
		case propertyTypeFourByteInt:
			value.u32, n, err = encoding.ReadFourByteIntFromBytes(body[offset:end])
		case propertyTypeVarInt:
			value.u32, n, err = encoding.DecodeVariableByteIntegerFromBytes(body[offset:end])
		case propertyTypeUTF8String:
			value.str, n, err = encoding.ReadUTF8StringFromBytes(body[offset:end])
		case propertyTypeUTF8Pair:
			value.pair, n, err = readUserProperty(body[offset:end])
		case propertyTypeBinaryData:
			value.data, n, err = encoding.ReadBinaryDataFromBytes(body[offset:end])
		}
		if err != nil {
			if errors.Is(err, encoding.ErrUnexpectedEOF) {
				return 0, encoding.ErrInvalidRemainingLength
			}
			return 0, err
		}
		offset += n

		if err := validatePropertyValue(id, &value); err != nil {
			return 0, err
		}

		if err := fold(id, &value); err != nil {
			if errors.Is(err, errPropertyNotAllowed) {
				return 0, &InvalidPropertyIDError{Type: pt, ID: id}
			}
			return 0, err
		}
	}

	return end, nil
}

func readUserProperty(data []byte) (UserProperty, int, error) {
	key, n, err := encoding.ReadUTF8StringFromBytes(data)
	if err != nil {
		return UserProperty{}, 0, err
	}
	value, m, err := encoding.ReadUTF8StringFromBytes(data[n:])
	if err != nil {
		return UserProperty{}, 0, err
	}
	return UserProperty{Key: key, Value: value}, n + m, nil
}

// validatePropertyValue enforces the id-specific value domains of MQTT 5.0
// section 2.2.2.2.
func validatePropertyValue(id PropertyID, v *propertyValue) error {
	switch id {
	case PropPayloadFormatIndicator:
		if v.b > 1 {
			return ErrInvalidPayloadFormat
		}
	case PropRequestResponseInformation, PropRequestProblemInformation,
		PropMaximumQoS, PropRetainAvailable, PropWildcardSubscriptionAvailable,
		PropSubscriptionIdentifierAvailable, PropSharedSubscriptionAvailable:
		if v.b > 1 {
			return protocolError(id.String() + " must be 0 or 1")
		}
	case PropSubscriptionIdentifier:
		if v.u32 == 0 {
			return protocolError("subscription identifier must be nonzero")
		}
	case PropReceiveMaximum:
		if v.u16 == 0 {
			return protocolError("receive maximum must be nonzero")
		}
	case PropTopicAlias:
		if v.u16 == 0 {
			return protocolError("topic alias must be nonzero")
		}
	case PropMaximumPacketSize:
		if v.u32 == 0 {
			return protocolError("maximum packet size must be nonzero")
		}
	}
	return nil
}

// ptrTo copies v to the heap for optional property fields.
func ptrTo[T any](v T) *T { return &v }

// Property write helpers: id byte plus value, used by the per-packet
// property encoders. Length duals compute the same bytes for the single-pass
// length prefix.

func writePropByte(w io.Writer, id PropertyID, value byte) error {
	if err := encoding.WriteByte(w, byte(id)); err != nil {
		return err
	}
	return encoding.WriteByte(w, value)
}

func writePropBool(w io.Writer, id PropertyID, value bool) error {
	var b byte
	if value {
		b = 1
	}
	return writePropByte(w, id, b)
}

func writePropTwoByteInt(w io.Writer, id PropertyID, value uint16) error {
	if err := encoding.WriteByte(w, byte(id)); err != nil {
		return err
	}
	return encoding.WriteTwoByteInt(w, value)
}

func writePropFourByteInt(w io.Writer, id PropertyID, value uint32) error {
	if err := encoding.WriteByte(w, byte(id)); err != nil {
		return err
	}
	return encoding.WriteFourByteInt(w, value)
}

func writePropVarInt(w io.Writer, id PropertyID, value uint32) error {
	if err := encoding.WriteByte(w, byte(id)); err != nil {
		return err
	}
	varIntBytes, err := encoding.EncodeVariableByteInteger(value)
	if err != nil {
		return err
	}
	_, err = w.Write(varIntBytes)
	return err
}

func writePropString(w io.Writer, id PropertyID, value string) error {
	if err := encoding.WriteByte(w, byte(id)); err != nil {
		return err
	}
	return encoding.WriteUTF8String(w, value)
}

func writePropBinary(w io.Writer, id PropertyID, value []byte) error {
	if err := encoding.WriteByte(w, byte(id)); err != nil {
		return err
	}
	return encoding.WriteBinaryData(w, value)
}

func writeUserProperties(w io.Writer, props []UserProperty) error {
	for _, up := range props {
		if err := encoding.WriteByte(w, byte(PropUserProperty)); err != nil {
			return err
		}
		if err := encoding.WriteUTF8String(w, up.Key); err != nil {
			return err
		}
		if err := encoding.WriteUTF8String(w, up.Value); err != nil {
			return err
		}
	}
	return nil
}

const (
	propByteLen        = 2
	propTwoByteIntLen  = 3
	propFourByteIntLen = 5
)

func propVarIntLen(value uint32) int {
	return 1 + encoding.SizeVariableByteInteger(value)
}

func propStringLen(value string) int {
	return 3 + len(value)
}

func propBinaryLen(value []byte) int {
	return 3 + len(value)
}

func userPropertiesLen(props []UserProperty) int {
	length := 0
	for _, up := range props {
		length += 5 + len(up.Key) + len(up.Value)
	}
	return length
}

// writePropertyBlock writes the var-int length prefix followed by the body
// produced by write. innerLen must equal the number of bytes write produces.
func writePropertyBlock(w io.Writer, innerLen int, write func(io.Writer) error) error {
	if uint64(innerLen) > uint64(encoding.MaxVarByteInt) {
		return encoding.ErrInvalidVarByteInt
	}
	lengthBytes, err := encoding.EncodeVariableByteInteger(uint32(innerLen))
	if err != nil {
		return err
	}
	if _, err := w.Write(lengthBytes); err != nil {
		return err
	}
	if innerLen == 0 {
		return nil
	}
	return write(w)
}

// propertyBlockLen returns the full block length: var-int prefix plus body.
func propertyBlockLen(innerLen int) int {
	return encoding.SizeVariableByteInteger(uint32(innerLen)) + innerLen
}
