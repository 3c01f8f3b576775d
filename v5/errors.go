package v5

import (
	"errors"
	"fmt"

	"github.com/axmq/wire/encoding"
)

var (
	// ErrInvalidPropertyID indicates a property not allowed for the packet type
	ErrInvalidPropertyID = errors.New("invalid property for packet type")

	// ErrDuplicatedProperty indicates a non-repeatable property appearing twice
	ErrDuplicatedProperty = errors.New("duplicated property")

	// ErrInvalidReasonCode indicates a reason code outside the packet type's set
	ErrInvalidReasonCode = errors.New("invalid reason code for packet type")

	// ErrInvalidSubscriptionOptions indicates a malformed subscription options byte
	ErrInvalidSubscriptionOptions = errors.New("invalid subscription options")

	// ErrInvalidPayloadFormat indicates a payload that contradicts its payload format indicator
	ErrInvalidPayloadFormat = errors.New("payload format invalid")

	// ErrProtocol is the base for generic MQTT 5.0 protocol violations
	ErrProtocol = errors.New("protocol error")
)

// InvalidPropertyIDError reports a property id that is unknown or not allowed
// on the packet type being decoded.
type InvalidPropertyIDError struct {
	Type encoding.PacketType
	ID   PropertyID
}

func (e *InvalidPropertyIDError) Error() string {
	return fmt.Sprintf("property %s not allowed in %s", e.ID, e.Type)
}

func (e *InvalidPropertyIDError) Unwrap() error { return ErrInvalidPropertyID }

// DuplicatedPropertyError reports a non-repeatable property appearing more
// than once in one property block.
type DuplicatedPropertyError struct {
	ID PropertyID
}

func (e *DuplicatedPropertyError) Error() string {
	return fmt.Sprintf("duplicated property %s", e.ID)
}

func (e *DuplicatedPropertyError) Unwrap() error { return ErrDuplicatedProperty }

// InvalidReasonCodeError reports a reason code byte outside the closed set of
// the packet type carrying it.
type InvalidReasonCodeError struct {
	Type encoding.PacketType
	Code byte
}

func (e *InvalidReasonCodeError) Error() string {
	return fmt.Sprintf("invalid reason code 0x%02X for %s", e.Code, e.Type)
}

func (e *InvalidReasonCodeError) Unwrap() error { return ErrInvalidReasonCode }

// InvalidSubscriptionOptionsError reports a subscription options byte with
// reserved bits set, QoS 3, or retain handling 3.
type InvalidSubscriptionOptionsError struct {
	Options byte
}

func (e *InvalidSubscriptionOptionsError) Error() string {
	return fmt.Sprintf("invalid subscription options: 0x%02X", e.Options)
}

func (e *InvalidSubscriptionOptionsError) Unwrap() error { return ErrInvalidSubscriptionOptions }

// protocolError builds a generic protocol violation with a reason the caller
// can render.
func protocolError(reason string) error {
	return fmt.Errorf("%w: %s", ErrProtocol, reason)
}
