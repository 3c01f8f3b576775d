package v5

import (
	"github.com/axmq/wire/encoding"
)

// pollDriver adapts the MQTT 5.0 grammar to the generic assembler.
type pollDriver struct{}

func (pollDriver) NewHeader(firstByte byte, remainingLen uint32) (*encoding.FixedHeader, error) {
	return encoding.NewFixedHeaderWith(firstByte, remainingLen)
}

func (pollDriver) EmptyPacket(h *encoding.FixedHeader) (Packet, bool) {
	switch h.Type {
	case encoding.PINGREQ:
		return &Pingreq{}, true
	case encoding.PINGRESP:
		return &Pingresp{}, true
	case encoding.DISCONNECT:
		return NewDisconnect(), true
	case encoding.AUTH:
		return NewAuth(), true
	default:
		return nil, false
	}
}

func (pollDriver) DecodeBody(h *encoding.FixedHeader, body []byte) (Packet, error) {
	return decodeBody(h, body)
}

// PollState assembles MQTT 5.0 packets from an incremental byte stream.
type PollState = encoding.PollState[Packet]

// NewPollState returns an assembler for an MQTT 5.0 stream.
func NewPollState() *PollState {
	return encoding.NewPollState[Packet](pollDriver{})
}
