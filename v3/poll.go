package v3

import (
	"github.com/axmq/wire/encoding"
)

// pollDriver adapts the MQTT 3.1.1 grammar to the generic assembler.
type pollDriver struct{}

func (pollDriver) NewHeader(firstByte byte, remainingLen uint32) (*encoding.FixedHeader, error) {
	header, err := encoding.NewFixedHeaderWith(firstByte, remainingLen)
	if err != nil {
		return nil, err
	}
	// AUTH exists only in MQTT 5.0
	if header.Type == encoding.AUTH {
		return nil, encoding.ErrInvalidHeader
	}
	return header, nil
}

func (pollDriver) EmptyPacket(h *encoding.FixedHeader) (Packet, bool) {
	switch h.Type {
	case encoding.PINGREQ:
		return &Pingreq{}, true
	case encoding.PINGRESP:
		return &Pingresp{}, true
	case encoding.DISCONNECT:
		return &Disconnect{}, true
	default:
		return nil, false
	}
}

func (pollDriver) DecodeBody(h *encoding.FixedHeader, body []byte) (Packet, error) {
	return decodeBody(h, body)
}

// PollState assembles MQTT 3.1.1 packets from an incremental byte stream.
type PollState = encoding.PollState[Packet]

// NewPollState returns an assembler for an MQTT 3.1.1 stream.
func NewPollState() *PollState {
	return encoding.NewPollState[Packet](pollDriver{})
}
