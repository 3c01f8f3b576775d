package encoding

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFixedHeaderFromBytes(t *testing.T) {
	tests := []struct {
		name         string
		input        []byte
		wantType     PacketType
		wantFlags    byte
		wantRemain   uint32
		wantConsumed int
		wantErr      error
	}{
		{
			name:         "connect",
			input:        []byte{0x10, 0x27},
			wantType:     CONNECT,
			wantRemain:   39,
			wantConsumed: 2,
		},
		{
			name:         "pingreq",
			input:        []byte{0xC0, 0x00},
			wantType:     PINGREQ,
			wantRemain:   0,
			wantConsumed: 2,
		},
		{
			name:         "publish_qos1_retain",
			input:        []byte{0x33, 0x0A},
			wantType:     PUBLISH,
			wantFlags:    0x03,
			wantRemain:   10,
			wantConsumed: 2,
		},
		{
			name:         "pubrel_required_flags",
			input:        []byte{0x62, 0x02},
			wantType:     PUBREL,
			wantFlags:    0x02,
			wantRemain:   2,
			wantConsumed: 2,
		},
		{
			name:         "multi_byte_remaining_length",
			input:        []byte{0x30, 0x80, 0x01},
			wantType:     PUBLISH,
			wantRemain:   128,
			wantConsumed: 3,
		},
		{
			name:    "reserved_type",
			input:   []byte{0x00, 0x00},
			wantErr: ErrInvalidHeader,
		},
		{
			name:    "publish_qos3",
			input:   []byte{0x36, 0x02},
			wantErr: ErrInvalidQoS,
		},
		{
			name:    "connect_nonzero_flags",
			input:   []byte{0x11, 0x0A},
			wantErr: ErrInvalidHeader,
		},
		{
			name:    "pubrel_wrong_flags",
			input:   []byte{0x60, 0x02},
			wantErr: ErrInvalidHeader,
		},
		{
			name:    "subscribe_wrong_flags",
			input:   []byte{0x80, 0x05},
			wantErr: ErrInvalidHeader,
		},
		{
			name:    "puback_below_minimum_length",
			input:   []byte{0x40, 0x01},
			wantErr: ErrInvalidRemainingLength,
		},
		{
			name:    "connack_below_minimum_length",
			input:   []byte{0x20, 0x00},
			wantErr: ErrInvalidRemainingLength,
		},
		{
			name:    "overlong_remaining_length",
			input:   []byte{0x10, 0xFF, 0xFF, 0xFF, 0xFF},
			wantErr: ErrInvalidVarByteInt,
		},
		{
			name:    "truncated",
			input:   []byte{0x10},
			wantErr: ErrUnexpectedEOF,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			header, consumed, err := ParseFixedHeaderFromBytes(tt.input)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantType, header.Type)
			assert.Equal(t, tt.wantFlags, header.Flags)
			assert.Equal(t, tt.wantRemain, header.RemainingLength)
			assert.Equal(t, tt.wantConsumed, consumed)

			// Reader flavor agrees
			fromReader, err := ParseFixedHeader(bytes.NewReader(tt.input))
			require.NoError(t, err)
			assert.Equal(t, header, fromReader)
		})
	}
}

// Every reserved bit pattern on a non-PUBLISH type must be rejected.
func TestReservedFlagRejection(t *testing.T) {
	required := map[PacketType]byte{
		CONNECT:     0x00,
		CONNACK:     0x00,
		PUBACK:      0x00,
		PUBREC:      0x00,
		PUBREL:      0x02,
		PUBCOMP:     0x00,
		SUBSCRIBE:   0x02,
		SUBACK:      0x00,
		UNSUBSCRIBE: 0x02,
		UNSUBACK:    0x00,
		PINGREQ:     0x00,
		PINGRESP:    0x00,
		DISCONNECT:  0x00,
		AUTH:        0x00,
	}

	for pt, legal := range required {
		for flags := byte(0); flags < 0x10; flags++ {
			firstByte := byte(pt)<<4 | flags
			_, err := NewFixedHeaderWith(firstByte, minRemainingLength[pt])
			if flags == legal {
				assert.NoError(t, err, "type %s flags %#x", pt, flags)
			} else {
				assert.ErrorIs(t, err, ErrInvalidHeader, "type %s flags %#x", pt, flags)
			}
		}
	}
}

func TestPublishFlagDecoding(t *testing.T) {
	header, err := NewFixedHeaderWith(0x3D, 10) // DUP + QoS2 + Retain
	require.NoError(t, err)
	assert.True(t, header.DUP)
	assert.Equal(t, QoS2, header.QoS)
	assert.True(t, header.Retain)
	assert.Equal(t, byte(0x0D), header.BuildPublishFlags())
}

func TestEncodeFixedHeaderRoundTrip(t *testing.T) {
	headers := []FixedHeader{
		{Type: CONNECT, RemainingLength: 39},
		{Type: PUBLISH, Flags: 0x0B, RemainingLength: 130, DUP: true, QoS: QoS1, Retain: true},
		{Type: PINGRESP, RemainingLength: 0},
		{Type: SUBSCRIBE, Flags: 0x02, RemainingLength: MaxVarByteInt},
	}

	for _, fh := range headers {
		var buf bytes.Buffer
		require.NoError(t, fh.EncodeFixedHeader(&buf))

		decoded, consumed, err := ParseFixedHeaderFromBytes(buf.Bytes())
		require.NoError(t, err)
		assert.Equal(t, buf.Len(), consumed)
		assert.Equal(t, fh.Type, decoded.Type)
		assert.Equal(t, fh.RemainingLength, decoded.RemainingLength)

		toBytes := make([]byte, 5)
		n, err := fh.EncodeFixedHeaderToBytes(toBytes)
		require.NoError(t, err)
		assert.Equal(t, buf.Bytes(), toBytes[:n])
	}
}
