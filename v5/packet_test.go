package v5

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/axmq/wire/encoding"
)

func mustPid(t *testing.T, value uint16) encoding.Pid {
	t.Helper()
	pid, err := encoding.NewPid(value)
	require.NoError(t, err)
	return pid
}

func mustTopicName(t *testing.T, s string) encoding.TopicName {
	t.Helper()
	topic, err := encoding.NewTopicName(s)
	require.NoError(t, err)
	return topic
}

func mustTopicFilter(t *testing.T, s string) encoding.TopicFilter {
	t.Helper()
	filter, err := encoding.NewTopicFilter(s)
	require.NoError(t, err)
	return filter
}

// roundTrip encodes p, checks length agreement, decodes the bytes back and
// compares the result with the original value.
func roundTrip(t *testing.T, p Packet) []byte {
	t.Helper()

	data, err := EncodeToBytes(p)
	require.NoError(t, err)

	total, err := encoding.TotalLen(uint32(p.EncodeLen()))
	require.NoError(t, err)
	assert.Equal(t, total, len(data), "length agreement")

	decoded, n, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, len(data), n)
	assert.Equal(t, p, decoded)

	return data
}

func TestConnectRoundTrips(t *testing.T) {
	username := encoding.Username("user")

	tests := []struct {
		name string
		pkt  *Connect
	}{
		{
			name: "minimal",
			pkt:  NewConnect("client-1", 30),
		},
		{
			name: "with_properties",
			pkt: &Connect{
				CleanStart: true,
				KeepAlive:  60,
				ClientID:   "c2",
				Properties: ConnectProperties{
					SessionExpiryInterval: ptrTo(uint32(7200)),
					ReceiveMaximum:        ptrTo(uint16(10)),
					UserProperties:        []UserProperty{{Key: "a", Value: "b"}},
				},
			},
		},
		{
			name: "will_with_properties",
			pkt: &Connect{
				KeepAlive: 10,
				ClientID:  "c3",
				LastWill: &LastWill{
					QoS:    encoding.QoS1,
					Retain: true,
					Properties: WillProperties{
						WillDelayInterval:      ptrTo(uint32(5)),
						PayloadFormatIndicator: ptrTo(true),
						ContentType:            ptrTo("text/plain"),
					},
					TopicName: mustTopicName(t, "state/gone"),
					Payload:   encoding.VarBytes("bye"),
				},
				Username: &username,
				Password: []byte("secret"),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			roundTrip(t, tt.pkt)
		})
	}
}

func TestConnectRejectsOldProtocol(t *testing.T) {
	// "MQTT"/4 inside a v5 stream
	data := []byte{
		0x10, 0x0F, 0x00, 0x04, 'M', 'Q', 'T', 'T', 0x04, 0x02, 0x00, 0x0A,
		0x00, 0x00, 0x02, 't', '1',
	}
	_, _, err := Decode(data)
	assert.ErrorIs(t, err, encoding.ErrUnexpectedProtocol)
}

func TestConnackRoundTrips(t *testing.T) {
	roundTrip(t, &Connack{SessionPresent: true, ReasonCode: ConnectSuccess})
	roundTrip(t, &Connack{
		ReasonCode: ConnectNotAuthorized,
		Properties: ConnackProperties{ReasonString: ptrTo("denied")},
	})

	_, err := ConnectReasonCodeFromByte(0x8D)
	assert.ErrorIs(t, err, ErrInvalidReasonCode)
}

func TestPublishRoundTrips(t *testing.T) {
	tests := []struct {
		name string
		pkt  *Publish
	}{
		{
			name: "qos0_no_properties",
			pkt:  NewPublish(encoding.QosPidLevel0(), mustTopicName(t, "a/b"), nil),
		},
		{
			name: "qos2_with_properties",
			pkt: &Publish{
				DUP:       true,
				QosPid:    encoding.QosPidLevel2(mustPid(t, 11)),
				TopicName: mustTopicName(t, "sensors/temp"),
				Properties: PublishProperties{
					PayloadFormatIndicator: ptrTo(true),
					MessageExpiryInterval:  ptrTo(uint32(60)),
					ResponseTopic:          ptrTo(mustTopicName(t, "reply/to")),
					CorrelationData:        []byte{1, 2, 3},
					SubscriptionIdentifier: ptrTo(uint32(128)),
				},
				Payload: encoding.VarBytes("21.5"),
			},
		},
		{
			name: "alias_only_empty_topic",
			pkt: &Publish{
				QosPid:     encoding.QosPidLevel0(),
				Properties: PublishProperties{TopicAlias: ptrTo(uint16(4))},
				Payload:    encoding.VarBytes("x"),
			},
		},
		{
			name: "alias_with_nonempty_topic_accepted",
			pkt: &Publish{
				QosPid:     encoding.QosPidLevel0(),
				TopicName:  mustTopicName(t, "a"),
				Properties: PublishProperties{TopicAlias: ptrTo(uint16(4))},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			roundTrip(t, tt.pkt)
		})
	}
}

func TestPublishEmptyTopicWithoutAlias(t *testing.T) {
	// topic "", empty properties, no payload
	_, _, err := Decode([]byte{0x30, 0x03, 0x00, 0x00, 0x00})
	assert.ErrorIs(t, err, encoding.ErrEmptyTopic)
}

func TestPublishPayloadFormatMismatch(t *testing.T) {
	// payload format indicator 1 with a non-UTF-8 payload byte
	data := []byte{
		0x30, 0x08,
		0x00, 0x01, 'a',
		0x02, 0x01, 0x01,
		0xFF, 0xFE,
	}
	_, _, err := Decode(data)
	assert.ErrorIs(t, err, ErrInvalidPayloadFormat)
}

func TestPubackShortForm(t *testing.T) {
	pkt, n, err := Decode([]byte{0x40, 0x02, 0x00, 0x0A})
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	puback, ok := pkt.(*Puback)
	require.True(t, ok)
	assert.Equal(t, mustPid(t, 10), puback.Pid)
	assert.Equal(t, PubackSuccess, puback.ReasonCode)
	assert.Equal(t, AckProperties{}, puback.Properties)
}

func TestPubackReasonOnlyForm(t *testing.T) {
	pkt, _, err := Decode([]byte{0x40, 0x03, 0x00, 0x0A, 0x10})
	require.NoError(t, err)
	assert.Equal(t, PubackNoMatchingSubscribers, pkt.(*Puback).ReasonCode)

	// Byte outside the PUBACK set
	_, _, err = Decode([]byte{0x40, 0x03, 0x00, 0x0A, 0x05})
	require.Error(t, err)

	var rcErr *InvalidReasonCodeError
	require.ErrorAs(t, err, &rcErr)
	assert.Equal(t, encoding.PUBACK, rcErr.Type)
	assert.Equal(t, byte(0x05), rcErr.Code)
}

func TestAckFamilyRoundTrips(t *testing.T) {
	pid := mustPid(t, 9)

	// Success with default properties encodes to the two-byte form
	assert.Len(t, roundTrip(t, NewPuback(pid)), 4)
	assert.Len(t, roundTrip(t, NewPubrec(pid)), 4)
	assert.Len(t, roundTrip(t, NewPubrel(pid)), 4)
	assert.Len(t, roundTrip(t, NewPubcomp(pid)), 4)

	// Non-default reason without properties uses the three-byte form
	assert.Len(t, roundTrip(t, &Puback{Pid: pid, ReasonCode: PubackQuotaExceeded}), 5)
	assert.Len(t, roundTrip(t, &Pubrel{Pid: pid, ReasonCode: PubrelPacketIdentifierNotFound}), 5)

	// Properties force the long form even on success
	roundTrip(t, &Pubcomp{
		Pid:        pid,
		ReasonCode: PubrelSuccess,
		Properties: AckProperties{ReasonString: ptrTo("done")},
	})
}

func TestPubrelReasonCodeDomain(t *testing.T) {
	// 0x10 is valid for PUBACK but not for PUBREL
	_, _, err := Decode([]byte{0x62, 0x03, 0x00, 0x01, 0x10})
	require.Error(t, err)

	var rcErr *InvalidReasonCodeError
	require.ErrorAs(t, err, &rcErr)
	assert.Equal(t, encoding.PUBREL, rcErr.Type)
}

func TestSubscribeRoundTripsAndOptions(t *testing.T) {
	pkt := &Subscribe{
		Pid: mustPid(t, 42),
		Properties: SubscribeProperties{
			SubscriptionIdentifier: ptrTo(uint32(3)),
		},
		Topics: []Subscription{
			{
				TopicFilter: mustTopicFilter(t, "a/+/b"),
				Options: SubscriptionOptions{
					MaxQoS:            encoding.QoS1,
					NoLocal:           true,
					RetainAsPublished: true,
					RetainHandling:    SendRetainedIfNew,
				},
			},
			{
				TopicFilter: mustTopicFilter(t, "$share/g/d/#"),
				Options:     SubscriptionOptions{MaxQoS: encoding.QoS2},
			},
		},
	}
	roundTrip(t, pkt)
}

func TestSubscribeRetainHandling3(t *testing.T) {
	data := []byte{
		0x82, 0x09,
		0x00, 0x01,
		0x00,
		0x00, 0x03, 'a', '/', 'b',
		0x30,
	}
	_, _, err := Decode(data)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidSubscriptionOptions)

	var optsErr *InvalidSubscriptionOptionsError
	require.ErrorAs(t, err, &optsErr)
	assert.Equal(t, byte(0x30), optsErr.Options)
}

func TestSubscriptionOptionsFromByte(t *testing.T) {
	tests := []struct {
		name    string
		input   byte
		want    SubscriptionOptions
		wantErr bool
	}{
		{
			name:  "qos1_nl_rap_rh1",
			input: 0x1D,
			want: SubscriptionOptions{
				MaxQoS:            encoding.QoS1,
				NoLocal:           true,
				RetainAsPublished: true,
				RetainHandling:    SendRetainedIfNew,
			},
		},
		{
			name:  "defaults",
			input: 0x00,
			want:  SubscriptionOptions{},
		},
		{name: "reserved_bit_6", input: 0x40, wantErr: true},
		{name: "reserved_bit_7", input: 0x80, wantErr: true},
		{name: "qos3", input: 0x03, wantErr: true},
		{name: "retain_handling_3", input: 0x30, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts, err := subscriptionOptionsFromByte(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidSubscriptionOptions)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, opts)
			assert.Equal(t, tt.input, opts.toByte())
		})
	}
}

func TestSubscribeEmptyList(t *testing.T) {
	_, _, err := Decode([]byte{0x82, 0x03, 0x00, 0x01, 0x00})
	assert.ErrorIs(t, err, encoding.ErrEmptySubscription)
}

func TestSubackRoundTripsAndValidation(t *testing.T) {
	roundTrip(t, &Suback{
		Pid:    mustPid(t, 4),
		Topics: []SubscribeReasonCode{SubackGrantedQoS2, SubackNotAuthorized},
	})

	_, err := SubscribeReasonCodeFromByte(0x03)
	assert.ErrorIs(t, err, ErrInvalidReasonCode)
}

func TestUnsubscribeRoundTrips(t *testing.T) {
	roundTrip(t, &Unsubscribe{
		Pid: mustPid(t, 8),
		Properties: UnsubscribeProperties{
			UserProperties: []UserProperty{{Key: "trace", Value: "1"}},
		},
		Topics: []encoding.TopicFilter{mustTopicFilter(t, "a/b"), mustTopicFilter(t, "#")},
	})

	_, _, err := Decode([]byte{0xA2, 0x03, 0x00, 0x01, 0x00})
	assert.ErrorIs(t, err, encoding.ErrEmptySubscription)
}

func TestUnsubackRoundTripsAndValidation(t *testing.T) {
	roundTrip(t, &Unsuback{
		Pid:    mustPid(t, 5),
		Topics: []UnsubscribeReasonCode{UnsubackSuccess, UnsubackNoSubscriptionExisted},
	})

	_, err := UnsubscribeReasonCodeFromByte(0x01)
	assert.ErrorIs(t, err, ErrInvalidReasonCode)
}

func TestDisconnectForms(t *testing.T) {
	// Zero remaining length decodes as normal disconnection
	pkt, n, err := Decode([]byte{0xE0, 0x00})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, NewDisconnect(), pkt)

	// Reason code only
	pkt, _, err = Decode([]byte{0xE0, 0x01, 0x04})
	require.NoError(t, err)
	assert.Equal(t, DisconnectWithWillMessage, pkt.(*Disconnect).ReasonCode)

	// Invalid reason code
	_, _, err = Decode([]byte{0xE0, 0x01, 0x05})
	assert.ErrorIs(t, err, ErrInvalidReasonCode)

	// Normal disconnection with default properties encodes to zero body
	assert.Equal(t, []byte{0xE0, 0x00}, roundTrip(t, NewDisconnect()))
	assert.Equal(t, []byte{0xE0, 0x01, 0x8B}, roundTrip(t, &Disconnect{ReasonCode: DisconnectServerShuttingDown}))

	roundTrip(t, &Disconnect{
		ReasonCode: DisconnectNormalDisconnection,
		Properties: DisconnectProperties{
			SessionExpiryInterval: ptrTo(uint32(0)),
			ServerReference:       ptrTo("backup:1883"),
		},
	})
}

func TestAuthForms(t *testing.T) {
	// Zero remaining length decodes as success
	pkt, _, err := Decode([]byte{0xF0, 0x00})
	require.NoError(t, err)
	assert.Equal(t, NewAuth(), pkt)

	assert.Equal(t, []byte{0xF0, 0x00}, roundTrip(t, NewAuth()))

	roundTrip(t, &Auth{
		ReasonCode: AuthContinueAuthentication,
		Properties: AuthProperties{
			AuthenticationMethod: ptrTo("SCRAM-SHA-256"),
			AuthenticationData:   []byte{0x01, 0x02},
		},
	})

	_, err = AuthReasonCodeFromByte(0x80)
	assert.ErrorIs(t, err, ErrInvalidReasonCode)
}

func TestEmptyBodyPingPackets(t *testing.T) {
	assert.Equal(t, []byte{0xC0, 0x00}, roundTrip(t, &Pingreq{}))
	assert.Equal(t, []byte{0xD0, 0x00}, roundTrip(t, &Pingresp{}))
}

func TestDuplicatePropertyInPacket(t *testing.T) {
	data := []byte{
		0x30, 0x0A,
		0x00, 0x01, 'a',
		0x06, 0x23, 0x00, 0x01, 0x23, 0x00, 0x01,
	}
	_, _, err := Decode(data)
	assert.ErrorIs(t, err, ErrDuplicatedProperty)
}

func TestDecodeNeedMoreOnTruncation(t *testing.T) {
	full, err := EncodeToBytes(&Publish{
		QosPid:    encoding.QosPidLevel1(mustPid(t, 3)),
		TopicName: mustTopicName(t, "a/b"),
		Properties: PublishProperties{
			UserProperties: []UserProperty{{Key: "k", Value: "v"}},
		},
		Payload: encoding.VarBytes("data"),
	})
	require.NoError(t, err)

	for i := 0; i < len(full); i++ {
		pkt, n, err := Decode(full[:i])
		assert.NoError(t, err, "prefix length %d", i)
		assert.Nil(t, pkt, "prefix length %d", i)
		assert.Zero(t, n, "prefix length %d", i)
	}
}
