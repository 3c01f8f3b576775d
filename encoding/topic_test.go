package encoding

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTopicName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{name: "simple", input: "a/b/c"},
		{name: "single_level", input: "a"},
		{name: "leading_slash", input: "/a"},
		{name: "trailing_slash", input: "a/"},
		{name: "empty_levels", input: "a//b"},
		{name: "sys_topic", input: "$SYS/broker/load"},
		{name: "unicode", input: "sensors/température"},
		{name: "empty", input: "", wantErr: ErrEmptyTopic},
		{name: "plus_wildcard", input: "a/+/b", wantErr: ErrInvalidTopic},
		{name: "hash_wildcard", input: "a/#", wantErr: ErrInvalidTopic},
		{name: "embedded_plus", input: "a+b", wantErr: ErrInvalidTopic},
		{name: "embedded_nul", input: "a\x00b", wantErr: ErrInvalidString},
		{name: "too_long", input: strings.Repeat("a", 65536), wantErr: ErrInvalidTopic},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			topic, err := NewTopicName(tt.input)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.input, topic.String())
		})
	}
}

func TestTopicNameIsSys(t *testing.T) {
	sys, err := NewTopicName("$SYS/broker/uptime")
	require.NoError(t, err)
	assert.True(t, sys.IsSys())

	plain, err := NewTopicName("home/kitchen")
	require.NoError(t, err)
	assert.False(t, plain.IsSys())
}

func TestNewTopicFilter(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{name: "exact", input: "a/b/c"},
		{name: "single_wildcard", input: "a/+/c"},
		{name: "leading_wildcard", input: "+/b"},
		{name: "only_plus", input: "+"},
		{name: "only_hash", input: "#"},
		{name: "trailing_hash", input: "a/b/#"},
		{name: "empty_level", input: "a//b"},
		{name: "shared", input: "$share/group/a/b"},
		{name: "shared_wildcards", input: "$share/g/+/b/#"},
		{name: "empty", input: "", wantErr: ErrEmptyTopic},
		{name: "hash_not_last", input: "a/#/b", wantErr: ErrInvalidTopic},
		{name: "hash_in_level", input: "a/b#", wantErr: ErrInvalidTopic},
		{name: "plus_in_level", input: "a/b+/c", wantErr: ErrInvalidTopic},
		{name: "shared_no_group", input: "$share//a", wantErr: ErrInvalidTopic},
		{name: "shared_no_filter", input: "$share/g/", wantErr: ErrInvalidTopic},
		{name: "shared_missing_separator", input: "$share/g", wantErr: ErrInvalidTopic},
		{name: "shared_wildcard_group", input: "$share/+/a", wantErr: ErrInvalidTopic},
		{name: "embedded_nul", input: "a\x00b", wantErr: ErrInvalidString},
		{name: "too_long", input: strings.Repeat("a", 65536), wantErr: ErrInvalidTopic},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			filter, err := NewTopicFilter(tt.input)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.input, filter.String())
		})
	}
}

func TestTopicFilterShared(t *testing.T) {
	filter, err := NewTopicFilter("$share/workers/jobs/+")
	require.NoError(t, err)
	assert.True(t, filter.IsShared())
	assert.Equal(t, "workers", filter.SharedGroup())
	assert.Equal(t, "jobs/+", filter.SharedFilter())

	// Identity is the original string
	assert.Equal(t, "$share/workers/jobs/+", filter.String())

	plain, err := NewTopicFilter("jobs/+")
	require.NoError(t, err)
	assert.False(t, plain.IsShared())
	assert.Equal(t, "", plain.SharedGroup())
	assert.Equal(t, "jobs/+", plain.SharedFilter())

	// Shared and plain forms never compare equal
	assert.NotEqual(t, filter, plain)
}

func TestValidateUTF8String(t *testing.T) {
	assert.NoError(t, ValidateUTF8String([]byte("hello")))
	assert.NoError(t, ValidateUTF8String([]byte("")))
	assert.NoError(t, ValidateUTF8String([]byte("é世界")))

	assert.ErrorIs(t, ValidateUTF8String([]byte{0x00}), ErrNullCharacter)
	assert.ErrorIs(t, ValidateUTF8String([]byte{0xFF, 0xFE}), ErrInvalidString)
	// U+FFFE / U+FFFF non-characters
	assert.ErrorIs(t, ValidateUTF8String([]byte{0xEF, 0xBF, 0xBE}), ErrNonCharacterCodePoint)
	assert.ErrorIs(t, ValidateUTF8String([]byte{0xEF, 0xBF, 0xBF}), ErrNonCharacterCodePoint)
	// U+FDD0 non-character
	assert.ErrorIs(t, ValidateUTF8String([]byte{0xEF, 0xB7, 0x90}), ErrNonCharacterCodePoint)
}
