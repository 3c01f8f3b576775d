package encoding

import (
	"strings"
)

// Topic constants shared by names and filters.
const (
	// LevelSep separates levels within a topic tree
	LevelSep = '/'
	// MatchOne is the wildcard matching exactly one topic level
	MatchOne = '+'
	// MatchAll is the wildcard matching any number of trailing levels
	MatchAll = '#'

	// SysPrefix marks server-internal topics
	SysPrefix = "$SYS/"
	// SharedPrefix marks shared subscription filters
	SharedPrefix = "$share/"
)

// TopicName is a validated publication topic: non-empty UTF-8, no wildcards,
// no embedded NUL, at most 65535 bytes. Construct through NewTopicName.
type TopicName string

// NewTopicName validates s as an MQTT topic name.
func NewTopicName(s string) (TopicName, error) {
	if err := validateTopicName(s); err != nil {
		return "", err
	}
	return TopicName(s), nil
}

// IsSys returns true for '$'-prefixed topics, which are valid but reserved
// for server use.
func (t TopicName) IsSys() bool {
	return len(t) > 0 && t[0] == '$'
}

func (t TopicName) String() string { return string(t) }

func validateTopicName(s string) error {
	if s == "" {
		return ErrEmptyTopic
	}
	if len(s) > 0xFFFF {
		return ErrTopicTooLong
	}
	if strings.ContainsAny(s, "+#") {
		return ErrInvalidTopic
	}
	if err := ValidateUTF8String([]byte(s)); err != nil {
		return err
	}
	return nil
}

// TopicFilter is a validated subscription filter. Wildcard rules: '+'
// occupies exactly one level; '#' occupies exactly one level and must be
// final. "$share/{group}/{filter}" is a shared subscription with a
// nonempty, wildcard-free group. The identity of a filter is its original
// string; two filters compare equal only if byte-equal. Construct through
// NewTopicFilter.
type TopicFilter string

// NewTopicFilter validates s as an MQTT topic filter.
func NewTopicFilter(s string) (TopicFilter, error) {
	if s == "" {
		return "", ErrEmptyTopic
	}
	if len(s) > 0xFFFF {
		return "", ErrTopicTooLong
	}
	if err := ValidateUTF8String([]byte(s)); err != nil {
		return "", err
	}

	filter := s
	if strings.HasPrefix(s, SharedPrefix) {
		rest := s[len(SharedPrefix):]
		slash := strings.IndexByte(rest, LevelSep)
		if slash <= 0 {
			return "", ErrInvalidTopic
		}
		group := rest[:slash]
		if strings.ContainsAny(group, "+#") {
			return "", ErrInvalidTopic
		}
		filter = rest[slash+1:]
		if filter == "" {
			return "", ErrInvalidTopic
		}
	}

	if err := validateFilterLevels(filter); err != nil {
		return "", err
	}
	return TopicFilter(s), nil
}

func validateFilterLevels(filter string) error {
	levels := strings.Split(filter, string(LevelSep))
	for i, level := range levels {
		// '#' must be alone in its level and the level must be last
		if strings.ContainsRune(level, MatchAll) {
			if level != string(MatchAll) || i != len(levels)-1 {
				return ErrInvalidTopic
			}
		}

		// '+' must be alone in its level
		if strings.ContainsRune(level, MatchOne) {
			if level != string(MatchOne) {
				return ErrInvalidTopic
			}
		}
	}
	return nil
}

// IsShared returns true for "$share/..." filters.
func (t TopicFilter) IsShared() bool {
	return strings.HasPrefix(string(t), SharedPrefix)
}

// SharedGroup returns the share group name, or "" for ordinary filters.
func (t TopicFilter) SharedGroup() string {
	group, _ := t.splitShared()
	return group
}

// SharedFilter returns the filter part after "$share/{group}/", or the whole
// filter for ordinary subscriptions.
func (t TopicFilter) SharedFilter() string {
	_, filter := t.splitShared()
	return filter
}

// IsSys returns true for '$'-prefixed filters.
func (t TopicFilter) IsSys() bool {
	return len(t) > 0 && t[0] == '$'
}

func (t TopicFilter) String() string { return string(t) }

func (t TopicFilter) splitShared() (group, filter string) {
	if !t.IsShared() {
		return "", string(t)
	}
	rest := string(t)[len(SharedPrefix):]
	slash := strings.IndexByte(rest, LevelSep)
	return rest[:slash], rest[slash+1:]
}
