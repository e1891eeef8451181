package chat

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// ChannelID is a channel identifier as supplied by a client. It keeps the
// client's JSON literal so events can echo it back unchanged, whether the
// client sent a number or a string.
type ChannelID struct {
	raw []byte
}

// NewChannelID returns the numeric form of a channel identifier.
func NewChannelID(id int64) ChannelID {
	return ChannelID{raw: []byte(strconv.FormatInt(id, 10))}
}

// UnmarshalJSON stores the literal as-is.
func (c *ChannelID) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) {
		c.raw = nil
		return nil
	}
	c.raw = append([]byte(nil), trimmed...)
	return nil
}

// MarshalJSON writes the stored literal, or null when absent.
func (c ChannelID) MarshalJSON() ([]byte, error) {
	if len(c.raw) == 0 {
		return []byte("null"), nil
	}
	return c.raw, nil
}

// IsZero reports whether the identifier was absent.
func (c ChannelID) IsZero() bool {
	return len(c.raw) == 0
}

// String returns the identifier text: strings are unquoted, other literals
// are returned verbatim.
func (c ChannelID) String() string {
	if len(c.raw) == 0 {
		return ""
	}
	if c.raw[0] == '"' {
		var s string
		if err := json.Unmarshal(c.raw, &s); err == nil {
			return s
		}
	}
	return string(c.raw)
}

// Int64 returns the identifier as an integer. Quoted integers are accepted.
func (c ChannelID) Int64() (int64, bool) {
	id, err := strconv.ParseInt(c.String(), 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

// Room returns the broadcast room name for the channel.
func (c ChannelID) Room() string {
	return "channel-" + c.String()
}
