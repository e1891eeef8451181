package broadcast

import (
	"encoding/json"
	"time"

	domain "github.com/example/realtime-chat/domain/chat"
)

// Server to client event names.
const (
	EventOnlineUsers    = "onlineUsers"
	EventNewMessage     = "newMessage"
	EventUserTyping     = "userTyping"
	EventUserStopTyping = "userStopTyping"
	EventError          = "error"
)

// Frame is the JSON envelope carried by every websocket text frame.
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// NewMessagePayload is the newMessage event body.
type NewMessagePayload struct {
	ID        int64            `json:"id"`
	Content   string           `json:"content"`
	Username  string           `json:"username"`
	ChannelID domain.ChannelID `json:"channel_id"`
	CreatedAt time.Time        `json:"created_at"`
}

// TypingPayload is the userTyping and userStopTyping event body.
type TypingPayload struct {
	Username  string           `json:"username"`
	ChannelID domain.ChannelID `json:"channelId"`
}

// ErrorPayload is the error event body.
type ErrorPayload struct {
	Message string `json:"message"`
}

func encodeFrame(event string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Frame{Event: event, Data: data})
}
