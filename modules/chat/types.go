package chat

import (
	"context"

	domain "github.com/example/realtime-chat/domain/chat"
	"github.com/example/realtime-chat/events"
)

// Client to server event names.
const (
	EventJoinChannel = "joinChannel"
	EventSendMessage = "sendMessage"
	EventTyping      = "typing"
	EventStopTyping  = "stopTyping"
)

// Private error messages sent to a single connection.
const (
	errSendFailed  = "Failed to send message"
	errRateLimited = "Rate limit exceeded"
)

// ChannelPayload is the body of joinChannel, typing and stopTyping.
type ChannelPayload struct {
	ChannelID domain.ChannelID `json:"channelId"`
}

// SendMessagePayload is the body of sendMessage.
type SendMessagePayload struct {
	ChannelID domain.ChannelID `json:"channelId"`
	Content   string           `json:"content"`
}

// MessageStore persists chat messages.
type MessageStore interface {
	CreateMessage(ctx context.Context, content string, userID, channelID int64) (*domain.Message, error)
}

// Notifier is told about every message that was persisted.
type Notifier interface {
	MessageCreated(ctx context.Context, event events.MessageCreatedEvent) error
}

// Router is the part of the broadcast hub a session drives.
type Router interface {
	JoinRoom(clientID, room string)
	Typing(senderID string, identity domain.Identity, channelID domain.ChannelID, typing bool)
	SendError(clientID, message string)
}
