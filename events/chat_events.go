package events

import (
	"time"

	domain "github.com/example/realtime-chat/domain/chat"
	"github.com/go-monolith/mono/pkg/helper"
)

// MessageCreatedEvent is emitted after a chat message has been persisted.
type MessageCreatedEvent struct {
	MessageID int64            `json:"message_id"`
	ChannelID domain.ChannelID `json:"channel_id"`
	UserID    int64            `json:"user_id"`
	Username  string           `json:"username"`
	Content   string           `json:"content"`
	CreatedAt time.Time        `json:"created_at"`
}

// MessageCreatedV1 is the typed event definition for persisted messages.
// Subject: events.chat.v1.message-created
var MessageCreatedV1 = helper.EventDefinition[MessageCreatedEvent](
	"chat",
	"MessageCreated",
	"v1",
)
