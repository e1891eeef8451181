package store

import (
	"errors"
	"time"

	domain "github.com/example/realtime-chat/domain/chat"
)

// Response codes carried by failed service replies.
const (
	CodeChannelNameRequired = "channel_name_required"
	CodeChannelExists       = "channel_exists"
	CodeChannelNotFound     = "channel_not_found"
)

// ListChannelsRequest represents a list-channels request.
type ListChannelsRequest struct{}

// ListChannelsResponse represents a list-channels response.
type ListChannelsResponse struct {
	Channels []domain.Channel `json:"channels"`
}

// CreateChannelRequest represents a create-channel request.
type CreateChannelRequest struct {
	Name string `json:"name"`
}

// CreateChannelResponse represents a create-channel response.
type CreateChannelResponse struct {
	Channel domain.Channel `json:"channel"`
	Code    string         `json:"code,omitempty"`
}

// CreateMessageRequest represents a create-message request.
type CreateMessageRequest struct {
	Content   string `json:"content"`
	UserID    int64  `json:"user_id"`
	ChannelID int64  `json:"channel_id"`
}

// CreateMessageResponse represents a create-message response.
type CreateMessageResponse struct {
	ID        int64     `json:"id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	Code      string    `json:"code,omitempty"`
}

// ListMessagesRequest represents a list-messages request.
type ListMessagesRequest struct {
	ChannelID int64 `json:"channel_id"`
	Limit     int   `json:"limit,omitempty"`
}

// ListMessagesResponse represents a list-messages response.
type ListMessagesResponse struct {
	Messages []domain.MessageView `json:"messages"`
}

var codeErrors = map[string]error{
	CodeChannelNameRequired: ErrChannelNameRequired,
	CodeChannelExists:       ErrChannelExists,
	CodeChannelNotFound:     ErrChannelNotFound,
}

func errorCode(err error) string {
	for code, sentinel := range codeErrors {
		if errors.Is(err, sentinel) {
			return code
		}
	}
	return ""
}

func codeError(code string, fallback error) error {
	if err, ok := codeErrors[code]; ok {
		return err
	}
	return fallback
}
