package store

import (
	"context"
	"encoding/json"
	"fmt"

	domain "github.com/example/realtime-chat/domain/chat"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// StorePort is what other modules use to reach the store module.
type StorePort interface {
	ListChannels(ctx context.Context) ([]domain.Channel, error)
	CreateChannel(ctx context.Context, name string) (*domain.Channel, error)
	CreateMessage(ctx context.Context, content string, userID, channelID int64) (*domain.Message, error)
	ListMessages(ctx context.Context, channelID int64, limit int) ([]domain.MessageView, error)
}

// StoreAdapter implements StorePort using the service container.
type StoreAdapter struct {
	container mono.ServiceContainer
}

// NewStoreAdapter creates a new StoreAdapter.
func NewStoreAdapter(container mono.ServiceContainer) *StoreAdapter {
	return &StoreAdapter{container: container}
}

// ListChannels returns all channels.
func (a *StoreAdapter) ListChannels(ctx context.Context) ([]domain.Channel, error) {
	req := ListChannelsRequest{}
	var resp ListChannelsResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		"list-channels",
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("list-channels request failed: %w", err)
	}
	return resp.Channels, nil
}

// CreateChannel creates a channel.
func (a *StoreAdapter) CreateChannel(ctx context.Context, name string) (*domain.Channel, error) {
	req := CreateChannelRequest{Name: name}
	var resp CreateChannelResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		"create-channel",
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("create-channel request failed: %w", err)
	}
	if resp.Code != "" {
		return nil, codeError(resp.Code, fmt.Errorf("create-channel failed: %s", resp.Code))
	}
	return &resp.Channel, nil
}

// CreateMessage persists a message.
func (a *StoreAdapter) CreateMessage(ctx context.Context, content string, userID, channelID int64) (*domain.Message, error) {
	req := CreateMessageRequest{Content: content, UserID: userID, ChannelID: channelID}
	var resp CreateMessageResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		"create-message",
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("create-message request failed: %w", err)
	}
	if resp.Code != "" {
		return nil, codeError(resp.Code, fmt.Errorf("create-message failed: %s", resp.Code))
	}
	return &domain.Message{
		ID:        resp.ID,
		Content:   resp.Content,
		UserID:    userID,
		ChannelID: channelID,
		CreatedAt: resp.CreatedAt,
	}, nil
}

// ListMessages returns channel history, oldest first.
func (a *StoreAdapter) ListMessages(ctx context.Context, channelID int64, limit int) ([]domain.MessageView, error) {
	req := ListMessagesRequest{ChannelID: channelID, Limit: limit}
	var resp ListMessagesResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		"list-messages",
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("list-messages request failed: %w", err)
	}
	if resp.Messages == nil {
		resp.Messages = []domain.MessageView{}
	}
	return resp.Messages, nil
}
