package store

import (
	"context"
	"errors"
	"strings"

	domain "github.com/example/realtime-chat/domain/chat"
)

const (
	defaultMessageLimit = 50
	maxMessageLimit     = 200
)

// DefaultChannels are created on first start.
var DefaultChannels = []string{"general", "random"}

// ErrChannelNameRequired is returned when a channel name is blank.
var ErrChannelNameRequired = errors.New("channel name is required")

// Service holds the channel and message rules on top of the repository.
type Service struct {
	repo *Repository
}

// NewService creates a new store service.
func NewService(repo *Repository) *Service {
	return &Service{repo: repo}
}

// ListChannels returns all channels.
func (s *Service) ListChannels(ctx context.Context) ([]domain.Channel, error) {
	return s.repo.ListChannels(ctx)
}

// CreateChannel creates a channel with a trimmed, non-empty name.
func (s *Service) CreateChannel(ctx context.Context, name string) (*domain.Channel, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrChannelNameRequired
	}

	channel := &domain.Channel{Name: name}
	if err := s.repo.CreateChannel(ctx, channel); err != nil {
		return nil, err
	}
	return channel, nil
}

// CreateMessage persists a message in an existing channel.
func (s *Service) CreateMessage(ctx context.Context, content string, userID, channelID int64) (*domain.Message, error) {
	exists, err := s.repo.ChannelExists(ctx, channelID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrChannelNotFound
	}

	message := &domain.Message{
		Content:   content,
		UserID:    userID,
		ChannelID: channelID,
	}
	if err := s.repo.CreateMessage(ctx, message); err != nil {
		return nil, err
	}
	return message, nil
}

// ListMessages returns channel history, oldest first. Limits outside
// (0, maxMessageLimit] are clamped.
func (s *Service) ListMessages(ctx context.Context, channelID int64, limit int) ([]domain.MessageView, error) {
	switch {
	case limit <= 0:
		limit = defaultMessageLimit
	case limit > maxMessageLimit:
		limit = maxMessageLimit
	}
	return s.repo.ListMessages(ctx, channelID, limit)
}
