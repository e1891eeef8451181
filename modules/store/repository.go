package store

import (
	"context"
	"errors"
	"fmt"
	"slices"

	domain "github.com/example/realtime-chat/domain/chat"
	"gorm.io/gorm"
)

var (
	// ErrChannelNotFound is returned when a channel does not exist.
	ErrChannelNotFound = errors.New("channel not found")
	// ErrChannelExists is returned when the channel name is already used.
	ErrChannelExists = errors.New("channel already exists")
)

// Repository provides access to channel and message storage.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new store repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// SeedChannels creates the named channels that do not exist yet.
func (r *Repository) SeedChannels(ctx context.Context, names ...string) error {
	for _, name := range names {
		channel := domain.Channel{Name: name}
		if err := r.db.WithContext(ctx).Where("name = ?", name).FirstOrCreate(&channel).Error; err != nil {
			return fmt.Errorf("failed to seed channel %q: %w", name, err)
		}
	}
	return nil
}

// ListChannels returns every channel ordered by id.
func (r *Repository) ListChannels(ctx context.Context) ([]domain.Channel, error) {
	channels := []domain.Channel{}
	if err := r.db.WithContext(ctx).Order("id").Find(&channels).Error; err != nil {
		return nil, fmt.Errorf("failed to list channels: %w", err)
	}
	return channels, nil
}

// CreateChannel saves a new channel.
func (r *Repository) CreateChannel(ctx context.Context, channel *domain.Channel) error {
	if err := r.db.WithContext(ctx).Create(channel).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrChannelExists
		}
		return fmt.Errorf("failed to create channel: %w", err)
	}
	return nil
}

// ChannelExists reports whether a channel with the given id exists.
func (r *Repository) ChannelExists(ctx context.Context, id int64) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&domain.Channel{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to look up channel: %w", err)
	}
	return count > 0, nil
}

// CreateMessage saves a new message. The channel must exist.
func (r *Repository) CreateMessage(ctx context.Context, message *domain.Message) error {
	if err := r.db.WithContext(ctx).Create(message).Error; err != nil {
		if errors.Is(err, gorm.ErrForeignKeyViolated) {
			return ErrChannelNotFound
		}
		return fmt.Errorf("failed to create message: %w", err)
	}
	return nil
}

// ListMessages returns the newest limit messages of a channel, oldest first,
// each joined with its sender's username.
func (r *Repository) ListMessages(ctx context.Context, channelID int64, limit int) ([]domain.MessageView, error) {
	views := []domain.MessageView{}
	err := r.db.WithContext(ctx).
		Table("messages").
		Select("messages.id, messages.content, COALESCE(users.username, '') AS username, messages.channel_id, messages.created_at").
		Joins("LEFT JOIN users ON users.id = messages.user_id").
		Where("messages.channel_id = ?", channelID).
		Order("messages.created_at DESC, messages.id DESC").
		Limit(limit).
		Scan(&views).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}

	slices.Reverse(views)
	return views, nil
}
