package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	domain "github.com/example/realtime-chat/domain/chat"
	"github.com/example/realtime-chat/internal/database"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"github.com/go-monolith/mono/pkg/types"
	"gorm.io/gorm"
)

// StoreModule persists channels and messages.
type StoreModule struct {
	db      *gorm.DB
	service *Service
	dbPath  string
	logger  types.Logger
}

// Compile-time interface checks.
var _ mono.Module = (*StoreModule)(nil)
var _ mono.ServiceProviderModule = (*StoreModule)(nil)
var _ mono.HealthCheckableModule = (*StoreModule)(nil)

// NewModule creates a new StoreModule.
func NewModule(logger types.Logger) *StoreModule {
	dbPath := os.Getenv("CHAT_DB_PATH")
	if dbPath == "" {
		dbPath = database.DefaultPath
	}
	return &StoreModule{
		dbPath: dbPath,
		logger: logger,
	}
}

// Name returns the module name.
func (m *StoreModule) Name() string {
	return "store"
}

// Start opens the database, migrates it and seeds the default channels.
func (m *StoreModule) Start(ctx context.Context) error {
	db, err := database.Open(m.dbPath)
	if err != nil {
		return err
	}
	m.db = db

	if err := db.AutoMigrate(&domain.Channel{}, &domain.Message{}); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	repo := NewRepository(db)
	if err := repo.SeedChannels(ctx, DefaultChannels...); err != nil {
		return err
	}
	m.service = NewService(repo)

	m.logger.Info("Store module started", "database", m.dbPath)
	return nil
}

// Stop closes the database.
func (m *StoreModule) Stop(_ context.Context) error {
	if m.db != nil {
		if sqlDB, err := m.db.DB(); err == nil {
			sqlDB.Close()
		}
	}
	m.logger.Info("Store module stopped")
	return nil
}

// Health returns the health status of the module.
func (m *StoreModule) Health(ctx context.Context) mono.HealthStatus {
	if m.db == nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: "database not initialized",
		}
	}

	sqlDB, err := m.db.DB()
	if err != nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: fmt.Sprintf("failed to get database connection: %v", err),
		}
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: fmt.Sprintf("database ping failed: %v", err),
		}
	}

	var channels int64
	if err := m.db.WithContext(ctx).Model(&domain.Channel{}).Count(&channels).Error; err != nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: fmt.Sprintf("failed to count channels: %v", err),
		}
	}

	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"database": m.dbPath,
			"channels": channels,
		},
	}
}

// RegisterServices registers request-reply services in the service container.
func (m *StoreModule) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(
		container, "list-channels", json.Unmarshal, json.Marshal, m.handleListChannels,
	); err != nil {
		return fmt.Errorf("failed to register list-channels service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "create-channel", json.Unmarshal, json.Marshal, m.handleCreateChannel,
	); err != nil {
		return fmt.Errorf("failed to register create-channel service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "create-message", json.Unmarshal, json.Marshal, m.handleCreateMessage,
	); err != nil {
		return fmt.Errorf("failed to register create-message service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "list-messages", json.Unmarshal, json.Marshal, m.handleListMessages,
	); err != nil {
		return fmt.Errorf("failed to register list-messages service: %w", err)
	}

	m.logger.Info("Registered services", "services", "list-channels, create-channel, create-message, list-messages")
	return nil
}

func (m *StoreModule) handleListChannels(ctx context.Context, _ ListChannelsRequest, _ *mono.Msg) (ListChannelsResponse, error) {
	channels, err := m.service.ListChannels(ctx)
	if err != nil {
		return ListChannelsResponse{}, err
	}
	return ListChannelsResponse{Channels: channels}, nil
}

func (m *StoreModule) handleCreateChannel(ctx context.Context, req CreateChannelRequest, _ *mono.Msg) (CreateChannelResponse, error) {
	channel, err := m.service.CreateChannel(ctx, req.Name)
	if err != nil {
		if code := errorCode(err); code != "" {
			return CreateChannelResponse{Code: code}, nil
		}
		return CreateChannelResponse{}, err
	}
	return CreateChannelResponse{Channel: *channel}, nil
}

func (m *StoreModule) handleCreateMessage(ctx context.Context, req CreateMessageRequest, _ *mono.Msg) (CreateMessageResponse, error) {
	message, err := m.service.CreateMessage(ctx, req.Content, req.UserID, req.ChannelID)
	if err != nil {
		if code := errorCode(err); code != "" {
			return CreateMessageResponse{Code: code}, nil
		}
		return CreateMessageResponse{}, err
	}
	return CreateMessageResponse{
		ID:        message.ID,
		Content:   message.Content,
		CreatedAt: message.CreatedAt,
	}, nil
}

func (m *StoreModule) handleListMessages(ctx context.Context, req ListMessagesRequest, _ *mono.Msg) (ListMessagesResponse, error) {
	messages, err := m.service.ListMessages(ctx, req.ChannelID, req.Limit)
	if err != nil {
		return ListMessagesResponse{}, err
	}
	return ListMessagesResponse{Messages: messages}, nil
}
