package store

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	domain "github.com/example/realtime-chat/domain/chat"
	"github.com/example/realtime-chat/internal/database"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get underlying DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := db.AutoMigrate(&domain.User{}, &domain.Channel{}, &domain.Message{}); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return db
}

func setupTestService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()
	db := setupTestDB(t)
	repo := NewRepository(db)
	if err := repo.SeedChannels(context.Background(), DefaultChannels...); err != nil {
		t.Fatalf("SeedChannels() error = %v", err)
	}
	return NewService(repo), db
}

func TestRepository_SeedChannelsIsIdempotent(t *testing.T) {
	repo := NewRepository(setupTestDB(t))
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if err := repo.SeedChannels(ctx, DefaultChannels...); err != nil {
			t.Fatalf("SeedChannels() error = %v", err)
		}
	}

	channels, err := repo.ListChannels(ctx)
	if err != nil {
		t.Fatalf("ListChannels() error = %v", err)
	}
	if len(channels) != 2 {
		t.Fatalf("len(channels) = %d, want 2", len(channels))
	}
	if channels[0].Name != "general" || channels[1].Name != "random" {
		t.Errorf("channels = %q, %q; want general, random", channels[0].Name, channels[1].Name)
	}
}

func TestService_CreateChannel(t *testing.T) {
	svc, _ := setupTestService(t)
	ctx := context.Background()

	channel, err := svc.CreateChannel(ctx, "  dev  ")
	if err != nil {
		t.Fatalf("CreateChannel() error = %v", err)
	}
	if channel.Name != "dev" || channel.ID == 0 {
		t.Errorf("CreateChannel() = %+v, want trimmed name and an id", channel)
	}

	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{name: "empty", input: "", wantErr: ErrChannelNameRequired},
		{name: "blank", input: "   ", wantErr: ErrChannelNameRequired},
		{name: "duplicate", input: "general", wantErr: ErrChannelExists},
		{name: "duplicate after trim", input: " dev ", wantErr: ErrChannelExists},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.CreateChannel(ctx, tt.input); !errors.Is(err, tt.wantErr) {
				t.Errorf("CreateChannel(%q) error = %v, want %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestService_CreateMessage(t *testing.T) {
	svc, db := setupTestService(t)
	ctx := context.Background()

	user := domain.User{Username: "ismael", PasswordHash: "x"}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}

	message, err := svc.CreateMessage(ctx, "hello", user.ID, 1)
	if err != nil {
		t.Fatalf("CreateMessage() error = %v", err)
	}
	if message.ID == 0 {
		t.Error("message ID should be assigned")
	}
	if message.CreatedAt.IsZero() {
		t.Error("message CreatedAt should be set")
	}

	if _, err := svc.CreateMessage(ctx, "lost", user.ID, 999); !errors.Is(err, ErrChannelNotFound) {
		t.Errorf("CreateMessage() error = %v, want %v", err, ErrChannelNotFound)
	}
}

func TestRepository_CreateMessageRequiresChannel(t *testing.T) {
	repo := NewRepository(setupTestDB(t))
	ctx := context.Background()

	message := &domain.Message{Content: "orphan", UserID: 1, ChannelID: 999}
	if err := repo.CreateMessage(ctx, message); !errors.Is(err, ErrChannelNotFound) {
		t.Errorf("CreateMessage() error = %v, want %v", err, ErrChannelNotFound)
	}
}

func TestService_ListMessages(t *testing.T) {
	svc, db := setupTestService(t)
	ctx := context.Background()

	user := domain.User{Username: "alice", PasswordHash: "x"}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}

	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		msg := domain.Message{
			Content:   fmt.Sprintf("msg-%d", i),
			UserID:    user.ID,
			ChannelID: 1,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		if err := db.Create(&msg).Error; err != nil {
			t.Fatalf("create message: %v", err)
		}
	}

	messages, err := svc.ListMessages(ctx, 1, 3)
	if err != nil {
		t.Fatalf("ListMessages() error = %v", err)
	}
	if len(messages) != 3 {
		t.Fatalf("len(messages) = %d, want 3", len(messages))
	}
	for i, want := range []string{"msg-2", "msg-3", "msg-4"} {
		if messages[i].Content != want {
			t.Errorf("messages[%d].Content = %q, want %q", i, messages[i].Content, want)
		}
		if messages[i].Username != "alice" {
			t.Errorf("messages[%d].Username = %q, want alice", i, messages[i].Username)
		}
	}

	empty, err := svc.ListMessages(ctx, 2, 0)
	if err != nil {
		t.Fatalf("ListMessages() error = %v", err)
	}
	if empty == nil || len(empty) != 0 {
		t.Errorf("ListMessages(empty channel) = %v, want empty non-nil slice", empty)
	}
}

func TestCodeErrors(t *testing.T) {
	for code, sentinel := range codeErrors {
		if got := errorCode(sentinel); got != code {
			t.Errorf("errorCode(%v) = %q, want %q", sentinel, got, code)
		}
		if got := codeError(code, nil); !errors.Is(got, sentinel) {
			t.Errorf("codeError(%q) = %v, want %v", code, got, sentinel)
		}
	}

	fallback := errors.New("fallback")
	if got := codeError("unknown", fallback); got != fallback {
		t.Errorf("codeError(unknown) = %v, want fallback", got)
	}
	if got := errorCode(errors.New("boom")); got != "" {
		t.Errorf("errorCode(boom) = %q, want empty", got)
	}
}
