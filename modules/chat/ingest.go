package chat

import (
	"context"
	"errors"
	"strings"

	domain "github.com/example/realtime-chat/domain/chat"
	"github.com/example/realtime-chat/events"
	"github.com/go-monolith/mono/pkg/types"
)

// ErrInvalidChannelID is returned when a channel identifier is not an integer.
var ErrInvalidChannelID = errors.New("invalid channel id")

// Ingest validates inbound chat content, persists it and announces the
// stored message.
type Ingest struct {
	store    MessageStore
	notifier Notifier
	router   Router
	logger   types.Logger
}

// NewIngest creates a new Ingest.
func NewIngest(store MessageStore, notifier Notifier, router Router, logger types.Logger) *Ingest {
	return &Ingest{
		store:    store,
		notifier: notifier,
		router:   router,
		logger:   logger,
	}
}

// Submit stores content sent by a connection. Whitespace-only content is
// dropped without a reply. A storage failure is reported to the sender only.
func (i *Ingest) Submit(ctx context.Context, clientID string, sender domain.Identity, channelID domain.ChannelID, content string) error {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil
	}

	message, err := i.persist(ctx, content, sender.UserID, channelID)
	if err != nil {
		i.logger.Error("Failed to save message",
			"error", err,
			"connID", clientID,
			"userID", sender.UserID,
			"channelId", channelID.String())
		i.router.SendError(clientID, errSendFailed)
		return err
	}

	event := events.MessageCreatedEvent{
		MessageID: message.ID,
		ChannelID: channelID,
		UserID:    sender.UserID,
		Username:  sender.Username,
		Content:   message.Content,
		CreatedAt: message.CreatedAt,
	}
	if err := i.notifier.MessageCreated(ctx, event); err != nil {
		i.logger.Error("Failed to announce message", "error", err, "messageID", message.ID)
		return err
	}
	return nil
}

func (i *Ingest) persist(ctx context.Context, content string, userID int64, channelID domain.ChannelID) (*domain.Message, error) {
	id, ok := channelID.Int64()
	if !ok {
		return nil, ErrInvalidChannelID
	}
	return i.store.CreateMessage(ctx, content, userID, id)
}
