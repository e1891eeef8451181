package api

import (
	"context"
	"errors"
	"sync"
	"time"

	domain "github.com/example/realtime-chat/domain/chat"
	"github.com/example/realtime-chat/modules/auth"
	"github.com/example/realtime-chat/modules/broadcast"
	"github.com/example/realtime-chat/modules/chat"
	"github.com/go-monolith/mono/pkg/types"
)

type nopLogger struct{}

func (l *nopLogger) Debug(_ string, _ ...any)         {}
func (l *nopLogger) Info(_ string, _ ...any)          {}
func (l *nopLogger) Warn(_ string, _ ...any)          {}
func (l *nopLogger) Error(_ string, _ ...any)         {}
func (l *nopLogger) With(_ ...any) types.Logger       { return l }
func (l *nopLogger) WithModule(_ string) types.Logger { return l }
func (l *nopLogger) WithError(_ error) types.Logger   { return l }

// mockAuthPort implements auth.AuthPort for testing. Tokens map to
// identities; any other token is invalid.
type mockAuthPort struct {
	tokens     map[string]domain.Identity
	signupFunc func(ctx context.Context, username, password string) (*auth.Session, error)
	loginFunc  func(ctx context.Context, username, password string) (*auth.Session, error)
}

func (m *mockAuthPort) Signup(ctx context.Context, username, password string) (*auth.Session, error) {
	if m.signupFunc != nil {
		return m.signupFunc(ctx, username, password)
	}
	return nil, errors.New("not implemented")
}

func (m *mockAuthPort) Login(ctx context.Context, username, password string) (*auth.Session, error) {
	if m.loginFunc != nil {
		return m.loginFunc(ctx, username, password)
	}
	return nil, errors.New("not implemented")
}

func (m *mockAuthPort) ValidateToken(_ context.Context, token string) (domain.Identity, error) {
	if identity, ok := m.tokens[token]; ok {
		return identity, nil
	}
	return domain.Identity{}, auth.ErrInvalidToken
}

// mockStorePort implements store.StorePort for testing.
type mockStorePort struct {
	mu                sync.Mutex
	channels          []domain.Channel
	messages          []domain.Message
	createChannelFunc func(ctx context.Context, name string) (*domain.Channel, error)
	createMessageErr  error
}

func (m *mockStorePort) ListChannels(_ context.Context) ([]domain.Channel, error) {
	return m.channels, nil
}

func (m *mockStorePort) CreateChannel(ctx context.Context, name string) (*domain.Channel, error) {
	if m.createChannelFunc != nil {
		return m.createChannelFunc(ctx, name)
	}
	return nil, errors.New("not implemented")
}

func (m *mockStorePort) CreateMessage(_ context.Context, content string, userID, channelID int64) (*domain.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createMessageErr != nil {
		return nil, m.createMessageErr
	}
	msg := domain.Message{
		ID:        int64(len(m.messages) + 1),
		Content:   content,
		UserID:    userID,
		ChannelID: channelID,
		CreatedAt: time.Now().UTC(),
	}
	m.messages = append(m.messages, msg)
	return &msg, nil
}

func (m *mockStorePort) ListMessages(_ context.Context, channelID int64, _ int) ([]domain.MessageView, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	views := []domain.MessageView{}
	for _, msg := range m.messages {
		if msg.ChannelID == channelID {
			views = append(views, domain.MessageView{
				ID:        msg.ID,
				Content:   msg.Content,
				ChannelID: msg.ChannelID,
				CreatedAt: msg.CreatedAt,
			})
		}
	}
	return views, nil
}

func (m *mockStorePort) messageCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.messages)
}

// testSessions builds chat sessions that deliver new messages straight to
// the hub.
type testSessions struct {
	hub    *broadcast.Hub
	ingest *chat.Ingest
}

func (s *testSessions) NewSession(clientID string, identity domain.Identity) *chat.Session {
	return chat.NewSession(clientID, identity, s.hub, s.ingest, chat.Limits{}, &nopLogger{})
}

var (
	alice = domain.Identity{UserID: 1, Username: "alice"}
	bob   = domain.Identity{UserID: 2, Username: "bob"}
)

func newTestModule(authPort *mockAuthPort, storePort *mockStorePort) *APIModule {
	hub := broadcast.NewHub(&nopLogger{})
	ingest := chat.NewIngest(storePort, chat.NewDirectNotifier(hub), hub, &nopLogger{})
	return &APIModule{
		authAdapter:  authPort,
		storeAdapter: storePort,
		hub:          hub,
		sessions:     &testSessions{hub: hub, ingest: ingest},
		port:         "0",
		corsOrigins:  "*",
		sendBuffer:   64,
		logger:       &nopLogger{},
	}
}

func defaultAuth() *mockAuthPort {
	return &mockAuthPort{tokens: map[string]domain.Identity{
		"tok-alice": alice,
		"tok-bob":   bob,
	}}
}
