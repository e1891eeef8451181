package broadcast

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	domain "github.com/example/realtime-chat/domain/chat"
	"github.com/example/realtime-chat/events"
	"github.com/go-monolith/mono/pkg/types"
)

// nopLogger implements types.Logger for testing
type nopLogger struct{}

func (l *nopLogger) Debug(_ string, _ ...any)         {}
func (l *nopLogger) Info(_ string, _ ...any)          {}
func (l *nopLogger) Warn(_ string, _ ...any)          {}
func (l *nopLogger) Error(_ string, _ ...any)         {}
func (l *nopLogger) With(_ ...any) types.Logger       { return l }
func (l *nopLogger) WithModule(_ string) types.Logger { return l }
func (l *nopLogger) WithError(_ error) types.Logger   { return l }

func newTestHub() *Hub {
	return NewHub(&nopLogger{})
}

func register(t *testing.T, h *Hub, id string, userID int64, username string) *Client {
	t.Helper()
	c := NewClient(id, domain.Identity{UserID: userID, Username: username}, 16)
	if err := h.Register(c); err != nil {
		t.Fatalf("Register(%s) error = %v", id, err)
	}
	return c
}

// drain returns every frame currently queued for c.
func drain(t *testing.T, c *Client) []Frame {
	t.Helper()
	var frames []Frame
	for {
		select {
		case data, ok := <-c.Send():
			if !ok {
				return frames
			}
			var f Frame
			if err := json.Unmarshal(data, &f); err != nil {
				t.Fatalf("invalid frame %s: %v", data, err)
			}
			frames = append(frames, f)
		default:
			return frames
		}
	}
}

func framesNamed(frames []Frame, event string) []Frame {
	var out []Frame
	for _, f := range frames {
		if f.Event == event {
			out = append(out, f)
		}
	}
	return out
}

func lastOnline(t *testing.T, frames []Frame) []domain.OnlineUser {
	t.Helper()
	online := framesNamed(frames, EventOnlineUsers)
	if len(online) == 0 {
		t.Fatal("no onlineUsers frame received")
	}
	var users []domain.OnlineUser
	if err := json.Unmarshal(online[len(online)-1].Data, &users); err != nil {
		t.Fatalf("invalid onlineUsers payload: %v", err)
	}
	return users
}

func countUser(users []domain.OnlineUser, userID int64) int {
	n := 0
	for _, u := range users {
		if u.UserID == userID {
			n++
		}
	}
	return n
}

func TestHub_RegisterBroadcastsPresenceToEveryone(t *testing.T) {
	h := newTestHub()

	first := register(t, h, "c1", 1, "alice")
	second := register(t, h, "c2", 2, "bob")

	firstUsers := lastOnline(t, drain(t, first))
	if len(firstUsers) != 2 {
		t.Fatalf("first connection sees %d users, want 2", len(firstUsers))
	}

	secondUsers := lastOnline(t, drain(t, second))
	if secondUsers[0].Username != "alice" || secondUsers[1].Username != "bob" {
		t.Errorf("online order = %+v, want alice then bob", secondUsers)
	}
}

func TestHub_RegisterDuplicateID(t *testing.T) {
	h := newTestHub()
	register(t, h, "c1", 1, "alice")

	err := h.Register(NewClient("c1", domain.Identity{UserID: 1, Username: "alice"}, 4))
	if !errors.Is(err, ErrAlreadyRegistered) {
		t.Errorf("Register() error = %v, want ErrAlreadyRegistered", err)
	}
}

func TestHub_OnlineUsersDeduplicatesConnections(t *testing.T) {
	tests := []struct {
		name        string
		connections int
	}{
		{name: "single connection", connections: 1},
		{name: "two tabs", connections: 2},
		{name: "many devices", connections: 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestHub()
			watcher := register(t, h, "watcher", 99, "watcher")

			for i := 0; i < tt.connections; i++ {
				register(t, h, fmt.Sprintf("multi-%d", i), 105, "multitab")
			}

			if n := countUser(h.OnlineUsers(), 105); n != 1 {
				t.Errorf("OnlineUsers() contains user 105 %d times, want 1", n)
			}
			if n := countUser(lastOnline(t, drain(t, watcher)), 105); n != 1 {
				t.Errorf("broadcast contains user 105 %d times, want 1", n)
			}
		})
	}
}

func TestHub_UnregisterKeepsUserWhileConnectionsRemain(t *testing.T) {
	h := newTestHub()
	watcher := register(t, h, "watcher", 99, "watcher")
	register(t, h, "tab-1", 7, "leaver")
	register(t, h, "tab-2", 7, "leaver")

	if !h.Unregister("tab-1") {
		t.Fatal("Unregister(tab-1) = false, want true")
	}
	if n := countUser(lastOnline(t, drain(t, watcher)), 7); n != 1 {
		t.Errorf("after first disconnect user 7 appears %d times, want 1", n)
	}

	h.Unregister("tab-2")
	if n := countUser(lastOnline(t, drain(t, watcher)), 7); n != 0 {
		t.Errorf("after last disconnect user 7 appears %d times, want 0", n)
	}
	if n := countUser(h.OnlineUsers(), 7); n != 0 {
		t.Errorf("OnlineUsers() still lists user 7")
	}
}

func TestHub_UnregisterTwiceIsNoop(t *testing.T) {
	h := newTestHub()
	watcher := register(t, h, "watcher", 1, "watcher")
	leaver := register(t, h, "leaver", 2, "leaver")

	if !h.Unregister("leaver") {
		t.Fatal("first Unregister() = false, want true")
	}
	drain(t, watcher)

	if h.Unregister("leaver") {
		t.Error("second Unregister() = true, want false")
	}
	if frames := drain(t, watcher); len(frames) != 0 {
		t.Errorf("second Unregister() sent %d frames, want 0", len(frames))
	}

	// The queue is closed exactly once.
	drain(t, leaver)
	if _, ok := <-leaver.Send(); ok {
		t.Error("unregistered client queue should be closed")
	}
}

func TestHub_JoinRoomLeavesPreviousRoom(t *testing.T) {
	h := newTestHub()
	c := register(t, h, "c1", 1, "mover")
	drain(t, c)

	h.JoinRoom("c1", domain.NewChannelID(1).Room())
	h.JoinRoom("c1", domain.NewChannelID(2).Room())

	if room, _ := h.CurrentRoom("c1"); room != "channel-2" {
		t.Errorf("CurrentRoom() = %q, want channel-2", room)
	}
	if n := h.RoomClientCount("channel-1"); n != 0 {
		t.Errorf("RoomClientCount(channel-1) = %d, want 0", n)
	}

	h.Deliver(Delivery{Room: "channel-1", Event: EventNewMessage, Payload: NewMessagePayload{ID: 1}})
	if frames := drain(t, c); len(frames) != 0 {
		t.Errorf("received %d frames from the room it left", len(frames))
	}

	h.Deliver(Delivery{Room: "channel-2", Event: EventNewMessage, Payload: NewMessagePayload{ID: 2}})
	if frames := drain(t, c); len(frames) != 1 {
		t.Errorf("received %d frames from the joined room, want 1", len(frames))
	}
}

func TestHub_JoinRoomUnknownConnection(t *testing.T) {
	h := newTestHub()
	h.JoinRoom("ghost", "channel-1")

	if n := h.RoomClientCount("channel-1"); n != 0 {
		t.Errorf("RoomClientCount() = %d, want 0", n)
	}
}

func TestHub_TypingSkipsSender(t *testing.T) {
	tests := []struct {
		name   string
		typing bool
		event  string
	}{
		{name: "start", typing: true, event: EventUserTyping},
		{name: "stop", typing: false, event: EventUserStopTyping},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestHub()
			typer := register(t, h, "typer", 106, "typer")
			reader := register(t, h, "reader", 107, "reader")
			outsider := register(t, h, "outsider", 108, "outsider")

			room := domain.NewChannelID(5)
			h.JoinRoom("typer", room.Room())
			h.JoinRoom("reader", room.Room())
			h.JoinRoom("outsider", domain.NewChannelID(6).Room())
			drain(t, typer)
			drain(t, reader)
			drain(t, outsider)

			h.Typing("typer", typer.Identity, room, tt.typing)

			if frames := drain(t, typer); len(frames) != 0 {
				t.Errorf("sender received %d frames, want 0", len(frames))
			}
			if frames := drain(t, outsider); len(frames) != 0 {
				t.Errorf("other room received %d frames, want 0", len(frames))
			}

			frames := drain(t, reader)
			if len(frames) != 1 || frames[0].Event != tt.event {
				t.Fatalf("reader frames = %+v, want one %s", frames, tt.event)
			}
			var payload struct {
				Username  string `json:"username"`
				ChannelID int    `json:"channelId"`
			}
			if err := json.Unmarshal(frames[0].Data, &payload); err != nil {
				t.Fatalf("invalid payload: %v", err)
			}
			if payload.Username != "typer" || payload.ChannelID != 5 {
				t.Errorf("payload = %+v, want {typer 5}", payload)
			}
		})
	}
}

func TestHub_NewMessageReachesWholeRoomIncludingSender(t *testing.T) {
	h := newTestHub()
	sender := register(t, h, "sender", 1, "ismael")
	receiver := register(t, h, "receiver", 1, "ismael")
	h.JoinRoom("sender", "channel-1")
	h.JoinRoom("receiver", "channel-1")
	drain(t, sender)
	drain(t, receiver)

	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	h.NewMessage(events.MessageCreatedEvent{
		MessageID: 10,
		ChannelID: domain.NewChannelID(1),
		UserID:    1,
		Username:  "ismael",
		Content:   "hello",
		CreatedAt: created,
	})

	for _, c := range []*Client{sender, receiver} {
		frames := drain(t, c)
		if len(frames) != 1 || frames[0].Event != EventNewMessage {
			t.Fatalf("%s frames = %+v, want one newMessage", c.ID, frames)
		}
		var msg struct {
			ID        int64     `json:"id"`
			Content   string    `json:"content"`
			Username  string    `json:"username"`
			ChannelID int64     `json:"channel_id"`
			CreatedAt time.Time `json:"created_at"`
		}
		if err := json.Unmarshal(frames[0].Data, &msg); err != nil {
			t.Fatalf("invalid payload: %v", err)
		}
		if msg.ID != 10 || msg.Content != "hello" || msg.Username != "ismael" || msg.ChannelID != 1 {
			t.Errorf("payload = %+v", msg)
		}
		if !msg.CreatedAt.Equal(created) {
			t.Errorf("created_at = %v, want %v", msg.CreatedAt, created)
		}
	}
}

func TestHub_SendErrorIsPrivate(t *testing.T) {
	h := newTestHub()
	a := register(t, h, "a", 1, "a")
	b := register(t, h, "b", 2, "b")
	drain(t, a)
	drain(t, b)

	h.SendError("a", "Failed to send message")

	frames := drain(t, a)
	if len(frames) != 1 || frames[0].Event != EventError {
		t.Fatalf("frames = %+v, want one error", frames)
	}
	var payload ErrorPayload
	_ = json.Unmarshal(frames[0].Data, &payload)
	if payload.Message != "Failed to send message" {
		t.Errorf("message = %q", payload.Message)
	}
	if frames := drain(t, b); len(frames) != 0 {
		t.Errorf("other connection received %d frames", len(frames))
	}
}

func TestHub_FullQueueDropsFrame(t *testing.T) {
	h := newTestHub()
	slow := NewClient("slow", domain.Identity{UserID: 1, Username: "slow"}, 1)
	if err := h.Register(slow); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	// The presence frame fills the queue.
	h.SendError("slow", "one")
	h.SendError("slow", "two")

	if got := h.Dropped(); got != 2 {
		t.Errorf("Dropped() = %d, want 2", got)
	}
	if frames := drain(t, slow); len(frames) != 1 {
		t.Errorf("queued frames = %d, want 1", len(frames))
	}
}

func TestHub_RunShutdownClosesQueues(t *testing.T) {
	h := newTestHub()
	c := register(t, h, "c1", 1, "alice")
	h.JoinRoom("c1", "channel-1")

	ctx, cancel := context.WithCancel(context.Background())
	go h.Run(ctx)

	h.Publish(Delivery{Room: "channel-1", Event: EventNewMessage, Payload: NewMessagePayload{ID: 3}})

	cancel()
	h.Wait()

	frames := drain(t, c)
	if len(framesNamed(frames, EventOnlineUsers)) != 1 {
		t.Errorf("frames = %+v, want the presence frame", frames)
	}
	if _, ok := <-c.Send(); ok {
		t.Error("queue should be closed after shutdown")
	}
	if n := h.ClientCount(); n != 0 {
		t.Errorf("ClientCount() = %d, want 0", n)
	}
	if err := h.Register(NewClient("late", domain.Identity{UserID: 2}, 1)); !errors.Is(err, ErrHubClosed) {
		t.Errorf("Register() after shutdown error = %v, want ErrHubClosed", err)
	}
}

func TestHub_ConcurrentChurn(t *testing.T) {
	h := newTestHub()
	watcher := NewClient("watcher", domain.Identity{UserID: 1000, Username: "watcher"}, 4096)
	if err := h.Register(watcher); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("conn-%d", i)
			c := NewClient(id, domain.Identity{UserID: int64(i % 5), Username: "u"}, 256)
			if err := h.Register(c); err != nil {
				t.Errorf("Register() error = %v", err)
				return
			}
			h.JoinRoom(id, domain.NewChannelID(int64(i%3)).Room())
			h.Unregister(id)
		}(i)
	}
	wg.Wait()

	users := h.OnlineUsers()
	if len(users) != 1 || users[0].UserID != 1000 {
		t.Errorf("OnlineUsers() = %+v, want only the watcher", users)
	}
	if got := lastOnline(t, drain(t, watcher)); len(got) != 1 {
		t.Errorf("last broadcast = %+v, want only the watcher", got)
	}
}
