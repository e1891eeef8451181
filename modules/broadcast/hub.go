package broadcast

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	domain "github.com/example/realtime-chat/domain/chat"
	"github.com/go-monolith/mono/pkg/types"
)

// DefaultSendBuffer is the outbound queue length of a connection.
const DefaultSendBuffer = 64

var (
	// ErrAlreadyRegistered is returned when a connection id is registered twice.
	ErrAlreadyRegistered = errors.New("connection already registered")
	// ErrHubClosed is returned when registering after shutdown.
	ErrHubClosed = errors.New("hub is closed")
)

// Client is the hub's view of a live connection. The transport owns the
// connection itself; the hub only holds its outbound queue.
type Client struct {
	ID       string
	Identity domain.Identity

	room string // guarded by Hub.mu
	send chan []byte
}

// NewClient creates a client with an outbound queue of the given size.
func NewClient(id string, identity domain.Identity, sendBuffer int) *Client {
	if sendBuffer <= 0 {
		sendBuffer = DefaultSendBuffer
	}
	return &Client{
		ID:       id,
		Identity: identity,
		send:     make(chan []byte, sendBuffer),
	}
}

// Send returns the outbound frame queue. It is closed when the client is
// unregistered or the hub shuts down.
func (c *Client) Send() <-chan []byte {
	return c.send
}

// Delivery is a frame addressed to an audience: one room, or every
// connection when Room is empty. Except names a connection to skip.
type Delivery struct {
	Room    string
	Event   string
	Payload any
	Except  string
}

// Hub tracks live connections, their presence and their room, and fans out
// events to them. All state changes and the deliveries they trigger happen
// under one lock, so every connection sees presence snapshots in the order
// the registry changed.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client         // connID -> Client
	order   []string                   // connIDs in registration order
	rooms   map[string]map[string]bool // room -> set of connIDs
	closed  bool

	broadcast chan Delivery
	done      chan struct{}
	dropped   atomic.Uint64
	logger    types.Logger
}

// NewHub creates a new Hub.
func NewHub(logger types.Logger) *Hub {
	return &Hub{
		clients:   make(map[string]*Client),
		rooms:     make(map[string]map[string]bool),
		broadcast: make(chan Delivery, 256),
		done:      make(chan struct{}),
		logger:    logger,
	}
}

// Run delivers queued broadcasts until ctx is cancelled, then closes every
// client queue and clears the hub.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.logger.Info("Hub shutting down")
			h.closeAllClients()
			close(h.done)
			return
		case d := <-h.broadcast:
			h.Deliver(d)
		}
	}
}

// Wait blocks until Run has returned.
func (h *Hub) Wait() {
	<-h.done
}

// Publish queues a delivery for the Run loop. It never blocks; a full queue
// drops the delivery.
func (h *Hub) Publish(d Delivery) bool {
	select {
	case h.broadcast <- d:
		return true
	default:
		h.dropped.Add(1)
		h.logger.Warn("Broadcast queue full, dropping delivery", "event", d.Event, "room", d.Room)
		return false
	}
}

func (h *Hub) closeAllClients() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, client := range h.clients {
		close(client.send)
	}
	h.clients = make(map[string]*Client)
	h.rooms = make(map[string]map[string]bool)
	h.order = nil
	h.closed = true
}

// Register adds a connection to the presence registry and sends the updated
// online list to every connection, the new one included.
func (h *Hub) Register(client *Client) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return ErrHubClosed
	}
	if _, exists := h.clients[client.ID]; exists {
		return ErrAlreadyRegistered
	}

	h.clients[client.ID] = client
	h.order = append(h.order, client.ID)
	h.logger.Info("Connection registered",
		"connID", client.ID,
		"userID", client.Identity.UserID,
		"username", client.Identity.Username,
		"connections", len(h.clients))

	h.broadcastPresenceLocked()
	return nil
}

// Unregister removes a connection from presence and from its room, closes
// its queue and sends the updated online list. Unknown ids are ignored and
// trigger no broadcast.
func (h *Hub) Unregister(clientID string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	client, ok := h.clients[clientID]
	if !ok {
		return false
	}

	h.leaveRoomLocked(client)
	delete(h.clients, clientID)
	for i, id := range h.order {
		if id == clientID {
			h.order = append(h.order[:i], h.order[i+1:]...)
			break
		}
	}
	close(client.send)
	h.logger.Info("Connection unregistered",
		"connID", clientID,
		"username", client.Identity.Username,
		"connections", len(h.clients))

	h.broadcastPresenceLocked()
	return true
}

// JoinRoom moves a connection into room, leaving whatever room it was in.
// Unknown connections are ignored.
func (h *Hub) JoinRoom(clientID, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	client, ok := h.clients[clientID]
	if !ok {
		return
	}

	h.leaveRoomLocked(client)

	client.room = room
	if h.rooms[room] == nil {
		h.rooms[room] = make(map[string]bool)
	}
	h.rooms[room][clientID] = true
	h.logger.Debug("Connection joined room", "connID", clientID, "room", room)
}

// LeaveRoom removes a connection from its current room, if any.
func (h *Hub) LeaveRoom(clientID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if client, ok := h.clients[clientID]; ok {
		h.leaveRoomLocked(client)
	}
}

func (h *Hub) leaveRoomLocked(client *Client) {
	if client.room == "" {
		return
	}
	if members := h.rooms[client.room]; members != nil {
		delete(members, client.ID)
		if len(members) == 0 {
			delete(h.rooms, client.room)
		}
	}
	client.room = ""
}

// CurrentRoom returns the room a connection is in.
func (h *Hub) CurrentRoom(clientID string) (string, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	client, ok := h.clients[clientID]
	if !ok || client.room == "" {
		return "", false
	}
	return client.room, true
}

// OnlineUsers returns the online identities, one entry per user id, in the
// order their first live connection registered.
func (h *Hub) OnlineUsers() []domain.OnlineUser {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.onlineUsersLocked()
}

func (h *Hub) onlineUsersLocked() []domain.OnlineUser {
	seen := make(map[int64]bool, len(h.order))
	users := make([]domain.OnlineUser, 0, len(h.order))
	for _, id := range h.order {
		identity := h.clients[id].Identity
		if seen[identity.UserID] {
			continue
		}
		seen[identity.UserID] = true
		users = append(users, domain.OnlineUser{
			UserID:   identity.UserID,
			Username: identity.Username,
		})
	}
	return users
}

func (h *Hub) broadcastPresenceLocked() {
	data, err := encodeFrame(EventOnlineUsers, h.onlineUsersLocked())
	if err != nil {
		h.logger.Error("Failed to encode online users", "error", err)
		return
	}
	for _, id := range h.order {
		h.sendLocked(h.clients[id], data)
	}
}

// Deliver encodes the delivery once and writes it to every connection in
// its audience.
func (h *Hub) Deliver(d Delivery) {
	data, err := encodeFrame(d.Event, d.Payload)
	if err != nil {
		h.logger.Error("Failed to encode delivery", "event", d.Event, "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	if d.Room == "" {
		for _, id := range h.order {
			if id != d.Except {
				h.sendLocked(h.clients[id], data)
			}
		}
		return
	}

	for id := range h.rooms[d.Room] {
		if id != d.Except {
			h.sendLocked(h.clients[id], data)
		}
	}
}

// SendTo delivers a frame to a single connection.
func (h *Hub) SendTo(clientID, event string, payload any) {
	data, err := encodeFrame(event, payload)
	if err != nil {
		h.logger.Error("Failed to encode frame", "event", event, "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	if client, ok := h.clients[clientID]; ok {
		h.sendLocked(client, data)
	}
}

// sendLocked requires h.mu held (read or write). Queues only close under the
// write lock, so a registered client's queue is open here.
func (h *Hub) sendLocked(client *Client, data []byte) {
	if client == nil {
		return
	}
	select {
	case client.send <- data:
	default:
		h.dropped.Add(1)
		h.logger.Warn("Send queue full, dropping frame", "connID", client.ID)
	}
}

// ClientCount returns the number of live connections.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// RoomClientCount returns the number of connections in a room.
func (h *Hub) RoomClientCount(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}

// Dropped returns how many frames were dropped because a queue was full.
func (h *Hub) Dropped() uint64 {
	return h.dropped.Load()
}
