package api

import (
	"context"

	domain "github.com/example/realtime-chat/domain/chat"
	"github.com/example/realtime-chat/modules/broadcast"
	"github.com/gofiber/contrib/websocket"
	"github.com/google/uuid"
)

// handleSocket serves one authenticated websocket connection at /socket.
func (m *APIModule) handleSocket(c *websocket.Conn) {
	identity, ok := c.Locals(IdentityKey).(domain.Identity)
	if !ok {
		c.Close()
		return
	}

	clientID := uuid.New().String()
	logger := m.logger.With("connID", clientID, "username", identity.Username)

	client := broadcast.NewClient(clientID, identity, m.sendBuffer)
	if err := m.hub.Register(client); err != nil {
		logger.Warn("Connection refused", "error", err)
		c.Close()
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	written := make(chan struct{})
	go func() {
		defer close(written)
		m.writePump(c, client)
	}()
	defer func() {
		cancel()
		m.hub.Unregister(clientID)
		<-written
		logger.Info("User disconnected")
	}()

	logger.Info("User connected", "userID", identity.UserID)

	session := m.sessions.NewSession(clientID, identity)
	for {
		messageType, data, err := c.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Debug("Read error", "error", err)
			}
			return
		}
		if messageType != websocket.TextMessage {
			continue
		}
		session.Handle(ctx, data)
	}
}

// writePump drains the client's queue onto the socket. It returns when the
// hub closes the queue or a write fails, closing the socket so the read loop
// ends too.
func (m *APIModule) writePump(c *websocket.Conn, client *broadcast.Client) {
	defer c.Close()

	for data := range client.Send() {
		if err := c.WriteMessage(websocket.TextMessage, data); err != nil {
			m.logger.Debug("Write error", "connID", client.ID, "error", err)
			return
		}
	}
	_ = c.WriteMessage(websocket.CloseMessage, []byte{})
}
