package chat

import (
	"context"
	"encoding/json"

	domain "github.com/example/realtime-chat/domain/chat"
	"github.com/example/realtime-chat/modules/broadcast"
	"github.com/go-monolith/mono/pkg/types"
	"golang.org/x/time/rate"
)

// Session handles the inbound events of one authenticated connection.
// Handle is called from the connection's read loop only.
type Session struct {
	clientID string
	identity domain.Identity
	router   Router
	ingest   *Ingest
	limiter  *rate.Limiter
	logger   types.Logger
}

// Limits bounds how many inbound events a connection may send.
type Limits struct {
	EventsPerSecond float64
	Burst           int
}

// NewSession creates a session for a registered connection. A zero Limits
// disables rate limiting.
func NewSession(clientID string, identity domain.Identity, router Router, ingest *Ingest, limits Limits, logger types.Logger) *Session {
	s := &Session{
		clientID: clientID,
		identity: identity,
		router:   router,
		ingest:   ingest,
		logger:   logger.With("connID", clientID, "username", identity.Username),
	}
	if limits.EventsPerSecond > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(limits.EventsPerSecond), max(limits.Burst, 1))
	}
	return s
}

// Handle decodes one text frame and dispatches it. Frames that do not decode,
// name an unknown event or carry a payload of the wrong shape are ignored.
func (s *Session) Handle(ctx context.Context, raw []byte) {
	var frame broadcast.Frame
	if err := json.Unmarshal(raw, &frame); err != nil || frame.Event == "" {
		s.logger.Debug("Ignoring malformed frame")
		return
	}

	if s.limiter != nil && !s.limiter.Allow() {
		s.logger.Warn("Inbound event rate exceeded", "event", frame.Event)
		s.router.SendError(s.clientID, errRateLimited)
		return
	}

	switch frame.Event {
	case EventJoinChannel:
		var p ChannelPayload
		if decode(frame.Data, &p) {
			s.router.JoinRoom(s.clientID, p.ChannelID.Room())
		}
	case EventSendMessage:
		var p SendMessagePayload
		if decode(frame.Data, &p) {
			// Failures are already reported to the sender and logged.
			_ = s.ingest.Submit(ctx, s.clientID, s.identity, p.ChannelID, p.Content)
		}
	case EventTyping, EventStopTyping:
		var p ChannelPayload
		if decode(frame.Data, &p) {
			s.router.Typing(s.clientID, s.identity, p.ChannelID, frame.Event == EventTyping)
		}
	default:
		s.logger.Debug("Ignoring unknown event", "event", frame.Event)
	}
}

func decode(data json.RawMessage, v any) bool {
	if len(data) == 0 {
		return false
	}
	return json.Unmarshal(data, v) == nil
}
