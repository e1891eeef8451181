package broadcast

import (
	domain "github.com/example/realtime-chat/domain/chat"
	"github.com/example/realtime-chat/events"
)

// NewMessage delivers a persisted message to every connection in the
// channel's room, the sender's own connections included.
func (h *Hub) NewMessage(event events.MessageCreatedEvent) {
	h.Deliver(newMessageDelivery(event))
}

// Typing tells the rest of the channel's room that the sender started or
// stopped typing. The sending connection is skipped.
func (h *Hub) Typing(senderID string, identity domain.Identity, channelID domain.ChannelID, typing bool) {
	event := EventUserStopTyping
	if typing {
		event = EventUserTyping
	}
	h.Deliver(Delivery{
		Room:   channelID.Room(),
		Event:  event,
		Except: senderID,
		Payload: TypingPayload{
			Username:  identity.Username,
			ChannelID: channelID,
		},
	})
}

// SendError sends a private error event to one connection.
func (h *Hub) SendError(clientID, message string) {
	h.SendTo(clientID, EventError, ErrorPayload{Message: message})
}

func newMessageDelivery(event events.MessageCreatedEvent) Delivery {
	return Delivery{
		Room:  event.ChannelID.Room(),
		Event: EventNewMessage,
		Payload: NewMessagePayload{
			ID:        event.MessageID,
			Content:   event.Content,
			Username:  event.Username,
			ChannelID: event.ChannelID,
			CreatedAt: event.CreatedAt,
		},
	}
}
