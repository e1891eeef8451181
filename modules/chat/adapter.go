package chat

import (
	"context"

	"github.com/example/realtime-chat/events"
	"github.com/example/realtime-chat/modules/broadcast"
	"github.com/go-monolith/mono"
)

// EventBusNotifier publishes MessageCreated events on the EventBus.
type EventBusNotifier struct {
	bus mono.EventBus
}

// NewEventBusNotifier creates a notifier publishing on bus.
func NewEventBusNotifier(bus mono.EventBus) *EventBusNotifier {
	return &EventBusNotifier{bus: bus}
}

// MessageCreated publishes the event.
func (n *EventBusNotifier) MessageCreated(_ context.Context, event events.MessageCreatedEvent) error {
	return events.MessageCreatedV1.Publish(n.bus, event, nil)
}

// DirectNotifier hands messages straight to a hub, bypassing the EventBus.
type DirectNotifier struct {
	hub *broadcast.Hub
}

// NewDirectNotifier creates a notifier delivering through hub.
func NewDirectNotifier(hub *broadcast.Hub) *DirectNotifier {
	return &DirectNotifier{hub: hub}
}

// MessageCreated delivers the newMessage event to the channel's room.
func (n *DirectNotifier) MessageCreated(_ context.Context, event events.MessageCreatedEvent) error {
	n.hub.NewMessage(event)
	return nil
}
