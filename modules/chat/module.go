package chat

import (
	"context"
	"fmt"
	"os"
	"strconv"

	domain "github.com/example/realtime-chat/domain/chat"
	"github.com/example/realtime-chat/events"
	"github.com/example/realtime-chat/modules/broadcast"
	"github.com/example/realtime-chat/modules/store"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/types"
)

// Default inbound event budget per connection.
const (
	DefaultEventsPerSecond = 20
	DefaultEventBurst      = 40
)

// ChatModule turns inbound socket events into room joins, typing signals and
// persisted messages.
type ChatModule struct {
	store    MessageStore
	hub      *broadcast.Hub
	eventBus mono.EventBus
	ingest   *Ingest
	limits   Limits
	logger   types.Logger
}

// Compile-time interface checks
var (
	_ mono.Module              = (*ChatModule)(nil)
	_ mono.DependentModule     = (*ChatModule)(nil)
	_ mono.EventBusAwareModule = (*ChatModule)(nil)
	_ mono.EventEmitterModule  = (*ChatModule)(nil)
)

// NewModule creates a new chat module.
func NewModule(logger types.Logger) *ChatModule {
	return &ChatModule{
		limits: Limits{
			EventsPerSecond: envFloat("WS_EVENTS_PER_SECOND", DefaultEventsPerSecond),
			Burst:           int(envFloat("WS_EVENT_BURST", DefaultEventBurst)),
		},
		logger: logger,
	}
}

// Name returns the module name.
func (m *ChatModule) Name() string {
	return "chat"
}

// Dependencies returns the list of module dependencies.
func (m *ChatModule) Dependencies() []string {
	return []string{"store"}
}

// SetDependencyServiceContainer receives service containers from dependencies.
func (m *ChatModule) SetDependencyServiceContainer(dependency string, container mono.ServiceContainer) {
	if dependency == "store" {
		m.store = store.NewStoreAdapter(container)
	}
}

// SetEventBus receives the EventBus from the framework.
func (m *ChatModule) SetEventBus(bus mono.EventBus) {
	m.eventBus = bus
}

// EmitEvents declares the events this module can emit.
func (m *ChatModule) EmitEvents() []mono.BaseEventDefinition {
	return []mono.BaseEventDefinition{
		events.MessageCreatedV1.ToBase(),
	}
}

// SetHub sets the broadcast hub (called from main.go).
func (m *ChatModule) SetHub(hub *broadcast.Hub) {
	m.hub = hub
}

// Start wires the ingest bridge. Without an EventBus, messages go straight
// to the hub.
func (m *ChatModule) Start(_ context.Context) error {
	if m.store == nil {
		return fmt.Errorf("store dependency not set")
	}
	if m.hub == nil {
		return fmt.Errorf("broadcast hub dependency not set")
	}

	var notifier Notifier = NewDirectNotifier(m.hub)
	if m.eventBus != nil {
		notifier = NewEventBusNotifier(m.eventBus)
	}
	m.ingest = NewIngest(m.store, notifier, m.hub, m.logger)

	m.logger.Info("Chat module started",
		"eventsPerSecond", m.limits.EventsPerSecond,
		"burst", m.limits.Burst)
	return nil
}

// Stop gracefully shuts down the module.
func (m *ChatModule) Stop(_ context.Context) error {
	m.logger.Info("Chat module stopped")
	return nil
}

// NewSession creates the inbound event handler for a registered connection.
func (m *ChatModule) NewSession(clientID string, identity domain.Identity) *Session {
	return NewSession(clientID, identity, m.hub, m.ingest, m.limits, m.logger)
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f >= 0 {
			return f
		}
	}
	return fallback
}
