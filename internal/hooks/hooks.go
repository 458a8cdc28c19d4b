// Package hooks lets callers observe chat session lifecycle events.
package hooks

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/soyeahso/forumchat/internal/logging"
)

// Event names emitted by a chat session.
const (
	EventSessionStart       = "session_start"
	EventSessionStop        = "session_stop"
	EventSessionLogout      = "session_logout"
	EventConnectionLost     = "connection_lost"
	EventConnectionRestored = "connection_restored"
	EventMessageReceived    = "message_received"
	EventMessageSending     = "message_sending"
)

// AllEvents lists all known hook event names.
var AllEvents = []string{
	EventSessionStart,
	EventSessionStop,
	EventSessionLogout,
	EventConnectionLost,
	EventConnectionRestored,
	EventMessageReceived,
	EventMessageSending,
}

// Payload carries event data to hook handlers.
type Payload struct {
	Event string         `json:"event"`
	At    time.Time      `json:"at"`
	Data  map[string]any `json:"data,omitempty"`
}

// Handler is a function that handles a hook event.
// Returning an error logs the failure but does not stop processing.
type Handler func(ctx context.Context, p Payload) error

// Manager manages hook registrations and dispatches events.
type Manager struct {
	mu       sync.RWMutex
	handlers map[string][]*namedHandler
	log      *logging.Logger
	now      func() time.Time
}

type namedHandler struct {
	name    string
	handler Handler
	once    bool
}

// NewManager creates a hook manager.
func NewManager(log *logging.Logger) *Manager {
	return &Manager{
		handlers: make(map[string][]*namedHandler),
		log:      log.Sub("hooks"),
		now:      time.Now,
	}
}

// On registers a handler for the given event.
// The name identifies the handler for logging and Off.
func (m *Manager) On(event, name string, handler Handler) {
	m.register(event, &namedHandler{name: name, handler: handler})
}

// Once registers a handler that is removed after its first call.
func (m *Manager) Once(event, name string, handler Handler) {
	m.register(event, &namedHandler{name: name, handler: handler, once: true})
}

// OnAll registers one handler for every known event.
func (m *Manager) OnAll(name string, handler Handler) {
	for _, event := range AllEvents {
		m.On(event, name, handler)
	}
}

func (m *Manager) register(event string, h *namedHandler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[event] = append(m.handlers[event], h)
	m.log.Debug().Str("event", event).Str("handler", h.name).Bool("once", h.once).Msg("hook registered")
}

// Off removes all handlers with the given name from the event.
func (m *Manager) Off(event, name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[event] = slices.DeleteFunc(m.handlers[event], func(h *namedHandler) bool {
		return h.name == name
	})
}

// take snapshots the handlers for event and drops one-shot ones.
func (m *Manager) take(event string) []*namedHandler {
	m.mu.Lock()
	defer m.mu.Unlock()
	handlers := slices.Clone(m.handlers[event])
	m.handlers[event] = slices.DeleteFunc(m.handlers[event], func(h *namedHandler) bool {
		return h.once
	})
	return handlers
}

// Emit dispatches an event to all registered handlers synchronously.
// Handlers are called in registration order. Errors are logged but do not
// prevent subsequent handlers from running.
func (m *Manager) Emit(ctx context.Context, event string, data map[string]any) {
	handlers := m.take(event)
	if len(handlers) == 0 {
		return
	}
	p := Payload{Event: event, At: m.now(), Data: data}
	for _, h := range handlers {
		m.call(ctx, h, p, "hook handler error")
	}
}

// EmitAsync dispatches an event to all registered handlers concurrently.
// Returns immediately; handler errors are logged.
func (m *Manager) EmitAsync(ctx context.Context, event string, data map[string]any) {
	handlers := m.take(event)
	if len(handlers) == 0 {
		return
	}
	p := Payload{Event: event, At: m.now(), Data: data}
	for _, h := range handlers {
		go m.call(ctx, h, p, "async hook handler error")
	}
}

func (m *Manager) call(ctx context.Context, h *namedHandler, p Payload, msg string) {
	if err := h.handler(ctx, p); err != nil {
		m.log.Warn().
			Err(err).
			Str("event", p.Event).
			Str("handler", h.name).
			Msg(msg)
	}
}

// Count returns the number of handlers registered for an event.
func (m *Manager) Count(event string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.handlers[event])
}

// Events returns the list of events that have at least one handler registered.
func (m *Manager) Events() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	events := make([]string, 0, len(m.handlers))
	for event, handlers := range m.handlers {
		if len(handlers) > 0 {
			events = append(events, event)
		}
	}
	return events
}

// LogHandler returns a handler that writes every event to log at info level.
func LogHandler(log *logging.Logger) Handler {
	return func(_ context.Context, p Payload) error {
		ev := log.Info().Str("event", p.Event)
		for k, v := range p.Data {
			ev = ev.Interface(k, v)
		}
		ev.Msg("session event")
		return nil
	}
}
