package messaging

import (
	"context"
	"sort"
	"sync"
)

// Handler processes one inbound device frame.
//
// deviceID is already parsed from the topic and is never empty. payload
// is the raw frame body; the handler owns decoding it. A returned error
// means the frame was dropped; the dispatcher logs it and moves on.
type Handler interface {
	Handle(ctx context.Context, deviceID string, payload []byte) error
}

// HandlerFunc adapts a plain function to the Handler interface.
type HandlerFunc func(ctx context.Context, deviceID string, payload []byte) error

// Handle calls f.
func (f HandlerFunc) Handle(ctx context.Context, deviceID string, payload []byte) error {
	return f(ctx, deviceID, payload)
}

// Registry maps message types to handlers.
//
// Registration is last-writer-wins: re-registering a type replaces the
// previous handler. All methods are safe for concurrent use, though in
// practice registration happens once during startup.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]Handler
}

// NewRegistry creates an empty handler registry.
func NewRegistry() *Registry {
	return &Registry{
		handlers: make(map[string]Handler),
	}
}

// Register binds a handler to a message type, replacing any existing
// binding for that type.
func (r *Registry) Register(messageType string, h Handler) {
	r.mu.Lock()
	r.handlers[messageType] = h
	r.mu.Unlock()
}

// Get returns the handler for a message type, or nil if none is bound.
func (r *Registry) Get(messageType string) Handler {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.handlers[messageType]
}

// Types returns the registered message types in sorted order.
func (r *Registry) Types() []string {
	r.mu.RLock()
	types := make([]string, 0, len(r.handlers))
	for t := range r.handlers {
		types = append(types, t)
	}
	r.mu.RUnlock()

	sort.Strings(types)
	return types
}
