package events

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// defaultSubscriberBuffer is the per-subscriber channel depth when the
// config leaves it unset.
const defaultSubscriberBuffer = 16

// Event is one fan-out message.
type Event struct {
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data,omitempty"`
}

// Broadcaster copies events to all current subscribers.
//
// Delivery is best-effort: an event offered to a subscriber whose
// buffer is full is not delivered, and that subscriber is removed so a
// dead connection cannot accumulate backlog forever.
//
// Thread Safety: all methods are safe for concurrent use.
type Broadcaster struct {
	mu          sync.RWMutex
	subscribers map[string]chan Event
	buffer      int
	closed      bool

	logger   Logger
	loggerMu sync.RWMutex
}

// Logger receives dropped-subscriber notices.
// Satisfied by logging.Logger.
type Logger interface {
	Warn(msg string, args ...any)
}

// NewBroadcaster creates a broadcaster. buffer is the per-subscriber
// channel depth; values below 1 use the default.
func NewBroadcaster(buffer int) *Broadcaster {
	if buffer < 1 {
		buffer = defaultSubscriberBuffer
	}
	return &Broadcaster{
		subscribers: make(map[string]chan Event),
		buffer:      buffer,
	}
}

// Subscribe registers a new subscriber and returns its ID and channel.
// The channel is closed when the subscriber is removed, either by
// Unsubscribe, by a missed delivery, or by Close.
func (b *Broadcaster) Subscribe() (string, <-chan Event) {
	id := uuid.NewString()
	ch := make(chan Event, b.buffer)

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		close(ch)
		return id, ch
	}

	b.subscribers[id] = ch
	return id, ch
}

// Unsubscribe removes a subscriber and closes its channel.
// Unknown IDs are ignored.
func (b *Broadcaster) Unsubscribe(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if ch, ok := b.subscribers[id]; ok {
		delete(b.subscribers, id)
		close(ch)
	}
}

// Broadcast sends an event to every subscriber. It never blocks: a
// subscriber that cannot take the event immediately is dropped.
func (b *Broadcaster) Broadcast(eventType string, data any) {
	evt := Event{
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}

	for id, ch := range b.subscribers {
		select {
		case ch <- evt:
		default:
			delete(b.subscribers, id)
			close(ch)
			if logger := b.getLogger(); logger != nil {
				logger.Warn("event subscriber dropped, buffer full",
					"subscriber_id", id,
					"event_type", evt.Type,
				)
			}
		}
	}
}

// SetLogger sets the logger used when a subscriber is dropped.
// Without one, drops are silent.
func (b *Broadcaster) SetLogger(logger Logger) {
	b.loggerMu.Lock()
	b.logger = logger
	b.loggerMu.Unlock()
}

func (b *Broadcaster) getLogger() Logger {
	b.loggerMu.RLock()
	defer b.loggerMu.RUnlock()
	return b.logger
}

// SubscriberCount returns the number of live subscribers.
func (b *Broadcaster) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}

// Close removes all subscribers and rejects future broadcasts.
// Safe to call more than once.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true

	for id, ch := range b.subscribers {
		delete(b.subscribers, id)
		close(ch)
	}
}
