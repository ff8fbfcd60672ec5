package events

import (
	"log/slog"
	"sync"
	"sync/atomic"
)

// DefaultBufferSize is the default channel buffer size for subscribers.
const DefaultBufferSize = 100

// Emitter publishes events. Router implements it; producers depend on this
// interface so they can run without a router.
type Emitter interface {
	Emit(event Event)
}

// Discard is an Emitter that drops every event.
var Discard Emitter = discard{}

type discard struct{}

func (discard) Emit(Event) {}

// Router fans events out from producers to subscribed consumers.
type Router struct {
	subscribers []chan Event
	bufferSize  int
	dropped     atomic.Int64
	logger      *slog.Logger
	mu          sync.RWMutex
	closed      bool
}

// NewRouter creates a router with the given default buffer size.
// If bufferSize is 0 or negative, DefaultBufferSize is used.
func NewRouter(bufferSize int) *Router {
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}
	return &Router{
		bufferSize: bufferSize,
		logger:     slog.Default(),
	}
}

// WithLogger sets the logger used to report dropped events.
func (r *Router) WithLogger(logger *slog.Logger) *Router {
	if logger != nil {
		r.logger = logger
	}
	return r
}

// Emit publishes an event to all subscribers without blocking. If a
// subscriber's channel is full the event is dropped for that subscriber.
// Emit after Close is a no-op.
func (r *Router) Emit(event Event) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return
	}

	for _, ch := range r.subscribers {
		select {
		case ch <- event:
		default:
			r.dropped.Add(1)
			r.logger.Warn("event dropped: subscriber channel full",
				"event_type", event.Type(),
				"source", event.Source(),
			)
		}
	}
}

// Subscribe returns a channel with the router's default buffer size.
func (r *Router) Subscribe() <-chan Event {
	return r.SubscribeBuffered(r.bufferSize)
}

// SubscribeBuffered returns a channel with the given buffer size. The channel
// is closed by Unsubscribe or Close; after Close it is returned already closed.
func (r *Router) SubscribeBuffered(size int) <-chan Event {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		ch := make(chan Event)
		close(ch)
		return ch
	}

	ch := make(chan Event, size)
	r.subscribers = append(r.subscribers, ch)
	return ch
}

// Unsubscribe removes a subscription and closes its channel.
// Unknown or already removed channels are ignored.
func (r *Router) Unsubscribe(ch <-chan Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, sub := range r.subscribers {
		if sub == ch {
			r.subscribers = append(r.subscribers[:i], r.subscribers[i+1:]...)
			close(sub)
			return
		}
	}
}

// Dropped returns how many deliveries were dropped on full channels.
func (r *Router) Dropped() int64 {
	return r.dropped.Load()
}

// Close closes all subscriber channels. It is safe to call more than once.
func (r *Router) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return
	}

	r.closed = true
	for _, ch := range r.subscribers {
		close(ch)
	}
	r.subscribers = nil
}
