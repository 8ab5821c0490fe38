package auth

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// EventHandler receives auth state changes. Handlers run synchronously in
// subscription order so a subscriber observes events in the order the
// service emitted them.
type EventHandler func(ctx context.Context, event Event)

type subscription struct {
	id      int
	handler EventHandler
}

// EventBus is a small in-process pub/sub for auth state changes.
type EventBus struct {
	mu     sync.RWMutex
	nextID int
	subs   []subscription
	logger *slog.Logger
}

func NewEventBus(logger *slog.Logger) *EventBus {
	return &EventBus{logger: logger}
}

// Subscribe registers a handler and returns a function that removes it.
func (b *EventBus) Subscribe(handler EventHandler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	b.subs = append(b.subs, subscription{id: id, handler: handler})

	b.logger.Debug("auth event handler registered", "total_handlers", len(b.subs))

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		for i, s := range b.subs {
			if s.id == id {
				b.subs = append(b.subs[:i], b.subs[i+1:]...)
				return
			}
		}
	}
}

// Publish delivers the event to every subscriber before returning.
func (b *EventBus) Publish(ctx context.Context, eventType EventType, session *Session) {
	event := Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		Session:    session,
		OccurredAt: time.Now(),
	}

	b.mu.RLock()
	subs := make([]subscription, len(b.subs))
	copy(subs, b.subs)
	b.mu.RUnlock()

	b.logger.Debug("publishing auth event",
		"event_type", eventType,
		"event_id", event.ID,
		"handlers_count", len(subs))

	for _, s := range subs {
		s.handler(ctx, event)
	}
}
