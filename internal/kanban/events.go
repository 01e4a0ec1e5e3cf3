package kanban

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	TaskCreated  EventType = "task_created"
	TaskUpdated  EventType = "task_updated"
	TaskDeleted  EventType = "task_deleted"
	TaskMoved    EventType = "task_moved"
	BoardUpdated EventType = "board_updated"
)

// IsTaskEvent reports whether the event changes the task set of a board.
func (t EventType) IsTaskEvent() bool {
	switch t {
	case TaskCreated, TaskUpdated, TaskDeleted, TaskMoved:
		return true
	}
	return false
}

type Event struct {
	Type    EventType `json:"type"`
	BoardID uuid.UUID `json:"boardId"`
	TaskID  uuid.UUID `json:"taskId,omitempty"`
	ActorID string    `json:"actorId,omitempty"`
	At      time.Time `json:"at"`
}

type Handler func(ctx context.Context, ev Event) error

// Bus delivers events synchronously to its subscribers in subscription order.
type Bus struct {
	mu       sync.RWMutex
	nextID   int
	handlers []subscription
}

type subscription struct {
	id int
	fn Handler
}

func NewBus() *Bus {
	return &Bus{}
}

// Subscribe registers fn and returns a func that removes it.
func (b *Bus) Subscribe(fn Handler) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	id := b.nextID
	b.handlers = append(b.handlers, subscription{id: id, fn: fn})
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		for i, s := range b.handlers {
			if s.id == id {
				b.handlers = append(b.handlers[:i:i], b.handlers[i+1:]...)
				return
			}
		}
	}
}

// Publish runs every handler, even after a failure, and joins their errors.
func (b *Bus) Publish(ctx context.Context, ev Event) error {
	if ev.At.IsZero() {
		ev.At = time.Now()
	}
	b.mu.RLock()
	handlers := make([]subscription, len(b.handlers))
	copy(handlers, b.handlers)
	b.mu.RUnlock()

	var errs []error
	for _, s := range handlers {
		if err := s.fn(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
