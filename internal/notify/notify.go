package notify

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// FormUpdated is raised after every successful field mutation.
const FormUpdated = "form.updated"

// Event describes a completed form mutation. Delivery is at most once and
// unordered relative to the response that triggered it.
type Event struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Operation string    `json:"operation"`
	Field     string    `json:"field"`
	Timestamp time.Time `json:"timestamp"`
}

// NewEvent builds a form.updated event for the given operation.
func NewEvent(operation, field string) Event {
	return Event{
		ID:        uuid.New().String(),
		Name:      FormUpdated,
		Operation: operation,
		Field:     field,
		Timestamp: time.Now().UTC(),
	}
}

// Notifier delivers events without blocking the caller. Implementations
// must not return errors to the mutation path; failures are logged.
type Notifier interface {
	Notify(ctx context.Context, event Event)
}

// NotifierFunc adapts a function into a Notifier.
type NotifierFunc func(ctx context.Context, event Event)

func (fn NotifierFunc) Notify(ctx context.Context, event Event) { fn(ctx, event) }

// Multi fans an event out to every notifier in order.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, event Event) {
	for _, n := range m {
		if n != nil {
			n.Notify(ctx, event)
		}
	}
}

// Noop discards all events.
type Noop struct{}

func (Noop) Notify(context.Context, Event) {}
