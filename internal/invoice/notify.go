package invoice

import (
	"context"

	"github.com/fakturownik/fakturownik/internal/model"
)

// EventKind names something that happened to the books.
type EventKind string

const (
	EventDocumentAssembled    EventKind = "document.assembled"
	EventDeclarationGenerated EventKind = "declaration.generated"
)

// Event is passed to notifiers after a successful operation.
type Event struct {
	Kind       EventKind
	DocumentID string
	PeriodKey  string
	Totals     model.Totals
}

// Notifier receives events. Implementations must not block for long;
// they run on the caller's goroutine.
type Notifier interface {
	Notify(ctx context.Context, e Event)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, e Event)

func (f NotifierFunc) Notify(ctx context.Context, e Event) { f(ctx, e) }

// Notifiers fans an event out to every element in order.
type Notifiers []Notifier

func (ns Notifiers) Notify(ctx context.Context, e Event) {
	for _, n := range ns {
		if n != nil {
			n.Notify(ctx, e)
		}
	}
}
