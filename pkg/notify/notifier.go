// Package notify delivers local host notifications raised by the client,
// such as a query being sent after an autocomplete selection.
package notify

import (
	"context"
	"errors"
	"time"
)

// Event names.
const (
	EventQuerySent            = "query_sent"
	EventSuggestionsRetrieved = "suggestions_retrieved"
)

// Event is a single host notification.
type Event struct {
	Name string `json:"name"`
	Term string `json:"term,omitempty"`
	// Count is the number of suggestions for EventSuggestionsRetrieved.
	Count int       `json:"count,omitempty"`
	Time  time.Time `json:"time"`
}

// Notifier delivers events to the host application.
type Notifier interface {
	Notify(ctx context.Context, ev Event) error
}

// Func adapts a plain function to Notifier.
type Func func(ctx context.Context, ev Event) error

// Notify calls f.
func (f Func) Notify(ctx context.Context, ev Event) error {
	return f(ctx, ev)
}

// Multi fans an event out to every notifier and joins their errors.
type Multi []Notifier

// Notify delivers ev to each notifier in order.
func (m Multi) Notify(ctx context.Context, ev Event) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
