// Package notify surfaces the outcome of status transitions to users.
//
// A Notification is toast-shaped: a kind, a human-readable message and, for
// effective transitions, the Event that lets dependent views refresh.
// Notifications never alter application data.
package notify

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// EventStatusChanged is the event type carried by successful transitions.
const EventStatusChanged = "EVENT_APPLICATION_STATUS"

// Kind tells the UI how to render a notification.
type Kind string

const (
	KindSuccess Kind = "success"
	KindError   Kind = "error"
)

// Event describes one effective status change.
type Event struct {
	Type          string    `json:"type"`
	ApplicationID string    `json:"applicationId"`
	From          string    `json:"from"`
	To            string    `json:"to"`
	At            time.Time `json:"at"`
}

// Notification is what gets pushed to users.
type Notification struct {
	ID            string    `json:"id"`
	Kind          Kind      `json:"kind"`
	ApplicationID string    `json:"applicationId"`
	Message       string    `json:"message"`
	Event         *Event    `json:"event,omitempty"`
	At            time.Time `json:"at"`
}

// New builds a Notification with a fresh id.
func New(kind Kind, applicationID, message string, ev *Event, at time.Time) Notification {
	return Notification{
		ID:            uuid.NewString(),
		Kind:          kind,
		ApplicationID: applicationID,
		Message:       message,
		Event:         ev,
		At:            at,
	}
}

// Notifier delivers notifications. Implementations must be safe for
// concurrent use.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// Func adapts a function to the Notifier interface.
type Func func(ctx context.Context, n Notification) error

func (f Func) Notify(ctx context.Context, n Notification) error { return f(ctx, n) }

// Discard drops every notification.
var Discard Notifier = Func(func(context.Context, Notification) error { return nil })

// Multi delivers to every notifier and joins their errors.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, n Notification) error {
	var errs []error
	for _, nt := range m {
		if err := nt.Notify(ctx, n); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
