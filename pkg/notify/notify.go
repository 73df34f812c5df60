package notify

import (
	"context"
	"errors"
)

// Kind separates success and failure outcomes.
type Kind string

const (
	KindSuccess Kind = "success"
	KindFailure Kind = "failure"
)

// Notification is the outcome of one submission attempt as presented to the
// user. Detail carries the structured classifier result (or the failure) for
// notifiers that want more than text.
type Notification struct {
	Kind        Kind   `json:"kind"`
	Title       string `json:"title"`
	Description string `json:"description"`
	AttemptID   string `json:"attemptId,omitempty"`
	Detail      any    `json:"detail,omitempty"`
}

// Notifier reports submission outcomes. Rendering is up to the
// implementation.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// Func adapts a function to the Notifier interface.
type Func func(ctx context.Context, n Notification) error

// Notify calls f.
func (f Func) Notify(ctx context.Context, n Notification) error {
	return f(ctx, n)
}

// Discard drops every notification.
var Discard Notifier = Func(func(context.Context, Notification) error { return nil })

// Multi fans a notification out to every notifier, joining their errors.
func Multi(notifiers ...Notifier) Notifier {
	clean := make([]Notifier, 0, len(notifiers))
	for _, n := range notifiers {
		if n != nil {
			clean = append(clean, n)
		}
	}
	return multi(clean)
}

type multi []Notifier

func (m multi) Notify(ctx context.Context, n Notification) error {
	var errs []error
	for _, notifier := range m {
		if err := notifier.Notify(ctx, n); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
