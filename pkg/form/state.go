package form

import (
	"errors"
	"maps"

	"github.com/goliatone/go-creditform/pkg/submission"
	"github.com/goliatone/go-creditform/pkg/validation"
)

// Phase is the lifecycle position of a form.
type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhaseValidating Phase = "validating"
	PhaseSubmitting Phase = "submitting"
	PhaseSucceeded  Phase = "succeeded"
	PhaseFailed     Phase = "failed"
)

// FailureKind records why the last attempt ended in PhaseFailed.
type FailureKind string

const (
	FailureNone       FailureKind = ""
	FailureValidation FailureKind = "validation"
	FailureTransport  FailureKind = "transport"
	FailureResponse   FailureKind = "response"
)

// State is an immutable snapshot of a form. Validated is only set after a
// passing validation and is dropped as soon as any field is edited. Errors
// only hold entries for failing fields.
type State struct {
	Raw       map[string]string
	Validated *validation.Payload
	Errors    validation.Errors
	Phase     Phase
	Failure   FailureKind
	// Outcome is the classifier result of the last successful attempt.
	Outcome *submission.Result
	// Err is the failure of the last attempt that reached the network.
	Err error
}

// Initial returns the empty idle state.
func Initial() State {
	return State{Raw: map[string]string{}, Phase: PhaseIdle}
}

// Value returns the raw text entered for field.
func (s State) Value(field string) string {
	return s.Raw[field]
}

// Error returns the message for field, or "" when the field is valid.
func (s State) Error(field string) string {
	if fe, ok := s.Errors[field]; ok && fe != nil {
		return fe.Message
	}
	return ""
}

// Action is an input to Reduce.
type Action interface {
	action()
}

// EditField stores a raw value. It clears that field's error and the
// validated payload.
type EditField struct {
	Field string
	Value string
}

// BeginValidation starts an attempt.
type BeginValidation struct{}

// ValidationFailed ends an attempt before any network call.
type ValidationFailed struct {
	Errors validation.Errors
}

// ValidationPassed stores the payload and moves to submitting.
type ValidationPassed struct {
	Payload *validation.Payload
}

// SubmissionSucceeded records the classifier result.
type SubmissionSucceeded struct {
	Result submission.Result
}

// SubmissionFailed records a transport or response failure. Validated values
// are kept so the user can retry without editing.
type SubmissionFailed struct {
	Err error
}

// Reset returns the form to its initial state.
type Reset struct{}

func (EditField) action()           {}
func (BeginValidation) action()     {}
func (ValidationFailed) action()    {}
func (ValidationPassed) action()    {}
func (SubmissionSucceeded) action() {}
func (SubmissionFailed) action()    {}
func (Reset) action()               {}

// Reduce applies a to s and returns the new state. It never mutates s and
// does not check phase legality; Session guards transitions.
func Reduce(s State, a Action) State {
	next := s
	next.Raw = maps.Clone(s.Raw)
	if next.Raw == nil {
		next.Raw = map[string]string{}
	}

	switch act := a.(type) {
	case EditField:
		next.Raw[act.Field] = act.Value
		next.Validated = nil
		if _, ok := s.Errors[act.Field]; ok {
			next.Errors = maps.Clone(s.Errors)
			delete(next.Errors, act.Field)
			if len(next.Errors) == 0 {
				next.Errors = nil
			}
		}
	case BeginValidation:
		next.Phase = PhaseValidating
		next.Errors = nil
		next.Failure = FailureNone
		next.Err = nil
		next.Outcome = nil
	case ValidationFailed:
		next.Phase = PhaseFailed
		next.Failure = FailureValidation
		next.Validated = nil
		next.Errors = maps.Clone(act.Errors)
	case ValidationPassed:
		next.Phase = PhaseSubmitting
		next.Validated = act.Payload
		next.Errors = nil
	case SubmissionSucceeded:
		result := act.Result
		next.Phase = PhaseSucceeded
		next.Failure = FailureNone
		next.Outcome = &result
		next.Err = nil
	case SubmissionFailed:
		next.Phase = PhaseFailed
		next.Failure = failureKind(act.Err)
		next.Err = act.Err
	case Reset:
		return Initial()
	}
	return next
}

func failureKind(err error) FailureKind {
	var format *submission.ResponseFormatError
	if errors.As(err, &format) {
		return FailureResponse
	}
	return FailureTransport
}
