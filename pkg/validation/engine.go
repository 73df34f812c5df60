package validation

import (
	"errors"

	"github.com/goliatone/go-creditform/pkg/schema"
)

// Result carries either a validated payload or the field errors, never both.
type Result struct {
	Payload *Payload
	Errors  Errors
}

// Valid reports whether every field passed.
func (r Result) Valid() bool {
	return len(r.Errors) == 0 && r.Payload != nil
}

// Err returns the field errors as an error, or nil when valid.
func (r Result) Err() error {
	if len(r.Errors) == 0 {
		return nil
	}
	return r.Errors
}

// Observer is notified of every field error produced by an Engine.
type Observer func(*FieldError)

// Option configures an Engine.
type Option func(*Engine)

// WithMessageFunc overrides how violations are rendered for users.
func WithMessageFunc(fn MessageFunc) Option {
	return func(e *Engine) {
		if fn != nil {
			e.message = fn
		}
	}
}

// WithObserver registers a hook invoked for each field error.
func WithObserver(fn Observer) Option {
	return func(e *Engine) {
		e.observer = fn
	}
}

// Engine validates raw form input against a schema.
type Engine struct {
	schema   schema.Schema
	message  MessageFunc
	observer Observer
}

// New constructs an Engine for the provided schema.
func New(s schema.Schema, options ...Option) *Engine {
	e := &Engine{
		schema:  s,
		message: DefaultMessage,
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(e)
	}
	return e
}

// Schema returns the schema the engine validates against.
func (e *Engine) Schema() schema.Schema {
	return e.schema
}

// Validate checks every field in one pass. Missing keys count as empty
// input. Any error turns the whole result into a failure; no partial payload
// is returned.
func (e *Engine) Validate(raw map[string]string) Result {
	payload := newPayload(len(e.schema.Fields))
	var errs Errors

	for _, field := range e.schema.Fields {
		value, fe := e.check(field, raw[field.Name])
		if fe == nil {
			payload.set(field.Name, value)
			continue
		}
		if errs == nil {
			errs = make(Errors)
		}
		errs[field.Name] = fe
		if e.observer != nil {
			e.observer(fe)
		}
	}

	if len(errs) > 0 {
		return Result{Errors: errs}
	}
	return Result{Payload: payload}
}

// CheckField validates a single raw value with the same rules and messages
// as Validate. It returns nil when the value is acceptable.
func (e *Engine) CheckField(name, raw string) *FieldError {
	field, ok := e.schema.Field(name)
	if !ok {
		return &FieldError{Field: name, Cause: schema.CauseType, Input: raw, Message: "Unknown field."}
	}
	_, fe := e.check(field, raw)
	return fe
}

func (e *Engine) check(field schema.Field, input string) (any, *FieldError) {
	value, err := field.Coerce(input)
	if err == nil {
		return value, nil
	}
	violation := &schema.Violation{Field: field.Name, Cause: schema.CauseType, Input: input, Constraint: field.Constraint}
	var v *schema.Violation
	if errors.As(err, &v) {
		violation = v
	}
	return nil, &FieldError{
		Field:   field.Name,
		Cause:   violation.Cause,
		Input:   input,
		Message: e.message(field, violation),
	}
}

// Validate is a convenience wrapper around New(s).Validate(raw).
func Validate(s schema.Schema, raw map[string]string) Result {
	return New(s).Validate(raw)
}
