package validation

import (
	"fmt"
	"sort"
	"strings"

	"github.com/goliatone/go-creditform/pkg/schema"
)

// FieldError describes why one field failed validation. Cause separates
// missing input, type coercion failures, bound violations and values outside
// an enum, even when the user facing Message reads the same.
type FieldError struct {
	Field   string       `json:"field"`
	Cause   schema.Cause `json:"cause"`
	Input   string       `json:"input,omitempty"`
	Message string       `json:"message"`
}

func (e *FieldError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return e.Message
}

// Errors maps field names to their single validation error. A non-empty
// Errors value blocks submission.
type Errors map[string]*FieldError

func (e Errors) Error() string {
	if len(e) == 0 {
		return "validation: no errors"
	}
	parts := make([]string, 0, len(e))
	for _, name := range e.Fields() {
		parts = append(parts, fmt.Sprintf("%s: %s", name, e[name].Message))
	}
	return "validation: " + strings.Join(parts, "; ")
}

// Fields returns the failing field names sorted alphabetically.
func (e Errors) Fields() []string {
	names := make([]string, 0, len(e))
	for name := range e {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Messages flattens the errors into field → message.
func (e Errors) Messages() map[string]string {
	if len(e) == 0 {
		return nil
	}
	out := make(map[string]string, len(e))
	for name, fe := range e {
		out[name] = fe.Message
	}
	return out
}

// Cause returns the cause recorded for a field, if any.
func (e Errors) Cause(field string) (schema.Cause, bool) {
	fe, ok := e[field]
	if !ok || fe == nil {
		return "", false
	}
	return fe.Cause, true
}

// MessageFunc renders the user facing message for a violation.
type MessageFunc func(field schema.Field, violation *schema.Violation) string

// DefaultMessage renders messages such as "Age must be greater than 0.".
func DefaultMessage(field schema.Field, violation *schema.Violation) string {
	label := field.DisplayLabel()
	switch violation.Cause {
	case schema.CauseRequired:
		if field.Constraint != nil && field.Constraint.Kind() == schema.KindEnum {
			return fmt.Sprintf("%s is required; select one option.", label)
		}
		return fmt.Sprintf("%s is required.", label)
	case schema.CauseType:
		typeName := "a valid value"
		if bound, ok := field.Constraint.(schema.NumericBound); ok {
			typeName = bound.TypeName()
		}
		return fmt.Sprintf("%s must be %s.", label, typeName)
	case schema.CauseBound, schema.CauseEnum:
		return fmt.Sprintf("%s must be %s.", label, field.Constraint.Describe())
	default:
		return fmt.Sprintf("%s is invalid.", label)
	}
}
