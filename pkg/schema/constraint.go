package schema

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Kind is the semantic type a field declares.
type Kind string

const (
	KindNumber  Kind = "number"
	KindInteger Kind = "integer"
	KindEnum    Kind = "enum"
)

// Cause classifies why a raw value was rejected.
type Cause string

const (
	// CauseRequired marks empty input or a missing enum selection.
	CauseRequired Cause = "required"
	// CauseType marks input that cannot be coerced to the declared type.
	CauseType Cause = "type"
	// CauseBound marks numeric input outside the declared bound.
	CauseBound Cause = "bound"
	// CauseEnum marks a value outside the declared enum set.
	CauseEnum Cause = "enum"
)

// Violation reports a single constraint failure for a field.
type Violation struct {
	Field      string
	Cause      Cause
	Input      string
	Constraint Constraint
}

func (v *Violation) Error() string {
	if v == nil {
		return "<nil>"
	}
	desc := ""
	if v.Constraint != nil {
		desc = v.Constraint.Describe()
	}
	return fmt.Sprintf("schema: field %q %s violation (input %q, expected %s)", v.Field, v.Cause, v.Input, desc)
}

// Constraint is the closed set of field rules. NumericBound and EnumSet are
// the only implementations.
type Constraint interface {
	Kind() Kind
	// Describe renders the constraint for humans, e.g. "greater than 0".
	Describe() string
	// Coerce parses raw input and checks the rule, returning a *Violation on
	// failure.
	Coerce(raw string) (any, error)

	constraint()
}

// NumericBound declares a number (or integer) with a lower bound. Min with
// Exclusive set models "positive"; Min alone models "non-negative".
type NumericBound struct {
	Integer   bool
	Min       float64
	Exclusive bool
}

// Positive is the "> 0" number constraint.
func Positive() NumericBound {
	return NumericBound{Min: 0, Exclusive: true}
}

// NonNegativeInteger is the "≥ 0" integer constraint.
func NonNegativeInteger() NumericBound {
	return NumericBound{Integer: true, Min: 0}
}

func (NumericBound) constraint() {}

// Kind reports number or integer.
func (n NumericBound) Kind() Kind {
	if n.Integer {
		return KindInteger
	}
	return KindNumber
}

// Describe renders the bound, e.g. "greater than 0" or "0 or more".
func (n NumericBound) Describe() string {
	bound := strconv.FormatFloat(n.Min, 'f', -1, 64)
	if n.Exclusive {
		return "greater than " + bound
	}
	return bound + " or more"
}

// TypeName is the noun used in type errors.
func (n NumericBound) TypeName() string {
	if n.Integer {
		return "a whole number"
	}
	return "a number"
}

// Coerce parses raw as float64 or int64 and checks the bound.
func (n NumericBound) Coerce(raw string) (any, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, &Violation{Cause: CauseRequired, Input: raw, Constraint: n}
	}

	var (
		value   any
		numeric float64
	)
	if n.Integer {
		parsed, err := strconv.ParseInt(trimmed, 10, 64)
		if err != nil {
			return nil, &Violation{Cause: CauseType, Input: raw, Constraint: n}
		}
		value, numeric = parsed, float64(parsed)
	} else {
		parsed, err := strconv.ParseFloat(trimmed, 64)
		if err != nil || math.IsNaN(parsed) || math.IsInf(parsed, 0) {
			return nil, &Violation{Cause: CauseType, Input: raw, Constraint: n}
		}
		value, numeric = parsed, parsed
	}

	if numeric < n.Min || (n.Exclusive && numeric == n.Min) {
		return nil, &Violation{Cause: CauseBound, Input: raw, Constraint: n}
	}
	return value, nil
}

// EnumSet declares a closed set of canonical literals. Matching ignores
// surrounding whitespace and case; the canonical literal is returned.
type EnumSet struct {
	Values []string
}

// OneOf builds an EnumSet.
func OneOf(values ...string) EnumSet {
	return EnumSet{Values: append([]string(nil), values...)}
}

func (EnumSet) constraint() {}

// Kind reports enum.
func (EnumSet) Kind() Kind { return KindEnum }

// Describe lists the allowed values.
func (e EnumSet) Describe() string {
	return "one of: " + strings.Join(e.Values, ", ")
}

// Coerce resolves raw to its canonical literal.
func (e EnumSet) Coerce(raw string) (any, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, &Violation{Cause: CauseRequired, Input: raw, Constraint: e}
	}
	for _, candidate := range e.Values {
		if strings.EqualFold(candidate, trimmed) {
			return candidate, nil
		}
	}
	return nil, &Violation{Cause: CauseEnum, Input: raw, Constraint: e}
}

// Contains reports whether value is an allowed literal.
func (e EnumSet) Contains(value string) bool {
	_, err := e.Coerce(value)
	return err == nil
}
