package schema

import (
	"errors"
	"fmt"
	"strings"
)

// Schema is the ordered list of fields a form collects. Field order drives
// prompting order and the key order of serialized payloads.
type Schema struct {
	Name   string  `json:"name,omitempty"`
	Fields []Field `json:"fields"`
}

// Field declares a single form input and the constraint its raw value must
// satisfy once coerced.
type Field struct {
	Name       string     `json:"name"`
	Label      string     `json:"label,omitempty"`
	Help       string     `json:"help,omitempty"`
	Constraint Constraint `json:"-"`
}

// DisplayLabel returns the label or falls back to the field name.
func (f Field) DisplayLabel() string {
	if label := strings.TrimSpace(f.Label); label != "" {
		return label
	}
	return f.Name
}

// Options lists the allowed values for enumerated fields. Numeric fields
// return nil.
func (f Field) Options() []string {
	if set, ok := f.Constraint.(EnumSet); ok {
		return append([]string(nil), set.Values...)
	}
	return nil
}

// Coerce converts raw input to the field's typed value. Failures are
// *Violation values tagged with the field name.
func (f Field) Coerce(raw string) (any, error) {
	if f.Constraint == nil {
		return nil, fmt.Errorf("schema: field %q has no constraint", f.Name)
	}
	value, err := f.Constraint.Coerce(raw)
	if err != nil {
		var violation *Violation
		if errors.As(err, &violation) {
			violation.Field = f.Name
		}
		return nil, err
	}
	return value, nil
}

// Field looks up a field by name.
func (s Schema) Field(name string) (Field, bool) {
	for _, field := range s.Fields {
		if field.Name == name {
			return field, true
		}
	}
	return Field{}, false
}

// Names returns field names in declaration order.
func (s Schema) Names() []string {
	out := make([]string, 0, len(s.Fields))
	for _, field := range s.Fields {
		out = append(out, field.Name)
	}
	return out
}

// Validate checks the schema declaration itself: names must be present and
// unique, every field needs a constraint and enum sets cannot be empty.
func (s Schema) Validate() error {
	if len(s.Fields) == 0 {
		return errors.New("schema: no fields declared")
	}
	seen := make(map[string]struct{}, len(s.Fields))
	for idx, field := range s.Fields {
		name := strings.TrimSpace(field.Name)
		if name == "" {
			return fmt.Errorf("schema: field #%d has an empty name", idx)
		}
		if _, dup := seen[name]; dup {
			return fmt.Errorf("schema: duplicate field %q", name)
		}
		seen[name] = struct{}{}

		switch c := field.Constraint.(type) {
		case nil:
			return fmt.Errorf("schema: field %q has no constraint", name)
		case EnumSet:
			if len(c.Values) == 0 {
				return fmt.Errorf("schema: field %q declares an empty enum", name)
			}
			values := make(map[string]struct{}, len(c.Values))
			for _, v := range c.Values {
				key := strings.ToLower(strings.TrimSpace(v))
				if key == "" {
					return fmt.Errorf("schema: field %q declares an empty enum value", name)
				}
				if _, dup := values[key]; dup {
					return fmt.Errorf("schema: field %q declares enum value %q twice", name, v)
				}
				values[key] = struct{}{}
			}
		}
	}
	return nil
}
