package validation

import (
	"bytes"
	"fmt"

	"github.com/goccy/go-json"
)

// Payload holds validated, typed values in schema order. Values are float64
// for numbers, int64 for integers and string for enum selections.
type Payload struct {
	order  []string
	values map[string]any
}

func newPayload(capacity int) *Payload {
	return &Payload{
		order:  make([]string, 0, capacity),
		values: make(map[string]any, capacity),
	}
}

func (p *Payload) set(name string, value any) {
	if _, exists := p.values[name]; !exists {
		p.order = append(p.order, name)
	}
	p.values[name] = value
}

// Fields lists field names in schema order.
func (p *Payload) Fields() []string {
	if p == nil {
		return nil
	}
	return append([]string(nil), p.order...)
}

// Len reports the number of validated fields.
func (p *Payload) Len() int {
	if p == nil {
		return 0
	}
	return len(p.order)
}

// Get returns the typed value for a field.
func (p *Payload) Get(name string) (any, bool) {
	if p == nil {
		return nil, false
	}
	v, ok := p.values[name]
	return v, ok
}

// Float returns a numeric field as float64, widening integers.
func (p *Payload) Float(name string) (float64, bool) {
	v, ok := p.Get(name)
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

// Int returns an integer field.
func (p *Payload) Int(name string) (int64, bool) {
	v, ok := p.Get(name)
	if !ok {
		return 0, false
	}
	n, ok := v.(int64)
	return n, ok
}

// String returns an enum field.
func (p *Payload) String(name string) (string, bool) {
	v, ok := p.Get(name)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Map copies the payload into a plain map.
func (p *Payload) Map() map[string]any {
	if p == nil {
		return nil
	}
	out := make(map[string]any, len(p.values))
	for k, v := range p.values {
		out[k] = v
	}
	return out
}

// Clone returns an independent copy.
func (p *Payload) Clone() *Payload {
	if p == nil {
		return nil
	}
	out := newPayload(len(p.order))
	for _, name := range p.order {
		out.set(name, p.values[name])
	}
	return out
}

// MarshalJSON encodes the payload as an object keeping schema order.
func (p *Payload) MarshalJSON() ([]byte, error) {
	if p == nil {
		return []byte("null"), nil
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for idx, name := range p.order {
		if idx > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(name)
		if err != nil {
			return nil, fmt.Errorf("validation: encode key %q: %w", name, err)
		}
		value, err := json.Marshal(p.values[name])
		if err != nil {
			return nil, fmt.Errorf("validation: encode %q: %w", name, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
