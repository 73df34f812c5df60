package openapi

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/goliatone/go-creditform/pkg/schema"
)

const orderExtensionKey = "x-order"

// Schema derives the form schema from the predict operation's request body.
// name becomes Schema.Name; an empty name falls back to the operation id.
func (c *Contract) Schema(name string) (schema.Schema, error) {
	op, err := c.operation()
	if err != nil {
		return schema.Schema{}, err
	}
	if op.RequestBody == nil || op.RequestBody.Value == nil {
		return schema.Schema{}, fmt.Errorf("openapi: %s: POST %s has no request body", c.location, c.options.Path)
	}
	media := op.RequestBody.Value.Content.Get(jsonMediaType)
	if media == nil || media.Schema == nil || media.Schema.Value == nil {
		return schema.Schema{}, fmt.Errorf("openapi: %s: POST %s has no %s body", c.location, c.options.Path, jsonMediaType)
	}

	envelope := media.Schema.Value
	inputRef := envelope.Properties[c.options.EnvelopeKey]
	if inputRef == nil || inputRef.Value == nil {
		return schema.Schema{}, fmt.Errorf("openapi: %s: request body has no %q property", c.location, c.options.EnvelopeKey)
	}
	input := inputRef.Value
	if len(input.Properties) == 0 {
		return schema.Schema{}, fmt.Errorf("openapi: %s: %q declares no properties", c.location, c.options.EnvelopeKey)
	}

	if strings.TrimSpace(name) == "" {
		name = op.OperationID
	}
	out := schema.Schema{Name: name}
	for _, prop := range orderedProperties(input) {
		field, err := fieldFromProperty(prop.name, prop.value)
		if err != nil {
			return schema.Schema{}, fmt.Errorf("openapi: %s: %w", c.location, err)
		}
		out.Fields = append(out.Fields, field)
	}
	if err := out.Validate(); err != nil {
		return schema.Schema{}, fmt.Errorf("openapi: %s: %w", c.location, err)
	}
	return out, nil
}

type property struct {
	name  string
	value *openapi3.Schema
	order float64
	rank  int
}

// orderedProperties sorts by x-order, then position in required, then name.
func orderedProperties(obj *openapi3.Schema) []property {
	requiredRank := make(map[string]int, len(obj.Required))
	for i, name := range obj.Required {
		requiredRank[name] = i
	}

	props := make([]property, 0, len(obj.Properties))
	for name, ref := range obj.Properties {
		if ref == nil || ref.Value == nil {
			continue
		}
		p := property{name: name, value: ref.Value, order: math.Inf(1), rank: math.MaxInt}
		if order, ok := orderExtension(ref.Value.Extensions); ok {
			p.order = order
		}
		if rank, ok := requiredRank[name]; ok {
			p.rank = rank
		}
		props = append(props, p)
	}

	sort.SliceStable(props, func(i, j int) bool {
		a, b := props[i], props[j]
		if a.order != b.order {
			return a.order < b.order
		}
		if a.rank != b.rank {
			return a.rank < b.rank
		}
		return a.name < b.name
	})
	return props
}

func orderExtension(ext map[string]any) (float64, bool) {
	raw, ok := ext[orderExtensionKey]
	if !ok {
		return 0, false
	}
	switch v := raw.(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case string:
		f, err := strconv.ParseFloat(v, 64)
		return f, err == nil
	case interface{ Float64() (float64, error) }:
		f, err := v.Float64()
		return f, err == nil
	}
	return 0, false
}

func fieldFromProperty(name string, prop *openapi3.Schema) (schema.Field, error) {
	field := schema.Field{
		Name:  name,
		Label: prop.Title,
		Help:  prop.Description,
	}

	switch {
	case prop.Type.Is(openapi3.TypeString) && len(prop.Enum) > 0:
		values := stringEnum(prop.Enum)
		if len(values) != len(prop.Enum) {
			return schema.Field{}, fmt.Errorf("property %q: enum values must be strings", name)
		}
		field.Constraint = schema.EnumSet{Values: values}
	case prop.Type.Is(openapi3.TypeNumber), prop.Type.Is(openapi3.TypeInteger):
		if prop.Min == nil {
			return schema.Field{}, fmt.Errorf("property %q: numeric fields need a minimum", name)
		}
		field.Constraint = schema.NumericBound{
			Integer:   prop.Type.Is(openapi3.TypeInteger),
			Min:       *prop.Min,
			Exclusive: prop.ExclusiveMin,
		}
	default:
		return schema.Field{}, fmt.Errorf("property %q: unsupported type %v", name, prop.Type.Slice())
	}
	return field, nil
}
