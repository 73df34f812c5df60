package schema

import (
	"fmt"
	"io/fs"
	"math"
	"os"
	"strings"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

type documentFile struct {
	Name   string      `json:"name" yaml:"name"`
	Fields []fieldFile `json:"fields" yaml:"fields"`
}

type fieldFile struct {
	Name             string   `json:"name" yaml:"name"`
	Label            string   `json:"label" yaml:"label"`
	Help             string   `json:"help" yaml:"help"`
	Type             string   `json:"type" yaml:"type"`
	Enum             []string `json:"enum" yaml:"enum"`
	Minimum          *float64 `json:"minimum" yaml:"minimum"`
	ExclusiveMinimum bool     `json:"exclusiveMinimum" yaml:"exclusiveMinimum"`
}

// Load parses a JSON or YAML schema document. src is only used to label
// errors and may be nil.
func Load(src Source, data []byte) (Schema, error) {
	doc, err := parseDocument(data, describeSource(src))
	if err != nil {
		return Schema{}, err
	}
	return doc.toSchema(describeSource(src))
}

// LoadFile reads a schema document from disk.
func LoadFile(path string) (Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Schema{}, fmt.Errorf("schema: read %s: %w", path, err)
	}
	return Load(SourceFromFile(path), data)
}

// LoadFS reads a schema document from an fs.FS.
func LoadFS(fsys fs.FS, name string) (Schema, error) {
	if fsys == nil {
		return Schema{}, fmt.Errorf("schema: filesystem is nil")
	}
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return Schema{}, fmt.Errorf("schema: read %s: %w", name, err)
	}
	return Load(SourceFromFS(name), data)
}

func parseDocument(data []byte, source string) (documentFile, error) {
	var doc documentFile
	if len(strings.TrimSpace(string(data))) == 0 {
		return documentFile{}, fmt.Errorf("schema: document %s is empty", source)
	}

	if err := json.Unmarshal(data, &doc); err == nil {
		return doc, nil
	}

	doc = documentFile{}
	if err := yaml.Unmarshal(data, &doc); err == nil {
		return doc, nil
	}

	return documentFile{}, fmt.Errorf("schema: parse %s: invalid JSON or YAML", source)
}

func (d documentFile) toSchema(source string) (Schema, error) {
	out := Schema{
		Name:   strings.TrimSpace(d.Name),
		Fields: make([]Field, 0, len(d.Fields)),
	}
	for _, raw := range d.Fields {
		constraint, err := raw.constraint()
		if err != nil {
			return Schema{}, fmt.Errorf("schema: %s: field %q: %w", source, raw.Name, err)
		}
		out.Fields = append(out.Fields, Field{
			Name:       strings.TrimSpace(raw.Name),
			Label:      strings.TrimSpace(raw.Label),
			Help:       strings.TrimSpace(raw.Help),
			Constraint: constraint,
		})
	}
	if err := out.Validate(); err != nil {
		return Schema{}, fmt.Errorf("%w (%s)", err, source)
	}
	return out, nil
}

func (f fieldFile) constraint() (Constraint, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(f.Type))) {
	case KindEnum:
		values := make([]string, 0, len(f.Enum))
		for _, v := range f.Enum {
			values = append(values, strings.TrimSpace(v))
		}
		return EnumSet{Values: values}, nil
	case KindNumber, KindInteger:
		if len(f.Enum) > 0 {
			return nil, fmt.Errorf("numeric field cannot declare enum values")
		}
		if f.Minimum == nil {
			return nil, fmt.Errorf("numeric field requires a minimum")
		}
		if math.IsNaN(*f.Minimum) || math.IsInf(*f.Minimum, 0) {
			return nil, fmt.Errorf("minimum must be finite")
		}
		return NumericBound{
			Integer:   strings.EqualFold(f.Type, string(KindInteger)),
			Min:       *f.Minimum,
			Exclusive: f.ExclusiveMinimum,
		}, nil
	case "":
		return nil, fmt.Errorf("type is required")
	default:
		return nil, fmt.Errorf("unsupported type %q", f.Type)
	}
}
