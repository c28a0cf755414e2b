// Package record defines the validated row type produced by file parsers
// and the schema rules applied before records reach a persistence backend.
package record

import (
	"fmt"
	"strconv"
	"strings"
)

// Record is one row of parsed tabular data, keyed by column name.
// Parsers emit raw string values; schema validation coerces them to their
// declared types before the record is forwarded anywhere.
type Record map[string]any

// FieldType enumerates the value types a schema field may declare.
type FieldType string

const (
	TypeString FieldType = "string"
	TypeInt    FieldType = "int"
	TypeFloat  FieldType = "float"
	TypeBool   FieldType = "bool"
)

// Field declares the validation rules for a single column.
type Field struct {
	Name     string    `yaml:"name"`
	Type     FieldType `yaml:"type"`
	Required bool      `yaml:"required"`

	// Min, when set, is the minimum accepted value for int and float fields.
	Min *float64 `yaml:"min,omitempty"`
}

// Schema is the ordered set of field declarations applied to every record
// parsed from a file. A nil *Schema validates nothing: records pass through
// with their raw string values.
type Schema struct {
	Fields []Field `yaml:"fields"`
}

// Validate checks the schema declarations themselves.
func (s *Schema) Validate() error {
	if len(s.Fields) == 0 {
		return fmt.Errorf("schema declares no fields")
	}
	seen := make(map[string]bool, len(s.Fields))
	for _, f := range s.Fields {
		if f.Name == "" {
			return fmt.Errorf("schema field with empty name")
		}
		if seen[f.Name] {
			return fmt.Errorf("duplicate schema field %q", f.Name)
		}
		seen[f.Name] = true
		switch f.Type {
		case TypeString, TypeInt, TypeFloat, TypeBool:
		default:
			return fmt.Errorf("field %q has unknown type %q", f.Name, f.Type)
		}
		if f.Min != nil && f.Type != TypeInt && f.Type != TypeFloat {
			return fmt.Errorf("field %q declares min but has type %q", f.Name, f.Type)
		}
	}
	return nil
}

// Apply validates and coerces a single record against the schema, returning
// a new record holding typed values. Columns not declared in the schema are
// carried through unchanged.
func (s *Schema) Apply(rec Record) (Record, error) {
	if s == nil {
		return rec, nil
	}

	out := make(Record, len(rec))
	for k, v := range rec {
		out[k] = v
	}

	for _, f := range s.Fields {
		raw, ok := rec[f.Name]
		if !ok || raw == nil || fmt.Sprint(raw) == "" {
			if f.Required {
				return nil, fmt.Errorf("missing required field %q", f.Name)
			}
			delete(out, f.Name)
			continue
		}

		val, err := coerce(fmt.Sprint(raw), f.Type)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", f.Name, err)
		}

		if f.Min != nil {
			var n float64
			switch t := val.(type) {
			case int64:
				n = float64(t)
			case float64:
				n = t
			}
			if n < *f.Min {
				return nil, fmt.Errorf("field %q: value %v below minimum %v", f.Name, val, *f.Min)
			}
		}

		out[f.Name] = val
	}

	return out, nil
}

// ApplyAll validates every record, failing on the first invalid one. A record
// that fails validation is never forwarded to a sink, so a single bad row
// rejects the whole file.
func (s *Schema) ApplyAll(recs []Record) ([]Record, error) {
	if s == nil {
		return recs, nil
	}
	out := make([]Record, 0, len(recs))
	for i, rec := range recs {
		validated, err := s.Apply(rec)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i+1, err)
		}
		out = append(out, validated)
	}
	return out, nil
}

// coerce converts a raw cell value to the declared field type.
func coerce(raw string, ft FieldType) (any, error) {
	raw = strings.TrimSpace(raw)
	switch ft {
	case TypeString:
		return raw, nil
	case TypeInt:
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%q is not an integer", raw)
		}
		return n, nil
	case TypeFloat:
		n, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("%q is not a number", raw)
		}
		return n, nil
	case TypeBool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("%q is not a boolean", raw)
		}
		return b, nil
	default:
		return nil, fmt.Errorf("unknown field type %q", ft)
	}
}
