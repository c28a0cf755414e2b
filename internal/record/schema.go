package record

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadSchema reads a schema declaration from a YAML file:
//
//	fields:
//	  - name: name
//	    type: string
//	    required: true
//	  - name: age
//	    type: int
//	    required: true
//	    min: 0
func LoadSchema(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema file: %w", err)
	}
	return ParseSchema(data)
}

// ParseSchema parses a YAML schema declaration.
func ParseSchema(data []byte) (*Schema, error) {
	var s Schema
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse schema: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("invalid schema: %w", err)
	}
	return &s, nil
}
