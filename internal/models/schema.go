package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
)

// Schema is a template's parsed schema.json.
//
// Raw keeps the document exactly as decoded (numbers as json.Number) so it can
// be handed to the JSON-Schema compiler; the other fields are a convenience
// view of the top-level keywords that pk itself reads.
type Schema struct {
	Path        string
	Title       string
	Description string
	Properties  map[string]Property
	Required    []string
	Raw         map[string]any
}

// Property is one entry of the schema's top-level "properties" object.
type Property struct {
	Type        string // "any" when the schema does not declare one
	Description string
	Default     any
	HasDefault  bool
	Enum        []any
}

// ParseSchema decodes a schema document. The document must be a JSON object;
// nothing beyond that is checked here (see validation.CheckSchema).
func ParseSchema(path string, data []byte) (*Schema, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("invalid character after top-level value")
	}

	raw, ok := doc.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("schema must be a JSON object, got %s", jsonKind(doc))
	}

	s := &Schema{
		Path:        path,
		Title:       stringField(raw, "title"),
		Description: stringField(raw, "description"),
		Properties:  make(map[string]Property),
		Raw:         raw,
	}

	if props, ok := raw["properties"].(map[string]any); ok {
		for name, p := range props {
			s.Properties[name] = parseProperty(p)
		}
	}
	if req, ok := raw["required"].([]any); ok {
		for _, r := range req {
			if name, ok := r.(string); ok {
				s.Required = append(s.Required, name)
			}
		}
	}

	return s, nil
}

func parseProperty(v any) Property {
	p := Property{Type: "any"}
	m, ok := v.(map[string]any)
	if !ok {
		return p
	}

	switch t := m["type"].(type) {
	case string:
		p.Type = t
	case []any:
		parts := make([]string, 0, len(t))
		for _, item := range t {
			parts = append(parts, fmt.Sprint(item))
		}
		p.Type = strings.Join(parts, "|")
	}

	p.Description = stringField(m, "description")
	if def, ok := m["default"]; ok {
		p.Default = Normalize(def)
		p.HasDefault = true
	}
	if enum, ok := m["enum"].([]any); ok {
		p.Enum = Normalize(enum).([]any)
	}
	return p
}

// Defaults returns the declared default of every top-level property that has
// one. The map is freshly allocated on each call.
func (s *Schema) Defaults() map[string]any {
	defaults := make(map[string]any)
	for name, p := range s.Properties {
		if p.HasDefault {
			defaults[name] = cloneValue(p.Default)
		}
	}
	return defaults
}

// PropertyNames returns the top-level property names, sorted.
func (s *Schema) PropertyNames() []string {
	names := make([]string, 0, len(s.Properties))
	for name := range s.Properties {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsRequired reports whether name is listed in the schema's "required" array.
func (s *Schema) IsRequired(name string) bool {
	for _, r := range s.Required {
		if r == name {
			return true
		}
	}
	return false
}

// Summary is the one-line description shown by "pk list".
func (s *Schema) Summary() string {
	switch {
	case s.Description != "":
		return s.Description
	case s.Title != "":
		return s.Title
	default:
		return "No description"
	}
}

func stringField(m map[string]any, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}

func jsonKind(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case []any:
		return "array"
	case string:
		return "string"
	case bool:
		return "boolean"
	case json.Number:
		return "number"
	default:
		return fmt.Sprintf("%T", v)
	}
}
