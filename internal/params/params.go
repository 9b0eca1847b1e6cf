// Package params merges parameter layers and parses command-line overrides.
package params

import (
	"bytes"
	"encoding/json"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/teerev/promptkit/internal/errors"
	"github.com/teerev/promptkit/internal/models"
)

// ErrInvalidOverride marks a malformed key=value override.
var ErrInvalidOverride = errors.New("invalid override")

// Layers are the parameter sources of one render, lowest precedence first
// after the schema defaults.
type Layers struct {
	Preset    map[string]any
	File      map[string]any
	Overrides map[string]any
}

// Merge starts from the schema defaults and overlays preset, file and
// overrides in that order. Keys are replaced wholesale: nested mappings are
// not merged. Nil layers are skipped and no input is modified.
func Merge(schema *models.Schema, layers Layers) map[string]any {
	merged := make(map[string]any)
	if schema != nil {
		for k, v := range schema.Defaults() {
			merged[k] = v
		}
	}
	for _, layer := range []map[string]any{layers.Preset, layers.File, layers.Overrides} {
		for k, v := range layer {
			merged[k] = v
		}
	}
	return merged
}

// ParseOverride parses one "key=value" override. The value is coerced, in
// order: JSON when it starts with '[' or '{' (falling back to the raw string),
// a case-insensitive true/false, an integer, a float, and otherwise the
// string itself. Key and value are trimmed.
func ParseOverride(s string) (string, any, error) {
	key, value, ok := strings.Cut(s, "=")
	if !ok {
		return "", nil, errors.Mark(errors.Newf("Invalid override format: '%s'. Expected 'key=value'.", s), ErrInvalidOverride)
	}
	key = strings.TrimSpace(key)
	value = strings.TrimSpace(value)
	if key == "" {
		return "", nil, errors.Mark(errors.Newf("Empty key in override: '%s'", s), ErrInvalidOverride)
	}
	return key, Coerce(value), nil
}

// ParseOverrides parses every override; a repeated key keeps its last value.
func ParseOverrides(overrides []string) (map[string]any, error) {
	out := make(map[string]any, len(overrides))
	for _, o := range overrides {
		key, value, err := ParseOverride(o)
		if err != nil {
			return nil, err
		}
		out[key] = value
	}
	return out, nil
}

// Coerce converts an override value to the most specific type it reads as.
func Coerce(value string) any {
	if strings.HasPrefix(value, "[") || strings.HasPrefix(value, "{") {
		if v, ok := decodeJSON(value); ok {
			return v
		}
	}

	switch strings.ToLower(value) {
	case "true":
		return true
	case "false":
		return false
	}

	if i, ok := parseInt(value); ok {
		return i
	}
	if f, ok := parseFloat(value); ok {
		return f
	}
	return value
}

func decodeJSON(value string) (any, bool) {
	dec := json.NewDecoder(bytes.NewReader([]byte(value)))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, false
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, false
	}
	return models.Normalize(v), true
}

// Integer literals: optional sign, digits, single underscores between digits.
// Literals outside the int64 range fall through to the float parse, the same
// way oversized JSON and YAML numbers are normalized.
var intPattern = regexp.MustCompile(`^[+-]?[0-9]+(_[0-9]+)*$`)

func parseInt(value string) (int64, bool) {
	if !intPattern.MatchString(value) {
		return 0, false
	}
	i, err := strconv.ParseInt(strings.ReplaceAll(value, "_", ""), 10, 64)
	if err != nil {
		return 0, false
	}
	return i, true
}

// Float literals, including inf and nan.
var floatPattern = regexp.MustCompile(`^[+-]?(([0-9]+(_[0-9]+)*)?\.?[0-9]+(_[0-9]+)*([eE][+-]?[0-9]+)?|[0-9]+(_[0-9]+)*\.([eE][+-]?[0-9]+)?|(?i:inf|infinity|nan))$`)

func parseFloat(value string) (float64, bool) {
	if !floatPattern.MatchString(value) {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.ReplaceAll(value, "_", ""), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
