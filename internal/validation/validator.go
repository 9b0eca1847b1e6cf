// Package validation checks resolved parameters against a template's
// JSON-Schema (draft-07) and reports every violation at once.
package validation

import (
	"fmt"
	"sort"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/teerev/promptkit/internal/errors"
	"github.com/teerev/promptkit/internal/models"
)

// Failure kinds, matched with errors.Is.
var (
	ErrValidationFailed = errors.New("parameter validation failed")
	ErrInvalidSchema    = errors.New("invalid schema")
)

// SchemaValidationError lists every schema violation of one parameter set.
// Each entry is already formatted as "  - <path>: <message>".
type SchemaValidationError struct {
	Errors []string
}

func (e *SchemaValidationError) Error() string {
	return "Parameter validation failed:\n" + strings.Join(e.Errors, "\n")
}

// Is lets errors.Is(err, ErrValidationFailed) match.
func (e *SchemaValidationError) Is(target error) bool {
	return target == ErrValidationFailed
}

// Compile compiles a schema document against the draft-07 metaschema.
func Compile(schema *models.Schema) (*jsonschema.Schema, error) {
	loc := schema.Path
	if loc == "" {
		loc = "schema.json"
	}

	c := jsonschema.NewCompiler()
	c.DefaultDraft(jsonschema.Draft7)
	if err := c.AddResource(loc, schema.Raw); err != nil {
		return nil, errors.Mark(errors.Newf("%v", err), ErrInvalidSchema)
	}
	compiled, err := c.Compile(loc)
	if err != nil {
		return nil, errors.Mark(errors.Newf("%s", describeCompileError(err)), ErrInvalidSchema)
	}
	return compiled, nil
}

// CheckSchema reports whether the schema itself is a valid draft-07 schema.
// The error message names the offending keywords only; callers add context.
func CheckSchema(schema *models.Schema) error {
	_, err := Compile(schema)
	return err
}

// Validate checks params against schema. It returns nil when params conform,
// a *SchemaValidationError listing every violation when they do not, or an
// ErrInvalidSchema error when the schema cannot be compiled.
func Validate(schema *models.Schema, params map[string]any) error {
	compiled, err := Compile(schema)
	if err != nil {
		return errors.Wrap(err, "Invalid JSON Schema")
	}

	if params == nil {
		params = map[string]any{}
	}
	err = compiled.Validate(instance(params))
	if err == nil {
		return nil
	}

	var verr *jsonschema.ValidationError
	if !errors.As(err, &verr) {
		return errors.Wrap(err, "validating parameters")
	}

	var leaves []*jsonschema.ValidationError
	collectLeaves(verr, &leaves)

	lines := make([]string, 0, len(leaves))
	for _, leaf := range leaves {
		lines = append(lines, fmt.Sprintf("  - %s: %s", instancePath(leaf.InstanceLocation), leafMessage(leaf)))
	}
	sort.Strings(lines)
	return &SchemaValidationError{Errors: dedupe(lines)}
}

// instance converts params into a value the validator accepts. Parameters
// are already normalized; the copy only drops the map's named type.
func instance(params map[string]any) any {
	out := make(map[string]any, len(params))
	for k, v := range params {
		out[k] = v
	}
	return out
}

func collectLeaves(e *jsonschema.ValidationError, out *[]*jsonschema.ValidationError) {
	if len(e.Causes) == 0 {
		*out = append(*out, e)
		return
	}
	for _, c := range e.Causes {
		collectLeaves(c, out)
	}
}

func leafMessage(e *jsonschema.ValidationError) string {
	unit := e.BasicOutput()
	if unit != nil && unit.Error != nil {
		return unit.Error.String()
	}
	return e.Error()
}

func instancePath(tokens []string) string {
	if len(tokens) == 0 {
		return "root"
	}
	return strings.Join(tokens, ".")
}

func describeCompileError(err error) string {
	var serr *jsonschema.SchemaValidationError
	if errors.As(err, &serr) && serr.Err != nil {
		var verr *jsonschema.ValidationError
		if errors.As(serr.Err, &verr) {
			var leaves []*jsonschema.ValidationError
			collectLeaves(verr, &leaves)
			parts := make([]string, 0, len(leaves))
			for _, leaf := range leaves {
				parts = append(parts, fmt.Sprintf("%s: %s", instancePath(leaf.InstanceLocation), leafMessage(leaf)))
			}
			sort.Strings(parts)
			return strings.Join(dedupe(parts), "; ")
		}
		return serr.Err.Error()
	}
	return err.Error()
}

func dedupe(sorted []string) []string {
	out := sorted[:0]
	for i, s := range sorted {
		if i == 0 || s != sorted[i-1] {
			out = append(out, s)
		}
	}
	return out
}
