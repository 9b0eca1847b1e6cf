// Package pipeline runs the load, merge, validate and render chain for one
// template. The CLI's render command and the doctor both go through it.
package pipeline

import (
	"github.com/teerev/promptkit/internal/errors"
	"github.com/teerev/promptkit/internal/models"
	"github.com/teerev/promptkit/internal/params"
	"github.com/teerev/promptkit/internal/render"
	"github.com/teerev/promptkit/internal/store"
	"github.com/teerev/promptkit/internal/validation"
)

// Stage names the step of the chain that failed.
type Stage string

const (
	StageTemplate   Stage = "template"
	StagePreset     Stage = "preset"
	StageParamsFile Stage = "params file"
	StageOverride   Stage = "override"
	StageValidate   Stage = "validate"
	StageRender     Stage = "render"
)

// StageError ties a failure to the stage it happened in.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string { return e.Err.Error() }

func (e *StageError) Unwrap() error { return e.Err }

// Request describes one render.
type Request struct {
	Template   string
	Preset     string   // optional preset name
	ParamsFile string   // optional YAML/JSON parameters file
	Overrides  []string // "key=value" strings
	Format     string   // when set, folded into the overrides as output_format
}

// Result is a successful render.
type Result struct {
	Template *models.Template
	Params   map[string]any
	Rendered string
}

// Run loads the requested template and renders it. Failures are returned as
// *StageError.
func Run(st *store.Store, req Request) (*Result, error) {
	tpl, err := st.Load(req.Template)
	if err != nil {
		return nil, &StageError{Stage: StageTemplate, Err: err}
	}

	var layers params.Layers
	if req.Preset != "" {
		layers.Preset, err = st.LoadPreset(req.Template, req.Preset)
		if err != nil {
			return nil, &StageError{Stage: StagePreset, Err: err}
		}
	}
	if req.ParamsFile != "" {
		layers.File, err = st.LoadParamsFile(req.ParamsFile)
		if err != nil {
			return nil, &StageError{Stage: StageParamsFile, Err: err}
		}
	}
	layers.Overrides, err = params.ParseOverrides(req.Overrides)
	if err != nil {
		return nil, &StageError{Stage: StageOverride, Err: err}
	}
	if req.Format != "" {
		layers.Overrides["output_format"] = req.Format
	}

	merged, rendered, err := Execute(tpl, layers)
	if err != nil {
		return nil, err
	}
	return &Result{Template: tpl, Params: merged, Rendered: rendered}, nil
}

// Execute merges layers over the template's schema defaults, validates the
// result and renders the template with it.
func Execute(tpl *models.Template, layers params.Layers) (map[string]any, string, error) {
	merged := params.Merge(tpl.Schema, layers)

	if err := validation.Validate(tpl.Schema, merged); err != nil {
		return nil, "", &StageError{Stage: StageValidate, Err: err}
	}

	rendered, err := render.New(render.WithBaseDir(tpl.Dir)).Render(tpl.Text, merged)
	if err != nil {
		return nil, "", &StageError{Stage: StageRender, Err: err}
	}
	return merged, rendered, nil
}

// Prefix is the label the CLI prints before a failure message. Not-found
// and validation failures are reported as plain errors, everything else
// names the step that broke.
func Prefix(err error) string {
	if errors.IsAny(err, store.ErrTemplateNotFound, store.ErrPresetNotFound, validation.ErrValidationFailed) {
		return "Error: "
	}
	var se *StageError
	if !errors.As(err, &se) {
		return "Error: "
	}
	switch se.Stage {
	case StageTemplate:
		return "Error loading template: "
	case StagePreset:
		return "Error loading preset: "
	case StageParamsFile:
		return "Error loading params file: "
	case StageOverride:
		return "Error parsing override: "
	case StageRender:
		return "Error rendering template: "
	default:
		return "Error: "
	}
}
