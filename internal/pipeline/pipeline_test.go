package pipeline

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teerev/promptkit/internal/errors"
	"github.com/teerev/promptkit/internal/render"
	"github.com/teerev/promptkit/internal/store"
	"github.com/teerev/promptkit/internal/testutil"
	"github.com/teerev/promptkit/internal/validation"
)

func auditStore(t *testing.T) *store.Store {
	t.Helper()
	return store.New(testutil.NewStore(t, testutil.Audit()))
}

func TestRunWithPreset(t *testing.T) {
	res, err := Run(auditStore(t), Request{Template: "audit", Preset: "default"})
	require.NoError(t, err)
	assert.Equal(t, "# Audit of .\n\nDepth: 2\n- security\n- tests\nFormat: markdown", res.Rendered)
	assert.Equal(t, ".", res.Params["repo_path"])
	assert.Equal(t, "audit", res.Template.Name)
}

func TestRunMissingRequired(t *testing.T) {
	_, err := Run(auditStore(t), Request{Template: "audit"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, validation.ErrValidationFailed))
	assert.Contains(t, err.Error(), "repo_path")
	assert.Equal(t, "Error: ", Prefix(err))
}

func TestRunPrecedence(t *testing.T) {
	paramsFile := filepath.Join(t.TempDir(), "params.json")
	require.NoError(t, os.WriteFile(paramsFile, []byte(`{"repo_path": "/from-file", "depth": 4}`), 0644))

	res, err := Run(auditStore(t), Request{
		Template:   "audit",
		Preset:     "deep",
		ParamsFile: paramsFile,
		Overrides:  []string{"depth=9"},
		Format:     "json",
	})
	require.NoError(t, err)
	assert.Equal(t, "/from-file", res.Params["repo_path"])
	assert.Equal(t, int64(9), res.Params["depth"])
	assert.Equal(t, "json", res.Params["output_format"])
}

func TestRunFormatBeatsSet(t *testing.T) {
	res, err := Run(auditStore(t), Request{
		Template:  "audit",
		Preset:    "default",
		Overrides: []string{"output_format=markdown"},
		Format:    "json",
	})
	require.NoError(t, err)
	assert.Equal(t, "json", res.Params["output_format"])
}

func TestRunStages(t *testing.T) {
	root := testutil.NewStore(t,
		testutil.Audit(),
		testutil.Template{
			Name:     "broken",
			Template: "{{ undeclared }}",
			Schema:   `{"type": "object", "properties": {}}`,
		},
		testutil.Template{
			Name:     "badschema",
			Template: "x",
			Schema:   `{not json`,
		},
	)
	st := store.New(root)

	tests := []struct {
		name   string
		req    Request
		stage  Stage
		prefix string
	}{
		{"unknown template", Request{Template: "nope"}, StageTemplate, "Error: "},
		{"malformed schema", Request{Template: "badschema"}, StageTemplate, "Error loading template: "},
		{"unknown preset", Request{Template: "audit", Preset: "nope"}, StagePreset, "Error: "},
		{"missing params file", Request{Template: "audit", ParamsFile: "/does/not/exist.yaml"}, StageParamsFile, "Error loading params file: "},
		{"bad override", Request{Template: "audit", Overrides: []string{"novalue"}}, StageOverride, "Error parsing override: "},
		{"invalid value", Request{Template: "audit", Preset: "default", Overrides: []string{"depth=0"}}, StageValidate, "Error: "},
		{"undefined variable", Request{Template: "broken"}, StageRender, "Error rendering template: "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Run(st, tt.req)
			require.Error(t, err)
			var se *StageError
			require.True(t, errors.As(err, &se))
			assert.Equal(t, tt.stage, se.Stage)
			assert.Equal(t, tt.prefix, Prefix(err))
		})
	}
}

func TestRunRenderErrorIsMarked(t *testing.T) {
	root := testutil.NewStore(t, testutil.Template{
		Name:     "broken",
		Template: "{{ undeclared }}",
		Schema:   `{"type": "object"}`,
	})
	_, err := Run(store.New(root), Request{Template: "broken"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, render.ErrRender))
	assert.Equal(t, "Undefined variable in template: 'undeclared' is undefined", err.Error())
}

func TestRunMappingParameterRendersOneWay(t *testing.T) {
	root := testutil.NewStore(t, testutil.Template{
		Name:     "envs",
		Template: "{% for k, v in env %}{{ k }}={{ v }} {% endfor %}",
		Schema:   `{"type": "object", "properties": {"env": {"type": "object"}}}`,
		Presets:  map[string]string{"default.yaml": "env:\n  ALPHA: 1\n  BETA: 2\n  GAMMA: 3\n  DELTA: 4\n"},
	})
	st := store.New(root)

	outputs := map[string]bool{}
	for i := 0; i < 50; i++ {
		res, err := Run(st, Request{Template: "envs", Preset: "default"})
		require.NoError(t, err)
		outputs[res.Rendered] = true
	}
	assert.Len(t, outputs, 1)
	assert.True(t, outputs["ALPHA=1 BETA=2 DELTA=4 GAMMA=3 "])
}

func TestRunNestedKeyTypoFailsToRender(t *testing.T) {
	root := testutil.NewStore(t, testutil.Template{
		Name:     "cfg",
		Template: "|{{ cfg.depht }}|",
		Schema:   `{"type": "object", "properties": {"cfg": {"type": "object", "default": {"depth": 3}}}}`,
	})

	_, err := Run(store.New(root), Request{Template: "cfg"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, render.ErrRender))
	assert.Equal(t, "Error rendering template: ", Prefix(err))
	assert.Contains(t, err.Error(), "has no attribute 'depht'")
}
