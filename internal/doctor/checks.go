package doctor

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/teerev/promptkit/internal/models"
	"github.com/teerev/promptkit/internal/params"
	"github.com/teerev/promptkit/internal/pipeline"
	"github.com/teerev/promptkit/internal/render"
	"github.com/teerev/promptkit/internal/validation"
)

func result(template, check string, passed bool, message string, details ...string) models.ValidationResult {
	return models.ValidationResult{
		Template: template,
		Check:    check,
		Passed:   passed,
		Message:  message,
		Details:  details,
	}
}

func (d *Doctor) checkSchemaJSON(name string) models.ValidationResult {
	path, err := d.store.SchemaPath(name)
	if err != nil {
		return result(name, CheckSchemaJSON, false, err.Error())
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return result(name, CheckSchemaJSON, false, "schema.json not found")
	}
	if err != nil {
		return result(name, CheckSchemaJSON, false, "Could not read schema.json: "+err.Error())
	}

	schema, err := models.ParseSchema(path, data)
	if err != nil {
		return result(name, CheckSchemaJSON, false, "Invalid JSON: "+err.Error())
	}
	if err := validation.CheckSchema(schema); err != nil {
		return result(name, CheckSchemaJSON, false, "Invalid JSON Schema: "+err.Error())
	}
	return result(name, CheckSchemaJSON, true, "Valid JSON Schema")
}

func (d *Doctor) checkPresets(name string) []models.ValidationResult {
	schema, err := d.store.LoadSchema(name)
	if err != nil {
		return []models.ValidationResult{
			result(name, CheckPresets, false, "Could not load schema: "+err.Error()),
		}
	}

	presets, err := d.store.ListPresets(name)
	if err != nil {
		return []models.ValidationResult{
			result(name, CheckPresets, false, "Could not list presets: "+err.Error()),
		}
	}
	if len(presets) == 0 {
		return []models.ValidationResult{result(name, CheckPresets, true, "No presets to validate")}
	}

	results := make([]models.ValidationResult, 0, len(presets))
	for _, preset := range presets {
		check := "preset:" + preset
		values, err := d.store.LoadPreset(name, preset)
		if err == nil {
			err = validation.Validate(schema, params.Merge(schema, params.Layers{Preset: values}))
		}
		if err != nil {
			results = append(results, result(name, check, false, err.Error()))
			continue
		}
		results = append(results, result(name, check, true, "Valid"))
	}
	return results
}

func (d *Doctor) checkVariableCoverage(name string) models.ValidationResult {
	tpl, err := d.store.Load(name)
	if err != nil {
		return result(name, CheckVariableCoverage, false, "Could not load template/schema: "+err.Error())
	}

	vars, err := render.FreeVariables(tpl.Text)
	if err != nil {
		return result(name, CheckVariableCoverage, false, "Template parse error: "+err.Error())
	}

	used := make(map[string]bool, len(vars))
	var undeclared []string
	for _, v := range vars {
		used[v] = true
		if _, declared := tpl.Schema.Properties[v]; !declared {
			undeclared = append(undeclared, v)
		}
	}
	sort.Strings(undeclared)

	if len(undeclared) > 0 {
		return result(name, CheckVariableCoverage, false,
			"Undeclared variables in template: "+strings.Join(undeclared, ", "),
			"Add these to schema.json or fix typos: "+pyList(undeclared))
	}

	var unused []string
	for _, prop := range tpl.Schema.PropertyNames() {
		if !used[prop] {
			unused = append(unused, prop)
		}
	}
	var details []string
	if len(unused) > 0 {
		details = append(details, "Schema variables not used in template: "+pyList(unused))
	}
	return result(name, CheckVariableCoverage, true, "All template variables declared in schema", details...)
}

func (d *Doctor) checkRenders(name string) []models.ValidationResult {
	tpl, err := d.store.Load(name)
	if err != nil {
		return []models.ValidationResult{
			result(name, CheckRender, false, "Could not load template/schema: "+err.Error()),
		}
	}

	if len(tpl.Presets) == 0 {
		if _, _, err := pipeline.Execute(tpl, params.Layers{}); err != nil {
			return []models.ValidationResult{result(name, "render:defaults", false, err.Error())}
		}
		return []models.ValidationResult{result(name, "render:defaults", true, "Renders with defaults only")}
	}

	results := make([]models.ValidationResult, 0, len(tpl.Presets))
	for _, preset := range tpl.Presets {
		check := "render:" + preset
		values, err := d.store.LoadPreset(name, preset)
		if err == nil {
			_, _, err = pipeline.Execute(tpl, params.Layers{Preset: values})
		}
		if err != nil {
			results = append(results, result(name, check, false, err.Error()))
			continue
		}
		results = append(results, result(name, check, true, "Renders successfully"))
	}
	return results
}

func (d *Doctor) checkGolden(name string) models.ValidationResult {
	goldenPath, err := d.store.GoldenPath(name)
	if err != nil {
		return result(name, CheckGolden, false, err.Error())
	}
	expected, err := os.ReadFile(goldenPath)
	if os.IsNotExist(err) {
		return result(name, CheckGolden, false, "Golden file not found: "+goldenPath,
			"Create tests/render_golden.md with expected output")
	}
	if err != nil {
		return result(name, CheckGolden, false, "Could not read golden file: "+err.Error())
	}

	rendered, err := d.renderDefault(name)
	if err != nil {
		return result(name, CheckGolden, false, "Render failed: "+err.Error())
	}

	cmp := CompareGolden(string(expected), rendered)
	if cmp.Match {
		return result(name, CheckGolden, true, "Golden test passed", d.outlineDetail(rendered)...)
	}

	details := cmp.Details
	if d.diff {
		details = append(details, LineDiff(NormalizeText(string(expected)), NormalizeText(rendered))...)
	}
	return result(name, CheckGolden, false, "Golden test failed - output doesn't match expected", details...)
}

// renderDefault renders with the "default" preset when there is one and with
// schema defaults alone otherwise.
func (d *Doctor) renderDefault(name string) (string, error) {
	tpl, err := d.store.Load(name)
	if err != nil {
		return "", err
	}
	var layers params.Layers
	for _, p := range tpl.Presets {
		if p == "default" {
			layers.Preset, err = d.store.LoadPreset(name, "default")
			if err != nil {
				return "", err
			}
		}
	}
	_, rendered, err := pipeline.Execute(tpl, layers)
	return rendered, err
}

// pyList formats names as a bracketed list of single-quoted strings.
func pyList(names []string) string {
	items := make([]any, len(names))
	for i, n := range names {
		items[i] = n
	}
	return render.Repr(items)
}

func plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}
