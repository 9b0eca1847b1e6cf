// Package doctor runs a battery of health checks over the template store.
//
// Each template gets five independent checks: schema_json, presets,
// variable_coverage, render and golden_test. A failing check never stops the
// others, and no check returns an error: every problem becomes a failed
// models.ValidationResult in the report.
package doctor

import (
	"github.com/teerev/promptkit/internal/logger"
	"github.com/teerev/promptkit/internal/models"
	"github.com/teerev/promptkit/internal/store"
)

// Check names.
const (
	CheckSchemaJSON       = "schema_json"
	CheckPresets          = "presets"
	CheckVariableCoverage = "variable_coverage"
	CheckRender           = "render"
	CheckGolden           = "golden_test"
	CheckTemplatesExist   = "templates_exist"
)

// Doctor checks the templates of one store.
type Doctor struct {
	store  *store.Store
	diff   bool
	logger *logger.ConsoleLogger
}

// Option configures a Doctor.
type Option func(*Doctor)

// WithDiff appends a line diff to failed golden comparisons.
func WithDiff(enabled bool) Option {
	return func(d *Doctor) {
		d.diff = enabled
	}
}

// WithLogger sets the logger used for per-check debug output.
func WithLogger(l *logger.ConsoleLogger) Option {
	return func(d *Doctor) {
		d.logger = l
	}
}

// New returns a Doctor for st.
func New(st *store.Store, opts ...Option) *Doctor {
	d := &Doctor{store: st, logger: logger.Nop()}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// CheckTemplate runs every check for one template. The only error is
// store.ErrTemplateNotFound for an unknown name.
func (d *Doctor) CheckTemplate(name string) ([]models.ValidationResult, error) {
	if _, err := d.store.Dir(name); err != nil {
		return nil, err
	}

	var results []models.ValidationResult
	results = append(results, d.checkSchemaJSON(name))
	results = append(results, d.checkPresets(name)...)
	results = append(results, d.checkVariableCoverage(name))
	results = append(results, d.checkRenders(name)...)
	results = append(results, d.checkGolden(name))

	for _, r := range results {
		d.logger.With("template", name, "passed", r.Passed).LogDebug("check " + r.Check)
	}
	return results, nil
}

// CheckAll checks every template in the store. An empty store is itself a
// failure.
func (d *Doctor) CheckAll() *models.Report {
	report := &models.Report{}

	names, err := d.store.Names()
	if err != nil {
		report.Add(models.ValidationResult{
			Template: "(none)",
			Check:    CheckTemplatesExist,
			Message:  "Could not scan templates: " + err.Error(),
		})
		return report
	}
	if len(names) == 0 {
		report.Add(models.ValidationResult{
			Template: "(none)",
			Check:    CheckTemplatesExist,
			Message:  "No templates found",
			Details:  []string{"Expected templates in: " + d.store.Root()},
		})
		return report
	}

	for _, name := range names {
		results, err := d.CheckTemplate(name)
		if err != nil {
			report.Add(models.ValidationResult{Template: name, Check: CheckTemplatesExist, Message: err.Error()})
			continue
		}
		report.AddAll(results)
	}
	return report
}

// Check runs the battery for one template, or for all of them when name is
// empty.
func (d *Doctor) Check(name string) (*models.Report, error) {
	if name == "" {
		return d.CheckAll(), nil
	}
	results, err := d.CheckTemplate(name)
	if err != nil {
		return nil, err
	}
	report := &models.Report{}
	report.AddAll(results)
	return report, nil
}
