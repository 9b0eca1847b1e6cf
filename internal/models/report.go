package models

import "sort"

// ValidationResult is the outcome of one doctor check against one template.
type ValidationResult struct {
	Template string   // Template name, "(none)" when the store is empty
	Check    string   // Check identifier, e.g. "schema_json" or "render:default"
	Passed   bool     // Whether the check succeeded
	Message  string   // One-line outcome
	Details  []string // Extra lines printed under the result
}

// Report is an ordered collection of check results.
type Report struct {
	Results []ValidationResult
}

// Add appends a result.
func (r *Report) Add(result ValidationResult) {
	r.Results = append(r.Results, result)
}

// AddAll appends results in order.
func (r *Report) AddAll(results []ValidationResult) {
	r.Results = append(r.Results, results...)
}

// Passed reports whether every result passed. An empty report passes.
func (r *Report) Passed() bool {
	for _, res := range r.Results {
		if !res.Passed {
			return false
		}
	}
	return true
}

// PassedCount returns the number of passing results.
func (r *Report) PassedCount() int {
	n := 0
	for _, res := range r.Results {
		if res.Passed {
			n++
		}
	}
	return n
}

// FailedCount returns the number of failing results.
func (r *Report) FailedCount() int {
	return len(r.Results) - r.PassedCount()
}

// TemplateGroup holds the results for a single template in insertion order.
type TemplateGroup struct {
	Template string
	Results  []ValidationResult
}

// ByTemplate groups results by template, with groups sorted by template name.
func (r *Report) ByTemplate() []TemplateGroup {
	index := make(map[string]int)
	var groups []TemplateGroup
	for _, res := range r.Results {
		i, ok := index[res.Template]
		if !ok {
			i = len(groups)
			index[res.Template] = i
			groups = append(groups, TemplateGroup{Template: res.Template})
		}
		groups[i].Results = append(groups[i].Results, res)
	}
	sort.SliceStable(groups, func(a, b int) bool {
		return groups[a].Template < groups[b].Template
	})
	return groups
}
