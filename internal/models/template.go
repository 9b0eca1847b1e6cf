package models

// Template is a template loaded from the store. It is rebuilt on every
// invocation and never modified after loading.
type Template struct {
	Name    string
	Dir     string
	Text    string
	Schema  *Schema
	Presets []string
}
