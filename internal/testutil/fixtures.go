// Package testutil builds throwaway template stores for tests.
package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// Template describes one template directory to write. Empty Template or
// Schema strings skip the file; a nil Golden skips the golden file.
type Template struct {
	Name     string
	Template string
	Schema   string
	Presets  map[string]string // file name (with extension) -> YAML
	Golden   *string
	Files    map[string]string // extra files relative to the template dir
}

// Golden returns a pointer to s for Template.Golden.
func Golden(s string) *string {
	return &s
}

// WriteTemplate writes tpl under root and returns the template directory.
func WriteTemplate(t testing.TB, root string, tpl Template) string {
	t.Helper()
	dir := filepath.Join(root, tpl.Name)
	mustMkdir(t, dir)

	if tpl.Template != "" {
		mustWrite(t, filepath.Join(dir, "template.md"), tpl.Template)
	}
	if tpl.Schema != "" {
		mustWrite(t, filepath.Join(dir, "schema.json"), tpl.Schema)
	}
	for file, content := range tpl.Presets {
		mustMkdir(t, filepath.Join(dir, "examples"))
		mustWrite(t, filepath.Join(dir, "examples", file), content)
	}
	if tpl.Golden != nil {
		mustMkdir(t, filepath.Join(dir, "tests"))
		mustWrite(t, filepath.Join(dir, "tests", "render_golden.md"), *tpl.Golden)
	}
	for rel, content := range tpl.Files {
		path := filepath.Join(dir, filepath.FromSlash(rel))
		mustMkdir(t, filepath.Dir(path))
		mustWrite(t, path, content)
	}
	return dir
}

// NewStore writes every template into a fresh temp dir and returns its path.
func NewStore(t testing.TB, templates ...Template) string {
	t.Helper()
	root := filepath.Join(t.TempDir(), "templates")
	mustMkdir(t, root)
	for _, tpl := range templates {
		WriteTemplate(t, root, tpl)
	}
	return root
}

// AuditSchema declares a required repo_path without a default.
const AuditSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "title": "Code Audit",
  "description": "Audit a repository for quality issues",
  "type": "object",
  "properties": {
    "repo_path": {"type": "string", "description": "Path to the repository"},
    "depth": {"type": "integer", "default": 2, "minimum": 1},
    "focus": {"type": "array", "items": {"type": "string"}, "default": ["security", "tests"]},
    "output_format": {"type": "string", "enum": ["markdown", "json"], "default": "markdown"}
  },
  "required": ["repo_path"]
}`

// AuditTemplate references every AuditSchema property.
const AuditTemplate = `# Audit of {{ repo_path }}

Depth: {{ depth }}
{% for area in focus %}- {{ area }}
{% endfor %}Format: {{ output_format }}
`

// AuditGolden is AuditTemplate rendered with the default preset.
const AuditGolden = `# Audit of .

Depth: 2
- security
- tests
Format: markdown
`

// Audit returns a complete, healthy audit template.
func Audit() Template {
	return Template{
		Name:     "audit",
		Template: AuditTemplate,
		Schema:   AuditSchema,
		Presets: map[string]string{
			"default.yaml": "repo_path: \".\"\n",
			"deep.yaml":    "repo_path: /src\ndepth: 5\n",
		},
		Golden: Golden(AuditGolden),
	}
}

func mustMkdir(t testing.TB, dir string) {
	t.Helper()
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("mkdir %s: %v", dir, err)
	}
}

func mustWrite(t testing.TB, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
