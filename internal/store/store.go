// Package store reads templates, schemas and presets from a templates root.
//
// The layout under the root is
//
//	<name>/template.md            template text (required, marks the directory as a template)
//	<name>/schema.json            JSON-Schema for the template's parameters
//	<name>/examples/<preset>.yaml  named presets (.yml also accepted)
//	<name>/tests/render_golden.md expected output of the default render
//
// Everything is read from disk on every call. The store holds no cache and
// never writes.
package store

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/teerev/promptkit/internal/errors"
	"github.com/teerev/promptkit/internal/fileutil"
	"github.com/teerev/promptkit/internal/models"
)

// File names inside a template directory.
const (
	TemplateFile = "template.md"
	SchemaFile   = "schema.json"
	ExamplesDir  = "examples"
	GoldenFile   = "tests/render_golden.md"
)

// Failure kinds, matched with errors.Is.
var (
	ErrTemplateNotFound = errors.New("template not found")
	ErrPresetNotFound   = errors.New("preset not found")
	ErrSchemaMalformed  = errors.New("schema malformed")
	ErrParamsLoad       = errors.New("params load failure")
)

var presetExtensions = []string{".yaml", ".yml"}

// Store is a read-only view of a templates root directory.
type Store struct {
	root string
}

// Summary is one row of the template listing.
type Summary struct {
	Name        string
	Description string
}

// New returns a store rooted at root. The directory does not need to exist.
func New(root string) *Store {
	return &Store{root: root}
}

// Root returns the templates root directory.
func (s *Store) Root() string {
	return s.root
}

// Names returns the names of all templates, sorted.
func (s *Store) Names() ([]string, error) {
	names, err := fileutil.ScanDirs(s.root, TemplateFile)
	if err != nil {
		return nil, errors.Wrapf(err, "scanning templates in %s", s.root)
	}
	return names, nil
}

// List returns every template with its description. A template whose schema
// cannot be read is still listed, with the load error as its description.
func (s *Store) List() ([]Summary, error) {
	names, err := s.Names()
	if err != nil {
		return nil, err
	}

	summaries := make([]Summary, 0, len(names))
	for _, name := range names {
		var desc string
		if schema, err := s.LoadSchema(name); err != nil {
			desc = err.Error()
		} else {
			desc = schema.Summary()
		}
		summaries = append(summaries, Summary{Name: name, Description: desc})
	}
	return summaries, nil
}

// Dir returns the directory of the named template.
func (s *Store) Dir(name string) (string, error) {
	dir := filepath.Join(s.root, name)
	info, err := os.Stat(dir)
	if !validName(name) || err != nil || !info.IsDir() {
		return "", s.templateNotFound(name)
	}
	return dir, nil
}

func (s *Store) templateNotFound(name string) error {
	names, _ := s.Names()
	err := errors.Newf("Template '%s' not found. Available templates: %s", name, joinOrNone(names))
	err = errors.WithHint(err, "run 'pk list' to see the templates under "+s.root)
	return errors.Mark(err, ErrTemplateNotFound)
}

// TemplatePath returns the path of the named template's template.md.
func (s *Store) TemplatePath(name string) (string, error) {
	dir, err := s.Dir(name)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, TemplateFile), nil
}

// SchemaPath returns the path of the named template's schema.json.
func (s *Store) SchemaPath(name string) (string, error) {
	dir, err := s.Dir(name)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, SchemaFile), nil
}

// GoldenPath returns where the named template's golden file lives. The file
// itself may not exist.
func (s *Store) GoldenPath(name string) (string, error) {
	dir, err := s.Dir(name)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, filepath.FromSlash(GoldenFile)), nil
}

// LoadTemplate returns the text of template.md.
func (s *Store) LoadTemplate(name string) (string, error) {
	path, err := s.TemplatePath(name)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return "", errors.Mark(errors.Newf("Template file not found: %s", path), ErrTemplateNotFound)
	}
	if err != nil {
		return "", errors.Wrapf(err, "reading %s", path)
	}
	return string(data), nil
}

// LoadSchema reads and parses schema.json.
func (s *Store) LoadSchema(name string) (*models.Schema, error) {
	path, err := s.SchemaPath(name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, errors.Mark(errors.Newf("Schema file not found: %s", path), ErrTemplateNotFound)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", path)
	}

	schema, err := models.ParseSchema(path, data)
	if err != nil {
		return nil, errors.Mark(errors.Newf("Invalid JSON in schema %s: %v", path, err), ErrSchemaMalformed)
	}
	return schema, nil
}

// Load reads the template text, schema and preset names in one go.
func (s *Store) Load(name string) (*models.Template, error) {
	dir, err := s.Dir(name)
	if err != nil {
		return nil, err
	}
	text, err := s.LoadTemplate(name)
	if err != nil {
		return nil, err
	}
	schema, err := s.LoadSchema(name)
	if err != nil {
		return nil, err
	}
	presets, err := s.ListPresets(name)
	if err != nil {
		return nil, err
	}
	return &models.Template{
		Name:    name,
		Dir:     dir,
		Text:    text,
		Schema:  schema,
		Presets: presets,
	}, nil
}

// ListPresets returns the preset names of a template, sorted and deduplicated.
func (s *Store) ListPresets(name string) ([]string, error) {
	dir, err := s.Dir(name)
	if err != nil {
		return nil, err
	}

	result, err := fileutil.ScanFiles(filepath.Join(dir, ExamplesDir), fileutil.ScanOptions{
		Extensions: presetExtensions,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "listing presets for %s", name)
	}

	seen := make(map[string]bool)
	presets := make([]string, 0, len(result.Files))
	for _, f := range result.Files {
		// Extension match in ScanFiles is case-insensitive; presets are not.
		ext := filepath.Ext(f)
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		stem := fileutil.Stem(f)
		if !seen[stem] {
			seen[stem] = true
			presets = append(presets, stem)
		}
	}
	sort.Strings(presets)
	return presets, nil
}

// LoadPreset reads examples/<preset>.yaml, falling back to .yml. An empty
// document is an empty preset.
func (s *Store) LoadPreset(name, preset string) (map[string]any, error) {
	dir, err := s.Dir(name)
	if err != nil {
		return nil, err
	}

	for _, ext := range presetExtensions {
		path := filepath.Join(dir, ExamplesDir, preset+ext)
		data, err := os.ReadFile(path)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return nil, errors.Wrapf(err, "reading preset %s", path)
		}

		params, err := decodeYAML(data)
		if err != nil {
			return nil, errors.Mark(errors.Newf("Invalid YAML in preset %s: %v", path, err), ErrParamsLoad)
		}
		return params, nil
	}

	available, _ := s.ListPresets(name)
	err = errors.Newf("Preset '%s' not found for template '%s'. Available presets: %s",
		preset, name, joinOrNone(available))
	err = errors.WithHintf(err, "run 'pk presets %s' to list presets", name)
	return nil, errors.Mark(err, ErrPresetNotFound)
}

// LoadParamsFile reads a user-supplied parameters file. Files ending in
// ".json" are parsed as JSON and everything else as YAML. An empty file is
// an empty mapping.
func (s *Store) LoadParamsFile(path string) (map[string]any, error) {
	return LoadParamsFile(path)
}

// LoadParamsFile is the store-independent form of Store.LoadParamsFile.
func LoadParamsFile(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, errors.Mark(errors.Newf("Params file not found: %s", path), ErrParamsLoad)
	}
	if err != nil {
		return nil, errors.Mark(errors.Wrapf(err, "reading params file %s", path), ErrParamsLoad)
	}

	if filepath.Ext(path) == ".json" {
		params, err := decodeJSON(data)
		if err != nil {
			return nil, errors.Mark(errors.Newf("Invalid JSON in params file %s: %v", path, err), ErrParamsLoad)
		}
		return params, nil
	}

	params, err := decodeYAML(data)
	if err != nil {
		return nil, errors.Mark(errors.Newf("Invalid YAML in params file %s: %v", path, err), ErrParamsLoad)
	}
	return params, nil
}

func decodeYAML(data []byte) (map[string]any, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return asMapping(models.Normalize(doc))
}

func decodeJSON(data []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var doc any
	if err := dec.Decode(&doc); err != nil {
		if err == io.EOF {
			return nil, errors.New("empty document")
		}
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.New("invalid character after top-level value")
	}
	return asMapping(models.Normalize(doc))
}

// asMapping accepts a decoded document that is either empty or a mapping.
func asMapping(doc any) (map[string]any, error) {
	switch t := doc.(type) {
	case nil:
		return map[string]any{}, nil
	case map[string]any:
		return t, nil
	default:
		return nil, errors.Newf("expected a mapping at the top level, got %T", doc)
	}
}

func validName(name string) bool {
	return name != "" && name != "." && name != ".." && !strings.ContainsAny(name, `/\`)
}

func joinOrNone(names []string) string {
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, ", ")
}
