// Package render substitutes parameters into prompt templates.
//
// Templates use the Django/Jinja-style syntax of pongo2: {{ var }},
// {% if %}/{% elif %}/{% else %}, {% for x in xs %} and filters such as
// {{ xs|join:", " }}. Rendering is strict: every free variable of the
// template must be present in the parameters, otherwise the render fails
// instead of producing an empty substitution.
package render

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/flosch/pongo2/v6"

	"github.com/teerev/promptkit/internal/errors"
)

// ErrRender marks every rendering failure: syntax errors, undefined
// variables and engine errors.
var ErrRender = errors.New("render failed")

var engineSetup sync.Once

// Renderer renders template text with a fixed engine configuration.
type Renderer struct {
	baseDir string
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithBaseDir resolves {% include %} and {% import %} paths relative to dir.
func WithBaseDir(dir string) Option {
	return func(r *Renderer) {
		r.baseDir = dir
	}
}

// New returns a Renderer. Output is plain text: HTML autoescaping is off for
// the whole process, and for loops walk mappings in sorted key order.
func New(opts ...Option) *Renderer {
	engineSetup.Do(func() {
		pongo2.SetAutoescape(false)
		if err := pongo2.ReplaceTag("for", parseFor); err != nil {
			panic(err)
		}
	})

	r := &Renderer{}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Render renders text with params. A single trailing newline of the template
// is not part of the output, and CRLF line endings are read as LF.
func (r *Renderer) Render(text string, params map[string]any) (string, error) {
	source := stripTrailingNewline(normalizeSource(text))

	set, err := r.newSet()
	if err != nil {
		return "", errors.Mark(errors.Newf("Rendering failed: %v", err), ErrRender)
	}

	tpl, err := set.FromString(source)
	if err != nil {
		return "", errors.Mark(errors.Newf("Template syntax error: %s", describe(err)), ErrRender)
	}

	a, err := analyze(source)
	if err != nil {
		return "", errors.Mark(errors.Newf("Template syntax error: %s", describe(err)), ErrRender)
	}
	for _, name := range a.required {
		if _, ok := params[name]; !ok {
			return "", errors.Mark(errors.Newf("Undefined variable in template: '%s' is undefined", name), ErrRender)
		}
	}
	for _, path := range a.paths {
		if attr, ok := missingAttribute(params, path); ok {
			return "", errors.Mark(errors.Newf("Undefined variable in template: 'dict object' has no attribute '%s'", attr), ErrRender)
		}
	}

	out, err := tpl.Execute(buildContext(params))
	if err != nil {
		return "", errors.Mark(errors.Newf("Rendering failed: %s", describe(err)), ErrRender)
	}
	return out, nil
}

// missingAttribute follows path through nested mappings of params and
// returns the first key that is absent. Values other than mappings end the
// walk without a finding.
func missingAttribute(params map[string]any, path []string) (string, bool) {
	cur, ok := params[path[0]]
	if !ok {
		return "", false
	}
	for _, attr := range path[1:] {
		m, ok := cur.(map[string]any)
		if !ok {
			return "", false
		}
		if cur, ok = m[attr]; !ok {
			return attr, true
		}
	}
	return "", false
}

// Render renders text with a default Renderer.
func Render(text string, params map[string]any) (string, error) {
	return New().Render(text, params)
}

func (r *Renderer) newSet() (*pongo2.TemplateSet, error) {
	var loader pongo2.TemplateLoader
	if r.baseDir != "" {
		abs, err := filepath.Abs(r.baseDir)
		if err != nil {
			return nil, err
		}
		loader = dirLoader{dir: abs}
	} else {
		local, err := pongo2.NewLocalFileSystemLoader("")
		if err != nil {
			return nil, err
		}
		loader = local
	}
	set := pongo2.NewSet("promptkit", loader)
	return set, nil
}

// dirLoader resolves every relative template path against dir. pongo2 hands
// paths from string templates to Get unresolved, so Get joins them too.
type dirLoader struct {
	dir string
}

func (l dirLoader) Abs(base, name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(l.dir, name)
}

func (l dirLoader) Get(path string) (io.Reader, error) {
	data, err := os.ReadFile(l.Abs("", path))
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(data), nil
}

// buildContext wraps params for the engine and adds the True, False and
// None literals that templates written for Jinja expect.
func buildContext(params map[string]any) pongo2.Context {
	ctx := pongo2.Context{
		"True":  true,
		"False": false,
		"None":  nil,
		"none":  nil,
		"nil":   nil,
	}
	for k, v := range params {
		ctx[k] = wrap(v)
	}
	return ctx
}

// describe flattens engine errors into "<message> (line N)".
func describe(err error) string {
	var perr *pongo2.Error
	if errors.As(err, &perr) {
		msg := "unknown error"
		if perr.OrigError != nil {
			msg = perr.OrigError.Error()
		}
		if perr.Line > 0 {
			return fmt.Sprintf("%s (line %d)", msg, perr.Line)
		}
		return msg
	}
	var serr *SyntaxError
	if errors.As(err, &serr) {
		return fmt.Sprintf("%s (line %d)", serr.Msg, serr.Line)
	}
	return err.Error()
}

func normalizeSource(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.ReplaceAll(text, "\r", "\n")
}

func stripTrailingNewline(text string) string {
	return strings.TrimSuffix(text, "\n")
}
