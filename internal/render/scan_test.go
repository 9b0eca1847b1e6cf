package render

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestFreeVariables(t *testing.T) {
	tests := []struct {
		name string
		tpl  string
		want []string
	}{
		{
			name: "plain text",
			tpl:  "no variables here",
			want: []string{},
		},
		{
			name: "attributes and filters are not free",
			tpl:  "{{ repo.name|upper }} {{ b }}",
			want: []string{"b", "repo"},
		},
		{
			name: "filter argument is free",
			tpl:  "{{ xs|join:sep }}",
			want: []string{"sep", "xs"},
		},
		{
			name: "loop variable is scoped",
			tpl:  "{% for x in items %}{{ x }}{{ forloop.Counter }}{% endfor %}{{ x }}",
			want: []string{"items", "x"},
		},
		{
			name: "key value loop with modifiers",
			tpl:  "{% for k, v in mapping sorted %}{{ k }}={{ v }}{% endfor %}",
			want: []string{"mapping"},
		},
		{
			name: "loop over a variable named sorted",
			tpl:  "{% for x in sorted %}{{ x }}{% endfor %}",
			want: []string{"sorted"},
		},
		{
			name: "set binds",
			tpl:  "{% set y = z %}{{ y }}",
			want: []string{"z"},
		},
		{
			name: "use before set",
			tpl:  "{{ y }}{% set y = 1 %}",
			want: []string{"y"},
		},
		{
			name: "with keyword arguments",
			tpl:  "{% with total=price %}{{ total }}{% endwith %}{{ total }}",
			want: []string{"price", "total"},
		},
		{
			name: "macro parameters and defaults",
			tpl:  "{% macro greet(who, greeting=default_greeting) %}{{ greeting }} {{ who }} {{ extra }}{% endmacro %}{{ greet(name) }}",
			want: []string{"default_greeting", "extra", "name"},
		},
		{
			name: "comments and verbatim are skipped",
			tpl:  "{# {{ hidden }} #}{% comment %}{{ also }}{% endcomment %}{% verbatim %}{{ raw }}{% endverbatim %}{{ shown }}",
			want: []string{"shown"},
		},
		{
			name: "keywords and literals",
			tpl:  `{% if a and not b or "c" in d %}{{ 42 }}{% endif %}`,
			want: []string{"a", "b", "d"},
		},
		{
			name: "builtins",
			tpl:  "{{ pongo2.version }}{% if x == None %}{{ True }}{% endif %}",
			want: []string{"x"},
		},
		{
			name: "untaken branches count",
			tpl:  "{% if on %}{{ a }}{% else %}{{ b }}{% endif %}",
			want: []string{"a", "b", "on"},
		},
		{
			name: "include arguments",
			tpl:  `{% include "part.md" with title=heading only %}`,
			want: []string{"heading"},
		},
		{
			name: "cycle as",
			tpl:  `{% for r in rows %}{% cycle "odd" "even" as parity %}{{ parity }}{% endfor %}`,
			want: []string{"rows"},
		},
		{
			name: "whitespace control markers",
			tpl:  "{%- if a -%}{{- b -}}{%- endif -%}",
			want: []string{"a", "b"},
		},
		{
			name: "default filter still counts",
			tpl:  `{{ maybe|default:"x" }}`,
			want: []string{"maybe"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FreeVariables(tt.tpl)
			if err != nil {
				t.Fatalf("FreeVariables returned error: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("FreeVariables mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestFreeVariablesSyntaxErrors(t *testing.T) {
	tests := []struct {
		name string
		tpl  string
	}{
		{"unclosed variable", "{{ a "},
		{"newline in tag", "{{ a\n}}"},
		{"unclosed comment", "{# note"},
		{"multi-line comment", "{# one\ntwo #}"},
		{"unclosed string", `{{ "abc }}`},
		{"unclosed verbatim", "{% verbatim %}{{ x }}"},
		{"bad character", "{{ a ; b }}"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := FreeVariables(tt.tpl); err == nil {
				t.Errorf("Expected syntax error for %q", tt.tpl)
			}
		})
	}
}

func TestRequiredVariablesSkipsDefaultGuard(t *testing.T) {
	got, err := requiredVariables(`{{ a|default:"x" }}{{ b }}{{ a }}`)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"b", "a"}, got); diff != "" {
		t.Errorf("requiredVariables mismatch (-want +got):\n%s", diff)
	}

	got, err = requiredVariables(`{{ a|default:"x" }}`)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Errorf("Expected no required variables, got %v", got)
	}
}

func TestAttributePaths(t *testing.T) {
	tpl := `{{ cfg.depth }}{{ cfg.depth }}{{ cfg.a.b|upper }}{{ cfg.opt|default:"x" }}` +
		`{% for item in items %}{{ item.name }}{% endfor %}{{ forloop.Counter }}{{ user.greet() }}{{ xs.0 }}{{ plain }}`
	got, err := attributePaths(tpl)
	if err != nil {
		t.Fatal(err)
	}
	want := [][]string{{"cfg", "depth"}, {"cfg", "a", "b"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("attributePaths mismatch (-want +got):\n%s", diff)
	}
}
