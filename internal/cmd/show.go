package cmd

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/teerev/promptkit/internal/display"
	"github.com/teerev/promptkit/internal/errors"
	"github.com/teerev/promptkit/internal/models"
	"github.com/teerev/promptkit/internal/outline"
	"github.com/teerev/promptkit/internal/store"
)

// NewShowCommand creates the 'pk show' command
func NewShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <template>",
		Short: "Show details for a template",
		Long: `Show a template's schema summary, parameters (required ones marked
with *), presets, section outline and file paths.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := loadEnvironment(cmd)
			if err != nil {
				return err
			}
			return showTemplateWithOutput(env, args[0], cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}
}

func showTemplateWithOutput(env *environment, name string, out, errOut io.Writer) error {
	dir, err := env.store.Dir(name)
	if err != nil {
		return env.reportError(errOut, "Error: ", err)
	}
	schema, err := env.store.LoadSchema(name)
	if err != nil {
		if errors.Is(err, store.ErrTemplateNotFound) {
			return env.reportError(errOut, "Error: ", err)
		}
		return env.reportError(errOut, "Error loading template: ", err)
	}

	fmt.Fprintf(out, "Template: %s\n", name)
	fmt.Fprintf(out, "Path: %s\n", dir)
	fmt.Fprintln(out)

	fmt.Fprintln(out, "Schema:")
	fmt.Fprintf(out, "  Title: %s\n", topLevel(schema, "title"))
	fmt.Fprintf(out, "  Description: %s\n", topLevel(schema, "description"))
	fmt.Fprintln(out)

	if len(schema.Properties) > 0 {
		fmt.Fprintln(out, "Parameters:")
		for _, prop := range schema.PropertyNames() {
			p := schema.Properties[prop]
			marker := " "
			if schema.IsRequired(prop) {
				marker = "*"
			}
			fmt.Fprintf(out, "  %s %s: %s%s\n", marker, prop, propertyType(schema, prop), defaultSuffix(p))
			if p.Description != "" {
				fmt.Fprintf(out, "      %s\n", p.Description)
			}
		}
	}

	presets, err := env.store.ListPresets(name)
	if err != nil {
		env.log.With("template", name).LogWarn("listing presets: " + err.Error())
	}
	if len(presets) > 0 {
		fmt.Fprintln(out)
		fmt.Fprintf(out, "Presets: %s\n", strings.Join(presets, ", "))
	}

	if text, err := env.store.LoadTemplate(name); err == nil {
		if headings := outline.Headings(text); len(headings) > 0 {
			fmt.Fprintln(out)
			fmt.Fprintln(out, "Sections:")
			for _, line := range outline.Format(headings) {
				fmt.Fprintf(out, "  %s\n", line)
			}
		}
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, "Files:")
	fmt.Fprintf(out, "  %s: %s\n", store.TemplateFile, filepath.Join(dir, store.TemplateFile))
	fmt.Fprintf(out, "  %s: %s\n", store.SchemaFile, filepath.Join(dir, store.SchemaFile))
	return nil
}

// topLevel prints a top-level schema keyword, "N/A" when it is absent.
func topLevel(schema *models.Schema, key string) string {
	v, ok := schema.Raw[key]
	if !ok {
		return "N/A"
	}
	return display.FormatValue(models.Normalize(v))
}

// propertyType prints the declared type as written, so union types show as
// a list.
func propertyType(schema *models.Schema, name string) string {
	props, _ := schema.Raw["properties"].(map[string]any)
	prop, _ := props[name].(map[string]any)
	t, ok := prop["type"]
	if !ok {
		return "any"
	}
	return display.FormatValue(models.Normalize(t))
}

// defaultSuffix is " (default: X)" unless there is no default or it is the
// empty string.
func defaultSuffix(p models.Property) string {
	if !p.HasDefault {
		return ""
	}
	if s, ok := p.Default.(string); ok && s == "" {
		return ""
	}
	return fmt.Sprintf(" (default: %s)", display.FormatValue(p.Default))
}
