package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// NewPresetsCommand creates the 'pk presets' command
func NewPresetsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "presets <template>",
		Short: "List available presets for a template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := loadEnvironment(cmd)
			if err != nil {
				return err
			}
			return listPresetsWithOutput(env, args[0], cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}
}

func listPresetsWithOutput(env *environment, name string, out, errOut io.Writer) error {
	presets, err := env.store.ListPresets(name)
	if err != nil {
		return env.reportError(errOut, "Error: ", err)
	}

	if len(presets) == 0 {
		fmt.Fprintf(out, "No presets found for template '%s'.\n", name)
		return nil
	}

	fmt.Fprintf(out, "Presets for '%s':\n", name)
	for _, p := range presets {
		fmt.Fprintf(out, "  - %s\n", p)
	}
	return nil
}
