package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/teerev/promptkit/internal/display"
)

// descriptionWidth caps the description column of "pk list".
const descriptionWidth = 60

// NewListCommand creates the 'pk list' command
func NewListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all available templates",
		Long: `List every template under the templates root with its schema
description (or title).

Exit code: 0 if templates were found, 1 otherwise`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := loadEnvironment(cmd)
			if err != nil {
				return err
			}
			return listTemplatesWithOutput(env, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}
}

// listTemplatesWithOutput prints the template table
func listTemplatesWithOutput(env *environment, out, errOut io.Writer) error {
	summaries, err := env.store.List()
	if err != nil {
		return err
	}
	if len(summaries) == 0 {
		fmt.Fprintln(errOut, "No templates found.")
		return errSilentExit
	}

	table := display.Table{
		Headers:  []string{"Template", "Description"},
		MaxWidth: descriptionWidth,
	}
	for _, s := range summaries {
		table.AddRow(s.Name, s.Description)
	}
	table.Render(out)
	return nil
}
