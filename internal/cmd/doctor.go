package cmd

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/teerev/promptkit/internal/doctor"
	"github.com/teerev/promptkit/internal/models"
)

// NewDoctorCommand creates the 'pk doctor' command
func NewDoctorCommand() *cobra.Command {
	var template string
	var showDiff bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Validate templates and run health checks",
		Long: `Validate templates and run health checks.

Checks:
  - Schema JSON validity
  - Preset validation against schemas
  - Template rendering with presets
  - Variable coverage (no undeclared variables)
  - Golden tests (output matches expected)

Exit code: 0 if every check passed, 1 otherwise`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := loadEnvironment(cmd)
			if err != nil {
				return err
			}
			return runDoctorWithOutput(env, template, showDiff, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	cmd.Flags().StringVarP(&template, "template", "t", "", "Validate only a specific template")
	cmd.Flags().BoolVar(&showDiff, "diff", false, "Show a line diff for failing golden tests")

	return cmd
}

func runDoctorWithOutput(env *environment, template string, showDiff bool, out, errOut io.Writer) error {
	d := doctor.New(env.store, doctor.WithDiff(showDiff), doctor.WithLogger(env.log))

	var report *models.Report
	if template != "" {
		r, err := d.Check(template)
		if err != nil {
			return env.reportError(errOut, "Error: ", err)
		}
		report = r
	} else {
		report = d.CheckAll()
	}

	doctor.FormatReport(out, report, env.useColor(out))
	env.log.LogDebug("doctor finished")

	if !report.Passed() {
		return errSilentExit
	}
	return nil
}
