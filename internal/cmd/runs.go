package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/teerev/promptkit/internal/display"
	"github.com/teerev/promptkit/internal/errors"
	"github.com/teerev/promptkit/internal/history"
)

// defaultRunDir is used by 'pk runs' when neither --run-dir nor run_dir is
// set.
const defaultRunDir = "runs"

// hashPrefix is how much of the prompt hash the listing shows.
const hashPrefix = 12

// NewRunsCommand creates the 'pk runs' command
func NewRunsCommand() *cobra.Command {
	var template string
	var limit int

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recorded run packets, newest first",
		Long: `List the run packets recorded in the run ledger
(<run-dir>/.pk/history.db unless history.db_path is configured).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit < 0 {
				return errors.Newf("invalid value for '--limit': %d must be zero or positive", limit)
			}
			env, err := loadEnvironment(cmd)
			if err != nil {
				return err
			}
			filter := history.Filter{Template: template, Limit: limit}
			return listRunsWithOutput(cmd.Context(), env, filter, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	cmd.Flags().StringVar(&template, "template", "", "Only show runs of this template")
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of runs to show (0 = all)")
	cmd.Flags().String("run-dir", "", "Run directory whose ledger to read (default: runs)")

	return cmd
}

func listRunsWithOutput(ctx context.Context, env *environment, filter history.Filter, out, errOut io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}

	runDir := env.cfg.RunDir
	if runDir == "" {
		runDir = defaultRunDir
	}
	dbPath := ledgerPath(env, runDir)

	// Reading must not create an empty ledger.
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		fmt.Fprintln(out, "No runs recorded.")
		return nil
	}

	ledger, err := history.NewStore(dbPath)
	if err != nil {
		return env.reportError(errOut, "Error reading run history: ", err)
	}
	defer ledger.Close()

	records, err := ledger.List(ctx, filter)
	if err != nil {
		return env.reportError(errOut, "Error reading run history: ", err)
	}
	if len(records) == 0 {
		fmt.Fprintln(out, "No runs recorded.")
		return nil
	}

	table := display.Table{
		Headers:    []string{"Created", "Template", "Preset", "Prompt hash", "Packet"},
		FitHeaders: true,
	}
	for _, r := range records {
		preset := r.Preset
		if preset == "" {
			preset = "-"
		}
		hash := r.PromptHash
		if len(hash) > hashPrefix {
			hash = hash[:hashPrefix]
		}
		table.AddRow(r.CreatedAt.UTC().Format("2006-01-02 15:04:05"), r.Template, preset, hash, r.PacketDir)
	}
	table.Render(out)

	total, err := ledger.Count(ctx, filter)
	if err != nil {
		return env.reportError(errOut, "Error reading run history: ", err)
	}
	fmt.Fprintf(out, "\nShowing %d of %d runs.\n", len(records), total)
	return nil
}
