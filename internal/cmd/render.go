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
	"github.com/teerev/promptkit/internal/models"
	"github.com/teerev/promptkit/internal/pipeline"
	"github.com/teerev/promptkit/internal/runpacket"
)

var outputFormats = []string{"markdown", "json"}

// renderOptions holds the render command's flags.
type renderOptions struct {
	preset     string
	paramsFile string
	overrides  []string
	outFile    string
	format     string
}

// NewRenderCommand creates the 'pk render' command
func NewRenderCommand() *cobra.Command {
	opts := &renderOptions{}

	cmd := &cobra.Command{
		Use:   "render <template>",
		Short: "Render a template with parameters",
		Long: `Render a template with parameters.

Parameters are merged in order (later overrides earlier):
  1. Schema defaults
  2. Preset file (--preset)
  3. Params file (--params)
  4. CLI overrides (--set)

The merged parameters are validated against the template's schema before
rendering. Every variable the template references must be defined.`,
		Example: `  pk render audit --preset fast
  pk render security --params my_params.yaml --set repo_path=/path/to/repo
  pk render readme --preset default --out prompt.md --run-dir ./runs`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.format != "" && !validFormat(opts.format) {
				return errors.Newf("invalid value for '--format' / '-f': '%s' is not one of 'markdown', 'json'", opts.format)
			}
			env, err := loadEnvironment(cmd)
			if err != nil {
				return err
			}
			req := pipeline.Request{
				Template:   args[0],
				Preset:     opts.preset,
				ParamsFile: opts.paramsFile,
				Overrides:  opts.overrides,
				Format:     opts.format,
			}
			return renderTemplateWithOutput(cmd.Context(), env, req, opts.outFile, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	cmd.Flags().StringVarP(&opts.preset, "preset", "p", "", "Preset name to use (e.g., 'fast', 'deep')")
	cmd.Flags().StringVarP(&opts.paramsFile, "params", "P", "", "YAML or JSON file with parameters")
	cmd.Flags().StringArrayVarP(&opts.overrides, "set", "s", nil, "Override parameter: key=value (repeatable)")
	cmd.Flags().StringVarP(&opts.outFile, "out", "o", "", "Write output to file instead of stdout")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "", "Override output_format parameter (markdown, json)")
	cmd.Flags().String("run-dir", "", "Emit a run packet directory with metadata")

	return cmd
}

func validFormat(format string) bool {
	for _, f := range outputFormats {
		if f == format {
			return true
		}
	}
	return false
}

// renderTemplateWithOutput renders req and writes the result to out or to
// outFile. A run packet is emitted when a run directory is configured;
// failing to emit one is only a warning.
func renderTemplateWithOutput(ctx context.Context, env *environment, req pipeline.Request, outFile string, out, errOut io.Writer) error {
	log := env.log.With("template", req.Template)

	result, err := pipeline.Run(env.store, req)
	if err != nil {
		return env.reportError(errOut, pipeline.Prefix(err), err)
	}
	log.LogDebug(fmt.Sprintf("rendered %d bytes", len(result.Rendered)))

	if runDir := env.cfg.RunDir; runDir != "" {
		packet, err := runpacket.NewEmitter().Emit(runDir, req.Template, result.Rendered, result.Params)
		if err != nil {
			display.Warning{Title: "Failed to create run packet: " + err.Error()}.Display(errOut)
		} else {
			fmt.Fprintf(errOut, "Run packet created: %s\n", packet.Dir)
			recordRun(ctx, env, runDir, req.Preset, packet, errOut)
		}
	}

	if outFile != "" {
		if err := os.WriteFile(outFile, []byte(result.Rendered), 0644); err != nil {
			return errors.Wrapf(err, "writing %s", outFile)
		}
		fmt.Fprintf(errOut, "Output written to: %s\n", outFile)
		return nil
	}

	fmt.Fprintln(out, result.Rendered)
	return nil
}

// recordRun adds the packet to the run ledger. The packet on disk is the
// record of truth, so ledger failures only warn.
func recordRun(ctx context.Context, env *environment, runDir, preset string, packet *runpacket.Packet, errOut io.Writer) {
	if !env.cfg.History.Enabled {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}

	dbPath := ledgerPath(env, runDir)
	warn := func(err error) {
		display.Warning{
			Title:   "Failed to record run in history",
			Message: err.Error(),
			Files:   []string{dbPath},
		}.Display(errOut)
	}

	ledger, err := history.NewStore(dbPath)
	if err != nil {
		warn(err)
		return
	}
	defer ledger.Close()

	rec, err := ledger.Record(ctx, models.RunRecord{
		Template:   packet.Meta.Template,
		Preset:     preset,
		PacketDir:  packet.Dir,
		PromptHash: packet.Meta.PromptHash,
		ParamsHash: packet.Meta.ParamsHash,
	})
	if err != nil {
		warn(err)
		return
	}
	env.log.With("id", rec.ID, "db", dbPath).LogDebug("run recorded")
}

// ledgerPath is history.db_path when configured, else the ledger inside
// runDir.
func ledgerPath(env *environment, runDir string) string {
	if env.cfg.History.DBPath != "" {
		return env.cfg.History.DBPath
	}
	return history.DefaultDBPath(runDir)
}
