package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/teerev/promptkit/internal/config"
	"github.com/teerev/promptkit/internal/errors"
	"github.com/teerev/promptkit/internal/logger"
	"github.com/teerev/promptkit/internal/store"
	"github.com/teerev/promptkit/internal/version"
)

// errSilentExit is returned by commands that have already reported the
// failure on stderr. main exits 1 without printing it again.
var errSilentExit = errors.New("silent exit")

// IsSilentExit reports whether err only carries the exit status.
func IsSilentExit(err error) bool {
	return errors.Is(err, errSilentExit)
}

// NewRootCommand creates and returns the root cobra command for pk
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pk",
		Short: "Prompt template library for LLM-assisted software engineering",
		Long: `pk renders, validates and manages reusable prompt templates with strict
schemas and deterministic rendering.

Templates live under a templates root, one directory per template:
  <name>/template.md            template text
  <name>/schema.json            JSON-Schema for the parameters
  <name>/examples/<preset>.yaml named parameter presets
  <name>/tests/render_golden.md expected output of the default render`,
		Version: version.Version,
		// Silence usage on errors to avoid duplicate help text
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.SetVersionTemplate("pk, version {{.Version}}\n")

	flags := cmd.PersistentFlags()
	flags.String("templates-dir", "", "Templates root (default: templates/ of the nearest project)")
	flags.String("config", "", "Path to config file (default: .promptkit/config.yaml)")
	flags.String("log-level", "", "Diagnostic log level: trace, debug, info, warn, error")
	flags.Bool("no-color", false, "Disable colored output")

	cmd.AddCommand(NewListCommand())
	cmd.AddCommand(NewShowCommand())
	cmd.AddCommand(NewPresetsCommand())
	cmd.AddCommand(NewRenderCommand())
	cmd.AddCommand(NewDoctorCommand())
	cmd.AddCommand(NewRunsCommand())

	return cmd
}

// environment is what every command needs once flags and config are merged.
type environment struct {
	cfg   *config.Config
	store *store.Store
	log   *logger.ConsoleLogger
}

// loadEnvironment loads the configuration, applies the global flags (and
// --run-dir where the command has it) and opens the templates store.
func loadEnvironment(cmd *cobra.Command) (*environment, error) {
	flags := cmd.Flags()

	configPath, _ := flags.GetString("config")
	var cfg *config.Config
	var err error
	if configPath != "" {
		if _, statErr := os.Stat(configPath); statErr != nil {
			return nil, errors.Wrapf(statErr, "failed to load config from %s", configPath)
		}
		cfg, err = config.LoadConfig(configPath)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to load config from %s", configPath)
		}
	} else {
		cfg, err = config.LoadConfig(config.FindConfigFile("."))
		if err != nil {
			return nil, errors.Wrap(err, "failed to load config")
		}
	}

	cfg.MergeWithFlags(
		changedString(cmd, "templates-dir"),
		changedString(cmd, "run-dir"),
		changedString(cmd, "log-level"),
		changedBool(cmd, "no-color"),
	)
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}

	if !cfg.Color {
		color.NoColor = true
	}

	log := logger.NewConsoleLogger(cmd.ErrOrStderr(), cfg.LogLevel)
	root := config.ResolveTemplatesDir(cfg, "")
	log.With("root", root).LogDebug("templates root resolved")

	return &environment{
		cfg:   cfg,
		store: store.New(root),
		log:   log,
	}, nil
}

// changedString returns the flag's value when the user set it.
func changedString(cmd *cobra.Command, name string) *string {
	f := cmd.Flags().Lookup(name)
	if f == nil || !f.Changed {
		return nil
	}
	v := f.Value.String()
	return &v
}

func changedBool(cmd *cobra.Command, name string) *bool {
	f := cmd.Flags().Lookup(name)
	if f == nil || !f.Changed {
		return nil
	}
	v, _ := cmd.Flags().GetBool(name)
	return &v
}

// reportError prints "<prefix><message>" and logs any hints attached to err.
func (e *environment) reportError(errOut io.Writer, prefix string, err error) error {
	fmt.Fprintf(errOut, "%s%v\n", prefix, err)
	for _, hint := range errors.Hints(err) {
		e.log.LogInfo("hint: " + hint)
	}
	return errSilentExit
}

// useColor reports whether colored output should be written to w.
func (e *environment) useColor(w io.Writer) bool {
	if !e.cfg.Color || color.NoColor {
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
