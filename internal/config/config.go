package config

import (
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/teerev/promptkit/internal/errors"
	"github.com/teerev/promptkit/internal/logger"
)

// DirName is the per-project configuration directory.
const DirName = ".promptkit"

// FileName is the configuration file inside DirName.
const FileName = "config.yaml"

// EnvPrefix prefixes every environment override, e.g. PK_TEMPLATES_DIR or
// PK_HISTORY_ENABLED.
const EnvPrefix = "PK"

// HistoryConfig represents the run ledger configuration
type HistoryConfig struct {
	// Enabled records every emitted run packet in the ledger
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// DBPath overrides the ledger location (default: <run_dir>/.pk/history.db)
	DBPath string `mapstructure:"db_path" yaml:"db_path"`
}

// Config represents promptkit configuration options
type Config struct {
	// TemplatesDir is the templates root. Empty means "search upwards".
	TemplatesDir string `mapstructure:"templates_dir" yaml:"templates_dir"`

	// RunDir is where render writes run packets. Empty disables packets
	// unless --run-dir is given.
	RunDir string `mapstructure:"run_dir" yaml:"run_dir"`

	// LogLevel sets the diagnostic verbosity (trace, debug, info, warn, error)
	LogLevel string `mapstructure:"log_level" yaml:"log_level"`

	// Color enables colored report and log output on terminals
	Color bool `mapstructure:"color" yaml:"color"`

	// History contains run ledger configuration
	History HistoryConfig `mapstructure:"history" yaml:"history"`
}

// DefaultConfig returns a Config with the built-in defaults
func DefaultConfig() *Config {
	return &Config{
		TemplatesDir: "",
		RunDir:       "",
		LogLevel:     "warn",
		Color:        true,
		History: HistoryConfig{
			Enabled: true,
			DBPath:  "",
		},
	}
}

// SetDefaults registers every default with v so that environment variables
// are picked up for keys no config file mentions.
func SetDefaults(v *viper.Viper) {
	d := DefaultConfig()
	v.SetDefault("templates_dir", d.TemplatesDir)
	v.SetDefault("run_dir", d.RunDir)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("color", d.Color)
	v.SetDefault("history.enabled", d.History.Enabled)
	v.SetDefault("history.db_path", d.History.DBPath)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	SetDefaults(v)
	return v
}

// LoadConfig loads configuration from the specified file path.
// A missing file yields the defaults (with environment overrides applied);
// a file that exists but cannot be parsed is an error.
func LoadConfig(path string) (*Config, error) {
	v := newViper()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			v.SetConfigType("yaml")
			if err := v.ReadInConfig(); err != nil {
				return nil, errors.Wrapf(err, "failed to parse config file %s", path)
			}
		} else if !os.IsNotExist(err) {
			return nil, errors.Wrapf(err, "failed to read config file %s", path)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.Wrap(err, "failed to decode config")
	}
	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))
	return cfg, nil
}

// MergeWithFlags applies command line flags on top of the loaded
// configuration. Nil pointers mean the flag was not given.
func (c *Config) MergeWithFlags(templatesDir, runDir, logLevel *string, noColor *bool) {
	if templatesDir != nil && *templatesDir != "" {
		c.TemplatesDir = *templatesDir
	}
	if runDir != nil && *runDir != "" {
		c.RunDir = *runDir
	}
	if logLevel != nil && *logLevel != "" {
		c.LogLevel = strings.ToLower(strings.TrimSpace(*logLevel))
	}
	if noColor != nil && *noColor {
		c.Color = false
	}
}

// Validate checks the configuration values
func (c *Config) Validate() error {
	if !logger.ValidLevel(c.LogLevel) {
		return errors.Newf("invalid log_level %q: must be one of trace, debug, info, warn, error", c.LogLevel)
	}
	return nil
}
