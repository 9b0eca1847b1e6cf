package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, DirName, FileName)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("failed to create config dir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return path
}

// TestDefaultConfig verifies default configuration values
func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.TemplatesDir != "" {
		t.Errorf("TemplatesDir = %q, want empty", cfg.TemplatesDir)
	}
	if cfg.RunDir != "" {
		t.Errorf("RunDir = %q, want empty", cfg.RunDir)
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, "warn")
	}
	if !cfg.Color {
		t.Error("Color = false, want true")
	}
	if !cfg.History.Enabled {
		t.Error("History.Enabled = false, want true")
	}
}

func TestLoadConfigMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if *cfg != *DefaultConfig() {
		t.Errorf("LoadConfig() = %+v, want defaults %+v", *cfg, *DefaultConfig())
	}
}

func TestLoadConfigValidFile(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `templates_dir: /srv/prompts
run_dir: runs
log_level: DEBUG
color: false
history:
  enabled: false
  db_path: /tmp/ledger.db
`)

	cfg, err := LoadConfig(filepath.Join(dir, DirName, FileName))
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.TemplatesDir != "/srv/prompts" {
		t.Errorf("TemplatesDir = %q, want %q", cfg.TemplatesDir, "/srv/prompts")
	}
	if cfg.RunDir != "runs" {
		t.Errorf("RunDir = %q, want %q", cfg.RunDir, "runs")
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, "debug")
	}
	if cfg.Color {
		t.Error("Color = true, want false")
	}
	if cfg.History.Enabled {
		t.Error("History.Enabled = true, want false")
	}
	if cfg.History.DBPath != "/tmp/ledger.db" {
		t.Errorf("History.DBPath = %q, want %q", cfg.History.DBPath, "/tmp/ledger.db")
	}
}

func TestLoadConfigPartialFileKeepsDefaults(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "run_dir: out\n")

	cfg, err := LoadConfig(filepath.Join(dir, DirName, FileName))
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.RunDir != "out" {
		t.Errorf("RunDir = %q, want %q", cfg.RunDir, "out")
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("LogLevel = %q, want default %q", cfg.LogLevel, "warn")
	}
	if !cfg.History.Enabled {
		t.Error("History.Enabled should keep its default")
	}
}

func TestLoadConfigMalformedFile(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "log_level: [unclosed\n")

	if _, err := LoadConfig(path); err == nil {
		t.Error("Expected error for malformed YAML")
	}
}

func TestLoadConfigEnvironmentOverrides(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "templates_dir: from-file\n")

	t.Setenv("PK_TEMPLATES_DIR", "from-env")
	t.Setenv("PK_HISTORY_ENABLED", "false")

	cfg, err := LoadConfig(filepath.Join(dir, DirName, FileName))
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.TemplatesDir != "from-env" {
		t.Errorf("TemplatesDir = %q, want %q", cfg.TemplatesDir, "from-env")
	}
	if cfg.History.Enabled {
		t.Error("PK_HISTORY_ENABLED=false should disable the ledger")
	}
}

func TestMergeWithFlags(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TemplatesDir = "config-dir"

	templatesDir := "flag-dir"
	empty := ""
	level := "Info"
	noColor := true
	cfg.MergeWithFlags(&templatesDir, &empty, &level, &noColor)

	if cfg.TemplatesDir != "flag-dir" {
		t.Errorf("TemplatesDir = %q, want %q", cfg.TemplatesDir, "flag-dir")
	}
	if cfg.RunDir != "" {
		t.Errorf("empty flag should not override RunDir, got %q", cfg.RunDir)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, "info")
	}
	if cfg.Color {
		t.Error("--no-color should disable color")
	}

	cfg.MergeWithFlags(nil, nil, nil, nil)
	if cfg.TemplatesDir != "flag-dir" {
		t.Error("nil flags must not change the config")
	}
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() on defaults: %v", err)
	}

	cfg.LogLevel = "verbose"
	if err := cfg.Validate(); err == nil {
		t.Error("Expected error for unknown log level")
	}
}

func TestFindProjectRoot(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, TemplatesDirName), 0755); err != nil {
		t.Fatal(err)
	}
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatal(err)
	}

	got, err := FindProjectRoot(nested)
	if err != nil {
		t.Fatalf("FindProjectRoot() error = %v", err)
	}
	if got != root {
		t.Errorf("FindProjectRoot() = %q, want %q", got, root)
	}

	// A nearer .promptkit directory is the root
	if err := os.MkdirAll(filepath.Join(root, "a", DirName), 0755); err != nil {
		t.Fatal(err)
	}
	got, err = FindProjectRoot(nested)
	if err != nil {
		t.Fatalf("FindProjectRoot() error = %v", err)
	}
	if want := filepath.Join(root, "a"); got != want {
		t.Errorf("FindProjectRoot() = %q, want %q", got, want)
	}
}

func TestResolveTemplatesDir(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, TemplatesDirName), 0755); err != nil {
		t.Fatal(err)
	}
	sub := filepath.Join(root, "sub")
	if err := os.MkdirAll(sub, 0755); err != nil {
		t.Fatal(err)
	}
	t.Chdir(sub)

	cfg := DefaultConfig()
	if got := ResolveTemplatesDir(cfg, "explicit"); got != "explicit" {
		t.Errorf("flag should win, got %q", got)
	}

	cfg.TemplatesDir = "configured"
	if got := ResolveTemplatesDir(cfg, ""); got != "configured" {
		t.Errorf("config should win over discovery, got %q", got)
	}

	cfg.TemplatesDir = ""
	want := filepath.Join(root, TemplatesDirName)
	got, err := filepath.EvalSymlinks(ResolveTemplatesDir(cfg, ""))
	if err != nil {
		t.Fatal(err)
	}
	wantResolved, _ := filepath.EvalSymlinks(want)
	if got != wantResolved {
		t.Errorf("ResolveTemplatesDir() = %q, want %q", got, wantResolved)
	}
}

func TestFindConfigFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, TemplatesDirName), 0755); err != nil {
		t.Fatal(err)
	}
	if got := FindConfigFile(dir); got != "" {
		t.Errorf("FindConfigFile() = %q, want none", got)
	}

	path := writeConfig(t, dir, "log_level: info\n")
	if got := FindConfigFile(dir); got != path {
		t.Errorf("FindConfigFile() = %q, want %q", got, path)
	}
}
