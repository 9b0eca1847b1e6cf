package config

import (
	"os"
	"path/filepath"

	"github.com/teerev/promptkit/internal/errors"
)

// TemplatesDirName is the default templates root under a project root.
const TemplatesDirName = "templates"

// ErrProjectRootNotFound is returned when no ancestor looks like a project.
var ErrProjectRootNotFound = errors.New("project root not found")

// FindProjectRoot walks up from start to the nearest directory that holds a
// .promptkit directory or a templates directory.
func FindProjectRoot(start string) (string, error) {
	current, err := filepath.Abs(start)
	if err != nil {
		return "", errors.Wrapf(err, "resolving %s", start)
	}

	for {
		if isDir(filepath.Join(current, DirName)) || isDir(filepath.Join(current, TemplatesDirName)) {
			return current, nil
		}

		parent := filepath.Dir(current)
		if parent == current {
			// Reached filesystem root
			break
		}
		current = parent
	}

	return "", errors.Wrapf(ErrProjectRootNotFound, "no %s or %s directory above %s", DirName, TemplatesDirName, start)
}

// ResolveTemplatesDir picks the templates root for this invocation.
// Priority order:
//  1. the --templates-dir flag
//  2. templates_dir from PK_TEMPLATES_DIR or the config file
//  3. templates/ under the project root found from the working directory
//  4. ./templates
func ResolveTemplatesDir(cfg *Config, flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if cfg != nil && cfg.TemplatesDir != "" {
		return cfg.TemplatesDir
	}

	cwd, err := os.Getwd()
	if err != nil {
		return TemplatesDirName
	}
	if root, err := FindProjectRoot(cwd); err == nil {
		return filepath.Join(root, TemplatesDirName)
	}
	return filepath.Join(cwd, TemplatesDirName)
}

// FindConfigFile returns the config file of the project containing dir, or
// "" when there is none.
func FindConfigFile(dir string) string {
	root, err := FindProjectRoot(dir)
	if err != nil {
		return ""
	}
	path := filepath.Join(root, DirName, FileName)
	if _, err := os.Stat(path); err != nil {
		return ""
	}
	return path
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
