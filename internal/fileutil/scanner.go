package fileutil

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ScanOptions configures a single-level directory scan
type ScanOptions struct {
	// Extensions is a list of file extensions to include (e.g., ".yaml", ".yml").
	// Matching is case-insensitive. Empty means every file.
	Extensions []string
	// IncludeHidden keeps entries whose name starts with "."
	IncludeHidden bool
}

// ScanResult contains the results of a directory scan
type ScanResult struct {
	// Files contains the absolute paths of all matched files, sorted
	Files []string
	// Errors contains non-fatal errors encountered during scanning
	Errors []error
}

// ScanFiles lists the regular files directly inside dir that match opts.
// A missing directory is not an error: it yields an empty result.
func ScanFiles(dir string, opts ScanOptions) (*ScanResult, error) {
	result := &ScanResult{
		Files:  make([]string, 0),
		Errors: make([]error, 0),
	}

	entries, err := readDir(dir)
	if err != nil || entries == nil {
		return result, err
	}

	extMap := make(map[string]bool)
	for _, ext := range opts.Extensions {
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		extMap[strings.ToLower(ext)] = true
	}

	for _, entry := range entries {
		name := entry.Name()
		if !opts.IncludeHidden && strings.HasPrefix(name, ".") {
			continue
		}
		if entry.IsDir() {
			continue
		}
		if len(extMap) > 0 && !extMap[strings.ToLower(filepath.Ext(name))] {
			continue
		}

		absPath, err := filepath.Abs(filepath.Join(dir, name))
		if err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("failed to resolve path %s: %w", name, err))
			continue
		}
		result.Files = append(result.Files, absPath)
	}

	sort.Strings(result.Files)
	return result, nil
}

// ScanDirs returns the names of the immediate subdirectories of dir that
// contain a regular file called marker, sorted by name. Hidden directories
// are skipped. A missing directory yields an empty list.
func ScanDirs(dir, marker string) ([]string, error) {
	entries, err := readDir(dir)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		info, err := os.Stat(filepath.Join(dir, entry.Name(), marker))
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		names = append(names, entry.Name())
	}

	sort.Strings(names)
	return names, nil
}

// Stem returns the file name of path without its directory and extension.
func Stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func readDir(dir string) ([]os.DirEntry, error) {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to access directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("path is not a directory: %s", dir)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}
	return entries, nil
}
