package fileutil

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFiles(t *testing.T, root string, files []string) {
	t.Helper()
	for _, f := range files {
		full := filepath.Join(root, f)
		if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
			t.Fatalf("Failed to create dir for %s: %v", f, err)
		}
		if err := os.WriteFile(full, []byte("x"), 0644); err != nil {
			t.Fatalf("Failed to write %s: %v", f, err)
		}
	}
}

func TestScanFiles(t *testing.T) {
	tmpDir := t.TempDir()
	writeFiles(t, tmpDir, []string{
		"default.yaml",
		"minimal.yml",
		"Loud.YAML",
		"notes.txt",
		".hidden.yaml",
		"nested/inner.yaml",
	})

	tests := []struct {
		name     string
		opts     ScanOptions
		expected []string
	}{
		{
			name:     "yaml extensions",
			opts:     ScanOptions{Extensions: []string{".yaml", "yml"}},
			expected: []string{"Loud.YAML", "default.yaml", "minimal.yml"},
		},
		{
			name:     "all files",
			opts:     ScanOptions{},
			expected: []string{"Loud.YAML", "default.yaml", "minimal.yml", "notes.txt"},
		},
		{
			name:     "hidden included",
			opts:     ScanOptions{Extensions: []string{".yaml"}, IncludeHidden: true},
			expected: []string{".hidden.yaml", "Loud.YAML", "default.yaml"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := ScanFiles(tmpDir, tt.opts)
			if err != nil {
				t.Fatalf("ScanFiles failed: %v", err)
			}
			if len(result.Files) != len(tt.expected) {
				t.Fatalf("Expected %d files, got %d: %v", len(tt.expected), len(result.Files), result.Files)
			}
			for i, f := range result.Files {
				if !filepath.IsAbs(f) {
					t.Errorf("Expected absolute path, got %s", f)
				}
				if filepath.Base(f) != tt.expected[i] {
					t.Errorf("File %d: expected %s, got %s", i, tt.expected[i], filepath.Base(f))
				}
			}
		})
	}
}

func TestScanFilesMissingDir(t *testing.T) {
	result, err := ScanFiles(filepath.Join(t.TempDir(), "nope"), ScanOptions{})
	if err != nil {
		t.Fatalf("Expected no error for missing dir, got %v", err)
	}
	if len(result.Files) != 0 {
		t.Errorf("Expected no files, got %v", result.Files)
	}
}

func TestScanFilesNotADirectory(t *testing.T) {
	tmpDir := t.TempDir()
	writeFiles(t, tmpDir, []string{"file.txt"})

	if _, err := ScanFiles(filepath.Join(tmpDir, "file.txt"), ScanOptions{}); err == nil {
		t.Error("Expected error when scanning a file")
	}
}

func TestScanDirs(t *testing.T) {
	tmpDir := t.TempDir()
	writeFiles(t, tmpDir, []string{
		"security/template.md",
		"audit/template.md",
		"audit/schema.json",
		"draft/schema.json",
		".cache/template.md",
		"stray.md",
	})
	if err := os.MkdirAll(filepath.Join(tmpDir, "odd", "template.md"), 0755); err != nil {
		t.Fatal(err)
	}

	names, err := ScanDirs(tmpDir, "template.md")
	if err != nil {
		t.Fatalf("ScanDirs failed: %v", err)
	}

	expected := []string{"audit", "security"}
	if len(names) != len(expected) {
		t.Fatalf("Expected %v, got %v", expected, names)
	}
	for i := range expected {
		if names[i] != expected[i] {
			t.Errorf("Index %d: expected %s, got %s", i, expected[i], names[i])
		}
	}
}

func TestScanDirsMissingRoot(t *testing.T) {
	names, err := ScanDirs(filepath.Join(t.TempDir(), "missing"), "template.md")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(names) != 0 {
		t.Errorf("Expected empty list, got %v", names)
	}
}

func TestStem(t *testing.T) {
	cases := map[string]string{
		"/a/b/default.yaml": "default",
		"minimal.yml":       "minimal",
		"no_ext":            "no_ext",
		"x.tar.gz":          "x.tar",
	}
	for in, want := range cases {
		if got := Stem(in); got != want {
			t.Errorf("Stem(%q) = %q, want %q", in, got, want)
		}
	}
}
