// Package fileutil provides the directory scanning used by the template store.
//
// Two shapes of scan are supported:
//
//   - ScanFiles lists the files directly inside a directory, optionally
//     filtered by extension (presets under examples/).
//   - ScanDirs lists the subdirectories that contain a marker file (template
//     directories containing template.md).
//
// Results are sorted for deterministic output. A missing directory is treated
// as empty.
package fileutil
