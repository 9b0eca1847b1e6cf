// Package display provides terminal output helpers shared by the pk commands.
//
// It centralizes the user-facing formatting that is not specific to one
// command:
//
// # Warning Messages
//
// Display non-fatal problems with optional components:
//
//	warning := display.Warning{
//	    Title:      "Failed to record run in history",
//	    Message:    err.Error(),
//	    Suggestion: "Check that runs/.pk is writable",
//	}
//	warning.Display(os.Stderr)
//
// # Tables
//
// Print aligned listings such as "pk list" and "pk runs":
//
//	table := display.Table{Headers: []string{"Template", "Description"}, MaxWidth: 60}
//	table.AddRow("audit", "Repository audit prompt")
//	table.Render(os.Stdout)
//
// # Values
//
// FormatValue prints parameter values the way they appear in rendered
// templates (True, None, 120.0, ['a', 'b']).
//
// Colors go through github.com/fatih/color, so NO_COLOR, non-terminal
// output and --no-color all produce plain text.
package display
