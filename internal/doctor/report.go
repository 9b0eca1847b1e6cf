package doctor

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/teerev/promptkit/internal/models"
)

// FormatReport writes the human-readable report. With useColor the pass and
// fail marks and the summary verdict are colored.
func FormatReport(w io.Writer, report *models.Report, useColor bool) {
	pass := color.New(color.FgGreen)
	fail := color.New(color.FgRed)
	bold := color.New(color.Bold)
	if !useColor {
		for _, c := range []*color.Color{pass, fail, bold} {
			c.DisableColor()
		}
	} else {
		for _, c := range []*color.Color{pass, fail, bold} {
			c.EnableColor()
		}
	}

	rule := strings.Repeat("=", 60)
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w, bold.Sprint("PROMPTKIT DOCTOR REPORT"))
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w)

	for _, group := range report.ByTemplate() {
		fmt.Fprintf(w, "Template: %s\n", bold.Sprint(group.Template))
		fmt.Fprintln(w, strings.Repeat("-", 40))
		for _, r := range group.Results {
			mark := pass.Sprint("✓")
			if !r.Passed {
				mark = fail.Sprint("✗")
			}
			fmt.Fprintf(w, "  %s %s: %s\n", mark, r.Check, r.Message)
			for _, detail := range r.Details {
				fmt.Fprintf(w, "      %s\n", detail)
			}
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "SUMMARY: %d passed, %d failed\n", report.PassedCount(), report.FailedCount())
	if report.Passed() {
		fmt.Fprintln(w, pass.Sprint("All checks passed!"))
	} else {
		fmt.Fprintln(w, fail.Sprint("Some checks failed. Please fix the issues above."))
	}
	fmt.Fprintln(w, rule)
}
