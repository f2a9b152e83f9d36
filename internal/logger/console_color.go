package logger

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/harrison/grader/internal/models"
)

// colorScheme defines consistent colors for verdicts and counts.
// Green: passed
// Red: failed
// Cyan: labels
type colorScheme struct {
	success *color.Color
	fail    *color.Color
	label   *color.Color
}

func newColorScheme() *colorScheme {
	return &colorScheme{
		success: color.New(color.FgGreen),
		fail:    color.New(color.FgRed),
		label:   color.New(color.FgCyan),
	}
}

// formatVerdict renders "<test_name> passed ✅" or "<test_name> failed ❌".
// Only the status word is colored so the plain text stays greppable.
func formatVerdict(v models.Verdict, colorOutput bool, scheme *colorScheme) string {
	word, mark, c := "passed", passMark, scheme.success
	if !v.Passed {
		word, mark, c = "failed", failMark, scheme.fail
	}
	if colorOutput {
		word = c.Sprint(word)
	}
	return fmt.Sprintf("%s %s %s\n", v.TestName, word, mark)
}

// formatCounts renders "Total: n, Passed: p, Failed: f".
func formatCounts(s models.RunSummary, colorOutput bool, scheme *colorScheme) string {
	if !colorOutput {
		return fmt.Sprintf("Total: %d, Passed: %d, Failed: %d", s.Total, s.Passed, s.Failed)
	}

	failed := fmt.Sprintf("Failed: %d", s.Failed)
	if s.Failed > 0 {
		failed = scheme.fail.Sprint(failed)
	}
	return fmt.Sprintf("%s: %d, %s, %s",
		scheme.label.Sprint("Total"), s.Total,
		scheme.success.Sprintf("Passed: %d", s.Passed),
		failed)
}
