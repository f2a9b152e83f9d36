package display

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

// NoColor disables ANSI codes in all display output.
var NoColor = false

// ColorEnabled reports whether w is a terminal that should receive colors.
// NO_COLOR (via color.NoColor) always wins.
func ColorEnabled(w io.Writer) bool {
	if color.NoColor {
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

const (
	ansiYellow = "\x1b[33m"
	ansiCyan   = "\x1b[36m"
	ansiGreen  = "\x1b[32m"
	ansiReset  = "\x1b[0m"
)

func paint(code, s string) string {
	if NoColor {
		return s
	}
	return code + s + ansiReset
}

// Warning represents a user-facing warning message
type Warning struct {
	Title      string   // Main warning title
	Message    string   // Detailed explanation (optional)
	Items      []string // Related exercises or files (optional)
	ItemLabel  string   // Noun for Items, e.g. "exercise" (default "item")
	Suggestion string   // Action to take (optional)
}

// Display writes the warning in yellow.
func (w Warning) Display(out io.Writer) {
	var b strings.Builder

	b.WriteString("⚠️  Warning: ")
	b.WriteString(w.Title)
	b.WriteString("\n")

	if w.Message != "" {
		b.WriteString("    ")
		b.WriteString(w.Message)
		b.WriteString("\n")
	}

	if len(w.Items) > 0 {
		label := w.ItemLabel
		if label == "" {
			label = "item"
		}
		if len(w.Items) == 1 {
			fmt.Fprintf(&b, "    Affected %s:\n", label)
		} else {
			fmt.Fprintf(&b, "    Affected %ss:\n", label)
		}
		for i, item := range w.Items {
			fmt.Fprintf(&b, "      %d. %s\n", i+1, item)
		}
	}

	if w.Suggestion != "" {
		b.WriteString("    Suggestion:\n")
		b.WriteString("    ")
		b.WriteString(w.Suggestion)
		b.WriteString("\n")
	}

	fmt.Fprint(out, paint(ansiYellow, b.String()))
}

// WarnMissingSolutions reports exercises with no solution file. A run over
// this directory aborts at the first of them.
func WarnMissingSolutions(exercises []string) Warning {
	return Warning{
		Title:      "Exercises without a solution file",
		Message:    "Grading stops at the first exercise whose file is missing",
		Items:      exercises,
		ItemLabel:  "exercise",
		Suggestion: "Add a file named exactly like each exercise, or restrict the run with --exercise",
	}
}

// WarnUnusedFiles reports files that no exercise refers to.
func WarnUnusedFiles(files []string) Warning {
	return Warning{
		Title:     "Files not referenced by any exercise",
		Items:     files,
		ItemLabel: "file",
	}
}

// WarnDuplicateExercises reports exercise names declared more than once.
func WarnDuplicateExercises(names []string) Warning {
	return Warning{
		Title:      "Duplicate exercise names",
		Message:    "Every declaration is graded, each against the same solution file",
		Items:      names,
		ItemLabel:  "exercise",
		Suggestion: "Merge the tests into a single exercise block",
	}
}
