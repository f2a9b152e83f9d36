// Package report renders a finished run as Markdown, HTML or JSON.
package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/harrison/grader/internal/filelock"
	"github.com/harrison/grader/internal/models"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// Format is an output format selected by file extension.
type Format int

const (
	FormatMarkdown Format = iota
	FormatHTML
	FormatJSON
)

// Report is everything known about a run once it has finished.
type Report struct {
	ExerciseDir string            `json:"exercise_dir"`
	RulesFile   string            `json:"rules_file,omitempty"`
	StartedAt   time.Time         `json:"started_at"`
	Summary     models.RunSummary `json:"-"`
	Verdicts    []models.Verdict  `json:"-"`
	Error       string            `json:"error,omitempty"`
}

// FormatForPath picks the format from the file extension.
func FormatForPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown":
		return FormatMarkdown, nil
	case ".html", ".htm":
		return FormatHTML, nil
	case ".json":
		return FormatJSON, nil
	default:
		return 0, fmt.Errorf("unsupported report extension %q (use .md, .html or .json)", filepath.Ext(path))
	}
}

// Write renders r in the format implied by path and writes it atomically.
func Write(path string, r Report) error {
	format, err := FormatForPath(path)
	if err != nil {
		return err
	}

	var data []byte
	switch format {
	case FormatHTML:
		data, err = RenderHTML(Build(r))
	case FormatJSON:
		data, err = RenderJSON(r)
	default:
		data = []byte(Build(r))
	}
	if err != nil {
		return err
	}

	if err := filelock.LockAndWrite(path, data); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

// Build renders r as Markdown: a header, a summary table, one results table
// per exercise in verdict order, and the expected/actual output of failures.
func Build(r Report) string {
	s := r.Summary
	var b strings.Builder

	b.WriteString("# Grading Report\n\n")
	if r.ExerciseDir != "" {
		fmt.Fprintf(&b, "- **Directory:** `%s`\n", r.ExerciseDir)
	}
	if r.RulesFile != "" {
		fmt.Fprintf(&b, "- **Rules:** `%s`\n", r.RulesFile)
	}
	if s.Language != "" {
		fmt.Fprintf(&b, "- **Runtime:** %s %s\n", s.Language, s.Version)
	}
	if s.RunID != "" {
		fmt.Fprintf(&b, "- **Run:** `%s`\n", s.RunID)
	}
	if !r.StartedAt.IsZero() {
		fmt.Fprintf(&b, "- **Started:** %s\n", r.StartedAt.Format(time.RFC3339))
	}
	fmt.Fprintf(&b, "- **Duration:** %s\n", s.Duration.Round(time.Millisecond))
	fmt.Fprintf(&b, "- **Result:** %s\n\n", resultLabel(r))

	if r.Error != "" {
		fmt.Fprintf(&b, "> **Run aborted:** %s\n\n", r.Error)
	}

	b.WriteString("## Summary\n\n")
	b.WriteString("| Verdicts | Passed | Failed | Submissions |\n")
	b.WriteString("|---:|---:|---:|---:|\n")
	fmt.Fprintf(&b, "| %d | %d | %d | %d |\n\n", s.Total, s.Passed, s.Failed, s.Submissions)

	if len(r.Verdicts) == 0 {
		b.WriteString("No verdicts were produced.\n")
		return b.String()
	}

	b.WriteString("## Results\n")
	current := ""
	for _, v := range r.Verdicts {
		if v.Exercise != current {
			current = v.Exercise
			fmt.Fprintf(&b, "\n### %s\n\n", cell(current))
			b.WriteString("| Test | Input | Output | Status |\n")
			b.WriteString("|---|---:|---:|---|\n")
		}
		fmt.Fprintf(&b, "| %s | %d | %d | %s |\n", cell(v.TestName), v.InputIndex+1, v.OutputIndex+1, statusLabel(v))
	}

	var failed []models.Verdict
	for _, v := range r.Verdicts {
		if !v.Passed {
			failed = append(failed, v)
		}
	}
	if len(failed) > 0 {
		b.WriteString("\n## Failures\n")
		for _, v := range failed {
			fmt.Fprintf(&b, "\n### %s / %s (input %d, output %d)\n\n", cell(v.Exercise), cell(v.TestName), v.InputIndex+1, v.OutputIndex+1)
			b.WriteString("Input:\n\n")
			b.WriteString(fence(v.Input))
			b.WriteString("Expected:\n\n")
			b.WriteString(fence(v.Expected))
			b.WriteString("Actual:\n\n")
			b.WriteString(fence(v.Actual))
		}
	}

	return b.String()
}

// RenderHTML converts Markdown to a standalone HTML page.
func RenderHTML(markdown string) ([]byte, error) {
	md := goldmark.New(goldmark.WithExtensions(extension.Table))

	var body bytes.Buffer
	if err := md.Convert([]byte(markdown), &body); err != nil {
		return nil, fmt.Errorf("render html: %w", err)
	}

	var page bytes.Buffer
	page.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n<title>Grading Report</title>\n</head>\n<body>\n")
	page.Write(body.Bytes())
	page.WriteString("</body>\n</html>\n")
	return page.Bytes(), nil
}

type jsonVerdict struct {
	Exercise    string `json:"exercise"`
	TestName    string `json:"test_name"`
	InputIndex  int    `json:"input_index"`
	OutputIndex int    `json:"output_index"`
	Input       string `json:"input"`
	Expected    string `json:"expected"`
	Actual      string `json:"actual"`
	Status      string `json:"status"`
}

type jsonSummary struct {
	RunID       string  `json:"run_id,omitempty"`
	Language    string  `json:"language,omitempty"`
	Version     string  `json:"version,omitempty"`
	Total       int     `json:"total"`
	Passed      int     `json:"passed"`
	Failed      int     `json:"failed"`
	Submissions int     `json:"submissions"`
	DurationSec float64 `json:"duration_seconds"`
}

type jsonReport struct {
	Report
	Result   string        `json:"result"`
	Summary  jsonSummary   `json:"summary"`
	Verdicts []jsonVerdict `json:"verdicts"`
}

// RenderJSON renders r as indented JSON.
func RenderJSON(r Report) ([]byte, error) {
	s := r.Summary
	out := jsonReport{
		Report: r,
		Result: strings.ToLower(resultLabel(r)),
		Summary: jsonSummary{
			RunID:       s.RunID,
			Language:    s.Language,
			Version:     s.Version,
			Total:       s.Total,
			Passed:      s.Passed,
			Failed:      s.Failed,
			Submissions: s.Submissions,
			DurationSec: s.Duration.Seconds(),
		},
		Verdicts: make([]jsonVerdict, 0, len(r.Verdicts)),
	}
	for _, v := range r.Verdicts {
		out.Verdicts = append(out.Verdicts, jsonVerdict{
			Exercise:    v.Exercise,
			TestName:    v.TestName,
			InputIndex:  v.InputIndex,
			OutputIndex: v.OutputIndex,
			Input:       v.Input,
			Expected:    v.Expected,
			Actual:      v.Actual,
			Status:      v.Status(),
		})
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("render json: %w", err)
	}
	return append(data, '\n'), nil
}

func resultLabel(r Report) string {
	switch {
	case r.Error != "":
		return "ERROR"
	case r.Summary.AllPassed():
		return "PASSED"
	default:
		return "FAILED"
	}
}

func statusLabel(v models.Verdict) string {
	if v.Passed {
		return "✅ passed"
	}
	return "❌ failed"
}

// cell escapes text for a single Markdown table cell or heading.
func cell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}

// fence wraps s in a code fence long enough not to collide with backticks in s.
func fence(s string) string {
	ticks := "```"
	for strings.Contains(s, ticks) {
		ticks += "`"
	}
	body := strings.TrimSuffix(s, "\n")
	return ticks + "\n" + body + "\n" + ticks + "\n\n"
}
