package logger

import (
	"bytes"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/harrison/grader/internal/models"
)

func TestNewConsoleLogger(t *testing.T) {
	t.Run("with valid writer", func(t *testing.T) {
		buf := &bytes.Buffer{}
		logger := NewConsoleLogger(buf, "DEBUG")

		if logger.writer != buf {
			t.Error("writer not set correctly")
		}
		if logger.logLevel != "debug" {
			t.Errorf("expected log level %q, got %q", "debug", logger.logLevel)
		}
		if logger.colorOutput {
			t.Error("expected no color for a buffer")
		}
	})

	t.Run("invalid level defaults to info", func(t *testing.T) {
		logger := NewConsoleLogger(&bytes.Buffer{}, "verbose")
		if logger.logLevel != "info" {
			t.Errorf("expected info, got %q", logger.logLevel)
		}
	})

	t.Run("with nil writer", func(t *testing.T) {
		logger := NewConsoleLogger(nil, "info")
		// must not panic
		logger.LogInfo("discarded")
		logger.LogVerdict(models.Verdict{TestName: "basic", Passed: true})
		logger.LogSummary(models.RunSummary{})
	})
}

func TestLogVerdict(t *testing.T) {
	tests := []struct {
		name    string
		verdict models.Verdict
		want    string
	}{
		{
			name:    "passed",
			verdict: models.Verdict{Exercise: "add", TestName: "basic", Actual: "3\n", Expected: "3", Passed: true},
			want:    "basic passed ✅\n",
		},
		{
			name:    "failed",
			verdict: models.Verdict{Exercise: "add", TestName: "basic", Actual: "4\n", Expected: "3"},
			want:    "basic failed ❌\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			NewConsoleLogger(buf, "info").LogVerdict(tt.verdict)
			if got := buf.String(); got != tt.want {
				t.Errorf("LogVerdict() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLogVerdict_DebugShowsDiff(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := NewConsoleLogger(buf, "debug")

	logger.LogVerdict(models.Verdict{Exercise: "add", TestName: "basic", Actual: "4\n", Expected: "3"})

	out := buf.String()
	if !strings.HasPrefix(out, "basic failed ❌\n") {
		t.Errorf("expected verdict line first, got %q", out)
	}
	if !strings.Contains(out, `expected "3", got "4\n"`) {
		t.Errorf("expected diff in debug output, got %q", out)
	}
}

func TestLogVerdict_ColorKeepsText(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := NewConsoleLogger(buf, "info")
	logger.SetColorOutput(true)

	logger.LogVerdict(models.Verdict{TestName: "sorted", Passed: true})

	out := buf.String()
	if !strings.HasPrefix(out, "sorted ") || !strings.Contains(out, "passed") || !strings.HasSuffix(out, "✅\n") {
		t.Errorf("unexpected colored verdict line %q", out)
	}
}

func TestLogLevelFiltering(t *testing.T) {
	levels := []string{"trace", "debug", "info", "warn", "error"}

	for ci, configured := range levels {
		for mi, message := range levels {
			buf := &bytes.Buffer{}
			logger := NewConsoleLogger(buf, configured)

			switch message {
			case "trace":
				logger.LogTrace("msg")
			case "debug":
				logger.LogDebug("msg")
			case "info":
				logger.LogInfo("msg")
			case "warn":
				logger.LogWarn("msg")
			case "error":
				logger.LogError("msg")
			}

			shouldAppear := mi >= ci
			if appeared := buf.Len() > 0; appeared != shouldAppear {
				t.Errorf("level %s, message %s: appeared=%v, want %v", configured, message, appeared, shouldAppear)
			}
			if shouldAppear && !strings.Contains(buf.String(), "["+strings.ToUpper(message)+"] msg") {
				t.Errorf("unexpected format %q", buf.String())
			}
		}
	}
}

func TestLogVerdict_PrintedAtWarnLevel(t *testing.T) {
	for _, level := range []string{"warn", "error"} {
		buf := &bytes.Buffer{}
		logger := NewConsoleLogger(buf, level)
		logger.LogVerdict(models.Verdict{TestName: "basic", Passed: true})
		logger.LogVerdict(models.Verdict{TestName: "basic", Expected: "3", Actual: "4\n"})

		want := "basic passed ✅\nbasic failed ❌\n"
		if buf.String() != want {
			t.Errorf("level %s: got %q, want %q", level, buf.String(), want)
		}
	}
}

func TestLogRunStart(t *testing.T) {
	buf := &bytes.Buffer{}
	module := &models.Module{Exercises: []models.Exercise{
		{Name: "add", Tests: []models.Test{{Name: "basic", Input: []string{"1 2", "3 4"}, Output: []string{"3"}}}},
	}}

	NewConsoleLogger(buf, "info").LogRunStart("./hw1", models.Runtime{Language: "python", Version: "3.10.0"}, module)

	want := "Grading ./hw1 with python 3.10.0: 1 exercise, 2 submissions"
	if !strings.Contains(buf.String(), want) {
		t.Errorf("expected %q in %q", want, buf.String())
	}
}

func TestLogExerciseStart(t *testing.T) {
	buf := &bytes.Buffer{}
	exercise := models.Exercise{Name: "add", Tests: []models.Test{{Name: "basic", Input: []string{"1"}}}}

	NewConsoleLogger(buf, "info").LogExerciseStart(exercise, models.SolutionFile{Name: "add"})

	if !strings.Contains(buf.String(), "Exercise add (1 test, 1 submission)") {
		t.Errorf("unexpected output %q", buf.String())
	}
}

func TestLogSubmission(t *testing.T) {
	test := models.Test{Name: "basic", Input: []string{"1 2"}, Output: []string{"3", "03"}}

	t.Run("real submission is debug", func(t *testing.T) {
		buf := &bytes.Buffer{}
		NewConsoleLogger(buf, "info").LogSubmission("add", test, 0, false)
		if buf.Len() != 0 {
			t.Errorf("expected nothing at info level, got %q", buf.String())
		}

		buf.Reset()
		NewConsoleLogger(buf, "debug").LogSubmission("add", test, 0, false)
		if !strings.Contains(buf.String(), "submitting add/basic input #1") {
			t.Errorf("unexpected output %q", buf.String())
		}
	})

	t.Run("dry run is info", func(t *testing.T) {
		buf := &bytes.Buffer{}
		NewConsoleLogger(buf, "info").LogSubmission("add", test, 0, true)
		if !strings.Contains(buf.String(), "[dry-run] would submit add/basic input #1 (2 expected outputs)") {
			t.Errorf("unexpected output %q", buf.String())
		}
	})
}

func TestLogSummary(t *testing.T) {
	var summary models.RunSummary
	summary.Add(models.Verdict{Exercise: "add", TestName: "basic", Passed: true})
	summary.Add(models.Verdict{Exercise: "add", TestName: "pairs", InputIndex: 1, OutputIndex: 0})
	summary.Submissions = 2
	summary.Duration = 1500 * time.Millisecond

	buf := &bytes.Buffer{}
	NewConsoleLogger(buf, "info").LogSummary(summary)
	out := buf.String()

	for _, want := range []string{
		"=== Run Summary ===",
		"Passed: [==========          ] 1/2 (50%)",
		"Total: 2, Passed: 1, Failed: 1",
		"Submissions: 2",
		"Duration: 1s",
		"Failed tests:",
		"  - add/pairs (input #2, output #1)",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in summary:\n%s", want, out)
		}
	}
}

func TestLogSummary_NoFailures(t *testing.T) {
	buf := &bytes.Buffer{}
	NewConsoleLogger(buf, "info").LogSummary(models.RunSummary{Total: 1, Passed: 1})
	if strings.Contains(buf.String(), "Failed tests:") {
		t.Errorf("unexpected failed tests section:\n%s", buf.String())
	}
}

func TestConsoleLogger_Concurrent(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := NewConsoleLogger(buf, "info")

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			logger.LogVerdict(models.Verdict{TestName: "t", Passed: true})
		}()
	}
	wg.Wait()

	if got := strings.Count(buf.String(), "t passed ✅\n"); got != 20 {
		t.Errorf("expected 20 verdict lines, got %d", got)
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{450 * time.Millisecond, "450ms"},
		{5 * time.Second, "5s"},
		{90 * time.Second, "1m30s"},
		{2 * time.Minute, "2m"},
		{2*time.Hour + 15*time.Minute, "2h15m"},
		{time.Hour + time.Minute + time.Second, "1h1m1s"},
	}

	for _, tt := range tests {
		if got := formatDuration(tt.d); got != tt.want {
			t.Errorf("formatDuration(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

func TestIsValidLevel(t *testing.T) {
	for _, level := range []string{"trace", "DEBUG", "Info", "warn", "error"} {
		if !IsValidLevel(level) {
			t.Errorf("expected %q to be valid", level)
		}
	}
	for _, level := range []string{"", "verbose", "fatal"} {
		if IsValidLevel(level) {
			t.Errorf("expected %q to be invalid", level)
		}
	}
}

func TestNoOpLogger(t *testing.T) {
	n := NewNoOpLogger()
	n.LogInfo("x")
	n.LogDebug("x")
	n.LogWarn("x")
	n.LogError("x")
	n.LogRunStart("dir", models.Runtime{}, nil)
	n.LogExerciseStart(models.Exercise{}, models.SolutionFile{})
	n.LogSubmission("add", models.Test{}, 0, false)
	n.LogVerdict(models.Verdict{})
	n.LogSummary(models.RunSummary{})
}
