// Package logger provides logging implementations for grader runs.
//
// The logger package reports run progress at the exercise, submission and
// verdict levels, plus the final summary. Implementations are thread-safe and
// support various output destinations (console, file, etc.).
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/harrison/grader/internal/models"
	"github.com/mattn/go-isatty"
)

// Log level constants for filtering
const (
	levelTrace int = 0
	levelDebug int = 1
	levelInfo  int = 2
	levelWarn  int = 3
	levelError int = 4
)

// Verdict markers printed after the test name.
const (
	passMark = "✅"
	failMark = "❌"
)

// ConsoleLogger logs run progress to a writer with timestamps and thread safety.
// Level messages are prefixed with [HH:MM:SS] timestamps; verdict lines are
// printed bare as "<test_name> passed ✅" or "<test_name> failed ❌".
// Color output is automatically enabled for terminal output (os.Stdout/os.Stderr).
type ConsoleLogger struct {
	writer      io.Writer
	logLevel    string
	mutex       sync.Mutex
	colorOutput bool
	scheme      *colorScheme
}

// NewConsoleLogger creates a ConsoleLogger that writes to the provided io.Writer.
// If writer is nil, messages are silently discarded.
// logLevel determines the minimum log level for messages to be output.
// Valid levels: trace, debug, info, warn, error (case-insensitive).
// If logLevel is empty or invalid, defaults to "info".
func NewConsoleLogger(writer io.Writer, logLevel string) *ConsoleLogger {
	return &ConsoleLogger{
		writer:      writer,
		logLevel:    normalizeLogLevel(logLevel),
		colorOutput: isTerminal(writer),
		scheme:      newColorScheme(),
	}
}

// isTerminal reports whether w is a TTY that should receive colors.
// NO_COLOR (via color.NoColor) always wins.
func isTerminal(w io.Writer) bool {
	if w == nil || color.NoColor {
		return false
	}

	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	if f != os.Stdout && f != os.Stderr {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// SetColorOutput forces color output on or off.
func (cl *ConsoleLogger) SetColorOutput(enabled bool) {
	cl.mutex.Lock()
	defer cl.mutex.Unlock()
	cl.colorOutput = enabled
}

// normalizeLogLevel converts a log level string to lowercase and validates it.
// Returns "info" as default for empty or invalid levels.
func normalizeLogLevel(level string) string {
	normalized := strings.ToLower(strings.TrimSpace(level))
	if IsValidLevel(normalized) {
		return normalized
	}
	return "info"
}

// IsValidLevel reports whether level is one of trace, debug, info, warn, error.
func IsValidLevel(level string) bool {
	switch strings.ToLower(level) {
	case "trace", "debug", "info", "warn", "error":
		return true
	}
	return false
}

// shouldLog checks if a message at the given level should be logged.
func (cl *ConsoleLogger) shouldLog(messageLevel string) bool {
	return logLevelToInt(messageLevel) >= logLevelToInt(cl.logLevel)
}

// logLevelToInt converts a log level string to its numeric value.
func logLevelToInt(level string) int {
	switch level {
	case "trace":
		return levelTrace
	case "debug":
		return levelDebug
	case "info":
		return levelInfo
	case "warn":
		return levelWarn
	case "error":
		return levelError
	default:
		return levelInfo
	}
}

// LogTrace logs a trace-level message (most verbose).
func (cl *ConsoleLogger) LogTrace(message string) {
	cl.logWithLevel("TRACE", message)
}

// LogDebug logs a debug-level message.
func (cl *ConsoleLogger) LogDebug(message string) {
	cl.logWithLevel("DEBUG", message)
}

// LogInfo logs an info-level message.
// Format: "[HH:MM:SS] [INFO] <message>"
func (cl *ConsoleLogger) LogInfo(message string) {
	cl.logWithLevel("INFO", message)
}

// LogWarn logs a warning-level message.
func (cl *ConsoleLogger) LogWarn(message string) {
	cl.logWithLevel("WARN", message)
}

// LogError logs an error-level message.
func (cl *ConsoleLogger) LogError(message string) {
	cl.logWithLevel("ERROR", message)
}

func (cl *ConsoleLogger) logWithLevel(level string, message string) {
	if cl.writer == nil || !cl.shouldLog(strings.ToLower(level)) {
		return
	}

	cl.mutex.Lock()
	defer cl.mutex.Unlock()

	ts := timestamp()
	if cl.colorOutput {
		cl.write(cl.formatWithColor(ts, level, message))
		return
	}
	cl.write(fmt.Sprintf("[%s] [%s] %s\n", ts, level, message))
}

// formatWithColor formats a log message with ANSI color codes.
func (cl *ConsoleLogger) formatWithColor(ts, level, message string) string {
	var coloredLevel string

	switch strings.ToUpper(level) {
	case "TRACE":
		coloredLevel = color.New(color.FgHiBlack).Sprint(level)
	case "DEBUG":
		coloredLevel = color.New(color.FgCyan).Sprint(level)
	case "INFO":
		coloredLevel = color.New(color.FgBlue).Sprint(level)
	case "WARN":
		coloredLevel = color.New(color.FgYellow).Sprint(level)
	case "ERROR":
		coloredLevel = color.New(color.FgRed).Sprint(level)
	default:
		coloredLevel = level
	}

	return fmt.Sprintf("[%s] [%s] %s\n", ts, coloredLevel, message)
}

// write must be called with the mutex held.
func (cl *ConsoleLogger) write(s string) {
	_, _ = cl.writer.Write([]byte(s))
}

// LogRunStart logs the resolved runtime and the size of the run at INFO level.
// Format: "[HH:MM:SS] Grading <dir> with <language> <version>: <n> exercises, <m> submissions"
func (cl *ConsoleLogger) LogRunStart(dir string, rt models.Runtime, module *models.Module) {
	if cl.writer == nil || !cl.shouldLog("info") {
		return
	}

	cl.mutex.Lock()
	defer cl.mutex.Unlock()

	runtime := rt.Language + " " + rt.Version
	if cl.colorOutput {
		runtime = color.New(color.Bold).Sprint(runtime)
	}
	cl.write(fmt.Sprintf("[%s] Grading %s with %s: %s\n", timestamp(), dir, runtime, describeModule(module)))
}

// LogExerciseStart logs which file an exercise is graded from, at INFO level.
func (cl *ConsoleLogger) LogExerciseStart(exercise models.Exercise, solution models.SolutionFile) {
	if cl.writer == nil || !cl.shouldLog("info") {
		return
	}

	cl.mutex.Lock()
	defer cl.mutex.Unlock()

	name := exercise.Name
	if cl.colorOutput {
		name = color.New(color.Bold).Sprint(name)
	}
	cl.write(fmt.Sprintf("[%s] Exercise %s (%s, %s)\n", timestamp(), name,
		plural(len(exercise.Tests), "test"), plural(countSubmissions(exercise), "submission")))
}

// LogSubmission logs each submission at DEBUG level. Dry runs log at INFO
// level, since the planned submissions are the only output of a dry run.
func (cl *ConsoleLogger) LogSubmission(exercise string, test models.Test, inputIndex int, dryRun bool) {
	if dryRun {
		cl.LogInfo(fmt.Sprintf("[dry-run] would submit %s/%s input #%d (%d expected outputs)",
			exercise, test.Name, inputIndex+1, len(test.Output)))
		return
	}
	cl.LogDebug(fmt.Sprintf("submitting %s/%s input #%d", exercise, test.Name, inputIndex+1))
}

// LogVerdict prints one verdict line regardless of the log level. At DEBUG
// level a failed verdict is followed by the expected and actual output.
func (cl *ConsoleLogger) LogVerdict(v models.Verdict) {
	if cl.writer == nil {
		return
	}

	cl.mutex.Lock()
	line := formatVerdict(v, cl.colorOutput, cl.scheme)
	cl.write(line)
	cl.mutex.Unlock()

	if !v.Passed {
		cl.LogDebug(fmt.Sprintf("%s/%s input #%d: expected %q, got %q",
			v.Exercise, v.TestName, v.InputIndex+1, v.Expected, v.Actual))
	}
}

// LogSummary logs the run summary at INFO level.
// Format: "[HH:MM:SS] === Run Summary ===" followed by counts and failed tests.
func (cl *ConsoleLogger) LogSummary(summary models.RunSummary) {
	if cl.writer == nil || !cl.shouldLog("info") {
		return
	}

	cl.mutex.Lock()
	defer cl.mutex.Unlock()

	ts := timestamp()
	bar := NewProgressBar(summary.Total, 20, cl.colorOutput)
	bar.SetPrefix("Passed: ")
	bar.Update(summary.Passed)

	var b strings.Builder
	if cl.colorOutput {
		fmt.Fprintf(&b, "[%s] %s\n", ts, color.New(color.Bold).Sprint("=== Run Summary ==="))
	} else {
		fmt.Fprintf(&b, "[%s] === Run Summary ===\n", ts)
	}
	fmt.Fprintf(&b, "[%s] %s\n", ts, bar.Render())
	fmt.Fprintf(&b, "[%s] %s\n", ts, formatCounts(summary, cl.colorOutput, cl.scheme))
	fmt.Fprintf(&b, "[%s] Submissions: %d\n", ts, summary.Submissions)
	fmt.Fprintf(&b, "[%s] Duration: %s\n", ts, formatDuration(summary.Duration))

	if len(summary.FailedTests) > 0 {
		header := "Failed tests:"
		if cl.colorOutput {
			header = cl.scheme.fail.Sprint(header)
		}
		fmt.Fprintf(&b, "[%s] %s\n", ts, header)
		for _, v := range summary.FailedTests {
			fmt.Fprintf(&b, "[%s]   - %s/%s (input #%d, output #%d)\n", ts, v.Exercise, v.TestName, v.InputIndex+1, v.OutputIndex+1)
		}
	}

	cl.write(b.String())
}

// timestamp returns the current time formatted as "15:04:05" (HH:MM:SS).
func timestamp() string {
	return time.Now().Format("15:04:05")
}

func describeModule(module *models.Module) string {
	if module == nil {
		return "no exercises"
	}
	return fmt.Sprintf("%s, %s", plural(len(module.Exercises), "exercise"), plural(module.TotalSubmissions(), "submission"))
}

func countSubmissions(exercise models.Exercise) int {
	n := 0
	for _, t := range exercise.Tests {
		n += t.Submissions()
	}
	return n
}

func plural(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}

// formatDuration converts a time.Duration to a human-readable string.
// Examples: "450ms", "5s", "1m30s", "2h15m"
func formatDuration(d time.Duration) string {
	switch {
	case d >= time.Hour:
		hours := d / time.Hour
		remainder := d % time.Hour
		if remainder == 0 {
			return fmt.Sprintf("%dh", hours)
		}
		minutes := remainder / time.Minute
		remainder = remainder % time.Minute
		if remainder == 0 {
			return fmt.Sprintf("%dh%dm", hours, minutes)
		}
		seconds := remainder / time.Second
		return fmt.Sprintf("%dh%dm%ds", hours, minutes, seconds)
	case d >= time.Minute:
		minutes := d / time.Minute
		remainder := d % time.Minute
		if remainder == 0 {
			return fmt.Sprintf("%dm", minutes)
		}
		seconds := remainder / time.Second
		return fmt.Sprintf("%dm%ds", minutes, seconds)
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	default:
		return fmt.Sprintf("%ds", int64(d.Seconds()))
	}
}

// NoOpLogger discards all log messages.
// Useful for testing or when logging is disabled.
type NoOpLogger struct{}

// NewNoOpLogger creates a NoOpLogger instance.
func NewNoOpLogger() *NoOpLogger {
	return &NoOpLogger{}
}

// LogInfo is a no-op implementation.
func (n *NoOpLogger) LogInfo(message string) {}

// LogDebug is a no-op implementation.
func (n *NoOpLogger) LogDebug(message string) {}

// LogWarn is a no-op implementation.
func (n *NoOpLogger) LogWarn(message string) {}

// LogError is a no-op implementation.
func (n *NoOpLogger) LogError(message string) {}

// LogRunStart is a no-op implementation.
func (n *NoOpLogger) LogRunStart(dir string, rt models.Runtime, module *models.Module) {}

// LogExerciseStart is a no-op implementation.
func (n *NoOpLogger) LogExerciseStart(exercise models.Exercise, solution models.SolutionFile) {}

// LogSubmission is a no-op implementation.
func (n *NoOpLogger) LogSubmission(exercise string, test models.Test, inputIndex int, dryRun bool) {}

// LogVerdict is a no-op implementation.
func (n *NoOpLogger) LogVerdict(v models.Verdict) {}

// LogSummary is a no-op implementation.
func (n *NoOpLogger) LogSummary(summary models.RunSummary) {}
