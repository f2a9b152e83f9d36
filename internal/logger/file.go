package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/harrison/grader/internal/models"
)

// DefaultLogDir is where run logs go unless configured otherwise.
var DefaultLogDir = filepath.Join(".grader", "logs")

// FileLogger logs run events to files in the log directory.
// It creates a timestamped per-run log file and maintains a latest.log
// symlink pointing to the most recent run. Every verdict is recorded with its
// expected and actual output regardless of the console level.
type FileLogger struct {
	logDir   string
	runLog   *os.File
	runFile  string
	logLevel string
	mu       sync.Mutex
}

// NewFileLogger creates a FileLogger in DefaultLogDir at "info" level.
func NewFileLogger() (*FileLogger, error) {
	return NewFileLoggerWithDirAndLevel(DefaultLogDir, "info")
}

// NewFileLoggerWithDir creates a new FileLogger with a custom log directory.
func NewFileLoggerWithDir(logDir string) (*FileLogger, error) {
	return NewFileLoggerWithDirAndLevel(logDir, "info")
}

// NewFileLoggerWithDirAndLevel creates a new FileLogger with a custom log directory and log level.
func NewFileLoggerWithDirAndLevel(logDir string, logLevel string) (*FileLogger, error) {
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	// run-YYYYMMDD-HHMMSS.log
	timestamp := time.Now().Format("20060102-150405")
	runFile := filepath.Join(logDir, fmt.Sprintf("run-%s.log", timestamp))

	file, err := os.OpenFile(runFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to create run log file: %w", err)
	}

	symlinkPath := filepath.Join(logDir, "latest.log")
	if _, err := os.Lstat(symlinkPath); err == nil {
		if err := os.Remove(symlinkPath); err != nil {
			file.Close()
			return nil, fmt.Errorf("failed to remove old symlink: %w", err)
		}
	}
	if err := os.Symlink(filepath.Base(runFile), symlinkPath); err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to create symlink: %w", err)
	}

	logger := &FileLogger{
		logDir:   logDir,
		runLog:   file,
		runFile:  runFile,
		logLevel: normalizeLogLevel(logLevel),
	}

	logger.writeRunLog("=== Grader Run Log ===\n")
	logger.writeRunLog(fmt.Sprintf("Started at: %s\n\n", time.Now().Format(time.RFC3339)))

	return logger, nil
}

// RunFile returns the path of the current run log.
func (fl *FileLogger) RunFile() string {
	return fl.runFile
}

func (fl *FileLogger) shouldLog(messageLevel string) bool {
	return logLevelToInt(messageLevel) >= logLevelToInt(fl.logLevel)
}

// LogTrace logs a trace-level message (most verbose).
func (fl *FileLogger) LogTrace(message string) {
	fl.logWithLevel("TRACE", message)
}

// LogDebug logs a debug-level message.
func (fl *FileLogger) LogDebug(message string) {
	fl.logWithLevel("DEBUG", message)
}

// LogInfo logs an info-level message.
func (fl *FileLogger) LogInfo(message string) {
	fl.logWithLevel("INFO", message)
}

// LogWarn logs a warning-level message.
func (fl *FileLogger) LogWarn(message string) {
	fl.logWithLevel("WARN", message)
}

// LogError logs an error-level message.
func (fl *FileLogger) LogError(message string) {
	fl.logWithLevel("ERROR", message)
}

func (fl *FileLogger) logWithLevel(level string, message string) {
	if !fl.shouldLog(strings.ToLower(level)) {
		return
	}
	fl.writeRunLog(fmt.Sprintf("[%s] [%s] %s\n", time.Now().Format("15:04:05"), level, message))
}

// LogRunStart records the exercise directory, runtime and run size.
func (fl *FileLogger) LogRunStart(dir string, rt models.Runtime, module *models.Module) {
	if !fl.shouldLog("info") {
		return
	}
	fl.writeRunLog(fmt.Sprintf("[%s] Grading %s with %s %s: %s\n",
		time.Now().Format("15:04:05"), dir, rt.Language, rt.Version, describeModule(module)))
}

// LogExerciseStart records the exercise and the file it is graded from.
func (fl *FileLogger) LogExerciseStart(exercise models.Exercise, solution models.SolutionFile) {
	if !fl.shouldLog("info") {
		return
	}
	fl.writeRunLog(fmt.Sprintf("[%s] Exercise %s: file %s (%d bytes), %s\n",
		time.Now().Format("15:04:05"), exercise.Name, solution.Name, len(solution.Content),
		plural(len(exercise.Tests), "test")))
}

// LogSubmission records each submission at DEBUG level, dry runs at INFO.
func (fl *FileLogger) LogSubmission(exercise string, test models.Test, inputIndex int, dryRun bool) {
	if dryRun {
		fl.LogInfo(fmt.Sprintf("[dry-run] would submit %s/%s input #%d", exercise, test.Name, inputIndex+1))
		return
	}
	fl.LogDebug(fmt.Sprintf("submitting %s/%s input #%d: %q", exercise, test.Name, inputIndex+1, test.Input[inputIndex]))
}

// LogVerdict records a verdict with its expected and actual output.
func (fl *FileLogger) LogVerdict(v models.Verdict) {
	if !fl.shouldLog("info") {
		return
	}

	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s/%s input #%d output #%d: %s\n",
		time.Now().Format("15:04:05"), v.Exercise, v.TestName, v.InputIndex+1, v.OutputIndex+1, v.Status())
	if !v.Passed {
		fmt.Fprintf(&b, "  expected: %q\n", v.Expected)
		fmt.Fprintf(&b, "  actual:   %q\n", v.Actual)
	}
	fl.writeRunLog(b.String())
}

// LogSummary records the final counts.
func (fl *FileLogger) LogSummary(summary models.RunSummary) {
	if !fl.shouldLog("info") {
		return
	}

	var b strings.Builder
	b.WriteString("\n=== Run Summary ===\n")
	if summary.RunID != "" {
		fmt.Fprintf(&b, "Run ID: %s\n", summary.RunID)
	}
	if summary.Language != "" {
		fmt.Fprintf(&b, "Runtime: %s %s\n", summary.Language, summary.Version)
	}
	fmt.Fprintf(&b, "Total verdicts: %d\n", summary.Total)
	fmt.Fprintf(&b, "Passed: %d\n", summary.Passed)
	fmt.Fprintf(&b, "Failed: %d\n", summary.Failed)
	fmt.Fprintf(&b, "Submissions: %d\n", summary.Submissions)
	fmt.Fprintf(&b, "Duration: %.1fs\n", summary.Duration.Seconds())
	if summary.AllPassed() {
		b.WriteString("Status: PASSED\n")
	} else {
		b.WriteString("Status: FAILED\n")
	}
	fl.writeRunLog(b.String())
}

// Close flushes and closes the run log file.
// It is safe to call Close multiple times.
func (fl *FileLogger) Close() error {
	fl.mu.Lock()
	defer fl.mu.Unlock()

	if fl.runLog != nil {
		if err := fl.runLog.Sync(); err != nil {
			return fmt.Errorf("failed to sync run log: %w", err)
		}
		if err := fl.runLog.Close(); err != nil {
			return fmt.Errorf("failed to close run log: %w", err)
		}
		fl.runLog = nil
	}

	return nil
}

func (fl *FileLogger) writeRunLog(message string) {
	fl.mu.Lock()
	defer fl.mu.Unlock()

	if fl.runLog != nil {
		fl.runLog.WriteString(message)
		fl.runLog.Sync()
	}
}
