package models

import "time"

// Verdict status constants
const (
	StatusPassed = "PASSED"
	StatusFailed = "FAILED"
)

// Verdict is the outcome of comparing one execution output with one expected value.
type Verdict struct {
	Exercise    string // Exercise the test belongs to
	TestName    string // Label used for reporting
	InputIndex  int    // Position of the input within the test
	OutputIndex int    // Position of the expected output within the test
	Input       string // Stdin sent to the service
	Expected    string // Expected output as declared
	Actual      string // Combined output returned by the service
	Passed      bool
}

// Status returns StatusPassed or StatusFailed.
func (v Verdict) Status() string {
	if v.Passed {
		return StatusPassed
	}
	return StatusFailed
}

// RunSummary aggregates a verdict stream. It is computed on top of the
// evaluator by whoever consumes the verdicts.
type RunSummary struct {
	RunID       string
	Language    string
	Version     string
	Total       int
	Passed      int
	Failed      int
	Submissions int
	Duration    time.Duration
	FailedTests []Verdict
}

// Add folds a verdict into the summary.
func (s *RunSummary) Add(v Verdict) {
	s.Total++
	if v.Passed {
		s.Passed++
		return
	}
	s.Failed++
	s.FailedTests = append(s.FailedTests, v)
}

// AllPassed reports whether every recorded verdict passed.
func (s *RunSummary) AllPassed() bool {
	return s.Failed == 0
}
