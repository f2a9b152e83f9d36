package models

// Runtime is a language/version pair advertised by the execution service catalog.
type Runtime struct {
	Language string   `json:"language"`
	Version  string   `json:"version"`
	Aliases  []string `json:"aliases"`
	Runtime  string   `json:"runtime,omitempty"`
}

// ExecutionRequest is the body posted to the execute endpoint.
type ExecutionRequest struct {
	Language string         `json:"language"`
	Version  string         `json:"version"`
	Files    []SolutionFile `json:"files"`
	Stdin    string         `json:"stdin"`
}

// NewExecutionRequest builds a single-file request for the given runtime.
func NewExecutionRequest(rt Runtime, name, content, stdin string) ExecutionRequest {
	return ExecutionRequest{
		Language: rt.Language,
		Version:  rt.Version,
		Files:    []SolutionFile{{Name: name, Content: content}},
		Stdin:    stdin,
	}
}

// RunResult is the "run" stage of an execution response.
type RunResult struct {
	Stdout string  `json:"stdout"`
	Stderr string  `json:"stderr"`
	Code   int     `json:"code"`
	Signal *string `json:"signal"`
	Output string  `json:"output"`
}

// ExecutionResult is the decoded execute response.
// Only Run.Output takes part in grading.
type ExecutionResult struct {
	Language string     `json:"language"`
	Version  string     `json:"version"`
	Run      *RunResult `json:"run"`
}

// Output returns the combined output of the run stage, or "" when absent.
func (r *ExecutionResult) Output() string {
	if r == nil || r.Run == nil {
		return ""
	}
	return r.Run.Output
}
