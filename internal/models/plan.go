package models

// Module is the parsed rules file: the ordered list of exercises to grade.
// It is built once at startup and never mutated afterwards.
type Module struct {
	Exercises []Exercise `toml:"exercise" yaml:"exercise"`
	FilePath  string     `toml:"-" yaml:"-"` // Rules file the module was loaded from
}

// Exercise is a named task that maps onto exactly one solution file.
type Exercise struct {
	Name  string `toml:"name" yaml:"name"`
	Tests []Test `toml:"test" yaml:"test"`
}

// Test groups stdin values with expected outputs.
// Every input is compared against every output, so N inputs and M outputs
// yield N submissions and N*M verdicts.
type Test struct {
	Name   string   `toml:"test_name" yaml:"test_name"`
	Input  []string `toml:"input" yaml:"input"`
	Output []string `toml:"output" yaml:"output"`
}

// Submissions returns how many execution requests the test needs.
func (t Test) Submissions() int {
	return len(t.Input)
}

// Verdicts returns how many verdicts the test produces.
func (t Test) Verdicts() int {
	return len(t.Input) * len(t.Output)
}

// ExerciseNames returns exercise names in declared order.
func (m *Module) ExerciseNames() []string {
	names := make([]string, 0, len(m.Exercises))
	for _, ex := range m.Exercises {
		names = append(names, ex.Name)
	}
	return names
}

// TotalSubmissions counts submissions across all exercises.
func (m *Module) TotalSubmissions() int {
	total := 0
	for _, ex := range m.Exercises {
		for _, t := range ex.Tests {
			total += t.Submissions()
		}
	}
	return total
}

// TotalVerdicts counts verdicts across all exercises.
func (m *Module) TotalVerdicts() int {
	total := 0
	for _, ex := range m.Exercises {
		for _, t := range ex.Tests {
			total += t.Verdicts()
		}
	}
	return total
}

// SolutionFile is a candidate solution loaded from the exercise directory.
// It doubles as the file entry of an execution request.
type SolutionFile struct {
	Name    string `json:"name"`
	Content string `json:"content"`
}
