package executor

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/harrison/grader/internal/models"
)

// Submitter runs one solution against one stdin value on the execution service.
type Submitter interface {
	Execute(ctx context.Context, rt models.Runtime, fileName, content, stdin string) (*models.ExecutionResult, error)
}

// Logger receives evaluation progress. Verdicts are reported as soon as they
// are computed; the evaluator itself never aggregates them.
type Logger interface {
	LogExerciseStart(exercise models.Exercise, solution models.SolutionFile)
	LogSubmission(exercise string, test models.Test, inputIndex int, dryRun bool)
	LogVerdict(verdict models.Verdict)
}

// EvaluatorConfig holds optional evaluator settings.
type EvaluatorConfig struct {
	// Pacer runs after every submission. Nil means DefaultPaceInterval.
	Pacer Pacer
	// Only restricts evaluation to these exercise names, keeping declared order.
	Only []string
	// DryRun matches files and reports planned submissions without sending them.
	DryRun bool
	// OnVerdict is called for every verdict after it is logged.
	OnVerdict func(models.Verdict)
}

// Evaluator drives the grading loop: exercises, then tests, then inputs, then
// expected outputs, strictly in declared order and one request at a time.
type Evaluator struct {
	submitter Submitter
	logger    Logger
	pacer     Pacer
	only      map[string]bool
	dryRun    bool
	onVerdict func(models.Verdict)
}

// NewEvaluator creates an Evaluator with the given pacer.
// The logger parameter is optional and can be nil.
func NewEvaluator(submitter Submitter, pacer Pacer, logger Logger) *Evaluator {
	return NewEvaluatorWithConfig(submitter, logger, EvaluatorConfig{Pacer: pacer})
}

// NewEvaluatorWithConfig creates an Evaluator from cfg.
func NewEvaluatorWithConfig(submitter Submitter, logger Logger, cfg EvaluatorConfig) *Evaluator {
	if submitter == nil {
		panic("submitter cannot be nil")
	}

	pacer := cfg.Pacer
	if pacer == nil {
		pacer = NewFixedPacer(DefaultPaceInterval)
	}

	var only map[string]bool
	if len(cfg.Only) > 0 {
		only = make(map[string]bool, len(cfg.Only))
		for _, name := range cfg.Only {
			only[name] = true
		}
	}

	return &Evaluator{
		submitter: submitter,
		logger:    logger,
		pacer:     pacer,
		only:      only,
		dryRun:    cfg.DryRun,
		onVerdict: cfg.OnVerdict,
	}
}

// Matches reports whether actual equals expected once leading and trailing
// whitespace is removed from both. Inner whitespace and case are significant.
func Matches(actual, expected string) bool {
	return strings.TrimSpace(actual) == strings.TrimSpace(expected)
}

// Run evaluates module against files using rt for every submission.
//
// The first error aborts the run and is returned as a *StageError; verdicts
// already emitted stay emitted, and nothing after the failure is evaluated.
func (e *Evaluator) Run(ctx context.Context, module *models.Module, rt models.Runtime, files []models.SolutionFile) error {
	if module == nil {
		return NewStageError(StageRules, fmt.Errorf("module cannot be nil"))
	}
	if err := e.checkOnly(module); err != nil {
		return NewStageError(StageRules, err)
	}

	for _, exercise := range module.Exercises {
		if e.only != nil && !e.only[exercise.Name] {
			continue
		}

		solution, err := FindSolution(exercise.Name, files)
		if err != nil {
			return &StageError{Stage: StageMatch, Exercise: exercise.Name, Input: -1, Err: err}
		}

		if e.logger != nil {
			e.logger.LogExerciseStart(exercise, solution)
		}

		for _, test := range exercise.Tests {
			if err := e.runTest(ctx, exercise.Name, test, rt, solution); err != nil {
				return err
			}
		}
	}

	return nil
}

// runTest submits every input once and compares the result with every output.
func (e *Evaluator) runTest(ctx context.Context, exercise string, test models.Test, rt models.Runtime, solution models.SolutionFile) error {
	for i, input := range test.Input {
		if e.logger != nil {
			e.logger.LogSubmission(exercise, test, i, e.dryRun)
		}
		if e.dryRun {
			continue
		}

		result, err := e.submitter.Execute(ctx, rt, solution.Name, solution.Content, input)
		if err != nil {
			return &StageError{Stage: StageSubmit, Exercise: exercise, Test: test.Name, Input: i, Err: err}
		}

		actual := result.Output()
		for j, expected := range test.Output {
			e.emit(models.Verdict{
				Exercise:    exercise,
				TestName:    test.Name,
				InputIndex:  i,
				OutputIndex: j,
				Input:       input,
				Expected:    expected,
				Actual:      actual,
				Passed:      Matches(actual, expected),
			})
		}

		if err := e.pacer.Pace(ctx); err != nil {
			return &StageError{Stage: StagePace, Exercise: exercise, Test: test.Name, Input: i, Err: err}
		}
	}
	return nil
}

func (e *Evaluator) emit(v models.Verdict) {
	if e.logger != nil {
		e.logger.LogVerdict(v)
	}
	if e.onVerdict != nil {
		e.onVerdict(v)
	}
}

// checkOnly rejects filter names that the module does not declare.
func (e *Evaluator) checkOnly(module *models.Module) error {
	if e.only == nil {
		return nil
	}

	declared := make(map[string]bool, len(module.Exercises))
	for _, ex := range module.Exercises {
		declared[ex.Name] = true
	}

	var unknown []string
	for name := range e.only {
		if !declared[name] {
			unknown = append(unknown, name)
		}
	}
	if len(unknown) == 0 {
		return nil
	}

	sort.Strings(unknown)
	return models.NewConfigError("exercise", fmt.Sprintf("unknown exercise(s): %s", strings.Join(unknown, ", ")), nil)
}
