package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sync"
	"time"

	"github.com/harrison/grader/internal/config"
	"github.com/harrison/grader/internal/executor"
	"github.com/harrison/grader/internal/fileutil"
	"github.com/harrison/grader/internal/history"
	"github.com/harrison/grader/internal/logger"
	"github.com/harrison/grader/internal/models"
	"github.com/harrison/grader/internal/parser"
	"github.com/harrison/grader/internal/piston"
	"github.com/harrison/grader/internal/report"
	"github.com/spf13/cobra"
)

// ErrVerdictsFailed is returned by run when grading finished but some verdicts failed.
var ErrVerdictsFailed = errors.New("verdicts failed")

// NewRunCommand creates and returns the run subcommand
func NewRunCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <exercise-dir> <language>",
		Short: "Grade every exercise in a directory",
		Long: `Grade the solutions in an exercise directory.

The directory must contain a rules file (rules.toml, rules.yaml or rules.hcl)
and one solution file per exercise, named exactly like the exercise. The
language must match a runtime name in the execution service catalog exactly;
the first matching catalog entry is used.

Submissions are sent one at a time with a pause after each one. The first
error stops the run; verdicts already printed are kept.

Exit code: 0 if every verdict passed, 1 otherwise`,
		Args:         cobra.ExactArgs(2),
		RunE:         runCommand,
		SilenceUsage: true,
	}

	cmd.Flags().String("rules", "", "Path to the rules file (default: auto-detected in the exercise directory)")
	cmd.Flags().StringSlice("exercise", nil, "Only grade these exercises (repeatable)")
	cmd.Flags().Bool("dry-run", false, "Match files and list planned submissions without sending them")
	cmd.Flags().Bool("exclude-rules", false, "Do not treat the rules file as a solution file")
	cmd.Flags().String("api-url", "", "Base URL of the execution service")
	cmd.Flags().Duration("pace", 0, "Pause after every submission (e.g., 205ms)")
	cmd.Flags().Duration("request-timeout", 0, "Timeout for a single request")
	cmd.Flags().Duration("timeout", 0, "Maximum duration of the whole run (e.g., 5m)")
	cmd.Flags().String("log-level", "", "Log level (trace, debug, info, warn, error)")
	cmd.Flags().String("log-dir", "", "Directory for run logs (empty disables file logging)")
	cmd.Flags().Bool("verbose", false, "Show submissions and expected/actual values")
	cmd.Flags().Bool("no-history", false, "Do not record this run in the history database")
	cmd.Flags().String("report", "", "Write a report file (.md, .html or .json)")

	return cmd
}

// runOptions is everything runGrader needs once flags and config are resolved.
type runOptions struct {
	Dir          string
	Language     string
	RulesPath    string
	Only         []string
	DryRun       bool
	ExcludeRules bool
	ReportPath   string
	Config       *config.Config
}

func runCommand(cmd *cobra.Command, args []string) error {
	dir, language := args[0], args[1]

	cfg, err := loadConfig(cmd, dir)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Merge CLI flags only when they were set explicitly
	var apiURLPtr, logLevelPtr, logDirPtr *string
	var pacePtr, requestTimeoutPtr, timeoutPtr *time.Duration
	var noHistoryPtr *bool
	if cmd.Flags().Changed("api-url") {
		v, _ := cmd.Flags().GetString("api-url")
		apiURLPtr = &v
	}
	if cmd.Flags().Changed("pace") {
		v, _ := cmd.Flags().GetDuration("pace")
		pacePtr = &v
	}
	if cmd.Flags().Changed("request-timeout") {
		v, _ := cmd.Flags().GetDuration("request-timeout")
		requestTimeoutPtr = &v
	}
	if cmd.Flags().Changed("timeout") {
		v, _ := cmd.Flags().GetDuration("timeout")
		timeoutPtr = &v
	}
	if cmd.Flags().Changed("log-level") {
		v, _ := cmd.Flags().GetString("log-level")
		logLevelPtr = &v
	}
	if cmd.Flags().Changed("log-dir") {
		v, _ := cmd.Flags().GetString("log-dir")
		logDirPtr = &v
	}
	if cmd.Flags().Changed("no-history") {
		v, _ := cmd.Flags().GetBool("no-history")
		noHistoryPtr = &v
	}
	cfg.MergeWithFlags(apiURLPtr, pacePtr, requestTimeoutPtr, timeoutPtr, logLevelPtr, logDirPtr, noHistoryPtr)

	// Verbose forces debug output on the console
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		cfg.LogLevel = "debug"
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	opts := runOptions{Dir: dir, Language: language, Config: cfg}
	opts.RulesPath, _ = cmd.Flags().GetString("rules")
	opts.Only, _ = cmd.Flags().GetStringSlice("exercise")
	opts.DryRun, _ = cmd.Flags().GetBool("dry-run")
	opts.ExcludeRules, _ = cmd.Flags().GetBool("exclude-rules")
	opts.ReportPath, _ = cmd.Flags().GetString("report")

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	summary, err := runGrader(ctx, opts, cmd.OutOrStdout())
	if err != nil {
		return err
	}

	if opts.DryRun {
		fmt.Fprintf(cmd.OutOrStdout(), "\nDry run completed. No submissions were sent.\n")
		return nil
	}
	if summary.Failed > 0 {
		return fmt.Errorf("%d of %d %w", summary.Failed, summary.Total, ErrVerdictsFailed)
	}
	return nil
}

// runLogger is the full set of events a grading run reports.
type runLogger interface {
	executor.Logger
	LogRunStart(dir string, rt models.Runtime, module *models.Module)
	LogSummary(summary models.RunSummary)
	LogWarn(message string)
}

// runGrader loads the rules and solutions in opts.Dir, resolves the runtime
// and evaluates every exercise. The returned summary covers the verdicts
// emitted before any error.
func runGrader(ctx context.Context, opts runOptions, out io.Writer) (models.RunSummary, error) {
	cfg := opts.Config
	startedAt := time.Now()

	console := logger.NewConsoleLogger(out, cfg.LogLevel)
	loggers := []runLogger{console}
	var fileLog *logger.FileLogger
	if cfg.LogDir != "" {
		var err error
		fileLog, err = logger.NewFileLoggerWithDirAndLevel(cfg.LogDir, cfg.LogLevel)
		if err != nil {
			return models.RunSummary{}, fmt.Errorf("failed to create file logger: %w", err)
		}
		defer fileLog.Close()
		loggers = append(loggers, fileLog)
	}
	log := &multiLogger{loggers: loggers}

	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	rulesPath := opts.RulesPath
	if rulesPath == "" {
		found, err := parser.FindRules(opts.Dir)
		if err != nil {
			return models.RunSummary{}, executor.NewStageError(executor.StageRules, err)
		}
		rulesPath = found
	}
	module, err := parser.ParseFile(rulesPath)
	if err != nil {
		return models.RunSummary{}, executor.NewStageError(executor.StageRules, err)
	}

	loadOpts := fileutil.LoadOptions{}
	if opts.ExcludeRules {
		loadOpts.Exclude = []string{filepath.Base(rulesPath)}
	}
	files, err := fileutil.LoadSolutions(opts.Dir, loadOpts)
	if err != nil {
		return models.RunSummary{}, executor.NewStageError(executor.StageFiles, err)
	}

	client := piston.NewClient(piston.Config{
		BaseURL: cfg.APIURL,
		Timeout: cfg.RequestTimeout,
		APIKey:  cfg.APIKey,
	})

	rt := models.Runtime{Language: opts.Language}
	if !opts.DryRun {
		rt, err = client.ResolveRuntime(ctx, opts.Language)
		if err != nil {
			return models.RunSummary{}, executor.NewStageError(executor.StageRuntime, err)
		}
	}

	summary := models.RunSummary{Language: rt.Language, Version: rt.Version}
	var verdicts []models.Verdict

	var (
		store    *history.Store
		recorder *history.Recorder
	)
	if cfg.History.Enabled && !opts.DryRun {
		store, recorder = openHistory(ctx, cfg, opts.Dir, rulesPath, rt, log)
		if store != nil {
			defer store.Close()
			summary.RunID = recorder.RunID()
		}
	}

	log.LogRunStart(opts.Dir, rt, module)

	submitter := &countingSubmitter{next: client}
	evaluator := executor.NewEvaluatorWithConfig(submitter, log, executor.EvaluatorConfig{
		Pacer:  executor.NewFixedPacer(cfg.PaceInterval),
		Only:   opts.Only,
		DryRun: opts.DryRun,
		OnVerdict: func(v models.Verdict) {
			summary.Add(v)
			verdicts = append(verdicts, v)
			if recorder != nil {
				recorder.Record(v)
			}
		},
	})

	runErr := evaluator.Run(ctx, module, rt, files)
	summary.Submissions = submitter.Count()
	summary.Duration = time.Since(startedAt)

	if opts.DryRun {
		return summary, runErr
	}

	// The console error is printed by main; the run log keeps its own copy
	if runErr != nil && fileLog != nil {
		fileLog.LogError(runErr.Error())
	}
	log.LogSummary(summary)

	if store != nil {
		finishHistory(store, recorder, summary, runErr, cfg.History.KeepRuns, log)
	}

	if opts.ReportPath != "" {
		r := report.Report{
			ExerciseDir: opts.Dir,
			RulesFile:   rulesPath,
			StartedAt:   startedAt,
			Summary:     summary,
			Verdicts:    verdicts,
		}
		if runErr != nil {
			r.Error = runErr.Error()
		}
		if err := report.Write(opts.ReportPath, r); err != nil {
			log.LogWarn(fmt.Sprintf("failed to write report: %v", err))
		} else {
			fmt.Fprintf(out, "Report written to: %s\n", opts.ReportPath)
		}
	}

	return summary, runErr
}

// openHistory records the start of a run. History problems never fail a run;
// they are logged and the run continues without recording.
func openHistory(ctx context.Context, cfg *config.Config, dir, rulesPath string, rt models.Runtime, log runLogger) (*history.Store, *history.Recorder) {
	dbPath, err := cfg.ResolveHistoryDBPath()
	if err != nil {
		log.LogWarn(fmt.Sprintf("history disabled: %v", err))
		return nil, nil
	}

	store, err := history.NewStore(dbPath)
	if err != nil {
		log.LogWarn(fmt.Sprintf("history disabled: %v", err))
		return nil, nil
	}

	run := &history.Run{
		ExerciseDir: dir,
		RulesFile:   rulesPath,
		Language:    rt.Language,
		Version:     rt.Version,
	}
	if err := store.RecordRun(ctx, run); err != nil {
		store.Close()
		log.LogWarn(fmt.Sprintf("history disabled: %v", err))
		return nil, nil
	}

	return store, store.NewRecorder(ctx, run.ID)
}

// finishHistory stores the outcome of the run and prunes old runs. It uses a
// fresh context so an interrupted run is still recorded.
func finishHistory(store *history.Store, recorder *history.Recorder, summary models.RunSummary, runErr error, keep int, log runLogger) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := recorder.Err(); err != nil {
		log.LogWarn(fmt.Sprintf("failed to record verdicts: %v", err))
	}
	if err := store.FinishRun(ctx, recorder.RunID(), summary, runErr); err != nil {
		log.LogWarn(fmt.Sprintf("failed to record run: %v", err))
		return
	}
	if keep > 0 {
		if _, err := store.Prune(ctx, keep); err != nil {
			log.LogWarn(fmt.Sprintf("failed to prune history: %v", err))
		}
	}
}

// countingSubmitter counts submissions that reached the execution service.
type countingSubmitter struct {
	next  executor.Submitter
	mu    sync.Mutex
	count int
}

func (c *countingSubmitter) Execute(ctx context.Context, rt models.Runtime, fileName, content, stdin string) (*models.ExecutionResult, error) {
	result, err := c.next.Execute(ctx, rt, fileName, content, stdin)
	if err == nil {
		c.mu.Lock()
		c.count++
		c.mu.Unlock()
	}
	return result, err
}

// Count returns the number of successful submissions.
func (c *countingSubmitter) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.count
}

// multiLogger implements runLogger by delegating to multiple loggers
type multiLogger struct {
	loggers []runLogger
}

// LogRunStart forwards to all loggers
func (ml *multiLogger) LogRunStart(dir string, rt models.Runtime, module *models.Module) {
	for _, l := range ml.loggers {
		l.LogRunStart(dir, rt, module)
	}
}

// LogExerciseStart forwards to all loggers
func (ml *multiLogger) LogExerciseStart(exercise models.Exercise, solution models.SolutionFile) {
	for _, l := range ml.loggers {
		l.LogExerciseStart(exercise, solution)
	}
}

// LogSubmission forwards to all loggers
func (ml *multiLogger) LogSubmission(exercise string, test models.Test, inputIndex int, dryRun bool) {
	for _, l := range ml.loggers {
		l.LogSubmission(exercise, test, inputIndex, dryRun)
	}
}

// LogVerdict forwards to all loggers
func (ml *multiLogger) LogVerdict(v models.Verdict) {
	for _, l := range ml.loggers {
		l.LogVerdict(v)
	}
}

// LogSummary forwards to all loggers
func (ml *multiLogger) LogSummary(summary models.RunSummary) {
	for _, l := range ml.loggers {
		l.LogSummary(summary)
	}
}

// LogWarn forwards to all loggers
func (ml *multiLogger) LogWarn(message string) {
	for _, l := range ml.loggers {
		l.LogWarn(message)
	}
}
