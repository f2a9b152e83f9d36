package cmd

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/harrison/grader/internal/display"
	"github.com/harrison/grader/internal/executor"
	"github.com/harrison/grader/internal/fileutil"
	"github.com/harrison/grader/internal/models"
	"github.com/harrison/grader/internal/parser"
	"github.com/spf13/cobra"
)

// NewValidateCommand creates and returns the validate subcommand
func NewValidateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <exercise-dir>",
		Short: "Check an exercise directory without submitting anything",
		Long: `Parse the rules file and match every exercise to its solution file,
checking for:
  - Rules that fail to parse or declare invalid tests
  - Exercises without a solution file
  - Files that no exercise refers to
  - Exercise names declared more than once

No request is sent to the execution service.

Exit code: 0 if valid, 1 if errors found`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rulesPath, _ := cmd.Flags().GetString("rules")
			excludeRules, _ := cmd.Flags().GetBool("exclude-rules")
			return validateDir(args[0], rulesPath, excludeRules, cmd.OutOrStdout())
		},
		SilenceUsage: true,
	}

	cmd.Flags().String("rules", "", "Path to the rules file (default: auto-detected in the exercise directory)")
	cmd.Flags().Bool("exclude-rules", false, "Do not treat the rules file as a solution file")

	return cmd
}

// validateDir checks dir and writes a report to output
func validateDir(dir, rulesPath string, excludeRules bool, output io.Writer) error {
	display.NoColor = !display.ColorEnabled(output)

	if rulesPath == "" {
		found, err := parser.FindRules(dir)
		if err != nil {
			return executor.NewStageError(executor.StageRules, err)
		}
		rulesPath = found
	}

	display.DisplaySingleFile(output, rulesPath)
	module, err := parser.ParseFile(rulesPath)
	if err != nil {
		return executor.NewStageError(executor.StageRules, err)
	}

	opts := fileutil.LoadOptions{}
	if excludeRules {
		opts.Exclude = []string{filepath.Base(rulesPath)}
	}
	files, err := fileutil.LoadSolutions(dir, opts)
	if err != nil {
		return executor.NewStageError(executor.StageFiles, err)
	}

	declared := make(map[string]bool, len(module.Exercises))
	for _, name := range module.ExerciseNames() {
		declared[name] = true
	}

	listing := display.NewFileListing(output, len(files))
	listing.Start(dir)
	for _, f := range files {
		listing.Step(f.Name, len(f.Content), declared[f.Name])
	}
	listing.Complete()

	if dups := parser.DuplicateExercises(module); len(dups) > 0 {
		display.WarnDuplicateExercises(dups).Display(output)
	}

	var unused []string
	for _, name := range executor.UnusedSolutions(module, files) {
		if !parser.IsRulesFile(name) {
			unused = append(unused, name)
		}
	}
	if len(unused) > 0 {
		display.WarnUnusedFiles(unused).Display(output)
	}

	missing := executor.MissingSolutions(module, files)
	if len(missing) > 0 {
		display.WarnMissingSolutions(missing).Display(output)
		return executor.NewStageError(executor.StageMatch,
			fmt.Errorf("%d exercise(s) have no solution file", len(missing)))
	}

	fmt.Fprintf(output, "\n✓ Rules are valid: %s\n", describePlan(module))
	return nil
}

// describePlan summarises how much work a run over module would do.
func describePlan(module *models.Module) string {
	tests := 0
	for _, ex := range module.Exercises {
		tests += len(ex.Tests)
	}
	return fmt.Sprintf("%d exercise(s), %d test(s), %d submission(s), %d verdict(s)",
		len(module.Exercises), tests, module.TotalSubmissions(), module.TotalVerdicts())
}
