package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/harrison/grader/internal/history"
	"github.com/spf13/cobra"
)

// NewHistoryCommand creates and returns the history subcommand
func NewHistoryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "Show recorded grading runs",
		Long: `Show runs recorded in the history database, most recent first.

With a run ID (or a unique prefix of one), show that run and every verdict
it produced in emission order.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, ".")
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if cmd.Flags().Changed("db") {
				cfg.History.DBPath, _ = cmd.Flags().GetString("db")
			}
			dbPath, err := cfg.ResolveHistoryDBPath()
			if err != nil {
				return err
			}

			store, err := history.NewStore(dbPath)
			if err != nil {
				return err
			}
			defer store.Close()

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			if len(args) == 1 {
				return showRun(ctx, store, args[0], cmd.OutOrStdout())
			}
			limit, _ := cmd.Flags().GetInt("limit")
			return listRuns(ctx, store, limit, cmd.OutOrStdout())
		},
		SilenceUsage: true,
	}

	cmd.Flags().Int("limit", 10, "Number of runs to show (0 = all)")
	cmd.Flags().String("db", "", "Path to the history database (default: $GRADER_HOME/history.db)")

	return cmd
}

// listRuns prints one line per run.
func listRuns(ctx context.Context, store *history.Store, limit int, output io.Writer) error {
	runs, err := store.ListRuns(ctx, limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(output, "No runs recorded yet.")
		return nil
	}

	for _, run := range runs {
		fmt.Fprintf(output, "%s  %s  %-7s  %d/%d passed  %s %s  %s\n",
			shortID(run.ID),
			run.StartedAt.Local().Format("2006-01-02 15:04:05"),
			run.Status,
			run.Passed, run.Total,
			run.Language, run.Version,
			run.ExerciseDir)
	}
	return nil
}

// showRun prints a single run and its verdicts.
func showRun(ctx context.Context, store *history.Store, idOrPrefix string, output io.Writer) error {
	run, err := store.FindRun(ctx, idOrPrefix)
	if err != nil {
		return err
	}
	verdicts, err := store.RunVerdicts(ctx, run.ID)
	if err != nil {
		return err
	}

	fmt.Fprintf(output, "Run:       %s\n", run.ID)
	fmt.Fprintf(output, "Directory: %s\n", run.ExerciseDir)
	if run.RulesFile != "" {
		fmt.Fprintf(output, "Rules:     %s\n", run.RulesFile)
	}
	fmt.Fprintf(output, "Runtime:   %s %s\n", run.Language, run.Version)
	fmt.Fprintf(output, "Started:   %s\n", run.StartedAt.Local().Format("2006-01-02 15:04:05"))
	if run.FinishedAt.Valid {
		fmt.Fprintf(output, "Duration:  %s\n", run.Duration().Round(time.Millisecond))
	}
	fmt.Fprintf(output, "Status:    %s (%d/%d passed, %d submission(s))\n", run.Status, run.Passed, run.Total, run.Submissions)
	if run.ErrorMessage != "" {
		fmt.Fprintf(output, "Error:     %s\n", run.ErrorMessage)
	}

	if len(verdicts) == 0 {
		return nil
	}
	fmt.Fprintln(output)
	current := ""
	for _, v := range verdicts {
		if v.Exercise != current {
			current = v.Exercise
			fmt.Fprintf(output, "%s:\n", current)
		}
		mark := "passed ✅"
		if !v.Passed {
			mark = "failed ❌"
		}
		fmt.Fprintf(output, "  %s (input #%d, output #%d) %s\n", v.TestName, v.InputIndex+1, v.OutputIndex+1, mark)
	}
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
