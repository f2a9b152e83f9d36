package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/harrison/grader/internal/models"
	"github.com/harrison/grader/internal/piston"
	"github.com/spf13/cobra"
)

// NewRuntimesCommand creates and returns the runtimes subcommand
func NewRuntimesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runtimes [language]",
		Short: "List the runtimes offered by the execution service",
		Long: `List the runtime catalog of the execution service.

With a language argument, only entries whose name equals it exactly are
shown, and the entry a run would use is marked as selected.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, ".")
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if cmd.Flags().Changed("api-url") {
				cfg.APIURL, _ = cmd.Flags().GetString("api-url")
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}

			client := piston.NewClient(piston.Config{
				BaseURL: cfg.APIURL,
				Timeout: cfg.RequestTimeout,
				APIKey:  cfg.APIKey,
			})

			language := ""
			if len(args) == 1 {
				language = args[0]
			}
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			return listRuntimes(ctx, client, language, cmd.OutOrStdout())
		},
		SilenceUsage: true,
	}

	cmd.Flags().String("api-url", "", "Base URL of the execution service")

	return cmd
}

// listRuntimes prints the catalog, or only the entries for language.
func listRuntimes(ctx context.Context, client *piston.Client, language string, output io.Writer) error {
	catalog, err := client.Runtimes(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch runtimes: %w", err)
	}

	if language == "" {
		for _, rt := range catalog {
			fmt.Fprintln(output, formatRuntime(rt))
		}
		fmt.Fprintf(output, "\n%d runtime(s)\n", len(catalog))
		return nil
	}

	if _, ok := piston.SelectRuntime(catalog, language); !ok {
		return &models.RuntimeNotFoundError{Language: language}
	}

	// A run always uses the first entry for the language
	marked := false
	for _, rt := range catalog {
		if rt.Language != language {
			continue
		}
		line := formatRuntime(rt)
		if !marked {
			line += " (selected)"
			marked = true
		}
		fmt.Fprintln(output, line)
	}
	return nil
}

func formatRuntime(rt models.Runtime) string {
	line := fmt.Sprintf("%-16s %s", rt.Language, rt.Version)
	if len(rt.Aliases) > 0 {
		line += fmt.Sprintf("  [%s]", strings.Join(rt.Aliases, ", "))
	}
	return line
}
