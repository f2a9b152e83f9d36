package cmd

import (
	"path/filepath"

	"github.com/harrison/grader/internal/config"
	"github.com/spf13/cobra"
)

// Version is injected at build time via -ldflags
var Version = "dev"

// NewRootCommand creates and returns the root cobra command for grader
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "grader",
		Short: "Grade exercise solutions against a remote code execution service",
		Long: `Grader reads a rules file describing exercises and their tests, matches
each exercise to a solution file in the same directory, and submits the
solution once per test input to a Piston-compatible execution service.

Every output returned by the service is compared with every expected
output of the test, and a passed or failed verdict is printed for each pair.`,
		Version: Version,
		// Silence usage on errors to avoid duplicate help text
		SilenceUsage: true,
		// main prints the returned error once
		SilenceErrors: true,
	}

	cmd.PersistentFlags().String("config", "", "Path to config file (default: .grader/config.yaml)")

	// Add subcommands
	cmd.AddCommand(NewRunCommand())
	cmd.AddCommand(NewValidateCommand())
	cmd.AddCommand(NewRuntimesCommand())
	cmd.AddCommand(NewHistoryCommand())

	return cmd
}

// loadConfig builds the effective configuration for dir: .env files, then the
// config file, then GRADER_* environment variables. Flags are merged by the
// individual commands.
func loadConfig(cmd *cobra.Command, dir string) (*config.Config, error) {
	envFiles := []string{".env"}
	if dir != "" && dir != "." {
		envFiles = append(envFiles, filepath.Join(dir, ".env"))
	}
	if err := config.LoadEnvFiles(envFiles...); err != nil {
		return nil, err
	}

	configPath, _ := cmd.Flags().GetString("config")
	var (
		cfg *config.Config
		err error
	)
	if configPath != "" {
		cfg, err = config.LoadConfig(configPath)
	} else {
		cfg, err = config.LoadConfigFromDir(".")
	}
	if err != nil {
		return nil, err
	}

	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}
