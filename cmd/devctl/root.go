package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"expensetracker/internal/toolchain"
)

var (
	moduleDir string
	cfg       toolchain.Config
	tasks     *toolchain.Tasks
)

var rootCmd = &cobra.Command{
	Use:   "devctl",
	Short: "Developer task runner for the expensetracker project",
	Long: `devctl wraps the project's developer workflow: building, testing,
linting, formatting, pre-commit hooks and test reports. Each task is a thin
wrapper over the underlying tool and propagates its exit code unchanged.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = toolchain.LoadConfig(moduleDir)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		tasks = toolchain.NewTasks(toolchain.NewRunner(), moduleDir)
		return nil
	},
}

// Execute runs the CLI, exiting with the failed tool's status.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(toolchain.ExitCode(err))
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&moduleDir, "dir", "C", ".", "module directory to operate on")
}
