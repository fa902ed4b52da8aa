package main

import (
	"github.com/spf13/cobra"
)

var installCmd = &cobra.Command{
	Use:   "install",
	Short: "Download module dependencies",
	RunE: func(cmd *cobra.Command, args []string) error {
		return tasks.Install(cmd.Context())
	},
}

var testCmd = &cobra.Command{
	Use:   "test",
	Short: "Run the test suite",
	RunE: func(cmd *cobra.Command, args []string) error {
		return tasks.Test(cmd.Context())
	},
}

var testCovCmd = &cobra.Command{
	Use:   "test-cov",
	Short: "Run tests with a coverage gate",
	RunE: func(cmd *cobra.Command, args []string) error {
		return tasks.TestCoverage(cmd.Context(), cfg.CoverageThreshold)
	},
}

var typecheckCmd = &cobra.Command{
	Use:   "typecheck",
	Short: "Vet the source trees",
	RunE: func(cmd *cobra.Command, args []string) error {
		return tasks.Typecheck(cmd.Context())
	},
}

var lintCmd = &cobra.Command{
	Use:   "lint",
	Short: "Check formatting, imports and lints without changing files",
	RunE: func(cmd *cobra.Command, args []string) error {
		return tasks.Lint(cmd.Context())
	},
}

var formatCmd = &cobra.Command{
	Use:   "format",
	Short: "Reformat the tree and apply lint fixes",
	RunE: func(cmd *cobra.Command, args []string) error {
		return tasks.Format(cmd.Context())
	},
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Run lint, typecheck and test, stopping at the first failure",
	RunE: func(cmd *cobra.Command, args []string) error {
		return tasks.Check(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(installCmd, testCmd, testCovCmd, typecheckCmd, lintCmd, formatCmd, checkCmd)
}
