package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"expensetracker/internal/hooks"
	"expensetracker/internal/toolchain"
)

var hooksCmd = &cobra.Command{
	Use:   "hooks",
	Short: "Manage pre-commit hooks",
}

var hooksInstallCmd = &cobra.Command{
	Use:   "install",
	Short: "Install the git pre-commit hook",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := hooks.Install(moduleDir)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "installed %s\n", path)
		return nil
	},
}

var hooksRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Run all configured hooks",
	RunE: func(cmd *cobra.Command, args []string) error {
		return hooks.Run(cmd.Context(), toolchain.NewRunner(), moduleDir, cmd.OutOrStdout())
	},
}

func init() {
	hooksCmd.AddCommand(hooksInstallCmd, hooksRunCmd)
	rootCmd.AddCommand(hooksCmd)
}
