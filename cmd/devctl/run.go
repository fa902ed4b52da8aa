package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"expensetracker/internal/log"
	"expensetracker/internal/watch"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the API server with live reload",
	Long: `Starts the API server and restarts it whenever a Go source file
changes. Runs until interrupted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := log.New(log.Config{Component: "devctl"})

		ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		w, err := watch.New(moduleDir, logger)
		if err != nil {
			return err
		}
		defer w.Close()

		target := []string{"go", "run", "./cmd/expensetracker"}
		err = watch.RunAndReload(ctx, w, moduleDir, target, logger)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}
