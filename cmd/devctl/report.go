package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"expensetracker/internal/report"
	"expensetracker/internal/toolchain"
)

var openBrowser bool

var resultsCmd = &cobra.Command{
	Use:   "results",
	Short: "Run the tests collecting the machine-readable event stream",
	RunE: func(cmd *cobra.Command, args []string) error {
		return report.Collect(cmd.Context(), tasks, resolveDir(cfg.ResultsDir))
	},
}

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Regenerate the HTML test report",
	Long: `Re-runs the test suite collecting results, then renders a fresh
HTML report. Any previous report is replaced.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return generateReport(cmd)
	},
}

var reportOpenCmd = &cobra.Command{
	Use:   "open",
	Short: "Regenerate the report and preview it",
	RunE: func(cmd *cobra.Command, args []string) error {
		// A failing suite still produces a report worth looking at; only a
		// missing report blocks the preview.
		genErr := generateReport(cmd)
		if _, err := os.Stat(filepath.Join(resolveDir(cfg.ReportDir), "index.html")); err != nil {
			return genErr
		}

		if openBrowser {
			url := "file://" + filepath.Join(resolveDir(cfg.ReportDir), "index.html")
			return report.OpenInBrowser(cmd.Context(), toolchain.NewRunner(), url)
		}

		ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer cancel()
		fmt.Fprintf(cmd.OutOrStdout(), "serving report on http://%s:%s\n", cfg.ReportHost, cfg.ReportPort)
		return report.Serve(ctx, cfg.ReportHost, cfg.ReportPort, resolveDir(cfg.ReportDir))
	},
}

// generateReport collects fresh results and renders the report. Rendering
// happens even when tests failed, so the failures are browsable; the test
// error is still returned.
func generateReport(cmd *cobra.Command) error {
	resultsDir := resolveDir(cfg.ResultsDir)
	reportDir := resolveDir(cfg.ReportDir)

	testErr := report.Collect(cmd.Context(), tasks, resultsDir)

	f, err := os.Open(filepath.Join(resultsDir, report.ResultsFile))
	if err != nil {
		if testErr != nil {
			return testErr
		}
		return fmt.Errorf("open results: %w", err)
	}
	defer f.Close()

	sum, err := report.Parse(f)
	if err != nil {
		return fmt.Errorf("parse results: %w", err)
	}
	if err := report.Render(sum, reportDir); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "report written to %s (%d passed, %d failed, %d skipped)\n",
		reportDir, sum.Passed, sum.Failed, sum.Skipped)
	return testErr
}

func resolveDir(dir string) string {
	if filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(moduleDir, dir)
}

func init() {
	reportOpenCmd.Flags().BoolVar(&openBrowser, "browser", false, "open the report with the platform opener instead of serving it")
	reportCmd.AddCommand(reportOpenCmd)
	rootCmd.AddCommand(resultsCmd, reportCmd)
}
