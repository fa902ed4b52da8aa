// Package report turns go test output into a browsable HTML test report.
package report

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"expensetracker/internal/toolchain"
)

// ResultsFile is the event stream file name inside the results dir.
const ResultsFile = "tests.json"

// Collect runs the test suite with JSON output into resultsDir, replacing
// any previous run. The returned error reflects test failure, but the event
// stream is written either way so a report can still render it.
func Collect(ctx context.Context, tasks *toolchain.Tasks, resultsDir string) error {
	if err := os.RemoveAll(resultsDir); err != nil {
		return fmt.Errorf("clear results dir: %w", err)
	}
	if err := os.MkdirAll(resultsDir, 0o755); err != nil {
		return fmt.Errorf("create results dir: %w", err)
	}

	f, err := os.Create(filepath.Join(resultsDir, ResultsFile))
	if err != nil {
		return fmt.Errorf("create results file: %w", err)
	}
	defer f.Close()

	return tasks.TestJSON(ctx, f)
}
