package toolchain

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/fatih/color"
)

// Tasks runs the developer workflow commands against one module directory.
// Each task is a thin pass-through: the tool's own exit code is the task's
// result, surfaced unchanged.
type Tasks struct {
	Runner CommandRunner
	Dir    string
	Stdout io.Writer
	Stderr io.Writer
}

func NewTasks(runner CommandRunner, dir string) *Tasks {
	return &Tasks{
		Runner: runner,
		Dir:    dir,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}
}

func (t *Tasks) run(ctx context.Context, name string, args ...string) error {
	return t.Runner.Run(ctx, t.Dir, t.Stdout, t.Stderr, name, args...)
}

// Install downloads the module dependencies declared in go.mod.
func (t *Tasks) Install(ctx context.Context) error {
	return t.run(ctx, "go", "mod", "download")
}

// Test runs the test suite.
func (t *Tasks) Test(ctx context.Context) error {
	return t.run(ctx, "go", "test", "./...")
}

// TestJSON runs the test suite emitting the machine-readable event stream
// to out. The error still reflects test failures.
func (t *Tasks) TestJSON(ctx context.Context, out io.Writer) error {
	return t.Runner.Run(ctx, t.Dir, out, t.Stderr, "go", "test", "-json", "./...")
}

// TestCoverage runs the suite with a coverage profile and fails when total
// coverage lands below threshold (a percentage).
func (t *Tasks) TestCoverage(ctx context.Context, threshold float64) error {
	profile := filepath.Join(os.TempDir(), "devctl-coverage.out")
	defer os.Remove(profile)

	if err := t.run(ctx, "go", "test", "-coverprofile="+profile, "./..."); err != nil {
		return err
	}

	out, err := t.Runner.Output(ctx, t.Dir, "go", "tool", "cover", "-func="+profile)
	if err != nil {
		return fmt.Errorf("read coverage profile: %w", err)
	}

	total, err := parseTotalCoverage(string(out))
	if err != nil {
		return err
	}

	if total < threshold {
		color.New(color.FgRed).Fprintf(t.Stderr, "coverage %.1f%% below threshold %.1f%%\n", total, threshold)
		return fmt.Errorf("coverage %.1f%% below threshold %.1f%%", total, threshold)
	}
	color.New(color.FgGreen).Fprintf(t.Stdout, "coverage %.1f%% (threshold %.1f%%)\n", total, threshold)
	return nil
}

// parseTotalCoverage extracts the percentage from the "total:" line of
// go tool cover -func output.
func parseTotalCoverage(out string) (float64, error) {
	for _, line := range strings.Split(out, "\n") {
		if !strings.HasPrefix(line, "total:") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			break
		}
		pct := strings.TrimSuffix(fields[len(fields)-1], "%")
		return strconv.ParseFloat(pct, 64)
	}
	return 0, fmt.Errorf("no total line in coverage output")
}

// Typecheck vets both source trees.
func (t *Tasks) Typecheck(ctx context.Context) error {
	return t.run(ctx, "go", "vet", "./cmd/...", "./internal/...")
}

// Lint checks formatting, import order and the linter without mutating the
// tree. Any finding is a failure.
func (t *Tasks) Lint(ctx context.Context) error {
	for _, tool := range []string{"gofmt", "goimports"} {
		out, err := t.Runner.Output(ctx, t.Dir, tool, "-l", ".")
		if err != nil {
			return fmt.Errorf("%s: %w", tool, err)
		}
		if files := strings.TrimSpace(string(out)); files != "" {
			fmt.Fprintf(t.Stderr, "%s wants to reformat:\n%s\n", tool, files)
			return fmt.Errorf("%s found unformatted files", tool)
		}
	}
	return t.run(ctx, "golangci-lint", "run")
}

// Format rewrites the tree in place.
func (t *Tasks) Format(ctx context.Context) error {
	if err := t.run(ctx, "goimports", "-w", "."); err != nil {
		return err
	}
	if err := t.run(ctx, "gofmt", "-w", "."); err != nil {
		return err
	}
	return t.run(ctx, "golangci-lint", "run", "--fix")
}

// CheckStage names one stage of the aggregate check.
type CheckStage struct {
	Name string
	Run  func(context.Context) error
}

// Check runs lint, typecheck and test in order, halting at the first
// failure. The colored summary names the stage that stopped the run.
func (t *Tasks) Check(ctx context.Context) error {
	stages := []CheckStage{
		{Name: "lint", Run: t.Lint},
		{Name: "typecheck", Run: t.Typecheck},
		{Name: "test", Run: t.Test},
	}
	return t.runStages(ctx, stages)
}

func (t *Tasks) runStages(ctx context.Context, stages []CheckStage) error {
	for _, stage := range stages {
		fmt.Fprintf(t.Stdout, "==> %s\n", stage.Name)
		if err := stage.Run(ctx); err != nil {
			color.New(color.FgRed, color.Bold).Fprintf(t.Stderr, "FAIL %s\n", stage.Name)
			return fmt.Errorf("%s: %w", stage.Name, err)
		}
		color.New(color.FgGreen).Fprintf(t.Stdout, "ok   %s\n", stage.Name)
	}
	return nil
}
