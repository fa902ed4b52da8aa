// Package hooks manages the project's pre-commit hooks.
package hooks

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"gopkg.in/yaml.v3"

	"expensetracker/internal/toolchain"
)

// ConfigFile is where hook definitions live, relative to the module root.
const ConfigFile = ".devhooks.yaml"

// Hook is one named shell command.
type Hook struct {
	Name string `yaml:"name"`
	Run  string `yaml:"run"`
}

// Config is the parsed hooks file.
type Config struct {
	Hooks []Hook `yaml:"hooks"`
}

// LoadConfig reads the hooks file from dir.
func LoadConfig(dir string) (Config, error) {
	data, err := os.ReadFile(filepath.Join(dir, ConfigFile))
	if err != nil {
		return Config{}, fmt.Errorf("read %s: %w", ConfigFile, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse %s: %w", ConfigFile, err)
	}
	for i, h := range cfg.Hooks {
		if h.Name == "" || h.Run == "" {
			return Config{}, fmt.Errorf("%s: hook %d needs both name and run", ConfigFile, i)
		}
	}
	return cfg, nil
}

const preCommitScript = `#!/bin/sh
# Installed by devctl; edit .devhooks.yaml instead of this file.
exec devctl hooks run
`

// Install writes the git pre-commit hook that delegates to devctl.
func Install(dir string) (string, error) {
	hooksDir := filepath.Join(dir, ".git", "hooks")
	if _, err := os.Stat(filepath.Join(dir, ".git")); err != nil {
		return "", fmt.Errorf("not a git repository: %w", err)
	}
	if err := os.MkdirAll(hooksDir, 0o755); err != nil {
		return "", fmt.Errorf("create hooks dir: %w", err)
	}

	path := filepath.Join(hooksDir, "pre-commit")
	if err := os.WriteFile(path, []byte(preCommitScript), 0o755); err != nil {
		return "", fmt.Errorf("write pre-commit hook: %w", err)
	}
	return path, nil
}

// Run executes every configured hook against dir. All hooks run even after
// a failure; the error reports how many failed.
func Run(ctx context.Context, runner toolchain.CommandRunner, dir string, out io.Writer) error {
	cfg, err := LoadConfig(dir)
	if err != nil {
		return err
	}
	if len(cfg.Hooks) == 0 {
		fmt.Fprintln(out, "no hooks configured")
		return nil
	}

	var failed int
	for _, hook := range cfg.Hooks {
		output, err := runner.Output(ctx, dir, "sh", "-c", hook.Run)
		if err != nil {
			failed++
			color.New(color.FgRed, color.Bold).Fprintf(out, "FAIL %s\n", hook.Name)
			if len(output) > 0 {
				out.Write(output)
			}
			continue
		}
		color.New(color.FgGreen).Fprintf(out, "ok   %s\n", hook.Name)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d hooks failed", failed, len(cfg.Hooks))
	}
	return nil
}
