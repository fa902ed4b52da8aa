package report

import (
	"embed"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
)

//go:embed templates/report.html.tmpl
var templates embed.FS

// Render writes the HTML report for sum into reportDir, replacing any
// previous report so stale files never survive a regeneration.
func Render(sum Summary, reportDir string) error {
	if err := os.RemoveAll(reportDir); err != nil {
		return fmt.Errorf("clear report dir: %w", err)
	}
	if err := os.MkdirAll(reportDir, 0o755); err != nil {
		return fmt.Errorf("create report dir: %w", err)
	}

	tmpl, err := template.ParseFS(templates, "templates/report.html.tmpl")
	if err != nil {
		return fmt.Errorf("parse report template: %w", err)
	}

	f, err := os.Create(filepath.Join(reportDir, "index.html"))
	if err != nil {
		return fmt.Errorf("create index.html: %w", err)
	}
	defer f.Close()

	if err := tmpl.Execute(f, sum); err != nil {
		return fmt.Errorf("render report: %w", err)
	}
	return nil
}
