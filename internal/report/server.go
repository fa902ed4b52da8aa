package report

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"runtime"
	"time"

	"expensetracker/internal/toolchain"
)

// NewPreviewServer builds a static file server for the rendered report.
func NewPreviewServer(host, port, reportDir string) *http.Server {
	return &http.Server{
		Addr:              net.JoinHostPort(host, port),
		Handler:           http.FileServer(http.Dir(reportDir)),
		ReadHeaderTimeout: 5 * time.Second,
	}
}

// Serve blocks serving the report dir until ctx is cancelled.
func Serve(ctx context.Context, host, port, reportDir string) error {
	srv := NewPreviewServer(host, port, reportDir)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("report server: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// OpenInBrowser hands the report URL to the platform opener, propagating the
// opener's own exit status.
func OpenInBrowser(ctx context.Context, runner toolchain.CommandRunner, url string) error {
	opener := "xdg-open"
	if runtime.GOOS == "darwin" {
		opener = "open"
	}
	_, err := runner.Output(ctx, "", opener, url)
	return err
}
