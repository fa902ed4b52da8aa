// Package watch restarts a command when Go source files change.
package watch

import (
	"context"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"

	"expensetracker/internal/log"
)

const debounce = 500 * time.Millisecond

// skipDir filters directories that never hold watched source.
func skipDir(name string) bool {
	return strings.HasPrefix(name, ".") || name == "vendor" || name == "data" || name == "node_modules"
}

// Watcher emits a signal when a .go file under root changes.
type Watcher struct {
	fsw    *fsnotify.Watcher
	logger *log.Logger

	// Changes receives one value per debounced burst of file events.
	Changes chan struct{}
}

// New builds a watcher over every source directory under root.
func New(root string, logger *log.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && skipDir(d.Name()) {
			return filepath.SkipDir
		}
		return fsw.Add(path)
	})
	if err != nil {
		fsw.Close()
		return nil, err
	}

	return &Watcher{
		fsw:     fsw,
		logger:  logger,
		Changes: make(chan struct{}, 1),
	}, nil
}

// Watch forwards debounced source changes to Changes until ctx ends.
func (w *Watcher) Watch(ctx context.Context) {
	var timer *time.Timer
	fire := func() {
		select {
		case w.Changes <- struct{}{}:
		default:
		}
	}

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if !relevant(event) {
				continue
			}
			// New directories need watching too.
			if event.Op.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() && !skipDir(filepath.Base(event.Name)) {
					_ = w.fsw.Add(event.Name)
					continue
				}
			}
			if timer == nil {
				timer = time.AfterFunc(debounce, fire)
			} else {
				timer.Reset(debounce)
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watch error", log.FieldError, err)
		}
	}
}

func (w *Watcher) Close() error {
	return w.fsw.Close()
}

func relevant(event fsnotify.Event) bool {
	if event.Op.Has(fsnotify.Chmod) {
		return false
	}
	if event.Op.Has(fsnotify.Create) {
		// Directory creation is handled by the caller.
		return true
	}
	return strings.HasSuffix(event.Name, ".go")
}

// RunAndReload keeps target running, restarting it on every change signal,
// until ctx is cancelled. The child's exit between restarts is expected;
// a child that dies on its own is restarted on the next change.
func RunAndReload(ctx context.Context, w *Watcher, root string, target []string, logger *log.Logger) error {
	go w.Watch(ctx)

	for {
		cmd := exec.CommandContext(ctx, target[0], target[1:]...)
		cmd.Dir = root
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
		// Own process group so go run's children die with it.
		cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

		if err := cmd.Start(); err != nil {
			return err
		}
		logger.Info("started", "pid", cmd.Process.Pid)

		exited := make(chan error, 1)
		go func() { exited <- cmd.Wait() }()

		select {
		case <-ctx.Done():
			stop(cmd, exited)
			return ctx.Err()
		case <-w.Changes:
			logger.Info("source changed, restarting")
			stop(cmd, exited)
		case err := <-exited:
			logger.Warn("process exited, waiting for changes", log.FieldError, err)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-w.Changes:
			}
		}
	}
}

// stop terminates the child's process group, escalating to SIGKILL when it
// ignores SIGTERM, and reaps it through the exited channel.
func stop(cmd *exec.Cmd, exited <-chan error) {
	if cmd.Process == nil {
		return
	}
	// Negative pid signals the whole process group.
	_ = syscall.Kill(-cmd.Process.Pid, syscall.SIGTERM)

	select {
	case <-exited:
	case <-time.After(3 * time.Second):
		_ = syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
		<-exited
	}
}
