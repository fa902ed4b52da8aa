package watch

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"

	"expensetracker/internal/log"
)

func TestRelevant(t *testing.T) {
	cases := []struct {
		name  string
		event fsnotify.Event
		want  bool
	}{
		{"go file write", fsnotify.Event{Name: "main.go", Op: fsnotify.Write}, true},
		{"non-go write", fsnotify.Event{Name: "README.md", Op: fsnotify.Write}, false},
		{"chmod ignored", fsnotify.Event{Name: "main.go", Op: fsnotify.Chmod}, false},
		{"create passes through", fsnotify.Event{Name: "newdir", Op: fsnotify.Create}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := relevant(tc.event); got != tc.want {
				t.Fatalf("relevant(%v) = %v, want %v", tc.event, got, tc.want)
			}
		})
	}
}

func TestSkipDir(t *testing.T) {
	for dir, want := range map[string]bool{
		".git":     true,
		".devctl":  true,
		"vendor":   true,
		"data":     true,
		"cmd":      false,
		"internal": false,
	} {
		if got := skipDir(dir); got != want {
			t.Errorf("skipDir(%q) = %v, want %v", dir, got, want)
		}
	}
}

func TestWatcherSignalsOnGoFileChange(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "internal"), 0o755); err != nil {
		t.Fatal(err)
	}

	logger := log.New(log.Config{Level: slog.Level(99), Component: "watch"})
	w, err := New(root, logger)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Watch(ctx)

	// Give the watch loop a moment before generating the event.
	time.Sleep(50 * time.Millisecond)
	if err := os.WriteFile(filepath.Join(root, "internal", "x.go"), []byte("package internal\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case <-w.Changes:
	case <-time.After(5 * time.Second):
		t.Fatal("no change signal after writing a .go file")
	}
}
