package watch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

type submission struct {
	name string
	data string
}

func startWatcher(t *testing.T, dir string) <-chan submission {
	t.Helper()
	got := make(chan submission, 32)
	w := New(Options{Dir: dir, Debounce: 20 * time.Millisecond}, func(name string, data []byte) error {
		got <- submission{name: name, data: string(data)}
		return nil
	}, slog.New(slog.DiscardHandler))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		if err := <-done; err != nil {
			t.Errorf("run: %v", err)
		}
	})
	return got
}

// waitFor reads submissions until one named name arrives.
func waitFor(t *testing.T, got <-chan submission, name string) submission {
	t.Helper()
	timeout := time.After(5 * time.Second)
	for {
		select {
		case s := <-got:
			if s.name == name {
				return s
			}
			if filepath.Ext(s.name) == ".exe" || s.name == ".draft.md" {
				t.Errorf("unexpected submission %q", s.name)
			}
		case <-timeout:
			t.Fatalf("timed out waiting for %s", name)
		}
	}
}

func write(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestWatcher_InitialScanAndChanges(t *testing.T) {
	dir := t.TempDir()
	write(t, filepath.Join(dir, "intro.md"), "# Intro")
	write(t, filepath.Join(dir, "tool.exe"), "binary")

	got := startWatcher(t, dir)
	if s := waitFor(t, got, "intro.md"); s.data != "# Intro" {
		t.Errorf("data = %q", s.data)
	}

	write(t, filepath.Join(dir, ".draft.md"), "# Hidden")
	write(t, filepath.Join(dir, "next.md"), "# Next")
	if s := waitFor(t, got, "next.md"); s.data != "# Next" {
		t.Errorf("data = %q", s.data)
	}
}

func TestWatcher_NewSubdirectory(t *testing.T) {
	dir := t.TempDir()
	got := startWatcher(t, dir)

	// Give the watcher time to register the root before creating children.
	time.Sleep(50 * time.Millisecond)
	sub := filepath.Join(dir, "tips")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	time.Sleep(50 * time.Millisecond)
	write(t, filepath.Join(sub, "nested.txt"), "Nested")
	waitFor(t, got, "nested.txt")
}

var errBusy = errors.New("busy")

func TestWatcher_RetriesBusySubmits(t *testing.T) {
	dir := t.TempDir()
	const files = 30
	for i := range files {
		write(t, filepath.Join(dir, fmt.Sprintf("a%02d.md", i)), "# A")
	}

	var mu sync.Mutex
	attempts := make(map[string]int)
	accepted := make(map[string]int)
	scanned := make(chan struct{})
	w := New(Options{
		Dir:        dir,
		Busy:       func(err error) bool { return errors.Is(err, errBusy) },
		RetryDelay: time.Millisecond,
	}, func(name string, data []byte) error {
		mu.Lock()
		defer mu.Unlock()
		attempts[name]++
		if attempts[name] < 3 {
			return fmt.Errorf("queue: %w", errBusy)
		}
		accepted[name]++
		if len(accepted) == files {
			close(scanned)
		}
		return nil
	}, slog.New(slog.DiscardHandler))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	select {
	case <-scanned:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for the initial scan")
	}
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("run: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	for name, n := range accepted {
		if n != 1 {
			t.Errorf("%s accepted %d times", name, n)
		}
		if attempts[name] != 3 {
			t.Errorf("%s attempted %d times, want 3", name, attempts[name])
		}
	}
}

func TestWatcher_BusyRetryStopsWithContext(t *testing.T) {
	dir := t.TempDir()
	write(t, filepath.Join(dir, "stuck.md"), "# Stuck")

	tried := make(chan struct{}, 1)
	w := New(Options{
		Dir:        dir,
		Busy:       func(err error) bool { return errors.Is(err, errBusy) },
		RetryDelay: time.Millisecond,
	}, func(string, []byte) error {
		select {
		case tried <- struct{}{}:
		default:
		}
		return errBusy
	}, slog.New(slog.DiscardHandler))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	select {
	case <-tried:
	case <-time.After(5 * time.Second):
		t.Fatal("submit never called")
	}
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("run: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("watcher kept retrying after cancel")
	}
}

func TestWatcher_OtherErrorsAreNotRetried(t *testing.T) {
	dir := t.TempDir()
	write(t, filepath.Join(dir, "bad.md"), "# Bad")

	var mu sync.Mutex
	calls := 0
	w := New(Options{
		Dir:  dir,
		Busy: func(err error) bool { return errors.Is(err, errBusy) },
	}, func(string, []byte) error {
		mu.Lock()
		defer mu.Unlock()
		calls++
		return errors.New("rejected")
	}, slog.New(slog.DiscardHandler))

	if err := w.submitRetry(context.Background(), "bad.md", []byte("# Bad")); err == nil {
		t.Fatal("expected error")
	}
	mu.Lock()
	defer mu.Unlock()
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestWanted(t *testing.T) {
	tests := map[string]bool{
		"a.md":           true,
		"dir/b.HTML":     true,
		"c.exe":          false,
		".hidden.md":     false,
		"~lock.docx":     false,
		"backup.md~":     false,
		"notes.txt":      true,
		"data/table.csv": true,
	}
	for path, want := range tests {
		if got := wanted(path); got != want {
			t.Errorf("wanted(%q) = %v, want %v", path, got, want)
		}
	}
}
