// Package watch re-imports content files as they change on disk.
package watch

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/dgallion1/articlepipe/internal/parser"
)

// SubmitFunc hands one changed file to the importer.
type SubmitFunc func(name string, data []byte) error

type Options struct {
	Dir      string
	Debounce time.Duration
	MaxBytes int64

	// Busy reports whether a submit error means the importer is
	// momentarily full. Such submits are retried after RetryDelay,
	// doubling up to maxRetryDelay, until they succeed or ctx ends.
	Busy       func(error) bool
	RetryDelay time.Duration
}

const maxRetryDelay = 2 * time.Second

// Watcher scans a content directory once and then submits every supported
// file that is created or written, after a quiet period.
type Watcher struct {
	opts   Options
	submit SubmitFunc
	log    *slog.Logger

	fsw     *fsnotify.Watcher
	pending map[string]struct{}
}

func New(opts Options, submit SubmitFunc, log *slog.Logger) *Watcher {
	if opts.Debounce <= 0 {
		opts.Debounce = 500 * time.Millisecond
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = 50 * time.Millisecond
	}
	return &Watcher{
		opts:    opts,
		submit:  submit,
		log:     log.With("component", "watch", "dir", opts.Dir),
		pending: make(map[string]struct{}),
	}
}

// Run blocks until ctx is done or the underlying watcher fails to start.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fsw.Close()
	w.fsw = fsw

	if err := w.addTree(w.opts.Dir, false); err != nil {
		return err
	}
	w.scan(ctx, w.opts.Dir)
	w.log.Info("watching for content changes")

	debounce := time.NewTimer(time.Hour)
	debounce.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			w.handle(ev)
			if len(w.pending) > 0 {
				debounce.Reset(w.opts.Debounce)
			}
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("watcher error", "error", err)
		case <-debounce.C:
			w.flush(ctx)
		}
	}
}

func (w *Watcher) handle(ev fsnotify.Event) {
	if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
		return
	}
	info, err := os.Stat(ev.Name)
	if err != nil {
		return
	}
	if info.IsDir() {
		if ev.Op&fsnotify.Create != 0 {
			if err := w.addTree(ev.Name, true); err != nil {
				w.log.Warn("watch new directory", "path", ev.Name, "error", err)
			}
		}
		return
	}
	if wanted(ev.Name) {
		w.pending[ev.Name] = struct{}{}
	}
}

// addTree watches dir and its subdirectories. With queue set, files found
// in them are queued as well, which covers files created before the
// directory watch was in place.
func (w *Watcher) addTree(dir string, queue bool) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != dir && hidden(d.Name()) {
				return filepath.SkipDir
			}
			return w.fsw.Add(path)
		}
		if queue && wanted(path) {
			w.pending[path] = struct{}{}
		}
		return nil
	})
}

// scan submits every supported file under dir.
func (w *Watcher) scan(ctx context.Context, dir string) {
	n := 0
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != dir && hidden(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if wanted(path) {
			w.submitPath(ctx, path)
			n++
		}
		return nil
	})
	if err != nil && ctx.Err() == nil {
		w.log.Warn("initial scan", "error", err)
	}
	w.log.Info("initial scan complete", "files", n)
}

func (w *Watcher) flush(ctx context.Context) {
	for path := range w.pending {
		if ctx.Err() != nil {
			return
		}
		w.submitPath(ctx, path)
		delete(w.pending, path)
	}
}

func (w *Watcher) submitPath(ctx context.Context, path string) {
	info, err := os.Stat(path)
	if err != nil {
		w.log.Warn("stat changed file", "path", path, "error", err)
		return
	}
	if w.opts.MaxBytes > 0 && info.Size() > w.opts.MaxBytes {
		w.log.Warn("file too large, skipping", "path", path, "size", info.Size())
		return
	}
	data, err := os.ReadFile(path)
	if err != nil {
		w.log.Warn("read changed file", "path", path, "error", err)
		return
	}
	if err := w.submitRetry(ctx, filepath.Base(path), data); err != nil {
		w.log.Error("submit failed", "path", path, "error", err)
		return
	}
	w.log.Info("file submitted", "path", path)
}

// submitRetry calls submit, waiting and trying again while the importer
// reports itself busy.
func (w *Watcher) submitRetry(ctx context.Context, name string, data []byte) error {
	delay := w.opts.RetryDelay
	for {
		err := w.submit(name, data)
		if err == nil || w.opts.Busy == nil || !w.opts.Busy(err) {
			return err
		}
		w.log.Debug("importer busy, retrying", "file", name, "delay", delay)
		t := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			t.Stop()
			return fmt.Errorf("%w (gave up: %w)", err, ctx.Err())
		case <-t.C:
		}
		delay = min(delay*2, maxRetryDelay)
	}
}

func wanted(path string) bool {
	return !hidden(filepath.Base(path)) && parser.IsSupportedExtension(path)
}

// hidden matches dotfiles and editor temp files.
func hidden(name string) bool {
	return strings.HasPrefix(name, ".") || strings.HasPrefix(name, "~") || strings.HasSuffix(name, "~")
}
