// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package watch uploads PDF files as they appear in a directory.
package watch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/jeranaias/pdfchat-tui/internal/document"
)

// Uploader sends a batch of files. *session.Controller implements it.
type Uploader interface {
	Upload(ctx context.Context, files []document.File) error
}

// Options configures a Watcher.
type Options struct {
	// Debounce is how long a path must be quiet before it is uploaded.
	Debounce time.Duration

	// UploadsPerMinute caps upload requests. Zero means unlimited.
	UploadsPerMinute int

	// IncludeExisting uploads PDFs already present when Run starts.
	IncludeExisting bool

	// OnUpload is called after each upload attempt.
	OnUpload func(path string, err error)

	Logger *zap.Logger
}

// DefaultDebounce is used when Options.Debounce is zero.
const DefaultDebounce = 500 * time.Millisecond

// fingerprint identifies one version of a file so repeated write events
// for unchanged content do not upload it twice.
type fingerprint struct {
	size    int64
	modTime time.Time
}

// Watcher watches one directory (not recursively) for new or changed PDFs.
type Watcher struct {
	dir      string
	uploader Uploader
	opts     Options
	logger   *zap.Logger
	limiter  *rate.Limiter

	mu       sync.Mutex
	pending  map[string]time.Time // path -> last event time
	uploaded map[string]fingerprint
}

// New creates a Watcher for dir. It fails if dir is not a directory.
func New(dir string, uploader Uploader, opts Options) (*Watcher, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", dir, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("watch %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("watch %s: not a directory", dir)
	}

	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if opts.UploadsPerMinute > 0 {
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(opts.UploadsPerMinute)), 1)
	}

	return &Watcher{
		dir:      abs,
		uploader: uploader,
		opts:     opts,
		logger:   logger.Named("watch"),
		limiter:  limiter,
		pending:  make(map[string]time.Time),
		uploaded: make(map[string]fingerprint),
	}, nil
}

// Dir returns the absolute watched directory.
func (w *Watcher) Dir() string {
	return w.dir
}

// Run watches until ctx is cancelled. It returns nil on cancellation and an
// error if the directory cannot be watched.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fsw.Close()

	if err := fsw.Add(w.dir); err != nil {
		return fmt.Errorf("watch %s: %w", w.dir, err)
	}
	w.logger.Info("watching directory", zap.String("dir", w.dir))

	if w.opts.IncludeExisting {
		w.queueExisting()
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		w.processPending(ctx)
	}()

	err = w.processEvents(ctx, fsw)
	cancel()
	wg.Wait()
	return err
}

// queueExisting marks every PDF already in the directory as pending.
func (w *Watcher) queueExisting() {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		w.logger.Warn("list directory", zap.Error(err))
		return
	}
	now := time.Now()
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, e := range entries {
		if !e.IsDir() && isPDFName(e.Name()) {
			w.pending[filepath.Join(w.dir, e.Name())] = now
		}
	}
}

func (w *Watcher) processEvents(ctx context.Context, fsw *fsnotify.Watcher) error {
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
					w.forget(event.Name)
				}
				continue
			}
			if !isPDFName(event.Name) {
				continue
			}
			w.mu.Lock()
			w.pending[event.Name] = time.Now()
			w.mu.Unlock()

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			if errors.Is(err, fsnotify.ErrEventOverflow) {
				w.logger.Warn("event queue overflow, rescanning", zap.String("dir", w.dir))
				w.queueExisting()
				continue
			}
			w.logger.Warn("watch error", zap.Error(err))
		}
	}
}

func (w *Watcher) forget(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.pending, path)
	delete(w.uploaded, path)
}

// processPending uploads paths whose last event is older than the debounce.
func (w *Watcher) processPending(ctx context.Context) {
	tick := w.opts.Debounce / 4
	if tick < 10*time.Millisecond {
		tick = 10 * time.Millisecond
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			for _, path := range w.takeReady(now) {
				if ctx.Err() != nil {
					return
				}
				w.uploadPath(ctx, path)
			}
		}
	}
}

func (w *Watcher) takeReady(now time.Time) []string {
	w.mu.Lock()
	defer w.mu.Unlock()

	var ready []string
	for path, last := range w.pending {
		if now.Sub(last) >= w.opts.Debounce {
			ready = append(ready, path)
			delete(w.pending, path)
		}
	}
	return ready
}

func (w *Watcher) uploadPath(ctx context.Context, path string) {
	f, err := document.FromPath(path)
	if err != nil {
		// Removed or replaced by a directory before it settled.
		w.logger.Debug("skip path", zap.String("path", path), zap.Error(err))
		return
	}

	info, err := os.Stat(path)
	if err != nil {
		return
	}
	fp := fingerprint{size: info.Size(), modTime: info.ModTime()}

	w.mu.Lock()
	seen, ok := w.uploaded[path]
	w.mu.Unlock()
	if ok && seen == fp {
		return
	}

	if err := w.limiter.Wait(ctx); err != nil {
		return
	}

	w.logger.Info("uploading watched file", zap.String("path", path), zap.Int64("size", f.Size))
	err = w.uploader.Upload(ctx, []document.File{f})
	if err == nil {
		w.mu.Lock()
		w.uploaded[path] = fp
		w.mu.Unlock()
	} else {
		w.logger.Warn("upload watched file", zap.String("path", path), zap.Error(err))
	}
	if w.opts.OnUpload != nil {
		w.opts.OnUpload(path, err)
	}
}

func isPDFName(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".pdf")
}
