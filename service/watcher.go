package service

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"cosmossdk.io/log"
	"github.com/fsnotify/fsnotify"

	"github.com/narasim-teja/tars/pipeline"
)

// Watcher feeds files dropped into a directory through the pipeline.
// Existing files are scanned once at startup, then filesystem events
// drive the rest. The dedup ledger makes rescans of the same file a
// no-op, so restarts never double-publish.
type Watcher struct {
	dir    string
	pipe   *pipeline.Pipeline
	logger log.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewWatcher(dir string, pipe *pipeline.Pipeline, logger log.Logger) *Watcher {
	return &Watcher{
		dir:    dir,
		pipe:   pipe,
		logger: logger.With("module", "watcher"),
	}
}

// settleDelay gives the writing process time to finish before the file
// is read. Partially written files fail decode and are retried on the
// next write event.
const settleDelay = 500 * time.Millisecond

func (w *Watcher) Start() error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := fw.Add(w.dir); err != nil {
		fw.Close()
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	w.cancel = cancel

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer fw.Close()
		w.scanExisting(ctx)
		w.loop(ctx, fw)
	}()
	return nil
}

func (w *Watcher) Stop() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
}

func (w *Watcher) scanExisting(ctx context.Context) {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		w.logger.Error("scan dir", "dir", w.dir, "err", err)
		return
	}
	for _, e := range entries {
		if ctx.Err() != nil {
			return
		}
		if e.IsDir() {
			continue
		}
		w.processFile(ctx, filepath.Join(w.dir, e.Name()))
	}
}

func (w *Watcher) loop(ctx context.Context, fw *fsnotify.Watcher) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-fw.Events:
			if !ok {
				return
			}
			if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) {
				continue
			}
			select {
			case <-ctx.Done():
				return
			case <-time.After(settleDelay):
			}
			w.processFile(ctx, ev.Name)
		case err, ok := <-fw.Errors:
			if !ok {
				return
			}
			w.logger.Error("watch error", "err", err)
		}
	}
}

func isImageFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".jpg", ".jpeg", ".png", ".gif", ".bmp", ".tif", ".tiff":
		return true
	}
	return false
}

func (w *Watcher) processFile(ctx context.Context, path string) {
	if !isImageFile(path) {
		return
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		w.logger.Error("read file", "path", path, "err", err)
		return
	}
	out := w.pipe.Process(ctx, raw, filepath.Base(path))
	w.logger.Info("watched file processed", "path", path,
		"status", out.Status, "reason", out.Reason)
}
