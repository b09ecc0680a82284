// Package watcher polls one workspace for file changes and triggers a
// rescan. Polling intervals adapt to workspace size so large trees are
// not walked every second.
package watcher

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/phxls/workspace-index/internal/discover"
)

const (
	baseInterval = 1 * time.Second
	maxInterval  = 60 * time.Second
)

type fileSnapshot struct {
	modTime time.Time
	size    int64
}

// RescanFunc is the callback signature for triggering a re-index.
type RescanFunc func(ctx context.Context) error

// Watcher polls a workspace root for file changes.
type Watcher struct {
	root     string
	opts     *discover.Options
	rescan   RescanFunc
	snapshot map[string]fileSnapshot
	interval time.Duration
}

// New creates a Watcher. rescan is called when file changes are detected.
func New(root string, opts *discover.Options, rescan RescanFunc) *Watcher {
	return &Watcher{root: root, opts: opts, rescan: rescan, interval: baseInterval}
}

// Run blocks until ctx is cancelled, polling at an adaptive interval.
// The first poll captures a baseline without triggering a rescan.
func (w *Watcher) Run(ctx context.Context) {
	timer := time.NewTimer(w.interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			w.poll(ctx)
			timer.Reset(w.interval)
		}
	}
}

func (w *Watcher) poll(ctx context.Context) {
	if _, err := os.Stat(w.root); err != nil {
		slog.Warn("watcher.root_gone", "path", w.root)
		w.interval = maxInterval
		return
	}

	snap, err := captureSnapshot(ctx, w.root, w.opts)
	if err != nil {
		slog.Warn("watcher.snapshot", "err", err)
		return
	}
	w.interval = pollInterval(len(snap))

	if w.snapshot == nil {
		slog.Debug("watcher.baseline", "files", len(snap))
		w.snapshot = snap
		return
	}
	if snapshotsEqual(w.snapshot, snap) {
		return
	}

	slog.Info("watcher.changed", "files", len(snap))
	if err := w.rescan(ctx); err != nil {
		slog.Warn("watcher.rescan", "err", err)
		// Keep old snapshot so we retry next cycle.
		return
	}
	w.snapshot = snap
}

// captureSnapshot walks the tree using discover.Discover and captures
// mtime+size for each file.
func captureSnapshot(ctx context.Context, root string, opts *discover.Options) (map[string]fileSnapshot, error) {
	files, err := discover.Discover(ctx, root, opts)
	if err != nil {
		return nil, err
	}
	snap := make(map[string]fileSnapshot, len(files))
	for _, f := range files {
		info, statErr := os.Stat(f.Path)
		if statErr != nil {
			continue
		}
		snap[f.RelPath] = fileSnapshot{modTime: info.ModTime(), size: info.Size()}
	}
	return snap, nil
}

// snapshotsEqual returns true if two snapshots have identical files with same mtime+size.
func snapshotsEqual(a, b map[string]fileSnapshot) bool {
	if len(a) != len(b) {
		return false
	}
	for path, aSnap := range a {
		bSnap, ok := b[path]
		if !ok {
			return false
		}
		if !aSnap.modTime.Equal(bSnap.modTime) || aSnap.size != bSnap.size {
			return false
		}
	}
	return true
}

// pollInterval computes the adaptive interval from file count.
// 1s base + 1s per 500 files, capped at 60s.
func pollInterval(fileCount int) time.Duration {
	ms := 1000 + (fileCount/500)*1000
	if ms > 60000 {
		ms = 60000
	}
	return time.Duration(ms) * time.Millisecond
}
