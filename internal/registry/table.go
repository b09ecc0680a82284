// Package registry holds the per-kind canonical maps and the change
// coordination that keeps them incrementally consistent. Each registry is
// an owned, explicitly-constructed object: one writer, many readers, no
// ambient singletons.
package registry

import (
	"errors"
	"io/fs"
	"os"
	"sync"
	"sync/atomic"

	"github.com/zeebo/xxh3"
)

// Table is the source cache for one metadata kind: per-path content
// fingerprints plus the derived entity sets. Updates are atomic whole-entry
// replacements; readers never observe a torn state. A monotonically
// increasing sequence claimed before parsing guarantees that an older
// update completing late cannot clobber a newer one.
type Table[E any] struct {
	mu      sync.RWMutex
	entries map[string]*entry[E]
	seq     atomic.Uint64
	stat    func(path string) error
}

type entry[E any] struct {
	hash  uint64
	seq   uint64
	items []E
}

// NewTable returns an empty Table using the real filesystem for removal
// existence checks.
func NewTable[E any]() *Table[E] {
	return &Table[E]{
		entries: make(map[string]*entry[E]),
		stat: func(path string) error {
			_, err := os.Stat(path)
			return err
		},
	}
}

// SetStat overrides the disk existence check used by Remove.
func (t *Table[E]) SetStat(fn func(path string) error) {
	t.stat = fn
}

// Update replaces the entity set derived from path. An unchanged content
// fingerprint is a guaranteed no-op: parse is not invoked and the returned
// slice is reference-identical to the previous call's. An empty parse
// result for a previously non-empty file keeps the prior entities (the
// file is usually mid-edit, not intentionally emptied) while still
// recording the new fingerprint.
func (t *Table[E]) Update(path string, content []byte, parse func() []E) (items []E, changed bool) {
	hash := xxh3.Hash(content)

	t.mu.RLock()
	if e, ok := t.entries[path]; ok && e.hash == hash {
		items = e.items
		t.mu.RUnlock()
		return items, false
	}
	t.mu.RUnlock()

	seq := t.seq.Add(1)
	parsed := parse() // outside the lock: the full new state is built before publication

	t.mu.Lock()
	defer t.mu.Unlock()

	cur := t.entries[path]
	if cur != nil && cur.seq > seq {
		// A newer update committed while we were parsing. Last hash wins.
		return cur.items, false
	}
	if cur != nil && len(parsed) == 0 && len(cur.items) > 0 {
		t.entries[path] = &entry[E]{hash: hash, seq: seq, items: cur.items}
		return cur.items, false
	}
	t.entries[path] = &entry[E]{hash: hash, seq: seq, items: parsed}
	return parsed, true
}

// Remove deletes the cached entity set for path only when a disk existence
// check confirms the file is gone. Ambiguous I/O failures keep the entry:
// better a stale index than data loss. Reports whether anything changed.
func (t *Table[E]) Remove(path string) bool {
	err := t.stat(path)
	if err == nil || !errors.Is(err, fs.ErrNotExist) {
		return false
	}
	return t.Forget(path)
}

// Forget drops the entry for path without any disk check. Used by the
// workspace sweep, which has already established the file is gone.
func (t *Table[E]) Forget(path string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.entries[path]; !ok {
		return false
	}
	delete(t.entries, path)
	return true
}

// Get returns the committed entity set for path, or nil.
func (t *Table[E]) Get(path string) []E {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if e, ok := t.entries[path]; ok {
		return e.items
	}
	return nil
}

// Hash returns the committed content fingerprint for path.
func (t *Table[E]) Hash(path string) (uint64, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if e, ok := t.entries[path]; ok {
		return e.hash, true
	}
	return 0, false
}

// Paths returns all cached paths.
func (t *Table[E]) Paths() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	paths := make([]string, 0, len(t.entries))
	for p := range t.entries {
		paths = append(paths, p)
	}
	return paths
}

// Range calls fn for every entry until fn returns false. The entity
// slices must be treated as read-only.
func (t *Table[E]) Range(fn func(path string, hash uint64, items []E) bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for p, e := range t.entries {
		if !fn(p, e.hash, e.items) {
			return
		}
	}
}

// Restore seeds an entry from a warm-start snapshot. Restored entries are
// never authoritative: a rescan re-hashes live content and replaces any
// divergence through the normal Update path.
func (t *Table[E]) Restore(path string, hash uint64, items []E) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries[path] = &entry[E]{hash: hash, seq: t.seq.Add(1), items: items}
}

// Len returns the number of cached paths.
func (t *Table[E]) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries)
}
