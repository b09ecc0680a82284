package workspace

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/zeebo/xxh3"

	"github.com/phxls/workspace-index/internal/registry"
	"github.com/phxls/workspace-index/internal/store"
)

// Snapshot row kinds, one per registry.
const (
	kindComponents = "components"
	kindSchemas    = "schemas"
	kindRenders    = "renders"
	kindTemplates  = "templates"
	kindEvents     = "events"
)

// openSnapshot opens (or creates) the snapshot store for this workspace
// and warm-starts the registries from it. Load failures are logged and
// skipped per kind: a partial warm start is still a valid cold start for
// the missing kinds, since Scan reconciles everything against disk.
func (s *Session) openSnapshot() error {
	var (
		st  *store.Store
		err error
	)
	if path := s.cfg.Index.SnapshotPath; path != "" {
		st, err = store.OpenPath(path)
	} else {
		st, err = store.Open(snapshotName(s.root))
	}
	if err != nil {
		return err
	}
	s.snap = st

	loadTable(st, kindComponents, s.components.Table())
	loadTable(st, kindSchemas, s.schemas.Table())
	loadTable(st, kindRenders, s.renders.Table())
	loadTable(st, kindTemplates, s.templates.Table())
	loadTable(st, kindEvents, s.events.Table())

	s.components.Rebuild()
	s.schemas.Rebuild()
	s.renders.Rebuild()
	s.templates.Rebuild()
	s.events.Rebuild()
	s.usage.Rebuild()
	return nil
}

func (s *Session) saveSnapshot() error {
	s.snapMu.Lock()
	defer s.snapMu.Unlock()
	return s.saveSnapshotLocked()
}

func (s *Session) saveSnapshotLocked() error {
	if s.snap == nil {
		return nil
	}
	if err := saveTable(s.snap, kindComponents, s.components.Table()); err != nil {
		return err
	}
	if err := saveTable(s.snap, kindSchemas, s.schemas.Table()); err != nil {
		return err
	}
	if err := saveTable(s.snap, kindRenders, s.renders.Table()); err != nil {
		return err
	}
	if err := saveTable(s.snap, kindTemplates, s.templates.Table()); err != nil {
		return err
	}
	return saveTable(s.snap, kindEvents, s.events.Table())
}

// snapshotName derives a stable per-workspace database name from the
// absolute root path.
func snapshotName(root string) string {
	abs, err := filepath.Abs(root)
	if err != nil {
		abs = root
	}
	return fmt.Sprintf("%s-%012x", filepath.Base(abs), xxh3.HashString(abs)&0xffffffffffff)
}

func saveTable[E any](st *store.Store, kind string, t *registry.Table[E]) error {
	var entries []store.FileEntities
	var marshalErr error
	t.Range(func(path string, hash uint64, items []E) bool {
		payload, err := json.Marshal(items)
		if err != nil {
			marshalErr = fmt.Errorf("marshal %s %s: %w", kind, path, err)
			return false
		}
		entries = append(entries, store.FileEntities{Path: path, Hash: hash, Payload: payload})
		return true
	})
	if marshalErr != nil {
		return marshalErr
	}
	return st.SaveKind(kind, entries)
}

func loadTable[E any](st *store.Store, kind string, t *registry.Table[E]) {
	entries, err := st.LoadKind(kind)
	if err != nil {
		slog.Warn("snapshot.load", "kind", kind, "err", err)
		return
	}
	for _, e := range entries {
		var items []E
		if err := json.Unmarshal(e.Payload, &items); err != nil {
			slog.Debug("snapshot.decode", "kind", kind, "path", e.Path, "err", err)
			continue
		}
		t.Restore(e.Path, e.Hash, items)
	}
}
