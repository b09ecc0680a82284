package registry

import (
	"sort"
	"sync"

	"github.com/phxls/workspace-index/internal/extract"
	"github.com/phxls/workspace-index/internal/metadata"
)

// Events indexes handle_event and handle_info heads. The primary query
// is existence: does any live view in the workspace answer to this name.
type Events struct {
	table *Table[*metadata.EventHandler]
	ex    *extract.Extractor[*metadata.EventHandler]

	mu   sync.RWMutex
	view *eventView
}

type eventView struct {
	names  map[string]bool
	byName map[string][]*metadata.EventHandler
}

// NewEvents returns an empty event registry.
func NewEvents(ex *extract.Extractor[*metadata.EventHandler]) *Events {
	return &Events{
		table: NewTable[*metadata.EventHandler](),
		ex:    ex,
		view:  &eventView{names: map[string]bool{}, byName: map[string][]*metadata.EventHandler{}},
	}
}

// Table exposes the underlying source cache (snapshot persistence).
func (e *Events) Table() *Table[*metadata.EventHandler] { return e.table }

// Update re-derives event handlers from one file.
func (e *Events) Update(filePath string, content []byte) bool {
	_, changed := e.table.Update(filePath, content, func() []*metadata.EventHandler {
		return e.ex.Extract(filePath, content)
	})
	if changed {
		e.rebuild()
	}
	return changed
}

// Remove drops a path's handlers when the file is confirmed gone.
func (e *Events) Remove(path string) {
	if e.table.Remove(path) {
		e.rebuild()
	}
}

// Forget drops a path's handlers without a disk check.
func (e *Events) Forget(path string) {
	if e.table.Forget(path) {
		e.rebuild()
	}
}

// Rebuild recomputes the lookup view (snapshot restore).
func (e *Events) Rebuild() { e.rebuild() }

func (e *Events) rebuild() {
	view := &eventView{names: map[string]bool{}, byName: map[string][]*metadata.EventHandler{}}
	paths := e.table.Paths()
	sort.Strings(paths)
	for _, p := range paths {
		for _, h := range e.table.Get(p) {
			view.names[h.Name] = true
			view.byName[h.Name] = append(view.byName[h.Name], h)
		}
	}
	e.mu.Lock()
	e.view = view
	e.mu.Unlock()
}

func (e *Events) snapshot() *eventView {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.view
}

// Exists reports whether any handler with this name is indexed,
// regardless of kind.
func (e *Events) Exists(name string) bool {
	return e.snapshot().names[name]
}

// Named returns every handler registered under the name.
func (e *Events) Named(name string) []*metadata.EventHandler {
	return e.snapshot().byName[name]
}

// Names returns all handler names, sorted.
func (e *Events) Names() []string {
	view := e.snapshot()
	out := make([]string, 0, len(view.names))
	for n := range view.names {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
