package registry

import (
	"sort"
	"sync"

	"github.com/phxls/workspace-index/internal/extract"
	"github.com/phxls/workspace-index/internal/metadata"
)

// Renders is the controller render registry. It tracks which file each
// render record came from so the usage aggregator can resolve template
// locations relative to the controller source.
type Renders struct {
	table *Table[*metadata.ControllerRender]
	ex    *extract.Extractor[*metadata.ControllerRender]

	mu   sync.RWMutex
	view *renderView
}

type renderView struct {
	all    []RenderSite
	byCtrl map[string][]RenderSite
}

// RenderSite pairs a render record with the file that declared it.
type RenderSite struct {
	Render   *metadata.ControllerRender
	FilePath string
}

// NewRenders returns an empty render registry.
func NewRenders(ex *extract.Extractor[*metadata.ControllerRender]) *Renders {
	return &Renders{
		table: NewTable[*metadata.ControllerRender](),
		ex:    ex,
		view:  &renderView{byCtrl: map[string][]RenderSite{}},
	}
}

// Table exposes the underlying source cache (snapshot persistence).
func (r *Renders) Table() *Table[*metadata.ControllerRender] { return r.table }

// Update re-derives render records from one file.
func (r *Renders) Update(filePath string, content []byte) bool {
	_, changed := r.table.Update(filePath, content, func() []*metadata.ControllerRender {
		return r.ex.Extract(filePath, content)
	})
	if changed {
		r.rebuild()
	}
	return changed
}

// Remove drops a file's render records when the file is confirmed gone.
func (r *Renders) Remove(filePath string) bool {
	if r.table.Remove(filePath) {
		r.rebuild()
		return true
	}
	return false
}

// Forget drops a file's render records without a disk check.
func (r *Renders) Forget(filePath string) bool {
	if r.table.Forget(filePath) {
		r.rebuild()
		return true
	}
	return false
}

// Rebuild recomputes the view (snapshot restore).
func (r *Renders) Rebuild() { r.rebuild() }

func (r *Renders) rebuild() {
	view := &renderView{byCtrl: map[string][]RenderSite{}}
	paths := r.table.Paths()
	sort.Strings(paths)
	for _, p := range paths {
		for _, render := range r.table.Get(p) {
			site := RenderSite{Render: render, FilePath: p}
			view.all = append(view.all, site)
			view.byCtrl[render.ControllerModule] = append(view.byCtrl[render.ControllerModule], site)
		}
	}
	r.mu.Lock()
	r.view = view
	r.mu.Unlock()
}

func (r *Renders) snapshot() *renderView {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.view
}

// All returns every known render site.
func (r *Renders) All() []RenderSite {
	view := r.snapshot()
	out := make([]RenderSite, len(view.all))
	copy(out, view.all)
	return out
}

// ForController returns the render sites of one controller module.
func (r *Renders) ForController(module string) []RenderSite {
	return r.snapshot().byCtrl[module]
}
