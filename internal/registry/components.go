package registry

import (
	"path/filepath"
	"sort"
	"sync"

	"github.com/phxls/workspace-index/internal/extract"
	"github.com/phxls/workspace-index/internal/metadata"
)

// Components is the UI component registry. The canonical per-file map
// lives in the Table; read queries go through an immutable merged view
// that is rebuilt in full and swapped atomically on every commit, so
// multi-clause merges across files stay consistent for readers.
type Components struct {
	table *Table[*metadata.UIComponent]
	ex    *extract.Extractor[*metadata.UIComponent]

	mu   sync.RWMutex
	view *componentView
}

type componentView struct {
	byKey    map[string]*metadata.UIComponent   // "Module.name"
	byModule map[string][]*metadata.UIComponent // owning module
	byDir    map[string][]*metadata.UIComponent // dir of defining file
	all      []*metadata.UIComponent
}

// NewComponents returns an empty component registry using the given
// extractor.
func NewComponents(ex *extract.Extractor[*metadata.UIComponent]) *Components {
	return &Components{
		table: NewTable[*metadata.UIComponent](),
		ex:    ex,
		view:  emptyComponentView(),
	}
}

func emptyComponentView() *componentView {
	return &componentView{
		byKey:    map[string]*metadata.UIComponent{},
		byModule: map[string][]*metadata.UIComponent{},
		byDir:    map[string][]*metadata.UIComponent{},
	}
}

// Table exposes the underlying source cache (snapshot persistence).
func (c *Components) Table() *Table[*metadata.UIComponent] { return c.table }

// Update re-derives components from one file. Reports whether the
// canonical map changed.
func (c *Components) Update(filePath string, content []byte) bool {
	_, changed := c.table.Update(filePath, content, func() []*metadata.UIComponent {
		return c.ex.Extract(filePath, content)
	})
	if changed {
		c.rebuild()
	}
	return changed
}

// Remove drops a file's components when the file is confirmed gone.
func (c *Components) Remove(filePath string) {
	if c.table.Remove(filePath) {
		c.rebuild()
	}
}

// Forget drops a file's components without a disk check.
func (c *Components) Forget(filePath string) {
	if c.table.Forget(filePath) {
		c.rebuild()
	}
}

// Rebuild recomputes the merged view. Exposed for snapshot restore, which
// seeds the table directly.
func (c *Components) Rebuild() { c.rebuild() }

func (c *Components) rebuild() {
	view := emptyComponentView()

	// Deterministic merge order: sorted file paths, then declaration order.
	paths := c.table.Paths()
	sort.Strings(paths)
	for _, p := range paths {
		for _, comp := range c.table.Get(p) {
			key := comp.Key()
			if existing, ok := view.byKey[key]; ok {
				mergeComponent(existing, comp)
				continue
			}
			merged := cloneComponent(comp)
			view.byKey[key] = merged
			view.byModule[merged.Module] = append(view.byModule[merged.Module], merged)
			view.byDir[filepath.Dir(merged.FilePath)] = append(view.byDir[filepath.Dir(merged.FilePath)], merged)
			view.all = append(view.all, merged)
		}
	}

	c.mu.Lock()
	c.view = view
	c.mu.Unlock()
}

// mergeComponent folds src into dst under the multi-clause merge rules:
// dst (the first occurrence) keeps location and doc, attribute and slot
// lists are unioned keeping the first occurrence per name.
func mergeComponent(dst, src *metadata.UIComponent) {
	if dst.Doc == "" {
		dst.Doc = src.Doc
	}
	for _, a := range src.Attrs {
		if !hasAttr(dst.Attrs, a.Name) {
			dst.Attrs = append(dst.Attrs, a)
		}
	}
	for _, s := range src.Slots {
		if !hasSlot(dst.Slots, s.Name) {
			dst.Slots = append(dst.Slots, s)
		}
	}
}

func hasAttr(attrs []metadata.Attribute, name string) bool {
	for _, a := range attrs {
		if a.Name == name {
			return true
		}
	}
	return false
}

func hasSlot(slots []metadata.Slot, name string) bool {
	for _, s := range slots {
		if s.Name == name {
			return true
		}
	}
	return false
}

func cloneComponent(c *metadata.UIComponent) *metadata.UIComponent {
	out := *c
	out.Attrs = append([]metadata.Attribute(nil), c.Attrs...)
	out.Slots = append([]metadata.Slot(nil), c.Slots...)
	return &out
}

func (c *Components) snapshot() *componentView {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.view
}

// Lookup returns the component for an exact (module, name) pair, or nil.
func (c *Components) Lookup(module, name string) *metadata.UIComponent {
	return c.snapshot().byKey[module+"."+name]
}

// InModule returns all components owned by a module.
func (c *Components) InModule(module string) []*metadata.UIComponent {
	return c.snapshot().byModule[module]
}

// InDir returns all components defined by files in a directory.
func (c *Components) InDir(dir string) []*metadata.UIComponent {
	return c.snapshot().byDir[dir]
}

// Named returns all components with the given name, sorted by module for
// deterministic resolution.
func (c *Components) Named(name string) []*metadata.UIComponent {
	view := c.snapshot()
	var out []*metadata.UIComponent
	for _, comp := range view.all {
		if comp.Name == name {
			out = append(out, comp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Module < out[j].Module })
	return out
}

// All returns every merged component.
func (c *Components) All() []*metadata.UIComponent {
	view := c.snapshot()
	out := make([]*metadata.UIComponent, len(view.all))
	copy(out, view.all)
	sort.Slice(out, func(i, j int) bool { return out[i].Key() < out[j].Key() })
	return out
}
