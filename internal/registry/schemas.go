package registry

import (
	"sort"
	"sync"

	"github.com/phxls/workspace-index/internal/extract"
	"github.com/phxls/workspace-index/internal/metadata"
	"github.com/phxls/workspace-index/internal/modname"
)

// Schemas is the record schema registry.
type Schemas struct {
	table *Table[*metadata.RecordSchema]
	ex    *extract.Extractor[*metadata.RecordSchema]

	mu   sync.RWMutex
	view *schemaView
}

type schemaView struct {
	byModule    map[string]*metadata.RecordSchema
	byNamespace map[string][]*metadata.RecordSchema
}

// NewSchemas returns an empty schema registry.
func NewSchemas(ex *extract.Extractor[*metadata.RecordSchema]) *Schemas {
	return &Schemas{
		table: NewTable[*metadata.RecordSchema](),
		ex:    ex,
		view: &schemaView{
			byModule:    map[string]*metadata.RecordSchema{},
			byNamespace: map[string][]*metadata.RecordSchema{},
		},
	}
}

// Table exposes the underlying source cache (snapshot persistence).
func (s *Schemas) Table() *Table[*metadata.RecordSchema] { return s.table }

// Update re-derives schemas from one file.
func (s *Schemas) Update(filePath string, content []byte) bool {
	_, changed := s.table.Update(filePath, content, func() []*metadata.RecordSchema {
		return s.ex.Extract(filePath, content)
	})
	if changed {
		s.rebuild()
	}
	return changed
}

// Remove drops a file's schemas when the file is confirmed gone.
func (s *Schemas) Remove(filePath string) {
	if s.table.Remove(filePath) {
		s.rebuild()
	}
}

// Forget drops a file's schemas without a disk check.
func (s *Schemas) Forget(filePath string) {
	if s.table.Forget(filePath) {
		s.rebuild()
	}
}

// Rebuild recomputes the module index (snapshot restore).
func (s *Schemas) Rebuild() { s.rebuild() }

func (s *Schemas) rebuild() {
	view := &schemaView{
		byModule:    map[string]*metadata.RecordSchema{},
		byNamespace: map[string][]*metadata.RecordSchema{},
	}
	paths := s.table.Paths()
	sort.Strings(paths)
	for _, p := range paths {
		for _, schema := range s.table.Get(p) {
			if _, ok := view.byModule[schema.Module]; ok {
				continue // first definition wins
			}
			view.byModule[schema.Module] = schema
			ns := modname.Namespace(schema.Module)
			view.byNamespace[ns] = append(view.byNamespace[ns], schema)
		}
	}
	s.mu.Lock()
	s.view = view
	s.mu.Unlock()
}

func (s *Schemas) snapshot() *schemaView {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.view
}

// Get returns the schema for an exact canonical module name, or nil.
func (s *Schemas) Get(module string) *metadata.RecordSchema {
	return s.snapshot().byModule[module]
}

// InNamespace returns the schemas whose module lives directly in the
// given namespace.
func (s *Schemas) InNamespace(ns string) []*metadata.RecordSchema {
	return s.snapshot().byNamespace[ns]
}

// All returns every known schema sorted by module.
func (s *Schemas) All() []*metadata.RecordSchema {
	view := s.snapshot()
	out := make([]*metadata.RecordSchema, 0, len(view.byModule))
	for _, schema := range view.byModule {
		out = append(out, schema)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Module < out[j].Module })
	return out
}
