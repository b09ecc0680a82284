package registry

import (
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/phxls/workspace-index/internal/extract"
	"github.com/phxls/workspace-index/internal/metadata"
	"github.com/phxls/workspace-index/internal/modname"
)

// Templates is the template inventory. Elixir sources contribute
// function-embedded templates through the extractor; file-based templates
// are registered directly from discovery with a conventional owning
// module derived from the co-located view file.
type Templates struct {
	table *Table[*metadata.TemplateRecord]
	ex    *extract.Extractor[*metadata.TemplateRecord]

	mu   sync.RWMutex
	view *templateView
}

type templateView struct {
	byPath map[string]*metadata.TemplateRecord
	byKey  map[string]*metadata.TemplateRecord // "Module|name|format"
}

// NewTemplates returns an empty template registry.
func NewTemplates(ex *extract.Extractor[*metadata.TemplateRecord]) *Templates {
	return &Templates{
		table: NewTable[*metadata.TemplateRecord](),
		ex:    ex,
		view: &templateView{
			byPath: map[string]*metadata.TemplateRecord{},
			byKey:  map[string]*metadata.TemplateRecord{},
		},
	}
}

// Table exposes the underlying source cache (snapshot persistence).
func (t *Templates) Table() *Table[*metadata.TemplateRecord] { return t.table }

// UpdateSource re-derives function-embedded templates from an Elixir file.
func (t *Templates) UpdateSource(filePath string, content []byte) bool {
	_, changed := t.table.Update(filePath, content, func() []*metadata.TemplateRecord {
		return t.ex.Extract(filePath, content)
	})
	if changed {
		t.rebuild()
	}
	return changed
}

// UpdateFile registers a file-based template under whatever path form the
// session uses (absolute or relative). The owning module is the camelized
// co-located view directory name: .../user_html/show.html.heex belongs to
// ...UserHTML.
func (t *Templates) UpdateFile(path string, content []byte) bool {
	_, changed := t.table.Update(path, content, func() []*metadata.TemplateRecord {
		return []*metadata.TemplateRecord{extract.FileTemplate(path, owningModuleGuess(path))}
	})
	if changed {
		t.rebuild()
	}
	return changed
}

// owningModuleGuess derives the conventional owning module segment for a
// file-based template from its parent directory: "user_html" -> "UserHTML".
// Only the final segment is derivable from the path alone; key lookups
// therefore match on the module suffix.
func owningModuleGuess(path string) string {
	dir := filepath.Dir(path)
	if dir == "." || dir == string(filepath.Separator) {
		return ""
	}
	return modname.Camelize(filepath.Base(dir))
}

// Remove drops a path's templates when the file is confirmed gone.
func (t *Templates) Remove(path string) {
	if t.table.Remove(path) {
		t.rebuild()
	}
}

// Forget drops a path's templates without a disk check.
func (t *Templates) Forget(path string) {
	if t.table.Forget(path) {
		t.rebuild()
	}
}

// Rebuild recomputes the lookup view (snapshot restore).
func (t *Templates) Rebuild() { t.rebuild() }

func (t *Templates) rebuild() {
	view := &templateView{
		byPath: map[string]*metadata.TemplateRecord{},
		byKey:  map[string]*metadata.TemplateRecord{},
	}
	paths := t.table.Paths()
	sort.Strings(paths)

	// embed_templates declarations first: their globs assign the declaring
	// module to matching file-based templates in the second pass.
	var embeds []*metadata.TemplateRecord
	for _, p := range paths {
		for _, rec := range t.table.Get(p) {
			if rec.IsEmbedDecl() {
				embeds = append(embeds, rec)
			}
		}
	}

	for _, p := range paths {
		for _, rec := range t.table.Get(p) {
			if rec.IsEmbedDecl() {
				continue
			}
			if owner := embedOwner(embeds, rec); owner != "" && owner != rec.Module {
				clone := *rec
				clone.Module = owner
				rec = &clone
			}
			view.byPath[rec.FilePath] = rec
			key := rec.Module + "|" + rec.Name + "|" + rec.Format
			if _, ok := view.byKey[key]; !ok {
				view.byKey[key] = rec
			}
		}
	}
	t.mu.Lock()
	t.view = view
	t.mu.Unlock()
}

// embedOwner returns the module whose embed_templates glob matches a
// file-based template, or "". Patterns are relative to the declaring
// file's directory.
func embedOwner(embeds []*metadata.TemplateRecord, rec *metadata.TemplateRecord) string {
	if rec.Embedded {
		return ""
	}
	for _, e := range embeds {
		pattern := filepath.Join(filepath.Dir(e.FilePath), filepath.FromSlash(e.EmbedPattern))
		if ok, err := filepath.Match(pattern, rec.FilePath); err == nil && ok {
			return e.Module
		}
	}
	return ""
}

func (t *Templates) snapshot() *templateView {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.view
}

// ByPath returns the template record for a template file path, or nil.
func (t *Templates) ByPath(path string) *metadata.TemplateRecord {
	return t.snapshot().byPath[path]
}

// Lookup finds a template by owning module, name and format. Module
// matching accepts a bare suffix because file-based templates only know
// the final module segment.
func (t *Templates) Lookup(module, name, format string) *metadata.TemplateRecord {
	view := t.snapshot()
	if rec, ok := view.byKey[module+"|"+name+"|"+format]; ok {
		return rec
	}
	suffix := modname.LastSegment(module)
	if rec, ok := view.byKey[suffix+"|"+name+"|"+format]; ok {
		return rec
	}
	// Full module names on records, bare suffix requested.
	for key, rec := range view.byKey {
		if strings.HasSuffix(key, "|"+name+"|"+format) &&
			(rec.Module == module || strings.HasSuffix(rec.Module, "."+suffix) || rec.Module == suffix) {
			return rec
		}
	}
	return nil
}

// All returns every template record sorted by path.
func (t *Templates) All() []*metadata.TemplateRecord {
	view := t.snapshot()
	out := make([]*metadata.TemplateRecord, 0, len(view.byPath))
	for _, rec := range view.byPath {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FilePath < out[j].FilePath })
	return out
}
