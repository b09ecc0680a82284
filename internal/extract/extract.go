// Package extract derives typed metadata from Elixir source. Each metadata
// kind gets one dual-strategy Extractor: an authoritative tree-sitter front
// end with a heuristic line-scanner fallback. Extraction never fails —
// internal errors degrade to an empty result plus a logged diagnostic.
package extract

import (
	"fmt"
	"log/slog"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/phxls/workspace-index/internal/metadata"
	"github.com/phxls/workspace-index/internal/parser"
)

// Extractor is the parse dispatcher for one metadata kind. The structured
// front end is used while the process-wide parser probe reports Available;
// a failure on a single file falls back to the heuristic front end without
// disabling structured parsing globally.
type Extractor[E any] struct {
	kind       string
	structured func(path string, src []byte, root *tree_sitter.Node) []E
	heuristic  func(path string, src []byte) []E
}

// Extract derives entities from one file's content. It never panics and
// never returns an error; the worst outcome is an empty slice.
func (e *Extractor[E]) Extract(path string, content []byte) []E {
	if parser.Probe() == parser.Available {
		if out, ok := e.tryStructured(path, content); ok {
			return out
		}
	}
	return e.runHeuristic(path, content)
}

func (e *Extractor[E]) tryStructured(path string, content []byte) (out []E, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			slog.Warn("extract.structured.panic", "kind", e.kind, "path", path, "err", fmt.Sprint(r))
			out, ok = nil, false
		}
	}()
	tree, err := parser.Parse(content)
	if err != nil {
		slog.Debug("extract.fallback", "kind", e.kind, "path", path, "err", err)
		return nil, false
	}
	defer tree.Close()
	root := tree.RootNode()
	if root == nil {
		return nil, false
	}
	return e.structured(path, content, root), true
}

func (e *Extractor[E]) runHeuristic(path string, content []byte) (out []E) {
	defer func() {
		if r := recover(); r != nil {
			slog.Warn("extract.heuristic.panic", "kind", e.kind, "path", path, "err", fmt.Sprint(r))
			out = nil
		}
	}()
	return e.heuristic(path, content)
}

// Components returns the extractor for UI component definitions.
func Components() *Extractor[*metadata.UIComponent] {
	return &Extractor[*metadata.UIComponent]{
		kind:       "components",
		structured: astComponents,
		heuristic:  scanComponents,
	}
}

// Schemas returns the extractor for record schemas.
func Schemas() *Extractor[*metadata.RecordSchema] {
	return &Extractor[*metadata.RecordSchema]{
		kind:       "schemas",
		structured: astSchemas,
		heuristic:  scanSchemas,
	}
}

// Renders returns the extractor for controller render records.
func Renders() *Extractor[*metadata.ControllerRender] {
	return &Extractor[*metadata.ControllerRender]{
		kind:       "renders",
		structured: astRenders,
		heuristic:  scanRenders,
	}
}

// Templates returns the extractor for function-embedded templates.
func Templates() *Extractor[*metadata.TemplateRecord] {
	return &Extractor[*metadata.TemplateRecord]{
		kind:       "templates",
		structured: astTemplates,
		heuristic:  scanTemplates,
	}
}

// Events returns the extractor for event handlers.
func Events() *Extractor[*metadata.EventHandler] {
	return &Extractor[*metadata.EventHandler]{
		kind:       "events",
		structured: astEvents,
		heuristic:  scanEvents,
	}
}
