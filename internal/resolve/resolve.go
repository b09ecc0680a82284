// Package resolve answers cross-registry queries: which component a
// template tag refers to, what type an assign carries, and which fields a
// dotted access path reaches. Every query returns nil on a miss; a miss
// means "no suggestion available", never an error.
package resolve

import (
	"path/filepath"
	"strings"

	"github.com/phxls/workspace-index/internal/aggregate"
	"github.com/phxls/workspace-index/internal/imports"
	"github.com/phxls/workspace-index/internal/infer"
	"github.com/phxls/workspace-index/internal/metadata"
	"github.com/phxls/workspace-index/internal/modname"
	"github.com/phxls/workspace-index/internal/registry"
)

// Options qualifies a component lookup with the caller's local context.
type Options struct {
	// ModuleContext is the module qualifier written before the tag
	// ("<Foo.button>" gives "Foo"), possibly an alias.
	ModuleContext string
	// FileContent is the current buffer content of the file containing the
	// tag, used to compute the import environment. May be nil.
	FileContent []byte
}

// Resolver is constructed once per session with explicit references to the
// registries it reads. It owns no entity state of its own.
type Resolver struct {
	components *registry.Components
	schemas    *registry.Schemas
	usage      *aggregate.Usage
	imports    *imports.Resolver

	// coreComponents is the conventional shared-components module, always
	// part of a template's primary module set.
	coreComponents string
}

// New wires a resolver to its registries.
func New(components *registry.Components, schemas *registry.Schemas, usage *aggregate.Usage, imp *imports.Resolver, coreComponents string) *Resolver {
	return &Resolver{
		components:     components,
		schemas:        schemas,
		usage:          usage,
		imports:        imp,
		coreComponents: coreComponents,
	}
}

// Component resolves a template tag to a component definition using a
// strict priority order: qualified lookup, primary modules for the
// template, this file's imports, same-namespace components by name, then a
// global name-only lookup. Same-directory components must beat same-named
// components elsewhere, otherwise completion becomes ambiguous in large
// workspaces.
func (r *Resolver) Component(templatePath, tag string, opts Options) *metadata.UIComponent {
	ictx := r.importContext(templatePath, opts.FileContent)

	if opts.ModuleContext != "" {
		module := ictx.ResolveAlias(opts.ModuleContext)
		// A qualified tag names its module explicitly; a name-only match
		// in some other module would be wrong, so there is no fallthrough.
		return r.components.Lookup(module, tag)
	}

	if c := r.primaryLookup(templatePath, tag); c != nil {
		return c
	}

	if ictx != nil {
		for _, mod := range ictx.Imports {
			if c := r.components.Lookup(mod, tag); c != nil {
				return c
			}
		}
	}

	candidates := r.components.Named(tag)
	if len(candidates) == 0 {
		return nil
	}
	if ns := r.workspaceNamespace(templatePath, ictx); ns != "" {
		for _, c := range candidates {
			if c.Module == ns || strings.HasPrefix(c.Module, ns+".") {
				return c
			}
		}
	}
	return candidates[0]
}

// primaryLookup covers the modules a template reaches without any import:
// the co-located view module, components defined alongside the template,
// and the configured core-components module.
func (r *Resolver) primaryLookup(templatePath, tag string) *metadata.UIComponent {
	if viewFile := modname.SiblingViewFile(templatePath); viewFile != "" {
		for _, raw := range r.components.Table().Get(viewFile) {
			if raw.Name == tag {
				if c := r.components.Lookup(raw.Module, tag); c != nil {
					return c
				}
			}
		}
	}
	// The directory name itself implies a view module: user_html/ -> a
	// UserHTML defined anywhere in the workspace.
	dirModule := modname.Camelize(filepath.Base(filepath.Dir(templatePath)))
	if dirModule != "" {
		for _, c := range r.components.Named(tag) {
			if modname.LastSegment(c.Module) == dirModule {
				return c
			}
		}
	}
	for _, c := range r.components.InDir(filepath.Dir(templatePath)) {
		if c.Name == tag {
			return c
		}
	}
	if r.coreComponents != "" {
		if c := r.components.Lookup(r.coreComponents, tag); c != nil {
			return c
		}
	}
	return nil
}

func (r *Resolver) importContext(path string, content []byte) *metadata.ImportContext {
	if content == nil {
		return nil
	}
	return r.imports.Resolve(path, content)
}

// workspaceNamespace guesses the application's root module namespace from
// the file's environment, so name-only matches prefer in-project
// components over library ones.
func (r *Resolver) workspaceNamespace(templatePath string, ictx *metadata.ImportContext) string {
	if r.coreComponents != "" {
		if ns := modname.Namespace(r.coreComponents); ns != "" {
			return firstSegment(ns)
		}
	}
	if ictx != nil {
		for _, mod := range ictx.Imports {
			if mod == "Phoenix.Component" {
				continue
			}
			if strings.HasSuffix(mod, ".CoreComponents") {
				return firstSegment(mod)
			}
		}
	}
	// Embedded templates carry their defining file; its components name
	// the namespace directly.
	if file, _, ok := strings.Cut(templatePath, "#"); ok {
		for _, raw := range r.components.Table().Get(file) {
			return firstSegment(raw.Module)
		}
	}
	return ""
}

func firstSegment(module string) string {
	if i := strings.IndexByte(module, '.'); i >= 0 {
		return module[:i]
	}
	return module
}

// AssignType resolves the type of @assign at a cursor position. Inside a
// component definition the attribute contract decides; inside a rendered
// template the usage aggregate decides, preferring call sites whose
// expression inference already produced a structured type.
func (r *Resolver) AssignType(filePath, assign string, offset int, content []byte) string {
	if comp := r.enclosingComponent(filePath, offset, content); comp != nil {
		for _, attr := range comp.Attrs {
			if attr.Name != assign {
				continue
			}
			if isModuleRef(attr.Type) {
				ictx := r.importContext(filePath, content)
				return ictx.ResolveAlias(attr.Type)
			}
			break
		}
		return modname.Camelize(assign)
	}

	if sum := r.usage.ForTemplate(filePath); sum != nil {
		for _, b := range sum.Assigns {
			if b.Name != assign {
				continue
			}
			if t := b.InferredType; t != "" && !infer.IsLiteral(t) {
				return t
			}
			break
		}
	}
	return modname.Camelize(assign)
}

// enclosingComponent returns the component whose definition contains the
// cursor, or nil when the cursor is in template territory. Component end
// positions are not indexed, so containment is approximated by the nearest
// preceding definition in the same file.
func (r *Resolver) enclosingComponent(filePath string, offset int, content []byte) *metadata.UIComponent {
	defs := r.components.Table().Get(filePath)
	if len(defs) == 0 {
		return nil
	}
	line := lineAt(content, offset)
	var best *metadata.UIComponent
	for _, c := range defs {
		if c.Line <= line && (best == nil || c.Line > best.Line) {
			best = c
		}
	}
	if best == nil {
		return nil
	}
	return r.components.Lookup(best.Module, best.Name)
}

func lineAt(content []byte, offset int) int {
	if offset > len(content) {
		offset = len(content)
	}
	line := 1
	for _, b := range content[:offset] {
		if b == '\n' {
			line++
		}
	}
	return line
}

func isModuleRef(typ string) bool {
	return typ != "" && typ[0] >= 'A' && typ[0] <= 'Z'
}

// Schema looks a schema up by canonical module name, applying the
// namespace-preserving fallback for names that miss: strip a descriptive
// prefix from the final segment and retry, then accept a namespace's sole
// schema as a last resort.
func (r *Resolver) Schema(module string) *metadata.RecordSchema {
	module = strings.TrimPrefix(strings.TrimSuffix(module, "]"), "[")
	if module == "" {
		return nil
	}
	if s := r.schemas.Get(module); s != nil {
		return s
	}
	if s := r.suffixMatch(module); s != nil {
		return s
	}
	ns := modname.Namespace(module)
	if stripped := modname.StripDescriptivePrefix(modname.LastSegment(module)); stripped != "" {
		retry := stripped
		if ns != "" {
			retry = ns + "." + stripped
		}
		if s := r.schemas.Get(retry); s != nil {
			return s
		}
		if s := r.suffixMatch(retry); s != nil {
			return s
		}
	}
	if ns != "" {
		if in := r.schemas.InNamespace(ns); len(in) == 1 {
			return in[0]
		}
	}
	return nil
}

// suffixMatch accepts a bare (or partial) module name when exactly one
// indexed schema ends with it.
func (r *Resolver) suffixMatch(module string) *metadata.RecordSchema {
	if strings.Contains(module, ".") {
		return nil
	}
	var found *metadata.RecordSchema
	for _, s := range r.schemas.All() {
		if modname.LastSegment(s.Module) != module {
			continue
		}
		if found != nil {
			return nil // ambiguous
		}
		found = s
	}
	return found
}

// FieldsForPath walks a dotted access path one schema hop per segment.
// Intermediate segments must be association fields with a resolvable
// target; a list-cardinality hop terminates the walk because lists need an
// explicit iteration construct before they can be dotted into. A final
// segment naming an association yields the target schema's fields; a final
// primitive field yields itself.
func (r *Resolver) FieldsForPath(module string, path ...string) []metadata.Field {
	schema := r.Schema(module)
	if schema == nil {
		return nil
	}
	for i, seg := range path {
		field := schema.FieldNamed(seg)
		if field == nil || field.List {
			return nil
		}
		last := i == len(path)-1
		if field.Kind != metadata.KindAssoc {
			if last {
				return []metadata.Field{*field}
			}
			return nil
		}
		next := r.Schema(field.LinkedModule)
		if next == nil {
			return nil
		}
		schema = next
	}
	out := make([]metadata.Field, len(schema.Fields))
	copy(out, schema.Fields)
	return out
}
