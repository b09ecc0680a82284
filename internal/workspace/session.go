// Package workspace ties the engine together. A Session owns one instance
// of every registry plus the aggregator and resolver, and passes references
// explicitly to the parts that need cross-registry lookups. There are no
// ambient singletons; two sessions over two workspaces never share state.
package workspace

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/phxls/workspace-index/internal/aggregate"
	"github.com/phxls/workspace-index/internal/config"
	"github.com/phxls/workspace-index/internal/discover"
	"github.com/phxls/workspace-index/internal/extract"
	"github.com/phxls/workspace-index/internal/imports"
	"github.com/phxls/workspace-index/internal/metadata"
	"github.com/phxls/workspace-index/internal/registry"
	"github.com/phxls/workspace-index/internal/resolve"
	"github.com/phxls/workspace-index/internal/store"
	"github.com/phxls/workspace-index/internal/watcher"
)

// Session is the engine's public surface. All methods are safe for
// concurrent use; writes per file are serialized by the registries'
// hash-and-sequence discipline.
type Session struct {
	root string
	cfg  *config.Config
	disc *discover.Options

	components *registry.Components
	schemas    *registry.Schemas
	renders    *registry.Renders
	templates  *registry.Templates
	events     *registry.Events

	imports  *imports.Resolver
	usage    *aggregate.Usage
	resolver *resolve.Resolver

	snapMu sync.Mutex
	snap   *store.Store // nil when snapshots are disabled

	noSnapshot bool
}

// Option customizes session construction.
type Option func(*Session)

// WithConfig supplies a pre-loaded configuration instead of reading
// .phxindexrc from the workspace root.
func WithConfig(cfg *config.Config) Option {
	return func(s *Session) { s.cfg = cfg }
}

// WithoutSnapshot disables the warm-start snapshot regardless of config.
func WithoutSnapshot() Option {
	return func(s *Session) { s.noSnapshot = true }
}

// New opens a session over a workspace root. When snapshots are enabled a
// previously saved index is loaded as a warm start; the caller should
// still Scan to reconcile against live disk content.
func New(root string, opts ...Option) (*Session, error) {
	s := &Session{root: root}
	for _, opt := range opts {
		opt(s)
	}
	if s.cfg == nil {
		s.cfg = config.Load(root)
	}
	s.disc = &discover.Options{ExtraIgnore: s.cfg.Index.Ignore}

	s.components = registry.NewComponents(extract.Components())
	s.schemas = registry.NewSchemas(extract.Schemas())
	s.renders = registry.NewRenders(extract.Renders())
	s.templates = registry.NewTemplates(extract.Templates())
	s.events = registry.NewEvents(extract.Events())

	s.imports = imports.NewResolver()
	s.imports.CoreComponents = s.cfg.Index.CoreComponents
	s.usage = aggregate.New(s.renders, s.templates)
	s.resolver = resolve.New(s.components, s.schemas, s.usage, s.imports, s.cfg.Index.CoreComponents)

	if !s.noSnapshot && s.cfg.EffectiveSnapshot() {
		if err := s.openSnapshot(); err != nil {
			// A broken snapshot degrades to a cold start, never a failure.
			slog.Warn("session.snapshot_open", "err", err)
		}
	}
	return s, nil
}

// UpdateFile feeds new content for one file through every registry that
// cares about its kind. Unchanged content is a no-op end to end.
func (s *Session) UpdateFile(path string, content []byte) {
	if s.updateFile(path, content) {
		s.usage.Rebuild()
	}
}

// updateFile returns true when any derived state changed. The usage
// aggregate is the caller's responsibility, so a workspace scan can batch
// one rebuild over thousands of file updates.
func (s *Session) updateFile(path string, content []byte) bool {
	switch discover.KindForPath(path) {
	case discover.Source:
		changed := s.components.Update(path, content)
		changed = s.schemas.Update(path, content) || changed
		changed = s.renders.Update(path, content) || changed
		changed = s.templates.UpdateSource(path, content) || changed
		changed = s.events.Update(path, content) || changed
		return changed
	case discover.Template:
		return s.templates.UpdateFile(path, content)
	}
	return false
}

// RemoveFile drops a file's entities from every registry. Each registry
// confirms the deletion on disk first; a file that still exists is kept.
func (s *Session) RemoveFile(path string) {
	s.components.Remove(path)
	s.schemas.Remove(path)
	s.renders.Remove(path)
	s.templates.Remove(path)
	s.events.Remove(path)
	s.imports.Invalidate(path)
	s.usage.Rebuild()
}

// Scan walks the workspace and indexes every discoverable file, fanning
// parses out across CPUs. Indexed paths that no longer appear in the walk
// are swept out. Scan is what reconciles a warm-started session with
// whatever changed on disk since the snapshot was written.
func (s *Session) Scan(ctx context.Context) error {
	files, err := discover.Discover(ctx, s.root, s.disc)
	if err != nil {
		return fmt.Errorf("discover %s: %w", s.root, err)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for _, f := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			content, readErr := os.ReadFile(f.Path)
			if readErr != nil {
				// Deleted or unreadable mid-scan; the sweep handles it.
				slog.Debug("scan.read", "path", f.Path, "err", readErr)
				return nil
			}
			s.updateFile(f.Path, content)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	s.sweepDeleted(files)
	s.usage.Rebuild()

	if err := s.saveSnapshot(); err != nil {
		slog.Warn("session.snapshot_save", "err", err)
	}
	slog.Info("scan.done", "files", len(files))
	return nil
}

// sweepDeleted forgets indexed paths absent from the discovered set. The
// walk just confirmed what exists, so no extra stat is needed.
func (s *Session) sweepDeleted(files []discover.FileInfo) {
	seen := make(map[string]bool, len(files))
	for _, f := range files {
		seen[f.Path] = true
	}
	forget := func(paths []string) {
		for _, p := range paths {
			if !seen[p] {
				s.components.Forget(p)
				s.schemas.Forget(p)
				s.renders.Forget(p)
				s.templates.Forget(p)
				s.events.Forget(p)
				s.imports.Invalidate(p)
			}
		}
	}
	forget(s.components.Table().Paths())
	forget(s.templates.Table().Paths())
}

// Watch polls the workspace and rescans on change, blocking until ctx is
// cancelled.
func (s *Session) Watch(ctx context.Context) {
	watcher.New(s.root, s.disc, func(ctx context.Context) error {
		return s.Scan(ctx)
	}).Run(ctx)
}

// Close persists a final snapshot and releases the store.
func (s *Session) Close() error {
	s.snapMu.Lock()
	defer s.snapMu.Unlock()
	if s.snap == nil {
		return nil
	}
	err := s.saveSnapshotLocked()
	if cerr := s.snap.Close(); err == nil {
		err = cerr
	}
	s.snap = nil
	return err
}

// AllComponents returns every indexed component.
func (s *Session) AllComponents() []*metadata.UIComponent {
	return s.components.All()
}

// ResolveComponent resolves a template tag to its component definition,
// or nil when nothing matches.
func (s *Session) ResolveComponent(templatePath, tag string, opts resolve.Options) *metadata.UIComponent {
	return s.resolver.Component(templatePath, tag, opts)
}

// Schema returns the schema for a module name, applying the resolver's
// fallback rules, or nil.
func (s *Session) Schema(module string) *metadata.RecordSchema {
	return s.resolver.Schema(module)
}

// FieldsForPath resolves a dotted access path against the schema graph.
func (s *Session) FieldsForPath(module string, path ...string) []metadata.Field {
	return s.resolver.FieldsForPath(module, path...)
}

// ResolveAssignType infers the type of @assign at a cursor position.
func (s *Session) ResolveAssignType(filePath, assign string, offset int, content []byte) string {
	return s.resolver.AssignType(filePath, assign, offset, content)
}

// TemplateSummary returns the aggregated render usage of a template, or
// nil when no controller renders it.
func (s *Session) TemplateSummary(templatePath string) *aggregate.Summary {
	return s.usage.ForTemplate(templatePath)
}

// EventExists reports whether any indexed module handles the event name.
func (s *Session) EventExists(name string) bool {
	return s.events.Exists(name)
}
