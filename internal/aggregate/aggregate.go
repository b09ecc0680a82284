// Package aggregate turns individual controller render calls into
// per-template usage summaries: every assign a template is known to
// receive, with inferred types, merged across all call sites.
//
// The aggregate is derived state. It is rebuilt in full from the render
// and template registries and swapped in atomically; there is no
// incremental maintenance to get wrong.
package aggregate

import (
	"os"
	"sort"
	"sync"

	"github.com/phxls/workspace-index/internal/metadata"
	"github.com/phxls/workspace-index/internal/modname"
	"github.com/phxls/workspace-index/internal/registry"
)

// SiteRef points back at one render call contributing to a summary.
type SiteRef struct {
	ControllerModule string
	Action           string
	FilePath         string
	Line             int
}

// Summary is the aggregated usage of one template.
type Summary struct {
	// TemplatePath keys the summary. For resolved templates this is the
	// registry record's path; for unresolved convention guesses it is the
	// expected on-disk location.
	TemplatePath string
	// Template is the registry record, nil when the render call resolved
	// only to a conventional path that is not indexed.
	Template *metadata.TemplateRecord
	// Assigns is the union of assigns across all sites, sorted by name.
	// On a name collision the first site's binding wins, except that an
	// empty inferred type yields to a later non-empty one.
	Assigns []metadata.AssignBinding
	Sites   []SiteRef
}

// Usage aggregates render sites into template summaries.
type Usage struct {
	renders   *registry.Renders
	templates *registry.Templates
	stat      func(string) (os.FileInfo, error)

	mu     sync.RWMutex
	byPath map[string]*Summary
}

// New returns an empty aggregator over the given registries.
func New(renders *registry.Renders, templates *registry.Templates) *Usage {
	return &Usage{
		renders:   renders,
		templates: templates,
		stat:      os.Stat,
		byPath:    map[string]*Summary{},
	}
}

// SetStat overrides the disk probe used to confirm conventional template
// paths. Tests use this to avoid touching the filesystem.
func (u *Usage) SetStat(stat func(string) (os.FileInfo, error)) { u.stat = stat }

// Rebuild recomputes every summary from the current registry contents.
func (u *Usage) Rebuild() {
	byPath := map[string]*Summary{}
	for _, site := range u.renders.All() {
		path, rec := u.resolveTarget(site)
		if path == "" {
			continue
		}
		sum := byPath[path]
		if sum == nil {
			sum = &Summary{TemplatePath: path, Template: rec}
			byPath[path] = sum
		} else if sum.Template == nil {
			sum.Template = rec
		}
		sum.Sites = append(sum.Sites, SiteRef{
			ControllerModule: site.Render.ControllerModule,
			Action:           site.Render.Action,
			FilePath:         site.FilePath,
			Line:             site.Render.Line,
		})
		mergeAssigns(sum, site.Render.Assigns)
	}
	for _, sum := range byPath {
		sort.Slice(sum.Assigns, func(i, j int) bool {
			return sum.Assigns[i].Name < sum.Assigns[j].Name
		})
	}
	u.mu.Lock()
	u.byPath = byPath
	u.mu.Unlock()
}

// resolveTarget maps one render site to a template path and, when the
// template is indexed, its record. Priority: explicit view module, then
// conventional view modules, then the conventional on-disk path when a
// file actually exists there.
func (u *Usage) resolveTarget(site registry.RenderSite) (string, *metadata.TemplateRecord) {
	rc := site.Render
	format := rc.TemplateFormat
	if format == "" {
		format = "html"
	}
	if rc.ViewModule != "" {
		if rec := u.templates.Lookup(rc.ViewModule, rc.TemplateName, format); rec != nil {
			return rec.FilePath, rec
		}
		return "", nil
	}
	for _, view := range modname.ViewModuleCandidates(rc.ControllerModule) {
		if rec := u.templates.Lookup(view, rc.TemplateName, format); rec != nil {
			return rec.FilePath, rec
		}
	}
	guess := modname.TemplateDirGuess(site.FilePath, rc.TemplateName, format)
	if _, err := u.stat(guess); err == nil {
		return guess, nil
	}
	return "", nil
}

func mergeAssigns(sum *Summary, assigns []metadata.AssignBinding) {
	for _, a := range assigns {
		found := false
		for i := range sum.Assigns {
			if sum.Assigns[i].Name != a.Name {
				continue
			}
			found = true
			if sum.Assigns[i].InferredType == "" && a.InferredType != "" {
				sum.Assigns[i].InferredType = a.InferredType
				sum.Assigns[i].Expr = a.Expr
			}
			break
		}
		if !found {
			sum.Assigns = append(sum.Assigns, a)
		}
	}
}

func (u *Usage) snapshot() map[string]*Summary {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.byPath
}

// ForTemplate returns the summary for a template path, or nil when no
// render call targets it.
func (u *Usage) ForTemplate(path string) *Summary {
	return u.snapshot()[path]
}

// All returns every summary sorted by template path.
func (u *Usage) All() []*Summary {
	byPath := u.snapshot()
	out := make([]*Summary, 0, len(byPath))
	for _, s := range byPath {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TemplatePath < out[j].TemplatePath })
	return out
}
