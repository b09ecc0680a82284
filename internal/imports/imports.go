// Package imports extracts the per-file import and alias environment:
// direct imports, grouped and renamed aliases, and the implicit import set
// injected by "use as role" declarations.
package imports

import (
	"regexp"
	"strings"
	"sync"

	"github.com/zeebo/xxh3"

	"github.com/phxls/workspace-index/internal/metadata"
)

var (
	reImport     = regexp.MustCompile(`^import\s+([A-Z][\w.]*)`)
	reAliasGroup = regexp.MustCompile(`^alias\s+([A-Z][\w.]*)\.\{([^}]*)\}`)
	reAliasAs    = regexp.MustCompile(`^alias\s+([A-Z][\w.]*)\s*,\s*as:\s*([A-Z]\w*)`)
	reAlias      = regexp.MustCompile(`^alias\s+([A-Z][\w.]*)`)
	reUseRole    = regexp.MustCompile(`^use\s+([A-Z][\w.]*)\s*,\s*:(\w+)`)
	reUse        = regexp.MustCompile(`^use\s+([A-Z][\w.]*)`)
)

// templateRoles are the "use as role" roles that place a file in template
// territory and therefore receive the implicit import set.
var templateRoles = map[string]bool{
	"html":           true,
	"live_view":      true,
	"live_component": true,
	"component":      true,
}

// RoleImports returns the implicit environment injected by
// `use <target>, :<role>`. The set is part of the resolution contract:
// the templating macro namespace, the conventional core-components module
// of the use target, and the client-side command namespace (as the JS
// alias). coreComponents overrides the conventional module when non-empty.
func RoleImports(useTarget, role, coreComponents string) (imports []string, aliases map[string]string) {
	if !templateRoles[role] {
		return nil, nil
	}
	cc := coreComponents
	if cc == "" {
		cc = useTarget + ".CoreComponents"
	}
	imports = []string{"Phoenix.Component", cc}
	aliases = map[string]string{"JS": "Phoenix.LiveView.JS"}
	return imports, aliases
}

type cachedCtx struct {
	hash uint64
	ctx  *metadata.ImportContext
}

// Resolver computes ImportContexts with a per-file cache keyed by content
// hash, so repeated resolution during completion stays cheap.
type Resolver struct {
	// CoreComponents overrides the conventional <Target>.CoreComponents
	// module injected by template roles.
	CoreComponents string

	mu    sync.RWMutex
	cache map[string]cachedCtx
}

// NewResolver returns an empty Resolver.
func NewResolver() *Resolver {
	return &Resolver{cache: make(map[string]cachedCtx)}
}

// Resolve returns the import context for a file. Results are cached by
// content fingerprint; an unchanged file returns the cached context.
func (r *Resolver) Resolve(path string, content []byte) *metadata.ImportContext {
	hash := xxh3.Hash(content)

	r.mu.RLock()
	if c, ok := r.cache[path]; ok && c.hash == hash {
		r.mu.RUnlock()
		return c.ctx
	}
	r.mu.RUnlock()

	ctx := Scan(content, r.CoreComponents)

	r.mu.Lock()
	r.cache[path] = cachedCtx{hash: hash, ctx: ctx}
	r.mu.Unlock()
	return ctx
}

// Invalidate drops the cached context for a file.
func (r *Resolver) Invalidate(path string) {
	r.mu.Lock()
	delete(r.cache, path)
	r.mu.Unlock()
}

// Scan extracts the import context from source text. It recognizes three
// declaration shapes — direct import, grouped alias, single (optionally
// renamed) alias — plus the role-injection forms of use.
func Scan(content []byte, coreComponents string) *metadata.ImportContext {
	ctx := &metadata.ImportContext{Aliases: make(map[string]string)}
	seen := make(map[string]bool)

	addImport := func(mod string) {
		if mod != "" && !seen[mod] {
			seen[mod] = true
			ctx.Imports = append(ctx.Imports, mod)
		}
	}

	for _, raw := range strings.Split(string(content), "\n") {
		line := strings.TrimSpace(raw)
		switch {
		case strings.HasPrefix(line, "import "):
			if m := reImport.FindStringSubmatch(line); m != nil {
				addImport(m[1])
			}

		case strings.HasPrefix(line, "alias "):
			if m := reAliasGroup.FindStringSubmatch(line); m != nil {
				prefix := m[1]
				for _, part := range strings.Split(m[2], ",") {
					name := strings.TrimSpace(part)
					if name == "" {
						continue
					}
					ctx.Aliases[lastSegment(name)] = prefix + "." + name
				}
				continue
			}
			if m := reAliasAs.FindStringSubmatch(line); m != nil {
				ctx.Aliases[m[2]] = m[1]
				continue
			}
			if m := reAlias.FindStringSubmatch(line); m != nil {
				ctx.Aliases[lastSegment(m[1])] = m[1]
			}

		case strings.HasPrefix(line, "use "):
			if m := reUseRole.FindStringSubmatch(line); m != nil {
				mods, aliases := RoleImports(m[1], m[2], coreComponents)
				for _, mod := range mods {
					addImport(mod)
				}
				for short, full := range aliases {
					ctx.Aliases[short] = full
				}
				continue
			}
			if m := reUse.FindStringSubmatch(line); m != nil {
				switch m[1] {
				case "Phoenix.Component", "Phoenix.LiveComponent":
					addImport("Phoenix.Component")
				case "Phoenix.LiveView":
					// use Phoenix.LiveView implies the component macros.
					addImport("Phoenix.Component")
				}
			}
		}
	}
	return ctx
}

func lastSegment(mod string) string {
	if i := strings.LastIndexByte(mod, '.'); i >= 0 {
		return mod[i+1:]
	}
	return mod
}
