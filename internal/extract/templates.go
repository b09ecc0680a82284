package extract

import (
	"regexp"
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/phxls/workspace-index/internal/metadata"
	"github.com/phxls/workspace-index/internal/modname"
	"github.com/phxls/workspace-index/internal/parser"
)

var (
	reRenderDef      = regexp.MustCompile(`^defp?\s+render\s*\(\s*(?:%\{[^}]*\}\s*=\s*)?assigns\s*\)`)
	reEmbedTemplates = regexp.MustCompile(`^embed_templates\s+\(?\s*"([^"]+)"`)
)

// embedDecl builds the record for an embed_templates declaration. It is
// not itself a template; the registry uses it to assign the declaring
// module to the file-based templates its glob matches.
func embedDecl(module, path, pattern string) *metadata.TemplateRecord {
	return &metadata.TemplateRecord{
		Module:       module,
		FilePath:     path,
		EmbedPattern: pattern,
	}
}

// embeddedTemplate builds the record for a function-embedded template. The
// composite file path keeps it from colliding with a file-based template.
func embeddedTemplate(module, path string, line int) *metadata.TemplateRecord {
	return &metadata.TemplateRecord{
		Module:   module,
		Name:     "render",
		Format:   "html",
		FilePath: path + "#render",
		Line:     line,
		Embedded: true,
	}
}

// FileTemplate builds the record for a file-based template, deriving the
// owning module from the co-located view file when the registry knows it.
func FileTemplate(relPath, owningModule string) *metadata.TemplateRecord {
	name, format := modname.TemplateNameAndFormat(relPath)
	return &metadata.TemplateRecord{
		Module:   owningModule,
		Name:     name,
		Format:   format,
		FilePath: relPath,
	}
}

// scanTemplates is the heuristic front end for function-embedded templates:
// one render(assigns) clause per module at most.
func scanTemplates(path string, src []byte) []*metadata.TemplateRecord {
	var out []*metadata.TemplateRecord
	seen := make(map[string]bool)

	scanSource(src, func(l *lineCtx) {
		module := l.Module()
		if module == "" {
			return
		}
		if m := reEmbedTemplates.FindStringSubmatch(l.Text); m != nil {
			out = append(out, embedDecl(module, path, m[1]))
			return
		}
		if seen[module] {
			return
		}
		if reRenderDef.MatchString(l.Text) {
			seen[module] = true
			out = append(out, embeddedTemplate(module, path, l.Num))
		}
	})
	return out
}

// astTemplates is the structured front end for function-embedded templates.
func astTemplates(path string, src []byte, root *tree_sitter.Node) []*metadata.TemplateRecord {
	var out []*metadata.TemplateRecord
	seen := make(map[string]bool)
	collectTemplates(root, src, "", path, seen, &out)
	return out
}

func collectTemplates(node *tree_sitter.Node, src []byte, module, path string, seen map[string]bool, out *[]*metadata.TemplateRecord) {
	parser.Walk(node, func(n *tree_sitter.Node) bool {
		if n.Kind() != "call" {
			return true
		}
		switch parser.CallTarget(n, src) {
		case "defmodule":
			name := moduleDefName(n, src)
			if name == "" {
				return true
			}
			if module != "" && !strings.HasPrefix(name, module+".") {
				name = module + "." + name
			}
			if body := parser.FindChildByKind(n, "do_block"); body != nil {
				collectTemplates(body, src, name, path, seen, out)
			}
			return false
		case "embed_templates":
			if module == "" {
				return true
			}
			if args := parser.FindChildByKind(n, "arguments"); args != nil {
				if pattern := StringLit(firstPart(argsText(args, src))); pattern != "" {
					*out = append(*out, embedDecl(module, path, pattern))
				}
			}
			return false
		case "def", "defp":
			if module == "" || seen[module] {
				return true
			}
			if defClauseName(n, src) != "render" || !renderTakesAssigns(n, src) {
				return false
			}
			seen[module] = true
			*out = append(*out, embeddedTemplate(module, path, parser.Line(n.StartPosition().Row)))
			return false
		}
		return true
	})
}

// renderTakesAssigns checks the render clause's single parameter binds
// assigns, the LiveView render contract.
func renderTakesAssigns(n *tree_sitter.Node, src []byte) bool {
	args := parser.FindChildByKind(n, "arguments")
	if args == nil {
		return false
	}
	nameCall := parser.FindChildByKind(args, "call")
	if nameCall == nil {
		return false
	}
	inner := parser.FindChildByKind(nameCall, "arguments")
	if inner == nil {
		return false
	}
	parts := SplitTopLevel(argsText(inner, src))
	return len(parts) == 1 && strings.Contains(parts[0], "assigns")
}
