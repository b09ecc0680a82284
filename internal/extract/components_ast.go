package extract

import (
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/phxls/workspace-index/internal/metadata"
	"github.com/phxls/workspace-index/internal/parser"
)

// astComponents is the structured component front end. The grammar supplies
// accurate clause boundaries and line numbers; argument interpretation is
// shared with the heuristic scanner via the decl stream.
func astComponents(path string, src []byte, root *tree_sitter.Node) []*metadata.UIComponent {
	var decls []decl
	collectComponentDecls(root, src, "", &decls)
	bindDocs(decls, collectDocs(src))
	return assembleComponents(path, decls)
}

func collectComponentDecls(node *tree_sitter.Node, src []byte, module string, out *[]decl) {
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
				collectComponentDecls(body, src, name, out)
			}
			return false
		case "attr":
			if module == "" {
				return true
			}
			if d, ok := atomCallDecl(n, src, declAttr, module); ok {
				*out = append(*out, d)
			}
			return false
		case "slot":
			if module == "" {
				return true
			}
			d, ok := atomCallDecl(n, src, declSlot, module)
			if !ok {
				return false
			}
			if body := parser.FindChildByKind(n, "do_block"); body != nil {
				parser.Walk(body, func(inner *tree_sitter.Node) bool {
					if inner.Id() == body.Id() {
						return true
					}
					if inner.Kind() == "call" && parser.CallTarget(inner, src) == "attr" {
						if nested, ok := atomCallDecl(inner, src, declAttr, module); ok {
							d.nested = append(d.nested, nested)
						}
						return false
					}
					return true
				})
			}
			*out = append(*out, d)
			return false
		case "def", "defp":
			if module == "" {
				return true
			}
			if d, ok := componentDefDecl(n, src, module); ok {
				*out = append(*out, d)
			}
			return false
		}
		return true
	})
}

// argsText returns a call's argument text. Parenthesized calls include the
// parens in the arguments node span; strip them so both call forms read
// the same.
func argsText(args *tree_sitter.Node, src []byte) string {
	text := strings.TrimSpace(parser.NodeText(args, src))
	if strings.HasPrefix(text, "(") && strings.HasSuffix(text, ")") {
		text = text[1 : len(text)-1]
	}
	return text
}

// moduleDefName extracts the module alias from a defmodule call.
func moduleDefName(n *tree_sitter.Node, src []byte) string {
	args := parser.FindChildByKind(n, "arguments")
	if args == nil {
		return ""
	}
	alias := parser.FindChildByKind(args, "alias")
	if alias == nil {
		return ""
	}
	return parser.NodeText(alias, src)
}

// atomCallDecl interprets a call whose first argument is an atom name
// (attr :name, ... / slot :name, ...) into a decl.
func atomCallDecl(n *tree_sitter.Node, src []byte, kind declKind, module string) (decl, bool) {
	args := parser.FindChildByKind(n, "arguments")
	if args == nil {
		return decl{}, false
	}
	parts := SplitTopLevel(argsText(args, src))
	if len(parts) == 0 {
		return decl{}, false
	}
	name := AtomName(parts[0])
	if name == "" {
		return decl{}, false
	}
	return decl{
		kind:   kind,
		line:   parser.Line(n.StartPosition().Row),
		module: module,
		name:   name,
		args:   strings.Join(parts[1:], ", "),
	}, true
}

// componentDefDecl recognizes the function-component shape: a def whose
// single parameter binds assigns.
func componentDefDecl(n *tree_sitter.Node, src []byte, module string) (decl, bool) {
	args := parser.FindChildByKind(n, "arguments")
	if args == nil {
		return decl{}, false
	}
	nameCall := parser.FindChildByKind(args, "call")
	if nameCall == nil {
		return decl{}, false
	}
	name := parser.CallTarget(nameCall, src)
	if name == "" || name == "render" {
		return decl{}, false
	}
	inner := parser.FindChildByKind(nameCall, "arguments")
	if inner == nil {
		return decl{}, false
	}
	params := SplitTopLevel(argsText(inner, src))
	if len(params) != 1 || !strings.Contains(params[0], "assigns") {
		return decl{}, false
	}
	return decl{
		kind:   declDef,
		line:   parser.Line(n.StartPosition().Row),
		module: module,
		name:   name,
	}, true
}

type docEvent struct {
	line int // line on which the doc string ends
	text string
}

// collectDocs gathers @doc strings with the line each one ends on. The
// structured front end reads declarations from the AST but docs bind by
// position, shared with the scanner's rules.
func collectDocs(src []byte) []docEvent {
	var events []docEvent
	inDoc := false
	var docLines []string
	lines := strings.Split(string(src), "\n")
	for i, raw := range lines {
		line := strings.TrimSpace(raw)
		if inDoc {
			if strings.Contains(line, `"""`) {
				events = append(events, docEvent{
					line: i + 1,
					text: strings.TrimSpace(strings.Join(docLines, "\n")),
				})
				inDoc = false
				docLines = nil
			} else {
				docLines = append(docLines, raw)
			}
			continue
		}
		doc, heredoc, handled := parseDocLine(line)
		if !handled {
			continue
		}
		if heredoc {
			inDoc = true
			continue
		}
		if doc != "" {
			events = append(events, docEvent{line: i + 1, text: doc})
		}
	}
	return events
}

// bindDocs attaches each doc to the first definition clause after it.
func bindDocs(decls []decl, docs []docEvent) {
	di := 0
	for i := range decls {
		if decls[i].kind != declDef {
			continue
		}
		var doc string
		for di < len(docs) && docs[di].line < decls[i].line {
			doc = docs[di].text
			di++
		}
		if doc != "" && decls[i].doc == "" {
			decls[i].doc = doc
		}
	}
}
