package extract

import (
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/phxls/workspace-index/internal/infer"
	"github.com/phxls/workspace-index/internal/metadata"
	"github.com/phxls/workspace-index/internal/parser"
)

// parseRenderArgs interprets the argument list of a render call. Supported
// shapes:
//
//	render(conn, :show)
//	render(conn, :show, user: user)
//	render(conn, "show.html", user: user)
//	render(conn, UserView, "show.html", user: user)
//
// Returns nil when the call is not a conn render.
func parseRenderArgs(argText, module, action string, line int) *metadata.ControllerRender {
	parts := SplitTopLevel(argText)
	if len(parts) < 2 || parts[0] != "conn" {
		return nil
	}
	r := &metadata.ControllerRender{
		ControllerModule: module,
		Action:           action,
		Line:             line,
	}

	rest := parts[1:]
	// Optional explicit view module.
	if isModuleRef(rest[0]) {
		r.ViewModule = rest[0]
		rest = rest[1:]
		if len(rest) == 0 {
			return nil
		}
	}

	if name := AtomName(rest[0]); name != "" {
		r.TemplateName = name
	} else if lit := StringLit(rest[0]); lit != "" {
		r.TemplateName = lit
		if i := strings.LastIndexByte(lit, '.'); i > 0 {
			r.TemplateName = lit[:i]
			r.TemplateFormat = lit[i+1:]
		}
	} else {
		return nil
	}

	for _, part := range rest[1:] {
		i := strings.IndexByte(part, ':')
		if i <= 0 || !isIdent(strings.TrimSpace(part[:i])) {
			continue
		}
		name := strings.TrimSpace(part[:i])
		expr := strings.TrimSpace(part[i+1:])
		r.Assigns = append(r.Assigns, metadata.AssignBinding{
			Name:         name,
			Expr:         expr,
			InferredType: infer.Expr(expr).String(),
		})
	}
	return r
}

func isModuleRef(s string) bool {
	return s != "" && s[0] >= 'A' && s[0] <= 'Z'
}

// scanRenders is the heuristic render front end. It traces the enclosing
// controller action by watching def lines whose first parameter is conn.
func scanRenders(path string, src []byte) []*metadata.ControllerRender {
	var out []*metadata.ControllerRender
	action := ""

	scanSource(src, func(l *lineCtx) {
		module := l.Module()
		if !strings.HasSuffix(module, "Controller") {
			return
		}

		if m := reDefLine.FindStringSubmatch(l.Text); m != nil {
			action = ""
			if params, ok := BalancedArg(l.Text); ok {
				split := SplitTopLevel(params)
				if len(split) > 0 && strings.Contains(split[0], "conn") {
					action = m[1]
				}
			}
			return
		}

		idx := strings.Index(l.Text, "render(")
		if idx < 0 {
			return
		}
		args, ok := BalancedArg(l.Text[idx:])
		if !ok {
			return
		}
		if r := parseRenderArgs(args, module, action, l.Num); r != nil {
			out = append(out, r)
		}
	})
	return out
}

// astRenders is the structured render front end.
func astRenders(path string, src []byte, root *tree_sitter.Node) []*metadata.ControllerRender {
	var out []*metadata.ControllerRender
	collectRenders(root, src, "", "", &out)
	return out
}

func collectRenders(node *tree_sitter.Node, src []byte, module, action string, out *[]*metadata.ControllerRender) {
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
				collectRenders(body, src, name, "", out)
			}
			return false
		case "def", "defp":
			name := defClauseName(n, src)
			if name == "" {
				return true
			}
			if body := parser.FindChildByKind(n, "do_block"); body != nil {
				collectRenders(body, src, module, name, out)
			}
			return false
		case "render":
			if !strings.HasSuffix(module, "Controller") {
				return true
			}
			args := parser.FindChildByKind(n, "arguments")
			if args == nil {
				return true
			}
			r := parseRenderArgs(argsText(args, src), module, action, parser.Line(n.StartPosition().Row))
			if r != nil {
				*out = append(*out, r)
			}
			return false
		}
		return true
	})
}

// defClauseName returns the function name of a def/defp call, or "".
func defClauseName(n *tree_sitter.Node, src []byte) string {
	args := parser.FindChildByKind(n, "arguments")
	if args == nil {
		return ""
	}
	if nameCall := parser.FindChildByKind(args, "call"); nameCall != nil {
		return parser.CallTarget(nameCall, src)
	}
	if id := parser.FindChildByKind(args, "identifier"); id != nil {
		return parser.NodeText(id, src)
	}
	return ""
}
