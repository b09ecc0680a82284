package extract

import (
	"regexp"
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/phxls/workspace-index/internal/metadata"
	"github.com/phxls/workspace-index/internal/parser"
)

var (
	reHandleEvent = regexp.MustCompile(`^defp?\s+handle_event\s*\(\s*"([^"]*)"`)
	reHandleInfo  = regexp.MustCompile(`^defp?\s+handle_info\s*\(\s*\{?\s*:([a-z_]\w*[!?]?)`)
)

// scanEvents is the heuristic event-handler front end. Only literal event
// names are indexed; pattern-matched variables can't be resolved without
// evaluation and are skipped.
func scanEvents(path string, src []byte) []*metadata.EventHandler {
	var out []*metadata.EventHandler
	scanSource(src, func(l *lineCtx) {
		module := l.Module()
		if module == "" {
			return
		}
		if m := reHandleEvent.FindStringSubmatch(l.Text); m != nil && m[1] != "" {
			out = append(out, &metadata.EventHandler{
				Module:   module,
				Kind:     metadata.ClickHandler,
				Name:     m[1],
				NameKind: metadata.StringName,
				Line:     l.Num,
			})
			return
		}
		if m := reHandleInfo.FindStringSubmatch(l.Text); m != nil {
			out = append(out, &metadata.EventHandler{
				Module:   module,
				Kind:     metadata.MessageHandler,
				Name:     m[1],
				NameKind: metadata.AtomName,
				Line:     l.Num,
			})
		}
	})
	return out
}

// astEvents is the structured event-handler front end.
func astEvents(path string, src []byte, root *tree_sitter.Node) []*metadata.EventHandler {
	var out []*metadata.EventHandler
	collectEvents(root, src, "", &out)
	return out
}

func collectEvents(node *tree_sitter.Node, src []byte, module string, out *[]*metadata.EventHandler) {
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
				collectEvents(body, src, name, out)
			}
			return false
		case "def", "defp":
			if module == "" {
				return true
			}
			if h := eventHandlerFromDef(n, src, module); h != nil {
				*out = append(*out, h)
			}
			return false
		}
		return true
	})
}

// eventHandlerFromDef recognizes handle_event/handle_info clauses with a
// literal first pattern.
func eventHandlerFromDef(n *tree_sitter.Node, src []byte, module string) *metadata.EventHandler {
	args := parser.FindChildByKind(n, "arguments")
	if args == nil {
		return nil
	}
	nameCall := parser.FindChildByKind(args, "call")
	if nameCall == nil {
		return nil
	}
	fn := parser.CallTarget(nameCall, src)
	if fn != "handle_event" && fn != "handle_info" {
		return nil
	}
	inner := parser.FindChildByKind(nameCall, "arguments")
	if inner == nil {
		return nil
	}
	parts := SplitTopLevel(argsText(inner, src))
	if len(parts) == 0 {
		return nil
	}
	first := strings.TrimSpace(parts[0])
	line := parser.Line(n.StartPosition().Row)

	if fn == "handle_event" {
		name := StringLit(first)
		if name == "" {
			return nil
		}
		return &metadata.EventHandler{
			Module: module, Kind: metadata.ClickHandler,
			Name: name, NameKind: metadata.StringName, Line: line,
		}
	}

	// handle_info(:name, ...) or handle_info({:name, ...}, ...).
	first = strings.TrimPrefix(first, "{")
	if i := strings.IndexByte(first, ','); i >= 0 {
		first = first[:i]
	}
	name := AtomName(strings.TrimSuffix(strings.TrimSpace(first), "}"))
	if name == "" {
		return nil
	}
	return &metadata.EventHandler{
		Module: module, Kind: metadata.MessageHandler,
		Name: name, NameKind: metadata.AtomName, Line: line,
	}
}
