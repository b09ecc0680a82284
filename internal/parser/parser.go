// Package parser wraps the tree-sitter Elixir grammar behind a capability
// probe. The probe runs once per process; when the grammar is unavailable
// every caller degrades to the heuristic scanners in internal/extract.
package parser

import (
	"fmt"
	"sync"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_elixir "github.com/tree-sitter/tree-sitter-elixir/bindings/go"
)

var (
	languageOnce sync.Once
	language     *tree_sitter.Language
	languageErr  error
	parserPool   sync.Pool
)

func initLanguage() {
	languageOnce.Do(func() {
		defer func() {
			if r := recover(); r != nil {
				languageErr = fmt.Errorf("elixir grammar init: %v", r)
			}
		}()
		language = tree_sitter.NewLanguage(tree_sitter_elixir.Language())
		if language == nil {
			languageErr = fmt.Errorf("elixir grammar init: nil language")
			return
		}
		parserPool = sync.Pool{
			New: func() any {
				p := tree_sitter.NewParser()
				if err := p.SetLanguage(language); err != nil {
					return nil
				}
				return p
			},
		}
	})
}

// Parse parses Elixir source into a tree-sitter AST.
// The caller must call tree.Close() when done. Parsers are pooled via
// sync.Pool to avoid per-file allocation.
func Parse(source []byte) (tree *tree_sitter.Tree, err error) {
	initLanguage()
	if languageErr != nil {
		return nil, languageErr
	}

	// The grammar is CGO-backed; a crash in it must degrade, not abort.
	defer func() {
		if r := recover(); r != nil {
			tree = nil
			err = fmt.Errorf("elixir parse: %v", r)
		}
	}()

	p, _ := parserPool.Get().(*tree_sitter.Parser)
	if p == nil {
		return nil, fmt.Errorf("elixir parser unavailable")
	}
	tree = p.Parse(source, nil)
	parserPool.Put(p)

	if tree == nil {
		return nil, fmt.Errorf("elixir parse returned no tree")
	}
	return tree, nil
}

// WalkFunc is called for each node during AST traversal.
// Return false to skip children.
type WalkFunc func(node *tree_sitter.Node) bool

// Walk traverses the AST in depth-first order.
func Walk(node *tree_sitter.Node, fn WalkFunc) {
	if node == nil {
		return
	}
	if !fn(node) {
		return
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child != nil {
			Walk(child, fn)
		}
	}
}

// NodeText returns the text content of a node.
func NodeText(node *tree_sitter.Node, source []byte) string {
	return string(source[node.StartByte():node.EndByte()])
}

// FindChildByKind returns the first direct child of the given kind.
func FindChildByKind(node *tree_sitter.Node, kind string) *tree_sitter.Node {
	if node == nil {
		return nil
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child != nil && child.Kind() == kind {
			return child
		}
	}
	return nil
}

// CallTarget returns the callee name of an Elixir call node.
// Elixir is homoiconic: def, defmodule, attr, slot are all macro calls with
// an identifier in the "target" field.
func CallTarget(node *tree_sitter.Node, source []byte) string {
	target := node.ChildByFieldName("target")
	if target == nil {
		return ""
	}
	return NodeText(target, source)
}

// Line converts a tree-sitter row to a 1-based line number.
func Line(row uint) int {
	return int(row) + 1
}
