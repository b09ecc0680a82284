package extract

import (
	"regexp"
	"strings"

	"github.com/phxls/workspace-index/internal/metadata"
)

var (
	reAttrLine = regexp.MustCompile(`^attr\s*\(?\s*:([a-z_]\w*)\s*,\s*(.*)$`)
	reSlotLine = regexp.MustCompile(`^slot\s*\(?\s*:([a-z_]\w*)\s*,?\s*(.*)$`)
	reDefLine  = regexp.MustCompile(`^defp?\s+([a-z_]\w*[!?]?)\s*\(`)
)

// scanComponents is the heuristic component front end: a line scanner that
// emits the decl stream consumed by assembleComponents. Slot do-blocks are
// tracked with an explicit open-block cursor rather than a grammar.
func scanComponents(path string, src []byte) []*metadata.UIComponent {
	var decls []decl
	var openSlot *decl // slot whose do-block is currently open

	scanSource(src, func(l *lineCtx) {
		if l.Module() == "" {
			return
		}

		if openSlot != nil {
			if strings.HasPrefix(l.Text, "end") {
				decls = append(decls, *openSlot)
				openSlot = nil
				return
			}
			if m := reAttrLine.FindStringSubmatch(l.Text); m != nil {
				openSlot.nested = append(openSlot.nested, decl{
					kind: declAttr,
					line: l.Num,
					name: m[1],
					args: trimDeclArgs(m[2]),
				})
			}
			return
		}

		if m := reAttrLine.FindStringSubmatch(l.Text); m != nil {
			decls = append(decls, decl{
				kind:   declAttr,
				line:   l.Num,
				module: l.Module(),
				name:   m[1],
				args:   trimDeclArgs(m[2]),
			})
			return
		}

		if m := reSlotLine.FindStringSubmatch(l.Text); m != nil {
			d := decl{
				kind:   declSlot,
				line:   l.Num,
				module: l.Module(),
				name:   m[1],
				args:   trimDeclArgs(strings.TrimSuffix(m[2], " do")),
			}
			if strings.HasSuffix(l.Text, " do") {
				openSlot = &d
				return
			}
			decls = append(decls, d)
			return
		}

		if m := reDefLine.FindStringSubmatch(l.Text); m != nil {
			name := m[1]
			if name == "render" || !isComponentParams(l.Text) {
				return
			}
			decls = append(decls, decl{
				kind:   declDef,
				line:   l.Num,
				module: l.Module(),
				name:   name,
				doc:    l.TakeDoc(),
			})
			return
		}
	})

	if openSlot != nil {
		decls = append(decls, *openSlot)
	}
	return assembleComponents(path, decls)
}

// trimDeclArgs strips the closing paren of the call form
// (`attr(:name, :string)`) and any trailing inline comment.
func trimDeclArgs(args string) string {
	args = strings.TrimSpace(args)
	if i := strings.Index(args, " #"); i >= 0 {
		args = strings.TrimSpace(args[:i])
	}
	args = strings.TrimSuffix(args, ")")
	return strings.TrimSpace(args)
}

// isComponentParams reports whether a def line declares a single parameter
// bound to assigns — the function-component shape.
func isComponentParams(line string) bool {
	params, ok := BalancedArg(line)
	if !ok {
		// Mid-edit line; accept when the visible text still names assigns.
		params = line[strings.IndexByte(line, '(')+1:]
	}
	parts := SplitTopLevel(params)
	if len(parts) != 1 {
		return false
	}
	return strings.Contains(parts[0], "assigns")
}
