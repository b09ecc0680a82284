package extract

import (
	"strings"

	"github.com/phxls/workspace-index/internal/metadata"
)

// Both front ends (tree-sitter and the line scanner) reduce a source file
// to a flat stream of declarations in line order; assembleComponents then
// binds attr/slot declarations to definition clauses. Keeping the binding
// logic behind one decl stream makes the proximity/aging heuristic
// testable independent of either parser.

type declKind int

const (
	declAttr declKind = iota
	declSlot
	declDef
)

type decl struct {
	kind   declKind
	line   int
	module string
	name   string
	args   string // raw argument text after the name, "" when none
	doc    string
	nested []decl // slot do-block attribute declarations
}

const (
	// pendingRingSize bounds how many attr/slot declarations can await a
	// definition clause at once.
	pendingRingSize = 32
	// maxBindDistance is the proximity window: an unconsumed declaration
	// binds to the nearest subsequent definition within this many lines.
	maxBindDistance = 40
	// maxPendingAge is the aging window: a consumed declaration stays
	// visible to later clauses of the same definition name this long.
	maxPendingAge = 200
)

type pendingDecl struct {
	d          decl
	consumedBy string // definition name that first consumed it, "" if none
}

// pendingRing is a small ring buffer of declarations waiting to be bound.
// Pushing over capacity evicts the oldest entry.
type pendingRing struct {
	buf   [pendingRingSize]pendingDecl
	start int
	n     int
}

func (r *pendingRing) push(d decl) {
	if r.n == pendingRingSize {
		r.start = (r.start + 1) % pendingRingSize
		r.n--
	}
	r.buf[(r.start+r.n)%pendingRingSize] = pendingDecl{d: d}
	r.n++
}

// evict drops entries older than maxPendingAge relative to line.
func (r *pendingRing) evict(line int) {
	for r.n > 0 && line-r.buf[r.start].d.line > maxPendingAge {
		r.start = (r.start + 1) % pendingRingSize
		r.n--
	}
}

// takeFor returns the declarations visible to a definition clause named
// defName at defLine: unconsumed entries within the proximity window
// (marking them consumed), plus entries previously consumed by the same
// definition name that are still inside the aging window.
func (r *pendingRing) takeFor(defName string, defLine int) []decl {
	r.evict(defLine)
	var out []decl
	for i := 0; i < r.n; i++ {
		e := &r.buf[(r.start+i)%pendingRingSize]
		if e.d.line > defLine {
			continue
		}
		switch {
		case e.consumedBy == "":
			if defLine-e.d.line <= maxBindDistance {
				e.consumedBy = defName
				out = append(out, e.d)
			}
		case e.consumedBy == defName:
			out = append(out, e.d)
		}
	}
	return out
}

// assembleComponents folds a decl stream into merged logical components.
// Clauses sharing (module, name) merge: the first clause wins location and
// doc, attribute and slot lists are unioned keeping the first occurrence
// per name.
func assembleComponents(path string, decls []decl) []*metadata.UIComponent {
	ring := &pendingRing{}
	var order []string
	byKey := make(map[string]*metadata.UIComponent)

	for _, d := range decls {
		switch d.kind {
		case declAttr, declSlot:
			ring.push(d)
		case declDef:
			bound := ring.takeFor(d.name, d.line)
			key := d.module + "." + d.name
			comp := byKey[key]
			if comp == nil {
				comp = &metadata.UIComponent{
					Name:     d.name,
					Module:   d.module,
					FilePath: path,
					Line:     d.line,
					Doc:      d.doc,
				}
				byKey[key] = comp
				order = append(order, key)
			} else if comp.Doc == "" && d.doc != "" {
				comp.Doc = d.doc
			}
			for _, b := range bound {
				switch b.kind {
				case declAttr:
					addAttr(&comp.Attrs, parseAttrDecl(b))
				case declSlot:
					addSlot(comp, parseSlotDecl(b))
				}
			}
		}
	}

	out := make([]*metadata.UIComponent, 0, len(order))
	for _, key := range order {
		out = append(out, byKey[key])
	}
	return out
}

func addAttr(attrs *[]metadata.Attribute, a metadata.Attribute) {
	for _, existing := range *attrs {
		if existing.Name == a.Name {
			return // first occurrence wins
		}
	}
	*attrs = append(*attrs, a)
}

func addSlot(comp *metadata.UIComponent, s metadata.Slot) {
	for _, existing := range comp.Slots {
		if existing.Name == s.Name {
			return
		}
	}
	comp.Slots = append(comp.Slots, s)
}

// parseAttrDecl interprets an attr declaration's argument text:
// `:string, required: true, values: ["a", "b"], doc: "..."`.
func parseAttrDecl(d decl) metadata.Attribute {
	a := metadata.Attribute{Name: d.name, Doc: d.doc, Line: d.line}
	parts := SplitTopLevel(d.args)
	if len(parts) > 0 {
		a.Type = strings.TrimSpace(parts[0])
		parts = parts[1:]
	}
	opts := KeywordOpts(parts)
	if opts["required"] == "true" {
		a.Required = true
	}
	if def, ok := opts["default"]; ok {
		a.Default = def
	}
	if values, ok := opts["values"]; ok {
		a.Values = ListValues(values)
	}
	if a.Doc == "" {
		a.Doc = StringLit(opts["doc"])
	}
	return a
}

// parseSlotDecl interprets a slot declaration, including attr declarations
// from its do-block.
func parseSlotDecl(d decl) metadata.Slot {
	s := metadata.Slot{Name: d.name, Doc: d.doc, Line: d.line}
	opts := KeywordOpts(SplitTopLevel(d.args))
	if opts["required"] == "true" {
		s.Required = true
	}
	if s.Doc == "" {
		s.Doc = StringLit(opts["doc"])
	}
	for _, n := range d.nested {
		if n.kind == declAttr {
			addAttr(&s.Attrs, parseAttrDecl(n))
		}
	}
	return s
}
