package extract

import (
	"regexp"
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/phxls/workspace-index/internal/imports"
	"github.com/phxls/workspace-index/internal/metadata"
	"github.com/phxls/workspace-index/internal/parser"
)

var (
	reSchemaOpen   = regexp.MustCompile(`^schema\s+"([^"]+)"\s+do\b`)
	reEmbeddedOpen = regexp.MustCompile(`^embedded_schema\s+do\b`)
	reFieldLine    = regexp.MustCompile(`^field\s*\(?\s*:([a-z_]\w*)\s*,?\s*(.*)$`)
	reAssocLine    = regexp.MustCompile(`^(belongs_to|has_one|has_many|many_to_many|embeds_one|embeds_many)\s*\(?\s*:([a-z_]\w*)\s*,\s*([A-Z][\w.]*)`)
	reTimestamps   = regexp.MustCompile(`^timestamps\s*\(`)
)

// assocCardinality maps the association macros to their cardinality.
var assocCardinality = map[string]metadata.Cardinality{
	"belongs_to":   metadata.One,
	"has_one":      metadata.One,
	"embeds_one":   metadata.One,
	"has_many":     metadata.Many,
	"many_to_many": metadata.Many,
	"embeds_many":  metadata.Many,
}

// schemaBuilder accumulates declarations from either front end and
// finalizes the synthesized fields: persisted schemas always receive an
// identity field, embedded ones never do; timestamps() adds the two
// timestamp fields on both kinds.
type schemaBuilder struct {
	schema        metadata.RecordSchema
	sawTimestamps bool
}

func newSchemaBuilder(module, path string, line int, storage string, aliases map[string]string) *schemaBuilder {
	return &schemaBuilder{schema: metadata.RecordSchema{
		Module:      module,
		StorageName: storage,
		FilePath:    path,
		Line:        line,
		Aliases:     aliases,
	}}
}

func (b *schemaBuilder) field(name, typeText string) {
	kind, isList := primitiveKindFor(typeText)
	b.schema.Fields = append(b.schema.Fields, metadata.Field{
		Name:     name,
		Kind:     kind,
		TypeName: typeText,
		List:     isList,
	})
}

func (b *schemaBuilder) assoc(macro, fieldName, target string) {
	card, ok := assocCardinality[macro]
	if !ok {
		return
	}
	canonical := b.canonicalTarget(target)
	b.schema.Fields = append(b.schema.Fields, metadata.Field{
		Name:         fieldName,
		Kind:         metadata.KindAssoc,
		TypeName:     target,
		LinkedModule: canonical,
		List:         card == metadata.Many,
	})
	if macro == "belongs_to" {
		b.schema.Fields = append(b.schema.Fields, metadata.Field{
			Name: fieldName + "_id",
			Kind: metadata.KindID,
		})
	}
	b.schema.Associations = append(b.schema.Associations, metadata.Association{
		FieldName:    fieldName,
		TargetModule: canonical,
		Cardinality:  card,
	})
}

// canonicalTarget expands an association target through the file's alias
// map, defaulting short names into the schema's own namespace.
func (b *schemaBuilder) canonicalTarget(target string) string {
	head := target
	if i := strings.IndexByte(target, '.'); i >= 0 {
		head = target[:i]
	}
	if full, ok := b.schema.Aliases[head]; ok {
		return full + strings.TrimPrefix(target, head)
	}
	if !strings.Contains(target, ".") {
		if i := strings.LastIndexByte(b.schema.Module, '.'); i >= 0 {
			return b.schema.Module[:i] + "." + target
		}
	}
	return target
}

func (b *schemaBuilder) timestamps() { b.sawTimestamps = true }

func (b *schemaBuilder) finalize() *metadata.RecordSchema {
	s := b.schema
	if s.Persisted() {
		fields := make([]metadata.Field, 0, len(s.Fields)+3)
		fields = append(fields, metadata.Field{Name: "id", Kind: metadata.KindID})
		s.Fields = append(fields, s.Fields...)
	}
	if b.sawTimestamps {
		s.Fields = append(s.Fields,
			metadata.Field{Name: "inserted_at", Kind: metadata.KindDateTime},
			metadata.Field{Name: "updated_at", Kind: metadata.KindDateTime},
		)
	}
	return &s
}

// primitiveKindFor classifies a declared field type.
func primitiveKindFor(typeText string) (metadata.PrimitiveKind, bool) {
	t := strings.TrimSpace(typeText)
	if strings.HasPrefix(t, "{:array") {
		return metadata.KindArray, true
	}
	switch AtomName(t) {
	case "string", "binary":
		return metadata.KindString, false
	case "integer":
		return metadata.KindInteger, false
	case "float":
		return metadata.KindFloat, false
	case "decimal":
		return metadata.KindDecimal, false
	case "boolean":
		return metadata.KindBoolean, false
	case "id":
		return metadata.KindID, false
	case "binary_id":
		return metadata.KindBinaryID, false
	case "utc_datetime", "utc_datetime_usec", "naive_datetime", "naive_datetime_usec":
		return metadata.KindDateTime, false
	case "date":
		return metadata.KindDate, false
	case "time", "time_usec":
		return metadata.KindTime, false
	case "map":
		return metadata.KindMap, false
	case "":
		// No type given: Ecto has no such form, but mid-edit input does.
		return metadata.KindUnknown, false
	default:
		return metadata.KindUnknown, false
	}
}

// scanSchemas is the heuristic schema front end.
func scanSchemas(path string, src []byte) []*metadata.RecordSchema {
	aliases := imports.Scan(src, "").Aliases
	var out []*metadata.RecordSchema
	var b *schemaBuilder

	scanSource(src, func(l *lineCtx) {
		if b == nil {
			if l.Module() == "" {
				return
			}
			if m := reSchemaOpen.FindStringSubmatch(l.Text); m != nil {
				b = newSchemaBuilder(l.Module(), path, l.Num, m[1], aliases)
				return
			}
			if reEmbeddedOpen.MatchString(l.Text) {
				b = newSchemaBuilder(l.Module(), path, l.Num, "", aliases)
			}
			return
		}

		switch {
		case strings.HasPrefix(l.Text, "end"):
			out = append(out, b.finalize())
			b = nil
		case reTimestamps.MatchString(l.Text):
			b.timestamps()
		default:
			if m := reAssocLine.FindStringSubmatch(l.Text); m != nil {
				b.assoc(m[1], m[2], m[3])
				return
			}
			if m := reFieldLine.FindStringSubmatch(l.Text); m != nil {
				args := trimDeclArgs(m[2])
				parts := SplitTopLevel(args)
				typeText := ""
				if len(parts) > 0 {
					typeText = parts[0]
				}
				b.field(m[1], typeText)
			}
		}
	})

	if b != nil {
		// Unclosed block: user mid-edit. Keep what was declared so far.
		out = append(out, b.finalize())
	}
	return out
}

// astSchemas is the structured schema front end.
func astSchemas(path string, src []byte, root *tree_sitter.Node) []*metadata.RecordSchema {
	aliases := imports.Scan(src, "").Aliases
	var out []*metadata.RecordSchema
	collectSchemas(root, src, "", path, aliases, &out)
	return out
}

func collectSchemas(node *tree_sitter.Node, src []byte, module, path string, aliases map[string]string, out *[]*metadata.RecordSchema) {
	parser.Walk(node, func(n *tree_sitter.Node) bool {
		if n.Kind() != "call" {
			return true
		}
		switch target := parser.CallTarget(n, src); target {
		case "defmodule":
			name := moduleDefName(n, src)
			if name == "" {
				return true
			}
			if module != "" && !strings.HasPrefix(name, module+".") {
				name = module + "." + name
			}
			if body := parser.FindChildByKind(n, "do_block"); body != nil {
				collectSchemas(body, src, name, path, aliases, out)
			}
			return false
		case "schema", "embedded_schema":
			if module == "" {
				return true
			}
			storage := ""
			if target == "schema" {
				args := parser.FindChildByKind(n, "arguments")
				if args == nil {
					return false
				}
				storage = StringLit(firstPart(argsText(args, src)))
				if storage == "" {
					return false
				}
			}
			b := newSchemaBuilder(module, path, parser.Line(n.StartPosition().Row), storage, aliases)
			if body := parser.FindChildByKind(n, "do_block"); body != nil {
				collectSchemaBody(body, src, b)
			}
			*out = append(*out, b.finalize())
			return false
		}
		return true
	})
}

func collectSchemaBody(body *tree_sitter.Node, src []byte, b *schemaBuilder) {
	parser.Walk(body, func(n *tree_sitter.Node) bool {
		if n.Id() == body.Id() {
			return true
		}
		if n.Kind() != "call" {
			return true
		}
		target := parser.CallTarget(n, src)
		args := parser.FindChildByKind(n, "arguments")
		argText := ""
		if args != nil {
			argText = argsText(args, src)
		}
		parts := SplitTopLevel(argText)

		switch target {
		case "field":
			if len(parts) == 0 {
				return false
			}
			name := AtomName(parts[0])
			if name == "" {
				return false
			}
			typeText := ""
			if len(parts) > 1 {
				typeText = parts[1]
			}
			b.field(name, typeText)
			return false
		case "belongs_to", "has_one", "has_many", "many_to_many", "embeds_one", "embeds_many":
			if len(parts) < 2 {
				return false
			}
			name := AtomName(parts[0])
			targetMod := strings.TrimSpace(parts[1])
			if name == "" || targetMod == "" {
				return false
			}
			b.assoc(target, name, targetMod)
			return false
		case "timestamps":
			b.timestamps()
			return false
		}
		return true
	})
}

func firstPart(argText string) string {
	parts := SplitTopLevel(argText)
	if len(parts) == 0 {
		return ""
	}
	return parts[0]
}
