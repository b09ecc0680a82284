// Package metadata defines the typed entities derived from workspace source
// files. Entities are plain values: registries own them exclusively and
// cross-registry references use canonical module/name strings, never pointers.
package metadata

import "strings"

// PrimitiveKind classifies an Ecto field's declared type.
type PrimitiveKind string

const (
	KindString   PrimitiveKind = "string"
	KindInteger  PrimitiveKind = "integer"
	KindFloat    PrimitiveKind = "float"
	KindDecimal  PrimitiveKind = "decimal"
	KindBoolean  PrimitiveKind = "boolean"
	KindID       PrimitiveKind = "id"
	KindBinaryID PrimitiveKind = "binary_id"
	KindDateTime PrimitiveKind = "datetime"
	KindDate     PrimitiveKind = "date"
	KindTime     PrimitiveKind = "time"
	KindMap      PrimitiveKind = "map"
	KindArray    PrimitiveKind = "array"
	// KindAssoc marks association and embed fields. Fields of this kind
	// carry a LinkedModule and participate in nested path resolution.
	KindAssoc PrimitiveKind = "assoc"
	// KindUnknown covers custom Ecto types we don't classify.
	KindUnknown PrimitiveKind = "unknown"
)

// Cardinality of an association.
type Cardinality string

const (
	One  Cardinality = "one"
	Many Cardinality = "many"
)

// HandlerKind distinguishes client-initiated events from process messages.
type HandlerKind string

const (
	// ClickHandler is a handle_event/3 clause (phx-click style bindings).
	ClickHandler HandlerKind = "event"
	// MessageHandler is a handle_info/2 clause (send/2 style messages).
	MessageHandler HandlerKind = "message"
)

// NameKind records how an event name was written at the definition site.
type NameKind string

const (
	StringName NameKind = "string"
	AtomName   NameKind = "atom"
)

// Attribute is an attr/3 declaration on a component or slot.
type Attribute struct {
	Name     string
	Type     string // declared type as written: ":string", "MyApp.User", ...
	Required bool
	Default  string   // raw source text, "" when absent
	Values   []string // values: option, nil when absent
	Doc      string
	Line     int
}

// Slot is a slot/2,3 declaration, optionally with its own attribute contract.
type Slot struct {
	Name     string
	Required bool
	Doc      string
	Attrs    []Attribute
	Line     int
}

// UIComponent is a Phoenix function component. Multiple definition clauses
// sharing (Module, Name) are merged into one logical component: the first
// clause wins Line and Doc, attribute and slot lists are unioned keeping
// the first occurrence per name.
type UIComponent struct {
	Name     string
	Module   string // owning module, canonical
	FilePath string
	Line     int
	Doc      string
	Attrs    []Attribute
	Slots    []Slot
}

// Key returns the uniqueness key for a component.
func (c *UIComponent) Key() string {
	return c.Module + "." + c.Name
}

// Field is a single field of a record schema. LinkedModule is set for
// association and embed fields, enabling graph traversal across schemas.
type Field struct {
	Name         string
	Kind         PrimitiveKind
	TypeName     string // raw declared type text
	LinkedModule string // canonical module for assoc/embed fields
	List         bool   // true for many-cardinality and {:array, _} fields
}

// Association is a typed link between two record schemas.
type Association struct {
	FieldName    string
	TargetModule string
	Cardinality  Cardinality
}

// RecordSchema is an Ecto schema. StorageName is empty for embedded
// (non-persisted) schemas; persisted schemas always carry a synthesized
// identity field, embedded ones never do.
type RecordSchema struct {
	Module       string
	StorageName  string
	FilePath     string
	Line         int
	Fields       []Field
	Associations []Association
	// Aliases captures the alias declarations in scope at the definition
	// site, used to canonicalize short association target names.
	Aliases map[string]string
}

// Persisted reports whether the schema is backed by a storage table.
func (s *RecordSchema) Persisted() bool { return s.StorageName != "" }

// FieldNamed returns the field with the given name, or nil.
func (s *RecordSchema) FieldNamed(name string) *Field {
	for i := range s.Fields {
		if s.Fields[i].Name == name {
			return &s.Fields[i]
		}
	}
	return nil
}

// AssignBinding is one named value passed to a template by a render call.
type AssignBinding struct {
	Name string
	Expr string // source expression text
	// InferredType is a best-guess canonical module name, "[Module]" for
	// lists, a literal kind ("string", "map", ...), or "" when inference
	// failed. Failure is an expected outcome, not an error.
	InferredType string
}

// ControllerRender records one render call inside a controller action.
type ControllerRender struct {
	ControllerModule string
	Action           string // enclosing function name, "" if unknown
	TemplateName     string
	TemplateFormat   string // "html" when derivable, "" otherwise
	ViewModule       string // explicit view module, "" for convention
	Assigns          []AssignBinding
	Line             int
}

// TemplateRecord is one renderable template known to the workspace.
// A function-embedded template's FilePath is the composite "file.ex#name"
// so it can't collide with a file-based template.
type TemplateRecord struct {
	Module   string // owning view module
	Name     string
	Format   string
	FilePath string
	Line     int // definition line for function-embedded templates, else 0
	Embedded bool
	// EmbedPattern marks an embed_templates declaration rather than a
	// template: the glob (relative to the declaring file's directory)
	// whose matches the Module claims ownership of.
	EmbedPattern string
}

// IsEmbedDecl reports whether the record is an embed_templates declaration.
func (t *TemplateRecord) IsEmbedDecl() bool { return t.EmbedPattern != "" }

// EventHandler records one handle_event/handle_info clause.
type EventHandler struct {
	Module   string
	Kind     HandlerKind
	Name     string
	NameKind NameKind
	Line     int
}

// ImportContext is the per-file import and alias environment.
type ImportContext struct {
	// Imports lists canonical module names whose functions and components
	// are directly reachable without qualification.
	Imports []string
	// Aliases maps short names to canonical module names.
	Aliases map[string]string
}

// ResolveAlias expands the leading segment of a (possibly dotted) module
// reference through the alias map. "CC" -> "MyAppWeb.CoreComponents",
// "Accounts.User" -> "MyApp.Accounts.User" when Accounts is aliased.
func (ic *ImportContext) ResolveAlias(ref string) string {
	if ic == nil || len(ic.Aliases) == 0 || ref == "" {
		return ref
	}
	head := ref
	rest := ""
	if i := strings.IndexByte(ref, '.'); i >= 0 {
		head, rest = ref[:i], ref[i:]
	}
	if full, ok := ic.Aliases[head]; ok {
		return full + rest
	}
	return ref
}
