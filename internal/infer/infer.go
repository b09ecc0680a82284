// Package infer pattern-matches common data-access idioms in source text
// to assign a best-guess record type to an expression. A nil result is a
// legitimate, expected outcome, not an error.
package infer

import (
	"regexp"
	"strings"

	"github.com/phxls/workspace-index/internal/modname"
)

// Result is a best-guess type for an expression.
type Result struct {
	// Module is the guessed canonical module name, or a literal kind
	// ("string", "number", "boolean", "list", "map") for literals, or
	// "Ecto.Changeset" for change-description idioms.
	Module string
	// List is true for many-valued results (Repo.all, list_* fetches).
	List bool
}

// String renders the result the way registries store inferred types:
// "MyApp.User" or "[MyApp.User]".
func (r *Result) String() string {
	if r == nil {
		return ""
	}
	if r.List {
		return "[" + r.Module + "]"
	}
	return r.Module
}

var (
	reRepoGet   = regexp.MustCompile(`\bRepo\.(?:get|get!|get_by|get_by!|one|one!|reload|reload!)\(\s*([A-Z][\w.]*)`)
	reRepoAll   = regexp.MustCompile(`\bRepo\.(?:all|preload)\(\s*([A-Z][\w.]*)`)
	reGetFun    = regexp.MustCompile(`\bget_([a-z_]+?)!?\(`)
	reFetchFun  = regexp.MustCompile(`\bfetch_([a-z_]+?)!?\(`)
	reListFun   = regexp.MustCompile(`\blist_([a-z_]+)\(`)
	reStruct    = regexp.MustCompile(`%([A-Z][\w.]*)\{`)
	reChangeFun = regexp.MustCompile(`\bchange_[a-z_]+!?\(`)
	reNumber    = regexp.MustCompile(`^-?\d`)
)

// Expr infers a type from a source expression. Patterns are checked in
// order; the first match wins.
func Expr(expr string) *Result {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil
	}

	// Record fetch by id: Repo.get(User, id), get_user!(id).
	if m := reRepoGet.FindStringSubmatch(expr); m != nil {
		return &Result{Module: m[1]}
	}
	if m := reGetFun.FindStringSubmatch(expr); m != nil {
		return &Result{Module: modname.Camelize(modname.Singularize(m[1]))}
	}
	if m := reFetchFun.FindStringSubmatch(expr); m != nil {
		return &Result{Module: modname.Camelize(modname.Singularize(m[1]))}
	}

	// Record list fetch: Repo.all(User), list_users().
	if m := reRepoAll.FindStringSubmatch(expr); m != nil {
		return &Result{Module: m[1], List: true}
	}
	if m := reListFun.FindStringSubmatch(expr); m != nil {
		return &Result{Module: modname.Camelize(modname.Singularize(m[1])), List: true}
	}

	// Literal struct construction: %User{...}.
	if m := reStruct.FindStringSubmatch(expr); m != nil {
		if m[1] == "Ecto.Changeset" {
			return &Result{Module: "Ecto.Changeset"}
		}
		return &Result{Module: m[1]}
	}

	// Change-description idioms: change_user(user), Accounts.changeset(...).
	if strings.Contains(expr, "Ecto.Changeset") ||
		strings.Contains(expr, ".changeset(") ||
		reChangeFun.MatchString(expr) ||
		strings.HasPrefix(expr, "change(") ||
		strings.HasPrefix(expr, "cast(") {
		return &Result{Module: "Ecto.Changeset"}
	}

	// Literals.
	switch {
	case strings.HasPrefix(expr, "%{"):
		return &Result{Module: "map"}
	case strings.HasPrefix(expr, "["):
		return &Result{Module: "list"}
	case strings.HasPrefix(expr, `"`):
		return &Result{Module: "string"}
	case expr == "true" || expr == "false":
		return &Result{Module: "boolean"}
	case reNumber.MatchString(expr):
		return &Result{Module: "number"}
	}

	return nil
}

// literalKinds are inference results that never resolve to a schema.
var literalKinds = map[string]bool{
	"string": true, "number": true, "boolean": true,
	"list": true, "map": true,
}

// IsLiteral reports whether an inferred module string names a literal kind
// rather than a schema module.
func IsLiteral(module string) bool {
	return literalKinds[module]
}

// ListElement unwraps a "[Module]" inferred-type string. ok is false when
// the string is not a list type.
func ListElement(inferred string) (string, bool) {
	if strings.HasPrefix(inferred, "[") && strings.HasSuffix(inferred, "]") {
		return inferred[1 : len(inferred)-1], true
	}
	return "", false
}
