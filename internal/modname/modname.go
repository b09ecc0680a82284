// Package modname holds canonical module-name helpers: camelization of
// snake_case path segments, naive singularization, and the conventional
// controller/view/template name mappings used during resolution.
package modname

import (
	"path/filepath"
	"strings"
)

// acronyms are path segments that camelize to all-caps by convention.
var acronyms = map[string]string{
	"html": "HTML", "json": "JSON", "xml": "XML", "csv": "CSV",
	"api": "API", "url": "URL", "id": "ID", "sql": "SQL",
}

// Camelize converts a snake_case segment to a module-name segment:
// "user_html" -> "UserHTML", "core_components" -> "CoreComponents".
func Camelize(s string) string {
	parts := strings.Split(s, "_")
	var b strings.Builder
	for _, p := range parts {
		if p == "" {
			continue
		}
		if up, ok := acronyms[p]; ok {
			b.WriteString(up)
			continue
		}
		b.WriteString(strings.ToUpper(p[:1]))
		b.WriteString(p[1:])
	}
	return b.String()
}

// Underscore converts a module-name segment to snake_case:
// "UserHTML" -> "user_html", "CoreComponents" -> "core_components".
func Underscore(s string) string {
	var b strings.Builder
	runes := []rune(s)
	for i, r := range runes {
		if r >= 'A' && r <= 'Z' {
			// Boundary: previous rune lowercase, or next rune lowercase
			// (end of an acronym run, e.g. the "H" in "UserHTML" vs "L").
			if i > 0 {
				prevLower := runes[i-1] >= 'a' && runes[i-1] <= 'z'
				nextLower := i+1 < len(runes) && runes[i+1] >= 'a' && runes[i+1] <= 'z'
				if prevLower || nextLower {
					b.WriteByte('_')
				}
			}
			b.WriteRune(r + ('a' - 'A'))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Singularize applies the naive plural rules good enough for Ecto
// conventions: "users" -> "user", "entries" -> "entry", "boxes" -> "box".
func Singularize(s string) string {
	switch {
	case strings.HasSuffix(s, "ies"):
		return s[:len(s)-3] + "y"
	case strings.HasSuffix(s, "ses"), strings.HasSuffix(s, "xes"),
		strings.HasSuffix(s, "ches"), strings.HasSuffix(s, "shes"):
		return s[:len(s)-2]
	case strings.HasSuffix(s, "s") && !strings.HasSuffix(s, "ss"):
		return s[:len(s)-1]
	}
	return s
}

// LastSegment returns the final dotted segment of a module name.
func LastSegment(module string) string {
	if i := strings.LastIndexByte(module, '.'); i >= 0 {
		return module[i+1:]
	}
	return module
}

// Namespace returns everything before the final dotted segment, or "".
func Namespace(module string) string {
	if i := strings.LastIndexByte(module, '.'); i >= 0 {
		return module[:i]
	}
	return ""
}

// descriptivePrefixes are conventional qualifiers prepended to assign names
// that do not change the underlying schema: @current_user is still a User.
var descriptivePrefixes = []string{"Current", "New", "Selected", "Updated", "Edited"}

// StripDescriptivePrefix removes one conventional descriptive prefix from a
// name segment: "CurrentUser" -> "User". Returns "" when nothing applies.
func StripDescriptivePrefix(segment string) string {
	for _, p := range descriptivePrefixes {
		if strings.HasPrefix(segment, p) && len(segment) > len(p) {
			return segment[len(p):]
		}
	}
	return ""
}

// ViewModuleCandidates returns the conventional view modules for a
// controller: "MyAppWeb.UserController" -> MyAppWeb.UserHTML, MyAppWeb.UserView.
func ViewModuleCandidates(controllerModule string) []string {
	base := strings.TrimSuffix(controllerModule, "Controller")
	if base == controllerModule {
		return nil
	}
	return []string{base + "HTML", base + "View"}
}

// TemplateDirGuess returns the conventional on-disk location for a
// controller's template: given lib/my_app_web/controllers/user_controller.ex,
// template :show in format html lives at
// lib/my_app_web/controllers/user_html/show.html.heex.
func TemplateDirGuess(controllerFilePath, templateName, format string) string {
	dir := filepath.Dir(controllerFilePath)
	base := filepath.Base(controllerFilePath)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	base = strings.TrimSuffix(base, "_controller")
	if format == "" {
		format = "html"
	}
	return filepath.Join(dir, base+"_"+format, templateName+"."+format+".heex")
}

// SiblingViewFile returns the view-module source file co-located with a
// file-based template: ".../controllers/user_html/show.html.heex" ->
// ".../controllers/user_html.ex".
func SiblingViewFile(templatePath string) string {
	dir := filepath.Dir(templatePath)
	if dir == "." || dir == string(filepath.Separator) {
		return ""
	}
	return dir + ".ex"
}

// TemplateNameAndFormat splits a template filename into its name and
// format: "show.html.heex" -> ("show", "html"). Single-extension
// templates ("sidebar.heex") report format "html".
func TemplateNameAndFormat(templatePath string) (name, format string) {
	base := filepath.Base(templatePath)
	base = strings.TrimSuffix(base, ".heex")
	base = strings.TrimSuffix(base, ".eex")
	if ext := filepath.Ext(base); ext != "" {
		return strings.TrimSuffix(base, ext), strings.TrimPrefix(ext, ".")
	}
	return base, "html"
}
