package extract

import "strings"

// SplitTopLevel splits a comma-separated Elixir argument list on top-level
// commas only. Nested brackets, braces, parens and string/charlist literals
// are tracked so options containing them are not mis-split:
//
//	`:string, values: ["a", "b"], doc: "x, y"` -> 3 parts
func SplitTopLevel(s string) []string {
	var parts []string
	var b strings.Builder
	depth := 0
	var quote byte // 0 when outside a string literal
	escaped := false

	for i := 0; i < len(s); i++ {
		c := s[i]
		if quote != 0 {
			b.WriteByte(c)
			if escaped {
				escaped = false
				continue
			}
			switch c {
			case '\\':
				escaped = true
			case quote:
				quote = 0
			}
			continue
		}
		switch c {
		case '"', '\'':
			quote = c
			b.WriteByte(c)
		case '(', '[', '{':
			depth++
			b.WriteByte(c)
		case ')', ']', '}':
			depth--
			b.WriteByte(c)
		case ',':
			if depth == 0 {
				parts = append(parts, strings.TrimSpace(b.String()))
				b.Reset()
			} else {
				b.WriteByte(c)
			}
		default:
			b.WriteByte(c)
		}
	}
	if p := strings.TrimSpace(b.String()); p != "" {
		parts = append(parts, p)
	}
	return parts
}

// KeywordOpts parses trailing keyword-list parts (`required: true`,
// `doc: "..."`) into a map of raw value text keyed by option name.
// Non-keyword parts are ignored.
func KeywordOpts(parts []string) map[string]string {
	opts := make(map[string]string, len(parts))
	for _, p := range parts {
		i := strings.IndexByte(p, ':')
		if i <= 0 {
			continue
		}
		key := strings.TrimSpace(p[:i])
		if !isIdent(key) {
			continue
		}
		opts[key] = strings.TrimSpace(p[i+1:])
	}
	return opts
}

func isIdent(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z', c >= '0' && c <= '9', c == '_':
		default:
			return false
		}
	}
	return true
}

// AtomName returns the name of an atom literal (":string" -> "string"),
// or "" when the text is not an atom.
func AtomName(s string) string {
	s = strings.TrimSpace(s)
	if len(s) < 2 || s[0] != ':' {
		return ""
	}
	return strings.Trim(s[1:], `"`)
}

// StringLit unquotes a double-quoted literal, or returns "" otherwise.
func StringLit(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return ""
}

// ListValues parses a `["a", "b"]` or `[:a, :b]` literal into its element
// names. Returns nil when the text is not a list literal.
func ListValues(s string) []string {
	s = strings.TrimSpace(s)
	if len(s) < 2 || s[0] != '[' || s[len(s)-1] != ']' {
		return nil
	}
	var values []string
	for _, part := range SplitTopLevel(s[1 : len(s)-1]) {
		if v := StringLit(part); v != "" {
			values = append(values, v)
		} else if v := AtomName(part); v != "" {
			values = append(values, v)
		}
	}
	return values
}

// BalancedArg extracts the parenthesized argument text starting at the
// first '(' in s, honoring nesting and string literals. Returns the inner
// text and true, or "" and false when the parens never balance (typical of
// a user mid-edit — callers treat that as no match).
func BalancedArg(s string) (string, bool) {
	start := strings.IndexByte(s, '(')
	if start < 0 {
		return "", false
	}
	depth := 0
	var quote byte
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if quote != 0 {
			if escaped {
				escaped = false
			} else if c == '\\' {
				escaped = true
			} else if c == quote {
				quote = 0
			}
			continue
		}
		switch c {
		case '"', '\'':
			quote = c
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
			if c == ')' && depth == 0 {
				return s[start+1 : i], true
			}
		}
	}
	return "", false
}
