package extract

import (
	"regexp"
	"strings"
)

var reDefmodule = regexp.MustCompile(`^defmodule\s+([A-Z][\w.]*)`)

// lineCtx is the per-line view handed to heuristic scanners by scanSource.
type lineCtx struct {
	Num  int    // 1-based line number
	Text string // trimmed line text

	cur *cursor
}

// Module returns the innermost enclosing module name, or "".
func (l *lineCtx) Module() string { return l.cur.module() }

// TakeDoc consumes the pending @doc string, if any.
func (l *lineCtx) TakeDoc() string {
	doc := l.cur.pendingDoc
	l.cur.pendingDoc = ""
	return doc
}

type modFrame struct {
	name  string
	depth int
}

// cursor tracks the approximate block structure of an Elixir file while a
// heuristic scanner walks it line by line: the defmodule stack, a do/end
// depth counter, heredoc spans, and any pending @doc string. It is not a
// grammar — it trades accuracy for resilience to partially-typed input.
type cursor struct {
	stack      []modFrame
	depth      int
	pendingDoc string

	inHeredoc  bool
	docHeredoc bool
	docLines   []string
}

func (c *cursor) module() string {
	if len(c.stack) == 0 {
		return ""
	}
	return c.stack[len(c.stack)-1].name
}

// scanSource walks src line by line, maintaining cursor state, and calls
// visit for every line outside comments and heredoc bodies.
func scanSource(src []byte, visit func(l *lineCtx)) {
	c := &cursor{}
	lines := strings.Split(string(src), "\n")
	for i, raw := range lines {
		line := strings.TrimSpace(raw)
		num := i + 1

		if c.inHeredoc {
			if strings.Contains(line, `"""`) {
				if c.docHeredoc {
					c.pendingDoc = strings.TrimSpace(strings.Join(c.docLines, "\n"))
					c.docLines = nil
				}
				c.inHeredoc = false
				c.docHeredoc = false
			} else if c.docHeredoc {
				c.docLines = append(c.docLines, raw)
			}
			continue
		}

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if doc, heredoc, handled := parseDocLine(line); handled {
			if heredoc {
				c.inHeredoc = true
				c.docHeredoc = true
			} else {
				c.pendingDoc = doc
			}
			continue
		}

		// Non-doc heredoc opener (~H""", ~S""", plain """): visit the
		// opener line, then skip the body.
		opensHeredoc := strings.Count(line, `"""`)%2 == 1

		visit(&lineCtx{Num: num, Text: line, cur: c})

		if opensHeredoc {
			c.inHeredoc = true
			continue
		}

		c.trackBlocks(line)
	}
}

// parseDocLine handles the @doc attribute forms. Returns handled=false for
// non-doc lines.
func parseDocLine(line string) (doc string, heredoc, handled bool) {
	rest, ok := strings.CutPrefix(line, "@doc")
	if !ok || (rest != "" && rest[0] != ' ' && rest[0] != '\t') {
		return "", false, false
	}
	rest = strings.TrimSpace(rest)
	switch {
	case rest == "false":
		return "", false, true
	case strings.HasPrefix(rest, `"""`):
		return "", true, true
	default:
		return StringLit(rest), false, true
	}
}

// trackBlocks updates the do/end depth and the module stack for a line.
func (c *cursor) trackBlocks(line string) {
	// end may close a block mid-expression ("end)" after a fn is rare in
	// the code we scan; leading-end is the shape that matters).
	if line == "end" || strings.HasPrefix(line, "end ") || strings.HasPrefix(line, "end)") {
		c.depth--
		for len(c.stack) > 0 && c.stack[len(c.stack)-1].depth > c.depth {
			c.stack = c.stack[:len(c.stack)-1]
		}
		return
	}

	opens := strings.HasSuffix(line, " do") || line == "do"
	if m := reDefmodule.FindStringSubmatch(line); m != nil && opens {
		c.depth++
		name := m[1]
		if outer := c.module(); outer != "" && !strings.HasPrefix(name, outer+".") {
			name = outer + "." + name
		}
		c.stack = append(c.stack, modFrame{name: name, depth: c.depth})
		return
	}
	if opens {
		c.depth++
	}
}
