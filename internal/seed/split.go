package seed

import "strings"

// SplitStatements breaks a SQL script into individual statements on
// semicolons. Semicolons inside single- or double-quoted strings,
// PostgreSQL dollar-quoted bodies, "--" line comments and "/* */" block
// comments do not end a statement. Comments are dropped from the output
// and empty statements are skipped.
func SplitStatements(script string) []string {
	var (
		stmts []string
		cur   strings.Builder
	)

	flush := func() {
		if s := strings.TrimSpace(cur.String()); s != "" {
			stmts = append(stmts, s)
		}
		cur.Reset()
	}

	src := []rune(script)
	for i := 0; i < len(src); i++ {
		c := src[i]
		next := rune(0)
		if i+1 < len(src) {
			next = src[i+1]
		}

		switch {
		case c == '-' && next == '-':
			for i < len(src) && src[i] != '\n' {
				i++
			}
			cur.WriteRune('\n')

		case c == '/' && next == '*':
			i += 2
			for i < len(src) && !(src[i] == '*' && i+1 < len(src) && src[i+1] == '/') {
				i++
			}
			i++ // skip the closing '/'
			cur.WriteRune(' ')

		case c == '\'' || c == '"':
			i = copyQuoted(&cur, src, i, c)

		case c == '$':
			if tag, ok := dollarTag(src, i); ok {
				i = copyDollarQuoted(&cur, src, i, tag)
			} else {
				cur.WriteRune(c)
			}

		case c == ';':
			flush()

		default:
			cur.WriteRune(c)
		}
	}
	flush()

	return stmts
}

// copyQuoted copies a quoted literal starting at src[start] and returns the
// index of its closing quote. A doubled quote is an escaped quote.
func copyQuoted(cur *strings.Builder, src []rune, start int, quote rune) int {
	cur.WriteRune(quote)
	i := start + 1
	for ; i < len(src); i++ {
		cur.WriteRune(src[i])
		if src[i] != quote {
			continue
		}
		if i+1 < len(src) && src[i+1] == quote {
			i++
			cur.WriteRune(quote)
			continue
		}
		return i
	}
	return i
}

// dollarTag reports whether src[start:] opens a dollar quote ("$$" or
// "$tag$") and returns the full tag.
func dollarTag(src []rune, start int) (string, bool) {
	for j := start + 1; j < len(src); j++ {
		switch r := src[j]; {
		case r == '$':
			return string(src[start : j+1]), true
		case r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z'):
		case r >= '0' && r <= '9' && j > start+1:
		default:
			return "", false
		}
	}
	return "", false
}

func copyDollarQuoted(cur *strings.Builder, src []rune, start int, tag string) int {
	cur.WriteString(tag)
	body := string(src[start+len([]rune(tag)):])
	end := strings.Index(body, tag)
	if end < 0 {
		cur.WriteString(body)
		return len(src)
	}
	cur.WriteString(body[:end])
	cur.WriteString(tag)
	return start + len([]rune(tag)) + len([]rune(body[:end])) + len([]rune(tag)) - 1
}
