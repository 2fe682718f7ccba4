package classname

import (
	"strings"
)

// Token is a candidate selector token found in free-form text.
type Token struct {
	Text  string
	Start int // byte offset in the scanned text
}

// End returns the byte offset just past the token.
func (t Token) End() int {
	return t.Start + len(t.Text)
}

// splitOutside splits s on sep, ignoring separators nested in (), [], {}
// or quotes.
func splitOutside(s string, sep byte) []string {
	var parts []string
	var current strings.Builder
	depth := 0
	var quote byte

	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
		case c == '(' || c == '[' || c == '{':
			depth++
		case c == ')' || c == ']' || c == '}':
			if depth > 0 {
				depth--
			}
		case c == sep && depth == 0:
			parts = append(parts, current.String())
			current.Reset()
			continue
		}
		current.WriteByte(c)
	}
	parts = append(parts, current.String())
	return parts
}

// findGroupStart returns the index of the "{" opening a grouped body, or -1.
// The group must follow a ":" (or start the token) outside any [] or (),
// and its matching "}" must close the token, optionally followed by "!".
func findGroupStart(token string) int {
	depth := 0
	for i := 0; i < len(token); i++ {
		switch token[i] {
		case '[', '(':
			depth++
		case ']', ')':
			if depth > 0 {
				depth--
			}
		case '{':
			if depth != 0 || (i > 0 && token[i-1] != ':') {
				continue
			}
			end := matchBrace(token, i)
			if end < 0 {
				return -1
			}
			rest := token[end+1:]
			if rest == "" || rest == "!" {
				return i
			}
			return -1
		}
	}
	return -1
}

// matchBrace returns the index of the "}" closing the "{" at open.
func matchBrace(s string, open int) int {
	depth := 0
	for i := open; i < len(s); i++ {
		switch s[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// IsGrouped reports whether token uses the "ctx:{a:b;c:d}" form.
func IsGrouped(token string) bool {
	return findGroupStart(token) >= 0
}

// isDelimiter reports token boundaries in free-form text. Inside [] and {}
// only whitespace and quotes end a token, so child selectors like [&>li]
// and [data-x=y] survive.
func isDelimiter(c byte, nested bool) bool {
	switch c {
	case ' ', '\t', '\n', '\r', '\f', '"', '\'', '`':
		return true
	case '<', '>', '=':
		return !nested
	}
	return false
}

// scanTokens splits text into candidate tokens. Template literal bodies
// are scanned like any other text.
func scanTokens(text string) []Token {
	var tokens []Token
	scanRange(text, 0, len(text), func(tok Token) {
		tokens = append(tokens, tok)
	})
	return tokens
}

func scanRange(text string, from, to int, emit func(Token)) {
	start := -1
	depth := 0

	flush := func(end int) {
		if start < 0 {
			return
		}
		tok := trimToken(text[start:end])
		if tok != "" {
			offset := start + strings.Index(text[start:end], tok)
			emit(Token{Text: tok, Start: offset})
		}
		start = -1
		depth = 0
	}

	for i := from; i < to; i++ {
		c := text[i]
		if isDelimiter(c, depth > 0) {
			flush(i)
			continue
		}
		if start < 0 {
			start = i
		}
		switch c {
		case '[', '{':
			depth++
		case ']', '}':
			if depth > 0 {
				depth--
			}
		}
	}
	flush(to)
}

// trimToken drops punctuation that belongs to the surrounding code.
func trimToken(tok string) string {
	tok = strings.TrimRight(tok, ",;")
	for strings.HasPrefix(tok, "(") && !strings.Contains(tok, ")") {
		tok = tok[1:]
	}
	for strings.HasSuffix(tok, ")") && strings.Count(tok, "(") < strings.Count(tok, ")") {
		tok = tok[:len(tok)-1]
	}
	return tok
}

// templateLiteral describes a backtick literal in scanned text.
type templateLiteral struct {
	start, end int // end is past the closing backtick
	dynamic    bool
}

// findTemplate returns the backtick literal starting at open.
func findTemplate(text string, open int) templateLiteral {
	lit := templateLiteral{start: open, end: len(text)}
	for i := open + 1; i < len(text); i++ {
		switch text[i] {
		case '\\':
			i++
		case '$':
			if i+1 < len(text) && text[i+1] == '{' {
				lit.dynamic = true
			}
		case '`':
			lit.end = i + 1
			return lit
		}
	}
	return lit
}
