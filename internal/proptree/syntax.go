package proptree

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// Parse parses JS/TS source. .ts, .mts and .cts files use the TypeScript
// grammar, everything else the TSX grammar. The caller closes the tree.
func Parse(ctx context.Context, src []byte, path string) (*sitter.Tree, error) {
	// new parser per call: parsers are not safe for concurrent use
	parser := sitter.NewParser()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".ts", ".mts", ".cts":
		parser.SetLanguage(typescript.GetLanguage())
	default:
		parser.SetLanguage(tsx.GetLanguage())
	}

	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("tree-sitter parse %s: %w", path, err)
	}
	return tree, nil
}

// Text returns the source text of n.
func Text(n *sitter.Node, src []byte) string {
	if n == nil {
		return ""
	}
	return string(src[n.StartByte():n.EndByte()])
}

// FirstNamed returns the first named child of n.
func FirstNamed(n *sitter.Node) *sitter.Node {
	if n == nil || n.NamedChildCount() == 0 {
		return nil
	}
	return n.NamedChild(0)
}

// Unwrap strips parentheses and TypeScript type assertions around an expression.
func Unwrap(n *sitter.Node) *sitter.Node {
	for n != nil {
		switch n.Type() {
		case "parenthesized_expression", "as_expression", "satisfies_expression", "non_null_expression":
			n = FirstNamed(n)
		default:
			return n
		}
	}
	return n
}

// Unquote decodes a JS string literal including its quotes.
func Unquote(lit string) string {
	if len(lit) < 2 {
		return lit
	}
	q := lit[0]
	if (q != '"' && q != '\'' && q != '`') || lit[len(lit)-1] != q {
		return lit
	}
	body := lit[1 : len(lit)-1]
	if !strings.Contains(body, `\`) {
		return body
	}

	var b strings.Builder
	for i := 0; i < len(body); i++ {
		c := body[i]
		if c != '\\' || i+1 >= len(body) {
			b.WriteByte(c)
			continue
		}
		i++
		switch body[i] {
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case 'r':
			b.WriteByte('\r')
		case '\n':
			// line continuation
		default:
			b.WriteByte(body[i])
		}
	}
	return b.String()
}

// Quote encodes s as a double-quoted JS string literal.
func Quote(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}

// TokenPath returns the path of a "<marker>.token.a.b" reference.
func TokenPath(text, marker string) ([]string, bool) {
	prefix := marker + ".token."
	if !strings.HasPrefix(text, prefix) {
		return nil, false
	}
	parts := strings.Split(strings.TrimPrefix(text, prefix), ".")
	for _, p := range parts {
		if !isTokenSegment(p) {
			return nil, false
		}
	}
	return parts, true
}

func isTokenSegment(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		switch {
		case r == '_' || r == '$' || r == '-':
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}
