package css

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/tdewolff/parse/v2"
	csslex "github.com/tdewolff/parse/v2/css"
)

// ErrInvalidCSS is returned by Validate for text the CSS grammar rejects.
var ErrInvalidCSS = errors.New("invalid css")

// Normalize returns a canonical form of CSS text used as a dedup key:
// comments are dropped, whitespace is collapsed and removed around
// punctuation, and a trailing ";" before "}" is dropped.
func Normalize(text string) string {
	lexer := csslex.NewLexer(parse.NewInputString(text))

	var b strings.Builder
	pendingSpace := false
	for {
		tt, data := lexer.Next()
		if tt == csslex.ErrorToken {
			break
		}

		switch tt {
		case csslex.CommentToken:
			continue
		case csslex.WhitespaceToken:
			pendingSpace = b.Len() > 0
			continue
		}

		tok := string(data)
		punct := isPunctuation(tt, tok)
		if pendingSpace && !punct && !endsWithPunctuation(b.String()) {
			b.WriteByte(' ')
		}
		pendingSpace = false

		if tt == csslex.RightBraceToken {
			s := strings.TrimSuffix(b.String(), ";")
			b.Reset()
			b.WriteString(s)
		}
		b.WriteString(tok)
	}
	return strings.TrimSuffix(b.String(), ";")
}

func isPunctuation(tt csslex.TokenType, tok string) bool {
	switch tt {
	case csslex.LeftBraceToken, csslex.RightBraceToken, csslex.SemicolonToken,
		csslex.ColonToken, csslex.CommaToken, csslex.LeftParenthesisToken,
		csslex.RightParenthesisToken:
		return true
	case csslex.DelimToken:
		return tok == ">" || tok == "+" || tok == "~"
	}
	return false
}

func endsWithPunctuation(s string) bool {
	if s == "" {
		return true
	}
	switch s[len(s)-1] {
	case '{', '}', ';', ':', ',', '(', '>', '+', '~':
		return true
	}
	return false
}

// Validate runs text through the CSS grammar and reports the first error.
func Validate(text string) error {
	p := csslex.NewParser(parse.NewInputString(text), false)
	depth := 0
	for {
		gt, _, _ := p.Next()
		switch gt {
		case csslex.ErrorGrammar:
			if err := p.Err(); err != nil && !errors.Is(err, io.EOF) {
				return fmt.Errorf("%w: %v", ErrInvalidCSS, err)
			}
			if depth != 0 {
				return fmt.Errorf("%w: unbalanced braces", ErrInvalidCSS)
			}
			return nil
		case csslex.BeginAtRuleGrammar, csslex.BeginRulesetGrammar:
			depth++
		case csslex.EndAtRuleGrammar, csslex.EndRulesetGrammar:
			depth--
		}
	}
}
