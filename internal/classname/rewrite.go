package classname

import (
	"strings"

	"github.com/yacobolo/bosscss/internal/proptree"
)

// Mapper maps a selector token to the class name emitted in its place.
type Mapper func(token string) string

// RewriteClassNameTokensWithMap rewrites every recognized token in text.
// Token references are replaced by their selector value
// ("color:$$.token.color.white" becomes "color:white"). With a mapper,
// grouped tokens are expanded into one token per declaration and each token
// is passed through the mapper; the same token always maps to the same
// output within one call. Unrecognized text is kept as is.
func (p *Parser) RewriteClassNameTokensWithMap(text string, mapper Mapper) string {
	tokens := scanTokens(text)
	if len(tokens) == 0 {
		return text
	}

	seen := make(map[string]string)
	lookup := func(tok string) string {
		if mapper == nil {
			return tok
		}
		if out, ok := seen[tok]; ok {
			return out
		}
		out := mapper(tok)
		seen[tok] = out
		return out
	}

	var b strings.Builder
	b.Grow(len(text))
	last := 0
	for _, tok := range tokens {
		expanded, ok := p.Expand(tok.Text, mapper != nil)
		if !ok {
			continue
		}
		mapped := make([]string, 0, len(expanded))
		for _, e := range expanded {
			mapped = append(mapped, lookup(e))
		}
		b.WriteString(text[last:tok.Start])
		b.WriteString(strings.Join(mapped, " "))
		last = tok.End()
	}
	b.WriteString(text[last:])
	return b.String()
}

// Expand returns the normalized form of a recognized token. Grouped tokens
// are split into one token per declaration when split is set.
func (p *Parser) Expand(token string, split bool) ([]string, bool) {
	if gi := findGroupStart(token); gi >= 0 {
		tree, ok := p.parseGroup(token, gi)
		if !ok {
			return nil, false
		}
		if !split {
			return []string{firstClassToken(tree)}, true
		}
		var out []string
		walkProps(tree, nil, func(path []string, name string, value string) {
			out = append(out, JoinToken(path, name, value))
		})
		return out, true
	}

	decl, ok := p.declaration(splitOutside(token, ':'), nil, false)
	if !ok {
		return nil, false
	}
	return []string{decl.normalized()}, true
}

func firstClassToken(tree *proptree.Tree) string {
	var token string
	walkPropsWith(tree, nil, func(_ []string, _ string, prop *proptree.Prop) {
		if token == "" {
			token = prop.ClassToken
		}
	})
	return token
}

func walkProps(tree *proptree.Tree, path []string, fn func(path []string, name, value string)) {
	walkPropsWith(tree, path, func(path []string, name string, prop *proptree.Prop) {
		fn(path, name, prop.SelectorValue)
	})
}

func walkPropsWith(tree *proptree.Tree, path []string, fn func(path []string, name string, prop *proptree.Prop)) {
	tree.Each(func(key string, prop *proptree.Prop) {
		if sub, ok := prop.Tree(); ok {
			walkPropsWith(sub, append(append([]string{}, path...), key), fn)
			return
		}
		fn(path, key, prop)
	})
}
