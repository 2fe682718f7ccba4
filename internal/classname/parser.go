// Package classname parses the className micro-language:
//
//	ctx:ctx:prop:value        context path, property and value
//	ctx:{prop:value;p2:v2}    grouped declarations under one class
//	prop:value!               important
//	[&_>_li]:prop:value       child selector marker, "_" is a space
//	prop:1_solid              list value, joined with spaces
//	container_name:range:...  named container query
//	keyframes_name:step:...   named keyframes
//
// Tokens that do not resolve against the dictionary are ignored so the
// syntax coexists with other utility classes.
package classname

import (
	"strings"

	"go.uber.org/zap"

	"github.com/yacobolo/bosscss/internal/dictionary"
	"github.com/yacobolo/bosscss/internal/proptree"
	"github.com/yacobolo/bosscss/internal/report"
	"github.com/yacobolo/bosscss/internal/selector"
)

// Parsed is one recognized token and the props it declares.
type Parsed struct {
	Token Token
	Tree  *proptree.Tree
}

// Parser resolves tokens against a dictionary.
type Parser struct {
	dict dictionary.Dictionary
	log  *zap.Logger
}

// NewParser creates a parser.
func NewParser(dict dictionary.Dictionary, log *zap.Logger) *Parser {
	if log == nil {
		log = zap.NewNop()
	}
	return &Parser{dict: dict, log: log.Named("classname")}
}

// Extract tokenizes free-form text (markup, scripts, template strings).
// Template literals containing ${...} are skipped, each with two warnings.
func Extract(text, source string) ([]Token, []report.Warning) {
	var (
		tokens   []Token
		warnings []report.Warning
	)
	emit := func(tok Token) { tokens = append(tokens, tok) }

	src := []byte(text)
	from := 0
	for i := 0; i < len(text); i++ {
		if text[i] != '`' {
			continue
		}
		lit := findTemplate(text, i)
		if !lit.dynamic {
			i = lit.end - 1
			continue
		}
		scanRange(text, from, lit.start, emit)

		snippet := text[lit.start:lit.end]
		if len(snippet) > 40 {
			snippet = snippet[:37] + "..."
		}
		warnings = append(warnings,
			report.New(report.OriginClassName, source, "template literal with interpolation skipped: %s", snippet).At(src, lit.start),
			report.New(report.OriginClassName, source, "dynamic className text cannot be extracted statically, use props or static tokens").At(src, lit.start),
		)

		from = lit.end
		i = lit.end - 1
	}
	scanRange(text, from, len(text), emit)

	return tokens, warnings
}

// Parse extracts and parses every token in text. Each recognized token keeps
// its own tree so repeated properties with different values all render.
func (p *Parser) Parse(text, source string) ([]Parsed, []report.Warning) {
	tokens, warnings := Extract(text, source)

	var out []Parsed
	for _, tok := range tokens {
		tree, ok := p.ParseToken(tok.Text)
		if !ok {
			continue
		}
		out = append(out, Parsed{Token: tok, Tree: tree})
	}

	p.log.Debug("parsed className text",
		zap.String("source", source),
		zap.Int("tokens", len(tokens)),
		zap.Int("recognized", len(out)),
		zap.Int("warnings", len(warnings)))
	return out, warnings
}

// ParseToken parses a single selector token. It reports false for tokens
// that are not part of the micro-language.
func (p *Parser) ParseToken(token string) (*proptree.Tree, bool) {
	if token == "" {
		return nil, false
	}

	if gi := findGroupStart(token); gi >= 0 {
		return p.parseGroup(token, gi)
	}

	decl, ok := p.declaration(splitOutside(token, ':'), nil, false)
	if !ok {
		return nil, false
	}
	decl.prop.ClassToken = decl.normalized()

	tree := proptree.New()
	decl.insert(tree)
	return tree, true
}

func (p *Parser) parseGroup(token string, gi int) (*proptree.Tree, bool) {
	var contexts []string
	if head := strings.TrimSuffix(token[:gi], ":"); head != "" {
		contexts = splitOutside(head, ':')
	}
	end := matchBrace(token, gi)
	groupImportant := strings.HasSuffix(token, "!")

	var decls []declaration
	for _, entry := range splitOutside(token[gi+1:end], ';') {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		d, ok := p.declaration(splitOutside(entry, ':'), contexts, groupImportant)
		if !ok {
			continue
		}
		decls = append(decls, d)
	}
	if len(decls) == 0 {
		return nil, false
	}

	normalized := groupText(contexts, decls, groupImportant)
	tree := proptree.New()
	for _, d := range decls {
		d.prop.ClassToken = normalized
		d.insert(tree)
	}
	return tree, true
}

// declaration is one parsed "ctx:...:name:value" unit.
type declaration struct {
	contexts []string
	local    []string // contexts written inside a group entry
	name     string
	value    string // normalized value including the "!" suffix
	prop     *proptree.Prop
}

func (d declaration) path() []string {
	return append(append([]string{}, d.contexts...), d.local...)
}

func (d declaration) normalized() string {
	return strings.Join(append(d.path(), d.name, d.value), ":")
}

func (d declaration) insert(tree *proptree.Tree) {
	node := tree
	for _, ctx := range d.path() {
		node = node.Child(ctx)
	}
	node.Set(d.name, d.prop)
}

func (p *Parser) declaration(frags, outer []string, important bool) (declaration, bool) {
	if len(frags) < 2 {
		return declaration{}, false
	}
	local := frags[:len(frags)-2]
	name := frags[len(frags)-2]
	value := frags[len(frags)-1]

	if !p.validContexts(append(append([]string{}, outer...), local...)) {
		return declaration{}, false
	}
	res := p.dict.Resolve(name)
	if !res.Known() || res.Descriptor.Kind != dictionary.KindProperty {
		return declaration{}, false
	}

	if strings.HasSuffix(value, "!") {
		important = true
		value = strings.TrimSuffix(value, "!")
	}
	if value == "" {
		return declaration{}, false
	}

	prop := &proptree.Prop{Important: important}
	selectorValue := value
	switch {
	case strings.HasPrefix(value, dictionary.TokenMarker):
		path := strings.Split(strings.TrimPrefix(value, dictionary.TokenMarker), ".")
		selectorValue = selector.TokenValue(res.Descriptor.Property, path)
		prop.Value = value
	case !res.Descriptor.Single && strings.Contains(value, "_"):
		var list []*proptree.Prop
		for _, part := range strings.Split(value, "_") {
			if part != "" {
				list = append(list, proptree.Static(part))
			}
		}
		prop.Value = list
	default:
		prop.Value = value
	}
	if important {
		selectorValue += "!"
	}
	prop.SelectorValue = selectorValue

	return declaration{
		contexts: outer,
		local:    local,
		name:     name,
		value:    selectorValue,
		prop:     prop,
	}, true
}

// validContexts checks every context fragment. Keys following "at",
// "container" and "keyframes" contexts are not resolved.
func (p *Parser) validContexts(contexts []string) bool {
	for i := 0; i < len(contexts); i++ {
		res := p.dict.Resolve(contexts[i])
		if !res.Known() {
			return false
		}
		switch res.Descriptor.Kind {
		case dictionary.KindProperty:
			return false
		case dictionary.KindAt, dictionary.KindKeyframes:
			if i+1 >= len(contexts) {
				return false
			}
			i++
		case dictionary.KindContainer:
			if i+1 < len(contexts) && !p.dict.Resolve(contexts[i+1]).Known() {
				i++
			}
		}
	}
	return true
}

func groupText(contexts []string, decls []declaration, important bool) string {
	entries := make([]string, 0, len(decls))
	for _, d := range decls {
		v := d.value
		if important {
			v = strings.TrimSuffix(v, "!")
		}
		entries = append(entries, strings.Join(append(append([]string{}, d.local...), d.name, v), ":"))
	}

	var b strings.Builder
	for _, c := range contexts {
		b.WriteString(c)
		b.WriteByte(':')
	}
	b.WriteByte('{')
	b.WriteString(strings.Join(entries, ";"))
	b.WriteByte('}')
	if important {
		b.WriteByte('!')
	}
	return b.String()
}

// JoinToken builds the ungrouped token for a declaration at path.
func JoinToken(path []string, name, value string) string {
	return strings.Join(append(append([]string{}, path...), name, value), ":")
}
