package compiler

import (
	"strings"
	"unicode"

	sitter "github.com/smacker/go-tree-sitter"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/yacobolo/bosscss/internal/dictionary"
	"github.com/yacobolo/bosscss/internal/events"
	"github.com/yacobolo/bosscss/internal/proptree"
	"github.com/yacobolo/bosscss/internal/render"
)

const (
	dynamicTag      = "__BossCmp"
	helperValue     = "createBossValue"
	helperTokenVars = "createBossTokenVars"
)

// element lowers <$$ ...>, <$$.tag ...> and prepared <$$.Name ...> elements.
// Anything else is walked unchanged.
func (r *run) element(n *sitter.Node, sc scope) {
	open := n
	if n.Type() == "jsx_element" {
		open = n.ChildByFieldName("open_tag")
	}
	if open == nil || !r.c.opts.LowerElements {
		r.jsxChildren(n, sc)
		return
	}

	name := proptree.Text(open.ChildByFieldName("name"), r.src)
	tag, def, ok := r.tagFor(name, open)
	if !ok {
		r.jsxChildren(n, sc)
		return
	}

	el := r.c.extractor.Attributes(open, r.src)
	if el.Props.Spread && !r.c.opts.Spread {
		r.jsxChildren(n, sc)
		return
	}

	// nested edits first, so replacement text can include them
	attrScope := sc
	attrScope.inJSXChild = false
	attrScope.inBossPropValue = true
	for i := 0; i < int(open.NamedChildCount()); i++ {
		child := open.NamedChild(i)
		switch child.Type() {
		case "jsx_attribute":
			switch proptree.Text(child.NamedChild(0), r.src) {
			case "className", "class", "style":
				r.walk(child, sc)
			default:
				r.walk(child, attrScope)
			}
		case "jsx_expression":
			r.walk(child, attrScope)
		}
	}
	var closeTag *sitter.Node
	if n.Type() == "jsx_element" {
		closeTag = n.ChildByFieldName("close_tag")
		childScope := sc
		childScope.inJSXChild = true
		for i := 0; i < int(n.NamedChildCount()); i++ {
			child := n.NamedChild(i)
			if sameNode(child, open) || (closeTag != nil && sameNode(child, closeTag)) {
				continue
			}
			r.walk(child, childScope)
		}
	}

	r.remapCode(el.Props)
	tree := el.Props
	var attrs []string
	if def != nil {
		merged := def.Tree.Clone()
		if def.Source == r.path {
			r.remapCode(merged)
		}
		merged.Merge(el.Props)
		tree = merged
		attrs = append(attrs, def.Attrs...)
	}

	var dynamicAs string
	if as, ok := el.Reserved["as"]; ok && as.Value != nil {
		if s, ok := as.Value.String(); ok && !as.Value.Dynamic {
			tag = s
		} else {
			dynamicAs = r.attrExpr(as)
			tag = dynamicTag
		}
	}

	r.trigger(events.PropTreeEvent{Source: r.path, Tree: tree, Tag: tag, Input: "jsx"})
	out, err := r.c.renderer.Render(r.ctx, tree, r.path)
	if err != nil {
		r.err = multierr.Append(r.err, err)
		return
	}
	for _, w := range out.Warnings {
		if w.Line == 0 {
			w = w.At(r.src, int(n.StartByte()))
		}
		r.warnings = append(r.warnings, w)
	}

	for _, a := range el.Passthrough {
		attrs = append(attrs, r.text(a.Node))
	}
	for _, key := range []string{"key", "ref", "children"} {
		if a, ok := el.Reserved[key]; ok {
			attrs = append(attrs, r.text(a.Node))
		}
	}
	if cls := r.classAttr(el, out.ClassNames); cls != "" {
		attrs = append(attrs, cls)
	}
	if style := r.styleAttr(el, out.Style); style != "" {
		attrs = append(attrs, style)
	}
	r.compileEvents(tree, out)

	var b strings.Builder
	b.WriteString("<" + tag)
	if len(attrs) > 0 {
		b.WriteString(" " + strings.Join(attrs, " "))
	}
	if n.Type() == "jsx_self_closing_element" {
		b.WriteString("/>")
	} else {
		b.WriteString(">")
		b.WriteString(r.p.text(open.EndByte(), closeTag.StartByte()))
		b.WriteString("</" + tag + ">")
	}

	text := b.String()
	if dynamicAs != "" {
		text = "(() => { const " + dynamicTag + " = " + dynamicAs + "; return " + text + "; })()"
		if sc.inJSXChild {
			text = "{" + text + "}"
		}
	}
	r.p.replace(n.StartByte(), n.EndByte(), text)
	r.replaced++
	r.c.log.Debug("element lowered", zap.String("path", r.path), zap.String("from", name), zap.String("tag", tag))
}

func (r *run) jsxChildren(n *sitter.Node, sc scope) {
	inner := sc
	inner.inJSXChild = n.Type() == "jsx_element"
	r.children(n, inner)
}

// tagFor resolves the output tag of a marker element name. def is set for
// prepared components that can be inlined here.
func (r *run) tagFor(name string, open *sitter.Node) (string, *Definition, bool) {
	marker := r.c.opts.Marker
	if name == marker {
		return "div", nil, true
	}
	rest, ok := strings.CutPrefix(name, marker+".")
	if !ok || rest == "" || strings.Contains(rest, ".") {
		return "", nil, false
	}
	if !unicode.IsUpper([]rune(rest)[0]) {
		return rest, nil, true
	}

	if !r.c.opts.Prepared || !r.c.prepared.Inlinable(rest, r.path, hasSpread(open), r.c.opts.Spread) {
		return "", nil, false
	}
	def, _ := r.c.prepared.Lookup(rest)
	tag := def.Tag
	if tag == "" {
		tag = "div"
	}
	return tag, &def, true
}

// remapCode points dynamic props at their rewritten source text.
func (r *run) remapCode(t *proptree.Tree) {
	t.Each(func(_ string, p *proptree.Prop) {
		r.remapProp(p)
	})
}

func (r *run) remapProp(p *proptree.Prop) {
	switch {
	case p.Dynamic || p.IsFn:
		if p.End > p.Start && int(p.End) <= len(r.src) {
			p.Code = r.p.text(p.Start, p.End)
		}
	default:
		if sub, ok := p.Tree(); ok {
			r.remapCode(sub)
		}
		if list, ok := p.List(); ok {
			for _, item := range list {
				r.remapProp(item)
			}
		}
	}
}

// attrExpr returns the rewritten expression of an attribute value.
func (r *run) attrExpr(a proptree.Attribute) string {
	if a.Node == nil || a.Node.NamedChildCount() < 2 {
		return ""
	}
	value := a.Node.NamedChild(1)
	if value.Type() == "jsx_expression" {
		if inner := proptree.FirstNamed(value); inner != nil {
			return r.text(inner)
		}
	}
	return r.text(value)
}

// classAttr merges generated class names with the authored className.
func (r *run) classAttr(el proptree.Element, classes []string) string {
	name := "className"
	user, ok := el.Reserved["className"]
	if !ok {
		if user, ok = el.Reserved["class"]; ok {
			name = "class"
		}
	}
	gen := strings.Join(classes, " ")

	switch {
	case !ok || user.Value == nil:
		if gen == "" {
			return ""
		}
		return name + "=" + proptree.Quote(gen)

	case user.Value.Dynamic:
		if gen == "" {
			return r.text(user.Node)
		}
		return name + "={[" + r.attrExpr(user) + ", " + proptree.Quote(gen) + `].filter(Boolean).join(" ")}`

	default:
		s, _ := user.Value.String()
		joined := strings.TrimSpace(r.remap(s) + " " + gen)
		return name + "=" + proptree.Quote(joined)
	}
}

// styleAttr merges generated style entries with the authored style.
func (r *run) styleAttr(el proptree.Element, entries []render.StyleEntry) string {
	user, hasUser := el.Reserved["style"]
	if hasUser && user.Value == nil {
		hasUser = false
	}
	if len(entries) == 0 {
		if hasUser {
			return r.text(user.Node)
		}
		return ""
	}

	obj := r.styleObject(entries)
	if !hasUser {
		return "style={" + obj + "}"
	}
	return "style={Object.assign(" + obj + ", " + r.attrExpr(user) + ")}"
}

func (r *run) styleObject(entries []render.StyleEntry) string {
	parts := make([]string, 0, len(entries))
	for _, e := range entries {
		key := e.Key
		if !isIdentifier(key) {
			key = proptree.Quote(key)
		}
		parts = append(parts, key+":"+r.styleValue(e))
	}
	return "{" + strings.Join(parts, ",") + "}"
}

func (r *run) styleValue(e render.StyleEntry) string {
	switch {
	case !e.Code:
		return proptree.Quote(e.Value)
	case e.Helper:
		r.helpers[helperValue] = true
		return helperValue + "(" + e.Value + ")"
	default:
		return e.Value
	}
}

// compileEvents reports how each top-level prop was lowered.
func (r *run) compileEvents(tree *proptree.Tree, out render.Output) {
	inline := make(map[string]string, len(out.Style))
	for _, e := range out.Style {
		inline[e.Key] = r.styleValue(e)
	}
	tree.Each(func(key string, p *proptree.Prop) {
		res := r.c.dict.Resolve(key)
		ev := events.CompilePropEvent{Source: r.path, Property: key, Prop: p}
		if res.Known() && res.Descriptor.Kind == dictionary.KindProperty {
			ev.Property = res.Descriptor.Property
			if v, ok := inline[dictionary.Camel(res.Descriptor.Property)]; ok {
				ev.Inline = true
				ev.Output = v
			}
		}
		r.trigger(ev)
	})
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, c := range s {
		switch {
		case c == '_' || c == '$', unicode.IsLetter(c):
		case i > 0 && unicode.IsDigit(c):
		default:
			return false
		}
	}
	return true
}
