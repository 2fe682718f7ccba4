// Package render writes prop trees into a css.Engine and reports what the
// element itself has to carry: class names and inline style entries.
package render

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/yacobolo/bosscss/internal/classname"
	"github.com/yacobolo/bosscss/internal/css"
	"github.com/yacobolo/bosscss/internal/dictionary"
	"github.com/yacobolo/bosscss/internal/events"
	"github.com/yacobolo/bosscss/internal/proptree"
	"github.com/yacobolo/bosscss/internal/query"
	"github.com/yacobolo/bosscss/internal/report"
	"github.com/yacobolo/bosscss/internal/selector"
)

// Strategy decides which props become classes.
type Strategy string

const (
	// InlineFirst keeps static base props in the style attribute and turns
	// context props into classes.
	InlineFirst Strategy = "inline-first"
	// ClassNameFirst turns every prop into a class; dynamic values are
	// passed through custom properties.
	ClassNameFirst Strategy = "classname-first"
)

// ErrUnknownStrategy is returned by ParseStrategy.
var ErrUnknownStrategy = errors.New("unknown strategy")

// ParseStrategy validates a configured strategy name. Empty means InlineFirst.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case "", InlineFirst:
		return InlineFirst, nil
	case ClassNameFirst:
		return ClassNameFirst, nil
	default:
		return "", fmt.Errorf("%q: %w", s, ErrUnknownStrategy)
	}
}

// Options configures a Renderer.
type Options struct {
	Prefix   string
	Strategy Strategy
	// Mapper shortens generated class names. Nil keeps them as authored.
	Mapper classname.Mapper
	// KnownToken validates $$.token references. Nil accepts every token.
	KnownToken func(path []string) bool
}

// StyleEntry is one entry of the element's style attribute.
type StyleEntry struct {
	Key    string // camelCase property or custom property name
	Value  string // CSS text, or JS source when Code is set
	Code   bool
	Helper bool // numeric runtime values need the unit helper
}

// Output is what an element needs after its props were rendered.
type Output struct {
	ClassNames []string
	Style      []StyleEntry
	Warnings   []report.Warning
}

// Renderer writes prop trees into an engine.
type Renderer struct {
	engine   *css.Engine
	dict     dictionary.Dictionary
	resolver *query.Resolver
	bus      *events.Bus
	opts     Options
	log      *zap.Logger

	keyframes *keyframesSet
}

// New creates a renderer. bus may be nil.
func New(engine *css.Engine, dict dictionary.Dictionary, resolver *query.Resolver, bus *events.Bus, opts Options, log *zap.Logger) *Renderer {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.Strategy == "" {
		opts.Strategy = InlineFirst
	}
	return &Renderer{
		engine:    engine,
		dict:      dict,
		resolver:  resolver,
		bus:       bus,
		opts:      opts,
		log:       log.Named("render"),
		keyframes: newKeyframesSet(),
	}
}

// Engine returns the engine rules are written to.
func (r *Renderer) Engine() *css.Engine {
	return r.engine
}

// Options returns the renderer options.
func (r *Renderer) Options() Options {
	return r.opts
}

// Render writes tree into the engine. Engine misuse and plugin errors are
// returned; content problems become warnings.
func (r *Renderer) Render(ctx context.Context, tree *proptree.Tree, source string) (Output, error) {
	w := &walker{r: r, ctx: ctx, source: source, inline: make(map[string]bool), seen: make(map[string]bool)}
	if r.opts.Strategy == InlineFirst {
		w.collectInline(tree)
	}
	w.tree(tree, nil)
	return w.out, w.err
}

// RenderClassNames parses className text and writes every recognized token.
func (r *Renderer) RenderClassNames(ctx context.Context, parser *classname.Parser, text, source string) (Output, error) {
	parsed, warnings := parser.Parse(text, source)

	out := Output{Warnings: warnings}
	var err error
	for _, p := range parsed {
		o, rerr := r.Render(ctx, p.Tree, source)
		err = multierr.Append(err, rerr)
		out.ClassNames = appendUnique(out.ClassNames, o.ClassNames...)
		out.Warnings = append(out.Warnings, o.Warnings...)
	}
	if terr := r.bus.Trigger(ctx, events.ParseEvent{Source: source, Content: text, Tokens: len(parsed)}, nil); terr != nil {
		err = multierr.Append(err, terr)
	}
	return out, err
}

// Flush writes the keyframes blocks collected since the last Flush.
func (r *Renderer) Flush(source string) {
	for _, kf := range r.keyframes.drain() {
		r.engine.AddRule(query.RenderKeyframes(kf.name, kf.steps()), query.KeyframesQuery(kf.name), source)
	}
}

type walker struct {
	r      *Renderer
	ctx    context.Context
	source string
	inline map[string]bool // properties carried by the style attribute
	seen   map[string]bool
	out    Output
	err    error
}

func (w *walker) warn(format string, args ...any) {
	w.out.Warnings = append(w.out.Warnings, report.New(report.OriginRender, w.source, format, args...))
	w.r.log.Debug("render warning", zap.String("source", w.source), zap.String("message", fmt.Sprintf(format, args...)))
}

func (w *walker) fail(err error) {
	w.err = multierr.Append(w.err, err)
}

// collectInline records base-level properties that stay inline, so context
// rules for the same property can win over the style attribute.
func (w *walker) collectInline(tree *proptree.Tree) {
	tree.Each(func(key string, prop *proptree.Prop) {
		res := w.r.dict.Resolve(key)
		if !res.Known() || res.Descriptor.Kind != dictionary.KindProperty || prop.ClassToken != "" {
			return
		}
		if _, nested := prop.Tree(); nested {
			return
		}
		w.inline[res.Descriptor.Property] = true
	})
}

func (w *walker) tree(tree *proptree.Tree, path []string) {
	tree.Each(func(key string, prop *proptree.Prop) {
		w.entry(path, key, prop)
	})
}

func (w *walker) entry(path []string, key string, prop *proptree.Prop) {
	res := w.r.dict.Resolve(key)
	if !res.Known() {
		w.warn("unknown prop %q", strings.Join(with(path, key), ":"))
		return
	}

	switch res.Descriptor.Kind {
	case dictionary.KindProperty:
		w.prop(path, key, res.Descriptor, prop)

	case dictionary.KindKeyframes:
		w.keyframes(path, key, res, prop)

	case dictionary.KindAt:
		sub, ok := prop.Tree()
		if !ok {
			w.warn("%q expects an object of query keys", key)
			return
		}
		sub.Each(func(k string, p *proptree.Prop) {
			inner, ok := p.Tree()
			if !ok {
				w.warn("%s:%s expects an object", key, k)
				return
			}
			w.tree(inner, with(path, key, k))
		})

	case dictionary.KindContainer:
		sub, ok := prop.Tree()
		if !ok {
			w.warn("%q expects an object", key)
			return
		}
		sub.Each(func(k string, p *proptree.Prop) {
			if w.r.dict.Resolve(k).Known() {
				w.entry(with(path, key), k, p)
				return
			}
			inner, ok := p.Tree()
			if !ok {
				w.warn("%s:%s expects an object", key, k)
				return
			}
			w.tree(inner, with(path, key, k))
		})

	default:
		sub, ok := prop.Tree()
		if !ok {
			w.warn("%q expects an object", key)
			return
		}
		w.tree(sub, with(path, key))
	}
}

func (w *walker) prop(path []string, name string, desc *dictionary.Descriptor, prop *proptree.Prop) {
	if _, nested := prop.Tree(); nested {
		w.warn("%q is a property and cannot hold an object", name)
		return
	}
	property := desc.Property
	w.checkTokens(prop)

	// inline base props
	if w.r.opts.Strategy == InlineFirst && len(path) == 0 && prop.ClassToken == "" {
		entry := StyleEntry{Key: styleKey(property)}
		if prop.IsStatic() {
			entry.Value = w.r.dict.ToValue(staticValue(prop), property)
		} else {
			entry.Value = valueCode(prop)
			entry.Code = true
			entry.Helper = !dictionary.IsUnitless(property)
		}
		w.out.Style = append(w.out.Style, entry)
		w.trigger(events.PropEvent{Source: w.source, Property: property, Prop: prop, Contexts: path})
		return
	}

	qc, err := w.r.resolver.Resolve(path)
	if err != nil {
		w.warn("%s: %v", strings.Join(with(path, name), ":"), err)
		return
	}
	prop.Query = qc.Query

	var (
		value    string
		variable string
	)
	if prop.IsStatic() {
		value = w.r.dict.ToValue(staticValue(prop), property)
	} else {
		variable = selector.ContextToCSSVariable(name, path, w.r.opts.Prefix)
		value = "var(" + variable + ")"
		w.out.Style = append(w.out.Style, StyleEntry{
			Key:    variable,
			Value:  valueCode(prop),
			Code:   true,
			Helper: !dictionary.IsUnitless(property),
		})
	}

	cls, sel := w.selectorFor(path, name, prop)
	important := prop.Important || (w.r.opts.Strategy == InlineFirst && len(path) > 0 && w.inline[property])

	if err := w.write(sel, path, qc, property, value, important); err != nil {
		w.fail(err)
		return
	}
	w.addClass(cls)
	w.trigger(events.PropEvent{
		Source:    w.source,
		Property:  property,
		Prop:      prop,
		Contexts:  path,
		ClassName: cls,
		Variable:  variable,
		Query:     qc.Query,
	})
}

// selectorFor returns the class name the element carries and the base
// selector of its rules.
func (w *walker) selectorFor(path []string, name string, prop *proptree.Prop) (cls string, sel css.SelectorInput) {
	mapper := w.r.opts.Mapper

	if prop.ClassToken != "" {
		grouped := classname.IsGrouped(prop.ClassToken)
		switch {
		case mapper != nil && grouped:
			cls = mapper(classname.JoinToken(path, name, prop.SelectorValue))
		case mapper != nil:
			cls = mapper(prop.ClassToken)
		case grouped:
			return prop.ClassToken, css.SelectorInput{Selector: selector.AttributeSelector(prop.ClassToken)}
		default:
			cls = prop.ClassToken
		}
		return cls, css.SelectorInput{ClassName: selector.Escape(cls)}
	}

	var value any
	if prop.IsStatic() {
		value = selectorValue(prop, name)
	}
	cls = selector.ContextToClassName(name, value, path, false, w.r.opts.Prefix)
	if mapper != nil {
		cls = mapper(cls)
	}
	return cls, css.SelectorInput{ClassName: selector.Escape(cls)}
}

// write emits one rule. Pseudos and child markers are applied in path order.
func (w *walker) write(base css.SelectorInput, path []string, qc query.Context, property, value string, important bool) error {
	in := base
	in.Query = qc.Query
	in.Source = w.source
	if len(qc.Children) == 0 {
		in.Pseudos = qc.Pseudos
	} else {
		in.Selector = w.compose(base, path)
		in.ClassName = ""
	}

	e := w.r.engine
	if err := e.Selector(in); err != nil {
		return err
	}
	if err := e.Rule(property, value, css.RuleOptions{Important: important}); err != nil {
		return err
	}
	return e.Write()
}

func (w *walker) compose(base css.SelectorInput, path []string) string {
	cur := base.Selector
	if base.ClassName != "" {
		cur = "." + base.ClassName
	}
	for _, seg := range path {
		res := w.r.dict.Resolve(seg)
		if !res.Known() {
			continue
		}
		switch res.Descriptor.Kind {
		case dictionary.KindPseudo:
			cur += res.Descriptor.Property
		case dictionary.KindChild:
			cur = selector.ApplyChildSelectors(cur, []string{seg})
		}
	}
	return cur
}

func (w *walker) addClass(cls string) {
	if cls == "" || w.seen[cls] {
		return
	}
	w.seen[cls] = true
	w.out.ClassNames = append(w.out.ClassNames, cls)
}

func (w *walker) trigger(e events.Event) {
	if err := w.r.bus.Trigger(w.ctx, e, nil); err != nil {
		w.fail(err)
	}
}

func (w *walker) checkTokens(prop *proptree.Prop) {
	if w.r.opts.KnownToken == nil {
		return
	}
	s, ok := prop.String()
	if !ok || !strings.HasPrefix(s, dictionary.TokenMarker) {
		return
	}
	path := strings.Split(strings.TrimPrefix(s, dictionary.TokenMarker), ".")
	if !w.r.opts.KnownToken(path) {
		w.warn("unknown token %s", s)
	}
}

// staticValue converts a static prop into a value the dictionary accepts.
func staticValue(prop *proptree.Prop) any {
	if list, ok := prop.List(); ok {
		parts := make([]string, 0, len(list))
		for _, item := range list {
			if s, ok := item.String(); ok {
				parts = append(parts, s)
			}
		}
		return parts
	}
	s, _ := prop.String()
	return s
}

// selectorValue is the value embedded in a generated class name.
func selectorValue(prop *proptree.Prop, name string) any {
	if prop.SelectorValue != "" {
		return prop.SelectorValue
	}
	v := staticValue(prop)
	if s, ok := v.(string); ok && strings.HasPrefix(s, dictionary.TokenMarker) {
		path := strings.Split(strings.TrimPrefix(s, dictionary.TokenMarker), ".")
		return selector.TokenValue(name, path)
	}
	return v
}

// valueCode returns the JS expression producing a non-static value.
func valueCode(prop *proptree.Prop) string {
	if prop.Dynamic {
		return prop.Code
	}
	if list, ok := prop.List(); ok {
		parts := make([]string, 0, len(list))
		for _, item := range list {
			if item.Dynamic {
				parts = append(parts, item.Code)
				continue
			}
			s, _ := item.String()
			parts = append(parts, proptree.Quote(s))
		}
		return "[" + strings.Join(parts, ", ") + `].join(" ")`
	}
	s, _ := prop.String()
	return proptree.Quote(s)
}

func styleKey(property string) string {
	if strings.HasPrefix(property, "--") {
		return property
	}
	return dictionary.Camel(property)
}

func with(path []string, segs ...string) []string {
	out := make([]string, 0, len(path)+len(segs))
	out = append(out, path...)
	return append(out, segs...)
}

func appendUnique(list []string, items ...string) []string {
	for _, item := range items {
		found := false
		for _, s := range list {
			if s == item {
				found = true
				break
			}
		}
		if !found {
			list = append(list, item)
		}
	}
	return list
}
