package render

import (
	"strings"

	"github.com/yacobolo/bosscss/internal/css"
	"github.com/yacobolo/bosscss/internal/dictionary"
	"github.com/yacobolo/bosscss/internal/events"
	"github.com/yacobolo/bosscss/internal/proptree"
	"github.com/yacobolo/bosscss/internal/query"
	"github.com/yacobolo/bosscss/internal/selector"
)

// keyframesBlock groups declarations by step for one keyframes name.
type keyframesBlock struct {
	name  string
	order []string
	decls map[string][]string
}

func (k *keyframesBlock) add(step, decl string) {
	step = query.NormalizeStep(step)
	list, ok := k.decls[step]
	if !ok {
		k.order = append(k.order, step)
	}
	for _, d := range list {
		if d == decl {
			return
		}
	}
	k.decls[step] = append(list, decl)
}

func (k *keyframesBlock) steps() []query.Step {
	out := make([]query.Step, 0, len(k.order))
	for _, s := range k.order {
		out = append(out, query.Step{Key: s, Declarations: k.decls[s]})
	}
	return out
}

type keyframesSet struct {
	order  []string
	blocks map[string]*keyframesBlock
}

func newKeyframesSet() *keyframesSet {
	return &keyframesSet{blocks: make(map[string]*keyframesBlock)}
}

func (s *keyframesSet) get(name string) *keyframesBlock {
	if b, ok := s.blocks[name]; ok {
		return b
	}
	b := &keyframesBlock{name: name, decls: make(map[string][]string)}
	s.blocks[name] = b
	s.order = append(s.order, name)
	return b
}

func (s *keyframesSet) drain() []*keyframesBlock {
	out := make([]*keyframesBlock, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, s.blocks[name])
	}
	s.order = nil
	s.blocks = make(map[string]*keyframesBlock)
	return out
}

// keyframes collects step declarations into the named block and points the
// selectors touched by the steps at it with animation-name.
func (w *walker) keyframes(path []string, key string, res dictionary.Resolution, prop *proptree.Prop) {
	sub, ok := prop.Tree()
	if !ok {
		w.warn("%q expects an object of keyframe steps", key)
		return
	}

	name := query.KeyframesName(res.Suffix, w.r.opts.Prefix, with(path, key))
	block := w.r.keyframes.get(name)
	tagged := false

	sub.Each(func(step string, sp *proptree.Prop) {
		if !query.IsStep(step) {
			w.warn("%s: %q is not a keyframe step", key, step)
			return
		}
		decls, ok := sp.Tree()
		if !ok {
			w.warn("%s:%s expects an object", key, step)
			return
		}
		decls.Each(func(k string, p *proptree.Prop) {
			r := w.r.dict.Resolve(k)
			if !r.Known() || r.Descriptor.Kind != dictionary.KindProperty {
				w.warn("%s:%s: unknown property %q", key, step, k)
				return
			}
			if !p.IsStatic() {
				w.warn("%s:%s: keyframe values must be static", key, step)
				return
			}
			property := r.Descriptor.Property
			block.add(step, css.Declaration(property, w.r.dict.ToValue(staticValue(p), property), p.Important))

			// className tokens carry their own selector
			if p.ClassToken != "" {
				tagged = true
				w.animationName(with(path, key, step), k, p, name)
			}
		})
	})

	if tagged {
		return
	}

	if w.r.opts.Strategy == InlineFirst && len(path) == 0 {
		w.out.Style = append(w.out.Style, StyleEntry{Key: "animationName", Value: name})
		return
	}
	w.animationName(path, key, &proptree.Prop{Value: name}, name)
}

func (w *walker) animationName(path []string, name string, prop *proptree.Prop, keyframes string) {
	qc, err := w.r.resolver.Resolve(path)
	if err != nil {
		w.warn("%s: %v", strings.Join(with(path, name), ":"), err)
		return
	}

	var cls string
	var sel css.SelectorInput
	if prop.ClassToken != "" {
		cls, sel = w.selectorFor(path, name, prop)
	} else {
		cls = selector.ContextToClassName(name, nil, path, false, w.r.opts.Prefix)
		if w.r.opts.Mapper != nil {
			cls = w.r.opts.Mapper(cls)
		}
		sel = css.SelectorInput{ClassName: selector.Escape(cls)}
	}

	important := prop.ClassToken == "" && w.r.opts.Strategy == InlineFirst && len(path) > 0
	if err := w.write(sel, path, qc, "animation-name", keyframes, important); err != nil {
		w.fail(err)
		return
	}
	w.addClass(cls)
	w.trigger(events.PropEvent{
		Source:    w.source,
		Property:  "animation-name",
		Prop:      prop,
		Contexts:  path,
		ClassName: cls,
		Query:     qc.Query,
	})
}
