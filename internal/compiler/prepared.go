package compiler

import (
	"sort"
	"strings"
	"sync"
	"unicode"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/yacobolo/bosscss/internal/proptree"
)

// Definition is a prepared component: `$$.Name = $$.$({...})`.
type Definition struct {
	Name   string
	Source string
	Tree   *proptree.Tree
	Tag    string   // static "as", empty for div
	Attrs  []string // non-style entries rendered as JSX attributes
	Static bool     // no runtime code in Tree or Attrs
}

type use struct {
	source string
	spread bool
}

// Registry collects prepared components and their use sites across a
// session. It is safe for concurrent use.
type Registry struct {
	mu   sync.RWMutex
	defs map[string]Definition
	uses map[string][]use
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{defs: make(map[string]Definition), uses: make(map[string][]use)}
}

// Define records d, replacing an earlier definition of the same name.
func (r *Registry) Define(d Definition) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.defs[d.Name] = d
}

// Use records a use site. Repeated identical uses are stored once.
func (r *Registry) Use(name, source string, spread bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u := use{source: source, spread: spread}
	for _, existing := range r.uses[name] {
		if existing == u {
			return
		}
	}
	r.uses[name] = append(r.uses[name], u)
}

// Lookup returns the definition of name.
func (r *Registry) Lookup(name string) (Definition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.defs[name]
	return d, ok
}

// Inlinable reports whether a use of name in source can be compiled away.
// Definitions with runtime code only inline into their own file.
func (r *Registry) Inlinable(name, source string, spread, allowSpread bool) bool {
	d, ok := r.Lookup(name)
	if !ok {
		return false
	}
	if spread && !allowSpread {
		return false
	}
	return d.Static || d.Source == source
}

// Keep reports whether the definition of name must stay in the output
// because at least one use site cannot be inlined.
func (r *Registry) Keep(name string, allowSpread bool) bool {
	r.mu.RLock()
	uses := append([]use(nil), r.uses[name]...)
	r.mu.RUnlock()

	for _, u := range uses {
		if !r.Inlinable(name, u.source, u.spread, allowSpread) {
			return true
		}
	}
	return false
}

// Names returns the defined names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.defs))
	for name := range r.defs {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Forget drops every definition and use contributed by source.
func (r *Registry) Forget(source string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for name, d := range r.defs {
		if d.Source == source {
			delete(r.defs, name)
		}
	}
	for name, list := range r.uses {
		kept := list[:0]
		for _, u := range list {
			if u.source != source {
				kept = append(kept, u)
			}
		}
		r.uses[name] = kept
	}
}

// Reset empties the registry.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.defs = make(map[string]Definition)
	r.uses = make(map[string][]use)
}

// definition parses `$$.Name = $$.$({...})` from an expression statement.
func (r *run) definition(stmt *sitter.Node) (Definition, bool) {
	assign := proptree.Unwrap(proptree.FirstNamed(stmt))
	if assign == nil || assign.Type() != "assignment_expression" {
		return Definition{}, false
	}
	name, ok := r.preparedName(proptree.Text(assign.ChildByFieldName("left"), r.src))
	if !ok {
		return Definition{}, false
	}
	obj := proptree.Unwrap(r.c.extractor.MarkerCallArgument(proptree.Unwrap(assign.ChildByFieldName("right")), r.src))
	if obj == nil || obj.Type() != "object" {
		return Definition{}, false
	}

	tree := r.c.extractor.Object(obj, r.src)
	d := Definition{Name: name, Source: r.path, Tree: tree, Static: true}

	for _, key := range tree.Keys() {
		p, _ := tree.Get(key)
		if key == "as" {
			if s, ok := p.String(); ok && !p.Dynamic {
				d.Tag = s
			} else {
				d.Static = false
			}
			tree.Delete(key)
			continue
		}
		if r.c.extractor.IsStyleKey(key) {
			continue
		}
		tree.Delete(key)
		switch {
		case p.Dynamic:
			d.Static = false
			d.Attrs = append(d.Attrs, key+"={"+p.Code+"}")
		default:
			if s, ok := p.String(); ok {
				d.Attrs = append(d.Attrs, key+"="+proptree.Quote(s))
			} else {
				d.Static = false
				d.Attrs = append(d.Attrs, key+"={"+string(r.src[p.Start:p.End])+"}")
			}
		}
	}
	if !tree.IsStatic() {
		d.Static = false
	}
	return d, true
}

// preparedName accepts "$$.Name" with an upper-case Name.
func (r *run) preparedName(text string) (string, bool) {
	name, ok := strings.CutPrefix(text, r.c.opts.Marker+".")
	if !ok || name == "" || strings.Contains(name, ".") {
		return "", false
	}
	if !unicode.IsUpper([]rune(name)[0]) {
		return "", false
	}
	return name, true
}
