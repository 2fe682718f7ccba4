// Package proptree models style props as an ordered tree and extracts it
// from JSX attributes and object literals.
package proptree

import (
	"errors"
	"fmt"
)

// ErrInvalidProp is returned by Validate for props violating the value rules.
var ErrInvalidProp = errors.New("invalid prop")

// Prop is one entry of a Tree. Value holds exactly one of: a primitive
// string, a nested *Tree, or a []*Prop list. Dynamic props carry Code
// instead of a Value.
type Prop struct {
	Value         any
	Dynamic       bool
	IsFn          bool
	Code          string // source text of a non-static expression
	SelectorValue string // value embedded in generated selectors, when it differs from Value
	SelectorName  string // name embedded in generated selectors, when it differs from the key
	ClassToken    string // literal className token reused as the selector
	Important     bool
	Query         string

	// byte span of the value expression in its source, when extracted from code
	Start uint32
	End   uint32
}

// Static creates a primitive prop.
func Static(value string) *Prop {
	return &Prop{Value: value}
}

// DynamicCode creates a prop whose value is only known at runtime.
func DynamicCode(code string) *Prop {
	return &Prop{Dynamic: true, Code: code}
}

// Nested creates a prop holding a subtree.
func Nested(t *Tree) *Prop {
	return &Prop{Value: t}
}

// String returns the primitive value.
func (p *Prop) String() (string, bool) {
	s, ok := p.Value.(string)
	return s, ok
}

// Tree returns the nested tree.
func (p *Prop) Tree() (*Tree, bool) {
	t, ok := p.Value.(*Tree)
	return t, ok && t != nil
}

// List returns the ordered prop list.
func (p *Prop) List() ([]*Prop, bool) {
	l, ok := p.Value.([]*Prop)
	return l, ok
}

// IsStatic reports whether the whole prop, recursively, is known at compile time.
func (p *Prop) IsStatic() bool {
	if p.Dynamic || p.IsFn {
		return false
	}
	if t, ok := p.Tree(); ok {
		return t.IsStatic()
	}
	if l, ok := p.List(); ok {
		for _, item := range l {
			if !item.IsStatic() {
				return false
			}
		}
	}
	return true
}

// Validate checks the value invariants recursively.
func (p *Prop) Validate() error {
	if p.Dynamic {
		if p.Value != nil {
			return fmt.Errorf("dynamic prop with value: %w", ErrInvalidProp)
		}
		if p.Code == "" {
			return fmt.Errorf("dynamic prop without code: %w", ErrInvalidProp)
		}
		return nil
	}
	switch v := p.Value.(type) {
	case nil, string:
		return nil
	case *Tree:
		return v.Validate()
	case []*Prop:
		for _, item := range v {
			if err := item.Validate(); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("value of type %T: %w", v, ErrInvalidProp)
	}
}

// Tree is an insertion-ordered mapping of path segment to Prop.
type Tree struct {
	keys  []string
	props map[string]*Prop

	// Spread is set when the source object or element contained a spread
	// whose keys are unknown at compile time.
	Spread bool
}

// New creates an empty tree.
func New() *Tree {
	return &Tree{props: make(map[string]*Prop)}
}

// Set inserts or replaces key, keeping the original position on replace.
func (t *Tree) Set(key string, p *Prop) {
	if _, ok := t.props[key]; !ok {
		t.keys = append(t.keys, key)
	}
	t.props[key] = p
}

// Get returns the prop stored under key.
func (t *Tree) Get(key string) (*Prop, bool) {
	p, ok := t.props[key]
	return p, ok
}

// Delete removes key.
func (t *Tree) Delete(key string) {
	if _, ok := t.props[key]; !ok {
		return
	}
	delete(t.props, key)
	for i, k := range t.keys {
		if k == key {
			t.keys = append(t.keys[:i], t.keys[i+1:]...)
			break
		}
	}
}

// Keys returns the keys in insertion order.
func (t *Tree) Keys() []string {
	out := make([]string, len(t.keys))
	copy(out, t.keys)
	return out
}

// Len returns the number of entries.
func (t *Tree) Len() int {
	return len(t.keys)
}

// Each calls fn for every entry in insertion order.
func (t *Tree) Each(fn func(key string, p *Prop)) {
	for _, k := range t.Keys() {
		fn(k, t.props[k])
	}
}

// Child returns the subtree under key, creating it when missing. A primitive
// stored under key is replaced.
func (t *Tree) Child(key string) *Tree {
	if p, ok := t.props[key]; ok {
		if sub, ok := p.Tree(); ok {
			return sub
		}
	}
	sub := New()
	t.Set(key, Nested(sub))
	return sub
}

// Merge copies other's entries into t. Nested trees are merged recursively,
// everything else is overwritten.
func (t *Tree) Merge(other *Tree) {
	if other == nil {
		return
	}
	t.Spread = t.Spread || other.Spread
	other.Each(func(key string, p *Prop) {
		if sub, ok := p.Tree(); ok {
			if existing, ok := t.props[key]; ok {
				if dst, ok := existing.Tree(); ok {
					dst.Merge(sub)
					return
				}
			}
		}
		t.Set(key, p)
	})
}

// Clone returns a deep copy of t.
func (t *Tree) Clone() *Tree {
	if t == nil {
		return nil
	}
	out := New()
	out.Spread = t.Spread
	for _, k := range t.keys {
		out.Set(k, t.props[k].Clone())
	}
	return out
}

// Clone returns a deep copy of p.
func (p *Prop) Clone() *Prop {
	cp := *p
	switch v := p.Value.(type) {
	case *Tree:
		cp.Value = v.Clone()
	case []*Prop:
		list := make([]*Prop, len(v))
		for i, item := range v {
			list[i] = item.Clone()
		}
		cp.Value = list
	}
	return &cp
}

// IsStatic reports whether every prop in the tree is static.
func (t *Tree) IsStatic() bool {
	if t.Spread {
		return false
	}
	for _, k := range t.keys {
		if !t.props[k].IsStatic() {
			return false
		}
	}
	return true
}

// Validate checks every prop.
func (t *Tree) Validate() error {
	for _, k := range t.keys {
		if err := t.props[k].Validate(); err != nil {
			return fmt.Errorf("%s: %w", k, err)
		}
	}
	return nil
}
