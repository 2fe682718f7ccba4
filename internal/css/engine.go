// Package css accumulates, deduplicates and orders generated style rules.
package css

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"
)

var (
	// ErrNoSelector is returned by Rule and Write when no selector is open.
	ErrNoSelector = errors.New("no selector open")
	// ErrQueryConflict is returned when a selector is reopened with a different query.
	ErrQueryConflict = errors.New("conflicting query on open selector")
)

// SelectorInput opens or extends the current selector builder.
type SelectorInput struct {
	ClassName string   // escaped class identifier, rendered as ".ClassName"
	Selector  string   // raw selector, used when ClassName is empty
	Pseudos   []string // appended to the selector in order
	Query     string   // wrapping at-rule, e.g. "@media screen and (min-width: 640px)"
	Source    string   // provenance, defaults to the engine source
}

// RuleOptions modifies a declaration
type RuleOptions struct {
	Important bool
}

type builder struct {
	selector string
	pseudos  orderedSet
	values   orderedSet
	query    string
	source   string
}

type ruleMeta struct {
	query string
	index int
}

// CustomBlock is a raw CSS block extracted from source, keyed by its byte span.
type CustomBlock struct {
	Start int
	End   int
	Text  string
}

// Engine is the rule store of a compile session. It is not safe for
// concurrent use; parallel drivers build one engine per file and Merge.
type Engine struct {
	log *zap.Logger

	rules       orderedSet
	meta        map[string]ruleMeta
	ruleSources map[string]sourceSet

	roots       orderedSet
	rootSources map[string]sourceSet

	imports       orderedSet
	importSources map[string]sourceSet

	customs       orderedSet // keys "file:start-end"
	customText    map[string]string
	customSources map[string]sourceSet

	current   *builder
	source    string
	scope     string
	nextIndex int
}

// Option configures an Engine
type Option func(*Engine)

// WithScope sets the selector wrapping root declarations (default ":root").
func WithScope(scope string) Option {
	return func(e *Engine) { e.scope = scope }
}

// New creates an empty engine.
func New(log *zap.Logger, opts ...Option) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	e := &Engine{
		log:   log.Named("css"),
		scope: ":root",
	}
	e.init()
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) init() {
	e.rules = newOrderedSet()
	e.meta = make(map[string]ruleMeta)
	e.ruleSources = make(map[string]sourceSet)
	e.roots = newOrderedSet()
	e.rootSources = make(map[string]sourceSet)
	e.imports = newOrderedSet()
	e.importSources = make(map[string]sourceSet)
	e.customs = newOrderedSet()
	e.customText = make(map[string]string)
	e.customSources = make(map[string]sourceSet)
	e.current = nil
	e.nextIndex = 0
}

// Reset drops every rule, root declaration, import and custom block.
func (e *Engine) Reset() {
	e.init()
}

// SetSource sets the default provenance for subsequent writes.
func (e *Engine) SetSource(source string) {
	e.source = source
}

// Source returns the default provenance.
func (e *Engine) Source() string {
	return e.source
}

// Selector opens the current builder or merges into it. Pseudos are merged
// by value keeping first-seen order.
func (e *Engine) Selector(in SelectorInput) error {
	sel := in.Selector
	if in.ClassName != "" {
		sel = "." + in.ClassName
	}

	if e.current == nil {
		e.current = &builder{
			pseudos: newOrderedSet(),
			values:  newOrderedSet(),
		}
	}
	b := e.current

	if in.Query != "" {
		if b.query != "" && b.query != in.Query {
			return fmt.Errorf("selector %q: %q vs %q: %w", sel, b.query, in.Query, ErrQueryConflict)
		}
		b.query = in.Query
	}
	if b.selector == "" {
		b.selector = sel
	}
	for _, p := range in.Pseudos {
		b.pseudos.add(p)
	}
	if in.Source != "" {
		b.source = in.Source
	}
	return nil
}

// Rule appends a declaration to the open selector.
func (e *Engine) Rule(property, value string, opts RuleOptions) error {
	if e.current == nil {
		return fmt.Errorf("rule %s: %w", property, ErrNoSelector)
	}
	e.current.values.add(Declaration(property, value, opts.Important))
	return nil
}

// Write renders the open selector into the rule store and clears it.
// Writing an already stored rule only records the additional source.
func (e *Engine) Write() error {
	b := e.current
	if b == nil {
		return fmt.Errorf("write: %w", ErrNoSelector)
	}
	e.current = nil

	if b.values.len() == 0 || b.selector == "" {
		return nil
	}

	sel := b.selector + strings.Join(b.pseudos.items(), "")
	text := renderRule(sel, b.values.items(), b.query)
	source := b.source
	if source == "" {
		source = e.source
	}
	e.AddRule(text, b.query, source)
	return nil
}

// AddRule inserts rendered rule text directly, bypassing the builder.
func (e *Engine) AddRule(text, query, source string) {
	if source == "" {
		source = e.source
	}
	if e.rules.add(text) {
		e.meta[text] = ruleMeta{query: query, index: e.nextIndex}
		e.nextIndex++
		e.log.Debug("rule added", zap.String("rule", text), zap.String("source", source))
	}
	addSource(e.ruleSources, text, source)
}

// AddRoot records a root-level declaration such as "--color-white: #fff".
func (e *Engine) AddRoot(declaration, source string) {
	if source == "" {
		source = e.source
	}
	e.roots.add(declaration)
	addSource(e.rootSources, declaration, source)
}

// AddImport records an @import. The argument is a bare URL or a complete
// url(...)/quoted form.
func (e *Engine) AddImport(url, source string) {
	if source == "" {
		source = e.source
	}
	e.imports.add(url)
	addSource(e.importSources, url, source)
}

// AddCustomBlock records a raw CSS block extracted from file at [start, end).
func (e *Engine) AddCustomBlock(file string, block CustomBlock) {
	key := customKey(file, block.Start, block.End)
	e.customs.add(key)
	e.customText[key] = block.Text
	addSource(e.customSources, key, file)
}

// SetCustomBlocks replaces every custom block of file.
func (e *Engine) SetCustomBlocks(file string, blocks []CustomBlock) {
	prefix := file + ":"
	for _, key := range e.customs.items() {
		if strings.HasPrefix(key, prefix) {
			e.dropCustom(key)
		}
	}
	for _, block := range blocks {
		e.AddCustomBlock(file, block)
	}
}

// RemoveSource drops source from every entry's provenance and purges the
// entries it was the only contributor to.
func (e *Engine) RemoveSource(source string) {
	removed := 0
	for _, text := range e.rules.items() {
		if dropSource(e.ruleSources, text, source) {
			e.rules.remove(text)
			delete(e.meta, text)
			removed++
		}
	}
	for _, decl := range e.roots.items() {
		if dropSource(e.rootSources, decl, source) {
			e.roots.remove(decl)
			removed++
		}
	}
	for _, url := range e.imports.items() {
		if dropSource(e.importSources, url, source) {
			e.imports.remove(url)
			removed++
		}
	}
	for _, key := range e.customs.items() {
		if dropSource(e.customSources, key, source) {
			e.dropCustom(key)
			removed++
		}
	}
	e.log.Debug("source removed", zap.String("source", source), zap.Int("entries", removed))
}

func (e *Engine) dropCustom(key string) {
	e.customs.remove(key)
	delete(e.customText, key)
	delete(e.customSources, key)
}

// Len returns the number of stored rules.
func (e *Engine) Len() int {
	return e.rules.len()
}

// Has reports whether the exact rule text is stored.
func (e *Engine) Has(text string) bool {
	return e.rules.has(text)
}

// Text renders the complete stylesheet.
func (e *Engine) Text() string {
	return Render(e.State())
}

// State exports a read-only copy of the store.
func (e *Engine) State() State {
	st := State{Scope: e.scope}
	for _, text := range e.rules.items() {
		m := e.meta[text]
		st.Rules = append(st.Rules, Entry{Text: text, Query: m.query, Index: m.index, Sources: e.ruleSources[text].sorted()})
	}
	for i, decl := range e.roots.items() {
		st.Roots = append(st.Roots, Entry{Text: decl, Index: i, Sources: e.rootSources[decl].sorted()})
	}
	for i, url := range e.imports.items() {
		st.Imports = append(st.Imports, Entry{Text: url, Index: i, Sources: e.importSources[url].sorted()})
	}
	for i, key := range e.customs.items() {
		st.Customs = append(st.Customs, Entry{Text: e.customText[key], Key: key, Index: i, Sources: e.customSources[key].sorted()})
	}
	return st
}

// Merge folds other into e in other's insertion order, keeping provenance.
func (e *Engine) Merge(other *Engine) {
	for _, text := range other.rules.items() {
		for _, src := range other.ruleSources[text].sorted() {
			e.AddRule(text, other.meta[text].query, src)
		}
	}
	for _, decl := range other.roots.items() {
		for _, src := range other.rootSources[decl].sorted() {
			e.AddRoot(decl, src)
		}
	}
	for _, url := range other.imports.items() {
		for _, src := range other.importSources[url].sorted() {
			e.AddImport(url, src)
		}
	}
	for _, key := range other.customs.items() {
		e.customs.add(key)
		e.customText[key] = other.customText[key]
		for _, src := range other.customSources[key].sorted() {
			addSource(e.customSources, key, src)
		}
	}
}

// Snapshot captures the engine state for a later Restore.
type Snapshot struct {
	rules         orderedSet
	meta          map[string]ruleMeta
	ruleSources   map[string]sourceSet
	roots         orderedSet
	rootSources   map[string]sourceSet
	imports       orderedSet
	importSources map[string]sourceSet
	customs       orderedSet
	customText    map[string]string
	customSources map[string]sourceSet
	nextIndex     int
	source        string
}

// Snapshot deep-copies the store. The open builder is not captured.
func (e *Engine) Snapshot() *Snapshot {
	meta := make(map[string]ruleMeta, len(e.meta))
	for k, v := range e.meta {
		meta[k] = v
	}
	customText := make(map[string]string, len(e.customText))
	for k, v := range e.customText {
		customText[k] = v
	}
	return &Snapshot{
		rules:         e.rules.clone(),
		meta:          meta,
		ruleSources:   cloneSources(e.ruleSources),
		roots:         e.roots.clone(),
		rootSources:   cloneSources(e.rootSources),
		imports:       e.imports.clone(),
		importSources: cloneSources(e.importSources),
		customs:       e.customs.clone(),
		customText:    customText,
		customSources: cloneSources(e.customSources),
		nextIndex:     e.nextIndex,
		source:        e.source,
	}
}

// Restore rolls the store back to s and discards any open builder.
func (e *Engine) Restore(s *Snapshot) {
	if s == nil {
		return
	}
	// clone again so the snapshot stays reusable
	c := s
	e.rules = c.rules.clone()
	e.meta = make(map[string]ruleMeta, len(c.meta))
	for k, v := range c.meta {
		e.meta[k] = v
	}
	e.ruleSources = cloneSources(c.ruleSources)
	e.roots = c.roots.clone()
	e.rootSources = cloneSources(c.rootSources)
	e.imports = c.imports.clone()
	e.importSources = cloneSources(c.importSources)
	e.customs = c.customs.clone()
	e.customText = make(map[string]string, len(c.customText))
	for k, v := range c.customText {
		e.customText[k] = v
	}
	e.customSources = cloneSources(c.customSources)
	e.nextIndex = c.nextIndex
	e.source = c.source
	e.current = nil
}

// Declaration renders "prop: value" with an optional !important.
func Declaration(property, value string, important bool) string {
	if important {
		return property + ": " + value + " !important"
	}
	return property + ": " + value
}

func renderRule(sel string, decls []string, query string) string {
	body := sel + " { " + strings.Join(decls, "; ") + " }"
	if query == "" {
		return body
	}
	return query + " { " + body + " }"
}

func customKey(file string, start, end int) string {
	return fmt.Sprintf("%s:%d-%d", file, start, end)
}

type sourceSet map[string]struct{}

func (s sourceSet) sorted() []string {
	out := make([]string, 0, len(s))
	for k := range s {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func addSource(m map[string]sourceSet, key, source string) {
	set := m[key]
	if set == nil {
		set = make(sourceSet)
		m[key] = set
	}
	set[source] = struct{}{}
}

// dropSource removes source from key's provenance and reports whether key
// has no contributors left.
func dropSource(m map[string]sourceSet, key, source string) bool {
	set := m[key]
	if _, ok := set[source]; !ok {
		return false
	}
	delete(set, source)
	if len(set) == 0 {
		delete(m, key)
		return true
	}
	return false
}

func cloneSources(m map[string]sourceSet) map[string]sourceSet {
	out := make(map[string]sourceSet, len(m))
	for k, set := range m {
		c := make(sourceSet, len(set))
		for s := range set {
			c[s] = struct{}{}
		}
		out[k] = c
	}
	return out
}

// orderedSet is an insertion-ordered set of strings.
type orderedSet struct {
	keys  []string
	index map[string]int
}

func newOrderedSet() orderedSet {
	return orderedSet{index: make(map[string]int)}
}

func (s *orderedSet) add(v string) bool {
	if _, ok := s.index[v]; ok {
		return false
	}
	s.index[v] = len(s.keys)
	s.keys = append(s.keys, v)
	return true
}

func (s *orderedSet) remove(v string) {
	i, ok := s.index[v]
	if !ok {
		return
	}
	s.keys = append(s.keys[:i], s.keys[i+1:]...)
	delete(s.index, v)
	for j := i; j < len(s.keys); j++ {
		s.index[s.keys[j]] = j
	}
}

func (s *orderedSet) has(v string) bool {
	_, ok := s.index[v]
	return ok
}

func (s *orderedSet) len() int {
	return len(s.keys)
}

// items returns a copy safe to iterate while mutating the set.
func (s *orderedSet) items() []string {
	out := make([]string, len(s.keys))
	copy(out, s.keys)
	return out
}

func (s orderedSet) clone() orderedSet {
	c := orderedSet{
		keys:  make([]string, len(s.keys)),
		index: make(map[string]int, len(s.index)),
	}
	copy(c.keys, s.keys)
	for k, v := range s.index {
		c.index[k] = v
	}
	return c
}
