package boundary

import (
	"path/filepath"
	"sort"

	"github.com/yacobolo/bosscss/internal/css"
)

// DefaultCriticality is the number of distinct boundaries an entry must
// touch before it is hoisted to their common ancestor.
const DefaultCriticality = 2

// Output is one file to write.
type Output struct {
	Path string `json:"path"`
	Text string `json:"text"`
}

// Result is the partitioned stylesheet. When Found is false no boundaries
// exist and Outputs holds only the global stylesheet.
type Result struct {
	Found   bool     `json:"found"`
	Outputs []Output `json:"outputs"`
}

// Partition distributes the rules, root declarations and custom blocks of
// state over nodes. Imports always stay global.
func Partition(state css.State, nodes []Node, criticality int, globalPath string) Result {
	if len(nodes) == 0 {
		return Result{Outputs: []Output{{Path: globalPath, Text: css.Render(state)}}}
	}
	if criticality <= 0 {
		criticality = DefaultCriticality
	}

	p := newPartitioner(nodes)
	buckets := make(map[string]*css.State, len(nodes)+1)
	bucket := func(id string) *css.State {
		b, ok := buckets[id]
		if !ok {
			b = &css.State{Scope: state.Scope}
			buckets[id] = b
		}
		return b
	}

	place := func(entries []css.Entry, add func(*css.State, css.Entry)) {
		for _, g := range dedupe(entries) {
			ids := p.touched(g.sources)
			if len(ids) >= criticality {
				add(bucket(p.commonAncestor(ids)), g.entry)
				continue
			}
			for _, id := range ids {
				add(bucket(id), g.entry)
			}
		}
	}

	place(state.Rules, func(s *css.State, e css.Entry) { s.Rules = append(s.Rules, e) })
	place(state.Roots, func(s *css.State, e css.Entry) { s.Roots = append(s.Roots, e) })
	place(state.Customs, func(s *css.State, e css.Entry) { s.Customs = append(s.Customs, e) })
	bucket(GlobalID).Imports = state.Imports

	out := Result{Found: true}
	out.Outputs = append(out.Outputs, Output{Path: globalPath, Text: css.Render(*bucket(GlobalID))})
	for _, n := range p.sorted {
		out.Outputs = append(out.Outputs, Output{Path: n.Path, Text: css.Render(*bucket(n.ID))})
	}
	return out
}

type group struct {
	entry   css.Entry
	sources []string
}

// dedupe merges entries whose normalized text is equal. The representative
// is the lowest-index original; sources are the union.
func dedupe(entries []css.Entry) []group {
	sorted := make([]css.Entry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Index < sorted[j].Index })

	var groups []group
	byKey := make(map[string]int)
	for _, e := range sorted {
		key := e.Query + "\x00" + css.Normalize(e.Text)
		i, ok := byKey[key]
		if !ok {
			byKey[key] = len(groups)
			groups = append(groups, group{entry: e, sources: append([]string(nil), e.Sources...)})
			continue
		}
		groups[i].sources = append(groups[i].sources, e.Sources...)
	}
	return groups
}

type partitioner struct {
	byID   map[string]Node
	byDir  map[string]string
	sorted []Node
}

func newPartitioner(nodes []Node) *partitioner {
	p := &partitioner{
		byID:  make(map[string]Node, len(nodes)),
		byDir: make(map[string]string, len(nodes)),
	}
	for _, n := range nodes {
		p.byID[n.ID] = n
		p.byDir[filepath.Clean(n.Dir)] = n.ID
		p.sorted = append(p.sorted, n)
	}
	sort.Slice(p.sorted, func(i, j int) bool { return p.sorted[i].Path < p.sorted[j].Path })
	return p
}

// nearest walks up from the source's directory to the first boundary.
func (p *partitioner) nearest(source string) string {
	abs, err := filepath.Abs(source)
	if err != nil {
		return GlobalID
	}
	for dir := filepath.Dir(abs); ; {
		if id, ok := p.byDir[dir]; ok {
			return id
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return GlobalID
		}
		dir = parent
	}
}

// touched returns the distinct nodes of sources in sorted order. Entries
// without provenance belong to the global node.
func (p *partitioner) touched(sources []string) []string {
	if len(sources) == 0 {
		return []string{GlobalID}
	}
	seen := make(map[string]bool)
	var ids []string
	for _, src := range sources {
		id := p.nearest(src)
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// chain lists id and its ancestors, nearest first, ending at GlobalID.
func (p *partitioner) chain(id string) []string {
	var out []string
	for id != GlobalID {
		n, ok := p.byID[id]
		if !ok {
			break
		}
		out = append(out, id)
		id = n.ParentID
	}
	return append(out, GlobalID)
}

func (p *partitioner) commonAncestor(ids []string) string {
	others := make([]map[string]bool, 0, len(ids)-1)
	for _, id := range ids[1:] {
		set := make(map[string]bool)
		for _, a := range p.chain(id) {
			set[a] = true
		}
		others = append(others, set)
	}

	for _, candidate := range p.chain(ids[0]) {
		shared := true
		for _, set := range others {
			if !set[candidate] {
				shared = false
				break
			}
		}
		if shared {
			return candidate
		}
	}
	return GlobalID
}
