package css

import (
	"sort"
	"strings"
)

// Entry is one stored rule, root declaration, import or custom block.
type Entry struct {
	Text    string
	Query   string // rules only
	Key     string // custom blocks only: "file:start-end"
	Index   int
	Sources []string
}

// State is a read-only export of an engine, also used to render partitions.
type State struct {
	Scope   string
	Rules   []Entry
	Roots   []Entry
	Imports []Entry
	Customs []Entry
}

// Render produces stylesheet text: imports, the root block, base rules in
// insertion order, at-rules in breakpoint order, then custom blocks.
func Render(st State) string {
	var parts []string

	for _, imp := range st.Imports {
		parts = append(parts, renderImport(imp.Text))
	}

	if len(st.Roots) > 0 {
		scope := st.Scope
		if scope == "" {
			scope = ":root"
		}
		decls := make([]string, len(st.Roots))
		for i, r := range st.Roots {
			decls[i] = r.Text
		}
		parts = append(parts, scope+" { "+strings.Join(decls, "; ")+" }")
	}

	var base, queried []Entry
	for _, r := range st.Rules {
		if r.Query == "" {
			base = append(base, r)
		} else {
			queried = append(queried, r)
		}
	}
	sort.SliceStable(base, func(i, j int) bool { return base[i].Index < base[j].Index })
	SortAtRules(queried)

	for _, r := range base {
		parts = append(parts, r.Text)
	}
	for _, r := range queried {
		parts = append(parts, r.Text)
	}
	for _, c := range st.Customs {
		parts = append(parts, strings.TrimSpace(c.Text))
	}

	return strings.Join(parts, "\n")
}

func renderImport(url string) string {
	switch {
	case strings.HasPrefix(url, "@import"):
		return strings.TrimSuffix(url, ";") + ";"
	case strings.HasPrefix(url, "url("), strings.HasPrefix(url, `"`), strings.HasPrefix(url, "'"):
		return "@import " + url + ";"
	default:
		return `@import url("` + url + `");`
	}
}
