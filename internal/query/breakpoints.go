// Package query resolves context paths (at, container, keyframes, pseudo and
// child markers) into at-rule preludes and selector suffixes.
package query

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Bounds is a width range in pixels. Zero means open on that side.
type Bounds struct {
	Min int
	Max int
}

// DefaultBreakpoints returns the built-in named width ranges.
func DefaultBreakpoints() map[string]Bounds {
	return map[string]Bounds{
		"micro":  {Min: 0, Max: 374},
		"mobile": {Min: 375, Max: 639},
		"tablet": {Min: 640, Max: 1023},
		"small":  {Min: 1024, Max: 1439},
		"medium": {Min: 1440, Max: 1919},
		"large":  {Min: 1920, Max: 0},
	}
}

// keyQueries are named media conditions that are not widths
var keyQueries = map[string]string{
	"dark":           "(prefers-color-scheme: dark)",
	"light":          "(prefers-color-scheme: light)",
	"portrait":       "(orientation: portrait)",
	"landscape":      "(orientation: landscape)",
	"reduced-motion": "(prefers-reduced-motion: reduce)",
	"hover-capable":  "(hover: hover)",
}

var literalRange = regexp.MustCompile(`^(\d+)?(-|\+)(\d+)?$`)

// Table holds named breakpoints with their "+" (and up) and "-" (and down)
// variants.
type Table struct {
	entries map[string]Bounds
	names   []string
}

// NewTable registers every breakpoint three times: name, name+ and name-.
func NewTable(breakpoints map[string]Bounds) *Table {
	t := &Table{entries: make(map[string]Bounds, len(breakpoints)*3)}
	for name, b := range breakpoints {
		t.entries[name] = b
		t.entries[name+"+"] = Bounds{Min: b.Min}
		t.entries[name+"-"] = Bounds{Max: b.Max}
		t.names = append(t.names, name)
	}
	sort.Slice(t.names, func(i, j int) bool {
		a, b := t.entries[t.names[i]], t.entries[t.names[j]]
		if a.Min != b.Min {
			return a.Min < b.Min
		}
		return t.names[i] < t.names[j]
	})
	return t
}

// Names returns breakpoint names ordered by minimum width.
func (t *Table) Names() []string {
	out := make([]string, len(t.names))
	copy(out, t.names)
	return out
}

// Lookup resolves a breakpoint name or a literal range ("200-400", "200+",
// "-400").
func (t *Table) Lookup(key string) (Bounds, bool) {
	if b, ok := t.entries[key]; ok {
		return b, true
	}
	return parseLiteralRange(key)
}

// IsKey reports whether key is a breakpoint, literal range or named condition.
func (t *Table) IsKey(key string) bool {
	if _, ok := t.Lookup(key); ok {
		return true
	}
	if key == "print" || key == "screen" {
		return true
	}
	_, ok := keyQueries[key]
	return ok
}

func parseLiteralRange(key string) (Bounds, bool) {
	m := literalRange.FindStringSubmatch(key)
	if m == nil {
		return Bounds{}, false
	}
	var b Bounds
	switch m[2] {
	case "-":
		// "200-400", "-400", or "400-" (and down, like "name-")
		switch {
		case m[1] != "" && m[3] != "":
			b.Min, _ = strconv.Atoi(m[1])
			b.Max, _ = strconv.Atoi(m[3])
		case m[3] != "":
			b.Max, _ = strconv.Atoi(m[3])
		case m[1] != "":
			b.Max, _ = strconv.Atoi(m[1])
		default:
			return Bounds{}, false
		}
	case "+":
		if m[1] == "" || m[3] != "" {
			return Bounds{}, false
		}
		b.Min, _ = strconv.Atoi(m[1])
	}
	return b, true
}

// Features renders the width conditions of b, e.g.
// "(min-width: 640px) and (max-width: 1023px)".
func (b Bounds) Features() []string {
	var out []string
	if b.Min > 0 {
		out = append(out, fmt.Sprintf("(min-width: %dpx)", b.Min))
	}
	if b.Max > 0 {
		out = append(out, fmt.Sprintf("(max-width: %dpx)", b.Max))
	}
	return out
}

// ParseBounds reads a configured breakpoint value: a two element list of
// numbers where nil or 0 means open.
func ParseBounds(v any) (Bounds, error) {
	var raw []any
	switch x := v.(type) {
	case []any:
		raw = x
	case []int:
		for _, i := range x {
			raw = append(raw, i)
		}
	case Bounds:
		return x, nil
	default:
		return Bounds{}, fmt.Errorf("breakpoint must be a [min, max] list, got %T", v)
	}
	if len(raw) != 2 {
		return Bounds{}, fmt.Errorf("breakpoint must have 2 entries, got %d", len(raw))
	}
	vals := [2]int{}
	for i, r := range raw {
		switch n := r.(type) {
		case nil:
		case int:
			vals[i] = n
		case int64:
			vals[i] = int(n)
		case float64:
			vals[i] = int(n)
		case string:
			if strings.TrimSpace(n) == "" || n == "null" {
				continue
			}
			parsed, err := strconv.Atoi(n)
			if err != nil {
				return Bounds{}, fmt.Errorf("breakpoint bound %q: %w", n, err)
			}
			vals[i] = parsed
		default:
			return Bounds{}, fmt.Errorf("breakpoint bound has type %T", r)
		}
	}
	return Bounds{Min: vals[0], Max: vals[1]}, nil
}
