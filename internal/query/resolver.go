package query

import (
	"errors"
	"fmt"
	"strings"

	"github.com/yacobolo/bosscss/internal/dictionary"
)

var (
	// ErrUnknownKey is returned for at/container keys that are neither a
	// breakpoint, a literal range nor a named condition.
	ErrUnknownKey = errors.New("unknown query key")
	// ErrUnknownContext is returned for path segments the dictionary cannot resolve.
	ErrUnknownContext = errors.New("unknown context")
)

// Context is a resolved context path.
type Context struct {
	Query     string   // "@media ..." or "@container ...", empty without at-rules
	Pseudos   []string // selector suffixes in path order
	Children  []string // "[...]" child markers in path order
	Container bool
}

// Resolver turns context paths into queries and selector suffixes.
type Resolver struct {
	dict  dictionary.Dictionary
	table *Table
}

// NewResolver creates a resolver over dict and table.
func NewResolver(dict dictionary.Dictionary, table *Table) *Resolver {
	if table == nil {
		table = NewTable(DefaultBreakpoints())
	}
	return &Resolver{dict: dict, table: table}
}

// Table returns the breakpoint table.
func (r *Resolver) Table() *Table {
	return r.table
}

// Resolve walks a context path such as ["at", "mobile+", "hover"]. Width
// ranges later in the path override earlier ones; a container marker turns
// the query into an @container query.
func (r *Resolver) Resolve(path []string) (Context, error) {
	var (
		ctx           Context
		mediaType     string
		conditions    []string
		width         Bounds
		hasWidth      bool
		containerName string
		containerW    Bounds
	)

	for i := 0; i < len(path); i++ {
		seg := path[i]
		res := r.dict.Resolve(seg)
		if !res.Known() {
			return Context{}, fmt.Errorf("%q in %v: %w", seg, path, ErrUnknownContext)
		}

		switch res.Descriptor.Kind {
		case dictionary.KindAt:
			if i+1 >= len(path) {
				return Context{}, fmt.Errorf("at without key in %v: %w", path, ErrUnknownKey)
			}
			i++
			key := path[i]
			switch {
			case key == "print" || key == "screen":
				mediaType = key
			case keyQueries[key] != "":
				conditions = appendUnique(conditions, keyQueries[key])
			default:
				b, ok := r.table.Lookup(key)
				if !ok {
					return Context{}, fmt.Errorf("%q: %w", key, ErrUnknownKey)
				}
				width, hasWidth = b, true
			}

		case dictionary.KindContainer:
			ctx.Container = true
			containerName = res.Suffix
			if i+1 < len(path) {
				if b, ok := r.table.Lookup(path[i+1]); ok {
					containerW = b
					i++
				}
			}

		case dictionary.KindKeyframes:
			// the step key belongs to the keyframes block, not the selector
			if i+1 < len(path) {
				i++
			}

		case dictionary.KindPseudo:
			ctx.Pseudos = appendUnique(ctx.Pseudos, res.Descriptor.Property)

		case dictionary.KindChild:
			ctx.Children = append(ctx.Children, seg)

		default:
			return Context{}, fmt.Errorf("%q is a property, not a context: %w", seg, ErrUnknownContext)
		}
	}

	if ctx.Container {
		ctx.Query = containerQuery(containerName, containerW)
		return ctx, nil
	}

	var parts []string
	if mediaType != "" {
		parts = append(parts, mediaType)
	} else if hasWidth {
		parts = append(parts, "screen")
	}
	if hasWidth {
		parts = append(parts, width.Features()...)
	}
	parts = append(parts, conditions...)
	if len(parts) > 0 {
		ctx.Query = "@media " + strings.Join(parts, " and ")
	}
	return ctx, nil
}

func containerQuery(name string, b Bounds) string {
	parts := []string{"@container"}
	if name != "" {
		parts = append(parts, name)
	}
	if f := b.Features(); len(f) > 0 {
		parts = append(parts, strings.Join(f, " and "))
	}
	return strings.Join(parts, " ")
}

func appendUnique(list []string, v string) []string {
	for _, s := range list {
		if s == v {
			return list
		}
	}
	return append(list, v)
}
