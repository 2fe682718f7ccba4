// Package selector turns (name, value, contexts) triples into class names,
// custom property names and composed child selectors.
package selector

import (
	"fmt"
	"strings"

	"github.com/yacobolo/bosscss/internal/dictionary"
)

// ContextToClassName joins prefix, contexts, name and value with ":".
// Names and contexts are converted from camelCase to dash-case; list values
// are joined with "_". With escape set, the result is a CSS identifier.
func ContextToClassName(name string, value any, contexts []string, escape bool, prefix string) string {
	parts := make([]string, 0, len(contexts)+3)
	if prefix != "" {
		parts = append(parts, prefix)
	}
	for _, ctx := range contexts {
		if IsChildMarker(ctx) {
			parts = append(parts, ctx)
			continue
		}
		parts = append(parts, dictionary.Dash(ctx))
	}
	parts = append(parts, dictionary.Dash(name))
	if v := joinValue(value); v != "" {
		parts = append(parts, v)
	}

	className := strings.Join(parts, ":")
	if escape {
		return Escape(className)
	}
	return className
}

// ContextToCSSVariable returns the custom property name for a dynamic value:
// --prefix-ctx-...-name.
func ContextToCSSVariable(name string, contexts []string, prefix string) string {
	parts := make([]string, 0, len(contexts)+2)
	if prefix != "" {
		parts = append(parts, prefix)
	}
	for _, ctx := range contexts {
		parts = append(parts, variableSegment(ctx))
	}
	parts = append(parts, dictionary.Dash(name))
	return "--" + strings.Join(parts, "-")
}

// ApplyChildSelectors composes child markers ("[...]") onto base, left to
// right. A marker containing "&" replaces "&" with the selector built so far,
// other markers are appended as descendants. "_" inside a marker is a space.
func ApplyChildSelectors(base string, contexts []string) string {
	out := base
	for _, ctx := range contexts {
		if !IsChildMarker(ctx) {
			continue
		}
		inner := ChildSelector(ctx)
		if strings.Contains(inner, "&") {
			out = strings.ReplaceAll(inner, "&", out)
			continue
		}
		out = out + " " + inner
	}
	return out
}

// IsChildMarker reports whether a context fragment is a "[selector]" marker.
func IsChildMarker(ctx string) bool {
	return len(ctx) >= 2 && ctx[0] == '[' && ctx[len(ctx)-1] == ']'
}

// ChildSelector unwraps a child marker, turning "_" into spaces.
func ChildSelector(ctx string) string {
	if !IsChildMarker(ctx) {
		return ctx
	}
	return strings.TrimSpace(strings.ReplaceAll(ctx[1:len(ctx)-1], "_", " "))
}

// AttributeSelector matches an element carrying the literal class token.
func AttributeSelector(token string) string {
	return `[class~="` + escapeDoubleQuoted(token) + `"]`
}

// ClassSelector returns ".ident" for an unescaped class name.
func ClassSelector(className string) string {
	return "." + Escape(className)
}

// Escape escapes an identifier following the CSSOM CSS.escape algorithm.
func Escape(ident string) string {
	if ident == "" {
		return ""
	}

	var b strings.Builder
	b.Grow(len(ident) + 8)
	runes := []rune(ident)
	for i, r := range runes {
		switch {
		case r == 0:
			b.WriteRune('\uFFFD')
		case (r >= 0x01 && r <= 0x1f) || r == 0x7f:
			fmt.Fprintf(&b, "\\%x ", r)
		case i == 0 && r >= '0' && r <= '9':
			fmt.Fprintf(&b, "\\%x ", r)
		case i == 1 && r >= '0' && r <= '9' && runes[0] == '-':
			fmt.Fprintf(&b, "\\%x ", r)
		case i == 0 && r == '-' && len(runes) == 1:
			b.WriteString(`\-`)
		case r >= 0x80 || r == '-' || r == '_' ||
			(r >= '0' && r <= '9') || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z'):
			b.WriteRune(r)
		default:
			b.WriteByte('\\')
			b.WriteRune(r)
		}
	}
	return b.String()
}

func joinValue(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case []string:
		return strings.Join(v, "_")
	case []any:
		parts := make([]string, 0, len(v))
		for _, p := range v {
			parts = append(parts, joinValue(p))
		}
		return strings.Join(parts, "_")
	default:
		return fmt.Sprint(v)
	}
}

// variableSegment keeps custom property names free of selector punctuation.
func variableSegment(ctx string) string {
	if IsChildMarker(ctx) {
		ctx = ctx[1 : len(ctx)-1]
	}
	ctx = dictionary.Dash(ctx)
	down := len(ctx) > 1 && strings.HasSuffix(ctx, "-")
	if down {
		ctx = strings.TrimSuffix(ctx, "-")
	}
	var b strings.Builder
	for _, r := range ctx {
		switch {
		case r == '+':
			b.WriteString("-up")
		case r >= 0x80 || r == '-' || r == '_' ||
			(r >= '0' && r <= '9') || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z'):
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	if down {
		b.WriteString("-down")
	}
	return strings.Trim(b.String(), "_")
}

func escapeDoubleQuoted(s string) string {
	if !strings.ContainsAny(s, `"\`) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s) + 4)
	for _, r := range s {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case '"':
			b.WriteString(`\"`)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// TokenValue returns the selector form of a token reference used as the
// value of property. The first path segment is dropped when it equals or
// ends the property name: color.white under background-color is "white".
func TokenValue(property string, path []string) string {
	if len(path) > 1 {
		group := dictionary.Dash(path[0])
		prop := dictionary.Dash(property)
		if prop == group || strings.HasSuffix(prop, "-"+group) {
			path = path[1:]
		}
	}
	return strings.Join(path, "-")
}
