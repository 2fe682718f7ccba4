// Package dictionary resolves property-like tokens to descriptors and converts
// authored values into CSS text.
package dictionary

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Kind classifies what a resolved token means in a context path
type Kind int

const (
	KindProperty Kind = iota
	KindPseudo
	KindAt
	KindContainer
	KindKeyframes
	KindChild
)

func (k Kind) String() string {
	switch k {
	case KindProperty:
		return "property"
	case KindPseudo:
		return "pseudo"
	case KindAt:
		return "at"
	case KindContainer:
		return "container"
	case KindKeyframes:
		return "keyframes"
	case KindChild:
		return "child"
	default:
		return "unknown"
	}
}

// Descriptor describes a known token.
type Descriptor struct {
	Property    string // CSS property name, or the selector text for pseudos
	Aliases     []string
	IsCSSProp   bool
	Single      bool // value is used verbatim, "_" is not a list separator
	Description string
	Kind        Kind
	Category    Category
}

// Resolution is the result of resolving a token. Descriptor is nil for
// unknown tokens.
type Resolution struct {
	Descriptor *Descriptor
	Name       string
	Suffix     string // namespace suffix: container_sidebar -> sidebar
	Raw        string
}

// Known reports whether the token resolved to a descriptor.
func (r Resolution) Known() bool {
	return r.Descriptor != nil
}

// Dictionary is the contract consumed by the parser, extractor and renderer.
type Dictionary interface {
	Resolve(token string) Resolution
	ToValue(value any, property string) string
}

// TokenMarker prefixes design token references in authored values.
const TokenMarker = "$$.token."

var numericValue = regexp.MustCompile(`^-?(\d+\.?\d*|\.\d+)$`)

// unitless lists properties whose numeric values never get a unit
var unitless = map[string]bool{
	"animation-iteration-count": true,
	"aspect-ratio":              true,
	"column-count":              true,
	"columns":                   true,
	"fill-opacity":              true,
	"flex":                      true,
	"flex-grow":                 true,
	"flex-shrink":               true,
	"font-weight":               true,
	"grid-area":                 true,
	"grid-column":               true,
	"grid-row":                  true,
	"line-height":               true,
	"opacity":                   true,
	"order":                     true,
	"orphans":                   true,
	"scale":                     true,
	"stroke-opacity":            true,
	"tab-size":                  true,
	"widows":                    true,
	"z-index":                   true,
	"zoom":                      true,
}

var pseudos = []struct {
	name     string
	selector string
}{
	{"hover", ":hover"},
	{"focus", ":focus"},
	{"focus-visible", ":focus-visible"},
	{"focus-within", ":focus-within"},
	{"active", ":active"},
	{"visited", ":visited"},
	{"disabled", ":disabled"},
	{"enabled", ":enabled"},
	{"checked", ":checked"},
	{"required", ":required"},
	{"valid", ":valid"},
	{"invalid", ":invalid"},
	{"read-only", ":read-only"},
	{"placeholder-shown", ":placeholder-shown"},
	{"target", ":target"},
	{"empty", ":empty"},
	{"first-child", ":first-child"},
	{"last-child", ":last-child"},
	{"only-child", ":only-child"},
	{"first-of-type", ":first-of-type"},
	{"last-of-type", ":last-of-type"},
	{"odd", ":nth-child(odd)"},
	{"even", ":nth-child(even)"},
	{"before", "::before"},
	{"after", "::after"},
	{"placeholder", "::placeholder"},
	{"selection", "::selection"},
	{"marker", "::marker"},
	{"first-line", "::first-line"},
	{"first-letter", "::first-letter"},
	{"backdrop", "::backdrop"},
}

// Default is the built-in dictionary of CSS properties, pseudos and contexts.
type Default struct {
	entries map[string]*Descriptor
	unit    string
	prefix  string
}

// Option configures a Default dictionary
type Option func(*Default)

// WithUnit sets the unit appended to unitless numeric values (default "px").
func WithUnit(unit string) Option {
	return func(d *Default) { d.unit = unit }
}

// WithPrefix sets the custom property prefix used for token references.
func WithPrefix(prefix string) Option {
	return func(d *Default) { d.prefix = prefix }
}

// WithDescriptors registers additional descriptors, replacing built-ins with
// the same property name.
func WithDescriptors(descs ...Descriptor) Option {
	return func(d *Default) {
		for i := range descs {
			d.Register(descs[i])
		}
	}
}

// New builds the default dictionary.
func New(opts ...Option) *Default {
	d := &Default{
		entries: make(map[string]*Descriptor),
		unit:    "px",
	}

	for name, cat := range propertyCategories {
		d.Register(Descriptor{
			Property:    name,
			IsCSSProp:   true,
			Single:      name == "content",
			Description: fmt.Sprintf("CSS %s property (%s)", name, strings.ToLower(string(cat))),
			Kind:        KindProperty,
			Category:    cat,
		})
	}

	for _, p := range pseudos {
		d.Register(Descriptor{
			Property:    p.selector,
			Aliases:     []string{p.name},
			Description: fmt.Sprintf("%s pseudo selector", p.selector),
			Kind:        KindPseudo,
		})
	}

	d.Register(Descriptor{Property: "at", Description: "media query context", Kind: KindAt})
	d.Register(Descriptor{Property: "container", Description: "container query context", Kind: KindContainer})
	d.Register(Descriptor{Property: "keyframes", Description: "keyframes context", Kind: KindKeyframes})

	for _, opt := range opts {
		opt(d)
	}

	return d
}

// Register adds a descriptor under its property name, its aliases and the
// camelCase form of each.
func (d *Default) Register(desc Descriptor) {
	entry := desc
	keys := append([]string{desc.Property}, desc.Aliases...)
	for _, key := range keys {
		d.entries[key] = &entry
		d.entries[Camel(key)] = &entry
	}
}

// Resolve maps a token to its descriptor. Context names keep precedence over
// CSS properties sharing the same spelling ("container").
func (d *Default) Resolve(token string) Resolution {
	res := Resolution{Name: token, Raw: token}
	if token == "" {
		return res
	}

	if strings.HasPrefix(token, "[") && strings.HasSuffix(token, "]") {
		res.Descriptor = &Descriptor{Property: token, Kind: KindChild, Description: "child selector"}
		return res
	}

	if strings.HasPrefix(token, "--") {
		res.Descriptor = &Descriptor{Property: token, IsCSSProp: true, Kind: KindProperty, Category: CategoryTokens}
		return res
	}

	if name, suffix, ok := strings.Cut(token, "_"); ok && suffix != "" {
		if desc := d.entries[name]; desc != nil && (desc.Kind == KindContainer || desc.Kind == KindKeyframes) {
			res.Descriptor = desc
			res.Name = name
			res.Suffix = suffix
			return res
		}
	}

	desc := d.entries[token]
	if desc == nil {
		desc = d.entries[Dash(token)]
	}
	if desc == nil {
		return res
	}
	res.Descriptor = desc
	if desc.Kind == KindProperty {
		res.Name = desc.Property
	}
	return res
}

// ToValue converts an authored value to CSS text. Lists are space-joined,
// numbers receive the configured unit unless the property is unitless, and
// "$$.token.a.b" references become var(--a-b).
func (d *Default) ToValue(value any, property string) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return d.stringValue(v, property)
	case []string:
		parts := make([]string, 0, len(v))
		for _, s := range v {
			parts = append(parts, d.stringValue(s, property))
		}
		return strings.Join(parts, " ")
	case []any:
		parts := make([]string, 0, len(v))
		for _, s := range v {
			parts = append(parts, d.ToValue(s, property))
		}
		return strings.Join(parts, " ")
	case int:
		return d.stringValue(strconv.Itoa(v), property)
	case int64:
		return d.stringValue(strconv.FormatInt(v, 10), property)
	case float64:
		return d.stringValue(strconv.FormatFloat(v, 'f', -1, 64), property)
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprint(v)
	}
}

func (d *Default) stringValue(s, property string) string {
	if strings.HasPrefix(s, TokenMarker) {
		return TokenVar(d.prefix, strings.Split(strings.TrimPrefix(s, TokenMarker), "."))
	}
	if numericValue.MatchString(s) && d.unit != "" && !IsUnitless(property) {
		return s + d.unit
	}
	return s
}

// Unit returns the configured numeric unit.
func (d *Default) Unit() string {
	return d.unit
}

// Properties returns the sorted CSS property names the dictionary knows.
func (d *Default) Properties() []string {
	seen := make(map[string]bool)
	var names []string
	for _, desc := range d.entries {
		if desc.Kind != KindProperty || seen[desc.Property] {
			continue
		}
		seen[desc.Property] = true
		names = append(names, desc.Property)
	}
	sort.Strings(names)
	return names
}

// IsUnitless reports whether numeric values of property stay unitless.
func IsUnitless(property string) bool {
	return strings.HasPrefix(property, "--") || unitless[property]
}

// TokenVar renders a token path as a custom property reference.
func TokenVar(prefix string, path []string) string {
	return "var(" + TokenName(prefix, path) + ")"
}

// TokenName renders a token path as a custom property name.
func TokenName(prefix string, path []string) string {
	parts := make([]string, 0, len(path)+1)
	if prefix != "" {
		parts = append(parts, prefix)
	}
	for _, p := range path {
		if p != "" {
			parts = append(parts, Dash(p))
		}
	}
	return "--" + strings.Join(parts, "-")
}

// Dash converts camelCase to dash-case. Vendor prefixes (WebkitX, msX) gain a
// leading dash.
func Dash(s string) string {
	if s == "" || strings.HasPrefix(s, "--") {
		return s
	}
	var b strings.Builder
	b.Grow(len(s) + 4)
	if strings.HasPrefix(s, "ms") && len(s) > 2 && isUpper(s[2]) {
		b.WriteByte('-')
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isUpper(c) {
			if i > 0 || strings.HasPrefix(s, "Webkit") || strings.HasPrefix(s, "Moz") {
				b.WriteByte('-')
			}
			b.WriteByte(c + ('a' - 'A'))
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}

// Camel converts dash-case to camelCase.
func Camel(s string) string {
	if !strings.Contains(s, "-") || strings.HasPrefix(s, "--") {
		return s
	}
	s = strings.TrimPrefix(s, "-")
	var b strings.Builder
	upper := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '-' {
			upper = true
			continue
		}
		if upper && c >= 'a' && c <= 'z' {
			c -= 'a' - 'A'
		}
		upper = false
		b.WriteByte(c)
	}
	return b.String()
}

func isUpper(c byte) bool {
	return c >= 'A' && c <= 'Z'
}
