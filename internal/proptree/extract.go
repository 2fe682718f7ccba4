package proptree

import (
	"context"
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"go.uber.org/zap"

	"github.com/yacobolo/bosscss/internal/dictionary"
)

// reserved attribute names never become style props
var reserved = map[string]bool{
	"as":        true,
	"children":  true,
	"class":     true,
	"className": true,
	"key":       true,
	"ref":       true,
	"style":     true,
}

// Attribute is a JSX attribute that is passed through to the output element.
type Attribute struct {
	Name   string
	Text   string // full attribute source, e.g. `onClick={go}` or `{...rest}`
	Value  *Prop  // extracted value, nil for spreads and bare attributes
	Spread bool
	Node   *sitter.Node // valid while the parse tree is open
}

// Element is the split of a JSX element's attributes.
type Element struct {
	Props       *Tree
	Passthrough []Attribute
	Reserved    map[string]Attribute // className, class, style, as, ...
}

// Extractor builds prop trees from tree-sitter nodes.
type Extractor struct {
	dict   dictionary.Dictionary
	marker string
	log    *zap.Logger
}

// NewExtractor creates an extractor resolving keys against dict. marker is
// the JSX/runtime marker identifier (default "$$").
func NewExtractor(dict dictionary.Dictionary, marker string, log *zap.Logger) *Extractor {
	if log == nil {
		log = zap.NewNop()
	}
	if marker == "" {
		marker = "$$"
	}
	return &Extractor{dict: dict, marker: marker, log: log.Named("proptree")}
}

// Marker returns the marker identifier.
func (x *Extractor) Marker() string {
	return x.marker
}

// IsStyleKey reports whether an attribute or object key is a style prop.
func (x *Extractor) IsStyleKey(key string) bool {
	if reserved[key] {
		return false
	}
	return x.dict.Resolve(key).Known()
}

// Attributes splits the attributes of a jsx_opening_element or
// jsx_self_closing_element.
func (x *Extractor) Attributes(el *sitter.Node, src []byte) Element {
	out := Element{Props: New(), Reserved: make(map[string]Attribute)}

	for i := 0; i < int(el.NamedChildCount()); i++ {
		attr := el.NamedChild(i)
		switch attr.Type() {
		case "jsx_attribute":
			nameNode := attr.NamedChild(0)
			name := Text(nameNode, src)
			var valueNode *sitter.Node
			if attr.NamedChildCount() > 1 {
				valueNode = attr.NamedChild(1)
			}

			a := Attribute{Name: name, Text: Text(attr, src), Node: attr}
			if valueNode != nil {
				a.Value = x.Value(valueNode, src)
			}

			switch {
			case reserved[name]:
				out.Reserved[name] = a
			case x.IsStyleKey(name) && a.Value != nil:
				out.Props.Set(name, a.Value)
			default:
				out.Passthrough = append(out.Passthrough, a)
			}

		case "jsx_expression":
			// {...rest}
			if inner := FirstNamed(attr); inner != nil && inner.Type() == "spread_element" {
				out.Props.Spread = true
				out.Passthrough = append(out.Passthrough, Attribute{Text: Text(attr, src), Spread: true, Node: attr})
			}
		}
	}

	x.log.Debug("attributes extracted",
		zap.Int("props", out.Props.Len()),
		zap.Int("passthrough", len(out.Passthrough)),
		zap.Bool("spread", out.Props.Spread))
	return out
}

// Value extracts the value of an attribute or object entry. It returns nil
// for null/undefined and empty expression containers.
func (x *Extractor) Value(n *sitter.Node, src []byte) *Prop {
	outer := n
	n = Unwrap(n)
	if n == nil {
		return nil
	}

	p := x.value(n, src)
	// expression containers keep the span of the expression they wrap
	if p != nil && p.End == 0 {
		p.Start, p.End = outer.StartByte(), outer.EndByte()
	}
	return p
}

func (x *Extractor) value(n *sitter.Node, src []byte) *Prop {
	switch n.Type() {
	case "jsx_expression":
		inner := FirstNamed(n)
		if inner == nil || inner.Type() == "comment" {
			return nil
		}
		return x.Value(inner, src)

	case "string":
		return Static(Unquote(Text(n, src)))

	case "template_string":
		for i := 0; i < int(n.NamedChildCount()); i++ {
			if n.NamedChild(i).Type() == "template_substitution" {
				return DynamicCode(Text(n, src))
			}
		}
		return Static(Unquote(Text(n, src)))

	case "number", "true", "false":
		return Static(Text(n, src))

	case "null", "undefined":
		return nil

	case "identifier":
		if Text(n, src) == "undefined" {
			return nil
		}
		return DynamicCode(Text(n, src))

	case "unary_expression":
		arg := Unwrap(n.ChildByFieldName("argument"))
		if arg != nil && arg.Type() == "number" {
			return Static(Text(n, src))
		}
		return DynamicCode(Text(n, src))

	case "member_expression":
		text := Text(n, src)
		if path, ok := TokenPath(text, x.marker); ok {
			return Static(dictionary.TokenMarker + strings.Join(path, "."))
		}
		return DynamicCode(text)

	case "object":
		return Nested(x.Object(n, src))

	case "array":
		var list []*Prop
		for i := 0; i < int(n.NamedChildCount()); i++ {
			item := n.NamedChild(i)
			if item.Type() == "comment" {
				continue
			}
			if p := x.Value(item, src); p != nil {
				list = append(list, p)
			}
		}
		return &Prop{Value: list}

	case "arrow_function", "function_expression", "function":
		return &Prop{Dynamic: true, IsFn: true, Code: Text(n, src)}

	case "call_expression":
		if arg := x.MarkerCallArgument(n, src); arg != nil {
			return x.Value(arg, src)
		}
		return DynamicCode(Text(n, src))

	default:
		return DynamicCode(Text(n, src))
	}
}

// Object extracts an object literal into a tree. Spreads and computed keys
// mark the tree as Spread.
func (x *Extractor) Object(n *sitter.Node, src []byte) *Tree {
	t := New()
	for i := 0; i < int(n.NamedChildCount()); i++ {
		entry := n.NamedChild(i)
		switch entry.Type() {
		case "pair":
			keyNode := entry.ChildByFieldName("key")
			key, ok := objectKey(keyNode, src)
			if !ok {
				t.Spread = true
				continue
			}
			if p := x.Value(entry.ChildByFieldName("value"), src); p != nil {
				t.Set(key, p)
			}
		case "shorthand_property_identifier":
			name := Text(entry, src)
			p := DynamicCode(name)
			p.Start, p.End = entry.StartByte(), entry.EndByte()
			t.Set(name, p)
		case "spread_element", "method_definition":
			t.Spread = true
		}
	}
	return t
}

func objectKey(n *sitter.Node, src []byte) (string, bool) {
	if n == nil {
		return "", false
	}
	switch n.Type() {
	case "property_identifier", "number":
		return Text(n, src), true
	case "string":
		return Unquote(Text(n, src)), true
	default:
		return "", false
	}
}

// MarkerCallArgument returns the single argument of a "<marker>.$(arg)"
// call, or nil when n is not such a call.
func (x *Extractor) MarkerCallArgument(n *sitter.Node, src []byte) *sitter.Node {
	if n == nil || n.Type() != "call_expression" {
		return nil
	}
	if Text(n.ChildByFieldName("function"), src) != x.marker+".$" {
		return nil
	}
	args := n.ChildByFieldName("arguments")
	if args == nil || args.NamedChildCount() != 1 {
		return nil
	}
	return args.NamedChild(0)
}

// ParseAttributes parses JSX attribute text such as `color="red" hover={{color: "blue"}}`.
func (x *Extractor) ParseAttributes(ctx context.Context, attrs string) (*Tree, error) {
	src := []byte("<" + x.marker + " " + attrs + " />")
	tree, err := Parse(ctx, src, "attributes.tsx")
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	el := findFirst(tree.RootNode(), "jsx_self_closing_element")
	if el == nil {
		return nil, fmt.Errorf("parse attributes %q: no element", attrs)
	}
	if tree.RootNode().HasError() {
		return nil, fmt.Errorf("parse attributes %q: syntax error", attrs)
	}
	return x.Attributes(el, src).Props, nil
}

// findFirst returns the first node of type typ in depth-first order.
func findFirst(n *sitter.Node, typ string) *sitter.Node {
	if n == nil {
		return nil
	}
	if n.Type() == typ {
		return n
	}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		if found := findFirst(n.NamedChild(i), typ); found != nil {
			return found
		}
	}
	return nil
}
