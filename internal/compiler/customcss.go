package compiler

import (
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/yacobolo/bosscss/internal/css"
	"github.com/yacobolo/bosscss/internal/dictionary"
	"github.com/yacobolo/bosscss/internal/proptree"
)

// customCSS moves a $$.css`...` or $$.css({...}) call into the engine's
// custom blocks. The call becomes `void 0`, or disappears when it is a
// statement of its own. Malformed arguments are warnings; the call is
// neutralized either way.
func (r *run) customCSS(call *sitter.Node) {
	text, ok := r.customText(call)
	if ok {
		if err := css.Validate(text); err != nil {
			r.warn(int(call.StartByte()), "%s.css: %v", r.c.opts.Marker, err)
		} else {
			r.blocks = append(r.blocks, css.CustomBlock{
				Start: int(call.StartByte()),
				End:   int(call.EndByte()),
				Text:  text,
			})
		}
	}

	if parent := call.Parent(); parent != nil && parent.Type() == "expression_statement" {
		r.p.replace(parent.StartByte(), parent.EndByte(), "")
		return
	}
	r.p.replace(call.StartByte(), call.EndByte(), "void 0")
}

func (r *run) customText(call *sitter.Node) (string, bool) {
	marker := r.c.opts.Marker
	args := call.ChildByFieldName("arguments")
	if args == nil {
		r.warn(int(call.StartByte()), "%s.css expects a template literal or an object", marker)
		return "", false
	}

	if args.Type() == "template_string" {
		if hasSubstitution(args) {
			r.warn(int(args.StartByte()), "%s.css template literals must not contain interpolations", marker)
			return "", false
		}
		return proptree.Unquote(proptree.Text(args, r.src)), true
	}

	if args.NamedChildCount() != 1 {
		r.warn(int(args.StartByte()), "%s.css expects exactly one argument", marker)
		return "", false
	}
	arg := proptree.Unwrap(args.NamedChild(0))
	switch arg.Type() {
	case "string":
		return proptree.Unquote(proptree.Text(arg, r.src)), true
	case "template_string":
		if hasSubstitution(arg) {
			r.warn(int(arg.StartByte()), "%s.css template literals must not contain interpolations", marker)
			return "", false
		}
		return proptree.Unquote(proptree.Text(arg, r.src)), true
	case "object":
		tree := r.c.extractor.Object(arg, r.src)
		if !tree.IsStatic() {
			r.warn(int(arg.StartByte()), "%s.css objects must be static", marker)
			return "", false
		}
		text, err := cssFromTree(tree, r.c.dict)
		if err != nil {
			r.warn(int(arg.StartByte()), "%s.css: %v", marker, err)
			return "", false
		}
		return text, true
	default:
		r.warn(int(arg.StartByte()), "%s.css expects a string or an object, got %s", marker, arg.Type())
		return "", false
	}
}

// cssFromTree renders {selector: {property: value}} objects. Keys starting
// with "@" wrap their nested rules; nested selectors are joined with "&" or
// a descendant space.
func cssFromTree(t *proptree.Tree, dict dictionary.Dictionary) (string, error) {
	var rules []string
	var err error
	t.Each(func(key string, p *proptree.Prop) {
		if err != nil {
			return
		}
		sub, ok := p.Tree()
		if !ok {
			err = fmt.Errorf("top-level key %q must hold an object", key)
			return
		}
		var out []string
		if strings.HasPrefix(key, "@") {
			inner, ierr := cssFromTree(sub, dict)
			if ierr != nil {
				err = ierr
				return
			}
			out = []string{key + " { " + inner + " }"}
		} else {
			out, err = block(key, sub, dict)
		}
		rules = append(rules, out...)
	})
	if err != nil {
		return "", err
	}
	return strings.Join(rules, "\n"), nil
}

func block(sel string, t *proptree.Tree, dict dictionary.Dictionary) ([]string, error) {
	var (
		decls  []string
		nested []string
		err    error
	)
	t.Each(func(key string, p *proptree.Prop) {
		if err != nil {
			return
		}
		if sub, ok := p.Tree(); ok {
			var rules []string
			switch {
			case strings.HasPrefix(key, "@"):
				var inner []string
				inner, err = block(sel, sub, dict)
				rules = []string{key + " { " + strings.Join(inner, " ") + " }"}
			case strings.Contains(key, "&"):
				rules, err = block(strings.ReplaceAll(key, "&", sel), sub, dict)
			default:
				rules, err = block(sel+" "+key, sub, dict)
			}
			nested = append(nested, rules...)
			return
		}
		property := dictionary.Dash(key)
		var value any
		if list, ok := p.List(); ok {
			parts := make([]string, 0, len(list))
			for _, item := range list {
				s, _ := item.String()
				parts = append(parts, s)
			}
			value = parts
		} else {
			value, _ = p.String()
		}
		decls = append(decls, css.Declaration(property, dict.ToValue(value, property), false))
	})
	if err != nil {
		return nil, err
	}

	var out []string
	if len(decls) > 0 {
		out = append(out, sel+" { "+strings.Join(decls, "; ")+" }")
	}
	return append(out, nested...), nil
}
