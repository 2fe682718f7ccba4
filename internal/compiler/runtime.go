package compiler

import (
	"sort"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/yacobolo/bosscss/internal/proptree"
)

// finish renders the edited source, then prunes runtime imports nothing
// references anymore and injects the helpers the rewrite introduced.
func (r *run) finish() (Result, error) {
	code := r.p.String()
	res := Result{
		NeedsValueHelper: r.helpers[helperValue],
		ReplacedElements: r.replaced,
		Warnings:         r.warnings,
	}

	prune := r.c.opts.PruneRuntime && strings.Contains(code, r.c.opts.RuntimeModule)
	if !strings.Contains(code, r.c.opts.Marker) && !prune && len(r.helpers) == 0 {
		res.Code = code
		return res, nil
	}

	tree, err := proptree.Parse(r.ctx, []byte(code), r.path)
	if err != nil {
		return Result{}, err
	}
	defer tree.Close()

	out := []byte(code)
	f := &finisher{src: out, marker: r.c.opts.Marker, module: r.c.opts.RuntimeModule}
	f.visit(tree.RootNode(), false)
	res.NeedsRuntime = f.markers > 0

	p := newPrinter(out)
	if r.c.opts.PruneRuntime && !res.NeedsRuntime {
		for _, imp := range f.imports {
			end := imp.EndByte()
			if int(end) < len(out) && out[end] == '\n' {
				end++
			}
			p.replace(imp.StartByte(), end, "")
		}
	}
	if len(r.helpers) > 0 {
		names := make([]string, 0, len(r.helpers))
		for name := range r.helpers {
			names = append(names, name)
		}
		sort.Strings(names)
		line := "import { " + strings.Join(names, ", ") + " } from " + proptree.Quote(r.c.opts.RuntimeModule+"/runtime") + ";\n"
		p.insert(directivesEnd(tree.RootNode(), out), line)
	}

	res.Code = p.String()
	return res, nil
}

type finisher struct {
	src     []byte
	marker  string
	module  string
	markers int
	imports []*sitter.Node
}

// visit counts marker references outside import statements and collects
// the imports of the runtime module.
func (f *finisher) visit(n *sitter.Node, inImport bool) {
	switch n.Type() {
	case "import_statement":
		if source := n.ChildByFieldName("source"); source != nil && proptree.Unquote(proptree.Text(source, f.src)) == f.module {
			f.imports = append(f.imports, n)
		}
		inImport = true
	case "identifier", "jsx_identifier":
		if !inImport && proptree.Text(n, f.src) == f.marker {
			f.markers++
		}
	}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		f.visit(n.NamedChild(i), inImport)
	}
}

// directivesEnd is the offset after leading "use ..." directives.
func directivesEnd(root *sitter.Node, src []byte) uint32 {
	var end uint32
	for i := 0; i < int(root.NamedChildCount()); i++ {
		stmt := root.NamedChild(i)
		if stmt.Type() == "comment" {
			continue
		}
		if stmt.Type() != "expression_statement" {
			break
		}
		expr := proptree.FirstNamed(stmt)
		if expr == nil || expr.Type() != "string" {
			break
		}
		end = stmt.EndByte()
		if int(end) < len(src) && src[end] == '\n' {
			end++
		}
	}
	return end
}
