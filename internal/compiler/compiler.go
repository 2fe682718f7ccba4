// Package compiler rewrites JS/TS/JSX sources: marker elements become plain
// elements with generated classes and inline styles, token references become
// custom property references, and $$.css blocks move into the stylesheet.
//
// The parse tree is read-only. Every change is an edit on a copy-on-write
// printer, and nested edits are folded into their parent's replacement text.
package compiler

import (
	"context"
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/yacobolo/bosscss/internal/classname"
	"github.com/yacobolo/bosscss/internal/css"
	"github.com/yacobolo/bosscss/internal/dictionary"
	"github.com/yacobolo/bosscss/internal/events"
	"github.com/yacobolo/bosscss/internal/proptree"
	"github.com/yacobolo/bosscss/internal/render"
	"github.com/yacobolo/bosscss/internal/report"
)

// Options toggles the individual rewrites.
type Options struct {
	Marker        string // marker identifier, "$$"
	RuntimeModule string // module the marker is imported from

	UnwrapMarkers   bool // $$.$(x) -> x
	LowerElements   bool // <$$ ...> -> <div ...>
	RewriteTokens   bool // $$.token.a.b -> "var(--a-b)"
	Prepared        bool // $$.Name = $$.$({...}) components
	ExtractCSS      bool // $$.css blocks
	PruneRuntime    bool // drop runtime imports nothing uses
	RemapClassNames bool // shorten className tokens through the mapper
	ParseClassNames bool // write CSS for className tokens found in the text

	// Spread allows lowering elements whose props include a spread.
	Spread bool
}

// DefaultOptions enables every rewrite.
func DefaultOptions() Options {
	return Options{
		Marker:          "$$",
		RuntimeModule:   "boss-css",
		UnwrapMarkers:   true,
		LowerElements:   true,
		RewriteTokens:   true,
		Prepared:        true,
		ExtractCSS:      true,
		PruneRuntime:    true,
		RemapClassNames: true,
		ParseClassNames: true,
	}
}

// Result is one compiled source.
type Result struct {
	Code             string           `json:"code"`
	NeedsRuntime     bool             `json:"needsRuntime"`
	NeedsValueHelper bool             `json:"needsValueHelper"`
	ReplacedElements int              `json:"replacedElements"`
	Warnings         []report.Warning `json:"warnings,omitempty"`
}

// Deps are the session collaborators a compiler works with.
type Deps struct {
	Dict      dictionary.Dictionary
	Renderer  *render.Renderer
	Parser    *classname.Parser
	Extractor *proptree.Extractor
	Prepared  *Registry
	Bus       *events.Bus
}

// Compiler compiles sources into one renderer's engine. It is not safe for
// concurrent use.
type Compiler struct {
	dict      dictionary.Dictionary
	renderer  *render.Renderer
	parser    *classname.Parser
	extractor *proptree.Extractor
	prepared  *Registry
	bus       *events.Bus
	opts      Options
	log       *zap.Logger
}

// New creates a compiler. A nil Prepared registry gets a private one.
func New(deps Deps, opts Options, log *zap.Logger) *Compiler {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.Marker == "" {
		opts.Marker = "$$"
	}
	if deps.Prepared == nil {
		deps.Prepared = NewRegistry()
	}
	return &Compiler{
		dict:      deps.Dict,
		renderer:  deps.Renderer,
		parser:    deps.Parser,
		extractor: deps.Extractor,
		prepared:  deps.Prepared,
		bus:       deps.Bus,
		opts:      opts,
		log:       log.Named("compiler"),
	}
}

// Options returns the compiler options.
func (c *Compiler) Options() Options {
	return c.opts
}

// scope is the context bag threaded through the walk. It is passed by value
// so a flag set for one branch never leaks into its siblings.
type scope struct {
	inJSXChild        bool
	inBossPropValue   bool
	keepMarker        bool
	inModuleSpecifier bool
}

// run is the state of one Compile call.
type run struct {
	c        *Compiler
	ctx      context.Context
	src      []byte
	path     string
	p        *printer
	warnings []report.Warning
	replaced int
	helpers  map[string]bool
	blocks   []css.CustomBlock
	err      error
}

// Scan records the prepared components defined and used in src without
// compiling it. Drivers scan every file before compiling any of them.
func (c *Compiler) Scan(ctx context.Context, src []byte, path string) error {
	tree, err := proptree.Parse(ctx, src, path)
	if err != nil {
		return err
	}
	defer tree.Close()

	r := c.newRun(ctx, src, path)
	r.scan(tree.RootNode())
	return nil
}

// Compile rewrites src. Engine misuse and plugin errors abort the file and
// are returned; content problems are warnings.
func (c *Compiler) Compile(ctx context.Context, src []byte, path string) (Result, error) {
	tree, err := proptree.Parse(ctx, src, path)
	if err != nil {
		return Result{}, err
	}
	defer tree.Close()

	r := c.newRun(ctx, src, path)
	root := tree.RootNode()
	if root.HasError() {
		r.warn(int(root.StartByte()), "syntax errors in source, output may be incomplete")
	}

	if c.opts.ParseClassNames {
		out, err := c.renderer.RenderClassNames(ctx, c.parser, string(src), path)
		r.err = multierr.Append(r.err, err)
		r.warnings = append(r.warnings, out.Warnings...)
	}
	if c.opts.Prepared {
		r.scan(root)
	}

	r.walk(root, scope{})
	if r.err != nil {
		return Result{}, fmt.Errorf("compile %s: %w", path, r.err)
	}

	if c.opts.ExtractCSS {
		c.renderer.Engine().SetCustomBlocks(path, r.blocks)
	}
	c.renderer.Flush(path)

	res, err := r.finish()
	if err != nil {
		return Result{}, err
	}
	c.log.Debug("compiled",
		zap.String("path", path),
		zap.Int("replaced", res.ReplacedElements),
		zap.Bool("runtime", res.NeedsRuntime),
		zap.Int("warnings", len(res.Warnings)))
	return res, nil
}

func (c *Compiler) newRun(ctx context.Context, src []byte, path string) *run {
	return &run{
		c:       c,
		ctx:     ctx,
		src:     src,
		path:    path,
		p:       newPrinter(src),
		helpers: make(map[string]bool),
	}
}

func (r *run) warn(offset int, format string, args ...any) {
	w := report.New(report.OriginCompiler, r.path, format, args...).At(r.src, offset)
	r.warnings = append(r.warnings, w)
	r.c.log.Warn("compile warning", zap.String("warning", w.String()))
}

func (r *run) text(n *sitter.Node) string {
	return r.p.text(n.StartByte(), n.EndByte())
}

// scan registers prepared definitions and the use sites of prepared names.
func (r *run) scan(n *sitter.Node) {
	switch n.Type() {
	case "expression_statement":
		if d, ok := r.definition(n); ok {
			r.c.prepared.Define(d)
			return
		}
	case "jsx_self_closing_element", "jsx_opening_element":
		if name, ok := r.preparedName(proptree.Text(n.ChildByFieldName("name"), r.src)); ok {
			r.c.prepared.Use(name, r.path, hasSpread(n))
		}
	}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		r.scan(n.NamedChild(i))
	}
}

func hasSpread(el *sitter.Node) bool {
	for i := 0; i < int(el.NamedChildCount()); i++ {
		attr := el.NamedChild(i)
		if attr.Type() == "jsx_expression" {
			if inner := proptree.FirstNamed(attr); inner != nil && inner.Type() == "spread_element" {
				return true
			}
		}
	}
	return false
}

func (r *run) walk(n *sitter.Node, sc scope) {
	if n == nil {
		return
	}
	switch n.Type() {
	case "import_statement", "export_statement":
		r.moduleStatement(n, sc)
	case "expression_statement":
		if r.c.opts.Prepared && r.preparedStatement(n, sc) {
			return
		}
		r.children(n, sc)
	case "call_expression":
		r.call(n, sc)
	case "member_expression":
		r.member(n, sc)
	case "string", "template_string":
		r.literal(n, sc)
	case "jsx_element", "jsx_self_closing_element":
		r.element(n, sc)
	case "jsx_expression":
		inner := sc
		inner.inJSXChild = false
		r.children(n, inner)
	default:
		r.children(n, sc)
	}
}

func (r *run) children(n *sitter.Node, sc scope) {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		r.walk(n.NamedChild(i), sc)
	}
}

func (r *run) moduleStatement(n *sitter.Node, sc scope) {
	source := n.ChildByFieldName("source")
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		if source != nil && sameNode(child, source) {
			spec := sc
			spec.inModuleSpecifier = true
			r.walk(child, spec)
			continue
		}
		r.walk(child, sc)
	}
}

func sameNode(a, b *sitter.Node) bool {
	return a.StartByte() == b.StartByte() && a.EndByte() == b.EndByte() && a.Type() == b.Type()
}

// preparedStatement removes an inlined prepared definition or keeps it in
// marker form when some use site still needs it at runtime.
func (r *run) preparedStatement(n *sitter.Node, sc scope) bool {
	d, ok := r.definition(n)
	if !ok {
		return false
	}
	if r.c.prepared.Keep(d.Name, r.c.opts.Spread) {
		keep := sc
		keep.keepMarker = true
		r.children(n, keep)
		return true
	}
	r.p.replace(n.StartByte(), n.EndByte(), "")
	return true
}

func (r *run) call(n *sitter.Node, sc scope) {
	fn := n.ChildByFieldName("function")
	fnText := proptree.Text(fn, r.src)

	switch {
	case fnText == "require" || fnText == "import":
		spec := sc
		spec.inModuleSpecifier = true
		r.walk(n.ChildByFieldName("arguments"), spec)
		return

	case r.c.opts.ExtractCSS && fnText == r.c.opts.Marker+".css" && !sc.keepMarker:
		r.customCSS(n)
		return

	case r.c.opts.UnwrapMarkers && !sc.keepMarker:
		if arg := r.c.extractor.MarkerCallArgument(n, r.src); arg != nil {
			r.unwrap(n, proptree.Unwrap(arg), sc)
			return
		}
	}
	r.children(n, sc)
}

// unwrap replaces $$.$(arg) with arg.
func (r *run) unwrap(call, arg *sitter.Node, sc scope) {
	switch arg.Type() {
	case "object":
		inner := sc
		inner.inBossPropValue = true
		r.walk(arg, inner)
		tree := r.c.extractor.Object(arg, r.src)
		r.trigger(events.PropTreeEvent{Source: r.path, Tree: tree, Input: "marker"})
		r.p.replace(call.StartByte(), call.EndByte(), "("+r.text(arg)+")")

	case "string", "template_string":
		if arg.Type() == "template_string" && hasSubstitution(arg) {
			r.walk(arg, sc)
			r.p.replace(call.StartByte(), call.EndByte(), r.text(arg))
			return
		}
		value := proptree.Unquote(proptree.Text(arg, r.src))
		r.p.replace(call.StartByte(), call.EndByte(), proptree.Quote(r.remap(value)))

	default:
		r.walk(arg, sc)
		r.p.replace(call.StartByte(), call.EndByte(), r.text(arg))
	}
}

func (r *run) member(n *sitter.Node, sc scope) {
	if !r.c.opts.RewriteTokens || sc.keepMarker {
		r.children(n, sc)
		return
	}
	text := proptree.Text(n, r.src)

	if path, ok := proptree.TokenPath(text, r.c.opts.Marker); ok {
		if isReceiver(n) {
			r.tokenReceiver(n, path)
			return
		}
		r.checkToken(n, path)
		r.p.replace(n.StartByte(), n.EndByte(), proptree.Quote(r.tokenVar(path)))
		return
	}
	if text == r.c.opts.Marker+".token" {
		r.tokenReceiver(n, nil)
		return
	}
	r.children(n, sc)
}

// tokenReceiver handles a token chain that continues with a computed key or
// a call. Its $$.token root becomes the runtime token proxy.
func (r *run) tokenReceiver(n *sitter.Node, path []string) {
	top := n
	for isReceiver(top) {
		top = top.Parent()
	}
	if top.Type() == "member_expression" {
		if _, ok := proptree.TokenPath(proptree.Text(top, r.src), r.c.opts.Marker); ok {
			// the outermost member rewrites the whole chain
			return
		}
	}

	root := n
	for root.Type() == "member_expression" && proptree.Text(root, r.src) != r.c.opts.Marker+".token" {
		root = root.ChildByFieldName("object")
	}
	r.helpers[helperTokenVars] = true
	r.p.replace(root.StartByte(), root.EndByte(), helperTokenVars+"("+proptree.Quote(r.c.renderer.Options().Prefix)+")")
	r.c.log.Debug("token proxy", zap.String("path", r.path), zap.Strings("token", path))
}

// isReceiver reports whether n is the object of a member or subscript
// expression or the callee of a call.
func isReceiver(n *sitter.Node) bool {
	parent := n.Parent()
	if parent == nil {
		return false
	}
	switch parent.Type() {
	case "member_expression", "subscript_expression":
		obj := parent.ChildByFieldName("object")
		return obj != nil && sameNode(obj, n)
	case "call_expression":
		fn := parent.ChildByFieldName("function")
		return fn != nil && sameNode(fn, n)
	}
	return false
}

func (r *run) tokenVar(path []string) string {
	return dictionary.TokenVar(r.c.renderer.Options().Prefix, path)
}

func (r *run) checkToken(n *sitter.Node, path []string) {
	known := r.c.renderer.Options().KnownToken
	if known != nil && !known(path) {
		r.warn(int(n.StartByte()), "unknown token %s%s", dictionary.TokenMarker, strings.Join(path, "."))
	}
}

// literal rewrites token strings and remaps className tokens in strings.
func (r *run) literal(n *sitter.Node, sc scope) {
	if n.Type() == "template_string" && hasSubstitution(n) {
		r.children(n, sc)
		return
	}
	if sc.inModuleSpecifier || sc.keepMarker {
		return
	}
	value := proptree.Unquote(proptree.Text(n, r.src))

	if r.c.opts.RewriteTokens {
		if path, ok := proptree.TokenPath(value, r.c.opts.Marker); ok {
			r.checkToken(n, path)
			r.p.replace(n.StartByte(), n.EndByte(), r.quoteLike(n, r.tokenVar(path)))
			return
		}
	}
	if sc.inBossPropValue {
		return
	}
	if rewritten := r.remap(value); rewritten != value {
		r.p.replace(n.StartByte(), n.EndByte(), r.quoteLike(n, rewritten))
	}
}

// remap maps className tokens through the session mapper.
func (r *run) remap(value string) string {
	mapper := r.c.renderer.Options().Mapper
	if !r.c.opts.RemapClassNames || mapper == nil {
		return value
	}
	return r.c.parser.RewriteClassNameTokensWithMap(value, mapper)
}

// quoteLike renders value as a literal of the same kind as n.
func (r *run) quoteLike(n *sitter.Node, value string) string {
	if n.Type() == "template_string" {
		return "`" + strings.ReplaceAll(strings.ReplaceAll(value, `\`, `\\`), "`", "\\`") + "`"
	}
	if parent := n.Parent(); parent != nil && parent.Type() == "jsx_attribute" {
		if strings.ContainsAny(value, `"\`) {
			return "{" + proptree.Quote(value) + "}"
		}
		return `"` + value + `"`
	}
	return proptree.Quote(value)
}

func hasSubstitution(n *sitter.Node) bool {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		if n.NamedChild(i).Type() == "template_substitution" {
			return true
		}
	}
	return false
}

func (r *run) trigger(e events.Event) {
	if err := r.c.bus.Trigger(r.ctx, e, nil); err != nil {
		r.err = multierr.Append(r.err, err)
	}
}
