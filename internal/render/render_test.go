package render

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yacobolo/bosscss/internal/classname"
	"github.com/yacobolo/bosscss/internal/css"
	"github.com/yacobolo/bosscss/internal/dictionary"
	"github.com/yacobolo/bosscss/internal/events"
	"github.com/yacobolo/bosscss/internal/proptree"
	"github.com/yacobolo/bosscss/internal/query"
)

type fixture struct {
	engine   *css.Engine
	renderer *Renderer
	parser   *classname.Parser
	extract  *proptree.Extractor
}

func newFixture(opts Options, bus *events.Bus) fixture {
	dict := dictionary.New()
	engine := css.New(nil)
	return fixture{
		engine:   engine,
		renderer: New(engine, dict, query.NewResolver(dict, nil), bus, opts, nil),
		parser:   classname.NewParser(dict, nil),
		extract:  proptree.NewExtractor(dict, "$$", nil),
	}
}

func (f fixture) classNames(t *testing.T, text string) Output {
	t.Helper()
	out, err := f.renderer.RenderClassNames(context.Background(), f.parser, text, "a.html")
	require.NoError(t, err)
	return out
}

func (f fixture) attributes(t *testing.T, attrs string) Output {
	t.Helper()
	tree, err := f.extract.ParseAttributes(context.Background(), attrs)
	require.NoError(t, err)
	out, err := f.renderer.Render(context.Background(), tree, "a.tsx")
	require.NoError(t, err)
	return out
}

func TestClassNameRules(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		want  string
		class []string
	}{
		{
			name:  "list value with unit",
			text:  `<div className="border:1_solid">`,
			want:  `.border\:1_solid { border: 1px solid }`,
			class: []string{"border:1_solid"},
		},
		{
			name: "grouped declarations keep authored order",
			text: "hover:{text-decoration:underline;color:red}",
			want: `[class~="hover:{text-decoration:underline;color:red}"]:hover { text-decoration: underline }` + "\n" +
				`[class~="hover:{text-decoration:underline;color:red}"]:hover { color: red }`,
			class: []string{"hover:{text-decoration:underline;color:red}"},
		},
		{
			name:  "important breakpoint",
			text:  "at:mobile+:display:block!",
			want:  `@media screen and (min-width: 375px) { .at\:mobile\+\:display\:block\! { display: block !important } }`,
			class: []string{"at:mobile+:display:block!"},
		},
		{
			name:  "child selector",
			text:  "[&_>_li]:color:red",
			want:  `.\[\&_\>_li\]\:color\:red > li { color: red }`,
			class: []string{"[&_>_li]:color:red"},
		},
		{
			name:  "token reference",
			text:  "color:$$.token.color.white",
			want:  `.color\:white { color: var(--color-white) }`,
			class: []string{"color:white"},
		},
		{
			name:  "foreign classes ignored",
			text:  "px-4 md:flex",
			want:  "",
			class: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(Options{}, nil)
			out := f.classNames(t, tt.text)
			assert.Equal(t, tt.want, f.engine.Text())
			assert.Equal(t, tt.class, out.ClassNames)
		})
	}
}

func TestInlineFirst(t *testing.T) {
	f := newFixture(Options{}, nil)
	out := f.attributes(t, `color="red" padding={8} hover={{color: "blue"}}`)

	assert.Equal(t, []StyleEntry{
		{Key: "color", Value: "red"},
		{Key: "padding", Value: "8px"},
	}, out.Style)
	assert.Equal(t, []string{"hover:color:blue"}, out.ClassNames)
	assert.Equal(t, `.hover\:color\:blue:hover { color: blue !important }`, f.engine.Text())
}

func TestInlineFirstTokenValue(t *testing.T) {
	f := newFixture(Options{}, nil)
	out := f.attributes(t, `color={$$.token.color.white}`)

	assert.Equal(t, []StyleEntry{{Key: "color", Value: "var(--color-white)"}}, out.Style)
	assert.Empty(t, f.engine.Text())
}

func TestClassNameFirst(t *testing.T) {
	f := newFixture(Options{Strategy: ClassNameFirst}, nil)
	out := f.attributes(t, `color="red" width={w} at={{"tablet+": {color: "blue"}}}`)

	assert.Equal(t, []string{"color:red", "width", "at:tablet+:color:blue"}, out.ClassNames)
	assert.Equal(t, []StyleEntry{{Key: "--width", Value: "w", Code: true, Helper: true}}, out.Style)
	assert.Equal(t,
		`.color\:red { color: red }`+"\n"+
			`.width { width: var(--width) }`+"\n"+
			`@media screen and (min-width: 640px) { .at\:tablet\+\:color\:blue { color: blue } }`,
		f.engine.Text())
}

func TestDynamicContextValue(t *testing.T) {
	f := newFixture(Options{}, nil)
	out := f.attributes(t, `hover={{opacity: o}}`)

	assert.Equal(t, []StyleEntry{{Key: "--hover-opacity", Value: "o", Code: true}}, out.Style)
	assert.Equal(t, `.hover\:opacity:hover { opacity: var(--hover-opacity) }`, f.engine.Text())
}

func TestKeyframes(t *testing.T) {
	f := newFixture(Options{}, nil)
	out := f.attributes(t, `keyframes_fade={{from: {opacity: 0}, "50": {opacity: 0.5}, to: {opacity: 1}}}`)
	f.renderer.Flush("a.tsx")

	assert.Equal(t, []StyleEntry{{Key: "animationName", Value: "fade"}}, out.Style)
	assert.Equal(t, `@keyframes fade { from { opacity: 0 } 50% { opacity: 0.5 } to { opacity: 1 } }`, f.engine.Text())
}

func TestKeyframesFromClassNames(t *testing.T) {
	f := newFixture(Options{}, nil)
	f.classNames(t, "keyframes_fade:from:opacity:0 keyframes_fade:to:opacity:1")
	f.renderer.Flush("a.html")

	assert.Equal(t,
		`.keyframes_fade\:from\:opacity\:0 { animation-name: fade }`+"\n"+
			`.keyframes_fade\:to\:opacity\:1 { animation-name: fade }`+"\n"+
			`@keyframes fade { from { opacity: 0 } to { opacity: 1 } }`,
		f.engine.Text())
}

func TestAnonymousKeyframesInContext(t *testing.T) {
	f := newFixture(Options{}, nil)
	out := f.attributes(t, `hover={{keyframes: {to: {opacity: 1}}}}`)
	f.renderer.Flush("a.tsx")

	name := query.KeyframesName("", "", []string{"hover", "keyframes"})
	assert.Equal(t, []string{"hover:keyframes"}, out.ClassNames)
	assert.Contains(t, f.engine.Text(), `.hover\:keyframes:hover { animation-name: `+name+` !important }`)
	assert.Contains(t, f.engine.Text(), "@keyframes "+name+" { to { opacity: 1 } }")
}

func TestMapper(t *testing.T) {
	next := 0
	seen := make(map[string]string)
	mapper := func(tok string) string {
		if v, ok := seen[tok]; ok {
			return v
		}
		v := fmt.Sprintf("b%d", next)
		next++
		seen[tok] = v
		return v
	}

	f := newFixture(Options{Mapper: mapper}, nil)
	out := f.classNames(t, "color:red hover:{color:blue;background:black}")

	assert.Equal(t, []string{"b0", "b1", "b2"}, out.ClassNames)
	assert.Equal(t,
		".b0 { color: red }\n.b1:hover { color: blue }\n.b2:hover { background: black }",
		f.engine.Text())

	// the compiler rewrites the same text to the same names
	rewritten := f.parser.RewriteClassNameTokensWithMap("color:red hover:{color:blue;background:black}", mapper)
	assert.Equal(t, "b0 b1 b2", rewritten)
}

func TestPropEvents(t *testing.T) {
	bus := events.NewBus(nil)
	var props []string
	bus.Subscribe("test", events.OnProp, func(_ context.Context, e events.Event) error {
		ev := e.(events.PropEvent)
		props = append(props, ev.Property+"|"+ev.ClassName)
		return nil
	})
	parses := 0
	bus.Subscribe("test", events.OnParse, func(context.Context, events.Event) error {
		parses++
		return nil
	})

	f := newFixture(Options{}, bus)
	f.classNames(t, "color:red at:dark:color:white")

	assert.Equal(t, []string{"color|color:red", "color|at:dark:color:white"}, props)
	assert.Equal(t, 1, parses)
}

func TestWarnings(t *testing.T) {
	f := newFixture(Options{}, nil)

	tree := proptree.New()
	tree.Child("at").Child("huge").Set("color", proptree.Static("red"))
	tree.Set("hover", proptree.Static("red"))

	out, err := f.renderer.Render(context.Background(), tree, "a.tsx")
	require.NoError(t, err)
	assert.Len(t, out.Warnings, 2)
	assert.Empty(t, f.engine.Text())
}

func TestKnownToken(t *testing.T) {
	f := newFixture(Options{KnownToken: func(path []string) bool {
		return len(path) == 2 && path[0] == "color"
	}}, nil)

	out := f.attributes(t, `color={$$.token.color.white} background={$$.token.space.lg}`)
	require.Len(t, out.Warnings, 1)
	assert.Contains(t, out.Warnings[0].Message, "$$.token.space.lg")
}

func TestParseStrategy(t *testing.T) {
	s, err := ParseStrategy("")
	require.NoError(t, err)
	assert.Equal(t, InlineFirst, s)

	s, err = ParseStrategy("classname-first")
	require.NoError(t, err)
	assert.Equal(t, ClassNameFirst, s)

	_, err = ParseStrategy("nope")
	assert.ErrorIs(t, err, ErrUnknownStrategy)
}
