package css

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeRule(t *testing.T, e *Engine, in SelectorInput, decls ...[2]string) {
	t.Helper()
	require.NoError(t, e.Selector(in))
	for _, d := range decls {
		require.NoError(t, e.Rule(d[0], d[1], RuleOptions{}))
	}
	require.NoError(t, e.Write())
}

func TestEngineWriteRendersRule(t *testing.T) {
	e := New(nil)
	writeRule(t, e, SelectorInput{ClassName: `border\:1_solid`}, [2]string{"border", "1px solid"})

	assert.Equal(t, `.border\:1_solid { border: 1px solid }`, e.Text())
}

func TestEngineAtRuleOrdering(t *testing.T) {
	e := New(nil)

	inserts := []struct {
		class string
		query string
	}{
		{"max-sm", "@media screen and (max-width: 640px)"},
		{"range-lg", "@media screen and (min-width: 900px) and (max-width: 1200px)"},
		{"min-lg", "@media screen and (min-width: 1024px)"},
		{"print", "@media print"},
		{"supports", "@supports (display: grid)"},
		{"range-sm", "@media screen and (min-width: 320px) and (max-width: 639px)"},
		{"max-lg", "@media screen and (max-width: 1024px)"},
		{"min-md", "@media screen and (min-width: 640px)"},
	}
	for _, in := range inserts {
		writeRule(t, e, SelectorInput{ClassName: in.class, Query: in.query}, [2]string{"color", "red"})
	}
	writeRule(t, e, SelectorInput{ClassName: "base"}, [2]string{"color", "blue"})

	classRe := regexp.MustCompile(`\.([a-z-]+) \{`)
	var order []string
	for _, line := range strings.Split(e.Text(), "\n") {
		m := classRe.FindStringSubmatch(line)
		require.NotNil(t, m, line)
		order = append(order, m[1])
	}

	assert.Equal(t, []string{
		"base", "max-lg", "max-sm", "range-sm", "range-lg", "min-md", "min-lg", "print", "supports",
	}, order)
}

func TestEngineOrderingIsStableAcrossRenders(t *testing.T) {
	e := New(nil)
	writeRule(t, e, SelectorInput{ClassName: "b", Query: "@supports (display: grid)"}, [2]string{"display", "grid"})
	writeRule(t, e, SelectorInput{ClassName: "a", Query: "@supports (display: flex)"}, [2]string{"display", "flex"})

	first := e.Text()
	assert.Equal(t, first, e.Text())
	assert.Less(t, strings.Index(first, ".b"), strings.Index(first, ".a"))
}

func TestEngineIdempotentWrite(t *testing.T) {
	e := New(nil)
	e.SetSource("a.tsx")
	for i := 0; i < 2; i++ {
		writeRule(t, e, SelectorInput{ClassName: "x"}, [2]string{"color", "red"})
	}

	assert.Equal(t, 1, e.Len())
	assert.Equal(t, 1, strings.Count(e.Text(), ".x {"))
}

func TestEngineImportant(t *testing.T) {
	e := New(nil)
	require.NoError(t, e.Selector(SelectorInput{ClassName: "x"}))
	require.NoError(t, e.Rule("color", "red", RuleOptions{Important: true}))
	require.NoError(t, e.Write())

	assert.Contains(t, e.Text(), "color: red !important")
}

func TestEngineDeclarationOrderIsAuthored(t *testing.T) {
	e := New(nil)
	writeRule(t, e, SelectorInput{Selector: `[class~="x"]`, Pseudos: []string{":hover"}},
		[2]string{"text-decoration", "underline"}, [2]string{"color", "red"})

	assert.Equal(t, `[class~="x"]:hover { text-decoration: underline; color: red }`, e.Text())
}

func TestEngineBuilderErrors(t *testing.T) {
	e := New(nil)

	err := e.Rule("color", "red", RuleOptions{})
	require.ErrorIs(t, err, ErrNoSelector)

	err = e.Write()
	require.ErrorIs(t, err, ErrNoSelector)

	require.NoError(t, e.Selector(SelectorInput{ClassName: "x", Query: "@media print"}))
	err = e.Selector(SelectorInput{Query: "@media screen"})
	require.ErrorIs(t, err, ErrQueryConflict)

	require.NoError(t, e.Selector(SelectorInput{Query: "@media print", Pseudos: []string{":hover", ":hover"}}))
	require.NoError(t, e.Rule("color", "red", RuleOptions{}))
	require.NoError(t, e.Write())
	assert.Equal(t, "@media print { .x:hover { color: red } }", e.Text())
}

func TestEngineEmptyWriteIsNoop(t *testing.T) {
	e := New(nil)
	require.NoError(t, e.Selector(SelectorInput{ClassName: "x"}))
	require.NoError(t, e.Write())
	assert.Equal(t, 0, e.Len())
	assert.Empty(t, e.Text())
}

func TestEngineRemoveSource(t *testing.T) {
	tests := []struct {
		name    string
		sources []string
		remove  []string
		present bool
	}{
		{name: "shared rule survives partial removal", sources: []string{"a", "b"}, remove: []string{"a"}, present: true},
		{name: "shared rule removed once all sources go", sources: []string{"a", "b"}, remove: []string{"a", "b"}, present: false},
		{name: "single source removed immediately", sources: []string{"a"}, remove: []string{"a"}, present: false},
		{name: "unrelated source keeps rule", sources: []string{"a"}, remove: []string{"c"}, present: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := New(nil)
			for _, src := range tt.sources {
				writeRule(t, e, SelectorInput{ClassName: "r", Source: src}, [2]string{"color", "red"})
			}
			for _, src := range tt.remove {
				e.RemoveSource(src)
			}
			assert.Equal(t, tt.present, e.Has(".r { color: red }"))
		})
	}
}

func TestEngineRemoveSourceCoversRootsImportsAndBlocks(t *testing.T) {
	e := New(nil)
	e.AddRoot("--color-white: #fff", "a")
	e.AddRoot("--color-black: #000", "b")
	e.AddImport("reset.css", "a")
	e.AddCustomBlock("a", CustomBlock{Start: 0, End: 10, Text: ".custom { color: red }"})

	e.RemoveSource("a")

	text := e.Text()
	assert.Equal(t, ":root { --color-black: #000 }", text)
}

func TestEngineRootImportsAndCustomBlocks(t *testing.T) {
	e := New(nil)
	e.SetSource("app.tsx")
	writeRule(t, e, SelectorInput{ClassName: "x"}, [2]string{"color", "red"})
	e.AddRoot("--color-white: #fff", "")
	e.AddImport("https://example.com/font.css", "")
	e.AddImport(`url("reset.css")`, "")
	e.AddCustomBlock("app.tsx", CustomBlock{Start: 5, End: 40, Text: "  body { margin: 0 }  "})

	want := strings.Join([]string{
		`@import url("https://example.com/font.css");`,
		`@import url("reset.css");`,
		`:root { --color-white: #fff }`,
		`.x { color: red }`,
		`body { margin: 0 }`,
	}, "\n")
	assert.Equal(t, want, e.Text())
}

func TestEngineScope(t *testing.T) {
	e := New(nil, WithScope(".theme"))
	e.AddRoot("--a: 1", "x")
	assert.Equal(t, ".theme { --a: 1 }", e.Text())
}

func TestEngineSetCustomBlocksReplacesFileBlocks(t *testing.T) {
	e := New(nil)
	e.SetCustomBlocks("a.tsx", []CustomBlock{{Start: 0, End: 5, Text: ".one{}"}, {Start: 6, End: 9, Text: ".two{}"}})
	e.SetCustomBlocks("b.tsx", []CustomBlock{{Start: 0, End: 5, Text: ".other{}"}})
	e.SetCustomBlocks("a.tsx", []CustomBlock{{Start: 0, End: 7, Text: ".three{}"}})

	st := e.State()
	require.Len(t, st.Customs, 2)
	assert.Equal(t, "b.tsx:0-5", st.Customs[0].Key)
	assert.Equal(t, "a.tsx:0-7", st.Customs[1].Key)
	assert.Equal(t, ".three{}", st.Customs[1].Text)
}

func TestEngineSnapshotRestore(t *testing.T) {
	e := New(nil)
	writeRule(t, e, SelectorInput{ClassName: "keep", Source: "a"}, [2]string{"color", "red"})
	snap := e.Snapshot()

	writeRule(t, e, SelectorInput{ClassName: "drop", Source: "a"}, [2]string{"color", "blue"})
	e.AddRoot("--x: 1", "a")
	require.NoError(t, e.Selector(SelectorInput{ClassName: "open"}))

	e.Restore(snap)
	assert.Equal(t, ".keep { color: red }", e.Text())
	require.ErrorIs(t, e.Rule("color", "red", RuleOptions{}), ErrNoSelector)

	// the snapshot stays usable after mutations following a restore
	writeRule(t, e, SelectorInput{ClassName: "later"}, [2]string{"color", "green"})
	e.Restore(snap)
	assert.Equal(t, ".keep { color: red }", e.Text())
}

func TestEngineMerge(t *testing.T) {
	merged := New(nil)
	writeRule(t, merged, SelectorInput{ClassName: "shared", Source: "a"}, [2]string{"color", "red"})

	other := New(nil)
	writeRule(t, other, SelectorInput{ClassName: "own", Source: "b"}, [2]string{"color", "blue"})
	writeRule(t, other, SelectorInput{ClassName: "shared", Source: "b"}, [2]string{"color", "red"})
	other.AddRoot("--a: 1", "b")
	other.AddCustomBlock("b", CustomBlock{Start: 1, End: 2, Text: ".c{}"})

	merged.Merge(other)

	st := merged.State()
	require.Len(t, st.Rules, 2)
	assert.Equal(t, ".shared { color: red }", st.Rules[0].Text)
	assert.Equal(t, []string{"a", "b"}, st.Rules[0].Sources)
	assert.Equal(t, ".own { color: blue }", st.Rules[1].Text)
	require.Len(t, st.Roots, 1)
	require.Len(t, st.Customs, 1)

	merged.RemoveSource("b")
	assert.Equal(t, ".shared { color: red }", merged.Text())
}

func TestReadMediaBounds(t *testing.T) {
	tests := []struct {
		query string
		want  MediaBounds
	}{
		{"@media screen and (min-width: 640px)", MediaBounds{Media: true, Min: 640, HasMin: true}},
		{"@media (max-width:1023px)", MediaBounds{Media: true, Max: 1023, HasMax: true}},
		{"@media screen and (min-width: 40em) and (max-width: 60em)", MediaBounds{Media: true, Min: 640, Max: 960, HasMin: true, HasMax: true}},
		{"@media (prefers-color-scheme: dark)", MediaBounds{Media: true}},
		{"@container sidebar (min-width: 400px)", MediaBounds{}},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			assert.Equal(t, tt.want, ReadMediaBounds(tt.query))
		})
	}
}

func TestNormalize(t *testing.T) {
	a := Normalize(".a{color:red}")
	b := Normalize(".a { color: red; }")
	c := Normalize("/* note */ .a {\n  color:   red;\n}")

	assert.Equal(t, ".a{color:red}", a)
	assert.Equal(t, a, b)
	assert.Equal(t, a, c)
	assert.NotEqual(t, a, Normalize(".a{color:blue}"))
	assert.Equal(t, "@media screen and(min-width:640px){.a{color:red}}",
		Normalize("@media screen and (min-width: 640px) { .a { color: red } }"))
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Validate("body { margin: 0 }"))
	assert.NoError(t, Validate("@media print { .a { color: red } }"))
}
