package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yacobolo/bosscss/internal/dictionary"
)

func TestTableLookup(t *testing.T) {
	table := NewTable(DefaultBreakpoints())

	tests := []struct {
		key  string
		want Bounds
		ok   bool
	}{
		{"mobile", Bounds{Min: 375, Max: 639}, true},
		{"mobile+", Bounds{Min: 375}, true},
		{"mobile-", Bounds{Max: 639}, true},
		{"micro", Bounds{Max: 374}, true},
		{"large", Bounds{Min: 1920}, true},
		{"200-400", Bounds{Min: 200, Max: 400}, true},
		{"200+", Bounds{Min: 200}, true},
		{"-400", Bounds{Max: 400}, true},
		{"huge", Bounds{}, false},
		{"-", Bounds{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			got, ok := table.Lookup(tt.key)
			require.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}

	assert.Equal(t, []string{"micro", "mobile", "tablet", "small", "medium", "large"}, table.Names())
}

func TestResolve(t *testing.T) {
	r := NewResolver(dictionary.New(), nil)

	tests := []struct {
		name      string
		path      []string
		query     string
		pseudos   []string
		children  []string
		container bool
	}{
		{name: "empty", path: nil},
		{name: "pseudo", path: []string{"hover"}, pseudos: []string{":hover"}},
		{name: "breakpoint and up", path: []string{"at", "mobile+"}, query: "@media screen and (min-width: 375px)"},
		{name: "breakpoint range", path: []string{"at", "tablet"}, query: "@media screen and (min-width: 640px) and (max-width: 1023px)"},
		{name: "breakpoint and down", path: []string{"at", "tablet-"}, query: "@media screen and (max-width: 1023px)"},
		{name: "literal range", path: []string{"at", "200-400"}, query: "@media screen and (min-width: 200px) and (max-width: 400px)"},
		{name: "dark", path: []string{"at", "dark"}, query: "@media (prefers-color-scheme: dark)"},
		{name: "print", path: []string{"at", "print"}, query: "@media print"},
		{name: "dark and width", path: []string{"at", "dark", "at", "mobile+"}, query: "@media screen and (min-width: 375px) and (prefers-color-scheme: dark)"},
		{name: "rightmost width wins", path: []string{"at", "mobile+", "at", "tablet+"}, query: "@media screen and (min-width: 640px)"},
		{name: "query and pseudo", path: []string{"at", "mobile+", "hover"}, query: "@media screen and (min-width: 375px)", pseudos: []string{":hover"}},
		{name: "container", path: []string{"container", "400+"}, query: "@container (min-width: 400px)", container: true},
		{name: "named container", path: []string{"container_sidebar", "200-400"}, query: "@container sidebar (min-width: 200px) and (max-width: 400px)", container: true},
		{name: "child marker", path: []string{"[&_span]", "hover"}, pseudos: []string{":hover"}, children: []string{"[&_span]"}},
		{name: "keyframes step skipped", path: []string{"keyframes_fade", "from"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, err := r.Resolve(tt.path)
			require.NoError(t, err)
			assert.Equal(t, tt.query, ctx.Query)
			assert.Equal(t, tt.pseudos, ctx.Pseudos)
			assert.Equal(t, tt.children, ctx.Children)
			assert.Equal(t, tt.container, ctx.Container)
		})
	}
}

func TestResolveErrors(t *testing.T) {
	r := NewResolver(dictionary.New(), nil)

	_, err := r.Resolve([]string{"at", "nowhere"})
	require.ErrorIs(t, err, ErrUnknownKey)

	_, err = r.Resolve([]string{"at"})
	require.ErrorIs(t, err, ErrUnknownKey)

	_, err = r.Resolve([]string{"bogus"})
	require.ErrorIs(t, err, ErrUnknownContext)

	_, err = r.Resolve([]string{"color"})
	require.ErrorIs(t, err, ErrUnknownContext)
}

func TestKeyframes(t *testing.T) {
	assert.Equal(t, "fade", KeyframesName("fade", "", []string{"keyframes_fade"}))

	anon := KeyframesName("", "", []string{"keyframes", "hover"})
	assert.Regexp(t, `^kf-[0-9a-z]+$`, anon)
	assert.Equal(t, anon, KeyframesName("", "", []string{"keyframes", "hover"}))
	assert.NotEqual(t, anon, KeyframesName("", "ui", []string{"keyframes", "hover"}))

	assert.True(t, IsStep("from"))
	assert.True(t, IsStep("50%"))
	assert.True(t, IsStep("50"))
	assert.False(t, IsStep("opacity"))

	got := RenderKeyframes("fade", []Step{
		{Key: "from", Declarations: []string{"opacity: 0"}},
		{Key: "50", Declarations: []string{"opacity: 0.5", "transform: scale(1.1)"}},
		{Key: "to", Declarations: []string{"opacity: 1"}},
	})
	assert.Equal(t, "@keyframes fade { from { opacity: 0 } 50% { opacity: 0.5; transform: scale(1.1) } to { opacity: 1 } }", got)
}

func TestParseBounds(t *testing.T) {
	b, err := ParseBounds([]any{375, 639})
	require.NoError(t, err)
	assert.Equal(t, Bounds{Min: 375, Max: 639}, b)

	b, err = ParseBounds([]any{float64(1920), nil})
	require.NoError(t, err)
	assert.Equal(t, Bounds{Min: 1920}, b)

	_, err = ParseBounds([]any{1})
	require.Error(t, err)

	_, err = ParseBounds("wide")
	require.Error(t, err)
}
