package tokens

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yacobolo/bosscss/internal/css"
)

const tomlTokens = `
[color]
white = "#fff"
black = "#000"

[space]
md = "16px"
scale = 1.5
`

const yamlTokens = `
color:
  white: "#fff"
  black: "#000"
space:
  md: 16px
  scale: 1.5
`

func TestParse(t *testing.T) {
	want := []Token{
		{Path: []string{"color", "black"}, Value: "#000"},
		{Path: []string{"color", "white"}, Value: "#fff"},
		{Path: []string{"space", "md"}, Value: "16px"},
		{Path: []string{"space", "scale"}, Value: "1.5"},
	}

	tests := []struct {
		format string
		data   string
	}{
		{"toml", tomlTokens},
		{"yaml", yamlTokens},
		{"yml", yamlTokens},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			set, err := Parse([]byte(tt.data), tt.format)
			require.NoError(t, err)
			assert.Equal(t, want, set.Tokens())
			assert.True(t, set.Known([]string{"color", "white"}))
			assert.False(t, set.Known([]string{"color", "red"}))
		})
	}
}

func TestParseErrors(t *testing.T) {
	_, err := Parse([]byte("{}"), "json")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = Parse([]byte("[color\nwhite ="), "toml")
	assert.Error(t, err)

	_, err = Parse([]byte("color:\n  list: [1, 2]\n"), "yaml")
	assert.ErrorContains(t, err, "color.list")
}

func TestLoadAndApply(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tokens.toml")
	require.NoError(t, os.WriteFile(path, []byte(tomlTokens), 0o644))

	set, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 4, set.Len())

	engine := css.New(nil)
	set.Apply(engine, "", path)
	assert.Equal(t, ":root { --color-black: #000; --color-white: #fff; --space-md: 16px; --space-scale: 1.5 }", engine.Text())

	prefixed := css.New(nil)
	set.Apply(prefixed, "ui", path)
	assert.Contains(t, prefixed.Text(), "--ui-color-white: #fff")
}

func TestNilSet(t *testing.T) {
	var set *Set
	assert.True(t, set.Known([]string{"anything"}))
	assert.Zero(t, set.Len())
	assert.Nil(t, set.Tokens())
}
