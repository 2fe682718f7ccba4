package dictionary

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve(t *testing.T) {
	d := New()

	tests := []struct {
		name     string
		token    string
		known    bool
		kind     Kind
		property string
		suffix   string
	}{
		{name: "css property", token: "color", known: true, kind: KindProperty, property: "color"},
		{name: "camel case property", token: "backgroundColor", known: true, kind: KindProperty, property: "background-color"},
		{name: "pseudo", token: "hover", known: true, kind: KindPseudo, property: ":hover"},
		{name: "pseudo element", token: "before", known: true, kind: KindPseudo, property: "::before"},
		{name: "camel case pseudo", token: "focusVisible", known: true, kind: KindPseudo, property: ":focus-visible"},
		{name: "at context", token: "at", known: true, kind: KindAt, property: "at"},
		{name: "container context wins over property", token: "container", known: true, kind: KindContainer},
		{name: "named container", token: "container_sidebar", known: true, kind: KindContainer, suffix: "sidebar"},
		{name: "named keyframes", token: "keyframes_fade", known: true, kind: KindKeyframes, suffix: "fade"},
		{name: "child marker", token: "[&_>_span]", known: true, kind: KindChild, property: "[&_>_span]"},
		{name: "custom property", token: "--brand", known: true, kind: KindProperty, property: "--brand"},
		{name: "tailwind utility", token: "flex-1", known: false},
		{name: "empty", token: "", known: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := d.Resolve(tt.token)
			require.Equal(t, tt.known, res.Known())
			if !tt.known {
				return
			}
			assert.Equal(t, tt.kind, res.Descriptor.Kind)
			if tt.property != "" {
				assert.Equal(t, tt.property, res.Descriptor.Property)
			}
			assert.Equal(t, tt.suffix, res.Suffix)
		})
	}
}

func TestToValue(t *testing.T) {
	tests := []struct {
		name     string
		opts     []Option
		value    any
		property string
		want     string
	}{
		{name: "numeric string gets unit", value: "1", property: "border", want: "1px"},
		{name: "number gets unit", value: 12.5, property: "width", want: "12.5px"},
		{name: "int gets unit", value: 4, property: "margin", want: "4px"},
		{name: "unitless property", value: "0.5", property: "opacity", want: "0.5"},
		{name: "unitless int", value: 10, property: "z-index", want: "10"},
		{name: "custom unit", opts: []Option{WithUnit("rem")}, value: "2", property: "padding", want: "2rem"},
		{name: "keyword untouched", value: "solid", property: "border-style", want: "solid"},
		{name: "list joined by spaces", value: []string{"1", "solid", "red"}, property: "border", want: "1px solid red"},
		{name: "token reference", value: "$$.token.color.white", property: "color", want: "var(--color-white)"},
		{name: "prefixed token reference", opts: []Option{WithPrefix("ui")}, value: "$$.token.space.lg", property: "gap", want: "var(--ui-space-lg)"},
		{name: "nil", value: nil, property: "color", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := New(tt.opts...)
			assert.Equal(t, tt.want, d.ToValue(tt.value, tt.property))
		})
	}
}

func TestDashAndCamel(t *testing.T) {
	tests := []struct {
		camel string
		dash  string
	}{
		{"backgroundColor", "background-color"},
		{"color", "color"},
		{"WebkitTransform", "-webkit-transform"},
		{"msTransform", "-ms-transform"},
		{"borderTopLeftRadius", "border-top-left-radius"},
	}

	for _, tt := range tests {
		t.Run(tt.camel, func(t *testing.T) {
			assert.Equal(t, tt.dash, Dash(tt.camel))
		})
	}

	assert.Equal(t, "backgroundColor", Camel("background-color"))
	assert.Equal(t, "--brand-color", Camel("--brand-color"))
}

func TestWithDescriptors(t *testing.T) {
	d := New(WithDescriptors(Descriptor{
		Property:  "paddingX",
		Aliases:   []string{"px"},
		IsCSSProp: false,
		Kind:      KindProperty,
	}))

	res := d.Resolve("px")
	require.True(t, res.Known())
	assert.Equal(t, "paddingX", res.Descriptor.Property)
	assert.Contains(t, d.Properties(), "color")
}

func TestCategorize(t *testing.T) {
	got := Categorize(map[string]string{
		"color":        "var(--color-white)",
		"display":      "flex",
		"--brand":      "red",
		"font-size":    "12px",
		"-webkit-mask": "none",
	})

	require.Len(t, got[CategoryVisual], 1)
	assert.True(t, got[CategoryVisual][0].IsToken)
	assert.Len(t, got[CategoryLayout], 1)
	assert.Len(t, got[CategoryTokens], 1)
	assert.Len(t, got[CategoryTypography], 1)
	assert.Len(t, got[CategoryInternal], 1)
}
