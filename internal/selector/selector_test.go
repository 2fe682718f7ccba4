package selector

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContextToClassName(t *testing.T) {
	tests := []struct {
		name     string
		prop     string
		value    any
		contexts []string
		escape   bool
		prefix   string
		want     string
	}{
		{name: "plain", prop: "color", value: "red", want: "color:red"},
		{name: "escaped", prop: "color", value: "red", escape: true, want: `color\:red`},
		{name: "list value", prop: "border", value: []string{"1", "solid"}, escape: true, want: `border\:1_solid`},
		{name: "camel case name", prop: "backgroundColor", value: "blue", want: "background-color:blue"},
		{name: "contexts", prop: "display", value: "block", contexts: []string{"at", "mobile+"}, escape: true, want: `at\:mobile\+\:display\:block`},
		{name: "prefix", prop: "color", value: "red", contexts: []string{"hover"}, prefix: "ui", want: "ui:hover:color:red"},
		{name: "child marker kept", prop: "color", value: "red", contexts: []string{"[&_span]"}, want: "[&_span]:color:red"},
		{name: "no value", prop: "color", contexts: []string{"hover"}, want: "hover:color"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ContextToClassName(tt.prop, tt.value, tt.contexts, tt.escape, tt.prefix)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestContextToClassNameIsStable(t *testing.T) {
	a := ContextToClassName("color", "red", []string{"hover"}, true, "")
	b := ContextToClassName("color", "red", []string{"hover"}, true, "")
	assert.Equal(t, a, b)
}

func TestContextToCSSVariable(t *testing.T) {
	tests := []struct {
		name     string
		prop     string
		contexts []string
		prefix   string
		want     string
	}{
		{name: "bare", prop: "color", want: "--color"},
		{name: "pseudo", prop: "color", contexts: []string{"hover"}, want: "--hover-color"},
		{name: "breakpoint up", prop: "width", contexts: []string{"at", "mobile+"}, want: "--at-mobile-up-width"},
		{name: "breakpoint down", prop: "width", contexts: []string{"at", "tablet-"}, want: "--at-tablet-down-width"},
		{name: "prefix", prop: "backgroundColor", contexts: []string{"focus"}, prefix: "ui", want: "--ui-focus-background-color"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ContextToCSSVariable(tt.prop, tt.contexts, tt.prefix))
		})
	}
}

func TestApplyChildSelectors(t *testing.T) {
	tests := []struct {
		name     string
		base     string
		contexts []string
		want     string
	}{
		{name: "no markers", base: ".a", contexts: []string{"hover"}, want: ".a"},
		{name: "descendant", base: ".a", contexts: []string{"[span]"}, want: ".a span"},
		{name: "ampersand", base: ".a", contexts: []string{"[&>li]"}, want: ".a>li"},
		{name: "underscore becomes space", base: ".a", contexts: []string{"[&_>_li]"}, want: ".a > li"},
		{name: "left to right", base: ".a", contexts: []string{"[ul]", "[&:first-child]"}, want: ".a ul:first-child"},
		{name: "ampersand later", base: ".a", contexts: []string{"[.dark_&]"}, want: ".dark .a"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ApplyChildSelectors(tt.base, tt.contexts))
		})
	}
}

func TestEscape(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"color:red", `color\:red`},
		{"1a", `\31 a`},
		{"-1a", `-\31 a`},
		{"-", `\-`},
		{"w-1/2", `w-1\/2`},
		{"a.b", `a\.b`},
		{"héllo", "héllo"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Escape(tt.in))
		})
	}
}

func TestAttributeSelector(t *testing.T) {
	assert.Equal(t, `[class~="hover:{color:red}"]`, AttributeSelector("hover:{color:red}"))
	assert.Equal(t, `[class~="content:\"x\""]`, AttributeSelector(`content:"x"`))
}

func TestTokenValue(t *testing.T) {
	tests := []struct {
		property string
		path     []string
		want     string
	}{
		{"color", []string{"color", "white"}, "white"},
		{"backgroundColor", []string{"color", "white"}, "white"},
		{"padding", []string{"space", "lg"}, "space-lg"},
		{"color", []string{"white"}, "white"},
		{"border-color", []string{"color", "gray", "100"}, "gray-100"},
	}

	for _, tt := range tests {
		t.Run(tt.property+"/"+strings.Join(tt.path, "."), func(t *testing.T) {
			assert.Equal(t, tt.want, TokenValue(tt.property, tt.path))
		})
	}
}
