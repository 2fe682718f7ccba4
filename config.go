package bosscss

import (
	"errors"
	"fmt"

	"github.com/yacobolo/bosscss/internal/boundary"
	"github.com/yacobolo/bosscss/internal/compiler"
	"github.com/yacobolo/bosscss/internal/query"
	"github.com/yacobolo/bosscss/internal/render"
	"github.com/yacobolo/bosscss/internal/session"
)

// ErrNoContent is returned when a build has no content patterns.
var ErrNoContent = errors.New("no content patterns configured")

// Config holds build configuration
type Config struct {
	Root    string   // "." (content, boundaries and .gitignore are relative to it)
	Content []string // ["src/**/*.{js,jsx,ts,tsx,html}"]
	Ignore  []string // extra doublestar patterns to skip
	Output  string   // "dist/boss.css" (global stylesheet)
	OutDir  string   // compiled sources destination, empty disables compile output

	Prefix            string // custom property and class name prefix
	Unit              string // unit appended to unitless numbers (default: "px")
	Strategy          string // "inline-first" or "classname-first"
	ClassNameStrategy string // "", "hash", "shortest" or "sequential"
	Criticality       int    // boundaries sharing a rule before it is hoisted (default: 2)
	Concurrency       int    // files processed in parallel (default: 4)
	TokensFile        string // tokens.toml / tokens.yaml

	Marker        string // JSX marker (default: "$$")
	RuntimeModule string // module the marker is imported from (default: "boss-css")
	Spread        bool   // lower elements with spread props
	Prepared      bool   // inline $$.Name prepared components (default: true)

	Breakpoints map[string]query.Bounds // named widths, built-in table when nil
}

// DefaultConfig returns the configuration used when nothing is set.
func DefaultConfig() Config {
	return Config{
		Root:          ".",
		Content:       []string{"src/**/*.{js,jsx,ts,tsx,html}"},
		Output:        "dist/boss.css",
		Unit:          "px",
		Strategy:      string(render.InlineFirst),
		Criticality:   boundary.DefaultCriticality,
		Concurrency:   4,
		Marker:        "$$",
		RuntimeModule: "boss-css",
		Prepared:      true,
	}
}

// withDefaults fills zero values from DefaultConfig.
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.Root == "" {
		c.Root = d.Root
	}
	if c.Output == "" {
		c.Output = d.Output
	}
	if c.Unit == "" {
		c.Unit = d.Unit
	}
	if c.Strategy == "" {
		c.Strategy = d.Strategy
	}
	if c.Criticality <= 0 {
		c.Criticality = d.Criticality
	}
	if c.Concurrency <= 0 {
		c.Concurrency = 1
	}
	if c.Marker == "" {
		c.Marker = d.Marker
	}
	if c.RuntimeModule == "" {
		c.RuntimeModule = d.RuntimeModule
	}
	return c
}

// Validate reports configuration errors that would fail every build.
func (c Config) Validate() error {
	c = c.withDefaults()
	if len(c.Content) == 0 {
		return ErrNoContent
	}
	if _, err := render.ParseStrategy(c.Strategy); err != nil {
		return err
	}
	return nil
}

// sessionConfig maps the build configuration onto a session.
func (c Config) sessionConfig() (session.Config, error) {
	strategy, err := render.ParseStrategy(c.Strategy)
	if err != nil {
		return session.Config{}, fmt.Errorf("invalid strategy: %w", err)
	}

	opts := compiler.DefaultOptions()
	opts.Marker = c.Marker
	opts.RuntimeModule = c.RuntimeModule
	opts.Spread = c.Spread
	opts.Prepared = c.Prepared
	opts.RemapClassNames = c.ClassNameStrategy != ""

	return session.Config{
		Prefix:            c.Prefix,
		Unit:              c.Unit,
		Strategy:          strategy,
		ClassNameStrategy: c.ClassNameStrategy,
		Breakpoints:       c.Breakpoints,
		TokensFile:        c.TokensFile,
		Compile:           opts,
	}, nil
}
