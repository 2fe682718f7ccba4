package bosscss

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yacobolo/bosscss/internal/boundary"
	"github.com/yacobolo/bosscss/internal/render"
)

func TestConfigWithDefaults(t *testing.T) {
	cfg := Config{Content: []string{"src/**/*.tsx"}, Concurrency: -3}.withDefaults()

	assert.Equal(t, ".", cfg.Root)
	assert.Equal(t, "dist/boss.css", cfg.Output)
	assert.Equal(t, "px", cfg.Unit)
	assert.Equal(t, string(render.InlineFirst), cfg.Strategy)
	assert.Equal(t, boundary.DefaultCriticality, cfg.Criticality)
	assert.Equal(t, 1, cfg.Concurrency)
	assert.Equal(t, "$$", cfg.Marker)
	assert.Equal(t, "boss-css", cfg.RuntimeModule)
	assert.Equal(t, []string{"src/**/*.tsx"}, cfg.Content)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "classname first", mutate: func(c *Config) { c.Strategy = string(render.ClassNameFirst) }},
		{name: "no content", mutate: func(c *Config) { c.Content = nil }, wantErr: ErrNoContent},
		{name: "unknown strategy", mutate: func(c *Config) { c.Strategy = "inline-last" }, wantErr: render.ErrUnknownStrategy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestSessionConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Marker = "$"
	cfg.Spread = true
	cfg.Prepared = false
	cfg.ClassNameStrategy = "hash"

	scfg, err := cfg.sessionConfig()
	require.NoError(t, err)
	assert.Equal(t, render.InlineFirst, scfg.Strategy)
	assert.Equal(t, "$", scfg.Compile.Marker)
	assert.True(t, scfg.Compile.Spread)
	assert.False(t, scfg.Compile.Prepared)
	assert.True(t, scfg.Compile.RemapClassNames)
}
