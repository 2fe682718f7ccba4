package bosscss

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yacobolo/bosscss/internal/classmap"
	"github.com/yacobolo/bosscss/internal/dictionary"
	"github.com/yacobolo/bosscss/internal/events"
	"github.com/yacobolo/bosscss/internal/render"
)

const (
	appSource  = "import $$ from \"boss-css\";\nexport const App = () => <$$ color=\"red\" hover={{color: \"blue\"}} />;\n"
	pageSource = "export const Page = () => <div className=\"color:green\" />;\n"
	htmlSource = "<div class=\"display:flex\"></div>\n"
)

func newProject(t *testing.T) (string, Config) {
	t.Helper()
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"src/App.tsx":              appSource,
		"src/admin/admin.boss.css": "",
		"src/admin/Page.tsx":       pageSource,
		"src/index.html":           htmlSource,
	})

	cfg := DefaultConfig()
	cfg.Root = root
	cfg.Content = []string{"src/**/*.{tsx,html}"}
	cfg.OutDir = "out"
	cfg.Concurrency = 2
	return root, cfg
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestBuild(t *testing.T) {
	root, cfg := newProject(t)

	res, err := Build(context.Background(), cfg, nil)
	require.NoError(t, err)

	assert.Equal(t, 3, res.FilesScanned)
	assert.Equal(t, 1, res.Boundaries)
	assert.Zero(t, res.Failed)
	assert.Equal(t, []string{
		filepath.Join(root, "dist", "boss.css"),
		filepath.Join(root, "src", "admin", "admin.boss.css"),
	}, res.OutputPaths())

	global := readFile(t, filepath.Join(root, "dist", "boss.css"))
	assert.Contains(t, global, `.hover\:color\:blue:hover { color: blue !important }`)
	assert.Contains(t, global, `.display\:flex { display: flex }`)
	assert.NotContains(t, global, "green")

	admin := readFile(t, filepath.Join(root, "src", "admin", "admin.boss.css"))
	assert.Contains(t, admin, `.color\:green { color: green }`)

	app := readFile(t, filepath.Join(root, "out", "src", "App.tsx"))
	assert.Contains(t, app, `<div className="hover:color:blue" style={{color:"red"}}/>`)
	assert.NotContains(t, app, "boss-css")
	assert.Equal(t, htmlSource, readFile(t, filepath.Join(root, "out", "src", "index.html")))

	require.Len(t, res.Compiled, 3)
	assert.Equal(t, filepath.Join(root, "src", "App.tsx"), res.Compiled[0].Source)
	assert.Equal(t, 1, res.Compiled[0].ReplacedElements)
	assert.False(t, res.Compiled[0].NeedsRuntime)

	assert.Contains(t, res.Stats.Categories[dictionary.CategoryVisual], "color")
	assert.Contains(t, res.Stats.Categories[dictionary.CategoryLayout], "display")
	assert.Nil(t, res.ClassNames)
}

func TestBuildIsDeterministic(t *testing.T) {
	root, cfg := newProject(t)
	cfg.Concurrency = 4

	_, err := Build(context.Background(), cfg, nil)
	require.NoError(t, err)
	first := readFile(t, filepath.Join(root, "dist", "boss.css"))

	_, err = Build(context.Background(), cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, first, readFile(t, filepath.Join(root, "dist", "boss.css")))
}

func TestBuildClassNameStrategy(t *testing.T) {
	tests := []struct {
		name        string
		strategy    string
		concurrency int
		wantErr     error
	}{
		{name: "serial strategy with workers", strategy: classmap.Sequential, concurrency: 4, wantErr: classmap.ErrSerialStrategy},
		{name: "serial strategy alone", strategy: classmap.Sequential, concurrency: 1},
		{name: "hash strategy with workers", strategy: classmap.Hash, concurrency: 4},
		{name: "unknown strategy", strategy: "random", concurrency: 1, wantErr: classmap.ErrUnknownStrategy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root, cfg := newProject(t)
			cfg.ClassNameStrategy = tt.strategy
			cfg.Concurrency = tt.concurrency

			res, err := Build(context.Background(), cfg, nil)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.NotEmpty(t, res.ClassNames)

			short := res.ClassNames["display:flex"]
			require.NotEmpty(t, short)
			assert.Equal(t, `<div class="`+short+`"></div>`+"\n", readFile(t, filepath.Join(root, "out", "src", "index.html")))
			assert.Contains(t, readFile(t, filepath.Join(root, "dist", "boss.css")), "."+short+" { display: flex }")
		})
	}
}

func TestBuildInvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Root = t.TempDir()

	cfg.Strategy = "everything-inline"
	_, err := Build(context.Background(), cfg, nil)
	require.ErrorIs(t, err, render.ErrUnknownStrategy)

	cfg.Strategy = ""
	cfg.Content = nil
	_, err = Build(context.Background(), cfg, nil)
	require.ErrorIs(t, err, ErrNoContent)
}

func TestBuildAggregatesFileErrors(t *testing.T) {
	root, cfg := newProject(t)
	writeTree(t, root, map[string]string{"src/bad.html": `<p class="color:red"></p>`})

	b, err := NewBuilder(cfg, nil)
	require.NoError(t, err)
	b.Session().Bus().Subscribe("test", events.OnParse, func(_ context.Context, e events.Event) error {
		if strings.HasSuffix(e.(events.ParseEvent).Source, "bad.html") {
			return errors.New("plugin rejected file")
		}
		return nil
	})

	res, err := b.Build(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "plugin rejected file")
	require.NotNil(t, res)
	assert.Equal(t, 1, res.Failed)
	assert.Equal(t, 4, res.FilesScanned)
	assert.Contains(t, readFile(t, filepath.Join(root, "dist", "boss.css")), `.display\:flex { display: flex }`)
	assert.NotContains(t, readFile(t, filepath.Join(root, "dist", "boss.css")), "color: red }")
}

func TestRebuild(t *testing.T) {
	ctx := context.Background()
	root, cfg := newProject(t)

	b, err := NewBuilder(cfg, nil)
	require.NoError(t, err)
	_, err = b.Build(ctx)
	require.NoError(t, err)

	html := filepath.Join(root, "src", "index.html")
	require.NoError(t, os.WriteFile(html, []byte(`<div class="display:grid"></div>`), 0o644))
	_, err = b.Rebuild(ctx, []string{html})
	require.NoError(t, err)

	global := readFile(t, filepath.Join(root, "dist", "boss.css"))
	assert.Contains(t, global, `.display\:grid { display: grid }`)
	assert.NotContains(t, global, "display: flex")
	assert.Contains(t, global, `.hover\:color\:blue:hover { color: blue !important }`)

	app := filepath.Join(root, "src", "App.tsx")
	require.NoError(t, os.Remove(app))
	res, err := b.Rebuild(ctx, []string{app})
	require.NoError(t, err)

	assert.NotContains(t, readFile(t, filepath.Join(root, "dist", "boss.css")), "blue")
	assert.NoFileExists(t, filepath.Join(root, "out", "src", "App.tsx"))
	assert.Len(t, res.Compiled, 2)

	// files outside the content patterns are ignored
	res, err = b.Rebuild(ctx, []string{filepath.Join(root, "README.md")})
	require.NoError(t, err)
	assert.Len(t, res.Compiled, 2)
}

func TestRebuildBoundaryMarkers(t *testing.T) {
	ctx := context.Background()
	root, cfg := newProject(t)

	b, err := NewBuilder(cfg, nil)
	require.NoError(t, err)
	_, err = b.Build(ctx)
	require.NoError(t, err)

	adminMarker := filepath.Join(root, "src", "admin", "admin.boss.css")
	require.NoError(t, os.Remove(adminMarker))
	res, err := b.Rebuild(ctx, []string{adminMarker})
	require.NoError(t, err)
	assert.Zero(t, res.Boundaries)
	assert.Contains(t, readFile(t, filepath.Join(root, "dist", "boss.css")), `.color\:green { color: green }`)

	siteMarker := filepath.Join(root, "src", "site.boss.css")
	require.NoError(t, os.WriteFile(siteMarker, nil, 0o644))
	res, err = b.Rebuild(ctx, []string{siteMarker})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Boundaries)

	site := readFile(t, siteMarker)
	assert.Contains(t, site, `.display\:flex { display: flex }`)
	assert.Contains(t, site, `.color\:green { color: green }`)
}

func TestTriggersRebuild(t *testing.T) {
	root, cfg := newProject(t)
	b, err := NewBuilder(cfg, nil)
	require.NoError(t, err)

	marker := filepath.Join(root, "src", "site.boss.css")
	tests := []struct {
		name     string
		event    fsnotify.Event
		expected bool
	}{
		{name: "content write", event: fsnotify.Event{Name: filepath.Join(root, "src", "App.tsx"), Op: fsnotify.Write}, expected: true},
		{name: "content chmod", event: fsnotify.Event{Name: filepath.Join(root, "src", "App.tsx"), Op: fsnotify.Chmod}},
		{name: "outside content", event: fsnotify.Event{Name: filepath.Join(root, "README.md"), Op: fsnotify.Write}},
		{name: "marker created", event: fsnotify.Event{Name: marker, Op: fsnotify.Create}, expected: true},
		{name: "marker removed", event: fsnotify.Event{Name: marker, Op: fsnotify.Remove}, expected: true},
		{name: "marker renamed", event: fsnotify.Event{Name: marker, Op: fsnotify.Rename}, expected: true},
		{name: "marker written by build", event: fsnotify.Event{Name: marker, Op: fsnotify.Write}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, b.triggersRebuild(tt.event))
		})
	}
}

func TestRebuildPreparedFallsBackToFullBuild(t *testing.T) {
	ctx := context.Background()
	root, cfg := newProject(t)
	writeTree(t, root, map[string]string{
		"src/card.tsx": "$$.Card = $$.$({padding: 8});\n",
		"src/use.tsx":  "export const X = () => <$$.Card />;\n",
	})

	b, err := NewBuilder(cfg, nil)
	require.NoError(t, err)
	_, err = b.Build(ctx)
	require.NoError(t, err)
	assert.Contains(t, readFile(t, filepath.Join(root, "out", "src", "use.tsx")), `<div style={{padding:"8px"}}/>`)

	card := filepath.Join(root, "src", "card.tsx")
	require.NoError(t, os.WriteFile(card, []byte("$$.Card = $$.$({padding: 12});\n"), 0o644))
	_, err = b.Rebuild(ctx, []string{card})
	require.NoError(t, err)
	assert.Contains(t, readFile(t, filepath.Join(root, "out", "src", "use.tsx")), `<div style={{padding:"12px"}}/>`)
}

func TestCompileSource(t *testing.T) {
	res, cssText, err := CompileSource(context.Background(), DefaultConfig(),
		[]byte(`const a = <$$.span hover={{color: "blue"}} />;`), "a.tsx", nil)
	require.NoError(t, err)

	assert.Equal(t, `const a = <span className="hover:color:blue"/>;`, res.Code)
	assert.Equal(t, 1, res.ReplacedElements)
	assert.Contains(t, cssText, `.hover\:color\:blue:hover { color: blue }`)
}

func TestParseClassNames(t *testing.T) {
	cssText, warnings, err := ParseClassNames(context.Background(), DefaultConfig(), "hover:color:blue display:flex", nil)
	require.NoError(t, err)
	assert.Empty(t, warnings)
	assert.Contains(t, cssText, `.hover\:color\:blue:hover { color: blue }`)
	assert.Contains(t, cssText, `.display\:flex { display: flex }`)
}
