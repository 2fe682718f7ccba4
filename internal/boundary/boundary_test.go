package boundary

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yacobolo/bosscss/internal/css"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func setupTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "app", "app.boss.css"), "")
	writeFile(t, filepath.Join(root, "app", "x", "x.boss.css"), "")
	writeFile(t, filepath.Join(root, "app", "y", "y.boss.css"), "")
	return root
}

func TestDiscover(t *testing.T) {
	root := setupTree(t)
	writeFile(t, filepath.Join(root, "app", "y", "z.boss.css"), "")
	writeFile(t, filepath.Join(root, "node_modules", "pkg", "pkg.boss.css"), "")
	writeFile(t, filepath.Join(root, "dist", "out.boss.css"), "")
	writeFile(t, filepath.Join(root, "tmp", "t.boss.css"), "")
	writeFile(t, filepath.Join(root, ".gitignore"), "dist/\n")

	nodes, warnings, err := Discover(root, []string{"tmp/**"})
	require.NoError(t, err)

	require.Len(t, nodes, 3)
	assert.Equal(t, "app", nodes[0].ID)
	assert.Equal(t, GlobalID, nodes[0].ParentID)
	assert.Equal(t, 1, nodes[0].Depth)

	assert.Equal(t, "app/x", nodes[1].ID)
	assert.Equal(t, "app", nodes[1].ParentID)
	assert.Equal(t, 2, nodes[1].Depth)
	assert.Equal(t, filepath.Join(root, "app", "x"), nodes[1].Dir)

	assert.Equal(t, "app/y", nodes[2].ID)
	assert.Equal(t, filepath.Join(root, "app", "y", "y.boss.css"), nodes[2].Path)

	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0].Message, "multiple boundary files")
	assert.Contains(t, warnings[0].Message, "y.boss.css")
}

func TestDiscoverEmpty(t *testing.T) {
	nodes, warnings, err := Discover(t.TempDir(), nil)
	require.NoError(t, err)
	assert.Empty(t, nodes)
	assert.Empty(t, warnings)
}

func TestPartition(t *testing.T) {
	root := setupTree(t)
	nodes, _, err := Discover(root, nil)
	require.NoError(t, err)

	x := filepath.Join(root, "app", "x", "c.tsx")
	y := filepath.Join(root, "app", "y", "d.tsx")
	outside := filepath.Join(root, "lib", "e.tsx")

	engine := css.New(nil)
	engine.AddRule(".shared { color: red }", "", x)
	engine.AddRule(".shared{color:red}", "", y)
	engine.AddRule(".local { color: blue }", "", x)
	engine.AddRule(".top { margin: 0 }", "", outside)
	engine.AddImport("reset.css", x)

	global := filepath.Join(root, "dist", "styles.css")
	appOut := filepath.Join(root, "app", "app.boss.css")
	xOut := filepath.Join(root, "app", "x", "x.boss.css")
	yOut := filepath.Join(root, "app", "y", "y.boss.css")

	tests := []struct {
		name        string
		criticality int
		want        map[string]string
	}{
		{
			name:        "hoisted to common ancestor",
			criticality: 2,
			want: map[string]string{
				global: `@import url("reset.css");` + "\n.top { margin: 0 }",
				appOut: ".shared { color: red }",
				xOut:   ".local { color: blue }",
				yOut:   "",
			},
		},
		{
			name:        "duplicated below criticality",
			criticality: 3,
			want: map[string]string{
				global: `@import url("reset.css");` + "\n.top { margin: 0 }",
				appOut: "",
				xOut:   ".shared { color: red }\n.local { color: blue }",
				yOut:   ".shared { color: red }",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Partition(engine.State(), nodes, tt.criticality, global)
			assert.True(t, res.Found)

			got := make(map[string]string, len(res.Outputs))
			for _, o := range res.Outputs {
				got[o.Path] = o.Text
			}
			assert.Equal(t, tt.want, got)
			assert.Equal(t, global, res.Outputs[0].Path)
		})
	}
}

func TestPartitionCommonAncestorIsGlobal(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a", "a.boss.css"), "")
	writeFile(t, filepath.Join(root, "b", "b.boss.css"), "")
	nodes, _, err := Discover(root, nil)
	require.NoError(t, err)

	engine := css.New(nil)
	engine.AddRoot("--color-white: #fff", filepath.Join(root, "a", "x.tsx"))
	engine.AddRoot("--color-white: #fff", filepath.Join(root, "b", "y.tsx"))

	global := filepath.Join(root, "styles.css")
	res := Partition(engine.State(), nodes, 2, global)
	require.Len(t, res.Outputs, 3)
	assert.Equal(t, ":root { --color-white: #fff }", res.Outputs[0].Text)
	assert.Empty(t, res.Outputs[1].Text)
	assert.Empty(t, res.Outputs[2].Text)
}

func TestPartitionWithoutBoundaries(t *testing.T) {
	engine := css.New(nil)
	engine.AddRule(".a { color: red }", "", "a.tsx")

	res := Partition(engine.State(), nil, 2, "styles.css")
	assert.False(t, res.Found)
	assert.Equal(t, []Output{{Path: "styles.css", Text: ".a { color: red }"}}, res.Outputs)
}
