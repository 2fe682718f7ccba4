// Package boundary splits a stylesheet into directory-scoped outputs.
//
// A boundary is a "*.boss.css" marker file; its directory and everything
// below it form one output scope. Rules used under several boundaries are
// hoisted to their nearest common ancestor once they reach the configured
// criticality.
package boundary

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	ignore "github.com/sabhiram/go-gitignore"

	"github.com/yacobolo/bosscss/internal/report"
)

// MarkerPattern matches boundary marker files.
const MarkerPattern = "**/*.boss.css"

// GlobalID identifies the implicit global node.
const GlobalID = "global"

// Node is one boundary scope.
type Node struct {
	ID       string // slash-separated directory relative to the scan root, "." for the root itself
	Path     string // absolute marker file path
	Dir      string // absolute directory
	Depth    int    // directory depth below the scan root
	ParentID string // nearest enclosing boundary, GlobalID when none
}

// Discover finds boundary markers below root. node_modules is always
// skipped, as are paths matching ignore (doublestar patterns relative to
// root) or the root .gitignore. When a directory holds several markers the
// lexicographically first wins and the others are reported.
func Discover(root string, ignorePatterns []string) ([]Node, []report.Warning, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, nil, fmt.Errorf("resolve boundary root %s: %w", root, err)
	}

	matches, err := doublestar.Glob(os.DirFS(absRoot), MarkerPattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, nil, fmt.Errorf("glob %s: %w", MarkerPattern, err)
	}
	sort.Strings(matches)

	gi, _ := ignore.CompileIgnoreFile(filepath.Join(absRoot, ".gitignore"))

	var (
		nodes    []Node
		warnings []report.Warning
		byDir    = make(map[string]*Node)
	)
	for _, rel := range matches {
		if skip(rel, ignorePatterns, gi) {
			continue
		}
		dir := pathDir(rel)
		abs := filepath.Join(absRoot, filepath.FromSlash(rel))
		if winner, ok := byDir[dir]; ok {
			warnings = append(warnings, report.New(report.OriginBoundary, abs,
				"multiple boundary files in %s, using %s", filepath.Dir(abs), filepath.Base(winner.Path)))
			continue
		}
		nodes = append(nodes, Node{
			ID:    dir,
			Path:  abs,
			Dir:   filepath.Dir(abs),
			Depth: depth(dir),
		})
		byDir[dir] = &nodes[len(nodes)-1]
	}

	// parents: nearest ancestor directory holding a marker
	ids := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		ids[n.ID] = true
	}
	for i := range nodes {
		nodes[i].ParentID = GlobalID
		for dir := nodes[i].ID; dir != "."; {
			dir = pathDir(dir)
			if ids[dir] {
				nodes[i].ParentID = dir
				break
			}
		}
	}

	return nodes, warnings, nil
}

func skip(rel string, patterns []string, gi *ignore.GitIgnore) bool {
	for _, seg := range strings.Split(rel, "/") {
		if seg == "node_modules" {
			return true
		}
	}
	for _, p := range patterns {
		if ok, _ := doublestar.Match(p, rel); ok {
			return true
		}
	}
	return gi != nil && gi.MatchesPath(rel)
}

// pathDir is path.Dir for slash-separated relative paths, "." at the top.
func pathDir(rel string) string {
	i := strings.LastIndexByte(rel, '/')
	if i < 0 {
		return "."
	}
	return rel[:i]
}

func depth(dir string) int {
	if dir == "." {
		return 0
	}
	return strings.Count(dir, "/") + 1
}
