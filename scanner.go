package bosscss

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	ignore "github.com/sabhiram/go-gitignore"
)

// ScanStats tracks file scanning statistics
type ScanStats struct {
	FilesDiscovered int `json:"files_discovered"` // Total files found by glob patterns
	FilesScanned    int `json:"files_scanned"`    // Files actually scanned (after filtering)
	FilesSkipped    int `json:"files_skipped"`    // Files skipped due to filtering
}

// FileKind says how a content file is processed.
type FileKind int

const (
	// KindMarkup files are scanned for className tokens only.
	KindMarkup FileKind = iota
	// KindScript files are parsed and compiled.
	KindScript
)

var scriptExtensions = map[string]bool{
	".js":  true,
	".jsx": true,
	".mjs": true,
	".cjs": true,
	".ts":  true,
	".tsx": true,
	".mts": true,
	".cts": true,
}

// KindOf returns how path is processed.
func KindOf(path string) FileKind {
	if scriptExtensions[strings.ToLower(filepath.Ext(path))] {
		return KindScript
	}
	return KindMarkup
}

// scanner expands content globs below one root.
type scanner struct {
	root     string
	ignore   []string
	excluded map[string]bool // absolute paths of build outputs
	gi       *ignore.GitIgnore
}

// newScanner loads root/.gitignore. A missing .gitignore is fine.
func newScanner(root string, ignorePatterns []string, excluded ...string) (*scanner, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve root %s: %w", root, err)
	}
	s := &scanner{root: abs, ignore: ignorePatterns, excluded: make(map[string]bool)}
	for _, p := range excluded {
		if p == "" {
			continue
		}
		if !filepath.IsAbs(p) {
			p = filepath.Join(abs, p)
		}
		s.excluded[filepath.Clean(p)] = true
	}
	if gi, err := ignore.CompileIgnoreFile(filepath.Join(abs, ".gitignore")); err == nil {
		s.gi = gi
	}
	return s, nil
}

// isGenerated reports files that never carry authored styles
func isGenerated(path string) bool {
	return strings.HasSuffix(path, ".d.ts") ||
		strings.HasSuffix(path, ".min.js") ||
		strings.HasSuffix(path, ".boss.css")
}

// shouldSkip determines if a file should be excluded from scanning
//
// Three-layer filtering:
// 1. Pattern check (fast): declarations, minified bundles, node_modules
// 2. Build outputs: the stylesheet and anything under the compile output dir
// 3. Ignore check: configured patterns and the root .gitignore
func (s *scanner) shouldSkip(abs string) bool {
	if isGenerated(abs) {
		return true
	}

	rel, err := filepath.Rel(s.root, abs)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)
	for _, seg := range strings.Split(rel, "/") {
		if seg == "node_modules" {
			return true
		}
	}

	for dir := abs; ; dir = filepath.Dir(dir) {
		if s.excluded[dir] {
			return true
		}
		if dir == s.root || dir == filepath.Dir(dir) {
			break
		}
	}

	for _, pattern := range s.ignore {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
	}
	// Only paths inside the root are subject to its .gitignore
	if s.gi != nil && !strings.HasPrefix(rel, "../") && s.gi.MatchesPath(rel) {
		return true
	}
	return false
}

// scan expands globs and tracks statistics. Results are absolute, unique
// and sorted.
func (s *scanner) scan(patterns []string) ([]string, ScanStats, error) {
	var files []string
	seen := make(map[string]bool)
	stats := ScanStats{}

	for _, pattern := range patterns {
		full := pattern
		if !filepath.IsAbs(pattern) {
			full = filepath.Join(s.root, pattern)
		}

		// Use doublestar for ** and {a,b} support
		matches, err := doublestar.FilepathGlob(full, doublestar.WithFilesOnly())
		if err != nil {
			return nil, stats, fmt.Errorf("glob pattern %q: %w", pattern, err)
		}

		for _, match := range matches {
			match = filepath.Clean(match)
			if seen[match] {
				continue
			}
			seen[match] = true
			stats.FilesDiscovered++

			if s.shouldSkip(match) {
				stats.FilesSkipped++
				continue
			}
			files = append(files, match)
			stats.FilesScanned++
		}
	}

	sort.Strings(files)
	return files, stats, nil
}

// ScanFiles finds the content files below root matching patterns.
func ScanFiles(root string, patterns, ignorePatterns []string) ([]string, ScanStats, error) {
	s, err := newScanner(root, ignorePatterns)
	if err != nil {
		return nil, ScanStats{}, err
	}
	return s.scan(patterns)
}

// GetRelativePath returns a relative path from the current working directory
func GetRelativePath(absPath string) string {
	cwd, err := os.Getwd()
	if err != nil {
		return absPath
	}

	rel, err := filepath.Rel(cwd, absPath)
	if err != nil {
		return absPath
	}

	return rel
}
