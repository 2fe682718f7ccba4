package report

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
)

// Options configures a Reporter
type Options struct {
	UseColors   bool // force colors on
	PrintLines  bool // print the offending source line with a caret
	PrintOrigin bool // append "(origin)" to each line
}

// Reporter prints warnings and build summaries
type Reporter struct {
	w           io.Writer
	useColors   bool
	printLines  bool
	printOrigin bool
}

// NewReporter creates a reporter writing to w.
func NewReporter(w io.Writer, opts Options) *Reporter {
	return &Reporter{
		w:           w,
		useColors:   ShouldUseColors(opts.UseColors),
		printLines:  opts.PrintLines,
		printOrigin: opts.PrintOrigin,
	}
}

// ShouldUseColors determines if colors should be enabled
func ShouldUseColors(force bool) bool {
	if force {
		return true
	}

	if os.Getenv("NO_COLOR") != "" {
		return false
	}

	// Check for FORCE_COLOR environment variable (GitHub Actions, etc.)
	if os.Getenv("FORCE_COLOR") != "" {
		return true
	}

	if os.Getenv("GITHUB_ACTIONS") == "true" {
		return true
	}

	// Auto-detect TTY
	if fileInfo, err := os.Stdout.Stat(); err == nil && (fileInfo.Mode()&os.ModeCharDevice) != 0 {
		return true
	}

	return false
}

// SortWarnings orders warnings by file, line and column.
func SortWarnings(warnings []Warning) {
	sort.SliceStable(warnings, func(i, j int) bool {
		if warnings[i].File != warnings[j].File {
			return warnings[i].File < warnings[j].File
		}
		if warnings[i].Line != warnings[j].Line {
			return warnings[i].Line < warnings[j].Line
		}
		return warnings[i].Column < warnings[j].Column
	})
}

// PrintWarnings outputs warnings in golangci-lint format
func (r *Reporter) PrintWarnings(warnings []Warning) {
	sorted := make([]Warning, len(warnings))
	copy(sorted, warnings)
	SortWarnings(sorted)

	for _, w := range sorted {
		r.printWarning(w)
	}
}

// printWarning formats a single warning: file:line:col: message (origin)
func (r *Reporter) printWarning(w Warning) {
	location := w.File + ":"
	if w.Line > 0 {
		location = fmt.Sprintf("%s:%d:%d:", w.File, w.Line, w.Column)
	}

	originSuffix := ""
	if r.printOrigin && w.Origin != "" {
		originSuffix = fmt.Sprintf(" (%s)", w.Origin)
	}

	fmt.Fprintf(r.w, "%s %s%s\n",
		RenderStyle(StyleCyan, location, r.useColors),
		w.Message,
		RenderStyle(StyleGray, originSuffix, r.useColors))

	if r.printLines && w.Source != "" {
		fmt.Fprintf(r.w, "\t%s\n", w.Source)
		caret := buildCaretIndicator(w.Source, w.Column)
		fmt.Fprintf(r.w, "\t%s\n", RenderStyle(StyleYellow, caret, r.useColors))
	}
}

// buildCaretIndicator creates the "^" indicator aligned with the column,
// keeping tabs so the caret lines up under tab-indented source.
func buildCaretIndicator(sourceLine string, column int) string {
	if column <= 0 {
		return "^"
	}

	prefixLen := column - 1
	if prefixLen > len(sourceLine) {
		prefixLen = len(sourceLine)
	}

	var padding strings.Builder
	for _, ch := range sourceLine[:prefixLen] {
		if ch == '\t' {
			padding.WriteRune('\t')
		} else {
			padding.WriteRune(' ')
		}
	}

	return padding.String() + "^"
}

// Summary is the end-of-build overview
type Summary struct {
	FilesScanned int
	FilesSkipped int
	Rules        int
	Outputs      []string
	Warnings     []Warning
	Errors       int
}

// PrintSummary outputs the build summary
func (r *Reporter) PrintSummary(s Summary) {
	fmt.Fprintln(r.w, "")

	status := RenderStyle(StyleGreen, "✓", r.useColors)
	if s.Errors > 0 {
		status = RenderStyle(StyleRed, "✗", r.useColors)
	}

	fmt.Fprintf(r.w, "%s %s, %s", status,
		pluralizeCount(s.FilesScanned, "file", "files"),
		pluralizeCount(s.Rules, "rule", "rules"))
	if s.FilesSkipped > 0 {
		fmt.Fprintf(r.w, " (skipped %s)", pluralizeCount(s.FilesSkipped, "file", "files"))
	}
	fmt.Fprintln(r.w)

	for _, out := range s.Outputs {
		fmt.Fprintf(r.w, "  → %s\n", RenderStyle(StyleCyan, out, r.useColors))
	}

	if len(s.Warnings) > 0 {
		byOrigin := make(map[string]int)
		for _, w := range s.Warnings {
			byOrigin[w.Origin]++
		}
		origins := make([]string, 0, len(byOrigin))
		for o := range byOrigin {
			origins = append(origins, o)
		}
		sort.Strings(origins)

		fmt.Fprintf(r.w, "%s:\n", RenderStyle(StyleYellow, pluralizeCount(len(s.Warnings), "warning", "warnings"), r.useColors))
		for _, o := range origins {
			fmt.Fprintf(r.w, "* %s: %d\n", o, byOrigin[o])
		}
	}

	if s.Errors > 0 {
		fmt.Fprintln(r.w, RenderStyle(StyleRed, pluralizeCount(s.Errors, "file failed", "files failed"), r.useColors))
	}
}

// pluralizeCount returns a formatted string with count and singular/plural form
func pluralizeCount(count int, singular, plural string) string {
	if count == 1 {
		return fmt.Sprintf("%d %s", count, singular)
	}
	return fmt.Sprintf("%d %s", count, plural)
}

// UseColors returns whether colors are enabled
func (r *Reporter) UseColors() bool {
	return r.useColors
}
