package bosscss

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/yacobolo/bosscss/internal/report"
)

// OutputFormat selects how a build result is reported
type OutputFormat string

const (
	// OutputIssues shows warnings in golangci-lint format plus a one-line summary
	OutputIssues OutputFormat = "issues"
	// OutputSummary shows the summary and statistics only
	OutputSummary OutputFormat = "summary"
	// OutputFull shows warnings, summary and statistics
	OutputFull OutputFormat = "full"
	// OutputJSON writes the machine-readable report
	OutputJSON OutputFormat = "json"
)

// DetermineOutputFormat selects the output format from the flag value.
// Unknown values fall back to OutputIssues.
func DetermineOutputFormat(formatFlag string) OutputFormat {
	switch OutputFormat(strings.ToLower(formatFlag)) {
	case OutputSummary:
		return OutputSummary
	case OutputFull:
		return OutputFull
	case OutputJSON:
		return OutputJSON
	default:
		return OutputIssues
	}
}

// WriteOutput writes the build result in the specified format
func WriteOutput(w io.Writer, result *BuildResult, format OutputFormat, opts report.Options) {
	reporter := report.NewReporter(w, opts)

	switch format {
	case OutputIssues:
		reporter.PrintWarnings(relativeWarnings(result.Warnings))
		reporter.PrintSummary(summary(result))

	case OutputSummary:
		reporter.PrintSummary(summary(result))
		printStats(w, result, reporter.UseColors())

	case OutputFull:
		reporter.PrintWarnings(relativeWarnings(result.Warnings))
		reporter.PrintSummary(summary(result))
		printStats(w, result, reporter.UseColors())

	case OutputJSON:
		if err := WriteJSON(w, result); err != nil {
			// Log error but don't crash
			os.Stderr.WriteString("Error writing JSON: " + err.Error() + "\n")
		}
	}
}

func summary(result *BuildResult) report.Summary {
	outputs := make([]string, 0, len(result.Outputs))
	for _, p := range result.OutputPaths() {
		outputs = append(outputs, GetRelativePath(p))
	}
	return report.Summary{
		FilesScanned: result.FilesScanned,
		FilesSkipped: result.FilesSkipped,
		Rules:        result.Rules,
		Outputs:      outputs,
		Warnings:     result.Warnings,
		Errors:       result.Failed,
	}
}

func relativeWarnings(warnings []report.Warning) []report.Warning {
	out := make([]report.Warning, len(warnings))
	for i, w := range warnings {
		if w.File != "" {
			w.File = GetRelativePath(w.File)
		}
		out[i] = w
	}
	return out
}

// printStats outputs property statistics by category
func printStats(w io.Writer, result *BuildResult, useColors bool) {
	s := result.Stats
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, report.RenderStyle(report.StyleCyan, "Build Statistics", useColors))
	fmt.Fprintln(w, "----------------")

	fmt.Fprintf(w, "Properties:        %d\n", s.Properties)
	fmt.Fprintf(w, "Written as rules:  %d\n", s.Classes)
	fmt.Fprintf(w, "Inlined:           %d\n", s.Inlined)
	fmt.Fprintf(w, "Token values:      %d\n", s.TokenValues)
	fmt.Fprintf(w, "Boundaries:        %d\n", result.Boundaries)
	fmt.Fprintf(w, "Compiled files:    %d\n", len(result.Compiled))
	if len(result.ClassNames) > 0 {
		fmt.Fprintf(w, "Mapped classNames: %d\n", len(result.ClassNames))
	}

	cats := s.SortedCategories()
	if len(cats) == 0 {
		return
	}
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, report.RenderStyle(report.StyleCyan, "Properties by Category", useColors))
	fmt.Fprintln(w, "----------------------")
	for _, cat := range cats {
		props := s.Categories[cat]
		fmt.Fprintf(w, "%-11s %3d  %s\n", string(cat)+":", len(props), strings.Join(props, ", "))
	}
}
