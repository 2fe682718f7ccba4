package bosscss

import (
	"encoding/json"
	"io"
	"sort"
	"time"

	"github.com/yacobolo/bosscss/internal/report"
)

// JSONOutput represents the structured JSON export schema
type JSONOutput struct {
	Version    string            `json:"version"`
	Timestamp  string            `json:"timestamp"`
	Summary    JSONSummary       `json:"summary"`
	Stats      Stats             `json:"stats"`
	Outputs    []JSONStylesheet  `json:"outputs"`
	Compiled   []CompiledFile    `json:"compiled"`
	Warnings   []report.Warning  `json:"warnings"`
	ClassNames map[string]string `json:"class_names,omitempty"`
}

// JSONSummary contains high-level counts
type JSONSummary struct {
	FilesScanned int     `json:"files_scanned"`
	FilesSkipped int     `json:"files_skipped"`
	Rules        int     `json:"rules"`
	Boundaries   int     `json:"boundaries"`
	Warnings     int     `json:"warnings"`
	Failed       int     `json:"failed"`
	DurationMS   float64 `json:"duration_ms"`
}

// JSONStylesheet is one written stylesheet, without its text
type JSONStylesheet struct {
	Path  string `json:"path"`
	Bytes int    `json:"bytes"`
}

// WriteJSON writes the build result as JSON
func WriteJSON(w io.Writer, result *BuildResult) error {
	output := buildJSONOutput(result)
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(output)
}

// buildJSONOutput converts BuildResult to JSONOutput
func buildJSONOutput(result *BuildResult) JSONOutput {
	outputs := make([]JSONStylesheet, len(result.Outputs))
	for i, out := range result.Outputs {
		outputs[i] = JSONStylesheet{Path: GetRelativePath(out.Path), Bytes: len(out.Text)}
	}

	compiled := make([]CompiledFile, len(result.Compiled))
	for i, file := range result.Compiled {
		file.Source = GetRelativePath(file.Source)
		if file.Output != "" {
			file.Output = GetRelativePath(file.Output)
		}
		compiled[i] = file
	}

	stats := result.Stats
	for _, props := range stats.Categories {
		sort.Strings(props)
	}

	warnings := relativeWarnings(result.Warnings)
	if warnings == nil {
		warnings = []report.Warning{}
	}

	return JSONOutput{
		Version:   "1.0",
		Timestamp: time.Now().Format(time.RFC3339),
		Summary: JSONSummary{
			FilesScanned: result.FilesScanned,
			FilesSkipped: result.FilesSkipped,
			Rules:        result.Rules,
			Boundaries:   result.Boundaries,
			Warnings:     len(result.Warnings),
			Failed:       result.Failed,
			DurationMS:   float64(result.Duration.Microseconds()) / 1000,
		},
		Stats:      stats,
		Outputs:    outputs,
		Compiled:   compiled,
		Warnings:   warnings,
		ClassNames: result.ClassNames,
	}
}
