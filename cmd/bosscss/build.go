package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/yacobolo/bosscss"
	"github.com/yacobolo/bosscss/internal/report"
)

var errWarnings = errors.New("build produced warnings (strict mode)")

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build the stylesheets for the configured content",
	Long: `Scan the content globs, compile every file and write the global stylesheet
plus one stylesheet per .boss.css boundary.`,
	PreRunE: func(cmd *cobra.Command, _ []string) error {
		return loadConfig(cmd)
	},
	RunE: runBuild,
}

func init() {
	addBuildFlags(buildCmd)
	f := buildCmd.Flags()
	f.String("format", "", "Output format: issues|summary|full|json")
	f.Bool("strict", false, "Exit 1 when the build reports any warning (CI mode)")
	f.Bool("print-lines", true, "Show source lines with warnings")
	f.Bool("print-origin", false, "Show the component that raised each warning")
}

// addBuildFlags registers the flags shared by every command that builds
func addBuildFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("root", ".", "Project root (content, boundaries and .gitignore are relative to it)")
	f.StringSlice("content", nil, "Glob patterns for files to scan")
	f.StringSlice("ignore", nil, "Glob patterns for files to skip")
	f.String("output", "dist/boss.css", "Global stylesheet path")
	f.String("out-dir", "", "Write compiled sources below this directory")
	f.Int("criticality", 2, "Boundaries sharing a rule before it moves to the global stylesheet")
	f.Int("concurrency", 4, "Files processed in parallel")
	f.String("classname-strategy", "", "Shorten class names: hash|shortest|sequential")
	addRenderFlags(cmd)
}

// addRenderFlags registers the flags that change the CSS and code produced
// for a single source
func addRenderFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("prefix", "", "Prefix for class names and custom properties")
	f.String("unit", "px", "Unit appended to unitless numbers")
	f.String("strategy", "inline-first", "Rendering strategy: inline-first|classname-first")
	f.String("tokens", "", "Design tokens file (.toml, .yaml)")
	f.String("runtime-module", "boss-css", "Module the JSX marker is imported from")
	f.Bool("spread", false, "Compile elements that spread props")
	f.Bool("prepared", true, "Inline prepared components")
}

func runBuild(cmd *cobra.Command, _ []string) error {
	config, err := buildConfig()
	if err != nil {
		return err
	}
	log, err := newLogger()
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	result, buildErr := bosscss.Build(cmd.Context(), config, log)
	if result == nil {
		return buildErr
	}

	if !getBoolWithFallback("quiet", "quiet", false) {
		format := bosscss.DetermineOutputFormat(getStringWithFallback("format", "format", ""))
		bosscss.WriteOutput(os.Stdout, result, format, reportOptions())
	}

	if buildErr != nil {
		return buildErr
	}
	if getBoolWithFallback("strict", "strict", false) && len(result.Warnings) > 0 {
		return errWarnings
	}
	return nil
}

func reportOptions() report.Options {
	return report.Options{
		UseColors:   getBoolWithFallback("color", "color", false),
		PrintLines:  getBoolWithFallback("print-lines", "print-lines", true),
		PrintOrigin: getBoolWithFallback("print-origin", "print-origin", false),
	}
}
