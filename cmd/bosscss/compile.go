package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/yacobolo/bosscss"
	"github.com/yacobolo/bosscss/internal/report"
)

var compileCmd = &cobra.Command{
	Use:   "compile <file>",
	Short: "Compile one source file and print the result",
	Long: `Compile a single JSX/TSX or markup file on its own and print the compiled
code, or the CSS it produces with --css. Prepared components from other files
are not known.`,
	Args: cobra.ExactArgs(1),
	PreRunE: func(cmd *cobra.Command, _ []string) error {
		return loadConfig(cmd)
	},
	RunE: runCompile,
}

func init() {
	addRenderFlags(compileCmd)
	compileCmd.Flags().Bool("css", false, "Print the generated CSS instead of the compiled code")
}

func runCompile(cmd *cobra.Command, args []string) error {
	config, err := buildConfig()
	if err != nil {
		return err
	}
	log, err := newLogger()
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	path := args[0]
	src, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	var (
		code     string
		cssText  string
		warnings []report.Warning
	)
	if bosscss.KindOf(path) == bosscss.KindScript {
		res, text, err := bosscss.CompileSource(cmd.Context(), config, src, path, log)
		if err != nil {
			return err
		}
		code, cssText, warnings = res.Code, text, res.Warnings
	} else {
		// markup passes through unchanged, only its class attributes count
		text, ws, err := bosscss.ParseClassNames(cmd.Context(), config, string(src), log)
		if err != nil {
			return err
		}
		code, cssText, warnings = string(src), text, ws
	}

	if len(warnings) > 0 && !getBoolWithFallback("quiet", "quiet", false) {
		reporter := report.NewReporter(cmd.ErrOrStderr(), reportOptions())
		reporter.PrintWarnings(warnings)
	}

	out := cmd.OutOrStdout()
	if css, _ := cmd.Flags().GetBool("css"); css {
		fmt.Fprintln(out, cssText)
		return nil
	}
	fmt.Fprint(out, code)
	if !strings.HasSuffix(code, "\n") {
		fmt.Fprintln(out)
	}
	return nil
}
