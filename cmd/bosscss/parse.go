package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/yacobolo/bosscss"
	"github.com/yacobolo/bosscss/internal/report"
)

var parseCmd = &cobra.Command{
	Use:   "parse <classNames>...",
	Short: "Print the CSS for className tokens",
	Long: `Parse className tokens such as "hover:color:blue mobile:padding:8" and
print the CSS rules they produce.`,
	Example: `  bosscss parse "hover:color:blue" display:flex`,
	Args:    cobra.MinimumNArgs(1),
	PreRunE: func(cmd *cobra.Command, _ []string) error {
		return loadConfig(cmd)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		config, err := buildConfig()
		if err != nil {
			return err
		}
		log, err := newLogger()
		if err != nil {
			return fmt.Errorf("create logger: %w", err)
		}
		defer func() { _ = log.Sync() }()

		cssText, warnings, err := bosscss.ParseClassNames(cmd.Context(), config, strings.Join(args, " "), log)
		if err != nil {
			return err
		}
		if len(warnings) > 0 && !getBoolWithFallback("quiet", "quiet", false) {
			report.NewReporter(cmd.ErrOrStderr(), reportOptions()).PrintWarnings(warnings)
		}
		fmt.Fprintln(cmd.OutOrStdout(), cssText)
		return nil
	},
}

func init() {
	addRenderFlags(parseCmd)
}
