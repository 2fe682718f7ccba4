package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/yacobolo/bosscss"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Rebuild the stylesheets whenever content changes",
	Long: `Run a full build, then watch the project root and rebuild only the files
that changed. Press Ctrl+C to stop.`,
	PreRunE: func(cmd *cobra.Command, _ []string) error {
		return loadConfig(cmd)
	},
	RunE: runWatch,
}

func init() {
	addBuildFlags(watchCmd)
}

func runWatch(cmd *cobra.Command, _ []string) error {
	config, err := buildConfig()
	if err != nil {
		return err
	}
	log, err := newLogger()
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	quiet := getBoolWithFallback("quiet", "quiet", false)
	opts := reportOptions()

	err = bosscss.Watch(ctx, config, log, func(result *bosscss.BuildResult, err error) {
		if err != nil {
			log.Error("build failed", zap.Error(err))
		}
		if result != nil && !quiet {
			bosscss.WriteOutput(os.Stdout, result, bosscss.OutputIssues, opts)
		}
	})
	if err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}
