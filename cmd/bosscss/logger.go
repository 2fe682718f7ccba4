package main

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/yacobolo/bosscss/internal/report"
)

// newLogger builds the console logger: info by default, debug with
// --verbose, nothing with --quiet. Logs go to stderr so reports and
// compiled output on stdout stay clean.
func newLogger() (*zap.Logger, error) {
	if getBoolWithFallback("quiet", "quiet", false) {
		return zap.NewNop(), nil
	}

	level := zapcore.InfoLevel
	if getBoolWithFallback("verbose", "verbose", false) {
		level = zapcore.DebugLevel
	}

	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(level)
	cfg.DisableStacktrace = true
	cfg.DisableCaller = level != zapcore.DebugLevel
	cfg.EncoderConfig.TimeKey = zapcore.OmitKey
	if report.ShouldUseColors(getBoolWithFallback("color", "color", false)) {
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	log, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return log.Named("bosscss"), nil
}
