package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/yacobolo/bosscss"
	"github.com/yacobolo/bosscss/internal/query"
)

var k = koanf.New(".")

// loadConfig loads configuration with precedence: flags > env > file > defaults.
// It must be called after cobra parses flags (in PreRunE or RunE).
func loadConfig(cmd *cobra.Command) error {
	configPath, _ := cmd.Flags().GetString("config")
	if configPath == "" {
		configPath = ".bosscss.yaml"
	}

	if err := loadConfigFromPath(configPath); err != nil {
		return err
	}

	// 3. CLI flags (highest precedence). Only flags that were explicitly set
	// are loaded so flag defaults never mask the config file.
	flags := cmd.Flags()
	if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
		if !f.Changed {
			return "", nil
		}
		return f.Name, posflag.FlagVal(flags, f)
	}), nil); err != nil {
		return fmt.Errorf("loading command flags: %w", err)
	}

	return nil
}

// loadConfigFromPath loads configuration from a file and environment variables.
// This is separated from loadConfig to allow testing without a cobra command.
func loadConfigFromPath(configPath string) error {
	// 1. Config file (lowest precedence among providers)
	if _, err := os.Stat(configPath); err == nil {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return fmt.Errorf("loading config file %s: %w", configPath, err)
		}
	}

	// 2. Environment variables (BOSSCSS_* prefix)
	if err := k.Load(env.Provider("BOSSCSS_", ".", envKey), nil); err != nil {
		return fmt.Errorf("loading environment variables: %w", err)
	}

	return nil
}

// envKey maps an environment variable onto a config key:
//
//	BOSSCSS_OUT_DIR          -> out-dir
//	BOSSCSS_COMPILE__SPREAD  -> compile.spread
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, "BOSSCSS_"))
	s = strings.ReplaceAll(s, "__", ".")
	return strings.ReplaceAll(s, "_", "-")
}

// buildConfig constructs the library's Config struct from koanf state.
func buildConfig() (bosscss.Config, error) {
	d := bosscss.DefaultConfig()
	config := bosscss.Config{
		Root:              getStringWithFallback("root", "root", d.Root),
		Content:           getStringsWithFallback("content", "content", d.Content),
		Ignore:            getStringsWithFallback("ignore", "ignore", nil),
		Output:            getStringWithFallback("output", "output", d.Output),
		OutDir:            getStringWithFallback("out-dir", "out-dir", ""),
		Prefix:            getStringWithFallback("prefix", "prefix", ""),
		Unit:              getStringWithFallback("unit", "unit", d.Unit),
		Strategy:          getStringWithFallback("strategy", "strategy", d.Strategy),
		ClassNameStrategy: getStringWithFallback("classname-strategy", "classname-strategy", ""),
		Criticality:       getIntWithFallback("criticality", "criticality", d.Criticality),
		Concurrency:       getIntWithFallback("concurrency", "concurrency", d.Concurrency),
		TokensFile:        getStringWithFallback("tokens", "tokens", ""),
		Marker:            getStringWithFallback("marker", "compile.marker", d.Marker),
		RuntimeModule:     getStringWithFallback("runtime-module", "runtime-module", d.RuntimeModule),
		Spread:            getBoolWithFallback("spread", "compile.spread", d.Spread),
		Prepared:          getBoolWithFallback("prepared", "compile.prepared", d.Prepared),
	}

	// Configured breakpoints extend the built-in table
	if names := k.MapKeys("breakpoints"); len(names) > 0 {
		config.Breakpoints = query.DefaultBreakpoints()
		for _, name := range names {
			b, err := query.ParseBounds(k.Get("breakpoints." + name))
			if err != nil {
				return config, fmt.Errorf("breakpoint %s: %w", name, err)
			}
			config.Breakpoints[name] = b
		}
	}

	return config, nil
}

// getStringWithFallback checks the flag key first, then the config file key, then returns the default.
func getStringWithFallback(flagKey, configKey, defaultVal string) string {
	if v := k.String(flagKey); v != "" {
		return v
	}
	if v := k.String(configKey); v != "" {
		return v
	}
	return defaultVal
}

// getStringsWithFallback is getStringWithFallback for lists. A plain string,
// as set from the environment, is split on commas.
func getStringsWithFallback(flagKey, configKey string, defaultVal []string) []string {
	for _, key := range []string{flagKey, configKey} {
		if v, ok := k.Get(key).(string); ok && v != "" {
			return splitList(v)
		}
		if v := k.Strings(key); len(v) > 0 {
			return v
		}
	}
	return defaultVal
}

// getBoolWithFallback checks the flag key first, then the config file key, then returns the default.
func getBoolWithFallback(flagKey, configKey string, defaultVal bool) bool {
	if k.Exists(flagKey) {
		return k.Bool(flagKey)
	}
	if k.Exists(configKey) {
		return k.Bool(configKey)
	}
	return defaultVal
}

// getIntWithFallback checks the flag key first, then the config file key, then returns the default.
func getIntWithFallback(flagKey, configKey string, defaultVal int) int {
	if k.Exists(flagKey) {
		return k.Int(flagKey)
	}
	if k.Exists(configKey) {
		return k.Int(configKey)
	}
	return defaultVal
}

// splitList splits comma-separated values into a slice
func splitList(s string) []string {
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
