// Package config provides configuration for the fileops command-line
// tools with support for environment variables, command-line flags,
// and .env files.
package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/simonhull/fileops/operations"
)

// Config holds the tool configuration.
type Config struct {
	Logger   LoggerConfig
	Detector DetectorConfig
	Watch    WatchConfig
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level  string
	Format string // "json" or "pretty"
}

// DetectorConfig holds operation detection configuration.
type DetectorConfig struct {
	TimeWindow     time.Duration
	MinConfidence  float64
	BatchThreshold int
}

// WatchConfig holds filesystem monitoring configuration.
type WatchConfig struct {
	IgnorePatterns []string
	IgnoreHidden   bool
}

// Flags carries pre-parsed command-line values. Each command defines
// its own flag set and hands the results here, so config stays free of
// global flag state.
type Flags struct {
	LogLevel       string
	LogFormat      string
	TimeWindow     string
	MinConfidence  string
	BatchThreshold string
	IgnorePatterns string
	IgnoreHidden   string
	EnvFile        string
}

// Load builds configuration with precedence: flags, then environment
// variables, then the .env file, then defaults.
func Load(flags Flags) (*Config, error) {
	envFile := flags.EnvFile
	if envFile == "" {
		envFile = ".env"
	}
	// Missing .env files are fine.
	_ = loadEnvFile(envFile)

	cfg := &Config{
		Logger: LoggerConfig{
			Level:  getConfigValue(flags.LogLevel, "FILEOPS_LOG_LEVEL", "info"),
			Format: getConfigValue(flags.LogFormat, "FILEOPS_LOG_FORMAT", "pretty"),
		},
		Watch: WatchConfig{
			IgnoreHidden: getBoolConfigValue(flags.IgnoreHidden, "FILEOPS_IGNORE_HIDDEN", false),
		},
	}

	if patterns := getConfigValue(flags.IgnorePatterns, "FILEOPS_IGNORE_PATTERNS", ""); patterns != "" {
		cfg.Watch.IgnorePatterns = strings.Split(patterns, ",")
	}

	windowStr := getConfigValue(flags.TimeWindow, "FILEOPS_TIME_WINDOW", operations.DefaultTimeWindow.String())
	window, err := time.ParseDuration(windowStr)
	if err != nil {
		return nil, fmt.Errorf("invalid time window %q: %w", windowStr, err)
	}
	cfg.Detector.TimeWindow = window

	confidenceStr := getConfigValue(flags.MinConfidence, "FILEOPS_MIN_CONFIDENCE", "0")
	confidence, err := strconv.ParseFloat(confidenceStr, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid min confidence %q: %w", confidenceStr, err)
	}
	cfg.Detector.MinConfidence = confidence

	cfg.Detector.BatchThreshold = getIntConfigValue(flags.BatchThreshold, "FILEOPS_BATCH_THRESHOLD", operations.DefaultBatchThreshold)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// Validate checks that all config values are valid.
func (c *Config) Validate() error {
	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[strings.ToLower(c.Logger.Level)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if c.Logger.Format != "json" && c.Logger.Format != "pretty" {
		return fmt.Errorf("invalid log format: %s (must be json or pretty)", c.Logger.Format)
	}

	if c.Detector.TimeWindow < 0 {
		return fmt.Errorf("time window must not be negative: %s", c.Detector.TimeWindow)
	}
	if c.Detector.MinConfidence < 0 || c.Detector.MinConfidence > 1 {
		return fmt.Errorf("min confidence must be in [0, 1]: %g", c.Detector.MinConfidence)
	}
	if c.Detector.BatchThreshold < 0 {
		return fmt.Errorf("batch threshold must not be negative: %d", c.Detector.BatchThreshold)
	}

	return nil
}

// DetectorOptions converts the detector section to an operations.Config.
func (c *Config) DetectorOptions() operations.Config {
	return operations.Config{
		TimeWindow:     c.Detector.TimeWindow,
		MinConfidence:  c.Detector.MinConfidence,
		BatchThreshold: c.Detector.BatchThreshold,
	}
}

// getConfigValue returns the flag value, environment variable, or
// default, in that order of precedence.
func getConfigValue(flagValue, envKey, defaultValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if envValue := os.Getenv(envKey); envValue != "" {
		return envValue
	}
	return defaultValue
}

func getBoolConfigValue(flagValue, envKey string, defaultValue bool) bool {
	str := getConfigValue(flagValue, envKey, "")
	if str == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(str)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func getIntConfigValue(flagValue, envKey string, defaultValue int) int {
	str := getConfigValue(flagValue, envKey, "")
	if str == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(str)
	if err != nil {
		return defaultValue
	}
	return parsed
}

// loadEnvFile reads KEY=VALUE lines into the process environment,
// without overriding variables that are already set.
func loadEnvFile(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, found := strings.Cut(line, "=")
		if !found {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.Trim(strings.TrimSpace(value), `"'`)
		if _, exists := os.LookupEnv(key); !exists {
			os.Setenv(key, value)
		}
	}
	return scanner.Err()
}
