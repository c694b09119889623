package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simonhull/fileops/operations"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(Flags{EnvFile: "/nonexistent/.env"})
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Logger.Level)
	assert.Equal(t, "pretty", cfg.Logger.Format)
	assert.Equal(t, operations.DefaultTimeWindow, cfg.Detector.TimeWindow)
	assert.Equal(t, 0.0, cfg.Detector.MinConfidence)
	assert.Equal(t, operations.DefaultBatchThreshold, cfg.Detector.BatchThreshold)
	assert.False(t, cfg.Watch.IgnoreHidden)
}

func TestLoad_FlagsWin(t *testing.T) {
	t.Setenv("FILEOPS_LOG_LEVEL", "error")
	t.Setenv("FILEOPS_TIME_WINDOW", "2s")

	cfg, err := Load(Flags{
		LogLevel:   "debug",
		TimeWindow: "250ms",
		EnvFile:    "/nonexistent/.env",
	})
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Logger.Level)
	assert.Equal(t, 250*time.Millisecond, cfg.Detector.TimeWindow)
}

func TestLoad_EnvironmentFallback(t *testing.T) {
	t.Setenv("FILEOPS_MIN_CONFIDENCE", "0.7")
	t.Setenv("FILEOPS_BATCH_THRESHOLD", "5")
	t.Setenv("FILEOPS_IGNORE_PATTERNS", "*.log,*.cache")

	cfg, err := Load(Flags{EnvFile: "/nonexistent/.env"})
	require.NoError(t, err)

	assert.Equal(t, 0.7, cfg.Detector.MinConfidence)
	assert.Equal(t, 5, cfg.Detector.BatchThreshold)
	assert.Equal(t, []string{"*.log", "*.cache"}, cfg.Watch.IgnorePatterns)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		flags Flags
	}{
		{"bad duration", Flags{TimeWindow: "soon"}},
		{"bad confidence", Flags{MinConfidence: "lots"}},
		{"confidence out of range", Flags{MinConfidence: "1.5"}},
		{"bad log level", Flags{LogLevel: "loud"}},
		{"bad log format", Flags{LogFormat: "xml"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.flags.EnvFile = "/nonexistent/.env"
			_, err := Load(tt.flags)
			assert.Error(t, err)
		})
	}
}

func TestDetectorOptions(t *testing.T) {
	cfg := &Config{
		Detector: DetectorConfig{
			TimeWindow:     time.Second,
			MinConfidence:  0.5,
			BatchThreshold: 4,
		},
	}

	opts := cfg.DetectorOptions()
	assert.Equal(t, time.Second, opts.TimeWindow)
	assert.Equal(t, 0.5, opts.MinConfidence)
	assert.Equal(t, 4, opts.BatchThreshold)
}

func TestLoadEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	content := "# comment\nFILEOPS_TEST_KEY=hello\nFILEOPS_TEST_QUOTED=\"world\"\nmalformed line\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	t.Cleanup(func() {
		os.Unsetenv("FILEOPS_TEST_KEY")
		os.Unsetenv("FILEOPS_TEST_QUOTED")
	})

	require.NoError(t, loadEnvFile(path))

	assert.Equal(t, "hello", os.Getenv("FILEOPS_TEST_KEY"))
	assert.Equal(t, "world", os.Getenv("FILEOPS_TEST_QUOTED"))
}
