// Package di provides dependency injection configuration for the
// fileops command-line tools.
package di

import (
	"github.com/samber/do/v2"

	"github.com/simonhull/fileops/internal/config"
	"github.com/simonhull/fileops/internal/logger"
	"github.com/simonhull/fileops/operations"
	"github.com/simonhull/fileops/quality"
	"github.com/simonhull/fileops/watch"
)

// NewContainer creates a DI container wired for the given command-line
// values. Commands invoke only the services they need; unused providers
// are never constructed.
func NewContainer(flags config.Flags) *do.RootScope {
	injector := do.New()

	do.ProvideValue(injector, flags)

	do.Provide(injector, ProvideConfig)
	do.Provide(injector, ProvideLogger)
	do.Provide(injector, ProvideDetector)
	do.Provide(injector, ProvideAnalyzer)
	do.Provide(injector, ProvideBridge)

	return injector
}

// ProvideConfig loads tool configuration from flags, env, and .env.
func ProvideConfig(i do.Injector) (*config.Config, error) {
	flags := do.MustInvoke[config.Flags](i)
	return config.Load(flags)
}

// ProvideLogger provides the structured logger.
func ProvideLogger(i do.Injector) (*logger.Logger, error) {
	cfg := do.MustInvoke[*config.Config](i)
	return logger.New(logger.Config{
		Level:  logger.ParseLevel(cfg.Logger.Level),
		Format: cfg.Logger.Format,
	}), nil
}

// ProvideDetector provides a detector built from the configured options.
func ProvideDetector(i do.Injector) (*operations.Detector, error) {
	cfg := do.MustInvoke[*config.Config](i)
	return operations.NewDetector(cfg.DetectorOptions())
}

// ProvideAnalyzer provides a quality analyzer around the detector.
func ProvideAnalyzer(i do.Injector) (*quality.Analyzer, error) {
	detector := do.MustInvoke[*operations.Detector](i)
	return quality.NewAnalyzer(detector), nil
}

// ProvideBridge provides the filesystem watch bridge.
func ProvideBridge(i do.Injector) (*watch.Bridge, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	return watch.New(log.Logger, watch.Options{
		IgnorePatterns: cfg.Watch.IgnorePatterns,
		IgnoreHidden:   cfg.Watch.IgnoreHidden,
	})
}
