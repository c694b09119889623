// Command opsqual runs the built-in detection scenarios through the
// operation detector and prints a quality report.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/samber/do/v2"

	"github.com/simonhull/fileops/internal/config"
	"github.com/simonhull/fileops/internal/di"
	"github.com/simonhull/fileops/internal/logger"
	"github.com/simonhull/fileops/quality"
)

func main() {
	fs := flag.NewFlagSet("opsqual", flag.ExitOnError)
	logLevel := fs.String("log-level", "", "Log level (debug, info, warn, error)")
	logFormat := fs.String("log-format", "", "Log format (json, pretty)")
	timeWindow := fs.String("time-window", "", "Detection window (e.g. 500ms)")
	minConfidence := fs.String("min-confidence", "", "Drop operations scoring below this [0,1]")
	batchThreshold := fs.String("batch-threshold", "", "Minimum group size for batch updates")
	envFile := fs.String("env-file", ".env", "Path to .env file")
	_ = fs.Parse(os.Args[1:])

	injector := di.NewContainer(config.Flags{
		LogLevel:       *logLevel,
		LogFormat:      *logFormat,
		TimeWindow:     *timeWindow,
		MinConfidence:  *minConfidence,
		BatchThreshold: *batchThreshold,
		EnvFile:        *envFile,
	})
	defer injector.Shutdown()

	log, err := do.Invoke[*logger.Logger](injector)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize: %v\n", err)
		os.Exit(1)
	}

	analyzer := do.MustInvoke[*quality.Analyzer](injector)

	scenarios := quality.StandardScenarios()
	for _, s := range scenarios {
		analyzer.AddScenario(s)
		log.Debug("added scenario", "name", s.Name, "events", len(s.Events))
	}
	log.Info("running analysis", "scenarios", len(scenarios), "metrics", len(quality.AllMetrics()))

	results, err := analyzer.RunAnalysis(nil)
	if err != nil {
		log.Error("analysis failed", "error", err)
		os.Exit(1)
	}

	fmt.Println(analyzer.GenerateReport(results))
}
