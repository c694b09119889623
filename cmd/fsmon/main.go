// Command fsmon watches a directory tree and prints the semantic file
// operations inferred from its raw filesystem events.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/samber/do/v2"

	"github.com/simonhull/fileops/internal/config"
	"github.com/simonhull/fileops/internal/di"
	"github.com/simonhull/fileops/internal/logger"
	"github.com/simonhull/fileops/operations"
	"github.com/simonhull/fileops/watch"
)

func main() {
	fs := flag.NewFlagSet("fsmon", flag.ExitOnError)
	logLevel := fs.String("log-level", "", "Log level (debug, info, warn, error)")
	logFormat := fs.String("log-format", "", "Log format (json, pretty)")
	timeWindow := fs.String("time-window", "", "Detection window (e.g. 500ms)")
	minConfidence := fs.String("min-confidence", "", "Drop operations scoring below this [0,1]")
	batchThreshold := fs.String("batch-threshold", "", "Minimum group size for batch updates")
	ignorePatterns := fs.String("ignore", "", "Comma-separated glob patterns to ignore")
	ignoreHidden := fs.String("ignore-hidden", "", "Ignore dot-prefixed paths (true/false)")
	envFile := fs.String("env-file", ".env", "Path to .env file")
	_ = fs.Parse(os.Args[1:])

	if fs.NArg() < 1 {
		fmt.Println("Usage: fsmon [flags] <path>")
		os.Exit(1)
	}
	path := fs.Arg(0)

	injector := di.NewContainer(config.Flags{
		LogLevel:       *logLevel,
		LogFormat:      *logFormat,
		TimeWindow:     *timeWindow,
		MinConfidence:  *minConfidence,
		BatchThreshold: *batchThreshold,
		IgnorePatterns: *ignorePatterns,
		IgnoreHidden:   *ignoreHidden,
		EnvFile:        *envFile,
	})
	defer injector.Shutdown()

	log, err := do.Invoke[*logger.Logger](injector)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize: %v\n", err)
		os.Exit(1)
	}

	cfg := do.MustInvoke[*config.Config](injector)
	bridge := do.MustInvoke[*watch.Bridge](injector)

	handler, err := operations.NewAutoFlushHandler(cfg.DetectorOptions(), log.Logger, printOperation)
	if err != nil {
		log.Error("failed to create handler", "error", err)
		os.Exit(1)
	}

	if err := bridge.Watch(path); err != nil {
		log.Error("failed to watch path", "path", path, "error", err)
		os.Exit(1)
	}

	if err := handler.Start(); err != nil {
		log.Error("failed to start handler", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	go bridge.Start(ctx)
	go watch.Pipe(ctx, bridge, handler)
	go func() {
		for err := range bridge.Errors() {
			log.Warn("watcher error", "error", err)
		}
	}()

	log.Info("watching for file operations", "path", path,
		"window", cfg.Detector.TimeWindow, "min_confidence", cfg.Detector.MinConfidence)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	cancel()

	// Deliver whatever is still pending before exiting.
	delivered := handler.Flush()
	if delivered > 0 {
		log.Info("flushed pending operations", "count", delivered)
	}
	if failed := handler.FailedOperationsCount(); failed > 0 {
		log.Warn("operations could not be delivered", "count", failed)
	}

	if err := handler.Stop(); err != nil {
		log.Error("handler stop failed", "error", err)
	}
	if err := bridge.Stop(); err != nil {
		log.Error("bridge stop failed", "error", err)
	}
}

// printOperation is the delivery callback: one line per inferred operation.
func printOperation(op operations.Operation) error {
	fmt.Printf("[%s] %s (confidence %.2f, %d events, %s)\n",
		op.Type, op.PrimaryPath, op.Confidence, op.EventCount(),
		op.EndTime.Sub(op.StartTime))
	return nil
}
