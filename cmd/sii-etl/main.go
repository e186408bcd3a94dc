// Command sii-etl runs the SII empresas batch pipeline: extract the raw
// registry csv, transform it into the canonical schema, validate data
// quality and load the result to the configured destinations.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/ObservaLosRios/sii-empresas-etl/internal/config"
	"github.com/ObservaLosRios/sii-empresas-etl/internal/etl"
	"github.com/ObservaLosRios/sii-empresas-etl/internal/logging"
	"github.com/ObservaLosRios/sii-empresas-etl/internal/metrics"
)

// Exit codes: 0 clean completion, 1 completed with warnings or partially,
// 2 run failed, 3 startup error.
const (
	exitOK       = 0
	exitWarnings = 1
	exitFailed   = 2
	exitStartup  = 3
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		configPath        = flag.String("config", "config/etl_config.yaml", "path to the YAML configuration")
		inputFile         = flag.String("input", "", "input csv, overrides data.raw_path")
		noValidate        = flag.Bool("no-validate", false, "skip the validation stage")
		saveIntermediates = flag.Bool("save-intermediates", false, "write raw and transformed snapshots plus the quality report")
		extractOnly       = flag.Bool("extract-only", false, "extract the source and print its shape, then exit")
		transformOnly     = flag.Bool("transform-only", false, "extract and transform, print the result shape, then exit")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		return exitStartup
	}

	logging.Setup(logging.Config{
		Format: cfg.Logging.Format,
		Level:  cfg.Logging.Level,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Metrics.Enabled {
		metrics.Init()
		metrics.Serve(cfg.Metrics.ListenAddr)
		slog.Info("metrics endpoint started", "addr", cfg.Metrics.ListenAddr)
	}

	pipeline, err := etl.New(cfg)
	if err != nil {
		slog.Error("pipeline construction failed", "error", err)
		return exitStartup
	}
	defer pipeline.Close()

	if *extractOnly || *transformOnly {
		t, err := pipeline.RunExtract(ctx, *inputFile)
		if err != nil {
			slog.Error("extraction failed", "error", err)
			return exitFailed
		}
		if *transformOnly {
			if t, err = pipeline.RunTransform(t); err != nil {
				slog.Error("transformation failed", "error", err)
				return exitFailed
			}
			fmt.Printf("transformed %d rows, %d columns\n", len(t.Rows), len(t.Columns))
			return exitOK
		}
		fmt.Printf("extracted %d rows, %d columns\n", len(t.Rows), len(t.Columns))
		return exitOK
	}

	result, err := pipeline.Run(ctx, etl.RunOptions{
		InputFile:         *inputFile,
		Validate:          !*noValidate,
		SaveIntermediates: *saveIntermediates,
	})
	if err != nil {
		return exitFailed
	}

	switch result.Metadata.Status {
	case etl.StatusCompleted:
		return exitOK
	case etl.StatusCompletedWithWarnings, etl.StatusPartiallyCompleted:
		return exitWarnings
	default:
		return exitFailed
	}
}
