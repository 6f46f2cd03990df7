package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/aevon-lab/statsum/internal/aggregation"
	corecfg "github.com/aevon-lab/statsum/internal/core/config"
	"github.com/aevon-lab/statsum/internal/ingestion"
	"github.com/aevon-lab/statsum/internal/projection"
	"github.com/google/uuid"
)

func main() {
	configPath := flag.String("config", "statsum.yaml", "Path to configuration file")
	inputPath := flag.String("input", "", "JSON-lines input file, \"-\" for stdin (overrides input.path)")
	flag.Parse()

	// 0. Initialize Logger. Stdout carries the report, so logs go to stderr.
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	// 1. Load Configuration
	cfg, err := corecfg.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	if *inputPath != "" {
		cfg.Input.Path = *inputPath
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.Log.SlogLevel()})).
		With("run_id", uuid.NewString())
	slog.SetDefault(logger)
	slog.Info("Loaded config",
		"input", cfg.Input.Path,
		"rules", len(cfg.RuleLoading.Rules),
		"shards", cfg.Aggregation.Shards,
		"reduce", cfg.Aggregation.Reduce,
		"granularity", cfg.Report.Granularity,
	)

	// 2. Cancel on signal
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Open input
	in, closeIn, err := openInput(cfg.Input.Path)
	if err != nil {
		slog.Error("Failed to open input", "path", cfg.Input.Path, "error", err)
		os.Exit(1)
	}
	defer closeIn()

	if err := run(ctx, cfg, in, os.Stdout); err != nil {
		slog.Error("Run failed", "error", err)
		os.Exit(1)
	}
}

// run decodes records from in, aggregates them and writes the report to out.
func run(ctx context.Context, cfg *corecfg.Config, in io.Reader, out io.Writer) error {
	granularity, err := projection.ParseGranularity(cfg.Report.Granularity)
	if err != nil {
		return err
	}

	decoded, err := ingestion.NewService(cfg.Input.MaxLineKB, cfg.Input.SkipInvalid).Decode(ctx, in)
	if err != nil {
		return fmt.Errorf("decode input: %w", err)
	}
	if len(decoded.Rejected) > 0 {
		slog.Warn("[Ingestion] Rejected records", "count", len(decoded.Rejected))
	}

	table, err := aggregation.Run(ctx, decoded.Records, cfg.RuleLoading.Rules, cfg.Aggregation.Options())
	if err != nil {
		return err
	}

	rows := projection.Rows(projection.Rollup(table, granularity))
	if err := projection.WriteYAML(out, rows); err != nil {
		return err
	}

	slog.Info("Report written", "records", len(decoded.Records), "rows", len(rows))
	return nil
}

func openInput(path string) (io.Reader, func(), error) {
	if path == "-" {
		return os.Stdin, func() {}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	return f, func() { _ = f.Close() }, nil
}
