package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go-scrape-clubs/config"
	"go-scrape-clubs/pipeline"
	"go-scrape-clubs/render"
	"go-scrape-clubs/scraper"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	defaultCfg := config.SecondPassConfig()
	concurrencyDefault := defaultCfg.Concurrency
	if value, ok, err := config.EnvInt("SCRAPER_CONCURRENCY"); err != nil {
		fmt.Fprintf(os.Stderr, "invalid SCRAPER_CONCURRENCY: %v\n", err)
		os.Exit(1)
	} else if ok {
		concurrencyDefault = value
	}
	checkpointDefault := defaultCfg.CheckpointFile
	if value, ok := config.EnvString("SCRAPER_CHECKPOINT"); ok {
		checkpointDefault = value
	}

	input := flag.String("input", "", "Input record file from the discovery pass")
	output := flag.String("output", "", "Output path for the reconciled records")
	checkpointPath := flag.String("checkpoint", checkpointDefault, "Checkpoint file path")
	concurrency := flag.Int("concurrency", concurrencyDefault, "Maximum concurrent detail page fetches")
	batchSize := flag.Int("batch-size", defaultCfg.BatchSize, "Records per checkpoint batch")
	retries := flag.Int("retries", defaultCfg.NavRetries, "Navigation attempts per page")
	retryDelay := flag.Duration("retry-delay", defaultCfg.RetryDelay, "Fixed delay between navigation attempts")
	pageTimeout := flag.Duration("timeout", defaultCfg.PageTimeout, "Page load timeout")
	metricsAddr := flag.String("metrics-addr", defaultCfg.MetricsAddr, "Prometheus metrics listen address (e.g. :9090)")
	verbose := flag.Bool("v", false, "Enable verbose logging")

	flag.Parse()

	logger, level := newLogger(*verbose)
	logger = logger.With(slog.String("run_id", uuid.NewString()))
	slog.SetDefault(logger)
	slog.SetLogLoggerLevel(level.Level())

	if *input == "" || *output == "" {
		slog.Error("both -input and -output are required")
		os.Exit(1)
	}

	cfg := config.SecondPassConfig()
	cfg.OutputFile = *output
	cfg.CheckpointFile = *checkpointPath
	cfg.Concurrency = *concurrency
	cfg.BatchSize = *batchSize
	cfg.NavRetries = *retries
	cfg.RetryDelay = *retryDelay
	cfg.PageTimeout = *pageTimeout
	cfg.MetricsAddr = *metricsAddr
	cfg.Verbose = *verbose
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", slog.Any("error", err))
		os.Exit(1)
	}

	original, err := pipeline.ReadRecords(*input)
	if err != nil {
		slog.Error("reading input file", slog.String("input", *input), slog.Any("error", err))
		os.Exit(1)
	}

	store := pipeline.NewStore(cfg.CheckpointFile)
	prior, err := store.Load()
	if err != nil {
		slog.Error("loading checkpoint", slog.String("checkpoint", cfg.CheckpointFile), slog.Any("error", err))
		os.Exit(1)
	}
	pending := pipeline.Pending(original, prior)
	slog.Info("resume state",
		slog.Int("input_records", len(original)),
		slog.Int("checkpointed", len(prior)),
		slog.Int("pending", len(pending)),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics := scraper.NewMetrics()
	var metricsServer *http.Server
	if cfg.MetricsAddr != "" {
		metricsServer = &http.Server{
			Addr:    cfg.MetricsAddr,
			Handler: promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}),
		}
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("metrics server failed", slog.Any("error", err))
			}
		}()
	}

	renderer, err := render.NewStatic(render.StaticOptions{
		Timeout:   cfg.PageTimeout,
		UserAgent: cfg.UserAgent,
	})
	if err != nil {
		slog.Error("initialising renderer", slog.Any("error", err))
		os.Exit(1)
	}
	defer renderer.Close()

	startTime := time.Now()
	checkpointWriter := pipeline.NewCheckpointWriter(store, prior)
	pool := scraper.NewPool(renderer, cfg, metrics, slog.Default())
	fresh, err := pool.Run(ctx, pending, checkpointWriter)
	if err != nil {
		// Checkpoint write failures and cancellation are fatal; item
		// failures are not, they just leave fields blank.
		slog.Error("second pass aborted", slog.Any("error", err))
		os.Exit(1)
	}

	final := pipeline.Merge(original, prior, pipeline.ByURL(fresh))

	writer, err := pipeline.NewCSVWriter(cfg.OutputFile)
	if err != nil {
		slog.Error("creating output writer", slog.Any("error", err))
		os.Exit(1)
	}
	if err := writer.Write(final); err != nil {
		slog.Error("writing output", slog.Any("error", err))
		os.Exit(1)
	}
	if err := writer.Close(); err != nil {
		slog.Error("closing output", slog.Any("error", err))
		os.Exit(1)
	}

	if metricsServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("metrics server shutdown failed", slog.Any("error", err))
		}
		cancel()
	}

	complete := 0
	for _, rec := range final {
		if rec.Complete() {
			complete++
		}
	}
	slog.Info("second pass complete",
		slog.Int("records", len(final)),
		slog.Int("complete", complete),
		slog.Int("refetched", len(fresh)),
		slog.String("output", cfg.OutputFile),
		slog.Duration("duration", time.Since(startTime)),
	)
}

func newLogger(verbose bool) (*slog.Logger, *slog.LevelVar) {
	level := &slog.LevelVar{}
	if verbose {
		level.Set(slog.LevelDebug)
	} else {
		level.Set(slog.LevelInfo)
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if isTerminal(os.Stdout) {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return slog.New(handler), level
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
