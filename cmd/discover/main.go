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
	"strings"
	"sync"
	"syscall"
	"time"

	"go-scrape-clubs/config"
	"go-scrape-clubs/models"
	"go-scrape-clubs/pipeline"
	"go-scrape-clubs/render"
	"go-scrape-clubs/scraper"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	defaultCfg := config.DefaultConfig()
	concurrencyDefault := defaultCfg.Concurrency
	if value, ok, err := config.EnvInt("SCRAPER_CONCURRENCY"); err != nil {
		fmt.Fprintf(os.Stderr, "invalid SCRAPER_CONCURRENCY: %v\n", err)
		os.Exit(1)
	} else if ok {
		concurrencyDefault = value
	}
	batchDefault := defaultCfg.BatchSize
	if value, ok, err := config.EnvInt("SCRAPER_BATCH_SIZE"); err != nil {
		fmt.Fprintf(os.Stderr, "invalid SCRAPER_BATCH_SIZE: %v\n", err)
		os.Exit(1)
	} else if ok {
		batchDefault = value
	}
	retryDelayDefault := defaultCfg.RetryDelay
	if value, ok, err := config.EnvDuration("SCRAPER_RETRY_DELAY"); err != nil {
		fmt.Fprintf(os.Stderr, "invalid SCRAPER_RETRY_DELAY: %v\n", err)
		os.Exit(1)
	} else if ok {
		retryDelayDefault = value
	}
	metricsDefault := defaultCfg.MetricsAddr
	if value, ok := config.EnvString("SCRAPER_METRICS_ADDR"); ok {
		metricsDefault = value
	}

	startURLs := flag.String("start-urls", "", "Comma-separated listing start URLs (one pipeline per URL)")
	outputs := flag.String("outputs", "", "Comma-separated output paths, one per start URL")
	format := flag.String("format", defaultCfg.OutputFormat, "Output format: csv, json, or dual")
	concurrency := flag.Int("concurrency", concurrencyDefault, "Maximum concurrent detail page fetches")
	batchSize := flag.Int("batch-size", batchDefault, "Records per checkpoint batch")
	retries := flag.Int("retries", defaultCfg.NavRetries, "Navigation attempts per page")
	retryDelay := flag.Duration("retry-delay", retryDelayDefault, "Fixed delay between navigation attempts")
	pageTimeout := flag.Duration("timeout", defaultCfg.PageTimeout, "Page load timeout")
	maxPages := flag.Int("max-pages", defaultCfg.MaxPages, "Listing pagination ceiling")
	metricsAddr := flag.String("metrics-addr", metricsDefault, "Prometheus metrics listen address (e.g. :9090)")
	verbose := flag.Bool("v", false, "Enable verbose logging")

	flag.Parse()

	logger, level := newLogger(*verbose)
	logger = logger.With(slog.String("run_id", uuid.NewString()))
	slog.SetDefault(logger)
	slog.SetLogLoggerLevel(level.Level())

	urls := splitList(*startURLs)
	outs := splitList(*outputs)
	if len(urls) == 0 {
		slog.Error("no start URLs given, use -start-urls")
		os.Exit(1)
	}
	if len(urls) != len(outs) {
		slog.Error("start URL / output count mismatch",
			slog.Int("urls", len(urls)),
			slog.Int("outputs", len(outs)),
		)
		os.Exit(1)
	}

	base := config.DefaultConfig()
	base.OutputFormat = strings.ToLower(*format)
	base.Concurrency = *concurrency
	base.BatchSize = *batchSize
	base.NavRetries = *retries
	base.RetryDelay = *retryDelay
	base.PageTimeout = *pageTimeout
	base.MaxPages = *maxPages
	base.MetricsAddr = *metricsAddr
	base.Verbose = *verbose

	targets := make([]*config.Config, len(urls))
	for i := range urls {
		targets[i] = base.WithTarget(urls[i], outs[i])
		if err := targets[i].Validate(); err != nil {
			slog.Error("invalid configuration", slog.String("start_url", urls[i]), slog.Any("error", err))
			os.Exit(1)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		slog.Info("shutdown signal received, waiting for in-flight work to finish")
	}()

	metrics := scraper.NewMetrics()
	var metricsServer *http.Server
	if base.MetricsAddr != "" {
		metricsServer = &http.Server{
			Addr:    base.MetricsAddr,
			Handler: promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}),
		}
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("metrics server failed", slog.Any("error", err))
			}
		}()
		slog.Info("metrics server enabled", slog.String("addr", base.MetricsAddr))
	}

	renderer, err := render.NewStatic(render.StaticOptions{
		Timeout:   base.PageTimeout,
		UserAgent: base.UserAgent,
	})
	if err != nil {
		slog.Error("initialising renderer", slog.Any("error", err))
		os.Exit(1)
	}
	defer renderer.Close()

	startTime := time.Now()
	failures := make([]error, len(targets))
	var wg sync.WaitGroup
	for i, cfg := range targets {
		wg.Add(1)
		go func(i int, cfg *config.Config) {
			defer wg.Done()
			failures[i] = runSite(ctx, cfg, renderer, metrics)
		}(i, cfg)
	}
	wg.Wait()

	if metricsServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("metrics server shutdown failed", slog.Any("error", err))
		}
		cancel()
	}

	failed := false
	for i, err := range failures {
		if err != nil {
			failed = true
			slog.Error("site pipeline failed",
				slog.String("start_url", targets[i].StartURL),
				slog.Any("error", err),
			)
		}
	}
	slog.Info("discovery complete",
		slog.Int("sites", len(targets)),
		slog.Duration("duration", time.Since(startTime)),
	)
	if failed {
		os.Exit(1)
	}
}

// runSite drives one listing's full pipeline: paginate, fan out detail
// extraction, append each settled batch to the output. Individual item
// failures degrade records, never the exit path.
func runSite(ctx context.Context, cfg *config.Config, renderer render.Renderer, metrics *scraper.Metrics) error {
	log := slog.With(slog.String("start_url", cfg.StartURL))
	log.Info("processing site", slog.String("output", cfg.OutputFile))

	sess, err := renderer.NewSession(ctx)
	if err != nil {
		return fmt.Errorf("open listing session: %w", err)
	}
	paginator := scraper.NewPaginator(cfg, metrics, log)
	stubs, err := paginator.Collect(ctx, sess)
	sess.Close()
	if err != nil {
		return fmt.Errorf("collect listing: %w", err)
	}
	log.Info("listing collected", slog.Int("stubs", len(stubs)))

	writer, err := createWriter(cfg.OutputFormat, cfg.OutputFile)
	if err != nil {
		return fmt.Errorf("create writer: %w", err)
	}
	defer func() {
		if err := writer.Close(); err != nil {
			log.Error("close writer", slog.Any("error", err))
		}
	}()

	pool := scraper.NewPool(renderer, cfg, metrics, log)
	records, err := pool.Run(ctx, models.FromStubs(stubs), pipeline.WriterSink{Writer: writer})
	if err != nil {
		return fmt.Errorf("process details: %w", err)
	}
	if err := writer.Validate(); err != nil {
		return fmt.Errorf("output validation failed: %w", err)
	}

	filled := 0
	for _, rec := range records {
		if rec.Complete() {
			filled++
		}
	}
	log.Info("site complete",
		slog.Int("records", len(records)),
		slog.Int("filled", filled),
		slog.String("output", cfg.OutputFile),
	)
	return nil
}

func createWriter(format, filename string) (pipeline.OutputWriter, error) {
	switch format {
	case "json":
		return pipeline.NewJSONWriter(filename)
	case "csv":
		return pipeline.NewCSVWriter(filename)
	case "dual":
		jsonFilename := strings.TrimSuffix(filename, ".csv") + ".json"
		return pipeline.NewDualWriter(filename, jsonFilename)
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
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
