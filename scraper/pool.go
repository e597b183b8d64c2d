package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go-scrape-clubs/config"
	"go-scrape-clubs/models"
	"go-scrape-clubs/render"
)

// CheckpointSink receives each completed batch's records before the
// next batch starts. Implementations persist them durably.
type CheckpointSink interface {
	Checkpoint(records []*models.Record) error
}

// Pool fans detail extraction out over a set of records with a hard cap
// on in-flight fetches. Records are processed in sequential batches;
// every batch is fully settled and checkpointed before the next one
// begins, so at most one batch of results is ever in memory and a crash
// loses at most the current batch.
type Pool struct {
	renderer render.Renderer
	cfg      *config.Config
	metrics  *Metrics
	log      *slog.Logger
}

// NewPool builds a worker pool over one renderer.
func NewPool(renderer render.Renderer, cfg *config.Config, metrics *Metrics, log *slog.Logger) *Pool {
	if log == nil {
		log = slog.Default()
	}
	return &Pool{renderer: renderer, cfg: cfg, metrics: metrics, log: log}
}

// Run processes records batch by batch and returns every record in
// batch order. Each item fails or succeeds on its own: a fetch fault
// never cancels siblings, and an item whose page never loads still
// yields its record unchanged so the checkpoint covers the full batch.
func (p *Pool) Run(ctx context.Context, records []*models.Record, sink CheckpointSink) ([]*models.Record, error) {
	out := make([]*models.Record, 0, len(records))

	for start := 0; start < len(records); start += p.cfg.BatchSize {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		end := start + p.cfg.BatchSize
		if end > len(records) {
			end = len(records)
		}
		batch := records[start:end]
		batchNum := start/p.cfg.BatchSize + 1

		p.log.Info("processing batch",
			slog.Int("batch", batchNum),
			slog.Int("from", start+1),
			slog.Int("to", end),
		)

		results := make([]*models.Record, len(batch))
		sem := make(chan struct{}, p.cfg.Concurrency)
		var wg sync.WaitGroup
		for i, rec := range batch {
			wg.Add(1)
			go func(i int, rec *models.Record) {
				defer wg.Done()
				sem <- struct{}{}
				defer func() { <-sem }()
				results[i] = p.processOne(ctx, rec)
			}(i, rec)
		}
		wg.Wait()

		if sink != nil {
			if err := sink.Checkpoint(results); err != nil {
				return out, fmt.Errorf("checkpoint batch %d: %w", batchNum, err)
			}
			p.metrics.IncBatch()
		}
		out = append(out, results...)
	}

	return out, nil
}

// processOne handles a single record in isolation. It never returns an
// error: failures degrade the record, the batch carries on.
func (p *Pool) processOne(ctx context.Context, rec *models.Record) (out *models.Record) {
	defer func() {
		if r := recover(); r != nil {
			p.log.Error("panic processing record",
				slog.String("url", rec.DetailURL),
				slog.Any("panic", r),
			)
			p.metrics.IncDetail("failed")
			out = rec
		}
	}()

	// Already-complete records need no navigation at all.
	if rec.Complete() {
		p.metrics.IncDetail("skipped")
		return rec
	}

	sess, err := p.renderer.NewSession(ctx)
	if err != nil {
		p.metrics.IncDetail("failed")
		p.log.Warn("session acquisition failed",
			slog.String("url", rec.DetailURL),
			slog.Any("error", err),
		)
		return rec
	}
	defer sess.Close()

	retrier := NewRetrier(p.cfg.NavRetries, p.cfg.RetryDelay, p.metrics)
	start := time.Now()
	err = retrier.Do(ctx, func(ctx context.Context) error {
		if err := sess.Navigate(ctx, rec.DetailURL); err != nil {
			return classifyNavError(rec.DetailURL, err)
		}
		return nil
	})
	p.metrics.ObserveNav(time.Since(start))
	if err != nil {
		p.metrics.IncDetail("failed")
		p.metrics.IncError(errorTypeLabel(err))
		p.log.Warn("detail page never loaded",
			slog.String("team", rec.Team),
			slog.String("url", rec.DetailURL),
			slog.Any("error", err),
		)
		return rec
	}

	ExtractClubInfo(ctx, sess, rec, p.cfg, p.metrics)
	switch {
	case rec.Complete():
		p.metrics.IncDetail("filled")
	case rec.ClubName.Present() || rec.ClubWebsite.Present():
		p.metrics.IncDetail("partial")
	default:
		p.metrics.IncDetail("empty")
	}
	return rec
}
