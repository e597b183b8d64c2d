package scraper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"go-scrape-clubs/config"
	"go-scrape-clubs/models"
	"go-scrape-clubs/parser"
	"go-scrape-clubs/render"
)

type paginatorState int

const (
	stateLoadingListing paginatorState = iota
	stateExtractingRows
	stateSeekingNextPage
	stateDone
)

// Paginator walks listing pages strictly in sequence, extracting team
// stubs from each page and advancing through numbered page controls
// until no further number is offered.
type Paginator struct {
	cfg     *config.Config
	metrics *Metrics
	log     *slog.Logger
}

// NewPaginator builds a paginator for one listing.
func NewPaginator(cfg *config.Config, metrics *Metrics, log *slog.Logger) *Paginator {
	if log == nil {
		log = slog.Default()
	}
	return &Paginator{cfg: cfg, metrics: metrics, log: log}
}

// Collect drives the session through every listing page and returns all
// stubs in discovery order. A start-page load failure is fatal: without
// the listing there is nothing to harvest.
func (p *Paginator) Collect(ctx context.Context, sess render.Session) ([]models.TeamStub, error) {
	retrier := NewRetrier(p.cfg.NavRetries, p.cfg.RetryDelay, p.metrics)

	var stubs []models.TeamStub
	page := 1
	state := stateLoadingListing

	for state != stateDone {
		if err := ctx.Err(); err != nil {
			return stubs, err
		}

		switch state {
		case stateLoadingListing:
			start := time.Now()
			err := retrier.Do(ctx, func(ctx context.Context) error {
				if err := sess.Navigate(ctx, p.cfg.StartURL); err != nil {
					return classifyNavError(p.cfg.StartURL, err)
				}
				return nil
			})
			p.metrics.ObserveNav(time.Since(start))
			if err != nil {
				p.metrics.IncError(errorTypeLabel(err))
				return nil, ListingError{URL: p.cfg.StartURL, Err: err}
			}
			if _, err := sess.WaitForSelector(ctx, p.cfg.Selectors.ListingRow, p.cfg.PageTimeout); err != nil {
				p.metrics.IncError(errorTypeLabel(err))
				return nil, ListingError{URL: p.cfg.StartURL, Err: err}
			}
			state = stateExtractingRows

		case stateExtractingRows:
			pageStubs, err := p.extractRows(sess)
			if err != nil {
				return stubs, fmt.Errorf("extract listing page %d: %w", page, err)
			}
			stubs = append(stubs, pageStubs...)
			p.metrics.IncListingPage()
			p.metrics.AddStubs(len(pageStubs))
			p.log.Info("listing page extracted",
				slog.Int("page", page),
				slog.Int("stubs", len(pageStubs)),
				slog.Int("total", len(stubs)),
			)
			state = stateSeekingNextPage

		case stateSeekingNextPage:
			if page >= p.cfg.MaxPages {
				p.log.Warn("page ceiling reached, stopping pagination", slog.Int("max_pages", p.cfg.MaxPages))
				state = stateDone
				break
			}
			advanced, err := p.advance(ctx, sess, page+1)
			if err != nil {
				return stubs, err
			}
			if !advanced {
				p.log.Info("no further page control, pagination complete", slog.Int("pages", page))
				state = stateDone
				break
			}
			page++
			state = stateExtractingRows
		}
	}

	return stubs, nil
}

// extractRows pulls one stub per usable row. Rows missing the team link
// are skipped, not errors.
func (p *Paginator) extractRows(sess render.Session) ([]models.TeamStub, error) {
	rows, err := sess.QueryAll(p.cfg.Selectors.ListingRow)
	if err != nil {
		return nil, err
	}

	stubs := make([]models.TeamStub, 0, len(rows))
	for _, row := range rows {
		link, ok := row.Find(p.cfg.Selectors.TeamLink)
		if !ok {
			continue
		}
		href, ok := link.Attr("href")
		if !ok {
			continue
		}
		stub := models.TeamStub{
			Team:      parser.CleanText(link.Text()),
			DetailURL: parser.AbsoluteURL(p.cfg.StartURL, href),
		}
		if cell, ok := row.Find(p.cfg.Selectors.StateCell); ok {
			stub.State = parser.CleanText(cell.Text())
		}
		if err := parser.ValidateStub(stub); err != nil {
			p.log.Debug("skipping listing row", slog.Any("error", err))
			continue
		}
		stubs = append(stubs, stub)
	}
	return stubs, nil
}

// advance looks for the control labeled with the next page number. It
// polls until NextPageTimeout; the control's absence is the designed
// termination signal, not an error.
func (p *Paginator) advance(ctx context.Context, sess render.Session, nextPage int) (bool, error) {
	label := strconv.Itoa(nextPage)
	deadline := time.Now().Add(p.cfg.NextPageTimeout)

	for {
		controls, err := sess.QueryAll(p.cfg.Selectors.PageControl)
		if err != nil {
			return false, fmt.Errorf("query page controls: %w", err)
		}
		for _, control := range controls {
			if control.Text() != label {
				continue
			}
			if err := control.Click(ctx); err != nil {
				p.log.Warn("next page control did not activate",
					slog.String("label", label),
					slog.Any("error", err),
				)
				return false, nil
			}
			if _, err := sess.WaitForSelector(ctx, p.cfg.Selectors.ListingRow, p.cfg.PageTimeout); err != nil {
				p.log.Warn("rows did not render after page advance",
					slog.String("label", label),
					slog.Any("error", err),
				)
				return false, nil
			}
			return true, nil
		}

		if time.Now().After(deadline) {
			return false, nil
		}
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-time.After(100 * time.Millisecond):
		}
	}
}

// classifyNavError marks unrecoverable navigation failures fatal so the
// retry executor does not re-attempt them.
func classifyNavError(url string, err error) error {
	if err == nil {
		return nil
	}
	wrapped := NavigationError{URL: url, Err: err}
	if isFatalNav(err) {
		return Fatal(wrapped)
	}
	return wrapped
}

func isFatalNav(err error) bool {
	return errors.Is(err, render.ErrBadURL)
}
