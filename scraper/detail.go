package scraper

import (
	"context"
	"log/slog"

	"go-scrape-clubs/config"
	"go-scrape-clubs/models"
	"go-scrape-clubs/render"
)

// ExtractClubInfo fills the record's missing club fields from a loaded
// detail page. Only absent fields are queried; present values are never
// touched. A missing detail landmark means the page has nothing
// scrapable, which is not an error: the record simply stays as it was.
// One field's lookup failing does not block the other. Retries belong
// to navigation, never to extraction.
func ExtractClubInfo(ctx context.Context, sess render.Session, rec *models.Record, cfg *config.Config, metrics *Metrics) {
	if rec.Complete() {
		return
	}

	if _, err := sess.WaitForSelector(ctx, cfg.Selectors.DetailSection, cfg.PageTimeout); err != nil {
		metrics.IncError(errorTypeLabel(err))
		slog.Debug("detail landmark not found",
			slog.String("url", rec.DetailURL),
			slog.Any("error", err),
		)
		return
	}

	if !rec.ClubName.Present() {
		if el, err := sess.WaitForSelector(ctx, cfg.Selectors.ClubName, cfg.FieldTimeout); err == nil {
			rec.FillClubName(el.Text())
		} else {
			metrics.IncError(errorTypeLabel(err))
		}
	}

	if !rec.ClubWebsite.Present() {
		if el, err := sess.WaitForSelector(ctx, cfg.Selectors.ClubWebsite, cfg.FieldTimeout); err == nil {
			if href, ok := el.Attr("href"); ok {
				rec.FillClubWebsite(href)
			}
		} else {
			metrics.IncError(errorTypeLabel(err))
		}
	}
}
