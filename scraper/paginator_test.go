package scraper

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"go-scrape-clubs/config"
)

func paginatorTestConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.StartURL = "http://site.test/listing"
	cfg.OutputFile = "out.csv"
	cfg.PageTimeout = 100 * time.Millisecond
	cfg.FieldTimeout = 20 * time.Millisecond
	cfg.NextPageTimeout = 50 * time.Millisecond
	cfg.NavRetries = 3
	cfg.RetryDelay = time.Millisecond
	return cfg
}

func listingURL(page int) string {
	if page == 1 {
		return "http://site.test/listing"
	}
	return fmt.Sprintf("http://site.test/listing?page=%d", page)
}

// scriptListing builds pageCount listing pages of two rows each, chained
// by numbered page controls. The last page offers no further number.
func scriptListing(site *fakeSite, sess *fakeSession, cfg *config.Config, pageCount int) {
	sel := cfg.Selectors
	for page := 1; page <= pageCount; page++ {
		fp := site.addPage(listingURL(page))

		for row := 1; row <= 2; row++ {
			team := fmt.Sprintf("Team %d-%d", page, row)
			href := fmt.Sprintf("/teams/%d%d", page, row)
			fp.selectors[sel.ListingRow] = append(fp.selectors[sel.ListingRow], &fakeElement{
				finds: map[string]*fakeElement{
					sel.TeamLink:  {text: team, attrs: map[string]string{"href": href}},
					sel.StateCell: {text: "TX"},
				},
			})
		}
		// A decorative row without a team link, which must be skipped.
		fp.selectors[sel.ListingRow] = append(fp.selectors[sel.ListingRow], &fakeElement{})

		if page < pageCount {
			next := listingURL(page + 1)
			fp.selectors[sel.PageControl] = append(fp.selectors[sel.PageControl],
				&fakeElement{text: "prev"},
				&fakeElement{
					text: fmt.Sprintf("%d", page+1),
					onClick: func(ctx context.Context) error {
						return sess.Navigate(ctx, next)
					},
				},
			)
		}
	}
}

func TestPaginatorWalksAllPages(t *testing.T) {
	cfg := paginatorTestConfig()
	site := newFakeSite()
	sess := &fakeSession{site: site}
	scriptListing(site, sess, cfg, 3)

	p := NewPaginator(cfg, NewMetrics(), nil)
	stubs, err := p.Collect(context.Background(), sess)
	if err != nil {
		t.Fatalf("collect: %v", err)
	}

	if len(stubs) != 6 {
		t.Fatalf("stubs = %d, want 6 (rows without a team link must be skipped)", len(stubs))
	}
	if stubs[0].Team != "Team 1-1" || stubs[5].Team != "Team 3-2" {
		t.Fatalf("stub order wrong: first=%q last=%q", stubs[0].Team, stubs[5].Team)
	}
	if stubs[0].DetailURL != "http://site.test/teams/11" {
		t.Fatalf("detail URL not absolutized: %q", stubs[0].DetailURL)
	}
	if stubs[0].State != "TX" {
		t.Fatalf("state = %q, want TX", stubs[0].State)
	}
}

func TestPaginatorTerminatesWithoutNextControl(t *testing.T) {
	cfg := paginatorTestConfig()
	site := newFakeSite()
	sess := &fakeSession{site: site}
	scriptListing(site, sess, cfg, 1)

	p := NewPaginator(cfg, NewMetrics(), nil)
	start := time.Now()
	stubs, err := p.Collect(context.Background(), sess)
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	if len(stubs) != 2 {
		t.Fatalf("stubs = %d, want 2", len(stubs))
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("termination took %v, control absence should resolve within the short timeout", elapsed)
	}
	if got := site.callCount(listingURL(2)); got != 0 {
		t.Fatalf("page 2 fetched %d times, want 0", got)
	}
}

func TestPaginatorListingFailureIsFatal(t *testing.T) {
	cfg := paginatorTestConfig()
	site := newFakeSite()
	sess := &fakeSession{site: site}
	scriptListing(site, sess, cfg, 1)
	site.navFailures[cfg.StartURL] = 10 // more than the retry budget

	p := NewPaginator(cfg, NewMetrics(), nil)
	_, err := p.Collect(context.Background(), sess)

	var listingErr ListingError
	if !errors.As(err, &listingErr) {
		t.Fatalf("error = %v, want ListingError", err)
	}
	if got := site.callCount(cfg.StartURL); got != cfg.NavRetries {
		t.Fatalf("start URL fetched %d times, want %d", got, cfg.NavRetries)
	}
}

func TestPaginatorRespectsPageCeiling(t *testing.T) {
	cfg := paginatorTestConfig()
	cfg.MaxPages = 2
	site := newFakeSite()
	sess := &fakeSession{site: site}
	scriptListing(site, sess, cfg, 5)

	p := NewPaginator(cfg, NewMetrics(), nil)
	stubs, err := p.Collect(context.Background(), sess)
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	if len(stubs) != 4 {
		t.Fatalf("stubs = %d, want 4 (two pages of two usable rows)", len(stubs))
	}
	if got := site.callCount(listingURL(3)); got != 0 {
		t.Fatalf("page 3 fetched %d times, want 0 past the ceiling", got)
	}
}
