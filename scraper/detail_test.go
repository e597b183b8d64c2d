package scraper

import (
	"context"
	"testing"

	"go-scrape-clubs/models"
)

func scriptDetailPage(site *fakeSite, url, clubName, clubWebsite string) {
	cfg := paginatorTestConfig()
	sel := cfg.Selectors
	fp := site.addPage(url)
	fp.selectors[sel.DetailSection] = []*fakeElement{{text: "Club Information"}}
	if clubName != "" {
		fp.selectors[sel.ClubName] = []*fakeElement{{text: clubName}}
	}
	if clubWebsite != "" {
		fp.selectors[sel.ClubWebsite] = []*fakeElement{{attrs: map[string]string{"href": clubWebsite}}}
	}
}

func TestExtractClubInfoFillsMissingFields(t *testing.T) {
	cfg := paginatorTestConfig()
	site := newFakeSite()
	url := "http://site.test/teams/1"
	scriptDetailPage(site, url, "Acme FC", "https://acme.example")

	sess := &fakeSession{site: site}
	if err := sess.Navigate(context.Background(), url); err != nil {
		t.Fatalf("navigate: %v", err)
	}

	rec := models.NewRecord(models.TeamStub{Team: "Rovers U14", DetailURL: url})
	ExtractClubInfo(context.Background(), sess, rec, cfg, NewMetrics())

	if got := rec.ClubName.Value(); got != "Acme FC" {
		t.Fatalf("club name = %q, want Acme FC", got)
	}
	if got := rec.ClubWebsite.Value(); got != "https://acme.example" {
		t.Fatalf("club website = %q, want https://acme.example", got)
	}
}

func TestExtractClubInfoMonotonic(t *testing.T) {
	cfg := paginatorTestConfig()
	site := newFakeSite()
	url := "http://site.test/teams/2"
	scriptDetailPage(site, url, "Other FC", "https://other.example")

	sess := &fakeSession{site: site}
	if err := sess.Navigate(context.Background(), url); err != nil {
		t.Fatalf("navigate: %v", err)
	}

	rec := models.NewRecord(models.TeamStub{Team: "Rovers U14", DetailURL: url})
	rec.FillClubName("Acme FC")
	ExtractClubInfo(context.Background(), sess, rec, cfg, NewMetrics())

	if got := rec.ClubName.Value(); got != "Acme FC" {
		t.Fatalf("club name = %q, existing value must never change", got)
	}
	if got := rec.ClubWebsite.Value(); got != "https://other.example" {
		t.Fatalf("club website = %q, absent field should still fill", got)
	}
}

func TestExtractClubInfoMissingLandmark(t *testing.T) {
	cfg := paginatorTestConfig()
	site := newFakeSite()
	url := "http://site.test/teams/3"
	site.addPage(url) // page loads but has no detail section

	sess := &fakeSession{site: site}
	if err := sess.Navigate(context.Background(), url); err != nil {
		t.Fatalf("navigate: %v", err)
	}

	rec := models.NewRecord(models.TeamStub{Team: "Rovers U14", DetailURL: url})
	ExtractClubInfo(context.Background(), sess, rec, cfg, NewMetrics())

	if rec.ClubName.Present() || rec.ClubWebsite.Present() {
		t.Fatalf("fields should stay absent when the landmark never renders: %+v", rec)
	}
}

func TestExtractClubInfoFieldsIndependent(t *testing.T) {
	cfg := paginatorTestConfig()
	site := newFakeSite()
	url := "http://site.test/teams/4"
	scriptDetailPage(site, url, "", "https://solo.example") // name missing, website present

	sess := &fakeSession{site: site}
	if err := sess.Navigate(context.Background(), url); err != nil {
		t.Fatalf("navigate: %v", err)
	}

	rec := models.NewRecord(models.TeamStub{Team: "Rovers U14", DetailURL: url})
	ExtractClubInfo(context.Background(), sess, rec, cfg, NewMetrics())

	if rec.ClubName.Present() {
		t.Fatalf("club name should be absent")
	}
	if got := rec.ClubWebsite.Value(); got != "https://solo.example" {
		t.Fatalf("club website = %q, one field's miss must not block the other", got)
	}
}
