package parser

import (
	"fmt"
	"net/url"
	"strings"

	"go-scrape-clubs/models"
)

// CleanText trims surrounding whitespace from scraped text.
func CleanText(text string) string {
	return strings.TrimSpace(text)
}

// AbsoluteURL resolves href against base. Already-absolute hrefs are
// returned unchanged; unparsable input yields an empty string.
func AbsoluteURL(base, href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	baseURL, err := url.Parse(base)
	if err != nil || baseURL.Host == "" {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	return baseURL.ResolveReference(ref).String()
}

// ValidateStub ensures a listing row produced a usable stub.
func ValidateStub(stub models.TeamStub) error {
	if strings.TrimSpace(stub.Team) == "" {
		return fmt.Errorf("stub missing team name")
	}
	if strings.TrimSpace(stub.DetailURL) == "" {
		return fmt.Errorf("stub missing detail URL for %s", stub.Team)
	}
	parsed, err := url.Parse(stub.DetailURL)
	if err != nil || parsed.Host == "" {
		return fmt.Errorf("stub detail URL %q is not absolute", stub.DetailURL)
	}
	return nil
}

// ValidateRecord ensures a record carries its required identity fields.
func ValidateRecord(r *models.Record) error {
	if r == nil {
		return fmt.Errorf("record is nil")
	}
	if strings.TrimSpace(r.Team) == "" {
		return fmt.Errorf("record missing team name")
	}
	if strings.TrimSpace(r.DetailURL) == "" {
		return fmt.Errorf("record missing detail URL for %s", r.Team)
	}
	return nil
}
