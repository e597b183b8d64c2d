package config

import (
	"fmt"
	"net/url"
	"time"
)

// Selectors names the document landmarks the scraper queries. They are
// configuration so the pipeline stays independent of any one site layout.
type Selectors struct {
	ListingRow    string // one row of the listing table
	TeamLink      string // anchor inside a row carrying team name and href
	StateCell     string // optional element inside a row carrying the state
	PageControl   string // pagination controls, matched by numeric label
	DetailSection string // landmark that signals the detail page rendered
	ClubName      string // club name element on the detail page
	ClubWebsite   string // club website anchor on the detail page
}

// Config holds one pipeline invocation's settings. Each invocation gets
// its own value; nothing here is process-global.
type Config struct {
	StartURL       string
	OutputFile     string
	OutputFormat   string // csv, json, or dual
	CheckpointFile string

	PageTimeout     time.Duration // navigation and row-container waits
	FieldTimeout    time.Duration // per-field lookup on a detail page
	NextPageTimeout time.Duration // how long to look for the next page control

	NavRetries  int           // attempts per navigation, not extra tries
	RetryDelay  time.Duration // fixed inter-attempt delay
	Concurrency int           // in-flight detail fetch cap
	BatchSize   int           // checkpoint boundary
	MaxPages    int           // listing pagination ceiling

	UserAgent   string
	MetricsAddr string
	Verbose     bool

	Selectors Selectors
}

// DefaultSelectors matches the ranking site's listing table layout.
func DefaultSelectors() Selectors {
	return Selectors{
		ListingRow:    "table tbody tr",
		TeamLink:      "td:nth-child(3) a",
		StateCell:     "td:nth-child(5) span",
		PageControl:   "button",
		DetailSection: "div.club-information",
		ClubName:      "div.club-information span.club-name",
		ClubWebsite:   "div.club-information a.club-website",
	}
}

// DefaultConfig returns the discovery-pass defaults.
func DefaultConfig() *Config {
	return &Config{
		OutputFormat:    "csv",
		CheckpointFile:  "secondpass_checkpoint.csv",
		PageTimeout:     30 * time.Second,
		FieldTimeout:    5 * time.Second,
		NextPageTimeout: 5 * time.Second,
		NavRetries:      3,
		RetryDelay:      5 * time.Second,
		Concurrency:     50,
		BatchSize:       500,
		MaxPages:        1000,
		UserAgent:       "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/117.0.0.0 Safari/537.36",
		Selectors:       DefaultSelectors(),
	}
}

// SecondPassConfig returns the reconciliation-pass defaults: longer page
// waits, a bigger retry budget, and lower concurrency for accuracy.
func SecondPassConfig() *Config {
	cfg := DefaultConfig()
	cfg.PageTimeout = 60 * time.Second
	cfg.NavRetries = 5
	cfg.Concurrency = 10
	return cfg
}

// WithTarget returns a copy bound to one start URL / output pair, so two
// pipelines can run concurrently without shared state.
func (c *Config) WithTarget(startURL, outputFile string) *Config {
	clone := *c
	clone.StartURL = startURL
	clone.OutputFile = outputFile
	return &clone
}

// Validate ensures all configuration values are coherent.
func (c *Config) Validate() error {
	if c.StartURL != "" {
		parsed, err := url.Parse(c.StartURL)
		if err != nil {
			return fmt.Errorf("invalid start URL: %w", err)
		}
		if parsed.Host == "" {
			return fmt.Errorf("start URL must include a host")
		}
	}
	if c.OutputFile == "" {
		return fmt.Errorf("output file cannot be empty")
	}
	if c.OutputFormat != "csv" && c.OutputFormat != "json" && c.OutputFormat != "dual" {
		return fmt.Errorf("output format must be csv, json, or dual")
	}
	if c.CheckpointFile == "" {
		return fmt.Errorf("checkpoint file cannot be empty")
	}
	if c.PageTimeout <= 0 {
		return fmt.Errorf("page timeout must be positive")
	}
	if c.FieldTimeout <= 0 {
		return fmt.Errorf("field timeout must be positive")
	}
	if c.NextPageTimeout <= 0 {
		return fmt.Errorf("next page timeout must be positive")
	}
	if c.NavRetries <= 0 {
		return fmt.Errorf("nav retries must be positive")
	}
	if c.RetryDelay < 0 {
		return fmt.Errorf("retry delay cannot be negative")
	}
	if c.Concurrency <= 0 {
		return fmt.Errorf("concurrency must be positive")
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("batch size must be positive")
	}
	if c.MaxPages <= 0 {
		return fmt.Errorf("max pages must be positive")
	}
	if c.UserAgent == "" {
		return fmt.Errorf("user agent cannot be empty")
	}
	return nil
}
