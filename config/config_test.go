package config

import (
	"strings"
	"testing"
	"time"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name: "invalid start url",
			mutate: func(cfg *Config) {
				cfg.StartURL = "http://"
			},
			wantErr: "start URL",
		},
		{
			name: "empty output file",
			mutate: func(cfg *Config) {
				cfg.OutputFile = ""
			},
			wantErr: "output file",
		},
		{
			name: "bad output format",
			mutate: func(cfg *Config) {
				cfg.OutputFormat = "xml"
			},
			wantErr: "output format",
		},
		{
			name: "zero concurrency",
			mutate: func(cfg *Config) {
				cfg.Concurrency = 0
			},
			wantErr: "concurrency",
		},
		{
			name: "zero batch size",
			mutate: func(cfg *Config) {
				cfg.BatchSize = 0
			},
			wantErr: "batch size",
		},
		{
			name: "negative retry delay",
			mutate: func(cfg *Config) {
				cfg.RetryDelay = -1 * time.Second
			},
			wantErr: "retry delay",
		},
		{
			name: "zero nav retries",
			mutate: func(cfg *Config) {
				cfg.NavRetries = 0
			},
			wantErr: "nav retries",
		},
		{
			name: "zero max pages",
			mutate: func(cfg *Config) {
				cfg.MaxPages = 0
			},
			wantErr: "max pages",
		},
		{
			name: "zero page timeout",
			mutate: func(cfg *Config) {
				cfg.PageTimeout = 0
			},
			wantErr: "page timeout",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.OutputFile = "out.csv"
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestDefaultConfigValid(t *testing.T) {
	cfg := DefaultConfig()
	cfg.OutputFile = "out.csv"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate, got %v", err)
	}
}

func TestSecondPassConfigOverrides(t *testing.T) {
	cfg := SecondPassConfig()
	if cfg.PageTimeout != 60*time.Second {
		t.Fatalf("page timeout = %v, want 60s", cfg.PageTimeout)
	}
	if cfg.NavRetries != 5 {
		t.Fatalf("nav retries = %d, want 5", cfg.NavRetries)
	}
	if cfg.Concurrency != 10 {
		t.Fatalf("concurrency = %d, want 10", cfg.Concurrency)
	}
}

func TestWithTargetDoesNotMutateBase(t *testing.T) {
	base := DefaultConfig()
	base.OutputFile = "base.csv"
	bound := base.WithTarget("https://rankings.example.com/?age=14", "a.csv")
	if base.StartURL != "" || base.OutputFile != "base.csv" {
		t.Fatalf("base config mutated: %q %q", base.StartURL, base.OutputFile)
	}
	if bound.StartURL == "" || bound.OutputFile != "a.csv" {
		t.Fatalf("bound config not populated: %q %q", bound.StartURL, bound.OutputFile)
	}
}
