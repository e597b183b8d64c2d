package parser

import (
	"testing"

	"go-scrape-clubs/models"
)

func TestAbsoluteURL(t *testing.T) {
	tests := []struct {
		name string
		base string
		href string
		want string
	}{
		{
			name: "already absolute",
			base: "https://rankings.example.com",
			href: "https://other.example.com/teams/9",
			want: "https://other.example.com/teams/9",
		},
		{
			name: "relative path",
			base: "https://rankings.example.com/?age=14",
			href: "/teams/42",
			want: "https://rankings.example.com/teams/42",
		},
		{
			name: "empty href",
			base: "https://rankings.example.com",
			href: "  ",
			want: "",
		},
		{
			name: "hostless base",
			base: "not a url",
			href: "/teams/42",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AbsoluteURL(tt.base, tt.href); got != tt.want {
				t.Fatalf("AbsoluteURL(%q, %q) = %q, want %q", tt.base, tt.href, got, tt.want)
			}
		})
	}
}

func TestValidateStub(t *testing.T) {
	tests := []struct {
		name    string
		stub    models.TeamStub
		wantErr bool
	}{
		{
			name: "valid stub",
			stub: models.TeamStub{Team: "Rovers U14", DetailURL: "https://rankings.example.com/teams/1", State: "TX"},
		},
		{
			name:    "missing team",
			stub:    models.TeamStub{DetailURL: "https://rankings.example.com/teams/1"},
			wantErr: true,
		},
		{
			name:    "missing url",
			stub:    models.TeamStub{Team: "Rovers U14"},
			wantErr: true,
		},
		{
			name:    "relative url",
			stub:    models.TeamStub{Team: "Rovers U14", DetailURL: "/teams/1"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStub(tt.stub)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateStub() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateRecord(t *testing.T) {
	valid := models.NewRecord(models.TeamStub{Team: "Rovers U14", DetailURL: "https://rankings.example.com/teams/1"})
	if err := ValidateRecord(valid); err != nil {
		t.Fatalf("valid record rejected: %v", err)
	}
	if err := ValidateRecord(nil); err == nil {
		t.Fatalf("nil record should be rejected")
	}
	if err := ValidateRecord(&models.Record{DetailURL: "https://rankings.example.com/teams/1"}); err == nil {
		t.Fatalf("record without team should be rejected")
	}
}
