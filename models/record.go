// Package models defines data structures for the club scraper.
package models

import (
	"encoding/json"
	"strings"
)

// Field is an optional string value. The zero value is absent. Absent
// fields serialize as empty strings at the file boundary only.
type Field struct {
	value   string
	present bool
}

// NewField returns a present Field for a non-empty value and an absent
// Field otherwise.
func NewField(value string) Field {
	value = strings.TrimSpace(value)
	if value == "" {
		return Field{}
	}
	return Field{value: value, present: true}
}

// Present reports whether the field holds a value.
func (f Field) Present() bool {
	return f.present
}

// Value returns the stored value, empty if absent.
func (f Field) Value() string {
	return f.value
}

// String implements the boundary convention: absent is the empty string.
func (f Field) String() string {
	return f.value
}

// MarshalJSON encodes the field as a plain string.
func (f Field) MarshalJSON() ([]byte, error) {
	return json.Marshal(f.value)
}

// UnmarshalJSON decodes a plain string, treating empty as absent.
func (f *Field) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*f = NewField(s)
	return nil
}

// TeamStub is the minimal identifying record extracted from a listing row
// before detail extraction. Identity is DetailURL.
type TeamStub struct {
	Team      string
	DetailURL string
	State     string
}

// Record is one team's row in the output dataset. The club fields start
// absent and are filled by detail extraction.
type Record struct {
	Team        string `json:"team"`
	State       Field  `json:"state"`
	DetailURL   string `json:"detail_url"`
	ClubName    Field  `json:"club_name"`
	ClubWebsite Field  `json:"club_website"`
}

// NewRecord builds an unfilled Record from a listing stub.
func NewRecord(stub TeamStub) *Record {
	return &Record{
		Team:      stub.Team,
		State:     NewField(stub.State),
		DetailURL: stub.DetailURL,
	}
}

// FromStubs converts listing stubs into unfilled Records in order.
func FromStubs(stubs []TeamStub) []*Record {
	records := make([]*Record, 0, len(stubs))
	for _, stub := range stubs {
		records = append(records, NewRecord(stub))
	}
	return records
}

// Complete reports whether both club fields are filled.
func (r *Record) Complete() bool {
	return r.ClubName.Present() && r.ClubWebsite.Present()
}

// FillClubName sets the club name only if it is currently absent.
// Returns true if the value was stored.
func (r *Record) FillClubName(value string) bool {
	if r.ClubName.Present() {
		return false
	}
	field := NewField(value)
	if !field.Present() {
		return false
	}
	r.ClubName = field
	return true
}

// FillClubWebsite sets the club website only if it is currently absent.
// Returns true if the value was stored.
func (r *Record) FillClubWebsite(value string) bool {
	if r.ClubWebsite.Present() {
		return false
	}
	field := NewField(value)
	if !field.Present() {
		return false
	}
	r.ClubWebsite = field
	return true
}
