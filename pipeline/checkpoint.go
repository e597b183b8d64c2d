// Package pipeline persists scraped records: streaming output writers,
// the durable checkpoint store, and the resume merger.
package pipeline

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"sync"

	"go-scrape-clubs/models"
)

// Header is the fixed column order of every record file.
var Header = []string{"team", "state", "detail_url", "club_name", "club_website"}

// Store is a durable snapshot of processed records at one path, keyed
// by detail URL. Writers are serialized; the pool only writes between
// batches so writes are never concurrent anyway.
type Store struct {
	path string
	mu   sync.Mutex
}

// NewStore builds a store over path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the store's file path.
func (s *Store) Path() string {
	return s.path
}

// Load reads the snapshot into a detail URL keyed map. A missing file
// is an empty snapshot, not an error. Later rows win on duplicate URLs.
func (s *Store) Load() (map[string]*models.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := readRecordFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return make(map[string]*models.Record), nil
		}
		return nil, err
	}

	byURL := make(map[string]*models.Record, len(records))
	for _, rec := range records {
		byURL[rec.DetailURL] = rec
	}
	return byURL, nil
}

// Save overwrites the snapshot with records, latest state wins.
func (s *Store) Save(records []*models.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Create(s.path)
	if err != nil {
		return fmt.Errorf("create checkpoint %s: %w", s.path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(Header); err != nil {
		return fmt.Errorf("write checkpoint header: %w", err)
	}
	for _, rec := range records {
		if err := w.Write(recordRow(rec)); err != nil {
			return fmt.Errorf("write checkpoint row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush checkpoint: %w", err)
	}
	return nil
}

// Append adds records without rewriting existing ones, writing the
// header first when the file is new.
func (s *Store) Append(records []*models.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open checkpoint %s: %w", s.path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat checkpoint %s: %w", s.path, err)
	}

	w := csv.NewWriter(f)
	if info.Size() == 0 {
		if err := w.Write(Header); err != nil {
			return fmt.Errorf("write checkpoint header: %w", err)
		}
	}
	for _, rec := range records {
		if err := w.Write(recordRow(rec)); err != nil {
			return fmt.Errorf("append checkpoint row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush checkpoint: %w", err)
	}
	return nil
}

// CheckpointWriter accumulates a run's records and overwrites the store
// after every batch, so an interrupted run keeps everything up to its
// last completed batch. Seed it with the prior checkpoint so earlier
// progress survives mid-run restarts.
type CheckpointWriter struct {
	store *Store

	mu    sync.Mutex
	order []string
	state map[string]*models.Record
}

// NewCheckpointWriter builds a sink over store, seeded with a prior
// snapshot (may be empty).
func NewCheckpointWriter(store *Store, seed map[string]*models.Record) *CheckpointWriter {
	order := make([]string, 0, len(seed))
	state := make(map[string]*models.Record, len(seed))
	for url, rec := range seed {
		order = append(order, url)
		state[url] = rec
	}
	sort.Strings(order)
	return &CheckpointWriter{store: store, order: order, state: state}
}

// Checkpoint folds a batch into the accumulated state and persists the
// whole snapshot. Last write wins per detail URL.
func (w *CheckpointWriter) Checkpoint(records []*models.Record) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	for _, rec := range records {
		if rec == nil {
			continue
		}
		if _, seen := w.state[rec.DetailURL]; !seen {
			w.order = append(w.order, rec.DetailURL)
		}
		w.state[rec.DetailURL] = rec
	}

	snapshot := make([]*models.Record, 0, len(w.order))
	for _, url := range w.order {
		snapshot = append(snapshot, w.state[url])
	}
	return w.store.Save(snapshot)
}

// WriterSink adapts an OutputWriter into a per-batch checkpoint sink,
// used by the discovery pass which appends as it goes.
type WriterSink struct {
	Writer OutputWriter
}

// Checkpoint appends a batch to the output.
func (s WriterSink) Checkpoint(records []*models.Record) error {
	return s.Writer.Write(records)
}

// ReadRecords loads an ordered record slice from a flat file.
func ReadRecords(path string) ([]*models.Record, error) {
	return readRecordFile(path)
}

func readRecordFile(path string) ([]*models.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = len(Header)

	var records []*models.Record
	first := true
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		if first {
			first = false
			if row[0] == Header[0] {
				continue
			}
		}
		records = append(records, rowRecord(row))
	}
	return records, nil
}

func recordRow(r *models.Record) []string {
	return []string{
		r.Team,
		r.State.String(),
		r.DetailURL,
		r.ClubName.String(),
		r.ClubWebsite.String(),
	}
}

func rowRecord(row []string) *models.Record {
	return &models.Record{
		Team:        row[0],
		State:       models.NewField(row[1]),
		DetailURL:   row[2],
		ClubName:    models.NewField(row[3]),
		ClubWebsite: models.NewField(row[4]),
	}
}
