package pipeline

import (
	"fmt"
	"sync"

	"go-scrape-clubs/models"
)

// DualWriter outputs to both CSV and JSON formats simultaneously.
type DualWriter struct {
	csvWriter  *CSVWriter
	jsonWriter *JSONWriter
	mu         sync.Mutex
}

// NewDualWriter creates a new dual writer for both CSV and JSON output.
func NewDualWriter(csvFilename, jsonFilename string) (*DualWriter, error) {
	csvWriter, err := NewCSVWriter(csvFilename)
	if err != nil {
		return nil, fmt.Errorf("failed to create CSV writer: %w", err)
	}

	jsonWriter, err := NewJSONWriter(jsonFilename)
	if err != nil {
		csvWriter.Close()
		return nil, fmt.Errorf("failed to create JSON writer: %w", err)
	}

	return &DualWriter{
		csvWriter:  csvWriter,
		jsonWriter: jsonWriter,
	}, nil
}

// Write writes records to both formats.
func (dw *DualWriter) Write(records []*models.Record) error {
	dw.mu.Lock()
	defer dw.mu.Unlock()

	if err := dw.csvWriter.Write(records); err != nil {
		return fmt.Errorf("CSV write failed: %w", err)
	}
	if err := dw.jsonWriter.Write(records); err != nil {
		return fmt.Errorf("JSON write failed: %w", err)
	}
	return nil
}

// Close closes both writers.
func (dw *DualWriter) Close() error {
	dw.mu.Lock()
	defer dw.mu.Unlock()

	csvErr := dw.csvWriter.Close()
	jsonErr := dw.jsonWriter.Close()
	if csvErr != nil {
		return fmt.Errorf("close CSV writer: %w", csvErr)
	}
	if jsonErr != nil {
		return fmt.Errorf("close JSON writer: %w", jsonErr)
	}
	return nil
}

// Validate checks both outputs.
func (dw *DualWriter) Validate() error {
	if err := dw.csvWriter.Validate(); err != nil {
		return err
	}
	return dw.jsonWriter.Validate()
}
