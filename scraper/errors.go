package scraper

import (
	"context"
	"errors"
	"fmt"

	"go-scrape-clubs/render"
)

// NavigationError indicates a page failed to load within the retry
// budget. Non-fatal for a single item; fatal when the listing page
// itself cannot load.
type NavigationError struct {
	URL string
	Err error
}

func (e NavigationError) Error() string {
	return fmt.Sprintf("navigation failed for %s: %v", e.URL, e.Err)
}

func (e NavigationError) Unwrap() error {
	return e.Err
}

// ListingError wraps a listing-page failure, the one condition that
// aborts a whole run.
type ListingError struct {
	URL string
	Err error
}

func (e ListingError) Error() string {
	return fmt.Sprintf("listing page unavailable at %s: %v", e.URL, e.Err)
}

func (e ListingError) Unwrap() error {
	return e.Err
}

// fatalError marks an outcome that must not be retried.
type fatalError struct {
	err error
}

func (e fatalError) Error() string {
	return fmt.Errorf("fatal: %w", e.err).Error()
}

func (e fatalError) Unwrap() error {
	return e.err
}

// Fatal wraps err so the retry executor stops immediately instead of
// burning the remaining attempts.
func Fatal(err error) error {
	if err == nil {
		return nil
	}
	return fatalError{err: err}
}

// IsFatal reports whether err was marked non-retryable.
func IsFatal(err error) bool {
	var fatal fatalError
	return errors.As(err, &fatal)
}

func errorTypeLabel(err error) string {
	if err == nil {
		return "unknown"
	}
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	case errors.Is(err, render.ErrBadURL):
		return "bad_url"
	case errors.Is(err, render.ErrSelectorTimeout):
		return "element_not_found"
	case errors.Is(err, render.ErrNoDocument):
		return "no_document"
	}
	var exhausted *ExhaustedError
	if errors.As(err, &exhausted) {
		return "retries_exhausted"
	}
	var nav NavigationError
	if errors.As(err, &nav) {
		return "navigation"
	}
	return "other"
}
