package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// ExhaustedError reports that every attempt of an operation failed.
type ExhaustedError struct {
	Attempts int
	Err      error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("exhausted %d attempts: %v", e.Attempts, e.Err)
}

func (e *ExhaustedError) Unwrap() error {
	return e.Err
}

// Retrier runs operations with a bounded attempt budget and a fixed
// inter-attempt delay. The delay is deliberately not exponential; the
// targets this scraper visits recover on a flat cadence.
type Retrier struct {
	Attempts int
	Delay    time.Duration

	metrics *Metrics
}

// NewRetrier builds a Retrier. A nil metrics is allowed.
func NewRetrier(attempts int, delay time.Duration, metrics *Metrics) Retrier {
	if attempts <= 0 {
		attempts = 1
	}
	return Retrier{Attempts: attempts, Delay: delay, metrics: metrics}
}

// Do invokes op until it succeeds, returns a fatal outcome, or the
// attempt budget runs out. The delay is skipped after the final
// attempt. Fatal outcomes (see Fatal) short-circuit: a malformed URL
// fails the same way every time, so re-trying it only wastes budget.
func (r Retrier) Do(ctx context.Context, op func(context.Context) error) error {
	var last error
	for attempt := 1; attempt <= r.Attempts; attempt++ {
		err := op(ctx)
		if err == nil {
			return nil
		}
		last = err
		if IsFatal(err) {
			return err
		}
		slog.Debug("attempt failed",
			slog.Int("attempt", attempt),
			slog.Int("budget", r.Attempts),
			slog.Any("error", err),
		)
		if attempt == r.Attempts {
			break
		}
		r.metrics.IncRetries()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(r.Delay):
		}
	}
	return &ExhaustedError{Attempts: r.Attempts, Err: last}
}
