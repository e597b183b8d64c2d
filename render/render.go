// Package render defines the page-rendering capability the scraper
// consumes. The pipeline only ever talks to these interfaces, so the
// rendering engine behind them is swappable.
package render

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrSelectorTimeout is returned when a selector never appears
	// within its wait budget.
	ErrSelectorTimeout = errors.New("render: selector wait timed out")

	// ErrNoDocument is returned for element queries before a
	// successful navigation.
	ErrNoDocument = errors.New("render: no document loaded")

	// ErrNotClickable is returned when an element has no navigable
	// target to follow.
	ErrNotClickable = errors.New("render: element is not clickable")
)

// Element is one queryable node of a rendered document.
type Element interface {
	// Text returns the trimmed text content.
	Text() string

	// Attr returns the named attribute and whether it exists.
	Attr(name string) (string, bool)

	// Find returns the first descendant matching selector.
	Find(selector string) (Element, bool)

	// FindAll returns every descendant matching selector.
	FindAll(selector string) []Element

	// Click activates the element, navigating its session.
	Click(ctx context.Context) error
}

// Session is one isolated browsing context. Sessions are never shared
// across items; cookies and navigation state stay private to a session.
type Session interface {
	// Navigate loads url, replacing the session's current document.
	Navigate(ctx context.Context, url string) error

	// WaitForSelector blocks until selector matches or timeout elapses,
	// returning the first match or ErrSelectorTimeout.
	WaitForSelector(ctx context.Context, selector string, timeout time.Duration) (Element, error)

	// QueryAll returns every element matching selector in the current
	// document.
	QueryAll(selector string) ([]Element, error)

	// Close releases the session's resources.
	Close() error
}

// Renderer produces isolated sessions over a shared engine.
type Renderer interface {
	NewSession(ctx context.Context) (Session, error)
	Close() error
}
