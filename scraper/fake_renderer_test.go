package scraper

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go-scrape-clubs/render"
)

// fakeElement is a scripted render.Element.
type fakeElement struct {
	text    string
	attrs   map[string]string
	finds   map[string]*fakeElement
	onClick func(ctx context.Context) error
}

func (e *fakeElement) Text() string { return e.text }

func (e *fakeElement) Attr(name string) (string, bool) {
	v, ok := e.attrs[name]
	return v, ok
}

func (e *fakeElement) Find(selector string) (render.Element, bool) {
	child, ok := e.finds[selector]
	if !ok {
		return nil, false
	}
	return child, true
}

func (e *fakeElement) FindAll(selector string) []render.Element {
	child, ok := e.finds[selector]
	if !ok {
		return nil
	}
	return []render.Element{child}
}

func (e *fakeElement) Click(ctx context.Context) error {
	if e.onClick == nil {
		return render.ErrNotClickable
	}
	return e.onClick(ctx)
}

// fakePage maps selectors to the elements a session would find.
type fakePage struct {
	selectors map[string][]*fakeElement
}

// fakeSite is the shared scripted backend behind every fake session.
type fakeSite struct {
	mu          sync.Mutex
	pages       map[string]*fakePage
	navFailures map[string]int // remaining forced failures per URL
	navCalls    map[string]int
	navDelay    time.Duration
	inFlight    int
	maxInFlight int
	sessions    int
}

func newFakeSite() *fakeSite {
	return &fakeSite{
		pages:       make(map[string]*fakePage),
		navFailures: make(map[string]int),
		navCalls:    make(map[string]int),
	}
}

func (s *fakeSite) addPage(url string) *fakePage {
	page := &fakePage{selectors: make(map[string][]*fakeElement)}
	s.pages[url] = page
	return page
}

func (s *fakeSite) callCount(url string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.navCalls[url]
}

func (s *fakeSite) maxConcurrent() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.maxInFlight
}

type fakeRenderer struct {
	site *fakeSite
}

func (r *fakeRenderer) NewSession(ctx context.Context) (render.Session, error) {
	r.site.mu.Lock()
	r.site.sessions++
	r.site.mu.Unlock()
	return &fakeSession{site: r.site}, nil
}

func (r *fakeRenderer) Close() error { return nil }

type fakeSession struct {
	site    *fakeSite
	current *fakePage
}

func (ss *fakeSession) Navigate(ctx context.Context, url string) error {
	site := ss.site
	site.mu.Lock()
	site.navCalls[url]++
	site.inFlight++
	if site.inFlight > site.maxInFlight {
		site.maxInFlight = site.inFlight
	}
	delay := site.navDelay
	remaining := site.navFailures[url]
	if remaining > 0 {
		site.navFailures[url] = remaining - 1
	}
	site.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}

	site.mu.Lock()
	site.inFlight--
	page := site.pages[url]
	site.mu.Unlock()

	if remaining > 0 {
		return fmt.Errorf("forced navigation failure for %s", url)
	}
	if page == nil {
		return fmt.Errorf("no page scripted for %s", url)
	}
	ss.current = page
	return nil
}

func (ss *fakeSession) WaitForSelector(ctx context.Context, selector string, timeout time.Duration) (render.Element, error) {
	if ss.current == nil {
		return nil, render.ErrNoDocument
	}
	elements := ss.current.selectors[selector]
	if len(elements) == 0 {
		return nil, fmt.Errorf("%w: %q", render.ErrSelectorTimeout, selector)
	}
	return elements[0], nil
}

func (ss *fakeSession) QueryAll(selector string) ([]render.Element, error) {
	if ss.current == nil {
		return nil, render.ErrNoDocument
	}
	var out []render.Element
	for _, el := range ss.current.selectors[selector] {
		out = append(out, el)
	}
	return out, nil
}

func (ss *fakeSession) Close() error { return nil }
