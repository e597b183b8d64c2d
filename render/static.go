package render

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"
	lru "github.com/hashicorp/golang-lru/v2"
)

const defaultCacheSize = 128

// ErrBadURL marks a navigation target that can never load. Callers use
// it to stop retrying.
var ErrBadURL = fmt.Errorf("render: malformed navigation URL")

// StaticOptions configures the static-HTML renderer.
type StaticOptions struct {
	Timeout   time.Duration
	UserAgent string
	CacheSize int
	// Transport overrides the HTTP transport, used by tests.
	Transport http.RoundTripper
}

// Static renders server-side HTML pages: it fetches documents over HTTP
// and answers element queries against the parsed DOM. Click follows the
// element's link target. Fetched documents are cached per URL.
type Static struct {
	opts  StaticOptions
	cache *lru.Cache[string, *fetchedDoc]
}

type fetchedDoc struct {
	doc *goquery.Document
	url string
}

// NewStatic builds a static renderer.
func NewStatic(opts StaticOptions) (*Static, error) {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.CacheSize <= 0 {
		opts.CacheSize = defaultCacheSize
	}
	cache, err := lru.New[string, *fetchedDoc](opts.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("create document cache: %w", err)
	}
	return &Static{opts: opts, cache: cache}, nil
}

// NewSession returns an isolated session with its own collector and
// cookie state.
func (s *Static) NewSession(ctx context.Context) (Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	options := []colly.CollectorOption{colly.AllowURLRevisit()}
	if s.opts.UserAgent != "" {
		options = append(options, colly.UserAgent(s.opts.UserAgent))
	}
	collector := colly.NewCollector(options...)
	collector.IgnoreRobotsTxt = true
	collector.SetRequestTimeout(s.opts.Timeout)
	if s.opts.Transport != nil {
		collector.WithTransport(s.opts.Transport)
	}

	sess := &staticSession{renderer: s, collector: collector}
	collector.OnResponse(sess.onResponse)
	collector.OnError(sess.onError)
	return sess, nil
}

// Close releases renderer resources.
func (s *Static) Close() error {
	s.cache.Purge()
	return nil
}

type staticSession struct {
	renderer  *Static
	collector *colly.Collector

	mu       sync.Mutex
	doc      *goquery.Document
	url      string
	fetchErr error
	closed   bool
}

func (ss *staticSession) onResponse(r *colly.Response) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(r.Body))
	ss.mu.Lock()
	defer ss.mu.Unlock()
	if err != nil {
		ss.fetchErr = fmt.Errorf("parse document: %w", err)
		return
	}
	ss.doc = doc
	ss.url = r.Request.URL.String()
	ss.fetchErr = nil
	ss.renderer.cache.Add(ss.url, &fetchedDoc{doc: doc, url: ss.url})
}

func (ss *staticSession) onError(r *colly.Response, err error) {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	ss.fetchErr = err
}

// Navigate fetches target and replaces the current document. Cached
// documents are reused without a network round trip.
func (ss *staticSession) Navigate(ctx context.Context, target string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	ss.mu.Lock()
	if ss.closed {
		ss.mu.Unlock()
		return fmt.Errorf("render: session closed")
	}
	ss.mu.Unlock()

	parsed, err := url.Parse(target)
	if err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return fmt.Errorf("%w: %q", ErrBadURL, target)
	}

	if cached, ok := ss.renderer.cache.Get(target); ok {
		ss.mu.Lock()
		ss.doc = cached.doc
		ss.url = cached.url
		ss.fetchErr = nil
		ss.mu.Unlock()
		return nil
	}

	ss.mu.Lock()
	ss.fetchErr = nil
	ss.mu.Unlock()

	if err := ss.collector.Visit(target); err != nil {
		return fmt.Errorf("visit %s: %w", target, err)
	}
	ss.collector.Wait()

	ss.mu.Lock()
	defer ss.mu.Unlock()
	if ss.fetchErr != nil {
		return fmt.Errorf("fetch %s: %w", target, ss.fetchErr)
	}
	if ss.doc == nil {
		return fmt.Errorf("fetch %s: %w", target, ErrNoDocument)
	}
	return nil
}

// WaitForSelector answers from the current document. Static pages never
// mutate after load, so a miss is final and returns without sleeping
// through the full timeout.
func (ss *staticSession) WaitForSelector(ctx context.Context, selector string, timeout time.Duration) (Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ss.mu.Lock()
	doc := ss.doc
	ss.mu.Unlock()
	if doc == nil {
		return nil, ErrNoDocument
	}
	sel := doc.Find(selector)
	if sel.Length() == 0 {
		return nil, fmt.Errorf("%w: %q", ErrSelectorTimeout, selector)
	}
	return &staticElement{sel: sel.First(), sess: ss}, nil
}

// QueryAll returns every match in the current document.
func (ss *staticSession) QueryAll(selector string) ([]Element, error) {
	ss.mu.Lock()
	doc := ss.doc
	ss.mu.Unlock()
	if doc == nil {
		return nil, ErrNoDocument
	}
	var elements []Element
	doc.Find(selector).Each(func(_ int, sel *goquery.Selection) {
		elements = append(elements, &staticElement{sel: sel, sess: ss})
	})
	return elements, nil
}

// Close marks the session unusable.
func (ss *staticSession) Close() error {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	ss.closed = true
	ss.doc = nil
	return nil
}

type staticElement struct {
	sel  *goquery.Selection
	sess *staticSession
}

func (e *staticElement) Text() string {
	return strings.TrimSpace(e.sel.Text())
}

func (e *staticElement) Attr(name string) (string, bool) {
	return e.sel.Attr(name)
}

func (e *staticElement) Find(selector string) (Element, bool) {
	sel := e.sel.Find(selector)
	if sel.Length() == 0 {
		return nil, false
	}
	return &staticElement{sel: sel.First(), sess: e.sess}, true
}

func (e *staticElement) FindAll(selector string) []Element {
	var elements []Element
	e.sel.Find(selector).Each(func(_ int, sel *goquery.Selection) {
		elements = append(elements, &staticElement{sel: sel, sess: e.sess})
	})
	return elements
}

// Click follows the element's link target: href on anchors, data-href
// on controls rendered as buttons.
func (e *staticElement) Click(ctx context.Context) error {
	href, ok := e.sel.Attr("href")
	if !ok {
		href, ok = e.sel.Attr("data-href")
	}
	if !ok || strings.TrimSpace(href) == "" {
		return ErrNotClickable
	}

	e.sess.mu.Lock()
	current := e.sess.url
	e.sess.mu.Unlock()

	target := href
	if base, err := url.Parse(current); err == nil && base.Host != "" {
		if ref, err := url.Parse(href); err == nil {
			target = base.ResolveReference(ref).String()
		}
	}
	return e.sess.Navigate(ctx, target)
}
