// Package search looks up free-text terms on DuckDuckGo's HTML endpoint and returns
// the first result that points outside the search engine.
package search

import (
	"bytes"
	"context"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/TylerDurden1983/shadowtrace/pkg/htmlutil"
	"github.com/TylerDurden1983/shadowtrace/pkg/httpcache"
)

const (
	// Name identifies DuckDuckGo as a finding source.
	Name = "duckduckgo"

	// DefaultEndpoint is the HTML results page queried by Lookup.
	DefaultEndpoint = "https://html.duckduckgo.com/html/"
	// DefaultDelay is the pause after every request, an informal rate limit.
	DefaultDelay = 220 * time.Millisecond

	origin        = "https://duckduckgo.com"
	engineDomain  = "duckduckgo.com"
	fallbackTitle = "Search result"
	minTitleLen   = 3
)

// Result is one external search hit.
type Result struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

type config struct {
	fetcher  *httpcache.Fetcher
	logger   *slog.Logger
	endpoint string
	delay    time.Duration
	timeout  time.Duration
}

// Option configures a DuckDuckGo searcher.
type Option func(*config)

// WithFetcher sets the HTTP fetcher.
func WithFetcher(f *httpcache.Fetcher) Option {
	return func(c *config) { c.fetcher = f }
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) { c.logger = logger }
}

// WithEndpoint overrides the results endpoint.
func WithEndpoint(endpoint string) Option {
	return func(c *config) { c.endpoint = endpoint }
}

// WithDelay overrides the post-request pause.
func WithDelay(d time.Duration) Option {
	return func(c *config) { c.delay = d }
}

// WithTimeout bounds each lookup request.
func WithTimeout(d time.Duration) Option {
	return func(c *config) { c.timeout = d }
}

// DuckDuckGo queries the DuckDuckGo HTML results page.
type DuckDuckGo struct {
	fetcher  *httpcache.Fetcher
	logger   *slog.Logger
	endpoint string
	delay    time.Duration
	timeout  time.Duration
}

// New creates a DuckDuckGo searcher.
func New(opts ...Option) *DuckDuckGo {
	cfg := &config{
		logger:   slog.Default(),
		endpoint: DefaultEndpoint,
		delay:    DefaultDelay,
		timeout:  httpcache.DefaultTimeout,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.fetcher == nil {
		cfg.fetcher = httpcache.NewFetcher(httpcache.WithLogger(cfg.logger))
	}
	return &DuckDuckGo{
		fetcher:  cfg.fetcher,
		logger:   cfg.logger,
		endpoint: cfg.endpoint,
		delay:    cfg.delay,
		timeout:  cfg.timeout,
	}
}

// Name returns the finding source for this engine.
func (*DuckDuckGo) Name() string { return Name }

// Lookup returns the first externally hosted result for q. Failures of any kind
// are logged and reported as no result.
func (d *DuckDuckGo) Lookup(ctx context.Context, q string) (Result, bool) {
	searchURL := d.endpoint + "?q=" + url.QueryEscape(q)

	reqCtx := ctx
	if d.timeout > 0 {
		var cancel context.CancelFunc
		reqCtx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	resp, err := d.fetcher.Get(reqCtx, searchURL, "")
	d.pause(ctx)
	if err != nil {
		d.logger.DebugContext(ctx, "search request failed", "query", q, "error", err)
		return Result{}, false
	}
	if resp.Status < 200 || resp.Status >= 300 {
		d.logger.DebugContext(ctx, "search request rejected", "query", q,
			"error", &httpcache.HTTPError{URL: searchURL, StatusCode: resp.Status})
		return Result{}, false
	}

	r, ok := FirstResult(resp.Body)
	d.logger.DebugContext(ctx, "search", "query", q, "found", ok, "url", r.URL)
	return r, ok
}

func (d *DuckDuckGo) pause(ctx context.Context) {
	if d.delay <= 0 {
		return
	}
	t := time.NewTimer(d.delay)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}

// FirstResult extracts the first result anchor in a DuckDuckGo HTML page whose
// target is not a DuckDuckGo URL.
func FirstResult(page []byte) (Result, bool) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return Result{}, false
	}

	var res Result
	var found bool
	doc.Find("a.result__a[href]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		href, _ := s.Attr("href")
		if href == "" {
			return true
		}
		target := DecodeRedirect(href)
		if target == "" || isEngineURL(target) {
			return true
		}

		inner, err := s.Html()
		if err != nil {
			inner = s.Text()
		}
		title := htmlutil.StripTags(inner)
		if len(title) < minTitleLen {
			title = fallbackTitle
		}
		res = Result{Title: title, URL: target}
		found = true
		return false
	})
	return res, found
}

// DecodeRedirect unwraps DuckDuckGo's /l/?uddg= redirect links. Other hrefs are
// resolved against the engine origin.
func DecodeRedirect(href string) string {
	base, _ := url.Parse(origin) //nolint:errcheck // constant
	u, err := base.Parse(href)
	if err != nil {
		return href
	}
	if target := u.Query().Get("uddg"); target != "" {
		// uddg values are sometimes escaped twice.
		decoded, err := url.PathUnescape(target)
		if err != nil {
			return href
		}
		return decoded
	}
	return u.String()
}

// isEngineURL rejects unparseable URLs and links back into the engine itself.
func isEngineURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return true
	}
	return strings.Contains(strings.ToLower(u.Hostname()), engineDomain)
}
