// Package httpcache provides the outbound HTTP layer: browser-like requests, per-host
// scheduling, transient retries and an optional on-disk response cache.
package httpcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/codeGROOVE-dev/retry"
	"github.com/codeGROOVE-dev/sfcache"
	"github.com/codeGROOVE-dev/sfcache/pkg/store/localfs"
)

const (
	// UserAgent is the desktop Chrome User-Agent sent with every request.
	UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36"

	accept         = "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8"
	acceptLanguage = "en-US,en;q=0.9"
	acceptEncoding = "gzip, deflate, br"

	cacheNamespace = "shadowtrace"
)

// Stats tracks cache hit/miss statistics.
type Stats struct {
	Hits   int64
	Misses int64
}

var hits, misses atomic.Int64

// CacheStats returns the current cache statistics.
func CacheStats() Stats {
	return Stats{Hits: hits.Load(), Misses: misses.Load()}
}

// Cacher allows external cache implementations for sharing across packages.
type Cacher interface {
	GetSet(ctx context.Context, key string, fetch func(context.Context) ([]byte, error), ttl ...time.Duration) ([]byte, error)
	TTL() time.Duration
}

// Cache wraps sfcache for HTTP response caching.
type Cache struct {
	*sfcache.TieredCache[string, []byte]

	ttl time.Duration
}

// New creates a Cache persisted under dir, or under the user cache directory when dir is empty.
func New(ttl time.Duration, dir string) (*Cache, error) {
	if dir == "" {
		base, err := os.UserCacheDir()
		if err != nil {
			base = os.TempDir()
		}
		dir = filepath.Join(base, cacheNamespace)
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}

	persist, err := localfs.New[string, []byte](cacheNamespace, dir)
	if err != nil {
		return nil, fmt.Errorf("create persistence layer: %w", err)
	}

	tc, err := sfcache.NewTiered[string, []byte](persist, sfcache.TTL(ttl))
	if err != nil {
		return nil, fmt.Errorf("create cache: %w", err)
	}

	return &Cache{TieredCache: tc, ttl: ttl}, nil
}

// TTL returns the default TTL for cache entries.
func (c *Cache) TTL() time.Duration {
	return c.ttl
}

// URLToKey converts a URL to a cache key using SHA256 hash.
func URLToKey(rawURL string) string {
	hash := sha256.Sum256([]byte(rawURL))
	return hex.EncodeToString(hash[:])
}

// HTTPError represents an unexpected HTTP status.
type HTTPError struct {
	URL        string
	StatusCode int
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d fetching %s", e.StatusCode, e.URL)
}

// Response is a fully read HTTP response.
type Response struct {
	Status int    `json:"status"`
	URL    string `json:"url"` // final URL after redirects
	Body   []byte `json:"body"`
}

// SetBrowserHeaders sets the headers a desktop browser would send for a top-level navigation.
func SetBrowserHeaders(req *http.Request, referer string) {
	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("Accept", accept)
	req.Header.Set("Accept-Language", acceptLanguage)
	req.Header.Set("Accept-Encoding", acceptEncoding)
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("Pragma", "no-cache")
	if referer != "" {
		req.Header.Set("Referer", referer)
	}
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithCache enables response caching.
func WithCache(c Cacher) Option {
	return func(f *Fetcher) { f.cache = c }
}

// WithLimiter shares a per-host scheduler between fetchers.
func WithLimiter(l *HostLimiter) Option {
	return func(f *Fetcher) { f.limiter = l }
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(f *Fetcher) { f.logger = logger }
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(f *Fetcher) { f.client = c }
}

// Fetcher performs scheduled, cached GET requests.
type Fetcher struct {
	client  *http.Client
	cache   Cacher
	limiter *HostLimiter
	logger  *slog.Logger
}

// NewFetcher creates a Fetcher. Without options it uses a default client, no cache and no scheduling.
func NewFetcher(opts ...Option) *Fetcher {
	f := &Fetcher{logger: slog.Default()}
	for _, opt := range opts {
		opt(f)
	}
	if f.client == nil {
		f.client = &http.Client{Timeout: DefaultTimeout}
	}
	return f
}

// Get fetches rawURL with browser headers. Any HTTP status is a successful fetch;
// only transport failures are returned as errors.
func (f *Fetcher) Get(ctx context.Context, rawURL, referer string) (*Response, error) {
	if f.cache == nil {
		misses.Add(1)
		return f.fetch(ctx, rawURL, referer)
	}

	var fresh *Response
	data, err := f.cache.GetSet(ctx, URLToKey(rawURL+"|"+referer), func(ctx context.Context) ([]byte, error) {
		misses.Add(1)
		f.logger.DebugContext(ctx, "cache miss", "url", rawURL)
		resp, err := f.fetch(ctx, rawURL, referer)
		if err != nil {
			return nil, err
		}
		fresh = resp
		if !cacheable(resp.Status) {
			return nil, &uncacheableError{}
		}
		return json.Marshal(resp)
	}, f.cache.TTL())

	if fresh != nil {
		return fresh, nil
	}
	var skip *uncacheableError
	if errors.As(err, &skip) {
		// Another caller fetched the same key but the response was not stored.
		return f.fetch(ctx, rawURL, referer)
	}
	if err != nil {
		return nil, err
	}

	var cached Response
	if err := json.Unmarshal(data, &cached); err != nil {
		return nil, fmt.Errorf("decode cached response: %w", err)
	}
	hits.Add(1)
	f.logger.DebugContext(ctx, "cache hit", "url", rawURL)
	return &cached, nil
}

type uncacheableError struct{}

func (*uncacheableError) Error() string { return "response not cacheable" }

// cacheable excludes bot blocks and server errors so they are retried on the next run.
func cacheable(status int) bool {
	switch status {
	case http.StatusForbidden, http.StatusTooManyRequests, 999:
		return false
	}
	return status < http.StatusInternalServerError
}

func (f *Fetcher) fetch(ctx context.Context, rawURL, referer string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	SetBrowserHeaders(req, referer)

	return retry.DoWithData(
		func() (*Response, error) {
			if f.limiter != nil {
				if err := f.limiter.Wait(ctx, rawURL); err != nil {
					return nil, err
				}
			}

			resp, err := f.client.Do(req)
			if err != nil {
				return nil, err
			}
			defer resp.Body.Close() //nolint:errcheck // intentional

			body, err := readBody(resp)
			if err != nil {
				f.logger.DebugContext(ctx, "discarding unreadable body", "url", rawURL, "error", err)
				body = nil
			}

			return &Response{Status: resp.StatusCode, URL: resp.Request.URL.String(), Body: body}, nil
		},
		retry.Context(ctx),
		retry.Attempts(2),                     // single retry
		retry.Delay(200*time.Millisecond),     // delay before retry
		retry.MaxJitter(100*time.Millisecond), // small jitter
		retry.RetryIf(isRetryableError),       // only retry transient errors
		retry.OnRetry(func(n uint, err error) {
			f.logger.DebugContext(ctx, "retrying HTTP request", "attempt", n+1, "url", rawURL, "error", err)
		}),
	)
}

// isRetryableError returns true for transient transport errors. Timeouts and
// cancellation are final: the caller's deadline already covers the whole probe.
func isRetryableError(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return false
	}
	return true
}
