package search

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/TylerDurden1983/shadowtrace/pkg/httpcache"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

const resultsPage = `<html><body>
<div class="results">
  <a class="result__a" href="//duckduckgo.com/y.js?ad_provider=x">Sponsored</a>
  <a rel="nofollow" class="result__a" href="//duckduckgo.com/l/?uddg=https%3A%2F%2Fgithub.com%2Falice&amp;rut=abc"><b>alice</b> (Alice) &middot; GitHub</a>
  <a class="result__a" href="https://www.reddit.com/user/alice">alice on reddit</a>
</div>
</body></html>`

func TestFirstResult(t *testing.T) {
	tests := []struct {
		name    string
		page    string
		want    Result
		wantHit bool
	}{
		{
			name:    "skips engine links and decodes redirect",
			page:    resultsPage,
			want:    Result{Title: "alice (Alice) · GitHub", URL: "https://github.com/alice"},
			wantHit: true,
		},
		{
			name:    "direct href",
			page:    `<a class="result__a" href="https://x.com/alice">alice (@alice) / X</a>`,
			want:    Result{Title: "alice (@alice) / X", URL: "https://x.com/alice"},
			wantHit: true,
		},
		{
			name:    "short title replaced",
			page:    `<a class="result__a" href="https://example.org/a"><b>ab</b></a>`,
			want:    Result{Title: "Search result", URL: "https://example.org/a"},
			wantHit: true,
		},
		{
			name:    "class must be present",
			page:    `<a class="result__url" href="https://example.org/a">example</a>`,
			wantHit: false,
		},
		{
			name:    "only internal links",
			page:    `<a class="result__a" href="/html/?q=next">Next page</a>`,
			wantHit: false,
		},
		{
			name:    "empty page",
			page:    "",
			wantHit: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := FirstResult([]byte(tt.page))
			if ok != tt.wantHit {
				t.Fatalf("FirstResult() hit = %v, want %v", ok, tt.wantHit)
			}
			if got != tt.want {
				t.Errorf("FirstResult() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestDecodeRedirect(t *testing.T) {
	tests := []struct {
		href string
		want string
	}{
		{"//duckduckgo.com/l/?uddg=https%3A%2F%2Fexample.com%2Fa%3Fb%3D1&rut=x", "https://example.com/a?b=1"},
		{"/l/?uddg=https%253A%252F%252Fexample.com%252Fz", "https://example.com/z"},
		{"https://example.com/direct", "https://example.com/direct"},
		{"/html/?q=more", "https://duckduckgo.com/html/?q=more"},
	}
	for _, tt := range tests {
		if got := DecodeRedirect(tt.href); got != tt.want {
			t.Errorf("DecodeRedirect(%q) = %q, want %q", tt.href, got, tt.want)
		}
	}
}

func TestIsEngineURL(t *testing.T) {
	tests := []struct {
		raw  string
		want bool
	}{
		{"https://duckduckgo.com/about", true},
		{"https://html.DuckDuckGo.com/html", true},
		{"https://github.com/alice", false},
		{"/relative/path", true},
		{"://broken", true},
	}
	for _, tt := range tests {
		if got := isEngineURL(tt.raw); got != tt.want {
			t.Errorf("isEngineURL(%q) = %v, want %v", tt.raw, got, tt.want)
		}
	}
}

func TestLookup(t *testing.T) {
	var (
		mu              sync.Mutex
		gotQuery, gotUA string
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query().Get("q")
		mu.Lock()
		gotQuery, gotUA = q, r.Header.Get("User-Agent")
		mu.Unlock()
		if strings.Contains(q, "nobody") {
			w.Write([]byte(`<html><body>No results.</body></html>`)) //nolint:errcheck // test
			return
		}
		if strings.Contains(q, "blocked") {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		w.Write([]byte(resultsPage)) //nolint:errcheck // test
	}))
	defer server.Close()

	logger := testLogger()
	d := New(
		WithFetcher(httpcache.NewFetcher(httpcache.WithHTTPClient(server.Client()), httpcache.WithLogger(logger))),
		WithLogger(logger),
		WithEndpoint(server.URL+"/html/"),
		WithDelay(10*time.Millisecond),
	)

	ctx := context.Background()
	q := "alice site:github.com OR site:x.com"
	got, ok := d.Lookup(ctx, q)
	if !ok {
		t.Fatal("Lookup() found nothing")
	}
	if got.URL != "https://github.com/alice" {
		t.Errorf("Lookup() URL = %q", got.URL)
	}
	mu.Lock()
	if gotQuery != q {
		t.Errorf("server saw q = %q, want %q", gotQuery, q)
	}
	if gotUA != httpcache.UserAgent {
		t.Errorf("server saw User-Agent %q", gotUA)
	}
	mu.Unlock()

	if _, ok := d.Lookup(ctx, "nobody@example.com"); ok {
		t.Error("Lookup() on a page without results should miss")
	}
	if _, ok := d.Lookup(ctx, "blocked"); ok {
		t.Error("Lookup() on a 403 should miss")
	}
	if d.Name() != "duckduckgo" {
		t.Errorf("Name() = %q", d.Name())
	}
}

func TestLookupAppliesDelay(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(resultsPage)) //nolint:errcheck // test
	}))
	defer server.Close()

	logger := testLogger()
	d := New(
		WithFetcher(httpcache.NewFetcher(httpcache.WithHTTPClient(server.Client()), httpcache.WithLogger(logger))),
		WithLogger(logger),
		WithEndpoint(server.URL),
		WithDelay(80*time.Millisecond),
	)

	start := time.Now()
	d.Lookup(context.Background(), "alice")
	if elapsed := time.Since(start); elapsed < 80*time.Millisecond {
		t.Errorf("Lookup() returned after %v, want >= 80ms post-request delay", elapsed)
	}
}

func TestLookupNetworkFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	addr := server.URL
	server.Close()

	logger := testLogger()
	d := New(
		WithFetcher(httpcache.NewFetcher(httpcache.WithHTTPClient(&http.Client{Timeout: time.Second}), httpcache.WithLogger(logger))),
		WithLogger(logger),
		WithEndpoint(addr),
		WithDelay(0),
	)
	if _, ok := d.Lookup(context.Background(), "alice"); ok {
		t.Error("Lookup() against a closed server should miss")
	}
}
