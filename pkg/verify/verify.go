// Package verify decides whether a username exists on a profile site.
//
// A probe is classified with layered heuristics because no single signal is
// reliable: many platforms answer soft-404 pages with HTTP 200, marker phrases
// drift with markup changes, and bot walls look like neither presence nor absence.
package verify

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/TylerDurden1983/shadowtrace/pkg/htmlutil"
	"github.com/TylerDurden1983/shadowtrace/pkg/httpcache"
	"github.com/TylerDurden1983/shadowtrace/pkg/site"
	"github.com/TylerDurden1983/shadowtrace/pkg/username"
)

// Outcome is the three-way classification of a probe.
type Outcome string

// Probe outcomes.
const (
	Confirmed Outcome = "confirmed"
	Absent    Outcome = "absent"
	Unknown   Outcome = "unknown" // blocked or rate limited; never scored
)

// Result is the outcome of probing one (site, username) pair.
type Result struct {
	OK            bool   `json:"ok"`
	URL           string `json:"url"`
	Status        int    `json:"httpStatus"`
	Unknown       bool   `json:"unknown,omitempty"`
	FalsePositive bool   `json:"falsePositive,omitempty"`
}

// Outcome classifies the result.
func (r Result) Outcome() Outcome {
	switch {
	case r.Unknown:
		return Unknown
	case r.OK:
		return Confirmed
	default:
		return Absent
	}
}

// isBlocked reports statuses that mean "go away" rather than "no such user".
// 999 is LinkedIn-style bot blocking.
func isBlocked(status int) bool {
	return status == http.StatusForbidden || status == http.StatusTooManyRequests || status == 999
}

type config struct {
	fetcher *httpcache.Fetcher
	logger  *slog.Logger
	timeout time.Duration
}

// Option configures a Verifier.
type Option func(*config)

// WithFetcher sets the HTTP fetcher used for probes.
func WithFetcher(f *httpcache.Fetcher) Option {
	return func(c *config) { c.fetcher = f }
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) { c.logger = logger }
}

// WithTimeout bounds each probe.
func WithTimeout(d time.Duration) Option {
	return func(c *config) { c.timeout = d }
}

// Verifier probes profile sites.
type Verifier struct {
	fetcher *httpcache.Fetcher
	logger  *slog.Logger
	timeout time.Duration
}

// New creates a Verifier.
func New(opts ...Option) *Verifier {
	cfg := &config{
		logger:  slog.Default(),
		timeout: httpcache.DefaultTimeout,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.fetcher == nil {
		cfg.fetcher = httpcache.NewFetcher(httpcache.WithLogger(cfg.logger))
	}
	return &Verifier{fetcher: cfg.fetcher, logger: cfg.logger, timeout: cfg.timeout}
}

// Check probes s for raw. It never fails: transport errors, invalid usernames and
// unreadable pages all collapse into a not-ok Result.
func (v *Verifier) Check(ctx context.Context, s site.Site, raw string) Result {
	u := username.Normalize(raw)
	if u == "" || !s.Accepts(u) {
		return Result{}
	}

	profileURL := s.ProfileURL(u)
	expected := s.ExpectedURL(u)

	reqCtx := ctx
	if v.timeout > 0 {
		var cancel context.CancelFunc
		reqCtx, cancel = context.WithTimeout(ctx, v.timeout)
		defer cancel()
	}

	resp, err := v.fetcher.Get(reqCtx, profileURL, s.Referer)
	if err != nil {
		v.logger.DebugContext(ctx, "probe failed", "site", s.Name, "url", profileURL, "error", err)
		return Result{URL: profileURL}
	}

	r := classify(s, profileURL, expected, resp)
	v.logger.DebugContext(ctx, "probe",
		"site", s.Name, "username", u, "status", r.Status,
		"outcome", r.Outcome(), "false_positive", r.FalsePositive, "url", r.URL)
	return r
}

func classify(s site.Site, profileURL, expected string, resp *httpcache.Response) Result {
	if isBlocked(resp.Status) {
		return Result{URL: profileURL, Status: resp.Status, Unknown: true}
	}

	finalURL := resp.URL
	if finalURL == "" {
		finalURL = profileURL
	}

	body := string(resp.Body)
	if _, found := htmlutil.ContainsMarker(body, s.NotFound); found {
		return Result{URL: finalURL, Status: resp.Status}
	}

	declared := htmlutil.MetaURL(body)
	if declared == "" {
		declared = finalURL
		// A meta refresh to another page means the profile itself was not served.
		if s.RequireCanonicalMatch {
			if target := htmlutil.RefreshURL(body, finalURL); target != "" {
				declared = target
			}
		}
	}

	if s.RequireCanonicalMatch && trimSlashes(declared) != trimSlashes(expected) {
		return Result{URL: declared, Status: resp.Status, FalsePositive: true}
	}

	ok := resp.Status >= 200 && resp.Status < 400
	return Result{OK: ok, URL: declared, Status: resp.Status}
}

func trimSlashes(s string) string {
	return strings.TrimRight(s, "/")
}
