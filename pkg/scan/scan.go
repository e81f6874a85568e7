// Package scan turns a free-text query into a findings report.
//
// A scan expands the query's identifiers into candidate usernames, probes every
// profile site for the leading candidates, runs a handful of public-search lookups
// and folds the evidence into a report.Report.
package scan

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/TylerDurden1983/shadowtrace/pkg/httpcache"
	"github.com/TylerDurden1983/shadowtrace/pkg/query"
	"github.com/TylerDurden1983/shadowtrace/pkg/report"
	"github.com/TylerDurden1983/shadowtrace/pkg/search"
	"github.com/TylerDurden1983/shadowtrace/pkg/site"
	"github.com/TylerDurden1983/shadowtrace/pkg/username"
	"github.com/TylerDurden1983/shadowtrace/pkg/verify"
)

// DefaultWorkers is the number of sites probed in parallel.
const DefaultWorkers = 4

// Verifier checks whether a username exists on a site.
type Verifier interface {
	Check(ctx context.Context, s site.Site, username string) verify.Result
}

// Searcher returns the first external result for a query.
type Searcher interface {
	Lookup(ctx context.Context, q string) (search.Result, bool)
	Name() string
}

// Limits caps the work done per scan.
type Limits struct {
	MaxUsernames        int `yaml:"maxUsernames" json:"maxUsernames"`
	MaxProbed           int `yaml:"maxProbed" json:"maxProbed"`
	MaxEmailSearches    int `yaml:"maxEmailSearches" json:"maxEmailSearches"`
	MaxUsernameSearches int `yaml:"maxUsernameSearches" json:"maxUsernameSearches"`
}

// DefaultLimits returns the standard caps.
func DefaultLimits() Limits {
	return Limits{
		MaxUsernames:        30,
		MaxProbed:           10,
		MaxEmailSearches:    5,
		MaxUsernameSearches: 5,
	}
}

type config struct {
	sites    *site.Table
	verifier Verifier
	searcher Searcher
	logger   *slog.Logger
	limits   Limits
	workers  int
}

// Option configures a Scanner.
type Option func(*config)

// WithSites replaces the built-in site table.
func WithSites(t *site.Table) Option {
	return func(c *config) { c.sites = t }
}

// WithVerifier sets the profile verifier.
func WithVerifier(v Verifier) Option {
	return func(c *config) { c.verifier = v }
}

// WithSearcher sets the public search engine.
func WithSearcher(s Searcher) Option {
	return func(c *config) { c.searcher = s }
}

// WithLimits overrides the per-scan caps.
func WithLimits(l Limits) Option {
	return func(c *config) { c.limits = l }
}

// WithWorkers sets how many sites are probed in parallel.
func WithWorkers(n int) Option {
	return func(c *config) { c.workers = n }
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) { c.logger = logger }
}

// Scanner runs scans. It holds no per-scan state and is safe for concurrent use.
type Scanner struct {
	sites    *site.Table
	verifier Verifier
	searcher Searcher
	logger   *slog.Logger
	limits   Limits
	workers  int
}

// New creates a Scanner. Without a verifier or searcher it builds both on one
// shared fetcher so that probes and searches respect the same per-host schedule.
func New(opts ...Option) *Scanner {
	cfg := &config{
		logger:  slog.Default(),
		limits:  DefaultLimits(),
		workers: DefaultWorkers,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.sites == nil {
		cfg.sites = site.Default()
	}
	if cfg.verifier == nil || cfg.searcher == nil {
		fetcher := httpcache.NewFetcher(
			httpcache.WithLimiter(NewHostLimiter(cfg.sites, httpcache.DefaultProbeInterval)),
			httpcache.WithLogger(cfg.logger),
		)
		if cfg.verifier == nil {
			cfg.verifier = verify.New(verify.WithFetcher(fetcher), verify.WithLogger(cfg.logger))
		}
		if cfg.searcher == nil {
			cfg.searcher = search.New(search.WithFetcher(fetcher), search.WithLogger(cfg.logger))
		}
	}
	if cfg.workers < 1 {
		cfg.workers = 1
	}
	return &Scanner{
		sites:    cfg.sites,
		verifier: cfg.verifier,
		searcher: cfg.searcher,
		logger:   cfg.logger,
		limits:   cfg.limits,
		workers:  cfg.workers,
	}
}

// NewHostLimiter spaces requests to each host by interval, applying the per-site
// interval overrides declared in t.
func NewHostLimiter(t *site.Table, interval time.Duration) *httpcache.HostLimiter {
	l := httpcache.NewHostLimiter(interval)
	for host, d := range t.HostIntervals() {
		l.SetHostInterval(host, d)
	}
	return l
}

// Sites returns the table the scanner probes.
func (s *Scanner) Sites() *site.Table {
	return s.sites
}

// searchHit is one successful lookup, kept in a pre-sized slot.
type searchHit struct {
	result search.Result
	ok     bool
}

// Scan runs the full pipeline for q. The only error is the context's, in which
// case no partial report is returned.
func (s *Scanner) Scan(ctx context.Context, q string) (*report.Report, error) {
	start := time.Now()
	ents := query.Parse(q)
	usernames := s.expand(ents)

	probed := usernames[:min(len(usernames), s.limits.MaxProbed)]
	emailTerms := ents.Emails[:min(len(ents.Emails), s.limits.MaxEmailSearches)]
	userTerms := usernames[:min(len(usernames), s.limits.MaxUsernameSearches)]

	sites := s.sites.Sites()
	probes := make([][]verify.Result, len(sites))
	for i := range probes {
		probes[i] = make([]verify.Result, len(probed))
	}
	emailHits := make([]searchHit, len(emailTerms))
	userHits := make([]searchHit, len(userTerms))

	g, gctx := errgroup.WithContext(ctx)
	// One extra slot keeps the search stage from waiting behind probe workers.
	g.SetLimit(s.workers + 1)

	g.Go(func() error {
		return s.searchAll(gctx, emailTerms, userTerms, emailHits, userHits)
	})
	for i, st := range sites {
		g.Go(func() error {
			// Usernames are walked in order so a host has one request in flight.
			for j, u := range probed {
				if err := gctx.Err(); err != nil {
					return err
				}
				probes[i][j] = s.verifier.Check(gctx, st, u)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("scan: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("scan: %w", err)
	}

	r := s.assemble(ents, usernames, probed, sites, probes, emailTerms, emailHits, userTerms, userHits)
	s.logger.InfoContext(ctx, "scan complete",
		"emails", len(ents.Emails), "usernames", len(usernames), "probed", len(probed),
		"findings", r.Summary.TotalFindings, "platforms", r.Summary.Platforms,
		"confidence", r.Summary.Confidence, "duration", time.Since(start))
	return r, nil
}

// expand derives the capped candidate username list from the query entities.
func (s *Scanner) expand(ents query.Entities) []string {
	var pivot []string
	for _, e := range ents.Emails {
		pivot = append(pivot, username.FromEmail(e)...)
	}

	bases := make([]string, 0, len(ents.Usernames)+len(pivot))
	bases = append(bases, ents.Usernames...)
	bases = append(bases, pivot...)

	lists := make([][]string, 0, len(bases))
	for _, u := range bases {
		lists = append(lists, username.Variants(u, ents.TypedDigits))
	}
	return username.Merge(s.limits.MaxUsernames, lists...)
}

func (s *Scanner) searchAll(ctx context.Context, emails, users []string, emailHits, userHits []searchHit) error {
	for i, e := range emails {
		if err := ctx.Err(); err != nil {
			return err
		}
		r, ok := s.searcher.Lookup(ctx, e)
		emailHits[i] = searchHit{result: r, ok: ok}
	}

	suffix := siteFilter(s.sites.SearchDomains())
	for i, u := range users {
		if err := ctx.Err(); err != nil {
			return err
		}
		r, ok := s.searcher.Lookup(ctx, u+suffix)
		userHits[i] = searchHit{result: r, ok: ok}
	}
	return nil
}

// siteFilter renders " site:a OR site:b ..." for the given domains.
func siteFilter(domains []string) string {
	if len(domains) == 0 {
		return ""
	}
	var b strings.Builder
	for i, d := range domains {
		if i == 0 {
			b.WriteString(" site:")
		} else {
			b.WriteString(" OR site:")
		}
		b.WriteString(d)
	}
	return b.String()
}

//nolint:revive // assembly needs every slot slice
func (s *Scanner) assemble(
	ents query.Entities,
	usernames, probed []string,
	sites []site.Site,
	probes [][]verify.Result,
	emailTerms []string, emailHits []searchHit,
	userTerms []string, userHits []searchHit,
) *report.Report {
	var findings []report.Finding
	platforms := make(map[string]bool)

	for j, u := range probed {
		for i, st := range sites {
			r := probes[i][j]
			if !r.OK {
				continue
			}
			platforms[st.Name] = true
			findings = append(findings, report.Finding{
				Entity:     u,
				Type:       report.TypeProfile,
				Source:     st.Name,
				Title:      u + " on " + st.Name,
				URL:        r.URL,
				Confidence: report.ProfileConfidence(st.EffectiveWeight()),
			})
		}
	}

	risk := 0
	for i, h := range emailHits {
		if !h.ok {
			continue
		}
		risk++
		findings = append(findings, report.Finding{
			Entity:     emailTerms[i],
			Type:       report.TypeSearch,
			Source:     s.searcher.Name(),
			Title:      h.result.Title,
			URL:        h.result.URL,
			Confidence: report.EmailSearchConfidence,
		})
	}
	for i, h := range userHits {
		if !h.ok {
			continue
		}
		findings = append(findings, report.Finding{
			Entity:     userTerms[i],
			Type:       report.TypeSearch,
			Source:     s.searcher.Name(),
			Title:      h.result.Title,
			URL:        h.result.URL,
			Confidence: report.UsernameSearchConfidence,
		})
	}

	return report.New(report.Entities{Emails: ents.Emails, Usernames: usernames}, findings, len(platforms), risk)
}
