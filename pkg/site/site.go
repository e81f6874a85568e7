// Package site defines the table of public profile endpoints probed during a scan.
//
// Sites are plain value records: one verification routine is parameterized by the
// record rather than implemented per platform. The built-in table is embedded YAML
// and can be replaced by a user-supplied file with the same shape.
package site

import (
	_ "embed"
	"fmt"
	"net/url"
	"os"
	"regexp"
	"slices"
	"strings"
	"time"

	"golang.org/x/net/publicsuffix"
	"gopkg.in/yaml.v3"
)

// DefaultWeight is used for sites that do not declare a weight.
const DefaultWeight = 0.6

//go:embed sites.yaml
var builtin []byte

// Site describes one profile endpoint.
type Site struct {
	Name string `yaml:"name" json:"name"`
	// URL is the profile URL template; %s is the username.
	URL string `yaml:"url" json:"url"`
	// Expected is the canonical URL template a real profile declares. Defaults to URL.
	Expected string `yaml:"expected" json:"expected,omitempty"`
	Referer  string `yaml:"referer" json:"referer,omitempty"`
	// Pattern restricts which usernames are worth probing on this site.
	Pattern  string   `yaml:"pattern" json:"pattern,omitempty"`
	NotFound []string `yaml:"notFound" json:"notFound"`
	Weight   float64  `yaml:"weight" json:"weight"`
	// Interval overrides the per-host probe spacing for this site's host.
	Interval time.Duration `yaml:"interval" json:"interval,omitempty"`

	RequireCanonicalMatch bool `yaml:"requireCanonicalMatch" json:"requireCanonicalMatch"`
	Search                bool `yaml:"search" json:"search"`

	pattern *regexp.Regexp
}

// ProfileURL returns the URL probed for username.
func (s Site) ProfileURL(username string) string {
	return strings.Replace(s.URL, "%s", username, 1)
}

// ExpectedURL returns the canonical URL a real profile page for username declares.
func (s Site) ExpectedURL(username string) string {
	if s.Expected == "" {
		return s.ProfileURL(username)
	}
	return strings.Replace(s.Expected, "%s", username, 1)
}

// Accepts reports whether username satisfies the site's username rules.
func (s Site) Accepts(username string) bool {
	if s.pattern == nil {
		return true
	}
	return s.pattern.MatchString(username)
}

// EffectiveWeight returns Weight, or DefaultWeight when unset.
func (s Site) EffectiveWeight() float64 {
	if s.Weight <= 0 {
		return DefaultWeight
	}
	return s.Weight
}

// Host returns the host name of the profile URL template.
func (s Site) Host() string {
	u, err := url.Parse(s.ProfileURL("x"))
	if err != nil {
		return ""
	}
	return u.Hostname()
}

// Domain returns the registrable domain of the site, e.g. "instagram.com" for www.instagram.com.
func (s Site) Domain() string {
	host := s.Host()
	if host == "" {
		return ""
	}
	d, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return host
	}
	return d
}

// Table is an immutable, ordered list of sites.
type Table struct {
	sites []Site
	// searchOrder names the search sites that lead the site: filter.
	searchOrder []string
}

type file struct {
	Sites       []Site   `yaml:"sites"`
	SearchOrder []string `yaml:"searchOrder"`
}

// Default returns the built-in table.
func Default() *Table {
	t, err := Parse(builtin)
	if err != nil {
		panic("built-in site table: " + err.Error())
	}
	return t
}

// Load reads a site table from a YAML file.
func Load(path string) (*Table, error) {
	data, err := os.ReadFile(path) //nolint:gosec // user-provided table path is intentional
	if err != nil {
		return nil, fmt.Errorf("read site table: %w", err)
	}
	t, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// Parse decodes and validates a YAML site table.
func Parse(data []byte) (*Table, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse site table: %w", err)
	}
	t, err := New(f.Sites...)
	if err != nil {
		return nil, err
	}
	if err := t.setSearchOrder(f.SearchOrder); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *Table) setSearchOrder(names []string) error {
	for _, name := range names {
		s, ok := t.Lookup(name)
		if !ok {
			return fmt.Errorf("searchOrder: %w: unknown site %q", ErrInvalidSite, name)
		}
		if !s.Search {
			return fmt.Errorf("searchOrder: %w: site %q is not marked search", ErrInvalidSite, name)
		}
	}
	t.searchOrder = slices.Clone(names)
	return nil
}

// New validates sites and builds a Table from them.
func New(sites ...Site) (*Table, error) {
	if len(sites) == 0 {
		return nil, ErrNoSites
	}
	seen := make(map[string]bool, len(sites))
	out := make([]Site, 0, len(sites))
	for i, s := range sites {
		if err := s.validate(); err != nil {
			return nil, fmt.Errorf("site %d (%q): %w", i, s.Name, err)
		}
		if seen[s.Name] {
			return nil, fmt.Errorf("site %d (%q): %w: duplicate name", i, s.Name, ErrInvalidSite)
		}
		seen[s.Name] = true
		if s.Pattern != "" {
			s.pattern = regexp.MustCompile(s.Pattern) // validated above
		}
		s.NotFound = slices.Clone(s.NotFound)
		out = append(out, s)
	}
	return &Table{sites: out}, nil
}

func (s Site) validate() error {
	if s.Name == "" {
		return fmt.Errorf("%w: missing name", ErrInvalidSite)
	}
	if strings.Count(s.URL, "%s") != 1 {
		return fmt.Errorf("%w: url must contain exactly one %%s", ErrInvalidSite)
	}
	if s.Expected != "" && strings.Count(s.Expected, "%s") != 1 {
		return fmt.Errorf("%w: expected must contain exactly one %%s", ErrInvalidSite)
	}
	u, err := url.Parse(s.ProfileURL("x"))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: url %q is not an absolute http(s) URL", ErrInvalidSite, s.URL)
	}
	if s.Interval < 0 {
		return fmt.Errorf("%w: negative interval %v", ErrInvalidSite, s.Interval)
	}
	if s.Weight < 0 || s.Weight > 1 {
		return fmt.Errorf("%w: weight %v outside [0,1]", ErrInvalidSite, s.Weight)
	}
	if s.Pattern != "" {
		if _, err := regexp.Compile(s.Pattern); err != nil {
			return fmt.Errorf("%w: pattern: %w", ErrInvalidSite, err)
		}
	}
	return nil
}

// Sites returns a copy of the table's sites in declaration order.
func (t *Table) Sites() []Site {
	return slices.Clone(t.sites)
}

// Len returns the number of sites.
func (t *Table) Len() int {
	return len(t.sites)
}

// Lookup returns the site with the given name.
func (t *Table) Lookup(name string) (Site, bool) {
	for _, s := range t.sites {
		if s.Name == name {
			return s, true
		}
	}
	return Site{}, false
}

// SearchDomains returns the registrable domains of sites marked for search, without
// repeats. Sites named in the table's searchOrder come first, then the rest in table order.
func (t *Table) SearchDomains() []string {
	var out []string
	add := func(s Site) {
		if !s.Search {
			return
		}
		if d := s.Domain(); d != "" && !slices.Contains(out, d) {
			out = append(out, d)
		}
	}
	for _, name := range t.searchOrder {
		if s, ok := t.Lookup(name); ok {
			add(s)
		}
	}
	for _, s := range t.sites {
		add(s)
	}
	return out
}

// HostIntervals returns the probe spacing overrides declared by sites, keyed by host.
func (t *Table) HostIntervals() map[string]time.Duration {
	out := make(map[string]time.Duration)
	for _, s := range t.sites {
		if s.Interval > 0 {
			if h := s.Host(); h != "" {
				out[h] = s.Interval
			}
		}
	}
	return out
}
