package site

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestDefault(t *testing.T) {
	tbl := Default()

	var names []string
	for _, s := range tbl.Sites() {
		names = append(names, s.Name)
	}
	want := []string{"instagram", "threads", "tiktok", "youtube", "reddit", "github", "x", "medium", "pinterest"}
	if diff := cmp.Diff(want, names); diff != "" {
		t.Errorf("Default() site order mismatch (-want +got):\n%s", diff)
	}

	ig, ok := tbl.Lookup("instagram")
	if !ok {
		t.Fatal("Lookup(instagram) not found")
	}
	if !ig.RequireCanonicalMatch {
		t.Error("instagram should require canonical match")
	}
	if ig.Weight != 1.0 {
		t.Errorf("instagram weight = %v, want 1.0", ig.Weight)
	}
	if len(ig.NotFound) != 6 {
		t.Errorf("instagram has %d not-found markers, want 6", len(ig.NotFound))
	}
	if got := ig.ProfileURL("alice"); got != "https://www.instagram.com/alice/" {
		t.Errorf("ProfileURL = %q", got)
	}
	if ig.Referer != "https://www.instagram.com/" {
		t.Errorf("instagram referer = %q", ig.Referer)
	}

	gh, _ := tbl.Lookup("github")
	if gh.RequireCanonicalMatch {
		t.Error("github should not require canonical match")
	}
	if gh.Referer != "" {
		t.Errorf("github referer = %q, want none", gh.Referer)
	}
}

func TestSearchDomains(t *testing.T) {
	got := Default().SearchDomains()
	want := []string{"instagram.com", "threads.net", "tiktok.com", "youtube.com", "github.com", "reddit.com", "x.com"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("SearchDomains() mismatch (-want +got):\n%s", diff)
	}
}

func TestAccepts(t *testing.T) {
	tbl := Default()
	tests := []struct {
		site     string
		username string
		want     bool
	}{
		{"instagram", "john.doe", true},
		{"instagram", "john-doe", false},
		{"github", "john-doe", true},
		{"github", "john_doe", false},
		{"github", "-john", false},
		{"reddit", "jd", true},
		{"reddit", "j.d", false},
		{"x", "a_very_long_username_here", false},
		{"medium", "anything.goes-here", true},
	}

	for _, tt := range tests {
		t.Run(tt.site+"/"+tt.username, func(t *testing.T) {
			s, ok := tbl.Lookup(tt.site)
			if !ok {
				t.Fatalf("Lookup(%q) not found", tt.site)
			}
			if got := s.Accepts(tt.username); got != tt.want {
				t.Errorf("%s.Accepts(%q) = %v, want %v", tt.site, tt.username, got, tt.want)
			}
		})
	}
}

func TestExpectedURLDefaultsToURL(t *testing.T) {
	s := Site{Name: "example", URL: "https://example.com/u/%s"}
	if got := s.ExpectedURL("bob"); got != "https://example.com/u/bob" {
		t.Errorf("ExpectedURL = %q", got)
	}
	if got := s.EffectiveWeight(); got != DefaultWeight {
		t.Errorf("EffectiveWeight = %v, want %v", got, DefaultWeight)
	}
}

func TestNewValidation(t *testing.T) {
	tests := []struct {
		name  string
		sites []Site
		want  error
	}{
		{"empty", nil, ErrNoSites},
		{"missing name", []Site{{URL: "https://a.com/%s"}}, ErrInvalidSite},
		{"no placeholder", []Site{{Name: "a", URL: "https://a.com/"}}, ErrInvalidSite},
		{"relative url", []Site{{Name: "a", URL: "/users/%s"}}, ErrInvalidSite},
		{"weight too high", []Site{{Name: "a", URL: "https://a.com/%s", Weight: 1.5}}, ErrInvalidSite},
		{"bad pattern", []Site{{Name: "a", URL: "https://a.com/%s", Pattern: "("}}, ErrInvalidSite},
		{"duplicate", []Site{{Name: "a", URL: "https://a.com/%s"}, {Name: "a", URL: "https://b.com/%s"}}, ErrInvalidSite},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.sites...)
			if !errors.Is(err, tt.want) {
				t.Errorf("New() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sites.yaml")
	data := []byte(`sites:
  - name: example
    url: https://example.com/@%s
    pattern: '^[a-z]+$'
    notFound: ["no such user"]
    weight: 0.5
    search: true
`)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatal(err)
	}

	tbl, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if tbl.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", tbl.Len())
	}
	s := tbl.Sites()[0]
	if !s.Accepts("bob") || s.Accepts("Bob") {
		t.Error("loaded pattern not applied")
	}
	if got := tbl.SearchDomains(); len(got) != 1 || got[0] != "example.com" {
		t.Errorf("SearchDomains() = %v, want [example.com]", got)
	}

	if _, err := Load(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("Load(missing) should fail")
	}
}

func TestSearchOrder(t *testing.T) {
	const sites = `
  - name: a
    url: https://a.example/%s
    search: true
  - name: b
    url: https://b.example/%s
    search: true
  - name: c
    url: https://c.example/%s
    search: true
  - name: d
    url: https://d.example/%s
`
	tests := []struct {
		name    string
		order   string
		want    []string
		wantErr error
	}{
		{name: "table order by default", want: []string{"a.example", "b.example", "c.example"}},
		{name: "listed sites lead", order: "searchOrder: [c, a]\n", want: []string{"c.example", "a.example", "b.example"}},
		{name: "unknown site", order: "searchOrder: [z]\n", wantErr: ErrInvalidSite},
		{name: "site not marked search", order: "searchOrder: [d]\n", wantErr: ErrInvalidSite},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tbl, err := Parse([]byte(tt.order + "sites:" + sites))
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Parse() error = %v, want %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if diff := cmp.Diff(tt.want, tbl.SearchDomains()); diff != "" {
				t.Errorf("SearchDomains() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestHostIntervals(t *testing.T) {
	tbl, err := Parse([]byte(`sites:
  - name: slow
    url: https://www.slow.example/u/%s
    interval: 750ms
  - name: fast
    url: https://fast.example/%s
`))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	want := map[string]time.Duration{"www.slow.example": 750 * time.Millisecond}
	if diff := cmp.Diff(want, tbl.HostIntervals()); diff != "" {
		t.Errorf("HostIntervals() mismatch (-want +got):\n%s", diff)
	}

	if _, err := New(Site{Name: "neg", URL: "https://n.example/%s", Interval: -time.Second}); !errors.Is(err, ErrInvalidSite) {
		t.Errorf("New() with negative interval error = %v, want ErrInvalidSite", err)
	}
}
