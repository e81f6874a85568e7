package htmlutil

import (
	"net/url"
	"regexp"
	"strings"
)

var (
	metaRefreshPattern = regexp.MustCompile(`(?i)<meta[^>]+http-equiv\s*=\s*["']?refresh["']?[^>]+content\s*=\s*["']?\d+\s*;\s*url\s*=\s*["']?([^"'>\s]+)`)
	// Same tag with content before http-equiv.
	metaRefreshReversed = regexp.MustCompile(`(?i)<meta[^>]+content\s*=\s*["']?\d+\s*;\s*url\s*=\s*["']?([^"'>\s]+)[^>]+http-equiv\s*=\s*["']?refresh["']?`)
)

// RefreshURL returns the target of a <meta http-equiv="refresh"> redirect in the
// page, resolved against base. Scripts are not inspected: a location assignment in
// an event handler says nothing about the page itself. Returns "" when the page
// does not refresh to another URL.
func RefreshURL(htmlContent, base string) string {
	for _, p := range []*regexp.Regexp{metaRefreshPattern, metaRefreshReversed} {
		if m := p.FindStringSubmatch(htmlContent); len(m) > 1 {
			return resolve(base, strings.TrimSpace(m[1]))
		}
	}
	return ""
}

func resolve(base, target string) string {
	b, err := url.Parse(base)
	if err != nil || base == "" {
		return target
	}
	t, err := url.Parse(target)
	if err != nil {
		return target
	}
	return b.ResolveReference(t).String()
}
