// Package htmlutil provides HTML processing utilities for profile verification and search scraping.
package htmlutil

import (
	"html"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var (
	tagPattern        = regexp.MustCompile(`<[^>]+>`)
	multiSpacePattern = regexp.MustCompile(`\s+`)
)

// StripTags removes HTML tags and returns plain text.
func StripTags(htmlContent string) string {
	if htmlContent == "" {
		return ""
	}
	content := tagPattern.ReplaceAllString(htmlContent, " ")
	content = html.UnescapeString(content)
	content = multiSpacePattern.ReplaceAllString(content, " ")
	return strings.TrimSpace(content)
}

// MetaURL returns the URL a page declares for itself: the first <link rel="canonical">
// href, else the first og:url meta content. Returns "" if neither is present or the
// document cannot be parsed.
func MetaURL(htmlContent string) string {
	if htmlContent == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		return ""
	}
	if u := CanonicalLink(doc); u != "" {
		return u
	}
	return OGTag(doc, "og:url")
}

// CanonicalLink returns the href of the first <link> whose rel list contains "canonical".
func CanonicalLink(doc *goquery.Document) string {
	var href string
	doc.Find("link[rel][href]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		rel, _ := s.Attr("rel")
		if !hasToken(rel, "canonical") {
			return true
		}
		v, _ := s.Attr("href")
		if v = strings.TrimSpace(v); v == "" {
			return true
		}
		href = v
		return false
	})
	return href
}

// OGTag returns the content of the first meta tag whose property matches (case-insensitively).
func OGTag(doc *goquery.Document, property string) string {
	var content string
	doc.Find("meta[property][content]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		p, _ := s.Attr("property")
		if !strings.EqualFold(strings.TrimSpace(p), property) {
			return true
		}
		v, _ := s.Attr("content")
		if v = strings.TrimSpace(v); v == "" {
			return true
		}
		content = v
		return false
	})
	return content
}

// ContainsMarker reports the first marker that occurs in text, ignoring case.
func ContainsMarker(text string, markers []string) (string, bool) {
	if text == "" {
		return "", false
	}
	lower := strings.ToLower(text)
	for _, m := range markers {
		if m == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(m)) {
			return m, true
		}
	}
	return "", false
}

// hasToken reports whether the space-separated list contains tok, ignoring case.
func hasToken(list, tok string) bool {
	for _, f := range strings.Fields(list) {
		if strings.EqualFold(f, tok) {
			return true
		}
	}
	return false
}
