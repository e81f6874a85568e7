// Package username canonicalizes handles and derives plausible username variants.
package username

import (
	"strings"
)

const (
	// MaxVariants caps the output of Variants.
	MaxVariants = 12
	// MaxEmailCandidates caps the output of FromEmail.
	MaxEmailCandidates = 16
	// MinLength is the shortest normalized username worth probing.
	MinLength = 2
)

// Normalize trims raw, strips one leading '@' and drops every character outside [A-Za-z0-9_.-].
// Returns "" when fewer than MinLength characters remain.
func Normalize(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "@")

	var b strings.Builder
	b.Grow(len(s))
	for i := range len(s) {
		if isHandleChar(s[i]) {
			b.WriteByte(s[i])
		}
	}
	if b.Len() < MinLength {
		return ""
	}
	return b.String()
}

// Variants returns separator and prefix variants of base, starting with the normalized base itself.
// Numeric suffixes ("1", "01") are only added when allowNumeric is set: they are a major
// source of false positives and should follow a digit the user actually typed.
func Variants(base string, allowNumeric bool) []string {
	u := Normalize(base)
	if u == "" {
		return nil
	}

	s := newOrderedSet(MaxVariants)
	s.add(u)

	if stripped := removeSeparators(u); stripped != "" && stripped != u {
		s.add(stripped)
	}
	if strings.ContainsAny(u, ".-") {
		s.add(replaceAny(u, ".-", '_'))
	}
	if strings.ContainsAny(u, "_-") {
		s.add(replaceAny(u, "_-", '.'))
	}
	if strings.ContainsAny(u, "_.") {
		s.add(replaceAny(u, "_.", '-'))
	}
	if chunk := firstChunk(u); len(chunk) >= 3 {
		s.add(chunk)
	}
	if trimmed := strings.TrimRight(u, "0123456789"); trimmed != "" && trimmed != u {
		s.add(trimmed)
	}
	if allowNumeric {
		s.add(u + "1")
		s.add(u + "01")
	}

	return s.list()
}

// FromEmail derives username candidates from the local part of an email address.
// Numeric suffixes are never generated here.
func FromEmail(email string) []string {
	local, _, _ := strings.Cut(email, "@")
	base := Normalize(local)
	if base == "" {
		return nil
	}

	s := newOrderedSet(MaxEmailCandidates)
	s.addAll(Variants(base, false))

	parts := splitSeparators(local)
	if len(parts) >= 2 {
		joins := []string{
			strings.Join(parts, ""),
			strings.Join(parts, "_"),
			strings.Join(parts, "."),
			strings.Join(parts, "-"),
		}
		for _, j := range joins {
			s.addAll(Variants(Normalize(j), false))
		}

		first, last := parts[0], parts[len(parts)-1]
		if first != "" && last != "" {
			s.addAll(Variants(Normalize(first[:1]+last), false))
		}
	}

	return s.list()
}

// HasDigit reports whether s contains an ASCII digit.
func HasDigit(s string) bool {
	for _, c := range s {
		if c >= '0' && c <= '9' {
			return true
		}
	}
	return false
}

// Merge concatenates lists, dropping duplicates and stopping at limit entries (0 means no limit).
func Merge(limit int, lists ...[]string) []string {
	s := newOrderedSet(limit)
	for _, l := range lists {
		s.addAll(l)
	}
	return s.list()
}

func isHandleChar(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') ||
		c == '_' || c == '.' || c == '-'
}

func isSeparator(r rune) bool {
	return r == '.' || r == '_' || r == '-'
}

func removeSeparators(s string) string {
	return strings.Map(func(r rune) rune {
		if isSeparator(r) {
			return -1
		}
		return r
	}, s)
}

func replaceAny(s, chars string, with rune) string {
	return strings.Map(func(r rune) rune {
		if strings.ContainsRune(chars, r) {
			return with
		}
		return r
	}, s)
}

// firstChunk returns s up to its first separator.
func firstChunk(s string) string {
	if i := strings.IndexFunc(s, isSeparator); i >= 0 {
		return s[:i]
	}
	return s
}

// splitSeparators splits s on '.', '_' and '-', dropping empty parts.
func splitSeparators(s string) []string {
	return strings.FieldsFunc(s, isSeparator)
}

// orderedSet keeps first-seen order and stops accepting entries once full.
type orderedSet struct {
	seen  map[string]bool
	items []string
	limit int
}

func newOrderedSet(limit int) *orderedSet {
	return &orderedSet{seen: make(map[string]bool), limit: limit}
}

func (s *orderedSet) add(v string) {
	if v == "" || s.seen[v] {
		return
	}
	if s.limit > 0 && len(s.items) >= s.limit {
		return
	}
	s.seen[v] = true
	s.items = append(s.items, v)
}

func (s *orderedSet) addAll(vs []string) {
	for _, v := range vs {
		s.add(v)
	}
}

func (s *orderedSet) list() []string {
	return s.items
}
