// Package query splits free-text scan queries into email and username identifiers.
package query

import (
	"regexp"
	"strings"

	"github.com/TylerDurden1983/shadowtrace/pkg/username"
)

var separatorPattern = regexp.MustCompile(`[\s,]+`)

// Entities holds the identifiers found in a query.
type Entities struct {
	Emails    []string
	Usernames []string // normalized, deduplicated
	// TypedDigits is set when any username token carried a digit.
	// It gates numeric-suffix variants for the whole request.
	TypedDigits bool
}

// Tokens splits q on runs of whitespace and commas, dropping empties and repeats.
func Tokens(q string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, tok := range separatorPattern.Split(q, -1) {
		tok = strings.TrimSpace(tok)
		if tok == "" || seen[tok] {
			continue
		}
		seen[tok] = true
		out = append(out, tok)
	}
	return out
}

// IsEmail reports whether tok should be treated as an email address.
func IsEmail(tok string) bool {
	return strings.Contains(tok, "@")
}

// Parse classifies the tokens of q. Emails are kept verbatim; every other token is
// normalized as a username and dropped if invalid.
func Parse(q string) Entities {
	var e Entities
	seen := make(map[string]bool)
	for _, tok := range Tokens(q) {
		if IsEmail(tok) {
			e.Emails = append(e.Emails, tok)
			continue
		}
		// Digits count even when the token is too short to keep.
		if username.HasDigit(tok) {
			e.TypedDigits = true
		}
		u := username.Normalize(tok)
		if u == "" || seen[u] {
			continue
		}
		seen[u] = true
		e.Usernames = append(e.Usernames, u)
	}
	return e
}
