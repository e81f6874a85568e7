package site

import "errors"

var (
	// ErrNoSites is returned when a site table is empty.
	ErrNoSites = errors.New("site table has no sites")

	// ErrInvalidSite is returned when a site record fails validation.
	ErrInvalidSite = errors.New("invalid site")
)
