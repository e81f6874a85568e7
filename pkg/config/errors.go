package config

import "errors"

// Validation errors returned by Config.Validate.
var (
	ErrInvalidTimeout     = errors.New("invalid timeout: must be positive")
	ErrInvalidInterval    = errors.New("invalid interval: probe interval and search delay must be non-negative")
	ErrInvalidLimit       = errors.New("invalid limit: caps must be non-negative, usernames and workers at least 1")
	ErrInvalidCacheTTL    = errors.New("invalid cache TTL: must be positive when the cache is enabled")
	ErrConflictingFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")
	ErrInvalidProxy       = errors.New("invalid proxy: expected an http, https, socks5 or socks5h URL")
)

// ErrConfigNotFound is returned when a configuration file does not exist.
var ErrConfigNotFound = errors.New("configuration file not found")
