// Package config holds runtime settings for the shadowtrace CLI and server.
package config

import (
	"net"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"

	"github.com/TylerDurden1983/shadowtrace/pkg/httpcache"
	"github.com/TylerDurden1983/shadowtrace/pkg/report"
	"github.com/TylerDurden1983/shadowtrace/pkg/scan"
	"github.com/TylerDurden1983/shadowtrace/pkg/search"
)

const (
	// AppName names the XDG directories.
	AppName = "shadowtrace"

	// DefaultPort is used when $PORT is unset.
	DefaultPort = "3001"

	// DefaultCacheTTL is how long cached responses stay fresh.
	DefaultCacheTTL = 24 * time.Hour
)

// Config holds all runtime settings. It is built from defaults, then an optional
// config file, then command-line flags.
type Config struct {
	// Timeout bounds each outbound request.
	Timeout time.Duration
	// ProbeInterval is the minimum spacing between requests to one host.
	ProbeInterval time.Duration
	// SearchDelay is the pause after each search request.
	SearchDelay time.Duration

	Limits  scan.Limits
	Workers int

	// SitesFile replaces the built-in site table when set.
	SitesFile string
	// Proxy is an optional outbound proxy URL (http, https, socks5).
	Proxy string

	CacheEnabled bool
	CacheDir     string
	CacheTTL     time.Duration

	// Listen is the HTTP server address.
	Listen string

	JSONReport     bool
	MarkdownReport bool
	// ReportFile is written instead of stdout when set.
	ReportFile string

	ConfigFilePath string
}

// NewConfig returns the default configuration.
func NewConfig() *Config {
	return &Config{
		Timeout:       httpcache.DefaultTimeout,
		ProbeInterval: httpcache.DefaultProbeInterval,
		SearchDelay:   search.DefaultDelay,
		Limits:        scan.DefaultLimits(),
		Workers:       scan.DefaultWorkers,
		CacheDir:      XDGCacheDir(),
		CacheTTL:      DefaultCacheTTL,
		Listen:        DefaultListen(),
	}
}

// DefaultListen returns ":$PORT", or ":3001" when PORT is unset.
func DefaultListen() string {
	port := os.Getenv("PORT")
	if port == "" {
		port = DefaultPort
	}
	return net.JoinHostPort("", port)
}

// XDGConfigDir returns the shadowtrace config directory.
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// XDGCacheDir returns the shadowtrace cache directory.
func XDGCacheDir() string {
	return filepath.Join(xdg.CacheHome, AppName)
}

// Format returns the report format selected by the output flags.
func (c *Config) Format() report.Format {
	switch {
	case c.JSONReport:
		return report.FormatJSON
	case c.MarkdownReport:
		return report.FormatMarkdown
	default:
		return report.FormatText
	}
}

// Validate returns the first problem found.
func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.ProbeInterval < 0 || c.SearchDelay < 0 {
		return ErrInvalidInterval
	}
	l := c.Limits
	if l.MaxUsernames < 1 || l.MaxProbed < 0 || l.MaxEmailSearches < 0 || l.MaxUsernameSearches < 0 || c.Workers < 1 {
		return ErrInvalidLimit
	}
	if c.CacheEnabled && c.CacheTTL <= 0 {
		return ErrInvalidCacheTTL
	}
	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingFormats
	}
	if c.Proxy != "" {
		u, err := url.Parse(c.Proxy)
		if err != nil || u.Host == "" {
			return ErrInvalidProxy
		}
		switch u.Scheme {
		case "http", "https", "socks5", "socks5h":
		default:
			return ErrInvalidProxy
		}
	}
	return nil
}
