package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/TylerDurden1983/shadowtrace/pkg/config"
	"github.com/TylerDurden1983/shadowtrace/pkg/httpcache"
	"github.com/TylerDurden1983/shadowtrace/pkg/logging"
	"github.com/TylerDurden1983/shadowtrace/pkg/scan"
	"github.com/TylerDurden1983/shadowtrace/pkg/search"
	"github.com/TylerDurden1983/shadowtrace/pkg/site"
	"github.com/TylerDurden1983/shadowtrace/pkg/verify"
)

// addEngineFlags registers the flags shared by every command that runs scans.
func addEngineFlags(cmd *cobra.Command) {
	def := config.NewConfig()
	f := cmd.Flags()
	f.StringP("config", "c", "", "Path to config file")
	f.String("sites", "", "YAML file replacing the built-in site table")
	f.Duration("timeout", def.Timeout, "Per-request timeout")
	f.Duration("probe-interval", def.ProbeInterval, "Minimum spacing between requests to one host")
	f.Duration("search-delay", def.SearchDelay, "Pause after each search request")
	f.Int("workers", def.Workers, "Sites probed in parallel")
	f.Int("max-usernames", def.Limits.MaxUsernames, "Cap on candidate usernames")
	f.Int("max-probed", def.Limits.MaxProbed, "Usernames probed on every site")
	f.Bool("cache", false, "Cache HTTP responses on disk")
	f.String("cache-dir", "", "Cache directory (default: XDG cache dir)")
	f.Duration("cache-ttl", def.CacheTTL, "Cache time-to-live")
	f.String("proxy", "", "Outbound proxy URL (http, https, socks5, socks5h)")
}

// buildConfig layers defaults, the config file and explicitly set flags.
func buildConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.NewConfig()
	f := cmd.Flags()

	explicit, _ := f.GetString("config") //nolint:errcheck // flag is registered
	if path := config.FindConfigFile(explicit); path != "" {
		file, err := config.LoadConfigFile(path)
		if err != nil {
			return nil, err
		}
		cfg.Apply(file)
		cfg.ConfigFilePath = path
	} else if explicit != "" {
		return nil, fmt.Errorf("%w: %s", config.ErrConfigNotFound, explicit)
	}

	var err error
	set := func(name string, apply func() error) {
		if err == nil && f.Lookup(name) != nil && f.Changed(name) {
			err = apply()
		}
	}
	set("sites", func() (e error) { cfg.SitesFile, e = f.GetString("sites"); return })
	set("timeout", func() (e error) { cfg.Timeout, e = f.GetDuration("timeout"); return })
	set("probe-interval", func() (e error) { cfg.ProbeInterval, e = f.GetDuration("probe-interval"); return })
	set("search-delay", func() (e error) { cfg.SearchDelay, e = f.GetDuration("search-delay"); return })
	set("workers", func() (e error) { cfg.Workers, e = f.GetInt("workers"); return })
	set("max-usernames", func() (e error) { cfg.Limits.MaxUsernames, e = f.GetInt("max-usernames"); return })
	set("max-probed", func() (e error) { cfg.Limits.MaxProbed, e = f.GetInt("max-probed"); return })
	set("cache", func() (e error) { cfg.CacheEnabled, e = f.GetBool("cache"); return })
	set("cache-dir", func() (e error) { cfg.CacheDir, e = f.GetString("cache-dir"); return })
	set("cache-ttl", func() (e error) { cfg.CacheTTL, e = f.GetDuration("cache-ttl"); return })
	set("proxy", func() (e error) { cfg.Proxy, e = f.GetString("proxy"); return })
	set("json", func() (e error) { cfg.JSONReport, e = f.GetBool("json"); return })
	set("markdown", func() (e error) { cfg.MarkdownReport, e = f.GetBool("markdown"); return })
	set("output", func() (e error) { cfg.ReportFile, e = f.GetString("output"); return })
	set("listen", func() (e error) { cfg.Listen, e = f.GetString("listen"); return })
	if err != nil {
		return nil, fmt.Errorf("read flags: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newLogger builds the redacting stderr logger from the persistent flags.
func newLogger(cmd *cobra.Command) *slog.Logger {
	verbose, _ := cmd.Flags().GetBool("verbose") //nolint:errcheck // persistent flag
	debug, _ := cmd.Flags().GetBool("debug")     //nolint:errcheck // persistent flag
	logger := logging.New(cmd.ErrOrStderr(), logging.Level(verbose, debug))
	slog.SetDefault(logger)
	return logger
}

// engine is a configured scanner plus the resources it owns.
type engine struct {
	scanner *scan.Scanner
	cache   *httpcache.Cache
	logger  *slog.Logger
}

// newEngine wires the site table, fetcher, verifier and searcher from cfg.
func newEngine(cfg *config.Config, logger *slog.Logger) (*engine, error) {
	sites := site.Default()
	if cfg.SitesFile != "" {
		t, err := site.Load(cfg.SitesFile)
		if err != nil {
			return nil, err
		}
		sites = t
		logger.Info("loaded site table", "path", cfg.SitesFile, "sites", t.Len())
	}

	client, err := httpcache.NewClient(cfg.Timeout, cfg.Proxy)
	if err != nil {
		return nil, err
	}

	e := &engine{logger: logger}
	fetchOpts := []httpcache.Option{
		httpcache.WithHTTPClient(client),
		httpcache.WithLimiter(scan.NewHostLimiter(sites, cfg.ProbeInterval)),
		httpcache.WithLogger(logger),
	}
	if cfg.CacheEnabled {
		c, err := httpcache.New(cfg.CacheTTL, cfg.CacheDir)
		if err != nil {
			logger.Warn("failed to initialize cache, continuing without cache", "error", err)
		} else {
			e.cache = c
			fetchOpts = append(fetchOpts, httpcache.WithCache(c))
			logger.Debug("HTTP cache initialized", "dir", cfg.CacheDir, "ttl", cfg.CacheTTL.String())
		}
	}
	fetcher := httpcache.NewFetcher(fetchOpts...)

	e.scanner = scan.New(
		scan.WithSites(sites),
		scan.WithVerifier(verify.New(
			verify.WithFetcher(fetcher),
			verify.WithLogger(logger),
			verify.WithTimeout(cfg.Timeout),
		)),
		scan.WithSearcher(search.New(
			search.WithFetcher(fetcher),
			search.WithLogger(logger),
			search.WithDelay(cfg.SearchDelay),
			search.WithTimeout(cfg.Timeout),
		)),
		scan.WithLimits(cfg.Limits),
		scan.WithWorkers(cfg.Workers),
		scan.WithLogger(logger),
	)
	return e, nil
}

// Close flushes the response cache, if any.
func (e *engine) Close() {
	if e.cache == nil {
		return
	}
	stats := httpcache.CacheStats()
	e.logger.Debug("cache stats", "hits", stats.Hits, "misses", stats.Misses)
	if err := e.cache.Close(); err != nil {
		e.logger.Warn("failed to close cache", "error", err)
	}
}

// errNoQuery is returned when neither arguments nor stdin carry identifiers.
var errNoQuery = errors.New("no query: pass emails or usernames as arguments or on stdin")

// stdinIsTerminal reports whether os.Stdin is an interactive terminal.
func stdinIsTerminal() bool {
	fi, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}
