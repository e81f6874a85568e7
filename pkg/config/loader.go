package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is looked up in the working and home directories.
const DefaultConfigFile = ".shadowtrace.yaml"

// File is the YAML config file. Unset fields leave the current value alone.
//
//	timeout: 10s
//	probeInterval: 250ms
//	limits:
//	  maxProbed: 5
//	cache:
//	  enabled: true
//	  ttl: 72h
type File struct {
	Timeout       *time.Duration `yaml:"timeout"`
	ProbeInterval *time.Duration `yaml:"probeInterval"`
	SearchDelay   *time.Duration `yaml:"searchDelay"`
	Workers       *int           `yaml:"workers"`
	Limits        LimitsFile     `yaml:"limits"`
	SitesFile     string         `yaml:"sitesFile"`
	Proxy         string         `yaml:"proxy"`
	Listen        string         `yaml:"listen"`
	Cache         CacheFile      `yaml:"cache"`
}

// LimitsFile overrides individual scan caps.
type LimitsFile struct {
	MaxUsernames        *int `yaml:"maxUsernames"`
	MaxProbed           *int `yaml:"maxProbed"`
	MaxEmailSearches    *int `yaml:"maxEmailSearches"`
	MaxUsernameSearches *int `yaml:"maxUsernameSearches"`
}

// CacheFile configures the response cache.
type CacheFile struct {
	Enabled *bool          `yaml:"enabled"`
	Dir     string         `yaml:"dir"`
	TTL     *time.Duration `yaml:"ttl"`
}

// LoadConfigFile parses the YAML file at path.
func LoadConfigFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // user-provided config path is intentional
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrConfigNotFound
		}
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse config file %s: %w", path, err)
	}
	return &f, nil
}

// FindConfigFile returns the config file to load, or "" if there is none.
// An explicit path wins; otherwise the working directory, the XDG config
// directory and the home directory are tried in that order.
func FindConfigFile(configPath string) string {
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		return ""
	}

	var candidates []string
	if cwd, err := os.Getwd(); err == nil {
		candidates = append(candidates, filepath.Join(cwd, DefaultConfigFile))
	}
	candidates = append(candidates, filepath.Join(XDGConfigDir(), "config.yaml"))
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, DefaultConfigFile))
	}

	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// Apply copies every field set in f onto c.
func (c *Config) Apply(f *File) {
	if f == nil {
		return
	}
	setDuration(&c.Timeout, f.Timeout)
	setDuration(&c.ProbeInterval, f.ProbeInterval)
	setDuration(&c.SearchDelay, f.SearchDelay)
	setInt(&c.Workers, f.Workers)
	setInt(&c.Limits.MaxUsernames, f.Limits.MaxUsernames)
	setInt(&c.Limits.MaxProbed, f.Limits.MaxProbed)
	setInt(&c.Limits.MaxEmailSearches, f.Limits.MaxEmailSearches)
	setInt(&c.Limits.MaxUsernameSearches, f.Limits.MaxUsernameSearches)

	if f.SitesFile != "" {
		c.SitesFile = f.SitesFile
	}
	if f.Proxy != "" {
		c.Proxy = f.Proxy
	}
	if f.Listen != "" {
		c.Listen = f.Listen
	}
	if f.Cache.Enabled != nil {
		c.CacheEnabled = *f.Cache.Enabled
	}
	if f.Cache.Dir != "" {
		c.CacheDir = f.Cache.Dir
	}
	setDuration(&c.CacheTTL, f.Cache.TTL)
}

func setDuration(dst *time.Duration, v *time.Duration) {
	if v != nil {
		*dst = *v
	}
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}
