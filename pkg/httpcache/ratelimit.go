package httpcache

import (
	"context"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// DefaultProbeInterval is the minimum spacing between requests to one host.
const DefaultProbeInterval = 140 * time.Millisecond

// HostLimiter spaces requests to the same host by a minimum interval.
// Each host gets its own token bucket with a burst of one, so different hosts
// proceed independently while a single host never sees bursts.
type HostLimiter struct {
	mu        sync.Mutex
	limiters  map[string]*rate.Limiter
	overrides map[string]time.Duration
	interval  time.Duration
}

// NewHostLimiter creates a limiter allowing one request per interval per host.
// An interval of zero disables spacing.
func NewHostLimiter(interval time.Duration) *HostLimiter {
	return &HostLimiter{
		limiters:  make(map[string]*rate.Limiter),
		overrides: make(map[string]time.Duration),
		interval:  interval,
	}
}

// SetHostInterval overrides the interval for one host. It only affects hosts
// that have not been contacted yet.
func (l *HostLimiter) SetHostInterval(host string, interval time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.overrides[strings.ToLower(host)] = interval
}

// Wait blocks until a request to rawURL's host may be sent, or ctx ends.
func (l *HostLimiter) Wait(ctx context.Context, rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return nil //nolint:nilerr // unparseable URLs fail later in the request itself
	}
	return l.forHost(u.Hostname()).Wait(ctx)
}

func (l *HostLimiter) forHost(host string) *rate.Limiter {
	host = strings.ToLower(host)

	l.mu.Lock()
	defer l.mu.Unlock()

	if lim, ok := l.limiters[host]; ok {
		return lim
	}
	interval := l.interval
	if d, ok := l.overrides[host]; ok {
		interval = d
	}
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	lim := rate.NewLimiter(limit, 1)
	l.limiters[host] = lim
	return lim
}
