package logging

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestMaskEmails(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "alice@example.com", "a***@example.com"},
		{"embedded", "scan alice@example.com bob", "scan a***@example.com bob"},
		{"two addresses", "a.b@x.io, c_d@y.co.uk", "a***@x.io, c***@y.co.uk"},
		{"percent encoded", "https://html.duckduckgo.com/html/?q=alice%40example.com", "https://html.duckduckgo.com/html/?q=a***%40example.com"},
		{"handle only", "@alice", "@alice"},
		{"no address", "github", "github"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MaskEmails(tt.in); got != tt.want {
				t.Errorf("MaskEmails(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestRedactHandler(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, slog.LevelDebug)

	logger.With("query", "alice@example.com").Info("scan for bob@example.org",
		"cookie", "sid=1",
		"error", errors.New("GET https://x.test/?q=carol%40example.net: timeout"),
		"site", "github",
		slog.Group("req", slog.String("email", "dave@example.com")),
	)

	out := buf.String()
	for _, leaked := range []string{"alice@", "bob@", "carol%40", "dave@", "sid=1"} {
		if strings.Contains(out, leaked) {
			t.Errorf("log output leaks %q:\n%s", leaked, out)
		}
	}
	for _, want := range []string{"a***@example.com", "b***@example.org", "c***%40example.net", "d***@example.com", MaskValue, "site=github"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q:\n%s", want, out)
		}
	}
}

func TestLevel(t *testing.T) {
	tests := []struct {
		verbose, debug bool
		want           slog.Level
	}{
		{false, false, slog.LevelWarn},
		{true, false, slog.LevelInfo},
		{false, true, slog.LevelDebug},
		{true, true, slog.LevelDebug},
	}
	for _, tt := range tests {
		if got := Level(tt.verbose, tt.debug); got != tt.want {
			t.Errorf("Level(%v, %v) = %v, want %v", tt.verbose, tt.debug, got, tt.want)
		}
	}
}

func TestNewRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, slog.LevelWarn)
	logger.Info("quiet")
	logger.Warn("loud")
	if strings.Contains(buf.String(), "quiet") || !strings.Contains(buf.String(), "loud") {
		t.Errorf("unexpected output:\n%s", buf.String())
	}
}
