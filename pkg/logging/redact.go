// Package logging builds the slog loggers used by shadowtrace.
//
// Scan queries carry email addresses, and those addresses end up in log lines as
// attribute values, search URLs and wrapped errors. RedactHandler masks the local
// part of every address before a record reaches the underlying handler, so logs
// can be shared without handing out the identifiers that were scanned.
package logging

import (
	"context"
	"io"
	"log/slog"
	"regexp"
	"strings"
)

// emailPattern also matches the percent-encoded form found in search URLs.
var emailPattern = regexp.MustCompile(`([A-Za-z0-9._%+-]+)(@|%40)([A-Za-z0-9-]+(?:\.[A-Za-z0-9-]+)*\.[A-Za-z]{2,})`)

// sensitiveKeys are masked outright, whatever their value.
var sensitiveKeys = map[string]bool{
	"authorization":       true,
	"proxy-authorization": true,
	"cookie":              true,
	"set-cookie":          true,
	"password":            true,
	"token":               true,
}

// MaskValue replaces values of sensitive keys.
const MaskValue = "***REDACTED***"

// MaskEmails keeps the first character of each address's local part and masks the rest.
func MaskEmails(s string) string {
	if !strings.Contains(s, "@") && !strings.Contains(s, "%40") {
		return s
	}
	return emailPattern.ReplaceAllStringFunc(s, func(m string) string {
		parts := emailPattern.FindStringSubmatch(m)
		local, at, domain := parts[1], parts[2], parts[3]
		return local[:1] + "***" + at + domain
	})
}

// RedactHandler wraps an slog.Handler and masks email addresses in messages and
// attribute values.
type RedactHandler struct {
	handler slog.Handler
}

// NewRedactHandler wraps handler. A nil handler wraps slog.Default().Handler().
func NewRedactHandler(handler slog.Handler) *RedactHandler {
	if handler == nil {
		handler = slog.Default().Handler()
	}
	return &RedactHandler{handler: handler}
}

// Enabled delegates to the wrapped handler.
func (h *RedactHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// Handle redacts r and passes it on.
func (h *RedactHandler) Handle(ctx context.Context, r slog.Record) error {
	out := slog.NewRecord(r.Time, r.Level, MaskEmails(r.Message), r.PC)
	r.Attrs(func(a slog.Attr) bool {
		out.AddAttrs(redactAttr(a))
		return true
	})
	return h.handler.Handle(ctx, out)
}

// WithAttrs redacts attrs before attaching them.
func (h *RedactHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	redacted := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		redacted[i] = redactAttr(a)
	}
	return &RedactHandler{handler: h.handler.WithAttrs(redacted)}
}

// WithGroup delegates to the wrapped handler.
func (h *RedactHandler) WithGroup(name string) slog.Handler {
	return &RedactHandler{handler: h.handler.WithGroup(name)}
}

func redactAttr(a slog.Attr) slog.Attr {
	a.Value = a.Value.Resolve()

	if sensitiveKeys[strings.ToLower(a.Key)] {
		return slog.String(a.Key, MaskValue)
	}

	switch a.Value.Kind() {
	case slog.KindGroup:
		attrs := a.Value.Group()
		redacted := make([]slog.Attr, len(attrs))
		for i, ga := range attrs {
			redacted[i] = redactAttr(ga)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(redacted...)}
	case slog.KindString:
		return slog.String(a.Key, MaskEmails(a.Value.String()))
	case slog.KindAny:
		// Errors and Stringers are flattened only when they carry an address.
		if s := a.Value.String(); s != MaskEmails(s) {
			return slog.String(a.Key, MaskEmails(s))
		}
	}
	return a
}

// Level maps CLI verbosity flags to a log level: Warn by default, Info when
// verbose, Debug when debug.
func Level(verbose, debug bool) slog.Level {
	switch {
	case debug:
		return slog.LevelDebug
	case verbose:
		return slog.LevelInfo
	default:
		return slog.LevelWarn
	}
}

// New returns a redacting text logger writing to w.
func New(w io.Writer, level slog.Level) *slog.Logger {
	text := slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	return slog.New(NewRedactHandler(text))
}
