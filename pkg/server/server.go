// Package server exposes scans over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/TylerDurden1983/shadowtrace/pkg/report"
)

const (
	// MaxBodySize caps request bodies.
	MaxBodySize = 1 << 20

	shutdownTimeout   = 30 * time.Second
	readHeaderTimeout = 10 * time.Second
)

// Scanner runs one scan per request.
type Scanner interface {
	Scan(ctx context.Context, q string) (*report.Report, error)
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// Server is the HTTP API.
type Server struct {
	scanner Scanner
	logger  *slog.Logger
	engine  *gin.Engine
}

// New creates a Server backed by scanner.
func New(scanner Scanner, opts ...Option) *Server {
	s := &Server{scanner: scanner, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}

	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())
	r.POST("/api/scan", s.handleScan)
	r.POST("/scan", s.handleScan)
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	s.engine = r
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.InfoContext(ctx, "scan api listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen on %s: %w", addr, err)
	case <-ctx.Done():
		s.logger.InfoContext(ctx, "shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	}
}

func (s *Server) handleScan(c *gin.Context) {
	q, err := readQuery(c.Writer, c.Request)
	if err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "Request body too large"})
		case errors.Is(err, errInvalidJSON):
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Invalid JSON body",
				"hint":  `Send {"query":"..."} with Content-Type: application/json`,
			})
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": "Unreadable request body"})
		}
		return
	}

	r, err := s.scanner.Scan(c.Request.Context(), q)
	if err != nil {
		s.logger.WarnContext(c.Request.Context(), "scan aborted", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Scan aborted"})
		return
	}
	c.JSON(http.StatusOK, r)
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.InfoContext(c.Request.Context(), "request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start))
	}
}
