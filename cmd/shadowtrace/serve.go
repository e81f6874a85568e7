package main

import (
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/TylerDurden1983/shadowtrace/pkg/server"
)

// NewServeCmd creates the serve command.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the scan API over HTTP",
		Long: `Serve exposes POST /api/scan (and the /scan alias). The body may be JSON
({"query": "..."}), plain text or a urlencoded form; the response is the JSON
report. The listen address defaults to :$PORT, or :3001 when PORT is unset.

Examples:
  shadowtrace serve
  shadowtrace serve --listen 127.0.0.1:8080 --cache
  curl -s -XPOST localhost:3001/api/scan -d '{"query":"alice@example.com"}' \
    -H 'Content-Type: application/json'`,
		Args: cobra.NoArgs,
		RunE: runServeCmd,
	}

	addEngineFlags(cmd)
	cmd.Flags().String("listen", "", "Listen address (default :$PORT or :3001)")

	return cmd
}

func runServeCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}
	logger := newLogger(cmd)

	if debug, _ := cmd.Flags().GetBool("debug"); !debug { //nolint:errcheck // persistent flag
		gin.SetMode(gin.ReleaseMode)
	}

	eng, err := newEngine(cfg, logger)
	if err != nil {
		return err
	}
	defer eng.Close()

	ctx, stop := signalContext(cmd)
	defer stop()

	return server.New(eng.scanner, server.WithLogger(logger)).ListenAndServe(ctx, cfg.Listen)
}
