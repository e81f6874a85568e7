package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/TylerDurden1983/shadowtrace/pkg/config"
	"github.com/TylerDurden1983/shadowtrace/pkg/report"
)

// NewScanCmd creates the scan command.
func NewScanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan [query...]",
		Short: "Scan emails and usernames for public profiles",
		Long: `Scan expands the given emails and usernames into candidate handles, probes every
site in the table for the leading candidates and runs public-search lookups.

Arguments are joined into one free-text query. Identifiers may be separated by
whitespace, newlines or commas. With no arguments the query is read from stdin.

Examples:
  # Scan an email and a username
  shadowtrace scan alice@example.com alice_dev

  # Read identifiers from a file and write a Markdown report
  shadowtrace scan --markdown -o report.md < targets.txt

  # JSON output through a SOCKS proxy, caching responses for a day
  shadowtrace scan --json --proxy socks5://127.0.0.1:9050 --cache alice

Config file:
  Settings are loaded from ~/.shadowtrace.yaml, ./.shadowtrace.yaml or
  $XDG_CONFIG_HOME/shadowtrace/config.yaml. Flags override the file.`,
		RunE: runScanCmd,
	}

	addEngineFlags(cmd)
	cmd.Flags().BoolP("json", "j", false, "Output the report as JSON")
	cmd.Flags().BoolP("markdown", "m", false, "Output the report as Markdown")
	cmd.Flags().StringP("output", "o", "", "Write the report to a file instead of stdout")

	return cmd
}

func runScanCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}

	q, err := readQuery(cmd.InOrStdin(), args, cmd.InOrStdin() == os.Stdin && stdinIsTerminal())
	if err != nil {
		return err
	}

	logger := newLogger(cmd)
	if cfg.ConfigFilePath != "" {
		logger.Info("loaded config file", "path", cfg.ConfigFilePath)
	}

	eng, err := newEngine(cfg, logger)
	if err != nil {
		return err
	}
	defer eng.Close()

	ctx, stop := signalContext(cmd)
	defer stop()

	r, err := eng.scanner.Scan(ctx, q)
	if err != nil {
		return err
	}
	return writeReport(cmd, cfg, r)
}

// signalContext cancels on SIGINT or SIGTERM.
func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

// readQuery joins args into one query, falling back to stdin when there are none.
// An interactive stdin is never read.
func readQuery(stdin io.Reader, args []string, interactive bool) (string, error) {
	if len(args) > 0 {
		q := strings.Join(args, " ")
		if strings.TrimSpace(q) == "" {
			return "", errNoQuery
		}
		return q, nil
	}
	if interactive {
		return "", errNoQuery
	}
	data, err := io.ReadAll(stdin)
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	if strings.TrimSpace(string(data)) == "" {
		return "", errNoQuery
	}
	return string(data), nil
}

func writeReport(cmd *cobra.Command, cfg *config.Config, r *report.Report) error {
	out := cmd.OutOrStdout()
	if cfg.ReportFile != "" {
		if dir := filepath.Dir(cfg.ReportFile); dir != "." {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
		}
		f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close() //nolint:errcheck // closed after a successful write below
		out = f
	}

	w, err := report.NewWriter(cfg.Format(), out)
	if err != nil {
		return err
	}
	if err := w.Write(r); err != nil {
		return err
	}
	if f, ok := out.(*os.File); ok && cfg.ReportFile != "" {
		if err := f.Close(); err != nil {
			return fmt.Errorf("close output file: %w", err)
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Report written to %s\n", cfg.ReportFile)
	}
	return nil
}
