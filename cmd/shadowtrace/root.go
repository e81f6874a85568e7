package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "shadowtrace",
		Short: "Find public profiles linked to emails and usernames",
		Long: `shadowtrace expands emails and usernames into candidate handles, probes public
profile pages for them and runs light public-search lookups. Results are
deduplicated and summarized with a LOW, MODERATE or HIGH confidence label.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable info logging")
	cmd.PersistentFlags().Bool("debug", false, "Enable debug logging (every probe is logged)")

	cmd.AddCommand(NewScanCmd())
	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewSitesCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
