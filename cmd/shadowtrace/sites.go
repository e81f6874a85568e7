package main

import (
	"fmt"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/TylerDurden1983/shadowtrace/pkg/site"
)

// NewSitesCmd creates the sites command.
func NewSitesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sites",
		Short: "List the profile sites probed during a scan",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, err := cmd.Flags().GetString("sites")
			if err != nil {
				return err
			}
			t := site.Default()
			if path != "" {
				if t, err = site.Load(path); err != nil {
					return err
				}
			}
			return writeSites(cmd, t)
		},
	}
	cmd.Flags().String("sites", "", "YAML file replacing the built-in site table")
	return cmd
}

func writeSites(cmd *cobra.Command, t *site.Table) error {
	table := tablewriter.NewWriter(cmd.OutOrStdout())
	table.Header("Name", "Profile URL", "Weight", "Canonical", "Search")
	for _, s := range t.Sites() {
		if err := table.Append(s.Name, s.URL,
			strconv.FormatFloat(s.EffectiveWeight(), 'f', 2, 64),
			yesNo(s.RequireCanonicalMatch), yesNo(s.Search)); err != nil {
			return fmt.Errorf("append site %s: %w", s.Name, err)
		}
	}
	if err := table.Render(); err != nil {
		return fmt.Errorf("render sites: %w", err)
	}
	_, err := fmt.Fprintf(cmd.OutOrStdout(), "%d sites\n", t.Len())
	return err
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
