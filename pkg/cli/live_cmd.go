package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"bike-dash/internal/domain"
)

func newLiveCmd(opts *rootOptions) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "live",
		Short: "Show current station status from the GBFS feed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, cfg, err := opts.load()
			if err != nil {
				return err
			}
			if !cfg.LiveEnabled() {
				return fmt.Errorf("no GBFS feed configured: set GBFS_INDEX_URL or pass --gbfs")
			}
			snap, err := a.Services.Live.Snapshot(cmd.Context())
			if err != nil {
				return err
			}
			if limit > 0 {
				snap = &domain.LiveSnapshot{
					Stations:   snap.Stations.Head(limit),
					SortColumn: snap.SortColumn,
					Language:   snap.Language,
					FetchedAt:  snap.FetchedAt,
				}
			}

			out := cmd.OutOrStdout()
			if getOutputFormat(cmd) == "json" {
				return printJSON(out, snap)
			}
			_, _ = fmt.Fprintf(out, "%d stations by %s, fetched %s\n\n",
				snap.Stations.Len(), snap.SortColumn, snap.FetchedAt.Format(time.RFC3339))
			return printTable(out, snap.Stations)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Show only the first n stations (0 shows the full snapshot)")
	return cmd
}
