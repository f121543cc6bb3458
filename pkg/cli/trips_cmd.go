package cli

import (
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"bike-dash/internal/service/trips"
)

func newTripsCmd(opts *rootOptions) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "trips",
		Short: "Show where the trip dataset came from and preview its first rows",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, _, err := opts.load()
			if err != nil {
				return err
			}
			svc := a.Services.Trips
			info, err := svc.Info(cmd.Context())
			if err != nil {
				return err
			}
			preview, err := svc.Preview(cmd.Context(), limit)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if getOutputFormat(cmd) == "json" {
				return printJSON(out, map[string]any{"dataset": info, "preview": preview})
			}
			if err := printDetail(out,
				[2]string{"origin", string(info.Origin)},
				[2]string{"location", info.Location},
				[2]string{"rows", strconv.Itoa(info.Rows)},
				[2]string{"columns", strconv.Itoa(len(info.Columns))},
				[2]string{"loaded", info.LoadedAt.Format(time.RFC3339)},
			); err != nil {
				return err
			}
			_, _ = out.Write([]byte("\n"))
			return printTable(out, preview)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", trips.DefaultPreviewRows, "Number of rows to preview")
	return cmd
}
