package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"bike-dash/internal/domain"
)

func newRoutesCmd(opts *rootOptions) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "routes",
		Short: "Rank the most popular origin-destination routes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if limit < 1 {
				return fmt.Errorf("--limit must be positive, got %d", limit)
			}
			a, _, err := opts.load()
			if err != nil {
				return err
			}
			t, err := a.Services.Trips.Dataset(cmd.Context())
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("limit") {
				limit = a.Services.Routes.Limit()
			}
			summary, err := a.Services.Routes.Summary(t, limit)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if getOutputFormat(cmd) == "json" {
				return printJSON(out, summary)
			}
			if summary.Warning != "" {
				_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", summary.Warning)
				return nil
			}
			return printTable(out, routesTable(summary))
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", domain.DefaultRouteLimit, "Number of routes to show (default ROUTES_LIMIT)")
	return cmd
}

func routesTable(s *domain.RouteSummary) *domain.Table {
	t := domain.NewTable(
		domain.Column{Name: "route", Type: domain.TypeText},
		domain.Column{Name: "trips", Type: domain.TypeInteger},
	)
	for _, rc := range s.Routes {
		t.Rows = append(t.Rows, []any{rc.Route, rc.Trips})
	}
	return t
}
