package cli

import (
	"io"
	"os"
	"path"
	"strconv"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"bike-dash/internal/service/ingestion"
)

func newIngestCmd(opts *rootOptions) *cobra.Command {
	var noProgress bool

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Download trip archives into the local store",
		Long: "Downloads every archive listed by the archive index, concatenates the CSV files\n" +
			"they contain and replaces the trip table. Does nothing when the store already\n" +
			"holds the table.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, _, err := opts.load()
			if err != nil {
				return err
			}
			if !noProgress && term.IsTerminal(int(os.Stderr.Fd())) {
				a.Ingestor.SetProgress(progressBar(os.Stderr))
			}

			res, err := a.Ingestor.Ingest(cmd.Context(), a.Store, a.Source)
			if err != nil {
				return err
			}

			if getOutputFormat(cmd) == "json" {
				return printJSON(cmd.OutOrStdout(), map[string]any{
					"origin":   res.Origin,
					"store":    a.Store.Location(),
					"source":   a.Source.Location(),
					"archives": res.Archives,
					"rows":     res.Table.Len(),
					"columns":  len(res.Table.Columns),
				})
			}
			return printDetail(cmd.OutOrStdout(),
				[2]string{"origin", string(res.Origin)},
				[2]string{"store", a.Store.Location()},
				[2]string{"source", a.Source.Location()},
				[2]string{"archives", strconv.Itoa(res.Archives)},
				[2]string{"rows", strconv.Itoa(res.Table.Len())},
				[2]string{"columns", strconv.Itoa(len(res.Table.Columns))},
			)
		},
	}

	cmd.Flags().BoolVar(&noProgress, "no-progress", false, "Disable the download progress bar")
	return cmd
}

// progressBar returns a ProgressFunc that draws one byte-counting bar per
// archive on w. Unknown sizes render as a spinner.
func progressBar(w io.Writer) ingestion.ProgressFunc {
	return func(link string, size int64) io.Writer {
		return progressbar.NewOptions64(size,
			progressbar.OptionSetWriter(w),
			progressbar.OptionSetDescription(path.Base(link)),
			progressbar.OptionShowBytes(true),
			progressbar.OptionSetWidth(30),
			progressbar.OptionThrottle(100*time.Millisecond),
			progressbar.OptionClearOnFinish(),
		)
	}
}
