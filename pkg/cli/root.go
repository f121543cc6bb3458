// Package cli implements the bikedash command-line interface.
package cli

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"bike-dash/internal/app"
	"bike-dash/internal/config"
)

var (
	version = "dev"
	commit  = "none"
)

// Execute runs the CLI.
func Execute() int {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		output, _ := rootCmd.PersistentFlags().GetString("output")
		if output == "json" {
			enc := json.NewEncoder(os.Stdout)
			_ = enc.Encode(map[string]any{"error": err.Error()})
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		return 1
	}
	return 0
}

// rootOptions holds the persistent flags. Non-empty store and source flags
// override the matching environment variables.
type rootOptions struct {
	output   string
	envFile  string
	dbPath   string
	driver   string
	table    string
	csvPath  string
	indexURL string
	gbfsURL  string
	verbose  bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:           "bikedash",
		Short:         "Bikeshare trip dashboard CLI",
		Long:          "Ingest historical trip archives, rank popular routes and inspect live station status.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if !cmd.Flags().Changed("output") {
				if v := os.Getenv("BIKEDASH_OUTPUT"); v != "" {
					opts.output = v
				}
			}
			return validateOutputFormat(opts.output)
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&opts.output, "output", "o", "table", "Output format (table, json)")
	pf.StringVar(&opts.envFile, "env-file", ".env", "dotenv file loaded before reading the environment")
	pf.StringVar(&opts.dbPath, "db", "", "trip store path (overrides TRIPS_DB_PATH)")
	pf.StringVar(&opts.driver, "driver", "", "trip store driver: sqlite or duckdb (overrides TRIPS_STORE_DRIVER)")
	pf.StringVar(&opts.table, "table", "", "trip table name (overrides TRIPS_TABLE)")
	pf.StringVar(&opts.csvPath, "csv", "", "local trips CSV (overrides TRIPS_CSV_PATH)")
	pf.StringVar(&opts.indexURL, "index", "", "archive index URL or s3:// location (overrides ARCHIVE_INDEX_URL)")
	pf.StringVar(&opts.gbfsURL, "gbfs", "", "GBFS auto-discovery URL (overrides GBFS_INDEX_URL)")
	pf.BoolVarP(&opts.verbose, "verbose", "v", false, "Log debug output to stderr")

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newIngestCmd(opts))
	rootCmd.AddCommand(newTripsCmd(opts))
	rootCmd.AddCommand(newRoutesCmd(opts))
	rootCmd.AddCommand(newLiveCmd(opts))
	rootCmd.AddCommand(newCompletionCmd())

	return rootCmd
}

// load reads the environment, applies flag overrides and wires the app.
func (o *rootOptions) load() (*app.App, *config.Config, error) {
	if err := config.LoadDotEnv(o.envFile); err != nil {
		return nil, nil, fmt.Errorf("load %s: %w", o.envFile, err)
	}
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return nil, nil, fmt.Errorf("config: %w", err)
	}
	overrides := []struct {
		value string
		field *string
	}{
		{o.dbPath, &cfg.TripsDBPath},
		{o.driver, &cfg.TripsStoreDriver},
		{o.table, &cfg.TripsTable},
		{o.csvPath, &cfg.TripsCSVPath},
		{o.indexURL, &cfg.ArchiveIndexURL},
		{o.gbfsURL, &cfg.GBFSIndexURL},
	}
	for _, ov := range overrides {
		if ov.value != "" {
			*ov.field = ov.value
		}
	}

	level := slog.LevelWarn
	if o.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	for _, w := range cfg.Warnings {
		logger.Debug("config", "warning", w)
	}

	a, err := app.New(app.Deps{Cfg: cfg, Logger: logger})
	if err != nil {
		return nil, nil, err
	}
	return a, cfg, nil
}

func newCompletionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(os.Stdout)
			case "zsh":
				return cmd.Root().GenZshCompletion(os.Stdout)
			case "fish":
				return cmd.Root().GenFishCompletion(os.Stdout, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(os.Stdout)
			default:
				return fmt.Errorf("unsupported shell: %s", args[0])
			}
		},
	}
	return cmd
}
