package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lcrespin/towerstats/internal/feed"
	"github.com/lcrespin/towerstats/internal/report"
	"github.com/lcrespin/towerstats/internal/storage"
)

// fetch command flags.
var (
	// fetchVerbose lists every stitched fragment, correction and anomaly.
	fetchVerbose bool
	// fetchSave is where the raw feed is written for later --file runs.
	fetchSave string
)

// fetchCmd downloads and reconciles the feed, then reports what it cleaned.
var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch and reconcile the session log",
	Long: `Fetches the session log, builds and reconciles the sessions, and prints
how many rows were skipped, stitched and corrected.

Examples:
  # What did the pipeline do to today's feed?
  towerstats fetch -v

  # Keep a compressed copy of the raw feed and a queryable SQLite snapshot
  towerstats fetch --save feed.csv.zst --db towerstats.db`,
	Args: cobra.NoArgs,
	RunE: runFetch,
}

func init() {
	fetchCmd.Flags().BoolVarP(&fetchVerbose, "verbose", "v", false, "list stitched fragments, corrections and anomalies")
	fetchCmd.Flags().StringVar(&fetchSave, "save", "", "write the raw feed to this file (.csv, .gz or .zst)")
}

func runFetch(cmd *cobra.Command, args []string) error {
	ds, _, err := loadDataset(cmd.Context())
	if err != nil {
		return err
	}
	report.PrintPipelineReport(os.Stdout, ds.RunID, ds.Report, fetchVerbose)

	if fetchSave != "" {
		if err := feed.WriteSnapshot(fetchSave, ds.Raw); err != nil {
			return fmt.Errorf("save feed: %w", err)
		}
		fmt.Fprintf(os.Stdout, "\nSaved %d raw rows to %s\n", len(ds.Raw), fetchSave)
	}

	if dbPath != storage.MemoryPath {
		db, err := openSnapshot(ds)
		if err != nil {
			return err
		}
		defer db.Close()
		fmt.Fprintf(os.Stdout, "Stored %d sessions in %s\n", len(ds.Sessions), dbPath)
	}
	return nil
}
