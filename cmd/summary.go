package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lcrespin/towerstats/internal/aggregator"
	"github.com/lcrespin/towerstats/internal/report"
)

// summaryCmd is the cobra command for the headline numbers of the feed.
var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Show a high-level overview of the session log",
	Long: `Display aggregate statistics about the reconciled sessions: session,
player and group counts, date range, best players by wins and by ELO, and
the latest evening's sessions.`,
	Args: cobra.NoArgs,
	RunE: runSummary,
}

func runSummary(cmd *cobra.Command, args []string) error {
	ds, _, err := loadDataset(cmd.Context())
	if err != nil {
		return err
	}
	if len(ds.Sessions) == 0 {
		fmt.Fprintln(os.Stdout, "No sessions in the feed.")
		return nil
	}
	report.PrintSummary(os.Stdout, aggregator.Summary(ds.Sessions, ds.Elo), ds.LoadedAt)
	return nil
}
