package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lcrespin/towerstats/internal/aggregator"
	"github.com/lcrespin/towerstats/internal/report"
)

var (
	killsMatrix  bool
	killsSources bool
)

var killsCmd = &cobra.Command{
	Use:   "kills",
	Short: "Kill, death and self-kill analytics",
	Long: `Print each player's highest kill counters from the sessions that carry
detailed stats. --matrix adds who killed whom, --sources the kill sources.`,
	Args: cobra.NoArgs,
	RunE: runKills,
}

func init() {
	killsCmd.Flags().BoolVar(&killsMatrix, "matrix", false, "print the killer/victim matrix")
	killsCmd.Flags().BoolVar(&killsSources, "sources", false, "print the kill sources")
}

func runKills(cmd *cobra.Command, args []string) error {
	ds, _, err := loadDataset(cmd.Context())
	if err != nil {
		return err
	}
	if !aggregator.HasDetail(ds.Sessions) {
		fmt.Fprintln(os.Stdout, "No session carries detailed kill stats.")
		return nil
	}

	report.PrintKillStats(os.Stdout, aggregator.KillStats(ds.Sessions), "")
	if killsMatrix {
		fmt.Fprintln(os.Stdout, "\nKill matrix")
		report.PrintKillMatrix(os.Stdout, aggregator.KillMatrix(ds.Sessions))
	}
	if killsSources {
		fmt.Fprintln(os.Stdout, "\nKill sources")
		global, perPlayer := aggregator.KillSources(ds.Sessions)
		report.PrintKillSources(os.Stdout, global, perPlayer)
	}
	return nil
}
