package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/lcrespin/towerstats/internal/aggregator"
	"github.com/lcrespin/towerstats/internal/report"
)

var winrateCmd = &cobra.Command{
	Use:   "winrate",
	Short: "Win percentage over the games played while present",
	Long: `Rank players by the share of games they won among the games played in the
sessions they attended. A session's games count once for every player
present.`,
	Args: cobra.NoArgs,
	RunE: runWinrate,
}

func runWinrate(cmd *cobra.Command, args []string) error {
	ds, _, err := loadDataset(cmd.Context())
	if err != nil {
		return err
	}
	report.PrintWinRates(os.Stdout, aggregator.WinPercentage(ds.Sessions), "")
	return nil
}
