package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/lcrespin/towerstats/internal/aggregator"
	"github.com/lcrespin/towerstats/internal/report"
)

var (
	eloInitial float64
	eloK       float64
)

var eloCmd = &cobra.Command{
	Use:   "elo",
	Short: "ELO ranking from session-by-session round robins",
	Long: `Replay every session oldest first. Players are ranked by wins in the
session and every pair of players is scored from those ranks (ties score a
draw). All pairs of a session use the ratings from before it.`,
	Args: cobra.NoArgs,
	RunE: runElo,
}

func init() {
	eloCmd.Flags().Float64Var(&eloInitial, "initial", 0, "starting rating (default from config, 1500)")
	eloCmd.Flags().Float64Var(&eloK, "k", 0, "K-factor (default from config, 32)")
}

func runElo(cmd *cobra.Command, args []string) error {
	ds, _, err := loadDataset(cmd.Context())
	if err != nil {
		return err
	}
	p := ds.Elo
	if eloInitial > 0 {
		p.Initial = eloInitial
	}
	if eloK > 0 {
		p.K = eloK
	}
	report.PrintElo(os.Stdout, aggregator.Elo(ds.Sessions, p), p.Initial, "")
	return nil
}
