package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lcrespin/towerstats/internal/aggregator"
	"github.com/lcrespin/towerstats/internal/model"
	"github.com/lcrespin/towerstats/internal/report"
)

var trendCmd = &cobra.Command{
	Use:   "trend <player>",
	Short: "Chronological per-session history of a player",
	Args:  cobra.ExactArgs(1),
	RunE:  runTrend,
}

// resolvePlayer matches a player name case-insensitively.
func resolvePlayer(sessions []model.Session, name string) (string, bool) {
	for _, p := range aggregator.Players(sessions) {
		if strings.EqualFold(p, name) {
			return p, true
		}
	}
	return "", false
}

func runTrend(cmd *cobra.Command, args []string) error {
	ds, _, err := loadDataset(cmd.Context())
	if err != nil {
		return err
	}
	player, ok := resolvePlayer(ds.Sessions, args[0])
	if !ok {
		fmt.Println("no sessions found")
		return nil
	}
	report.PrintTrend(os.Stdout, player, aggregator.PlayerTrend(ds.Sessions, player))
	return nil
}
