package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lcrespin/towerstats/internal/aggregator"
	"github.com/lcrespin/towerstats/internal/model"
	"github.com/lcrespin/towerstats/internal/report"
)

// playerCmd is the cobra command for a side-by-side view of one or more players.
var playerCmd = &cobra.Command{
	Use:   "player <name> [<name>...]",
	Short: "Side-by-side analysis for one or more players",
	Long: `Print the win percentage, ELO and kill tables restricted to the named
players, plus every group leaderboard each player appears in. Names are matched
case-insensitively.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runPlayer,
}

// runPlayer resolves each name, then filters the global tables down to them.
func runPlayer(cmd *cobra.Command, args []string) error {
	ds, _, err := loadDataset(cmd.Context())
	if err != nil {
		return err
	}

	want := make(map[string]bool, len(args))
	var names []string
	for _, arg := range args {
		p, ok := resolvePlayer(ds.Sessions, arg)
		if !ok {
			fmt.Fprintf(os.Stderr, "No sessions found for %q\n", arg)
			continue
		}
		if !want[p] {
			want[p] = true
			names = append(names, p)
		}
	}
	if len(names) == 0 {
		return nil
	}

	rankings := aggregator.RankingsByGroup(ds.Sessions)
	for _, name := range names {
		fmt.Fprintf(os.Stdout, "\n=== %s ===\n", name)
		for _, g := range aggregator.GroupsByBestScore(rankings) {
			if inRanking(rankings[g], name) {
				report.PrintRanking(os.Stdout, g, rankings[g], name)
			}
		}
	}

	fmt.Fprintln(os.Stdout, "\n--- Win percentage ---")
	report.PrintWinRates(os.Stdout, keep(aggregator.WinPercentage(ds.Sessions), want, func(r model.WinRate) string { return r.Player }), "")

	fmt.Fprintln(os.Stdout, "\n--- ELO ---")
	report.PrintElo(os.Stdout, keep(aggregator.Elo(ds.Sessions, ds.Elo), want, func(r model.EloRating) string { return r.Player }), ds.Elo.Initial, "")

	if aggregator.HasDetail(ds.Sessions) {
		fmt.Fprintln(os.Stdout, "\n--- Kills ---")
		report.PrintKillStats(os.Stdout, keep(aggregator.KillStats(ds.Sessions), want, func(k model.KillStat) string { return k.Player }), "")
	}
	return nil
}

func inRanking(ranking []model.RankEntry, player string) bool {
	for _, e := range ranking {
		if e.Player == player {
			return true
		}
	}
	return false
}

// keep returns the rows whose player is in want, preserving order.
func keep[T any](rows []T, want map[string]bool, player func(T) string) []T {
	var out []T
	for _, r := range rows {
		if want[player(r)] {
			out = append(out, r)
		}
	}
	return out
}
