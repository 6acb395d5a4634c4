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

var rankingAll bool

var groupsCmd = &cobra.Command{
	Use:   "groups",
	Short: "List groups, best leader first",
	Args:  cobra.NoArgs,
	RunE:  runGroups,
}

var rankingCmd = &cobra.Command{
	Use:   "ranking [group]",
	Short: "Leaderboard of one group by best total wins",
	Long: `Print a group's leaderboard: each player's best career total within the
group. Without an argument the group with the highest score is shown; --all
ranks every player over every session.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRanking,
}

func init() {
	rankingCmd.Flags().BoolVar(&rankingAll, "all", false, "rank every player over all sessions")
}

func runGroups(cmd *cobra.Command, args []string) error {
	ds, _, err := loadDataset(cmd.Context())
	if err != nil {
		return err
	}
	rankings := aggregator.RankingsByGroup(ds.Sessions)
	if len(rankings) == 0 {
		fmt.Fprintln(os.Stdout, "No sessions loaded.")
		return nil
	}
	report.PrintGroups(os.Stdout, rankings, aggregator.GroupsByBestScore(rankings))
	return nil
}

// resolveGroup matches a group id case-insensitively.
func resolveGroup(sessions []model.Session, name string) (string, error) {
	for _, g := range aggregator.Groups(sessions) {
		if strings.EqualFold(g, name) {
			return g, nil
		}
	}
	return "", fmt.Errorf("unknown group %q (see 'towerstats groups')", name)
}

func runRanking(cmd *cobra.Command, args []string) error {
	ds, _, err := loadDataset(cmd.Context())
	if err != nil {
		return err
	}

	if rankingAll {
		report.PrintRanking(os.Stdout, "All sessions", aggregator.Ranking(ds.Sessions, ""), "")
		return nil
	}

	var group string
	if len(args) == 1 {
		if group, err = resolveGroup(ds.Sessions, args[0]); err != nil {
			return err
		}
	} else {
		order := aggregator.GroupsByBestScore(aggregator.RankingsByGroup(ds.Sessions))
		if len(order) == 0 {
			fmt.Fprintln(os.Stdout, "No sessions loaded.")
			return nil
		}
		group = order[0]
	}
	report.PrintRanking(os.Stdout, group, aggregator.Ranking(ds.Sessions, group), "")
	return nil
}
