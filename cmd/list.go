package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lcrespin/towerstats/internal/aggregator"
	"github.com/lcrespin/towerstats/internal/report"
)

var (
	listGroup string
	listDate  string
	listLimit int
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List reconciled sessions, newest first",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func init() {
	listCmd.Flags().StringVar(&listGroup, "group", "", "only sessions of this group (e.g. ALEX-MEHDI)")
	listCmd.Flags().StringVar(&listDate, "date", "", "only sessions on this date (YYYY-MM-DD)")
	listCmd.Flags().IntVar(&listLimit, "limit", 20, "maximum sessions to print (0 for all)")
}

func runList(cmd *cobra.Command, args []string) error {
	ds, _, err := loadDataset(cmd.Context())
	if err != nil {
		return err
	}
	sessions := aggregator.Select(ds.Sessions, aggregator.Filter{Date: listDate, Group: listGroup})
	if len(sessions) == 0 {
		fmt.Fprintln(os.Stdout, "No sessions match.")
		return nil
	}
	if listLimit > 0 && len(sessions) > listLimit {
		sessions = sessions[:listLimit]
	}
	report.PrintSessions(os.Stdout, sessions)
	return nil
}
