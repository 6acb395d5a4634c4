package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/lcrespin/towerstats/internal/aggregator"
	"github.com/lcrespin/towerstats/internal/pipeline"
	"github.com/lcrespin/towerstats/internal/reconcile"
	"github.com/lcrespin/towerstats/internal/report"
)

var (
	cPrompt   = color.New(color.FgCyan, color.Bold)
	cMuted    = color.New(color.Faint)
	cError    = color.New(color.FgRed, color.Bold)
	cWarn     = color.New(color.FgYellow)
	cHeader   = color.New(color.FgCyan, color.Bold)
	cCmd      = color.New(color.FgYellow, color.Bold)
	cGreeting = color.New(color.Bold)
)

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Start an interactive REPL session",
	Long: `Load the feed once and explore it interactively. 'reload' fetches it
again. Type 'help' for available commands.`,
	Args: cobra.NoArgs,
	RunE: runShell,
}

func runShell(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	ds, _, err := loadDataset(ctx)
	if err != nil {
		return err
	}

	cGreeting.Println("towerstats shell")
	cMuted.Printf("%d sessions loaded (run %s). type 'help' or 'exit'\n", len(ds.Sessions), ds.RunID)
	fmt.Println()

	scanner := bufio.NewScanner(os.Stdin)
	for {
		cPrompt.Print("towerstats")
		cMuted.Print("> ")
		if !scanner.Scan() {
			fmt.Println()
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		tokens := strings.Fields(line)
		name, args := tokens[0], tokens[1:]

		switch name {
		case "exit", "quit":
			return nil
		case "help":
			shellHelp()
		case "reload":
			if next := shellReload(ctx); next != nil {
				ds = next
			}
		case "report":
			report.PrintPipelineReport(os.Stdout, ds.RunID, ds.Report, true)
		case "summary":
			report.PrintSummary(os.Stdout, aggregator.Summary(ds.Sessions, ds.Elo), ds.LoadedAt)
		case "groups":
			rankings := aggregator.RankingsByGroup(ds.Sessions)
			report.PrintGroups(os.Stdout, rankings, aggregator.GroupsByBestScore(rankings))
		case "ranking":
			shellRanking(ds, args)
		case "winrate":
			report.PrintWinRates(os.Stdout, aggregator.WinPercentage(ds.Sessions), focusArg(ds, args))
		case "elo":
			report.PrintElo(os.Stdout, aggregator.Elo(ds.Sessions, ds.Elo), ds.Elo.Initial, focusArg(ds, args))
		case "kills":
			if !aggregator.HasDetail(ds.Sessions) {
				cMuted.Println("No session carries detailed kill stats.")
				continue
			}
			report.PrintKillStats(os.Stdout, aggregator.KillStats(ds.Sessions), focusArg(ds, args))
		case "matrix":
			report.PrintKillMatrix(os.Stdout, aggregator.KillMatrix(ds.Sessions))
		case "latest":
			shellLatest(ds)
		case "list":
			shellList(ds, args)
		case "show":
			if len(args) == 0 {
				cError.Fprintln(os.Stderr, "usage: show <index|timestamp>")
				continue
			}
			shellShow(ds, args[0])
		case "trend":
			if len(args) == 0 {
				cError.Fprintln(os.Stderr, "usage: trend <player>")
				continue
			}
			shellTrend(ds, args[0])
		case "group":
			if len(args) == 0 {
				cError.Fprintln(os.Stderr, "usage: group <group-id>")
				continue
			}
			shellGroup(ds, args[0])
		default:
			cWarn.Fprintf(os.Stderr, "unknown command %q, type 'help'\n", name)
		}
	}
	return nil
}

func shellHelp() {
	fmt.Println()
	type entry struct{ cmd, desc string }
	rows := []entry{
		{"summary", "headline numbers and the latest evening"},
		{"groups", "groups, best leader first"},
		{"ranking [group]", "leaderboard of a group (default: best group)"},
		{"winrate [player]", "win percentage, optionally marking a player"},
		{"elo [player]", "ELO ranking, optionally marking a player"},
		{"kills [player]", "kill, death and self-kill counters"},
		{"matrix", "who killed whom"},
		{"latest", "sessions of the latest evening"},
		{"list [n]", "the n newest sessions (default 20)"},
		{"show <index|timestamp>", "one session in full"},
		{"trend <player>", "a player's session history"},
		{"group <group-id>", "a group's sessions, oldest first"},
		{"report", "what the pipeline skipped, stitched and corrected"},
		{"reload", "fetch and reconcile the feed again"},
		{"help", "show this message"},
		{"exit / quit", "close the session"},
	}
	for _, r := range rows {
		fmt.Print("  ")
		cCmd.Printf("%-38s", r.cmd)
		fmt.Println(r.desc)
	}
	fmt.Println()
}

func shellReload(ctx context.Context) *pipeline.Dataset {
	ds, _, err := loadDataset(ctx)
	if err != nil {
		cError.Fprintf(os.Stderr, "error: %v\n", err)
		return nil
	}
	cMuted.Printf("%d sessions loaded (run %s)\n", len(ds.Sessions), ds.RunID)
	return ds
}

// focusArg resolves an optional player argument to its canonical name.
func focusArg(ds *pipeline.Dataset, args []string) string {
	if len(args) == 0 {
		return ""
	}
	p, ok := resolvePlayer(ds.Sessions, args[0])
	if !ok {
		cWarn.Fprintf(os.Stderr, "no sessions found for %q\n", args[0])
	}
	return p
}

func shellRanking(ds *pipeline.Dataset, args []string) {
	var group string
	if len(args) > 0 {
		g, err := resolveGroup(ds.Sessions, args[0])
		if err != nil {
			cError.Fprintf(os.Stderr, "error: %v\n", err)
			return
		}
		group = g
	} else {
		order := aggregator.GroupsByBestScore(aggregator.RankingsByGroup(ds.Sessions))
		if len(order) == 0 {
			cMuted.Println("No sessions loaded.")
			return
		}
		group = order[0]
	}
	report.PrintRanking(os.Stdout, group, aggregator.Ranking(ds.Sessions, group), "")
}

func shellLatest(ds *pipeline.Dataset) {
	s := aggregator.Summary(ds.Sessions, ds.Elo)
	if s.LatestEvening == nil {
		cMuted.Println("No dated sessions.")
		return
	}
	cHeader.Fprintf(os.Stdout, "--- %s ---\n", s.LatestEvening.Date)
	report.PrintSessions(os.Stdout, s.LatestEvening.Sessions)
}

func shellList(ds *pipeline.Dataset, args []string) {
	n := 20
	if len(args) > 0 {
		v, err := strconv.Atoi(args[0])
		if err != nil || v <= 0 {
			cError.Fprintln(os.Stderr, "usage: list [n]")
			return
		}
		n = v
	}
	sessions := ds.Sessions
	if len(sessions) > n {
		sessions = sessions[:n]
	}
	if len(sessions) == 0 {
		cMuted.Println("No sessions loaded.")
		return
	}
	report.PrintSessions(os.Stdout, sessions)
}

func shellShow(ds *pipeline.Dataset, key string) {
	found := findSessions(ds.Sessions, key)
	if len(found) == 0 {
		fmt.Fprintf(os.Stderr, "no session found for %q\n", key)
		return
	}
	for _, s := range found {
		report.PrintSession(os.Stdout, s)
	}
}

func shellTrend(ds *pipeline.Dataset, name string) {
	p, ok := resolvePlayer(ds.Sessions, name)
	if !ok {
		fmt.Fprintf(os.Stderr, "no sessions found for %q\n", name)
		return
	}
	report.PrintTrend(os.Stdout, p, aggregator.PlayerTrend(ds.Sessions, p))
}

// shellGroup prints a group's sessions oldest first with each player's
// today/total line, the view used to check the win counter correction.
func shellGroup(ds *pipeline.Dataset, name string) {
	g, err := resolveGroup(ds.Sessions, name)
	if err != nil {
		cError.Fprintf(os.Stderr, "error: %v\n", err)
		return
	}
	asc := aggregator.Select(ds.Sessions, aggregator.Filter{Group: g})
	reconcile.SortAscending(asc)

	cHeader.Fprintf(os.Stdout, "--- %s: %d sessions ---\n", g, len(asc))
	report.PrintSessions(os.Stdout, asc)

	for _, c := range ds.Report.Correction.Corrections {
		if c.GroupID == g {
			cWarn.Printf("  corrected %s @ %s: today %d -> %d\n", c.Player, c.Timestamp, c.From, c.To)
		}
	}
	for _, a := range ds.Report.Correction.Anomalies {
		if a.GroupID == g {
			cError.Printf("  anomaly %s @ %s: total %d after %d\n", a.Player, a.Timestamp, a.Total, a.PreviousTotal)
		}
	}
}
