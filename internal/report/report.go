package report

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/lcrespin/towerstats/internal/aggregator"
	"github.com/lcrespin/towerstats/internal/model"
	"github.com/lcrespin/towerstats/internal/pipeline"
)

const none = "-"

func newTable(w io.Writer) *tablewriter.Table {
	return tablewriter.NewTable(w, tablewriter.WithConfig(tablewriter.Config{
		Row: tw.CellConfig{
			Alignment: tw.CellAlignment{Global: tw.AlignRight},
		},
		Header: tw.CellConfig{
			Alignment: tw.CellAlignment{Global: tw.AlignCenter},
		},
	}))
}

// marker flags the focused player's row with ">".
func marker(player, focus string) string {
	if focus != "" && player == focus {
		return ">"
	}
	return " "
}

// PrintGroups prints every group with its leader, in the given order.
func PrintGroups(w io.Writer, rankings map[string][]model.RankEntry, order []string) {
	table := newTable(w)
	table.Header("GROUP", "PLAYERS", "LEADER", "BEST")
	for _, g := range order {
		r := rankings[g]
		leader, best := none, none
		if len(r) > 0 {
			leader, best = r[0].Player, strconv.Itoa(r[0].BestTotal)
		}
		table.Append(g, strconv.Itoa(len(r)), leader, best)
	}
	table.Render()
}

// PrintRanking prints a leaderboard. If focus is non-empty, that player's
// row is marked with ">".
func PrintRanking(w io.Writer, title string, ranking []model.RankEntry, focus string) {
	if title != "" {
		fmt.Fprintf(w, "\n%s\n\n", title)
	}
	table := newTable(w)
	table.Header(" ", "RANK", "PLAYER", "BEST TOTAL")
	for i, r := range ranking {
		table.Append(marker(r.Player, focus), humanize.Ordinal(i+1), r.Player, humanize.Comma(int64(r.BestTotal)))
	}
	table.Render()
}

// PrintWinRates prints the win-percentage ranking.
func PrintWinRates(w io.Writer, rates []model.WinRate, focus string) {
	table := newTable(w)
	table.Header(" ", "RANK", "PLAYER", "WINS", "GAMES", "WIN%")
	for i, r := range rates {
		table.Append(
			marker(r.Player, focus),
			humanize.Ordinal(i+1),
			r.Player,
			humanize.Comma(int64(r.Victories)),
			humanize.Comma(int64(r.Games)),
			fmt.Sprintf("%.1f%%", r.Percent),
		)
	}
	table.Render()
}

// PrintElo prints the ELO ranking.
func PrintElo(w io.Writer, ratings []model.EloRating, initial float64, focus string) {
	table := newTable(w)
	table.Header(" ", "RANK", "PLAYER", "ELO", "+/-")
	for i, r := range ratings {
		table.Append(
			marker(r.Player, focus),
			humanize.Ordinal(i+1),
			r.Player,
			fmt.Sprintf("%.0f", r.Rating),
			fmt.Sprintf("%+.0f", r.Rating-initial),
		)
	}
	table.Render()
}

// PrintKillStats prints the kill/death table.
func PrintKillStats(w io.Writer, stats []model.KillStat, focus string) {
	table := newTable(w)
	table.Header(" ", "PLAYER", "K", "D", "SELF", "K/D")
	for _, s := range stats {
		table.Append(
			marker(s.Player, focus),
			s.Player,
			strconv.Itoa(s.Kills),
			strconv.Itoa(s.Deaths),
			strconv.Itoa(s.SelfKills),
			fmt.Sprintf("%.2f", s.KDRatio()),
		)
	}
	table.Render()
}

// PrintKillMatrix prints killers as rows and victims as columns.
func PrintKillMatrix(w io.Writer, m model.KillMatrix) {
	set := make(map[string]bool)
	for killer, row := range m {
		set[killer] = true
		for victim := range row {
			set[victim] = true
		}
	}
	players := make([]string, 0, len(set))
	for p := range set {
		players = append(players, p)
	}
	sort.Strings(players)

	header := make([]any, 0, len(players)+1)
	header = append(header, "KILLER \\ VICTIM")
	for _, p := range players {
		header = append(header, p)
	}
	table := newTable(w)
	table.Header(header...)
	for _, killer := range players {
		row := make([]any, 0, len(players)+1)
		row = append(row, killer)
		for _, victim := range players {
			if killer == victim {
				row = append(row, none)
				continue
			}
			row = append(row, strconv.Itoa(m.Get(killer, victim)))
		}
		table.Append(row...)
	}
	table.Render()
}

// PrintKillSources prints the global breakdown, then one line per player
// with their three most frequent sources.
func PrintKillSources(w io.Writer, global map[string]int, perPlayer map[string]map[string]int) {
	table := newTable(w)
	table.Header("SOURCE", "KILLS")
	for _, s := range aggregator.SortedSources(global) {
		table.Append(s.Source, strconv.Itoa(s.Count))
	}
	table.Render()

	players := make([]string, 0, len(perPlayer))
	for p := range perPlayer {
		players = append(players, p)
	}
	sort.Strings(players)

	fmt.Fprintln(w)
	per := newTable(w)
	per.Header("PLAYER", "TOP SOURCES")
	for _, p := range players {
		sources := aggregator.SortedSources(perPlayer[p])
		if len(sources) > 3 {
			sources = sources[:3]
		}
		parts := make([]string, len(sources))
		for i, s := range sources {
			parts[i] = fmt.Sprintf("%s %d", s.Source, s.Count)
		}
		per.Append(p, strings.Join(parts, ", "))
	}
	per.Render()
}

// PrintSummary prints the headline numbers.
func PrintSummary(w io.Writer, s model.Summary, loadedAt time.Time) {
	fmt.Fprintf(w, "\nSessions: %s  |  Players: %d  |  Groups: %d  |  Dates: %s .. %s  |  Loaded %s\n\n",
		humanize.Comma(int64(s.TotalSessions)), s.UniquePlayers, s.UniqueGroups,
		orNone(s.EarliestDate), orNone(s.LatestDate), humanize.Time(loadedAt))

	table := newTable(w)
	table.Header("TITLE", "PLAYERS", "VALUE")
	table.Append("Best total", joinOrNone(s.BestPlayers), strconv.Itoa(s.BestScore))
	table.Append("Best win%", joinOrNone(s.BestPctPlayers), fmt.Sprintf("%.1f%%", s.BestPct))
	table.Append("Best ELO", joinOrNone(s.BestEloPlayers), fmt.Sprintf("%.0f", s.BestElo))
	table.Render()

	if s.LatestEvening != nil {
		fmt.Fprintf(w, "\nLatest evening (%s)\n\n", s.LatestEvening.Date)
		PrintSessions(w, s.LatestEvening.Sessions)
	}
}

func orNone(s string) string {
	if s == "" {
		return none
	}
	return s
}

func joinOrNone(names []string) string {
	if len(names) == 0 {
		return none
	}
	return strings.Join(names, ", ")
}

// results renders "A 3/13, B 1/6" (today/total) in name order.
func results(s *model.Session) string {
	names := s.PlayerNames()
	parts := make([]string, len(names))
	for i, n := range names {
		p := s.Players[n]
		parts[i] = fmt.Sprintf("%s %d/%d", n, p.TodayWins, p.TotalWins)
	}
	return strings.Join(parts, ", ")
}

// PrintSessions prints one line per session, indexed from 0.
func PrintSessions(w io.Writer, sessions []model.Session) {
	table := newTable(w)
	table.Header("#", "TIMESTAMP", "GROUP", "SCHEMA", "GAMES", "TODAY/TOTAL")
	for i := range sessions {
		s := &sessions[i]
		table.Append(
			strconv.Itoa(i),
			string(s.Timestamp),
			s.GroupID,
			s.Schema.String(),
			strconv.Itoa(s.GamesPlayed()),
			results(s),
		)
	}
	table.Render()
}

// PrintSession prints everything known about one session.
func PrintSession(w io.Writer, s model.Session) {
	fmt.Fprintf(w, "\nTimestamp: %s  |  Group: %s  |  Schema: %s  |  Games: %d  |  Source id: %s\n\n",
		s.Timestamp, s.GroupID, s.Schema, s.GamesPlayed(), orNone(s.SourceID))

	table := newTable(w)
	table.Header("PLAYER", "TODAY", "TOTAL", "K", "D", "SELF", "KILLED BY", "SOURCES")
	for _, name := range s.PlayerNames() {
		p := s.Players[name]
		k, d, self, by, src := none, none, none, none, none
		if p.Detail != nil {
			k = strconv.Itoa(p.Detail.Kills)
			d = strconv.Itoa(p.Detail.Deaths)
			self = strconv.Itoa(p.Detail.SelfKills)
			by = breakdown(p.Detail.KilledBy)
			src = breakdown(p.Detail.KillSources)
		}
		table.Append(name, strconv.Itoa(p.TodayWins), strconv.Itoa(p.TotalWins), k, d, self, by, src)
	}
	table.Render()
}

func breakdown(m map[string]int) string {
	if len(m) == 0 {
		return none
	}
	sources := aggregator.SortedSources(m)
	parts := make([]string, len(sources))
	for i, s := range sources {
		parts[i] = fmt.Sprintf("%s:%d", s.Source, s.Count)
	}
	return strings.Join(parts, " ")
}

// PrintTrend prints a player's history, oldest first, with the total's
// change since the previous session of the same group.
func PrintTrend(w io.Writer, player string, points []model.TrendPoint) {
	fmt.Fprintf(w, "\n%s: %d sessions\n\n", player, len(points))
	table := newTable(w)
	table.Header("TIMESTAMP", "GROUP", "TODAY", "TOTAL", "DELTA", "GAMES", "WIN%")
	last := make(map[string]int)
	for _, p := range points {
		delta := none
		if prev, ok := last[p.GroupID]; ok {
			delta = fmt.Sprintf("%+d", p.TotalWins-prev)
		}
		last[p.GroupID] = p.TotalWins
		pct := none
		if p.Games > 0 {
			pct = fmt.Sprintf("%.0f%%", 100*float64(p.TodayWins)/float64(p.Games))
		}
		table.Append(string(p.Timestamp), p.GroupID, strconv.Itoa(p.TodayWins), strconv.Itoa(p.TotalWins), delta, strconv.Itoa(p.Games), pct)
	}
	table.Render()
}

// PrintPipelineReport prints what a run did to the raw feed. With verbose,
// every stitched fragment, correction and anomaly is listed.
func PrintPipelineReport(w io.Writer, runID string, r pipeline.Report, verbose bool) {
	fmt.Fprintf(w, "\nRun %s  |  %s rows  |  %s sessions  |  %s\n\n",
		runID, humanize.Comma(int64(r.Build.Rows)), humanize.Comma(int64(r.Sessions)), r.Elapsed.Round(time.Millisecond))

	table := newTable(w)
	table.Header("STEP", "COUNT")
	table.Append("built", strconv.Itoa(r.Build.Built))
	reasons := make([]string, 0, len(r.Build.Skipped))
	for reason := range r.Build.Skipped {
		reasons = append(reasons, reason)
	}
	sort.Strings(reasons)
	for _, reason := range reasons {
		table.Append("skipped: "+reason, strconv.Itoa(r.Build.Skipped[reason]))
	}
	table.Append("stitched", strconv.Itoa(len(r.Dropped)))
	table.Append("corrected", strconv.Itoa(len(r.Correction.Corrections)))
	table.Append("anomalies", strconv.Itoa(len(r.Correction.Anomalies)))
	table.Render()

	if !verbose {
		return
	}
	if len(r.Dropped) > 0 {
		fmt.Fprintln(w, "\nStitched fragments")
		t := newTable(w)
		t.Header("TIMESTAMP", "GROUP", "REASON")
		for _, d := range r.Dropped {
			t.Append(string(d.Session.Timestamp), d.Session.GroupID, d.Reason)
		}
		t.Render()
	}
	if len(r.Correction.Corrections) > 0 {
		fmt.Fprintln(w, "\nCorrections")
		t := newTable(w)
		t.Header("TIMESTAMP", "GROUP", "PLAYER", "FROM", "TO")
		for _, c := range r.Correction.Corrections {
			t.Append(string(c.Timestamp), c.GroupID, c.Player, strconv.Itoa(c.From), strconv.Itoa(c.To))
		}
		t.Render()
	}
	if len(r.Correction.Anomalies) > 0 {
		fmt.Fprintln(w, "\nAnomalies (total went down)")
		t := newTable(w)
		t.Header("TIMESTAMP", "GROUP", "PLAYER", "PREVIOUS", "TOTAL")
		for _, a := range r.Correction.Anomalies {
			t.Append(string(a.Timestamp), a.GroupID, a.Player, strconv.Itoa(a.PreviousTotal), strconv.Itoa(a.Total))
		}
		t.Render()
	}
}
