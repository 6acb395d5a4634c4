package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/spf13/cobra"

	"github.com/lcrespin/towerstats/internal/pipeline"
	"github.com/lcrespin/towerstats/internal/storage"
)

var sqlCmd = &cobra.Command{
	Use:   "sql <query>",
	Short: "Run a raw SQL query against the session snapshot",
	Long: `Load the feed, store the reconciled sessions in SQLite (in memory unless
--db is set) and run an arbitrary SQL query, printing results as a table.

Schema overview:
  runs(id, loaded_at, rows_read, skipped, stitched, corrections, anomalies, sessions)
  sessions(id, run_id, position, source_id, ts, date, group_id, schema, games)
  session_players(session_id, player, today_wins, total_wins, kills, deaths, self_kills)
  killed_by(session_id, victim, killer, count)
  kill_sources(session_id, player, source, count)

position 0 is the newest session. kills, deaths and self_kills are NULL for
sessions without detailed stats.

Example:
  towerstats sql "SELECT player, MAX(total_wins) FROM session_players GROUP BY player"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSQL,
}

// openSnapshot opens the database at --db and replaces its content with ds.
func openSnapshot(ds *pipeline.Dataset) (*storage.DB, error) {
	db, err := storage.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	r := ds.Report
	run := storage.Run{
		ID:          ds.RunID,
		LoadedAt:    ds.LoadedAt,
		Rows:        r.Build.Rows,
		Skipped:     r.Build.SkippedTotal(),
		Stitched:    len(r.Dropped),
		Corrections: len(r.Correction.Corrections),
		Anomalies:   len(r.Correction.Anomalies),
		Sessions:    r.Sessions,
	}
	if err := db.SaveSnapshot(run, ds.Sessions); err != nil {
		db.Close()
		return nil, fmt.Errorf("save snapshot: %w", err)
	}
	return db, nil
}

func runSQL(cmd *cobra.Command, args []string) error {
	query := strings.Join(args, " ")
	ds, _, err := loadDataset(cmd.Context())
	if err != nil {
		return err
	}
	db, err := openSnapshot(ds)
	if err != nil {
		return err
	}
	defer db.Close()

	cols, rows, err := db.QueryRaw(query)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		fmt.Println("(no rows)")
		return nil
	}

	table := tablewriter.NewTable(os.Stdout, tablewriter.WithConfig(tablewriter.Config{
		Row:    tw.CellConfig{Alignment: tw.CellAlignment{Global: tw.AlignRight}},
		Header: tw.CellConfig{Alignment: tw.CellAlignment{Global: tw.AlignCenter}},
	}))

	colsAny := make([]any, len(cols))
	for i, c := range cols {
		colsAny[i] = c
	}
	table.Header(colsAny...)

	for _, row := range rows {
		rowAny := make([]any, len(row))
		for i, v := range row {
			rowAny[i] = v
		}
		table.Append(rowAny...)
	}
	table.Render()
	fmt.Fprintf(os.Stdout, "\n(%d rows)\n", len(rows))
	return nil
}
