package storage

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/lcrespin/towerstats/internal/model"
)

// Run is the bookkeeping row of one pipeline run.
type Run struct {
	ID          string
	LoadedAt    time.Time
	Rows        int
	Skipped     int
	Stitched    int
	Corrections int
	Anomalies   int
	Sessions    int
}

// SaveSnapshot replaces the stored data with run and its sessions in one
// transaction. sessions are expected newest first.
func (db *DB) SaveSnapshot(run Run, sessions []model.Session) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, table := range []string{"kill_sources", "killed_by", "session_players", "sessions", "runs"} {
		if _, err := tx.Exec(`DELETE FROM ` + table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	_, err = tx.Exec(`
		INSERT INTO runs(id, loaded_at, rows_read, skipped, stitched, corrections, anomalies, sessions)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.LoadedAt.UTC().Format(time.RFC3339), run.Rows, run.Skipped,
		run.Stitched, run.Corrections, run.Anomalies, run.Sessions,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	sessStmt, err := tx.Prepare(`
		INSERT INTO sessions(run_id, position, source_id, ts, date, group_id, schema, games)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer sessStmt.Close()

	playerStmt, err := tx.Prepare(`
		INSERT INTO session_players(session_id, player, today_wins, total_wins, kills, deaths, self_kills)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer playerStmt.Close()

	killedByStmt, err := tx.Prepare(`INSERT INTO killed_by(session_id, victim, killer, count) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer killedByStmt.Close()

	sourceStmt, err := tx.Prepare(`INSERT INTO kill_sources(session_id, player, source, count) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer sourceStmt.Close()

	for pos, s := range sessions {
		res, err := sessStmt.Exec(run.ID, pos, s.SourceID, string(s.Timestamp), s.Timestamp.Date(),
			s.GroupID, s.Schema.String(), s.GamesPlayed())
		if err != nil {
			return fmt.Errorf("insert session %s %s: %w", s.GroupID, s.Timestamp, err)
		}
		sessionID, err := res.LastInsertId()
		if err != nil {
			return err
		}

		for _, name := range s.PlayerNames() {
			p := s.Players[name]
			var kills, deaths, self sql.NullInt64
			if d := p.Detail; d != nil {
				kills = sql.NullInt64{Int64: int64(d.Kills), Valid: true}
				deaths = sql.NullInt64{Int64: int64(d.Deaths), Valid: true}
				self = sql.NullInt64{Int64: int64(d.SelfKills), Valid: true}
			}
			if _, err := playerStmt.Exec(sessionID, name, p.TodayWins, p.TotalWins, kills, deaths, self); err != nil {
				return fmt.Errorf("insert player %s: %w", name, err)
			}
			if p.Detail == nil {
				continue
			}
			for killer, n := range p.Detail.KilledBy {
				if _, err := killedByStmt.Exec(sessionID, name, killer, n); err != nil {
					return fmt.Errorf("insert killed_by for %s: %w", name, err)
				}
			}
			for src, n := range p.Detail.KillSources {
				if _, err := sourceStmt.Exec(sessionID, name, src, n); err != nil {
					return fmt.Errorf("insert kill_sources for %s: %w", name, err)
				}
			}
		}
	}
	return tx.Commit()
}

// LatestRun returns the stored run, or nil if the database is empty.
func (db *DB) LatestRun() (*Run, error) {
	var r Run
	var loadedAt string
	err := db.conn.QueryRow(`
		SELECT id, loaded_at, rows_read, skipped, stitched, corrections, anomalies, sessions
		FROM runs ORDER BY loaded_at DESC LIMIT 1`).
		Scan(&r.ID, &loadedAt, &r.Rows, &r.Skipped, &r.Stitched, &r.Corrections, &r.Anomalies, &r.Sessions)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	r.LoadedAt, _ = time.Parse(time.RFC3339, loadedAt)
	return &r, nil
}

// CountSessions returns the number of stored sessions.
func (db *DB) CountSessions() (int, error) {
	var n int
	err := db.conn.QueryRow(`SELECT COUNT(1) FROM sessions`).Scan(&n)
	return n, err
}

// LoadSessions reads the stored sessions back, newest first.
func (db *DB) LoadSessions() ([]model.Session, error) {
	rows, err := db.conn.Query(`
		SELECT id, source_id, ts, group_id, schema FROM sessions ORDER BY position`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Session
	index := make(map[int64]int)
	for rows.Next() {
		var id int64
		var s model.Session
		var ts, schema string
		if err := rows.Scan(&id, &s.SourceID, &ts, &s.GroupID, &schema); err != nil {
			return nil, err
		}
		s.Timestamp = model.Timestamp(ts)
		s.Schema = parseSchema(schema)
		s.Players = make(map[string]model.PlayerResult)
		index[id] = len(out)
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := db.loadPlayers(out, index); err != nil {
		return nil, err
	}
	if err := db.loadBreakdowns(out, index); err != nil {
		return nil, err
	}
	return out, nil
}

func (db *DB) loadPlayers(sessions []model.Session, index map[int64]int) error {
	rows, err := db.conn.Query(`
		SELECT session_id, player, today_wins, total_wins, kills, deaths, self_kills
		FROM session_players`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var id int64
		var name string
		var p model.PlayerResult
		var kills, deaths, self sql.NullInt64
		if err := rows.Scan(&id, &name, &p.TodayWins, &p.TotalWins, &kills, &deaths, &self); err != nil {
			return err
		}
		if kills.Valid {
			p.Detail = &model.Detail{
				Kills:       int(kills.Int64),
				Deaths:      int(deaths.Int64),
				SelfKills:   int(self.Int64),
				KilledBy:    make(map[string]int),
				KillSources: make(map[string]int),
			}
		}
		if i, ok := index[id]; ok {
			sessions[i].Players[name] = p
		}
	}
	return rows.Err()
}

func (db *DB) loadBreakdowns(sessions []model.Session, index map[int64]int) error {
	rows, err := db.conn.Query(`
		SELECT session_id, victim, killer, count, 0 FROM killed_by
		UNION ALL
		SELECT session_id, player, source, count, 1 FROM kill_sources`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var id int64
		var player, key string
		var n, isSource int
		if err := rows.Scan(&id, &player, &key, &n, &isSource); err != nil {
			return err
		}
		i, ok := index[id]
		if !ok {
			continue
		}
		d := sessions[i].Players[player].Detail
		if d == nil {
			continue
		}
		if isSource == 1 {
			d.KillSources[key] = n
		} else {
			d.KilledBy[key] = n
		}
	}
	return rows.Err()
}

// QueryRaw runs an arbitrary query and returns every value as text.
func (db *DB) QueryRaw(query string) ([]string, [][]string, error) {
	rows, err := db.conn.Query(query)
	if err != nil {
		return nil, nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, nil, err
	}

	var out [][]string
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, nil, err
		}
		row := make([]string, len(cols))
		for i, v := range vals {
			row[i] = formatValue(v)
		}
		out = append(out, row)
	}
	return cols, out, rows.Err()
}

func formatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return "NULL"
	case []byte:
		return string(x)
	case time.Time:
		return x.Format(time.RFC3339)
	default:
		return fmt.Sprint(x)
	}
}

func parseSchema(s string) model.Schema {
	switch s {
	case "v1":
		return model.SchemaColorV1
	case "v2":
		return model.SchemaNamedV2
	default:
		return model.SchemaUnknown
	}
}
