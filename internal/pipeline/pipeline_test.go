package pipeline

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	log "github.com/sirupsen/logrus"

	"github.com/lcrespin/towerstats/internal/config"
	"github.com/lcrespin/towerstats/internal/feed"
	"github.com/lcrespin/towerstats/internal/model"
)

func init() {
	log.SetOutput(io.Discard)
}

// staticSource serves fixed rows or a fixed error.
type staticSource struct {
	rows []model.RawRow
	err  error
}

func (s staticSource) Rows(context.Context) ([]model.RawRow, error) {
	return s.rows, s.err
}

const feedCSV = `id,date,value
1,2025-01-10,"{""date"":""2025-01-10-23"",""todayWin"":{""A"":2,""B"":1},""totalWin"":{""A"":10,""B"":5}}"
1,2025-01-11,"{""date"":""2025-01-11-02"",""todayWin"":{""A"":1,""B"":0},""totalWin"":{""A"":13,""B"":6}}"
2,2025-01-12,"{""date"":""2025-01-12-21"",""todayWin"":{""A"":0,""B"":4},""totalWin"":{""A"":13,""B"":9}}"
3,2025-01-13,
4,2025-01-13,"{""todayWin"":{""P1"":3}}"
`

func TestLoad_EndToEnd(t *testing.T) {
	rows, err := feed.ParseCSV(strings.NewReader(feedCSV))
	if err != nil {
		t.Fatalf("ParseCSV: %v", err)
	}
	ds, err := Load(context.Background(), staticSource{rows: rows}, config.Default())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if ds.RunID == "" {
		t.Error("empty run id")
	}
	if len(ds.Sessions) != 2 {
		t.Fatalf("sessions = %d, want 2", len(ds.Sessions))
	}
	if ds.Sessions[0].Timestamp != "2025-01-12-21" || ds.Sessions[1].Timestamp != "2025-01-11-02" {
		t.Errorf("order = %s, %s", ds.Sessions[0].Timestamp, ds.Sessions[1].Timestamp)
	}
	// 13 -> 13 and 6 -> 9 against the surviving post-midnight session.
	last := ds.Sessions[0]
	if last.Players["A"].TodayWins != 0 || last.Players["B"].TodayWins != 3 {
		t.Errorf("corrected = %+v", last.Players)
	}

	r := ds.Report
	if r.Build.Rows != 5 || r.Build.SkippedTotal() != 2 {
		t.Errorf("build report = %+v", r.Build)
	}
	if len(r.Dropped) != 1 || r.Dropped[0].Session.Timestamp != "2025-01-10-23" {
		t.Errorf("dropped = %+v", r.Dropped)
	}
	if len(r.Correction.Corrections) != 1 {
		t.Errorf("corrections = %+v", r.Correction.Corrections)
	}
	if ds.Elo.Initial != 1500 || ds.Elo.K != 32 {
		t.Errorf("elo params = %+v", ds.Elo)
	}
	if ds.PlayerColors["MEHDI"] != "#FFC0CB" {
		t.Errorf("player colors = %v", ds.PlayerColors)
	}
}

func TestLoad_FetchFailure(t *testing.T) {
	boom := errors.New("connection refused")
	_, err := Load(context.Background(), staticSource{err: boom}, config.Default())
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want wrapped %v", err, boom)
	}
	if !strings.Contains(err.Error(), "fetch feed") {
		t.Errorf("err = %q, want fetch feed prefix", err)
	}
}

func TestLoader_FreshRunEachCall(t *testing.T) {
	load := NewLoader(staticSource{}, config.Default())
	a, err := load(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	b, err := load(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if a.RunID == b.RunID {
		t.Error("two loads share a run id")
	}
	if len(a.Sessions) != 0 {
		t.Errorf("sessions = %d from an empty feed", len(a.Sessions))
	}
}
