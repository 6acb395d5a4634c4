package report

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/lcrespin/towerstats/internal/model"
	"github.com/lcrespin/towerstats/internal/pipeline"
	"github.com/lcrespin/towerstats/internal/reconcile"
)

func TestPrintRanking_MarksFocus(t *testing.T) {
	var buf bytes.Buffer
	PrintRanking(&buf, "A-B", []model.RankEntry{{Player: "A", BestTotal: 1300}, {Player: "B", BestTotal: 9}}, "B")
	out := buf.String()
	for _, want := range []string{"A-B", "1st", "2nd", "1,300", ">"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestPrintKillMatrix(t *testing.T) {
	var buf bytes.Buffer
	PrintKillMatrix(&buf, model.KillMatrix{"A": {"B": 7}, "B": {"A": 4}})
	out := buf.String()
	if !strings.Contains(out, "7") || !strings.Contains(out, "4") {
		t.Errorf("matrix counts missing:\n%s", out)
	}
}

func TestPrintSummary_Empty(t *testing.T) {
	var buf bytes.Buffer
	PrintSummary(&buf, model.Summary{}, time.Now())
	out := buf.String()
	if !strings.Contains(out, "Sessions: 0") {
		t.Errorf("summary header missing:\n%s", out)
	}
	if strings.Contains(out, "Latest evening") {
		t.Errorf("latest evening printed for an empty dataset:\n%s", out)
	}
}

func TestPrintSession_Detail(t *testing.T) {
	s := model.Session{
		Timestamp: "2025-03-01-21",
		GroupID:   "A-B",
		Schema:    model.SchemaNamedV2,
		Players: map[string]model.PlayerResult{
			"A": {TodayWins: 2, TotalWins: 9, Detail: &model.Detail{Kills: 12, KillSources: map[string]int{"lava": 3}}},
			"B": {TodayWins: 1, TotalWins: 4},
		},
	}
	var buf bytes.Buffer
	PrintSession(&buf, s)
	out := buf.String()
	for _, want := range []string{"A-B", "lava:3", "12"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestPrintPipelineReport_Verbose(t *testing.T) {
	r := pipeline.Report{
		Correction: reconcile.CorrectionReport{
			Anomalies: []reconcile.Anomaly{{GroupID: "A-B", Player: "A", Timestamp: "2025-01-11", PreviousTotal: 10, Total: 8}},
		},
	}
	r.Build.Skipped = map[string]int{"invalid JSON": 2}

	var buf bytes.Buffer
	PrintPipelineReport(&buf, "run-1", r, true)
	out := buf.String()
	for _, want := range []string{"run-1", "skipped: invalid JSON", "total went down"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}
