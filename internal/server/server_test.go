package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	json "github.com/goccy/go-json"
	log "github.com/sirupsen/logrus"

	"github.com/lcrespin/towerstats/internal/aggregator"
	"github.com/lcrespin/towerstats/internal/model"
	"github.com/lcrespin/towerstats/internal/pipeline"
)

func init() {
	log.SetOutput(io.Discard)
}

func testDataset() *pipeline.Dataset {
	return &pipeline.Dataset{
		RunID: "run-test",
		Sessions: []model.Session{
			{
				Timestamp: "2025-01-12-21",
				GroupID:   "ALEX-MEHDI",
				Schema:    model.SchemaNamedV2,
				Players: map[string]model.PlayerResult{
					"ALEX":  {TodayWins: 1, TotalWins: 8, Detail: &model.Detail{Kills: 9, Deaths: 3, KilledBy: map[string]int{"MEHDI": 3}, KillSources: map[string]int{"bomb": 3}}},
					"MEHDI": {TodayWins: 2, TotalWins: 11, Detail: &model.Detail{Kills: 3, Deaths: 9, KilledBy: map[string]int{"ALEX": 9}, KillSources: map[string]int{"lava": 9}}},
				},
			},
			{
				Timestamp: "2025-01-11",
				GroupID:   "ALEX-MEHDI",
				Schema:    model.SchemaColorV1,
				Players: map[string]model.PlayerResult{
					"ALEX":  {TodayWins: 3, TotalWins: 7},
					"MEHDI": {TodayWins: 1, TotalWins: 9},
				},
			},
		},
		Elo:          aggregator.DefaultElo(),
		PlayerColors: map[string]string{"MEHDI": "#FFC0CB"},
	}
}

func newTestRouter(load pipeline.Loader) http.Handler {
	return NewRouter(NewHandler(load))
}

func okLoader(context.Context) (*pipeline.Dataset, error) { return testDataset(), nil }

func get(t *testing.T, h http.Handler, path string, into any) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	if into != nil && rec.Code == http.StatusOK {
		if err := json.Unmarshal(rec.Body.Bytes(), into); err != nil {
			t.Fatalf("decode %s: %v\n%s", path, err, rec.Body.String())
		}
	}
	return rec
}

func TestHealth(t *testing.T) {
	rec := get(t, newTestRouter(okLoader), "/health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("CORS header missing")
	}
}

func TestGroupsAndRankings(t *testing.T) {
	h := newTestRouter(okLoader)

	var groups []string
	get(t, h, "/api/v1/groups", &groups)
	if len(groups) != 1 || groups[0] != "ALEX-MEHDI" {
		t.Errorf("groups = %v", groups)
	}

	var ranking struct {
		Group   string            `json:"group"`
		Ranking []model.RankEntry `json:"ranking"`
	}
	get(t, h, "/api/v1/rankings/ALEX-MEHDI", &ranking)
	if len(ranking.Ranking) != 2 || ranking.Ranking[0].Player != "MEHDI" || ranking.Ranking[0].BestTotal != 11 {
		t.Errorf("ranking = %+v", ranking)
	}

	get(t, h, "/api/v1/rankings?group=NOBODY", &ranking)
	if ranking.Ranking == nil || len(ranking.Ranking) != 0 {
		t.Errorf("unknown group ranking = %+v, want []", ranking.Ranking)
	}
}

func TestWinRateAndElo(t *testing.T) {
	h := newTestRouter(okLoader)

	var rates []model.WinRate
	get(t, h, "/api/v1/winrate", &rates)
	if len(rates) != 2 {
		t.Fatalf("rates = %+v", rates)
	}
	for _, r := range rates {
		if r.Games != 7 {
			t.Errorf("%s games = %d, want 7", r.Player, r.Games)
		}
	}

	var elo []model.EloRating
	get(t, h, "/api/v1/elo", &elo)
	if len(elo) != 2 || elo[0].Rating+elo[1].Rating < 2999.999 || elo[0].Rating+elo[1].Rating > 3000.001 {
		t.Errorf("elo = %+v", elo)
	}
}

func TestKills(t *testing.T) {
	var kills struct {
		Available bool                      `json:"available"`
		Matrix    map[string]map[string]int `json:"matrix"`
		Sources   []aggregator.SourceCount  `json:"sources"`
	}
	get(t, newTestRouter(okLoader), "/api/v1/kills", &kills)
	if !kills.Available {
		t.Error("available = false")
	}
	if kills.Matrix["ALEX"]["MEHDI"] != 9 {
		t.Errorf("matrix = %v", kills.Matrix)
	}
	if len(kills.Sources) != 2 || kills.Sources[0].Source != "lava" {
		t.Errorf("sources = %+v", kills.Sources)
	}
}

func TestSessionsFilter(t *testing.T) {
	h := newTestRouter(okLoader)

	var sessions []model.Session
	get(t, h, "/api/v1/sessions?date=2025-01-11", &sessions)
	if len(sessions) != 1 || sessions[0].Timestamp != "2025-01-11" {
		t.Errorf("sessions = %+v", sessions)
	}

	rec := get(t, h, "/api/v1/sessions?date=11/01/2025", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad date status = %d, want 400", rec.Code)
	}
}

func TestPlayerTrend(t *testing.T) {
	h := newTestRouter(okLoader)

	var trend struct {
		Player string             `json:"player"`
		Trend  []model.TrendPoint `json:"trend"`
	}
	get(t, h, "/api/v1/players/mehdi/trend", &trend)
	if trend.Player != "MEHDI" || len(trend.Trend) != 2 || trend.Trend[0].TotalWins != 9 {
		t.Errorf("trend = %+v", trend)
	}

	if rec := get(t, h, "/api/v1/players/nobody/trend", nil); rec.Code != http.StatusNotFound {
		t.Errorf("unknown player status = %d, want 404", rec.Code)
	}
}

func TestDashboard(t *testing.T) {
	var d struct {
		RunID        string            `json:"run_id"`
		Summary      model.Summary     `json:"summary"`
		Groups       []string          `json:"groups"`
		PlayerColors map[string]string `json:"player_colors"`
	}
	get(t, newTestRouter(okLoader), "/api/v1/dashboard", &d)
	if d.RunID != "run-test" || d.Summary.TotalSessions != 2 || len(d.Groups) != 1 {
		t.Errorf("dashboard = %+v", d)
	}
	if d.PlayerColors["MEHDI"] != "#FFC0CB" {
		t.Errorf("player colors = %v", d.PlayerColors)
	}
}

func TestLoadFailureIsBadGateway(t *testing.T) {
	failing := func(context.Context) (*pipeline.Dataset, error) {
		return nil, errors.New("fetch feed: GET x: HTTP 503")
	}
	rec := get(t, newTestRouter(failing), "/api/v1/summary", nil)
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", rec.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["details"] != "fetch feed: GET x: HTTP 503" {
		t.Errorf("body = %v", body)
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	panicking := func(context.Context) (*pipeline.Dataset, error) { panic("boom") }
	rec := get(t, newTestRouter(panicking), "/api/v1/elo", nil)
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}
