package parser

import (
	"errors"
	"io"
	"testing"

	log "github.com/sirupsen/logrus"

	"github.com/lcrespin/towerstats/internal/model"
)

var testColors = ColorTable{
	"pink":  "MEHDI",
	"green": "JULIEN",
	"white": "DAVID",
	"blue":  "",
}

func newTestBuilder() *Builder {
	l := log.New()
	l.SetOutput(io.Discard)
	return &Builder{Colors: testColors, Log: l}
}

func mustParse(t *testing.T, row model.RawRow) model.Session {
	t.Helper()
	s, err := newTestBuilder().ParseRow(row)
	if err != nil {
		t.Fatalf("ParseRow(%q): %v", row.Value, err)
	}
	return s
}

func TestDetectSchema(t *testing.T) {
	cases := []struct {
		value string
		want  model.Schema
	}{
		{`{"version":"v1","pinkTodayWins":1}`, model.SchemaColorV1},
		{`{"todayWin":{"A":1},"totalWin":{"A":1}}`, model.SchemaNamedV2},
		{`{"version":"v2","todayWin":{"A":1}}`, model.SchemaNamedV2},
		{`{"todayWin":3}`, model.SchemaUnknown},
		{`{"foo":1}`, model.SchemaUnknown},
	}
	for _, c := range cases {
		if got := DetectSchema(c.value); got != c.want {
			t.Errorf("DetectSchema(%s) = %v, want %v", c.value, got, c.want)
		}
	}
}

func TestParseRow_Named(t *testing.T) {
	s := mustParse(t, model.RawRow{
		ID:    "7",
		Date:  "2025-01-10",
		Value: `{"todayWin":{"B":1,"A":2,"P3":4},"totalWin":{"A":10,"B":5,"P3":9}}`,
	})
	if s.GroupID != "A-B" {
		t.Errorf("GroupID = %q, want A-B", s.GroupID)
	}
	if s.Schema != model.SchemaNamedV2 {
		t.Errorf("Schema = %v, want v2", s.Schema)
	}
	if s.SourceID != "7" {
		t.Errorf("SourceID = %q, want 7", s.SourceID)
	}
	if _, ok := s.Players["P3"]; ok {
		t.Error("ignorable player P3 kept in session")
	}
	if got := s.Players["A"]; got.TodayWins != 2 || got.TotalWins != 10 || got.Detail != nil {
		t.Errorf("A = %+v, want today 2 total 10 without detail", got)
	}
	if s.HasDetail() {
		t.Error("HasDetail = true for a payload without today/total")
	}
}

func TestParseRow_TimestampFromPayload(t *testing.T) {
	s := mustParse(t, model.RawRow{
		Date:  "2025-01-10",
		Value: `{"date":"2025-01-10-23","todayWin":{"A":1,"B":0},"totalWin":{"A":1,"B":0}}`,
	})
	if s.Timestamp != "2025-01-10-23" {
		t.Errorf("Timestamp = %q, want the payload date", s.Timestamp)
	}

	s = mustParse(t, model.RawRow{
		Date:  "2025-01-10",
		Value: `{"date":"yesterday","todayWin":{"A":1},"totalWin":{"A":1}}`,
	})
	if s.Timestamp != "2025-01-10" {
		t.Errorf("Timestamp = %q, want the row date when the payload date is unusable", s.Timestamp)
	}
}

func TestParseRow_Detailed(t *testing.T) {
	value := `{
		"todayWin": {"A": 1, "B": 0},
		"totalWin": {"A": 4, "B": 2},
		"today": {"A": {}, "B": {}},
		"total": {
			"A": {"kill": 12, "death": 3, "self": 1, "killBy": {"B": 3, "AIJIMMY": 2}, "killFrom": {"bomb": 2, "lava": 1}},
			"B": {"kill": 5, "death": 9, "self": 0, "killBy": {"A": 9}, "killFrom": {"arrow": 9}}
		}
	}`
	s := mustParse(t, model.RawRow{Date: "2025-03-01-21", Value: value})

	if !s.HasDetail() {
		t.Fatal("HasDetail = false, want true")
	}
	a := s.Players["A"].Detail
	if a == nil {
		t.Fatal("A has no detail")
	}
	if a.Kills != 12 || a.Deaths != 3 || a.SelfKills != 1 {
		t.Errorf("A counters = %+v", a)
	}
	if a.KilledBy["B"] != 3 {
		t.Errorf("A.KilledBy[B] = %d, want 3", a.KilledBy["B"])
	}
	if _, ok := a.KilledBy["AIJIMMY"]; ok {
		t.Error("ignorable killer kept in KilledBy")
	}
	if a.KillSources["bomb"] != 2 || a.KillSources["lava"] != 1 {
		t.Errorf("A.KillSources = %v", a.KillSources)
	}
}

func TestParseRow_Color(t *testing.T) {
	s := mustParse(t, model.RawRow{
		Date: "2025-05-20",
		Value: `{"version":"v1",
			"pinkTodayWins":3,"pinkTotalWins":40,
			"greenTodayWins":0,"greenTotalWins":22,
			"whiteTodayWins":1,"whiteTotalWins":7,
			"blueTodayWins":5,"blueTotalWins":5,
			"redTodayWins":2,"redTotalWins":2}`,
	})
	if s.Schema != model.SchemaColorV1 {
		t.Errorf("Schema = %v, want v1", s.Schema)
	}
	// green won nothing, blue is unassigned, red is unknown.
	if s.GroupID != "DAVID-MEHDI" {
		t.Errorf("GroupID = %q, want DAVID-MEHDI", s.GroupID)
	}
	if got := s.Players["MEHDI"]; got.TodayWins != 3 || got.TotalWins != 40 {
		t.Errorf("MEHDI = %+v", got)
	}
}

func TestParseRow_Errors(t *testing.T) {
	cases := []struct {
		name  string
		value string
		want  error
	}{
		{"empty", "   ", ErrEmptyValue},
		{"bad json", `{"todayWin":`, ErrBadJSON},
		{"array", `[1,2]`, ErrUnknownSchema},
		{"no markers", `{"score":1}`, ErrUnknownSchema},
		{"wrong types", `{"todayWin":{"A":"lots"}}`, ErrBadPayload},
		{"negative today", `{"todayWin":{"A":-2,"B":3},"totalWin":{"A":4,"B":5}}`, ErrBadPayload},
		{"negative total", `{"todayWin":{"A":1},"totalWin":{"A":-1}}`, ErrBadPayload},
		{"v1 negative today", `{"version":"v1","pinkTodayWins":-1,"pinkTotalWins":3}`, ErrBadPayload},
		{"v1 negative total", `{"version":"v1","pinkTodayWins":1,"pinkTotalWins":-3}`, ErrBadPayload},
		{"only bots", `{"todayWin":{"AI JIMMY":3,"p1":1},"totalWin":{}}`, ErrNoPlayers},
		{"v1 nobody won", `{"version":"v1","pinkTodayWins":0}`, ErrNoPlayers},
	}
	b := newTestBuilder()
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := b.ParseRow(model.RawRow{Date: "2025-01-01", Value: c.value})
			if !errors.Is(err, c.want) {
				t.Errorf("err = %v, want %v", err, c.want)
			}
		})
	}
}

func TestBuild_SkipsAndCounts(t *testing.T) {
	rows := []model.RawRow{
		{ID: "1", Date: "2025-01-10", Value: `{"todayWin":{"A":1},"totalWin":{"A":1}}`},
		{ID: "2", Date: "2025-01-11", Value: ``},
		{ID: "3", Date: "2025-01-12", Value: `not json`},
		{ID: "4", Date: "2025-01-13", Value: `{"todayWin":{"B":2,"C":1},"totalWin":{"B":2,"C":1}}`},
		{ID: "5", Date: "2025-01-14", Value: `{"todayWin":{"P1":2}}`},
	}
	sessions, report := newTestBuilder().Build(rows)

	if len(sessions) != 2 {
		t.Fatalf("built %d sessions, want 2", len(sessions))
	}
	if sessions[0].SourceID != "1" || sessions[1].SourceID != "4" {
		t.Errorf("order = %s,%s, want input order", sessions[0].SourceID, sessions[1].SourceID)
	}
	if report.Rows != 5 || report.Built != 2 || report.SkippedTotal() != 3 {
		t.Errorf("report = %+v", report)
	}
	for _, reason := range []error{ErrEmptyValue, ErrBadJSON, ErrNoPlayers} {
		if report.Skipped[reason.Error()] != 1 {
			t.Errorf("Skipped[%q] = %d, want 1", reason, report.Skipped[reason.Error()])
		}
	}
}

func TestParseRow_GroupIdentityIgnoresKeyOrder(t *testing.T) {
	a := mustParse(t, model.RawRow{Date: "2025-01-10", Value: `{"todayWin":{"A":1,"B":1,"C":1},"totalWin":{}}`})
	b := mustParse(t, model.RawRow{Date: "2025-01-10", Value: `{"todayWin":{"C":1,"A":1,"B":1},"totalWin":{}}`})
	if a.GroupID != b.GroupID {
		t.Errorf("GroupID %q != %q", a.GroupID, b.GroupID)
	}
}
