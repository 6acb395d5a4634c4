package model

import "testing"

func TestGroupID_CommutativeOnOrder(t *testing.T) {
	a := GroupID([]string{"LOUIS", "DAVID", "ERIC"})
	b := GroupID([]string{"ERIC", "LOUIS", "DAVID"})
	if a != b {
		t.Fatalf("expected same group id, got %q and %q", a, b)
	}
	if a != "DAVID-ERIC-LOUIS" {
		t.Errorf("unexpected group id %q", a)
	}
}

func TestGroupID_DropsIgnorablePlayers(t *testing.T) {
	got := GroupID([]string{"ERIC", "AI Jimmy 2", "P3", "p10", "DAVID"})
	if got != "DAVID-ERIC" {
		t.Errorf("expected DAVID-ERIC, got %q", got)
	}
	if GroupID([]string{"P1", "AIJIMMY"}) != "" {
		t.Error("expected empty group id when only ignorable players remain")
	}
}

func TestIsIgnorablePlayer(t *testing.T) {
	for _, name := range []string{"AIJIMMY", "aijimmy", "AI JIMMY", "SuperAIJimmy", "P1", "P 2", "P10", ""} {
		if !IsIgnorablePlayer(name) {
			t.Errorf("%q: expected ignorable", name)
		}
	}
	for _, name := range []string{"PAUL", "P", "ALEX", "P1X"} {
		if IsIgnorablePlayer(name) {
			t.Errorf("%q: expected a real player", name)
		}
	}
}

func TestTimestampParse(t *testing.T) {
	d, h, hasHour, ok := Timestamp("2025-01-10-23").Parse()
	if !ok || !hasHour || h != 23 || d.Format(DateLayout) != "2025-01-10" {
		t.Errorf("hour-qualified parse: date=%v hour=%d hasHour=%v ok=%v", d, h, hasHour, ok)
	}
	_, _, hasHour, ok = Timestamp("2025-01-10").Parse()
	if !ok || hasHour {
		t.Errorf("date-only parse: hasHour=%v ok=%v", hasHour, ok)
	}
	for _, bad := range []string{"", "yesterday", "2025-13-01", "2025-01-10-24", "2025-01-10 23"} {
		if _, _, _, ok := Timestamp(bad).Parse(); ok {
			t.Errorf("%q: expected parse failure", bad)
		}
	}
}

func TestTimestampSortKey(t *testing.T) {
	if Timestamp("2025-01-10-9").SortKey() >= Timestamp("2025-01-10-10").SortKey() {
		t.Error("expected hour 9 to sort before hour 10")
	}
	if Timestamp("2025-01-10").SortKey() >= Timestamp("2025-01-10-00").SortKey() {
		t.Error("expected date-only to sort before the same day's hours")
	}
}

func TestWithTodayWinsDoesNotAlias(t *testing.T) {
	s := Session{GroupID: "A-B", Players: map[string]PlayerResult{
		"A": {TodayWins: 1, TotalWins: 12},
		"B": {TodayWins: 0, TotalWins: 3},
	}}
	c := s.WithTodayWins("A", 2)
	if s.Players["A"].TodayWins != 1 {
		t.Errorf("original mutated: today=%d", s.Players["A"].TodayWins)
	}
	if c.Players["A"].TodayWins != 2 || c.Players["A"].TotalWins != 12 {
		t.Errorf("copy: %+v", c.Players["A"])
	}
}

func TestKDRatio(t *testing.T) {
	cases := []struct {
		k    KillStat
		want float64
	}{
		{KillStat{Kills: 10, Deaths: 4}, 2.5},
		{KillStat{Kills: 7, Deaths: 0}, 7},
		{KillStat{}, 0},
	}
	for _, c := range cases {
		if got := c.k.KDRatio(); got != c.want {
			t.Errorf("%+v: want %v, got %v", c.k, c.want, got)
		}
	}
}
