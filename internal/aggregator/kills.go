package aggregator

import (
	"sort"

	"github.com/lcrespin/towerstats/internal/model"
)

// detailed calls fn for every valid player carrying kill detail.
func detailed(sessions []model.Session, fn func(player string, d *model.Detail)) {
	for i := range sessions {
		s := &sessions[i]
		for _, name := range validPlayers(s) {
			if d := s.Players[name].Detail; d != nil {
				fn(name, d)
			}
		}
	}
}

// HasDetail reports whether any session carries kill detail.
func HasDetail(sessions []model.Session) bool {
	for i := range sessions {
		if sessions[i].HasDetail() {
			return true
		}
	}
	return false
}

// KillStats returns each player's highest kill, death and self-kill counters.
// The counters are career totals, so they are never summed. Most kills first.
func KillStats(sessions []model.Session) []model.KillStat {
	kills := make(map[string]int)
	deaths := make(map[string]int)
	self := make(map[string]int)
	detailed(sessions, func(name string, d *model.Detail) {
		mergeMax(kills, name, d.Kills)
		mergeMax(deaths, name, d.Deaths)
		mergeMax(self, name, d.SelfKills)
	})

	out := make([]model.KillStat, 0, len(kills))
	for name := range kills {
		out = append(out, model.KillStat{
			Player:    name,
			Kills:     kills[name],
			Deaths:    deaths[name],
			SelfKills: self[name],
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Kills != out[j].Kills {
			return out[i].Kills > out[j].Kills
		}
		return out[i].Player < out[j].Player
	})
	return out
}

// KillMatrix returns killer -> victim -> highest count, read from each
// victim's killed-by breakdown.
func KillMatrix(sessions []model.Session) model.KillMatrix {
	m := make(model.KillMatrix)
	detailed(sessions, func(victim string, d *model.Detail) {
		for killer, n := range d.KilledBy {
			if model.IsIgnorablePlayer(killer) {
				continue
			}
			row := m[killer]
			if row == nil {
				row = make(map[string]int)
				m[killer] = row
			}
			mergeMax(row, victim, n)
		}
	})
	return m
}

// KillSources returns, per player, the highest count for every kill source
// and, globally, the sum of those per-player counts.
func KillSources(sessions []model.Session) (global map[string]int, perPlayer map[string]map[string]int) {
	perPlayer = make(map[string]map[string]int)
	detailed(sessions, func(name string, d *model.Detail) {
		if len(d.KillSources) == 0 {
			return
		}
		row := perPlayer[name]
		if row == nil {
			row = make(map[string]int)
			perPlayer[name] = row
		}
		for src, n := range d.KillSources {
			mergeMax(row, src, n)
		}
	})

	global = make(map[string]int)
	for _, row := range perPlayer {
		for src, n := range row {
			mergeSum(global, src, n)
		}
	}
	return global, perPlayer
}

// SourceCount is one entry of a kill-source breakdown.
type SourceCount struct {
	Source string `json:"source"`
	Count  int    `json:"count"`
}

// SortedSources flattens a breakdown, most frequent first.
func SortedSources(m map[string]int) []SourceCount {
	out := make([]SourceCount, 0, len(m))
	for src, n := range m {
		out = append(out, SourceCount{Source: src, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Source < out[j].Source
	})
	return out
}
