// Package aggregator computes the leaderboards over a reconciled session
// list. Every function is pure: inputs are never modified and an empty input
// yields an empty table.
package aggregator

import (
	"sort"

	"github.com/lcrespin/towerstats/internal/model"
)

// ---- Merge rules ----

// mergeMax keeps the highest value seen for k.
func mergeMax[K comparable](m map[K]int, k K, v int) {
	if cur, ok := m[k]; !ok || v > cur {
		m[k] = v
	}
}

// mergeSum adds v to the value held for k.
func mergeSum[K comparable](m map[K]int, k K, v int) {
	m[k] += v
}

// firstSeen records the order in which keys first appear.
type firstSeen struct {
	order []string
	seen  map[string]bool
}

func newFirstSeen() *firstSeen {
	return &firstSeen{seen: make(map[string]bool)}
}

func (f *firstSeen) add(k string) {
	if !f.seen[k] {
		f.seen[k] = true
		f.order = append(f.order, k)
	}
}

// validPlayers returns the session's players that are not bots or
// placeholder seats, sorted by name.
func validPlayers(s *model.Session) []string {
	var out []string
	for _, name := range s.PlayerNames() {
		if !model.IsIgnorablePlayer(name) {
			out = append(out, name)
		}
	}
	return out
}

// ---- Discovery ----

// Groups returns the distinct group ids, sorted.
func Groups(sessions []model.Session) []string {
	set := make(map[string]bool)
	for _, s := range sessions {
		set[s.GroupID] = true
	}
	out := make([]string, 0, len(set))
	for g := range set {
		out = append(out, g)
	}
	sort.Strings(out)
	return out
}

// Players returns the distinct valid player names, sorted.
func Players(sessions []model.Session) []string {
	set := make(map[string]bool)
	for i := range sessions {
		for _, name := range validPlayers(&sessions[i]) {
			set[name] = true
		}
	}
	out := make([]string, 0, len(set))
	for p := range set {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Filter selects sessions by calendar date and group. Empty fields match
// everything.
type Filter struct {
	Date  string
	Group string
}

// Select returns the sessions matching f, in input order.
func Select(sessions []model.Session, f Filter) []model.Session {
	var out []model.Session
	for _, s := range sessions {
		if f.Date != "" && s.Timestamp.Date() != f.Date {
			continue
		}
		if f.Group != "" && s.GroupID != f.Group {
			continue
		}
		out = append(out, s)
	}
	return out
}

// ---- Rankings ----

// Ranking returns each player's best TotalWins over the sessions of group,
// or over every session when group is empty, highest first. Ties keep the
// order in which players were first seen.
func Ranking(sessions []model.Session, group string) []model.RankEntry {
	best := make(map[string]int)
	order := newFirstSeen()
	for i := range sessions {
		s := &sessions[i]
		if group != "" && s.GroupID != group {
			continue
		}
		for _, name := range validPlayers(s) {
			order.add(name)
			mergeMax(best, name, s.Players[name].TotalWins)
		}
	}

	out := make([]model.RankEntry, 0, len(order.order))
	for _, name := range order.order {
		out = append(out, model.RankEntry{Player: name, BestTotal: best[name]})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].BestTotal > out[j].BestTotal })
	return out
}

// RankingsByGroup returns the ranking of every group.
func RankingsByGroup(sessions []model.Session) map[string][]model.RankEntry {
	out := make(map[string][]model.RankEntry)
	for _, g := range Groups(sessions) {
		out[g] = Ranking(sessions, g)
	}
	return out
}

// GroupsByBestScore orders groups by the score of their leader, highest
// first, then by name.
func GroupsByBestScore(rankings map[string][]model.RankEntry) []string {
	top := func(g string) int {
		if r := rankings[g]; len(r) > 0 {
			return r[0].BestTotal
		}
		return 0
	}
	out := make([]string, 0, len(rankings))
	for g := range rankings {
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool {
		if ti, tj := top(out[i]), top(out[j]); ti != tj {
			return ti > tj
		}
		return out[i] < out[j]
	})
	return out
}

// WinPercentage returns, per player, the wins they scored over the games
// played in the sessions they attended. A session's games count once for
// every player present, so the denominators add up to more than the number
// of games actually played. Highest percentage first; ties keep first-seen
// order.
func WinPercentage(sessions []model.Session) []model.WinRate {
	victories := make(map[string]int)
	games := make(map[string]int)
	order := newFirstSeen()
	for i := range sessions {
		s := &sessions[i]
		names := validPlayers(s)
		played := 0
		for _, name := range names {
			played += s.Players[name].TodayWins
		}
		for _, name := range names {
			order.add(name)
			mergeSum(victories, name, s.Players[name].TodayWins)
			mergeSum(games, name, played)
		}
	}

	out := make([]model.WinRate, 0, len(order.order))
	for _, name := range order.order {
		out = append(out, model.WinRate{
			Player:    name,
			Victories: victories[name],
			Games:     games[name],
			Percent:   percent(victories[name], games[name]),
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Percent > out[j].Percent })
	return out
}

// percent is 0 for an empty whole. Victories never exceed games since the
// parser rejects negative win counters.
func percent(part, whole int) float64 {
	if whole <= 0 {
		return 0
	}
	return 100 * float64(part) / float64(whole)
}
