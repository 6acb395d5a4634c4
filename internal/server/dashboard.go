package server

import (
	"time"

	"github.com/lcrespin/towerstats/internal/aggregator"
	"github.com/lcrespin/towerstats/internal/model"
	"github.com/lcrespin/towerstats/internal/pipeline"
)

// KillStatView is a kill line with its ratio precomputed.
type KillStatView struct {
	model.KillStat
	KDRatio float64 `json:"kd_ratio"`
}

// KillsView gathers the kill analytics. Every field is empty, never null,
// when no session carries detail.
type KillsView struct {
	Available bool                                `json:"available"`
	Stats     []KillStatView                      `json:"stats"`
	Matrix    model.KillMatrix                    `json:"matrix"`
	Sources   []aggregator.SourceCount            `json:"sources"`
	PerPlayer map[string][]aggregator.SourceCount `json:"per_player"`
}

// Dashboard is every table of one run, as served to the front end.
type Dashboard struct {
	RunID          string                       `json:"run_id"`
	LoadedAt       time.Time                    `json:"loaded_at"`
	Summary        model.Summary                `json:"summary"`
	Groups         []string                     `json:"groups"` // best score first
	Rankings       map[string][]model.RankEntry `json:"rankings"`
	GlobalRanking  []model.RankEntry            `json:"global_ranking"`
	WinRates       []model.WinRate              `json:"win_rates"`
	Elo            []model.EloRating            `json:"elo"`
	Kills          KillsView                    `json:"kills"`
	SessionsByDate []model.Evening              `json:"sessions_by_date"`
	PlayerColors   map[string]string            `json:"player_colors"`
}

// BuildKills computes the kill analytics of sessions.
func BuildKills(sessions []model.Session) KillsView {
	v := KillsView{
		Available: aggregator.HasDetail(sessions),
		Stats:     []KillStatView{},
		Matrix:    aggregator.KillMatrix(sessions),
		PerPlayer: make(map[string][]aggregator.SourceCount),
	}
	for _, s := range aggregator.KillStats(sessions) {
		v.Stats = append(v.Stats, KillStatView{KillStat: s, KDRatio: s.KDRatio()})
	}
	global, perPlayer := aggregator.KillSources(sessions)
	v.Sources = aggregator.SortedSources(global)
	for p, m := range perPlayer {
		v.PerPlayer[p] = aggregator.SortedSources(m)
	}
	return v
}

// BuildDashboard computes every table of ds.
func BuildDashboard(ds *pipeline.Dataset) Dashboard {
	rankings := aggregator.RankingsByGroup(ds.Sessions)
	return Dashboard{
		RunID:          ds.RunID,
		LoadedAt:       ds.LoadedAt,
		Summary:        aggregator.Summary(ds.Sessions, ds.Elo),
		Groups:         nonNil(aggregator.GroupsByBestScore(rankings)),
		Rankings:       rankings,
		GlobalRanking:  nonNil(aggregator.Ranking(ds.Sessions, "")),
		WinRates:       nonNil(aggregator.WinPercentage(ds.Sessions)),
		Elo:            nonNil(aggregator.Elo(ds.Sessions, ds.Elo)),
		Kills:          BuildKills(ds.Sessions),
		SessionsByDate: nonNil(aggregator.SessionsByDate(ds.Sessions)),
		PlayerColors:   ds.PlayerColors,
	}
}

// nonNil turns a nil slice into an empty one so it encodes as [].
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
