package model

// ---- Aggregated tables ----

// RankEntry is one line of a group leaderboard: a player's best career total.
type RankEntry struct {
	Player    string `json:"player"`
	BestTotal int    `json:"best_total"`
}

// WinRate is a player's share of the games played while they were present.
type WinRate struct {
	Player    string  `json:"player"`
	Victories int     `json:"victories"`
	Games     int     `json:"games"`
	Percent   float64 `json:"percent"`
}

// EloRating is a player's final rating after every session.
type EloRating struct {
	Player string  `json:"player"`
	Rating float64 `json:"rating"`
}

// KillStat holds the highest kill counters observed for a player.
type KillStat struct {
	Player    string `json:"player"`
	Kills     int    `json:"kills"`
	Deaths    int    `json:"deaths"`
	SelfKills int    `json:"self_kills"`
}

func (k *KillStat) KDRatio() float64 {
	if k.Deaths == 0 {
		return float64(k.Kills)
	}
	return float64(k.Kills) / float64(k.Deaths)
}

// KillMatrix maps killer -> victim -> highest observed kill count.
type KillMatrix map[string]map[string]int

// Get returns how many times killer killed victim, 0 when unknown.
func (m KillMatrix) Get(killer, victim string) int {
	return m[killer][victim]
}

// Evening groups the sessions recorded on one calendar date.
type Evening struct {
	Date     string    `json:"date"`
	Sessions []Session `json:"sessions"`
}

// TrendPoint is one session in a player's history.
type TrendPoint struct {
	Timestamp Timestamp `json:"timestamp"`
	GroupID   string    `json:"group_id"`
	TodayWins int       `json:"today_wins"`
	TotalWins int       `json:"total_wins"`
	Games     int       `json:"games"`
}

// Summary holds the headline numbers of a dataset.
type Summary struct {
	TotalSessions  int      `json:"total_sessions"`
	UniquePlayers  int      `json:"unique_players"`
	UniqueGroups   int      `json:"unique_groups"`
	EarliestDate   string   `json:"earliest_date"` // "" when there are no sessions
	LatestDate     string   `json:"latest_date"`
	BestPlayers    []string `json:"best_players"`
	BestScore      int      `json:"best_score"`
	BestPctPlayers []string `json:"best_pct_players"`
	BestPct        float64  `json:"best_pct"`
	BestEloPlayers []string `json:"best_elo_players"`
	BestElo        float64  `json:"best_elo"`
	LatestEvening  *Evening `json:"latest_evening,omitempty"`
}
