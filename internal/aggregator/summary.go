package aggregator

import (
	"math"
	"sort"

	"github.com/lcrespin/towerstats/internal/model"
)

const floatTolerance = 1e-9

// SessionsByDate groups sessions by calendar date, newest date first. Within
// a date, sessions keep their input order.
func SessionsByDate(sessions []model.Session) []model.Evening {
	byDate := make(map[string][]model.Session)
	for _, s := range sessions {
		d := s.Timestamp.Date()
		byDate[d] = append(byDate[d], s)
	}
	out := make([]model.Evening, 0, len(byDate))
	for d, ss := range byDate {
		out = append(out, model.Evening{Date: d, Sessions: ss})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date > out[j].Date })
	return out
}

// PlayerTrend returns player's sessions oldest first.
func PlayerTrend(sessions []model.Session, player string) []model.TrendPoint {
	var out []model.TrendPoint
	for i := range sessions {
		s := &sessions[i]
		p, ok := s.Players[player]
		if !ok || model.IsIgnorablePlayer(player) {
			continue
		}
		out = append(out, model.TrendPoint{
			Timestamp: s.Timestamp,
			GroupID:   s.GroupID,
			TodayWins: p.TodayWins,
			TotalWins: p.TotalWins,
			Games:     s.GamesPlayed(),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.SortKey() < out[j].Timestamp.SortKey()
	})
	return out
}

// Summary computes the headline numbers of the dataset.
func Summary(sessions []model.Session, p EloParams) model.Summary {
	sum := model.Summary{
		TotalSessions: len(sessions),
		UniquePlayers: len(Players(sessions)),
		UniqueGroups:  len(Groups(sessions)),
	}

	for _, s := range sessions {
		d, _, _, ok := s.Timestamp.Parse()
		if !ok {
			continue
		}
		date := d.Format(model.DateLayout)
		if sum.EarliestDate == "" || date < sum.EarliestDate {
			sum.EarliestDate = date
		}
		if date > sum.LatestDate {
			sum.LatestDate = date
		}
	}

	if ranking := Ranking(sessions, ""); len(ranking) > 0 {
		sum.BestScore = ranking[0].BestTotal
		for _, r := range ranking {
			if r.BestTotal == sum.BestScore {
				sum.BestPlayers = append(sum.BestPlayers, r.Player)
			}
		}
	}

	if rates := WinPercentage(sessions); len(rates) > 0 {
		sum.BestPct = rates[0].Percent
		for _, r := range rates {
			if math.Abs(r.Percent-sum.BestPct) < floatTolerance {
				sum.BestPctPlayers = append(sum.BestPctPlayers, r.Player)
			}
		}
	}

	if elo := Elo(sessions, p); len(elo) > 0 {
		sum.BestElo = elo[0].Rating
		for _, r := range elo {
			if math.Abs(r.Rating-sum.BestElo) < floatTolerance {
				sum.BestEloPlayers = append(sum.BestEloPlayers, r.Player)
			}
		}
	}

	for _, e := range SessionsByDate(sessions) {
		if e.Date == sum.LatestDate {
			latest := e
			sum.LatestEvening = &latest
			break
		}
	}
	return sum
}
