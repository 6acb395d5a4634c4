package aggregator

import (
	"math"
	"sort"

	"github.com/lcrespin/towerstats/internal/model"
)

// EloParams configures the rating.
type EloParams struct {
	Initial float64
	K       float64
}

// DefaultElo is 1500 with a K-factor of 32.
func DefaultElo() EloParams {
	return EloParams{Initial: 1500, K: 32}
}

// expectedScore is the probability that a player rated ra beats one rated rb.
func expectedScore(ra, rb float64) float64 {
	return 1 / (1 + math.Pow(10, (rb-ra)/400))
}

// actualScore compares two competition ranks; lower is better.
func actualScore(rankA, rankB int) float64 {
	switch {
	case rankA < rankB:
		return 1
	case rankA == rankB:
		return 0.5
	}
	return 0
}

// pairDelta is the rating change of A (and the opposite change of B) for one
// pairing.
func pairDelta(ra, rb float64, rankA, rankB int, k float64) float64 {
	return k * (actualScore(rankA, rankB) - expectedScore(ra, rb))
}

// sessionRanks ranks players by TodayWins, highest first. Tied players share
// the same rank and the next rank skips accordingly (1, 1, 3).
func sessionRanks(s *model.Session, names []string) map[string]int {
	ranks := make(map[string]int, len(names))
	for _, a := range names {
		r := 1
		for _, b := range names {
			if s.Players[b].TodayWins > s.Players[a].TodayWins {
				r++
			}
		}
		ranks[a] = r
	}
	return ranks
}

// Elo rates every player by replaying sessions oldest first. Each session
// with at least two players counts as a round robin: every pair is scored
// by comparing the two players' ranks. All pairs of a session read the
// ratings as they stood before it, and the changes are applied together.
func Elo(sessions []model.Session, p EloParams) []model.EloRating {
	ordered := make([]*model.Session, len(sessions))
	for i := range sessions {
		ordered[i] = &sessions[i]
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Timestamp.SortKey() < ordered[j].Timestamp.SortKey()
	})

	ratings := make(map[string]float64)
	for _, s := range ordered {
		names := validPlayers(s)
		if len(names) < 2 {
			continue
		}
		for _, name := range names {
			if _, ok := ratings[name]; !ok {
				ratings[name] = p.Initial
			}
		}

		ranks := sessionRanks(s, names)
		delta := make(map[string]float64, len(names))
		for i := 0; i < len(names); i++ {
			for j := i + 1; j < len(names); j++ {
				a, b := names[i], names[j]
				d := pairDelta(ratings[a], ratings[b], ranks[a], ranks[b], p.K)
				delta[a] += d
				delta[b] -= d
			}
		}
		for name, d := range delta {
			ratings[name] += d
		}
	}

	out := make([]model.EloRating, 0, len(ratings))
	for name, r := range ratings {
		out = append(out, model.EloRating{Player: name, Rating: r})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Rating != out[j].Rating {
			return out[i].Rating > out[j].Rating
		}
		return out[i].Player < out[j].Player
	})
	return out
}
