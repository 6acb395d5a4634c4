// Package reconcile cleans the built session list: it drops fragments of
// evenings split across midnight, then repairs per-session win counters that
// disagree with the career totals.
package reconcile

import (
	"sort"

	"github.com/lcrespin/towerstats/internal/model"
)

// DefaultMaxContinuationHour is the latest hour after midnight at which a
// session still counts as the continuation of the previous evening.
const DefaultMaxContinuationHour = 5

// Options tunes the stitching pass.
type Options struct {
	MaxContinuationHour int
	// LegacyDates lists calendar dates whose color-indexed sessions are known
	// bad fragments and always dropped.
	LegacyDates []string
}

// DefaultOptions returns the stitching options with no legacy denylist.
func DefaultOptions() Options {
	return Options{MaxContinuationHour: DefaultMaxContinuationHour}
}

// Drop reasons reported by StitchMidnight.
const (
	ReasonLegacyDate    = "legacy date"
	ReasonAfterMidnight = "continued after midnight"
	ReasonNextDay       = "continued next day"
)

// Dropped is a session removed by the stitching pass.
type Dropped struct {
	Session model.Session
	Reason  string
}

// SortDescending orders sessions newest first, in place. Equal timestamps
// keep their relative order.
func SortDescending(sessions []model.Session) {
	sort.SliceStable(sessions, func(i, j int) bool {
		return sessions[i].Timestamp.SortKey() > sessions[j].Timestamp.SortKey()
	})
}

// SortAscending orders sessions oldest first, in place.
func SortAscending(sessions []model.Session) {
	sort.SliceStable(sessions, func(i, j int) bool {
		return sessions[i].Timestamp.SortKey() < sessions[j].Timestamp.SortKey()
	})
}

// dayKey identifies one calendar date of one group.
type dayKey struct {
	group string
	date  string
}

// dayIndex records, per group and date, the earliest hour-qualified session
// and whether any parseable session exists.
type dayIndex struct {
	minHour map[dayKey]int
	any     map[dayKey]bool
}

func indexDays(sessions []model.Session) dayIndex {
	idx := dayIndex{minHour: make(map[dayKey]int), any: make(map[dayKey]bool)}
	for _, s := range sessions {
		d, h, hasHour, ok := s.Timestamp.Parse()
		if !ok {
			continue
		}
		k := dayKey{s.GroupID, d.Format(model.DateLayout)}
		idx.any[k] = true
		if !hasHour {
			continue
		}
		if cur, seen := idx.minHour[k]; !seen || h < cur {
			idx.minHour[k] = h
		}
	}
	return idx
}

// StitchMidnight removes the pre-midnight fragment of every evening that was
// logged again after midnight. Both results are sorted newest first. Payloads
// are never merged: the surviving session already carries the totals.
// Sessions with an unparseable timestamp are always kept.
func StitchMidnight(sessions []model.Session, opts Options) (kept []model.Session, dropped []Dropped) {
	sorted := append([]model.Session(nil), sessions...)
	SortDescending(sorted)

	legacy := make(map[string]bool, len(opts.LegacyDates))
	for _, d := range opts.LegacyDates {
		legacy[d] = true
	}
	idx := indexDays(sorted)

	kept = make([]model.Session, 0, len(sorted))
	for _, s := range sorted {
		if reason := dropReason(s, idx, legacy, opts.MaxContinuationHour); reason != "" {
			dropped = append(dropped, Dropped{Session: s, Reason: reason})
			continue
		}
		kept = append(kept, s)
	}
	return kept, dropped
}

func dropReason(s model.Session, idx dayIndex, legacy map[string]bool, maxHour int) string {
	if s.Schema == model.SchemaColorV1 && legacy[s.Timestamp.Date()] {
		return ReasonLegacyDate
	}
	d, _, hasHour, ok := s.Timestamp.Parse()
	if !ok {
		return ""
	}
	next := dayKey{s.GroupID, d.AddDate(0, 0, 1).Format(model.DateLayout)}
	if hasHour {
		if h, found := idx.minHour[next]; found && h <= maxHour {
			return ReasonAfterMidnight
		}
		return ""
	}
	// Date-only sessions have no hour to check, any session on the next day wins.
	if idx.any[next] {
		return ReasonNextDay
	}
	return ""
}
