// Package model holds the session records produced by the ingestion pipeline
// and the tables derived from them.
package model

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Schema identifies which payload shape a session was recorded with.
type Schema int

const (
	SchemaUnknown Schema = 0
	SchemaColorV1 Schema = 1 // legacy, keyed by seat color
	SchemaNamedV2 Schema = 2 // keyed by player name
)

// MarshalText encodes the schema as "v1" or "v2".
func (s Schema) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText is the inverse of MarshalText.
func (s *Schema) UnmarshalText(b []byte) error {
	switch string(b) {
	case "v1":
		*s = SchemaColorV1
	case "v2":
		*s = SchemaNamedV2
	default:
		*s = SchemaUnknown
	}
	return nil
}

func (s Schema) String() string {
	switch s {
	case SchemaColorV1:
		return "v1"
	case SchemaNamedV2:
		return "v2"
	default:
		return "?"
	}
}

// RawRow is one row of the upstream feed. ID is advisory only.
type RawRow struct {
	ID    string
	Date  string
	Value string
}

// ---- Timestamps ----

// DateLayout is the calendar-date part shared by both timestamp shapes.
const DateLayout = "2006-01-02"

// Timestamp is a session timestamp as found in the feed: either
// "YYYY-MM-DD" or "YYYY-MM-DD-HH".
type Timestamp string

// Parse returns the calendar date and, for hour-qualified timestamps, the hour.
// ok is false when the timestamp matches neither shape.
func (t Timestamp) Parse() (date time.Time, hour int, hasHour, ok bool) {
	s := string(t)
	if len(s) < len(DateLayout) {
		return time.Time{}, 0, false, false
	}
	d, err := time.Parse(DateLayout, s[:len(DateLayout)])
	if err != nil {
		return time.Time{}, 0, false, false
	}
	rest := s[len(DateLayout):]
	if rest == "" {
		return d, 0, false, true
	}
	if rest[0] != '-' {
		return time.Time{}, 0, false, false
	}
	h, err := strconv.Atoi(rest[1:])
	if err != nil || h < 0 || h > 23 {
		return time.Time{}, 0, false, false
	}
	return d, h, true, true
}

// Date returns the "YYYY-MM-DD" prefix, or the whole string when shorter.
func (t Timestamp) Date() string {
	if len(t) >= len(DateLayout) {
		return string(t[:len(DateLayout)])
	}
	return string(t)
}

// SortKey orders timestamps chronologically. Parsed timestamps are
// normalized to a zero-padded hour so "2025-01-10-9" sorts before
// "2025-01-10-10"; unparseable ones fall back to their raw text.
func (t Timestamp) SortKey() string {
	d, h, hasHour, ok := t.Parse()
	if !ok {
		return string(t)
	}
	if !hasHour {
		return d.Format(DateLayout)
	}
	return fmt.Sprintf("%s-%02d", d.Format(DateLayout), h)
}

// ---- Sessions ----

// Detail carries the richer per-player payload. Counters are career totals
// as of the session, not per-session deltas.
type Detail struct {
	Kills       int            `json:"kills"`
	Deaths      int            `json:"deaths"`
	SelfKills   int            `json:"self_kills"`
	KilledBy    map[string]int `json:"killed_by"`    // killer name -> times this player was killed by them
	KillSources map[string]int `json:"kill_sources"` // weapon/source -> times this player was killed by it
}

// PlayerResult is one player's line in a session.
type PlayerResult struct {
	TodayWins int     `json:"today_wins"`
	TotalWins int     `json:"total_wins"`
	Detail    *Detail `json:"detail,omitempty"` // nil unless the session carries the detailed schema
}

// Session is one recorded bout of play among a fixed set of players.
type Session struct {
	SourceID  string                  `json:"source_id"` // feed id, diagnostics only
	Timestamp Timestamp               `json:"timestamp"`
	GroupID   string                  `json:"group_id"`
	Schema    Schema                  `json:"schema"`
	Players   map[string]PlayerResult `json:"players"`
}

// PlayerNames returns the session's player names sorted alphabetically.
func (s *Session) PlayerNames() []string {
	names := make([]string, 0, len(s.Players))
	for name := range s.Players {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GamesPlayed is the number of games decided in the session: the sum of
// every player's wins.
func (s *Session) GamesPlayed() int {
	n := 0
	for _, p := range s.Players {
		n += p.TodayWins
	}
	return n
}

// HasDetail reports whether any player carries detailed kill stats.
func (s *Session) HasDetail() bool {
	for _, p := range s.Players {
		if p.Detail != nil {
			return true
		}
	}
	return false
}

// WithTodayWins returns a copy of s whose player map is fresh, with player's
// TodayWins replaced. The receiver is left untouched.
func (s Session) WithTodayWins(player string, today int) Session {
	players := make(map[string]PlayerResult, len(s.Players))
	for name, p := range s.Players {
		players[name] = p
	}
	p := players[player]
	p.TodayWins = today
	players[player] = p
	s.Players = players
	return s
}

// ---- Identity ----

var seatPattern = regexp.MustCompile(`^P[0-9]{1,2}$`)

// IsIgnorablePlayer reports whether name is a bot or placeholder seat
// (AIJIMMY variants, P1..P10 and the like). Empty names are ignorable too.
func IsIgnorablePlayer(name string) bool {
	n := strings.ToUpper(strings.ReplaceAll(name, " ", ""))
	if n == "" {
		return true
	}
	return strings.Contains(n, "AIJIMMY") || seatPattern.MatchString(n)
}

// GroupID derives the canonical group key for a set of player names:
// ignorable players dropped, the rest sorted and joined with "-".
// It returns "" when no valid player remains.
func GroupID(names []string) string {
	valid := make([]string, 0, len(names))
	for _, n := range names {
		if !IsIgnorablePlayer(n) {
			valid = append(valid, n)
		}
	}
	sort.Strings(valid)
	return strings.Join(valid, "-")
}
