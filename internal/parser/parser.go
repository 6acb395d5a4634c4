// Package parser turns raw feed rows into typed sessions: it detects the
// payload schema, normalizes both shapes to model.PlayerResult, and derives
// the group identity from the players actually present.
package parser

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	json "github.com/goccy/go-json"
	log "github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"

	"github.com/lcrespin/towerstats/internal/model"
)

// Row-level rejection reasons. None of them is fatal to a run.
var (
	ErrEmptyValue    = errors.New("empty value")
	ErrBadJSON       = errors.New("invalid JSON")
	ErrUnknownSchema = errors.New("unknown payload schema")
	ErrBadPayload    = errors.New("malformed payload")
	ErrNoPlayers     = errors.New("no valid players")
)

// Schema markers.
const (
	markerVersion  = "version"
	markerTodayWin = "todayWin"
	v1TodaySuffix  = "TodayWins"
	v1TotalSuffix  = "TotalWins"
)

// ColorTable maps a legacy seat color to a player name. An empty name marks
// a seat that never belonged to anyone.
type ColorTable map[string]string

// BuildReport counts what happened to each row.
type BuildReport struct {
	Rows    int
	Built   int
	Skipped map[string]int // reason -> rows
}

// SkippedTotal is the number of rows that did not become a session.
func (r BuildReport) SkippedTotal() int {
	n := 0
	for _, c := range r.Skipped {
		n += c
	}
	return n
}

// Builder builds sessions from raw rows.
type Builder struct {
	Colors ColorTable
	Log    log.FieldLogger
}

// NewBuilder returns a Builder logging to the standard logrus logger.
func NewBuilder(colors ColorTable) *Builder {
	return &Builder{Colors: colors, Log: log.StandardLogger()}
}

// Build parses every row, silently dropping the ones that cannot become a
// session. Output order follows input order.
func (b *Builder) Build(rows []model.RawRow) ([]model.Session, BuildReport) {
	report := BuildReport{Rows: len(rows), Skipped: make(map[string]int)}
	sessions := make([]model.Session, 0, len(rows))
	for i, row := range rows {
		s, err := b.ParseRow(row)
		if err != nil {
			reason := skipReason(err)
			report.Skipped[reason]++
			b.Log.WithFields(log.Fields{
				"row":    i + 2, // header is line 1
				"date":   row.Date,
				"reason": reason,
			}).Debugf("[skip] %v", err)
			continue
		}
		sessions = append(sessions, s)
	}
	report.Built = len(sessions)
	return sessions, report
}

func skipReason(err error) string {
	for _, e := range []error{ErrEmptyValue, ErrBadJSON, ErrUnknownSchema, ErrBadPayload, ErrNoPlayers} {
		if errors.Is(err, e) {
			return e.Error()
		}
	}
	return "other"
}

// DetectSchema inspects the schema markers of a JSON payload.
func DetectSchema(value string) model.Schema {
	if gjson.Get(value, markerVersion).String() == "v1" {
		return model.SchemaColorV1
	}
	if gjson.Get(value, markerTodayWin).IsObject() {
		return model.SchemaNamedV2
	}
	return model.SchemaUnknown
}

// ParseRow builds one session from one row.
func (b *Builder) ParseRow(row model.RawRow) (model.Session, error) {
	value := strings.TrimSpace(row.Value)
	if value == "" {
		return model.Session{}, ErrEmptyValue
	}
	if !gjson.Valid(value) {
		return model.Session{}, ErrBadJSON
	}
	if !gjson.Parse(value).IsObject() {
		return model.Session{}, fmt.Errorf("%w: payload is not an object", ErrUnknownSchema)
	}

	schema := DetectSchema(value)
	var (
		players map[string]model.PlayerResult
		err     error
	)
	switch schema {
	case model.SchemaColorV1:
		players, err = b.parseColorPayload(value)
	case model.SchemaNamedV2:
		players, err = parseNamedPayload(value)
	default:
		return model.Session{}, ErrUnknownSchema
	}
	if err != nil {
		return model.Session{}, err
	}

	names := make([]string, 0, len(players))
	for name := range players {
		names = append(names, name)
	}
	groupID := model.GroupID(names)
	if groupID == "" {
		return model.Session{}, ErrNoPlayers
	}

	return model.Session{
		SourceID:  row.ID,
		Timestamp: sessionTimestamp(row.Date, gjson.Get(value, "date").String()),
		GroupID:   groupID,
		Schema:    schema,
		Players:   players,
	}, nil
}

// sessionTimestamp prefers the payload's own date, which carries the hour on
// newer rows, and falls back to the row's date column.
func sessionTimestamp(rowDate, payloadDate string) model.Timestamp {
	if p := model.Timestamp(strings.TrimSpace(payloadDate)); p != "" {
		if _, _, _, ok := p.Parse(); ok {
			return p
		}
	}
	return model.Timestamp(rowDate)
}

// parseColorPayload reads the legacy shape: flat "<color>TodayWins" and
// "<color>TotalWins" keys for every seat. A seat only counts as present when
// it won at least once that session, since absent seats are still reported.
func (b *Builder) parseColorPayload(value string) (map[string]model.PlayerResult, error) {
	players := make(map[string]model.PlayerResult)
	root := gjson.Parse(value)

	var colors []string
	root.ForEach(func(key, _ gjson.Result) bool {
		if c, ok := strings.CutSuffix(key.String(), v1TodaySuffix); ok && c != "" {
			colors = append(colors, c)
		}
		return true
	})
	sort.Strings(colors)

	for _, color := range colors {
		player := b.Colors[color]
		if player == "" || model.IsIgnorablePlayer(player) {
			continue
		}
		today := int(root.Get(color + v1TodaySuffix).Int())
		total := int(root.Get(color + v1TotalSuffix).Int())
		if err := checkWins(player, today, total); err != nil {
			return nil, err
		}
		if today == 0 {
			continue
		}
		players[player] = model.PlayerResult{TodayWins: today, TotalWins: total}
	}
	return players, nil
}

// checkWins rejects negative win counters.
func checkWins(player string, today, total int) error {
	if today < 0 || total < 0 {
		return fmt.Errorf("%w: %s has negative wins (today %d, total %d)", ErrBadPayload, player, today, total)
	}
	return nil
}

type namedPayload struct {
	TodayWin map[string]float64        `json:"todayWin"`
	TotalWin map[string]float64        `json:"totalWin"`
	Today    map[string]json.RawMessage `json:"today"`
	Total    map[string]detailPayload  `json:"total"`
}

type detailPayload struct {
	Kill     float64            `json:"kill"`
	Death    float64            `json:"death"`
	Self     float64            `json:"self"`
	KillBy   map[string]float64 `json:"killBy"`
	KillFrom map[string]float64 `json:"killFrom"`
}

// parseNamedPayload reads the current shape: "todayWin"/"totalWin" maps keyed
// by player, plus the optional "today"/"total" detail objects.
func parseNamedPayload(value string) (map[string]model.PlayerResult, error) {
	var p namedPayload
	if err := json.Unmarshal([]byte(value), &p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadPayload, err)
	}
	detailed := p.Today != nil && p.Total != nil

	players := make(map[string]model.PlayerResult, len(p.TodayWin))
	for name, today := range p.TodayWin {
		if model.IsIgnorablePlayer(name) {
			continue
		}
		res := model.PlayerResult{
			TodayWins: int(today),
			TotalWins: int(p.TotalWin[name]),
		}
		if err := checkWins(name, res.TodayWins, res.TotalWins); err != nil {
			return nil, err
		}
		if detailed {
			total, hasTotal := p.Total[name]
			_, hasToday := p.Today[name]
			if hasTotal || hasToday {
				res.Detail = &model.Detail{
					Kills:       int(total.Kill),
					Deaths:      int(total.Death),
					SelfKills:   int(total.Self),
					KilledBy:    playerCounts(total.KillBy),
					KillSources: counts(total.KillFrom),
				}
			}
		}
		players[name] = res
	}
	return players, nil
}

func counts(in map[string]float64) map[string]int {
	out := make(map[string]int, len(in))
	for k, v := range in {
		out[k] = int(v)
	}
	return out
}

// playerCounts is counts with ignorable players left out.
func playerCounts(in map[string]float64) map[string]int {
	out := make(map[string]int, len(in))
	for k, v := range in {
		if !model.IsIgnorablePlayer(k) {
			out[k] = int(v)
		}
	}
	return out
}
