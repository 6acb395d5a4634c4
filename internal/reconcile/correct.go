package reconcile

import (
	log "github.com/sirupsen/logrus"

	"github.com/lcrespin/towerstats/internal/model"
)

// Correction is one rewritten TodayWins value.
type Correction struct {
	GroupID   string
	Player    string
	Timestamp model.Timestamp
	From, To  int
}

// Anomaly is a career total that went down between two sessions of the same
// group. The session is kept as recorded.
type Anomaly struct {
	GroupID       string
	Player        string
	Timestamp     model.Timestamp
	PreviousTotal int
	Total         int
}

// CorrectionReport lists what the correction pass did.
type CorrectionReport struct {
	Corrections []Correction
	Anomalies   []Anomaly
}

// Correct walks every group's sessions oldest first and sets each player's
// TodayWins to the difference between their total and the total recorded in
// the group's previous session. A negative difference is left alone and
// reported. The returned sessions are sorted oldest first; sessions that
// needed a fix are fresh copies, the input is never modified.
func Correct(sessions []model.Session) ([]model.Session, CorrectionReport) {
	out := append([]model.Session(nil), sessions...)
	SortAscending(out)

	var report CorrectionReport
	previous := make(map[string]map[string]int) // group -> player -> last total
	for i, s := range out {
		prev := previous[s.GroupID]
		if prev == nil {
			prev = make(map[string]int)
			previous[s.GroupID] = prev
		}
		for _, name := range s.PlayerNames() {
			p := s.Players[name]
			if last, seen := prev[name]; seen {
				expected := p.TotalWins - last
				switch {
				case expected < 0:
					report.Anomalies = append(report.Anomalies, Anomaly{
						GroupID:       s.GroupID,
						Player:        name,
						Timestamp:     s.Timestamp,
						PreviousTotal: last,
						Total:         p.TotalWins,
					})
				case expected != p.TodayWins:
					report.Corrections = append(report.Corrections, Correction{
						GroupID:   s.GroupID,
						Player:    name,
						Timestamp: s.Timestamp,
						From:      p.TodayWins,
						To:        expected,
					})
					s = s.WithTodayWins(name, expected)
				}
			}
			prev[name] = p.TotalWins
		}
		out[i] = s
	}
	return out, report
}

// Result is the reconciled session list of one run.
type Result struct {
	Sessions   []model.Session // newest first
	Dropped    []Dropped
	Correction CorrectionReport
}

// Run stitches, corrects and sorts newest first. Drops are logged at debug
// level and anomalies at warn level on logger.
func Run(sessions []model.Session, opts Options, logger log.FieldLogger) Result {
	kept, dropped := StitchMidnight(sessions, opts)
	for _, d := range dropped {
		logger.WithFields(log.Fields{
			"group":  d.Session.GroupID,
			"date":   d.Session.Timestamp,
			"reason": d.Reason,
		}).Debug("[stitch] dropped fragment")
	}

	corrected, report := Correct(kept)
	for _, a := range report.Anomalies {
		logger.WithFields(log.Fields{
			"group":    a.GroupID,
			"player":   a.Player,
			"date":     a.Timestamp,
			"previous": a.PreviousTotal,
			"total":    a.Total,
		}).Warn("[correct] total went down, left uncorrected")
	}
	SortDescending(corrected)

	return Result{Sessions: corrected, Dropped: dropped, Correction: report}
}
