// Package pipeline runs one fetch-build-reconcile cycle and hands the result
// to the presentation layers. Nothing is kept between runs.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/lcrespin/towerstats/internal/aggregator"
	"github.com/lcrespin/towerstats/internal/config"
	"github.com/lcrespin/towerstats/internal/feed"
	"github.com/lcrespin/towerstats/internal/model"
	"github.com/lcrespin/towerstats/internal/parser"
	"github.com/lcrespin/towerstats/internal/reconcile"
)

// Report describes what one run did to the raw feed.
type Report struct {
	Build      parser.BuildReport
	Dropped    []reconcile.Dropped
	Correction reconcile.CorrectionReport
	Sessions   int
	Elapsed    time.Duration
}

// Dataset is the reconciled session list of one run, newest first.
type Dataset struct {
	RunID        string
	LoadedAt     time.Time
	Raw          []model.RawRow
	Sessions     []model.Session
	Report       Report
	Elo          aggregator.EloParams
	PlayerColors map[string]string
}

// Load fetches the feed from src and reconciles it according to cfg. A fetch
// failure aborts the run; malformed rows do not.
func Load(ctx context.Context, src feed.Source, cfg *config.Config) (*Dataset, error) {
	start := time.Now()
	runID := uuid.NewString()
	logger := log.WithField("run", runID)

	rows, err := src.Rows(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch feed: %w", err)
	}
	logger.WithField("rows", len(rows)).Info("feed fetched")

	builder := parser.NewBuilder(cfg.ColorTable())
	builder.Log = logger
	built, buildReport := builder.Build(rows)

	res := reconcile.Run(built, reconcile.Options{
		MaxContinuationHour: cfg.Stitching.MaxContinuationHour,
		LegacyDates:         cfg.Stitching.LegacyDatesToIgnore,
	}, logger)

	ds := &Dataset{
		RunID:    runID,
		LoadedAt: start,
		Raw:      rows,
		Sessions: res.Sessions,
		Report: Report{
			Build:      buildReport,
			Dropped:    res.Dropped,
			Correction: res.Correction,
			Sessions:   len(res.Sessions),
			Elapsed:    time.Since(start),
		},
		Elo:          aggregator.EloParams{Initial: cfg.Elo.Initial, K: cfg.Elo.KFactor},
		PlayerColors: cfg.PlayerColors(),
	}
	logger.WithFields(log.Fields{
		"sessions":    ds.Report.Sessions,
		"skipped":     buildReport.SkippedTotal(),
		"stitched":    len(res.Dropped),
		"corrections": len(res.Correction.Corrections),
		"anomalies":   len(res.Correction.Anomalies),
	}).Info("sessions reconciled")
	return ds, nil
}

// Loader produces a fresh dataset on every call.
type Loader func(ctx context.Context) (*Dataset, error)

// NewLoader binds src and cfg into a Loader.
func NewLoader(src feed.Source, cfg *config.Config) Loader {
	return func(ctx context.Context) (*Dataset, error) {
		return Load(ctx, src, cfg)
	}
}
