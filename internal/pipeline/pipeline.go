// Package pipeline answers dashboard queries over table snapshots.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jcruz-ferreyra/BARI-streamlit-csv/internal/domain"
	"github.com/jcruz-ferreyra/BARI-streamlit-csv/internal/observability"
	"github.com/jonboulle/clockwork"
)

// SnapshotProvider hands out the current table snapshot.
type SnapshotProvider interface {
	Snapshot(ctx context.Context) (*domain.Snapshot, error)
}

// Pipeline runs the filter-aggregate-join-sort sequence for one request and
// assembles the chart and table views from the result.
type Pipeline struct {
	store         SnapshotProvider
	defaultBucket domain.Bucket
	clock         clockwork.Clock
	logger        *slog.Logger
	metrics       *observability.Metrics
}

// New creates a Pipeline with the given snapshot source and observability.
// An unset defaultBucket falls back to the hourly window.
func New(store SnapshotProvider, defaultBucket domain.Bucket, clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	if defaultBucket == domain.BucketUnset {
		defaultBucket = domain.BucketHour
	}
	return &Pipeline{
		store:         store,
		defaultBucket: defaultBucket,
		clock:         clock,
		logger:        logger,
		metrics:       metrics,
	}
}

// Run answers one dashboard query. Both filters always run before
// aggregation. Unknown sensors, inverted ranges, and empty selections all
// produce a well-formed (possibly empty) result; the only error is failing
// to obtain a snapshot.
func (p *Pipeline) Run(ctx context.Context, req domain.Request) (*domain.Result, error) {
	started := time.Now()

	snap, err := p.store.Snapshot(ctx)
	if err != nil {
		p.metrics.QueriesTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("obtain snapshot: %w", err)
	}

	bucket := req.Bucket
	if bucket == domain.BucketUnset {
		bucket = p.defaultBucket
	}

	rng := domain.TimeRange{Start: req.Start, End: req.End}
	if rng.Start.IsZero() {
		rng.Start = snap.Coverage.Start
	}
	if rng.End.IsZero() {
		rng.End = snap.Coverage.End
	}

	var advisories []domain.Advisory
	if !rng.Start.IsZero() && !rng.End.IsZero() {
		var adv *domain.Advisory
		rng, adv = domain.NormalizeRange(rng)
		if adv != nil {
			advisories = append(advisories, *adv)
		}
	}

	rows := domain.FilterBySensor(snap.Readings, req.Sensor)
	rows = domain.FilterByRange(rows, rng)

	joined := domain.JoinLocations(domain.Aggregate(rows, bucket), snap.Locations)

	result := &domain.Result{
		Heading:     domain.Heading(req.Sensor, snap.Locations),
		Bucket:      bucket.Code(),
		Range:       rng,
		Advisories:  advisories,
		Rows:        domain.SortForDisplay(joined),
		Charts:      domain.ChartViews(joined, bucket),
		Table:       domain.TableRows(joined, bucket),
		GeneratedAt: p.clock.Now(),
	}

	p.observe(req, result, started)
	return result, nil
}

// Sensors lists the known sensor metadata rows, for selection UIs.
func (p *Pipeline) Sensors(ctx context.Context) ([]domain.SensorMetadata, error) {
	snap, err := p.store.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("obtain snapshot: %w", err)
	}
	return snap.Metadata, nil
}

func (p *Pipeline) observe(req domain.Request, result *domain.Result, started time.Time) {
	p.metrics.QueriesTotal.WithLabelValues("success").Inc()
	p.metrics.QueryDuration.Observe(time.Since(started).Seconds())
	p.metrics.RowsReturned.Observe(float64(len(result.Rows)))
	for _, adv := range result.Advisories {
		p.metrics.AdvisoriesTotal.WithLabelValues(adv.Code).Inc()
	}

	p.logger.Debug("query answered",
		"sensor", req.Sensor,
		"bucket", result.Bucket,
		"rows", len(result.Rows),
		"advisories", len(result.Advisories),
	)
}
