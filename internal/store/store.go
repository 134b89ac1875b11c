// Package store serves immutable snapshots of the readings and metadata
// tables to the query pipeline.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jcruz-ferreyra/BARI-streamlit-csv/internal/domain"
	"github.com/jcruz-ferreyra/BARI-streamlit-csv/internal/observability"
	"github.com/jonboulle/clockwork"
)

// ReadingsLoader loads the full readings table.
type ReadingsLoader interface {
	Load(ctx context.Context) ([]domain.SensorReading, domain.LoadStats, error)
}

// MetadataLoader loads the full metadata table.
type MetadataLoader interface {
	Load(ctx context.Context) ([]domain.SensorMetadata, domain.LoadStats, error)
}

// Store caches table snapshots. Readings expire after a TTL and reload
// lazily on the next access; metadata loads once and never expires. A failed
// readings refresh keeps serving the previous snapshot; only the very first
// load has nothing to fall back to and returns the error.
type Store struct {
	readings ReadingsLoader
	metadata MetadataLoader
	ttl      time.Duration
	clock    clockwork.Clock
	logger   *slog.Logger
	metrics  *observability.Metrics

	mu         sync.Mutex
	current    *domain.Snapshot
	metaRows   []domain.SensorMetadata
	metaIndex  domain.LocationIndex
	metaLoaded bool
}

// New creates a Store around the two table loaders.
func New(readings ReadingsLoader, metadata MetadataLoader, ttl time.Duration, clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics) *Store {
	return &Store{
		readings: readings,
		metadata: metadata,
		ttl:      ttl,
		clock:    clock,
		logger:   logger,
		metrics:  metrics,
	}
}

// Snapshot returns the current snapshot, refreshing it first when the TTL
// has lapsed. The returned snapshot is shared across callers and must be
// treated as read-only.
func (s *Store) Snapshot(ctx context.Context) (*domain.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current != nil && s.clock.Since(s.current.LoadedAt) < s.ttl {
		return s.current, nil
	}
	return s.refreshLocked(ctx)
}

// CheckReadiness reports nil once a readings snapshot has been loaded.
func (s *Store) CheckReadiness(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return errors.New("readings snapshot not loaded yet")
	}
	return nil
}

func (s *Store) refreshLocked(ctx context.Context) (*domain.Snapshot, error) {
	s.loadMetadataLocked(ctx)

	readings, stats, err := s.readings.Load(ctx)
	if err != nil {
		s.metrics.SnapshotRefreshes.WithLabelValues("readings", "error").Inc()
		if s.current != nil {
			s.logger.Warn("readings refresh failed, serving previous snapshot",
				"error", err, "loaded_at", s.current.LoadedAt)
			return s.current, nil
		}
		return nil, fmt.Errorf("initial readings load: %w", err)
	}

	s.meterLoad("readings", stats)
	s.metrics.SnapshotRefreshes.WithLabelValues("readings", "success").Inc()
	s.metrics.SnapshotRows.WithLabelValues("readings").Set(float64(stats.Rows))
	s.metrics.StoreReady.Set(1)

	snap := &domain.Snapshot{
		Readings:  readings,
		Metadata:  s.metaRows,
		Locations: s.metaIndex,
		Coverage:  domain.ReadingsCoverage(readings),
		LoadedAt:  s.clock.Now(),
	}
	s.current = snap
	s.metrics.SnapshotLoadedAt.WithLabelValues("readings").Set(float64(snap.LoadedAt.Unix()))

	s.logger.Info("snapshot refreshed",
		"readings", len(readings),
		"sensors", len(s.metaIndex),
		"coverage_start", snap.Coverage.Start,
		"coverage_end", snap.Coverage.End,
	)
	return snap, nil
}

// loadMetadataLocked loads the metadata table on the first refresh that
// manages it. On failure the index degrades to empty, so every sensor
// resolves to its fallback label, and the load is retried on the next
// refresh.
func (s *Store) loadMetadataLocked(ctx context.Context) {
	if s.metaLoaded {
		return
	}

	rows, stats, err := s.metadata.Load(ctx)
	if err != nil {
		s.metrics.SnapshotRefreshes.WithLabelValues("metadata", "error").Inc()
		s.logger.Warn("metadata load failed, locations degrade to fallback labels", "error", err)
		s.metaRows = nil
		s.metaIndex = domain.LocationIndex{}
		return
	}

	s.meterLoad("metadata", stats)
	s.metrics.SnapshotRefreshes.WithLabelValues("metadata", "success").Inc()
	s.metrics.SnapshotRows.WithLabelValues("metadata").Set(float64(stats.Rows))
	s.metrics.SnapshotLoadedAt.WithLabelValues("metadata").Set(float64(s.clock.Now().Unix()))
	s.metaRows = rows
	s.metaIndex = domain.NewLocationIndex(rows)
	s.metaLoaded = true
}

func (s *Store) meterLoad(table string, stats domain.LoadStats) {
	for reason, n := range stats.Skipped {
		s.metrics.RowsSkipped.WithLabelValues(table, reason).Add(float64(n))
	}
	for field, n := range stats.Degraded {
		s.metrics.RowsDegraded.WithLabelValues(table, field).Add(float64(n))
	}
}
