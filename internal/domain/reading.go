package domain

import "time"

// SensorReading is one row of the readings table: a single sensor's
// measurements at a single instant.
type SensorReading struct {
	SensorID  string    `json:"sensor_id"`
	Timestamp time.Time `json:"timestamp"`
	Heat      float64   `json:"heat"`  // °F
	Noise     float64   `json:"noise"` // dB
}

// SensorMetadata is one row of the metadata table, mapping a sensor to the
// street address where it is installed.
type SensorMetadata struct {
	SensorID string `json:"sensor_id"`
	Address  string `json:"address"`
}

// AggregatedReading is one (sensor, window) group after aggregation:
// per-window means with the sensor's resolved location attached.
type AggregatedReading struct {
	SensorID       string    `json:"sensor_id"`
	BucketStart    time.Time `json:"bucket_start"`
	Heat           float64   `json:"heat"`
	Noise          float64   `json:"noise"`
	SensorLocation string    `json:"sensor_location,omitempty"`
}

// TimeRange is a closed interval of reading timestamps.
type TimeRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Contains reports whether t falls inside the range, inclusive on both ends.
// A zero t is never contained; readings without a usable timestamp cannot be
// placed in any range.
func (r TimeRange) Contains(t time.Time) bool {
	if t.IsZero() {
		return false
	}
	return !t.Before(r.Start) && !t.After(r.End)
}

// IsZero reports whether neither bound is set.
func (r TimeRange) IsZero() bool {
	return r.Start.IsZero() && r.End.IsZero()
}

// LocationIndex resolves sensor IDs to street addresses. Built once per
// metadata load and shared read-only across queries.
type LocationIndex map[string]string

// NewLocationIndex builds an index from metadata rows. When a sensor ID
// appears more than once, the first row wins.
func NewLocationIndex(rows []SensorMetadata) LocationIndex {
	ix := make(LocationIndex, len(rows))
	for _, row := range rows {
		if _, ok := ix[row.SensorID]; ok {
			continue
		}
		ix[row.SensorID] = row.Address
	}
	return ix
}

// Resolve returns the address for a sensor ID, or the "Sensor <id>" fallback
// label when the sensor has no metadata row. It never fails; a nil index
// resolves everything to the fallback.
func (ix LocationIndex) Resolve(sensorID string) string {
	if addr, ok := ix[sensorID]; ok {
		return addr
	}
	return FormatSensorID(sensorID)
}

// Advisory codes reported on query results.
const (
	AdvisoryRangeInverted = "range_inverted"
	AdvisoryBucketInvalid = "bucket_invalid"
	AdvisoryTimeInvalid   = "time_invalid"
)

// Advisory is a non-fatal notice attached to a result: the query was
// answered, but an input was adjusted or ignored along the way.
type Advisory struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// LoadStats accounts for how a table load went: rows kept, rows dropped by
// reason, and kept rows that needed a field defaulted.
type LoadStats struct {
	Rows     int
	Skipped  map[string]int
	Degraded map[string]int
}

// Skip records a dropped row.
func (s *LoadStats) Skip(reason string) {
	if s.Skipped == nil {
		s.Skipped = map[string]int{}
	}
	s.Skipped[reason]++
}

// Degrade records a kept row whose named field was defaulted.
func (s *LoadStats) Degrade(field string) {
	if s.Degraded == nil {
		s.Degraded = map[string]int{}
	}
	s.Degraded[field]++
}

// TotalSkipped returns the number of dropped rows across all reasons.
func (s LoadStats) TotalSkipped() int {
	n := 0
	for _, c := range s.Skipped {
		n += c
	}
	return n
}

// TotalDegraded returns the number of defaulted field values across kept rows.
func (s LoadStats) TotalDegraded() int {
	n := 0
	for _, c := range s.Degraded {
		n += c
	}
	return n
}

// Snapshot is an immutable view of both tables at a load instant. A snapshot
// is shared freely across concurrent queries and never mutated after
// publication; freshness is the store's concern, not the snapshot's.
type Snapshot struct {
	Readings  []SensorReading
	Metadata  []SensorMetadata
	Locations LocationIndex
	Coverage  TimeRange // min/max reading timestamps, zero-timestamp rows ignored
	LoadedAt  time.Time
}
