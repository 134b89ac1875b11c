package domain

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/relvacode/iso8601"
)

// readingTimeLayouts are the space-separated export layouts accepted when a
// timestamp is not valid ISO 8601.
var readingTimeLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseTimestamp parses a reading timestamp, preferring ISO 8601 and falling
// back to the export layouts. The result is normalized to UTC.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, errors.New("empty timestamp")
	}

	if t, err := iso8601.ParseString(s); err == nil {
		return t.UTC(), nil
	}
	for _, layout := range readingTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}

	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

// Round2 rounds to two decimal places, half away from zero. All aggregated
// measurements and formatted values use this rule.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// FilterBySensor returns the readings whose SensorID matches id exactly.
// An empty id selects every reading. The result is always a fresh slice and
// the input is never mutated, so callers can filter the same snapshot
// concurrently.
func FilterBySensor(readings []SensorReading, id string) []SensorReading {
	out := make([]SensorReading, 0, len(readings))
	for _, r := range readings {
		if id != "" && r.SensorID != id {
			continue
		}
		out = append(out, r)
	}
	return out
}

// rangeInvertedMessage matches the wording shown to dashboard users.
const rangeInvertedMessage = "Start date should be before end date. We will flip the two for your convenience."

// NormalizeRange returns a range with Start <= End. Inverted bounds are
// swapped, never rejected, and reported with a range_inverted advisory.
// The advisory is nil when the input was already ordered; equal bounds are
// a valid single-instant range.
func NormalizeRange(r TimeRange) (TimeRange, *Advisory) {
	if !r.Start.After(r.End) {
		return r, nil
	}
	r.Start, r.End = r.End, r.Start
	return r, &Advisory{Code: AdvisoryRangeInverted, Message: rangeInvertedMessage}
}

// FilterByRange returns the readings whose timestamps fall inside r,
// inclusive on both ends. Readings with a zero timestamp are excluded.
func FilterByRange(readings []SensorReading, r TimeRange) []SensorReading {
	out := make([]SensorReading, 0, len(readings))
	for _, rd := range readings {
		if !r.Contains(rd.Timestamp) {
			continue
		}
		out = append(out, rd)
	}
	return out
}

// Aggregate groups readings by (sensor, aligned window) and returns one row
// per group holding the mean Heat and Noise, rounded with [Round2]. Windows
// with no readings produce no row, and readings with a zero timestamp are
// ignored. Output is ordered by sensor ID, then window start.
func Aggregate(readings []SensorReading, b Bucket) []AggregatedReading {
	type groupKey struct {
		sensorID string
		bucket   time.Time
	}
	type groupAcc struct {
		heat  float64
		noise float64
		count int
	}

	groups := make(map[groupKey]*groupAcc)
	for _, r := range readings {
		if r.Timestamp.IsZero() {
			continue
		}
		k := groupKey{sensorID: r.SensorID, bucket: b.Align(r.Timestamp)}
		g, ok := groups[k]
		if !ok {
			g = &groupAcc{}
			groups[k] = g
		}
		g.heat += r.Heat
		g.noise += r.Noise
		g.count++
	}

	out := make([]AggregatedReading, 0, len(groups))
	for k, g := range groups {
		out = append(out, AggregatedReading{
			SensorID:    k.sensorID,
			BucketStart: k.bucket,
			Heat:        Round2(g.heat / float64(g.count)),
			Noise:       Round2(g.noise / float64(g.count)),
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].SensorID != out[j].SensorID {
			return out[i].SensorID < out[j].SensorID
		}
		return out[i].BucketStart.Before(out[j].BucketStart)
	})
	return out
}

// JoinLocations resolves each row's SensorLocation through the index.
// Every input row appears in the output exactly once; sensors without a
// metadata row get the "Sensor <id>" fallback label.
func JoinLocations(rows []AggregatedReading, ix LocationIndex) []AggregatedReading {
	out := make([]AggregatedReading, len(rows))
	for i, row := range rows {
		row.SensorLocation = ix.Resolve(row.SensorID)
		out[i] = row
	}
	return out
}

// SortForDisplay returns rows in canonical result order: newest window
// first, ties on the same window broken by sensor ID ascending.
func SortForDisplay(rows []AggregatedReading) []AggregatedReading {
	out := append([]AggregatedReading(nil), rows...)
	sort.Slice(out, func(i, j int) bool {
		if !out[i].BucketStart.Equal(out[j].BucketStart) {
			return out[i].BucketStart.After(out[j].BucketStart)
		}
		return out[i].SensorID < out[j].SensorID
	})
	return out
}

// SortForTable returns rows in table order: sensor ID ascending, newest
// window first within each sensor.
func SortForTable(rows []AggregatedReading) []AggregatedReading {
	out := append([]AggregatedReading(nil), rows...)
	sort.Slice(out, func(i, j int) bool {
		if out[i].SensorID != out[j].SensorID {
			return out[i].SensorID < out[j].SensorID
		}
		return out[i].BucketStart.After(out[j].BucketStart)
	})
	return out
}

// ReadingsCoverage returns the min/max timestamps across readings, ignoring
// zero timestamps. The zero range means no reading carried a usable
// timestamp.
func ReadingsCoverage(readings []SensorReading) TimeRange {
	var r TimeRange
	for _, rd := range readings {
		t := rd.Timestamp
		if t.IsZero() {
			continue
		}
		if r.Start.IsZero() || t.Before(r.Start) {
			r.Start = t
		}
		if r.End.IsZero() || t.After(r.End) {
			r.End = t
		}
	}
	return r
}
