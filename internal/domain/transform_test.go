package domain

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var baseDay = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

// at returns a timestamp on the test day.
func at(hour, minute, sec int) time.Time {
	return time.Date(2024, 3, 1, hour, minute, sec, 0, time.UTC)
}

func reading(id string, t time.Time, heat, noise float64) SensorReading {
	return SensorReading{SensorID: id, Timestamp: t, Heat: heat, Noise: noise}
}

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected time.Time
		wantErr  bool
	}{
		{"ISO with Z", "2024-03-01T12:30:00Z", at(12, 30, 0), false},
		{"ISO with offset", "2024-03-01T12:30:00+02:00", at(10, 30, 0), false},
		{"space-separated seconds", "2024-03-01 12:30:00", at(12, 30, 0), false},
		{"space-separated minutes", "2024-03-01 12:30", at(12, 30, 0), false},
		{"date only", "2024-03-01", baseDay, false},
		{"surrounding whitespace", "  2024-03-01T12:30:00Z  ", at(12, 30, 0), false},
		{"empty", "", time.Time{}, true},
		{"garbage", "yesterday at noon", time.Time{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTimestamp(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.expected.Equal(got), "expected %s, got %s", tt.expected, got)
			assert.Equal(t, time.UTC, got.Location())
		})
	}
}

func TestRound2(t *testing.T) {
	tests := []struct {
		name     string
		input    float64
		expected float64
	}{
		{"exact midpoint rounds up", 12.125, 12.13},
		{"negative midpoint rounds away from zero", -12.125, -12.13},
		{"small midpoint", 0.125, 0.13},
		{"below midpoint rounds down", 0.37499, 0.37},
		{"repeating decimal", 2.0 / 3.0 * 100, 66.67},
		{"float noise collapses", 0.1 + 0.2, 0.3},
		{"already two decimals", 71.0, 71.0},
		{"zero", 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, Round2(tt.input), 1e-12)
		})
	}
}

func TestFilterBySensor(t *testing.T) {
	readings := []SensorReading{
		reading("101", at(0, 0, 0), 70, 40),
		reading("102", at(0, 5, 0), 68, 50),
		reading("101", at(0, 30, 0), 72, 42),
	}

	t.Run("exact match", func(t *testing.T) {
		got := FilterBySensor(readings, "101")
		require.Len(t, got, 2)
		assert.Equal(t, "101", got[0].SensorID)
		assert.Equal(t, "101", got[1].SensorID)
	})

	t.Run("empty id selects all", func(t *testing.T) {
		got := FilterBySensor(readings, "")
		assert.Len(t, got, len(readings))
	})

	t.Run("unknown sensor yields empty, not error", func(t *testing.T) {
		got := FilterBySensor(readings, "999")
		assert.Empty(t, got)
	})

	t.Run("no prefix matching", func(t *testing.T) {
		got := FilterBySensor(readings, "10")
		assert.Empty(t, got)
	})

	t.Run("result is a fresh slice", func(t *testing.T) {
		got := FilterBySensor(readings, "")
		got[0].Heat = -999
		assert.Equal(t, 70.0, readings[0].Heat)
	})
}

func TestNormalizeRange(t *testing.T) {
	t.Run("ordered range unchanged", func(t *testing.T) {
		in := TimeRange{Start: at(1, 0, 0), End: at(2, 0, 0)}
		got, adv := NormalizeRange(in)
		assert.Equal(t, in, got)
		assert.Nil(t, adv)
	})

	t.Run("inverted range swapped with advisory", func(t *testing.T) {
		in := TimeRange{Start: at(2, 0, 0), End: at(1, 0, 0)}
		got, adv := NormalizeRange(in)
		assert.Equal(t, TimeRange{Start: at(1, 0, 0), End: at(2, 0, 0)}, got)
		require.NotNil(t, adv)
		assert.Equal(t, AdvisoryRangeInverted, adv.Code)
		assert.Contains(t, adv.Message, "flip")
	})

	t.Run("equal bounds are valid", func(t *testing.T) {
		in := TimeRange{Start: at(1, 0, 0), End: at(1, 0, 0)}
		got, adv := NormalizeRange(in)
		assert.Equal(t, in, got)
		assert.Nil(t, adv)
	})
}

func TestFilterByRange(t *testing.T) {
	readings := []SensorReading{
		reading("101", at(0, 0, 0), 70, 40),
		reading("101", at(1, 0, 0), 71, 41),
		reading("101", at(2, 0, 0), 72, 42),
		reading("102", time.Time{}, 99, 99), // timestamp missing upstream
	}
	rng := TimeRange{Start: at(0, 0, 0), End: at(1, 0, 0)}

	t.Run("inclusive on both bounds", func(t *testing.T) {
		got := FilterByRange(readings, rng)
		require.Len(t, got, 2)
		assert.True(t, got[0].Timestamp.Equal(rng.Start))
		assert.True(t, got[1].Timestamp.Equal(rng.End))
	})

	t.Run("zero timestamps excluded", func(t *testing.T) {
		got := FilterByRange(readings, TimeRange{Start: time.Time{}, End: at(23, 0, 0)})
		for _, r := range got {
			assert.False(t, r.Timestamp.IsZero())
		}
	})

	t.Run("empty input", func(t *testing.T) {
		assert.Empty(t, FilterByRange(nil, rng))
	})
}

func TestAggregate_HourlyMeans(t *testing.T) {
	readings := []SensorReading{
		reading("s1", at(0, 0, 0), 70, 40),
		reading("s1", at(0, 30, 0), 72, 42),
	}

	got := Aggregate(readings, BucketHour)

	want := []AggregatedReading{
		{SensorID: "s1", BucketStart: at(0, 0, 0), Heat: 71.0, Noise: 41.0},
	}
	assert.Empty(t, cmp.Diff(want, got))
}

func TestAggregate_GroupsPerSensor(t *testing.T) {
	readings := []SensorReading{
		reading("101", at(0, 10, 0), 70, 40),
		reading("102", at(0, 20, 0), 60, 30),
		reading("101", at(0, 50, 0), 74, 44),
	}

	got := Aggregate(readings, BucketHour)

	want := []AggregatedReading{
		{SensorID: "101", BucketStart: at(0, 0, 0), Heat: 72.0, Noise: 42.0},
		{SensorID: "102", BucketStart: at(0, 0, 0), Heat: 60.0, Noise: 30.0},
	}
	assert.Empty(t, cmp.Diff(want, got))
}

func TestAggregate_BucketWidths(t *testing.T) {
	t.Run("minute buckets split within the hour", func(t *testing.T) {
		readings := []SensorReading{
			reading("s1", at(0, 0, 10), 70, 40),
			reading("s1", at(0, 0, 50), 72, 42),
			reading("s1", at(0, 1, 5), 80, 50),
		}
		got := Aggregate(readings, BucketMinute)
		want := []AggregatedReading{
			{SensorID: "s1", BucketStart: at(0, 0, 0), Heat: 71.0, Noise: 41.0},
			{SensorID: "s1", BucketStart: at(0, 1, 0), Heat: 80.0, Noise: 50.0},
		}
		assert.Empty(t, cmp.Diff(want, got))
	})

	t.Run("day buckets start at UTC midnight", func(t *testing.T) {
		readings := []SensorReading{
			reading("s1", at(9, 0, 0), 70, 40),
			reading("s1", at(23, 59, 59), 72, 42),
			reading("s1", baseDay.AddDate(0, 0, 1), 60, 30),
		}
		got := Aggregate(readings, BucketDay)
		want := []AggregatedReading{
			{SensorID: "s1", BucketStart: baseDay, Heat: 71.0, Noise: 41.0},
			{SensorID: "s1", BucketStart: baseDay.AddDate(0, 0, 1), Heat: 60.0, Noise: 30.0},
		}
		assert.Empty(t, cmp.Diff(want, got))
	})

	t.Run("reading on the hour boundary belongs to its own hour", func(t *testing.T) {
		readings := []SensorReading{
			reading("s1", at(0, 59, 59), 70, 40),
			reading("s1", at(1, 0, 0), 80, 50),
		}
		got := Aggregate(readings, BucketHour)
		require.Len(t, got, 2)
		assert.True(t, got[0].BucketStart.Equal(at(0, 0, 0)))
		assert.True(t, got[1].BucketStart.Equal(at(1, 0, 0)))
	})
}

func TestAggregate_Rounding(t *testing.T) {
	t.Run("repeating mean rounds to two decimals", func(t *testing.T) {
		readings := []SensorReading{
			reading("s1", at(0, 0, 0), 70, 40),
			reading("s1", at(0, 1, 0), 70, 40),
			reading("s1", at(0, 2, 0), 71, 41),
		}
		got := Aggregate(readings, BucketHour)
		require.Len(t, got, 1)
		assert.InDelta(t, 70.33, got[0].Heat, 1e-12)
		assert.InDelta(t, 40.33, got[0].Noise, 1e-12)
	})

	t.Run("midpoint rounds half away from zero", func(t *testing.T) {
		// 0.25 and 0 average to exactly 0.125 in binary.
		readings := []SensorReading{
			reading("s1", at(0, 0, 0), 0.25, -0.25),
			reading("s1", at(0, 1, 0), 0, 0),
		}
		got := Aggregate(readings, BucketHour)
		require.Len(t, got, 1)
		assert.InDelta(t, 0.13, got[0].Heat, 1e-12)
		assert.InDelta(t, -0.13, got[0].Noise, 1e-12)
	})
}

func TestAggregate_Edges(t *testing.T) {
	t.Run("empty input yields no rows", func(t *testing.T) {
		assert.Empty(t, Aggregate(nil, BucketHour))
	})

	t.Run("zero timestamps are ignored", func(t *testing.T) {
		readings := []SensorReading{
			reading("s1", time.Time{}, 70, 40),
			reading("s1", at(0, 0, 0), 72, 42),
		}
		got := Aggregate(readings, BucketHour)
		require.Len(t, got, 1)
		assert.Equal(t, 72.0, got[0].Heat)
	})

	t.Run("no rows for empty windows", func(t *testing.T) {
		// Readings two hours apart: the hour between them produces nothing.
		readings := []SensorReading{
			reading("s1", at(0, 0, 0), 70, 40),
			reading("s1", at(2, 0, 0), 72, 42),
		}
		got := Aggregate(readings, BucketHour)
		assert.Len(t, got, 2)
	})

	t.Run("offset timestamps align in UTC", func(t *testing.T) {
		local := time.FixedZone("UTC+2", 2*60*60)
		readings := []SensorReading{
			reading("s1", time.Date(2024, 3, 1, 12, 30, 0, 0, local), 70, 40),
		}
		got := Aggregate(readings, BucketHour)
		require.Len(t, got, 1)
		assert.True(t, got[0].BucketStart.Equal(at(10, 0, 0)))
	})
}

func TestJoinLocations(t *testing.T) {
	ix := NewLocationIndex([]SensorMetadata{
		{SensorID: "101", Address: "100 Main St"},
	})
	rows := []AggregatedReading{
		{SensorID: "101", BucketStart: at(0, 0, 0), Heat: 71, Noise: 41},
		{SensorID: "102", BucketStart: at(0, 0, 0), Heat: 60, Noise: 30},
	}

	got := JoinLocations(rows, ix)

	require.Len(t, got, len(rows), "join must never drop rows")
	assert.Equal(t, "100 Main St", got[0].SensorLocation)
	assert.Equal(t, "Sensor 102", got[1].SensorLocation)
	assert.Empty(t, rows[0].SensorLocation, "input rows must not be mutated")
}

func TestSortForDisplay(t *testing.T) {
	rows := []AggregatedReading{
		{SensorID: "102", BucketStart: at(1, 0, 0)},
		{SensorID: "101", BucketStart: at(2, 0, 0)},
		{SensorID: "101", BucketStart: at(1, 0, 0)},
	}

	got := SortForDisplay(rows)

	require.Len(t, got, 3)
	assert.True(t, got[0].BucketStart.Equal(at(2, 0, 0)))
	// Same window: sensor ID breaks the tie ascending.
	assert.Equal(t, "101", got[1].SensorID)
	assert.Equal(t, "102", got[2].SensorID)
	// Input order preserved.
	assert.Equal(t, "102", rows[0].SensorID)
}

func TestSortForTable(t *testing.T) {
	rows := []AggregatedReading{
		{SensorID: "102", BucketStart: at(1, 0, 0)},
		{SensorID: "101", BucketStart: at(1, 0, 0)},
		{SensorID: "101", BucketStart: at(2, 0, 0)},
	}

	got := SortForTable(rows)

	want := []AggregatedReading{
		{SensorID: "101", BucketStart: at(2, 0, 0)},
		{SensorID: "101", BucketStart: at(1, 0, 0)},
		{SensorID: "102", BucketStart: at(1, 0, 0)},
	}
	assert.Empty(t, cmp.Diff(want, got))
}

func TestAggregateJoinSortIdempotent(t *testing.T) {
	readings := []SensorReading{
		reading("101", at(0, 5, 0), 70, 40),
		reading("101", at(1, 10, 0), 72, 42),
		reading("102", at(0, 20, 0), 60, 30),
		reading("102", at(1, 40, 0), 64, 34),
	}
	ix := NewLocationIndex([]SensorMetadata{
		{SensorID: "101", Address: "100 Main St"},
	})

	first := SortForDisplay(JoinLocations(Aggregate(readings, BucketHour), ix))
	second := SortForDisplay(JoinLocations(Aggregate(readings, BucketHour), ix))

	// The same input always yields the same rows in the same order.
	assert.Empty(t, cmp.Diff(first, second))
	// Re-sorting sorted output changes nothing.
	assert.Empty(t, cmp.Diff(first, SortForDisplay(first)))
}

func TestReadingsCoverage(t *testing.T) {
	t.Run("min and max timestamps", func(t *testing.T) {
		readings := []SensorReading{
			reading("101", at(5, 0, 0), 0, 0),
			reading("102", at(1, 0, 0), 0, 0),
			reading("101", at(9, 0, 0), 0, 0),
			reading("103", time.Time{}, 0, 0),
		}
		got := ReadingsCoverage(readings)
		assert.True(t, got.Start.Equal(at(1, 0, 0)))
		assert.True(t, got.End.Equal(at(9, 0, 0)))
	})

	t.Run("no usable timestamps", func(t *testing.T) {
		got := ReadingsCoverage([]SensorReading{reading("101", time.Time{}, 0, 0)})
		assert.True(t, got.IsZero())
	})
}

func TestLocationIndex(t *testing.T) {
	t.Run("first metadata row wins on duplicates", func(t *testing.T) {
		ix := NewLocationIndex([]SensorMetadata{
			{SensorID: "101", Address: "100 Main St"},
			{SensorID: "101", Address: "200 Elm St"},
		})
		assert.Equal(t, "100 Main St", ix.Resolve("101"))
	})

	t.Run("fallback label for unknown sensors", func(t *testing.T) {
		ix := NewLocationIndex(nil)
		assert.Equal(t, "Sensor 999", ix.Resolve("999"))
	})

	t.Run("nil index resolves to fallback", func(t *testing.T) {
		var ix LocationIndex
		assert.Equal(t, "Sensor 101", ix.Resolve("101"))
	})
}
