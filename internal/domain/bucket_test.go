package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBucket(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected Bucket
		wantErr  bool
	}{
		{"minute code", "1min", BucketMinute, false},
		{"hour code", "1h", BucketHour, false},
		{"day code", "1day", BucketDay, false},
		{"minute alias", "minute", BucketMinute, false},
		{"hour alias", "hour", BucketHour, false},
		{"day alias", "day", BucketDay, false},
		{"case insensitive", "1H", BucketHour, false},
		{"surrounding whitespace", " 1day ", BucketDay, false},
		{"empty means unset", "", BucketUnset, false},
		{"unknown code", "15min", BucketUnset, true},
		{"garbage", "fortnight", BucketUnset, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseBucket(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestBucketCodeAndLabel(t *testing.T) {
	tests := []struct {
		bucket Bucket
		code   string
		label  string
	}{
		{BucketMinute, "1min", "1 Minute"},
		{BucketHour, "1h", "1 Hour"},
		{BucketDay, "1day", "1 Day"},
		{BucketUnset, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.bucket.Code())
			assert.Equal(t, tt.label, tt.bucket.Label())
		})
	}
}

func TestBucketAlign(t *testing.T) {
	ts := time.Date(2024, 3, 1, 15, 42, 37, 123456789, time.UTC)

	tests := []struct {
		name     string
		bucket   Bucket
		input    time.Time
		expected time.Time
	}{
		{"minute", BucketMinute, ts, time.Date(2024, 3, 1, 15, 42, 0, 0, time.UTC)},
		{"hour", BucketHour, ts, time.Date(2024, 3, 1, 15, 0, 0, 0, time.UTC)},
		{"day", BucketDay, ts, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)},
		{"zero time stays zero", BucketHour, time.Time{}, time.Time{}},
		{
			"offset time aligns in UTC",
			BucketDay,
			time.Date(2024, 3, 1, 1, 30, 0, 0, time.FixedZone("UTC+3", 3*60*60)), // 2024-02-29 22:30 UTC
			time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.bucket.Align(tt.input)
			assert.True(t, tt.expected.Equal(got), "expected %s, got %s", tt.expected, got)
		})
	}
}
