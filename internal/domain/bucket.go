package domain

import (
	"fmt"
	"strings"
	"time"
)

// Bucket is the aggregation window width. The zero value means "not
// specified"; callers substitute their configured default.
type Bucket int

const (
	BucketUnset Bucket = iota
	BucketMinute
	BucketHour
	BucketDay
)

// ParseBucket parses a bucket code ("1min", "1h", "1day") or unit alias
// ("minute", "hour", "day"). An empty string is BucketUnset, not an error.
func ParseBucket(s string) (Bucket, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return BucketUnset, nil
	case "1min", "minute":
		return BucketMinute, nil
	case "1h", "hour":
		return BucketHour, nil
	case "1day", "day":
		return BucketDay, nil
	}
	return BucketUnset, fmt.Errorf("unknown bucket %q", s)
}

// Code returns the wire code for the bucket: "1min", "1h", or "1day".
func (b Bucket) Code() string {
	switch b {
	case BucketMinute:
		return "1min"
	case BucketHour:
		return "1h"
	case BucketDay:
		return "1day"
	}
	return ""
}

// Label returns the human-readable width used in chart titles:
// "1 Minute", "1 Hour", or "1 Day".
func (b Bucket) Label() string {
	switch b {
	case BucketMinute:
		return "1 Minute"
	case BucketHour:
		return "1 Hour"
	case BucketDay:
		return "1 Day"
	}
	return ""
}

func (b Bucket) String() string { return b.Code() }

// Align truncates t to the start of its window in UTC. Minute and hour
// windows truncate to the unit; the day window starts at UTC midnight.
// Returns zero time if the input is zero.
func (b Bucket) Align(t time.Time) time.Time {
	if t.IsZero() {
		return time.Time{}
	}

	t = t.UTC()
	switch b {
	case BucketMinute:
		return t.Truncate(time.Minute)
	case BucketDay:
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	default:
		return t.Truncate(time.Hour)
	}
}
