package domain

import (
	"fmt"
	"time"
)

// TimestampLayout is the display layout for reading timestamps.
const TimestampLayout = "2006-01-02 15:04:05"

// FormatSensorID renders the generic sensor label, e.g. "Sensor 101".
// Also used as the location fallback for sensors without metadata.
func FormatSensorID(id string) string {
	return "Sensor " + id
}

// FormatHeat renders a temperature cell, e.g. "72.50 °F".
func FormatHeat(v float64) string {
	return fmt.Sprintf("%.2f °F", v)
}

// FormatNoise renders a noise cell, e.g. "41.00 dB".
func FormatNoise(v float64) string {
	return fmt.Sprintf("%.2f dB", v)
}

// FormatTimestamp renders a timestamp for the table view, in UTC.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// Heading returns the dashboard heading for a sensor selection:
// "All Sensors" when unfiltered, "Sensor: <address>" otherwise. Unknown
// sensors resolve through the usual fallback, so the heading never fails.
func Heading(sensorID string, ix LocationIndex) string {
	if sensorID == "" {
		return "All Sensors"
	}
	return "Sensor: " + ix.Resolve(sensorID)
}
