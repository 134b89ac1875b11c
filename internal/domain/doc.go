// Package domain models environmental sensor readings and the display
// conventions of the readings dashboard.
//
// # Data Source
//
// Readings come from two CSV tables exported from the sensor network:
//
//	readings:  sensor_id, timestamp, Heat, Noise
//	metadata:  sensor_id, address
//
// The readings table holds one row per sensor per sampling instant. Heat is
// a temperature in degrees Fahrenheit, Noise a sound level in decibels. The
// metadata table maps sensor IDs to the street addresses where the units are
// installed. Both tables are read-only inputs; the dashboard never writes.
//
// # Data Conventions
//
// Sensor IDs:
//
//	Opaque strings, matched exactly (no trimming beyond CSV whitespace, no
//	case folding). A sensor may appear in readings without a metadata row;
//	its display label falls back to "Sensor <id>".
//
// Timestamps:
//
//	ISO 8601 preferred ("2024-01-01T15:04:05Z"), with space-separated export
//	layouts accepted as fallbacks ("2024-01-01 15:04:05", "2024-01-01 15:04",
//	"2024-01-01"). All times are normalized to UTC. Rows with unparsable
//	timestamps keep a zero Timestamp and are excluded by range filtering
//	rather than rejected at load. See [ParseTimestamp].
//
// Aggregation:
//
//	Readings group by (sensor, time window). Windows are 1 minute, 1 hour,
//	or 1 day, aligned in UTC; the day window starts at UTC midnight. Each
//	group reports the arithmetic mean of Heat and Noise, rounded half away
//	from zero to two decimals ([Round2]). A window with no readings produces
//	no row.
//
// Display formats:
//
//	Timestamps render as "2006-01-02 15:04:05". Measurements render with
//	two decimals and their unit: "72.50 °F", "41.00 dB". The dashboard
//	heading is "All Sensors", or "Sensor: <address>" when filtered.
package domain
