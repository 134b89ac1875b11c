package domain

import (
	"fmt"
	"sort"
	"time"
)

// aggFunc is the only aggregation function the dashboard applies.
const aggFunc = "mean"

// Request captures one dashboard query: which sensor, over what span, at
// what window width. Zero fields select the defaults (all sensors, full
// snapshot coverage, configured bucket).
type Request struct {
	Sensor string
	Start  time.Time
	End    time.Time
	Bucket Bucket
}

// SeriesPoint is one aggregated value on a chart.
type SeriesPoint struct {
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
}

// ChartSeries holds one location's points, oldest first so lines draw
// left to right.
type ChartSeries struct {
	Location string        `json:"location"`
	Points   []SeriesPoint `json:"points"`
}

// ChartView is one measurement chart: a titled set of per-location series.
type ChartView struct {
	Title  string        `json:"title"`
	Unit   string        `json:"unit"`
	Series []ChartSeries `json:"series"`
}

// TableRow is one formatted row of the table view. All cells are display
// strings; AggFreq and AggFunc record how the row was produced.
type TableRow struct {
	Sensor         string `json:"sensor"`
	SensorLocation string `json:"sensor_location"`
	Timestamp      string `json:"timestamp"`
	Heat           string `json:"heat"`
	Noise          string `json:"noise"`
	AggFreq        string `json:"agg_freq"`
	AggFunc        string `json:"agg_func"`
}

// Result is a complete dashboard answer: the canonical aggregated rows plus
// the chart and table views derived from them.
type Result struct {
	Heading     string              `json:"heading"`
	Bucket      string              `json:"bucket"`
	Range       TimeRange           `json:"range"`
	Advisories  []Advisory          `json:"advisories,omitempty"`
	Rows        []AggregatedReading `json:"rows"`
	Charts      []ChartView         `json:"charts"`
	Table       []TableRow          `json:"table"`
	GeneratedAt time.Time           `json:"generated_at"`
}

// ChartTitle returns a measurement chart title, e.g.
// "Temperature readings (°F) every 1 Hour (mean)".
func ChartTitle(measurement, unit string, b Bucket) string {
	return fmt.Sprintf("%s readings (%s) every %s (%s)", measurement, unit, b.Label(), aggFunc)
}

// ChartViews builds the temperature and noise charts from joined rows.
// Series are keyed by SensorLocation, ordered by location, with points
// oldest first.
func ChartViews(rows []AggregatedReading, b Bucket) []ChartView {
	return []ChartView{
		buildChart(rows, ChartTitle("Temperature", "°F", b), "°F", func(r AggregatedReading) float64 { return r.Heat }),
		buildChart(rows, ChartTitle("Noise", "dB", b), "dB", func(r AggregatedReading) float64 { return r.Noise }),
	}
}

// buildChart assembles one chart with the given value selector.
func buildChart(rows []AggregatedReading, title, unit string, value func(AggregatedReading) float64) ChartView {
	byLocation := map[string][]SeriesPoint{}
	for _, row := range rows {
		byLocation[row.SensorLocation] = append(byLocation[row.SensorLocation], SeriesPoint{
			Timestamp: row.BucketStart,
			Value:     value(row),
		})
	}

	locations := make([]string, 0, len(byLocation))
	for loc := range byLocation {
		locations = append(locations, loc)
	}
	sort.Strings(locations)

	series := make([]ChartSeries, 0, len(locations))
	for _, loc := range locations {
		points := byLocation[loc]
		sort.Slice(points, func(i, j int) bool {
			return points[i].Timestamp.Before(points[j].Timestamp)
		})
		series = append(series, ChartSeries{Location: loc, Points: points})
	}

	return ChartView{Title: title, Unit: unit, Series: series}
}

// TableRows formats joined rows for the table view, in table order
// (sensor ascending, newest window first within each sensor).
func TableRows(rows []AggregatedReading, b Bucket) []TableRow {
	ordered := SortForTable(rows)
	out := make([]TableRow, 0, len(ordered))
	for _, row := range ordered {
		out = append(out, TableRow{
			Sensor:         FormatSensorID(row.SensorID),
			SensorLocation: row.SensorLocation,
			Timestamp:      FormatTimestamp(row.BucketStart),
			Heat:           FormatHeat(row.Heat),
			Noise:          FormatNoise(row.Noise),
			AggFreq:        b.Code(),
			AggFunc:        aggFunc,
		})
	}
	return out
}
