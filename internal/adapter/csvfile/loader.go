// Package csvfile loads the readings and metadata tables from CSV files.
//
// Loads are tolerant: individual rows can be dropped or degraded per the
// domain data conventions, with the outcome accounted in LoadStats. Only a
// missing or unreadable file, or a table without its required columns, is
// an error.
package csvfile

import (
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/jcruz-ferreyra/BARI-streamlit-csv/internal/domain"
)

// Column names expected in the input tables.
const (
	colSensorID  = "sensor_id"
	colTimestamp = "timestamp"
	colHeat      = "Heat"
	colNoise     = "Noise"
	colAddress   = "address"
)

// Skip reasons and degraded fields reported in LoadStats.
const (
	ReasonMissingSensorID = "missing_sensor_id"
	ReasonBadValue        = "bad_value"
	ReasonMissingAddress  = "missing_address"
	FieldTimestamp        = "timestamp"
)

// ReadingsSource loads the readings table from a CSV file on disk.
type ReadingsSource struct {
	path   string
	logger *slog.Logger
}

// NewReadingsSource creates a ReadingsSource for the file at path.
func NewReadingsSource(path string, logger *slog.Logger) *ReadingsSource {
	return &ReadingsSource{path: path, logger: logger}
}

// Load reads and parses every row of the readings table. Rows without a
// sensor ID or with malformed measurements are dropped; rows with a missing
// or unparsable timestamp are kept with a zero Timestamp so range filtering
// can exclude them.
func (s *ReadingsSource) Load(ctx context.Context) ([]domain.SensorReading, domain.LoadStats, error) {
	var stats domain.LoadStats

	if err := ctx.Err(); err != nil {
		return nil, stats, err
	}

	colIdx, rows, err := readTable(s.path, colSensorID, colTimestamp, colHeat, colNoise)
	if err != nil {
		return nil, stats, fmt.Errorf("load readings: %w", err)
	}

	readings := make([]domain.SensorReading, 0, len(rows))
	for _, row := range rows {
		id := get(row, colIdx, colSensorID)
		if id == "" {
			stats.Skip(ReasonMissingSensorID)
			continue
		}

		heat, errH := strconv.ParseFloat(get(row, colIdx, colHeat), 64)
		noise, errN := strconv.ParseFloat(get(row, colIdx, colNoise), 64)
		if errH != nil || errN != nil {
			stats.Skip(ReasonBadValue)
			continue
		}

		rd := domain.SensorReading{SensorID: id, Heat: heat, Noise: noise}
		if ts, err := domain.ParseTimestamp(get(row, colIdx, colTimestamp)); err != nil {
			stats.Degrade(FieldTimestamp)
		} else {
			rd.Timestamp = ts
		}

		readings = append(readings, rd)
	}
	stats.Rows = len(readings)

	logStats(s.logger, "readings", stats)
	return readings, stats, nil
}

// MetadataSource loads the metadata table from a CSV file on disk.
type MetadataSource struct {
	path   string
	logger *slog.Logger
}

// NewMetadataSource creates a MetadataSource for the file at path.
func NewMetadataSource(path string, logger *slog.Logger) *MetadataSource {
	return &MetadataSource{path: path, logger: logger}
}

// Load reads the metadata table. Rows without a sensor ID or address are
// dropped; duplicate sensor IDs are kept as-is, since the location index
// resolves them first-row-wins.
func (s *MetadataSource) Load(ctx context.Context) ([]domain.SensorMetadata, domain.LoadStats, error) {
	var stats domain.LoadStats

	if err := ctx.Err(); err != nil {
		return nil, stats, err
	}

	colIdx, rows, err := readTable(s.path, colSensorID, colAddress)
	if err != nil {
		return nil, stats, fmt.Errorf("load metadata: %w", err)
	}

	metadata := make([]domain.SensorMetadata, 0, len(rows))
	for _, row := range rows {
		id := get(row, colIdx, colSensorID)
		if id == "" {
			stats.Skip(ReasonMissingSensorID)
			continue
		}
		addr := get(row, colIdx, colAddress)
		if addr == "" {
			stats.Skip(ReasonMissingAddress)
			continue
		}
		metadata = append(metadata, domain.SensorMetadata{SensorID: id, Address: addr})
	}
	stats.Rows = len(metadata)

	logStats(s.logger, "metadata", stats)
	return metadata, stats, nil
}

// readTable reads a CSV file into header-indexed rows and verifies the
// required columns are present.
func readTable(path string, required ...string) (map[string]int, [][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1 // ragged rows are handled per-field below

	all, err := r.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("read csv: %w", err)
	}
	if len(all) == 0 {
		return nil, nil, fmt.Errorf("no header row in %s", path)
	}

	colIdx := make(map[string]int, len(all[0]))
	for i, h := range all[0] {
		colIdx[strings.TrimSpace(h)] = i
	}
	for _, col := range required {
		if _, ok := colIdx[col]; !ok {
			return nil, nil, fmt.Errorf("missing column %q in %s", col, path)
		}
	}

	return colIdx, all[1:], nil
}

// get returns the trimmed value of a named column, or "" when the row is
// too short to carry it.
func get(row []string, colIdx map[string]int, col string) string {
	i, ok := colIdx[col]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func logStats(logger *slog.Logger, table string, stats domain.LoadStats) {
	if stats.TotalSkipped() == 0 && len(stats.Degraded) == 0 {
		logger.Debug("table loaded", "table", table, "rows", stats.Rows)
		return
	}
	logger.Warn("table loaded with problem rows",
		"table", table,
		"rows", stats.Rows,
		"skipped", stats.Skipped,
		"degraded", stats.Degraded,
	)
}
