// Command genmock generates sensor reading and metadata CSV fixtures for
// the dashboard test suites. It reloads its own output through the actual
// loader and domain aggregation, so the stats it prints can be copied
// straight into test assertions.
//
// Usage:
//
//	go run ./cmd/genmock \
//	  -out-dir data/mock \
//	  -sensors 3 \
//	  -hours 24 \
//	  -seed 1
package main

import (
	"bytes"
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/jcruz-ferreyra/BARI-streamlit-csv/internal/adapter/csvfile"
	"github.com/jcruz-ferreyra/BARI-streamlit-csv/internal/domain"
)

// addresses are assigned to sensors round-robin; the last generated sensor
// is left out of the metadata table to exercise the fallback label.
var addresses = []string{
	"175 N Harvard St",
	"655 Summer St",
	"890 Commonwealth Ave",
	"25 Huntington Ave",
	"700 Atlantic Ave",
	"1 City Hall Sq",
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	outDir := flag.String("out-dir", "data/mock", "output directory for generated CSV fixtures")
	sensors := flag.Int("sensors", 3, "number of sensors to generate")
	hours := flag.Int("hours", 24, "hours of readings per sensor")
	perHour := flag.Int("per-hour", 4, "readings per sensor per hour")
	seed := flag.Int64("seed", 1, "RNG seed, fixed for reproducible fixtures")
	start := flag.String("start", "2024-03-01", "timestamp of the first hour of readings")
	dirty := flag.Bool("dirty", true, "include malformed rows that exercise tolerant loading")
	flag.Parse()

	base, err := domain.ParseTimestamp(*start)
	if err != nil {
		return fmt.Errorf("parse -start: %w", err)
	}

	rng := rand.New(rand.NewSource(*seed))

	readingRows := generateReadings(rng, base, *sensors, *hours, *perHour)
	if *dirty {
		readingRows = append(readingRows, dirtyRows(base)...)
	}
	metaRows := generateMetadata(*sensors)

	readingsPath := filepath.Join(*outDir, "readings.csv")
	metadataPath := filepath.Join(*outDir, "metadata.csv")

	if err := writeCSV(readingsPath, []string{"sensor_id", "timestamp", "Heat", "Noise"}, readingRows); err != nil {
		return fmt.Errorf("writing readings fixture: %w", err)
	}
	log.Printf("wrote readings fixture: %s (%d rows)", readingsPath, len(readingRows))

	if err := writeCSV(metadataPath, []string{"sensor_id", "address"}, metaRows); err != nil {
		return fmt.Errorf("writing metadata fixture: %w", err)
	}
	log.Printf("wrote metadata fixture: %s (%d rows)", metadataPath, len(metaRows))

	// Reload through the real loaders so the printed stats reflect exactly
	// what the service would see.
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	ctx := context.Background()

	readings, stats, err := csvfile.NewReadingsSource(readingsPath, logger).Load(ctx)
	if err != nil {
		return fmt.Errorf("reload readings: %w", err)
	}
	meta, _, err := csvfile.NewMetadataSource(metadataPath, logger).Load(ctx)
	if err != nil {
		return fmt.Errorf("reload metadata: %w", err)
	}

	printStats(readings, stats, meta)
	return nil
}

// generateReadings produces per-sensor readings with a diurnal swing plus
// jitter. Values are written with one decimal so fixtures stay readable.
func generateReadings(rng *rand.Rand, base time.Time, sensors, hours, perHour int) [][]string {
	rows := make([][]string, 0, sensors*hours*perHour)
	for i := 0; i < sensors; i++ {
		id := strconv.Itoa(101 + i)
		heatBase := 48 + 4*float64(i)
		noiseBase := 36 + 3*float64(i)

		for h := 0; h < hours; h++ {
			for k := 0; k < perHour; k++ {
				ts := base.Add(time.Duration(h)*time.Hour +
					time.Duration(rng.Intn(60))*time.Minute +
					time.Duration(rng.Intn(60))*time.Second)

				hourOfDay := float64(ts.Hour())
				heat := heatBase + 10*math.Sin(2*math.Pi*(hourOfDay-9)/24) + rng.NormFloat64()*1.2
				noise := noiseBase + 6*math.Sin(2*math.Pi*(hourOfDay-7)/24) + rng.NormFloat64()*2.0

				rows = append(rows, []string{
					id,
					ts.Format(domain.TimestampLayout),
					strconv.FormatFloat(heat, 'f', 1, 64),
					strconv.FormatFloat(noise, 'f', 1, 64),
				})
			}
		}
	}
	return rows
}

// dirtyRows returns one row per tolerant-loading path: a missing sensor ID,
// a malformed measurement, and an unparsable timestamp.
func dirtyRows(base time.Time) [][]string {
	return [][]string{
		{"", base.Add(30 * time.Minute).Format(domain.TimestampLayout), "50.0", "40.0"},
		{"101", base.Add(45 * time.Minute).Format(domain.TimestampLayout), "n/a", "41.0"},
		{"101", "not-a-timestamp", "51.5", "39.5"},
	}
}

func generateMetadata(sensors int) [][]string {
	var rows [][]string
	for i := 0; i < sensors; i++ {
		if i == sensors-1 && sensors > 1 {
			continue
		}
		rows = append(rows, []string{strconv.Itoa(101 + i), addresses[i%len(addresses)]})
	}
	return rows
}

func writeCSV(path string, header []string, rows [][]string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(header); err != nil {
		return err
	}
	if err := w.WriteAll(rows); err != nil {
		return err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}

	return os.WriteFile(path, buf.Bytes(), 0o600)
}

func printStats(readings []domain.SensorReading, stats domain.LoadStats, meta []domain.SensorMetadata) {
	index := domain.NewLocationIndex(meta)
	hourly := domain.JoinLocations(domain.Aggregate(readings, domain.BucketHour), index)
	coverage := domain.ReadingsCoverage(readings)

	fmt.Println("\n=== Stats for updating test assertions ===")
	fmt.Printf("Readings: %d kept, %d skipped, %d degraded\n",
		stats.Rows, stats.TotalSkipped(), stats.TotalDegraded())
	fmt.Printf("Metadata: %d rows, %d mapped locations\n", len(meta), len(index))
	fmt.Printf("Coverage: %s .. %s\n",
		domain.FormatTimestamp(coverage.Start), domain.FormatTimestamp(coverage.End))
	fmt.Printf("Hourly groups: %d\n", len(hourly))

	perSensor := map[string]int{}
	for _, r := range readings {
		perSensor[r.SensorID]++
	}
	fmt.Printf("Per sensor: ")
	for _, m := range meta {
		fmt.Printf("%s=%d ", m.SensorID, perSensor[m.SensorID])
		delete(perSensor, m.SensorID)
	}
	for id, n := range perSensor {
		fmt.Printf("%s=%d(no metadata) ", id, n)
	}
	fmt.Println()

	if len(hourly) > 0 {
		first := hourly[0]
		fmt.Printf("\nFirst hourly group:\n")
		fmt.Printf("  Sensor: %s (%s)\n", first.SensorID, first.SensorLocation)
		fmt.Printf("  Window: %s\n", domain.FormatTimestamp(first.BucketStart))
		fmt.Printf("  Heat: %s\n", domain.FormatHeat(first.Heat))
		fmt.Printf("  Noise: %s\n", domain.FormatNoise(first.Noise))
	}
}
