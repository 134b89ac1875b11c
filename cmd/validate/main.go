// Command validate performs end-to-end data integrity checks over a pair of
// readings and metadata CSV fixtures: table integrity, aggregation
// invariants, join coverage, display ordering, and an optional golden
// comparison of the hourly aggregation.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -readings data/sample/readings.csv \
//	  -metadata data/sample/metadata.csv \
//	  -golden data/sample/golden_hourly.json
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"math"
	"os"
	"strings"
	"time"

	"github.com/jcruz-ferreyra/BARI-streamlit-csv/internal/adapter/csvfile"
	"github.com/jcruz-ferreyra/BARI-streamlit-csv/internal/domain"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	readingsPath := flag.String("readings", "data/sample/readings.csv", "path to the readings CSV")
	metadataPath := flag.String("metadata", "data/sample/metadata.csv", "path to the metadata CSV")
	goldenPath := flag.String("golden", "data/sample/golden_hourly.json", "path to the golden hourly aggregation; empty to skip")
	flag.Parse()

	if code := run(*readingsPath, *metadataPath, *goldenPath); code != 0 {
		os.Exit(code)
	}
}

func run(readingsPath, metadataPath, goldenPath string) int {
	fmt.Println("=== Sensor Dashboard Data Validation ===")
	fmt.Println()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	ctx := context.Background()

	readings, stats, err := csvfile.NewReadingsSource(readingsPath, logger).Load(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load readings: %v\n", err)
		return 1
	}

	meta, metaStats, err := csvfile.NewMetadataSource(metadataPath, logger).Load(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load metadata: %v\n", err)
		return 1
	}

	index := domain.NewLocationIndex(meta)
	hourly := domain.Aggregate(readings, domain.BucketHour)
	joined := domain.JoinLocations(hourly, index)

	phases := []*phase{
		validateTables(readings, stats, meta, metaStats),
		validateAggregation(readings),
		validateJoin(joined, index),
		validateOrdering(joined),
	}
	if goldenPath != "" {
		phases = append(phases, validateGolden(joined, goldenPath))
	}

	// ── Report results ──
	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Rows: %d readings (%d skipped, %d degraded), %d metadata, %d hourly groups\n",
		stats.Rows, stats.TotalSkipped(), stats.TotalDegraded(), len(meta), len(hourly))

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

// ── Phase 1: Table Integrity ──
// Validates that loaded rows satisfy the data conventions the rest of the
// pipeline assumes.

func validateTables(readings []domain.SensorReading, stats domain.LoadStats,
	meta []domain.SensorMetadata, metaStats domain.LoadStats) *phase {
	p := &phase{name: "Phase 1: Table Integrity"}

	if len(readings) == 0 {
		p.errorf("readings table has no usable rows")
	}

	zeroTS := 0
	for i, r := range readings {
		if r.SensorID == "" {
			p.errorf("reading %d: empty sensor ID survived loading", i)
		}
		if math.IsNaN(r.Heat) || math.IsInf(r.Heat, 0) {
			p.errorf("reading %d: non-finite Heat %v", i, r.Heat)
		}
		if math.IsNaN(r.Noise) || math.IsInf(r.Noise, 0) {
			p.errorf("reading %d: non-finite Noise %v", i, r.Noise)
		}
		if r.Timestamp.IsZero() {
			zeroTS++
		}
	}
	if zeroTS != stats.TotalDegraded() {
		p.errorf("zero-timestamp rows: counted %d, stats report %d degraded", zeroTS, stats.TotalDegraded())
	}

	seen := map[string]string{}
	for i, m := range meta {
		if m.SensorID == "" || m.Address == "" {
			p.errorf("metadata %d: incomplete row survived loading", i)
			continue
		}
		if prev, ok := seen[m.SensorID]; ok && prev != m.Address {
			fmt.Printf("  Note: sensor %s has conflicting addresses %q and %q (first wins)\n",
				m.SensorID, prev, m.Address)
		}
		seen[m.SensorID] = m.Address
	}

	if n := metaStats.TotalSkipped(); n > 0 {
		fmt.Printf("  Note: %d metadata row(s) dropped during loading\n", n)
	}

	return p
}

// ── Phase 2: Aggregation Invariants ──
// Recomputes means independently for every bucket width and checks
// alignment, rounding, and group coverage against domain.Aggregate.

func validateAggregation(readings []domain.SensorReading) *phase {
	p := &phase{name: "Phase 2: Aggregation Invariants"}
	for _, b := range []domain.Bucket{domain.BucketMinute, domain.BucketHour, domain.BucketDay} {
		checkBucketAggregation(p, readings, b)
	}
	return p
}

func checkBucketAggregation(p *phase, readings []domain.SensorReading, b domain.Bucket) {
	groups := domain.Aggregate(readings, b)

	type sums struct {
		heat, noise float64
		count       int
	}
	expected := map[string]*sums{}
	usable := 0
	for _, r := range readings {
		if r.Timestamp.IsZero() {
			continue
		}
		usable++
		key := r.SensorID + "|" + b.Align(r.Timestamp).Format(time.RFC3339)
		if expected[key] == nil {
			expected[key] = &sums{}
		}
		expected[key].heat += r.Heat
		expected[key].noise += r.Noise
		expected[key].count++
	}

	if len(groups) != len(expected) {
		p.errorf("%s: group count: expected %d, got %d", b, len(expected), len(groups))
	}

	seen := map[string]bool{}
	contributing := 0
	for _, g := range groups {
		if !g.BucketStart.Equal(b.Align(g.BucketStart)) {
			p.errorf("%s: group %s@%s: window start not aligned", b, g.SensorID, g.BucketStart)
		}
		if g.BucketStart.Format("Z07:00") != "Z" {
			p.errorf("%s: group %s@%s: window start not in UTC", b, g.SensorID, g.BucketStart)
		}

		key := g.SensorID + "|" + g.BucketStart.Format(time.RFC3339)
		if seen[key] {
			p.errorf("%s: group %s duplicated", b, key)
		}
		seen[key] = true

		exp, ok := expected[key]
		if !ok {
			p.errorf("%s: group %s has no contributing readings", b, key)
			continue
		}
		contributing += exp.count

		wantHeat := domain.Round2(exp.heat / float64(exp.count))
		wantNoise := domain.Round2(exp.noise / float64(exp.count))
		if !floatEq(g.Heat, wantHeat) {
			p.errorf("%s: group %s: heat mean: expected %g, got %g", b, key, wantHeat, g.Heat)
		}
		if !floatEq(g.Noise, wantNoise) {
			p.errorf("%s: group %s: noise mean: expected %g, got %g", b, key, wantNoise, g.Noise)
		}
	}

	if contributing != usable {
		p.errorf("%s: readings accounted in groups: expected %d, got %d", b, usable, contributing)
	}
}

// ── Phase 3: Join Coverage ──
// Validates that the location join keeps every group and resolves every
// sensor, mapped or not.

func validateJoin(joined []domain.AggregatedReading, index domain.LocationIndex) *phase {
	p := &phase{name: "Phase 3: Join Coverage"}

	fallbacks := 0
	for _, g := range joined {
		if g.SensorLocation == "" {
			p.errorf("group %s@%s: empty location after join", g.SensorID, g.BucketStart)
			continue
		}
		if addr, ok := index[g.SensorID]; ok {
			if g.SensorLocation != addr {
				p.errorf("group %s: location %q, metadata says %q", g.SensorID, g.SensorLocation, addr)
			}
		} else {
			if g.SensorLocation != domain.FormatSensorID(g.SensorID) {
				p.errorf("group %s: unmapped sensor resolved to %q", g.SensorID, g.SensorLocation)
			}
			fallbacks++
		}
	}

	if fallbacks > 0 {
		fmt.Printf("  Note: %d group(s) using the fallback sensor label\n", fallbacks)
	}

	return p
}

// ── Phase 4: Display Ordering ──
// Validates both orderings and spot-checks the formatted table cells.

func validateOrdering(joined []domain.AggregatedReading) *phase {
	p := &phase{name: "Phase 4: Display Ordering"}

	display := domain.SortForDisplay(joined)
	for i := 1; i < len(display); i++ {
		prev, cur := display[i-1], display[i]
		if cur.BucketStart.After(prev.BucketStart) {
			p.errorf("display row %d: window %s after previous %s", i, cur.BucketStart, prev.BucketStart)
		}
		if cur.BucketStart.Equal(prev.BucketStart) && cur.SensorID < prev.SensorID {
			p.errorf("display row %d: sensor %s before %s within the same window", i, prev.SensorID, cur.SensorID)
		}
	}

	table := domain.TableRows(joined, domain.BucketHour)
	if len(table) != len(joined) {
		p.errorf("table rows: expected %d, got %d", len(joined), len(table))
	}
	for i := 1; i < len(table); i++ {
		prev, cur := table[i-1], table[i]
		if cur.Sensor < prev.Sensor {
			p.errorf("table row %d: sensor %q before %q", i, prev.Sensor, cur.Sensor)
		}
		if cur.Sensor == prev.Sensor && cur.Timestamp > prev.Timestamp {
			p.errorf("table row %d: timestamp %q after previous %q for %q", i, cur.Timestamp, prev.Timestamp, cur.Sensor)
		}
	}
	for i, row := range table {
		if !strings.HasSuffix(row.Heat, " °F") {
			p.errorf("table row %d: heat cell %q missing unit", i, row.Heat)
		}
		if !strings.HasSuffix(row.Noise, " dB") {
			p.errorf("table row %d: noise cell %q missing unit", i, row.Noise)
		}
		if row.AggFreq != "1h" || row.AggFunc != "mean" {
			p.errorf("table row %d: agg columns %q/%q", i, row.AggFreq, row.AggFunc)
		}
	}

	return p
}

// ── Phase 5: Golden Aggregation ──
// Compares the joined hourly aggregation, in display order, against a
// checked-in golden file.

func validateGolden(joined []domain.AggregatedReading, goldenPath string) *phase {
	p := &phase{name: "Phase 5: Golden Aggregation"}

	golden, err := loadJSON[domain.AggregatedReading](goldenPath)
	if err != nil {
		p.errorf("load golden: %v", err)
		return p
	}

	display := domain.SortForDisplay(joined)
	if len(display) != len(golden) {
		p.errorf("row count: golden has %d, computed %d", len(golden), len(display))
		return p
	}

	for i := range golden {
		g, c := golden[i], display[i]
		if g.SensorID != c.SensorID {
			p.errorf("row %d: sensor: golden %q, computed %q", i, g.SensorID, c.SensorID)
		}
		if !g.BucketStart.Equal(c.BucketStart) {
			p.errorf("row %d: window: golden %s, computed %s", i, g.BucketStart, c.BucketStart)
		}
		if !floatEq(g.Heat, c.Heat) {
			p.errorf("row %d: heat: golden %g, computed %g", i, g.Heat, c.Heat)
		}
		if !floatEq(g.Noise, c.Noise) {
			p.errorf("row %d: noise: golden %g, computed %g", i, g.Noise, c.Noise)
		}
		if g.SensorLocation != c.SensorLocation {
			p.errorf("row %d: location: golden %q, computed %q", i, g.SensorLocation, c.SensorLocation)
		}
	}

	return p
}

// ── Helpers ──

func loadJSON[T any](path string) ([]T, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func floatEq(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}
