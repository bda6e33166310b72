// Command validate loads an archive and checks the grid aggregation invariants
// at every value of the dashboard's grid size control, plus consistency of the
// chart builders with the loaded rows.
//
// Usage:
//
//	go run ./cmd/validate -archive data/complete.csv
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"

	"github.com/couchcryptid/ufo-sightings-dashboard/internal/archive"
	"github.com/couchcryptid/ufo-sightings-dashboard/internal/charts"
	"github.com/couchcryptid/ufo-sightings-dashboard/internal/dashboard"
	"github.com/couchcryptid/ufo-sightings-dashboard/internal/domain"
	"github.com/couchcryptid/ufo-sightings-dashboard/internal/grid"
	"github.com/couchcryptid/ufo-sightings-dashboard/internal/observability"
)

// maxErrorsPerPhase keeps reports readable on badly broken archives.
const maxErrorsPerPhase = 50

// phase tracks pass/fail for a validation phase.
type phase struct {
	name    string
	errors  []string
	dropped int
}

func (p *phase) errorf(format string, args ...any) {
	if len(p.errors) >= maxErrorsPerPhase {
		p.dropped++
		return
	}
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	path := flag.String("archive", "", "path to the sightings archive CSV")
	flag.Parse()

	if *path == "" {
		flag.Usage()
		os.Exit(1)
	}

	os.Exit(run(*path))
}

func run(path string) int {
	fmt.Println("=== UFO Sightings Archive Validation ===")
	fmt.Println()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	table, err := archive.NewLoader(logger, observability.NewMetricsForTesting()).Load(context.Background(), path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load archive: %v\n", err)
		return 1
	}

	sizes := controlValues(dashboard.GridSizeControl)
	phases := []*phase{
		validateTable(table),
		validateAggregation(table, sizes),
		validateCoarsening(table, sizes),
		validateDisplayOrder(table, sizes),
		validateCharts(table),
	}

	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors)+p.dropped)
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	withCoords := 0
	for _, rec := range table.Records {
		if rec.HasCoordinates() {
			withCoords++
		}
	}
	fmt.Println()
	fmt.Printf("Records: %d loaded, %d with coordinates, %d malformed lines skipped, %d grid sizes checked\n",
		table.Len(), withCoords, table.Skipped, len(sizes))

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
		if p.dropped > 0 {
			fmt.Printf("  ... and %d more\n", p.dropped)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

// controlValues lists every value the control can take.
func controlValues(c dashboard.Control) []float64 {
	n := int(math.Round((c.Max-c.Min)/c.Step)) + 1
	values := make([]float64, n)
	for i := range values {
		values[i] = c.Min + float64(i)*c.Step
	}
	return values
}

// ── Phases ──

func validateTable(table *domain.Table) *phase {
	p := &phase{name: "Archive normalization"}
	if table.Len() == 0 {
		p.errorf("archive has no records")
	}
	seen := make(map[int]bool, table.Len())
	for _, rec := range table.Records {
		if seen[rec.Row] {
			p.errorf("row %d: duplicate row number", rec.Row)
		}
		seen[rec.Row] = true
		if rec.Country == "" {
			p.errorf("row %d: empty country after normalization", rec.Row)
		}
		for name, v := range map[string]*float64{"latitude": rec.Latitude, "longitude": rec.Longitude, "duration": rec.DurationSeconds} {
			if v != nil && (math.IsNaN(*v) || math.IsInf(*v, 0)) {
				p.errorf("row %d: %s is not finite", rec.Row, name)
			}
		}
		if rec.Timestamp != nil && rec.DatetimeStr != rec.Timestamp.Format(domain.DisplayTimeLayout) {
			p.errorf("row %d: datetime_str %q does not match timestamp", rec.Row, rec.DatetimeStr)
		}
	}
	return p
}

func validateAggregation(table *domain.Table, sizes []float64) *phase {
	p := &phase{name: "Grid aggregation"}
	for _, g := range sizes {
		rows, err := grid.Aggregate(table, g)
		if err != nil {
			p.errorf("g=%g: %v", g, err)
			continue
		}
		if len(rows) != table.Len() {
			p.errorf("g=%g: %d rows out, %d in", g, len(rows), table.Len())
			continue
		}

		counts := make(map[grid.Key]int)
		for _, rec := range table.Records {
			if key, ok := grid.KeyFor(rec.Latitude, rec.Longitude, g); ok {
				counts[key]++
			}
		}

		for i, row := range rows {
			if row.Row != table.Records[i].Row {
				p.errorf("g=%g: row order changed at index %d", g, i)
				break
			}
			key, ok := grid.KeyFor(row.Latitude, row.Longitude, g)
			want := 0
			if ok {
				want = counts[key]
			}
			if row.Occurrences != want {
				p.errorf("g=%g row %d: occurrences %d, cell holds %d", g, row.Row, row.Occurrences, want)
			}
			if ok && row.Occurrences < 1 {
				p.errorf("g=%g row %d: located row has no occurrences", g, row.Row)
			}
			if math.Abs(row.Radius-grid.Radius(row.Occurrences)) > 1e-9 {
				p.errorf("g=%g row %d: radius %v, want %v", g, row.Row, row.Radius, grid.Radius(row.Occurrences))
			}
		}
	}
	return p
}

func validateCoarsening(table *domain.Table, sizes []float64) *phase {
	p := &phase{name: "Coarsening (integer multiples)"}
	maxSize := sizes[len(sizes)-1]
	for _, g := range sizes {
		for k := 2.0; g*k <= maxSize; k++ {
			fine, err := grid.Aggregate(table, g)
			if err != nil {
				p.errorf("g=%g: %v", g, err)
				continue
			}
			coarse, err := grid.Aggregate(table, g*k)
			if err != nil {
				p.errorf("g=%g: %v", g*k, err)
				continue
			}
			for i := range fine {
				if coarse[i].Occurrences < fine[i].Occurrences {
					p.errorf("row %d: occurrences drop from %d at g=%g to %d at g=%g",
						fine[i].Row, fine[i].Occurrences, g, coarse[i].Occurrences, g*k)
				}
			}
		}
	}
	return p
}

func validateDisplayOrder(table *domain.Table, sizes []float64) *phase {
	p := &phase{name: "Display order"}
	for _, g := range sizes {
		rows, err := grid.Aggregate(table, g)
		if err != nil {
			p.errorf("g=%g: %v", g, err)
			continue
		}
		grid.SortForDisplay(rows)
		for i := 1; i < len(rows); i++ {
			a, b := rows[i-1], rows[i]
			if a.Occurrences < b.Occurrences || (a.Occurrences == b.Occurrences && a.State > b.State) {
				p.errorf("g=%g: rows %d and %d out of order", g, a.Row, b.Row)
				break
			}
		}
	}
	return p
}

func validateCharts(table *domain.Table) *phase {
	p := &phase{name: "Chart consistency"}

	withShape, withTime, withDuration := 0, 0, 0
	for _, rec := range table.Records {
		if rec.Shape != nil {
			withShape++
		}
		if rec.Timestamp != nil {
			withTime++
		}
		if rec.DurationSeconds != nil {
			withDuration++
		}
	}

	if got := sumCounts(charts.ShapeCounts(table.Records)); got != withShape {
		p.errorf("shape counts sum to %d, %d rows have a shape", got, withShape)
	}

	yearly := 0
	for _, y := range charts.YearlySeries(table.Records) {
		yearly += y.Count
	}
	if yearly != withTime {
		p.errorf("yearly series sums to %d, %d rows have a timestamp", yearly, withTime)
	}

	hist, err := charts.DurationHistogram(table.Records, 30, 0)
	if err != nil {
		p.errorf("duration histogram: %v", err)
	} else if hist.Total != withDuration {
		p.errorf("duration histogram counts %d, %d rows have a duration", hist.Total, withDuration)
	}
	return p
}

func sumCounts(counts []charts.Count) int {
	total := 0
	for _, c := range counts {
		total += c.Count
	}
	return total
}
