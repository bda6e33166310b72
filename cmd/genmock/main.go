// Command genmock writes a deterministic synthetic sightings archive in the
// NUFORC CSV layout, including the data-quality defects the loader must
// tolerate: missing shapes, unparseable coordinates and durations, 24:00
// timestamps and HTML-escaped commas in comments.
//
// Usage:
//
//	go run ./cmd/genmock -out data/mock/sightings.csv -rows 5000 -seed 1947
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/jszwec/csvutil"

	"github.com/couchcryptid/ufo-sightings-dashboard/internal/domain"
)

// region is a sighting cluster: points scatter around the center by up to
// spread degrees.
type region struct {
	city, state, country string
	lat, lon, spread     float64
	weight               int
}

var regions = []region{
	{"seattle", "wa", "us", 47.61, -122.33, 1.5, 9},
	{"phoenix", "az", "us", 33.45, -112.07, 2.0, 8},
	{"los angeles", "ca", "us", 34.05, -118.24, 1.5, 12},
	{"roswell", "nm", "us", 33.39, -104.52, 1.0, 4},
	{"houston", "tx", "us", 29.76, -95.37, 2.5, 7},
	{"chicago", "il", "us", 41.88, -87.63, 1.5, 6},
	{"new york city", "ny", "us", 40.71, -74.01, 1.0, 7},
	{"miami", "fl", "us", 25.76, -80.19, 2.0, 6},
	{"toronto", "on", "ca", 43.65, -79.38, 1.5, 3},
	{"london", "", "gb", 51.51, -0.13, 1.0, 2},
	{"sydney", "nsw", "au", -33.87, 151.21, 1.0, 1},
	{"honolulu", "hi", "", 21.31, -157.86, 0.5, 1},
}

var shapes = []string{
	"light", "circle", "triangle", "fireball", "unknown", "sphere", "disk",
	"oval", "formation", "cigar", "changing", "flash", "cylinder", "rectangle",
	"diamond", "chevron", "egg", "teardrop", "cone", "cross",
}

var durations = []struct {
	seconds string
	text    string
}{
	{"5", "5 seconds"}, {"30", "30 sec."}, {"60", "1 minute"}, {"120", "2 minutes"},
	{"300", "5 min"}, {"900", "15 minutes"}, {"1800", "1/2 hour"}, {"3600", "1 hour"},
	{"7200", "2 hrs"}, {"2`", "2 sec"},
}

var comments = []string{
	"Bright orange light moving slowly across the sky then vanished",
	"Silver disk hovered over the lake&#44 no sound",
	"Three lights in a triangle formation passed overhead",
	"Fireball descending toward the horizon&#44 broke into pieces",
	"Pulsating white sphere followed our car for several miles",
	"Cigar shaped object with red lights at each end",
	"Stationary light changed colors from red to green to blue",
	"Large chevron silently blocked out the stars",
	"((NUFORC Note:  Witness elects to remain totally anonymous.  PD))",
	"",
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	out := flag.String("out", "", "output path for the synthetic archive CSV")
	rows := flag.Int("rows", 5000, "number of sighting rows to generate")
	seed := flag.Uint64("seed", 1947, "random seed")
	flag.Parse()

	if *out == "" || *rows <= 0 {
		flag.Usage()
		return fmt.Errorf("missing required flag -out or invalid -rows")
	}

	records := generate(rand.New(rand.NewPCG(*seed, *seed^0x5eed)), *rows)

	if err := writeCSV(*out, records); err != nil {
		return fmt.Errorf("writing archive: %w", err)
	}
	log.Printf("wrote %d rows to %s", len(records), *out)

	printStats(records)
	return nil
}

func generate(rng *rand.Rand, n int) []domain.RawCSVRecord {
	totalWeight := 0
	for _, r := range regions {
		totalWeight += r.weight
	}

	start := time.Date(1949, time.October, 10, 20, 30, 0, 0, time.UTC)
	span := time.Date(2014, time.May, 8, 0, 0, 0, 0, time.UTC).Sub(start)

	records := make([]domain.RawCSVRecord, 0, n)
	for range n {
		reg := pickRegion(rng, totalWeight)
		at := start.Add(time.Duration(rng.Int64N(int64(span)))).Truncate(time.Minute)
		dur := durations[rng.IntN(len(durations))]

		rec := domain.RawCSVRecord{
			Datetime:        formatNUFORC(at),
			City:            reg.city,
			State:           reg.state,
			Country:         reg.country,
			Shape:           shapes[rng.IntN(len(shapes))],
			DurationSeconds: dur.seconds,
			DurationText:    dur.text,
			Comments:        comments[rng.IntN(len(comments))],
			DatePosted:      at.AddDate(0, rng.IntN(24), rng.IntN(28)).Format("1/2/2006"),
			Latitude:        formatCoord(reg.lat + (rng.Float64()*2-1)*reg.spread),
			Longitude:       formatCoord(reg.lon + (rng.Float64()*2-1)*reg.spread),
		}

		// Defects seen in the real archive, at roughly their observed rates.
		switch p := rng.Float64(); {
		case p < 0.02:
			rec.Shape = ""
		case p < 0.03:
			rec.Latitude = "33q.2001"
		case p < 0.035:
			rec.Datetime = at.Format("1/2/2006") + " 24:00"
		case p < 0.04:
			rec.Latitude, rec.Longitude = "", ""
		}
		records = append(records, rec)
	}
	return records
}

func pickRegion(rng *rand.Rand, totalWeight int) region {
	w := rng.IntN(totalWeight)
	for _, r := range regions {
		if w < r.weight {
			return r
		}
		w -= r.weight
	}
	return regions[len(regions)-1]
}

func formatNUFORC(t time.Time) string {
	return t.Format("1/2/2006 15:04")
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', 7, 64)
}

func writeCSV(path string, records []domain.RawCSVRecord) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := csvutil.NewEncoder(w).Encode(records); err != nil {
		return err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return f.Close()
}

func printStats(records []domain.RawCSVRecord) {
	stateCounts := map[string]int{}
	noShape, noCoords := 0, 0
	for i, rec := range records {
		parsed := domain.ParseRawRecord(i, rec)
		stateCounts[rec.State]++
		if parsed.Shape == nil {
			noShape++
		}
		if !parsed.HasCoordinates() {
			noCoords++
		}
	}

	fmt.Printf("\n=== Summary ===\n")
	fmt.Printf("rows: %d\n", len(records))
	fmt.Printf("without shape: %d\n", noShape)
	fmt.Printf("without coordinates: %d\n", noCoords)
	fmt.Printf("states: %d\n", len(stateCounts))
}
