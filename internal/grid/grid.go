// Package grid bins sightings into fixed-size latitude/longitude cells and
// derives per-row occurrence counts and display radii.
//
// A cell is identified by the integer pair (floor(lat/size), floor(lon/size)).
// Cell edges sit at integer multiples of size, not at the half-multiples that
// rounding to the nearest multiple would give: at size 1, latitudes 0.6 and
// 1.4 fall in cells 0 and 1. Cells are anchored at the origin, so for any
// integer k >= 1 every cell at size s lies inside exactly one cell at size
// k*s: coarsening only merges.
package grid

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/couchcryptid/ufo-sightings-dashboard/internal/domain"
)

// ErrInvalidGridSize is returned when the grid size is not a positive finite number.
var ErrInvalidGridSize = errors.New("grid size must be a positive finite number")

// RadiusScale multiplies ln(occurrences+1) to produce a radius in map meters.
const RadiusScale = 1000.0

// Key identifies a grid cell.
type Key struct {
	Lat int64 `json:"lat"`
	Lon int64 `json:"lon"`
}

// CoordinateFunc extracts the coordinates to bin on. Either return may be nil.
type CoordinateFunc func(domain.Sighting) (lat, lon *float64)

type options struct {
	coords CoordinateFunc
}

// Option configures Aggregate and Bins.
type Option func(*options)

// WithCoordinates bins on coordinates other than Latitude/Longitude.
func WithCoordinates(fn CoordinateFunc) Option {
	return func(o *options) {
		if fn != nil {
			o.coords = fn
		}
	}
}

func defaultCoordinates(s domain.Sighting) (*float64, *float64) {
	return s.Latitude, s.Longitude
}

func buildOptions(opts []Option) options {
	o := options{coords: defaultCoordinates}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// ValidateGridSize rejects sizes that would make the cell division meaningless.
func ValidateGridSize(gridSize float64) error {
	if gridSize <= 0 || math.IsNaN(gridSize) || math.IsInf(gridSize, 0) {
		return fmt.Errorf("%w: got %v", ErrInvalidGridSize, gridSize)
	}
	return nil
}

// KeyFor returns the cell containing (lat, lon) at gridSize. The second
// result is false when either coordinate is missing or the cell index
// overflows int64.
func KeyFor(lat, lon *float64, gridSize float64) (Key, bool) {
	if lat == nil || lon == nil {
		return Key{}, false
	}
	i, ok := cellIndex(*lat, gridSize)
	if !ok {
		return Key{}, false
	}
	j, ok := cellIndex(*lon, gridSize)
	if !ok {
		return Key{}, false
	}
	return Key{Lat: i, Lon: j}, true
}

func cellIndex(v, gridSize float64) (int64, bool) {
	f := math.Floor(v / gridSize)
	if math.IsNaN(f) || f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, false
	}
	return int64(f), true
}

// Radius returns the display radius for a cell holding occurrences rows.
func Radius(occurrences int) float64 {
	return math.Log(float64(occurrences)+1) * RadiusScale
}

// Aggregate returns a copy of the table's records with Occurrences and Radius
// set. Rows without coordinates get zero for both and are not counted in any
// cell. Order and length match table.Records; the table is not modified.
func Aggregate(table *domain.Table, gridSize float64, opts ...Option) ([]domain.BinnedSighting, error) {
	if err := ValidateGridSize(gridSize); err != nil {
		return nil, err
	}
	o := buildOptions(opts)

	records := tableRecords(table)
	keys := make([]Key, len(records))
	binned := make([]bool, len(records))
	counts := make(map[Key]int)

	for i, rec := range records {
		lat, lon := o.coords(rec)
		key, ok := KeyFor(lat, lon, gridSize)
		if !ok {
			continue
		}
		keys[i], binned[i] = key, true
		counts[key]++
	}

	out := make([]domain.BinnedSighting, len(records))
	for i, rec := range records {
		out[i] = domain.BinnedSighting{Sighting: rec}
		if !binned[i] {
			continue
		}
		n := counts[keys[i]]
		out[i].Occurrences = n
		out[i].Radius = Radius(n)
	}
	return out, nil
}

// Bin summarizes one occupied cell.
type Bin struct {
	Key       Key     `json:"key"`
	Count     int     `json:"count"`
	CenterLat float64 `json:"center_lat"`
	CenterLon float64 `json:"center_lon"`
	Radius    float64 `json:"radius"`
}

// Bins returns the occupied cells ordered by count descending, then by key.
func Bins(table *domain.Table, gridSize float64, opts ...Option) ([]Bin, error) {
	if err := ValidateGridSize(gridSize); err != nil {
		return nil, err
	}
	o := buildOptions(opts)

	counts := make(map[Key]int)
	for _, rec := range tableRecords(table) {
		lat, lon := o.coords(rec)
		if key, ok := KeyFor(lat, lon, gridSize); ok {
			counts[key]++
		}
	}

	bins := make([]Bin, 0, len(counts))
	for key, n := range counts {
		bins = append(bins, Bin{
			Key:       key,
			Count:     n,
			CenterLat: (float64(key.Lat) + 0.5) * gridSize,
			CenterLon: (float64(key.Lon) + 0.5) * gridSize,
			Radius:    Radius(n),
		})
	}
	sort.Slice(bins, func(a, b int) bool {
		if bins[a].Count != bins[b].Count {
			return bins[a].Count > bins[b].Count
		}
		if bins[a].Key.Lat != bins[b].Key.Lat {
			return bins[a].Key.Lat < bins[b].Key.Lat
		}
		return bins[a].Key.Lon < bins[b].Key.Lon
	})
	return bins, nil
}

// SortForDisplay orders rows by occurrences descending, then state ascending.
// Ties keep input order. rows is sorted in place.
func SortForDisplay(rows []domain.BinnedSighting) {
	sort.SliceStable(rows, func(a, b int) bool {
		if rows[a].Occurrences != rows[b].Occurrences {
			return rows[a].Occurrences > rows[b].Occurrences
		}
		return rows[a].State < rows[b].State
	})
}

func tableRecords(table *domain.Table) []domain.Sighting {
	if table == nil {
		return nil
	}
	return table.Records
}
