// Package charts derives the descriptive series the dashboard renders next to
// the map. All builders include rows without coordinates.
package charts

import (
	"errors"
	"math"
	"sort"

	"github.com/couchcryptid/ufo-sightings-dashboard/internal/domain"
)

// ErrInvalidBuckets is returned when a histogram is requested with fewer than one bucket.
var ErrInvalidBuckets = errors.New("histogram needs at least one bucket")

// Count is a label with its number of occurrences.
type Count struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// ShapeCounts returns the value counts of the non-null shape column, most
// frequent first, ties broken alphabetically.
func ShapeCounts(records []domain.Sighting) []Count {
	counts := make(map[string]int)
	for _, rec := range records {
		if rec.Shape != nil {
			counts[*rec.Shape]++
		}
	}
	return sortedCounts(counts)
}

func sortedCounts(counts map[string]int) []Count {
	out := make([]Count, 0, len(counts))
	for label, n := range counts {
		out = append(out, Count{Label: label, Count: n})
	}
	sort.Slice(out, func(a, b int) bool {
		if out[a].Count != out[b].Count {
			return out[a].Count > out[b].Count
		}
		return out[a].Label < out[b].Label
	})
	return out
}

// Bucket is one histogram interval [Lower, Upper). The last bucket includes Upper.
type Bucket struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
	Count int     `json:"count"`
}

// Histogram is an equal-width histogram over the non-null durations.
type Histogram struct {
	Buckets []Bucket `json:"buckets"`
	Total   int      `json:"total"`   // values counted
	Clipped int      `json:"clipped"` // values above the clip limit, not counted
}

// DurationHistogram buckets the non-null "duration (seconds)" values into n
// equal-width intervals spanning the observed range. When clip is positive,
// values above it are left out and counted in Clipped.
func DurationHistogram(records []domain.Sighting, n int, clip float64) (Histogram, error) {
	if n < 1 {
		return Histogram{}, ErrInvalidBuckets
	}

	values := make([]float64, 0, len(records))
	var clipped int
	for _, rec := range records {
		if rec.DurationSeconds == nil {
			continue
		}
		v := *rec.DurationSeconds
		if clip > 0 && v > clip {
			clipped++
			continue
		}
		values = append(values, v)
	}

	h := Histogram{Total: len(values), Clipped: clipped}
	if len(values) == 0 {
		h.Buckets = []Bucket{}
		return h, nil
	}

	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if hi == lo {
		// A single distinct value still gets a non-empty interval.
		hi = lo + 1
	}

	width := (hi - lo) / float64(n)
	h.Buckets = make([]Bucket, n)
	for i := range h.Buckets {
		h.Buckets[i].Lower = lo + float64(i)*width
		h.Buckets[i].Upper = lo + float64(i+1)*width
	}
	h.Buckets[n-1].Upper = hi

	for _, v := range values {
		i := int((v - lo) / width)
		if i >= n {
			i = n - 1
		}
		h.Buckets[i].Count++
	}
	return h, nil
}

// YearCount is the number of sightings in one calendar year.
type YearCount struct {
	Year  int `json:"year"`
	Count int `json:"count"`
}

// YearlySeries counts sightings per year from the earliest to the latest
// non-null timestamp. Years with no sightings are present with a zero count.
func YearlySeries(records []domain.Sighting) []YearCount {
	counts := make(map[int]int)
	first, last := math.MaxInt, math.MinInt
	for _, rec := range records {
		if rec.Timestamp == nil {
			continue
		}
		y := rec.Timestamp.Year()
		counts[y]++
		first = min(first, y)
		last = max(last, y)
	}
	if len(counts) == 0 {
		return []YearCount{}
	}

	out := make([]YearCount, 0, last-first+1)
	for y := first; y <= last; y++ {
		out = append(out, YearCount{Year: y, Count: counts[y]})
	}
	return out
}
