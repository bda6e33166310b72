package charts

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/ufo-sightings-dashboard/internal/domain"
)

func ptr[T any](v T) *T { return &v }

func at(year int) *time.Time {
	t := time.Date(year, time.June, 1, 21, 0, 0, 0, time.UTC)
	return &t
}

func TestShapeCounts(t *testing.T) {
	records := []domain.Sighting{
		{Shape: ptr("light")},
		{Shape: ptr("circle")},
		{Shape: ptr("light")},
		{Shape: nil},
		{Shape: ptr("disk")},
		{Shape: ptr("circle")},
		{Shape: ptr("light")},
	}

	got := ShapeCounts(records)

	want := []Count{
		{Label: "light", Count: 3},
		{Label: "circle", Count: 2},
		{Label: "disk", Count: 1},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("shape counts mismatch (-want +got):\n%s", diff)
	}
}

func TestShapeCounts_Empty(t *testing.T) {
	assert.Empty(t, ShapeCounts(nil))
}

func TestDurationHistogram(t *testing.T) {
	records := []domain.Sighting{
		{DurationSeconds: ptr(0.0)},
		{DurationSeconds: ptr(10.0)},
		{DurationSeconds: ptr(49.0)},
		{DurationSeconds: ptr(50.0)},
		{DurationSeconds: ptr(100.0)},
		{DurationSeconds: nil},
	}

	h, err := DurationHistogram(records, 2, 0)
	require.NoError(t, err)

	require.Len(t, h.Buckets, 2)
	assert.Equal(t, 5, h.Total)
	assert.Zero(t, h.Clipped)
	assert.Equal(t, Bucket{Lower: 0, Upper: 50, Count: 3}, h.Buckets[0])
	assert.Equal(t, Bucket{Lower: 50, Upper: 100, Count: 2}, h.Buckets[1], "maximum lands in the last bucket")
}

func TestDurationHistogram_Clip(t *testing.T) {
	records := []domain.Sighting{
		{DurationSeconds: ptr(30.0)},
		{DurationSeconds: ptr(60.0)},
		{DurationSeconds: ptr(97836000.0)},
	}

	h, err := DurationHistogram(records, 3, 3600)
	require.NoError(t, err)

	assert.Equal(t, 2, h.Total)
	assert.Equal(t, 1, h.Clipped)
	assert.InDelta(t, 60, h.Buckets[2].Upper, 1e-9)
}

func TestDurationHistogram_SingleValue(t *testing.T) {
	h, err := DurationHistogram([]domain.Sighting{{DurationSeconds: ptr(5.0)}, {DurationSeconds: ptr(5.0)}}, 4, 0)
	require.NoError(t, err)

	total := 0
	for _, b := range h.Buckets {
		total += b.Count
	}
	assert.Equal(t, 2, total)
	assert.InDelta(t, 5, h.Buckets[0].Lower, 1e-9)
	assert.InDelta(t, 6, h.Buckets[3].Upper, 1e-9)
}

func TestDurationHistogram_NoValues(t *testing.T) {
	h, err := DurationHistogram([]domain.Sighting{{}}, 10, 0)
	require.NoError(t, err)
	assert.Empty(t, h.Buckets)
	assert.NotNil(t, h.Buckets)
	assert.Zero(t, h.Total)
}

func TestDurationHistogram_InvalidBuckets(t *testing.T) {
	_, err := DurationHistogram(nil, 0, 0)
	require.ErrorIs(t, err, ErrInvalidBuckets)
}

func TestYearlySeries(t *testing.T) {
	records := []domain.Sighting{
		{Timestamp: at(1999)},
		{Timestamp: at(1995)},
		{Timestamp: nil},
		{Timestamp: at(1999)},
		{Timestamp: at(1997)},
	}

	got := YearlySeries(records)

	want := []YearCount{
		{Year: 1995, Count: 1},
		{Year: 1996, Count: 0},
		{Year: 1997, Count: 1},
		{Year: 1998, Count: 0},
		{Year: 1999, Count: 2},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("yearly series mismatch (-want +got):\n%s", diff)
	}
}

func TestYearlySeries_NoTimestamps(t *testing.T) {
	got := YearlySeries([]domain.Sighting{{}, {}})
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestChartsIncludeRowsWithoutCoordinates(t *testing.T) {
	record := domain.Sighting{
		Shape:           ptr("disk"),
		DurationSeconds: ptr(30.0),
		Timestamp:       at(2001),
		Comments:        "Silver disk hovering",
	}
	require.False(t, record.HasCoordinates())

	records := []domain.Sighting{record}
	assert.Len(t, ShapeCounts(records), 1)
	assert.Len(t, YearlySeries(records), 1)
	assert.NotEmpty(t, WordFrequencies(records, 10))

	h, err := DurationHistogram(records, 1, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, h.Total)
}
