package domain

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// timestampLayouts are tried in order. NUFORC uses the first; the rest cover
// re-exported or hand-edited archives.
var timestampLayouts = []string{
	"1/2/2006 15:04",
	"1/2/2006 15:04:05",
	"1/2/2006",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	time.RFC3339,
}

// ParseRawRecord normalizes a raw archive row. It never fails: values that
// cannot be coerced become null.
func ParseRawRecord(row int, rec RawCSVRecord) Sighting {
	s := Sighting{
		Row:             row,
		Timestamp:       parseTimestamp(rec.Datetime),
		City:            strings.TrimSpace(rec.City),
		State:           strings.TrimSpace(rec.State),
		Country:         normalizeCountry(rec.Country),
		Shape:           stringOrNil(rec.Shape),
		DurationSeconds: parseFloatOrNil(rec.DurationSeconds),
		DurationText:    strings.TrimSpace(rec.DurationText),
		Comments:        rec.Comments,
		DatePosted:      strings.TrimSpace(rec.DatePosted),
		Latitude:        parseFloatOrNil(rec.Latitude),
		Longitude:       parseFloatOrNil(rec.Longitude),
	}
	if s.Timestamp != nil {
		s.DatetimeStr = s.Timestamp.Format(DisplayTimeLayout)
	}
	return s
}

// parseTimestamp returns nil for anything none of the layouts accept.
func parseTimestamp(value string) *time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return &t
		}
	}
	return nil
}

// parseFloatOrNil parses a string as float64, returning nil on failure or for
// non-finite values.
func parseFloatOrNil(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func stringOrNil(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func normalizeCountry(country string) string {
	country = strings.TrimSpace(country)
	if country == "" {
		return UnknownCountry
	}
	return country
}
