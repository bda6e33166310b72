package domain

import "time"

// UnknownCountry fills the country column when the archive leaves it empty.
const UnknownCountry = "unknown"

// DisplayTimeLayout is the layout of Sighting.DatetimeStr.
const DisplayTimeLayout = "2006-01-02 15:04:05"

// RawCSVRecord is one archive row as text, decoded by column name.
type RawCSVRecord struct {
	Datetime        string `csv:"datetime"`
	City            string `csv:"city"`
	State           string `csv:"state"`
	Country         string `csv:"country"`
	Shape           string `csv:"shape"`
	DurationSeconds string `csv:"duration (seconds)"`
	DurationText    string `csv:"duration (hours/min)"`
	Comments        string `csv:"comments"`
	DatePosted      string `csv:"date posted"`
	Latitude        string `csv:"latitude"`
	Longitude       string `csv:"longitude"`
}

// Sighting is a normalized archive row. Nil pointers are null values.
type Sighting struct {
	Row             int        `json:"row"`
	Timestamp       *time.Time `json:"datetime"`
	DatetimeStr     string     `json:"datetime_str"`
	City            string     `json:"city,omitempty"`
	State           string     `json:"state,omitempty"`
	Country         string     `json:"country"`
	Shape           *string    `json:"shape"`
	DurationSeconds *float64   `json:"duration_seconds"`
	DurationText    string     `json:"duration_text,omitempty"`
	Comments        string     `json:"comments,omitempty"`
	DatePosted      string     `json:"date_posted,omitempty"`
	Latitude        *float64   `json:"latitude"`
	Longitude       *float64   `json:"longitude"`
}

// HasCoordinates reports whether both latitude and longitude are present.
func (s Sighting) HasCoordinates() bool {
	return s.Latitude != nil && s.Longitude != nil
}

// Table is the loaded archive. Records are immutable once loaded.
type Table struct {
	Path     string
	Records  []Sighting
	Skipped  int // malformed lines dropped while reading
	LoadedAt time.Time
}

// Len returns the number of records.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Records)
}

// BinnedSighting is a sighting with the grid-derived display columns.
type BinnedSighting struct {
	Sighting
	Occurrences int     `json:"occurrences"`
	Radius      float64 `json:"radius"`
}
