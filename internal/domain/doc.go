// Package domain models National UFO Reporting Center (NUFORC) sighting data.
//
// # Data Source
//
// The archive is the static NUFORC "complete.csv" export: one row per
// reported sighting, with a header row naming the columns. The file never
// changes while the dashboard runs, so it is loaded once and shared read-only.
//
// # NUFORC Data Conventions
//
// Columns:
//
//	datetime, city, state, country, shape, duration (seconds),
//	duration (hours/min), comments, date posted, latitude, longitude
//
// Time format:
//
//	"M/D/YYYY HH:MM" in local time of the report, e.g. "10/10/1949 20:30".
//	Some rows use "24:00" for midnight; these do not parse and become null.
//	The display rendition is "YYYY-MM-DD HH:MM:SS".
//
// Numeric columns:
//
//	"duration (seconds)", "latitude" and "longitude" are free text in the
//	export. Values like "33q.200088" or "2`" appear; anything that is not a
//	finite number becomes null rather than failing the load.
//
// Comments:
//
//	Free text with HTML numeric entities left in place, e.g. "&#44" for a
//	comma and "&#39" for an apostrophe.
//
// Missing values:
//
//	An empty country becomes the sentinel [UnknownCountry]. An empty shape is
//	null. Every other empty value is kept empty (or null for typed columns).
//
// # Derived State
//
// Occurrences and radius are computed per request from a grid size and are
// never stored on the loaded [Table]. See [BinnedSighting].
package domain
