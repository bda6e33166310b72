// Package archive reads the NUFORC sighting archive into a domain.Table and
// memoizes the result per file path.
package archive

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/jszwec/csvutil"

	"github.com/couchcryptid/ufo-sightings-dashboard/internal/domain"
	"github.com/couchcryptid/ufo-sightings-dashboard/internal/observability"
)

// requiredColumns must appear in the header; every other column is optional.
var requiredColumns = []string{"latitude", "longitude"}

// ctxCheckInterval is how many rows are decoded between cancellation checks.
const ctxCheckInterval = 4096

// Loader reads archive files from disk.
type Loader struct {
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewLoader creates a Loader.
func NewLoader(logger *slog.Logger, metrics *observability.Metrics) *Loader {
	return &Loader{logger: logger, metrics: metrics}
}

// Load reads and normalizes the archive at path. Malformed lines are skipped
// and counted on the returned table; an unreadable file is an error.
func (l *Loader) Load(ctx context.Context, path string) (*domain.Table, error) {
	start := time.Now()

	f, err := os.Open(path)
	if err != nil {
		l.metrics.ArchiveLoads.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("open archive: %w", err)
	}
	defer f.Close()

	records, skipped, err := Decode(ctx, f)
	if err != nil {
		l.metrics.ArchiveLoads.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("read archive %s: %w", path, err)
	}

	table := &domain.Table{
		Path:     path,
		Records:  records,
		Skipped:  skipped,
		LoadedAt: domain.Now(),
	}

	l.metrics.ArchiveLoads.WithLabelValues("success").Inc()
	l.metrics.ArchiveRows.Set(float64(len(records)))
	l.metrics.ArchiveSkippedLines.Add(float64(skipped))
	l.metrics.ArchiveLoadDuration.Observe(time.Since(start).Seconds())

	if skipped > 0 {
		l.logger.Warn("skipped malformed archive lines", "path", path, "skipped", skipped)
	}
	l.logger.Info("archive loaded",
		"path", path,
		"rows", len(records),
		"duration", time.Since(start),
	)

	return table, nil
}

// Decode parses archive CSV from r. It returns the normalized records in file
// order and the number of malformed lines it skipped.
func Decode(ctx context.Context, r io.Reader) ([]domain.Sighting, int, error) {
	reader := newLenientReader(r)

	header, err := reader.readHeader()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, 0, errors.New("archive is empty")
		}
		return nil, 0, fmt.Errorf("read header: %w", err)
	}
	if err := checkColumns(header); err != nil {
		return nil, 0, err
	}

	dec, err := csvutil.NewDecoder(reader, header...)
	if err != nil {
		return nil, 0, fmt.Errorf("create decoder: %w", err)
	}

	var records []domain.Sighting
	for {
		if len(records)%ctxCheckInterval == 0 && ctx.Err() != nil {
			return nil, reader.skipped, ctx.Err()
		}

		var rec domain.RawCSVRecord
		if err := dec.Decode(&rec); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, reader.skipped, fmt.Errorf("decode row %d: %w", len(records)+1, err)
		}
		records = append(records, domain.ParseRawRecord(len(records), rec))
	}

	return records, reader.skipped, nil
}

// checkColumns reports the first required column missing from header.
func checkColumns(header []string) error {
	present := make(map[string]bool, len(header))
	for _, h := range header {
		present[h] = true
	}
	for _, col := range requiredColumns {
		if !present[col] {
			return fmt.Errorf("archive header is missing column %q", col)
		}
	}
	return nil
}

// errMalformedLine marks a physical line that does not parse as one record.
var errMalformedLine = errors.New("malformed line")

// lenientReader feeds csvutil only well-formed records. Each physical line is
// parsed on its own, so an unterminated quote costs exactly that line instead
// of swallowing the rows after it. Lines that fail to parse, or have more
// fields than the header, are skipped and counted. Short lines are padded with
// empty fields. Quoted fields cannot span lines; NUFORC exports escape commas
// and never embed newlines.
type lenientReader struct {
	r       *bufio.Reader
	width   int
	skipped int
}

func newLenientReader(r io.Reader) *lenientReader {
	return &lenientReader{r: bufio.NewReader(r)}
}

// readHeader reads the first record and normalizes the column names. NUFORC
// exports carry stray whitespace, e.g. "longitude ".
func (lr *lenientReader) readHeader() ([]string, error) {
	header, err := lr.readRecord()
	if err != nil {
		return nil, err
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	for i, h := range header {
		header[i] = strings.ToLower(strings.TrimSpace(h))
	}
	lr.width = len(header)
	return header, nil
}

// Read implements csvutil.Reader.
func (lr *lenientReader) Read() ([]string, error) {
	for {
		record, err := lr.readRecord()
		if errors.Is(err, errMalformedLine) {
			lr.skipped++
			continue
		}
		if err != nil {
			return nil, err
		}

		switch {
		case len(record) > lr.width:
			lr.skipped++
			continue
		case len(record) < lr.width:
			padded := make([]string, lr.width)
			copy(padded, record)
			record = padded
		}
		return record, nil
	}
}

// readRecord returns the next non-blank line parsed as one record.
func (lr *lenientReader) readRecord() ([]string, error) {
	for {
		line, err := lr.r.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, err
		}
		if strings.TrimRight(line, "\r\n") == "" {
			if err != nil {
				return nil, err
			}
			continue
		}
		return parseLine(line)
	}
}

// parseLine parses one physical line. Stray quotes inside a field are kept;
// a quote left open swallows the line terminator, which marks it malformed.
func parseLine(line string) ([]string, error) {
	if !strings.HasSuffix(line, "\n") {
		line += "\n"
	}
	cr := csv.NewReader(strings.NewReader(line))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	record, err := cr.Read()
	if err != nil {
		return nil, errMalformedLine
	}
	for _, field := range record {
		if strings.ContainsAny(field, "\r\n") {
			return nil, errMalformedLine
		}
	}
	return record, nil
}
