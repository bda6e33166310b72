// Package dashboard answers the per-interaction questions the UI asks: the
// archive is read once through a cache, and every grid size change recomputes
// the aggregation and the views built on it.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/ufo-sightings-dashboard/internal/charts"
	"github.com/couchcryptid/ufo-sightings-dashboard/internal/domain"
	"github.com/couchcryptid/ufo-sightings-dashboard/internal/grid"
	"github.com/couchcryptid/ufo-sightings-dashboard/internal/observability"
)

// TableSource returns the loaded archive for a path.
type TableSource interface {
	Get(ctx context.Context, path string) (*domain.Table, error)
}

// Service serves dashboard views over one archive.
type Service struct {
	source   TableSource
	path     string
	geocoder domain.Geocoder
	logger   *slog.Logger
	metrics  *observability.Metrics
	ready    atomic.Bool
}

// New creates a Service reading the archive at path. Pass a nil geocoder to
// leave hotspots unlabeled.
func New(source TableSource, path string, geocoder domain.Geocoder, logger *slog.Logger, metrics *observability.Metrics) *Service {
	if geocoder != nil {
		metrics.GeocodeEnabled.Set(1)
	} else {
		metrics.GeocodeEnabled.Set(0)
	}
	return &Service{
		source:   source,
		path:     path,
		geocoder: geocoder,
		logger:   logger,
		metrics:  metrics,
	}
}

// Warm loads the archive so the first interaction does not pay for it.
func (s *Service) Warm(ctx context.Context) error {
	_, err := s.Table(ctx)
	return err
}

// CheckReadiness returns nil once the archive has been loaded.
func (s *Service) CheckReadiness(_ context.Context) error {
	if !s.ready.Load() {
		return errors.New("archive has not been loaded yet")
	}
	return nil
}

// Table returns the cached archive. A failed load marks the service not
// ready until a later load succeeds.
func (s *Service) Table(ctx context.Context) (*domain.Table, error) {
	table, err := s.source.Get(ctx, s.path)
	if err != nil {
		s.ready.Store(false)
		return nil, fmt.Errorf("load archive: %w", err)
	}
	s.ready.Store(true)
	return table, nil
}

// Aggregate returns every sighting with occurrences and radius for gridSize,
// sorted for the table view: most occurrences first, then by state.
func (s *Service) Aggregate(ctx context.Context, gridSize float64) ([]domain.BinnedSighting, error) {
	rows, err := s.aggregate(ctx, gridSize)
	if err != nil {
		return nil, err
	}
	grid.SortForDisplay(rows)
	return rows, nil
}

// MapView is the scatter layer input: rows with coordinates, in archive
// order, and the initial view center.
type MapView struct {
	Rows      []domain.BinnedSighting
	CenterLat float64
	CenterLon float64
}

// Map returns the map layer for gridSize. Rows without coordinates are left
// out; the center is the mean of the remaining coordinates.
func (s *Service) Map(ctx context.Context, gridSize float64) (MapView, error) {
	rows, err := s.aggregate(ctx, gridSize)
	if err != nil {
		return MapView{}, err
	}

	view := MapView{Rows: make([]domain.BinnedSighting, 0, len(rows))}
	var sumLat, sumLon float64
	for _, r := range rows {
		if !r.HasCoordinates() {
			continue
		}
		view.Rows = append(view.Rows, r)
		sumLat += *r.Latitude
		sumLon += *r.Longitude
	}
	if n := len(view.Rows); n > 0 {
		view.CenterLat = sumLat / float64(n)
		view.CenterLon = sumLon / float64(n)
	}
	return view, nil
}

// Hotspot is an occupied grid cell, optionally labeled with a place name.
type Hotspot struct {
	grid.Bin
	Label     string `json:"label,omitempty"`
	PlaceName string `json:"place_name,omitempty"`
}

// Hotspots returns the limit densest cells at gridSize. When a geocoder is
// configured each cell center is labeled; lookup failures leave it unlabeled.
func (s *Service) Hotspots(ctx context.Context, gridSize float64, limit int) ([]Hotspot, error) {
	if err := s.validate(gridSize); err != nil {
		return nil, err
	}
	table, err := s.Table(ctx)
	if err != nil {
		return nil, err
	}
	bins, err := grid.Bins(table, gridSize)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(bins) > limit {
		bins = bins[:limit]
	}

	hotspots := make([]Hotspot, len(bins))
	for i, b := range bins {
		hotspots[i] = s.label(ctx, b)
	}
	return hotspots, nil
}

func (s *Service) label(ctx context.Context, b grid.Bin) Hotspot {
	h := Hotspot{Bin: b}
	if s.geocoder == nil {
		return h
	}

	result, err := s.geocoder.ReverseGeocode(ctx, b.CenterLat, b.CenterLon)
	if err != nil {
		s.metrics.GeocodeRequests.WithLabelValues("error").Inc()
		s.logger.Warn("reverse geocoding failed",
			"lat", b.CenterLat,
			"lon", b.CenterLon,
			"error", err,
		)
		return h
	}
	if result.FormattedAddress == "" {
		s.metrics.GeocodeRequests.WithLabelValues("empty").Inc()
		return h
	}
	s.metrics.GeocodeRequests.WithLabelValues("success").Inc()
	h.Label = result.FormattedAddress
	h.PlaceName = result.PlaceName
	return h
}

// Shapes returns the shape value counts.
func (s *Service) Shapes(ctx context.Context) ([]charts.Count, error) {
	table, err := s.Table(ctx)
	if err != nil {
		return nil, err
	}
	return charts.ShapeCounts(table.Records), nil
}

// Words returns the word cloud frequencies over the comments.
func (s *Service) Words(ctx context.Context, limit int) ([]charts.Count, error) {
	table, err := s.Table(ctx)
	if err != nil {
		return nil, err
	}
	return charts.WordFrequencies(table.Records, limit), nil
}

// Durations returns the duration histogram.
func (s *Service) Durations(ctx context.Context, buckets int, clip float64) (charts.Histogram, error) {
	table, err := s.Table(ctx)
	if err != nil {
		return charts.Histogram{}, err
	}
	return charts.DurationHistogram(table.Records, buckets, clip)
}

// Yearly returns the sightings-per-year series.
func (s *Service) Yearly(ctx context.Context) ([]charts.YearCount, error) {
	table, err := s.Table(ctx)
	if err != nil {
		return nil, err
	}
	return charts.YearlySeries(table.Records), nil
}

// aggregate validates the control, then bins the archive in archive order.
func (s *Service) aggregate(ctx context.Context, gridSize float64) ([]domain.BinnedSighting, error) {
	if err := s.validate(gridSize); err != nil {
		return nil, err
	}
	table, err := s.Table(ctx)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	rows, err := grid.Aggregate(table, gridSize)
	if err != nil {
		s.metrics.InvalidGridSizes.Inc()
		return nil, err
	}
	s.metrics.Aggregations.Inc()
	s.metrics.AggregationDuration.Observe(time.Since(start).Seconds())
	s.metrics.Bins.Set(float64(countBins(rows, gridSize)))

	s.logger.Debug("aggregation computed", "grid_size", gridSize, "rows", len(rows))
	return rows, nil
}

func (s *Service) validate(gridSize float64) error {
	if err := GridSizeControl.Validate(gridSize); err != nil {
		s.metrics.InvalidGridSizes.Inc()
		return err
	}
	return nil
}

// countBins counts distinct occupied cells.
func countBins(rows []domain.BinnedSighting, gridSize float64) int {
	cells := make(map[grid.Key]struct{})
	for _, r := range rows {
		if key, ok := grid.KeyFor(r.Latitude, r.Longitude, gridSize); ok {
			cells[key] = struct{}{}
		}
	}
	return len(cells)
}
