package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"

	"github.com/couchcryptid/ufo-sightings-dashboard/internal/charts"
	"github.com/couchcryptid/ufo-sightings-dashboard/internal/dashboard"
	"github.com/couchcryptid/ufo-sightings-dashboard/internal/domain"
	"github.com/couchcryptid/ufo-sightings-dashboard/internal/grid"
)

const (
	defaultPageSize    = 100
	maxPageSize        = 5000
	defaultHotspots    = 25
	defaultDurationBkt = 30
)

// Dashboard is the read side the API serves.
type Dashboard interface {
	Aggregate(ctx context.Context, gridSize float64) ([]domain.BinnedSighting, error)
	Map(ctx context.Context, gridSize float64) (dashboard.MapView, error)
	Hotspots(ctx context.Context, gridSize float64, limit int) ([]dashboard.Hotspot, error)
	Shapes(ctx context.Context) ([]charts.Count, error)
	Words(ctx context.Context, limit int) ([]charts.Count, error)
	Durations(ctx context.Context, buckets int, clip float64) (charts.Histogram, error)
	Yearly(ctx context.Context) ([]charts.YearCount, error)
	CheckReadiness(ctx context.Context) error
}

var errBadParam = errors.New("invalid query parameter")

type sightingsPage struct {
	GridSize float64                 `json:"grid_size"`
	Total    int                     `json:"total"`
	Offset   int                     `json:"offset"`
	Limit    int                     `json:"limit"`
	Rows     []domain.BinnedSighting `json:"rows"`
}

func (s *Server) handleControl(w http.ResponseWriter, _ *http.Request) {
	sharedobs.WriteJSON(w, http.StatusOK, dashboard.GridSizeControl)
}

func (s *Server) handleSightings(w http.ResponseWriter, r *http.Request) {
	gridSize, err := gridSizeParam(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	limit, err := intParam(r, "limit", defaultPageSize, 1, maxPageSize)
	if err != nil {
		s.writeError(w, err)
		return
	}
	offset, err := intParam(r, "offset", 0, 0, -1)
	if err != nil {
		s.writeError(w, err)
		return
	}

	rows, err := s.dashboard.Aggregate(r.Context(), gridSize)
	if err != nil {
		s.writeError(w, err)
		return
	}

	page := sightingsPage{GridSize: gridSize, Total: len(rows), Offset: offset, Limit: limit}
	start := min(offset, len(rows))
	end := min(start+limit, len(rows))
	page.Rows = rows[start:end]
	sharedobs.WriteJSON(w, http.StatusOK, page)
}

func (s *Server) handleMap(w http.ResponseWriter, r *http.Request) {
	gridSize, err := gridSizeParam(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	view, err := s.dashboard.Map(r.Context(), gridSize)
	if err != nil {
		s.writeError(w, err)
		return
	}

	layer, err := newMapLayer(gridSize, view)
	if err != nil {
		s.writeError(w, err)
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, layer)
}

func (s *Server) handleHotspots(w http.ResponseWriter, r *http.Request) {
	gridSize, err := gridSizeParam(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	limit, err := intParam(r, "limit", defaultHotspots, 1, maxPageSize)
	if err != nil {
		s.writeError(w, err)
		return
	}

	hotspots, err := s.dashboard.Hotspots(r.Context(), gridSize, limit)
	if err != nil {
		s.writeError(w, err)
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, hotspots)
}

func (s *Server) handleShapes(w http.ResponseWriter, r *http.Request) {
	counts, err := s.dashboard.Shapes(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, counts)
}

func (s *Server) handleWords(w http.ResponseWriter, r *http.Request) {
	limit, err := intParam(r, "limit", charts.DefaultWordLimit, 1, maxPageSize)
	if err != nil {
		s.writeError(w, err)
		return
	}

	counts, err := s.dashboard.Words(r.Context(), limit)
	if err != nil {
		s.writeError(w, err)
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, counts)
}

func (s *Server) handleDurations(w http.ResponseWriter, r *http.Request) {
	buckets, err := intParam(r, "buckets", defaultDurationBkt, 1, 1000)
	if err != nil {
		s.writeError(w, err)
		return
	}
	clip, err := floatParam(r, "max", 0)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if clip < 0 {
		s.writeError(w, fmt.Errorf("%w: max must not be negative", errBadParam))
		return
	}

	hist, err := s.dashboard.Durations(r.Context(), buckets, clip)
	if err != nil {
		s.writeError(w, err)
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, hist)
}

func (s *Server) handleYearly(w http.ResponseWriter, r *http.Request) {
	series, err := s.dashboard.Yearly(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, series)
}

// writeError maps validation failures to 400 and everything else to 500.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	if isBadRequest(err) {
		sharedobs.WriteJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	s.logger.Error("request failed", "error", err)
	sharedobs.WriteJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
}

func isBadRequest(err error) bool {
	return errors.Is(err, errBadParam) ||
		errors.Is(err, dashboard.ErrInvalidControl) ||
		errors.Is(err, grid.ErrInvalidGridSize) ||
		errors.Is(err, charts.ErrInvalidBuckets)
}

func gridSizeParam(r *http.Request) (float64, error) {
	return floatParam(r, "grid_size", dashboard.GridSizeControl.Default)
}

func floatParam(r *http.Request, name string, def float64) (float64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%q is not a number", errBadParam, name, raw)
	}
	return v, nil
}

// intParam parses an integer query parameter within [lo, hi]. A negative hi
// leaves the upper bound open.
func intParam(r *http.Request, name string, def, lo, hi int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%q is not an integer", errBadParam, name, raw)
	}
	if v < lo || (hi >= 0 && v > hi) {
		return 0, fmt.Errorf("%w: %s=%d is out of range", errBadParam, name, v)
	}
	return v, nil
}
