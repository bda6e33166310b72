package http

import (
	"fmt"

	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/couchcryptid/ufo-sightings-dashboard/internal/dashboard"
)

// initialZoom is the map zoom the dashboard opens at.
const initialZoom = 2

// pointColor is the RGBA fill of the scatter points.
var pointColor = [4]int{200, 30, 0, 160}

type viewState struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Zoom      float64 `json:"zoom"`
}

type mapLayer struct {
	GridSize  float64                    `json:"grid_size"`
	ViewState viewState                  `json:"view_state"`
	Color     [4]int                     `json:"color"`
	Tooltip   string                     `json:"tooltip"`
	Data      *geojson.FeatureCollection `json:"data"`
}

// newMapLayer renders the scatter layer: one point per sighting at
// [longitude, latitude] carrying the radius and tooltip text.
func newMapLayer(gridSize float64, view dashboard.MapView) (mapLayer, error) {
	fc := &geojson.FeatureCollection{Features: make([]*geojson.Feature, 0, len(view.Rows))}
	for _, r := range view.Rows {
		if !r.HasCoordinates() {
			return mapLayer{}, fmt.Errorf("map row %d has no coordinates", r.Row)
		}
		point := geom.NewPointFlat(geom.XY, []float64{*r.Longitude, *r.Latitude})
		fc.Features = append(fc.Features, &geojson.Feature{
			ID:       fmt.Sprint(r.Row),
			Geometry: point,
			Properties: map[string]any{
				"occurrences": r.Occurrences,
				"radius":      r.Radius,
				"comments":    r.Comments,
				"shape":       r.Shape,
				"datetime":    r.DatetimeStr,
			},
		})
	}

	return mapLayer{
		GridSize: gridSize,
		ViewState: viewState{
			Latitude:  view.CenterLat,
			Longitude: view.CenterLon,
			Zoom:      initialZoom,
		},
		Color:   pointColor,
		Tooltip: "{comments}",
		Data:    fc,
	}, nil
}
