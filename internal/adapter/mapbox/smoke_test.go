//go:build mapbox

package mapbox

import (
	"context"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/ufo-sightings-dashboard/internal/observability"
)

// These tests hit the real Mapbox API and require a valid MAPBOX_TOKEN env var.
// Run with: go test -tags=mapbox ./internal/adapter/mapbox/ -v -count=1

func smokeClient(t *testing.T) *Client {
	t.Helper()
	token := os.Getenv("MAPBOX_TOKEN")
	if token == "" {
		t.Fatal("MAPBOX_TOKEN must be set to run smoke tests")
	}
	return NewClient(token, 10*time.Second, observability.NewMetricsForTesting(), slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestSmoke_ReverseGeocode_Roswell(t *testing.T) {
	result, err := smokeClient(t).ReverseGeocode(context.Background(), 33.3943, -104.5230)
	require.NoError(t, err)

	assert.Contains(t, result.FormattedAddress, "New Mexico")
	assert.NotEmpty(t, result.PlaceName)
	assert.Greater(t, result.Confidence, 0.0)
}

func TestSmoke_ReverseGeocode_OpenOcean(t *testing.T) {
	// Mid-Pacific cell centers may have no place; either answer is fine.
	_, err := smokeClient(t).ReverseGeocode(context.Background(), -42.5, -137.5)
	require.NoError(t, err)
}

func TestSmoke_CachedGeocoder(t *testing.T) {
	cached := NewCachedGeocoder(smokeClient(t), 10, observability.NewMetricsForTesting())

	r1, err := cached.ReverseGeocode(context.Background(), 32.7767, -96.7970)
	require.NoError(t, err)
	assert.Contains(t, r1.FormattedAddress, "Texas")

	r2, err := cached.ReverseGeocode(context.Background(), 32.7767, -96.7970)
	require.NoError(t, err)
	assert.Equal(t, r1, r2)
}
