package mapbox

import (
	"container/list"
	"context"
	"math"
	"strconv"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/couchcryptid/ufo-sightings-dashboard/internal/domain"
	"github.com/couchcryptid/ufo-sightings-dashboard/internal/observability"
)

// CachedGeocoder wraps a Geocoder with an in-memory LRU cache keyed by
// coordinates rounded to six decimals. Concurrent lookups of the same point
// share one upstream request.
type CachedGeocoder struct {
	inner   domain.Geocoder
	metrics *observability.Metrics
	group   singleflight.Group

	mu    sync.Mutex
	max   int
	order *list.List // front is most recently used
	items map[point]*list.Element
}

type point struct {
	lat, lon int64
}

type cached struct {
	key    point
	result domain.GeocodingResult
}

// NewCachedGeocoder creates a cache decorator holding at most maxEntries places.
func NewCachedGeocoder(inner domain.Geocoder, maxEntries int, metrics *observability.Metrics) *CachedGeocoder {
	return &CachedGeocoder{
		inner:   inner,
		metrics: metrics,
		max:     max(maxEntries, 1),
		order:   list.New(),
		items:   make(map[point]*list.Element),
	}
}

// ReverseGeocode returns the cached place for (lat, lon) or asks the wrapped geocoder.
func (c *CachedGeocoder) ReverseGeocode(ctx context.Context, lat, lon float64) (domain.GeocodingResult, error) {
	key := point{lat: round6(lat), lon: round6(lon)}
	if result, ok := c.get(key); ok {
		c.metrics.GeocodeCache.WithLabelValues("hit").Inc()
		return result, nil
	}
	c.metrics.GeocodeCache.WithLabelValues("miss").Inc()

	ch := c.group.DoChan(key.String(), func() (any, error) {
		if result, ok := c.get(key); ok {
			return result, nil
		}
		result, err := c.inner.ReverseGeocode(context.WithoutCancel(ctx), lat, lon)
		if err != nil {
			return result, err
		}
		// Empty answers are not cached so a transient miss can be retried.
		if result.FormattedAddress != "" {
			c.put(key, result)
		}
		return result, nil
	})

	select {
	case <-ctx.Done():
		return domain.GeocodingResult{}, ctx.Err()
	case res := <-ch:
		return res.Val.(domain.GeocodingResult), res.Err
	}
}

// Len returns the number of cached places.
func (c *CachedGeocoder) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

func (c *CachedGeocoder) get(key point) (domain.GeocodingResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[key]
	if !ok {
		return domain.GeocodingResult{}, false
	}
	c.order.MoveToFront(el)
	return el.Value.(*cached).result, true
}

func (c *CachedGeocoder) put(key point, result domain.GeocodingResult) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[key]; ok {
		el.Value.(*cached).result = result
		c.order.MoveToFront(el)
		return
	}

	c.items[key] = c.order.PushFront(&cached{key: key, result: result})
	for c.order.Len() > c.max {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.items, oldest.Value.(*cached).key)
	}
}

func round6(v float64) int64 {
	return int64(math.Round(v * 1e6))
}

func (p point) String() string {
	return strconv.FormatInt(p.lat, 10) + "," + strconv.FormatInt(p.lon, 10)
}
