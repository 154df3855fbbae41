package geo

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBoundaryLifecycle(t *testing.T) {
	b := NewBoundary()
	assert.Equal(t, 0.0, b.Acres())

	for _, p := range equatorSquare {
		b.Add(p)
	}
	assert.Equal(t, 4, b.Len())
	assert.Equal(t, Acres(equatorSquare), b.Acres())

	ring := b.Ring()
	require.Len(t, ring, 5)
	assert.Equal(t, ring[0], ring[4])
	assert.Equal(t, 4, b.Len(), "ring must not mutate the boundary")

	b.Reset()
	assert.Equal(t, 0, b.Len())
	assert.Equal(t, 0.0, b.Acres())
}

func TestCloseRing(t *testing.T) {
	t.Run("two points stay open", func(t *testing.T) {
		pts := []Coordinate{{Lat: 1, Lng: 1}, {Lat: 2, Lng: 2}}
		assert.Len(t, CloseRing(pts), 2)
	})
	t.Run("already closed", func(t *testing.T) {
		pts := []Coordinate{{Lat: 1, Lng: 1}, {Lat: 2, Lng: 2}, {Lat: 3, Lng: 1}, {Lat: 1, Lng: 1}}
		assert.Len(t, CloseRing(pts), 4)
	})
}

func TestCentroid(t *testing.T) {
	_, ok := Centroid(nil)
	assert.False(t, ok)

	c, ok := Centroid(equatorSquare)
	require.True(t, ok)
	assert.InDelta(t, 0.0005, c.Lat, 1e-12)
	assert.InDelta(t, 0.0005, c.Lng, 1e-12)
}

func TestPolygonUsesLngLatOrder(t *testing.T) {
	pts := []Coordinate{{Lat: 10, Lng: 20}, {Lat: 11, Lng: 20}, {Lat: 11, Lng: 21}}
	g := Polygon(pts)
	require.Len(t, g.Polygon, 1)
	require.Len(t, g.Polygon[0], 4)
	assert.Equal(t, []float64{20, 10}, g.Polygon[0][0])
	assert.Equal(t, g.Polygon[0][0], g.Polygon[0][3])

	raw, err := json.Marshal(g)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"type":"Polygon"`)
}
