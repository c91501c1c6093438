package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistance(t *testing.T) {
	pittsburgh := Point{Lat: 40.4406, Lng: -79.9959}
	cmu := Point{Lat: 40.4433, Lng: -79.9436}

	d := Distance(pittsburgh, cmu)
	assert.InDelta(t, 4430, d, 100)
	assert.Zero(t, Distance(cmu, cmu))
	assert.InDelta(t, d, Distance(cmu, pittsburgh), 1e-6)
}

func TestBoundingBoxContainsRadius(t *testing.T) {
	center := Point{Lat: 40.4406, Lng: -79.9959}
	radius := MilesToMeters(5)
	box := BoundingBox(center, radius)

	assert.Less(t, box.MinLat, center.Lat)
	assert.Greater(t, box.MaxLat, center.Lat)

	// points exactly on the radius in the four directions fall inside the box
	north := Point{Lat: box.MaxLat, Lng: center.Lng}
	assert.InDelta(t, radius, Distance(center, north), 1)
	east := Point{Lat: center.Lat, Lng: box.MaxLng}
	assert.GreaterOrEqual(t, Distance(center, east), radius-1)
}

func TestBoundingBoxEdges(t *testing.T) {
	pole := BoundingBox(Point{Lat: 89.99, Lng: 10}, MilesToMeters(50))
	assert.Equal(t, 90.0, pole.MaxLat)
	assert.Equal(t, -180.0, pole.MinLng)
	assert.Equal(t, 180.0, pole.MaxLng)

	dateline := BoundingBox(Point{Lat: 0, Lng: 179.99}, MilesToMeters(5))
	assert.Equal(t, -180.0, dateline.MinLng)
	assert.Equal(t, 180.0, dateline.MaxLng)
}

func TestWithin(t *testing.T) {
	center := Point{Lat: 0, Lng: 0}
	assert.True(t, Within(center, Point{Lat: 0.01, Lng: 0}, MilesToMeters(1)))
	assert.False(t, Within(center, Point{Lat: 0.1, Lng: 0}, MilesToMeters(1)))
}
