package entities_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mealmap/restaurantweek/internal/domain/entities"
)

func TestLocationValid(t *testing.T) {
	assert.True(t, entities.Location{Latitude: 37.77, Longitude: -122.41}.Valid())
	assert.True(t, entities.Location{Latitude: -90, Longitude: 180}.Valid())

	assert.False(t, entities.Location{Latitude: 91, Longitude: 0}.Valid())
	assert.False(t, entities.Location{Latitude: 0, Longitude: -181}.Valid())
	assert.False(t, entities.Location{Latitude: math.NaN(), Longitude: 0}.Valid())
	assert.False(t, entities.Location{Latitude: 0, Longitude: math.Inf(1)}.Valid())
}

func TestRectangleContains(t *testing.T) {
	rect := entities.Rectangle{North: 38, South: 37, East: -122, West: -123}

	assert.True(t, rect.Contains(entities.Location{Latitude: 37.5, Longitude: -122.5}))
	// Boundary points are inside
	assert.True(t, rect.Contains(entities.Location{Latitude: 38, Longitude: -123}))
	assert.True(t, rect.Contains(entities.Location{Latitude: 37, Longitude: -122}))

	assert.False(t, rect.Contains(entities.Location{Latitude: 38.1, Longitude: -122.5}))
	assert.False(t, rect.Contains(entities.Location{Latitude: 37.5, Longitude: -121.9}))
}

func TestDistanceMeters(t *testing.T) {
	// One degree of longitude on the equator
	a := entities.Location{Latitude: 0, Longitude: 0}
	b := entities.Location{Latitude: 0, Longitude: 1}
	assert.InDelta(t, 111195, entities.DistanceMeters(a, b), 100)

	// Zero distance to itself
	assert.InDelta(t, 0, entities.DistanceMeters(a, a), 0.001)

	// Symmetric
	sf := entities.Location{Latitude: 37.7749, Longitude: -122.4194}
	ny := entities.Location{Latitude: 40.7128, Longitude: -74.0060}
	assert.InDelta(t, entities.DistanceMeters(sf, ny), entities.DistanceMeters(ny, sf), 0.001)
	// SF to NY is roughly 4130 km
	assert.InDelta(t, 4130000, entities.DistanceMeters(sf, ny), 20000)
}
