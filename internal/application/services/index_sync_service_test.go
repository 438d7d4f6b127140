package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mealmap/restaurantweek/internal/adapters/geoindex"
	"github.com/mealmap/restaurantweek/internal/application/services"
	"github.com/mealmap/restaurantweek/internal/domain/entities"
	"github.com/mealmap/restaurantweek/internal/domain/repositories"
)

func repositorySpatialEntry(key string, lat, lon float64) repositories.SpatialEntry {
	return repositories.SpatialEntry{
		Key:      key,
		Location: entities.Location{Latitude: lat, Longitude: lon},
	}
}

func TestIndexSyncService_SyncOneInsertsWithCoordinates(t *testing.T) {
	repo := newMemRestaurantRepo()
	index := geoindex.NewMemoryIndex()
	sync := services.NewIndexSyncService(repo, index)

	restaurant := &entities.Restaurant{
		ID: "r1", Name: "Harborview Grill",
		Latitude: fptr(37.7749), Longitude: fptr(-122.4194), Rating: fptr(4.5),
	}
	require.NoError(t, sync.SyncOne(context.Background(), restaurant))
	assert.Equal(t, 1, index.Len())
}

func TestIndexSyncService_SyncOneRemovesWithoutCoordinates(t *testing.T) {
	repo := newMemRestaurantRepo()
	index := geoindex.NewMemoryIndex()
	sync := services.NewIndexSyncService(repo, index)

	restaurant := &entities.Restaurant{
		ID: "r1", Name: "Harborview Grill",
		Latitude: fptr(37.7749), Longitude: fptr(-122.4194),
	}
	require.NoError(t, sync.SyncOne(context.Background(), restaurant))
	require.Equal(t, 1, index.Len())

	// Coordinates cleared: the entry must go
	restaurant.Latitude = nil
	require.NoError(t, sync.SyncOne(context.Background(), restaurant))
	assert.Equal(t, 0, index.Len())

	// Syncing an unindexed coordinate-less restaurant is a no-op
	require.NoError(t, sync.SyncOne(context.Background(), &entities.Restaurant{ID: "r2", Name: "No Address Yet"}))
	assert.Equal(t, 0, index.Len())
}

func TestIndexSyncService_SyncByID(t *testing.T) {
	repo := newMemRestaurantRepo()
	index := geoindex.NewMemoryIndex()
	sync := services.NewIndexSyncService(repo, index)

	repo.put(&entities.Restaurant{
		ID: "r1", Name: "Harborview Grill",
		Latitude: fptr(37.7749), Longitude: fptr(-122.4194),
	})

	require.NoError(t, sync.SyncByID(context.Background(), "r1"))
	assert.Equal(t, 1, index.Len())

	// Unknown id is an error on the by-id path
	assert.Error(t, sync.SyncByID(context.Background(), "missing"))
}

func TestIndexSyncService_SyncAllIsIdempotent(t *testing.T) {
	repo := newMemRestaurantRepo()
	index := geoindex.NewMemoryIndex()
	sync := services.NewIndexSyncService(repo, index)

	repo.put(&entities.Restaurant{
		ID: "r1", Name: "A", Latitude: fptr(37.77), Longitude: fptr(-122.41), Rating: fptr(4.0),
	})
	repo.put(&entities.Restaurant{
		ID: "r2", Name: "B", Latitude: fptr(37.78), Longitude: fptr(-122.42), Rating: fptr(3.5),
	})
	repo.put(&entities.Restaurant{ID: "r3", Name: "C"}) // no coordinates

	synced, err := sync.SyncAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, synced)
	assert.Equal(t, 2, index.Len())

	// Second run changes nothing
	synced, err = sync.SyncAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, synced)
	assert.Equal(t, 2, index.Len())
}

func TestIndexSyncService_Desync(t *testing.T) {
	repo := newMemRestaurantRepo()
	index := geoindex.NewMemoryIndex()
	sync := services.NewIndexSyncService(repo, index)

	require.NoError(t, index.Insert(context.Background(),
		repositorySpatialEntry("r1", 37.77, -122.41)))

	found, err := sync.Desync(context.Background(), "r1")
	require.NoError(t, err)
	assert.True(t, found)

	found, err = sync.Desync(context.Background(), "r1")
	require.NoError(t, err)
	assert.False(t, found)
}
