package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mealmap/restaurantweek/internal/adapters/geoindex"
	"github.com/mealmap/restaurantweek/internal/application/services"
	"github.com/mealmap/restaurantweek/internal/domain/entities"
	apperrors "github.com/mealmap/restaurantweek/pkg/errors"
)

func restaurantFixture(t *testing.T) (*services.RestaurantService, *memRestaurantRepo, *geoindex.MemoryIndex) {
	t.Helper()

	repo := newMemRestaurantRepo()
	index := geoindex.NewMemoryIndex()
	sync := services.NewIndexSyncService(repo, index)
	svc := services.NewRestaurantService(repo, sync, nil)
	return svc, repo, index
}

func TestRestaurantService_CreateValidatesAndIndexes(t *testing.T) {
	svc, repo, index := restaurantFixture(t)

	err := svc.Create(context.Background(), &entities.Restaurant{})
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))

	restaurant := &entities.Restaurant{
		Name:     "Harborview Grill",
		Latitude: fptr(37.7749), Longitude: fptr(-122.4194),
	}
	require.NoError(t, svc.Create(context.Background(), restaurant))
	assert.NotEmpty(t, restaurant.ID)

	stored, err := repo.GetByID(context.Background(), restaurant.ID)
	require.NoError(t, err)
	assert.Equal(t, "Harborview Grill", stored.Name)

	// Index sync runs asynchronously
	require.Eventually(t, func() bool { return index.Len() == 1 },
		time.Second, 10*time.Millisecond)
}

func TestRestaurantService_CreateWithoutCoordinatesSkipsIndex(t *testing.T) {
	svc, _, index := restaurantFixture(t)

	require.NoError(t, svc.Create(context.Background(), &entities.Restaurant{Name: "No Address Yet"}))

	// Never indexed; nothing to wait for beyond the goroutine settling
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 0, index.Len())
}

func TestRestaurantService_DeleteEvictsIndex(t *testing.T) {
	svc, _, index := restaurantFixture(t)

	restaurant := &entities.Restaurant{
		Name:     "Harborview Grill",
		Latitude: fptr(37.7749), Longitude: fptr(-122.4194),
	}
	require.NoError(t, svc.Create(context.Background(), restaurant))
	require.Eventually(t, func() bool { return index.Len() == 1 },
		time.Second, 10*time.Millisecond)

	require.NoError(t, svc.Delete(context.Background(), restaurant.ID))
	require.Eventually(t, func() bool { return index.Len() == 0 },
		time.Second, 10*time.Millisecond)

	err := svc.Delete(context.Background(), restaurant.ID)
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound))
}

func TestRestaurantService_ApplyEnrichmentFillsOnlyMissing(t *testing.T) {
	svc, repo, index := restaurantFixture(t)

	repo.put(&entities.Restaurant{
		ID:         "r1",
		Name:       "La Cave",
		WebsiteURL: "https://lacave.example",
	})

	enriched, err := svc.ApplyEnrichment(context.Background(), "r1", entities.RestaurantEnrichment{
		WebsiteURL: "https://wrong.example", // present, must not change
		Address:    "42 Rue Principale",
		Rating:     fptr(4.4),
		Latitude:   fptr(37.7730),
		Longitude:  fptr(-122.4210),
	})
	require.NoError(t, err)

	assert.Equal(t, "https://lacave.example", enriched.WebsiteURL)
	assert.Equal(t, "42 Rue Principale", enriched.Address)
	require.NotNil(t, enriched.Rating)
	assert.Equal(t, 4.4, *enriched.Rating)

	// Gained coordinates: becomes spatially discoverable
	require.Eventually(t, func() bool { return index.Len() == 1 },
		time.Second, 10*time.Millisecond)
}

func TestRestaurantService_ApplyEnrichmentUnknownRestaurant(t *testing.T) {
	svc, _, _ := restaurantFixture(t)

	_, err := svc.ApplyEnrichment(context.Background(), "missing", entities.RestaurantEnrichment{})
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound))
}
