package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mealmap/restaurantweek/internal/application/services"
	"github.com/mealmap/restaurantweek/internal/domain/entities"
	apperrors "github.com/mealmap/restaurantweek/pkg/errors"
)

func eventFixture(t *testing.T) (*services.EventService, *memRestaurantRepo, *memEventRepo, *memMenuRepo) {
	t.Helper()

	restaurantRepo := newMemRestaurantRepo()
	eventRepo := newMemEventRepo()
	menuRepo := newMemMenuRepo()

	future := time.Now().AddDate(1, 0, 0).Format("2006-01-02")
	past := "2020-01-14"

	require.NoError(t, eventRepo.Create(context.Background(), &entities.Event{
		ID: "current", Name: "Restaurant Week", StartDate: "2026-01-01", EndDate: future,
	}))
	require.NoError(t, eventRepo.Create(context.Background(), &entities.Event{
		ID: "finished", Name: "Old Week", StartDate: "2020-01-01", EndDate: past,
	}))

	restaurantRepo.put(&entities.Restaurant{ID: "r1", Name: "A"})
	restaurantRepo.put(&entities.Restaurant{ID: "r2", Name: "B"})

	menus := []*entities.Menu{
		{ID: "m1", RestaurantID: "r1", EventID: "current", Meal: entities.MealLunch, Price: 25},
		{ID: "m2", RestaurantID: "r1", EventID: "current", Meal: entities.MealDinner, Price: 55},
		{ID: "m3", RestaurantID: "r2", EventID: "current", Meal: entities.MealDinner, Price: 60},
	}
	for _, m := range menus {
		require.NoError(t, menuRepo.Upsert(context.Background(), m))
	}

	return services.NewEventService(eventRepo, menuRepo, restaurantRepo), restaurantRepo, eventRepo, menuRepo
}

func TestEventService_ListActiveAnnotatesCounts(t *testing.T) {
	svc, _, _, _ := eventFixture(t)

	events, err := svc.ListActive(context.Background())
	require.NoError(t, err)
	require.Len(t, events, 1)

	event := events[0]
	assert.Equal(t, "current", event.ID)
	assert.Equal(t, 3, event.MenuCount)
	// r1 has two menus but counts once
	assert.Equal(t, 2, event.RestaurantCount)
}

func TestEventService_RestaurantsForEvent(t *testing.T) {
	svc, _, _, _ := eventFixture(t)

	restaurants, err := svc.RestaurantsForEvent(context.Background(), "current")
	require.NoError(t, err)
	assert.Len(t, restaurants, 2)

	_, err = svc.RestaurantsForEvent(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound))
}

func TestEventService_MenusForEvent(t *testing.T) {
	svc, _, _, _ := eventFixture(t)

	menus, err := svc.MenusForEvent(context.Background(), "current")
	require.NoError(t, err)
	assert.Len(t, menus, 3)

	menus, err = svc.MenusForEvent(context.Background(), "finished")
	require.NoError(t, err)
	assert.Empty(t, menus)
}
