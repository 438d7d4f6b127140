package services_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mealmap/restaurantweek/internal/adapters/geoindex"
	"github.com/mealmap/restaurantweek/internal/application/services"
	"github.com/mealmap/restaurantweek/internal/domain/entities"
	"github.com/mealmap/restaurantweek/internal/domain/repositories"
	apperrors "github.com/mealmap/restaurantweek/pkg/errors"
)

// memRestaurantRepo is an in-memory RestaurantRepository for service tests
type memRestaurantRepo struct {
	mu   sync.RWMutex
	data map[string]*entities.Restaurant
}

func newMemRestaurantRepo() *memRestaurantRepo {
	return &memRestaurantRepo{data: make(map[string]*entities.Restaurant)}
}

func (m *memRestaurantRepo) put(r *entities.Restaurant) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[r.ID] = r
}

func (m *memRestaurantRepo) Create(_ context.Context, r *entities.Restaurant) error {
	m.put(r)
	return nil
}

func (m *memRestaurantRepo) GetByID(_ context.Context, id string) (*entities.Restaurant, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if r, ok := m.data[id]; ok {
		return r, nil
	}
	return nil, apperrors.NewNotFoundError("restaurant not found")
}

func (m *memRestaurantRepo) GetByIDs(_ context.Context, ids []string) ([]*entities.Restaurant, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []*entities.Restaurant{}
	for _, id := range ids {
		if r, ok := m.data[id]; ok {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memRestaurantRepo) GetByScrapeKey(_ context.Context, key string) (*entities.Restaurant, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, r := range m.data {
		if r.ScrapeKey == key {
			return r, nil
		}
	}
	return nil, apperrors.NewNotFoundError("restaurant not found")
}

func (m *memRestaurantRepo) Update(_ context.Context, r *entities.Restaurant) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.data[r.ID]; !ok {
		return apperrors.NewNotFoundError("restaurant not found")
	}
	m.data[r.ID] = r
	return nil
}

func (m *memRestaurantRepo) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.data[id]; !ok {
		return apperrors.NewNotFoundError("restaurant not found")
	}
	delete(m.data, id)
	return nil
}

func (m *memRestaurantRepo) List(_ context.Context) ([]*entities.Restaurant, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []*entities.Restaurant{}
	for _, r := range m.data {
		out = append(out, r)
	}
	return out, nil
}

func (m *memRestaurantRepo) ListCategories(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	seen := map[string]struct{}{}
	out := []string{}
	for _, r := range m.data {
		for _, c := range r.Categories {
			if _, ok := seen[c]; !ok {
				seen[c] = struct{}{}
				out = append(out, c)
			}
		}
	}
	return out, nil
}

func seededService(t *testing.T) (*services.GeoQueryService, *memRestaurantRepo, *geoindex.MemoryIndex) {
	t.Helper()

	repo := newMemRestaurantRepo()
	index := geoindex.NewMemoryIndex()
	sync := services.NewIndexSyncService(repo, index)
	gate := services.NewEntitlementGate(&mockBilling{allowed: true})
	svc := services.NewGeoQueryService(repo, index, gate, nil, nil)

	seed := []*entities.Restaurant{
		{
			ID: "american-45", Name: "Harborview Grill",
			Latitude: fptr(37.7749), Longitude: fptr(-122.4194),
			Rating: fptr(4.6), LunchPrice: fptr(45), Categories: []string{"American"},
		},
		{
			ID: "thai-25", Name: "Lotus Kitchen",
			Latitude: fptr(37.7760), Longitude: fptr(-122.4180),
			Rating: fptr(4.2), LunchPrice: fptr(25), Categories: []string{"Thai"},
		},
		{
			ID: "dinner-80", Name: "La Cave",
			Latitude: fptr(37.7730), Longitude: fptr(-122.4210),
			Rating: fptr(4.9), DinnerPrice: fptr(80), Categories: []string{"French"},
		},
		{
			ID: "elsewhere", Name: "Uptown Diner",
			Latitude: fptr(40.7128), Longitude: fptr(-74.0060),
			Rating: fptr(4.0), LunchPrice: fptr(45), Categories: []string{"American"},
		},
	}
	for _, r := range seed {
		repo.put(r)
		require.NoError(t, sync.SyncOne(context.Background(), r))
	}

	return svc, repo, index
}

func downtownQuery() services.BoundsQuery {
	return services.BoundsQuery{
		Rect: entities.Rectangle{North: 37.80, South: 37.70, East: -122.40, West: -122.43},
	}
}

func TestGeoQueryService_BoundsOnly(t *testing.T) {
	svc, _, _ := seededService(t)

	result, err := svc.QueryBounds(context.Background(), downtownQuery())
	require.NoError(t, err)
	require.Len(t, result.Restaurants, 3)

	// Rating-descending order from the index carries through
	assert.Equal(t, "dinner-80", result.Restaurants[0].ID)
	assert.Equal(t, "american-45", result.Restaurants[1].ID)
	assert.Equal(t, "thai-25", result.Restaurants[2].ID)
	assert.Empty(t, result.NextCursor)
}

func TestGeoQueryService_CombinedFilter(t *testing.T) {
	svc, _, _ := seededService(t)

	query := downtownQuery()
	query.Filter = repositories.BoundsFilter{
		Lunch:      repositories.PriceBound{Min: fptr(40), Max: fptr(50)},
		Categories: []string{"American"},
	}
	query.CustomerID = "cust-1"

	result, err := svc.QueryBounds(context.Background(), query)
	require.NoError(t, err)
	require.Len(t, result.Restaurants, 1)
	assert.Equal(t, "american-45", result.Restaurants[0].ID)
}

func TestGeoQueryService_GateRefusesCombinedFilter(t *testing.T) {
	repo := newMemRestaurantRepo()
	index := geoindex.NewMemoryIndex()
	gate := services.NewEntitlementGate(&mockBilling{allowed: false})
	svc := services.NewGeoQueryService(repo, index, gate, nil, nil)

	query := downtownQuery()
	query.Filter = repositories.BoundsFilter{
		Lunch:      repositories.PriceBound{Min: fptr(40)},
		Categories: []string{"American"},
	}

	_, err := svc.QueryBounds(context.Background(), query)
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypePremiumRequired))
}

func TestGeoQueryService_EmptyCandidatesShortCircuit(t *testing.T) {
	svc, _, _ := seededService(t)

	query := services.BoundsQuery{
		Rect: entities.Rectangle{North: 10, South: 9, East: 10, West: 9},
	}
	result, err := svc.QueryBounds(context.Background(), query)
	require.NoError(t, err)
	assert.Empty(t, result.Restaurants)
	assert.Empty(t, result.NextCursor)
}

func TestGeoQueryService_DanglingIndexEntriesDropped(t *testing.T) {
	svc, repo, _ := seededService(t)

	// Record deleted but index not yet caught up
	require.NoError(t, repo.Delete(context.Background(), "thai-25"))

	result, err := svc.QueryBounds(context.Background(), downtownQuery())
	require.NoError(t, err)
	require.Len(t, result.Restaurants, 2)
	for _, r := range result.Restaurants {
		assert.NotEqual(t, "thai-25", r.ID)
	}
}

func TestGeoQueryService_CursorPassthroughWithShortPages(t *testing.T) {
	svc, _, _ := seededService(t)

	// Page size 2 with a filter only one restaurant satisfies: the first
	// page may come back with zero or one result while NextCursor still
	// points at the remaining candidates.
	query := downtownQuery()
	query.Limit = 2
	query.Filter = repositories.BoundsFilter{
		Lunch: repositories.PriceBound{Min: fptr(40), Max: fptr(50)},
	}

	var collected []*entities.Restaurant
	cursor := ""
	for {
		query.Cursor = cursor
		result, err := svc.QueryBounds(context.Background(), query)
		require.NoError(t, err)
		collected = append(collected, result.Restaurants...)
		if result.NextCursor == "" {
			break
		}
		cursor = result.NextCursor
	}

	require.Len(t, collected, 1)
	assert.Equal(t, "american-45", collected[0].ID)
}

func TestGeoQueryService_QueryNearest(t *testing.T) {
	svc, _, _ := seededService(t)

	point := entities.Location{Latitude: 37.7749, Longitude: -122.4194}
	nearby, err := svc.QueryNearest(context.Background(), point, 2, 0)
	require.NoError(t, err)
	require.Len(t, nearby, 2)

	assert.Equal(t, "american-45", nearby[0].Restaurant.ID)
	assert.LessOrEqual(t, nearby[0].DistanceMeters, nearby[1].DistanceMeters)
}
