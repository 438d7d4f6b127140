package services_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mealmap/restaurantweek/internal/adapters/geoindex"
	"github.com/mealmap/restaurantweek/internal/application/services"
	"github.com/mealmap/restaurantweek/internal/domain/entities"
	apperrors "github.com/mealmap/restaurantweek/pkg/errors"
)

// memEventRepo is an in-memory EventRepository for service tests
type memEventRepo struct {
	mu   sync.RWMutex
	data map[string]*entities.Event
}

func newMemEventRepo() *memEventRepo {
	return &memEventRepo{data: make(map[string]*entities.Event)}
}

func (m *memEventRepo) Create(_ context.Context, e *entities.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[e.ID] = e
	return nil
}

func (m *memEventRepo) GetByID(_ context.Context, id string) (*entities.Event, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if e, ok := m.data[id]; ok {
		return e, nil
	}
	return nil, apperrors.NewNotFoundError("event not found")
}

func (m *memEventRepo) GetByName(_ context.Context, name string) (*entities.Event, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, e := range m.data {
		if e.Name == name {
			return e, nil
		}
	}
	return nil, apperrors.NewNotFoundError("event not found")
}

func (m *memEventRepo) ListEndingAfter(_ context.Context, nowISO string) ([]*entities.Event, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []*entities.Event{}
	for _, e := range m.data {
		if e.EndDate >= nowISO {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *memEventRepo) UpdateSyncTime(_ context.Context, id string, syncTime time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.data[id]
	if !ok {
		return apperrors.NewNotFoundError("event not found")
	}
	e.SyncTime = syncTime
	return nil
}

// memMenuRepo is an in-memory MenuRepository enforcing the
// (restaurant,event,meal) uniqueness
type memMenuRepo struct {
	mu    sync.RWMutex
	menus []*entities.Menu
}

func newMemMenuRepo() *memMenuRepo {
	return &memMenuRepo{}
}

func (m *memMenuRepo) Upsert(_ context.Context, menu *entities.Menu) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.menus {
		if existing.RestaurantID == menu.RestaurantID &&
			existing.EventID == menu.EventID &&
			existing.Meal == menu.Meal {
			existing.Price = menu.Price
			if menu.URL != "" {
				existing.URL = menu.URL
			}
			existing.SyncTime = menu.SyncTime
			menu.ID = existing.ID
			return nil
		}
	}
	copied := *menu
	m.menus = append(m.menus, &copied)
	return nil
}

func (m *memMenuRepo) ListByEvent(_ context.Context, eventID string) ([]*entities.Menu, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []*entities.Menu{}
	for _, menu := range m.menus {
		if menu.EventID == eventID {
			out = append(out, menu)
		}
	}
	return out, nil
}

func (m *memMenuRepo) ListByRestaurant(_ context.Context, restaurantID string) ([]*entities.Menu, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []*entities.Menu{}
	for _, menu := range m.menus {
		if menu.RestaurantID == restaurantID {
			out = append(out, menu)
		}
	}
	return out, nil
}

func ingestionFixture(t *testing.T) (*services.IngestionService, *memRestaurantRepo, *memEventRepo, *memMenuRepo, *geoindex.MemoryIndex) {
	t.Helper()

	restaurantRepo := newMemRestaurantRepo()
	eventRepo := newMemEventRepo()
	menuRepo := newMemMenuRepo()
	index := geoindex.NewMemoryIndex()
	sync := services.NewIndexSyncService(restaurantRepo, index)

	require.NoError(t, eventRepo.Create(context.Background(), &entities.Event{
		ID:        "rw-2026",
		Name:      "Restaurant Week 2026",
		StartDate: "2026-09-01",
		EndDate:   "2026-09-14",
	}))

	svc := services.NewIngestionService(restaurantRepo, eventRepo, menuRepo, sync)
	return svc, restaurantRepo, eventRepo, menuRepo, index
}

func TestIngestionService_StoreScrapedCreatesAndIndexes(t *testing.T) {
	svc, restaurantRepo, eventRepo, menuRepo, index := ingestionFixture(t)

	scraped := []services.ScrapedRestaurant{
		{
			Key:        "harborview-grill",
			Name:       "Harborview Grill",
			Latitude:   fptr(37.7749),
			Longitude:  fptr(-122.4194),
			Categories: []string{"American"},
			Menus: []services.ScrapedMenu{
				{Meal: entities.MealLunch, Price: 45},
				{Meal: entities.MealDinner, Price: 65},
			},
		},
	}

	result, err := svc.StoreScraped(context.Background(), "rw-2026", scraped)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Created)
	assert.Equal(t, 2, result.Menus)

	restaurant, err := restaurantRepo.GetByScrapeKey(context.Background(), "harborview-grill")
	require.NoError(t, err)

	// Menu prices rolled up onto the record
	require.NotNil(t, restaurant.LunchPrice)
	assert.Equal(t, 45.0, *restaurant.LunchPrice)
	require.NotNil(t, restaurant.DinnerPrice)
	assert.Equal(t, 65.0, *restaurant.DinnerPrice)
	assert.Nil(t, restaurant.BrunchPrice)

	// Indexed because it had coordinates
	assert.Equal(t, 1, index.Len())

	menus, err := menuRepo.ListByEvent(context.Background(), "rw-2026")
	require.NoError(t, err)
	assert.Len(t, menus, 2)

	event, err := eventRepo.GetByID(context.Background(), "rw-2026")
	require.NoError(t, err)
	assert.False(t, event.SyncTime.IsZero())
}

func TestIngestionService_RepeatRunUpserts(t *testing.T) {
	svc, restaurantRepo, _, menuRepo, _ := ingestionFixture(t)

	scraped := []services.ScrapedRestaurant{
		{
			Key:  "lotus-kitchen",
			Name: "Lotus Kitchen",
			Menus: []services.ScrapedMenu{
				{Meal: entities.MealLunch, Price: 25},
			},
		},
	}

	_, err := svc.StoreScraped(context.Background(), "rw-2026", scraped)
	require.NoError(t, err)

	// Price changed on the second scrape
	scraped[0].Menus[0].Price = 30
	_, err = svc.StoreScraped(context.Background(), "rw-2026", scraped)
	require.NoError(t, err)

	// Still one menu row, updated in place
	menus, err := menuRepo.ListByEvent(context.Background(), "rw-2026")
	require.NoError(t, err)
	require.Len(t, menus, 1)
	assert.Equal(t, 30.0, menus[0].Price)

	restaurant, err := restaurantRepo.GetByScrapeKey(context.Background(), "lotus-kitchen")
	require.NoError(t, err)
	require.NotNil(t, restaurant.LunchPrice)
	assert.Equal(t, 30.0, *restaurant.LunchPrice)
}

func TestIngestionService_MergeDoesNotClobber(t *testing.T) {
	svc, restaurantRepo, _, _, _ := ingestionFixture(t)

	// Enrichment already gave this restaurant coordinates and categories
	restaurantRepo.put(&entities.Restaurant{
		ID:         "r1",
		ScrapeKey:  "la-cave",
		Name:       "La Cave",
		Latitude:   fptr(37.7730),
		Longitude:  fptr(-122.4210),
		Categories: []string{"French"},
	})

	scraped := []services.ScrapedRestaurant{
		{
			Key:        "la-cave",
			Name:       "La Cave",
			Latitude:   fptr(99),            // bogus scrape; must not win
			Categories: []string{"Unknown"}, // must not win
			WebsiteURL: "https://lacave.example",
			Menus:      []services.ScrapedMenu{{Meal: entities.MealDinner, Price: 80}},
		},
	}

	_, err := svc.StoreScraped(context.Background(), "rw-2026", scraped)
	require.NoError(t, err)

	restaurant, err := restaurantRepo.GetByScrapeKey(context.Background(), "la-cave")
	require.NoError(t, err)
	assert.Equal(t, 37.7730, *restaurant.Latitude)
	assert.Equal(t, []string{"French"}, restaurant.Categories)
	// Missing field was filled
	assert.Equal(t, "https://lacave.example", restaurant.WebsiteURL)
}

func TestIngestionService_RejectsAnonymousEntries(t *testing.T) {
	svc, _, _, _, _ := ingestionFixture(t)

	_, err := svc.StoreScraped(context.Background(), "rw-2026", []services.ScrapedRestaurant{
		{Name: "No Key"},
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
}

func TestIngestionService_UnknownEvent(t *testing.T) {
	svc, _, _, _, _ := ingestionFixture(t)

	_, err := svc.StoreScraped(context.Background(), "no-such-event", nil)
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound))
}
