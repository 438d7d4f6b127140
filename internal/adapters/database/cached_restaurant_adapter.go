package database

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/mealmap/restaurantweek/internal/domain/entities"
	"github.com/mealmap/restaurantweek/internal/domain/providers"
	"github.com/mealmap/restaurantweek/internal/domain/repositories"
	"github.com/mealmap/restaurantweek/internal/infrastructure/observability"
)

// CachedRestaurantAdapter wraps RestaurantAdapter with caching
type CachedRestaurantAdapter struct {
	adapter repositories.RestaurantRepository
	cache   providers.CacheProvider
	metrics *observability.Metrics
}

// NewCachedRestaurantAdapter creates a new cached restaurant adapter.
// metrics may be nil, in which case hit/miss counters are skipped.
func NewCachedRestaurantAdapter(adapter repositories.RestaurantRepository, cache providers.CacheProvider, metrics *observability.Metrics) repositories.RestaurantRepository {
	return &CachedRestaurantAdapter{
		adapter: adapter,
		cache:   cache,
		metrics: metrics,
	}
}

// Cache TTLs (in seconds)
const (
	restaurantByIDTTL  = 300 // 5 minutes for single restaurant
	restaurantListTTL  = 180 // 3 minutes for lists
	categoriesListTTL  = 600 // 10 minutes; category union moves slowly
	restaurantListKey  = "restaurants:list"
	categoriesCacheKey = "restaurants:categories"
)

func restaurantCacheKey(id string) string {
	return fmt.Sprintf("restaurant:%s", id)
}

// GetByID retrieves a restaurant by ID with caching
func (a *CachedRestaurantAdapter) GetByID(ctx context.Context, id string) (*entities.Restaurant, error) {
	cacheKey := restaurantCacheKey(id)

	// Try to get from cache first
	if cached, err := a.cache.Get(ctx, cacheKey); err == nil {
		var restaurant entities.Restaurant
		if err := json.Unmarshal(cached, &restaurant); err == nil {
			a.recordHit(ctx, cacheKey)
			return &restaurant, nil
		}
		// If unmarshal fails, continue to fetch from DB
		log.Warn().Str("restaurant_id", id).Msg("failed to unmarshal cached restaurant")
	}
	a.recordMiss(ctx, cacheKey)

	restaurant, err := a.adapter.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	// Update cache asynchronously to avoid blocking the response
	go func() {
		bgCtx := context.Background()
		if data, err := json.Marshal(restaurant); err == nil {
			if err := a.cache.Set(bgCtx, cacheKey, data, restaurantByIDTTL); err != nil {
				log.Warn().Err(err).Str("restaurant_id", id).Msg("failed to cache restaurant")
			}
		}
	}()

	return restaurant, nil
}

// GetByIDs retrieves multiple restaurants by IDs with batch caching
func (a *CachedRestaurantAdapter) GetByIDs(ctx context.Context, ids []string) ([]*entities.Restaurant, error) {
	if len(ids) == 0 {
		return []*entities.Restaurant{}, nil
	}

	cacheKeys := make([]string, len(ids))
	for i, id := range ids {
		cacheKeys[i] = restaurantCacheKey(id)
	}

	cached, _ := a.cache.GetMulti(ctx, cacheKeys)

	byID := make(map[string]*entities.Restaurant, len(ids))
	missingIDs := make([]string, 0)
	for i, id := range ids {
		if data, ok := cached[cacheKeys[i]]; ok {
			var restaurant entities.Restaurant
			if err := json.Unmarshal(data, &restaurant); err == nil {
				byID[id] = &restaurant
				a.recordHit(ctx, cacheKeys[i])
				continue
			}
		}
		a.recordMiss(ctx, cacheKeys[i])
		missingIDs = append(missingIDs, id)
	}

	if len(missingIDs) > 0 {
		dbRestaurants, err := a.adapter.GetByIDs(ctx, missingIDs)
		if err != nil {
			return nil, err
		}
		for _, restaurant := range dbRestaurants {
			byID[restaurant.ID] = restaurant
		}

		// Cache the missing restaurants asynchronously using batch operation
		go func() {
			bgCtx := context.Background()
			items := make(map[string][]byte)
			for _, restaurant := range dbRestaurants {
				if data, err := json.Marshal(restaurant); err == nil {
					items[restaurantCacheKey(restaurant.ID)] = data
				}
			}
			if len(items) > 0 {
				if err := a.cache.SetMulti(bgCtx, items, restaurantByIDTTL); err != nil {
					log.Warn().Err(err).Msg("failed to batch cache restaurants")
				}
			}
		}()
	}

	// Preserve the caller's ID ordering; missing IDs stay omitted
	restaurants := make([]*entities.Restaurant, 0, len(byID))
	for _, id := range ids {
		if restaurant, ok := byID[id]; ok {
			restaurants = append(restaurants, restaurant)
		}
	}
	return restaurants, nil
}

// GetByScrapeKey bypasses the cache; the ingestion path always wants the
// current row before merging scraped data into it
func (a *CachedRestaurantAdapter) GetByScrapeKey(ctx context.Context, key string) (*entities.Restaurant, error) {
	return a.adapter.GetByScrapeKey(ctx, key)
}

// List retrieves all restaurants with caching
func (a *CachedRestaurantAdapter) List(ctx context.Context) ([]*entities.Restaurant, error) {
	if cached, err := a.cache.Get(ctx, restaurantListKey); err == nil {
		var restaurants []*entities.Restaurant
		if err := json.Unmarshal(cached, &restaurants); err == nil {
			return restaurants, nil
		}
		log.Warn().Msg("failed to unmarshal cached restaurant list")
	}

	restaurants, err := a.adapter.List(ctx)
	if err != nil {
		return nil, err
	}

	go func() {
		bgCtx := context.Background()
		if data, err := json.Marshal(restaurants); err == nil {
			if err := a.cache.Set(bgCtx, restaurantListKey, data, restaurantListTTL); err != nil {
				log.Warn().Err(err).Msg("failed to cache restaurant list")
			}
		}
	}()

	return restaurants, nil
}

// ListCategories retrieves the distinct category union with caching
func (a *CachedRestaurantAdapter) ListCategories(ctx context.Context) ([]string, error) {
	if cached, err := a.cache.Get(ctx, categoriesCacheKey); err == nil {
		var categories []string
		if err := json.Unmarshal(cached, &categories); err == nil {
			return categories, nil
		}
	}

	categories, err := a.adapter.ListCategories(ctx)
	if err != nil {
		return nil, err
	}

	go func() {
		bgCtx := context.Background()
		if data, err := json.Marshal(categories); err == nil {
			if err := a.cache.Set(bgCtx, categoriesCacheKey, data, categoriesListTTL); err != nil {
				log.Warn().Err(err).Msg("failed to cache categories")
			}
		}
	}()

	return categories, nil
}

// Create creates a restaurant and invalidates related caches
func (a *CachedRestaurantAdapter) Create(ctx context.Context, restaurant *entities.Restaurant) error {
	if err := a.adapter.Create(ctx, restaurant); err != nil {
		return err
	}

	go a.invalidateDerived()
	return nil
}

// Update updates a restaurant and invalidates its cache
func (a *CachedRestaurantAdapter) Update(ctx context.Context, restaurant *entities.Restaurant) error {
	if err := a.adapter.Update(ctx, restaurant); err != nil {
		return err
	}

	go func() {
		bgCtx := context.Background()
		if err := a.cache.Delete(bgCtx, restaurantCacheKey(restaurant.ID)); err != nil {
			log.Warn().Err(err).Str("restaurant_id", restaurant.ID).Msg("failed to invalidate restaurant cache")
		}
	}()
	go a.invalidateDerived()
	return nil
}

// Delete deletes a restaurant and invalidates its cache
func (a *CachedRestaurantAdapter) Delete(ctx context.Context, id string) error {
	if err := a.adapter.Delete(ctx, id); err != nil {
		return err
	}

	go func() {
		bgCtx := context.Background()
		if err := a.cache.Delete(bgCtx, restaurantCacheKey(id)); err != nil {
			log.Warn().Err(err).Str("restaurant_id", id).Msg("failed to invalidate restaurant cache")
		}
	}()
	go a.invalidateDerived()
	return nil
}

func (a *CachedRestaurantAdapter) recordHit(ctx context.Context, key string) {
	if a.metrics != nil {
		observability.RecordCacheHit(ctx, a.metrics, key)
	}
}

func (a *CachedRestaurantAdapter) recordMiss(ctx context.Context, key string) {
	if a.metrics != nil {
		observability.RecordCacheMiss(ctx, a.metrics, key)
	}
}

func (a *CachedRestaurantAdapter) invalidateDerived() {
	bgCtx := context.Background()
	if err := a.cache.Delete(bgCtx, restaurantListKey); err != nil {
		log.Warn().Err(err).Msg("failed to invalidate restaurant list cache")
	}
	if err := a.cache.Delete(bgCtx, categoriesCacheKey); err != nil {
		log.Warn().Err(err).Msg("failed to invalidate categories cache")
	}
	if err := a.cache.DeletePattern(bgCtx, "bounds:*"); err != nil {
		log.Warn().Err(err).Msg("failed to invalidate bounds query cache")
	}
}
