package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/mealmap/restaurantweek/internal/domain/entities"
	"github.com/mealmap/restaurantweek/internal/domain/providers"
	"github.com/mealmap/restaurantweek/internal/domain/repositories"
	"github.com/mealmap/restaurantweek/internal/infrastructure/observability"
)

// boundsQueryTTL is deliberately short: pages are invalidated by pattern
// only on bulk maintenance, otherwise they age out on their own.
const boundsQueryTTL = 60

// BoundsQuery is one bounded map query: a rectangle, attribute filters,
// and pagination state
type BoundsQuery struct {
	Rect       entities.Rectangle
	Filter     repositories.BoundsFilter
	Limit      int
	Cursor     string
	CustomerID string
}

// BoundsResult is one page of bounded query results. NextCursor is the
// spatial index's continuation cursor passed through unchanged; a page
// may be short or empty while more pages remain.
type BoundsResult struct {
	Restaurants []*entities.Restaurant `json:"restaurants"`
	NextCursor  string                 `json:"next_cursor,omitempty"`
}

// NearbyRestaurant is one nearest-neighbor result
type NearbyRestaurant struct {
	Restaurant     *entities.Restaurant `json:"restaurant"`
	DistanceMeters float64              `json:"distance_meters"`
}

// GeoQueryService orchestrates bounded map queries: spatial candidates
// from the index, records from the repository, attribute filtering in
// between. The index is authoritative for geometry and pagination; the
// repository is authoritative for attributes.
type GeoQueryService struct {
	restaurantRepo repositories.RestaurantRepository
	index          repositories.SpatialIndex
	gate           *EntitlementGate
	cache          providers.CacheProvider
	metrics        *observability.Metrics
}

// NewGeoQueryService creates a new geo query service. cache may be nil,
// in which case every page is computed fresh.
func NewGeoQueryService(
	restaurantRepo repositories.RestaurantRepository,
	index repositories.SpatialIndex,
	gate *EntitlementGate,
	cache providers.CacheProvider,
	metrics *observability.Metrics,
) *GeoQueryService {
	return &GeoQueryService{
		restaurantRepo: restaurantRepo,
		index:          index,
		gate:           gate,
		cache:          cache,
		metrics:        metrics,
	}
}

// QueryBounds returns one page of restaurants inside the query rectangle
// that satisfy the attribute filter.
//
// Candidate keys that no longer resolve to a record are dropped silently;
// the index catches up eventually. Filtering happens after the fetch, so
// a page can come back shorter than the limit, or empty, while NextCursor
// still points at more candidates.
func (s *GeoQueryService) QueryBounds(ctx context.Context, query BoundsQuery) (*BoundsResult, error) {
	ctx, span := observability.StartSpan(ctx, "GeoQueryService.QueryBounds")
	defer span.End()

	start := time.Now()
	gated := FilterDimensionCount(query.Filter) > 1

	if err := s.gate.Authorize(ctx, query.Filter, query.CustomerID); err != nil {
		return nil, err
	}

	// Authorization never comes from the cache; only the page does
	cacheKey := boundsCacheKey(query)
	if cached, ok := s.cachedPage(ctx, cacheKey); ok {
		s.record(ctx, gated, len(cached.Restaurants), start)
		return cached, nil
	}

	page, err := s.index.Query(ctx, query.Rect, query.Limit, query.Cursor)
	if err != nil {
		return nil, err
	}

	result := &BoundsResult{
		Restaurants: []*entities.Restaurant{},
		NextCursor:  page.NextCursor,
	}
	if len(page.Results) == 0 {
		s.record(ctx, gated, 0, start)
		return result, nil
	}

	ids := make([]string, 0, len(page.Results))
	for _, hit := range page.Results {
		ids = append(ids, hit.Key)
	}

	restaurants, err := s.restaurantRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	for _, restaurant := range restaurants {
		if MatchesBounds(restaurant, query.Filter) {
			result.Restaurants = append(result.Restaurants, restaurant)
		}
	}

	s.cachePage(cacheKey, result)
	s.record(ctx, gated, len(result.Restaurants), start)
	return result, nil
}

func boundsCacheKey(query BoundsQuery) string {
	payload, _ := json.Marshal(struct {
		Rect   entities.Rectangle        `json:"rect"`
		Filter repositories.BoundsFilter `json:"filter"`
		Limit  int                       `json:"limit"`
		Cursor string                    `json:"cursor"`
	}{query.Rect, query.Filter, query.Limit, query.Cursor})
	sum := sha256.Sum256(payload)
	return fmt.Sprintf("bounds:%s", hex.EncodeToString(sum[:16]))
}

func (s *GeoQueryService) cachedPage(ctx context.Context, key string) (*BoundsResult, bool) {
	if s.cache == nil {
		return nil, false
	}
	data, err := s.cache.Get(ctx, key)
	if err != nil {
		return nil, false
	}
	var result BoundsResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, false
	}
	return &result, true
}

func (s *GeoQueryService) cachePage(key string, result *BoundsResult) {
	if s.cache == nil {
		return
	}
	go func() {
		bgCtx := context.Background()
		data, err := json.Marshal(result)
		if err != nil {
			return
		}
		if err := s.cache.Set(bgCtx, key, data, boundsQueryTTL); err != nil {
			log.Warn().Err(err).Msg("failed to cache bounded query page")
		}
	}()
}

// QueryNearest returns up to maxResults restaurants closest to point,
// nearest first. No attribute filtering and no gate; a single implicit
// dimension at most.
func (s *GeoQueryService) QueryNearest(ctx context.Context, point entities.Location, maxResults int, maxDistanceMeters float64) ([]NearbyRestaurant, error) {
	ctx, span := observability.StartSpan(ctx, "GeoQueryService.QueryNearest")
	defer span.End()

	hits, err := s.index.QueryNearest(ctx, point, maxResults, maxDistanceMeters)
	if err != nil {
		return nil, err
	}
	if len(hits) == 0 {
		return []NearbyRestaurant{}, nil
	}

	ids := make([]string, 0, len(hits))
	for _, hit := range hits {
		ids = append(ids, hit.Key)
	}

	restaurants, err := s.restaurantRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*entities.Restaurant, len(restaurants))
	for _, restaurant := range restaurants {
		byID[restaurant.ID] = restaurant
	}

	nearby := make([]NearbyRestaurant, 0, len(hits))
	for _, hit := range hits {
		restaurant, ok := byID[hit.Key]
		if !ok {
			continue
		}
		nearby = append(nearby, NearbyRestaurant{
			Restaurant:     restaurant,
			DistanceMeters: hit.DistanceMeters,
		})
	}

	return nearby, nil
}

func (s *GeoQueryService) record(ctx context.Context, gated bool, resultCount int, start time.Time) {
	if s.metrics == nil {
		return
	}
	observability.RecordGeoQueryMetric(ctx, s.metrics, gated, resultCount, time.Since(start))
}
