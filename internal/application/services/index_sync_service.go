package services

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/mealmap/restaurantweek/internal/domain/entities"
	"github.com/mealmap/restaurantweek/internal/domain/repositories"
)

// IndexSyncService reconciles the spatial index with restaurant records.
// The database is the source of truth; the index is derived state and is
// rebuilt from it, never the other way around.
type IndexSyncService struct {
	restaurantRepo repositories.RestaurantRepository
	index          repositories.SpatialIndex
}

// NewIndexSyncService creates a new index sync service
func NewIndexSyncService(restaurantRepo repositories.RestaurantRepository, index repositories.SpatialIndex) *IndexSyncService {
	return &IndexSyncService{
		restaurantRepo: restaurantRepo,
		index:          index,
	}
}

// SyncOne brings the index entry for one restaurant in line with its
// record: upserted when it has coordinates, removed when it does not.
// Removing a restaurant that was never indexed is a no-op.
func (s *IndexSyncService) SyncOne(ctx context.Context, restaurant *entities.Restaurant) error {
	location, ok := restaurant.Location()
	if !ok {
		_, err := s.index.Remove(ctx, restaurant.ID)
		return err
	}

	return s.index.Insert(ctx, repositories.SpatialEntry{
		Key:        restaurant.ID,
		Location:   location,
		Categories: restaurant.Categories,
		Rating:     restaurant.RatingOrZero(),
	})
}

// SyncByID fetches the restaurant and reconciles its index entry. A
// missing restaurant is an error here; callers reconciling a deletion
// use Desync instead.
func (s *IndexSyncService) SyncByID(ctx context.Context, restaurantID string) error {
	restaurant, err := s.restaurantRepo.GetByID(ctx, restaurantID)
	if err != nil {
		return err
	}
	return s.SyncOne(ctx, restaurant)
}

// Desync removes a restaurant's index entry, reporting whether it existed
func (s *IndexSyncService) Desync(ctx context.Context, restaurantID string) (bool, error) {
	return s.index.Remove(ctx, restaurantID)
}

// SyncAll resyncs every restaurant record into the index and returns the
// number of entries upserted. Idempotent; running it twice leaves the
// index unchanged.
func (s *IndexSyncService) SyncAll(ctx context.Context) (int, error) {
	restaurants, err := s.restaurantRepo.List(ctx)
	if err != nil {
		return 0, err
	}

	synced := 0
	for _, restaurant := range restaurants {
		if err := s.SyncOne(ctx, restaurant); err != nil {
			log.Warn().Err(err).Str("restaurant_id", restaurant.ID).Msg("failed to sync restaurant into index")
			continue
		}
		if restaurant.HasCoordinates() {
			synced++
		}
	}

	log.Info().Int("total", len(restaurants)).Int("synced", synced).Msg("spatial index resync complete")
	return synced, nil
}
