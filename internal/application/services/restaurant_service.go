package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/mealmap/restaurantweek/internal/domain/entities"
	"github.com/mealmap/restaurantweek/internal/domain/providers"
	"github.com/mealmap/restaurantweek/internal/domain/repositories"
	"github.com/mealmap/restaurantweek/internal/infrastructure/observability"
	apperrors "github.com/mealmap/restaurantweek/pkg/errors"
)

// RestaurantService owns the restaurant lifecycle. Every write lands in
// the database first; index sync and event publication follow
// asynchronously, so the index is eventually consistent with the records.
type RestaurantService struct {
	restaurantRepo repositories.RestaurantRepository
	sync           *IndexSyncService
	eventBus       providers.EventBus
}

// NewRestaurantService creates a new restaurant service
func NewRestaurantService(
	restaurantRepo repositories.RestaurantRepository,
	sync *IndexSyncService,
	eventBus providers.EventBus,
) *RestaurantService {
	return &RestaurantService{
		restaurantRepo: restaurantRepo,
		sync:           sync,
		eventBus:       eventBus,
	}
}

// Create creates a restaurant and schedules its index entry
func (s *RestaurantService) Create(ctx context.Context, restaurant *entities.Restaurant) error {
	ctx, span := observability.StartSpan(ctx, "RestaurantService.Create")
	defer span.End()

	if restaurant.Name == "" {
		return apperrors.NewValidationError("restaurant name is required")
	}
	if restaurant.ID == "" {
		restaurant.ID = uuid.NewString()
	}

	if err := s.restaurantRepo.Create(ctx, restaurant); err != nil {
		return err
	}

	s.syncAsync(restaurant)
	s.publishAsync(restaurant.ID, entities.RestaurantEventTypeCreated)
	return nil
}

// GetByID retrieves a restaurant by ID
func (s *RestaurantService) GetByID(ctx context.Context, id string) (*entities.Restaurant, error) {
	return s.restaurantRepo.GetByID(ctx, id)
}

// List retrieves all restaurants
func (s *RestaurantService) List(ctx context.Context) ([]*entities.Restaurant, error) {
	return s.restaurantRepo.List(ctx)
}

// ListCategories returns the distinct union of categories across all
// restaurants
func (s *RestaurantService) ListCategories(ctx context.Context) ([]string, error) {
	return s.restaurantRepo.ListCategories(ctx)
}

// Update replaces a restaurant record and resyncs its index entry.
// Clearing coordinates evicts the entry; setting them indexes it.
func (s *RestaurantService) Update(ctx context.Context, restaurant *entities.Restaurant) error {
	ctx, span := observability.StartSpan(ctx, "RestaurantService.Update")
	defer span.End()

	if restaurant.ID == "" {
		return apperrors.NewValidationError("restaurant id is required")
	}
	if restaurant.Name == "" {
		return apperrors.NewValidationError("restaurant name is required")
	}

	if err := s.restaurantRepo.Update(ctx, restaurant); err != nil {
		return err
	}

	s.syncAsync(restaurant)
	s.publishAsync(restaurant.ID, entities.RestaurantEventTypeUpdated)
	return nil
}

// Delete deletes a restaurant and evicts its index entry
func (s *RestaurantService) Delete(ctx context.Context, id string) error {
	ctx, span := observability.StartSpan(ctx, "RestaurantService.Delete")
	defer span.End()

	if err := s.restaurantRepo.Delete(ctx, id); err != nil {
		return err
	}

	go func() {
		bgCtx := context.Background()
		if _, err := s.sync.Desync(bgCtx, id); err != nil {
			log.Warn().Err(err).Str("restaurant_id", id).Msg("failed to remove restaurant from index")
		}
	}()
	s.publishAsync(id, entities.RestaurantEventTypeDeleted)
	return nil
}

// ApplyEnrichment merges externally-produced data into a restaurant.
// Scraped data wins: only fields the record is missing are filled in.
// When the merge gives the restaurant coordinates it had lacked, the
// restaurant becomes spatially discoverable via the resync.
func (s *RestaurantService) ApplyEnrichment(ctx context.Context, id string, enrichment entities.RestaurantEnrichment) (*entities.Restaurant, error) {
	ctx, span := observability.StartSpan(ctx, "RestaurantService.ApplyEnrichment")
	defer span.End()

	restaurant, err := s.restaurantRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if restaurant.Address == "" {
		restaurant.Address = enrichment.Address
	}
	if restaurant.WebsiteURL == "" {
		restaurant.WebsiteURL = enrichment.WebsiteURL
	}
	if restaurant.YelpURL == "" {
		restaurant.YelpURL = enrichment.YelpURL
	}
	if restaurant.OpenTableURL == "" {
		restaurant.OpenTableURL = enrichment.OpenTableURL
	}
	if restaurant.Rating == nil {
		restaurant.Rating = enrichment.Rating
	}
	if restaurant.Latitude == nil {
		restaurant.Latitude = enrichment.Latitude
	}
	if restaurant.Longitude == nil {
		restaurant.Longitude = enrichment.Longitude
	}
	if len(restaurant.Categories) == 0 {
		restaurant.Categories = enrichment.Categories
	}

	if err := s.restaurantRepo.Update(ctx, restaurant); err != nil {
		return nil, err
	}

	s.syncAsync(restaurant)
	s.publishAsync(restaurant.ID, entities.RestaurantEventTypeEnriched)
	return restaurant, nil
}

func (s *RestaurantService) syncAsync(restaurant *entities.Restaurant) {
	snapshot := *restaurant
	go func() {
		bgCtx := context.Background()
		if err := s.sync.SyncOne(bgCtx, &snapshot); err != nil {
			log.Warn().Err(err).Str("restaurant_id", snapshot.ID).Msg("failed to sync restaurant into index")
		}
	}()
}

func (s *RestaurantService) publishAsync(restaurantID string, eventType entities.RestaurantEventType) {
	if s.eventBus == nil {
		return
	}
	go func() {
		bgCtx := context.Background()
		event := entities.NewRestaurantEvent(restaurantID, eventType)
		if err := s.eventBus.Publish(bgCtx, providers.EventChannelRestaurantUpdates, event); err != nil {
			log.Warn().Err(err).Str("restaurant_id", restaurantID).Msg("failed to publish restaurant event")
		}
		// Targeted channel for consumers watching a single restaurant
		if err := s.eventBus.Publish(bgCtx, providers.GetRestaurantChannel(restaurantID), event); err != nil {
			log.Warn().Err(err).Str("restaurant_id", restaurantID).Msg("failed to publish targeted restaurant event")
		}
	}()
}
