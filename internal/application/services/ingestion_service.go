package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/mealmap/restaurantweek/internal/domain/entities"
	"github.com/mealmap/restaurantweek/internal/domain/repositories"
	"github.com/mealmap/restaurantweek/internal/infrastructure/observability"
	apperrors "github.com/mealmap/restaurantweek/pkg/errors"
)

// ScrapedMenu is one meal offering lifted from an event listing
type ScrapedMenu struct {
	Meal  entities.MealType `json:"meal"`
	Price float64           `json:"price"`
	URL   string            `json:"url,omitempty"`
}

// ScrapedRestaurant is one restaurant as it appears in a scraped event
// listing. Key is the scrape dedup key; everything else is best effort.
type ScrapedRestaurant struct {
	Key        string        `json:"key"`
	Name       string        `json:"name"`
	Latitude   *float64      `json:"latitude,omitempty"`
	Longitude  *float64      `json:"longitude,omitempty"`
	Categories []string      `json:"categories,omitempty"`
	WebsiteURL string        `json:"website_url,omitempty"`
	Menus      []ScrapedMenu `json:"menus"`
}

// IngestResult summarizes one scraped batch
type IngestResult struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
	Menus   int `json:"menus"`
}

// IngestionService stores scraped event listings. Restaurants are keyed
// by scrape key across runs; scraped data merges into existing records
// without clobbering fields that enrichment already filled.
type IngestionService struct {
	restaurantRepo repositories.RestaurantRepository
	eventRepo      repositories.EventRepository
	menuRepo       repositories.MenuRepository
	sync           *IndexSyncService
}

// NewIngestionService creates a new ingestion service
func NewIngestionService(
	restaurantRepo repositories.RestaurantRepository,
	eventRepo repositories.EventRepository,
	menuRepo repositories.MenuRepository,
	sync *IndexSyncService,
) *IngestionService {
	return &IngestionService{
		restaurantRepo: restaurantRepo,
		eventRepo:      eventRepo,
		menuRepo:       menuRepo,
		sync:           sync,
	}
}

// StoreScraped upserts a scraped batch under the given event. Menu prices
// roll up onto the restaurant record per meal, which is what makes the
// restaurant visible to price filters. Index sync for touched restaurants
// is deferred to the end of the batch.
func (s *IngestionService) StoreScraped(ctx context.Context, eventID string, scraped []ScrapedRestaurant) (*IngestResult, error) {
	ctx, span := observability.StartSpan(ctx, "IngestionService.StoreScraped")
	defer span.End()

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}

	syncTime := time.Now()
	result := &IngestResult{}
	touched := make([]*entities.Restaurant, 0, len(scraped))

	for _, item := range scraped {
		if item.Key == "" || item.Name == "" {
			return nil, apperrors.NewValidationError("scraped restaurant needs a key and a name")
		}

		restaurant, created, err := s.upsertRestaurant(ctx, item, syncTime)
		if err != nil {
			return nil, err
		}
		if created {
			result.Created++
		} else {
			result.Updated++
		}

		for _, menu := range item.Menus {
			if err := s.menuRepo.Upsert(ctx, &entities.Menu{
				ID:           uuid.NewString(),
				RestaurantID: restaurant.ID,
				EventID:      event.ID,
				Meal:         menu.Meal,
				Price:        menu.Price,
				URL:          menu.URL,
				SyncTime:     syncTime,
			}); err != nil {
				return nil, err
			}
			result.Menus++
		}

		if rollUpPrices(restaurant, item.Menus) {
			if err := s.restaurantRepo.Update(ctx, restaurant); err != nil {
				return nil, err
			}
		}
		touched = append(touched, restaurant)
	}

	if err := s.eventRepo.UpdateSyncTime(ctx, event.ID, syncTime); err != nil {
		return nil, err
	}

	// Index sync deferred to batch end; one pass over everything touched
	for _, restaurant := range touched {
		if err := s.sync.SyncOne(ctx, restaurant); err != nil {
			log.Warn().Err(err).Str("restaurant_id", restaurant.ID).Msg("failed to sync ingested restaurant")
		}
	}

	log.Info().
		Str("event_id", event.ID).
		Int("created", result.Created).
		Int("updated", result.Updated).
		Int("menus", result.Menus).
		Msg("stored scraped batch")

	return result, nil
}

// upsertRestaurant finds or creates the restaurant for a scraped item and
// merges scraped fields in. Merge never clobbers: fields the record
// already carries win over the scrape.
func (s *IngestionService) upsertRestaurant(ctx context.Context, item ScrapedRestaurant, syncTime time.Time) (*entities.Restaurant, bool, error) {
	restaurant, err := s.restaurantRepo.GetByScrapeKey(ctx, item.Key)
	if err != nil {
		if !apperrors.IsType(err, apperrors.ErrorTypeNotFound) {
			return nil, false, err
		}

		restaurant = &entities.Restaurant{
			ID:         uuid.NewString(),
			ScrapeKey:  item.Key,
			Name:       item.Name,
			Latitude:   item.Latitude,
			Longitude:  item.Longitude,
			Categories: item.Categories,
			WebsiteURL: item.WebsiteURL,
			CreatedAt:  syncTime,
			UpdatedAt:  syncTime,
		}
		if err := s.restaurantRepo.Create(ctx, restaurant); err != nil {
			return nil, false, err
		}
		return restaurant, true, nil
	}

	changed := false
	if restaurant.Latitude == nil && item.Latitude != nil {
		restaurant.Latitude = item.Latitude
		changed = true
	}
	if restaurant.Longitude == nil && item.Longitude != nil {
		restaurant.Longitude = item.Longitude
		changed = true
	}
	if len(restaurant.Categories) == 0 && len(item.Categories) > 0 {
		restaurant.Categories = item.Categories
		changed = true
	}
	if restaurant.WebsiteURL == "" && item.WebsiteURL != "" {
		restaurant.WebsiteURL = item.WebsiteURL
		changed = true
	}
	if changed {
		if err := s.restaurantRepo.Update(ctx, restaurant); err != nil {
			return nil, false, err
		}
	}
	return restaurant, false, nil
}

// rollUpPrices copies menu prices onto the restaurant's per-meal price
// fields and reports whether anything changed. Price presence is what
// drives meal availability, so this is load bearing for filtering.
func rollUpPrices(restaurant *entities.Restaurant, menus []ScrapedMenu) bool {
	changed := false
	for _, menu := range menus {
		price := menu.Price
		switch menu.Meal {
		case entities.MealBrunch:
			if restaurant.BrunchPrice == nil || *restaurant.BrunchPrice != price {
				restaurant.BrunchPrice = &price
				changed = true
			}
		case entities.MealLunch:
			if restaurant.LunchPrice == nil || *restaurant.LunchPrice != price {
				restaurant.LunchPrice = &price
				changed = true
			}
		case entities.MealDinner:
			if restaurant.DinnerPrice == nil || *restaurant.DinnerPrice != price {
				restaurant.DinnerPrice = &price
				changed = true
			}
		}
	}
	return changed
}
