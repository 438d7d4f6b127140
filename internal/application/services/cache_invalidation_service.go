package services

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/mealmap/restaurantweek/internal/domain/entities"
	"github.com/mealmap/restaurantweek/internal/domain/providers"
)

// CacheInvalidationService listens for restaurant change events and
// invalidates the affected cache entries. Bounds query caches are left to
// expire on their short TTL; invalidating them per event would stampede
// the database for every write.
type CacheInvalidationService struct {
	cache    providers.CacheProvider
	eventBus providers.EventBus
	ctx      context.Context
	cancel   context.CancelFunc
}

// NewCacheInvalidationService creates a new cache invalidation service
func NewCacheInvalidationService(cache providers.CacheProvider, eventBus providers.EventBus) *CacheInvalidationService {
	ctx, cancel := context.WithCancel(context.Background())
	return &CacheInvalidationService{
		cache:    cache,
		eventBus: eventBus,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start begins listening for restaurant updates
func (s *CacheInvalidationService) Start() error {
	eventChan, err := s.eventBus.Subscribe(s.ctx, providers.EventChannelRestaurantUpdates)
	if err != nil {
		return fmt.Errorf("failed to subscribe to restaurant updates: %w", err)
	}

	go s.processEvents(eventChan)
	log.Info().Msg("cache invalidation service started")
	return nil
}

// Stop stops the cache invalidation service
func (s *CacheInvalidationService) Stop() {
	s.cancel()
	log.Info().Msg("cache invalidation service stopped")
}

func (s *CacheInvalidationService) processEvents(eventChan <-chan *entities.RestaurantEvent) {
	for {
		select {
		case <-s.ctx.Done():
			return
		case event := <-eventChan:
			if event == nil {
				continue
			}
			s.handleEvent(event)
		}
	}
}

func (s *CacheInvalidationService) handleEvent(event *entities.RestaurantEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	log.Debug().
		Str("event_id", event.ID).
		Str("restaurant_id", event.RestaurantID).
		Str("event_type", string(event.EventType)).
		Msg("processing cache invalidation")

	key := fmt.Sprintf("restaurant:%s", event.RestaurantID)
	if err := s.cache.Delete(ctx, key); err != nil {
		log.Warn().Err(err).Str("restaurant_id", event.RestaurantID).Msg("failed to invalidate restaurant cache")
	}

	// Category union and list caches can change on any write
	if err := s.cache.Delete(ctx, "restaurants:categories"); err != nil {
		log.Warn().Err(err).Msg("failed to invalidate categories cache")
	}
	if err := s.cache.Delete(ctx, "restaurants:list"); err != nil {
		log.Warn().Err(err).Msg("failed to invalidate restaurant list cache")
	}
}

// InvalidateQueryCaches clears all bounded query caches. Heavy; reserved
// for bulk resyncs and maintenance.
func (s *CacheInvalidationService) InvalidateQueryCaches(ctx context.Context) error {
	if err := s.cache.DeletePattern(ctx, "bounds:*"); err != nil {
		return fmt.Errorf("failed to invalidate bounds caches: %w", err)
	}
	log.Info().Msg("invalidated bounded query caches")
	return nil
}
