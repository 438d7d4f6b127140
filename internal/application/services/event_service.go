package services

import (
	"context"
	"time"

	"github.com/mealmap/restaurantweek/internal/domain/entities"
	"github.com/mealmap/restaurantweek/internal/domain/repositories"
)

// EventService exposes restaurant week events and their participation
type EventService struct {
	eventRepo      repositories.EventRepository
	menuRepo       repositories.MenuRepository
	restaurantRepo repositories.RestaurantRepository
}

// NewEventService creates a new event service
func NewEventService(
	eventRepo repositories.EventRepository,
	menuRepo repositories.MenuRepository,
	restaurantRepo repositories.RestaurantRepository,
) *EventService {
	return &EventService{
		eventRepo:      eventRepo,
		menuRepo:       menuRepo,
		restaurantRepo: restaurantRepo,
	}
}

// ListActive returns current and upcoming events ordered by start date,
// each annotated with its menu and participating restaurant counts.
// Counts are computed at read time, never stored.
func (s *EventService) ListActive(ctx context.Context) ([]*entities.Event, error) {
	nowISO := time.Now().UTC().Format("2006-01-02")

	events, err := s.eventRepo.ListEndingAfter(ctx, nowISO)
	if err != nil {
		return nil, err
	}

	for _, event := range events {
		if err := s.annotateCounts(ctx, event); err != nil {
			return nil, err
		}
	}
	return events, nil
}

// GetByID retrieves an event with its participation counts
func (s *EventService) GetByID(ctx context.Context, id string) (*entities.Event, error) {
	event, err := s.eventRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.annotateCounts(ctx, event); err != nil {
		return nil, err
	}
	return event, nil
}

// GetByName retrieves an event by its exact name with its participation
// counts
func (s *EventService) GetByName(ctx context.Context, name string) (*entities.Event, error) {
	event, err := s.eventRepo.GetByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if err := s.annotateCounts(ctx, event); err != nil {
		return nil, err
	}
	return event, nil
}

// MenusForRestaurant returns every menu a restaurant has registered
// across all events
func (s *EventService) MenusForRestaurant(ctx context.Context, restaurantID string) ([]*entities.Menu, error) {
	if _, err := s.restaurantRepo.GetByID(ctx, restaurantID); err != nil {
		return nil, err
	}
	return s.menuRepo.ListByRestaurant(ctx, restaurantID)
}

// MenusForEvent returns all menus registered for an event
func (s *EventService) MenusForEvent(ctx context.Context, eventID string) ([]*entities.Menu, error) {
	if _, err := s.eventRepo.GetByID(ctx, eventID); err != nil {
		return nil, err
	}
	return s.menuRepo.ListByEvent(ctx, eventID)
}

// RestaurantsForEvent returns the distinct restaurants participating in
// an event
func (s *EventService) RestaurantsForEvent(ctx context.Context, eventID string) ([]*entities.Restaurant, error) {
	menus, err := s.MenusForEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}

	ids := uniqueRestaurantIDs(menus)
	if len(ids) == 0 {
		return []*entities.Restaurant{}, nil
	}
	return s.restaurantRepo.GetByIDs(ctx, ids)
}

func (s *EventService) annotateCounts(ctx context.Context, event *entities.Event) error {
	menus, err := s.menuRepo.ListByEvent(ctx, event.ID)
	if err != nil {
		return err
	}
	event.MenuCount = len(menus)
	event.RestaurantCount = len(uniqueRestaurantIDs(menus))
	return nil
}

func uniqueRestaurantIDs(menus []*entities.Menu) []string {
	seen := make(map[string]struct{}, len(menus))
	ids := make([]string, 0, len(menus))
	for _, menu := range menus {
		if _, ok := seen[menu.RestaurantID]; ok {
			continue
		}
		seen[menu.RestaurantID] = struct{}{}
		ids = append(ids, menu.RestaurantID)
	}
	return ids
}
