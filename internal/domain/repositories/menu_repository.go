package repositories

import (
	"context"

	"github.com/mealmap/restaurantweek/internal/domain/entities"
)

// MenuRepository defines the interface for event menu data.
//
// A menu is unique per (restaurant, event, meal) triple; Upsert updates
// the existing row rather than duplicating it.
type MenuRepository interface {
	// Upsert inserts the menu or updates the existing
	// (restaurant, event, meal) row in place
	Upsert(ctx context.Context, menu *entities.Menu) error

	// ListByEvent retrieves all menus for an event
	ListByEvent(ctx context.Context, eventID string) ([]*entities.Menu, error)

	// ListByRestaurant retrieves all menus for a restaurant
	ListByRestaurant(ctx context.Context, restaurantID string) ([]*entities.Menu, error)
}
