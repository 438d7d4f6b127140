package providers

import (
	"context"

	"github.com/mealmap/restaurantweek/internal/domain/entities"
)

// EventBus defines the interface for publishing and subscribing to
// restaurant change events
type EventBus interface {
	// Publish publishes an event to all subscribers
	Publish(ctx context.Context, channel string, event *entities.RestaurantEvent) error

	// Subscribe subscribes to events on a channel
	Subscribe(ctx context.Context, channel string) (<-chan *entities.RestaurantEvent, error)

	// Unsubscribe unsubscribes from a channel
	Unsubscribe(ctx context.Context, channel string) error

	// Close closes the event bus and all subscriptions
	Close() error
}

// EventChannel constants for different event types
const (
	// EventChannelRestaurantUpdates is the channel for all restaurant updates
	EventChannelRestaurantUpdates = "restaurant:updates"

	// EventChannelRestaurantPrefix is the prefix for restaurant-specific channels
	EventChannelRestaurantPrefix = "restaurant:"
)

// GetRestaurantChannel returns the channel name for a specific restaurant
func GetRestaurantChannel(restaurantID string) string {
	return EventChannelRestaurantPrefix + restaurantID
}
