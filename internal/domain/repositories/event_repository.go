package repositories

import (
	"context"
	"time"

	"github.com/mealmap/restaurantweek/internal/domain/entities"
)

// EventRepository defines the interface for restaurant week event data
type EventRepository interface {
	// Create creates a new event
	Create(ctx context.Context, event *entities.Event) error

	// GetByID retrieves an event by ID
	GetByID(ctx context.Context, id string) (*entities.Event, error)

	// GetByName retrieves an event by its exact name
	GetByName(ctx context.Context, name string) (*entities.Event, error)

	// ListEndingAfter retrieves events whose end date is at or after the
	// given ISO-8601 instant, ordered by start date
	ListEndingAfter(ctx context.Context, nowISO string) ([]*entities.Event, error)

	// UpdateSyncTime stamps the event's last ingestion sync time
	UpdateSyncTime(ctx context.Context, id string, syncTime time.Time) error
}
