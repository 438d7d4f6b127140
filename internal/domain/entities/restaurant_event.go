package entities

import (
	"crypto/rand"
	"encoding/hex"
	"time"
)

// RestaurantEventType represents the type of restaurant change event
type RestaurantEventType string

const (
	RestaurantEventTypeCreated  RestaurantEventType = "created"
	RestaurantEventTypeUpdated  RestaurantEventType = "updated"
	RestaurantEventTypeDeleted  RestaurantEventType = "deleted"
	RestaurantEventTypeEnriched RestaurantEventType = "enriched"
)

// RestaurantEvent represents a change notification for a restaurant,
// published on the event bus for cache invalidation and live updates
type RestaurantEvent struct {
	ID           string              `json:"id"`
	RestaurantID string              `json:"restaurant_id"`
	EventType    RestaurantEventType `json:"event_type"`
	Timestamp    time.Time           `json:"timestamp"`
}

// NewRestaurantEvent creates a new restaurant change event
func NewRestaurantEvent(restaurantID string, eventType RestaurantEventType) *RestaurantEvent {
	return &RestaurantEvent{
		ID:           generateEventID(),
		RestaurantID: restaurantID,
		EventType:    eventType,
		Timestamp:    time.Now(),
	}
}

// generateEventID generates a unique event ID
func generateEventID() string {
	return time.Now().Format("20060102150405") + "-" + randomString(8)
}

// randomString generates a random string of specified length
func randomString(length int) string {
	bytes := make([]byte, length/2+1)
	if _, err := rand.Read(bytes); err != nil {
		// Fallback to timestamp-based if crypto/rand fails
		return time.Now().Format("150405.000")
	}
	return hex.EncodeToString(bytes)[:length]
}
