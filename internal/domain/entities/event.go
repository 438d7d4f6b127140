package entities

import "time"

// Event represents a restaurant week event.
//
// StartDate and EndDate are ISO-8601 strings; with a fixed representation
// they compare correctly as plain strings.
type Event struct {
	ID         string    `json:"id" db:"id"`
	Name       string    `json:"name" db:"name"`
	StartDate  string    `json:"start_date" db:"start_date"`
	EndDate    string    `json:"end_date" db:"end_date"`
	Location   Location  `json:"location" db:"-"`
	WebsiteURL string    `json:"website_url,omitempty" db:"website_url"`
	SyncTime   time.Time `json:"sync_time" db:"sync_time"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`

	// Denormalized counts computed at read time from menus; never stored
	MenuCount       int `json:"menu_count" db:"-"`
	RestaurantCount int `json:"restaurant_count" db:"-"`
}

// ActiveAt reports whether the event is current or upcoming at the given
// ISO-8601 instant
func (e *Event) ActiveAt(nowISO string) bool {
	return e.EndDate >= nowISO
}

// Menu associates one restaurant with one event for one meal.
// At most one menu exists per (restaurant, event, meal) triple.
type Menu struct {
	ID           string    `json:"id" db:"id"`
	RestaurantID string    `json:"restaurant_id" db:"restaurant_id"`
	EventID      string    `json:"event_id" db:"event_id"`
	Meal         MealType  `json:"meal" db:"meal"`
	Price        float64   `json:"price" db:"price"`
	URL          string    `json:"url,omitempty" db:"url"`
	SyncTime     time.Time `json:"sync_time" db:"sync_time"`
}
