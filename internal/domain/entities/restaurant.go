package entities

import (
	"time"
)

// MealType identifies one of the three meals a restaurant week menu covers
type MealType string

const (
	MealBrunch MealType = "brunch"
	MealLunch  MealType = "lunch"
	MealDinner MealType = "dinner"
)

// MealTypes lists all valid meal types in canonical order
var MealTypes = []MealType{MealBrunch, MealLunch, MealDinner}

// ValidMealType reports whether s names a known meal type
func ValidMealType(s string) bool {
	switch MealType(s) {
	case MealBrunch, MealLunch, MealDinner:
		return true
	}
	return false
}

// Restaurant represents a restaurant discoverable on the map.
//
// Meal availability is derived from price presence: a restaurant offers a
// meal iff the corresponding price is set. There are no separate
// availability booleans.
type Restaurant struct {
	ID           string    `json:"id" db:"id"`
	ScrapeKey    string    `json:"scrape_key,omitempty" db:"scrape_key"`
	Name         string    `json:"name" db:"name"`
	Rating       *float64  `json:"rating,omitempty" db:"rating"`
	Latitude     *float64  `json:"latitude,omitempty" db:"latitude"`
	Longitude    *float64  `json:"longitude,omitempty" db:"longitude"`
	Address      string    `json:"address,omitempty" db:"address"`
	WebsiteURL   string    `json:"website_url,omitempty" db:"website_url"`
	YelpURL      string    `json:"yelp_url,omitempty" db:"yelp_url"`
	OpenTableURL string    `json:"opentable_url,omitempty" db:"opentable_url"`
	Categories   []string  `json:"categories,omitempty" db:"-"`
	BrunchPrice  *float64  `json:"brunch_price,omitempty" db:"brunch_price"`
	LunchPrice   *float64  `json:"lunch_price,omitempty" db:"lunch_price"`
	DinnerPrice  *float64  `json:"dinner_price,omitempty" db:"dinner_price"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// Price returns the price for the given meal, or nil when not offered
func (r *Restaurant) Price(meal MealType) *float64 {
	switch meal {
	case MealBrunch:
		return r.BrunchPrice
	case MealLunch:
		return r.LunchPrice
	case MealDinner:
		return r.DinnerPrice
	}
	return nil
}

// OffersMeal reports whether the restaurant serves the given meal.
// Derived from price presence only.
func (r *Restaurant) OffersMeal(meal MealType) bool {
	return r.Price(meal) != nil
}

// HasCoordinates reports whether the restaurant can be spatially indexed.
// A restaurant is indexed iff both latitude and longitude are present.
func (r *Restaurant) HasCoordinates() bool {
	return r.Latitude != nil && r.Longitude != nil
}

// Location returns the restaurant's coordinates when both are present
func (r *Restaurant) Location() (Location, bool) {
	if !r.HasCoordinates() {
		return Location{}, false
	}
	return Location{Latitude: *r.Latitude, Longitude: *r.Longitude}, true
}

// RatingOrZero returns the rating, defaulting to 0 when unset.
// Used as the spatial index sort key.
func (r *Restaurant) RatingOrZero() float64 {
	if r.Rating == nil {
		return 0
	}
	return *r.Rating
}

// RestaurantEnrichment carries externally-produced data for a restaurant.
// Only set fields are applied, and only where the restaurant has no value yet.
type RestaurantEnrichment struct {
	Address      string   `json:"address,omitempty"`
	WebsiteURL   string   `json:"website_url,omitempty"`
	YelpURL      string   `json:"yelp_url,omitempty"`
	OpenTableURL string   `json:"opentable_url,omitempty"`
	Latitude     *float64 `json:"latitude,omitempty"`
	Longitude    *float64 `json:"longitude,omitempty"`
	Rating       *float64 `json:"rating,omitempty"`
	Categories   []string `json:"categories,omitempty"`
}
